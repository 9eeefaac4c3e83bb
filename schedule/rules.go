package schedule

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// FuneralAddOnKind distinguishes percentage-of-base items from flat
// currency items in the funeral add-on table.
type FuneralAddOnKind string

const (
	AddOnPercent FuneralAddOnKind = "pct"
	AddOnAmount  FuneralAddOnKind = "monto"
)

// FuneralAddOn is one selectable funeral-sector add-on for a month.
type FuneralAddOn struct {
	ID    string
	Label string
	Kind  FuneralAddOnKind
	Value decimal.Decimal // percent when Kind==pct, pesos when Kind==monto
}

// Funeral add-on ids, fixed across months; the amounts change.
const (
	FuneralGeneral     = "CADAVER"  // all personnel, drivers included
	FuneralResto       = "RESTO"    // personnel outside inciso 1
	FuneralChofer      = "CHOFER"   // driver / hearse operator
	FuneralIndumentary = "INDUMENT" // clothing allowance
)

// ConnectionTier is a water-utility surcharge tier. The multiplier
// compounds +7% per step: A=1.00, B=1.07, C=1.07², D=1.07³.
type ConnectionTier struct {
	Letter     string
	Multiplier decimal.Decimal
	FromCount  int
	ToCount    int // 0 = open-ended
}

// KmRate is a tourism (CCT 547/08) per-km pay rate pair for a vehicle
// category: a rate for the first 100 km of a trip and a higher one
// beyond it.
type KmRate struct {
	Under100 decimal.Decimal
	Over100  decimal.Decimal
}

// RuleSet bundles the ancillary rule tables that accompany the wage
// schedule. Like the schedule itself it is loaded once and read-only.
type RuleSet struct {
	// FuneralByMonth maps YYYY-MM to that month's add-on list. Months
	// without an entry inherit the latest earlier month.
	FuneralByMonth map[string][]FuneralAddOn

	ConnectionTiers []ConnectionTier

	// TitlePercents maps tourism education level names to percentages.
	TitlePercents map[string]decimal.Decimal

	// CashierRates maps cashier grade to the cash-handling percentage
	// over the reference base.
	CashierRates map[string]decimal.Decimal

	// TurismoKmByMonth maps YYYY-MM to per-vehicle-category km rates,
	// with the same carry-forward as FuneralByMonth.
	TurismoKmByMonth map[string]map[string]KmRate
}

func (rs RuleSet) funeralAddOnsAt(month string) []FuneralAddOn {
	if items, ok := rs.FuneralByMonth[month]; ok {
		return items
	}
	if m := latestBefore(keys(rs.FuneralByMonth), month); m != "" {
		return rs.FuneralByMonth[m]
	}
	return nil
}

func (rs RuleSet) kmRateAt(month, vehicle string) (KmRate, bool) {
	v := strings.ToUpper(strings.TrimSpace(vehicle))
	table, ok := rs.TurismoKmByMonth[month]
	if !ok {
		if m := latestBefore(keys(rs.TurismoKmByMonth), month); m != "" {
			table = rs.TurismoKmByMonth[m]
		}
	}
	rate, ok := table[v]
	return rate, ok
}

func (rs RuleSet) connectionTier(letter string, count int) (ConnectionTier, bool) {
	l := strings.ToUpper(strings.TrimSpace(letter))
	for _, t := range rs.ConnectionTiers {
		if l != "" {
			if t.Letter == l {
				return t, true
			}
			continue
		}
		if count >= t.FromCount && (t.ToCount == 0 || count <= t.ToCount) {
			return t, true
		}
	}
	return ConnectionTier{}, false
}

func (rs RuleSet) titlePercent(level string) decimal.Decimal {
	if p, ok := rs.TitlePercents[NormName(level)]; ok {
		return p
	}
	return decimal.Zero
}

func (rs RuleSet) cashierRate(grade string) decimal.Decimal {
	if p, ok := rs.CashierRates[strings.ToUpper(strings.TrimSpace(grade))]; ok {
		return p
	}
	return decimal.Zero
}

// latestBefore returns the greatest month key <= target, "" if none.
// YYYY-MM strings order lexicographically.
func latestBefore(months []string, target string) string {
	sort.Strings(months)
	best := ""
	for _, m := range months {
		if m <= target {
			best = m
		}
	}
	return best
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// =============================================================================
// DEFAULTS
// =============================================================================

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return v
}

// DefaultRules returns the rule tables currently agreed for the
// convention. Stores may override any table from persisted data.
func DefaultRules() RuleSet {
	return RuleSet{
		ConnectionTiers: []ConnectionTier{
			{Letter: "A", Multiplier: d("1.00"), FromCount: 0, ToCount: 1000},
			{Letter: "B", Multiplier: d("1.07"), FromCount: 1001, ToCount: 2000},
			{Letter: "C", Multiplier: d("1.1449"), FromCount: 2001, ToCount: 3000},
			{Letter: "D", Multiplier: d("1.225043"), FromCount: 3001},
		},
		TitlePercents: map[string]decimal.Decimal{
			"TERCIARIO":     d("10"),
			"UNIVERSITARIO": d("20"),
			"IDIOMAS":       d("10"),
		},
		CashierRates: map[string]decimal.Decimal{
			// Art. 30: grades A and C over the Cajeros A reference
			// base, grade B over the Cajeros B base.
			"A": d("12.25"),
			"B": d("48"),
			"C": d("12.25"),
		},
		TurismoKmByMonth: map[string]map[string]KmRate{
			"2026-01": {
				"C4": {Under100: d("112.31"), Over100: d("129.16")},
				"C5": {Under100: d("110.62"), Over100: d("127.21")},
			},
			"2026-05": {
				"C4": {Under100: d("122.31"), Over100: d("140.66")},
				"C5": {Under100: d("120.62"), Over100: d("138.71")},
			},
		},
		FuneralByMonth: map[string][]FuneralAddOn{},
	}
}
