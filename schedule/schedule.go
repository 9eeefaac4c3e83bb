/*
Package schedule holds the master wage schedule and its rule tables.

PURPOSE:
  The liquidation engines never read files or databases; they consume
  this package's Repository contract. A Repository answers:

  - Lookup: base wage + non-remunerative amounts for a
    (rama, agrupamiento, categoría, mes) key
  - ReferenceWage: "reference" base wages for historical allowances
    (vidriera, cajeros, km) that are pegged to OTHER categories
  - Rule tables: funeral add-ons, water-utility connection tiers,
    tourism title percentages and per-km rates, cashier rates
  - Meta: the distinct combinations, for populating UI dropdowns

KEYING:
  Keys are normalized: uppercased, whitespace collapsed, accents
  folded, months truncated to YYYY-MM. Branch synonyms are unified
  ("CENTRO DE LLAMADAS" -> "CALL CENTER", "FÚNEBRES" -> "FUNEBRES").
  An ungrouped category is stored under the sentinel "—" grouping.

LIFECYCLE:
  An Index is built once from rows (see store/sqlite) and is read-only
  thereafter. Concurrent readers need no coordination.

SEE ALSO:
  - rules.go: rule-table types and defaults
  - liquidation: the engines consuming this contract
*/
package schedule

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Ungrouped is the sentinel grouping for categories without one.
const Ungrouped = "—"

// Canonical branch names after normalization.
const (
	BranchGeneral    = "GENERAL"
	BranchTurismo    = "TURISMO"
	BranchCereales   = "CEREALES"
	BranchCallCenter = "CALL CENTER"
	BranchAgua       = "AGUA POTABLE"
	BranchFunebres   = "FUNEBRES"
)

// Branches is the fixed set of convention branches, always present in
// Meta even when the loaded schedule is missing some of them.
var Branches = []string{
	BranchAgua, BranchCallCenter, BranchCereales,
	BranchFunebres, BranchGeneral, BranchTurismo,
}

// WageRecord is one row of the master schedule: the base wage and the
// non-remunerative amounts agreed for a category in a given month.
type WageRecord struct {
	Branch   string
	Grouping string
	Category string
	Month    string // YYYY-MM

	Basico   decimal.Decimal // base wage
	NoRem    decimal.Decimal // non-remunerative, variable component
	SumaFija decimal.Decimal // non-remunerative, fixed component
}

// Repository is the read contract the liquidation engines depend on.
type Repository interface {
	// Lookup resolves a wage record by its exact normalized key.
	Lookup(branch, grouping, category, month string) (WageRecord, bool)

	// ReferenceWage searches branch (then GENERAL) under the GENERAL
	// and ungrouped groupings for any of the candidate category
	// spellings, skipping "menores" categories. Zero when absent.
	ReferenceWage(branch, month string, candidates []string) decimal.Decimal

	// FuneralAddOns returns the funeral-sector add-on definitions for
	// the month, carrying forward the latest table at or before it.
	FuneralAddOns(month string) []FuneralAddOn

	// ConnectionTier resolves a water-utility tier by letter ("A".."D")
	// or, when letter is empty, by connection count.
	ConnectionTier(letter string, count int) (ConnectionTier, bool)

	// TitlePercent returns the tourism education-title percentage for a
	// level name, zero when unknown.
	TitlePercent(level string) decimal.Decimal

	// CashierRate returns the cash-handling percentage for a cashier
	// grade ("A"/"B"/"C"), zero when unknown.
	CashierRate(grade string) decimal.Decimal

	// KmRate returns the tourism per-km rates for a month and vehicle
	// category ("C4"/"C5"), with carry-forward like FuneralAddOns.
	KmRate(month, vehicle string) (KmRate, bool)

	// Meta returns the distinct combinations loaded.
	Meta() Meta
}

// Meta is the dropdown index: every distinct combination in the loaded
// schedule, sorted.
type Meta struct {
	Branches   []string                       `json:"ramas"`
	Months     []string                       `json:"meses"`
	Groupings  map[string][]string            `json:"agrupamientos"`
	Categories map[string]map[string][]string `json:"categorias"`
}

// =============================================================================
// NORMALIZATION
// =============================================================================

var accentFolder = strings.NewReplacer(
	"Á", "A", "É", "E", "Í", "I", "Ó", "O", "Ú", "U", "Ü", "U",
	"á", "A", "é", "E", "í", "I", "ó", "O", "ú", "U", "ü", "U",
)

// NormName uppercases, folds accents and collapses whitespace.
func NormName(s string) string {
	s = accentFolder.Replace(strings.TrimSpace(s))
	s = strings.ToUpper(s)
	return strings.Join(strings.Fields(s), " ")
}

// NormBranch normalizes a branch name, unifying known synonyms.
func NormBranch(s string) string {
	b := NormName(s)
	switch b {
	case "CENTRO DE LLAMADAS", "CALLCENTER":
		return BranchCallCenter
	}
	return b
}

// NormGrouping normalizes a grouping, mapping empty to the sentinel.
func NormGrouping(s string) string {
	g := NormName(s)
	if g == "" || g == "-" {
		return Ungrouped
	}
	return g
}

// MonthKey truncates a date-ish string to YYYY-MM.
func MonthKey(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 7 && s[4] == '-' {
		return s[:7]
	}
	return s
}

type key struct {
	branch, grouping, category, month string
}

func keyOf(branch, grouping, category, month string) key {
	return key{
		branch:   NormBranch(branch),
		grouping: NormGrouping(grouping),
		category: NormName(category),
		month:    MonthKey(month),
	}
}

// =============================================================================
// INDEX - In-memory Repository implementation
// =============================================================================

// Index is the in-memory Repository. Build it once with NewIndex; it
// is immutable afterwards and safe for concurrent readers.
type Index struct {
	rows  map[key]WageRecord
	rules RuleSet
	meta  Meta
}

// NewIndex builds an Index from schedule rows and rule tables. Later
// duplicates of the same key win, matching the source-of-truth
// workbook where corrected rows are appended.
func NewIndex(rows []WageRecord, rules RuleSet) *Index {
	idx := &Index{
		rows:  make(map[key]WageRecord, len(rows)),
		rules: rules,
	}
	for _, r := range rows {
		r.Branch = NormBranch(r.Branch)
		r.Grouping = NormGrouping(r.Grouping)
		r.Category = NormName(r.Category)
		r.Month = MonthKey(r.Month)
		if r.Branch == "" || r.Category == "" || r.Month == "" {
			continue
		}
		idx.rows[key{r.Branch, r.Grouping, r.Category, r.Month}] = r
	}
	idx.meta = idx.buildMeta()
	return idx
}

func (idx *Index) Lookup(branch, grouping, category, month string) (WageRecord, bool) {
	r, ok := idx.rows[keyOf(branch, grouping, category, month)]
	return r, ok
}

func (idx *Index) ReferenceWage(branch, month string, candidates []string) decimal.Decimal {
	branches := []string{NormBranch(branch)}
	if branches[0] != BranchGeneral {
		branches = append(branches, BranchGeneral)
	}
	for _, b := range branches {
		for _, g := range []string{"GENERAL", Ungrouped} {
			for _, cat := range candidates {
				c := NormName(cat)
				if strings.Contains(c, "MENORES") {
					continue
				}
				if r, ok := idx.rows[key{b, g, c, MonthKey(month)}]; ok {
					return r.Basico
				}
			}
		}
	}
	return decimal.Zero
}

func (idx *Index) FuneralAddOns(month string) []FuneralAddOn {
	return idx.rules.funeralAddOnsAt(MonthKey(month))
}

func (idx *Index) ConnectionTier(letter string, count int) (ConnectionTier, bool) {
	return idx.rules.connectionTier(letter, count)
}

func (idx *Index) TitlePercent(level string) decimal.Decimal {
	return idx.rules.titlePercent(level)
}

func (idx *Index) CashierRate(grade string) decimal.Decimal {
	return idx.rules.cashierRate(grade)
}

func (idx *Index) KmRate(month, vehicle string) (KmRate, bool) {
	return idx.rules.kmRateAt(MonthKey(month), vehicle)
}

func (idx *Index) Meta() Meta { return idx.meta }

func (idx *Index) buildMeta() Meta {
	branchSet := map[string]bool{}
	monthSet := map[string]bool{}
	groupings := map[string]map[string]bool{}
	categories := map[string]map[string]map[string]bool{}

	for k := range idx.rows {
		branchSet[k.branch] = true
		monthSet[k.month] = true
		if groupings[k.branch] == nil {
			groupings[k.branch] = map[string]bool{}
			categories[k.branch] = map[string]map[string]bool{}
		}
		groupings[k.branch][k.grouping] = true
		if categories[k.branch][k.grouping] == nil {
			categories[k.branch][k.grouping] = map[string]bool{}
		}
		categories[k.branch][k.grouping][k.category] = true
	}
	// The convention branches are always offered, even when the loaded
	// schedule has no rows for some of them yet.
	for _, b := range Branches {
		branchSet[b] = true
	}

	m := Meta{
		Branches:   sortedKeys(branchSet),
		Months:     sortedKeys(monthSet),
		Groupings:  map[string][]string{},
		Categories: map[string]map[string][]string{},
	}
	for b, gs := range groupings {
		m.Groupings[b] = sortedKeys(gs)
		m.Categories[b] = map[string][]string{}
		for g, cs := range categories[b] {
			m.Categories[b][g] = sortedKeys(cs)
		}
	}
	return m
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
