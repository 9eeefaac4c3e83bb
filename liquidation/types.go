/*
Package liquidation computes commercial-convention payroll receipts.

PURPOSE:
  Implements the CCT 130/75 wage liquidation rules: the monthly
  liquidation (base wage, branch allowances, presenteeism, SAC,
  holidays, deductions) and the final settlement (severance, notice
  period, proportional SAC and vacations).

KEY CONCEPTS IN THIS FILE (types.go):
  - MonthlyInput / FinalInput: the full parameter set for one run
  - LineItem: one receipt row, tagged rem / non-rem / indemnity / deduction
  - Receipt / Totals: the itemized result
  - FeatureSet: which optional concept groups an engine applies

DESIGN PRINCIPLES:
  1. Purity: a liquidation is a function of its input plus the
     read-only schedule. Nothing is persisted.
  2. Precision: decimal.Decimal everywhere, round-half-up to 2
     decimals at every accumulation step.
  3. Branch rules live behind BranchPolicy (branch.go), not in
     scattered string comparisons.

SEE ALSO:
  - monthly.go: the monthly liquidation pipeline
  - final.go: the final settlement
  - deductions.go: contribution bases and deduction rules
*/
package liquidation

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mercantil/wage-engine/money"
)

// =============================================================================
// RECEIPT - Line items, totals
// =============================================================================

// LineItem is one receipt row. Exactly one of the four amount columns
// is normally set; the others stay zero.
type LineItem struct {
	Concept   string
	Rem       decimal.Decimal // remunerative
	NonRem    decimal.Decimal // non-remunerative
	Indemnity decimal.Decimal
	Deduction decimal.Decimal // always >= 0, subtracted from net
	Base      decimal.Decimal // amount or rate the row was computed from
}

// Totals aggregates a receipt. Net = Rem + NonRem + Indemnity - Deduction.
type Totals struct {
	Rem       decimal.Decimal
	NonRem    decimal.Decimal
	Indemnity decimal.Decimal
	Deduction decimal.Decimal
	Net       decimal.Decimal
}

// Receipt is the ordered, itemized result of a liquidation. Item order
// is presentational (base wage first, deductions last); the totals are
// append-only accumulation over the items.
type Receipt struct {
	Items  []LineItem
	Totals Totals
}

func (r *Receipt) add(item LineItem) {
	if item.Base.IsZero() {
		for _, v := range []decimal.Decimal{item.Rem, item.NonRem, item.Indemnity, item.Deduction} {
			if !v.IsZero() {
				item.Base = v
				break
			}
		}
	}
	item.Rem = money.Round2(item.Rem)
	item.NonRem = money.Round2(item.NonRem)
	item.Indemnity = money.Round2(item.Indemnity)
	item.Deduction = money.Round2(item.Deduction)
	item.Base = money.Round2(item.Base)
	r.Items = append(r.Items, item)

	r.Totals.Rem = money.Round2(r.Totals.Rem.Add(item.Rem))
	r.Totals.NonRem = money.Round2(r.Totals.NonRem.Add(item.NonRem))
	r.Totals.Indemnity = money.Round2(r.Totals.Indemnity.Add(item.Indemnity))
	r.Totals.Deduction = money.Round2(r.Totals.Deduction.Add(item.Deduction))
	r.Totals.Net = money.Round2(
		r.Totals.Rem.Add(r.Totals.NonRem).Add(r.Totals.Indemnity).Sub(r.Totals.Deduction))
}

// Item returns the first line with the given concept, nil if absent.
func (r *Receipt) Item(concept string) *LineItem {
	for i := range r.Items {
		if r.Items[i].Concept == concept {
			return &r.Items[i]
		}
	}
	return nil
}

// =============================================================================
// MONTHLY INPUT
// =============================================================================

// MonthlyInput is the full parameter set for one month's liquidation.
// All optional fields default to zero/false, meaning "not applicable";
// the engine never fails on a missing optional input.
type MonthlyInput struct {
	// Identity: which schedule row to liquidate.
	Branch   string
	Grouping string
	Category string
	Month    string // YYYY-MM

	// Jornada. Clamped to 1..48; some branches are exempt from
	// proration (see BranchPolicy).
	HoursPerWeek float64

	SeniorityYears int
	ZonePercent    float64

	// Attendance. Presenteeism defaults to eligible; >=2 unjustified
	// absence days forfeit it regardless.
	Presenteeism   bool
	AbsenceDays    float64 // unjustified absences (deduction + forfeit)
	SuspensionDays float64 // unpaid leave / suspension (deduction)

	// Hour-rate derived concepts.
	Overtime50  float64
	Overtime100 float64
	NightHours  float64

	// Calendar concepts.
	HolidaysWorked    int
	HolidaysNotWorked int
	VacationDays      float64

	// Fixed-amount concepts.
	CashOnAccount   decimal.Decimal // "a cuenta de futuros aumentos", remunerative
	TravelAllowance decimal.Decimal // viáticos, non-remunerative, excluded from contributions

	// Historical allowances (CCT 130/75, Acuerdo 26/09/1983).
	DisplayWindow bool   // armado de vidriera
	CashHandling  bool   // manejo de caja (Art. 30)
	CashierGrade  string // "A" / "B" / "C"

	// Km allowance. Vehicle selects the rule: C4/C5 for tourism,
	// AY/CH (ayudante/chofer) for the other branches. Tourism infers
	// C4/C5 from the category name when empty.
	KmVehicle  string
	KmUnder100 int
	KmOver100  int

	// Branch selectors.
	ConnectionTier  string   // water utility: "A".."D"
	ConnectionCount int      // water utility: used when ConnectionTier is empty
	TitleLevel      string   // tourism education level
	TitlePercent    float64  // tourism: overrides TitleLevel when > 0
	FuneralAddOns   []string // funeral add-on ids to apply

	// SAC. June/December always liquidate the half-yearly SAC; this
	// flag adds the proportional SAC for any other month.
	ProportionalSAC bool

	// Deduction flags.
	PensionRetiree  bool // jubilado: no PAMI, no health insurance
	HealthEnrolled  bool // OSECAC enrollment
	UnionAffiliated bool
	UnionPercent    float64
	UnionFixed      decimal.Decimal
	CashShortage    decimal.Decimal // capped at the cash-handling allowance
	SalaryAdvance   decimal.Decimal
	Garnishment     decimal.Decimal // capped at remaining net
}

// NewMonthlyInput returns an input with the defaults a blank receipt
// form carries: full-time, presenteeism eligible, OSECAC enrolled.
func NewMonthlyInput(branch, grouping, category, month string) MonthlyInput {
	return MonthlyInput{
		Branch:         branch,
		Grouping:       grouping,
		Category:       category,
		Month:          month,
		HoursPerWeek:   48,
		Presenteeism:   true,
		HealthEnrolled: true,
	}
}

// =============================================================================
// FINAL SETTLEMENT INPUT
// =============================================================================

// SettlementType is the cause of termination. It decides which
// settlement concepts apply.
type SettlementType string

const (
	Resignation      SettlementType = "RENUNCIA"
	DismissalNoCause SettlementType = "DESPIDO_SIN_CAUSA"
	DismissalCause   SettlementType = "DESPIDO_CON_CAUSA"
	Death            SettlementType = "FALLECIMIENTO"
)

// FinalInput is the parameter set for a final settlement.
type FinalInput struct {
	Type      SettlementType
	EntryDate time.Time
	ExitDate  time.Time

	// BestSalary is the "mejor remuneración mensual, normal y
	// habitual". When zero it is approximated by liquidating the exit
	// month with the identity fields below.
	BestSalary decimal.Decimal

	// Identity for the best-salary approximation.
	Branch         string
	Grouping       string
	Category       string
	HoursPerWeek   float64
	SeniorityYears int

	// Notice period (Arts. 231/232) and month integration (Art. 233).
	NoticeDays            int
	IncludeNoticeSAC      bool
	Integration           bool
	IncludeIntegrationSAC bool

	// Unjustified absences in the exit month: >=2 strips the
	// presenteeism twelfth from the days-worked decomposition.
	ExitMonthAbsences int

	// Deduction flags, same semantics as MonthlyInput.
	PensionRetiree  bool
	HealthEnrolled  bool
	UnionAffiliated bool
	UnionPercent    float64
	UnionFixed      decimal.Decimal
	TravelAllowance decimal.Decimal
}

// SettlementReceipt is a Receipt plus the settlement derivations.
type SettlementReceipt struct {
	Receipt

	BestSalary  decimal.Decimal
	Art245Years int
}

// =============================================================================
// FEATURE SET
// =============================================================================

// FeatureSet gates optional concept groups. The engine evolved by
// accretion; the full set is canonical, reduced sets reproduce the
// older behavior (e.g. a receipt without the historical allowances).
type FeatureSet struct {
	Overtime             bool
	NightShift           bool
	Holidays             bool
	Vacations            bool
	HistoricalAllowances bool // vidriera, manejo de caja, km
	BranchAllowances     bool // título, fúnebres, conexiones
	SAC                  bool
	Deductions           bool
}

// FullFeatureSet is the canonical, most complete rule set.
func FullFeatureSet() FeatureSet {
	return FeatureSet{
		Overtime:             true,
		NightShift:           true,
		Holidays:             true,
		Vacations:            true,
		HistoricalAllowances: true,
		BranchAllowances:     true,
		SAC:                  true,
		Deductions:           true,
	}
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotFound is the sentinel under every schedule lookup miss.
	ErrNotFound = errors.New("schedule row not found")

	// ErrInvalidInput is the sentinel under every validation failure.
	ErrInvalidInput = errors.New("invalid liquidation input")
)

// LookupError reports a schedule miss with the keys that were tried.
type LookupError struct {
	Branch   string
	Grouping string
	Category string
	Month    string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("no schedule row for %s / %s / %s / %s",
		e.Branch, e.Grouping, e.Category, e.Month)
}

func (e *LookupError) Unwrap() error { return ErrNotFound }

// ValidationError reports malformed required inputs (final settlement
// dates, mainly).
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// IsClientError reports whether err should map to a 4xx response.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidInput)
}
