/*
monthly.go - Monthly liquidation pipeline

PURPOSE:
  ComputeMonthly turns a MonthlyInput into an itemized Receipt. The
  computation is a fixed sequence of stages; each stage's output feeds
  the next, so the ordering here is load-bearing:

   1. schedule lookup (with ungrouped fallback)
   2. hour proration (hs/48, branch exemptions)
   3. branch base adjustment (water-utility connection tiers)
   4. zone bonus, then seniority over (base + zone)
   5. historical allowances (vidriera, caja, km) + branch allowances
   6. hour-rate concepts (overtime 50/100, night surcharge)
   7. presenteeism over the accumulated base
   8. SAC (June/December halves, or proportional)
   9. holidays, enjoyed vacations (1/25 vs 1/30)
  10. absence / suspension day deductions
  11. contribution bases + statutory deductions (deductions.go)

  The health-insurance contribution runs over a SEPARATE simulation of
  the same input at 48 weekly hours: a part-timer contributes to the
  obra social as a full-timer would.

ROUNDING:
  Every line amount is rounded half-up to 2 decimals when computed and
  totals re-round at each accumulation (money.Round2), matching the
  reference receipts bit-for-bit.

SEE ALSO:
  - branch.go: the per-branch hooks used by stages 2, 3 and 5
  - deductions.go: stage 11
*/
package liquidation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mercantil/wage-engine/money"
	"github.com/mercantil/wage-engine/schedule"
)

// Engine computes liquidations against a schedule Repository. It holds
// no mutable state; one Engine serves concurrent requests.
type Engine struct {
	repo     schedule.Repository
	features FeatureSet
}

// NewEngine returns an engine with the canonical full feature set.
func NewEngine(repo schedule.Repository) *Engine {
	return &Engine{repo: repo, features: FullFeatureSet()}
}

// NewEngineWithFeatures returns an engine applying only the given
// concept groups.
func NewEngineWithFeatures(repo schedule.Repository, features FeatureSet) *Engine {
	return &Engine{repo: repo, features: features}
}

// ComputeMonthly liquidates one month. A schedule miss returns a
// *LookupError; optional inputs never fail.
func (e *Engine) ComputeMonthly(in MonthlyInput) (*Receipt, error) {
	c, err := e.computeMonthly(in)
	if err != nil {
		return nil, err
	}
	return e.buildReceipt(in, c), nil
}

// monthlyCalc carries every intermediate amount of the pipeline. The
// receipt builder and the deduction rules both read from it.
type monthlyCalc struct {
	record schedule.WageRecord
	factor decimal.Decimal

	basico decimal.Decimal
	nrVar  decimal.Decimal
	nrFija decimal.Decimal
	nrBase decimal.Decimal

	zonaRem decimal.Decimal
	antRem  decimal.Decimal
	antNR   decimal.Decimal

	allowances []allowance // branch + historical, priced
	vidriera   decimal.Decimal
	caja       decimal.Decimal

	hex50Rem, hex50NR   decimal.Decimal
	hex100Rem, hex100NR decimal.Decimal
	noctRem, noctNR     decimal.Decimal

	presRem, presNR decimal.Decimal
	sacRem, sacNR   decimal.Decimal

	ferNoRem, ferNoNR decimal.Decimal
	ferSiRem, ferSiNR decimal.Decimal
	vacRem, vacNR     decimal.Decimal

	ausDed  decimal.Decimal
	suspDed decimal.Decimal

	totalRem decimal.Decimal // payable remunerative, before deductions
	totalNR  decimal.Decimal
}

// nightSurcharge is the 13.33% night differential: one night hour is
// paid as 1h 08m.
var nightSurcharge = decimal.NewFromInt(8).Div(decimal.NewFromInt(60))

const monthlyHourDivisor = 200 // mensualized 48-hour jornada

func (e *Engine) computeMonthly(in MonthlyInput) (*monthlyCalc, error) {
	policy := policyFor(in.Branch)
	month := schedule.MonthKey(in.Month)

	// Stage 1: schedule lookup, retrying the ungrouped sentinel.
	rec, ok := e.repo.Lookup(in.Branch, in.Grouping, in.Category, month)
	if !ok {
		rec, ok = e.repo.Lookup(in.Branch, schedule.Ungrouped, in.Category, month)
	}
	if !ok {
		return nil, &LookupError{
			Branch:   schedule.NormBranch(in.Branch),
			Grouping: schedule.NormGrouping(in.Grouping),
			Category: schedule.NormName(in.Category),
			Month:    month,
		}
	}

	c := &monthlyCalc{record: rec}

	// Stage 2: hour proration.
	c.factor = prorationFactor(policy, in)
	c.basico = money.Mul(rec.Basico, c.factor)
	c.nrVar = money.Mul(rec.NoRem, c.factor)
	c.nrFija = money.Mul(rec.SumaFija, c.factor)

	// Stage 3: branch base adjustment (changes the effective base).
	if e.features.BranchAllowances {
		adjusted := schedule.WageRecord{Basico: c.basico, NoRem: c.nrVar, SumaFija: c.nrFija}
		policy.AdjustBase(&adjusted, &in, e.repo)
		c.basico, c.nrVar, c.nrFija = adjusted.Basico, adjusted.NoRem, adjusted.SumaFija
	}
	c.nrBase = money.Round2(c.nrVar.Add(c.nrFija))

	// Stage 4: zone bonus, then seniority compounding over it.
	if in.ZonePercent > 0 {
		c.zonaRem = money.Percent(c.basico, in.ZonePercent)
	}
	antFrac := policy.SeniorityRate(in.SeniorityYears)
	if antFrac.IsPositive() {
		c.antRem = money.Round2(c.basico.Add(c.zonaRem).Mul(antFrac))
		c.antNR = money.Round2(c.nrBase.Mul(antFrac))
	}

	// Stage 5: allowances.
	ctx := allowanceContext{
		Basico: c.basico,
		NRBase: c.nrBase,
		NRFija: c.nrFija,
		Factor: c.factor,
		Month:  month,
		Repo:   e.repo,
	}
	if e.features.HistoricalAllowances {
		c.vidriera = e.displayWindowAllowance(in, ctx)
		c.caja = e.cashHandlingAllowance(in, ctx)
		c.allowances = policy.KmAllowance(&in, ctx)
	}
	if e.features.BranchAllowances {
		c.allowances = append(c.allowances, policy.SpecialAllowances(&in, ctx)...)
	}

	allowRem, allowNR := decimal.Zero, decimal.Zero
	for _, a := range c.allowances {
		allowRem = money.Round2(allowRem.Add(a.Rem))
		allowNR = money.Round2(allowNR.Add(a.NonRem))
	}

	// The accumulated bases every later stage derives from.
	baseRem := money.Sum(c.basico, c.zonaRem, c.antRem, c.vidriera, c.caja, allowRem, in.CashOnAccount)
	baseNR := money.Sum(c.nrBase, c.antNR, allowNR)

	// Stage 6: hour-rate concepts, divisor 200.
	hourRem := baseRem.Div(decimal.NewFromInt(monthlyHourDivisor))
	hourNR := baseNR.Div(decimal.NewFromInt(monthlyHourDivisor))
	if e.features.Overtime {
		c.hex50Rem = money.Round2(hourRem.Mul(d("1.5")).Mul(money.FromFloat(in.Overtime50)))
		c.hex50NR = money.Round2(hourNR.Mul(d("1.5")).Mul(money.FromFloat(in.Overtime50)))
		c.hex100Rem = money.Round2(hourRem.Mul(d("2")).Mul(money.FromFloat(in.Overtime100)))
		c.hex100NR = money.Round2(hourNR.Mul(d("2")).Mul(money.FromFloat(in.Overtime100)))
	}
	if e.features.NightShift {
		c.noctRem = money.Round2(hourRem.Mul(nightSurcharge).Mul(money.FromFloat(in.NightHours)))
		c.noctNR = money.Round2(hourNR.Mul(nightSurcharge).Mul(money.FromFloat(in.NightHours)))
	}

	// Stage 7: presenteeism, 1/12 of the accumulated base including
	// the hour-rate concepts. Forfeited at 2 unjustified absences.
	if in.Presenteeism && in.AbsenceDays < 2 {
		presBaseRem := money.Sum(baseRem, c.hex50Rem, c.hex100Rem, c.noctRem)
		presBaseNR := money.Sum(baseNR, c.hex50NR, c.hex100NR, c.noctNR)
		c.presRem = money.Div(presBaseRem, decimal.NewFromInt(12))
		c.presNR = money.Div(presBaseNR, decimal.NewFromInt(12))
	}

	// Stage 8: SAC.
	if e.features.SAC {
		c.sacRem, c.sacNR = e.sac(in, month, c)
	}

	// Stage 9: holidays and enjoyed vacations over the 25/30 daily
	// rates of (base + zone + seniority).
	dayBaseRem := money.Sum(c.basico, c.zonaRem, c.antRem)
	dayBaseNR := money.Sum(c.nrBase, c.antNR)
	if e.features.Holidays {
		rem25 := dayBaseRem.Div(decimal.NewFromInt(25))
		rem30 := dayBaseRem.Div(decimal.NewFromInt(30))
		nr25 := dayBaseNR.Div(decimal.NewFromInt(25))
		nr30 := dayBaseNR.Div(decimal.NewFromInt(30))
		if in.HolidaysNotWorked > 0 {
			n := money.FromInt(in.HolidaysNotWorked)
			c.ferNoRem = money.Round2(rem25.Sub(rem30).Mul(n))
			c.ferNoNR = money.Round2(nr25.Sub(nr30).Mul(n))
		}
		if in.HolidaysWorked > 0 {
			n := money.FromInt(in.HolidaysWorked)
			c.ferSiRem = money.Round2(rem25.Mul(n))
			c.ferSiNR = money.Round2(nr25.Mul(n))
		}
	}
	if e.features.Vacations && in.VacationDays > 0 {
		diff := decimal.NewFromInt(1).Div(decimal.NewFromInt(25)).
			Sub(decimal.NewFromInt(1).Div(decimal.NewFromInt(30)))
		days := money.FromFloat(in.VacationDays)
		c.vacRem = money.Round2(dayBaseRem.Mul(diff).Mul(days))
		c.vacNR = money.Round2(dayBaseNR.Mul(diff).Mul(days))
	}

	// Stage 10: absence and suspension deductions over the 1/30 daily
	// rate. These are deduction lines AND reduce the contribution base.
	day30 := dayBaseRem.Div(decimal.NewFromInt(30))
	if in.AbsenceDays > 0 {
		c.ausDed = money.Round2(day30.Mul(money.FromFloat(in.AbsenceDays)))
	}
	if in.SuspensionDays > 0 {
		c.suspDed = money.Round2(day30.Mul(money.FromFloat(in.SuspensionDays)))
	}

	c.totalRem = money.Sum(baseRem, c.hex50Rem, c.hex100Rem, c.noctRem,
		c.presRem, c.sacRem, c.ferNoRem, c.ferSiRem, c.vacRem)
	c.totalNR = money.Sum(baseNR, c.hex50NR, c.hex100NR, c.noctNR,
		c.presNR, c.sacNR, c.ferNoNR, c.ferSiNR, c.vacNR, in.TravelAllowance)
	return c, nil
}

// sac returns the 13th-salary amounts: half of the qualifying base in
// June and December, or the semester-proportional amount when asked.
func (e *Engine) sac(in MonthlyInput, month string, c *monthlyCalc) (rem, nr decimal.Decimal) {
	qualRem := money.Sum(c.basico, c.zonaRem, c.antRem, c.presRem)
	qualNR := money.Sum(c.nrBase, c.antNR, c.presNR)

	m := monthNumber(month)
	switch {
	case m == 6 || m == 12:
		half := d("0.5")
		return money.Round2(qualRem.Mul(half)), money.Round2(qualNR.Mul(half))
	case in.ProportionalSAC && m >= 1 && m <= 12:
		elapsed := m
		if m > 6 {
			elapsed = m - 6
		}
		frac := decimal.NewFromInt(int64(elapsed)).Div(decimal.NewFromInt(12))
		return money.Round2(qualRem.Mul(frac)), money.Round2(qualNR.Mul(frac))
	}
	return decimal.Zero, decimal.Zero
}

// displayWindowAllowance: Acuerdo 26/09/1983, 3.83% of the Vendedor B
// reference base.
func (e *Engine) displayWindowAllowance(in MonthlyInput, ctx allowanceContext) decimal.Decimal {
	if !in.DisplayWindow {
		return decimal.Zero
	}
	ref := e.repo.ReferenceWage(in.Branch, ctx.Month, []string{"Vendedor B"})
	return money.Round2(ref.Mul(d("3.83")).Div(decimal.NewFromInt(100)).Mul(ctx.Factor))
}

// cashHandlingAllowance: Art. 30 cashier duty, an annual rate over the
// matching cashier reference base, paid in twelfths.
func (e *Engine) cashHandlingAllowance(in MonthlyInput, ctx allowanceContext) decimal.Decimal {
	grade := strings.ToUpper(strings.TrimSpace(in.CashierGrade))
	if !in.CashHandling || grade == "" {
		return decimal.Zero
	}
	pct := e.repo.CashierRate(grade)
	if pct.IsZero() {
		return decimal.Zero
	}
	refCat := "Cajeros A"
	if grade == "B" {
		refCat = "Cajeros B"
	}
	ref := e.repo.ReferenceWage(in.Branch, ctx.Month, []string{refCat})
	annual := ref.Mul(pct).Div(decimal.NewFromInt(100))
	return money.Round2(annual.Div(decimal.NewFromInt(12)).Mul(ctx.Factor))
}

func prorationFactor(policy BranchPolicy, in MonthlyInput) decimal.Decimal {
	if policy.HourProrationExempt(in.Category) {
		return one
	}
	hs := in.HoursPerWeek
	if hs <= 0 {
		hs = 48
	}
	if hs < 1 {
		hs = 1
	}
	if hs > 48 {
		hs = 48
	}
	return money.FromFloat(hs).Div(decimal.NewFromInt(48))
}

func monthNumber(month string) int {
	if len(month) < 7 {
		return 0
	}
	n, err := strconv.Atoi(month[5:7])
	if err != nil {
		return 0
	}
	return n
}

// =============================================================================
// RECEIPT ASSEMBLY
// =============================================================================

// buildReceipt orders the computed amounts for presentation: base
// wage, allowances, hour concepts, presenteeism, SAC and calendar
// lines, non-remunerative lines, deductions last.
func (e *Engine) buildReceipt(in MonthlyInput, c *monthlyCalc) *Receipt {
	r := &Receipt{}

	r.add(LineItem{Concept: "Básico", Rem: c.basico})
	if !c.zonaRem.IsZero() {
		r.add(LineItem{
			Concept: fmt.Sprintf("Zona desfavorable (%s%%)", trimPct(in.ZonePercent)),
			Rem:     c.zonaRem,
			Base:    c.basico,
		})
	}
	if !c.antRem.IsZero() || !c.antNR.IsZero() {
		r.add(LineItem{Concept: "Antigüedad", Rem: c.antRem, NonRem: c.antNR,
			Base: money.Round2(c.basico.Add(c.nrBase))})
	}
	if !c.vidriera.IsZero() {
		r.add(LineItem{Concept: "Armado de vidriera (3,83%)", Rem: c.vidriera})
	}
	if !c.caja.IsZero() {
		r.add(LineItem{
			Concept: fmt.Sprintf("Manejo de Caja (Art. 30 - %s)", strings.ToUpper(strings.TrimSpace(in.CashierGrade))),
			Rem:     c.caja,
		})
	}
	for _, a := range c.allowances {
		r.add(LineItem{Concept: a.Concept, Rem: a.Rem, NonRem: a.NonRem})
	}
	if !in.CashOnAccount.IsZero() {
		r.add(LineItem{Concept: "A cuenta de futuros aumentos", Rem: money.Round2(in.CashOnAccount)})
	}
	if !c.hex50Rem.IsZero() || !c.hex50NR.IsZero() {
		r.add(LineItem{Concept: "Horas extra 50%", Rem: c.hex50Rem, NonRem: c.hex50NR})
	}
	if !c.hex100Rem.IsZero() || !c.hex100NR.IsZero() {
		r.add(LineItem{Concept: "Horas extra 100%", Rem: c.hex100Rem, NonRem: c.hex100NR})
	}
	if !c.noctRem.IsZero() || !c.noctNR.IsZero() {
		r.add(LineItem{Concept: "Horas nocturnas (13,33%)", Rem: c.noctRem, NonRem: c.noctNR})
	}
	if !c.presRem.IsZero() || !c.presNR.IsZero() {
		r.add(LineItem{Concept: "Presentismo", Rem: c.presRem, NonRem: c.presNR})
	}
	if !c.sacRem.IsZero() || !c.sacNR.IsZero() {
		r.add(LineItem{Concept: "SAC", Rem: c.sacRem, NonRem: c.sacNR})
	}
	if !c.ferNoRem.IsZero() || !c.ferNoNR.IsZero() {
		r.add(LineItem{Concept: "Feriados no trabajados", Rem: c.ferNoRem, NonRem: c.ferNoNR})
	}
	if !c.ferSiRem.IsZero() || !c.ferSiNR.IsZero() {
		r.add(LineItem{Concept: "Feriados trabajados", Rem: c.ferSiRem, NonRem: c.ferSiNR})
	}
	if !c.vacRem.IsZero() || !c.vacNR.IsZero() {
		r.add(LineItem{Concept: "Vacaciones gozadas (dif. 25/30)", Rem: c.vacRem, NonRem: c.vacNR})
	}
	if !c.nrVar.IsZero() {
		r.add(LineItem{Concept: "No Remunerativo (variable)", NonRem: c.nrVar})
	}
	if !c.nrFija.IsZero() {
		r.add(LineItem{Concept: "Suma Fija (NR)", NonRem: c.nrFija})
	}
	if !in.TravelAllowance.IsZero() {
		r.add(LineItem{Concept: "Viáticos (NR sin aportes)", NonRem: money.Round2(in.TravelAllowance)})
	}

	if e.features.Deductions {
		osRem, osNR := e.healthBases(in, c)
		e.applyDeductions(r, deductionInput{
			totalRem:       c.totalRem,
			totalNR:        c.totalNR,
			travelNR:       in.TravelAllowance,
			ausDed:         c.ausDed,
			suspDed:        c.suspDed,
			osBaseRem:      osRem,
			osBaseNR:       osNR,
			pensionRetiree: in.PensionRetiree,
			healthEnrolled: in.HealthEnrolled,
			affiliated:     in.UnionAffiliated,
			unionPercent:   in.UnionPercent,
			unionFixed:     in.UnionFixed,
			cashShortage:   in.CashShortage,
			cashAllowance:  c.caja,
			salaryAdvance:  in.SalaryAdvance,
			garnishment:    in.Garnishment,
		})
	}
	return r
}

// healthBases returns the contribution bases for the health insurance:
// the same liquidation simulated at 48 weekly hours. Fixed-currency
// inputs (cash on account, travel allowance) are amounts, not rates,
// so the simulation re-runs the pipeline instead of dividing the
// payable totals by the proration factor.
func (e *Engine) healthBases(in MonthlyInput, c *monthlyCalc) (rem, nr decimal.Decimal) {
	sim := c
	if !c.factor.Equal(one) {
		full := in
		full.HoursPerWeek = 48
		if s, err := e.computeMonthly(full); err == nil {
			sim = s
		}
	}
	rem = money.Max(decimal.Zero, money.Round2(sim.totalRem.Sub(sim.ausDed).Sub(sim.suspDed)))
	nr = money.Max(decimal.Zero, money.Round2(sim.totalNR.Sub(in.TravelAllowance)))
	return rem, nr
}

func trimPct(pct float64) string {
	s := strconv.FormatFloat(pct, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
