/*
final.go - Final settlement (liquidación final)

PURPOSE:
  ComputeFinal settles an employment relationship at its exit date:
  days worked in the exit month, unused proportional vacations,
  proportional SAC, and - depending on the termination cause - the
  Art. 245 severance (no-cause dismissal), the Art. 248 death
  indemnity (half of 245), the notice period (Arts. 231/232) and the
  month integration (Art. 233), each with optional SAC fractions.

BASE SALARY:
  Everything prices off the "mejor remuneración mensual, normal y
  habitual" (best salary). When not supplied it is approximated by
  liquidating the exit month with the monthly engine and taking
  remunerative + non-remunerative totals.

DAY COUNTS:
  A month worked from the 1st through its last calendar day settles as
  a full 30-day month whatever its calendar length; a partial month
  prorates actual days over the 30-day divisor.

DEDUCTIONS:
  Same rules as the monthly liquidation over the remunerative lines.
  Indemnity lines never enter a contribution base.

SEE ALSO:
  - monthly.go: the engine reused for the best-salary approximation
  - deductions.go: the shared deduction block
*/
package liquidation

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mercantil/wage-engine/money"
)

// Annual vacation entitlement by seniority bracket (LCT Art. 150).
func annualVacationDays(seniorityYears int) int {
	switch {
	case seniorityYears < 5:
		return 14
	case seniorityYears < 10:
		return 21
	case seniorityYears < 20:
		return 28
	default:
		return 35
	}
}

// ComputeFinal computes a final settlement receipt.
func (e *Engine) ComputeFinal(in FinalInput) (*SettlementReceipt, error) {
	if in.EntryDate.IsZero() || in.ExitDate.IsZero() {
		return nil, &ValidationError{Field: "fechas", Message: "faltan fecha de ingreso y/o egreso"}
	}
	if in.ExitDate.Before(in.EntryDate) {
		return nil, &ValidationError{Field: "fechas", Message: "la fecha de egreso es anterior al ingreso"}
	}

	completeYears, extraMonths := tenure(in.EntryDate, in.ExitDate)
	art245Years := art245Years(completeYears, extraMonths)

	best := money.Round2(in.BestSalary)
	bestFull := best
	if !best.IsPositive() {
		var err error
		best, bestFull, err = e.approximateBestSalary(in)
		if err != nil {
			return nil, err
		}
	}

	out := &SettlementReceipt{BestSalary: best, Art245Years: art245Years}
	r := &out.Receipt
	day30 := best.Div(decimal.NewFromInt(30))

	// Days worked in the exit month. A full calendar month counts as
	// 30 days; partial months count actual days. With >=2 unjustified
	// absences in the month, the presenteeism twelfth inside the best
	// salary does not accrue for this period.
	workedDays, fullMonth := exitMonthDays(in.EntryDate, in.ExitDate)
	dayRate := day30
	if in.ExitMonthAbsences >= 2 {
		dayRate = best.Mul(decimal.NewFromInt(12)).Div(decimal.NewFromInt(13)).
			Div(decimal.NewFromInt(30))
	}
	label := fmt.Sprintf("Días trabajados (%d)", workedDays)
	if fullMonth {
		label = "Días trabajados (mes completo)"
	}
	r.add(LineItem{Concept: label, Rem: money.Round2(dayRate.Mul(money.FromInt(workedDays)))})

	// Unused vacations: the annual entitlement prorated by calendar
	// days elapsed in the year, floored, paid at 1/25 per day.
	annual := annualVacationDays(completeYears)
	elapsed := in.ExitDate.YearDay()
	vacDays := annual * elapsed / 365
	if vacDays > 0 {
		vac := money.Round2(best.Div(decimal.NewFromInt(25)).Mul(money.FromInt(vacDays)))
		r.add(LineItem{Concept: fmt.Sprintf("Vacaciones no gozadas (%d)", vacDays), Rem: vac})
		sacVac := money.Div(vac, decimal.NewFromInt(12))
		r.add(LineItem{Concept: "SAC s/ Vacaciones", Rem: sacVac})
	}

	// Proportional SAC: calendar days since the semester start over a
	// 360-day year.
	semStart := time.Date(in.ExitDate.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	if in.ExitDate.Month() > time.June {
		semStart = time.Date(in.ExitDate.Year(), time.July, 1, 0, 0, 0, 0, time.UTC)
	}
	semDays := int(in.ExitDate.Sub(semStart).Hours()/24) + 1
	sacProp := money.Round2(best.Mul(money.FromInt(semDays)).Div(decimal.NewFromInt(360)))
	if sacProp.IsPositive() {
		r.add(LineItem{Concept: "SAC proporcional", Rem: sacProp})
	}

	// Indemnities. Arts. 245 and 248 are mutually exclusive by cause.
	switch in.Type {
	case DismissalNoCause:
		ind := money.Round2(best.Mul(money.FromInt(art245Years)))
		r.add(LineItem{Concept: "Indemnización Art. 245", Indemnity: ind})
	case Death:
		ind := money.Round2(best.Mul(money.FromInt(art245Years)).Mul(d("0.5")))
		r.add(LineItem{Concept: "Indemnización Art. 248", Indemnity: ind})
	}

	// Notice period and month integration only apply to a no-cause
	// dismissal; both are future periods, so the full best salary
	// (presenteeism included) prices them.
	if in.Type == DismissalNoCause {
		if in.NoticeDays > 0 {
			preaviso := money.Round2(day30.Mul(money.FromInt(in.NoticeDays)))
			r.add(LineItem{
				Concept: fmt.Sprintf("Preaviso (%d días)", in.NoticeDays),
				Rem:     preaviso,
			})
			if in.IncludeNoticeSAC {
				r.add(LineItem{Concept: "SAC s/ Preaviso", Rem: money.Div(preaviso, decimal.NewFromInt(12))})
			}
		}
		if in.Integration {
			lastDay := daysInMonth(in.ExitDate)
			integDays := lastDay - in.ExitDate.Day()
			if integDays > 0 {
				integ := money.Round2(day30.Mul(money.FromInt(integDays)))
				r.add(LineItem{
					Concept: fmt.Sprintf("Integración mes despido (%d días)", integDays),
					Rem:     integ,
				})
				if in.IncludeIntegrationSAC {
					r.add(LineItem{Concept: "SAC s/ Integración", Rem: money.Div(integ, decimal.NewFromInt(12))})
				}
			}
		}
	}

	if e.features.Deductions {
		// Health insurance contributes on the full-48h-equivalent
		// best salary even when the payable one was prorated.
		osBase := money.Max(bestFull, r.Totals.Rem)
		e.applyDeductions(r, deductionInput{
			totalRem:       r.Totals.Rem,
			totalNR:        r.Totals.NonRem,
			travelNR:       in.TravelAllowance,
			osBaseRem:      osBase,
			osBaseNR:       decimal.Zero,
			pensionRetiree: in.PensionRetiree,
			healthEnrolled: in.HealthEnrolled,
			affiliated:     in.UnionAffiliated,
			unionPercent:   in.UnionPercent,
			unionFixed:     in.UnionFixed,
		})
	}
	return out, nil
}

// approximateBestSalary liquidates the exit month and returns the
// payable total, plus the full-time-equivalent total for the health
// insurance base.
func (e *Engine) approximateBestSalary(in FinalInput) (best, bestFull decimal.Decimal, err error) {
	month := in.ExitDate.Format("2006-01")
	mi := NewMonthlyInput(in.Branch, in.Grouping, in.Category, month)
	mi.HoursPerWeek = in.HoursPerWeek
	if mi.HoursPerWeek <= 0 {
		mi.HoursPerWeek = 48
	}
	mi.SeniorityYears = in.SeniorityYears

	c, err := e.computeMonthly(mi)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	best = money.Round2(c.totalRem.Add(c.totalNR))

	bestFull = best
	if !c.factor.Equal(one) {
		mi.HoursPerWeek = 48
		if cf, err := e.computeMonthly(mi); err == nil {
			bestFull = money.Round2(cf.totalRem.Add(cf.totalNR))
		}
	}
	return best, bestFull, nil
}

// tenure returns complete anniversary years and the remaining whole
// months between entry and exit.
func tenure(entry, exit time.Time) (years, months int) {
	years = exit.Year() - entry.Year()
	anniversary := entry.AddDate(years, 0, 0)
	if exit.Before(anniversary) {
		years--
		anniversary = entry.AddDate(years, 0, 0)
	}
	months = int(exit.Month()) - int(anniversary.Month()) + 12*(exit.Year()-anniversary.Year())
	if exit.Day() < anniversary.Day() {
		months--
	}
	if years < 0 {
		years = 0
	}
	if months < 0 {
		months = 0
	}
	return years, months
}

// art245Years: one indemnity year per complete year of service, plus
// one for a fraction exceeding three months; minimum one year once
// total service reaches three months.
func art245Years(years, extraMonths int) int {
	n := years
	if extraMonths > 3 {
		n++
	}
	if n == 0 && (years*12+extraMonths) >= 3 {
		n = 1
	}
	return n
}

// exitMonthDays returns the settled day count for the exit month and
// whether it was a complete month.
func exitMonthDays(entry, exit time.Time) (days int, fullMonth bool) {
	startDay := 1
	if entry.Year() == exit.Year() && entry.Month() == exit.Month() {
		startDay = entry.Day()
	}
	if startDay == 1 && exit.Day() == daysInMonth(exit) {
		return 30, true
	}
	return exit.Day() - startDay + 1, false
}

func daysInMonth(t time.Time) int {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, 1, -1).Day()
}
