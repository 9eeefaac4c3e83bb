/*
deductions.go - Contribution bases and statutory deductions

PURPOSE:
  The deduction block shared by the monthly liquidation and the final
  settlement. Base rules:

  - Remunerative contribution base = payable remunerative total minus
    the absence and suspension day deductions, floored at zero.
  - Non-remunerative contribution base excludes the travel allowance.
  - Pension fund (Jubilación, 11%) always applies, retirees included.
  - PAMI (Ley 19.032, 3%) and the health insurance (OSECAC 3% + fixed
    fee) are waived entirely for pension retirees.
  - The health-insurance base is the SIMULATED full-time (48h) base,
    not the payable one: part-timers contribute as full-timers.
  - FAECYS solidarity (0.5%) and the union contribution (2%, Art. 100)
    run over rem + NR contribution bases; affiliation adds an optional
    percentage and/or fixed amount.
  - Cash-shortage is capped at the cash-handling allowance granted in
    the same receipt; garnishment is capped at the remaining net.

SEE ALSO:
  - monthly.go / final.go: the callers assembling deductionInput
*/
package liquidation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mercantil/wage-engine/money"
)

// Statutory rates. These are convention/legal percentages, not tuning
// parameters.
var (
	ratePension    = d("0.11")
	ratePAMI       = d("0.03")
	rateOSECAC     = d("0.03")
	rateFAECYS     = d("0.005")
	rateUnion      = d("0.02")
	osecacFixedFee = d("100")
)

// deductionInput is everything the deduction block needs, pre-computed
// by the caller.
type deductionInput struct {
	totalRem decimal.Decimal // payable remunerative
	totalNR  decimal.Decimal // payable non-remunerative
	travelNR decimal.Decimal // viáticos inside totalNR

	ausDed  decimal.Decimal // unjustified absences, day-rated
	suspDed decimal.Decimal // unpaid leave / suspension, day-rated

	// Full-time-equivalent contribution bases for the health
	// insurance.
	osBaseRem decimal.Decimal
	osBaseNR  decimal.Decimal

	pensionRetiree bool
	healthEnrolled bool
	affiliated     bool
	unionPercent   float64
	unionFixed     decimal.Decimal

	cashShortage  decimal.Decimal
	cashAllowance decimal.Decimal // cap for cashShortage
	salaryAdvance decimal.Decimal
	garnishment   decimal.Decimal
}

// applyDeductions appends the deduction lines to the receipt. Order:
// day-rated deductions, statutory contributions, union, then the
// capped discretionary deductions with garnishment last (its cap reads
// the running net).
func (e *Engine) applyDeductions(r *Receipt, in deductionInput) {
	if in.ausDed.IsPositive() {
		r.add(LineItem{Concept: "Ausencias injustificadas (días)", Deduction: in.ausDed})
	}
	if in.suspDed.IsPositive() {
		r.add(LineItem{Concept: "Licencia sin goce / Suspensión (días)", Deduction: in.suspDed})
	}

	remCB := money.Max(decimal.Zero, money.Round2(in.totalRem.Sub(in.ausDed).Sub(in.suspDed)))
	nrCB := money.Max(decimal.Zero, money.Round2(in.totalNR.Sub(in.travelNR)))
	apBase := money.Round2(remCB.Add(nrCB))

	jub := money.Mul(remCB, ratePension)
	if jub.IsPositive() {
		r.add(LineItem{Concept: "Jubilación (11%)", Deduction: jub, Base: remCB})
	}

	if !in.pensionRetiree {
		if pami := money.Mul(remCB, ratePAMI); pami.IsPositive() {
			r.add(LineItem{Concept: "Ley 19.032 (3%)", Deduction: pami, Base: remCB})
		}
	}

	if in.healthEnrolled && !in.pensionRetiree {
		osBase := money.Round2(in.osBaseRem.Add(in.osBaseNR))
		if os := money.Mul(osBase, rateOSECAC); os.IsPositive() {
			r.add(LineItem{Concept: "Obra Social (3%)", Deduction: os, Base: osBase})
		}
		r.add(LineItem{Concept: "Aporte fijo OSECAC", Deduction: osecacFixedFee})
	}

	if faecys := money.Mul(apBase, rateFAECYS); faecys.IsPositive() {
		r.add(LineItem{Concept: "FAECYS (0,5%)", Deduction: faecys, Base: apBase})
	}
	if sind := money.Mul(apBase, rateUnion); sind.IsPositive() {
		r.add(LineItem{Concept: "Sindicato 2% Art 100", Deduction: sind, Base: apBase})
	}
	if in.affiliated {
		if in.unionPercent > 0 {
			afil := money.Percent(apBase, in.unionPercent)
			r.add(LineItem{
				Concept:   fmt.Sprintf("Sindicato Afiliación %s%%", trimPct(in.unionPercent)),
				Deduction: afil,
				Base:      apBase,
			})
		}
		if in.unionFixed.IsPositive() {
			r.add(LineItem{Concept: "Sindicato Afiliación", Deduction: money.Round2(in.unionFixed)})
		}
	}

	if in.cashShortage.IsPositive() {
		shortage := money.Min(money.Round2(in.cashShortage), in.cashAllowance)
		if shortage.IsPositive() {
			r.add(LineItem{Concept: "Faltante de caja", Deduction: shortage})
		}
	}
	if in.salaryAdvance.IsPositive() {
		r.add(LineItem{Concept: "Adelanto de sueldo", Deduction: money.Round2(in.salaryAdvance)})
	}
	if in.garnishment.IsPositive() {
		embargo := money.Min(money.Round2(in.garnishment), money.Max(decimal.Zero, r.Totals.Net))
		if embargo.IsPositive() {
			r.add(LineItem{Concept: "Embargo", Deduction: embargo})
		}
	}
}
