/*
branch.go - Branch-specific convention rules

PURPOSE:
  Each collective-bargaining branch (rama) deviates from the GENERAL
  rules in a few well-defined places: hour proration exemptions,
  seniority compounding, base-wage adjustment, and branch-only
  allowances. BranchPolicy concentrates those deviations so the
  monthly pipeline never string-matches on branch names.

POLICIES:
  GENERAL / CEREALES      baseline rules; cereales exempts "menores"
                          categories from hour proration
  CALL CENTER             categories encode their own weekly hours
                          ("... 20HS"), so no proration
  AGUA POTABLE            2% compounded seniority; connection-tier
                          multiplier folded into the base wage
  TURISMO                 education-title bonus; flat per-km rates
                          (CCT 547/08) instead of percentage km rules
  FUNEBRES                selectable monthly add-on table

SEE ALSO:
  - monthly.go: the pipeline calling these hooks
  - schedule/rules.go: the tables the hooks read
*/
package liquidation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mercantil/wage-engine/money"
	"github.com/mercantil/wage-engine/schedule"
)

// allowanceContext carries what a branch policy needs to price its
// allowances: the prorated base amounts and the schedule tables.
type allowanceContext struct {
	Basico decimal.Decimal // prorated, base-adjusted
	NRBase decimal.Decimal // prorated NoRem + SumaFija
	NRFija decimal.Decimal // prorated SumaFija only
	Factor decimal.Decimal // hour proration factor applied above
	Month  string
	Repo   schedule.Repository
}

// allowance is a priced branch allowance, before receipt placement.
type allowance struct {
	Concept string
	Rem     decimal.Decimal
	NonRem  decimal.Decimal
}

// BranchPolicy captures the per-branch rule deviations.
type BranchPolicy interface {
	Name() string

	// HourProrationExempt reports whether the hs/48 factor is forced
	// to 1 for the given category.
	HourProrationExempt(category string) bool

	// SeniorityRate returns the seniority fraction for complete years
	// (0.05 for 5% etc.).
	SeniorityRate(years int) decimal.Decimal

	// AdjustBase mutates the prorated wage record before any derived
	// calculation (water-utility connection tiers).
	AdjustBase(rec *schedule.WageRecord, in *MonthlyInput, repo schedule.Repository)

	// KmAllowance prices the per-km concept under the branch's rate
	// rules (Art. 36 percentages, or CCT 547/08 flat rates for
	// tourism).
	KmAllowance(in *MonthlyInput, ctx allowanceContext) []allowance

	// SpecialAllowances prices the branch-only concepts (título,
	// fúnebres add-ons).
	SpecialAllowances(in *MonthlyInput, ctx allowanceContext) []allowance
}

// policyFor resolves the policy for a normalized branch name. Unknown
// branches get the GENERAL rules.
func policyFor(branch string) BranchPolicy {
	switch schedule.NormBranch(branch) {
	case schedule.BranchTurismo:
		return turismoPolicy{}
	case schedule.BranchCereales:
		return cerealesPolicy{}
	case schedule.BranchCallCenter:
		return callCenterPolicy{}
	case schedule.BranchAgua:
		return aguaPolicy{}
	case schedule.BranchFunebres:
		return funebresPolicy{}
	default:
		return generalPolicy{}
	}
}

// =============================================================================
// SHARED PIECES
// =============================================================================

var one = decimal.NewFromInt(1)

// linearSeniority is 1% per complete year, the GENERAL rule.
func linearSeniority(years int) decimal.Decimal {
	if years <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(years)).Div(decimal.NewFromInt(100))
}

// generalKmAllowance prices the Art. 36 km rules used by every branch
// except tourism: per-km percentages over reference auxiliary grades.
func generalKmAllowance(in *MonthlyInput, ctx allowanceContext) []allowance {
	if in.KmUnder100 <= 0 && in.KmOver100 <= 0 {
		return nil
	}
	vehicle := strings.ToUpper(strings.TrimSpace(in.KmVehicle))

	var (
		concept     string
		under, over decimal.Decimal
		pctU, pctO  decimal.Decimal
	)
	switch vehicle {
	case "AY":
		concept = "Adicional por KM (Ayudante de Chofer)"
		under = ctx.Repo.ReferenceWage(in.Branch, ctx.Month, []string{"Auxiliar A", "Personal Auxiliar A"})
		over = ctx.Repo.ReferenceWage(in.Branch, ctx.Month, []string{"Auxiliar Especializado A"})
		pctU, pctO = d("0.0082"), d("0.01")
	case "CH":
		concept = "Adicional por KM (Chofer)"
		under = ctx.Repo.ReferenceWage(in.Branch, ctx.Month, []string{"Auxiliar B", "Personal Auxiliar B"})
		over = ctx.Repo.ReferenceWage(in.Branch, ctx.Month, []string{"Auxiliar Especializado B"})
		pctU, pctO = d("0.01"), d("0.0115")
	default:
		return nil
	}

	hundred := decimal.NewFromInt(100)
	amount := money.Round2(
		under.Mul(pctU).Div(hundred).Mul(money.FromInt(in.KmUnder100)).
			Add(over.Mul(pctO).Div(hundred).Mul(money.FromInt(in.KmOver100))))
	if amount.IsZero() {
		return nil
	}
	return []allowance{{Concept: concept, Rem: amount}}
}

func d(s string) decimal.Decimal {
	v, _ := decimal.NewFromString(s)
	return v
}

// =============================================================================
// GENERAL (baseline)
// =============================================================================

type generalPolicy struct{}

func (generalPolicy) Name() string { return schedule.BranchGeneral }
func (generalPolicy) HourProrationExempt(string) bool { return false }
func (generalPolicy) SeniorityRate(years int) decimal.Decimal { return linearSeniority(years) }
func (generalPolicy) AdjustBase(*schedule.WageRecord, *MonthlyInput, schedule.Repository) {}

func (generalPolicy) KmAllowance(in *MonthlyInput, ctx allowanceContext) []allowance {
	return generalKmAllowance(in, ctx)
}

func (generalPolicy) SpecialAllowances(*MonthlyInput, allowanceContext) []allowance { return nil }

// =============================================================================
// CEREALES
// =============================================================================

type cerealesPolicy struct{}

func (cerealesPolicy) Name() string { return schedule.BranchCereales }

// Minor-employee categories carry their own statutory hours.
func (cerealesPolicy) HourProrationExempt(category string) bool {
	return strings.Contains(schedule.NormName(category), "MENORES")
}

func (cerealesPolicy) SeniorityRate(years int) decimal.Decimal { return linearSeniority(years) }
func (cerealesPolicy) AdjustBase(*schedule.WageRecord, *MonthlyInput, schedule.Repository) {}

func (cerealesPolicy) KmAllowance(in *MonthlyInput, ctx allowanceContext) []allowance {
	return generalKmAllowance(in, ctx)
}

func (cerealesPolicy) SpecialAllowances(*MonthlyInput, allowanceContext) []allowance { return nil }

// =============================================================================
// CALL CENTER
// =============================================================================

type callCenterPolicy struct{}

func (callCenterPolicy) Name() string { return schedule.BranchCallCenter }

// Call-center categories already encode weekly hours ("... 20HS"); the
// scheduled wage is final.
func (callCenterPolicy) HourProrationExempt(string) bool { return true }
func (callCenterPolicy) SeniorityRate(years int) decimal.Decimal { return linearSeniority(years) }
func (callCenterPolicy) AdjustBase(*schedule.WageRecord, *MonthlyInput, schedule.Repository) {}

func (callCenterPolicy) KmAllowance(in *MonthlyInput, ctx allowanceContext) []allowance {
	return generalKmAllowance(in, ctx)
}

func (callCenterPolicy) SpecialAllowances(*MonthlyInput, allowanceContext) []allowance { return nil }

// =============================================================================
// AGUA POTABLE
// =============================================================================

type aguaPolicy struct{}

func (aguaPolicy) Name() string { return schedule.BranchAgua }
func (aguaPolicy) HourProrationExempt(string) bool { return false }

// 2% compounded per year: (1.02^years - 1).
func (aguaPolicy) SeniorityRate(years int) decimal.Decimal {
	if years <= 0 {
		return decimal.Zero
	}
	return d("1.02").Pow(decimal.NewFromInt(int64(years))).Sub(one)
}

// The connection-tier multiplier changes the effective base; it is not
// a separate line item.
func (aguaPolicy) AdjustBase(rec *schedule.WageRecord, in *MonthlyInput, repo schedule.Repository) {
	tier, ok := repo.ConnectionTier(in.ConnectionTier, in.ConnectionCount)
	if !ok {
		return
	}
	rec.Basico = money.Round2(rec.Basico.Mul(tier.Multiplier))
	rec.NoRem = money.Round2(rec.NoRem.Mul(tier.Multiplier))
	rec.SumaFija = money.Round2(rec.SumaFija.Mul(tier.Multiplier))
}

func (aguaPolicy) KmAllowance(in *MonthlyInput, ctx allowanceContext) []allowance {
	return generalKmAllowance(in, ctx)
}

func (aguaPolicy) SpecialAllowances(*MonthlyInput, allowanceContext) []allowance { return nil }

// =============================================================================
// TURISMO
// =============================================================================

type turismoPolicy struct{}

func (turismoPolicy) Name() string { return schedule.BranchTurismo }
func (turismoPolicy) HourProrationExempt(string) bool { return false }
func (turismoPolicy) SeniorityRate(years int) decimal.Decimal { return linearSeniority(years) }
func (turismoPolicy) AdjustBase(*schedule.WageRecord, *MonthlyInput, schedule.Repository) {}

// CCT 547/08 flat per-km rates, split at 100 km. The vehicle category
// falls back to the one encoded in the category name.
func (turismoPolicy) KmAllowance(in *MonthlyInput, ctx allowanceContext) []allowance {
	if in.KmUnder100 <= 0 && in.KmOver100 <= 0 {
		return nil
	}
	vehicle := strings.ToUpper(strings.TrimSpace(in.KmVehicle))
	if vehicle != "C4" && vehicle != "C5" {
		cat := schedule.NormName(in.Category)
		switch {
		case strings.Contains(cat, "C4"):
			vehicle = "C4"
		case strings.Contains(cat, "C5"):
			vehicle = "C5"
		}
	}
	rate, ok := ctx.Repo.KmRate(ctx.Month, vehicle)
	if !ok {
		return nil
	}
	amount := money.Round2(
		rate.Under100.Mul(money.FromInt(in.KmUnder100)).
			Add(rate.Over100.Mul(money.FromInt(in.KmOver100))))
	if !amount.IsPositive() {
		return nil
	}
	return []allowance{{
		Concept: fmt.Sprintf("Adicional por KM (Operativo %s)", vehicle),
		Rem:     amount,
	}}
}

// Education-title bonus over the base wage and the fixed NR component.
func (turismoPolicy) SpecialAllowances(in *MonthlyInput, ctx allowanceContext) []allowance {
	pct := money.FromFloat(in.TitlePercent)
	if pct.IsZero() && in.TitleLevel != "" {
		pct = ctx.Repo.TitlePercent(in.TitleLevel)
	}
	if !pct.IsPositive() {
		return nil
	}
	hundred := decimal.NewFromInt(100)
	return []allowance{{
		Concept: "Adicional por Título",
		Rem:     money.Round2(ctx.Basico.Mul(pct).Div(hundred)),
		NonRem:  money.Round2(ctx.NRFija.Mul(pct).Div(hundred)),
	}}
}

// =============================================================================
// FUNEBRES
// =============================================================================

type funebresPolicy struct{}

func (funebresPolicy) Name() string { return schedule.BranchFunebres }
func (funebresPolicy) HourProrationExempt(string) bool { return false }
func (funebresPolicy) SeniorityRate(years int) decimal.Decimal { return linearSeniority(years) }
func (funebresPolicy) AdjustBase(*schedule.WageRecord, *MonthlyInput, schedule.Repository) {}

func (funebresPolicy) KmAllowance(in *MonthlyInput, ctx allowanceContext) []allowance {
	return generalKmAllowance(in, ctx)
}

func (funebresPolicy) SpecialAllowances(in *MonthlyInput, ctx allowanceContext) []allowance {
	var out []allowance

	selected := map[string]bool{}
	for _, id := range in.FuneralAddOns {
		selected[strings.ToUpper(strings.TrimSpace(id))] = true
	}
	// A driver always carries the general add-on too.
	if selected[schedule.FuneralChofer] {
		selected[schedule.FuneralGeneral] = true
	}
	if len(selected) == 0 {
		return out
	}

	total := decimal.Zero
	for _, item := range ctx.Repo.FuneralAddOns(ctx.Month) {
		if !selected[item.ID] {
			continue
		}
		switch item.Kind {
		case schedule.AddOnPercent:
			total = money.Round2(total.Add(
				ctx.Basico.Mul(item.Value).Div(decimal.NewFromInt(100))))
		default:
			// Flat amounts prorate with the jornada.
			total = money.Round2(total.Add(item.Value.Mul(ctx.Factor)))
		}
	}
	if total.IsPositive() {
		out = append(out, allowance{Concept: "Adicionales Fúnebres", Rem: total})
	}
	return out
}
