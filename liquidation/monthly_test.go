package liquidation_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercantil/wage-engine/liquidation"
	"github.com/mercantil/wage-engine/schedule"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func row(branch, grouping, category, month string, basico, noRem, sumaFija string) schedule.WageRecord {
	return schedule.WageRecord{
		Branch:   branch,
		Grouping: grouping,
		Category: category,
		Month:    month,
		Basico:   dec(basico),
		NoRem:    dec(noRem),
		SumaFija: dec(sumaFija),
	}
}

// testRepo builds a small synthetic schedule: a round-number base wage
// keeps every expected amount checkable by hand.
func testRepo() *schedule.Index {
	rules := schedule.DefaultRules()
	rules.FuneralByMonth = map[string][]schedule.FuneralAddOn{
		"2026-01": {
			{ID: "CADAVER", Label: "Manipuleo de cadáveres", Kind: schedule.AddOnPercent, Value: dec("10")},
			{ID: "CHOFER", Label: "Chofer de furgón", Kind: schedule.AddOnPercent, Value: dec("15")},
			{ID: "INDUMENT", Label: "Indumentaria", Kind: schedule.AddOnAmount, Value: dec("30000")},
		},
	}

	idx := schedule.NewIndex([]schedule.WageRecord{
		row("GENERAL", "ADMINISTRATIVO", "A", "2026-03", "1000000", "0", "0"),
		row("GENERAL", "ADMINISTRATIVO", "A", "2026-06", "1000000", "0", "0"),
		row("GENERAL", "ADMINISTRATIVO", "B", "2026-03", "1000000", "100000", "50000"),
		row("GENERAL", "GENERAL", "CAJEROS A", "2026-03", "1000000", "0", "0"),
		row("GENERAL", "GENERAL", "VENDEDOR B", "2026-03", "1000000", "0", "0"),
		row("GENERAL", "", "MAESTRANZA A", "2026-03", "900000", "0", "0"),
		row("AGUA POTABLE", "", "OFICIAL", "2026-03", "1000000", "0", "0"),
		row("TURISMO", "ADMINISTRATIVO", "A", "2026-03", "1000000", "0", "0"),
		row("FUNEBRES", "", "CHOFER", "2026-03", "1000000", "0", "0"),
	}, rules)
	return idx
}

func testEngine() *liquidation.Engine {
	return liquidation.NewEngine(testRepo())
}

func mustItem(t *testing.T, r *liquidation.Receipt, concept string) *liquidation.LineItem {
	t.Helper()
	item := r.Item(concept)
	require.NotNil(t, item, "receipt is missing %q", concept)
	return item
}

func assertDec(t *testing.T, want string, got decimal.Decimal, label string) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), "%s = %s, want %s", label, got, want)
}

// =============================================================================
// BASELINE RECEIPT
// =============================================================================

func TestComputeMonthly_Baseline(t *testing.T) {
	e := testEngine()
	r, err := e.ComputeMonthly(liquidation.NewMonthlyInput("GENERAL", "ADMINISTRATIVO", "A", "2026-03"))
	require.NoError(t, err)

	assertDec(t, "1000000", mustItem(t, r, "Básico").Rem, "Básico")
	assertDec(t, "83333.33", mustItem(t, r, "Presentismo").Rem, "Presentismo")
	assertDec(t, "1083333.33", r.Totals.Rem, "total rem")

	assertDec(t, "119166.67", mustItem(t, r, "Jubilación (11%)").Deduction, "Jubilación")
	assertDec(t, "32500", mustItem(t, r, "Ley 19.032 (3%)").Deduction, "PAMI")
	assertDec(t, "32500", mustItem(t, r, "Obra Social (3%)").Deduction, "Obra Social")
	assertDec(t, "100", mustItem(t, r, "Aporte fijo OSECAC").Deduction, "OSECAC fijo")
	assertDec(t, "5416.67", mustItem(t, r, "FAECYS (0,5%)").Deduction, "FAECYS")
	assertDec(t, "21666.67", mustItem(t, r, "Sindicato 2% Art 100").Deduction, "Sindicato")

	assertDec(t, "211350.01", r.Totals.Deduction, "total deductions")
	assertDec(t, "871983.32", r.Totals.Net, "net")
}

func TestComputeMonthly_NetIdentity(t *testing.T) {
	e := testEngine()
	in := liquidation.NewMonthlyInput("GENERAL", "ADMINISTRATIVO", "B", "2026-03")
	in.SeniorityYears = 7
	in.ZonePercent = 20
	in.Overtime50 = 12
	in.NightHours = 8
	in.HolidaysWorked = 1
	in.HolidaysNotWorked = 2
	in.VacationDays = 7
	in.AbsenceDays = 1
	in.UnionAffiliated = true
	in.UnionPercent = 1
	in.SalaryAdvance = dec("50000")

	r, err := e.ComputeMonthly(in)
	require.NoError(t, err)

	want := r.Totals.Rem.Add(r.Totals.NonRem).Add(r.Totals.Indemnity).Sub(r.Totals.Deduction)
	assert.True(t, r.Totals.Net.Equal(want), "net identity broken: %s vs %s", r.Totals.Net, want)

	// Every deduction line is non-negative.
	for _, item := range r.Items {
		assert.False(t, item.Deduction.IsNegative(), "%s has negative deduction", item.Concept)
	}
}

func TestComputeMonthly_UngroupedFallback(t *testing.T) {
	e := testEngine()

	// The row is stored without a grouping; looking it up under a
	// wrong grouping still resolves via the ungrouped sentinel.
	r, err := e.ComputeMonthly(liquidation.NewMonthlyInput("GENERAL", "ADMINISTRATIVO", "MAESTRANZA A", "2026-03"))
	require.NoError(t, err)
	assertDec(t, "900000", mustItem(t, r, "Básico").Rem, "Básico")
}

func TestComputeMonthly_LookupMiss(t *testing.T) {
	e := testEngine()

	_, err := e.ComputeMonthly(liquidation.NewMonthlyInput("GENERAL", "ADMINISTRATIVO", "Z", "2026-03"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, liquidation.ErrNotFound))
	assert.True(t, liquidation.IsClientError(err))

	var lookupErr *liquidation.LookupError
	require.True(t, errors.As(err, &lookupErr))
	assert.Equal(t, "Z", lookupErr.Category)
}

// =============================================================================
// PRORATION
// =============================================================================

func TestComputeMonthly_HourProration(t *testing.T) {
	e := testEngine()
	in := liquidation.NewMonthlyInput("GENERAL", "ADMINISTRATIVO", "A", "2026-03")
	in.HoursPerWeek = 24

	r, err := e.ComputeMonthly(in)
	require.NoError(t, err)

	assertDec(t, "500000", mustItem(t, r, "Básico").Rem, "Básico at 24hs")
	assertDec(t, "59583.33", mustItem(t, r, "Jubilación (11%)").Deduction, "Jubilación at 24hs")

	// The health insurance contributes on the full-time simulation:
	// same amount as the 48hs receipt.
	assertDec(t, "32500", mustItem(t, r, "Obra Social (3%)").Deduction, "Obra Social at 24hs")
	assertDec(t, "1083333.33", mustItem(t, r, "Obra Social (3%)").Base, "Obra Social base at 24hs")
}

func TestComputeMonthly_HoursClamped(t *testing.T) {
	e := testEngine()
	in := liquidation.NewMonthlyInput("GENERAL", "ADMINISTRATIVO", "A", "2026-03")
	in.HoursPerWeek = 60

	r, err := e.ComputeMonthly(in)
	require.NoError(t, err)
	assertDec(t, "1000000", mustItem(t, r, "Básico").Rem, "Básico clamped to 48hs")
}

// =============================================================================
// ZONE, SENIORITY, PRESENTEEISM
// =============================================================================

func TestComputeMonthly_ZoneThenSeniority(t *testing.T) {
	e := testEngine()
	in := liquidation.NewMonthlyInput("GENERAL", "ADMINISTRATIVO", "A", "2026-03")
	in.ZonePercent = 10
	in.SeniorityYears = 5

	r, err := e.ComputeMonthly(in)
	require.NoError(t, err)

	assertDec(t, "100000", mustItem(t, r, "Zona desfavorable (10%)").Rem, "Zona")
	// Seniority compounds over base + zone: 5% of 1,100,000.
	assertDec(t, "55000", mustItem(t, r, "Antigüedad").Rem, "Antigüedad")
}

func TestComputeMonthly_PresenteeismForfeitedAtTwoAbsences(t *testing.T) {
	e := testEngine()

	in := liquidation.NewMonthlyInput("GENERAL", "ADMINISTRATIVO", "A", "2026-03")
	in.AbsenceDays = 1
	r, err := e.ComputeMonthly(in)
	require.NoError(t, err)
	assert.NotNil(t, r.Item("Presentismo"), "one absence keeps presenteeism")
	// One absence day at 1/30 of the day base.
	assertDec(t, "33333.33", mustItem(t, r, "Ausencias injustificadas (días)").Deduction, "Ausencias")

	in.AbsenceDays = 2
	r, err = e.ComputeMonthly(in)
	require.NoError(t, err)
	assert.Nil(t, r.Item("Presentismo"), "two absences forfeit presenteeism")
}

// =============================================================================
// HOUR-RATE CONCEPTS
// =============================================================================

func TestComputeMonthly_OvertimeAndNight(t *testing.T) {
	e := testEngine()
	in := liquidation.NewMonthlyInput("GENERAL", "ADMINISTRATIVO", "A", "2026-03")
	in.Overtime50 = 10
	in.Overtime100 = 5
	in.NightHours = 10

	r, err := e.ComputeMonthly(in)
	require.NoError(t, err)

	// Hourly rate 1,000,000/200 = 5,000.
	assertDec(t, "75000", mustItem(t, r, "Horas extra 50%").Rem, "hex50")
	assertDec(t, "50000", mustItem(t, r, "Horas extra 100%").Rem, "hex100")
	assertDec(t, "6666.67", mustItem(t, r, "Horas nocturnas (13,33%)").Rem, "nocturnas")
}

// =============================================================================
// SAC
// =============================================================================

func TestComputeMonthly_SACInJune(t *testing.T) {
	e := testEngine()
	r, err := e.ComputeMonthly(liquidation.NewMonthlyInput("GENERAL", "ADMINISTRATIVO", "A", "2026-06"))
	require.NoError(t, err)

	// Half of básico + presentismo: (1,000,000 + 83,333.33) / 2.
	assertDec(t, "541666.67", mustItem(t, r, "SAC").Rem, "SAC June")
}

func TestComputeMonthly_ProportionalSAC(t *testing.T) {
	e := testEngine()
	in := liquidation.NewMonthlyInput("GENERAL", "ADMINISTRATIVO", "A", "2026-03")
	in.ProportionalSAC = true

	r, err := e.ComputeMonthly(in)
	require.NoError(t, err)

	// Three months elapsed: 3/12 of the qualifying base.
	assertDec(t, "270833.33", mustItem(t, r, "SAC").Rem, "SAC proportional")
}

// =============================================================================
// HOLIDAYS AND VACATIONS
// =============================================================================

func TestComputeMonthly_HolidaysAndVacations(t *testing.T) {
	e := testEngine()
	in := liquidation.NewMonthlyInput("GENERAL", "ADMINISTRATIVO", "A", "2026-03")
	in.HolidaysNotWorked = 1
	in.HolidaysWorked = 1
	in.VacationDays = 7

	r, err := e.ComputeMonthly(in)
	require.NoError(t, err)

	// 1/25 - 1/30 of 1,000,000 = 6,666.67 per day.
	assertDec(t, "6666.67", mustItem(t, r, "Feriados no trabajados").Rem, "feriado no trabajado")
	assertDec(t, "40000", mustItem(t, r, "Feriados trabajados").Rem, "feriado trabajado")
	assertDec(t, "46666.67", mustItem(t, r, "Vacaciones gozadas (dif. 25/30)").Rem, "vacaciones")
}

// =============================================================================
// HISTORICAL ALLOWANCES
// =============================================================================

func TestComputeMonthly_DisplayWindow(t *testing.T) {
	e := testEngine()
	in := liquidation.NewMonthlyInput("GENERAL", "ADMINISTRATIVO", "A", "2026-03")
	in.DisplayWindow = true

	r, err := e.ComputeMonthly(in)
	require.NoError(t, err)

	// 3.83% of the Vendedor B reference.
	assertDec(t, "38300", mustItem(t, r, "Armado de vidriera (3,83%)").Rem, "vidriera")
}

func TestComputeMonthly_CashHandlingAndShortageCap(t *testing.T) {
	e := testEngine()
	in := liquidation.NewMonthlyInput("GENERAL", "ADMINISTRATIVO", "A", "2026-03")
	in.CashHandling = true
	in.CashierGrade = "A"
	in.CashShortage = dec("50000")

	r, err := e.ComputeMonthly(in)
	require.NoError(t, err)

	// 12.25% annual over the Cajeros A reference, paid in twelfths.
	assertDec(t, "10208.33", mustItem(t, r, "Manejo de Caja (Art. 30 - A)").Rem, "manejo de caja")
	// The shortage never exceeds the granted allowance.
	assertDec(t, "10208.33", mustItem(t, r, "Faltante de caja").Deduction, "faltante capped")
}

func TestComputeMonthly_GarnishmentCappedAtNet(t *testing.T) {
	e := testEngine()
	in := liquidation.NewMonthlyInput("GENERAL", "ADMINISTRATIVO", "A", "2026-03")
	in.Garnishment = dec("99000000")

	r, err := e.ComputeMonthly(in)
	require.NoError(t, err)

	assert.True(t, r.Totals.Net.IsZero(), "net after capped garnishment = %s", r.Totals.Net)
}

// =============================================================================
// DEDUCTION FLAGS
// =============================================================================

func TestComputeMonthly_PensionRetiree(t *testing.T) {
	e := testEngine()
	in := liquidation.NewMonthlyInput("GENERAL", "ADMINISTRATIVO", "A", "2026-03")
	in.PensionRetiree = true

	r, err := e.ComputeMonthly(in)
	require.NoError(t, err)

	assert.NotNil(t, r.Item("Jubilación (11%)"), "pension always applies")
	assert.Nil(t, r.Item("Ley 19.032 (3%)"), "no PAMI for retirees")
	assert.Nil(t, r.Item("Obra Social (3%)"), "no health insurance for retirees")
	assert.Nil(t, r.Item("Aporte fijo OSECAC"))
}

func TestComputeMonthly_TravelAllowanceOutsideContributions(t *testing.T) {
	e := testEngine()
	in := liquidation.NewMonthlyInput("GENERAL", "ADMINISTRATIVO", "A", "2026-03")
	in.TravelAllowance = dec("120000")

	r, err := e.ComputeMonthly(in)
	require.NoError(t, err)

	assertDec(t, "120000", mustItem(t, r, "Viáticos (NR sin aportes)").NonRem, "viáticos")
	// FAECYS runs over rem + NR contribution bases; the travel
	// allowance is excluded, so the base matches the no-viáticos run.
	assertDec(t, "1083333.33", mustItem(t, r, "FAECYS (0,5%)").Base, "FAECYS base")
}

// =============================================================================
// BRANCH RULES
// =============================================================================

func TestComputeMonthly_AguaTierAndCompoundedSeniority(t *testing.T) {
	e := testEngine()
	in := liquidation.NewMonthlyInput("AGUA POTABLE", "", "OFICIAL", "2026-03")
	in.ConnectionTier = "B"
	in.SeniorityYears = 3

	r, err := e.ComputeMonthly(in)
	require.NoError(t, err)

	// Tier B folds 1.07 into the base wage.
	assertDec(t, "1070000", mustItem(t, r, "Básico").Rem, "Básico tier B")
	// 2% compounded: 1.02^3 - 1 = 6.1208% of 1,070,000.
	assertDec(t, "65492.56", mustItem(t, r, "Antigüedad").Rem, "Antigüedad agua")

	// Untiered: still compounded, 61208.00 on the raw base, not a
	// flat 6%.
	in.ConnectionTier = ""
	r, err = e.ComputeMonthly(in)
	require.NoError(t, err)
	assertDec(t, "61208", mustItem(t, r, "Antigüedad").Rem, "Antigüedad sin tier")
}

func TestComputeMonthly_AguaTierByConnectionCount(t *testing.T) {
	e := testEngine()
	in := liquidation.NewMonthlyInput("AGUA POTABLE", "", "OFICIAL", "2026-03")
	in.ConnectionCount = 2500 // tier C

	r, err := e.ComputeMonthly(in)
	require.NoError(t, err)
	assertDec(t, "1144900", mustItem(t, r, "Básico").Rem, "Básico tier C")
}

func TestComputeMonthly_TurismoTitleAndKm(t *testing.T) {
	e := testEngine()
	in := liquidation.NewMonthlyInput("TURISMO", "ADMINISTRATIVO", "A", "2026-03")
	in.TitleLevel = "UNIVERSITARIO"
	in.KmVehicle = "C4"
	in.KmUnder100 = 100

	r, err := e.ComputeMonthly(in)
	require.NoError(t, err)

	assertDec(t, "200000", mustItem(t, r, "Adicional por Título").Rem, "título")
	// 2026-03 inherits the 2026-01 km table: 112.31/km under 100.
	assertDec(t, "11231", mustItem(t, r, "Adicional por KM (Operativo C4)").Rem, "km turismo")
}

func TestComputeMonthly_FuneralChoferImpliesGeneral(t *testing.T) {
	e := testEngine()
	in := liquidation.NewMonthlyInput("FUNEBRES", "", "CHOFER", "2026-03")
	in.FuneralAddOns = []string{"CHOFER"}

	r, err := e.ComputeMonthly(in)
	require.NoError(t, err)

	// CHOFER (15%) drags CADAVER (10%) along: 25% of the base wage.
	assertDec(t, "250000", mustItem(t, r, "Adicionales Fúnebres").Rem, "adicionales fúnebres")
}

func TestComputeMonthly_FuneralFlatAmountProrates(t *testing.T) {
	e := testEngine()
	in := liquidation.NewMonthlyInput("FUNEBRES", "", "CHOFER", "2026-03")
	in.HoursPerWeek = 24
	in.FuneralAddOns = []string{"INDUMENT"}

	r, err := e.ComputeMonthly(in)
	require.NoError(t, err)

	// The flat 30,000 clothing allowance halves with the jornada.
	assertDec(t, "15000", mustItem(t, r, "Adicionales Fúnebres").Rem, "indumentaria at 24hs")
}

// =============================================================================
// FEATURE SET
// =============================================================================

func TestComputeMonthly_ReducedFeatureSet(t *testing.T) {
	e := liquidation.NewEngineWithFeatures(testRepo(), liquidation.FeatureSet{})
	in := liquidation.NewMonthlyInput("GENERAL", "ADMINISTRATIVO", "A", "2026-03")
	in.Overtime50 = 10
	in.DisplayWindow = true

	r, err := e.ComputeMonthly(in)
	require.NoError(t, err)

	assert.Nil(t, r.Item("Horas extra 50%"), "overtime gated off")
	assert.Nil(t, r.Item("Armado de vidriera (3,83%)"), "vidriera gated off")
	assert.Nil(t, r.Item("Jubilación (11%)"), "deductions gated off")
	// Presenteeism is not a gated group; it still pays.
	assert.NotNil(t, r.Item("Presentismo"))
}

func TestComputeMonthly_AllowanceFlagsAreIndependent(t *testing.T) {
	turismo := liquidation.NewMonthlyInput("TURISMO", "ADMINISTRATIVO", "A", "2026-03")
	turismo.TitleLevel = "UNIVERSITARIO"
	turismo.KmVehicle = "C4"
	turismo.KmUnder100 = 100

	// Km is a historical concept; the title bonus is a branch concept.
	historical := liquidation.NewEngineWithFeatures(testRepo(),
		liquidation.FeatureSet{HistoricalAllowances: true})
	r, err := historical.ComputeMonthly(turismo)
	require.NoError(t, err)
	assertDec(t, "11231", mustItem(t, r, "Adicional por KM (Operativo C4)").Rem, "km under historical")
	assert.Nil(t, r.Item("Adicional por Título"), "título needs the branch flag")

	branch := liquidation.NewEngineWithFeatures(testRepo(),
		liquidation.FeatureSet{BranchAllowances: true})
	r, err = branch.ComputeMonthly(turismo)
	require.NoError(t, err)
	assertDec(t, "200000", mustItem(t, r, "Adicional por Título").Rem, "título under branch")
	assert.Nil(t, r.Item("Adicional por KM (Operativo C4)"), "km needs the historical flag")
}

func TestComputeMonthly_ConnectionTierFollowsBranchFlag(t *testing.T) {
	agua := liquidation.NewMonthlyInput("AGUA POTABLE", "", "OFICIAL", "2026-03")
	agua.ConnectionTier = "B"

	branch := liquidation.NewEngineWithFeatures(testRepo(),
		liquidation.FeatureSet{BranchAllowances: true})
	r, err := branch.ComputeMonthly(agua)
	require.NoError(t, err)
	assertDec(t, "1070000", mustItem(t, r, "Básico").Rem, "tier folded in")

	historical := liquidation.NewEngineWithFeatures(testRepo(),
		liquidation.FeatureSet{HistoricalAllowances: true})
	r, err = historical.ComputeMonthly(agua)
	require.NoError(t, err)
	assertDec(t, "1000000", mustItem(t, r, "Básico").Rem, "tier gated off")
}
