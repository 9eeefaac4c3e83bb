package schedule_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mercantil/wage-engine/schedule"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func row(branch, grouping, category, month, basico string) schedule.WageRecord {
	return schedule.WageRecord{
		Branch:   branch,
		Grouping: grouping,
		Category: category,
		Month:    month,
		Basico:   decimal.RequireFromString(basico),
	}
}

func testIndex() *schedule.Index {
	return schedule.NewIndex([]schedule.WageRecord{
		row("GENERAL", "ADMINISTRATIVO", "A", "2026-03", "1096934.71"),
		row("GENERAL", "VENDEDORES", "B", "2026-03", "1105000"),
		row("GENERAL", "GENERAL", "CAJEROS A", "2026-03", "1100000"),
		row("GENERAL", "", "MAESTRANZA A", "2026-03", "1050000"),
		row("TURISMO", "ADMINISTRATIVO", "A", "2026-03", "1120000"),
	}, schedule.DefaultRules())
}

// =============================================================================
// NORMALIZATION
// =============================================================================

func TestNormName_FoldsAccentsAndWhitespace(t *testing.T) {
	cases := map[string]string{
		"  administrativo  a ": "ADMINISTRATIVO A",
		"Fúnebres":             "FUNEBRES",
		"categoría b":          "CATEGORIA B",
		"":                     "",
	}
	for in, want := range cases {
		if got := schedule.NormName(in); got != want {
			t.Errorf("NormName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormBranch_Synonyms(t *testing.T) {
	for _, in := range []string{"CALL CENTER", "centro de llamadas", "CallCenter"} {
		if got := schedule.NormBranch(in); got != schedule.BranchCallCenter {
			t.Errorf("NormBranch(%q) = %q", in, got)
		}
	}
}

func TestNormGrouping_EmptyIsSentinel(t *testing.T) {
	if got := schedule.NormGrouping(""); got != schedule.Ungrouped {
		t.Errorf("NormGrouping(\"\") = %q", got)
	}
	if got := schedule.NormGrouping(" - "); got != schedule.Ungrouped {
		t.Errorf("NormGrouping(\"-\") = %q", got)
	}
}

func TestMonthKey_Truncates(t *testing.T) {
	if got := schedule.MonthKey("2026-03-15"); got != "2026-03" {
		t.Errorf("MonthKey = %q", got)
	}
	if got := schedule.MonthKey("2026-03"); got != "2026-03" {
		t.Errorf("MonthKey = %q", got)
	}
}

// =============================================================================
// INDEX LOOKUP
// =============================================================================

func TestLookup_NormalizesKeys(t *testing.T) {
	idx := testIndex()

	rec, ok := idx.Lookup(" general ", "administrativo", "a", "2026-03-01")
	if !ok {
		t.Fatal("expected lookup hit")
	}
	if !rec.Basico.Equal(decimal.RequireFromString("1096934.71")) {
		t.Errorf("Basico = %s", rec.Basico)
	}
}

func TestLookup_UngroupedRow(t *testing.T) {
	idx := testIndex()

	if _, ok := idx.Lookup("GENERAL", "", "MAESTRANZA A", "2026-03"); !ok {
		t.Error("expected ungrouped row to resolve via empty grouping")
	}
	if _, ok := idx.Lookup("GENERAL", schedule.Ungrouped, "MAESTRANZA A", "2026-03"); !ok {
		t.Error("expected ungrouped row to resolve via sentinel")
	}
}

func TestNewIndex_LaterDuplicateWins(t *testing.T) {
	idx := schedule.NewIndex([]schedule.WageRecord{
		row("GENERAL", "ADMINISTRATIVO", "A", "2026-03", "100"),
		row("GENERAL", "ADMINISTRATIVO", "A", "2026-03", "200"),
	}, schedule.DefaultRules())

	rec, _ := idx.Lookup("GENERAL", "ADMINISTRATIVO", "A", "2026-03")
	if !rec.Basico.Equal(decimal.NewFromInt(200)) {
		t.Errorf("Basico = %s, want the corrected row", rec.Basico)
	}
}

func TestReferenceWage_FallsBackToGeneralBranch(t *testing.T) {
	idx := testIndex()

	// TURISMO has no cashier row; the reference must come from the
	// GENERAL branch's GENERAL grouping.
	got := idx.ReferenceWage("TURISMO", "2026-03", []string{"CAJEROS A"})
	if !got.Equal(decimal.RequireFromString("1100000")) {
		t.Errorf("ReferenceWage = %s", got)
	}
}

func TestReferenceWage_SkipsMenores(t *testing.T) {
	idx := schedule.NewIndex([]schedule.WageRecord{
		row("GENERAL", "GENERAL", "CAJEROS A MENORES", "2026-03", "500000"),
	}, schedule.DefaultRules())

	if got := idx.ReferenceWage("GENERAL", "2026-03", []string{"CAJEROS A MENORES"}); !got.IsZero() {
		t.Errorf("ReferenceWage = %s, want 0 for menores-only candidates", got)
	}
}

// =============================================================================
// RULE TABLES
// =============================================================================

func TestKmRate_CarriesForward(t *testing.T) {
	idx := testIndex()

	// 2026-03 has no km table; it inherits 2026-01.
	rate, ok := idx.KmRate("2026-03", "C4")
	if !ok {
		t.Fatal("expected carry-forward hit")
	}
	if !rate.Under100.Equal(decimal.RequireFromString("112.31")) {
		t.Errorf("Under100 = %s", rate.Under100)
	}

	// 2026-05 replaces the table.
	rate, _ = idx.KmRate("2026-06", "C4")
	if !rate.Under100.Equal(decimal.RequireFromString("122.31")) {
		t.Errorf("Under100 = %s after update", rate.Under100)
	}
}

func TestConnectionTier_ByLetterAndCount(t *testing.T) {
	idx := testIndex()

	tier, ok := idx.ConnectionTier("c", 0)
	if !ok || !tier.Multiplier.Equal(decimal.RequireFromString("1.1449")) {
		t.Errorf("tier C = %+v, ok=%v", tier, ok)
	}

	tier, ok = idx.ConnectionTier("", 3500)
	if !ok || tier.Letter != "D" {
		t.Errorf("count 3500 resolved to %+v, ok=%v", tier, ok)
	}

	tier, ok = idx.ConnectionTier("", 1000)
	if !ok || tier.Letter != "A" {
		t.Errorf("count 1000 resolved to %+v, ok=%v", tier, ok)
	}
}

func TestTitlePercent(t *testing.T) {
	idx := testIndex()

	if got := idx.TitlePercent("universitario"); !got.Equal(decimal.NewFromInt(20)) {
		t.Errorf("TitlePercent = %s", got)
	}
	if got := idx.TitlePercent("PRIMARIO"); !got.IsZero() {
		t.Errorf("TitlePercent unknown level = %s", got)
	}
}

// =============================================================================
// META
// =============================================================================

func TestMeta_IncludesConventionBranches(t *testing.T) {
	idx := testIndex()
	meta := idx.Meta()

	want := map[string]bool{}
	for _, b := range meta.Branches {
		want[b] = true
	}
	for _, b := range schedule.Branches {
		if !want[b] {
			t.Errorf("meta missing convention branch %s", b)
		}
	}
	if len(meta.Months) != 1 || meta.Months[0] != "2026-03" {
		t.Errorf("Months = %v", meta.Months)
	}
}

func TestMeta_CategoriesUnderGrouping(t *testing.T) {
	meta := testIndex().Meta()

	cats := meta.Categories["GENERAL"]["ADMINISTRATIVO"]
	if len(cats) != 1 || cats[0] != "A" {
		t.Errorf("Categories = %v", cats)
	}
}
