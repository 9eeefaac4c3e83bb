package money_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mercantil/wage-engine/money"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRound2_HalfUp(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1.005", "1.01"},
		{"1.004", "1"},
		{"2.675", "2.68"},
		{"-1.005", "-1.01"}, // half away from zero
		{"100", "100"},
		{"0.125", "0.13"}, // not banker's rounding
	}
	for _, c := range cases {
		got := money.Round2(dec(c.in))
		if !got.Equal(dec(c.want)) {
			t.Errorf("Round2(%s) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1.234,56", "1234.56"},
		{"3.208.680", "3208680"},
		{"1234.56", "1234.56"},
		{"1234,56", "1234.56"},
		{"$ 500", "500"},
		{"$1.096.934,71", "1096934.71"},
		{"1234.5", "1234.5"},
		// Single dot with 3 trailing digits is a thousands mark in the
		// published scales.
		{"3.208", "3208"},
		{"", "0"},
		{"n/a", "0"},
		{"  850000  ", "850000"},
	}
	for _, c := range cases {
		got := money.Parse(c.in)
		if !got.Equal(dec(c.want)) {
			t.Errorf("Parse(%q) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestParseAny(t *testing.T) {
	if got := money.ParseAny(float64(1234.56)); !got.Equal(dec("1234.56")) {
		t.Errorf("ParseAny(float64) = %s", got)
	}
	if got := money.ParseAny("1.234,56"); !got.Equal(dec("1234.56")) {
		t.Errorf("ParseAny(string) = %s", got)
	}
	if got := money.ParseAny(nil); !got.IsZero() {
		t.Errorf("ParseAny(nil) = %s, want 0", got)
	}
}

func TestFromFloat(t *testing.T) {
	// Half-hour quantities come in as floats on the receipt form.
	if got := money.FromFloat(7.5); !got.Equal(dec("7.5")) {
		t.Errorf("FromFloat(7.5) = %s", got)
	}
	if got := money.FromFloat(0); !got.IsZero() {
		t.Errorf("FromFloat(0) = %s, want 0", got)
	}
}

func TestPercent(t *testing.T) {
	// 11% of 541666.67 is the pension withholding in a full-time
	// receipt: 59583.33 after round-half-up.
	got := money.Percent(dec("541666.67"), 11)
	if !got.Equal(dec("59583.33")) {
		t.Errorf("Percent = %s, want 59583.33", got)
	}
}

func TestDiv_ZeroDivisor(t *testing.T) {
	if got := money.Div(dec("100"), decimal.Zero); !got.IsZero() {
		t.Errorf("Div by zero = %s, want 0", got)
	}
}

func TestSum_RoundsEachStep(t *testing.T) {
	// 0.004 rounds away at every step, so three of them stay zero
	// instead of accumulating to 0.01.
	got := money.Sum(dec("0.004"), dec("0.004"), dec("0.004"))
	if !got.IsZero() {
		t.Errorf("Sum = %s, want 0", got)
	}
}

func TestMinMax(t *testing.T) {
	if got := money.Min(dec("10"), dec("7")); !got.Equal(dec("7")) {
		t.Errorf("Min = %s", got)
	}
	if got := money.Max(dec("10"), dec("7")); !got.Equal(dec("10")) {
		t.Errorf("Max = %s", got)
	}
}
