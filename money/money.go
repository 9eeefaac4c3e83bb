/*
Package money provides decimal currency arithmetic for liquidations.

PURPOSE:
  Every peso amount in the system flows through this package. It pins
  down the two behaviors that must match the payroll authority's
  reference receipts bit-for-bit:

  1. Rounding: every amount is rounded to 2 decimals at the point of
     computation, round-half-up (not banker's rounding). Intermediate
     sums are re-rounded at each accumulation step.
  2. Parsing: user-supplied numeric strings are tolerated in both
     Argentine ("1.234,56") and plain ("1234.56") formats. Malformed
     values parse to zero instead of failing. This leniency is
     deliberate and can mask caller bugs; it matches the reference
     behavior the receipts were validated against.

USAGE:
  basico := money.Parse("1.234,56")        // 1234.56
  pct    := money.Percent(basico, 11)      // 135.80 (round-half-up)
  total  := money.Round2(a.Add(b))

SEE ALSO:
  - liquidation: the engines that accumulate these amounts
*/
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Round2 rounds to 2 decimal places, half away from zero. All payroll
// bases are non-negative, so this is round-half-up.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// FromFloat converts a float input field to a decimal amount.
func FromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// FromInt converts an integer count to a decimal.
func FromInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}

// Percent returns base * pct/100, rounded to 2 decimals.
func Percent(base decimal.Decimal, pct float64) decimal.Decimal {
	return Round2(base.Mul(decimal.NewFromFloat(pct)).Div(decimal.NewFromInt(100)))
}

// Mul returns a*b rounded to 2 decimals.
func Mul(a, b decimal.Decimal) decimal.Decimal {
	return Round2(a.Mul(b))
}

// Div returns a/b rounded to 2 decimals. Division by zero returns zero:
// every divisor in the formulas (200, 25, 30, 12, ...) is a constant,
// so a zero divisor can only come from a zero base, where zero is the
// right answer anyway.
func Div(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return Round2(a.Div(b))
}

// Sum adds amounts, re-rounding at each accumulation step.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = Round2(total.Add(a))
	}
	return total
}

// Max returns the greater of a and b.
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Min returns the lesser of a and b.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Parse converts a user-supplied numeric value into a decimal amount.
// Accepted formats:
//
//	"1.234,56"  -> 1234.56   (Argentine thousands/decimal marks)
//	"3.208.680" -> 3208680   (dot-only: thousands marks)
//	"1234.56"   -> 1234.56   (single dot with <=2 trailing digits)
//	"1234,56"   -> 1234.56
//	"$ 500"     -> 500
//
// Anything unparseable yields zero. Callers that need hard validation
// must check the raw string themselves.
func Parse(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero
	}

	commas := strings.Count(s, ",")
	dots := strings.Count(s, ".")
	switch {
	case commas == 1 && dots >= 1:
		// 1.234,56 -> 1234.56
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case commas == 0 && dots > 1:
		// 3.208.680 -> 3208680
		s = strings.ReplaceAll(s, ".", "")
	case commas == 0 && dots == 1:
		// Single dot is ambiguous: "3.208" is a thousands mark in the
		// source data, "1234.5" or "1234.56" is a decimal point.
		if frac := s[strings.IndexByte(s, '.')+1:]; len(frac) == 3 {
			s = strings.ReplaceAll(s, ".", "")
		}
	default:
		s = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseAny parses amounts that arrive as JSON numbers or strings.
func ParseAny(v any) decimal.Decimal {
	switch x := v.(type) {
	case nil:
		return decimal.Zero
	case float64:
		return decimal.NewFromFloat(x)
	case int:
		return decimal.NewFromInt(int64(x))
	case int64:
		return decimal.NewFromInt(x)
	case decimal.Decimal:
		return x
	case string:
		return Parse(x)
	default:
		return decimal.Zero
	}
}
