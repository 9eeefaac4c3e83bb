/*
Package factory provides JSON to Go schedule conversion.

PURPOSE:
  Converts JSON schedule bundles into schedule.WageRecord rows and rule
  tables, and seeds them into a store. This enables scale updates
  without code changes - each paritaria round ships as a JSON file, and
  the factory loads it into the SQLite schedule database.

WHY JSON?
  - Non-developers can transcribe the published scales
  - Version control for each negotiation round
  - One file carries scales plus the satellite tables (funeral
    add-ons, tourism km rates) that update on their own cadence

JSON SCHEMA:
  {
    "escalas": [
      {
        "rama": "GENERAL",
        "agrupamiento": "ADMINISTRATIVO",
        "categoria": "A",
        "mes": "2026-03",
        "basico": "1.096.934,71",
        "no_remunerativo": 0,
        "suma_fija": 40000
      }
    ],
    "adicionales_funebres": {
      "2026-01": [
        {"id": "CADAVER", "etiqueta": "Manipuleo de cadáveres", "tipo": "pct", "valor": 10}
      ]
    },
    "km_turismo": {
      "2026-01": [
        {"vehiculo": "C4", "menos_100": "112,31", "mas_100": "129,16"}
      ]
    }
  }

  Amounts accept JSON numbers or Argentine-formatted strings.

USAGE:
  bundle, err := factory.ParseSchedule(jsonBytes)
  err = factory.Seed(store, bundle)

SEE ALSO:
  - schedule/schedule.go: WageRecord and normalization
  - store/sqlite/sqlite.go: The Seeder this feeds in production
  - cmd/server/main.go: The -seed flag
*/
package factory

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mercantil/wage-engine/money"
	"github.com/mercantil/wage-engine/schedule"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ScheduleJSON is the JSON representation of a schedule bundle.
type ScheduleJSON struct {
	Scales        []ScaleJSON                  `json:"escalas"`
	FuneralAddOns map[string][]FuneralItemJSON `json:"adicionales_funebres,omitempty"`
	KmRates       map[string][]KmRateJSON      `json:"km_turismo,omitempty"`
}

// ScaleJSON is one wage-scale row. Amount fields are `any` so both
// JSON numbers and formatted strings parse.
type ScaleJSON struct {
	Rama         string `json:"rama"`
	Agrupamiento string `json:"agrupamiento,omitempty"`
	Categoria    string `json:"categoria"`
	Mes          string `json:"mes"`
	Basico       any    `json:"basico"`
	NoRem        any    `json:"no_remunerativo,omitempty"`
	SumaFija     any    `json:"suma_fija,omitempty"`
}

// FuneralItemJSON is one funeral add-on definition for a month.
type FuneralItemJSON struct {
	ID       string `json:"id"`
	Etiqueta string `json:"etiqueta"`
	Tipo     string `json:"tipo"` // "pct" or "monto"
	Valor    any    `json:"valor"`
}

// KmRateJSON is one tourism per-km rate row for a month.
type KmRateJSON struct {
	Vehiculo string `json:"vehiculo"` // "C4" / "C5"
	Menos100 any    `json:"menos_100"`
	Mas100   any    `json:"mas_100"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParseSchedule decodes and validates a schedule bundle.
func ParseSchedule(data []byte) (*ScheduleJSON, error) {
	var bundle ScheduleJSON
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("invalid schedule JSON: %w", err)
	}
	if len(bundle.Scales) == 0 {
		return nil, fmt.Errorf("schedule bundle has no escalas")
	}
	for i, s := range bundle.Scales {
		if s.Rama == "" || s.Categoria == "" || s.Mes == "" {
			return nil, fmt.Errorf("escala %d: rama, categoria and mes are required", i)
		}
	}
	return &bundle, nil
}

// Records converts the scale rows into normalized wage records.
func (b *ScheduleJSON) Records() []schedule.WageRecord {
	records := make([]schedule.WageRecord, len(b.Scales))
	for i, s := range b.Scales {
		records[i] = schedule.WageRecord{
			Branch:   schedule.NormBranch(s.Rama),
			Grouping: schedule.NormGrouping(s.Agrupamiento),
			Category: schedule.NormName(s.Categoria),
			Month:    schedule.MonthKey(s.Mes),
			Basico:   money.ParseAny(s.Basico),
			NoRem:    money.ParseAny(s.NoRem),
			SumaFija: money.ParseAny(s.SumaFija),
		}
	}
	return records
}

// =============================================================================
// SEEDING
// =============================================================================

// Seeder is the destination for a parsed bundle. *sqlite.Store
// implements it.
type Seeder interface {
	InsertScale(rec schedule.WageRecord) error
	InsertFuneralAddOn(month string, item schedule.FuneralAddOn) error
	InsertKmRate(month, vehicle string, under, over decimal.Decimal) error
}

// Seed writes the whole bundle into dst. Rows replace existing ones
// with the same key, so re-seeding the same file is idempotent.
func Seed(dst Seeder, bundle *ScheduleJSON) error {
	for _, rec := range bundle.Records() {
		if err := dst.InsertScale(rec); err != nil {
			return fmt.Errorf("escala %s/%s/%s/%s: %w",
				rec.Branch, rec.Grouping, rec.Category, rec.Month, err)
		}
	}
	for month, items := range bundle.FuneralAddOns {
		for _, it := range items {
			addOn := schedule.FuneralAddOn{
				ID:    schedule.NormName(it.ID),
				Label: it.Etiqueta,
				Kind:  schedule.FuneralAddOnKind(strings.ToLower(it.Tipo)),
				Value: money.ParseAny(it.Valor),
			}
			if err := dst.InsertFuneralAddOn(schedule.MonthKey(month), addOn); err != nil {
				return fmt.Errorf("adicional fúnebre %s/%s: %w", month, addOn.ID, err)
			}
		}
	}
	for month, rows := range bundle.KmRates {
		for _, r := range rows {
			err := dst.InsertKmRate(
				schedule.MonthKey(month),
				schedule.NormName(r.Vehiculo),
				money.ParseAny(r.Menos100),
				money.ParseAny(r.Mas100),
			)
			if err != nil {
				return fmt.Errorf("km turismo %s/%s: %w", month, r.Vehiculo, err)
			}
		}
	}
	return nil
}
