/*
Package sqlite loads the master wage schedule from a SQLite database.

PURPOSE:
  The schedule workbook is ingested upstream (an ETL concern outside
  this service) into a small SQLite file. This package reads that file
  once and materializes the read-only schedule.Index the engines
  consume. No query runs during a liquidation; everything is memoized
  in memory.

KEY TABLES:
  wage_scales:     one row per (rama, agrupamiento, categoria, mes)
  funeral_addons:  the funeral-sector add-on table per month
  turismo_km_rates: CCT 547/08 per-km rates per month and vehicle

  Rule tables without rows fall back to schedule.DefaultRules().

LIFECYCLE:
  New() opens the database and migrates the schema. Index() loads and
  memoizes under sync.Once: concurrent first requests parse at most
  once, and the Index never changes afterwards.

USAGE:
  store, err := sqlite.New("./data/maestro.db")
  if err != nil { log.Fatal(err) }
  defer store.Close()

  repo, err := store.Index()
  engine := liquidation.NewEngine(repo)

SEE ALSO:
  - schedule: the Index and rule-table types built here
*/
package sqlite

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/mercantil/wage-engine/money"
	"github.com/mercantil/wage-engine/schedule"
)

// Store reads the ingested schedule. Safe for concurrent use.
type Store struct {
	db *sql.DB

	once    sync.Once
	idx     *schedule.Index
	loadErr error
}

// New opens (or creates) the schedule database at path. Use ":memory:"
// for tests.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open schedule database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schemaSQL := `
	CREATE TABLE IF NOT EXISTS wage_scales (
		rama         TEXT NOT NULL,
		agrupamiento TEXT NOT NULL DEFAULT '—',
		categoria    TEXT NOT NULL,
		mes          TEXT NOT NULL,           -- YYYY-MM
		basico       TEXT NOT NULL DEFAULT '0',
		no_rem       TEXT NOT NULL DEFAULT '0',
		suma_fija    TEXT NOT NULL DEFAULT '0',
		PRIMARY KEY (rama, agrupamiento, categoria, mes)
	);

	CREATE TABLE IF NOT EXISTS funeral_addons (
		mes      TEXT NOT NULL,
		addon_id TEXT NOT NULL,
		label    TEXT NOT NULL DEFAULT '',
		kind     TEXT NOT NULL DEFAULT 'monto', -- 'pct' | 'monto'
		value    TEXT NOT NULL DEFAULT '0',
		PRIMARY KEY (mes, addon_id)
	);

	CREATE TABLE IF NOT EXISTS turismo_km_rates (
		mes       TEXT NOT NULL,
		vehiculo  TEXT NOT NULL,              -- 'C4' | 'C5'
		menos_100 TEXT NOT NULL DEFAULT '0',
		mas_100   TEXT NOT NULL DEFAULT '0',
		PRIMARY KEY (mes, vehiculo)
	);`
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to migrate schedule schema: %w", err)
	}
	return nil
}

// Index loads the schedule once and returns the memoized repository.
func (s *Store) Index() (*schedule.Index, error) {
	s.once.Do(func() {
		s.idx, s.loadErr = s.load()
	})
	return s.idx, s.loadErr
}

func (s *Store) load() (*schedule.Index, error) {
	rows, err := s.loadScales()
	if err != nil {
		return nil, err
	}
	rules := schedule.DefaultRules()
	if err := s.loadFuneralAddOns(&rules); err != nil {
		return nil, err
	}
	if err := s.loadKmRates(&rules); err != nil {
		return nil, err
	}
	return schedule.NewIndex(rows, rules), nil
}

func (s *Store) loadScales() ([]schedule.WageRecord, error) {
	rows, err := s.db.Query(
		`SELECT rama, agrupamiento, categoria, mes, basico, no_rem, suma_fija
		 FROM wage_scales ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to read wage scales: %w", err)
	}
	defer rows.Close()

	var out []schedule.WageRecord
	for rows.Next() {
		var rec schedule.WageRecord
		var basico, noRem, sumaFija string
		if err := rows.Scan(&rec.Branch, &rec.Grouping, &rec.Category, &rec.Month,
			&basico, &noRem, &sumaFija); err != nil {
			return nil, fmt.Errorf("failed to scan wage scale row: %w", err)
		}
		// Amounts are stored as text; tolerate Argentine formatting.
		rec.Basico = money.Parse(basico)
		rec.NoRem = money.Parse(noRem)
		rec.SumaFija = money.Parse(sumaFija)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) loadFuneralAddOns(rules *schedule.RuleSet) error {
	rows, err := s.db.Query(
		`SELECT mes, addon_id, label, kind, value FROM funeral_addons ORDER BY mes, rowid`)
	if err != nil {
		return fmt.Errorf("failed to read funeral add-ons: %w", err)
	}
	defer rows.Close()

	byMonth := map[string][]schedule.FuneralAddOn{}
	for rows.Next() {
		var mes, kind, value string
		item := schedule.FuneralAddOn{}
		if err := rows.Scan(&mes, &item.ID, &item.Label, &kind, &value); err != nil {
			return fmt.Errorf("failed to scan funeral add-on row: %w", err)
		}
		item.Kind = schedule.FuneralAddOnKind(kind)
		item.Value = money.Parse(value)
		mes = schedule.MonthKey(mes)
		byMonth[mes] = append(byMonth[mes], item)
	}
	if len(byMonth) > 0 {
		rules.FuneralByMonth = byMonth
	}
	return rows.Err()
}

func (s *Store) loadKmRates(rules *schedule.RuleSet) error {
	rows, err := s.db.Query(
		`SELECT mes, vehiculo, menos_100, mas_100 FROM turismo_km_rates`)
	if err != nil {
		return fmt.Errorf("failed to read km rates: %w", err)
	}
	defer rows.Close()

	byMonth := map[string]map[string]schedule.KmRate{}
	for rows.Next() {
		var mes, vehiculo, under, over string
		if err := rows.Scan(&mes, &vehiculo, &under, &over); err != nil {
			return fmt.Errorf("failed to scan km rate row: %w", err)
		}
		mes = schedule.MonthKey(mes)
		if byMonth[mes] == nil {
			byMonth[mes] = map[string]schedule.KmRate{}
		}
		byMonth[mes][vehiculo] = schedule.KmRate{
			Under100: money.Parse(under),
			Over100:  money.Parse(over),
		}
	}
	if len(byMonth) > 0 {
		rules.TurismoKmByMonth = byMonth
	}
	return rows.Err()
}

// =============================================================================
// SEEDING - used by tests and the ingestion CLI
// =============================================================================

// InsertScale upserts one wage-scale row. Must run before Index().
func (s *Store) InsertScale(rec schedule.WageRecord) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO wage_scales
		 (rama, agrupamiento, categoria, mes, basico, no_rem, suma_fija)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Branch, rec.Grouping, rec.Category, rec.Month,
		rec.Basico.String(), rec.NoRem.String(), rec.SumaFija.String())
	return err
}

// InsertFuneralAddOn upserts one funeral add-on row.
func (s *Store) InsertFuneralAddOn(month string, item schedule.FuneralAddOn) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO funeral_addons (mes, addon_id, label, kind, value)
		 VALUES (?, ?, ?, ?, ?)`,
		month, item.ID, item.Label, string(item.Kind), item.Value.String())
	return err
}

// InsertKmRate upserts one tourism km-rate row.
func (s *Store) InsertKmRate(month, vehicle string, under, over decimal.Decimal) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO turismo_km_rates (mes, vehiculo, menos_100, mas_100)
		 VALUES (?, ?, ?, ?)`,
		month, vehicle, under.String(), over.String())
	return err
}
