package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/doug-martin/goqu/v9"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS clinics_clinic (
		id      BIGSERIAL PRIMARY KEY,
		name    VARCHAR(250) NOT NULL,
		address TEXT,
		lat     DOUBLE PRECISION,
		lng     DOUBLE PRECISION
	)`,
	`CREATE INDEX IF NOT EXISTS clinics_clinic_lat_lng_idx ON clinics_clinic (lat, lng)`,
	`CREATE TABLE IF NOT EXISTS clinics_service (
		id            BIGSERIAL PRIMARY KEY,
		clinic_id     BIGINT NOT NULL REFERENCES clinics_clinic (id) ON DELETE CASCADE,
		name          VARCHAR(250) NOT NULL,
		duration_mins INTEGER NOT NULL DEFAULT 30,
		price         NUMERIC(10, 2)
	)`,
	`CREATE INDEX IF NOT EXISTS clinics_service_clinic_id_idx ON clinics_service (clinic_id, id)`,
}

// InitSchema creates the clinic and service tables and the indexes the
// proximity queries rely on. It is safe to run repeatedly.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit: %w", err)
	}
	return nil
}

// ClinicSeed is one clinic of a seed file, with its services inline.
type ClinicSeed struct {
	ID       int64         `json:"id"`
	Name     string        `json:"name"`
	Address  string        `json:"address"`
	Lat      *float64      `json:"lat"`
	Lng      *float64      `json:"lng"`
	Services []ServiceSeed `json:"services"`
}

type ServiceSeed struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	DurationMins int      `json:"duration_mins"`
	Price        *float64 `json:"price"`
}

// ParseSeed decodes and validates a seed document.
func ParseSeed(data []byte) ([]ClinicSeed, error) {
	var clinics []ClinicSeed
	if err := json.Unmarshal(data, &clinics); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}

	seen := make(map[int64]bool)
	for i, c := range clinics {
		if c.ID <= 0 {
			return nil, fmt.Errorf("parse seed: clinic at index %d: invalid id %d", i, c.ID)
		}
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("parse seed: clinic %d: name cannot be empty", c.ID)
		}
		if (c.Lat == nil) != (c.Lng == nil) {
			return nil, fmt.Errorf("parse seed: clinic %d: lat and lng must be set together", c.ID)
		}
		if c.Lat != nil && (*c.Lat < -90 || *c.Lat > 90 || *c.Lng < -180 || *c.Lng > 180) {
			return nil, fmt.Errorf("parse seed: clinic %d: coordinate out of range", c.ID)
		}
		for j, s := range c.Services {
			if s.ID <= 0 || seen[s.ID] {
				return nil, fmt.Errorf("parse seed: clinic %d service at index %d: invalid or duplicate id %d", c.ID, j, s.ID)
			}
			seen[s.ID] = true
		}
	}
	return clinics, nil
}

// SeedFromJSON upserts the clinics and services described in jsonPath.
// Services of seeded clinics are replaced wholesale.
func SeedFromJSON(ctx context.Context, db *sql.DB, jsonPath string) error {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed clinics: read %q: %w", jsonPath, err)
	}
	clinics, err := ParseSeed(data)
	if err != nil {
		return fmt.Errorf("seed clinics: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed clinics: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, c := range clinics {
		if err := upsertClinic(ctx, tx, c); err != nil {
			return fmt.Errorf("seed clinics: clinic %d: %w", c.ID, err)
		}
	}

	for _, table := range []string{tableClinics, tableServices} {
		stmt := fmt.Sprintf(
			`SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE((SELECT MAX(id) FROM %s), 1))`,
			table, table,
		)
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("seed clinics: reset %s sequence: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed clinics: commit: %w", err)
	}
	return nil
}

func upsertClinic(ctx context.Context, tx *sql.Tx, c ClinicSeed) error {
	query, args, err := dialect().
		Insert(tableClinics).
		Rows(goqu.Record{
			"id":      c.ID,
			"name":    c.Name,
			"address": c.Address,
			"lat":     nullable(c.Lat),
			"lng":     nullable(c.Lng),
		}).
		OnConflict(goqu.DoUpdate("id", goqu.Record{
			"name":    goqu.I("excluded.name"),
			"address": goqu.I("excluded.address"),
			"lat":     goqu.I("excluded.lat"),
			"lng":     goqu.I("excluded.lng"),
		})).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}

	query, args, err = dialect().
		Delete(tableServices).
		Where(goqu.C("clinic_id").Eq(c.ID)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build service delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete services: %w", err)
	}

	if len(c.Services) == 0 {
		return nil
	}

	rows := make([]any, 0, len(c.Services))
	for _, s := range c.Services {
		duration := s.DurationMins
		if duration <= 0 {
			duration = 30
		}
		rows = append(rows, goqu.Record{
			"id":            s.ID,
			"clinic_id":     c.ID,
			"name":          s.Name,
			"duration_mins": duration,
			"price":         nullable(s.Price),
		})
	}
	query, args, err = dialect().Insert(tableServices).Rows(rows...).Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build service insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert services: %w", err)
	}
	return nil
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
