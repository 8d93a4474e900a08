package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/5-07/sweeten/internal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS vitals (
	user_id       TEXT NOT NULL,
	date          TEXT NOT NULL,
	glucose       DOUBLE PRECISION,
	insulin_units DOUBLE PRECISION,
	carbs         DOUBLE PRECISION,
	steps         DOUBLE PRECISION,
	mood          TEXT NOT NULL DEFAULT '',
	notes         TEXT NOT NULL DEFAULT '',
	updated_at    TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (user_id, date)
);
CREATE TABLE IF NOT EXISTS plans (
	user_id      TEXT PRIMARY KEY,
	plan         JSONB NOT NULL,
	source       TEXT NOT NULL DEFAULT '',
	generated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS reminders (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	text       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS reminders_user_id_idx ON reminders (user_id);
CREATE TABLE IF NOT EXISTS api_usage (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	tokens_used INTEGER NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS api_usage_user_created_idx ON api_usage (user_id, created_at);
`

type PostgresStorage struct {
	pool   *pgxpool.Pool
	logger internal.Logger
}

func NewPostgresStorage(ctx context.Context, dsn string, logger internal.Logger) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Errorf("failed to connect to postgres: %v", err)
		return nil, err
	}
	return &PostgresStorage{pool: pool, logger: logger}, nil
}

// EnsureSchema creates the tables when they are missing.
func (p *PostgresStorage) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		p.logger.Errorf("failed to apply schema: %v", err)
		return fmt.Errorf("storage: schema: %w", err)
	}
	return nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

// --- VitalsRepository ---
func (p *PostgresStorage) SaveVitals(ctx context.Context, userID string, e internal.VitalEntry) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO vitals (user_id, date, glucose, insulin_units, carbs, steps, mood, notes, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, date) DO UPDATE SET
			glucose = EXCLUDED.glucose, insulin_units = EXCLUDED.insulin_units, carbs = EXCLUDED.carbs,
			steps = EXCLUDED.steps, mood = EXCLUDED.mood, notes = EXCLUDED.notes, updated_at = EXCLUDED.updated_at`,
		userID, e.Date, e.Glucose, e.InsulinUnits, e.Carbs, e.Steps, e.Mood, e.Notes, e.UpdatedAt)
	if err != nil {
		p.logger.Errorf("failed to upsert vitals: %v", err)
		return err
	}
	return nil
}

const vitalColumns = `date, glucose, insulin_units, carbs, steps, mood, notes, updated_at`

func scanVital(row pgx.Row) (internal.VitalEntry, error) {
	var v internal.VitalEntry
	err := row.Scan(&v.Date, &v.Glucose, &v.InsulinUnits, &v.Carbs, &v.Steps, &v.Mood, &v.Notes, &v.UpdatedAt)
	return v, err
}

func (p *PostgresStorage) GetVitals(ctx context.Context, userID, date string) (*internal.VitalEntry, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+vitalColumns+` FROM vitals WHERE user_id = $1 AND date = $2`, userID, date)
	v, err := scanVital(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("storage: vitals %s: %w", date, internal.ErrNotFound)
	}
	if err != nil {
		p.logger.Errorf("failed to get vitals: %v", err)
		return nil, err
	}
	return &v, nil
}

func (p *PostgresStorage) ListRecentVitals(ctx context.Context, userID string, limit int) ([]internal.VitalEntry, error) {
	q := `SELECT ` + vitalColumns + ` FROM vitals WHERE user_id = $1 ORDER BY date DESC`
	args := []any{userID}
	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := p.pool.Query(ctx, q, args...)
	if err != nil {
		p.logger.Errorf("failed to query vitals: %v", err)
		return nil, err
	}
	defer rows.Close()

	out := []internal.VitalEntry{}
	for rows.Next() {
		v, err := scanVital(rows)
		if err != nil {
			p.logger.Errorf("failed to scan vitals: %v", err)
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// --- PlanRepository ---
func (p *PostgresStorage) SavePlan(ctx context.Context, userID string, doc internal.PlanDocument) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO plans (user_id, plan, source, generated_at) VALUES ($1, $2::jsonb, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET plan = EXCLUDED.plan, source = EXCLUDED.source, generated_at = EXCLUDED.generated_at`,
		userID, string(doc.Plan), doc.Source, doc.GeneratedAt)
	if err != nil {
		p.logger.Errorf("failed to save plan: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) GetPlan(ctx context.Context, userID string) (*internal.PlanDocument, error) {
	row := p.pool.QueryRow(ctx, `SELECT plan::text, source, generated_at FROM plans WHERE user_id = $1`, userID)
	var raw string
	var doc internal.PlanDocument
	err := row.Scan(&raw, &doc.Source, &doc.GeneratedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("storage: plan: %w", internal.ErrNotFound)
	}
	if err != nil {
		p.logger.Errorf("failed to get plan: %v", err)
		return nil, err
	}
	doc.Plan = []byte(raw)
	return &doc, nil
}

// --- ReminderRepository ---
func (p *PostgresStorage) AddReminder(ctx context.Context, userID string, r internal.Reminder) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO reminders (id, user_id, text, created_at) VALUES ($1, $2, $3, $4)`,
		r.ID, userID, r.Text, r.CreatedAt)
	if err != nil {
		p.logger.Errorf("failed to insert reminder: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) ListReminders(ctx context.Context, userID string) ([]internal.Reminder, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, text, created_at FROM reminders WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		p.logger.Errorf("failed to query reminders: %v", err)
		return nil, err
	}
	defer rows.Close()

	out := []internal.Reminder{}
	for rows.Next() {
		var r internal.Reminder
		if err := rows.Scan(&r.ID, &r.Text, &r.CreatedAt); err != nil {
			p.logger.Errorf("failed to scan reminder: %v", err)
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *PostgresStorage) DeleteReminder(ctx context.Context, userID, id string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM reminders WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		p.logger.Errorf("failed to delete reminder: %v", err)
		return err
	}
	return nil
}

// --- UsageRepository ---
func (p *PostgresStorage) AddUsage(ctx context.Context, userID string, rec internal.UsageRecord) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO api_usage (id, user_id, tokens_used, created_at) VALUES ($1, $2, $3, $4)`,
		rec.ID, userID, rec.TokensUsed, rec.CreatedAt)
	if err != nil {
		p.logger.Errorf("failed to insert usage: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) ListUsageSince(ctx context.Context, userID string, since time.Time) ([]internal.UsageRecord, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, tokens_used, created_at FROM api_usage WHERE user_id = $1 AND created_at >= $2`, userID, since)
	if err != nil {
		p.logger.Errorf("failed to query usage: %v", err)
		return nil, err
	}
	defer rows.Close()

	out := []internal.UsageRecord{}
	for rows.Next() {
		var u internal.UsageRecord
		if err := rows.Scan(&u.ID, &u.TokensUsed, &u.CreatedAt); err != nil {
			p.logger.Errorf("failed to scan usage: %v", err)
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// --- Compile-time assertions ---
var _ Store = (*PostgresStorage)(nil)
