package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"doorcheck/entity"
	"doorcheck/internal/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres keeps registrations in PostgreSQL through a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, conf *config.Config) (*Postgres, error) {
	return OpenPostgres(ctx, conf.Postgres.Url)
}

func OpenPostgres(ctx context.Context, url string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	p := &Postgres{pool: pool}
	if err = p.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			start_time TIMESTAMPTZ NULL
		)`,
		`CREATE TABLE IF NOT EXISTS holders (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			country TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS registrations (
			id TEXT PRIMARY KEY,
			event_id TEXT NOT NULL,
			holder_id TEXT NOT NULL,
			ticket_code TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'registered',
			UNIQUE (event_id, ticket_code)
		)`,
		`ALTER TABLE registrations ADD COLUMN IF NOT EXISTS checked_in_at TIMESTAMPTZ NULL`,
		`ALTER TABLE registrations ADD COLUMN IF NOT EXISTS checked_in_by TEXT NULL`,
	}
	for _, stmt := range statements {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres schema: %w", err)
		}
	}
	return nil
}

func (p *Postgres) FindByCode(ctx context.Context, eventId, code string) (*entity.RegistrationView, error) {
	query := `SELECT ` + viewColumns + `
		FROM registrations r
		LEFT JOIN holders h ON h.id = r.holder_id
		LEFT JOIN events e ON e.id = r.event_id
		WHERE r.event_id = $1 AND r.ticket_code = $2`
	view, err := scanView(p.pool.QueryRow(ctx, query, eventId, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrNotFound
		}
		return nil, classify("postgres find by code", err)
	}
	return view, nil
}

func (p *Postgres) MarkAttended(ctx context.Context, registrationId, operatorId string, at time.Time) (*entity.CommitResult, error) {
	at = storedTime(at)
	tag, err := p.pool.Exec(ctx, `
		UPDATE registrations
		SET status = 'attended', checked_in_at = $1, checked_in_by = $2
		WHERE id = $3 AND checked_in_at IS NULL`,
		at, operatorId, registrationId,
	)
	if err != nil {
		return nil, classify("postgres mark attended", err)
	}
	if tag.RowsAffected() == 1 {
		return committed(registrationId, operatorId, at), nil
	}

	var checkedInAt sql.NullTime
	var checkedInBy sql.NullString
	err = p.pool.QueryRow(ctx,
		`SELECT checked_in_at, checked_in_by FROM registrations WHERE id = $1`,
		registrationId,
	).Scan(&checkedInAt, &checkedInBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.CommitResult{Outcome: entity.OutcomeNotFound, RegistrationId: registrationId}, nil
		}
		return nil, classify("postgres select check-in", err)
	}
	return alreadyCheckedIn(registrationId, checkedInAt, checkedInBy), nil
}

func (p *Postgres) EventRegistrations(ctx context.Context, eventId string) ([]*entity.RegistrationView, error) {
	query := `SELECT ` + viewColumns + `
		FROM registrations r
		LEFT JOIN holders h ON h.id = r.holder_id
		LEFT JOIN events e ON e.id = r.event_id
		WHERE r.event_id = $1
		ORDER BY r.ticket_code`
	rows, err := p.pool.Query(ctx, query, eventId)
	if err != nil {
		return nil, classify("postgres event registrations", err)
	}
	defer rows.Close()

	views := make([]*entity.RegistrationView, 0)
	for rows.Next() {
		view, err := scanView(rows)
		if err != nil {
			return nil, classify("postgres scan registration", err)
		}
		views = append(views, view)
	}
	if err = rows.Err(); err != nil {
		return nil, classify("postgres event registrations", err)
	}
	return views, nil
}
