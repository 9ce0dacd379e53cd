package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS appointments (
	id             BIGSERIAL PRIMARY KEY,
	subject        TEXT NOT NULL,
	scheduled_time TIMESTAMPTZ NOT NULL,
	contact_email  TEXT,
	contact_phone  TEXT,
	email_notif    BOOLEAN NOT NULL DEFAULT FALSE,
	sms_notif      BOOLEAN NOT NULL DEFAULT FALSE,
	status         TEXT NOT NULL DEFAULT 'pending',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_appointments_status_time ON appointments (status, scheduled_time);
`

const appointmentColumns = `id, subject, scheduled_time, COALESCE(contact_email, ''), COALESCE(contact_phone, ''),
	email_notif, sms_notif, status, created_at`

// PostgresRepository stores appointments in a single Postgres table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates the appointments table if it is absent.
func NewPostgresRepository(ctx context.Context, pool *pgxpool.Pool) (*PostgresRepository, error) {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("apply appointments schema: %w", err)
	}
	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Create(ctx context.Context, in NewAppointment) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO appointments (subject, scheduled_time, contact_email, contact_phone, email_notif, sms_notif)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		in.Subject, in.ScheduledTime, nullIfEmpty(in.Contact.Email), nullIfEmpty(in.Contact.Phone),
		in.Contact.EmailEnabled, in.Contact.SMSEnabled,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert appointment: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) ListActive(ctx context.Context, filter ContactFilter) ([]Appointment, error) {
	q := `SELECT ` + appointmentColumns + ` FROM appointments WHERE status != 'cancelled'`
	var args []any
	if !filter.Empty() {
		q += ` AND (contact_email = $1 OR contact_phone = $2)`
		args = append(args, nullIfEmpty(filter.Email), nullIfEmpty(filter.Phone))
	}
	q += ` ORDER BY scheduled_time, id`
	return r.query(ctx, q, args...)
}

func (r *PostgresRepository) ListPending(ctx context.Context) ([]Appointment, error) {
	return r.query(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE status = 'pending'`)
}

func (r *PostgresRepository) MarkSent(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE appointments SET status = 'sent' WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return false, fmt.Errorf("mark appointment %d sent: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresRepository) Cancel(ctx context.Context, id int64) (*Appointment, error) {
	// prev holds the locked row as it was, so the returned record carries the
	// pre-cancellation status.
	row := r.pool.QueryRow(ctx,
		`UPDATE appointments a SET status = 'cancelled'
		 FROM (SELECT id, status FROM appointments WHERE id = $1 FOR UPDATE) prev
		 WHERE a.id = prev.id
		 RETURNING a.id, a.subject, a.scheduled_time, COALESCE(a.contact_email, ''), COALESCE(a.contact_phone, ''),
		           a.email_notif, a.sms_notif, prev.status, a.created_at`, id)
	a, err := scanAppointment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cancel appointment %d: %w", id, err)
	}
	return a, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int64, subject string, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE appointments SET subject = $1, scheduled_time = $2, status = 'pending' WHERE id = $3`,
		subject, at, id)
	if err != nil {
		return fmt.Errorf("update appointment %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *PostgresRepository) query(ctx context.Context, q string, args ...any) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query appointments: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var (
		a      Appointment
		status string
	)
	err := row.Scan(&a.ID, &a.Subject, &a.ScheduledTime, &a.Contact.Email, &a.Contact.Phone,
		&a.Contact.EmailEnabled, &a.Contact.SMSEnabled, &status, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.Status = Status(status)
	return &a, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
