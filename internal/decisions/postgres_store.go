package decisions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists scheduling decisions in the relational database.
type PostgresStore struct {
	db db
}

// NewPostgresStore initializes a store backed by a pgx pool.
func NewPostgresStore(db db) *PostgresStore {
	if db == nil {
		panic("decisions: pgx pool required")
	}
	return &PostgresStore{db: db}
}

// Record inserts a decision row.
func (s *PostgresStore) Record(ctx context.Context, rec *Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	query := `
		INSERT INTO scheduling_decisions
			(id, patient_id, action, risk_level, no_show_probability, success, doctor_id, slot_start, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`
	if err := s.db.QueryRow(ctx, query,
		rec.ID,
		rec.PatientID,
		rec.Action,
		rec.RiskLevel,
		rec.NoShowProbability,
		rec.Success,
		nullable(rec.DoctorID),
		rec.SlotStart,
		nullable(rec.Error),
	).Scan(&rec.CreatedAt); err != nil {
		return fmt.Errorf("decisions: insert failed: %w", err)
	}
	return nil
}

// ListByPatient fetches the patient's decisions, most recent first.
func (s *PostgresStore) ListByPatient(ctx context.Context, patientID string, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, patient_id, action, risk_level, no_show_probability, success, doctor_id, slot_start, error, created_at
		FROM scheduling_decisions
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.db.Query(ctx, query, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("decisions: select failed: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		var (
			rec       Record
			doctorID  *string
			errText   *string
			slotStart *time.Time
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.PatientID,
			&rec.Action,
			&rec.RiskLevel,
			&rec.NoShowProbability,
			&rec.Success,
			&doctorID,
			&slotStart,
			&errText,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("decisions: scan failed: %w", err)
		}
		if doctorID != nil {
			rec.DoctorID = *doctorID
		}
		if errText != nil {
			rec.Error = *errText
		}
		rec.SlotStart = slotStart
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("decisions: rows failed: %w", err)
	}
	return out, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
