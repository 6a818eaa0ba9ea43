package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/alertrelay/internal/domain"
	"github.com/hamed0406/alertrelay/internal/repo"
)

var _ repo.AlertLog = (*Store)(nil)

const Schema = `
CREATE TABLE IF NOT EXISTS alerts (
  id           TEXT PRIMARY KEY,
  latitude     TEXT NOT NULL,
  longitude    TEXT NOT NULL,
  success      BOOLEAN NOT NULL,
  error        TEXT NOT NULL DEFAULT '',
  failed_stage TEXT NOT NULL DEFAULT '',
  clip_format  TEXT NOT NULL DEFAULT '',
  media_id     TEXT NOT NULL DEFAULT '',
  created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_alerts_created_at ON alerts (created_at DESC);
`

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the alerts table when it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, r *domain.AlertRecord) error {
	if r.ID == "" {
		r.ID = domain.AlertID(uuid.NewString())
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO alerts
		   (id, latitude, longitude, success, error, failed_stage, clip_format, media_id, created_at)
		 VALUES
		   ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		string(r.ID), r.Latitude, r.Longitude, r.Success, r.Error,
		r.FailedStage, string(r.ClipFormat), r.MediaID, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (s *Store) Recent(ctx context.Context, limit int) ([]domain.AlertRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, latitude, longitude, success, error, failed_stage, clip_format, media_id, created_at
		   FROM alerts
		  ORDER BY created_at DESC, id DESC
		  LIMIT $1`, repo.ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	var out []domain.AlertRecord
	for rows.Next() {
		var (
			r      domain.AlertRecord
			id     string
			format string
		)
		if err := rows.Scan(&id, &r.Latitude, &r.Longitude, &r.Success, &r.Error,
			&r.FailedStage, &format, &r.MediaID, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		r.ID = domain.AlertID(id)
		r.ClipFormat = domain.ClipFormat(format)
		out = append(out, r)
	}
	return out, rows.Err()
}
