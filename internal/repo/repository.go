package repo

import (
	"context"

	"github.com/hamed0406/alertrelay/internal/domain"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// AlertLog stores one record per dispatch attempt.
type AlertLog interface {
	Append(ctx context.Context, r *domain.AlertRecord) error
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]domain.AlertRecord, error)
}

// ClampLimit maps a caller-supplied limit into [1, MaxHistoryLimit].
func ClampLimit(n int) int {
	if n <= 0 {
		return DefaultHistoryLimit
	}
	if n > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return n
}
