package audit

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/uptrace/bun"

	"useradmin/infrastructure/sqlite"
	"useradmin/models"
)

// Service records backend mutations made through the console. The backend
// keeps its own history; this trail answers "who did what from here".
type Service struct {
	db *sqlite.DB
}

func NewService(db *sqlite.DB) *Service {
	return &Service{db: db}
}

// Record writes one audit row. Failures are logged, never propagated: an
// audit miss must not fail the operation it describes.
func (s *Service) Record(ctx context.Context, actor, action, entityType, entityID string, before, after any) {
	if s == nil || s.db == nil {
		return
	}
	beforeJSON, err := marshal(before)
	if err != nil {
		slog.Error("audit: marshal before state", slog.Any("err", err))
		return
	}
	afterJSON, err := marshal(after)
	if err != nil {
		slog.Error("audit: marshal after state", slog.Any("err", err))
		return
	}
	row := &models.AuditLog{
		Actor:      actor,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		BeforeJSON: beforeJSON,
		AfterJSON:  afterJSON,
	}
	err = s.db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(row).Exec(ctx)
		return err
	})
	if err != nil {
		slog.Error("audit: write row", slog.String("action", action), slog.Any("err", err))
	}
}

func marshal(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
