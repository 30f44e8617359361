package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vogiaan1904/eventhub-seatsync/internal/models"
	"github.com/vogiaan1904/eventhub-seatsync/pkg/logger"
)

type ActivityLogRepository interface {
	Create(ctx context.Context, al *models.ActivityLog) error
}

type pgActivityLogRepository struct {
	db *pgxpool.Pool
	l  logger.Logger
}

func NewActivityLogRepository(db *pgxpool.Pool, l logger.Logger) ActivityLogRepository {
	return &pgActivityLogRepository{
		db: db,
		l:  l,
	}
}

func (r *pgActivityLogRepository) Create(ctx context.Context, al *models.ActivityLog) error {
	if al.ID == "" {
		al.ID = uuid.New().String()
	}
	if al.CreatedAt.IsZero() {
		al.CreatedAt = time.Now().UTC()
	}

	meta, err := json.Marshal(al.Metadata)
	if err != nil {
		r.l.Errorf(ctx, "pgActivityLogRepository.Create: %v", err)
		return err
	}

	var userID *string
	if al.UserID != "" {
		userID = &al.UserID
	}

	if _, err := r.db.Exec(ctx,
		`INSERT INTO activity_logs (id, activity_type, user_id, details, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		al.ID, al.ActivityType, userID, al.Details, meta, al.CreatedAt,
	); err != nil {
		r.l.Errorf(ctx, "pgActivityLogRepository.Create: %v", err)
		return err
	}

	return nil
}
