package datastore

import (
	"context"

	"cinepoint/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableProcessedEvent(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.ProcessedEvent)(nil)).IfNotExists().Exec(ctx)
	return err
}

// MarkEventProcessed reports whether this call claimed the event. A false
// result means the event id was already consumed and the caller must treat
// the delivery as a no-op.
func MarkEventProcessed(ctx context.Context, db bun.IDB, eventID string, eventType string) (bool, error) {
	marker := &models.ProcessedEvent{EventID: eventID, EventType: eventType}
	res, err := db.NewInsert().Model(marker).On("CONFLICT (event_id) DO NOTHING").Exec(ctx)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
