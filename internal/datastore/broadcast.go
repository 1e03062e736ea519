package datastore

import (
	"context"

	"cinepoint/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableBroadcastMessage(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.BroadcastMessage)(nil)).IfNotExists().Exec(ctx)
	return err
}

func CreateBroadcast(ctx context.Context, db bun.IDB, message *models.BroadcastMessage) (*models.BroadcastMessage, error) {
	_, err := db.NewInsert().Model(message).Exec(ctx)
	if err != nil {
		return nil, err
	}

	return message, nil
}

func FindBroadcastByID(ctx context.Context, db bun.IDB, id string) (*models.BroadcastMessage, error) {
	var message models.BroadcastMessage
	err := db.NewSelect().Model(&message).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &message, nil
}
