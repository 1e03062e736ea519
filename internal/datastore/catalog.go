package datastore

import (
	"context"

	"cinepoint/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableViewingHistory(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.ViewingHistory)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.ViewingHistory)(nil)).Index("index_viewing_history_user_id").IfNotExists().Column("user_id").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func CreateTableReview(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Review)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Review)(nil)).Index("index_review_user_id").IfNotExists().Column("user_id").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func CreateViewingHistory(ctx context.Context, db bun.IDB, viewing *models.ViewingHistory) (*models.ViewingHistory, error) {
	_, err := db.NewInsert().Model(viewing).Exec(ctx)
	if err != nil {
		return nil, err
	}

	return viewing, nil
}

func CreateReview(ctx context.Context, db bun.IDB, review *models.Review) (*models.Review, error) {
	_, err := db.NewInsert().Model(review).Exec(ctx)
	if err != nil {
		return nil, err
	}

	return review, nil
}
