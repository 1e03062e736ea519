package datastore

import (
	"context"

	"cinepoint/internal/models"

	"github.com/uptrace/bun"
)

func CreateTablePointLedgerEntry(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.PointLedgerEntry)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.PointLedgerEntry)(nil)).Index("index_point_ledger_entry_user_id").IfNotExists().Column("user_id").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.PointLedgerEntry)(nil)).Index("index_point_ledger_entry_related_event_id").IfNotExists().Column("related_event_id").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func InsertLedgerEntry(ctx context.Context, db bun.IDB, entry *models.PointLedgerEntry) error {
	_, err := db.NewInsert().Model(entry).Exec(ctx)
	return err
}

func ListLedgerEntriesByUser(ctx context.Context, db bun.IDB, userID string, limit, offset int) ([]*models.PointLedgerEntry, error) {
	var entries []*models.PointLedgerEntry
	err := db.NewSelect().Model(&entries).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func SumLedgerDeltas(ctx context.Context, db bun.IDB, userID string) (int, error) {
	var sum int
	err := db.NewSelect().Model((*models.PointLedgerEntry)(nil)).
		ColumnExpr("coalesce(sum(delta), 0)").
		Where("user_id = ?", userID).
		Scan(ctx, &sum)
	if err != nil {
		return 0, err
	}

	return sum, nil
}
