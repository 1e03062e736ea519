package datastore

import (
	"context"

	"cinepoint/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableCheckIn(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.CheckInRecord)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.CheckInRecord)(nil)).Index("index_check_in_user_id_day").Unique().IfNotExists().Column("user_id", "day").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

// InsertCheckIn reports whether the record was created. A false result means
// the user already checked in that day; concurrent calls resolve to exactly
// one true.
func InsertCheckIn(ctx context.Context, db bun.IDB, userID string, day string) (bool, error) {
	record := &models.CheckInRecord{UserID: userID, Day: day}
	res, err := db.NewInsert().Model(record).On("CONFLICT (user_id, day) DO NOTHING").Exec(ctx)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
