package datastore

import (
	"context"
	"time"

	"cinepoint/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableUserAccount(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.UserAccount)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.UserAccount)(nil)).Index("index_user_account_device_token").IfNotExists().Column("device_token").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.UserAccount)(nil)).Index("index_user_account_auth_provider").IfNotExists().Column("auth_provider").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func FindUserByID(ctx context.Context, db bun.IDB, userID string) (*models.UserAccount, error) {
	var user models.UserAccount
	err := db.NewSelect().Model(&user).Where("id = ?", userID).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// InsertUserIfAbsent inserts the account and reports whether a new row was
// created. A concurrent exchange for the same external identity loses the
// insert and falls through to the merge path.
func InsertUserIfAbsent(ctx context.Context, db bun.IDB, user *models.UserAccount) (bool, error) {
	res, err := db.NewInsert().Model(user).On("CONFLICT (id) DO NOTHING").Exec(ctx)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// MergeUserProfile updates identity fields without ever overwriting a present
// value with a blank one from this exchange.
func MergeUserProfile(ctx context.Context, db bun.IDB, user *models.UserAccount) error {
	now := time.Now()
	_, err := db.NewUpdate().Model((*models.UserAccount)(nil)).
		Set("display_name = coalesce(nullif(?, ''), display_name)", user.DisplayName).
		Set("email = coalesce(?, email)", user.Email).
		Set("avatar_url = coalesce(?, avatar_url)", user.AvatarURL).
		Set("last_login_at = ?", now).
		Set("updated_at = ?", now).
		Where("id = ?", user.ID).
		Exec(ctx)
	return err
}

func StampLastLogin(ctx context.Context, db bun.IDB, userID string) error {
	now := time.Now()
	_, err := db.NewUpdate().Model((*models.UserAccount)(nil)).
		Set("last_login_at = ?", now).
		Set("updated_at = ?", now).
		Where("id = ?", userID).
		Exec(ctx)
	return err
}

// SetDeviceToken reports whether the user row existed.
func SetDeviceToken(ctx context.Context, db bun.IDB, userID string, token *string) (bool, error) {
	res, err := db.NewUpdate().Model((*models.UserAccount)(nil)).
		Set("device_token = ?", token).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func ListDeviceTokens(ctx context.Context, db bun.IDB) ([]string, error) {
	var tokens []string
	err := db.NewSelect().Model((*models.UserAccount)(nil)).
		Column("device_token").
		Where("device_token IS NOT NULL").
		Where("device_token != ''").
		Scan(ctx, &tokens)
	if err != nil {
		return nil, err
	}

	return tokens, nil
}

// AdjustBalance applies a guarded atomic increment and reports whether a row
// matched. With allowNegative false the predicate rejects debits that would
// drive the balance below zero without racing concurrent updates.
func AdjustBalance(ctx context.Context, db bun.IDB, userID string, delta int, allowNegative bool) (bool, error) {
	q := db.NewUpdate().Model((*models.UserAccount)(nil)).
		Set("points_balance = points_balance + ?", delta).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", userID)
	if !allowNegative {
		q = q.Where("points_balance + ? >= 0", delta)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func GetBalance(ctx context.Context, db bun.IDB, userID string) (int, error) {
	var balance int
	err := db.NewSelect().Model((*models.UserAccount)(nil)).
		Column("points_balance").
		Where("id = ?", userID).
		Scan(ctx, &balance)
	if err != nil {
		return 0, err
	}

	return balance, nil
}

func SetLastCheckInDate(ctx context.Context, db bun.IDB, userID string, day string) error {
	_, err := db.NewUpdate().Model((*models.UserAccount)(nil)).
		Set("last_check_in_date = ?", day).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", userID).
		Exec(ctx)
	return err
}

func CheckUserExists(ctx context.Context, db bun.IDB, userID string) (bool, error) {
	return db.NewSelect().Model((*models.UserAccount)(nil)).Where("id = ?", userID).Exists(ctx)
}
