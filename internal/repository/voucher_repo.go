package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"acopio/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const contadorVoucherID = 1

// VoucherRepository hands out compra voucher numbers from the single-row
// contador_voucher table.
type VoucherRepository interface {
	// Next must run inside the transaction that inserts the compra: the
	// increment and the insert commit or roll back together.
	Next(ctx context.Context, tx *gorm.DB) (int64, error)
	// Sincronizar moves the counter past the highest stored voucher when it
	// fell behind (restored backup, recreated counter row).
	Sincronizar(ctx context.Context, tx *gorm.DB) error
}

type voucherRepo struct{ db *gorm.DB }

func NewVoucherRepository(db *gorm.DB) VoucherRepository { return &voucherRepo{db: db} }

func (r *voucherRepo) Next(ctx context.Context, tx *gorm.DB) (int64, error) {
	if tx == nil {
		return 0, errors.New("voucher: Next requires a transaction")
	}
	q := tx.WithContext(ctx)

	// The UPDATE takes the row lock before the value is read back, so two
	// concurrent transactions can never observe the same number.
	res := q.Model(&model.ContadorVoucher{}).
		Where("id = ?", contadorVoucherID).
		Update("siguiente", gorm.Expr("siguiente + 1"))
	if res.Error != nil {
		return 0, fmt.Errorf("voucher: increment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Counter row missing (fresh SQLite install): first number is 1.
		c := model.ContadorVoucher{ID: contadorVoucherID, Siguiente: 2}
		if err := q.Create(&c).Error; err != nil {
			return 0, fmt.Errorf("voucher: init counter: %w", err)
		}
		return 1, nil
	}

	var c model.ContadorVoucher
	if err := q.Where("id = ?", contadorVoucherID).First(&c).Error; err != nil {
		return 0, fmt.Errorf("voucher: read counter: %w", err)
	}
	return c.Siguiente - 1, nil
}

func (r *voucherRepo) Sincronizar(ctx context.Context, tx *gorm.DB) error {
	if tx == nil {
		return errors.New("voucher: Sincronizar requires a transaction")
	}
	q := tx.WithContext(ctx)

	var maximo sql.NullInt64
	if err := q.Model(&model.Compra{}).
		Select("MAX(CAST(numero_voucher AS BIGINT))").
		Row().Scan(&maximo); err != nil {
		return fmt.Errorf("voucher: max stored: %w", err)
	}
	siguiente := maximo.Int64 + 1

	res := q.Model(&model.ContadorVoucher{}).
		Where("id = ? AND siguiente < ?", contadorVoucherID, siguiente).
		Update("siguiente", siguiente)
	if res.Error != nil {
		return fmt.Errorf("voucher: resync: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Either already ahead or the row is missing; only the latter inserts.
		c := model.ContadorVoucher{ID: contadorVoucherID, Siguiente: siguiente}
		if err := q.Clauses(clause.OnConflict{DoNothing: true}).Create(&c).Error; err != nil {
			return fmt.Errorf("voucher: init counter: %w", err)
		}
	}
	return nil
}
