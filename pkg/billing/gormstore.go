package billing

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/BlackBlossom/kmj-billing-system-sub001/models"
)

// GormStore is the Postgres-backed Store and CounterStore.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open gorm handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// ReserveNext increments the named counter in a single statement. The upsert
// both creates the counter on first use and increments it atomically, so two
// concurrent reservations can never read the same value (no read-then-write
// window).
func (s *GormStore) ReserveNext(ctx context.Context, name string) (int64, error) {
	var next int64
	err := s.db.WithContext(ctx).Raw(`
		INSERT INTO counters (name, count, last_updated)
		VALUES (?, 1, now())
		ON CONFLICT (name) DO UPDATE
		SET count = counters.count + 1, last_updated = now()
		RETURNING count`, name).Scan(&next).Error
	if err != nil {
		return 0, &StorageError{Err: err}
	}
	return next, nil
}

func (s *GormStore) CreateBill(ctx context.Context, rec *models.BillRecord) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return &StorageError{Err: err}
	}
	return nil
}

func (s *GormStore) GetBill(ctx context.Context, receiptNo int64) (*models.BillRecord, error) {
	var rec models.BillRecord
	err := s.db.WithContext(ctx).Where("receipt_no = ?", receiptNo).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, &StorageError{Err: err}
	}
	return &rec, nil
}

func (s *GormStore) ListBills(ctx context.Context, f Filter, offset, limit int) ([]models.BillRecord, int64, error) {
	q := s.applyFilter(s.db.WithContext(ctx).Model(&models.BillRecord{}), f)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, &StorageError{Err: err}
	}
	var bills []models.BillRecord
	err := q.Order("receipt_no desc").Offset(offset).Limit(limit).Find(&bills).Error
	if err != nil {
		return nil, 0, &StorageError{Err: err}
	}
	return bills, total, nil
}

func (s *GormStore) Stats(ctx context.Context, f Filter, now time.Time) (Stats, error) {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	var st Stats
	q := s.applyFilter(s.db.WithContext(ctx).Model(&models.BillRecord{}), f)
	err := q.Select(`
		count(*) as total_bills,
		coalesce(sum(amount) filter (where status <> 'Cancelled'), 0) as total_revenue,
		coalesce(sum(amount) filter (where status <> 'Cancelled' and payment_date >= ?), 0) as today_amount,
		coalesce(sum(amount) filter (where status <> 'Cancelled' and payment_date >= ?), 0) as month_amount`,
		startOfDay, startOfMonth).Scan(&st).Error
	if err != nil {
		return Stats{}, &StorageError{Err: err}
	}
	return st, nil
}

func (s *GormStore) UpdateStatus(ctx context.Context, receiptNo int64, status string) error {
	res := s.db.WithContext(ctx).Model(&models.BillRecord{}).
		Where("receipt_no = ?", receiptNo).Update("status", status)
	if res.Error != nil {
		return &StorageError{Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteBill(ctx context.Context, receiptNo int64) error {
	res := s.db.WithContext(ctx).Where("receipt_no = ?", receiptNo).Delete(&models.BillRecord{})
	if res.Error != nil {
		return &StorageError{Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) applyFilter(q *gorm.DB, f Filter) *gorm.DB {
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.AccountType != "" {
		q = q.Where("account_type = ?", f.AccountType)
	}
	if f.PaymentMethod != "" {
		q = q.Where("payment_method = ?", f.PaymentMethod)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.MemberID != "" {
		q = q.Where("member_id = ?", f.MemberID)
	}
	if f.From != nil {
		q = q.Where("payment_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("payment_date <= ?", *f.To)
	}
	if f.MinAmount != nil {
		q = q.Where("amount >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		q = q.Where("amount <= ?", *f.MaxAmount)
	}
	return q
}
