package billing

import (
	"context"
	"log"
	"time"

	"github.com/BlackBlossom/kmj-billing-system-sub001/models"
	"github.com/BlackBlossom/kmj-billing-system-sub001/pkg/numwords"
)

// ReceiptCounter is the sequence name all receipt numbers are drawn from.
const ReceiptCounter = "receipts"

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// Service orchestrates bill creation, querying and lifecycle transitions over
// a Store and CounterStore.
type Service struct {
	store   Store
	counter CounterStore
}

// NewService wires a billing service over the given stores.
func NewService(store Store, counter CounterStore) *Service {
	return &Service{store: store, counter: counter}
}

// CreateBill validates the draft, reserves a receipt number, derives the
// rendered fields and persists the record. A draft that fails validation never
// consumes a receipt number. If the persist fails after reservation the number
// is gone for good: the sequence keeps a gap rather than risking a reused
// receipt number.
func (s *Service) CreateBill(ctx context.Context, d *Draft) (*models.BillRecord, error) {
	if err := Validate(d); err != nil {
		return nil, err
	}
	if d.PaymentDate.IsZero() {
		d.PaymentDate = time.Now()
	}
	// pure, so safe to render before the reservation
	words, err := numwords.ToWords(d.Amount)
	if err != nil {
		return nil, ErrInvalidAmount
	}

	no, err := s.counter.ReserveNext(ctx, ReceiptCounter)
	if err != nil {
		return nil, err
	}

	rec := &models.BillRecord{
		ReceiptNo:     no,
		MemberID:      d.MemberID,
		MemberName:    d.MemberName,
		MemberAddress: d.MemberAddress,
		Amount:        d.Amount,
		AmountInWords: words,
		Category:      d.Category,
		AccountType:   d.AccountType,
		Status:        StatusPaid,
		PaymentMethod: d.PaymentMethod,
		PaymentDate:   d.PaymentDate,
		Year:          d.PaymentDate.Year(),
		Month:         int(d.PaymentDate.Month()),
		FinancialYear: FinancialYear(d.PaymentDate),
		Notes:         d.Notes,
	}
	if err := s.store.CreateBill(ctx, rec); err != nil {
		gap := &ReceiptGapError{ReceiptNo: no, Err: err}
		log.Printf("WARN %v", gap)
		return nil, gap
	}
	return rec, nil
}

// GetBill looks a bill up by receipt number.
func (s *Service) GetBill(ctx context.Context, receiptNo int64) (*models.BillRecord, error) {
	return s.store.GetBill(ctx, receiptNo)
}

// ListBills returns the page of bills matching f. Page numbers start at 1;
// limit is clamped to [1, 100] with a default of 20.
func (s *Service) ListBills(ctx context.Context, f Filter, page, limit int) ([]models.BillRecord, Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	bills, total, err := s.store.ListBills(ctx, f, (page-1)*limit, limit)
	if err != nil {
		return nil, Pagination{}, err
	}
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return bills, Pagination{Page: page, Limit: limit, TotalBills: total, TotalPages: pages}, nil
}

// GetStats aggregates bills matching f. Zero matches yield zero stats.
func (s *Service) GetStats(ctx context.Context, f Filter) (Stats, error) {
	return s.store.Stats(ctx, f, time.Now())
}

// CancelBill transitions a Paid or Pending bill to Cancelled. The receipt
// number and amount stay untouched; cancelled numbers are never reissued.
func (s *Service) CancelBill(ctx context.Context, receiptNo int64) (*models.BillRecord, error) {
	rec, err := s.store.GetBill(ctx, receiptNo)
	if err != nil {
		return nil, err
	}
	if rec.Status == StatusCancelled {
		return nil, ErrNotCancellable
	}
	if err := s.store.UpdateStatus(ctx, receiptNo, StatusCancelled); err != nil {
		return nil, err
	}
	rec.Status = StatusCancelled
	return rec, nil
}

// DeleteBill removes a bill outright. Always logged with the receipt number;
// the counter is untouched so the number stays consumed.
func (s *Service) DeleteBill(ctx context.Context, receiptNo int64) error {
	if err := s.store.DeleteBill(ctx, receiptNo); err != nil {
		return err
	}
	log.Printf("WARN hard-deleted bill receipt=%d", receiptNo)
	return nil
}
