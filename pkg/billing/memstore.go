package billing

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/BlackBlossom/kmj-billing-system-sub001/models"
)

// MemStore is an in-memory Store and CounterStore. It backs the unit tests and
// doubles as a throwaway backend for local experiments; it honors the same
// contracts as the Postgres store, including atomic counter reservation.
type MemStore struct {
	mu       sync.Mutex
	bills    map[int64]models.BillRecord
	counters map[string]int64
	nextID   uint
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		bills:    make(map[int64]models.BillRecord),
		counters: make(map[string]int64),
	}
}

// ReserveNext atomically increments the named counter and returns the new
// value. The first reservation on a fresh counter yields 1.
func (s *MemStore) ReserveNext(_ context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[name]++
	return s.counters[name], nil
}

// CurrentCount returns the counter's current value without consuming one.
func (s *MemStore) CurrentCount(name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[name]
}

func (s *MemStore) CreateBill(_ context.Context, rec *models.BillRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.bills[rec.ReceiptNo]; exists {
		return &StorageError{Err: fmt.Errorf("duplicate receipt number %d", rec.ReceiptNo)}
	}
	s.nextID++
	rec.ID = s.nextID
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	s.bills[rec.ReceiptNo] = *rec
	return nil
}

func (s *MemStore) GetBill(_ context.Context, receiptNo int64) (*models.BillRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.bills[receiptNo]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (s *MemStore) ListBills(_ context.Context, f Filter, offset, limit int) ([]models.BillRecord, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []models.BillRecord
	for _, rec := range s.bills {
		if matchesFilter(&rec, f) {
			matched = append(matched, rec)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ReceiptNo > matched[j].ReceiptNo })
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (s *MemStore) Stats(_ context.Context, f Filter, now time.Time) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	var st Stats
	for _, rec := range s.bills {
		if !matchesFilter(&rec, f) {
			continue
		}
		st.TotalBills++
		if rec.Status == StatusCancelled {
			continue
		}
		st.TotalRevenue += rec.Amount
		if !rec.PaymentDate.Before(startOfDay) {
			st.TodayAmount += rec.Amount
		}
		if !rec.PaymentDate.Before(startOfMonth) {
			st.MonthAmount += rec.Amount
		}
	}
	return st, nil
}

func (s *MemStore) UpdateStatus(_ context.Context, receiptNo int64, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.bills[receiptNo]
	if !ok {
		return ErrNotFound
	}
	rec.Status = status
	rec.UpdatedAt = time.Now()
	s.bills[receiptNo] = rec
	return nil
}

func (s *MemStore) DeleteBill(_ context.Context, receiptNo int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bills[receiptNo]; !ok {
		return ErrNotFound
	}
	delete(s.bills, receiptNo)
	return nil
}

func matchesFilter(rec *models.BillRecord, f Filter) bool {
	if f.Category != "" && rec.Category != f.Category {
		return false
	}
	if f.AccountType != "" && rec.AccountType != f.AccountType {
		return false
	}
	if f.PaymentMethod != "" && rec.PaymentMethod != f.PaymentMethod {
		return false
	}
	if f.Status != "" && rec.Status != f.Status {
		return false
	}
	if f.MemberID != "" && rec.MemberID != f.MemberID {
		return false
	}
	if f.From != nil && rec.PaymentDate.Before(*f.From) {
		return false
	}
	if f.To != nil && rec.PaymentDate.After(*f.To) {
		return false
	}
	if f.MinAmount != nil && rec.Amount < *f.MinAmount {
		return false
	}
	if f.MaxAmount != nil && rec.Amount > *f.MaxAmount {
		return false
	}
	return true
}
