package billing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlackBlossom/kmj-billing-system-sub001/models"
)

func newTestService() (*Service, *MemStore) {
	store := NewMemStore()
	return NewService(store, store), store
}

func TestCreateBillAssignsSequentialReceiptsAndDerivedFields(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	d := validDraft()
	d.Amount = 201
	d.PaymentDate = time.Date(2024, 2, 15, 10, 0, 0, 0, time.UTC)

	rec, err := svc.CreateBill(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.ReceiptNo)
	assert.Equal(t, "Two Hundred and One Only", rec.AmountInWords)
	assert.Equal(t, "2023-24", rec.FinancialYear)
	assert.Equal(t, 2024, rec.Year)
	assert.Equal(t, 2, rec.Month)
	assert.Equal(t, StatusPaid, rec.Status)

	rec2, err := svc.CreateBill(ctx, validDraft())
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec2.ReceiptNo)
}

func TestCreateBillRejectionLeavesCounterUntouched(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	d := validDraft()
	d.AccountType = "Annual Fee" // Madrassa type on a Jamaath bill
	_, err := svc.CreateBill(ctx, d)
	assert.ErrorIs(t, err, ErrInvalidAccountType)
	assert.Equal(t, int64(0), store.CurrentCount(ReceiptCounter))

	// a later valid bill still gets receipt number 1
	rec, err := svc.CreateBill(ctx, validDraft())
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.ReceiptNo)
}

func TestCreateBillConcurrentReceiptsAreUnique(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	const n = 100
	var wg sync.WaitGroup
	receipts := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := svc.CreateBill(ctx, validDraft())
			if err != nil {
				t.Errorf("create failed: %v", err)
				return
			}
			receipts <- rec.ReceiptNo
		}()
	}
	wg.Wait()
	close(receipts)

	seen := make(map[int64]bool, n)
	for no := range receipts {
		assert.False(t, seen[no], "duplicate receipt %d", no)
		seen[no] = true
	}
	assert.Len(t, seen, n)
	assert.Equal(t, int64(n), store.CurrentCount(ReceiptCounter))
}

// failingStore wraps a MemStore and fails every persist.
type failingStore struct {
	*MemStore
}

func (f *failingStore) CreateBill(context.Context, *models.BillRecord) error {
	return &StorageError{Err: fmt.Errorf("disk on fire")}
}

func TestCreateBillPersistFailureConsumesNumber(t *testing.T) {
	mem := NewMemStore()
	svc := NewService(&failingStore{mem}, mem)
	ctx := context.Background()

	_, err := svc.CreateBill(ctx, validDraft())
	var gap *ReceiptGapError
	require.ErrorAs(t, err, &gap)
	assert.Equal(t, int64(1), gap.ReceiptNo)

	// the failed number is consumed: the next bill skips it
	svc2 := NewService(mem, mem)
	rec, err := svc2.CreateBill(ctx, validDraft())
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.ReceiptNo)
}

func TestGetStatsEmptyStoreReturnsZeros(t *testing.T) {
	svc, _ := newTestService()
	st, err := svc.GetStats(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Equal(t, Stats{}, st)
}

func TestGetStatsAggregatesAndExcludesCancelled(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	now := time.Now()
	for _, amt := range []int64{100, 250, 400} {
		d := validDraft()
		d.Amount = amt
		d.PaymentDate = now
		_, err := svc.CreateBill(ctx, d)
		require.NoError(t, err)
	}
	// an older bill outside today and this month
	old := validDraft()
	old.Amount = 1000
	old.PaymentDate = now.AddDate(0, -2, 0)
	_, err := svc.CreateBill(ctx, old)
	require.NoError(t, err)

	// cancel the 400 bill; it must stop counting toward revenue
	_, err = svc.CancelBill(ctx, 3)
	require.NoError(t, err)

	st, err := svc.GetStats(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), st.TotalBills)
	assert.Equal(t, int64(1350), st.TotalRevenue)
	assert.Equal(t, int64(350), st.TodayAmount)
	assert.Equal(t, int64(350), st.MonthAmount)
}

func TestListBillsFiltersAndPaginates(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		d := validDraft()
		d.Amount = int64(100 + i)
		if i%2 == 0 {
			d.PaymentMethod = "UPI"
		}
		_, err := svc.CreateBill(ctx, d)
		require.NoError(t, err)
	}

	bills, pg, err := svc.ListBills(ctx, Filter{}, 1, 10)
	require.NoError(t, err)
	assert.Len(t, bills, 10)
	assert.Equal(t, int64(25), pg.TotalBills)
	assert.Equal(t, int64(3), pg.TotalPages)
	// newest first
	assert.Equal(t, int64(25), bills[0].ReceiptNo)

	bills, pg, err = svc.ListBills(ctx, Filter{}, 3, 10)
	require.NoError(t, err)
	assert.Len(t, bills, 5)
	assert.Equal(t, 3, pg.Page)

	upi, pg, err := svc.ListBills(ctx, Filter{PaymentMethod: "UPI"}, 1, 50)
	require.NoError(t, err)
	assert.Len(t, upi, 13)
	assert.Equal(t, int64(13), pg.TotalBills)

	min := int64(120)
	both, _, err := svc.ListBills(ctx, Filter{PaymentMethod: "UPI", MinAmount: &min}, 1, 50)
	require.NoError(t, err)
	for _, b := range both {
		assert.Equal(t, "UPI", b.PaymentMethod)
		assert.GreaterOrEqual(t, b.Amount, min)
	}
}

func TestCancelBillTransitions(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	rec, err := svc.CreateBill(ctx, validDraft())
	require.NoError(t, err)

	cancelled, err := svc.CancelBill(ctx, rec.ReceiptNo)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Equal(t, rec.ReceiptNo, cancelled.ReceiptNo)
	assert.Equal(t, rec.Amount, cancelled.Amount)

	_, err = svc.CancelBill(ctx, rec.ReceiptNo)
	assert.ErrorIs(t, err, ErrNotCancellable)

	_, err = svc.CancelBill(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteBillKeepsCounter(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	rec, err := svc.CreateBill(ctx, validDraft())
	require.NoError(t, err)
	require.NoError(t, svc.DeleteBill(ctx, rec.ReceiptNo))

	_, err = svc.GetBill(ctx, rec.ReceiptNo)
	assert.ErrorIs(t, err, ErrNotFound)

	// number stays consumed
	next, err := svc.CreateBill(ctx, validDraft())
	require.NoError(t, err)
	assert.Equal(t, rec.ReceiptNo+1, next.ReceiptNo)
	assert.Equal(t, int64(2), store.CurrentCount(ReceiptCounter))
}

func TestReserveNextConcurrentNoDuplicates(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	const n = 100
	var mu sync.Mutex
	seen := make(map[int64]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			no, err := store.ReserveNext(ctx, ReceiptCounter)
			if err != nil {
				t.Errorf("reserve failed: %v", err)
				return
			}
			mu.Lock()
			seen[no]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
	for no, count := range seen {
		assert.Equal(t, 1, count, "receipt %d issued %d times", no, count)
	}
}

func TestIsValidationErrorClassification(t *testing.T) {
	assert.True(t, IsValidationError(ErrInvalidAccountType))
	assert.True(t, IsValidationError(&ValidationError{Fields: map[string]string{"Amount": "failed on required"}}))
	assert.False(t, IsValidationError(&StorageError{Err: errors.New("down")}))
	assert.False(t, IsValidationError(ErrNotFound))
}
