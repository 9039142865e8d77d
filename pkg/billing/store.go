package billing

import (
	"context"
	"time"

	"github.com/BlackBlossom/kmj-billing-system-sub001/models"
)

// Store persists bill records. Implementations must enforce receipt-number
// uniqueness.
type Store interface {
	CreateBill(ctx context.Context, rec *models.BillRecord) error
	GetBill(ctx context.Context, receiptNo int64) (*models.BillRecord, error)
	ListBills(ctx context.Context, f Filter, offset, limit int) ([]models.BillRecord, int64, error)
	// Stats aggregates matching bills. Cancelled bills are counted in
	// TotalBills but excluded from all amount sums. An empty match yields
	// all-zero stats, not an error.
	Stats(ctx context.Context, f Filter, now time.Time) (Stats, error)
	UpdateStatus(ctx context.Context, receiptNo int64, status string) error
	DeleteBill(ctx context.Context, receiptNo int64) error
}

// CounterStore reserves strictly increasing numbers per named sequence. The
// reservation is a single atomic read-modify-write: two concurrent callers can
// never observe the same value.
type CounterStore interface {
	ReserveNext(ctx context.Context, name string) (int64, error)
}

// Filter narrows list and stats queries. Zero-valued fields are ignored; the
// provided fields combine with logical AND.
type Filter struct {
	Category      string
	AccountType   string
	PaymentMethod string
	Status        string
	MemberID      string
	From          *time.Time
	To            *time.Time
	MinAmount     *int64
	MaxAmount     *int64
}

// Stats is the aggregate view served by GET /bills/stats.
type Stats struct {
	TotalBills   int64 `json:"totalBills"`
	TotalRevenue int64 `json:"totalRevenue"`
	TodayAmount  int64 `json:"todayAmount"`
	MonthAmount  int64 `json:"monthAmount"`
}

// Pagination describes an offset-paged result set.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalBills int64 `json:"totalBills"`
	TotalPages int64 `json:"totalPages"`
}
