package models

import "time"

// BillRecord is a single payment receipt. ReceiptNo is assigned from the
// "receipts" counter at creation time; it and Amount are immutable afterwards
// (cancellation only flips Status). Member fields are denormalized because the
// member directory lives in a separate system.
type BillRecord struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	DeletedAt     *time.Time `gorm:"index" json:"-"`
	ReceiptNo     int64      `gorm:"uniqueIndex;not null" json:"receiptNo"`
	MemberID      string     `gorm:"size:32;index;not null" json:"memberId"` // ward/house, e.g. "1/74"
	MemberName    string     `gorm:"size:255" json:"memberName"`
	MemberAddress string     `gorm:"size:512" json:"memberAddress"`
	Amount        int64      `gorm:"not null" json:"amount"` // whole rupees
	AmountInWords string     `gorm:"size:512;not null" json:"amountInWords"`
	Category      string     `gorm:"size:32;index;not null" json:"category"`
	AccountType   string     `gorm:"size:64;index;not null" json:"accountType"`
	Status        string     `gorm:"size:16;index;not null;default:'Paid'" json:"status"`
	PaymentMethod string     `gorm:"size:32;not null" json:"paymentMethod"`
	PaymentDate   time.Time  `gorm:"index;not null" json:"paymentDate"`
	Year          int        `gorm:"index;not null" json:"year"`
	Month         int        `gorm:"index;not null" json:"month"`
	FinancialYear string     `gorm:"size:16;index;not null" json:"financialYear"`
	Notes         string     `gorm:"size:512" json:"notes,omitempty"`
}
