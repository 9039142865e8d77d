package billing

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInvalidCategory is returned for a category outside the fixed taxonomy.
	ErrInvalidCategory = errors.New("unknown bill category")
	// ErrInvalidAccountType is returned when the account type is not in the
	// set allowed for the given category.
	ErrInvalidAccountType = errors.New("account type not valid for category")
	// ErrInvalidAmount is returned for amounts that are not positive whole
	// rupees within the renderable range.
	ErrInvalidAmount = errors.New("amount must be a positive whole number")
	// ErrInvalidPaymentMethod is returned for an unrecognized payment method.
	ErrInvalidPaymentMethod = errors.New("unknown payment method")
	// ErrInvalidMemberID is returned when the member id is not ward/house.
	ErrInvalidMemberID = errors.New("member id must have the form ward/house")
	// ErrNotFound is returned when no bill carries the requested receipt number.
	ErrNotFound = errors.New("bill not found")
	// ErrNotCancellable is returned for a cancel on an already-cancelled bill.
	ErrNotCancellable = errors.New("bill is already cancelled")
)

// StorageError wraps a failure of the underlying store. When returned from a
// counter reservation no number has been consumed.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string { return "storage: " + e.Err.Error() }
func (e *StorageError) Unwrap() error { return e.Err }

// ReceiptGapError reports a persist failure after a receipt number was already
// reserved. The number stays consumed; the sequence gets a permanent gap.
type ReceiptGapError struct {
	ReceiptNo int64
	Err       error
}

func (e *ReceiptGapError) Error() string {
	return fmt.Sprintf("bill persist failed after reserving receipt %d: %v", e.ReceiptNo, e.Err)
}

func (e *ReceiptGapError) Unwrap() error { return e.Err }

// ValidationError carries per-field messages for a rejected draft.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString("invalid bill request")
	for _, k := range keys {
		b.WriteString("; ")
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(e.Fields[k])
	}
	return b.String()
}

// IsValidationError reports whether err is any rejected-input error, i.e. one
// that should surface as a 400 and must never be retried.
func IsValidationError(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return true
	}
	return errors.Is(err, ErrInvalidCategory) ||
		errors.Is(err, ErrInvalidAccountType) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidPaymentMethod) ||
		errors.Is(err, ErrInvalidMemberID)
}
