package billing

import (
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/BlackBlossom/kmj-billing-system-sub001/pkg/numwords"
)

// Draft is a bill creation request after boundary decoding but before
// validation and derivation of receipt number, words and fiscal fields.
type Draft struct {
	MemberID      string `validate:"required"`
	MemberName    string
	MemberAddress string
	Amount        int64  `validate:"required"`
	Category      string `validate:"required"`
	AccountType   string `validate:"required"`
	PaymentMethod string `validate:"required"`
	PaymentDate   time.Time
	Notes         string
}

var validate = validator.New()

var memberIDRE = regexp.MustCompile(`^\d+/\d+$`)

// Validate checks shape and taxonomy membership. It has no side effects; in
// particular a rejected draft never touches the receipt counter.
func Validate(d *Draft) error {
	if err := validate.Struct(d); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = "failed on " + fe.Tag()
		}
		return &ValidationError{Fields: fields}
	}
	if !memberIDRE.MatchString(d.MemberID) {
		return ErrInvalidMemberID
	}
	if !ValidCategory(d.Category) {
		return ErrInvalidCategory
	}
	if !ValidAccountType(d.Category, d.AccountType) {
		return ErrInvalidAccountType
	}
	if d.Amount <= 0 || d.Amount >= numwords.MaxAmount {
		return ErrInvalidAmount
	}
	if !ValidPaymentMethod(d.PaymentMethod) {
		return ErrInvalidPaymentMethod
	}
	return nil
}
