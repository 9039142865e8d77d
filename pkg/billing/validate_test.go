package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BlackBlossom/kmj-billing-system-sub001/pkg/numwords"
)

func validDraft() *Draft {
	return &Draft{
		MemberID:      "1/74",
		MemberName:    "Abdul Rahman",
		Amount:        500,
		Category:      CategoryJamaath,
		AccountType:   "Donation",
		PaymentMethod: "Cash",
	}
}

func TestValidateAcceptsWellFormedDraft(t *testing.T) {
	assert.NoError(t, Validate(validDraft()))
}

func TestValidateRejectsUnknownCategory(t *testing.T) {
	d := validDraft()
	d.Category = "Library"
	assert.ErrorIs(t, Validate(d), ErrInvalidCategory)
}

func TestValidateRejectsAccountTypeOutsideCategory(t *testing.T) {
	d := validDraft()
	d.Category = CategoryMadrassa
	d.AccountType = "Donation" // a Jamaath type
	assert.ErrorIs(t, Validate(d), ErrInvalidAccountType)
}

func TestValidateRejectsBadAmounts(t *testing.T) {
	d := validDraft()
	d.Amount = -5
	assert.ErrorIs(t, Validate(d), ErrInvalidAmount)

	d = validDraft()
	d.Amount = numwords.MaxAmount
	assert.ErrorIs(t, Validate(d), ErrInvalidAmount)
}

func TestValidateRejectsUnknownPaymentMethod(t *testing.T) {
	d := validDraft()
	d.PaymentMethod = "Barter"
	assert.ErrorIs(t, Validate(d), ErrInvalidPaymentMethod)
}

func TestValidateRejectsMalformedMemberID(t *testing.T) {
	for _, id := range []string{"74", "1-74", "a/b", "1/74/3", ""} {
		d := validDraft()
		d.MemberID = id
		err := Validate(d)
		assert.Error(t, err, "member id %q", id)
		assert.True(t, IsValidationError(err), "member id %q", id)
	}
}

func TestValidateReportsMissingFields(t *testing.T) {
	err := Validate(&Draft{})
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "MemberID")
	assert.Contains(t, ve.Fields, "Amount")
}

func TestEveryCategoryHasAccountTypes(t *testing.T) {
	for _, c := range []string{CategoryJamaath, CategoryMadrassa, CategoryLand, CategoryNercha, CategorySadhu} {
		assert.True(t, ValidCategory(c))
		assert.NotEmpty(t, AccountTypes[c], "category %s", c)
		for _, at := range AccountTypes[c] {
			assert.True(t, ValidAccountType(c, at))
		}
	}
}
