package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLegacyMemberIDAliases(t *testing.T) {
	for _, alias := range []string{"mahalId", "Mahal_Id", "mahal_ID", "member_id", "memberId"} {
		raw := map[string]any{
			alias:           "1/74",
			"amount":        float64(500),
			"category":      CategoryJamaath,
			"account_type":  "Donation",
			"paymentMethod": "Cash",
		}
		d, err := NormalizeLegacy(raw)
		require.NoError(t, err, "alias %s", alias)
		assert.Equal(t, "1/74", d.MemberID, "alias %s", alias)
		assert.NoError(t, Validate(d), "alias %s", alias)
	}
}

func TestNormalizeLegacyAmountShapes(t *testing.T) {
	for name, v := range map[string]any{
		"number": float64(1250),
		"string": "1250",
	} {
		d, err := NormalizeLegacy(map[string]any{"mahalId": "2/8", "amount": v})
		require.NoError(t, err, name)
		assert.Equal(t, int64(1250), d.Amount, name)
	}
}

func TestNormalizeLegacyRejectsFractionalAmount(t *testing.T) {
	_, err := NormalizeLegacy(map[string]any{"mahalId": "2/8", "amount": 12.50})
	assert.Error(t, err)
}

func TestNormalizeLegacyRejectsMissingAmount(t *testing.T) {
	_, err := NormalizeLegacy(map[string]any{"mahalId": "2/8"})
	assert.Error(t, err)
}

func TestNormalizeLegacyDates(t *testing.T) {
	for raw, want := range map[string]string{
		"2024-02-15":           "2024-02-15",
		"15/02/2024":           "2024-02-15",
		"2024-02-15T10:30:00Z": "2024-02-15",
	} {
		d, err := NormalizeLegacy(map[string]any{"mahalId": "1/1", "amount": float64(10), "payment_date": raw})
		require.NoError(t, err, raw)
		assert.Equal(t, want, d.PaymentDate.Format("2006-01-02"), raw)
	}

	_, err := NormalizeLegacy(map[string]any{"mahalId": "1/1", "amount": float64(10), "date": "Feb 15"})
	assert.Error(t, err)
}

func TestNormalizeLegacyTrimsWhitespace(t *testing.T) {
	d, err := NormalizeLegacy(map[string]any{
		"Mahal_Id": " 3/12 ",
		"amount":   float64(75),
		"remarks":  "  carried over  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "3/12", d.MemberID)
	assert.Equal(t, "carried over", d.Notes)
	assert.True(t, d.PaymentDate.IsZero())
}
