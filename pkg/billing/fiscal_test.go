package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFinancialYear(t *testing.T) {
	cases := []struct {
		date string
		want string
	}{
		{"2024-02-15", "2023-24"},
		{"2024-05-01", "2024-25"},
		{"2024-03-31", "2023-24"},
		{"2024-04-01", "2024-25"},
		{"2024-12-31", "2024-25"},
		{"2025-01-01", "2024-25"},
		{"2000-02-01", "1999-00"},
		{"1999-06-15", "1999-00"},
	}
	for _, tc := range cases {
		d, err := time.Parse("2006-01-02", tc.date)
		if err != nil {
			t.Fatalf("bad test date %s: %v", tc.date, err)
		}
		assert.Equal(t, tc.want, FinancialYear(d), "date %s", tc.date)
	}
}
