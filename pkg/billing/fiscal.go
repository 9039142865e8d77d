package billing

import (
	"fmt"
	"time"
)

// FinancialYear returns the April–March fiscal year label for t, e.g.
// 2024-05-01 -> "2024-25" and 2024-02-15 -> "2023-24". January through March
// belong to the fiscal year that started the previous April.
func FinancialYear(t time.Time) string {
	y := t.Year()
	if t.Month() >= time.April {
		return fmt.Sprintf("%d-%02d", y, (y+1)%100)
	}
	return fmt.Sprintf("%d-%02d", y-1, y%100)
}
