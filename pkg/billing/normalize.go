package billing

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Legacy dumps of the old system spell the same field half a dozen ways
// (mahalId, Mahal_Id, mahal_ID, ...). NormalizeLegacy maps one legacy-shaped
// object onto the canonical Draft at the boundary so business logic only ever
// sees canonical names. Unknown keys are ignored.

var legacyAliases = map[string][]string{
	"memberId":      {"memberId", "member_id", "mahalId", "Mahal_Id", "mahal_ID", "mahal_id", "MahalID"},
	"memberName":    {"memberName", "member_name", "name", "Name"},
	"memberAddress": {"memberAddress", "member_address", "address", "Address"},
	"amount":        {"amount", "Amount", "amt"},
	"category":      {"category", "Category"},
	"accountType":   {"accountType", "account_type", "AccountType"},
	"paymentMethod": {"paymentMethod", "payment_method", "PaymentMethod", "mode"},
	"paymentDate":   {"paymentDate", "payment_date", "date", "Date"},
	"notes":         {"notes", "Notes", "remark", "remarks"},
}

var legacyDateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"02/01/2006",
}

// NormalizeLegacy converts a decoded legacy JSON object into a Draft. The
// result still has to pass Validate; normalization only fixes names and value
// shapes, never semantics.
func NormalizeLegacy(raw map[string]any) (*Draft, error) {
	d := &Draft{
		MemberID:      legacyString(raw, "memberId"),
		MemberName:    legacyString(raw, "memberName"),
		MemberAddress: legacyString(raw, "memberAddress"),
		Category:      legacyString(raw, "category"),
		AccountType:   legacyString(raw, "accountType"),
		PaymentMethod: legacyString(raw, "paymentMethod"),
		Notes:         legacyString(raw, "notes"),
	}

	amt, ok := legacyLookup(raw, "amount")
	if !ok {
		return nil, fmt.Errorf("legacy record has no amount field")
	}
	n, err := legacyAmount(amt)
	if err != nil {
		return nil, err
	}
	d.Amount = n

	if ds := legacyString(raw, "paymentDate"); ds != "" {
		t, err := parseLegacyDate(ds)
		if err != nil {
			return nil, err
		}
		d.PaymentDate = t
	}
	return d, nil
}

func legacyLookup(raw map[string]any, canonical string) (any, bool) {
	for _, alias := range legacyAliases[canonical] {
		if v, ok := raw[alias]; ok {
			return v, true
		}
	}
	return nil, false
}

func legacyString(raw map[string]any, canonical string) string {
	v, ok := legacyLookup(raw, canonical)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// legacyAmount accepts the numeric shapes seen in dumps: JSON numbers,
// json.Number, and numeric strings. Fractional paise are rejected.
func legacyAmount(v any) (int64, error) {
	switch n := v.(type) {
	case float64:
		if n != float64(int64(n)) {
			return 0, fmt.Errorf("legacy amount %v is not a whole number", n)
		}
		return int64(n), nil
	case json.Number:
		return n.Int64()
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("legacy amount %q: %w", n, err)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("legacy amount has unsupported type %T", v)
	}
}

func parseLegacyDate(s string) (time.Time, error) {
	for _, layout := range legacyDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized legacy date %q", s)
}
