// Package numwords renders whole-rupee amounts as English words using the
// Indian numbering system (crore, lakh, thousand, hundred). Conversion is
// pure: the same input always produces the same string.
package numwords

import (
	"errors"
	"strings"
)

var (
	// ErrNegativeAmount is returned for amounts below zero.
	ErrNegativeAmount = errors.New("amount must not be negative")
	// ErrAmountOverflow is returned for amounts of ten or more digits.
	ErrAmountOverflow = errors.New("amount exceeds supported range")
)

// MaxAmount is the exclusive upper bound on convertible amounts (10^9).
const MaxAmount int64 = 1_000_000_000

var ones = [...]string{
	"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
	"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
	"Seventeen", "Eighteen", "Nineteen",
}

var tens = [...]string{
	"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy",
	"Eighty", "Ninety",
}

// ToWords converts amount into words, e.g. 201 -> "Two Hundred and One Only",
// 100000 -> "One Lakh Only". Digits are grouped the Indian way (2,2,2,1,2 from
// the most significant end: crore, lakh, thousand, hundred, tens/ones). The
// trailing tens/ones group is prefixed with "and" only when a higher group is
// non-zero. Zero renders as "Zero Only".
func ToWords(amount int64) (string, error) {
	if amount < 0 {
		return "", ErrNegativeAmount
	}
	if amount >= MaxAmount {
		return "", ErrAmountOverflow
	}
	if amount == 0 {
		return "Zero Only", nil
	}

	crore := amount / 10_000_000
	lakh := (amount / 100_000) % 100
	thousand := (amount / 1_000) % 100
	hundred := (amount / 100) % 10
	rest := amount % 100

	var parts []string
	if crore > 0 {
		parts = append(parts, upToNinetyNine(crore), "Crore")
	}
	if lakh > 0 {
		parts = append(parts, upToNinetyNine(lakh), "Lakh")
	}
	if thousand > 0 {
		parts = append(parts, upToNinetyNine(thousand), "Thousand")
	}
	if hundred > 0 {
		parts = append(parts, ones[hundred], "Hundred")
	}
	if rest > 0 {
		if len(parts) > 0 {
			parts = append(parts, "and")
		}
		parts = append(parts, upToNinetyNine(rest))
	}
	parts = append(parts, "Only")
	return strings.Join(parts, " "), nil
}

// upToNinetyNine spells a value in [1,99].
func upToNinetyNine(n int64) string {
	if n < 20 {
		return ones[n]
	}
	if n%10 == 0 {
		return tens[n/10]
	}
	return tens[n/10] + " " + ones[n%10]
}
