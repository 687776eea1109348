package collect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

var (
	// ErrDuplicateRecipient indicates that an address already appears in the split.
	ErrDuplicateRecipient = errors.New("collect: duplicate recipient")
	// ErrInvalidRecipientAddress indicates a malformed chain address.
	ErrInvalidRecipientAddress = errors.New("collect: invalid recipient address")
	// ErrRecipientIndexOutOfRange indicates an index outside the recipient list.
	ErrRecipientIndexOutOfRange = errors.New("collect: recipient index out of range")
)

var (
	hundred        = decimal.NewFromInt(100)
	totalTolerance = decimal.New(1, -1) // 0.1
)

// Recipient is one entry of a revenue split. Percentages are kept at two
// decimal places; rounding happens once, at the point of mutation.
type Recipient struct {
	Address    string          `json:"address"`
	Percentage decimal.Decimal `json:"percentage"`
	Username   string          `json:"username,omitempty"`
	Picture    string          `json:"picture,omitempty"`
}

// TotalValidation reports whether a recipient list sums to 100 within tolerance.
type TotalValidation struct {
	IsValid bool
	Total   decimal.Decimal
}

// AddRecipient returns a new list with the candidate appended. Addresses are
// unique case-insensitively. When evenlyDistribute is set the whole list is
// rebalanced, with the first entry absorbing the rounding remainder.
func AddRecipient(list []Recipient, candidate Recipient, evenlyDistribute bool) ([]Recipient, error) {
	if !common.IsHexAddress(candidate.Address) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRecipientAddress, candidate.Address)
	}
	for _, existing := range list {
		if strings.EqualFold(existing.Address, candidate.Address) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRecipient, candidate.Address)
		}
	}

	next := cloneRecipients(list)
	candidate.Percentage = candidate.Percentage.Round(2)
	next = append(next, candidate)
	if evenlyDistribute {
		distributeEvenly(next)
	}
	return next, nil
}

// RemoveRecipient returns a new list with the entry at index removed. When
// evenlyDistribute is set the remaining entries are rebalanced with the same
// remainder-absorption rule as AddRecipient.
func RemoveRecipient(list []Recipient, index int, evenlyDistribute bool) ([]Recipient, error) {
	if index < 0 || index >= len(list) {
		return nil, fmt.Errorf("%w: %d", ErrRecipientIndexOutOfRange, index)
	}
	next := make([]Recipient, 0, len(list)-1)
	for i, recipient := range list {
		if i == index {
			continue
		}
		next = append(next, recipient)
	}
	if evenlyDistribute && len(next) > 0 {
		distributeEvenly(next)
	}
	return next, nil
}

// UpdatePercentage returns a new list with the entry's percentage replaced.
// An index outside the list or a value outside [0,100] leaves the input
// unchanged; callers must not assume the update was applied.
func UpdatePercentage(list []Recipient, index int, value decimal.Decimal) []Recipient {
	if index < 0 || index >= len(list) {
		return list
	}
	if value.IsNegative() || value.GreaterThan(hundred) {
		return list
	}
	next := cloneRecipients(list)
	next[index].Percentage = value.Round(2)
	return next
}

// ValidateTotal reports whether the list's percentages sum to 100 within a
// 0.1 tolerance. A transiently unbalanced list is not an error; the caller
// decides when the state must be surfaced.
func ValidateTotal(list []Recipient) TotalValidation {
	total := decimal.Zero
	for _, recipient := range list {
		total = total.Add(recipient.Percentage)
	}
	return TotalValidation{
		IsValid: total.Sub(hundred).Abs().LessThan(totalTolerance),
		Total:   total,
	}
}

// distributeEvenly assigns floor(100/n * 100)/100 to every entry but the
// first, which takes whatever remains so the sum is exactly 100. The first
// entry absorbing the remainder is load-bearing for the published splits and
// must not be changed to the most recently added entry.
func distributeEvenly(list []Recipient) {
	n := int64(len(list))
	if n == 0 {
		return
	}
	evenCentiPercent := 10000 / n
	even := decimal.New(evenCentiPercent, -2)
	first := decimal.New(10000-evenCentiPercent*(n-1), -2)
	for i := range list {
		if i == 0 {
			list[i].Percentage = first
			continue
		}
		list[i].Percentage = even
	}
}

func cloneRecipients(list []Recipient) []Recipient {
	return append([]Recipient(nil), list...)
}
