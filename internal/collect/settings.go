package collect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// License enumerates the licenses a post can be collected under.
type License string

const (
	LicenseAllRightsReserved   License = "ALL_RIGHTS_RESERVED"
	LicenseCCBY                License = "CC_BY"
	LicenseCCBYNC              License = "CC_BY_NC"
	LicenseCCBYND              License = "CC_BY_ND"
	LicenseCC0                 License = "CC0"
	LicenseTokenBoundNonCommer License = "TOKEN_BOUND_NON_COMMERCIAL"
)

const (
	minReferralPercent = 1
	maxReferralPercent = 100
	minExpiryDays      = 1
	maxExpiryDays      = 36500
)

var (
	// ErrInvalidLicense indicates an unknown collecting license identifier.
	ErrInvalidLicense = errors.New("collect: invalid license")
	// ErrInvalidPrice indicates a malformed or negative price.
	ErrInvalidPrice = errors.New("collect: invalid price")
	// ErrInvalidReferralPercent indicates a referral share outside [1,100].
	ErrInvalidReferralPercent = errors.New("collect: invalid referral percent")
	// ErrInvalidCollectLimit indicates a non-positive edition size.
	ErrInvalidCollectLimit = errors.New("collect: invalid collect limit")
	// ErrInvalidExpiryDays indicates a collect window outside [1,36500] days.
	ErrInvalidExpiryDays = errors.New("collect: invalid expiry days")
	// ErrUnbalancedSplit indicates revenue-split percentages that do not sum to 100.
	ErrUnbalancedSplit = errors.New("collect: revenue split does not sum to 100")
)

var knownLicenses = map[License]struct{}{
	LicenseAllRightsReserved:   {},
	LicenseCCBY:                {},
	LicenseCCBYNC:              {},
	LicenseCCBYND:              {},
	LicenseCC0:                 {},
	LicenseTokenBoundNonCommer: {},
}

// CollectingSettings is the monetization configuration attached to a draft.
// All fields are optional at the boundary; Validate enforces the bounds once
// a flag enables the matching feature.
type CollectingSettings struct {
	IsCollectingEnabled      bool        `json:"isCollectingEnabled"`
	CollectingLicense        License     `json:"collectingLicense,omitempty"`
	IsChargeEnabled          bool        `json:"isChargeEnabled"`
	Price                    string      `json:"price,omitempty"`
	Currency                 string      `json:"currency,omitempty"`
	IsReferralRewardsEnabled bool        `json:"isReferralRewardsEnabled"`
	ReferralPercent          int         `json:"referralPercent,omitempty"`
	IsRevenueSplitEnabled    bool        `json:"isRevenueSplitEnabled"`
	Recipients               []Recipient `json:"recipients,omitempty"`
	IsLimitedEdition         bool        `json:"isLimitedEdition"`
	CollectLimit             int         `json:"collectLimit,omitempty"`
	IsCollectExpiryEnabled   bool        `json:"isCollectExpiryEnabled"`
	CollectExpiryDays        int         `json:"collectExpiryDays,omitempty"`
}

// Validate checks field bounds and, when charging with a revenue split, the
// sum-to-100 invariant and recipient address validity. This is the
// publish-time check; autosave uses ValidateBounds so an in-progress,
// unbalanced split never blocks saving.
func (settings CollectingSettings) Validate() error {
	if err := settings.ValidateBounds(); err != nil {
		return err
	}
	return settings.validateSplit()
}

// ValidateBounds checks field bounds only, leaving the split invariant to
// publish time.
func (settings CollectingSettings) ValidateBounds() error {
	if settings.CollectingLicense != "" {
		if _, ok := knownLicenses[settings.CollectingLicense]; !ok {
			return fmt.Errorf("%w: %q", ErrInvalidLicense, settings.CollectingLicense)
		}
	}
	if settings.IsChargeEnabled {
		price, err := decimal.NewFromString(strings.TrimSpace(settings.Price))
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidPrice, settings.Price)
		}
		if price.IsNegative() {
			return fmt.Errorf("%w: negative", ErrInvalidPrice)
		}
	}
	if settings.IsReferralRewardsEnabled {
		if settings.ReferralPercent < minReferralPercent || settings.ReferralPercent > maxReferralPercent {
			return fmt.Errorf("%w: %d", ErrInvalidReferralPercent, settings.ReferralPercent)
		}
	}
	if settings.IsLimitedEdition && settings.CollectLimit <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCollectLimit, settings.CollectLimit)
	}
	if settings.IsCollectExpiryEnabled {
		if settings.CollectExpiryDays < minExpiryDays || settings.CollectExpiryDays > maxExpiryDays {
			return fmt.Errorf("%w: %d", ErrInvalidExpiryDays, settings.CollectExpiryDays)
		}
	}
	return nil
}

// validateSplit enforces the split invariant only when charging with a split
// and a non-empty recipient list; an in-progress edit may be unbalanced.
func (settings CollectingSettings) validateSplit() error {
	if !settings.IsChargeEnabled || !settings.IsRevenueSplitEnabled || len(settings.Recipients) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(settings.Recipients))
	for _, recipient := range settings.Recipients {
		if !common.IsHexAddress(recipient.Address) {
			return fmt.Errorf("%w: %q", ErrInvalidRecipientAddress, recipient.Address)
		}
		normalized := strings.ToLower(recipient.Address)
		if _, duplicate := seen[normalized]; duplicate {
			return fmt.Errorf("%w: %s", ErrDuplicateRecipient, recipient.Address)
		}
		seen[normalized] = struct{}{}
	}
	if validation := ValidateTotal(settings.Recipients); !validation.IsValid {
		return fmt.Errorf("%w: total %s", ErrUnbalancedSplit, validation.Total.String())
	}
	return nil
}
