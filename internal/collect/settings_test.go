package collect

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func balancedSplitSettings() CollectingSettings {
	return CollectingSettings{
		IsCollectingEnabled:   true,
		IsChargeEnabled:       true,
		Price:                 "5.00",
		Currency:              "USDC",
		IsRevenueSplitEnabled: true,
		Recipients: []Recipient{
			{Address: addressAlice, Percentage: decimal.NewFromInt(60)},
			{Address: addressBob, Percentage: decimal.NewFromInt(40)},
		},
	}
}

func TestValidateAcceptsBalancedSplit(t *testing.T) {
	if err := balancedSplitSettings().Validate(); err != nil {
		t.Fatalf("expected settings to validate, got %v", err)
	}
}

func TestValidateRejectsUnbalancedSplit(t *testing.T) {
	settings := balancedSplitSettings()
	settings.Recipients[1].Percentage = decimal.NewFromInt(30)

	if err := settings.Validate(); !errors.Is(err, ErrUnbalancedSplit) {
		t.Fatalf("expected unbalanced split error, got %v", err)
	}
}

func TestValidateBoundsIgnoresUnbalancedSplit(t *testing.T) {
	settings := balancedSplitSettings()
	settings.Recipients[1].Percentage = decimal.NewFromInt(30)

	if err := settings.ValidateBounds(); err != nil {
		t.Fatalf("expected bounds-only validation to pass, got %v", err)
	}
}

func TestValidateSkipsSplitWhenChargeDisabled(t *testing.T) {
	settings := balancedSplitSettings()
	settings.IsChargeEnabled = false
	settings.Price = ""
	settings.Recipients[1].Percentage = decimal.NewFromInt(30)

	if err := settings.Validate(); err != nil {
		t.Fatalf("expected split invariant to be skipped, got %v", err)
	}
}

func TestValidateSkipsEmptyRecipientList(t *testing.T) {
	settings := balancedSplitSettings()
	settings.Recipients = nil

	if err := settings.Validate(); err != nil {
		t.Fatalf("expected empty recipient list to pass, got %v", err)
	}
}

func TestValidateRejectsDuplicateSplitRecipient(t *testing.T) {
	settings := balancedSplitSettings()
	settings.Recipients[1].Address = settings.Recipients[0].Address

	if err := settings.Validate(); !errors.Is(err, ErrDuplicateRecipient) {
		t.Fatalf("expected duplicate recipient error, got %v", err)
	}
}

func TestValidateRejectsMalformedSplitAddress(t *testing.T) {
	settings := balancedSplitSettings()
	settings.Recipients[0].Address = "nope"

	if err := settings.Validate(); !errors.Is(err, ErrInvalidRecipientAddress) {
		t.Fatalf("expected invalid address error, got %v", err)
	}
}

func TestValidateBoundsRejectsUnknownLicense(t *testing.T) {
	settings := CollectingSettings{CollectingLicense: "PUBLIC_DOMAIN_PLUS"}

	if err := settings.ValidateBounds(); !errors.Is(err, ErrInvalidLicense) {
		t.Fatalf("expected invalid license error, got %v", err)
	}
}

func TestValidateBoundsAcceptsKnownLicenses(t *testing.T) {
	for license := range knownLicenses {
		settings := CollectingSettings{CollectingLicense: license}
		if err := settings.ValidateBounds(); err != nil {
			t.Fatalf("expected license %s to validate, got %v", license, err)
		}
	}
}

func TestValidateBoundsRejectsBadPrice(t *testing.T) {
	for _, price := range []string{"", "abc", "-1"} {
		settings := CollectingSettings{IsChargeEnabled: true, Price: price}
		if err := settings.ValidateBounds(); !errors.Is(err, ErrInvalidPrice) {
			t.Fatalf("expected invalid price error for %q, got %v", price, err)
		}
	}
}

func TestValidateBoundsReferralPercentRange(t *testing.T) {
	for _, percent := range []int{0, 101, -5} {
		settings := CollectingSettings{IsReferralRewardsEnabled: true, ReferralPercent: percent}
		if err := settings.ValidateBounds(); !errors.Is(err, ErrInvalidReferralPercent) {
			t.Fatalf("expected invalid referral percent error for %d, got %v", percent, err)
		}
	}
	settings := CollectingSettings{IsReferralRewardsEnabled: true, ReferralPercent: 25}
	if err := settings.ValidateBounds(); err != nil {
		t.Fatalf("expected referral percent 25 to validate, got %v", err)
	}
}

func TestValidateBoundsCollectLimit(t *testing.T) {
	settings := CollectingSettings{IsLimitedEdition: true, CollectLimit: 0}
	if err := settings.ValidateBounds(); !errors.Is(err, ErrInvalidCollectLimit) {
		t.Fatalf("expected invalid collect limit error, got %v", err)
	}
}

func TestValidateBoundsExpiryDaysRange(t *testing.T) {
	for _, days := range []int{0, 36501} {
		settings := CollectingSettings{IsCollectExpiryEnabled: true, CollectExpiryDays: days}
		if err := settings.ValidateBounds(); !errors.Is(err, ErrInvalidExpiryDays) {
			t.Fatalf("expected invalid expiry days error for %d, got %v", days, err)
		}
	}
	settings := CollectingSettings{IsCollectExpiryEnabled: true, CollectExpiryDays: 36500}
	if err := settings.ValidateBounds(); err != nil {
		t.Fatalf("expected expiry of 36500 days to validate, got %v", err)
	}
}
