package publish

import (
	"testing"
	"time"

	"github.com/fountain-ink/fountain-backend/internal/collect"
	"github.com/fountain-ink/fountain-backend/internal/drafts"
	"github.com/shopspring/decimal"
)

func TestRenderMarkdownFlattensBlocks(testContext *testing.T) {
	tree := drafts.ContentTree{
		{Type: drafts.BlockTypeTitle, Text: "Heading"},
		{Type: "h2", Text: "Section"},
		{Type: drafts.BlockTypeParagraph, Text: "Plain text"},
		{Type: "quote", Text: "Quoted"},
		{Type: "code", Text: "x := 1"},
		{Type: "li", Text: "Item"},
		{Type: drafts.BlockTypeParagraph, Text: "   "},
	}

	rendered := RenderMarkdown(tree)
	expected := "# Heading\n\n## Section\n\nPlain text\n\n> Quoted\n\n```\nx := 1\n```\n\n- Item"
	if rendered != expected {
		testContext.Fatalf("unexpected markdown:\n%s", rendered)
	}
}

func TestRenderMarkdownIncludesNestedChildren(testContext *testing.T) {
	tree := drafts.ContentTree{
		{
			Type: drafts.BlockTypeParagraph,
			Text: "Parent",
			Children: []drafts.BlockNode{
				{Type: "span", Text: "child one"},
				{Type: "span", Text: "child two"},
			},
		},
	}

	if rendered := RenderMarkdown(tree); rendered != "Parent child one child two" {
		testContext.Fatalf("unexpected markdown: %q", rendered)
	}
}

func TestBuildMetadataCarriesTreeAndMarkdown(testContext *testing.T) {
	draft := drafts.Draft{
		Title:    "My Post",
		Subtitle: "A subtitle",
		Tags:     []string{"go"},
		ContentJSON: drafts.ContentTree{
			{Type: drafts.BlockTypeParagraph, Text: "Body"},
		},
	}

	meta, err := BuildMetadata(draft)
	if err != nil {
		testContext.Fatalf("failed to build metadata: %v", err)
	}
	if meta.Title != "My Post" || meta.ContentMarkdown != "Body" {
		testContext.Fatalf("unexpected metadata: %+v", meta)
	}
	if len(meta.ContentJSON) == 0 {
		testContext.Fatalf("expected tree attached to metadata")
	}
}

func TestBuildCollectActionDisabledReturnsNil(testContext *testing.T) {
	if action := BuildCollectAction(collect.CollectingSettings{}, time.Now()); action != nil {
		testContext.Fatalf("expected nil action when collecting disabled, got %+v", action)
	}
}

func TestBuildCollectActionTranslatesChargeAndSplits(testContext *testing.T) {
	settings := collect.CollectingSettings{
		IsCollectingEnabled:      true,
		IsChargeEnabled:          true,
		Price:                    "5.00",
		Currency:                 "USDC",
		IsReferralRewardsEnabled: true,
		ReferralPercent:          10,
		IsRevenueSplitEnabled:    true,
		Recipients: []collect.Recipient{
			{Address: "0x1111111111111111111111111111111111111111", Percentage: decimal.RequireFromString("33.34")},
			{Address: "0x2222222222222222222222222222222222222222", Percentage: decimal.RequireFromString("66.66")},
		},
		IsLimitedEdition: true,
		CollectLimit:     100,
	}

	action := BuildCollectAction(settings, time.Now())
	if action == nil {
		testContext.Fatalf("expected collect action")
	}
	if action.Amount != "5.00" || action.Currency != "USDC" || action.ReferralPercent != 10 {
		testContext.Fatalf("unexpected charge translation: %+v", action)
	}
	if len(action.Splits) != 2 || action.Splits[0].Percent != "33.34" {
		testContext.Fatalf("unexpected splits: %+v", action.Splits)
	}
	if action.CollectLimit != 100 {
		testContext.Fatalf("unexpected collect limit: %d", action.CollectLimit)
	}
}

func TestBuildCollectActionOmitsSplitsWhenDisabled(testContext *testing.T) {
	settings := collect.CollectingSettings{
		IsCollectingEnabled: true,
		IsChargeEnabled:     true,
		Price:               "5.00",
		Recipients: []collect.Recipient{
			{Address: "0x1111111111111111111111111111111111111111", Percentage: decimal.NewFromInt(100)},
		},
	}

	action := BuildCollectAction(settings, time.Now())
	if action == nil || len(action.Splits) != 0 {
		testContext.Fatalf("expected no splits without the split flag, got %+v", action)
	}
}

func TestBuildCollectActionComputesExpiry(testContext *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	settings := collect.CollectingSettings{
		IsCollectingEnabled:    true,
		IsCollectExpiryEnabled: true,
		CollectExpiryDays:      7,
	}

	action := BuildCollectAction(settings, now)
	if action == nil || action.EndsAt == nil {
		testContext.Fatalf("expected expiry on action, got %+v", action)
	}
	if !action.EndsAt.Equal(now.Add(7 * 24 * time.Hour)) {
		testContext.Fatalf("unexpected expiry: %s", action.EndsAt)
	}
}

func TestCampaignSubjectFallsBackWithoutTitle(testContext *testing.T) {
	if subject := CampaignSubject(PostMetadata{Title: "Hello"}); subject != "Hello" {
		testContext.Fatalf("expected title as subject, got %q", subject)
	}
	if subject := CampaignSubject(PostMetadata{}); subject != "New post" {
		testContext.Fatalf("expected fallback subject, got %q", subject)
	}
}
