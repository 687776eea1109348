package publish

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/fountain-ink/fountain-backend/internal/collect"
	"github.com/fountain-ink/fountain-backend/internal/drafts"
)

// PostMetadata is the content-addressable object uploaded to content storage.
// The rich tree rides along as an opaque attribute so the canonical structure
// round-trips even though the chain only stores flat content.
type PostMetadata struct {
	Title           string          `json:"title,omitempty"`
	Subtitle        string          `json:"subtitle,omitempty"`
	CoverURL        string          `json:"coverUrl,omitempty"`
	Tags            []string        `json:"tags,omitempty"`
	ContentMarkdown string          `json:"content"`
	ContentJSON     json.RawMessage `json:"contentJson,omitempty"`
}

// BuildMetadata assembles the metadata object for a draft.
func BuildMetadata(draft drafts.Draft) (PostMetadata, error) {
	treeJSON, err := drafts.EncodeContentTree(draft.ContentJSON)
	if err != nil {
		return PostMetadata{}, err
	}
	return PostMetadata{
		Title:           draft.Title,
		Subtitle:        draft.Subtitle,
		CoverURL:        draft.CoverURL,
		Tags:            draft.Tags,
		ContentMarkdown: RenderMarkdown(draft.ContentJSON),
		ContentJSON:     json.RawMessage(treeJSON),
	}, nil
}

// RenderMarkdown flattens the block tree into plain markdown for the chain's
// flat content field.
func RenderMarkdown(tree drafts.ContentTree) string {
	rendered := make([]string, 0, len(tree))
	for _, block := range tree {
		line := renderBlock(block)
		if line == "" {
			continue
		}
		rendered = append(rendered, line)
	}
	return strings.Join(rendered, "\n\n")
}

func renderBlock(block drafts.BlockNode) string {
	text := blockText(block)
	if strings.TrimSpace(text) == "" {
		return ""
	}
	switch block.Type {
	case drafts.BlockTypeTitle, "h1":
		return "# " + text
	case "h2":
		return "## " + text
	case "h3":
		return "### " + text
	case "quote", "blockquote":
		return "> " + text
	case "code":
		return "```\n" + text + "\n```"
	case "li", "list-item":
		return "- " + text
	default:
		return text
	}
}

func blockText(block drafts.BlockNode) string {
	parts := make([]string, 0, 1+len(block.Children))
	if block.Text != "" {
		parts = append(parts, block.Text)
	}
	for _, child := range block.Children {
		if childText := blockText(child); childText != "" {
			parts = append(parts, childText)
		}
	}
	return strings.Join(parts, " ")
}

// BuildCollectAction translates collecting settings into a chain-level
// action descriptor, or nil when collecting is disabled. Charging without a
// revenue split omits the splits entirely; the author is paid by default.
func BuildCollectAction(settings collect.CollectingSettings, now time.Time) *CollectAction {
	if !settings.IsCollectingEnabled {
		return nil
	}
	action := &CollectAction{}
	if settings.IsChargeEnabled {
		action.Amount = settings.Price
		action.Currency = settings.Currency
		if settings.IsReferralRewardsEnabled {
			action.ReferralPercent = settings.ReferralPercent
		}
		if settings.IsRevenueSplitEnabled && len(settings.Recipients) > 0 {
			action.Splits = make([]SplitEntry, 0, len(settings.Recipients))
			for _, recipient := range settings.Recipients {
				action.Splits = append(action.Splits, SplitEntry{
					Address: recipient.Address,
					Percent: recipient.Percentage.StringFixed(2),
				})
			}
		}
	}
	if settings.IsLimitedEdition {
		action.CollectLimit = settings.CollectLimit
	}
	if settings.IsCollectExpiryEnabled {
		endsAt := now.UTC().Add(time.Duration(settings.CollectExpiryDays) * 24 * time.Hour)
		action.EndsAt = &endsAt
	}
	return action
}

// CampaignSubject derives a human-readable campaign subject for a post.
func CampaignSubject(meta PostMetadata) string {
	if strings.TrimSpace(meta.Title) != "" {
		return meta.Title
	}
	return "New post"
}
