package markdown

import (
	"fmt"
	"strings"

	"github.com/ternarybob/curator/internal/models"
)

// RenderBlocks converts an ordered block sequence into Markdown.
// Unknown block kinds are skipped. The second return value is false
// when the rendered text is blank after trimming, which callers treat
// as "page has no renderable content".
func RenderBlocks(blocks []models.Block) (string, bool) {
	var sb strings.Builder
	for _, block := range blocks {
		sb.WriteString(renderBlock(block))
	}
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	return text, true
}

func renderBlock(block models.Block) string {
	switch block.Type {
	case models.BlockParagraph:
		if block.Paragraph == nil {
			return ""
		}
		return renderRichText(block.Paragraph.RichText) + "\n\n"
	case models.BlockHeading1:
		if block.Heading1 == nil {
			return ""
		}
		return "# " + renderRichText(block.Heading1.RichText) + "\n\n"
	case models.BlockHeading2:
		if block.Heading2 == nil {
			return ""
		}
		return "## " + renderRichText(block.Heading2.RichText) + "\n\n"
	case models.BlockHeading3:
		if block.Heading3 == nil {
			return ""
		}
		return "### " + renderRichText(block.Heading3.RichText) + "\n\n"
	case models.BlockBulletedListItem:
		if block.BulletedListItem == nil {
			return ""
		}
		return "* " + renderRichText(block.BulletedListItem.RichText) + "\n"
	case models.BlockNumberedListItem:
		if block.NumberedListItem == nil {
			return ""
		}
		// Numbering is not recomputed across the list; the service
		// renders each item locally.
		return "1. " + renderRichText(block.NumberedListItem.RichText) + "\n"
	case models.BlockToDo:
		if block.ToDo == nil {
			return ""
		}
		marker := "- [ ] "
		if block.ToDo.Checked {
			marker = "- [x] "
		}
		return marker + renderRichText(block.ToDo.RichText) + "\n"
	case models.BlockCode:
		if block.Code == nil {
			return ""
		}
		return fmt.Sprintf("```%s\n%s\n```\n\n", block.Code.Language, renderRichText(block.Code.RichText))
	case models.BlockQuote:
		if block.Quote == nil {
			return ""
		}
		return "> " + renderRichText(block.Quote.RichText) + "\n\n"
	case models.BlockDivider:
		return "---\n\n"
	case models.BlockCallout:
		if block.Callout == nil {
			return ""
		}
		emoji := "💡"
		if block.Callout.Icon != nil && block.Callout.Icon.Emoji != "" {
			emoji = block.Callout.Icon.Emoji
		}
		return emoji + " " + renderRichText(block.Callout.RichText) + "\n\n"
	default:
		return ""
	}
}

func renderRichText(runs []models.RichText) string {
	var sb strings.Builder
	for _, run := range runs {
		sb.WriteString(renderRun(run))
	}
	return sb.String()
}

// renderRun applies inline annotations in fixed stacking order, then
// wraps the styled text in a link when an href is present.
func renderRun(run models.RichText) string {
	text := run.Content()
	if text == "" {
		return ""
	}
	if run.Annotations.Bold {
		text = "**" + text + "**"
	}
	if run.Annotations.Italic {
		text = "*" + text + "*"
	}
	if run.Annotations.Strikethrough {
		text = "~~" + text + "~~"
	}
	if run.Annotations.Code {
		text = "`" + text + "`"
	}
	href := run.Href
	if href == "" && run.Text != nil && run.Text.Link != nil {
		href = run.Text.Link.URL
	}
	if href != "" {
		text = fmt.Sprintf("[%s](%s)", text, href)
	}
	return text
}
