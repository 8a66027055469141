package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/curator/internal/models"
)

func text(content string) []models.RichText {
	return []models.RichText{{Type: "text", Text: &models.TextContent{Content: content}}}
}

func TestRenderBlocks_BlockKinds(t *testing.T) {
	tests := []struct {
		name  string
		block models.Block
		want  string
	}{
		{
			name:  "paragraph",
			block: models.Block{Type: models.BlockParagraph, Paragraph: &models.TextBlock{RichText: text("hello")}},
			want:  "hello\n\n",
		},
		{
			name:  "heading 1",
			block: models.Block{Type: models.BlockHeading1, Heading1: &models.TextBlock{RichText: text("Title")}},
			want:  "# Title\n\n",
		},
		{
			name:  "heading 2",
			block: models.Block{Type: models.BlockHeading2, Heading2: &models.TextBlock{RichText: text("Section")}},
			want:  "## Section\n\n",
		},
		{
			name:  "heading 3",
			block: models.Block{Type: models.BlockHeading3, Heading3: &models.TextBlock{RichText: text("Sub")}},
			want:  "### Sub\n\n",
		},
		{
			name:  "bulleted list item",
			block: models.Block{Type: models.BlockBulletedListItem, BulletedListItem: &models.TextBlock{RichText: text("item")}},
			want:  "* item\n",
		},
		{
			name:  "numbered list item always renders 1.",
			block: models.Block{Type: models.BlockNumberedListItem, NumberedListItem: &models.TextBlock{RichText: text("third")}},
			want:  "1. third\n",
		},
		{
			name:  "to-do unchecked",
			block: models.Block{Type: models.BlockToDo, ToDo: &models.ToDoBlock{RichText: text("task")}},
			want:  "- [ ] task\n",
		},
		{
			name:  "to-do checked",
			block: models.Block{Type: models.BlockToDo, ToDo: &models.ToDoBlock{RichText: text("done"), Checked: true}},
			want:  "- [x] done\n",
		},
		{
			name:  "code block with language",
			block: models.Block{Type: models.BlockCode, Code: &models.CodeBlock{RichText: text("x := 1"), Language: "go"}},
			want:  "```go\nx := 1\n```\n\n",
		},
		{
			name:  "quote",
			block: models.Block{Type: models.BlockQuote, Quote: &models.TextBlock{RichText: text("wise words")}},
			want:  "> wise words\n\n",
		},
		{
			name:  "divider",
			block: models.Block{Type: models.BlockDivider},
			want:  "---\n\n",
		},
		{
			name:  "callout default emoji",
			block: models.Block{Type: models.BlockCallout, Callout: &models.CalloutBlock{RichText: text("note")}},
			want:  "💡 note\n\n",
		},
		{
			name:  "callout custom emoji",
			block: models.Block{Type: models.BlockCallout, Callout: &models.CalloutBlock{RichText: text("warn"), Icon: &models.Icon{Type: "emoji", Emoji: "⚠️"}}},
			want:  "⚠️ warn\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := RenderBlocks([]models.Block{tt.block})
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderBlocks_UnknownKindSkipped(t *testing.T) {
	blocks := []models.Block{
		{Type: "synced_block"},
		{Type: models.BlockParagraph, Paragraph: &models.TextBlock{RichText: text("kept")}},
		{Type: "table_of_contents"},
	}
	got, ok := RenderBlocks(blocks)
	require.True(t, ok)
	assert.Equal(t, "kept\n\n", got)
}

func TestRenderBlocks_EmptySentinel(t *testing.T) {
	tests := []struct {
		name   string
		blocks []models.Block
	}{
		{name: "no blocks", blocks: nil},
		{name: "only unknown kinds", blocks: []models.Block{{Type: "bookmark"}, {Type: "embed"}}},
		{
			name:   "whitespace only",
			blocks: []models.Block{{Type: models.BlockParagraph, Paragraph: &models.TextBlock{RichText: text("   ")}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := RenderBlocks(tt.blocks)
			assert.False(t, ok)
			assert.Equal(t, "", got)
		})
	}
}

func TestRenderRun_AnnotationStacking(t *testing.T) {
	run := models.RichText{
		Text: &models.TextContent{Content: "x"},
		Annotations: models.Annotations{
			Bold:          true,
			Italic:        true,
			Strikethrough: true,
			Code:          true,
		},
	}
	// bold innermost, then italic, strikethrough, code, in fixed order
	assert.Equal(t, "`~~***x***~~`", renderRun(run))
}

func TestRenderRun_LinkWrapsStyledText(t *testing.T) {
	run := models.RichText{
		Text:        &models.TextContent{Content: "site", Link: &models.Link{URL: "https://example.com"}},
		Annotations: models.Annotations{Bold: true},
	}
	assert.Equal(t, "[**site**](https://example.com)", renderRun(run))
}

func TestRenderRun_HrefFallback(t *testing.T) {
	run := models.RichText{
		PlainText: "plain",
		Href:      "https://example.com/a",
	}
	assert.Equal(t, "[plain](https://example.com/a)", renderRun(run))
}
