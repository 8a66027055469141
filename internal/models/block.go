package models

// Block kind tags as they appear in the service's block records.
const (
	BlockParagraph        = "paragraph"
	BlockHeading1         = "heading_1"
	BlockHeading2         = "heading_2"
	BlockHeading3         = "heading_3"
	BlockBulletedListItem = "bulleted_list_item"
	BlockNumberedListItem = "numbered_list_item"
	BlockToDo             = "to_do"
	BlockCode             = "code"
	BlockQuote            = "quote"
	BlockDivider          = "divider"
	BlockCallout          = "callout"
)

// Block is a single record from a page's block tree. Records are
// discriminated by Type; exactly one of the payload pointers matching
// Type is populated. Unknown kinds carry no payload and are skipped by
// consumers rather than treated as errors.
type Block struct {
	ID          string `json:"id,omitempty"`
	Type        string `json:"type"`
	HasChildren bool   `json:"has_children,omitempty"`

	Paragraph        *TextBlock    `json:"paragraph,omitempty"`
	Heading1         *TextBlock    `json:"heading_1,omitempty"`
	Heading2         *TextBlock    `json:"heading_2,omitempty"`
	Heading3         *TextBlock    `json:"heading_3,omitempty"`
	BulletedListItem *TextBlock    `json:"bulleted_list_item,omitempty"`
	NumberedListItem *TextBlock    `json:"numbered_list_item,omitempty"`
	ToDo             *ToDoBlock    `json:"to_do,omitempty"`
	Code             *CodeBlock    `json:"code,omitempty"`
	Quote            *TextBlock    `json:"quote,omitempty"`
	Divider          *struct{}     `json:"divider,omitempty"`
	Callout          *CalloutBlock `json:"callout,omitempty"`
}

// TextBlock is the payload shared by paragraph, heading, list item and
// quote blocks.
type TextBlock struct {
	RichText []RichText `json:"rich_text"`
}

// ToDoBlock is the payload of a to_do block.
type ToDoBlock struct {
	RichText []RichText `json:"rich_text"`
	Checked  bool       `json:"checked"`
}

// CodeBlock is the payload of a code block.
type CodeBlock struct {
	RichText []RichText `json:"rich_text"`
	Language string     `json:"language,omitempty"`
}

// CalloutBlock is the payload of a callout block.
type CalloutBlock struct {
	RichText []RichText `json:"rich_text"`
	Icon     *Icon      `json:"icon,omitempty"`
}

// Icon is a callout's leading icon. Only emoji icons are rendered.
type Icon struct {
	Type  string `json:"type,omitempty"`
	Emoji string `json:"emoji,omitempty"`
}

// RichText is one styled text run inside a block or property.
type RichText struct {
	Type        string       `json:"type,omitempty"`
	Text        *TextContent `json:"text,omitempty"`
	Annotations Annotations  `json:"annotations,omitempty"`
	PlainText   string       `json:"plain_text,omitempty"`
	Href        string       `json:"href,omitempty"`
}

// TextContent carries the raw text of a RichText run.
type TextContent struct {
	Content string `json:"content"`
	Link    *Link  `json:"link,omitempty"`
}

// Link is an inline link target.
type Link struct {
	URL string `json:"url"`
}

// Annotations are the inline style flags of a RichText run.
type Annotations struct {
	Bold          bool `json:"bold,omitempty"`
	Italic        bool `json:"italic,omitempty"`
	Strikethrough bool `json:"strikethrough,omitempty"`
	Underline     bool `json:"underline,omitempty"`
	Code          bool `json:"code,omitempty"`
}

// Content returns the raw text of the run, preferring the text payload
// and falling back to the service-rendered plain text.
func (r RichText) Content() string {
	if r.Text != nil {
		return r.Text.Content
	}
	return r.PlainText
}
