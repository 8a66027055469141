package models

// Property type tags as they appear in page and schema records.
const (
	PropertyTitle       = "title"
	PropertyRichText    = "rich_text"
	PropertySelect      = "select"
	PropertyMultiSelect = "multi_select"
	PropertyRelation    = "relation"
	PropertyStatus      = "status"
	PropertyCheckbox    = "checkbox"
	PropertyDate        = "date"
	PropertyNumber      = "number"
)

// Page is a raw record returned by the database service: a database
// row, or a database object itself when returned from search (those
// carry Title at the top level instead of properties).
type Page struct {
	ID         string              `json:"id"`
	Properties map[string]Property `json:"properties,omitempty"`
	Title      []RichText          `json:"title,omitempty"`
	Archived   bool                `json:"archived,omitempty"`
}

// Property is one property value on a page, discriminated by Type.
// Only the payload matching Type is populated; consumers map unknown
// types to a no-op case.
type Property struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type,omitempty"`

	TitleText []RichText     `json:"title,omitempty"`
	RichText  []RichText     `json:"rich_text,omitempty"`
	Select    *SelectOption  `json:"select,omitempty"`
	Multi     []SelectOption `json:"multi_select,omitempty"`
	Relation  []Relation     `json:"relation,omitempty"`
	Status    *SelectOption  `json:"status,omitempty"`
	Checkbox  *bool          `json:"checkbox,omitempty"`
	Date      *DateValue     `json:"date,omitempty"`
	Number    *float64       `json:"number,omitempty"`
}

// SelectOption is a select, multi-select or status option.
type SelectOption struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Relation is one entry of a relation property.
type Relation struct {
	ID string `json:"id"`
}

// DateValue is a date property payload.
type DateValue struct {
	Start string `json:"start"`
	End   string `json:"end,omitempty"`
}

// PlainTitle returns the concatenated plain text of a title property,
// or "" when the property carries no title runs.
func (p Property) PlainTitle() string {
	return joinRuns(p.TitleText)
}

// PlainText returns the concatenated plain text of a rich_text
// property, or "" when the property is empty.
func (p Property) PlainText() string {
	return joinRuns(p.RichText)
}

// StatusName returns the name of a status property, or "".
func (p Property) StatusName() string {
	if p.Status == nil {
		return ""
	}
	return p.Status.Name
}

// RelationIDs returns the ids of a relation property in record order.
func (p Property) RelationIDs() []string {
	ids := make([]string, 0, len(p.Relation))
	for _, r := range p.Relation {
		ids = append(ids, r.ID)
	}
	return ids
}

func joinRuns(runs []RichText) string {
	var out string
	for _, r := range runs {
		out += r.Content()
	}
	return out
}

// PropertyValue is a caller-facing property update: a value plus an
// optional explicit type. When Type is empty the field's current
// schema type decides the payload shape.
type PropertyValue struct {
	Value any
	Type  string
}

// Filter is a single-property query condition. Condition names follow
// the service's filter vocabulary (equals, contains, greater_than,
// less_than). Type selects the property-type key of the wire filter
// payload; it defaults to rich_text.
type Filter struct {
	Property  string
	Type      string
	Condition string
	Value     string
}
