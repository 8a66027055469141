package models

import (
	"encoding/json"
	"strings"
)

// unknownSentinels are the values a model emits when it could not
// determine a field. An absent field decodes to "" and is covered by
// the empty-string case.
var unknownSentinels = map[string]struct{}{
	"":        {},
	"unknown": {},
	"未知":      {},
	"none":    {},
}

// IsUnknown reports whether a model-returned value means "could not
// determine".
func IsUnknown(v string) bool {
	_, ok := unknownSentinels[strings.ToLower(strings.TrimSpace(v))]
	return ok
}

// ClassificationResult is the structured decode of the model's answer
// for one article. It is transient: merged with the article stub into
// a per-article debug artifact, never stored as an entity.
type ClassificationResult struct {
	Author            string       `json:"author"`
	AuthorEnglishName string       `json:"author_english_name"`
	AuthorChineseName string       `json:"author_chinese_name"`
	Category          CategoryList `json:"category,omitempty"`
	CoverImagePrompt  string       `json:"cover_image_prompt,omitempty"`
}

// AuthorUnknown reports whether all three author-identifying fields
// decode to an unknown sentinel. This drives the article's status:
// unknown authorship marks the article as information-missing, any
// identified field marks it in-progress.
func (c *ClassificationResult) AuthorUnknown() bool {
	return IsUnknown(c.Author) && IsUnknown(c.AuthorEnglishName) && IsUnknown(c.AuthorChineseName)
}

// CategoryList decodes the model's category field, which may be a
// single comma-joined string or a JSON array of strings.
type CategoryList []string

// UnmarshalJSON accepts either a string (split on commas) or an array
// of strings.
func (c *CategoryList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*c = strings.Split(single, ",")
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*c = list
	return nil
}

// MarshalJSON writes the list back as an array.
func (c CategoryList) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string(c))
}

// AuthorInfo is the structured decode of an author-lookup answer.
// The JSON keys contain spaces; that is the model's answer contract.
type AuthorInfo struct {
	EnglishName  string `json:"english name"`
	ChineseName  string `json:"chinese name"`
	Introduction string `json:"introduction"`
}

// FieldInfo is the structured decode of a taxonomy-naming analysis
// answer.
type FieldInfo struct {
	Category string `json:"category"`
	Reason   string `json:"reason"`
}
