package models

import "strings"

// TypeTag is the column type the external store understands.
type TypeTag string

const (
	TypeTextNumber  TypeTag = "TEXT_NUMBER"
	TypeDate        TypeTag = "DATE"
	TypeDateTime    TypeTag = "DATETIME"
	TypeContactList TypeTag = "CONTACT_LIST"
	TypeCheckbox    TypeTag = "CHECKBOX"
	TypePicklist    TypeTag = "PICKLIST"
	TypeDuration    TypeTag = "DURATION"
)

// TypeTags lists every permitted tag in the order they are presented to the model.
var TypeTags = []TypeTag{
	TypeTextNumber,
	TypeDate,
	TypeDateTime,
	TypeContactList,
	TypeCheckbox,
	TypePicklist,
	TypeDuration,
}

// ParseTypeTag matches s against the permitted tags, ignoring case and
// surrounding whitespace.
func ParseTypeTag(s string) (TypeTag, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, t := range TypeTags {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

func (t TypeTag) Valid() bool {
	_, ok := ParseTypeTag(string(t))
	return ok
}

type Header struct {
	Name string  `json:"name"`
	Type TypeTag `json:"type"`
}

// Schema is the ordered list of inferred headers.
type Schema []Header

func (s Schema) Names() []string {
	out := make([]string, 0, len(s))
	for _, h := range s {
		out = append(out, h.Name)
	}
	return out
}
