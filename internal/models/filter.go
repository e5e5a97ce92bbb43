package models

import "fmt"

// Field names a channel attribute that can be filtered on.
type Field string

const (
	FieldCountry  Field = "country"
	FieldLanguage Field = "language"
	FieldCategory Field = "category"
)

// Fields lists every filterable field.
var Fields = []Field{FieldCountry, FieldLanguage, FieldCategory}

// UnknownFieldError is returned by ParseField for names outside Fields.
type UnknownFieldError struct {
	Name string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown filter field %q (use country, language or category)", e.Name)
}

// ParseField validates a user supplied field name.
func ParseField(s string) (Field, error) {
	for _, f := range Fields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", &UnknownFieldError{Name: s}
}

// Value returns the channel's value for f.
func (f Field) Value(c Channel) string {
	switch f {
	case FieldCountry:
		return c.Country
	case FieldLanguage:
		return c.Language
	case FieldCategory:
		return c.Category
	}
	return ""
}

// Filter is the transient query applied to the catalog.
// An empty field means no constraint; otherwise the match is exact.
type Filter struct {
	Country  string `json:"country,omitempty"`
	Language string `json:"language,omitempty"`
	Category string `json:"category,omitempty"`
}

// Get returns the filter value for f.
func (f Filter) Get(field Field) string {
	switch field {
	case FieldCountry:
		return f.Country
	case FieldLanguage:
		return f.Language
	case FieldCategory:
		return f.Category
	}
	return ""
}

// Matches reports whether c satisfies every set field of f.
func (f Filter) Matches(c Channel) bool {
	for _, field := range Fields {
		if v := f.Get(field); v != "" && field.Value(c) != v {
			return false
		}
	}
	return true
}

// IsZero reports whether no field is set.
func (f Filter) IsZero() bool {
	return f == Filter{}
}
