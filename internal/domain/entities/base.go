package entities

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
)

// NameKind classifies a name variant. Every entity must carry at least
// one PRIMARY name; the other kinds record aliases and known misspellings.
type NameKind string

const (
	NameKindPrimary     NameKind = "PRIMARY"
	NameKindAlias       NameKind = "ALIAS"
	NameKindFormer      NameKind = "FORMER"
	NameKindMisspelling NameKind = "MISSPELLING"
)

// NameParts holds the pieces of a name in one language.
type NameParts struct {
	Full   string `json:"full"`
	First  string `json:"first,omitempty"`
	Middle string `json:"middle,omitempty"`
	Last   string `json:"last,omitempty"`
}

// Name is a multilingual name variant. Variants maps a language code
// ("en", "ne") to the name parts in that language. On the wire each
// language appears as a top-level key next to "kind":
//
//	{"kind": "PRIMARY", "en": {"full": "Nepali Congress"}, "ne": {"full": "नेपाली कांग्रेस"}}
type Name struct {
	Kind     NameKind
	Variants map[string]NameParts
}

// MarshalJSON flattens the language variants to top-level keys.
func (n Name) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(n.Variants)+1)
	kind, err := json.Marshal(n.Kind)
	if err != nil {
		return nil, err
	}
	out["kind"] = kind
	for lang, parts := range n.Variants {
		raw, err := json.Marshal(parts)
		if err != nil {
			return nil, err
		}
		out[lang] = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the flattened wire form back into Kind and Variants.
func (n *Name) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	n.Variants = nil
	for key, value := range raw {
		if key == "kind" {
			if err := json.Unmarshal(value, &n.Kind); err != nil {
				return fmt.Errorf("name kind: %w", err)
			}
			continue
		}
		var parts NameParts
		if err := json.Unmarshal(value, &parts); err != nil {
			return fmt.Errorf("name parts for %q: %w", key, err)
		}
		if n.Variants == nil {
			n.Variants = make(map[string]NameParts)
		}
		n.Variants[key] = parts
	}
	return nil
}

// Languages returns the language codes of this name in sorted order.
func (n Name) Languages() []string {
	langs := make([]string, 0, len(n.Variants))
	for lang := range n.Variants {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Matches reports whether any language variant of the name contains the
// query as a case-insensitive substring.
func (n Name) Matches(query string) bool {
	query = strings.ToLower(query)
	for _, parts := range n.Variants {
		for _, s := range []string{parts.Full, parts.First, parts.Middle, parts.Last} {
			if s != "" && strings.Contains(strings.ToLower(s), query) {
				return true
			}
		}
	}
	return false
}

// LangTextValue is a piece of text in one language with its provenance
// ("imported", "human", "translated").
type LangTextValue struct {
	Value      string `json:"value"`
	Provenance string `json:"provenance,omitempty"`
}

// LangText maps a language code to the text in that language.
type LangText map[string]LangTextValue

// ExternalIdentifier links an entity to an external registry or resource.
type ExternalIdentifier struct {
	Scheme string `json:"scheme"`
	Value  string `json:"value"`
	Label  string `json:"label,omitempty"`
	URL    string `json:"url,omitempty"`
}

// Attribution records where a piece of data came from.
type Attribution struct {
	Title   LangText `json:"title"`
	Details LangText `json:"details,omitempty"`
}

// ContactInfo holds a contact channel for an entity.
type ContactInfo struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	Label string `json:"label,omitempty"`
}

const dateLayout = "2006-01-02"

// Date is a calendar date without a time component, serialized as
// "YYYY-MM-DD".
type Date struct {
	time.Time
}

// NewDate returns the Date for the given year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return Date{t}, nil
}

// MarshalJSON serializes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(dateLayout))
}

// UnmarshalJSON parses a "YYYY-MM-DD" string.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ContainsDevanagari reports whether s contains any Devanagari runes.
// Import tooling uses this to reject URLs and identifiers that were
// scraped from the wrong language column.
func ContainsDevanagari(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Devanagari, r) {
			return true
		}
	}
	return false
}
