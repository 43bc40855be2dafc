package ports

import "context"

// Translator defines the interface for translating record text between
// languages. Import tooling uses it to fill in Nepali name variants
// when a source dataset only carries English.
type Translator interface {
	// Translate translates text from the source language to the target
	// language, given as ISO 639-1 codes.
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}
