package language

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupported is returned by Parse for names outside the supported table.
var ErrUnsupported = errors.New("unsupported language")

// Language is a supported target language, identified by its English display
// name ("Spanish"). The display name doubles as the artifact directory and
// channel credentials key.
type Language string

const (
	English Language = "English"
	Spanish Language = "Spanish"
	French  Language = "French"
	German  Language = "German"
	Thai    Language = "Thai"
)

type entry struct {
	code2   string // ISO 639-1 (2-letter)
	code3   string // ISO 639-2 primary (3-letter)
	alt3    string // ISO 639-2 alternate (e.g. "fre" vs "fra")
	display Language
}

// Adding a language is a table change once the delegates support it.
var languages = []entry{
	{"en", "eng", "", English},
	{"es", "spa", "", Spanish},
	{"fr", "fra", "fre", French},
	{"de", "deu", "ger", German},
	{"th", "tha", "", Thai},
}

var index map[string]*entry

func init() {
	index = make(map[string]*entry, len(languages)*4)
	for i := range languages {
		e := &languages[i]
		index[e.code2] = e
		index[e.code3] = e
		if e.alt3 != "" {
			index[e.alt3] = e
		}
		index[strings.ToLower(string(e.display))] = e
	}
}

func lookup(value string) *entry {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return nil
	}
	return index[value]
}

// Parse resolves a display name, word form, or ISO code to a Language.
func Parse(value string) (Language, error) {
	if e := lookup(value); e != nil {
		return e.display, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupported, strings.TrimSpace(value))
}

// IsSupported reports whether value resolves to a supported language.
func IsSupported(value string) bool {
	return lookup(value) != nil
}

// All returns the supported languages in table order.
func All() []Language {
	out := make([]Language, len(languages))
	for i, e := range languages {
		out[i] = e.display
	}
	return out
}

// String returns the display name.
func (l Language) String() string { return string(l) }

// Code returns the ISO 639-1 code, or "" for an unknown language.
func (l Language) Code() string {
	if e := lookup(string(l)); e != nil {
		return e.code2
	}
	return ""
}

// Valid reports whether l is a member of the supported table.
func (l Language) Valid() bool {
	e := lookup(string(l))
	return e != nil && e.display == l
}
