package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/abadojack/whatlanggo"

	"duo-chat/errors"
)

// Censor masks forbidden words in outbound message text. Matching runs on a
// normalized view of the text (lowercased, leet speak folded, punctuation
// and spacing stripped) while replacement happens on the original runes, so
// "s.p 4 m" is caught and the surrounding text keeps its shape.
type Censor struct {
	machine     *goahocorasick.Machine
	replacement rune
}

// index pairs the normalized runes with the position each one came from in
// the original text.
type index struct {
	runes  []rune
	origin []int
}

func NewCensor(words []string, replacement rune) (*Censor, error) {
	if len(words) == 0 {
		return nil, errors.ErrEmptyCensoredWords
	}

	patterns := make([][]rune, 0, len(words))
	for _, word := range words {
		idx := normalize(word)
		if len(idx.runes) == 0 {
			continue
		}
		patterns = append(patterns, idx.runes)
	}
	if len(patterns) == 0 {
		return nil, errors.ErrEmptyCensoredWords
	}

	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	return &Censor{machine: machine, replacement: replacement}, nil
}

// Apply returns the text with every forbidden span masked and reports
// whether anything was masked at all.
func (c *Censor) Apply(text string) (string, bool) {
	idx := normalize(text)
	if len(idx.runes) == 0 {
		return text, false
	}

	spans := c.machine.MultiPatternSearch(idx.runes, false)
	if len(spans) == 0 {
		return text, false
	}

	masked := []rune(text)
	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(idx.origin) {
			continue
		}
		for i := idx.origin[start]; i <= idx.origin[end-1]; i++ {
			masked[i] = c.replacement
		}
	}
	return string(masked), true
}

// DetectLanguage returns the ISO 639-1 code of the dominant language of the
// text, or the empty string when detection is unreliable.
func DetectLanguage(text string) string {
	if text == "" {
		return ""
	}
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6391()
}

func normalize(text string) index {
	origRunes := []rune(text)
	idx := index{
		runes:  make([]rune, 0, len(origRunes)),
		origin: make([]int, 0, len(origRunes)),
	}
	for i, r := range origRunes {
		folded := foldLeet(r)
		if unicode.IsPunct(folded) || unicode.IsSpace(folded) || unicode.IsSymbol(folded) {
			continue
		}
		idx.runes = append(idx.runes, unicode.ToLower(folded))
		idx.origin = append(idx.origin, i)
	}
	return idx
}

// foldLeet maps common leet speak characters back to their standard
// alphabet counterparts.
func foldLeet(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}
