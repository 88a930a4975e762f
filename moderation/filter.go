package moderation

import (
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Filter masks forbidden words in message bodies. Matching ignores case,
// punctuation, spacing and the usual leet substitutions, so "B.4.d" matches
// "bad". The masked span covers every original rune of the match.
type Filter struct {
	machine *goahocorasick.Machine
	mask    rune
}

// NewFilter builds the automaton once. Blank words are ignored and an empty
// list gives a filter that leaves every body untouched.
func NewFilter(words []string, mask rune) (*Filter, error) {
	patterns := make([][]rune, 0, len(words))
	for _, word := range words {
		pattern, _ := fold([]rune(strings.TrimSpace(word)))
		if len(pattern) > 0 {
			patterns = append(patterns, pattern)
		}
	}
	if len(patterns) == 0 {
		return &Filter{mask: mask}, nil
	}
	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	return &Filter{machine: machine, mask: mask}, nil
}

// Censor returns body with every forbidden word replaced by the mask rune.
func (f *Filter) Censor(body string) string {
	if f.machine == nil {
		return body
	}
	original := []rune(body)
	folded, positions := fold(original)
	if len(folded) == 0 {
		return body
	}
	terms := f.machine.MultiPatternSearch(folded, false)
	if len(terms) == 0 {
		return body
	}
	for _, term := range terms {
		end := term.Pos + len(term.Word)
		if term.Pos < 0 || end > len(positions) {
			continue
		}
		for i := positions[term.Pos]; i <= positions[end-1]; i++ {
			original[i] = f.mask
		}
	}
	return string(original)
}

// fold lowercases, undoes leet substitutions and drops separators.
// positions[i] is the index in input of the i-th folded rune.
func fold(input []rune) (folded []rune, positions []int) {
	folded = make([]rune, 0, len(input))
	positions = make([]int, 0, len(input))
	for i, r := range input {
		r = unleet(r)
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			continue
		}
		folded = append(folded, unicode.ToLower(r))
		positions = append(positions, i)
	}
	return folded, positions
}

func unleet(r rune) rune {
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
	}
	return r
}
