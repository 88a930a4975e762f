package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilter_Censor(t *testing.T) {
	req := require.New(t)
	filter, err := NewFilter([]string{"scam", "wire money"}, '*')
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Single word keeps the surrounding text",
			input:    "This offer is a scam honestly",
			expected: "This offer is a **** honestly",
		},
		{
			name:     "Case and leet substitutions",
			input:    "SC4M alert",
			expected: "**** alert",
		},
		{
			name:     "Separators inside the word are masked too",
			input:    "s.c.a.m!",
			expected: "*******!",
		},
		{
			name:     "Phrase across a space",
			input:    "Please wire money first",
			expected: "Please ********** first",
		},
		{
			name:     "Accents are left alone",
			input:    "Un été sans problème",
			expected: "Un été sans problème",
		},
		{
			name:     "Repeated occurrences",
			input:    "scam scam",
			expected: "**** ****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, filter.Censor(tt.input))
		})
	}
}

func TestFilter_EmptyDictionary(t *testing.T) {
	req := require.New(t)
	// Given no forbidden word
	filter, err := NewFilter([]string{"", "  "}, '*')
	req.NoError(err)

	// When a body is filtered
	// Then it is returned unchanged
	req.Equal("anything goes", filter.Censor("anything goes"))
}
