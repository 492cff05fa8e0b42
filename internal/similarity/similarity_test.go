package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "full-width space", input: "スターバックス　渋谷店", want: "スタ-バックス渋谷店"},
		{name: "ascii whitespace", input: " Star  Bucks\t", want: "starbucks"},
		{name: "dash variants", input: "A－B—C‐D", want: "a-b-c-d"},
		{name: "prolonged sound mark", input: "コーヒー", want: "コ-ヒ-"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{name: "identical", a: "ローソン", b: "ローソン", want: 1.0},
		{name: "only spacing differs", a: "スターバックス　渋谷店", b: "スターバックス渋谷店", want: 1.0},
		{name: "case differs", a: "AMAZON", b: "amazon", want: 1.0},
		{name: "both empty", a: "", b: "　 ", want: 1.0},
		{name: "one empty", a: "abc", b: "", want: 0.0},
		{name: "one substitution", a: "abcd", b: "abce", want: 0.75},
		{name: "completely different", a: "abc", b: "xyz", want: 0.0},
		{name: "multibyte counted by rune", a: "渋谷店", b: "渋谷駅", want: 1 - 1.0/3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Similarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"セブンイレブン", "セブン-イレブン"},
		{"kitten", "sitting"},
		{"", "x"},
		{"ドトールコーヒー", "ドトール"},
	}
	for _, p := range pairs {
		assert.InDelta(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]), 1e-12, "%q vs %q", p[0], p[1])
		assert.InDelta(t, 1.0, Similarity(p[0], p[0]), 1e-12)
	}
}

func TestIsSimilar(t *testing.T) {
	assert.True(t, IsSimilar("スターバックス 渋谷店", "スターバックス渋谷店", DefaultThreshold))
	assert.False(t, IsSimilar("ローソン", "ファミリーマート", DefaultThreshold))
	assert.True(t, IsSimilar("abcd", "abce", 0.75))
	assert.False(t, IsSimilar("abcd", "abce", 0.76))
}
