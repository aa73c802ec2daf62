package matcher_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GoHR-Admin/GoHR-Admin/internal/matcher"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases and keeps tokens", "Maria Clara SOUZA", "maria clara souza"},
		{"strips diacritics", "João Ângelo Môço", "joao angelo moco"},
		{"drops punctuation", "Maria C. Souza-Lima", "maria c souzalima"},
		{"collapses whitespace", "  maria \t clara \n souza  ", "maria clara souza"},
		{"digits and symbols only", "1234 !@#$", ""},
		{"empty input", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matcher.Normalize(tt.input))
		})
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want int
	}{
		{"identical", "maria clara souza", "maria clara souza", 100},
		{"token order ignored", "souza maria clara", "maria clara souza", 100},
		{"abbreviated middle name", "maria clara souza", "maria c souza", 87},
		{"empty left", "", "maria clara souza", 0},
		{"empty right", "maria clara souza", "", 0},
		{"both empty", "", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matcher.Similarity(tt.a, tt.b))
		})
	}
}

func TestSimilarityRange(t *testing.T) {
	score := matcher.Similarity("ana", "completely different name entirely")

	assert.GreaterOrEqual(t, score, 0)
	assert.Less(t, score, 50)
}

func TestBestMatch(t *testing.T) {
	candidates := []matcher.Candidate{
		{Username: "jsilva", DisplayName: "Joao Silva"},
		{Username: "mclara", DisplayName: "Maria C Souza"},
		{Username: "noname", DisplayName: ""},
		{Username: "msouza", DisplayName: "Maria Clara Souza"},
	}

	best, score := matcher.BestMatch("Maria Clara Souza", candidates)

	assert.NotNil(t, best)
	assert.Equal(t, "msouza", best.Username)
	assert.Equal(t, 100, score)
}

func TestBestMatchTieKeepsFirst(t *testing.T) {
	candidates := []matcher.Candidate{
		{Username: "first", DisplayName: "Ana Lima"},
		{Username: "second", DisplayName: "Ana Lima"},
	}

	best, score := matcher.BestMatch("Ana Lima", candidates)

	assert.NotNil(t, best)
	assert.Equal(t, "first", best.Username)
	assert.Equal(t, 100, score)
}

func TestBestMatchNoScorableCandidates(t *testing.T) {
	best, score := matcher.BestMatch("Ana Lima", []matcher.Candidate{
		{Username: "noname", DisplayName: ""},
	})

	assert.Nil(t, best)
	assert.Zero(t, score)

	best, score = matcher.BestMatch("Ana Lima", nil)

	assert.Nil(t, best)
	assert.Zero(t, score)
}
