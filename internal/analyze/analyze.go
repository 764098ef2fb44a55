// Package analyze computes delivery metrics from a finalized transcript.
package analyze

import (
	"strings"
	"unicode"

	"github.com/MarvglobalStartup/ProSpeech/internal/model"
)

// DefaultFillerWords is the built-in filler lexicon. Multi-word entries are
// matched as token sequences.
var DefaultFillerWords = []string{"um", "uh", "like", "you know", "so", "actually"}

// Lexicon holds the filler-word vocabulary used for counting.
type Lexicon struct {
	unigrams map[string]struct{}
	bigrams  map[string]struct{}
}

// NewLexicon builds a lexicon from filler entries. Entries are matched
// case-insensitively; entries of more than two words are ignored.
func NewLexicon(entries []string) *Lexicon {
	lex := &Lexicon{
		unigrams: map[string]struct{}{},
		bigrams:  map[string]struct{}{},
	}
	for _, entry := range entries {
		fields := strings.Fields(strings.ToLower(entry))
		switch len(fields) {
		case 1:
			lex.unigrams[fields[0]] = struct{}{}
		case 2:
			lex.bigrams[fields[0]+" "+fields[1]] = struct{}{}
		}
	}
	return lex
}

// DefaultLexicon returns a lexicon over DefaultFillerWords.
func DefaultLexicon() *Lexicon {
	return NewLexicon(DefaultFillerWords)
}

// Analyze computes metrics for a transcript spoken over elapsedSeconds.
// Identical inputs always yield identical output.
func Analyze(transcript string, elapsedSeconds float64, lex *Lexicon) model.AnalysisData {
	if lex == nil {
		lex = DefaultLexicon()
	}
	tokens := Tokenize(transcript)
	data := model.AnalysisData{
		WordCount:   len(tokens),
		FillerCount: lex.countFillers(tokens),
	}
	if elapsedSeconds > 0 {
		data.WPM = float64(data.WordCount) / (elapsedSeconds / 60.0)
	}
	return data
}

// Tokenize splits a transcript into lowercase whitespace-delimited tokens
// with surrounding punctuation stripped, so "Um," and "um" are the same
// token. Word-internal apostrophes survive ("don't").
func Tokenize(transcript string) []string {
	fields := strings.Fields(transcript)
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		token := strings.TrimFunc(field, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if token == "" {
			continue
		}
		tokens = append(tokens, strings.ToLower(token))
	}
	return tokens
}

// countFillers scans left to right. A bigram filler consumes both tokens, so
// overlapping matches are never double-counted.
func (l *Lexicon) countFillers(tokens []string) int {
	count := 0
	for i := 0; i < len(tokens); {
		if i+1 < len(tokens) {
			if _, ok := l.bigrams[tokens[i]+" "+tokens[i+1]]; ok {
				count++
				i += 2
				continue
			}
		}
		if _, ok := l.unigrams[tokens[i]]; ok {
			count++
		}
		i++
	}
	return count
}
