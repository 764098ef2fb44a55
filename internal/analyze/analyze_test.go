package analyze

import (
	"reflect"
	"testing"
)

func TestAnalyzeWordAndFillerCounts(t *testing.T) {
	lex := NewLexicon([]string{"um", "uh"})
	data := Analyze("um I think uh this is great", 60, lex)
	if data.WordCount != 7 {
		t.Fatalf("expected 7 words, got %d", data.WordCount)
	}
	if data.FillerCount != 2 {
		t.Fatalf("expected 2 fillers, got %d", data.FillerCount)
	}
	if data.WPM != 7 {
		t.Fatalf("expected 7 wpm, got %v", data.WPM)
	}
}

func TestAnalyzeZeroElapsed(t *testing.T) {
	for _, elapsed := range []float64{0, -1, -30} {
		data := Analyze("plenty of words here", elapsed, nil)
		if data.WPM != 0 {
			t.Fatalf("elapsed %v: expected wpm 0, got %v", elapsed, data.WPM)
		}
		if data.WordCount != 4 {
			t.Fatalf("elapsed %v: expected 4 words, got %d", elapsed, data.WordCount)
		}
	}
}

func TestAnalyzeEmptyTranscript(t *testing.T) {
	for _, transcript := range []string{"", "   ", "\t\n"} {
		data := Analyze(transcript, 30, nil)
		if data.WordCount != 0 || data.FillerCount != 0 || data.WPM != 0 {
			t.Fatalf("transcript %q: expected zero analysis, got %+v", transcript, data)
		}
	}
}

func TestAnalyzePunctuationStripped(t *testing.T) {
	lex := NewLexicon([]string{"um"})
	data := Analyze("Um, well... UM!", 60, lex)
	if data.FillerCount != 2 {
		t.Fatalf("expected 2 fillers, got %d", data.FillerCount)
	}
	if data.WordCount != 3 {
		t.Fatalf("expected 3 words, got %d", data.WordCount)
	}
}

func TestAnalyzeBigramConsumesBothTokens(t *testing.T) {
	lex := NewLexicon([]string{"like", "you know", "know"})
	data := Analyze("you know like you know", 60, lex)
	// Two bigram matches and one unigram; "know" inside a matched bigram
	// must not count again.
	if data.FillerCount != 3 {
		t.Fatalf("expected 3 fillers, got %d", data.FillerCount)
	}
	if data.WordCount != 5 {
		t.Fatalf("expected 5 words, got %d", data.WordCount)
	}
}

func TestAnalyzeOnlyFillers(t *testing.T) {
	data := Analyze("um uh um", 30, NewLexicon([]string{"um", "uh"}))
	if data.WordCount != 3 {
		t.Fatalf("filler-only transcript still counts words, got %d", data.WordCount)
	}
	if data.FillerCount != 3 {
		t.Fatalf("expected 3 fillers, got %d", data.FillerCount)
	}
	if data.WPM != 6 {
		t.Fatalf("expected 6 wpm, got %v", data.WPM)
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	lex := DefaultLexicon()
	first := Analyze("I went to a concert last month it was amazing", 30, lex)
	second := Analyze("I went to a concert last month it was amazing", 30, lex)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("analysis not deterministic: %+v vs %+v", first, second)
	}
	if first.WPM != 20 || first.WordCount != 10 || first.FillerCount != 0 {
		t.Fatalf("unexpected analysis: %+v", first)
	}
}

func TestTokenizeKeepsInnerApostrophes(t *testing.T) {
	tokens := Tokenize("Don't stop; keep going!")
	want := []string{"don't", "stop", "keep", "going"}
	if !reflect.DeepEqual(tokens, want) {
		t.Fatalf("unexpected tokens: %v", tokens)
	}
}
