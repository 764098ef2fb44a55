package prompt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStaticGeneratorDeterministic(t *testing.T) {
	gen := NewStaticGenerator()
	ctx := context.Background()
	first, err := gen.Generate(ctx, "Interview", "Music")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	second, err := gen.Generate(ctx, "Interview", "Music")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if first != second {
		t.Fatalf("same inputs produced different prompts: %q vs %q", first, second)
	}
	if !strings.Contains(first, "music") {
		t.Fatalf("prompt should mention the interest: %q", first)
	}
}

func TestStaticGeneratorUnknownExerciseType(t *testing.T) {
	gen := NewStaticGenerator()
	got, err := gen.Generate(context.Background(), "something new", "Cooking")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(got, "cooking") {
		t.Fatalf("fallback prompt should mention the interest: %q", got)
	}
}

func TestStaticGeneratorEmptyInterest(t *testing.T) {
	gen := NewStaticGenerator()
	if _, err := gen.Generate(context.Background(), "Interview", "   "); err == nil {
		t.Fatalf("expected error for empty interest")
	}
}

func TestOllamaGenerator(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"response":"Describe your ","done":false}` + "\n"))
		_, _ = w.Write([]byte(`{"response":"favorite concert.","done":true}` + "\n"))
	}))
	defer server.Close()

	gen := NewOllamaGenerator(server.URL, "llama3.2:latest")
	got, err := gen.Generate(context.Background(), "Interview", "Music")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != "Describe your favorite concert." {
		t.Fatalf("unexpected prompt: %q", got)
	}
}

func TestOllamaGeneratorServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusInternalServerError)
	}))
	defer server.Close()

	gen := NewOllamaGenerator(server.URL, "missing")
	if _, err := gen.Generate(context.Background(), "Interview", "Music"); err == nil {
		t.Fatalf("expected error for server failure")
	}
}
