package app

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/MarvglobalStartup/ProSpeech/internal/analyze"
	"github.com/MarvglobalStartup/ProSpeech/internal/model"
	"github.com/MarvglobalStartup/ProSpeech/internal/prompt"
	"github.com/MarvglobalStartup/ProSpeech/internal/speech"
	"github.com/MarvglobalStartup/ProSpeech/internal/store"
)

type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, string, string) (string, error) {
	return "", io.ErrUnexpectedEOF
}

func newTestModel(t *testing.T, capture CapabilityFactory) (*Model, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "prospeech.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	if capture == nil {
		capture = func() speech.Capability {
			return speech.NewMockCapability()
		}
	}
	m := New(st, prompt.NewStaticGenerator(), analyze.DefaultLexicon(), capture, log.New(io.Discard))
	return m, st
}

func signupTestUser(t *testing.T, m *Model) {
	t.Helper()
	m.signup("ada", "ada@example.com")
	if m.CurrentView() != model.ViewHome {
		t.Fatalf("signup should land on home, got %v", m.CurrentView())
	}
}

func TestInitialViewIsLanding(t *testing.T) {
	m, _ := newTestModel(t, nil)
	if m.CurrentView() != model.ViewLanding {
		t.Fatalf("expected landing, got %v", m.CurrentView())
	}
}

func TestRestoredUserJumpsToHome(t *testing.T) {
	_, st := newTestModel(t, nil)
	if _, err := st.SignupUser(context.Background(), "ada", "ada@example.com", ""); err != nil {
		t.Fatalf("signup: %v", err)
	}
	m := New(st, prompt.NewStaticGenerator(), analyze.DefaultLexicon(),
		func() speech.Capability { return speech.NewMockCapability() }, log.New(io.Discard))
	if m.CurrentView() != model.ViewHome {
		t.Fatalf("expected home for remembered user, got %v", m.CurrentView())
	}
	if m.userData == nil || m.userData.Username != "ada" {
		t.Fatalf("expected user data loaded, got %+v", m.userData)
	}
}

func TestNavigateProgressWithoutUserFallsBackToLogin(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m.navigate(model.ViewProgress)
	if m.CurrentView() != model.ViewLogin {
		t.Fatalf("expected login fallback, got %v", m.CurrentView())
	}
	m.navigate(model.ViewHome)
	if m.CurrentView() != model.ViewLogin {
		t.Fatalf("expected login fallback for home, got %v", m.CurrentView())
	}
}

func TestNavigateClearsError(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m.errMsg = "something went wrong"
	m.navigate(model.ViewGuide)
	if m.ErrorMessage() != "" {
		t.Fatalf("navigate must clear the error")
	}
	if m.CurrentView() != model.ViewGuide {
		t.Fatalf("expected guide, got %v", m.CurrentView())
	}
}

func TestSignupFailureHasNoPartialEffects(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m.navigate(model.ViewSignUp)
	signupTestUser(t, m)
	m.logout()

	m.navigate(model.ViewSignUp)
	m.signup("ada", "other@example.com")
	if m.CurrentView() != model.ViewSignUp {
		t.Fatalf("failed signup must stay on signup, got %v", m.CurrentView())
	}
	if m.ErrorMessage() == "" {
		t.Fatalf("expected inline error")
	}
	if m.currentUser != nil {
		t.Fatalf("failed signup must not set a user")
	}
}

func TestLoginFailureStaysOnLogin(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m.navigate(model.ViewLogin)
	m.login("ghost@example.com")
	if m.CurrentView() != model.ViewLogin {
		t.Fatalf("failed login must stay on login, got %v", m.CurrentView())
	}
	if m.ErrorMessage() == "" {
		t.Fatalf("expected inline error")
	}
}

func TestLogoutClearsSession(t *testing.T) {
	m, _ := newTestModel(t, nil)
	signupTestUser(t, m)
	m.logout()
	if m.CurrentView() != model.ViewLanding {
		t.Fatalf("expected landing after logout, got %v", m.CurrentView())
	}
	if m.currentUser != nil || m.userData != nil {
		t.Fatalf("logout must clear user state")
	}
}

func TestStartPracticeSuccess(t *testing.T) {
	m, _ := newTestModel(t, nil)
	signupTestUser(t, m)

	cmd := m.startPractice("Interview", "Music")
	if cmd == nil {
		t.Fatalf("expected a command")
	}
	if !m.Loading() {
		t.Fatalf("startPractice must set loading")
	}
	m.Update(promptResultMsg{seq: m.promptSeq, prompt: "Describe your favorite concert"})
	if m.Loading() {
		t.Fatalf("loading must clear on resolution")
	}
	if m.CurrentView() != model.ViewPracticeSession {
		t.Fatalf("expected practice session, got %v", m.CurrentView())
	}
	if m.promptText != "Describe your favorite concert" {
		t.Fatalf("unexpected prompt: %q", m.promptText)
	}
}

func TestStartPracticeFailureReturnsHome(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m.generator = failingGenerator{}
	signupTestUser(t, m)

	m.startPractice("Interview", "Music")
	m.Update(promptResultMsg{seq: m.promptSeq, err: io.ErrUnexpectedEOF})
	if m.CurrentView() != model.ViewHome {
		t.Fatalf("expected home on failure, got %v", m.CurrentView())
	}
	if m.ErrorMessage() != prompt.GenericFailure {
		t.Fatalf("raw errors must not surface, got %q", m.ErrorMessage())
	}
	if m.Loading() {
		t.Fatalf("loading must clear on failure")
	}
}

func TestStalePromptResultIsDiscarded(t *testing.T) {
	m, _ := newTestModel(t, nil)
	signupTestUser(t, m)

	m.startPractice("Interview", "Music")
	staleSeq := m.promptSeq
	m.navigate(model.ViewHome)
	if m.Loading() {
		t.Fatalf("navigation must clear loading")
	}

	m.Update(promptResultMsg{seq: staleSeq, prompt: "late prompt"})
	if m.CurrentView() != model.ViewHome {
		t.Fatalf("stale result must not change the view, got %v", m.CurrentView())
	}
	if m.Loading() {
		t.Fatalf("stale result must not resurrect loading")
	}
	if m.ErrorMessage() != "" {
		t.Fatalf("stale result must not set an error")
	}

	// A stale failure is equally inert.
	m.Update(promptResultMsg{seq: staleSeq, err: io.ErrUnexpectedEOF})
	if m.ErrorMessage() != "" || m.CurrentView() != model.ViewHome {
		t.Fatalf("stale failure must be discarded")
	}
}

func TestLoadingAndErrorNeverCoexist(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m.generator = failingGenerator{}
	signupTestUser(t, m)

	m.startPractice("Interview", "Music")
	if m.Loading() && m.ErrorMessage() != "" {
		t.Fatalf("loading and error set together")
	}
	m.Update(promptResultMsg{seq: m.promptSeq, err: io.ErrUnexpectedEOF})
	if m.Loading() && m.ErrorMessage() != "" {
		t.Fatalf("loading and error set together after failure")
	}
}

func runCaptureSession(t *testing.T, m *Model) {
	t.Helper()
	if cmd := m.beginCapture(); cmd == nil {
		t.Fatalf("expected capture command")
	}
	for ev := range m.adapter.Events() {
		m.Update(speechEventMsg{seq: m.captureSeq, ev: ev, ok: true})
	}
}

func TestCompleteSessionRecordsActivity(t *testing.T) {
	capture := func() speech.Capability {
		return speech.NewMockCapability(
			speech.InterimResult("i went to", 0.5),
			speech.FinalResult("I went to a concert last month", 0.9),
			speech.FinalResult("it was amazing", 0.9),
		)
	}
	m, st := newTestModel(t, capture)
	signupTestUser(t, m)

	m.startPractice("Interview", "Music")
	m.Update(promptResultMsg{seq: m.promptSeq, prompt: "Describe your favorite concert"})
	runCaptureSession(t, m)

	if m.CurrentView() != model.ViewPracticeSession {
		t.Fatalf("feedback stays on the practice screen, got %v", m.CurrentView())
	}
	if m.analysis == nil {
		t.Fatalf("expected analysis after capture")
	}
	if m.analysis.WordCount != 10 {
		t.Fatalf("expected 10 words, got %d", m.analysis.WordCount)
	}
	if m.analysis.FillerCount != 0 {
		t.Fatalf("expected 0 fillers, got %d", m.analysis.FillerCount)
	}

	logs, err := st.ListActivity(context.Background(), "ada")
	if err != nil {
		t.Fatalf("list activity: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected one recorded session, got %d", len(logs))
	}
	entry := logs[0]
	if entry.Transcript != "I went to a concert last month it was amazing" {
		t.Fatalf("unexpected transcript: %q", entry.Transcript)
	}
	if entry.ExerciseType != "Interview" || entry.Interest != "Music" {
		t.Fatalf("unexpected context: %+v", entry)
	}
	if entry.ID == "" || entry.Date == "" {
		t.Fatalf("entry must carry id and date: %+v", entry)
	}
	if m.userData == nil || m.userData.Streak != 1 {
		t.Fatalf("user data must be refreshed with streak 1, got %+v", m.userData)
	}
	if m.userData.IsNewUser {
		t.Fatalf("isNewUser must flip after first activity")
	}

	// Recorded analysis must round-trip from the stored transcript.
	recomputed := analyze.Analyze(entry.Transcript, 0, m.lexicon)
	if recomputed.WordCount != entry.Analysis.WordCount || recomputed.FillerCount != entry.Analysis.FillerCount {
		t.Fatalf("analysis does not round-trip: %+v vs %+v", recomputed, entry.Analysis)
	}
}

func TestCompleteSessionWithoutUserDoesNotRecord(t *testing.T) {
	capture := func() speech.Capability {
		return speech.NewMockCapability(speech.FinalResult("hello there", 0.9))
	}
	m, st := newTestModel(t, capture)
	m.promptText = "Say hello"
	m.exerciseType = "Interview"
	m.interest = "Music"
	m.view = model.ViewPracticeSession
	runCaptureSession(t, m)

	if m.analysis == nil {
		t.Fatalf("analysis still computed without a user")
	}
	logs, err := st.ListActivity(context.Background(), "ada")
	if err != nil {
		t.Fatalf("list activity: %v", err)
	}
	if len(logs) != 0 {
		t.Fatalf("nothing may be recorded without a user")
	}
}

func TestNotAllowedErrorIsTerminal(t *testing.T) {
	capture := func() speech.Capability {
		return speech.NewMockCapability(
			speech.ErrorEvent(speech.CodeNotAllowed, "permission denied"),
		)
	}
	m, st := newTestModel(t, capture)
	signupTestUser(t, m)
	m.view = model.ViewPracticeSession
	m.exerciseType = "Interview"
	m.interest = "Music"

	if cmd := m.beginCapture(); cmd == nil {
		t.Fatalf("expected capture command")
	}
	ev := <-m.adapter.Events()
	m.Update(speechEventMsg{seq: m.captureSeq, ev: ev, ok: true})

	if m.capturing {
		t.Fatalf("terminal error must stop capture")
	}
	if m.captureErr == nil || m.captureErr.Code != speech.CodeNotAllowed {
		t.Fatalf("expected not-allowed error, got %+v", m.captureErr)
	}
	logs, _ := st.ListActivity(context.Background(), "ada")
	if len(logs) != 0 {
		t.Fatalf("errored session must not be recorded")
	}
}

func TestRecoverableErrorAllowsRetry(t *testing.T) {
	first := true
	capture := func() speech.Capability {
		if first {
			first = false
			return speech.NewMockCapability(speech.ErrorEvent(speech.CodeNoSpeech, "silence"))
		}
		return speech.NewMockCapability(speech.FinalResult("better this time", 0.9))
	}
	m, _ := newTestModel(t, capture)
	signupTestUser(t, m)
	m.view = model.ViewPracticeSession
	m.exerciseType = "Interview"
	m.interest = "Music"

	if cmd := m.beginCapture(); cmd == nil {
		t.Fatalf("expected capture command")
	}
	ev := <-m.adapter.Events()
	m.Update(speechEventMsg{seq: m.captureSeq, ev: ev, ok: true})
	if m.captureErr == nil || !m.captureErr.Recoverable() {
		t.Fatalf("expected recoverable error, got %+v", m.captureErr)
	}

	runCaptureSession(t, m)
	if m.analysis == nil || m.analysis.WordCount != 3 {
		t.Fatalf("retry should produce analysis, got %+v", m.analysis)
	}
}

func TestStaleSpeechEventsAreDiscarded(t *testing.T) {
	capture := func() speech.Capability {
		return speech.NewMockCapability(speech.FinalResult("left behind", 0.9))
	}
	m, _ := newTestModel(t, capture)
	signupTestUser(t, m)
	m.view = model.ViewPracticeSession
	if cmd := m.beginCapture(); cmd == nil {
		t.Fatalf("expected capture command")
	}
	staleSeq := m.captureSeq
	events := m.adapter.Events()

	// Navigating away abandons the capture session.
	m.navigate(model.ViewHome)
	if m.capturing {
		t.Fatalf("navigation must stop capture")
	}
	for ev := range events {
		m.Update(speechEventMsg{seq: staleSeq, ev: ev, ok: true})
	}
	if m.analysis != nil {
		t.Fatalf("stale events must not produce analysis")
	}
	if m.CurrentView() != model.ViewHome {
		t.Fatalf("stale events must not change the view")
	}
}

func TestErrorPanelAcknowledge(t *testing.T) {
	m, _ := newTestModel(t, nil)
	signupTestUser(t, m)
	m.errMsg = "Failed to generate a prompt."

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}})
	if m.CurrentView() != model.ViewHome {
		t.Fatalf("error panel must pre-empt navigation keys")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.ErrorMessage() != "" {
		t.Fatalf("enter must acknowledge the error")
	}
}
