// Package app implements the application state machine as a Bubble Tea model.
// It owns the session state exclusively; collaborators report results through
// messages that Update applies.
package app

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/MarvglobalStartup/ProSpeech/internal/analyze"
	"github.com/MarvglobalStartup/ProSpeech/internal/model"
	"github.com/MarvglobalStartup/ProSpeech/internal/progress"
	"github.com/MarvglobalStartup/ProSpeech/internal/prompt"
	"github.com/MarvglobalStartup/ProSpeech/internal/speech"
	"github.com/MarvglobalStartup/ProSpeech/internal/store"
)

var exerciseTypes = []string{"Interview", "Storytelling", "Presentation", "Debate"}

var interests = []string{"Music", "Travel", "Technology", "Sports", "Food", "Movies"}

// CapabilityFactory builds a fresh speech capture capability per session.
type CapabilityFactory func() speech.Capability

// Model is the application state machine. The View enum says which screen is
// active; loading and errMsg are cross-cutting overlays on any view.
type Model struct {
	store     *store.Store
	generator prompt.Generator
	lexicon   *analyze.Lexicon
	capture   CapabilityFactory
	logger    *log.Logger

	view        model.View
	currentUser *model.User
	userData    *model.UserData
	loading     bool
	errMsg      string

	width  int
	height int
	spin   spinner.Model

	// Sign-up and login forms.
	signupInputs []textinput.Model
	loginInput   textinput.Model
	formIndex    int

	// Practice setup selection.
	setupRow      int // 0 = exercise type, 1 = interest
	setupExercise int
	setupInterest int

	// Practice session. Populated only while one is active.
	promptSeq    int
	promptText   string
	exerciseType string
	interest     string
	captureSeq   int
	adapter      *speech.Adapter
	capturing    bool
	captureErr   *speech.CaptureError
	analysis     *model.AnalysisData
	recorded     bool

	// Progress view data, reloaded on navigation.
	activity []model.ActivityLog
}

type promptResultMsg struct {
	seq    int
	prompt string
	err    error
}

type speechEventMsg struct {
	seq int
	ev  speech.Event
	ok  bool
}

type tickMsg time.Time

// New constructs the application model. A previously authenticated user is
// restored and lands directly on Home.
func New(st *store.Store, generator prompt.Generator, lexicon *analyze.Lexicon, capture CapabilityFactory, logger *log.Logger) *Model {
	m := &Model{
		store:     st,
		generator: generator,
		lexicon:   lexicon,
		capture:   capture,
		logger:    logger,
		view:      model.ViewLanding,
		spin:      spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	m.initForms()

	ctx := context.Background()
	user, err := st.GetCurrentUser(ctx)
	if err != nil {
		logger.Error("failed to restore session", "err", err)
		return m
	}
	if user != nil {
		data, err := st.GetUserData(ctx, user.Username)
		if err != nil {
			logger.Error("failed to load user data", "err", err)
			return m
		}
		m.currentUser = user
		m.userData = &data
		m.view = model.ViewHome
	}
	return m
}

func (m *Model) initForms() {
	username := textinput.New()
	username.Prompt = "Username: "
	username.CharLimit = 32
	email := textinput.New()
	email.Prompt = "Email: "
	email.CharLimit = 64
	m.signupInputs = []textinput.Model{username, email}

	login := textinput.New()
	login.Prompt = "Email: "
	login.CharLimit = 64
	m.loginInput = login
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case promptResultMsg:
		return m.handlePromptResult(msg)
	case speechEventMsg:
		return m.handleSpeechEvent(msg)
	case tickMsg:
		if m.capturing {
			return m, tickCmd()
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.abandonCapture()
		return m, tea.Quit
	}

	// A pending generic error pre-empts normal input everywhere except the
	// auth screens, which render it inline instead.
	if m.errMsg != "" && m.view != model.ViewSignUp && m.view != model.ViewLogin {
		if msg.Type == tea.KeyEnter || msg.String() == " " {
			m.errMsg = ""
		}
		return m, nil
	}

	switch m.view {
	case model.ViewLanding:
		return m.updateLanding(msg)
	case model.ViewSignUp:
		return m.updateSignUp(msg)
	case model.ViewLogin:
		return m.updateLogin(msg)
	case model.ViewHome:
		return m.updateHome(msg)
	case model.ViewGuide:
		return m.updateGuide(msg)
	case model.ViewProgress:
		return m.updateProgress(msg)
	case model.ViewPracticeSetup:
		return m.updateSetup(msg)
	case model.ViewPracticeSession:
		return m.updateSession(msg)
	default:
		return m, nil
	}
}

// navigate clears the in-flight error and switches screens. Home and
// Progress require an authenticated user and fall back to Login. Leaving a
// view invalidates any pending prompt request and active capture.
func (m *Model) navigate(view model.View) {
	m.errMsg = ""
	m.loading = false
	m.promptSeq++
	if m.view == model.ViewPracticeSession && view != model.ViewPracticeSession {
		m.abandonCapture()
	}
	if (view == model.ViewHome || view == model.ViewProgress) && m.currentUser == nil {
		view = model.ViewLogin
		m.focusLogin()
	}
	if view == model.ViewProgress {
		m.loadActivity()
	}
	if view == model.ViewSignUp {
		m.focusSignup()
	}
	if view == model.ViewLogin {
		m.focusLogin()
	}
	m.view = view
}

// CurrentView reports the active screen. Exposed for tests.
func (m *Model) CurrentView() model.View {
	return m.view
}

// Loading reports the cross-cutting loading flag. Exposed for tests.
func (m *Model) Loading() bool {
	return m.loading
}

// ErrorMessage reports the in-flight error. Exposed for tests.
func (m *Model) ErrorMessage() string {
	return m.errMsg
}

func (m *Model) focusSignup() {
	m.formIndex = 0
	for i := range m.signupInputs {
		m.signupInputs[i].Blur()
		m.signupInputs[i].SetValue("")
	}
	m.signupInputs[0].Focus()
}

func (m *Model) focusLogin() {
	m.loginInput.SetValue("")
	m.loginInput.Focus()
}

func (m *Model) loadActivity() {
	if m.currentUser == nil {
		return
	}
	logs, err := m.store.ListActivity(context.Background(), m.currentUser.Username)
	if err != nil {
		m.logger.Error("failed to load activity", "err", err)
		m.activity = nil
		return
	}
	m.activity = logs
}

func (m *Model) updateLanding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "s":
		m.navigate(model.ViewSignUp)
	case "l":
		m.navigate(model.ViewLogin)
	case "g":
		m.navigate(model.ViewGuide)
	}
	return m, nil
}

func (m *Model) updateSignUp(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.navigate(model.ViewLanding)
		return m, nil
	case tea.KeyTab, tea.KeyDown:
		m.cycleSignupFocus(1)
		return m, nil
	case tea.KeyShiftTab, tea.KeyUp:
		m.cycleSignupFocus(-1)
		return m, nil
	case tea.KeyEnter:
		if m.formIndex < len(m.signupInputs)-1 {
			m.cycleSignupFocus(1)
			return m, nil
		}
		m.signup(m.signupInputs[0].Value(), m.signupInputs[1].Value())
		return m, nil
	}
	var cmd tea.Cmd
	m.signupInputs[m.formIndex], cmd = m.signupInputs[m.formIndex].Update(msg)
	return m, cmd
}

func (m *Model) cycleSignupFocus(direction int) {
	m.signupInputs[m.formIndex].Blur()
	m.formIndex = (m.formIndex + direction + len(m.signupInputs)) % len(m.signupInputs)
	m.signupInputs[m.formIndex].Focus()
}

func (m *Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.navigate(model.ViewLanding)
		return m, nil
	case tea.KeyEnter:
		m.login(m.loginInput.Value())
		return m, nil
	}
	var cmd tea.Cmd
	m.loginInput, cmd = m.loginInput.Update(msg)
	return m, cmd
}

// signup creates the account and moves to Home. On failure nothing changes
// except the inline error: no user is set and no navigation happens.
func (m *Model) signup(username, email string) {
	user, err := m.store.SignupUser(context.Background(), username, email, "password")
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.applyUser(user)
}

func (m *Model) login(email string) {
	user, err := m.store.LoginUser(context.Background(), email, "password")
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.applyUser(user)
}

func (m *Model) applyUser(user model.User) {
	data, err := m.store.GetUserData(context.Background(), user.Username)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.currentUser = &user
	m.userData = &data
	m.navigate(model.ViewHome)
}

func (m *Model) logout() {
	if err := m.store.LogoutUser(context.Background()); err != nil {
		m.logger.Error("failed to clear session", "err", err)
	}
	m.currentUser = nil
	m.userData = nil
	m.activity = nil
	m.navigate(model.ViewLanding)
}

func (m *Model) updateHome(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "p":
		m.setupRow = 0
		m.navigate(model.ViewPracticeSetup)
	case "r":
		m.navigate(model.ViewProgress)
	case "g":
		m.navigate(model.ViewGuide)
	case "l":
		m.logout()
	}
	return m, nil
}

func (m *Model) updateGuide(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "b":
		if m.currentUser != nil {
			m.navigate(model.ViewHome)
		} else {
			m.navigate(model.ViewLanding)
		}
	}
	return m, nil
}

func (m *Model) updateProgress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "b":
		m.navigate(model.ViewHome)
	}
	return m, nil
}

func (m *Model) updateSetup(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.navigate(model.ViewHome)
		return m, nil
	case "up", "k", "down", "j":
		m.setupRow = 1 - m.setupRow
		return m, nil
	case "left", "h":
		m.moveSetup(-1)
		return m, nil
	case "right", "l":
		m.moveSetup(1)
		return m, nil
	case "enter":
		return m, m.startPractice(exerciseTypes[m.setupExercise], interests[m.setupInterest])
	}
	return m, nil
}

func (m *Model) moveSetup(direction int) {
	if m.setupRow == 0 {
		m.setupExercise = (m.setupExercise + direction + len(exerciseTypes)) % len(exerciseTypes)
	} else {
		m.setupInterest = (m.setupInterest + direction + len(interests)) % len(interests)
	}
}

// startPractice suspends the state machine in a loading state while the
// prompt service answers. The sequence number identifies this request;
// completions carrying a stale number are discarded.
func (m *Model) startPractice(exerciseType, interest string) tea.Cmd {
	m.exerciseType = exerciseType
	m.interest = interest
	m.errMsg = ""
	m.loading = true
	m.promptSeq++
	seq := m.promptSeq
	generator := m.generator
	return tea.Batch(m.spin.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		generated, err := generator.Generate(ctx, exerciseType, interest)
		return promptResultMsg{seq: seq, prompt: generated, err: err}
	})
}

func (m *Model) handlePromptResult(msg promptResultMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.promptSeq {
		// The user navigated away or started a newer request; a stale
		// completion must not touch view, loading, or error.
		return m, nil
	}
	m.loading = false
	if msg.err != nil {
		m.logger.Error("prompt generation failed", "err", msg.err)
		m.view = model.ViewHome
		m.errMsg = prompt.GenericFailure
		return m, nil
	}
	m.promptText = msg.prompt
	m.resetSession()
	m.view = model.ViewPracticeSession
	return m, nil
}

func (m *Model) resetSession() {
	m.adapter = nil
	m.capturing = false
	m.captureErr = nil
	m.analysis = nil
	m.recorded = false
}

func (m *Model) updateSession(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.navigate(model.ViewHome)
		return m, nil
	case " ", "enter":
		if m.capturing {
			m.finishCapture()
			return m, nil
		}
		if m.analysis != nil || (m.captureErr != nil && !m.captureErr.Recoverable()) {
			if msg.String() == "enter" {
				m.navigate(model.ViewHome)
			}
			return m, nil
		}
		return m, m.beginCapture()
	case "r":
		if !m.capturing && m.analysis == nil && m.captureErr != nil && m.captureErr.Recoverable() {
			return m, m.beginCapture()
		}
		return m, nil
	case "h":
		if !m.capturing {
			m.navigate(model.ViewHome)
		}
		return m, nil
	}
	return m, nil
}

// beginCapture starts a fresh adapter over a fresh capability.
func (m *Model) beginCapture() tea.Cmd {
	capability := m.capture()
	adapter := speech.NewAdapter(capability)
	if err := adapter.Start(context.Background()); err != nil {
		m.logger.Error("failed to start capture", "err", err)
		m.captureErr = &speech.CaptureError{Code: speech.CodeAudioCapture, Message: err.Error()}
		return nil
	}
	m.adapter = adapter
	m.capturing = true
	m.captureErr = nil
	m.captureSeq++
	return tea.Batch(m.waitForSpeech(m.captureSeq), tickCmd())
}

func (m *Model) waitForSpeech(seq int) tea.Cmd {
	events := m.adapter.Events()
	return func() tea.Msg {
		ev, ok := <-events
		return speechEventMsg{seq: seq, ev: ev, ok: ok}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// handleSpeechEvent processes capture events in arrival order. Events from an
// abandoned session carry a stale sequence number and are dropped.
func (m *Model) handleSpeechEvent(msg speechEventMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.captureSeq || m.adapter == nil {
		return m, nil
	}
	if !msg.ok {
		// Channel closed; the end event was already delivered.
		return m, nil
	}
	m.adapter.Apply(msg.ev)

	if msg.ev.Err != nil {
		m.captureErr = msg.ev.Err
		if !msg.ev.Err.Recoverable() {
			// Permission denial and the like are terminal for the session.
			m.adapter.Stop()
			m.capturing = false
			return m, nil
		}
		m.finishCaptureWithoutRecording()
		return m, nil
	}
	if msg.ev.End {
		// Natural end without an explicit stop is not an error on its own.
		if m.capturing {
			m.finishCapture()
		}
		return m, nil
	}
	return m, m.waitForSpeech(msg.seq)
}

// finishCapture stops the session clock, analyzes the assembled transcript,
// and records the session for an authenticated user.
func (m *Model) finishCapture() {
	if m.adapter == nil || !m.capturing {
		return
	}
	m.adapter.Stop()
	m.capturing = false

	analysis := analyze.Analyze(m.adapter.Transcript(), m.adapter.ElapsedSeconds(), m.lexicon)
	m.analysis = &analysis
	m.completeSession()
}

// finishCaptureWithoutRecording ends capture after a recoverable error so the
// user can retry; nothing is persisted.
func (m *Model) finishCaptureWithoutRecording() {
	if m.adapter != nil {
		m.adapter.Stop()
	}
	m.capturing = false
	m.analysis = nil
}

// completeSession persists the activity and refreshes the cached UserData so
// no screen can render a stale streak. The view stays on the practice screen;
// feedback is shown inline and the user decides when to go Home.
func (m *Model) completeSession() {
	if m.currentUser == nil || m.analysis == nil || m.recorded {
		return
	}
	_, data, err := progress.Record(
		context.Background(),
		m.store,
		m.currentUser.Username,
		m.exerciseType,
		m.interest,
		m.adapter.Transcript(),
		*m.analysis,
	)
	if err != nil {
		m.logger.Error("failed to record session", "err", err)
		m.errMsg = "Could not save this session. Your practice still counts for you, but it was not recorded."
		return
	}
	m.userData = &data
	m.recorded = true
}

// abandonCapture cancels the adapter on navigation away; further events are
// discarded via the capture sequence number.
func (m *Model) abandonCapture() {
	if m.adapter != nil {
		m.adapter.Stop()
	}
	m.capturing = false
	m.captureSeq++
}
