// Package model defines shared data structures.
package model

// View identifies the active screen. Exactly one is active at a time.
type View int

// Screen identifiers.
const (
	ViewLanding View = iota
	ViewSignUp
	ViewLogin
	ViewHome
	ViewGuide
	ViewProgress
	ViewPracticeSetup
	ViewPracticeSession
)

// String returns the screen name.
func (v View) String() string {
	switch v {
	case ViewLanding:
		return "landing"
	case ViewSignUp:
		return "signup"
	case ViewLogin:
		return "login"
	case ViewHome:
		return "home"
	case ViewGuide:
		return "guide"
	case ViewProgress:
		return "progress"
	case ViewPracticeSetup:
		return "practice-setup"
	case ViewPracticeSession:
		return "practice-session"
	default:
		return "unknown"
	}
}

// User identifies an account. Username is the identity key.
type User struct {
	Username string
	Email    string
}

// UserData extends User with values derived from the activity history.
// It is recomputed whenever activity changes; cached copies go stale.
type UserData struct {
	User
	Streak    int
	IsNewUser bool
}

// AnalysisData holds the delivery metrics for one transcript. It is a pure
// function of (transcript, elapsed duration).
type AnalysisData struct {
	WPM         float64
	FillerCount int
	WordCount   int
}

// ActivityLog records one completed practice session. Entries are immutable
// once created; history is append-only per user.
type ActivityLog struct {
	ID           string
	Date         string // civil date, "2006-01-02"
	ExerciseType string
	Interest     string
	Analysis     AnalysisData
	Transcript   string
}

// Config defines runtime settings.
type Config struct {
	Locale        string
	FillerWords   []string
	SpeechBackend string // "exec" or "deepgram"
	SpeechCommand string
	RecordCommand string
	DeepgramKey   string
	DeepgramModel string
	PromptBackend string // "static" or "ollama"
	OllamaURL     string
	OllamaModel   string
	DBPath        string
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Username    string
	Since       string // civil date filter, empty for all
	Last        int
	CurveWindow int
}
