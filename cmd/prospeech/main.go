// Package main provides the CLI entrypoint for prospeech.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/MarvglobalStartup/ProSpeech/internal/analyze"
	"github.com/MarvglobalStartup/ProSpeech/internal/app"
	"github.com/MarvglobalStartup/ProSpeech/internal/config"
	"github.com/MarvglobalStartup/ProSpeech/internal/model"
	"github.com/MarvglobalStartup/ProSpeech/internal/progress"
	"github.com/MarvglobalStartup/ProSpeech/internal/prompt"
	"github.com/MarvglobalStartup/ProSpeech/internal/speech"
	"github.com/MarvglobalStartup/ProSpeech/internal/store"
)

const (
	defaultLocale        = "en-US"
	defaultDeepgramModel = "nova-2"
	defaultOllamaURL     = "http://localhost:11434"
	defaultOllamaModel   = "llama3.2"
	defaultCurveWindow   = 5
)

var (
	practiceLocale        string
	practiceFillers       []string
	practiceDBPath        string
	practiceSpeechBackend string
	practiceSpeechCmd     string
	practiceRecordCmd     string
	practiceDeepgramModel string
	practicePromptBackend string
	practiceOllamaURL     string
	practiceOllamaModel   string

	statsUser        string
	statsSince       string
	statsLast        int
	statsCurveWindow int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "prospeech",
		Short:         "TUI speaking trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.Flags().StringVar(&practiceLocale, "locale", defaultLocale, "speech recognition locale")
	rootCmd.Flags().StringSliceVar(&practiceFillers, "filler-words", nil, "filler words to count (default built-in list)")
	rootCmd.Flags().StringVar(&practiceDBPath, "db", "", "database path (default XDG data dir)")
	rootCmd.Flags().StringVar(&practiceSpeechBackend, "speech-backend", "", "speech backend: deepgram, exec, or mock")
	rootCmd.Flags().StringVar(&practiceSpeechCmd, "speech-command", "", "external recognizer command for the exec backend")
	rootCmd.Flags().StringVar(&practiceRecordCmd, "record-command", "", "microphone capture command for the deepgram backend")
	rootCmd.Flags().StringVar(&practiceDeepgramModel, "deepgram-model", defaultDeepgramModel, "deepgram model name")
	rootCmd.Flags().StringVar(&practicePromptBackend, "prompt-backend", "", "prompt backend: ollama or static")
	rootCmd.Flags().StringVar(&practiceOllamaURL, "ollama-url", defaultOllamaURL, "ollama endpoint")
	rootCmd.Flags().StringVar(&practiceOllamaModel, "ollama-model", defaultOllamaModel, "ollama model name")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newUsersCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "locale", &practiceLocale, fileCfg.Practice.Locale)
	applyStringSliceConfig(cmd, "filler-words", &practiceFillers, fileCfg.Practice.FillerWords)
	applyStringConfig(cmd, "db", &practiceDBPath, fileCfg.Practice.DBPath)
	applyStringConfig(cmd, "speech-backend", &practiceSpeechBackend, fileCfg.Speech.Backend)
	applyStringConfig(cmd, "speech-command", &practiceSpeechCmd, fileCfg.Speech.Command)
	applyStringConfig(cmd, "record-command", &practiceRecordCmd, fileCfg.Speech.RecordCommand)
	applyStringConfig(cmd, "deepgram-model", &practiceDeepgramModel, fileCfg.Speech.DeepgramModel)
	applyStringConfig(cmd, "prompt-backend", &practicePromptBackend, fileCfg.Prompt.Backend)
	applyStringConfig(cmd, "ollama-url", &practiceOllamaURL, fileCfg.Prompt.OllamaURL)
	applyStringConfig(cmd, "ollama-model", &practiceOllamaModel, fileCfg.Prompt.OllamaModel)

	cfg := model.Config{
		Locale:        practiceLocale,
		FillerWords:   practiceFillers,
		SpeechBackend: practiceSpeechBackend,
		SpeechCommand: practiceSpeechCmd,
		RecordCommand: practiceRecordCmd,
		DeepgramKey:   deepgramKey(fileCfg),
		DeepgramModel: practiceDeepgramModel,
		PromptBackend: practicePromptBackend,
		OllamaURL:     practiceOllamaURL,
		OllamaModel:   practiceOllamaModel,
		DBPath:        practiceDBPath,
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	logger, closeLog, err := openLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	storePath := cfg.DBPath
	if storePath == "" {
		storePath = config.DefaultDBPath()
	}
	st, err := store.Open(storePath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.Error("failed to close db", "err", cerr)
		}
	}()

	lexicon := analyze.DefaultLexicon()
	if len(cfg.FillerWords) > 0 {
		lexicon = analyze.NewLexicon(cfg.FillerWords)
	}

	capture, err := captureFactory(cfg, logger)
	if err != nil {
		return err
	}
	generator := promptGenerator(cfg)

	appModel := app.New(st, generator, lexicon, capture, logger)
	program := tea.NewProgram(appModel, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// captureFactory picks the speech backend. An explicit backend must be fully
// configured; with no backend set, the best configured one wins and the mock
// recognizer serves as a keyless demo mode.
func captureFactory(cfg model.Config, logger *log.Logger) (app.CapabilityFactory, error) {
	backend := cfg.SpeechBackend
	if backend == "" {
		switch {
		case cfg.DeepgramKey != "":
			backend = "deepgram"
		case cfg.SpeechCommand != "":
			backend = "exec"
		default:
			backend = "mock"
		}
	}
	switch backend {
	case "deepgram":
		if cfg.DeepgramKey == "" {
			return nil, fmt.Errorf("deepgram backend requires an API key (set DEEPGRAM_API_KEY or speech.deepgram-key)")
		}
		return func() speech.Capability {
			return speech.NewDeepgramCapability(cfg.DeepgramKey, cfg.DeepgramModel, cfg.Locale, cfg.RecordCommand, logger)
		}, nil
	case "exec":
		if cfg.SpeechCommand == "" {
			return nil, fmt.Errorf("exec backend requires --speech-command")
		}
		return func() speech.Capability {
			return speech.NewExecCapability(cfg.SpeechCommand, cfg.Locale, logger)
		}, nil
	case "mock":
		logger.Warn("no speech backend configured; using the built-in demo recognizer")
		return func() speech.Capability {
			return speech.NewMockCapability(
				speech.InterimResult("this is a demo", 0.5),
				speech.FinalResult("This is a demo transcript from the built-in recognizer.", 0.95),
				speech.FinalResult("Configure a speech backend to practice with your own voice.", 0.95),
			)
		}, nil
	default:
		return nil, fmt.Errorf("unknown speech backend %q (want deepgram, exec, or mock)", backend)
	}
}

func promptGenerator(cfg model.Config) prompt.Generator {
	backend := cfg.PromptBackend
	if backend == "" {
		backend = "static"
	}
	if backend == "ollama" {
		return prompt.NewOllamaGenerator(cfg.OllamaURL, cfg.OllamaModel)
	}
	return prompt.NewStaticGenerator()
}

func deepgramKey(fileCfg config.FileConfig) string {
	if key := strings.TrimSpace(os.Getenv("DEEPGRAM_API_KEY")); key != "" {
		return key
	}
	if fileCfg.Speech.DeepgramKey != nil {
		return strings.TrimSpace(*fileCfg.Speech.DeepgramKey)
	}
	return ""
}

// openLogger writes structured logs to the XDG state dir so the TUI screen
// stays clean.
func openLogger() (*log.Logger, func(), error) {
	path := config.DefaultLogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger := log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	})
	return logger, func() { _ = f.Close() }, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show practice stats",
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsUser, "user", "", "username (default: current session)")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	if statsSince != "" {
		if _, err := time.ParseInLocation("2006-01-02", statsSince, time.Local); err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
	}

	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	storePath := config.DefaultDBPath()
	if fileCfg.Practice.DBPath != nil && *fileCfg.Practice.DBPath != "" {
		storePath = *fileCfg.Practice.DBPath
	}
	st, err := store.Open(storePath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		_ = st.Close()
	}()

	ctx := context.Background()
	username := statsUser
	if username == "" {
		user, err := st.GetCurrentUser(ctx)
		if err != nil {
			return fmt.Errorf("failed to read session: %w", err)
		}
		if user == nil {
			return fmt.Errorf("no user logged in; pass --user")
		}
		username = user.Username
	}

	logs, err := st.ListActivity(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to load activity: %w", err)
	}
	report := progress.BuildReport(logs, model.StatsConfig{
		Username:    username,
		Since:       statsSince,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
	}, progress.Today())

	width := 0
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width = w
	}
	return renderStats(cmd.OutOrStdout(), report, statsCurveWindow, width)
}

func renderStats(w io.Writer, report progress.Report, curveWindow, width int) error {
	return progress.RenderReport(w, report, curveWindow, width)
}

func newUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List accounts with their current streaks",
		Args:  cobra.NoArgs,
		RunE:  runUsersCmd,
	}
}

func runUsersCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	storePath := config.DefaultDBPath()
	if fileCfg.Practice.DBPath != nil && *fileCfg.Practice.DBPath != "" {
		storePath = *fileCfg.Practice.DBPath
	}
	st, err := store.Open(storePath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		_ = st.Close()
	}()

	ctx := context.Background()
	users, err := st.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	if len(users) == 0 {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "No accounts yet.")
		return err
	}
	for _, user := range users {
		data, err := st.GetUserData(ctx, user.Username)
		if err != nil {
			return fmt.Errorf("failed to load user data: %w", err)
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>  streak %d\n",
			user.Username, user.Email, data.Streak); err != nil {
			return err
		}
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyStringSliceConfig(cmd *cobra.Command, name string, target *[]string, value *[]string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = append([]string(nil), (*value)...)
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# prospeech configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# locale = %q                            # Speech recognition locale
# filler-words = ["um", "uh", "like"]    # Fillers to count
# db-path = ""                           # Database path (default XDG data dir)

[speech]
# backend = "deepgram"                   # deepgram, exec, or mock
# deepgram-key = ""                      # Or set DEEPGRAM_API_KEY
# deepgram-model = %q
# command = ""                           # Recognizer command for the exec backend
# record-command = ""                    # Microphone command for the deepgram backend

[prompt]
# backend = "static"                     # ollama or static
# ollama-url = %q
# ollama-model = %q
`,
		defaultLocale,
		defaultDeepgramModel,
		defaultOllamaURL,
		defaultOllamaModel,
	)
}

func validateConfig(cfg model.Config) error {
	if strings.TrimSpace(cfg.Locale) == "" {
		return fmt.Errorf("--locale must not be empty")
	}
	switch cfg.SpeechBackend {
	case "", "deepgram", "exec", "mock":
	default:
		return fmt.Errorf("unknown speech backend %q (want deepgram, exec, or mock)", cfg.SpeechBackend)
	}
	switch cfg.PromptBackend {
	case "", "ollama", "static":
	default:
		return fmt.Errorf("unknown prompt backend %q (want ollama or static)", cfg.PromptBackend)
	}
	if cfg.PromptBackend == "ollama" && strings.TrimSpace(cfg.OllamaURL) == "" {
		return fmt.Errorf("--ollama-url must not be empty")
	}
	return nil
}
