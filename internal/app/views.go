package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/MarvglobalStartup/ProSpeech/internal/model"
	"github.com/MarvglobalStartup/ProSpeech/internal/progress"
	"github.com/MarvglobalStartup/ProSpeech/internal/speech"
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#45B7D1")).Bold(true)
	subtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	captionStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0")).Italic(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	streakStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	optionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	panelStyle    = lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	metricStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

// View implements tea.Model.
func (m *Model) View() string {
	content := m.renderContent()
	if m.width == 0 || m.height == 0 {
		return content
	}
	header := m.renderHeader()
	body := lipgloss.Place(m.width, m.height-lipgloss.Height(header), lipgloss.Center, lipgloss.Center, content)
	return header + "\n" + body
}

func (m *Model) renderHeader() string {
	left := titleStyle.Render("Pro-Speech")
	if m.currentUser == nil || m.userData == nil {
		return " " + left
	}
	right := streakStyle.Render(fmt.Sprintf("%d day streak", m.userData.Streak))
	pad := 0
	if m.width > 0 {
		pad = m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	}
	if pad < 1 {
		pad = 1
	}
	return " " + left + strings.Repeat(" ", pad) + right
}

// renderContent picks the active screen. The loading overlay wins over
// everything; a pending error wins over every screen except the auth forms,
// which render it inline.
func (m *Model) renderContent() string {
	if m.loading {
		return m.spin.View() + " Preparing your prompt..."
	}
	if m.errMsg != "" && m.view != model.ViewSignUp && m.view != model.ViewLogin {
		return panelStyle.Render(errorStyle.Render(wrapText(m.errMsg, m.contentWidth())) +
			"\n\n" + footerStyle.Render("[enter] Acknowledge"))
	}
	switch m.view {
	case model.ViewLanding:
		return m.renderLanding()
	case model.ViewSignUp:
		return m.renderSignUp()
	case model.ViewLogin:
		return m.renderLogin()
	case model.ViewHome:
		return m.renderHome()
	case model.ViewGuide:
		return m.renderGuide()
	case model.ViewProgress:
		return m.renderProgress()
	case model.ViewPracticeSetup:
		return m.renderSetup()
	case model.ViewPracticeSession:
		return m.renderSession()
	default:
		return m.renderLanding()
	}
}

func (m *Model) contentWidth() int {
	if m.width == 0 {
		return 72
	}
	w := int(float64(m.width) * 0.70)
	if w < 20 {
		w = 20
	}
	return w
}

func (m *Model) renderLanding() string {
	lines := []string{
		titleStyle.Render("Pro-Speech"),
		subtitleStyle.Render("Practice speaking. Measure your delivery. Keep the streak alive."),
		"",
		"[s] Sign up    [l] Log in    [g] Guide    [q] Quit",
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderSignUp() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Create your account") + "\n\n")
	for i := range m.signupInputs {
		b.WriteString(m.signupInputs[i].View() + "\n")
	}
	if m.errMsg != "" {
		b.WriteString("\n" + errorStyle.Render(wrapText(m.errMsg, m.contentWidth())) + "\n")
	}
	b.WriteString("\n" + footerStyle.Render("[tab] next field  [enter] submit  [esc] back"))
	return b.String()
}

func (m *Model) renderLogin() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Welcome back") + "\n\n")
	b.WriteString(m.loginInput.View() + "\n")
	if m.errMsg != "" {
		b.WriteString("\n" + errorStyle.Render(wrapText(m.errMsg, m.contentWidth())) + "\n")
	}
	b.WriteString("\n" + footerStyle.Render("[enter] log in  [esc] back"))
	return b.String()
}

func (m *Model) renderHome() string {
	if m.userData == nil {
		return "Loading user data..."
	}
	greeting := fmt.Sprintf("Welcome back, %s.", m.userData.Username)
	if m.userData.IsNewUser {
		greeting = fmt.Sprintf("Welcome, %s! Start your first practice session.", m.userData.Username)
	}
	lines := []string{
		titleStyle.Render(greeting),
		subtitleStyle.Render(fmt.Sprintf("Current streak: %d day(s)", m.userData.Streak)),
		"",
		"[p] Practice    [r] Progress    [g] Guide    [l] Log out    [q] Quit",
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderGuide() string {
	tips := []string{
		"Slow down. Most people speak faster than they think; 120-150 WPM reads as confident.",
		"Replace fillers with pauses. A silent beat lands better than \"um\" or \"like\".",
		"Structure answers: point, reason, example, point. Listeners retain structure.",
		"Finish sentences. Trailing off reads as uncertainty even when the content is right.",
		"Practice daily. The streak exists because consistency beats intensity.",
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Speaking guide") + "\n\n")
	for _, tip := range tips {
		b.WriteString("- " + wrapText(tip, m.contentWidth()) + "\n")
	}
	b.WriteString("\n" + footerStyle.Render("[esc] back"))
	return b.String()
}

func (m *Model) renderProgress() string {
	report := progress.BuildReport(m.activity, model.StatsConfig{}, progress.Today())
	if report.Sessions == 0 {
		return titleStyle.Render("Progress") + "\n\n" +
			subtitleStyle.Render("No practice sessions yet. Finish one to see your history here.") +
			"\n\n" + footerStyle.Render("[esc] back")
	}

	columns := []table.Column{
		{Title: "Date", Width: 10},
		{Title: "Exercise", Width: 13},
		{Title: "Interest", Width: 11},
		{Title: "WPM", Width: 6},
		{Title: "Fillers", Width: 7},
		{Title: "Words", Width: 6},
	}
	logs := report.Logs
	if len(logs) > 10 {
		logs = logs[len(logs)-10:]
	}
	rows := make([]table.Row, 0, len(logs))
	for i := len(logs) - 1; i >= 0; i-- {
		l := logs[i]
		rows = append(rows, table.Row{
			l.Date,
			l.ExerciseType,
			l.Interest,
			fmt.Sprintf("%.0f", l.Analysis.WPM),
			fmt.Sprintf("%d", l.Analysis.FillerCount),
			fmt.Sprintf("%d", l.Analysis.WordCount),
		})
	}
	historyTable := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(len(rows)+1),
	)

	summary := fmt.Sprintf("Sessions %d   Streak %d   Avg %.1f WPM   Best %.1f WPM   Fillers/100w %.1f",
		report.Sessions, report.Streak, report.AvgWPM, report.BestWPM, report.FillerRate())
	trend := progress.Sparkline(progress.MovingAverage(report.WPMSeries(), 3))

	return titleStyle.Render("Progress") + "\n\n" +
		subtitleStyle.Render(summary) + "\n\n" +
		historyTable.View() + "\n\n" +
		subtitleStyle.Render("WPM trend ") + trend + "\n\n" +
		footerStyle.Render("[esc] back")
}

func (m *Model) renderSetup() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Set up your practice") + "\n\n")
	b.WriteString(m.renderChoiceRow("Exercise", exerciseTypes, m.setupExercise, m.setupRow == 0) + "\n")
	b.WriteString(m.renderChoiceRow("Interest", interests, m.setupInterest, m.setupRow == 1) + "\n")
	b.WriteString("\n" + footerStyle.Render("[arrows] choose  [enter] start  [esc] back"))
	return b.String()
}

func (m *Model) renderChoiceRow(label string, options []string, selected int, active bool) string {
	marker := "  "
	if active {
		marker = "> "
	}
	parts := make([]string, len(options))
	for i, option := range options {
		if i == selected {
			parts[i] = selectedStyle.Render("[" + option + "]")
		} else {
			parts[i] = optionStyle.Render(option)
		}
	}
	return marker + label + ": " + strings.Join(parts, "  ")
}

func (m *Model) renderSession() string {
	width := m.contentWidth()
	var b strings.Builder
	b.WriteString(subtitleStyle.Render(fmt.Sprintf("%s · %s", m.exerciseType, m.interest)) + "\n\n")
	b.WriteString(promptStyle.Render(wrapText(m.promptText, width)) + "\n\n")

	switch {
	case m.capturing:
		b.WriteString(fmt.Sprintf("● Recording  %.0fs\n\n", m.adapter.ElapsedSeconds()))
		caption := m.adapter.Caption()
		if caption == "" {
			caption = "Listening..."
		}
		b.WriteString(captionStyle.Render(wrapText(caption, width)) + "\n\n")
		b.WriteString(footerStyle.Render("[space] stop  [esc] abandon"))
	case m.captureErr != nil && !m.captureErr.Recoverable():
		b.WriteString(errorStyle.Render(wrapText(
			"Microphone access was denied. Grant permission to your audio device and start a new session.", width)) + "\n\n")
		b.WriteString(footerStyle.Render("[enter] home"))
	case m.captureErr != nil:
		b.WriteString(errorStyle.Render(wrapText(captureErrorHint(m.captureErr), width)) + "\n\n")
		b.WriteString(footerStyle.Render("[r] retry  [esc] home"))
	case m.analysis != nil:
		b.WriteString(m.renderFeedback(width))
	default:
		b.WriteString("Press space when you are ready to speak.\n\n")
		b.WriteString(footerStyle.Render("[space] start  [esc] back"))
	}
	return b.String()
}

func captureErrorHint(err *speech.CaptureError) string {
	switch err.Code {
	case speech.CodeNoSpeech:
		return "No speech was detected. Move closer to the microphone and try again."
	case speech.CodeAudioCapture:
		return "The microphone could not be read. Check your audio device and try again."
	default:
		return "Speech capture failed: " + err.Message
	}
}

func (m *Model) renderFeedback(width int) string {
	var b strings.Builder
	b.WriteString(metricStyle.Render("Session complete") + "\n\n")
	b.WriteString(fmt.Sprintf("  Speaking rate  %s WPM\n", metricStyle.Render(fmt.Sprintf("%.0f", m.analysis.WPM))))
	b.WriteString(fmt.Sprintf("  Words          %s\n", metricStyle.Render(fmt.Sprintf("%d", m.analysis.WordCount))))
	b.WriteString(fmt.Sprintf("  Filler words   %s\n\n", metricStyle.Render(fmt.Sprintf("%d", m.analysis.FillerCount))))
	transcript := m.adapter.Transcript()
	if transcript != "" {
		b.WriteString(captionStyle.Render(wrapText(transcript, width)) + "\n\n")
	}
	if m.userData != nil && m.recorded {
		b.WriteString(streakStyle.Render(fmt.Sprintf("Streak: %d day(s)", m.userData.Streak)) + "\n\n")
	}
	b.WriteString(footerStyle.Render("[enter] home"))
	return b.String()
}
