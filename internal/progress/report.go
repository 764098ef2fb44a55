package progress

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/MarvglobalStartup/ProSpeech/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Report aggregates activity history for display.
type Report struct {
	Logs     []model.ActivityLog
	Sessions int
	AvgWPM   float64
	BestWPM  float64
	Words    int
	Fillers  int
	Streak   int
}

// BuildReport summarizes activity logs (assumed date-ordered ascending),
// applying the Since/Last filters from cfg.
func BuildReport(logs []model.ActivityLog, cfg model.StatsConfig, today string) Report {
	if cfg.Since != "" {
		filtered := logs[:0:0]
		for _, l := range logs {
			if l.Date >= cfg.Since {
				filtered = append(filtered, l)
			}
		}
		logs = filtered
	}
	if cfg.Last > 0 && len(logs) > cfg.Last {
		logs = logs[len(logs)-cfg.Last:]
	}

	report := Report{Logs: logs, Sessions: len(logs)}
	dates := make([]string, 0, len(logs))
	for _, l := range logs {
		report.AvgWPM += l.Analysis.WPM
		if l.Analysis.WPM > report.BestWPM {
			report.BestWPM = l.Analysis.WPM
		}
		report.Words += l.Analysis.WordCount
		report.Fillers += l.Analysis.FillerCount
		dates = append(dates, l.Date)
	}
	if len(logs) > 0 {
		report.AvgWPM /= float64(len(logs))
	}
	report.Streak = Streak(dates, today)
	return report
}

// WPMSeries returns the per-session WPM values in session order.
func (r Report) WPMSeries() []float64 {
	out := make([]float64, len(r.Logs))
	for i, l := range r.Logs {
		out[i] = l.Analysis.WPM
	}
	return out
}

// FillerRate returns fillers per 100 words across the report window.
func (r Report) FillerRate() float64 {
	if r.Words == 0 {
		return 0
	}
	return float64(r.Fillers) / float64(r.Words) * 100
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderReport prints a plain-text summary suitable for the stats command.
func RenderReport(w io.Writer, report Report, curveWindow, width int) error {
	if report.Sessions == 0 {
		_, err := fmt.Fprintln(w, "No practice sessions found.")
		return err
	}
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", report.Sessions),
		fmt.Sprintf("Streak: %d day(s)", report.Streak),
		fmt.Sprintf("Avg WPM: %.1f", report.AvgWPM),
		fmt.Sprintf("Best WPM: %.1f", report.BestWPM),
		fmt.Sprintf("Words spoken: %d", report.Words),
		fmt.Sprintf("Fillers per 100 words: %.1f", report.FillerRate()),
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	series := MovingAverage(report.WPMSeries(), curveWindow)
	if width > 0 && len(series) > width {
		series = series[len(series)-width:]
	}
	if _, err := fmt.Fprintf(w, "\nWPM trend\n%s\n", Sparkline(series)); err != nil {
		return err
	}
	return nil
}
