package reporting

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// OutputFormat is the progress reporter's rendering mode.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatTUI  OutputFormat = "tui"
)

// LiveState is a point-in-time snapshot of a running proxy, printed
// periodically by the CLI's run loop.
type LiveState struct {
	RunID     string
	Scenario  string
	StartTime time.Time
	Elapsed   time.Duration

	Counters PacketCounters

	Bandwidth  float64
	Latency    float64
	Loss       float64
	Corruption float64
}

// ProgressReporter renders LiveState snapshots and the final RunSummary
// in one of three formats.
type ProgressReporter struct {
	format OutputFormat
	logger *Logger
}

// NewProgressReporter creates a new progress reporter.
func NewProgressReporter(format OutputFormat, logger *Logger) *ProgressReporter {
	return &ProgressReporter{
		format: format,
		logger: logger,
	}
}

// ReportState reports the current proxy state.
func (pr *ProgressReporter) ReportState(state LiveState) {
	switch pr.format {
	case FormatJSON:
		pr.reportJSON(state)
	case FormatTUI:
		pr.reportTUI(state)
	default:
		pr.reportText(state)
	}
}

// ReportRunCompleted reports the final run summary on shutdown.
func (pr *ProgressReporter) ReportRunCompleted(summary *RunSummary) {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{
			"event":   "run_completed",
			"summary": summary,
		})
		fmt.Println(string(data))
	case FormatTUI:
		pr.clearLine()
		pr.printSummary(summary)
	default:
		pr.printSummary(summary)
	}
}

func (pr *ProgressReporter) reportText(state LiveState) {
	fmt.Printf("[%s] %s elapsed=%s recv=%d sent=%d dropped=%d corrupted=%d bw=%.0f lat=%.3f loss=%.3f corr=%.3f\n",
		time.Now().Format("15:04:05"),
		state.Scenario,
		state.Elapsed.Round(time.Second),
		state.Counters.Received, state.Counters.Sent, state.Counters.Dropped, state.Counters.Corrupted,
		state.Bandwidth, state.Latency, state.Loss, state.Corruption,
	)
}

func (pr *ProgressReporter) reportJSON(state LiveState) {
	data, err := json.Marshal(state)
	if err != nil {
		pr.logger.Error("Failed to marshal state", "error", err)
		return
	}
	fmt.Println(string(data))
}

func (pr *ProgressReporter) reportTUI(state LiveState) {
	pr.clearScreen()
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("   netimpair — %s\n", state.Scenario)
	fmt.Printf("   Run: %s\n", state.RunID)
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println()
	fmt.Printf("⏱️  Elapsed: %s\n", state.Elapsed.Round(time.Second))
	fmt.Printf("📦 Received: %d  Sent: %d  Dropped: %d  Corrupted: %d\n",
		state.Counters.Received, state.Counters.Sent, state.Counters.Dropped, state.Counters.Corrupted)
	fmt.Printf("📈 Bandwidth: %.0f B/s  Latency: %.3fs  Loss: %.3f  Corruption: %.3f\n",
		state.Bandwidth, state.Latency, state.Loss, state.Corruption)
	fmt.Println(strings.Repeat("─", 60))
}

func (pr *ProgressReporter) printSummary(summary *RunSummary) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("   RUN SUMMARY")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("  Project:  %s\n", summary.Project)
	fmt.Printf("  Scenario: %s\n", summary.Scenario)
	fmt.Printf("  Run ID:   %s\n", summary.RunID)
	fmt.Printf("  Status:   %s\n", summary.Status)
	fmt.Printf("  Duration: %s\n", summary.Duration)
	fmt.Printf("  Packets:  received=%d sent=%d dropped=%d corrupted=%d\n",
		summary.Counters.Received, summary.Counters.Sent, summary.Counters.Dropped, summary.Counters.Corrupted)
	if len(summary.Errors) > 0 {
		fmt.Printf("  Errors:   %s\n", strings.Join(summary.Errors, "; "))
	}
	fmt.Println(strings.Repeat("=", 60))
}

func (pr *ProgressReporter) clearScreen() {
	fmt.Print("\033[2J\033[H")
}

func (pr *ProgressReporter) clearLine() {
	fmt.Print("\033[K")
}
