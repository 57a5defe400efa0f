// Package output provides utilities for formatting and displaying optimization results.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/iwvelando/park-planner/pkg/constants"
	"github.com/iwvelando/park-planner/pkg/datetime"
	"github.com/iwvelando/park-planner/pkg/optimization"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Write renders result in format to w.
func Write(w io.Writer, format string, result optimization.Result) error {
	switch format {
	case constants.OutputFormatPretty:
		return WritePretty(w, result)
	case constants.OutputFormatCSV:
		return WriteCSV(w, result)
	case constants.OutputFormatJSON:
		return WriteJSON(w, result)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// PrettyFormat outputs a human-readable rather than machine-readable report.
func PrettyFormat(result optimization.Result) {
	_ = WritePretty(os.Stdout, result)
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(result optimization.Result) {
	_ = WriteCSV(os.Stdout, result)
}

// WritePretty writes the human-readable report to w.
func WritePretty(w io.Writer, result optimization.Result) error {
	p := message.NewPrinter(language.English)
	ew := &errWriter{w: w}

	ew.printf(p, "--- Optimization for trip %s (confidence %.1f%%) ---\n", displayTrip(result.TripID), result.Confidence)
	ew.printf(p, "Rank | Strategy  | Score | Crowd reduction | Priority coverage | Pacing balance | Time saved | Confidence\n")
	ew.printf(p, "____ | ________  | _____ | _______________ | _________________ | ______________ | __________ | __________\n")
	for i, alt := range result.Alternatives {
		ew.printf(p, "%4d | %-9s | %5.1f | %14.1f%% | %16.1f%% | %13.1f%% | %10s | %9.1f%%\n",
			i+1, alt.Strategy, alt.Score,
			alt.Benefits.CrowdReductionPercent, alt.Benefits.PriorityCoveragePercent, alt.Benefits.PacingBalancePercent,
			alt.Benefits.EstimatedTimeSaved.String(), alt.Confidence)
	}

	if best, ok := result.Recommended(); ok {
		ew.printf(p, "\n--- Recommended plan: %s ---\n", best.Strategy)
		ew.printf(p, "Date       | Day        | Original   | Recommended | Crowd\n")
		ew.printf(p, "____       | ___        | ________   | ___________ | _____\n")
		original := byDay(result.Original)
		for _, a := range best.Assignments {
			before := original[a.DayID]
			ew.printf(p, "%s | %-10s | %-10s | %-11s | %.1f -> %.1f\n",
				datetime.FormatDate(a.Date), a.DayID, dash(before.DestinationID), dash(a.DestinationID),
				before.CrowdScore, a.CrowdScore)
		}
	}

	if len(result.Reasoning) > 0 {
		ew.printf(p, "\nReasoning:\n")
		for _, line := range result.Reasoning {
			ew.printf(p, "  - %s\n", line)
		}
	}
	if len(result.Warnings) > 0 {
		ew.printf(p, "\nWarnings:\n")
		for _, warning := range result.Warnings {
			if warning.Strategy != "" {
				ew.printf(p, "  - [%s/%s] %s\n", warning.Kind, warning.Strategy, warning.Message)
				continue
			}
			ew.printf(p, "  - [%s] %s\n", warning.Kind, warning.Message)
		}
	}
	return ew.err
}

// WriteCSV writes one row per alternative and day to w.
func WriteCSV(w io.Writer, result optimization.Result) error {
	cw := csv.NewWriter(w)
	header := []string{
		"rank", "alternative", "strategy", "score", "confidence",
		"day", "date", "original destination", "destination", "crowd score", "has forecast",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	original := byDay(result.Original)
	for i, alt := range result.Alternatives {
		for _, a := range alt.Assignments {
			row := []string{
				strconv.Itoa(i + 1),
				alt.ID,
				alt.Strategy,
				strconv.FormatFloat(alt.Score, 'f', 2, 64),
				strconv.FormatFloat(alt.Confidence, 'f', 2, 64),
				a.DayID,
				datetime.FormatDate(a.Date),
				original[a.DayID].DestinationID,
				a.DestinationID,
				strconv.FormatFloat(a.CrowdScore, 'f', 2, 64),
				strconv.FormatBool(a.HasForecast),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the indented JSON form of result to w.
func WriteJSON(w io.Writer, result optimization.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(p *message.Printer, format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = p.Fprintf(e.w, format, args...)
}

func byDay(assignments []optimization.Assignment) map[string]optimization.Assignment {
	out := make(map[string]optimization.Assignment, len(assignments))
	for _, a := range assignments {
		out[a.DayID] = a
	}
	return out
}

func dash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

func displayTrip(id string) string {
	if id == "" {
		return "(unnamed)"
	}
	return id
}
