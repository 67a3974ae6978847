// Package output provides utilities for formatting and displaying analysis reports.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/iwvelando/edgeworth/internal/analysis"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrettyFormat outputs a human-readable rather than machine-readable report.
func PrettyFormat(report *analysis.Report) {
	WritePretty(os.Stdout, report)
}

// WritePretty writes the human-readable report to w.
func WritePretty(w io.Writer, report *analysis.Report) {
	p := message.NewPrinter(language.English)
	params := report.Parameters

	_, _ = fmt.Fprintf(w, "--- Run %s ---\n", report.RunID)
	_, _ = p.Fprintf(w, "alpha=%.4f beta=%.4f endowment A=(%.4f, %.4f) B=(%.4f, %.4f)\n",
		params.Alpha, params.Beta, params.EndowmentA.X1, params.EndowmentA.X2,
		report.Endowment.B.X1, report.Endowment.B.X2)
	_, _ = p.Fprintf(w, "endowment utilities: A=%.6f B=%.6f\n", report.Endowment.UtilityA, report.Endowment.UtilityB)

	_, _ = fmt.Fprintf(w, "\n--- Equilibrium ---\n")
	_, _ = fmt.Fprintf(w, "Guess    | Price        | z1         | z2         | Iterations | Status\n")
	_, _ = fmt.Fprintf(w, "_____    | _____        | __         | __         | __________ | ______\n")
	for _, run := range report.Equilibria {
		status := "converged"
		if !run.Converged {
			status = "not converged"
		}
		_, _ = p.Fprintf(w, "%-8.4f | %-12.8f | %-10.2e | %-10.2e | %-10d | %s\n",
			run.Guess, run.LastPrice, run.ExcessDemandGood1, run.ExcessDemandGood2, run.IterationsUsed, status)
	}
	_, _ = p.Fprintf(w, "analytic price: %.8f\n", report.AnalyticPrice)

	if len(report.Searches) > 0 {
		_, _ = fmt.Fprintf(w, "\n--- Searches ---\n")
		_, _ = fmt.Fprintf(w, "Search | x1A | x2A | uA | uB | Welfare | Price | Evaluations | Notes\n")
		_, _ = fmt.Fprintf(w, "______ | ___ | ___ | __ | __ | _______ | _____ | ___________ | _____\n")
	}
	for _, s := range report.Searches {
		var notes []string
		if s.Failed() {
			notes = append(notes, "error: "+s.Error)
		}
		if s.SetSize > 0 {
			notes = append(notes, p.Sprintf("%d allocations improve on the endowment", s.SetSize))
		}
		notes = append(notes, s.Notes...)
		_, _ = p.Fprintf(w, "%s | %.4f | %.4f | %.6f | %.6f | %.6f | %s | %d | %s\n",
			s.Name, s.X1A, s.X2A, s.UtilityA, s.UtilityB, s.Welfare, priceString(s.Price),
			s.Evaluations, strings.Join(notes, "; "))
	}

	if len(report.Warnings) > 0 {
		_, _ = fmt.Fprintf(w, "\n--- Warnings ---\n")
		for _, warning := range report.Warnings {
			_, _ = fmt.Fprintf(w, "- %s\n", warning)
		}
	}
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(report *analysis.Report) {
	_, _ = io.WriteString(os.Stdout, CsvString(report))
}

// CsvString renders the search summaries of a report as CSV, one row per search.
func CsvString(report *analysis.Report) string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write([]string{"run", "name", "kind", "strategy", "x1A", "x2A", "x1B", "x2B",
		"utilityA", "utilityB", "welfare", "price", "evaluations", "rejected", "iterations", "converged", "error"})
	for _, s := range report.Searches {
		_ = w.Write([]string{
			report.RunID,
			s.Name,
			s.Kind,
			s.Strategy,
			formatFloat(s.X1A),
			formatFloat(s.X2A),
			formatFloat(s.X1B),
			formatFloat(s.X2B),
			formatFloat(s.UtilityA),
			formatFloat(s.UtilityB),
			formatFloat(s.Welfare),
			priceString(s.Price),
			strconv.Itoa(s.Evaluations),
			strconv.Itoa(s.Rejected),
			strconv.Itoa(s.Iterations),
			strconv.FormatBool(s.Converged),
			s.Error,
		})
	}
	w.Flush()
	return b.String()
}

// JSONFormat outputs the report as indented JSON.
func JSONFormat(report *analysis.Report) error {
	return WriteJSON(os.Stdout, report)
}

// WriteJSON writes the report to w as indented JSON.
func WriteJSON(w io.Writer, report *analysis.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 8, 64)
}

func priceString(price *float64) string {
	if price == nil {
		return ""
	}
	return formatFloat(*price)
}
