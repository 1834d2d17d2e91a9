package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jakechorley/volunteer-match/pkg/core/matcher"
	"github.com/jakechorley/volunteer-match/pkg/core/services"
)

// parseNow returns the reference instant for a ranking call. An empty value means the current time.
func parseNow(value string, clock func() time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return clock().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--now must be RFC3339 (e.g. 2025-03-10T09:00:00Z): %w", err)
	}
	return t, nil
}

// formatReasons renders score contributions as "factor +n.n" pairs
func formatReasons(reasons []matcher.Reason) string {
	if len(reasons) == 0 {
		return "-"
	}
	parts := make([]string, len(reasons))
	for i, r := range reasons {
		parts[i] = fmt.Sprintf("%s +%.1f", r.Factor, r.Contribution)
	}
	return strings.Join(parts, ", ")
}

// formatRejections renders gate counts in a stable order
func formatRejections(rejections map[matcher.Rejection]int) string {
	if len(rejections) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(rejections))
	for k, n := range rejections {
		if n > 0 {
			keys = append(keys, string(k))
		}
	}
	if len(keys) == 0 {
		return "none"
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, rejections[matcher.Rejection(k)])
	}
	return strings.Join(parts, " ")
}

// printRecommendation writes a human-readable ranking for one volunteer
func printRecommendation(w io.Writer, result *services.RecommendResult) {
	if len(result.Results) == 0 {
		fmt.Fprintf(w, "\nNo matching opportunities for volunteer %s.\n", result.VolunteerID)
	} else {
		fmt.Fprintf(w, "\n✓ %d opportunities for volunteer %s", len(result.Results), result.VolunteerID)
		if result.Cached {
			fmt.Fprint(w, " (cached)")
		}
		fmt.Fprint(w, "\n\n")

		for i, r := range result.Results {
			fmt.Fprintf(w, "  %2d. %-20s %5.1f  [%s]\n", i+1, r.OpportunityID, r.Score, formatReasons(r.Reasons))
			for _, reason := range r.Reasons {
				fmt.Fprintf(w, "        - %s\n", reason.Explanation)
			}
		}
	}

	if !result.Cached {
		fmt.Fprintf(w, "\nConsidered: %d  Eligible: %d  Rejected: %s\n",
			result.Considered, result.Eligible, formatRejections(result.Rejections))
	}

	if result.RunID != "" {
		fmt.Fprintf(w, "Saved as run %s\n", result.RunID)
	}

	printWarnings(w, result.Warnings)
	fmt.Fprintln(w)
}

func printWarnings(w io.Writer, warnings []matcher.Warning) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintf(w, "\n⚠️  Skipped %d malformed opportunities:\n", len(warnings))
	for _, warning := range warnings {
		fmt.Fprintf(w, "  ✗ %s\n", warning)
	}
}

// printBatchSummary writes one line per volunteer of a batch run
func printBatchSummary(w io.Writer, result *services.RecommendAllResult) {
	fmt.Fprintf(w, "\n✓ Ranked %d opportunities for %d volunteers\n\n",
		result.OpportunityCount, len(result.Recommendations))

	for _, rec := range result.Recommendations {
		top := "-"
		if len(rec.Results) > 0 {
			top = fmt.Sprintf("%s (%.1f)", rec.Results[0].OpportunityID, rec.Results[0].Score)
		}
		fmt.Fprintf(w, "  %-20s %3d matches  top: %s\n", rec.VolunteerID, len(rec.Results), top)
	}

	if len(result.Skipped) > 0 {
		fmt.Fprintf(w, "\n⚠️  Skipped %d volunteers:\n", len(result.Skipped))
		for _, s := range result.Skipped {
			fmt.Fprintf(w, "  ✗ %s: %v\n", s.VolunteerID, s.Err)
		}
	}
	fmt.Fprintln(w)
}

// printHistory writes persisted runs, newest first
func printHistory(w io.Writer, volunteerID string, runs []services.MatchRun) {
	if len(runs) == 0 {
		fmt.Fprintf(w, "\nNo saved matches for volunteer %s.\n\n", volunteerID)
		return
	}

	fmt.Fprintf(w, "\nMatch history for volunteer %s (%d runs)\n", volunteerID, len(runs))
	for _, run := range runs {
		fmt.Fprintf(w, "\nRun %s  %s\n", run.RunID, run.ComputedAt.Format("2006-01-02 15:04 MST"))
		for _, m := range run.Matches {
			fmt.Fprintf(w, "  %2d. %-20s %5.1f\n", m.Rank, m.OpportunityID, m.Score)
		}
	}
	fmt.Fprintln(w)
}

// jsonResult is the machine-readable form of a ranking
type jsonResult struct {
	VolunteerID string                `json:"volunteerId"`
	RunID       string                `json:"runId,omitempty"`
	Cached      bool                  `json:"cached"`
	Results     []matcher.MatchResult `json:"results"`
	Considered  int                   `json:"considered"`
	Eligible    int                   `json:"eligible"`
	Rejections  map[string]int        `json:"rejections,omitempty"`
	Warnings    []string              `json:"warnings,omitempty"`
}

func writeJSON(w io.Writer, result *services.RecommendResult) error {
	out := jsonResult{
		VolunteerID: result.VolunteerID,
		RunID:       result.RunID,
		Cached:      result.Cached,
		Results:     result.Results,
		Considered:  result.Considered,
		Eligible:    result.Eligible,
	}
	if out.Results == nil {
		out.Results = []matcher.MatchResult{}
	}
	if len(result.Rejections) > 0 {
		out.Rejections = make(map[string]int, len(result.Rejections))
		for k, n := range result.Rejections {
			out.Rejections[string(k)] = n
		}
	}
	for _, warning := range result.Warnings {
		out.Warnings = append(out.Warnings, warning.String())
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}
