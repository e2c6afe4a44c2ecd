// Package export persists mining results as JSON and CSV.
//
// The JSON form is a complete run document: a generated run identifier,
// timing, the effective query, and every candidate record. The CSV form
// flattens the same candidates into one row per removed dependency for
// spreadsheet and dataframe consumption. Both can be re-read by
// downstream merge tooling; the run identifier ties the two files to
// the same pass.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AndreHyodo/depmine/pkg/miner"
)

// Run is one mining pass and its results.
type Run struct {
	ID         string            `json:"run_id"`
	Query      string            `json:"query"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Candidates []miner.Candidate `json:"candidates"`
}

// NewRun creates a Run with a fresh identifier.
func NewRun(query string, startedAt time.Time, candidates []miner.Candidate) *Run {
	return &Run{
		ID:         uuid.NewString(),
		Query:      query,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
		Candidates: candidates,
	}
}

// WriteJSON writes the run document to w, indented.
func (r *Run) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode run: %w", err)
	}
	return nil
}

// Survey is one survey pass: the qualifying targets with their
// dependency and advisory summaries.
type Survey struct {
	ID          string         `json:"run_id"`
	Query       string         `json:"query"`
	GeneratedAt time.Time      `json:"generated_at"`
	Targets     []miner.Target `json:"targets"`
}

// NewSurvey creates a Survey with a fresh identifier.
func NewSurvey(query string, targets []miner.Target) *Survey {
	return &Survey{
		ID:          uuid.NewString(),
		Query:       query,
		GeneratedAt: time.Now(),
		Targets:     targets,
	}
}

// WriteJSON writes the survey document to w, indented.
func (s *Survey) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode survey: %w", err)
	}
	return nil
}

// SaveJSON writes the survey document to a file.
func (s *Survey) SaveJSON(path string) error {
	return save(path, s.WriteJSON)
}

// csvHeader is the flattened candidate column set.
var csvHeader = []string{
	"repo",
	"commit",
	"parent",
	"commit_message",
	"commit_date",
	"removed_dep",
	"versions_before",
	"versions_after",
	"file",
	"cve_count",
	"cve_ids",
	"loc_before",
	"avg_complexity_before",
	"files_before",
	"loc_after",
	"avg_complexity_after",
	"files_after",
}

// WriteCSV writes one row per candidate to w. Vulnerability identifiers
// are joined with semicolons inside a single cell.
func (r *Run) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, c := range r.Candidates {
		row := []string{
			c.Repo,
			c.Commit,
			c.Parent,
			c.CommitMessage,
			c.CommitDate.UTC().Format(time.RFC3339),
			c.RemovedDep,
			c.Details.VersionsBefore,
			c.Details.VersionsAfter,
			c.Details.File,
			strconv.Itoa(c.Details.CVECount),
			strings.Join(c.Details.CVEIDs, ";"),
			strconv.Itoa(c.MetricsBefore.LinesOfCode),
			formatFloat(c.MetricsBefore.AvgComplexity),
			strconv.Itoa(c.MetricsBefore.FilesProcessed),
			strconv.Itoa(c.MetricsAfter.LinesOfCode),
			formatFloat(c.MetricsAfter.AvgComplexity),
			strconv.Itoa(c.MetricsAfter.FilesProcessed),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveJSON writes the run document to a file.
func (r *Run) SaveJSON(path string) error {
	return save(path, r.WriteJSON)
}

// SaveCSV writes the flattened candidates to a file.
func (r *Run) SaveCSV(path string) error {
	return save(path, r.WriteCSV)
}

func save(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
