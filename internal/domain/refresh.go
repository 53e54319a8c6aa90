package domain

import "time"

// OutputSummary describes one file written by a refresh.
type OutputSummary struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
}

// RefreshEvent announces that a data refresh finished and its outputs are in place.
type RefreshEvent struct {
	RunID       string          `json:"run_id"`
	Input       string          `json:"input"`
	GeneratedAt time.Time       `json:"generated_at"`
	Outputs     []OutputSummary `json:"outputs"`
}

// NewRefreshEvent stamps a refresh event with the current time.
func NewRefreshEvent(runID, input string, outputs []OutputSummary) RefreshEvent {
	return RefreshEvent{
		RunID:       runID,
		Input:       input,
		GeneratedAt: clock.Now().UTC(),
		Outputs:     outputs,
	}
}

// Summarize reports the shape of a frame written to path.
func Summarize(f Frame, path string) OutputSummary {
	return OutputSummary{Name: f.Name, Path: path, Rows: f.Len(), Columns: len(f.Columns)}
}
