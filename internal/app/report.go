package app

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/vk/dqgrid/internal/component"
	"github.com/vk/dqgrid/internal/listener"
)

// Report is the outcome of one run as printed by the CLI.
type Report struct {
	RunID      string                      `json:"run_id"`
	Job        string                      `json:"job"`
	Successful bool                        `json:"successful"`
	Partitions int                         `json:"partitions,omitempty"`
	Results    map[string]component.Result `json:"results"`
	Errors     []string                    `json:"errors,omitempty"`
	Progress   listener.ProgressSnapshot   `json:"progress"`
}

// WriteReport prints the report as indented JSON.
func WriteReport(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
