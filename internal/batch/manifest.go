package batch

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Manifest is written next to the snapshots of a run.
type Manifest struct {
	Solved  int      `json:"solved"`
	Failed  int      `json:"failed"`
	Results []Result `json:"results"`
}

// Summarize counts successes and failures.
func Summarize(results []Result) Manifest {
	m := Manifest{Results: results}
	for _, r := range results {
		if r.Success {
			m.Solved++
		} else {
			m.Failed++
		}
	}
	return m
}

// WriteManifest writes the manifest of results as indented JSON to path.
func WriteManifest(path string, results []Result) error {
	data, err := json.MarshalIndent(Summarize(results), "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
