package testdata

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed corpus.json
var corpusJSON []byte

// CorpusEntry is a labeled job notification for classification validation.
type CorpusEntry struct {
	Message        string `json:"message"`
	Title          string `json:"title,omitempty"`
	ExpectedStatus string `json:"expected_status"`
	ExpectedJobID  string `json:"expected_job_id,omitempty"`
	Description    string `json:"description"`
}

// LoadCorpus parses the embedded corpus.json and returns all entries.
func LoadCorpus() ([]CorpusEntry, error) {
	var entries []CorpusEntry
	if err := json.Unmarshal(corpusJSON, &entries); err != nil {
		return nil, fmt.Errorf("parse corpus.json: %w", err)
	}
	return entries, nil
}
