// Package model defines shared data structures for the diagnosis service.
package model

import "time"

// DiseaseRecord is a normalized rare-disease entry extracted from a
// nomenclature document.
type DiseaseRecord struct {
	// OrphaCode is the stable identifier of the disease.
	OrphaCode string `json:"orpha_code"`
	// Name is the preferred disease name.
	Name string `json:"name"`
	// Synonyms lists alternative names.
	Synonyms []string `json:"synonyms,omitempty"`
	// ClinicalSigns lists associated clinical signs.
	ClinicalSigns []string `json:"clinical_signs,omitempty"`
	// Definition is the free-text description, may be empty.
	Definition string `json:"definition,omitempty"`
}

// Match is a single evidence hit returned to the caller.
type Match struct {
	// OrphaCode identifies the source disease record.
	OrphaCode string `json:"orpha_code"`
	// Name is the disease name of the source record.
	Name string `json:"name"`
	// Excerpt is the matched chunk text.
	Excerpt string `json:"excerpt"`
	// Score is the similarity score, higher is better.
	Score float32 `json:"score"`
}

// DiagnosisResult is the outcome of a symptom query.
type DiagnosisResult struct {
	// Diagnosis is the LLM-generated assessment. Empty when the service
	// degraded to an evidence-only response.
	Diagnosis string `json:"diagnosis"`
	// Matches holds the supporting evidence, best match first.
	Matches []Match `json:"matches"`
	// Degraded is true when the LLM call failed and only evidence is returned.
	Degraded bool `json:"degraded,omitempty"`
}

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	// Source is the path of the ingested document.
	Source string `json:"source"`
	// Records is the number of disease records indexed.
	Records int `json:"records"`
	// Skipped is the number of records dropped during normalization.
	Skipped int `json:"skipped"`
	// Chunks is the number of chunks inserted into the index.
	Chunks int `json:"chunks"`
	// Duration is the wall-clock time of the run.
	Duration time.Duration `json:"duration"`
	// Errors lists non-fatal errors encountered during the run.
	Errors []string `json:"errors,omitempty"`
}
