package biz

import (
	"encoding/xml"
	"io"
	"os"
	"strings"

	"github.com/kart-io/logger"

	"github.com/orphadx-io/orphadx/internal/model"
	"github.com/orphadx-io/orphadx/pkg/utils/errors"
)

// jdborDocument mirrors the JDBOR nomenclature XML layout. Only the fields
// the pipeline consumes are mapped.
type jdborDocument struct {
	XMLName      xml.Name        `xml:"JDBOR"`
	DisorderList []jdborDisorder `xml:"DisorderList>Disorder"`
}

type jdborDisorder struct {
	OrphaCode     string   `xml:"OrphaCode"`
	Name          string   `xml:"Name"`
	Synonyms      []string `xml:"SynonymList>Synonym"`
	ClinicalSigns []string `xml:"ClinicalSignList>ClinicalSign>Name"`
	TextSections  []string `xml:"SummaryInformation>TextSection>Contents"`
}

// Normalizer parses nomenclature XML documents into disease records.
type Normalizer struct{}

// NewNormalizer creates a normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// ParseFile parses the XML document at path. See Parse.
func (n *Normalizer) ParseFile(path string) ([]*model.DiseaseRecord, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, errors.ErrParse.WithCause(err)
	}
	defer f.Close()

	return n.Parse(f)
}

// Parse reads a JDBOR XML document and returns the disease records in
// document order, plus the number of disorder nodes that were skipped for
// missing an identifier or a name. The same input always yields the same
// records in the same order.
func (n *Normalizer) Parse(r io.Reader) ([]*model.DiseaseRecord, int, error) {
	var doc jdborDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, 0, errors.ErrParse.WithCause(err)
	}

	records := make([]*model.DiseaseRecord, 0, len(doc.DisorderList))
	skipped := 0

	for _, d := range doc.DisorderList {
		code := strings.TrimSpace(d.OrphaCode)
		name := strings.TrimSpace(d.Name)
		if code == "" || name == "" {
			skipped++
			logger.Debugw("skipping disorder node with missing fields",
				"orpha_code", code,
				"name", name)
			continue
		}

		records = append(records, &model.DiseaseRecord{
			OrphaCode:     code,
			Name:          name,
			Synonyms:      trimNonEmpty(d.Synonyms),
			ClinicalSigns: trimNonEmpty(d.ClinicalSigns),
			Definition:    strings.TrimSpace(strings.Join(d.TextSections, " ")),
		})
	}

	logger.Infow("normalized nomenclature document",
		"records", len(records),
		"skipped", skipped)

	return records, skipped, nil
}

func trimNonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
