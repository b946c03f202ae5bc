package biz

import (
	"reflect"
	"strings"
	"testing"

	utilerrors "github.com/orphadx-io/orphadx/pkg/utils/errors"
)

func TestNormalizer_Parse(t *testing.T) {
	n := NewNormalizer()

	records, skipped, err := n.Parse(strings.NewReader(fixtureXML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if skipped != 1 {
		t.Errorf("expected 1 skipped node, got %d", skipped)
	}

	gbs := records[0]
	if gbs.OrphaCode != "2103" {
		t.Errorf("expected orpha code 2103, got %s", gbs.OrphaCode)
	}
	if gbs.Name != "Síndrome de Guillain-Barré" {
		t.Errorf("unexpected name: %s", gbs.Name)
	}
	if len(gbs.Synonyms) != 1 {
		t.Errorf("expected 1 synonym, got %d", len(gbs.Synonyms))
	}
	want := []string{"hormigueo", "debilidad muscular", "dificultad para respirar"}
	if !reflect.DeepEqual(gbs.ClinicalSigns, want) {
		t.Errorf("unexpected clinical signs: %v", gbs.ClinicalSigns)
	}
	if !strings.Contains(gbs.Definition, "Neuropatía autoinmune") {
		t.Errorf("unexpected definition: %s", gbs.Definition)
	}

	if records[1].OrphaCode != "558" {
		t.Errorf("expected document order preserved, got %s second", records[1].OrphaCode)
	}
}

func TestNormalizer_ParseMalformed(t *testing.T) {
	n := NewNormalizer()

	_, _, err := n.Parse(strings.NewReader("<JDBOR><DisorderList><Disorder>"))
	if err == nil {
		t.Fatal("expected error for malformed XML")
	}
	if !utilerrors.IsCode(err, utilerrors.ErrParse.Code) {
		t.Errorf("expected parse error code, got %v", err)
	}
}

func TestNormalizer_ParseStable(t *testing.T) {
	n := NewNormalizer()

	first, firstSkipped, err := n.Parse(strings.NewReader(fixtureXML))
	if err != nil {
		t.Fatalf("first parse failed: %v", err)
	}
	second, secondSkipped, err := n.Parse(strings.NewReader(fixtureXML))
	if err != nil {
		t.Fatalf("second parse failed: %v", err)
	}

	if firstSkipped != secondSkipped {
		t.Errorf("skip counts differ: %d vs %d", firstSkipped, secondSkipped)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("same input produced different records")
	}
}

func TestNormalizer_ParseFileMissing(t *testing.T) {
	n := NewNormalizer()

	_, _, err := n.ParseFile("/nonexistent/nomenclature.xml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !utilerrors.IsCode(err, utilerrors.ErrParse.Code) {
		t.Errorf("expected parse error code, got %v", err)
	}
}
