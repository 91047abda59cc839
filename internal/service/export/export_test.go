package export_test

import (
	"strings"
	"testing"

	"github.com/mamadbah2/packweigh/internal/domain/models"
	"github.com/mamadbah2/packweigh/internal/service/export"
)

func TestMarshal_HeaderAndRows(t *testing.T) {
	rows := []models.Entry{
		{Barcode: "B1", DrugName: "Aspirin", WeightBox: 1.5, WeightStrip: 0.3, WeightTablet: 0.05, BulkQuantity: 100},
		{Barcode: "B2", DrugName: "Ibuprofen", WeightBox: 3, WeightStrip: 0, WeightTablet: 0.2, BulkQuantity: 0},
	}

	data, err := export.Marshal(rows)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	want := []string{
		"Barcode,Drug Name,Weight Box,Weight Strip,Weight Tablet,Bulk Quantity",
		"B1,Aspirin,1.5,0.3,0.05,100",
		"B2,Ibuprofen,3,0,0.2,0",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q; want %q", i, lines[i], want[i])
		}
	}
}

func TestMarshal_HeaderMatchesColumns(t *testing.T) {
	data, err := export.Marshal([]models.Entry{{Barcode: "x", DrugName: "y"}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	header, _, _ := strings.Cut(string(data), "\n")
	if header != strings.Join(export.Columns, ",") {
		t.Fatalf("header = %q; want %q", header, strings.Join(export.Columns, ","))
	}
}

func TestMarshal_QuotesSpecialCharacters(t *testing.T) {
	rows := []models.Entry{{Barcode: "B,1", DrugName: `Co-codamol "30/500"`}}
	data, err := export.Marshal(rows)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"B,1","Co-codamol ""30/500"""`) {
		t.Fatalf("cells not escaped: %s", data)
	}
}

func TestRoundTrip(t *testing.T) {
	rows := []models.Entry{
		{Barcode: "B1", DrugName: "Aspirin", WeightBox: 1.5, WeightStrip: 0.3, WeightTablet: 0.05, BulkQuantity: 100},
		{Barcode: "B,2", DrugName: "Para\"cetamol", WeightBox: 0.1, WeightStrip: 12.345, WeightTablet: 0.001, BulkQuantity: 7},
		{Barcode: "B3", DrugName: "Amoxicillin 500mg", WeightBox: -1, WeightStrip: 0, WeightTablet: 0, BulkQuantity: -2},
		{Barcode: "B1", DrugName: "Aspirin", WeightBox: 3, WeightStrip: 0.6, WeightTablet: 0.1, BulkQuantity: 200},
	}

	data, err := export.Marshal(rows)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := export.Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if len(got) != len(rows) {
		t.Fatalf("expected %d rows, got %d", len(rows), len(got))
	}
	for i := range rows {
		if got[i] != rows[i] {
			t.Errorf("row %d = %+v; want %+v", i, got[i], rows[i])
		}
	}
}

func TestUnmarshal_Malformed(t *testing.T) {
	data := []byte("Barcode,Drug Name,Weight Box,Weight Strip,Weight Tablet,Bulk Quantity\nB1,Aspirin,heavy,0,0,1\n")
	if _, err := export.Unmarshal(data); err == nil {
		t.Fatal("expected error for non-numeric weight")
	}
}
