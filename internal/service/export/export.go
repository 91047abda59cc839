// Package export projects the result table to and from the downloadable CSV format.
package export

import (
	"fmt"

	"github.com/gocarina/gocsv"

	"github.com/mamadbah2/packweigh/internal/domain/models"
)

const (
	// FileName is the name offered to the browser for the download.
	FileName = "data_entry_table.csv"
	// ContentType is served with the download.
	ContentType = "text/csv; charset=utf-8"
)

// Columns is the fixed header row, in order.
var Columns = []string{"Barcode", "Drug Name", "Weight Box", "Weight Strip", "Weight Tablet", "Bulk Quantity"}

// Marshal renders rows as comma-separated UTF-8 text with a header row,
// one line per entry in the order given.
func Marshal(rows []models.Entry) ([]byte, error) {
	if rows == nil {
		rows = []models.Entry{}
	}
	data, err := gocsv.MarshalBytes(&rows)
	if err != nil {
		return nil, fmt.Errorf("marshal result table: %w", err)
	}
	return data, nil
}

// Unmarshal parses text produced by Marshal back into entries, preserving order.
func Unmarshal(data []byte) ([]models.Entry, error) {
	var rows []models.Entry
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, fmt.Errorf("parse result table: %w", err)
	}
	return rows, nil
}
