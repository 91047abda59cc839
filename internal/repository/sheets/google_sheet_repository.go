package sheets

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/packweigh/internal/config"
)

var (
	// ErrEmptyRange is returned when a mirror is configured without an A1 range.
	ErrEmptyRange = errors.New("sheet range must not be empty")
	// ErrNoSpreadsheet is returned when the mirror has no spreadsheet id to write to.
	ErrNoSpreadsheet = errors.New("spreadsheet id must not be empty")
)

const (
	// Barcodes keep their leading zeros only when written RAW.
	valueInput  = "RAW"
	insertRows  = "INSERT_ROWS"
	rowsMajor   = "ROWS"
	unformatted = "UNFORMATTED_VALUE"
)

// Repository is the slice of the Sheets API the entry mirror needs.
type Repository interface {
	AppendRow(ctx context.Context, sheetRange string, row []interface{}) error
	ReadRows(ctx context.Context, sheetRange string) ([][]interface{}, error)
}

// GoogleSheetRepository appends committed-entry rows through the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds the mirror's Sheets client.
// Extra client options are appended after the credentials option.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger, opts ...option.ClientOption) (*GoogleSheetRepository, error) {
	if cfg.SpreadsheetID == "" {
		return nil, ErrNoSpreadsheet
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOpts := []option.ClientOption{option.WithScopes(sheetsapi.SpreadsheetsScope)}
	if cfg.CredentialsPath != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsPath))
	}
	clientOpts = append(clientOpts, opts...)

	service, err := sheetsapi.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialize entry mirror sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger.With(zap.String("spreadsheet", cfg.SpreadsheetID)),
	}, nil
}

// AppendRow adds one row below the last non-empty row of sheetRange.
func (r *GoogleSheetRepository) AppendRow(ctx context.Context, sheetRange string, row []interface{}) error {
	if sheetRange == "" {
		return ErrEmptyRange
	}

	payload := &sheetsapi.ValueRange{MajorDimension: rowsMajor, Values: [][]interface{}{row}}
	resp, err := r.service.Spreadsheets.Values.Append(r.spreadsheetID, sheetRange, payload).
		ValueInputOption(valueInput).
		InsertDataOption(insertRows).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append entry row to %s: %w", sheetRange, err)
	}

	updated := sheetRange
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		updated = resp.Updates.UpdatedRange
	}
	r.logger.Debug("entry row appended", zap.String("range", updated), zap.Int("cells", len(row)))
	return nil
}

// ReadRows returns the raw cell values of sheetRange, row by row. An empty
// sheet yields no rows and no error.
func (r *GoogleSheetRepository) ReadRows(ctx context.Context, sheetRange string) ([][]interface{}, error) {
	if sheetRange == "" {
		return nil, ErrEmptyRange
	}

	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, sheetRange).
		MajorDimension(rowsMajor).
		ValueRenderOption(unformatted).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read entry rows from %s: %w", sheetRange, err)
	}

	r.logger.Debug("entry rows read", zap.String("range", resp.Range), zap.Int("rows", len(resp.Values)))
	return resp.Values, nil
}
