package sheets

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/packweigh/internal/domain/models"
)

// MirrorHeader is the first row written to an empty mirror sheet.
var MirrorHeader = []interface{}{"Committed At", "Session", "Barcode", "Drug Name", "Weight Box", "Weight Strip", "Weight Tablet", "Bulk Quantity"}

// EntryMirror appends every committed entry as a row of a spreadsheet range.
type EntryMirror struct {
	repo       Repository
	sheetRange string
	logger     *zap.Logger

	mu          sync.Mutex
	headerReady bool
}

// NewEntryMirror wires an EntryMirror on top of a sheets repository.
func NewEntryMirror(repo Repository, sheetRange string, logger *zap.Logger) *EntryMirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EntryMirror{repo: repo, sheetRange: sheetRange, logger: logger}
}

// Name identifies the mirror in logs and responses.
func (m *EntryMirror) Name() string {
	return "sheets"
}

// SaveEntry appends the committed entry, writing the header first if the range is empty.
func (m *EntryMirror) SaveEntry(ctx context.Context, sessionID string, entry models.Entry) error {
	if err := m.ensureHeader(ctx); err != nil {
		return err
	}
	return m.repo.AppendRow(ctx, m.sheetRange, EntryRow(sessionID, entry))
}

// ensureHeader is retried on the next commit when the sheet cannot be reached.
func (m *EntryMirror) ensureHeader(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.headerReady {
		return nil
	}

	rows, err := m.repo.ReadRows(ctx, m.sheetRange)
	if err != nil {
		return fmt.Errorf("check mirror header: %w", err)
	}
	if len(rows) == 0 {
		m.logger.Info("writing header to empty mirror sheet", zap.String("range", m.sheetRange))
		if err := m.repo.AppendRow(ctx, m.sheetRange, MirrorHeader); err != nil {
			return fmt.Errorf("write mirror header: %w", err)
		}
	}
	m.headerReady = true
	return nil
}

// EntryRow projects an entry into the mirror column order.
func EntryRow(sessionID string, entry models.Entry) []interface{} {
	return []interface{}{
		entry.CommittedAt.UTC().Format(time.RFC3339),
		sessionID,
		entry.Barcode,
		entry.DrugName,
		entry.WeightBox,
		entry.WeightStrip,
		entry.WeightTablet,
		entry.BulkQuantity,
	}
}
