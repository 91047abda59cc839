package entry

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/packweigh/internal/domain/models"
)

// ErrMissingIdentifier is returned by Confirm when the barcode or drug name is empty.
var ErrMissingIdentifier = errors.New(models.MessageMissingIdentifier)

// ApplyAction folds a reading into every numeric field of p. Record overwrites
// and Add increments; identifying fields are never touched. An unrecognised
// action leaves p unchanged.
func ApplyAction(p models.PendingEntry, action models.Action, r models.Reading) models.PendingEntry {
	switch action {
	case models.ActionRecord:
		p.WeightBox = r.WeightBox
		p.WeightStrip = r.WeightStrip
		p.WeightTablet = r.WeightTablet
		p.BulkQuantity = r.BulkQuantity
	case models.ActionAdd:
		p.WeightBox = addWeight(p.WeightBox, r.WeightBox)
		p.WeightStrip = addWeight(p.WeightStrip, r.WeightStrip)
		p.WeightTablet = addWeight(p.WeightTablet, r.WeightTablet)
		p.BulkQuantity += r.BulkQuantity
	}
	return p
}

// ApplyFieldAction is ApplyAction restricted to a single field, matching the
// per-field Record/Add buttons on the form. Bulk quantity truncates value.
func ApplyFieldAction(p models.PendingEntry, action models.Action, field models.Field, value float64) models.PendingEntry {
	if action != models.ActionRecord && action != models.ActionAdd {
		return p
	}
	add := action == models.ActionAdd

	switch field {
	case models.FieldBox:
		p.WeightBox = fold(p.WeightBox, value, add)
	case models.FieldStrip:
		p.WeightStrip = fold(p.WeightStrip, value, add)
	case models.FieldTablet:
		p.WeightTablet = fold(p.WeightTablet, value, add)
	case models.FieldBulk:
		if add {
			p.BulkQuantity += int(value)
		} else {
			p.BulkQuantity = int(value)
		}
	}
	return p
}

// SetIdentity sets the identifying fields from the text inputs.
// Line breaks are folded to a space; both fields are single-line.
func SetIdentity(p models.PendingEntry, barcode, drugName string) models.PendingEntry {
	p.Barcode = singleLine(barcode)
	p.DrugName = singleLine(drugName)
	return p
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

func singleLine(s string) string {
	return lineBreaks.Replace(s)
}

// Confirm commits the pending entry of s. On success the snapshot is appended
// to the table and the pending entry is reset to its defaults. On failure s is
// returned as given together with ErrMissingIdentifier.
func Confirm(s models.Session, at time.Time) (models.Session, models.Entry, error) {
	if strings.TrimSpace(s.Pending.Barcode) == "" || strings.TrimSpace(s.Pending.DrugName) == "" {
		return s, models.Entry{}, ErrMissingIdentifier
	}

	next, committed := s.Commit(at)
	return next, committed, nil
}

func fold(current, value float64, add bool) float64 {
	if add {
		return addWeight(current, value)
	}
	return value
}

// addWeight sums in decimal so repeated scale readings do not pick up binary
// rounding noise (0.1 + 0.2 stays 0.3). decimal cannot hold NaN or ±Inf, so
// those fall back to float addition.
func addWeight(a, b float64) float64 {
	if !finite(a) || !finite(b) {
		return a + b
	}
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).InexactFloat64()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
