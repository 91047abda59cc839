package models

import (
	"errors"
	"math"
	"strings"
)

// ErrUnknownAction indicates the action selector held something other than record or add.
var ErrUnknownAction = errors.New("unknown action")

// ErrUnknownField indicates a per-field action named a field that does not exist.
var ErrUnknownField = errors.New("unknown field")

// ErrInvalidReading indicates a reading that is NaN or infinite.
var ErrInvalidReading = errors.New("reading must be a finite number")

// Action enumerates how a new reading is folded into the pending entry.
type Action string

const (
	// ActionRecord overwrites the pending value with the reading.
	ActionRecord Action = "record"
	// ActionAdd increments the pending value by the reading.
	ActionAdd Action = "add"
)

// Field names one numeric column of the pending entry.
type Field string

const (
	FieldBox    Field = "box"
	FieldStrip  Field = "strip"
	FieldTablet Field = "tablet"
	FieldBulk   Field = "bulk"
)

// Reading holds freshly entered values for every numeric field.
type Reading struct {
	WeightBox    float64 `json:"weightBox" form:"weight_box"`
	WeightStrip  float64 `json:"weightStrip" form:"weight_strip"`
	WeightTablet float64 `json:"weightTablet" form:"weight_tablet"`
	BulkQuantity int     `json:"bulkQuantity" form:"bulk_quantity"`
}

// Value returns the reading for a single field.
func (r Reading) Value(f Field) float64 {
	switch f {
	case FieldBox:
		return r.WeightBox
	case FieldStrip:
		return r.WeightStrip
	case FieldTablet:
		return r.WeightTablet
	case FieldBulk:
		return float64(r.BulkQuantity)
	default:
		return 0
	}
}

// Validate rejects readings that cannot be stored, summed or exported.
func (r Reading) Validate() error {
	for _, v := range []float64{r.WeightBox, r.WeightStrip, r.WeightTablet} {
		if err := ValidateValue(v); err != nil {
			return err
		}
	}
	return nil
}

// ValidateValue rejects NaN and ±Inf.
func ValidateValue(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ErrInvalidReading
	}
	return nil
}

// ParseAction derives an Action from a free-form selector value.
func ParseAction(value string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(value))) {
	case ActionRecord:
		return ActionRecord, nil
	case ActionAdd:
		return ActionAdd, nil
	default:
		return "", ErrUnknownAction
	}
}

// ParseField derives a Field from a free-form value.
func ParseField(value string) (Field, error) {
	switch f := Field(strings.ToLower(strings.TrimSpace(value))); f {
	case FieldBox, FieldStrip, FieldTablet, FieldBulk:
		return f, nil
	default:
		return "", ErrUnknownField
	}
}

// Operation is a parsed form submit: either a whole-reading action, a
// single-field action, or a confirm.
type Operation struct {
	Confirm bool
	Action  Action
	Field   Field
}

// ParseOperation reads the value of the submit button pressed on the entry
// form. Accepted shapes are "confirm", "record", "add", "record:<field>" and
// "add:<field>".
func ParseOperation(value string) (Operation, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "confirm" {
		return Operation{Confirm: true}, nil
	}

	head, tail, hasField := strings.Cut(normalized, ":")
	action, err := ParseAction(head)
	if err != nil {
		return Operation{}, err
	}
	op := Operation{Action: action}
	if hasField {
		field, err := ParseField(tail)
		if err != nil {
			return Operation{}, err
		}
		op.Field = field
	}
	return op, nil
}
