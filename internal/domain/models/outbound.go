package models

// Notice levels shown above the entry form.
const (
	NoticeSuccess = "success"
	NoticeError   = "error"
)

// User-visible messages.
const (
	MessageConfirmed         = "Entry confirmed and added to the datasheet!"
	MessageMissingIdentifier = "Please fill in Barcode and Drug Name."
)

// Notice is a one-shot message rendered after a form submit.
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// IdentityRequest sets the identifying fields of the pending entry.
type IdentityRequest struct {
	Barcode  string `json:"barcode"`
	DrugName string `json:"drugName"`
}

// ActionRequest applies a reading through the JSON API. When Field is set only
// that field is touched and Value carries the reading.
type ActionRequest struct {
	Action  string  `json:"action" binding:"required"`
	Field   string  `json:"field"`
	Value   float64 `json:"value"`
	Reading Reading `json:"reading"`
}
