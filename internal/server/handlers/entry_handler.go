package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/packweigh/internal/domain/models"
	"github.com/mamadbah2/packweigh/internal/service/entry"
	"github.com/mamadbah2/packweigh/internal/service/export"
	"github.com/mamadbah2/packweigh/internal/service/session"
	"github.com/mamadbah2/packweigh/pkg/clients/lookup"
)

// PageTemplate is the name of the entry form template.
const PageTemplate = "entry.html"

const sessionKey = "session_id"

// EntryHandler serves the entry form, the CSV download and the JSON API.
type EntryHandler struct {
	svc    *entry.Service
	cookie string
	maxAge int
	logger *zap.Logger
}

// NewEntryHandler constructs the HTTP handler adapter. cookieMaxAge is in seconds.
func NewEntryHandler(svc *entry.Service, cookieName string, cookieMaxAge int, logger *zap.Logger) *EntryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EntryHandler{svc: svc, cookie: cookieName, maxAge: cookieMaxAge, logger: logger}
}

// Session makes sure every request carries a live session id, starting a new
// one when the cookie is missing or points to a swept session.
func (h *EntryHandler) Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(h.cookie)
		if err == nil {
			if _, err = h.svc.Snapshot(id); err != nil {
				h.logger.Debug("session cookie is stale", zap.String("session", id))
			}
		}
		if err != nil {
			id = h.svc.Start()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(h.cookie, id, h.maxAge, "/", "", false, true)
		}
		c.Set(sessionKey, id)
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}

type pageData struct {
	Pending       models.PendingEntry
	Rows          []models.Entry
	Notice        *models.Notice
	LookupEnabled bool
	FileName      string
}

// Page renders the entry form with the pending entry and result table.
func (h *EntryHandler) Page(c *gin.Context) {
	id := sessionID(c)
	state, err := h.svc.Snapshot(id)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.HTML(http.StatusOK, PageTemplate, pageData{
		Pending:       state.Pending,
		Rows:          state.Table.Rows(),
		Notice:        h.svc.TakeNotice(id),
		LookupEnabled: h.svc.LookupEnabled(),
		FileName:      export.FileName,
	})
}

// MessageInvalidNumber is shown when a reading cannot be parsed or is not finite.
const MessageInvalidNumber = "Please enter valid numbers."

type formSubmission struct {
	Op string `form:"op"`
	models.Reading
}

// Submit handles every button of the entry form and redirects back to it.
// Identity fields are stored before the numeric ones are checked so a
// rejected reading never discards what the user typed.
func (h *EntryHandler) Submit(c *gin.Context) {
	id := sessionID(c)
	defer c.Redirect(http.StatusSeeOther, "/")

	barcode, drugName := c.PostForm("barcode"), c.PostForm("drug_name")
	if drugName == "" && barcode != "" && h.svc.LookupEnabled() {
		name, err := h.svc.LookupDrug(c.Request.Context(), barcode)
		if err != nil {
			h.logger.Warn("drug name lookup failed", zap.String("barcode", barcode), zap.Error(err))
		} else {
			drugName = name
		}
	}
	if _, err := h.svc.SetIdentity(id, barcode, drugName); err != nil {
		h.logger.Error("failed to set identity", zap.Error(err))
		return
	}

	var form formSubmission
	err := c.ShouldBind(&form)
	if err == nil {
		err = form.Reading.Validate()
	}
	if err != nil {
		h.logger.Warn("invalid form submission", zap.Error(err))
		h.svc.Notice(id, models.Notice{Level: models.NoticeError, Message: MessageInvalidNumber})
		return
	}

	op, err := models.ParseOperation(form.Op)
	if err != nil {
		h.logger.Warn("unknown form operation", zap.String("op", form.Op))
		h.svc.Notice(id, models.Notice{Level: models.NoticeError, Message: "Unknown action."})
		return
	}

	switch {
	case op.Confirm:
		_, err = h.svc.Confirm(c.Request.Context(), id)
		if errors.Is(err, entry.ErrMissingIdentifier) {
			h.svc.Notice(id, models.Notice{Level: models.NoticeError, Message: models.MessageMissingIdentifier})
			return
		}
		if err == nil {
			h.svc.Notice(id, models.Notice{Level: models.NoticeSuccess, Message: models.MessageConfirmed})
		}
	case op.Field != "":
		_, err = h.svc.ApplyField(id, op.Action, op.Field, form.Reading.Value(op.Field))
	default:
		_, err = h.svc.Apply(id, op.Action, form.Reading)
	}
	if err != nil {
		h.logger.Error("form operation failed", zap.String("op", form.Op), zap.Error(err))
	}
}

// Download streams the result table as a CSV attachment.
func (h *EntryHandler) Download(c *gin.Context) {
	data, err := h.svc.Export(sessionID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+export.FileName+`"`)
	c.Data(http.StatusOK, export.ContentType, data)
}

type sessionResponse struct {
	ID      string              `json:"id"`
	Pending models.PendingEntry `json:"pending"`
	Table   []models.Entry      `json:"table"`
}

func newSessionResponse(id string, state models.Session) sessionResponse {
	return sessionResponse{ID: id, Pending: state.Pending, Table: state.Table.Rows()}
}

// GetSession returns the pending entry and result table.
func (h *EntryHandler) GetSession(c *gin.Context) {
	id := sessionID(c)
	state, err := h.svc.Snapshot(id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(id, state))
}

// SetIdentity replaces the barcode and drug name of the pending entry.
func (h *EntryHandler) SetIdentity(c *gin.Context) {
	var req models.IdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid identity payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	id := sessionID(c)
	state, err := h.svc.SetIdentity(id, req.Barcode, req.DrugName)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(id, state))
}

// ApplyAction folds a reading into the pending entry.
func (h *EntryHandler) ApplyAction(c *gin.Context) {
	var req models.ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid action payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	action, err := models.ParseAction(req.Action)
	if err != nil {
		h.fail(c, err)
		return
	}

	id := sessionID(c)
	var state models.Session
	if req.Field != "" {
		field, ferr := models.ParseField(req.Field)
		if ferr != nil {
			h.fail(c, ferr)
			return
		}
		state, err = h.svc.ApplyField(id, action, field, req.Value)
	} else {
		state, err = h.svc.Apply(id, action, req.Reading)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(id, state))
}

// Confirm commits the pending entry.
func (h *EntryHandler) Confirm(c *gin.Context) {
	id := sessionID(c)
	res, err := h.svc.Confirm(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	body := gin.H{
		"message": models.MessageConfirmed,
		"entry":   res.Entry,
		"session": newSessionResponse(id, res.Session),
	}
	if len(res.MirrorErrors) > 0 {
		body["mirrorErrors"] = res.MirrorErrors
	}
	c.JSON(http.StatusOK, body)
}

// Archive lists the entries this session committed as stored in MongoDB.
func (h *EntryHandler) Archive(c *gin.Context) {
	entries, err := h.svc.Archived(c.Request.Context(), sessionID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// Lookup resolves a barcode to a drug name.
func (h *EntryHandler) Lookup(c *gin.Context) {
	barcode := c.Param("barcode")
	name, err := h.svc.LookupDrug(c.Request.Context(), barcode)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, lookup.Drug{Barcode: barcode, Name: name})
}

func (h *EntryHandler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, entry.ErrMissingIdentifier):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrUnknownAction), errors.Is(err, models.ErrUnknownField), errors.Is(err, models.ErrInvalidReading):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, lookup.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, entry.ErrLookupDisabled), errors.Is(err, entry.ErrArchiveDisabled):
		return http.StatusNotImplemented
	default:
		return http.StatusBadGateway
	}
}
