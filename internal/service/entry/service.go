// Package entry holds the pending-entry accumulator and the service that runs it per session.
package entry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/packweigh/internal/domain/models"
	"github.com/mamadbah2/packweigh/internal/service/export"
	"github.com/mamadbah2/packweigh/internal/service/session"
	"github.com/mamadbah2/packweigh/pkg/clients/lookup"
	"github.com/mamadbah2/packweigh/pkg/logger"
)

// ErrLookupDisabled indicates no drug catalogue is configured.
var ErrLookupDisabled = errors.New("drug lookup is not configured")

// ErrArchiveDisabled indicates no committed entry archive is configured.
var ErrArchiveDisabled = errors.New("entry archive is not configured")

const mirrorTimeout = 10 * time.Second

// Mirror receives a copy of every committed entry.
type Mirror interface {
	Name() string
	SaveEntry(ctx context.Context, sessionID string, entry models.Entry) error
}

// Archive lists previously committed entries for a session.
type Archive interface {
	ListBySession(ctx context.Context, sessionID string) ([]models.Entry, error)
}

// Recorder counts workflow outcomes.
type Recorder interface {
	Committed()
	Rejected()
	MirrorFailed(mirror string)
}

type nopRecorder struct{}

func (nopRecorder) Committed()          {}
func (nopRecorder) Rejected()           {}
func (nopRecorder) MirrorFailed(string) {}

// ConfirmResult reports a successful commit.
type ConfirmResult struct {
	Entry        models.Entry
	Session      models.Session
	MirrorErrors map[string]string
}

// Option customises a Service.
type Option func(*Service)

// WithMirrors registers mirrors that receive every committed entry.
func WithMirrors(mirrors ...Mirror) Option {
	return func(s *Service) {
		for _, m := range mirrors {
			if m != nil {
				s.mirrors = append(s.mirrors, m)
			}
		}
	}
}

// WithLookup enables barcode to drug name lookup.
func WithLookup(c lookup.Client) Option {
	return func(s *Service) { s.lookup = c }
}

// WithArchive enables listing archived entries.
func WithArchive(a Archive) Option {
	return func(s *Service) { s.archive = a }
}

// WithRecorder counts commits, rejections and mirror failures.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// Service drives the accumulator against per-session state.
type Service struct {
	sessions *session.Manager
	mirrors  []Mirror
	lookup   lookup.Client
	archive  Archive
	recorder Recorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewService constructs an entry service over the session manager.
func NewService(sessions *session.Manager, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		sessions: sessions,
		recorder: nopRecorder{},
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens a new session and returns its id.
func (s *Service) Start() string {
	id := s.sessions.Create()
	s.logger.Debug("session started", zap.String("session", id))
	return id
}

// Snapshot returns the current state of a session.
func (s *Service) Snapshot(id string) (models.Session, error) {
	state, ok := s.sessions.Get(id)
	if !ok {
		return models.Session{}, session.ErrSessionNotFound
	}
	return state, nil
}

// SetIdentity sets the barcode and drug name of the pending entry.
func (s *Service) SetIdentity(id, barcode, drugName string) (models.Session, error) {
	return s.sessions.Update(id, func(state models.Session) (models.Session, error) {
		state.Pending = SetIdentity(state.Pending, barcode, drugName)
		return state, nil
	})
}

// Apply folds a full reading into the pending entry.
func (s *Service) Apply(id string, action models.Action, reading models.Reading) (models.Session, error) {
	if action != models.ActionRecord && action != models.ActionAdd {
		return models.Session{}, models.ErrUnknownAction
	}
	if err := reading.Validate(); err != nil {
		return models.Session{}, err
	}
	s.logger.Debug("applying reading", zap.String("session", id), zap.String("action", string(action)), zap.Any("reading", reading))

	return s.sessions.Update(id, func(state models.Session) (models.Session, error) {
		state.Pending = ApplyAction(state.Pending, action, reading)
		return state, nil
	})
}

// ApplyField folds a single field reading into the pending entry.
func (s *Service) ApplyField(id string, action models.Action, field models.Field, value float64) (models.Session, error) {
	if action != models.ActionRecord && action != models.ActionAdd {
		return models.Session{}, models.ErrUnknownAction
	}
	field, err := models.ParseField(string(field))
	if err != nil {
		return models.Session{}, err
	}
	if err := models.ValidateValue(value); err != nil {
		return models.Session{}, err
	}
	s.logger.Debug("applying field reading", zap.String("session", id), zap.String("action", string(action)), zap.String("field", string(field)), zap.Float64("value", value))

	return s.sessions.Update(id, func(state models.Session) (models.Session, error) {
		state.Pending = ApplyFieldAction(state.Pending, action, field, value)
		return state, nil
	})
}

// Confirm commits the pending entry of a session and copies it to every mirror.
// Mirror failures are logged and reported but never undo the commit.
func (s *Service) Confirm(ctx context.Context, id string) (ConfirmResult, error) {
	var committed models.Entry
	state, err := s.sessions.Update(id, func(state models.Session) (models.Session, error) {
		next, entry, err := Confirm(state, s.now().UTC())
		committed = entry
		return next, err
	})
	log := logger.WithSession(s.logger, id)
	if err != nil {
		if errors.Is(err, ErrMissingIdentifier) {
			log.Info("confirm rejected", zap.Error(err))
			s.recorder.Rejected()
		}
		return ConfirmResult{Session: state}, err
	}

	log.Info("entry committed",
		zap.String("barcode", committed.Barcode),
		zap.String("drug_name", committed.DrugName),
		zap.Int("rows", state.Table.Len()))
	s.recorder.Committed()

	return ConfirmResult{
		Entry:        committed,
		Session:      state,
		MirrorErrors: s.mirror(ctx, id, committed),
	}, nil
}

func (s *Service) mirror(ctx context.Context, id string, committed models.Entry) map[string]string {
	if len(s.mirrors) == 0 {
		return nil
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, mirrorTimeout)
	defer cancel()

	var failures map[string]string
	for _, m := range s.mirrors {
		if err := m.SaveEntry(ctxWithTimeout, id, committed); err != nil {
			s.logger.Error("failed to mirror committed entry", zap.String("mirror", m.Name()), zap.String("session", id), zap.Error(err))
			s.recorder.MirrorFailed(m.Name())
			if failures == nil {
				failures = make(map[string]string)
			}
			failures[m.Name()] = err.Error()
		}
	}
	return failures
}

// Export renders the session's result table in the download format.
func (s *Service) Export(id string) ([]byte, error) {
	state, err := s.Snapshot(id)
	if err != nil {
		return nil, err
	}
	return export.Marshal(state.Table.Rows())
}

// LookupDrug resolves a barcode through the configured catalogue.
func (s *Service) LookupDrug(ctx context.Context, barcode string) (string, error) {
	if s.lookup == nil {
		return "", ErrLookupDisabled
	}
	drug, err := s.lookup.DrugByBarcode(ctx, strings.TrimSpace(barcode))
	if err != nil {
		return "", err
	}
	return drug.Name, nil
}

// Archived lists the entries a session committed, as stored by the archive.
func (s *Service) Archived(ctx context.Context, id string) ([]models.Entry, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	entries, err := s.archive.ListBySession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list archived entries: %w", err)
	}
	return entries, nil
}

// LookupEnabled reports whether LookupDrug can succeed.
func (s *Service) LookupEnabled() bool {
	return s.lookup != nil
}

// Notice stores a one-shot message for the session's next page render.
func (s *Service) Notice(id string, n models.Notice) {
	s.sessions.SetNotice(id, n)
}

// TakeNotice returns and clears the session's pending message.
func (s *Service) TakeNotice(id string) *models.Notice {
	return s.sessions.TakeNotice(id)
}
