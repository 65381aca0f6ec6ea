package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTTL is how long an idle import session is kept.
const DefaultSessionTTL = 30 * time.Minute

// ServiceConfig configures a Service.
type ServiceConfig struct {
	MaxFileSize   int64
	SessionTTL    time.Duration
	MaxConcurrent int
	MaxWait       time.Duration
	Parser        ParserConfig
}

// Service drives import sessions through the wizard steps. It is safe for
// concurrent use; each session is owned by one caller at a time.
type Service struct {
	parser    *Parser
	store     FlightStore
	templates TemplateStore
	runs      RunRecorder
	limiter   *ImportLimiter
	cfg       ServiceConfig
	logger    *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	mu        sync.Mutex
	id        string
	fileName  string
	kind      FileKind
	rows      []SourceRow
	mapper    *FieldMapper
	wizard    *Wizard
	parsed    *ParseResult
	imported  *ImportResult
	createdAt time.Time
	expiry    *time.Timer
}

// SessionView is a read-only snapshot of a session.
type SessionView struct {
	ID            string          `json:"id"`
	FileName      string          `json:"fileName"`
	Kind          FileKind        `json:"kind"`
	Step          Step            `json:"step"`
	Headers       []string        `json:"headers,omitempty"`
	Mappings      []FieldMapping  `json:"mappings,omitempty"`
	MissingFields []Field         `json:"missingFields,omitempty"`
	Templates     []TemplateMatch `json:"templates,omitempty"`
	Report        *ParseReport    `json:"report,omitempty"`
	Result        *ImportResult   `json:"result,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// NewService creates a service. templates may be nil when mapping templates
// are not persisted. Commits are recorded when store is also a RunRecorder.
func NewService(store FlightStore, templates TemplateStore, cfg ServiceConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	svc := &Service{
		parser:    NewParser(cfg.Parser, logger),
		store:     store,
		templates: templates,
		limiter:   NewImportLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		cfg:       cfg,
		logger:    logger,
		sessions:  make(map[string]*session),
	}
	if rr, ok := store.(RunRecorder); ok {
		svc.runs = rr
	}
	return svc
}

// Limiter exposes the commit limiter for monitoring and shutdown.
func (s *Service) Limiter() *ImportLimiter {
	return s.limiter
}

// Open reads a file and starts a session at the upload step. Generic files
// move straight to mapping with suggested mappings applied; a saved
// template that matches the headers takes precedence over suggestions.
func (s *Service) Open(ctx context.Context, fileName string, r io.Reader) (*SessionView, error) {
	rows, err := ReadRows(fileName, r, s.cfg.MaxFileSize)
	if err != nil {
		return nil, err
	}
	insp, err := s.parser.Inspect(rows)
	if err != nil {
		return nil, err
	}

	sess := &session{
		id:        uuid.New().String(),
		fileName:  fileName,
		kind:      insp.Kind,
		rows:      rows,
		wizard:    NewWizard(insp.Kind),
		createdAt: time.Now(),
	}

	var matches []TemplateMatch
	if insp.Kind == KindGeneric {
		sess.mapper = NewFieldMapper(insp.Headers)
		sess.mapper.ApplySuggestions()

		matches, err = s.MatchTemplates(ctx, insp.Headers)
		if err != nil {
			s.logger.Warn("mapping template lookup failed", "error", err)
		}
		if len(matches) > 0 {
			if err := sess.mapper.Apply(matches[0].Template.Mappings); err != nil {
				s.logger.Debug("best mapping template not applicable", "template", matches[0].Template.Name, "error", err)
			}
		}
		if err := sess.wizard.Advance(StepMapping); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	s.touch(sess)

	s.logger.Info("import session opened",
		"import_id", sess.id,
		"file", fileName,
		"kind", insp.Kind,
		"rows", len(rows),
	)

	view := sess.view()
	view.Templates = matches
	return view, nil
}

// Get returns a snapshot of a session.
func (s *Service) Get(id string) (*SessionView, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.view(), nil
}

// SetMappings replaces a generic session's column mappings.
func (s *Service) SetMappings(id string, mappings []FieldMapping) (*SessionView, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.wizard.Step() != StepMapping {
		return nil, fmt.Errorf("%w: mappings can only change at the mapping step", ErrInvalidTransition)
	}
	if err := sess.mapper.Apply(mappings); err != nil {
		return nil, err
	}
	return sess.view(), nil
}

// Preview parses the session's file and moves to the preview step. A
// generic session with unmapped required fields stays at mapping and gets a
// *MissingFieldsError.
func (s *Service) Preview(ctx context.Context, id string) (*ParseReport, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.wizard.Step() == StepPreview && sess.parsed != nil {
		return &sess.parsed.Report, nil
	}

	if sess.mapper != nil {
		if err := sess.mapper.ProceedToPreview(); err != nil {
			return nil, err
		}
	}
	if err := sess.wizard.Advance(StepPreview); err != nil {
		return nil, err
	}

	parsed, err := s.parser.Parse(ctx, sess.rows, sess.mapper)
	if err != nil {
		// Return to the step we came from.
		_, _ = sess.wizard.Back()
		return nil, err
	}
	sess.parsed = parsed
	return &parsed.Report, nil
}

// Back moves a session to its previous step.
func (s *Service) Back(id string) (Step, error) {
	sess, err := s.session(id)
	if err != nil {
		return "", err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	step, err := sess.wizard.Back()
	if err != nil {
		return step, err
	}
	sess.parsed = nil
	return step, nil
}

// CommitOptions controls which previewed rows are imported.
type CommitOptions struct {
	SkipZeroTime bool
}

// Commit imports the accepted rows of a previewed session. Once submission
// starts it runs to completion even if ctx is cancelled.
func (s *Service) Commit(ctx context.Context, id string, opts CommitOptions) (*ImportResult, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.wizard.Step() != StepPreview || sess.parsed == nil {
		return nil, fmt.Errorf("%w: commit requires preview", ErrInvalidTransition)
	}
	accepted := sess.parsed.Accepted(opts.SkipZeroTime)
	if len(accepted) == 0 {
		return nil, ErrNothingToImport
	}
	if err := sess.wizard.Advance(StepImporting); err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		_ = sess.wizard.Abort()
		return nil, err
	}
	defer s.limiter.Release()

	logger := s.logger.With("import_id", sess.id)
	exec := NewImportExecutor(s.store, logger)
	started := time.Now()
	result, err := exec.Execute(ctx, accepted, sess.parsed.Aircraft)
	if err != nil {
		if !exec.Started() {
			_ = sess.wizard.Abort()
		}
		return nil, err
	}

	sess.imported = result
	s.recordRun(ctx, newImportRun(ctx, sess.id, sess.fileName, sess.kind, sess.parsed.Report, result, started))
	if err := sess.wizard.Advance(StepComplete); err != nil {
		return nil, err
	}
	s.touch(sess)
	return result, nil
}

// Close discards a session.
func (s *Service) Close(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		if sess.expiry != nil {
			sess.expiry.Stop()
		}
		delete(s.sessions, id)
	}
}

// SaveTemplate stores a generic session's current mappings under name.
func (s *Service) SaveTemplate(ctx context.Context, id, name string) (*MappingTemplate, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	if sess.mapper == nil {
		sess.mu.Unlock()
		return nil, errors.New("bundled files have no column mapping to save")
	}
	headers, mappings := sess.mapper.Headers(), sess.mapper.Mappings()
	sess.mu.Unlock()

	return s.CreateTemplate(ctx, name, headers, mappings)
}

// CreateTemplate stores a mapping template.
func (s *Service) CreateTemplate(ctx context.Context, name string, headers []string, mappings []FieldMapping) (*MappingTemplate, error) {
	if s.templates == nil {
		return nil, errors.New("mapping templates are not enabled")
	}
	m := NewFieldMapper(headers)
	if err := m.Apply(mappings); err != nil {
		return nil, err
	}

	t := MappingTemplate{
		ID:        uuid.New().String(),
		Name:      name,
		Headers:   headers,
		Mappings:  m.Mappings(),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.templates.CreateMappingTemplate(ctx, t); err != nil {
		return nil, fmt.Errorf("save mapping template: %w", err)
	}
	return &t, nil
}

// ListTemplates returns every saved mapping template.
func (s *Service) ListTemplates(ctx context.Context) ([]MappingTemplate, error) {
	if s.templates == nil {
		return []MappingTemplate{}, nil
	}
	return s.templates.ListMappingTemplates(ctx)
}

// MatchTemplates returns saved templates that fit headers, best first.
func (s *Service) MatchTemplates(ctx context.Context, headers []string) ([]TemplateMatch, error) {
	templates, err := s.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	return MatchTemplates(templates, headers), nil
}

func (s *Service) session(id string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.touch(sess)
	return sess, nil
}

// touch restarts the session's idle timer.
func (s *Service) touch(sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess.expiry != nil {
		sess.expiry.Stop()
	}
	id := sess.id
	sess.expiry = time.AfterFunc(s.cfg.SessionTTL, func() {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		s.logger.Debug("import session expired", "import_id", id)
	})
}

func (sess *session) view() *SessionView {
	v := &SessionView{
		ID:        sess.id,
		FileName:  sess.fileName,
		Kind:      sess.kind,
		Step:      sess.wizard.Step(),
		Result:    sess.imported,
		CreatedAt: sess.createdAt,
	}
	if sess.mapper != nil {
		v.Headers = sess.mapper.Headers()
		v.Mappings = sess.mapper.Mappings()
		v.MissingFields = sess.mapper.MissingRequired()
	}
	if sess.parsed != nil {
		v.Report = &sess.parsed.Report
	}
	return v
}
