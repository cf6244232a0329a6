// Package wizardweb hosts onboarding wizards over HTTP. Every session owns a
// wizard controller bound to a draft namespace, the server-side analogue of a
// browser tab.
package wizardweb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/roster/pkg/draft"
	"github.com/dukex/roster/pkg/eventbus"
	"github.com/dukex/roster/pkg/events"
	"github.com/dukex/roster/pkg/gateway"
	"github.com/dukex/roster/pkg/otelhelper"
	"github.com/dukex/roster/pkg/wizard"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrManagerClosed   = errors.New("session manager is closed")
)

// Session is one open wizard.
type Session struct {
	ID         string
	Namespace  string
	Controller *wizard.Controller

	cancel   context.CancelFunc
	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastSeen
}

// ManagerConfig holds the collaborators shared by every session.
type ManagerConfig struct {
	Backend draft.Backend
	Gateway gateway.Gateway
	// EventBus is optional. When set, entity changes and completions are
	// published and changes made by other hosts are followed.
	EventBus    eventbus.EventBus
	Metrics     *Metrics
	Logger      *slog.Logger
	Tracer      trace.Tracer
	HostID      string
	IdleTimeout time.Duration
	Clock       func() time.Time
}

type namespaceStore struct {
	store *draft.Store
	refs  int
}

// Manager opens, finds and expires sessions.
type Manager struct {
	cfg    ManagerConfig
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	stores   map[string]*namespaceStore
	closed   bool
	cron     *cron.Cron
}

func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.Backend == nil || cfg.Gateway == nil {
		return nil, errors.New("wizardweb: draft backend and gateway are required")
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if cfg.Tracer == nil {
		cfg.Tracer = otelhelper.NoopTracer()
	}

	if cfg.HostID == "" {
		cfg.HostID = "roster-wizard-" + uuid.NewString()
	}

	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	if cfg.Metrics != nil {
		cfg.Gateway = InstrumentGateway(cfg.Gateway, cfg.Metrics)
	}

	return &Manager{
		cfg:      cfg,
		logger:   cfg.Logger.With("module", "sessions"),
		sessions: make(map[string]*Session),
		stores:   make(map[string]*namespaceStore),
	}, nil
}

// CreateRequest opens a session. An empty Namespace uses the session id, a
// known one resumes the draft saved under it. EntityID starts edit mode.
type CreateRequest struct {
	Namespace string `json:"namespace,omitempty" validate:"omitempty,max=128,excludesall=:"`
	EntityID  string `json:"entity_id,omitempty"`
}

func (m *Manager) Create(ctx context.Context, req CreateRequest) (*Session, error) {
	id := uuid.NewString()

	namespace := req.Namespace
	if namespace == "" {
		namespace = id
	}

	ctx, span := otelhelper.StartSpan(ctx, m.cfg.Tracer, "wizardweb.create_session")
	defer span.End()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()

		return nil, ErrManagerClosed
	}

	store := m.acquireStoreLocked(namespace)
	m.mu.Unlock()

	controller, err := wizard.NewController(ctx, wizard.Config{
		Gateway:    m.cfg.Gateway,
		Store:      store,
		Logger:     m.cfg.Logger.With("session_id", id),
		Tracer:     m.cfg.Tracer,
		OnComplete: m.onComplete(namespace),
		Clock:      m.cfg.Clock,
	})
	if err != nil {
		m.releaseStore(namespace)
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to start wizard: %w", err)
	}

	if req.EntityID != "" {
		if err := controller.Open(ctx, req.EntityID); err != nil {
			m.releaseStore(namespace)
			otelhelper.SetError(span, err)

			return nil, fmt.Errorf("failed to open employee %s: %w", req.EntityID, err)
		}
	}

	watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	controller.Watch(watchCtx)

	session := &Session{
		ID:         id,
		Namespace:  namespace,
		Controller: controller,
		cancel:     cancel,
		lastSeen:   m.cfg.Clock(),
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		cancel()
		m.releaseStore(namespace)

		return nil, ErrManagerClosed
	}

	m.sessions[id] = session
	m.mu.Unlock()

	if m.cfg.Metrics != nil {
		m.cfg.Metrics.SessionsActive.Inc()
	}

	m.logger.InfoContext(ctx, "session opened", "session_id", id, "namespace", namespace, "entity_id", req.EntityID)

	return session, nil
}

// Get returns an open session and marks it as used.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	session, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	session.touch(m.cfg.Clock())

	return session, nil
}

// Close ends a session. Its draft stays in the backend.
func (m *Manager) Close(ctx context.Context, id string) error {
	m.mu.Lock()
	session, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	m.closeSession(ctx, session)

	return nil
}

func (m *Manager) closeSession(ctx context.Context, session *Session) {
	session.cancel()
	m.releaseStore(session.Namespace)

	if m.cfg.Metrics != nil {
		m.cfg.Metrics.SessionsActive.Dec()
	}

	m.logger.InfoContext(ctx, "session closed", "session_id", session.ID, "namespace", session.Namespace)
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}

// Sweep closes the sessions idle for longer than the idle timeout and returns
// how many were closed.
func (m *Manager) Sweep(ctx context.Context) int {
	if m.cfg.IdleTimeout <= 0 {
		return 0
	}

	deadline := m.cfg.Clock().Add(-m.cfg.IdleTimeout)

	m.mu.Lock()

	var expired []*Session

	for id, session := range m.sessions {
		if session.idleSince().Before(deadline) {
			expired = append(expired, session)
			delete(m.sessions, id)
		}
	}

	m.mu.Unlock()

	for _, session := range expired {
		m.closeSession(ctx, session)
	}

	if len(expired) > 0 {
		m.logger.InfoContext(ctx, "expired idle sessions", "count", len(expired))
	}

	return len(expired)
}

// StartJanitor sweeps idle sessions on schedule until Shutdown.
func (m *Manager) StartJanitor(ctx context.Context, schedule string) error {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid janitor schedule %q: %w", schedule, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cron != nil {
		return nil
	}

	m.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	if _, err := m.cron.AddFunc(schedule, func() { m.Sweep(ctx) }); err != nil {
		m.cron = nil

		return fmt.Errorf("failed to schedule janitor: %w", err)
	}

	m.cron.Start()

	return nil
}

// Subscribe follows draft changes published by other hosts sharing the
// draft backend, and discards drafts of deleted employees.
func (m *Manager) Subscribe(ctx context.Context) error {
	if m.cfg.EventBus == nil {
		return nil
	}

	if err := m.cfg.EventBus.Handle(events.DraftEntityChangedEvent, m.handleEntityChanged); err != nil {
		return err
	}

	if err := m.cfg.EventBus.Handle(events.EmployeeDeletedEvent, m.handleEmployeeDeleted); err != nil {
		return err
	}

	return m.cfg.EventBus.Subscribe(ctx)
}

func (m *Manager) handleEntityChanged(ctx context.Context, event any) error {
	changed, ok := event.(*events.DraftEntityChanged)
	if !ok || changed.Source == m.cfg.HostID {
		return nil
	}

	if err := changed.Validate(); err != nil {
		m.logger.WarnContext(ctx, "ignoring invalid draft event", "error", err)

		return nil
	}

	if store := m.store(changed.Namespace); store != nil {
		store.Announce(changed.EntityID)
	}

	return nil
}

func (m *Manager) handleEmployeeDeleted(ctx context.Context, event any) error {
	deleted, ok := event.(*events.EmployeeDeleted)
	if !ok || deleted.EmployeeID == "" {
		return nil
	}

	m.mu.RLock()

	var affected []*draft.Store

	for _, ns := range m.stores {
		if ns.store.EntityID() == deleted.EmployeeID {
			affected = append(affected, ns.store)
		}
	}

	m.mu.RUnlock()

	for _, store := range affected {
		if err := store.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear draft of deleted employee: %w", err)
		}

		m.logger.InfoContext(ctx, "discarded draft of deleted employee",
			"namespace", store.Namespace(), "employee_id", deleted.EmployeeID)
	}

	return nil
}

// Shutdown stops the janitor and closes every session.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	m.closed = true
	janitor := m.cron
	m.cron = nil

	sessions := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}

	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	if janitor != nil {
		<-janitor.Stop().Done()
	}

	for _, session := range sessions {
		m.closeSession(ctx, session)
	}
}

func (m *Manager) onComplete(namespace string) func(ctx context.Context, entityID string) {
	return func(ctx context.Context, entityID string) {
		if m.cfg.Metrics != nil {
			m.cfg.Metrics.OnboardingsComplete.Inc()
		}

		if m.cfg.EventBus == nil {
			return
		}

		event := events.NewOnboardingCompleted(m.cfg.HostID, namespace, entityID)
		if err := m.cfg.EventBus.Publish(ctx, entityID, event); err != nil {
			m.logger.ErrorContext(ctx, "failed to publish onboarding completion", "employee_id", entityID, "error", err)
		}
	}
}

func (m *Manager) store(namespace string) *draft.Store {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if ns, ok := m.stores[namespace]; ok {
		return ns.store
	}

	return nil
}

func (m *Manager) acquireStoreLocked(namespace string) *draft.Store {
	if ns, ok := m.stores[namespace]; ok {
		ns.refs++

		return ns.store
	}

	opts := []draft.Option{draft.WithLogger(m.cfg.Logger)}
	if m.cfg.EventBus != nil {
		opts = append(opts, draft.WithPublisher(&busPublisher{bus: m.cfg.EventBus, source: m.cfg.HostID}))
	}

	store := draft.NewStore(m.cfg.Backend, namespace, opts...)
	m.stores[namespace] = &namespaceStore{store: store, refs: 1}

	return store
}

func (m *Manager) releaseStore(namespace string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ns, ok := m.stores[namespace]
	if !ok {
		return
	}

	ns.refs--
	if ns.refs <= 0 {
		delete(m.stores, namespace)
	}
}

// busPublisher announces draft entity changes on the event bus.
type busPublisher struct {
	bus    eventbus.EventPublisher
	source string
}

func (p *busPublisher) PublishEntityChanged(ctx context.Context, namespace, entityID string) error {
	return p.bus.Publish(ctx, namespace, events.NewDraftEntityChanged(p.source, namespace, entityID))
}
