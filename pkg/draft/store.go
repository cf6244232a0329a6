package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/dukex/roster/pkg/models"
)

const (
	activeStepKey = "active_step"
	entityIDKey   = "entity_id"
	stepKeyPrefix = "step:"
)

// ChangePublisher propagates entity id changes to other processes sharing the
// same backend.
type ChangePublisher interface {
	PublishEntityChanged(ctx context.Context, namespace, entityID string) error
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for warnings about unreadable keys.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithPublisher makes SaveEntityID and Clear announce entity changes.
func WithPublisher(publisher ChangePublisher) Option {
	return func(s *Store) {
		s.publisher = publisher
	}
}

// Store is the draft of one wizard namespace. Each draft field lives under
// its own key so a corrupt value never hides the others.
type Store struct {
	backend   Backend
	namespace string
	logger    *slog.Logger
	publisher ChangePublisher

	mu       sync.Mutex
	entityID string
	watchers map[int]chan string
	nextID   int
}

// NewStore returns a store writing under namespace.
func NewStore(backend Backend, namespace string, opts ...Option) *Store {
	s := &Store{
		backend:   backend,
		namespace: namespace,
		logger:    slog.Default(),
		watchers:  make(map[int]chan string),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With("namespace", namespace)

	return s
}

// Namespace returns the key prefix of the store.
func (s *Store) Namespace() string {
	return s.namespace
}

// Key returns the backend key of a draft field.
func (s *Store) Key(name string) string {
	return s.namespace + ":" + name
}

// Keys lists every backend key the store may write.
func (s *Store) Keys() []string {
	keys := []string{s.Key(activeStepKey), s.Key(entityIDKey)}
	for _, step := range models.StepOrder {
		keys = append(keys, s.Key(stepKeyPrefix+string(step)))
	}

	return keys
}

// Load reads the draft. Missing keys are absent, unreadable or undecodable
// keys are logged and treated as absent. An error is returned only when the
// backend failed on every key; the draft is then empty.
func (s *Store) Load(ctx context.Context) (*models.WizardDraft, error) {
	d := models.NewWizardDraft()

	var (
		failures int
		lastErr  error
	)

	read := func(name string, decode func([]byte) error) {
		raw, err := s.backend.Get(ctx, s.Key(name))
		if errors.Is(err, ErrKeyNotFound) {
			return
		}

		if err != nil {
			failures++
			lastErr = err
			s.logger.WarnContext(ctx, "failed to read draft key", "key", name, "error", err)

			return
		}

		if err := decode(raw); err != nil {
			s.logger.WarnContext(ctx, "discarding corrupt draft key", "key", name, "error", err)
		}
	}

	read(activeStepKey, func(raw []byte) error {
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			return err
		}

		step, err := models.ParseStepKey(value)
		if err != nil {
			return err
		}

		d.ActiveStep = step

		return nil
	})

	read(entityIDKey, func(raw []byte) error {
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			return err
		}

		if value != "" {
			d.EntityID = &value
		}

		return nil
	})

	for _, step := range models.StepOrder {
		read(stepKeyPrefix+string(step), func(raw []byte) error {
			payload, err := models.NewPayload(step)
			if err != nil {
				return err
			}

			if err := json.Unmarshal(raw, payload); err != nil {
				return err
			}

			d.Payloads.Set(payload)

			return nil
		})
	}

	if failures == len(s.Keys()) {
		return &d, fmt.Errorf("failed to load draft %s: %w", s.namespace, lastErr)
	}

	s.mu.Lock()
	if d.EntityID != nil {
		s.entityID = *d.EntityID
	} else {
		s.entityID = ""
	}
	s.mu.Unlock()

	return &d, nil
}

// SaveActiveStep writes the active step through to the backend.
func (s *Store) SaveActiveStep(ctx context.Context, step models.StepKey) error {
	return s.write(ctx, activeStepKey, string(step))
}

// SavePayload writes the payload of one step through to the backend.
func (s *Store) SavePayload(ctx context.Context, payload models.StepPayload) error {
	if payload == nil {
		return errors.New("cannot save a nil step payload")
	}

	return s.write(ctx, stepKeyPrefix+string(payload.Step()), payload)
}

// SaveEntityID stores the id of the backend entity being edited. Watchers
// are notified when the id differs from the last known one.
func (s *Store) SaveEntityID(ctx context.Context, entityID string) error {
	if entityID == "" {
		if err := s.backend.Delete(ctx, s.Key(entityIDKey)); err != nil {
			return fmt.Errorf("failed to delete draft key %s: %w", entityIDKey, err)
		}
	} else if err := s.write(ctx, entityIDKey, entityID); err != nil {
		return err
	}

	if s.observe(entityID) {
		s.publish(ctx, entityID)
	}

	return nil
}

// Clear removes every field of the draft.
func (s *Store) Clear(ctx context.Context) error {
	return s.Reset(ctx, "")
}

// Reset discards every field of the draft and starts a new one bound to
// entityID. An empty entityID leaves the draft without an entity.
func (s *Store) Reset(ctx context.Context, entityID string) error {
	keys := s.Keys()
	if entityID != "" {
		keys = slices.DeleteFunc(keys, func(key string) bool { return key == s.Key(entityIDKey) })
	}

	if err := s.backend.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("failed to clear draft %s: %w", s.namespace, err)
	}

	if entityID != "" {
		if err := s.write(ctx, entityIDKey, entityID); err != nil {
			return err
		}
	}

	if s.observe(entityID) {
		s.publish(ctx, entityID)
	}

	return nil
}

// Announce injects an entity id change observed outside this store, e.g. by
// another process sharing the backend.
func (s *Store) Announce(entityID string) {
	s.observe(entityID)
}

// EntityID returns the last entity id loaded, saved or announced.
func (s *Store) EntityID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.entityID
}

// Watch subscribes to entity id changes. Each watcher sees the latest value;
// intermediate values may be skipped when the watcher is slow. The returned
// function unsubscribes and closes the channel.
func (s *Store) Watch() (<-chan string, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	ch := make(chan string, 1)
	s.watchers[id] = ch

	var once sync.Once

	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()

			delete(s.watchers, id)
			close(ch)
		})
	}
}

func (s *Store) observe(entityID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entityID == entityID {
		return false
	}

	s.entityID = entityID

	for _, ch := range s.watchers {
		select {
		case <-ch:
		default:
		}

		ch <- entityID
	}

	return true
}

func (s *Store) publish(ctx context.Context, entityID string) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.PublishEntityChanged(ctx, s.namespace, entityID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish draft entity change", "entity_id", entityID, "error", err)
	}
}

func (s *Store) write(ctx context.Context, name string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode draft key %s: %w", name, err)
	}

	if err := s.backend.Set(ctx, s.Key(name), data); err != nil {
		return fmt.Errorf("failed to write draft key %s: %w", name, err)
	}

	return nil
}
