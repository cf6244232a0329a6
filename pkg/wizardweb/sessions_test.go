package wizardweb_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/roster/pkg/channels/gochannel"
	"github.com/dukex/roster/pkg/draft"
	"github.com/dukex/roster/pkg/eventbus"
	"github.com/dukex/roster/pkg/events"
	"github.com/dukex/roster/pkg/mocks"
	"github.com/dukex/roster/pkg/models"
	"github.com/dukex/roster/pkg/wizardweb"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func employeeGateway() *mocks.MockGateway {
	gw := &mocks.MockGateway{}
	gw.On("GetEmployee", mock.Anything, "e1").Return(&models.Employee{
		ID: "e1", FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com", Gender: "female",
	}, nil).Maybe()

	return gw
}

func newManager(t *testing.T, cfg wizardweb.ManagerConfig) *wizardweb.Manager {
	t.Helper()

	if cfg.Backend == nil {
		cfg.Backend = draft.NewMemoryBackend()
	}

	if cfg.Gateway == nil {
		cfg.Gateway = employeeGateway()
	}

	cfg.Logger = discardLogger()

	manager, err := wizardweb.NewManager(cfg)
	require.NoError(t, err)

	t.Cleanup(func() { manager.Shutdown(context.Background()) })

	return manager
}

func TestNewManager_RequiresCollaborators(t *testing.T) {
	t.Parallel()

	_, err := wizardweb.NewManager(wizardweb.ManagerConfig{Backend: draft.NewMemoryBackend()})
	require.Error(t, err)
}

func TestManager_SweepClosesIdleSessions(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	metrics := wizardweb.NewMetrics("test")
	manager := newManager(t, wizardweb.ManagerConfig{
		Metrics:     metrics,
		IdleTimeout: 30 * time.Minute,
		Clock:       clock.Now,
	})

	idle, err := manager.Create(t.Context(), wizardweb.CreateRequest{})
	require.NoError(t, err)

	clock.Advance(20 * time.Minute)

	active, err := manager.Create(t.Context(), wizardweb.CreateRequest{})
	require.NoError(t, err)

	clock.Advance(15 * time.Minute)
	assert.Equal(t, 1, manager.Sweep(t.Context()))

	_, err = manager.Get(idle.ID)
	require.ErrorIs(t, err, wizardweb.ErrSessionNotFound)

	_, err = manager.Get(active.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, manager.Len())
}

func TestManager_SweepWithoutTimeout(t *testing.T) {
	t.Parallel()

	manager := newManager(t, wizardweb.ManagerConfig{})

	_, err := manager.Create(t.Context(), wizardweb.CreateRequest{})
	require.NoError(t, err)

	assert.Equal(t, 0, manager.Sweep(t.Context()))
	assert.Equal(t, 1, manager.Len())
}

func TestManager_StartJanitorRejectsBadSchedule(t *testing.T) {
	t.Parallel()

	manager := newManager(t, wizardweb.ManagerConfig{IdleTimeout: time.Minute})

	require.Error(t, manager.StartJanitor(t.Context(), "every tuesday"))
	require.NoError(t, manager.StartJanitor(t.Context(), "@every 1m"))
}

func TestManager_SharedNamespaceResumesDraft(t *testing.T) {
	t.Parallel()

	backend := draft.NewMemoryBackend()
	manager := newManager(t, wizardweb.ManagerConfig{Backend: backend})

	first, err := manager.Create(t.Context(), wizardweb.CreateRequest{Namespace: "tab-1"})
	require.NoError(t, err)
	require.NoError(t, first.Controller.SetPayload(t.Context(), &models.BaseInfo{FirstName: "Ada"}))

	require.NoError(t, manager.Close(t.Context(), first.ID))

	second, err := manager.Create(t.Context(), wizardweb.CreateRequest{Namespace: "tab-1"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	state := second.Controller.State()
	baseInfo, ok := state.Payloads.Get(models.StepBaseInfo).(*models.BaseInfo)
	require.True(t, ok)
	assert.Equal(t, "Ada", baseInfo.FirstName)
}

func TestManager_ShutdownRejectsNewSessions(t *testing.T) {
	t.Parallel()

	manager := newManager(t, wizardweb.ManagerConfig{})

	_, err := manager.Create(t.Context(), wizardweb.CreateRequest{})
	require.NoError(t, err)

	manager.Shutdown(t.Context())
	assert.Equal(t, 0, manager.Len())

	_, err = manager.Create(t.Context(), wizardweb.CreateRequest{})
	require.ErrorIs(t, err, wizardweb.ErrManagerClosed)

	require.ErrorIs(t, manager.Close(t.Context(), "unknown"), wizardweb.ErrSessionNotFound)
}

func TestManager_ShutdownDuringCreate(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})

	gw := &mocks.MockGateway{}
	gw.On("GetEmployee", mock.Anything, "e1").
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(&models.Employee{ID: "e1", FirstName: "Grace"}, nil).Once()

	metrics := wizardweb.NewMetrics("test")
	manager := newManager(t, wizardweb.ManagerConfig{Gateway: gw, Metrics: metrics})

	done := make(chan error, 1)
	go func() {
		_, err := manager.Create(t.Context(), wizardweb.CreateRequest{EntityID: "e1"})
		done <- err
	}()

	<-started
	manager.Shutdown(t.Context())
	close(release)

	require.ErrorIs(t, <-done, wizardweb.ErrManagerClosed)
	assert.Equal(t, 0, manager.Len())
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.SessionsActive), 0)
}

func sharedBus(t *testing.T) func() eventbus.EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	t.Cleanup(func() { _ = pub.Close() })

	return func() eventbus.EventBus {
		return eventbus.NewWatermillEventBus(pub, sub, discardLogger())
	}
}

func TestManager_FollowsOtherHosts(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend := draft.NewMemoryBackend()
	newBus := sharedBus(t)

	hostA := newManager(t, wizardweb.ManagerConfig{Backend: backend, EventBus: newBus(), HostID: "host-a"})
	hostB := newManager(t, wizardweb.ManagerConfig{Backend: backend, EventBus: newBus(), HostID: "host-b"})

	require.NoError(t, hostA.Subscribe(ctx))
	require.NoError(t, hostB.Subscribe(ctx))

	onB, err := hostB.Create(ctx, wizardweb.CreateRequest{Namespace: "tab-1"})
	require.NoError(t, err)
	assert.Nil(t, onB.Controller.State().EntityID)

	onA, err := hostA.Create(ctx, wizardweb.CreateRequest{Namespace: "tab-1", EntityID: "e1"})
	require.NoError(t, err)
	require.NotNil(t, onA.Controller.State().EntityID)

	assert.Eventually(t, func() bool {
		state := onB.Controller.State()

		return state.EntityID != nil && *state.EntityID == "e1"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestManager_DiscardsDraftOfDeletedEmployee(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	newBus := sharedBus(t)
	bus := newBus()

	manager := newManager(t, wizardweb.ManagerConfig{EventBus: newBus(), HostID: "host-a"})
	require.NoError(t, manager.Subscribe(ctx))

	session, err := manager.Create(ctx, wizardweb.CreateRequest{Namespace: "tab-1", EntityID: "e1"})
	require.NoError(t, err)
	require.NotNil(t, session.Controller.State().EntityID)

	require.NoError(t, bus.Publish(ctx, "e2", events.NewEmployeeDeleted("roster-api", "e2")))
	require.NoError(t, bus.Publish(ctx, "e1", events.NewEmployeeDeleted("roster-api", "e1")))

	assert.Eventually(t, func() bool {
		return session.Controller.State().EntityID == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestManager_CompletionPublishesEvent(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	newBus := sharedBus(t)
	listener := newBus()

	completed := make(chan *events.OnboardingCompleted, 1)
	require.NoError(t, listener.Handle(events.OnboardingCompletedEvent, func(_ context.Context, event any) error {
		completed <- event.(*events.OnboardingCompleted)

		return nil
	}))
	require.NoError(t, listener.Subscribe(ctx))

	gw := employeeGateway()
	gw.On("UpdateEmployee", mock.Anything, "e1", mock.Anything).Return(&models.Employee{ID: "e1"}, nil)
	gw.On("FilterBankAccounts", mock.Anything, "e1").Return([]models.BankAccount{}, nil).Maybe()

	metrics := wizardweb.NewMetrics("test")
	manager := newManager(t, wizardweb.ManagerConfig{Gateway: gw, EventBus: newBus(), Metrics: metrics})

	session, err := manager.Create(ctx, wizardweb.CreateRequest{Namespace: "tab-1", EntityID: "e1"})
	require.NoError(t, err)

	require.NoError(t, session.Controller.GoTo(ctx, models.StepTaxInfo))
	require.NoError(t, session.Controller.SetPayload(ctx, &models.TaxInfo{FilingStatus: "single"}))
	require.NoError(t, session.Controller.Proceed(ctx))
	assert.True(t, session.Controller.State().Completed)

	select {
	case event := <-completed:
		assert.Equal(t, "e1", event.EmployeeID)
		assert.Equal(t, "tab-1", event.Namespace)
	case <-time.After(2 * time.Second):
		t.Fatal("completion was not published")
	}
}
