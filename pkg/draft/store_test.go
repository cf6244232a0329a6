package draft_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dukex/roster/pkg/draft"
	"github.com/dukex/roster/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingBackend struct{}

func (failingBackend) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func (failingBackend) Set(context.Context, string, []byte) error { return errors.New("connection refused") }

func (failingBackend) Delete(context.Context, ...string) error { return errors.New("connection refused") }

func (failingBackend) Close() error { return nil }

type recordingPublisher struct {
	mu    sync.Mutex
	calls []string
}

func (p *recordingPublisher) PublishEntityChanged(_ context.Context, namespace, entityID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, namespace+"="+entityID)

	return nil
}

func TestStore_LoadEmpty(t *testing.T) {
	t.Parallel()

	store := draft.NewStore(draft.NewMemoryBackend(), "tab-1")

	d, err := store.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.StepBaseInfo, d.ActiveStep)
	assert.Nil(t, d.EntityID)
	assert.Equal(t, models.StepPayloads{}, d.Payloads)
}

func TestStore_ReloadIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := draft.NewMemoryBackend()
	store := draft.NewStore(backend, "tab-1")

	lat := 6.45
	require.NoError(t, store.SaveActiveStep(ctx, models.StepBankAccount))
	require.NoError(t, store.SaveEntityID(ctx, "e1"))
	require.NoError(t, store.SavePayload(ctx, &models.BaseInfo{FirstName: "Ada", Gender: "Female"}))
	require.NoError(t, store.SavePayload(ctx, &models.Address{City: "Lagos", Lat: &lat}))
	require.NoError(t, store.SavePayload(ctx, &models.Compensation{PayType: "Salary", PaidTimeOffIDs: []string{"p1"}}))

	first, err := store.Load(ctx)
	require.NoError(t, err)

	second, err := draft.NewStore(backend, "tab-1").Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, models.StepBankAccount, first.ActiveStep)
	require.NotNil(t, first.EntityID)
	assert.Equal(t, "e1", *first.EntityID)
	assert.Equal(t, "Ada", first.Payloads.BaseInfo.FirstName)
	assert.Equal(t, &lat, first.Payloads.Address.Lat)
	assert.Equal(t, []string{"p1"}, first.Payloads.Compensation.PaidTimeOffIDs)
	assert.Nil(t, first.Payloads.TaxInfo)
}

func TestStore_CorruptKeysAreSkipped(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := draft.NewMemoryBackend()
	store := draft.NewStore(backend, "tab-1")

	require.NoError(t, store.SavePayload(ctx, &models.BaseInfo{FirstName: "Ada"}))
	require.NoError(t, backend.Set(ctx, "tab-1:step:address", []byte("{not json")))
	require.NoError(t, backend.Set(ctx, "tab-1:active_step", []byte(`"payroll"`)))
	require.NoError(t, backend.Set(ctx, "tab-1:entity_id", []byte(`42`)))

	d, err := store.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, models.StepBaseInfo, d.ActiveStep)
	assert.Nil(t, d.EntityID)
	assert.Nil(t, d.Payloads.Address)
	require.NotNil(t, d.Payloads.BaseInfo)
	assert.Equal(t, "Ada", d.Payloads.BaseInfo.FirstName)
}

func TestStore_LoadFailsWhenBackendIsDown(t *testing.T) {
	t.Parallel()

	d, err := draft.NewStore(failingBackend{}, "tab-1").Load(context.Background())
	require.Error(t, err)
	require.NotNil(t, d)
	assert.Equal(t, models.StepBaseInfo, d.ActiveStep)
}

func TestStore_NamespacesAreIsolated(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := draft.NewMemoryBackend()

	first := draft.NewStore(backend, "tab-1")
	second := draft.NewStore(backend, "tab-2")

	require.NoError(t, first.SavePayload(ctx, &models.BaseInfo{FirstName: "Ada"}))
	require.NoError(t, second.SaveActiveStep(ctx, models.StepAddress))

	d, err := second.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, d.Payloads.BaseInfo)
	assert.Equal(t, models.StepAddress, d.ActiveStep)

	require.NoError(t, first.Clear(ctx))
	assert.Equal(t, []string{"tab-2:active_step"}, backend.Keys())
}

func TestStore_Watch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	publisher := &recordingPublisher{}
	store := draft.NewStore(draft.NewMemoryBackend(), "tab-1", draft.WithPublisher(publisher))

	changes, cancel := store.Watch()

	require.NoError(t, store.SaveEntityID(ctx, "e1"))
	assert.Equal(t, "e1", <-changes)

	require.NoError(t, store.SaveEntityID(ctx, "e1"))
	assert.Empty(t, changes, "saving the same id must not notify")

	require.NoError(t, store.SaveEntityID(ctx, "e2"))
	require.NoError(t, store.SaveEntityID(ctx, "e3"))
	assert.Equal(t, "e3", <-changes, "a slow watcher sees the latest id")

	store.Announce("e4")
	assert.Equal(t, "e4", <-changes)
	assert.Equal(t, "e4", store.EntityID())

	require.NoError(t, store.Clear(ctx))
	assert.Empty(t, <-changes)

	cancel()
	cancel()

	_, open := <-changes
	assert.False(t, open)

	assert.Equal(t, []string{"tab-1=e1", "tab-1=e2", "tab-1=e3", "tab-1="}, publisher.calls)
}

func TestStore_SavePayloadRejectsNil(t *testing.T) {
	t.Parallel()

	err := draft.NewStore(draft.NewMemoryBackend(), "tab-1").SavePayload(context.Background(), nil)
	require.Error(t, err)
}

func TestStore_ResetKeepsOnlyEntity(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := draft.NewMemoryBackend()
	publisher := &recordingPublisher{}
	store := draft.NewStore(backend, "tab-1", draft.WithPublisher(publisher))

	require.NoError(t, store.SaveEntityID(ctx, "e1"))
	require.NoError(t, store.SaveActiveStep(ctx, models.StepBenefits))
	require.NoError(t, store.SavePayload(ctx, &models.BaseInfo{FirstName: "Ada"}))

	changes, cancel := store.Watch()
	defer cancel()

	require.NoError(t, store.Reset(ctx, "e2"))

	assert.Equal(t, []string{"tab-1:entity_id"}, backend.Keys())
	assert.Equal(t, "e2", <-changes)
	assert.Equal(t, "e2", store.EntityID())

	d, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, d.EntityID)
	assert.Equal(t, "e2", *d.EntityID)
	assert.Equal(t, models.StepBaseInfo, d.ActiveStep)
	assert.Nil(t, d.Payloads.BaseInfo)

	assert.Equal(t, []string{"tab-1=e1", "tab-1=e2"}, publisher.calls)
}
