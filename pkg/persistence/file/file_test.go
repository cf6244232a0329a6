package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dukex/roster/pkg/models"
	"github.com/dukex/roster/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPersistence(t *testing.T) {
	p := NewPersistence("/tmp/test").(*Persistence)
	assert.Equal(t, "/tmp/test", p.root)

	p = NewPersistence("file:///tmp/test").(*Persistence)
	assert.Equal(t, "/tmp/test", p.root)
}

func TestPersistence_HealthCheck(t *testing.T) {
	root := filepath.Join(t.TempDir(), "data")
	p := NewPersistence(root)

	require.NoError(t, p.HealthCheck(t.Context()))

	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.NoError(t, p.Close(t.Context()))
}

func TestEmployeeRepository_Lifecycle(t *testing.T) {
	repo := NewPersistence(t.TempDir()).EmployeeRepository()
	ctx := t.Context()

	employee := &models.Employee{ID: "e1", FirstName: "Ada", PaidTimeOffIDs: []string{"pto-1"}}
	require.NoError(t, repo.Create(ctx, employee))
	assert.False(t, employee.CreatedAt.IsZero())

	err := repo.Create(ctx, &models.Employee{ID: "e1"})
	assert.ErrorIs(t, err, persistence.ErrEmployeeAlreadyExists)

	fetched, err := repo.GetByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", fetched.FirstName)
	assert.Equal(t, []string{"pto-1"}, fetched.PaidTimeOffIDs)

	createdAt := fetched.CreatedAt
	fetched.LastName = "Lovelace"
	fetched.CreatedAt = time.Time{}
	require.NoError(t, repo.Update(ctx, fetched))

	fetched, err = repo.GetByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "Lovelace", fetched.LastName)
	assert.True(t, createdAt.Equal(fetched.CreatedAt))

	require.NoError(t, repo.Create(ctx, &models.Employee{ID: "e2", FirstName: "Grace"}))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, repo.Delete(ctx, "e1"))

	_, err = repo.GetByID(ctx, "e1")
	assert.True(t, persistence.IsEmployeeNotFound(err))
	assert.True(t, persistence.IsEmployeeNotFound(repo.Delete(ctx, "e1")))
	assert.True(t, persistence.IsEmployeeNotFound(repo.Update(ctx, &models.Employee{ID: "e1"})))

	all, err = repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "e2", all[0].ID)
}

func TestBankAccountRepository_ListByPerson(t *testing.T) {
	repo := NewPersistence(t.TempDir()).BankAccountRepository()
	ctx := t.Context()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, &models.BankAccount{ID: "b2", PersonID: "e1", BankName: "Second", CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, repo.Create(ctx, &models.BankAccount{ID: "b1", PersonID: "e1", BankName: "First", CreatedAt: base}))
	require.NoError(t, repo.Create(ctx, &models.BankAccount{ID: "b3", PersonID: "e2", BankName: "Other"}))

	err := repo.Create(ctx, &models.BankAccount{ID: "b1", PersonID: "e1"})
	assert.ErrorIs(t, err, persistence.ErrBankAccountAlreadyExists)

	accounts, err := repo.ListByPerson(ctx, "e1")
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "First", accounts[0].BankName)
	assert.Equal(t, "Second", accounts[1].BankName)

	accounts, err = repo.ListByPerson(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, accounts)
	assert.Empty(t, accounts)
}

func TestCatalogRepository(t *testing.T) {
	repo := NewPersistence(t.TempDir()).CatalogRepository()
	ctx := t.Context()

	roles, err := repo.Roles(ctx, models.CatalogFilter{})
	require.NoError(t, err)
	assert.Empty(t, roles)

	require.NoError(t, repo.SaveRoles(ctx, []models.Role{{ID: "r1", Name: "Engineer"}, {ID: "r2", Name: "Designer"}}))
	require.NoError(t, repo.SaveRoles(ctx, []models.Role{{ID: "r1", Name: "Software Engineer"}}))

	roles, err = repo.Roles(ctx, models.CatalogFilter{})
	require.NoError(t, err)
	assert.Equal(t, []models.Role{{ID: "r2", Name: "Designer"}, {ID: "r1", Name: "Software Engineer"}}, roles)

	roles, err = repo.Roles(ctx, models.CatalogFilter{Search: "soft"})
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "r1", roles[0].ID)

	require.NoError(t, repo.SavePaidTimeOff(ctx, []models.PaidTimeOff{
		{ID: "pto-1", Name: "Vacation", DaysPerYear: 25},
		{ID: "pto-2", Name: "Sick leave", DaysPerYear: 10},
	}))

	pto, err := repo.PaidTimeOff(ctx, models.CatalogFilter{IDs: []string{"pto-1"}})
	require.NoError(t, err)
	assert.Equal(t, []models.PaidTimeOff{{ID: "pto-1", Name: "Vacation", DaysPerYear: 25}}, pto)
}
