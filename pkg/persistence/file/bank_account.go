package file

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dukex/roster/pkg/models"
	"github.com/dukex/roster/pkg/persistence"
)

// BankAccountRepository handles bank account file operations.
type BankAccountRepository struct {
	accounts *collection
}

func NewBankAccountRepository(root string) *BankAccountRepository {
	return &BankAccountRepository{accounts: newCollection(root, "bank_accounts")}
}

func (br *BankAccountRepository) Create(_ context.Context, account *models.BankAccount) error {
	br.accounts.mu.Lock()
	defer br.accounts.mu.Unlock()

	var existing models.BankAccount

	found, err := br.accounts.read(account.ID, &existing)
	if err != nil {
		return err
	}

	if found {
		return fmt.Errorf("bank account %s: %w", account.ID, persistence.ErrBankAccountAlreadyExists)
	}

	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}

	return br.accounts.write(account.ID, account)
}

func (br *BankAccountRepository) ListByPerson(_ context.Context, personID string) ([]models.BankAccount, error) {
	br.accounts.mu.RLock()
	defer br.accounts.mu.RUnlock()

	ids, err := br.accounts.ids()
	if err != nil {
		return nil, err
	}

	accounts := make([]models.BankAccount, 0)

	for _, id := range ids {
		var account models.BankAccount

		found, err := br.accounts.read(id, &account)
		if err != nil {
			return nil, err
		}

		if found && account.PersonID == personID {
			accounts = append(accounts, account)
		}
	}

	sort.SliceStable(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})

	return accounts, nil
}
