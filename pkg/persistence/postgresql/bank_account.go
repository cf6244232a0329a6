package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/roster/pkg/models"
	"github.com/dukex/roster/pkg/persistence"
	"github.com/lib/pq"
)

type BankAccountRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewBankAccountRepository(db *sql.DB, logger *slog.Logger) *BankAccountRepository {
	return &BankAccountRepository{db: db, logger: logger}
}

func (r *BankAccountRepository) Create(ctx context.Context, account *models.BankAccount) error {
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bank_accounts (id, person_id, bank_name, account_name, account_number, routing_number, currency, country, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		account.ID, account.PersonID, account.BankName, account.AccountName, account.AccountNumber,
		account.RoutingNumber, account.Currency, account.Country, account.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("bank account %s: %w", account.ID, persistence.ErrBankAccountAlreadyExists)
		}

		return fmt.Errorf("failed to insert bank account %s: %w", account.ID, err)
	}

	return nil
}

func (r *BankAccountRepository) ListByPerson(ctx context.Context, personID string) ([]models.BankAccount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, person_id, bank_name, account_name, account_number, routing_number, currency, country, created_at
		FROM bank_accounts
		WHERE person_id = $1
		ORDER BY created_at ASC`, personID)
	if isMalformedID(err) {
		return []models.BankAccount{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query bank accounts of %s: %w", personID, err)
	}
	defer rows.Close()

	accounts := make([]models.BankAccount, 0)

	for rows.Next() {
		var account models.BankAccount

		err := rows.Scan(&account.ID, &account.PersonID, &account.BankName, &account.AccountName,
			&account.AccountNumber, &account.RoutingNumber, &account.Currency, &account.Country, &account.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bank account: %w", err)
		}

		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bank accounts: %w", err)
	}

	return accounts, nil
}
