package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE employees (
				id UUID PRIMARY KEY,
				email VARCHAR(255) NOT NULL DEFAULT '',
				first_name VARCHAR(255) NOT NULL DEFAULT '',
				last_name VARCHAR(255) NOT NULL DEFAULT '',
				data JSONB NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_employees_email ON employees(email);
			CREATE INDEX idx_employees_created_at ON employees(created_at);
			CREATE INDEX idx_employees_deleted_at ON employees(deleted_at);

			CREATE TABLE bank_accounts (
				id UUID PRIMARY KEY,
				person_id UUID NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
				bank_name VARCHAR(255) NOT NULL,
				account_name VARCHAR(255) NOT NULL,
				account_number VARCHAR(64) NOT NULL,
				routing_number VARCHAR(64) NOT NULL DEFAULT '',
				currency CHAR(3) NOT NULL,
				country VARCHAR(255) NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_bank_accounts_person_id ON bank_accounts(person_id);
		`,
		2: `
			CREATE TABLE roles (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT ''
			);

			CREATE TABLE paid_time_off (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				days_per_year INT NOT NULL DEFAULT 0
			);
		`,
	}
}
