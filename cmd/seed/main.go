// Package main provides a CLI tool for creating the database schema and
// seeding it with initial data.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"tally/internal/infrastructure/storage/postgres"
	"tally/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	poolCfg := postgres.DefaultPoolConfig(dbURL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if err := applySchema(ctx, pool); err != nil {
		log.Fatalw("failed to apply schema", "error", err)
	}
	log.Info("schema applied")

	adminID, err := seedAdminUser(ctx, pool, log)
	if err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, pool, log, adminID); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

// applySchema creates all tables if missing. Idempotent; safe to rerun.
func applySchema(ctx context.Context, pool *postgres.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id                    BIGSERIAL PRIMARY KEY,
		email                 TEXT NOT NULL UNIQUE,
		password_hash         TEXT NOT NULL,
		first_name            TEXT NOT NULL DEFAULT '',
		last_name             TEXT NOT NULL DEFAULT '',
		is_active             BOOLEAN NOT NULL DEFAULT TRUE,
		is_admin              BOOLEAN NOT NULL DEFAULT FALSE,
		last_login_at         TIMESTAMPTZ,
		failed_login_attempts INT NOT NULL DEFAULT 0,
		locked_until          TIMESTAMPTZ,
		created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		version               INT NOT NULL DEFAULT 1
	)`,

	`CREATE TABLE IF NOT EXISTS user_companies (
		user_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		company_id BIGINT NOT NULL,
		granted_by BIGINT REFERENCES users(id),
		granted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, company_id)
	)`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id             BIGSERIAL PRIMARY KEY,
		user_id        BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token_hash     TEXT NOT NULL UNIQUE,
		expires_at     TIMESTAMPTZ NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		revoked_at     TIMESTAMPTZ,
		revoked_reason TEXT,
		user_agent     TEXT,
		ip_address     TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS cat_currencies (
		id             BIGSERIAL PRIMARY KEY,
		version        INT NOT NULL DEFAULT 1,
		code           TEXT NOT NULL,
		name           TEXT NOT NULL,
		active         BOOLEAN NOT NULL DEFAULT TRUE,
		symbol         TEXT,
		decimal_places INT NOT NULL DEFAULT 2
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_cat_currencies_code
		ON cat_currencies (code) WHERE active`,

	`CREATE TABLE IF NOT EXISTS cat_companies (
		id                     BIGSERIAL PRIMARY KEY,
		version                INT NOT NULL DEFAULT 1,
		code                   TEXT NOT NULL,
		name                   TEXT NOT NULL,
		active                 BOOLEAN NOT NULL DEFAULT TRUE,
		currency_id            BIGINT NOT NULL REFERENCES cat_currencies(id),
		fiscal_year_last_day   INT NOT NULL DEFAULT 31,
		fiscal_year_last_month INT NOT NULL DEFAULT 12,
		fiscal_lock_date       DATE,
		tax_lock_date          DATE,
		suspense_account_id    BIGINT
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_cat_companies_code
		ON cat_companies (code) WHERE active`,

	`CREATE TABLE IF NOT EXISTS cat_accounts (
		id           BIGSERIAL PRIMARY KEY,
		version      INT NOT NULL DEFAULT 1,
		code         TEXT NOT NULL,
		name         TEXT NOT NULL,
		active       BOOLEAN NOT NULL DEFAULT TRUE,
		company_id   BIGINT NOT NULL REFERENCES cat_companies(id),
		account_type TEXT NOT NULL,
		reconcile    BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_cat_accounts_company_code
		ON cat_accounts (company_id, code) WHERE active`,

	`CREATE TABLE IF NOT EXISTS cat_journals (
		id                       BIGSERIAL PRIMARY KEY,
		version                  INT NOT NULL DEFAULT 1,
		code                     TEXT NOT NULL,
		name                     TEXT NOT NULL,
		active                   BOOLEAN NOT NULL DEFAULT TRUE,
		company_id               BIGINT NOT NULL REFERENCES cat_companies(id),
		journal_type             TEXT NOT NULL,
		refund_sequence          BOOLEAN NOT NULL DEFAULT FALSE,
		payment_sequence         BOOLEAN NOT NULL DEFAULT FALSE,
		sequence_override_regex  TEXT,
		restrict_mode_hash_table BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_cat_journals_company_code
		ON cat_journals (company_id, code) WHERE active`,

	`CREATE TABLE IF NOT EXISTS doc_entries (
		id                     BIGSERIAL PRIMARY KEY,
		version                INT NOT NULL DEFAULT 1,
		company_id             BIGINT NOT NULL REFERENCES cat_companies(id),
		journal_id             BIGINT NOT NULL REFERENCES cat_journals(id),
		name                   TEXT NOT NULL DEFAULT '/',
		sequence_prefix        TEXT NOT NULL DEFAULT '',
		sequence_number        BIGINT NOT NULL DEFAULT 0,
		date                   DATE NOT NULL,
		ref                    TEXT NOT NULL DEFAULT '',
		state                  TEXT NOT NULL DEFAULT 'draft',
		doc_type               TEXT NOT NULL DEFAULT 'entry',
		posted_before          BOOLEAN NOT NULL DEFAULT FALSE,
		made_sequence_gap      BOOLEAN NOT NULL DEFAULT FALSE,
		inalterable_hash       TEXT,
		secure_sequence_number BIGINT NOT NULL DEFAULT 0,
		created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		created_by             TEXT NOT NULL DEFAULT '',
		updated_by             TEXT NOT NULL DEFAULT ''
	)`,
	// Chain scans and the FOR UPDATE lock walk this index backwards.
	`CREATE INDEX IF NOT EXISTS ix_doc_entries_chain
		ON doc_entries (journal_id, sequence_prefix, sequence_number)`,
	`CREATE INDEX IF NOT EXISTS ix_doc_entries_company_date
		ON doc_entries (company_id, date)`,
	// A number is unique within its chain once assigned.
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_doc_entries_chain_number
		ON doc_entries (journal_id, sequence_prefix, sequence_number)
		WHERE sequence_number > 0`,

	`CREATE TABLE IF NOT EXISTS doc_entry_lines (
		id                BIGSERIAL PRIMARY KEY,
		version           INT NOT NULL DEFAULT 1,
		entry_id          BIGINT NOT NULL REFERENCES doc_entries(id) ON DELETE CASCADE,
		account_id        BIGINT NOT NULL REFERENCES cat_accounts(id),
		partner_id        BIGINT,
		debit             NUMERIC(18,6) NOT NULL DEFAULT 0,
		credit            NUMERIC(18,6) NOT NULL DEFAULT 0,
		balance           NUMERIC(18,6) NOT NULL DEFAULT 0,
		currency_id       BIGINT REFERENCES cat_currencies(id),
		amount_currency   NUMERIC(18,6) NOT NULL DEFAULT 0,
		statement_line_id BIGINT,
		reconciled        BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS ix_doc_entry_lines_entry
		ON doc_entry_lines (entry_id)`,

	`CREATE TABLE IF NOT EXISTS sys_audit (
		id                 UUID PRIMARY KEY,
		entity_type        TEXT NOT NULL,
		entity_id          BIGINT NOT NULL,
		action             TEXT NOT NULL,
		user_id            TEXT NOT NULL DEFAULT '',
		user_email         TEXT NOT NULL DEFAULT '',
		changes            JSONB,
		changes_compressed BYTEA,
		compression_algo   TEXT NOT NULL DEFAULT 'none',
		metadata           JSONB,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS ix_sys_audit_entity
		ON sys_audit (entity_type, entity_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS sys_idempotency (
		idempotency_key       TEXT PRIMARY KEY,
		user_id               TEXT NOT NULL,
		operation             TEXT NOT NULL,
		status                TEXT NOT NULL,
		request_hash          TEXT NOT NULL,
		response              JSONB,
		response_status       INT,
		response_content_type TEXT,
		created_at            TIMESTAMPTZ NOT NULL,
		updated_at            TIMESTAMPTZ NOT NULL,
		expires_at            TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS ix_sys_idempotency_expires
		ON sys_idempotency (expires_at)`,
}

func seedAdminUser(ctx context.Context, pool *postgres.Pool, log *logger.Logger) (int64, error) {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@tally.local"
	}

	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "Admin123!"
	}

	var existingID int64
	err := pool.QueryRow(ctx,
		`SELECT id FROM users WHERE email = $1`,
		adminEmail,
	).Scan(&existingID)
	if err == nil {
		log.Infow("admin user already exists", "email", adminEmail, "user_id", existingID)
		return existingID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("check admin exists: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	var userID int64
	err = pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, first_name, last_name, is_active, is_admin)
		VALUES ($1, $2, 'System', 'Admin', true, true)
		RETURNING id
	`, adminEmail, string(passwordHash)).Scan(&userID)
	if err != nil {
		return 0, fmt.Errorf("insert admin user: %w", err)
	}

	log.Infow("admin user created", "email", adminEmail, "user_id", userID)
	return userID, nil
}

func seedDemoData(ctx context.Context, pool *postgres.Pool, log *logger.Logger, adminID int64) error {
	log.Info("seeding demo data...")

	// 1. Currencies
	currencies := []struct {
		code   string
		name   string
		symbol string
		places int
	}{
		{"EUR", "Euro", "€", 2},
		{"USD", "US Dollar", "$", 2},
		{"GBP", "Pound Sterling", "£", 2},
	}

	currencyIDs := make(map[string]int64)
	for _, c := range currencies {
		var cid int64
		err := pool.QueryRow(ctx, `
			INSERT INTO cat_currencies (code, name, symbol, decimal_places)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT DO NOTHING
			RETURNING id
		`, c.code, c.name, c.symbol, c.places).Scan(&cid)
		if errors.Is(err, pgx.ErrNoRows) {
			err = pool.QueryRow(ctx,
				`SELECT id FROM cat_currencies WHERE code = $1 AND active`, c.code).Scan(&cid)
		}
		if err != nil {
			log.Warnw("failed to seed currency", "code", c.code, "error", err)
			continue
		}
		currencyIDs[c.code] = cid
	}

	// 2. Company
	var companyID int64
	err := pool.QueryRow(ctx, `
		INSERT INTO cat_companies (code, name, currency_id)
		VALUES ('MAIN', 'Main Company', $1)
		ON CONFLICT DO NOTHING
		RETURNING id
	`, currencyIDs["EUR"]).Scan(&companyID)
	if errors.Is(err, pgx.ErrNoRows) {
		err = pool.QueryRow(ctx,
			`SELECT id FROM cat_companies WHERE code = 'MAIN' AND active`).Scan(&companyID)
	}
	if err != nil {
		return fmt.Errorf("seed company: %w", err)
	}

	if _, err := pool.Exec(ctx, `
		INSERT INTO user_companies (user_id, company_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, adminID, companyID); err != nil {
		log.Warnw("failed to link admin to company", "error", err)
	}

	// 3. Chart of accounts
	accounts := []struct {
		code      string
		name      string
		aType     string
		reconcile bool
	}{
		{"1100", "Accounts Receivable", "asset_receivable", true},
		{"1200", "Bank", "asset_cash", false},
		{"1400", "Inventory", "asset_current", false},
		{"2100", "Accounts Payable", "liability_payable", true},
		{"2200", "Tax Payable", "liability_current", false},
		{"3000", "Equity", "equity", false},
		{"4000", "Product Sales", "income", false},
		{"5000", "Cost of Goods Sold", "expense", false},
		{"9990", "Suspense", "asset_current", true},
	}

	var suspenseID int64
	for _, a := range accounts {
		var aid int64
		err := pool.QueryRow(ctx, `
			INSERT INTO cat_accounts (code, name, company_id, account_type, reconcile)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT DO NOTHING
			RETURNING id
		`, a.code, a.name, companyID, a.aType, a.reconcile).Scan(&aid)
		if errors.Is(err, pgx.ErrNoRows) {
			err = pool.QueryRow(ctx, `
				SELECT id FROM cat_accounts
				WHERE company_id = $1 AND code = $2 AND active
			`, companyID, a.code).Scan(&aid)
		}
		if err != nil {
			log.Warnw("failed to seed account", "code", a.code, "error", err)
			continue
		}
		if a.code == "9990" {
			suspenseID = aid
		}
	}

	if suspenseID != 0 {
		if _, err := pool.Exec(ctx, `
			UPDATE cat_companies SET suspense_account_id = $1 WHERE id = $2
		`, suspenseID, companyID); err != nil {
			log.Warnw("failed to set suspense account", "error", err)
		}
	}

	// 4. Journals. Sales journal carries the hash chain and split refund
	// numbering; bank journal splits payments.
	journals := []struct {
		code     string
		name     string
		jType    string
		refund   bool
		payment  bool
		restrict bool
	}{
		{"INV", "Customer Invoices", "sale", true, false, true},
		{"BILL", "Vendor Bills", "purchase", true, false, false},
		{"BNK", "Bank", "bank", false, true, false},
		{"MISC", "Miscellaneous Operations", "general", false, false, false},
	}

	for _, j := range journals {
		_, err := pool.Exec(ctx, `
			INSERT INTO cat_journals (
				code, name, company_id, journal_type,
				refund_sequence, payment_sequence, restrict_mode_hash_table
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT DO NOTHING
		`, j.code, j.name, companyID, j.jType, j.refund, j.payment, j.restrict)
		if err != nil {
			log.Warnw("failed to seed journal", "code", j.code, "error", err)
		}
	}

	log.Info("demo data seeded successfully")
	return nil
}
