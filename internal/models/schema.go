package models

// Schema holds the database schema for the ledger service.
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id VARCHAR(36) PRIMARY KEY,
    entity_id VARCHAR(64) NOT NULL,
    code VARCHAR(32) NOT NULL,
    name VARCHAR(255) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    type VARCHAR(16) NOT NULL,
    normal_balance VARCHAR(8) NOT NULL,
    parent_id VARCHAR(36) REFERENCES accounts(id),
    level INT NOT NULL DEFAULT 0,
    path VARCHAR(512) NOT NULL,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    is_system BOOLEAN NOT NULL DEFAULT FALSE,
    allow_transactions BOOLEAN NOT NULL DEFAULT TRUE,
    is_cash BOOLEAN NOT NULL DEFAULT FALSE,
    cash_flow_activity VARCHAR(16) NOT NULL DEFAULT '',
    current_balance DECIMAL(19, 4) NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    UNIQUE (entity_id, code)
);

CREATE INDEX IF NOT EXISTS idx_accounts_entity ON accounts(entity_id);
CREATE INDEX IF NOT EXISTS idx_accounts_parent ON accounts(parent_id);
CREATE INDEX IF NOT EXISTS idx_accounts_path ON accounts(entity_id, path);

CREATE TABLE IF NOT EXISTS transactions (
    id VARCHAR(36) PRIMARY KEY,
    entity_id VARCHAR(64) NOT NULL,
    description TEXT NOT NULL,
    reference VARCHAR(128) NOT NULL DEFAULT '',
    transaction_date TIMESTAMP NOT NULL,
    posting_date TIMESTAMP,
    status VARCHAR(16) NOT NULL,
    reversed_transaction_id VARCHAR(36) REFERENCES transactions(id),
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_transactions_entity_date ON transactions(entity_id, transaction_date);
CREATE INDEX IF NOT EXISTS idx_transactions_status ON transactions(status);

CREATE TABLE IF NOT EXISTS journal_entries (
    id VARCHAR(36) PRIMARY KEY,
    transaction_id VARCHAR(36) NOT NULL REFERENCES transactions(id),
    account_id VARCHAR(36) NOT NULL REFERENCES accounts(id),
    debit DECIMAL(19, 4) NOT NULL DEFAULT 0,
    credit DECIMAL(19, 4) NOT NULL DEFAULT 0,
    currency VARCHAR(3) NOT NULL,
    base_amount DECIMAL(19, 4) NOT NULL DEFAULT 0,
    exchange_rate DECIMAL(19, 8) NOT NULL DEFAULT 1,
    memo TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_entries_transaction ON journal_entries(transaction_id);
CREATE INDEX IF NOT EXISTS idx_entries_account ON journal_entries(account_id);

CREATE TABLE IF NOT EXISTS exchange_rates (
    from_currency VARCHAR(3) NOT NULL,
    to_currency VARCHAR(3) NOT NULL,
    rate DECIMAL(19, 8) NOT NULL,
    timestamp TIMESTAMP NOT NULL DEFAULT NOW(),

    PRIMARY KEY (from_currency, to_currency, timestamp)
);

CREATE TABLE IF NOT EXISTS reconciliation_reports (
    id VARCHAR(36) PRIMARY KEY,
    entity_id VARCHAR(64) NOT NULL,
    start_date TIMESTAMP NOT NULL,
    end_date TIMESTAMP NOT NULL,
    total_transactions INT NOT NULL,
    total_debits DECIMAL(19, 4) NOT NULL,
    total_credits DECIMAL(19, 4) NOT NULL,
    is_balanced BOOLEAN NOT NULL,
    discrepancies TEXT[],
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_recon_entity_dates ON reconciliation_reports(entity_id, start_date, end_date);
`
