// Package postgres implements ledger.Store against PostgreSQL with pgx: a
// pgxpool connection pool, SELECT ... FOR UPDATE with ascending-id lock
// ordering for transfers, NUMERIC(28,2) amounts via money.Money, UUID
// ids, and an explicit ledger.UnitOfWork rather than an ambient
// transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ledger-api/internal/ledger"
	"ledger-api/internal/logging"
	"ledger-api/internal/money"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const uniqueViolationCode = "23505"

// Store implements ledger.Store over a pgxpool.Pool.
type Store struct {
	pool *pgxpool.Pool
}

// New dials Postgres and verifies connectivity before returning.
func New(ctx context.Context, cfg *Config) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logging.Info("postgres connection pool created", map[string]any{
		"max_conns": poolConfig.MaxConns,
		"min_conns": poolConfig.MinConns,
	})

	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// unitOfWork wraps a single pgx.Tx.
type unitOfWork struct {
	tx pgx.Tx
}

func (u *unitOfWork) Commit(ctx context.Context) error   { return u.tx.Commit(ctx) }
func (u *unitOfWork) Rollback(ctx context.Context) error { return u.tx.Rollback(ctx) }

func (s *Store) BeginUnitOfWork(ctx context.Context) (ledger.UnitOfWork, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &unitOfWork{tx: tx}, nil
}

func txFrom(uow ledger.UnitOfWork) pgx.Tx {
	u, ok := uow.(*unitOfWork)
	if !ok {
		panic("postgres: foreign UnitOfWork passed to postgres.Store")
	}
	return u.tx
}

func (s *Store) CreateAccount(ctx context.Context, uow ledger.UnitOfWork, acc ledger.Account) error {
	const query = `
		INSERT INTO accounts (id, user_id, currency, balance, status, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := txFrom(uow).Exec(ctx, query,
		acc.AccountID, acc.UserID, acc.Currency, acc.Balance.Amount(), acc.Status, acc.Version, acc.CreatedAt, acc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func scanAccount(row pgx.Row) (*ledger.Account, error) {
	var (
		acc        ledger.Account
		balanceDec decimal.Decimal
	)
	err := row.Scan(&acc.AccountID, &acc.UserID, &acc.Currency, &balanceDec, &acc.Status, &acc.Version, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	bal, err := money.New(balanceDec, acc.Currency)
	if err != nil {
		return nil, fmt.Errorf("reconstruct balance: %w", err)
	}
	acc.Balance = bal
	return &acc, nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (*ledger.Account, error) {
	const query = `
		SELECT id, user_id, currency, balance, status, version, created_at, updated_at
		FROM accounts WHERE id = $1
	`
	return scanAccount(s.pool.QueryRow(ctx, query, id))
}

// GetAccountForUpdate locks the row with SELECT ... FOR UPDATE, held until
// uow commits or rolls back. Callers are responsible for acquiring locks
// across accounts in ascending id order to avoid deadlocking against a
// reciprocal transfer.
func (s *Store) GetAccountForUpdate(ctx context.Context, uow ledger.UnitOfWork, id string) (*ledger.Account, error) {
	const query = `
		SELECT id, user_id, currency, balance, status, version, created_at, updated_at
		FROM accounts WHERE id = $1
		FOR UPDATE
	`
	return scanAccount(txFrom(uow).QueryRow(ctx, query, id))
}

func (s *Store) ListAccountsByUser(ctx context.Context, userID string, currency *string) ([]ledger.Account, error) {
	query := `
		SELECT id, user_id, currency, balance, status, version, created_at, updated_at
		FROM accounts WHERE user_id = $1
	`
	args := []any{userID}
	if currency != nil {
		query += " AND currency = $2"
		args = append(args, *currency)
	}
	query += " ORDER BY created_at ASC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var out []ledger.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *acc)
	}
	return out, rows.Err()
}

func (s *Store) UpdateAccountBalance(ctx context.Context, uow ledger.UnitOfWork, id string, newBalance ledger.Account) error {
	const query = `
		UPDATE accounts
		SET balance = $1, version = $2, updated_at = $3
		WHERE id = $4
	`
	_, err := txFrom(uow).Exec(ctx, query, newBalance.Balance.Amount(), newBalance.Version, newBalance.UpdatedAt, id)
	if err != nil {
		return fmt.Errorf("update account balance: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

func (s *Store) CreateTransaction(ctx context.Context, uow ledger.UnitOfWork, tx ledger.Transaction) error {
	const query = `
		INSERT INTO transactions
			(id, from_account_id, to_account_id, amount, currency, transaction_type, status,
			 idempotency_key, reference_id, description, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := txFrom(uow).Exec(ctx, query,
		tx.TransactionID, tx.FromAccountID, tx.ToAccountID, tx.Amount.Amount(), tx.Amount.Currency(),
		tx.TransactionType, tx.Status, tx.IdempotencyKey, tx.ReferenceID, tx.Description, tx.CreatedAt, tx.CompletedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ledger.ErrUniqueViolation
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (s *Store) UpdateTransactionStatus(ctx context.Context, uow ledger.UnitOfWork, transactionID string, status ledger.TransactionStatus, completedAt *time.Time) error {
	const query = `
		UPDATE transactions SET status = $1, completed_at = $2 WHERE id = $3
	`
	_, err := txFrom(uow).Exec(ctx, query, status, completedAt, transactionID)
	if err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	return nil
}

func scanTransaction(row pgx.Row) (*ledger.Transaction, error) {
	var (
		tx         ledger.Transaction
		amountDec  decimal.Decimal
		currency   string
	)
	err := row.Scan(
		&tx.TransactionID, &tx.FromAccountID, &tx.ToAccountID, &amountDec, &currency,
		&tx.TransactionType, &tx.Status, &tx.IdempotencyKey, &tx.ReferenceID, &tx.Description,
		&tx.CreatedAt, &tx.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	amt, err := money.New(amountDec, currency)
	if err != nil {
		return nil, fmt.Errorf("reconstruct amount: %w", err)
	}
	tx.Amount = amt
	return &tx, nil
}

func (s *Store) GetTransaction(ctx context.Context, id string) (*ledger.Transaction, error) {
	const query = `
		SELECT id, from_account_id, to_account_id, amount, currency, transaction_type, status,
		       idempotency_key, reference_id, description, created_at, completed_at
		FROM transactions WHERE id = $1
	`
	return scanTransaction(s.pool.QueryRow(ctx, query, id))
}

// GetAccountTransactions returns the honest total row count alongside the
// requested page, running a real COUNT(*) rather than reporting the page
// length as the total (see DESIGN.md).
func (s *Store) GetAccountTransactions(ctx context.Context, accountID string, filter ledger.TransactionFilter) ([]ledger.Transaction, int64, error) {
	where := "WHERE (from_account_id = $1 OR to_account_id = $1)"
	args := []any{accountID}
	argN := 2
	if filter.Start != nil {
		where += fmt.Sprintf(" AND created_at >= $%d", argN)
		args = append(args, *filter.Start)
		argN++
	}
	if filter.End != nil {
		where += fmt.Sprintf(" AND created_at <= $%d", argN)
		args = append(args, *filter.End)
		argN++
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM transactions " + where
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	pageQuery := fmt.Sprintf(`
		SELECT id, from_account_id, to_account_id, amount, currency, transaction_type, status,
		       idempotency_key, reference_id, description, created_at, completed_at
		FROM transactions %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, argN, argN+1)
	args = append(args, limit, filter.Offset)

	rows, err := s.pool.Query(ctx, pageQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []ledger.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *tx)
	}
	return out, total, rows.Err()
}

func (s *Store) CreateEntries(ctx context.Context, uow ledger.UnitOfWork, entries ...ledger.TransactionEntry) error {
	const query = `
		INSERT INTO transaction_entries (id, transaction_id, account_id, entry_type, amount, currency)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	tx := txFrom(uow)
	for _, e := range entries {
		if _, err := tx.Exec(ctx, query, e.EntryID, e.TransactionID, e.AccountID, e.EntryType, e.Amount.Amount(), e.Amount.Currency()); err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}
	}
	return nil
}

func (s *Store) CreateAuditLogs(ctx context.Context, uow ledger.UnitOfWork, logs ...ledger.AuditLog) error {
	const query = `
		INSERT INTO audit_logs
			(id, transaction_id, account_id, action, old_balance, new_balance, user_id, ip_address, user_agent, extra_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	tx := txFrom(uow)
	for _, l := range logs {
		var oldBal, newBal *decimal.Decimal
		if l.OldBalance != nil {
			d := l.OldBalance.Amount()
			oldBal = &d
		}
		if l.NewBalance != nil {
			d := l.NewBalance.Amount()
			newBal = &d
		}
		if _, err := tx.Exec(ctx, query, l.LogID, l.TransactionID, l.AccountID, l.Action, oldBal, newBal, l.UserID, l.IPAddress, l.UserAgent, l.ExtraData, l.CreatedAt); err != nil {
			return fmt.Errorf("insert audit log: %w", err)
		}
	}
	return nil
}

func (s *Store) GetIdempotencyRecord(ctx context.Context, key string) (*ledger.IdempotencyRecord, error) {
	const query = `
		SELECT key, transaction_id, request_hash, response_data, created_at, expires_at
		FROM idempotency_records WHERE key = $1
	`
	var rec ledger.IdempotencyRecord
	err := s.pool.QueryRow(ctx, query, key).Scan(
		&rec.Key, &rec.TransactionID, &rec.RequestHash, &rec.ResponseData, &rec.CreatedAt, &rec.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}
		return nil, fmt.Errorf("scan idempotency record: %w", err)
	}
	return &rec, nil
}

func (s *Store) StoreIdempotencyRecord(ctx context.Context, uow ledger.UnitOfWork, rec ledger.IdempotencyRecord) error {
	const query = `
		INSERT INTO idempotency_records (key, transaction_id, request_hash, response_data, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := txFrom(uow).Exec(ctx, query, rec.Key, rec.TransactionID, rec.RequestHash, rec.ResponseData, rec.CreatedAt, rec.ExpiresAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ledger.ErrUniqueViolation
		}
		return fmt.Errorf("insert idempotency record: %w", err)
	}
	return nil
}
