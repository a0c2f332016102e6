package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"ledgerbot/internal/cache"
	"ledgerbot/internal/core"
	"ledgerbot/internal/ledger"

	_ "modernc.org/sqlite"
)

const (
	cacheKeyCurrencies = "currencies"
	cacheKeyCategories = "categories"
)

// SQLiteRepository is the durable ledger store. Every method is a single
// statement against one shared *sql.DB, so concurrent conversations
// serialize at the storage layer without application-level locking.
type SQLiteRepository struct {
	db         *sql.DB
	registries *cache.LRUCache[[]string]
}

var _ ledger.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:         db,
		registries: cache.NewLRUCache[[]string](4, 5*time.Minute),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// AddOperation implements ledger.OperationStore.
func (r *SQLiteRepository) AddOperation(ctx context.Context, op core.Operation) (int64, error) {
	category := sql.NullString{String: op.Category, Valid: op.Category != ""}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO operations (kind, amount_cents, currency, category, date) VALUES (?, ?, ?, ?, ?)`,
		string(op.Kind), op.Amount.Cents, op.Currency, category, op.Date.String())
	if err != nil {
		return 0, fmt.Errorf("insert operation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("operation id: %w", err)
	}

	slog.InfoContext(ctx, "Operation saved",
		"id", id,
		"kind", op.Kind,
		"amount_cents", op.Amount.Cents,
		"currency", op.Currency,
		"date", op.Date.String())

	return id, nil
}

// Balance implements ledger.OperationStore.
func (r *SQLiteRepository) Balance(ctx context.Context) (map[string]core.Money, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT currency,
		        SUM(CASE WHEN kind = 'income' THEN amount_cents ELSE -amount_cents END)
		 FROM operations
		 GROUP BY currency`)
	if err != nil {
		return nil, fmt.Errorf("query balance: %w", err)
	}
	defer rows.Close()

	balances := make(map[string]core.Money)
	for rows.Next() {
		var currency string
		var cents int64
		if err := rows.Scan(&currency, &cents); err != nil {
			return nil, fmt.Errorf("scan balance row: %w", err)
		}
		balances[currency] = core.Money{Cents: cents}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate balance rows: %w", err)
	}
	return balances, nil
}

// OperationsByDate implements ledger.OperationStore.
func (r *SQLiteRepository) OperationsByDate(ctx context.Context, date core.Date) ([]core.Operation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, kind, amount_cents, currency, category, date
		 FROM operations
		 WHERE date = ?
		 ORDER BY id ASC`,
		date.String())
	if err != nil {
		return nil, fmt.Errorf("query operations by date: %w", err)
	}
	defer rows.Close()

	var ops []core.Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operation rows: %w", err)
	}
	return ops, nil
}

// GetOperation returns a single operation by id, or sql.ErrNoRows.
func (r *SQLiteRepository) GetOperation(ctx context.Context, id int64) (core.Operation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, kind, amount_cents, currency, category, date FROM operations WHERE id = ?`, id)
	return scanOperation(row)
}

// DeleteOperation implements ledger.OperationStore. Missing ids are a no-op.
func (r *SQLiteRepository) DeleteOperation(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM operations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete operation: %w", err)
	}
	return nil
}

// UpdateOperationAmount implements ledger.OperationStore. Missing ids are a
// no-op.
func (r *SQLiteRepository) UpdateOperationAmount(ctx context.Context, id int64, amount core.Money) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE operations SET amount_cents = ? WHERE id = ?`, amount.Cents, id); err != nil {
		return fmt.Errorf("update operation amount: %w", err)
	}
	return nil
}

// ClearOperations implements ledger.OperationStore. Registries stay intact.
func (r *SQLiteRepository) ClearOperations(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM operations`); err != nil {
		return fmt.Errorf("clear operations: %w", err)
	}
	slog.InfoContext(ctx, "All operations cleared")
	return nil
}

// MonthlyCategoryStats implements ledger.OperationStore.
func (r *SQLiteRepository) MonthlyCategoryStats(ctx context.Context, yearMonth string) ([]core.CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, currency, SUM(amount_cents)
		 FROM operations
		 WHERE kind = 'expense' AND date LIKE ?
		 GROUP BY category, currency
		 ORDER BY category, currency`,
		yearMonth+"-%")
	if err != nil {
		return nil, fmt.Errorf("query monthly stats: %w", err)
	}
	defer rows.Close()

	var totals []core.CategoryTotal
	for rows.Next() {
		var category sql.NullString
		var t core.CategoryTotal
		if err := rows.Scan(&category, &t.Currency, &t.Total.Cents); err != nil {
			return nil, fmt.Errorf("scan stats row: %w", err)
		}
		t.Category = category.String
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats rows: %w", err)
	}
	return totals, nil
}

// AddCurrency implements ledger.CurrencyRegistry. Duplicates are swallowed
// at the statement level; created reports whether a row was inserted.
func (r *SQLiteRepository) AddCurrency(ctx context.Context, code string) (bool, error) {
	code = core.NormalizeCurrency(code)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO currencies (code) VALUES (?) ON CONFLICT(code) DO NOTHING`, code)
	if err != nil {
		return false, fmt.Errorf("insert currency: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("currency rows affected: %w", err)
	}
	r.registries.Delete(cacheKeyCurrencies)
	return affected > 0, nil
}

// DeleteCurrency implements ledger.CurrencyRegistry. Existing operations
// keep the deleted code.
func (r *SQLiteRepository) DeleteCurrency(ctx context.Context, code string) error {
	code = core.NormalizeCurrency(code)
	if _, err := r.db.ExecContext(ctx, `DELETE FROM currencies WHERE code = ?`, code); err != nil {
		return fmt.Errorf("delete currency: %w", err)
	}
	r.registries.Delete(cacheKeyCurrencies)
	return nil
}

// ListCurrencies implements ledger.CurrencyRegistry.
func (r *SQLiteRepository) ListCurrencies(ctx context.Context) ([]string, error) {
	return r.listRegistry(ctx, cacheKeyCurrencies, `SELECT code FROM currencies ORDER BY id ASC`)
}

// AddCategory implements ledger.CategoryRegistry.
func (r *SQLiteRepository) AddCategory(ctx context.Context, name string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name)
	if err != nil {
		return false, fmt.Errorf("insert category: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("category rows affected: %w", err)
	}
	r.registries.Delete(cacheKeyCategories)
	return affected > 0, nil
}

// DeleteCategory implements ledger.CategoryRegistry.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, name string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	r.registries.Delete(cacheKeyCategories)
	return nil
}

// ListCategories implements ledger.CategoryRegistry.
func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]string, error) {
	return r.listRegistry(ctx, cacheKeyCategories, `SELECT name FROM categories ORDER BY id ASC`)
}

func (r *SQLiteRepository) listRegistry(ctx context.Context, key, query string) ([]string, error) {
	if cached, ok := r.registries.Get(key); ok {
		return cached, nil
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", key, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", key, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", key, err)
	}

	r.registries.Set(key, values)
	return values, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOperation(row rowScanner) (core.Operation, error) {
	var op core.Operation
	var kind, date string
	var category sql.NullString
	if err := row.Scan(&op.ID, &kind, &op.Amount.Cents, &op.Currency, &category, &date); err != nil {
		return core.Operation{}, fmt.Errorf("scan operation: %w", err)
	}
	op.Kind = core.Kind(kind)
	op.Category = category.String
	parsed, err := core.ParseISODate(date)
	if err != nil {
		return core.Operation{}, fmt.Errorf("parse stored date %q: %w", date, err)
	}
	op.Date = parsed
	return op, nil
}
