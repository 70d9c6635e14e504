package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"voicebook/internal/core"
	"voicebook/internal/ledger"

	_ "modernc.org/sqlite"
)

var _ ledger.Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Insert implements ledger.Store
func (r *SQLiteRepository) Insert(ctx context.Context, rec core.Record) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO records (date, description, category, income_cents, var_cents, fix_cents)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.Date, rec.Desc, rec.Cat, rec.Income.Cents, rec.Var.Cents, rec.Fix.Cents)
	if err != nil {
		return 0, fmt.Errorf("insert record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted id: %w", err)
	}

	slog.DebugContext(ctx, "Record saved to SQLite",
		"id", id,
		"date", rec.Date,
		"income_cents", rec.Income.Cents,
		"var_cents", rec.Var.Cents,
		"fix_cents", rec.Fix.Cents)

	return id, nil
}

// Update implements ledger.Store
func (r *SQLiteRepository) Update(ctx context.Context, rec core.Record) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE records
		SET date = ?, description = ?, category = ?,
		    income_cents = ?, var_cents = ?, fix_cents = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, rec.Date, rec.Desc, rec.Cat, rec.Income.Cents, rec.Var.Cents, rec.Fix.Cents, rec.ID)
	if err != nil {
		return fmt.Errorf("update record %d: %w", rec.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update record %d: %w", rec.ID, err)
	}
	if n == 0 {
		return core.ErrRecordNotFound
	}
	return nil
}

// Delete implements ledger.Store
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete record %d: %w", id, err)
	}
	return nil
}

// ScanAll implements ledger.Store
func (r *SQLiteRepository) ScanAll(ctx context.Context) ([]core.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, date, description, category, income_cents, var_cents, fix_cents
		FROM records
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("scan records: %w", err)
	}
	defer rows.Close()

	var out []core.Record
	for rows.Next() {
		var rec core.Record
		if err := rows.Scan(&rec.ID, &rec.Date, &rec.Desc, &rec.Cat,
			&rec.Income.Cents, &rec.Var.Cents, &rec.Fix.Cents); err != nil {
			return nil, fmt.Errorf("scan record row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

// Clear implements ledger.Store
func (r *SQLiteRepository) Clear(ctx context.Context) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM records`)
	if err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	n, _ := res.RowsAffected()
	slog.InfoContext(ctx, "Records cleared", "count", n)
	return nil
}
