package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/fintrack/portfolio-service/internal/ledger"
	"github.com/fintrack/portfolio-service/internal/models"
)

const transactionColumns = `
	id, owner_id, symbol, company_name, side, quantity, price_per_share,
	total_amount, fees, notes, external_ref, executed_at, created_at`

// SaveTransactionWithSnapshot inserts a transaction and applies the rebuilt
// position snapshot in a single database transaction. A snapshot with
// quantity 0 removes the position row instead of keeping it at zero.
func (db *DB) SaveTransactionWithSnapshot(t *models.Transaction, snap *ledger.Snapshot) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO stock_transactions (
			owner_id, symbol, company_name, side, quantity, price_per_share,
			total_amount, fees, notes, external_ref, executed_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	now := time.Now()
	err = tx.QueryRow(query,
		t.OwnerID, t.Symbol, t.CompanyName, t.Side, t.Quantity, t.PricePerShare,
		t.TotalAmount, t.Fees, nullString(t.Notes), nullString(t.ExternalRef),
		t.ExecutedAt, now,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	t.CreatedAt = now

	if err := applySnapshot(tx, t.OwnerID, t.Symbol, snap); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteTransactionWithSnapshot removes a transaction and applies the
// position snapshot rebuilt from the remaining history, atomically.
func (db *DB) DeleteTransactionWithSnapshot(ownerID string, id int, snap *ledger.Snapshot) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`DELETE FROM stock_transactions WHERE id = $1 AND owner_id = $2`, id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("transaction %d: %w", id, ledger.ErrTransactionNotFound)
	}

	if err := applySnapshot(tx, ownerID, snap.Symbol, snap); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// applySnapshot upserts the rebuilt position, or deletes the row when the
// holding is back to zero. Valuation columns are left alone; they refresh on
// the next price sweep.
func applySnapshot(tx *sql.Tx, ownerID, symbol string, snap *ledger.Snapshot) error {
	if snap.Quantity == 0 {
		_, err := tx.Exec(
			`DELETE FROM portfolio_positions WHERE owner_id = $1 AND symbol = $2`,
			ownerID, symbol,
		)
		if err != nil {
			return fmt.Errorf("failed to delete position: %w", err)
		}
		return nil
	}

	query := `
		INSERT INTO portfolio_positions (
			owner_id, symbol, company_name, quantity, average_cost, invested, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (owner_id, symbol) DO UPDATE SET
			company_name = EXCLUDED.company_name,
			quantity = EXCLUDED.quantity,
			average_cost = EXCLUDED.average_cost,
			invested = EXCLUDED.invested,
			updated_at = EXCLUDED.updated_at
	`
	_, err := tx.Exec(query,
		ownerID, symbol, snap.CompanyName, snap.Quantity, snap.AverageCost,
		snap.Invested, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert position: %w", err)
	}
	return nil
}

// GetTransactionByID retrieves one transaction scoped to its owner
func (db *DB) GetTransactionByID(ownerID string, id int) (*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM stock_transactions
		WHERE id = $1 AND owner_id = $2
	`
	return db.scanSingleTransaction(db.conn.QueryRow(query, id, ownerID))
}

// ListTransactionsForReplay retrieves the full history for one symbol in
// replay order: executed_at ascending, insertion order breaking ties.
func (db *DB) ListTransactionsForReplay(ownerID, symbol string) ([]*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM stock_transactions
		WHERE owner_id = $1 AND symbol = $2
		ORDER BY executed_at ASC, id ASC
	`
	return db.scanTransactions(db.conn.Query(query, ownerID, symbol))
}

// ListTransactionsByOwner retrieves an owner's transactions, newest first
func (db *DB) ListTransactionsByOwner(ownerID string) ([]*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM stock_transactions
		WHERE owner_id = $1
		ORDER BY executed_at DESC, id DESC
	`
	return db.scanTransactions(db.conn.Query(query, ownerID))
}

// ListTransactionsBySymbol retrieves an owner's transactions for one symbol,
// newest first
func (db *DB) ListTransactionsBySymbol(ownerID, symbol string) ([]*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM stock_transactions
		WHERE owner_id = $1 AND symbol = $2
		ORDER BY executed_at DESC, id DESC
	`
	return db.scanTransactions(db.conn.Query(query, ownerID, symbol))
}

// TransactionExistsByExternalRef checks whether a broker-imported trade has
// already been recorded
func (db *DB) TransactionExistsByExternalRef(externalRef string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM stock_transactions WHERE external_ref = $1)`
	var exists bool
	if err := db.conn.QueryRow(query, externalRef).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check external ref: %w", err)
	}
	return exists, nil
}

func (db *DB) scanSingleTransaction(row *sql.Row) (*models.Transaction, error) {
	var t models.Transaction
	var companyName, notes, externalRef sql.NullString

	err := row.Scan(
		&t.ID, &t.OwnerID, &t.Symbol, &companyName, &t.Side, &t.Quantity,
		&t.PricePerShare, &t.TotalAmount, &t.Fees, &notes, &externalRef,
		&t.ExecutedAt, &t.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	t.CompanyName = companyName.String
	t.Notes = notes.String
	t.ExternalRef = externalRef.String
	return &t, nil
}

func (db *DB) scanTransactions(rows *sql.Rows, err error) ([]*models.Transaction, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		var t models.Transaction
		var companyName, notes, externalRef sql.NullString

		err := rows.Scan(
			&t.ID, &t.OwnerID, &t.Symbol, &companyName, &t.Side, &t.Quantity,
			&t.PricePerShare, &t.TotalAmount, &t.Fees, &notes, &externalRef,
			&t.ExecutedAt, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		t.CompanyName = companyName.String
		t.Notes = notes.String
		t.ExternalRef = externalRef.String
		transactions = append(transactions, &t)
	}

	return transactions, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
