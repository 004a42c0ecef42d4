package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintrack/portfolio-service/internal/models"
)

// ErrPositionNotFound is returned when no position exists for an
// (owner, symbol) pair.
var ErrPositionNotFound = fmt.Errorf("position not found")

const positionColumns = `
	id, owner_id, symbol, company_name, quantity, average_cost, invested,
	current_price, current_value, gain_loss, gain_loss_percent, updated_at`

// GetPosition retrieves the position for one (owner, symbol) pair
func (db *DB) GetPosition(ownerID, symbol string) (*models.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM portfolio_positions
		WHERE owner_id = $1 AND symbol = $2
	`
	return db.scanSinglePosition(db.conn.QueryRow(query, ownerID, symbol))
}

// ListPositions retrieves all of an owner's positions, highest current value
// first; never-valued positions sort last
func (db *DB) ListPositions(ownerID string) ([]*models.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM portfolio_positions
		WHERE owner_id = $1
		ORDER BY current_value DESC NULLS LAST, symbol ASC
	`
	return db.scanPositions(db.conn.Query(query, ownerID))
}

// UpdateValuation writes the market-price derived fields after a refresh
func (db *DB) UpdateValuation(id int, price, value, gainLoss, gainLossPercent decimal.Decimal) error {
	query := `
		UPDATE portfolio_positions SET
			current_price = $2, current_value = $3,
			gain_loss = $4, gain_loss_percent = $5, updated_at = $6
		WHERE id = $1
	`
	result, err := db.conn.Exec(query, id, price, value, gainLoss, gainLossPercent, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update valuation: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("position %d: %w", id, ErrPositionNotFound)
	}
	return nil
}

func (db *DB) scanSinglePosition(row *sql.Row) (*models.Position, error) {
	var p models.Position
	var companyName sql.NullString

	err := row.Scan(
		&p.ID, &p.OwnerID, &p.Symbol, &companyName, &p.Quantity, &p.AverageCost,
		&p.Invested, &p.CurrentPrice, &p.CurrentValue, &p.GainLoss,
		&p.GainLossPercent, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrPositionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}

	p.CompanyName = companyName.String
	return &p, nil
}

func (db *DB) scanPositions(rows *sql.Rows, err error) ([]*models.Position, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []*models.Position
	for rows.Next() {
		var p models.Position
		var companyName sql.NullString

		err := rows.Scan(
			&p.ID, &p.OwnerID, &p.Symbol, &companyName, &p.Quantity, &p.AverageCost,
			&p.Invested, &p.CurrentPrice, &p.CurrentValue, &p.GainLoss,
			&p.GainLossPercent, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}

		p.CompanyName = companyName.String
		positions = append(positions, &p)
	}

	return positions, nil
}
