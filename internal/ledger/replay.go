package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/fintrack/portfolio-service/internal/models"
)

// Snapshot is the result of replaying one symbol's transaction history:
// the current weighted-average cost basis position.
type Snapshot struct {
	Symbol      string
	CompanyName string
	Quantity    int64
	Invested    decimal.Decimal
	AverageCost decimal.Decimal
}

var one = decimal.NewFromInt(1)

// Replay folds a transaction history, ordered by (executed_at, id) ascending,
// into the current position snapshot.
//
// BUY adds quantity and quantity*price to the invested basis; fees are part of
// the transaction's cash outlay but never amortized into the basis. SELL
// rescales the invested basis by the fraction of shares retained:
//
//	invested = invested * (1 - sold/preSaleQuantity)
//
// rather than subtracting the sold shares' own cost. The two differ once the
// average cost has drifted; the rescale form is the compatibility contract.
//
// A sell exceeding the held quantity at any point returns
// InsufficientPositionError and no snapshot.
func Replay(txs []*models.Transaction) (*Snapshot, error) {
	var (
		quantity    int64
		companyName string
		invested    = decimal.Zero
	)

	for _, tx := range txs {
		switch tx.Side {
		case models.SideBuy:
			quantity += tx.Quantity
			invested = invested.Add(tx.PricePerShare.Mul(decimal.NewFromInt(tx.Quantity))).Round(2)
		case models.SideSell:
			if tx.Quantity > quantity {
				return nil, &InsufficientPositionError{
					Symbol:    tx.Symbol,
					Requested: tx.Quantity,
					Held:      quantity,
				}
			}
			if tx.Quantity == quantity {
				quantity = 0
				invested = decimal.Zero
			} else {
				ratio := decimal.NewFromInt(tx.Quantity).
					DivRound(decimal.NewFromInt(quantity), 4)
				invested = invested.Mul(one.Sub(ratio)).Round(2)
				quantity -= tx.Quantity
			}
		}
		if tx.CompanyName != "" {
			companyName = tx.CompanyName
		}
	}

	snap := &Snapshot{
		CompanyName: companyName,
		Quantity:    quantity,
		Invested:    invested,
	}
	if len(txs) > 0 {
		snap.Symbol = txs[0].Symbol
	}
	if quantity > 0 {
		snap.AverageCost = invested.DivRound(decimal.NewFromInt(quantity), 4)
	} else {
		snap.Invested = decimal.Zero
		snap.AverageCost = decimal.Zero
	}
	return snap, nil
}
