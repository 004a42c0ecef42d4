// Package ledger rebuilds weighted-average cost-basis positions from
// transaction history and owns all ledger-mutating operations.
package ledger

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintrack/portfolio-service/internal/models"
)

// Store defines the persistence operations the ledger needs. The two
// write methods are atomic: the transaction row and the rebuilt position are
// committed together or not at all.
type Store interface {
	ListTransactionsForReplay(ownerID, symbol string) ([]*models.Transaction, error)
	GetTransactionByID(ownerID string, id int) (*models.Transaction, error)
	SaveTransactionWithSnapshot(t *models.Transaction, snap *Snapshot) error
	DeleteTransactionWithSnapshot(ownerID string, id int, snap *Snapshot) error
}

var symbolPattern = regexp.MustCompile(`^[A-Za-z]{1,5}$`)

// CreateTransactionRequest carries the user-supplied fields for a new
// transaction.
type CreateTransactionRequest struct {
	OwnerID       string
	Symbol        string
	CompanyName   string
	Side          string
	Quantity      int64
	PricePerShare decimal.Decimal
	Fees          decimal.Decimal
	Notes         string
	ExternalRef   string
	ExecutedAt    time.Time
}

// Service validates and persists transactions, rebuilding the affected
// position on every mutation. Rebuilds for the same (owner, symbol) pair are
// serialized with a keyed mutex.
type Service struct {
	store Store
	locks *keyedMutex
}

// NewService creates a ledger service on top of a Store.
func NewService(store Store) *Service {
	return &Service{
		store: store,
		locks: newKeyedMutex(),
	}
}

// CreateTransaction validates the request, checks sells against the replayed
// holding before any write, then atomically persists the transaction and the
// rebuilt position. A sell that exceeds the held quantity returns
// InsufficientPositionError and leaves all state untouched.
func (s *Service) CreateTransaction(req CreateTransactionRequest) (*models.Transaction, error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	tx := &models.Transaction{
		OwnerID:       req.OwnerID,
		Symbol:        req.Symbol,
		CompanyName:   req.CompanyName,
		Side:          req.Side,
		Quantity:      req.Quantity,
		PricePerShare: req.PricePerShare,
		TotalAmount:   totalAmount(req.Quantity, req.PricePerShare, req.Fees),
		Fees:          req.Fees,
		Notes:         req.Notes,
		ExternalRef:   req.ExternalRef,
		ExecutedAt:    req.ExecutedAt,
	}

	unlock := s.locks.lock(req.OwnerID + ":" + req.Symbol)
	defer unlock()

	history, err := s.store.ListTransactionsForReplay(req.OwnerID, req.Symbol)
	if err != nil {
		return nil, err
	}

	snap, err := Replay(mergeByExecutedAt(history, tx))
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveTransactionWithSnapshot(tx, snap); err != nil {
		return nil, err
	}
	return tx, nil
}

// DeleteTransaction removes a transaction and rebuilds the position from the
// remaining history. If removing the transaction would make a later sell
// exceed the holding at that point, the delete is rejected and nothing
// changes.
func (s *Service) DeleteTransaction(ownerID string, id int) (*models.Transaction, error) {
	tx, err := s.store.GetTransactionByID(ownerID, id)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(ownerID + ":" + tx.Symbol)
	defer unlock()

	history, err := s.store.ListTransactionsForReplay(ownerID, tx.Symbol)
	if err != nil {
		return nil, err
	}

	remaining := make([]*models.Transaction, 0, len(history))
	for _, h := range history {
		if h.ID != id {
			remaining = append(remaining, h)
		}
	}

	snap, err := Replay(remaining)
	if err != nil {
		return nil, err
	}
	// an emptied history replays to a snapshot without a symbol
	snap.Symbol = tx.Symbol

	if err := s.store.DeleteTransactionWithSnapshot(ownerID, id, snap); err != nil {
		return nil, err
	}
	return tx, nil
}

// RebuildPosition replays the current history for one symbol and returns the
// resulting snapshot without mutating anything.
func (s *Service) RebuildPosition(ownerID, symbol string) (*Snapshot, error) {
	history, err := s.store.ListTransactionsForReplay(ownerID, strings.ToUpper(symbol))
	if err != nil {
		return nil, err
	}
	return Replay(history)
}

func validateRequest(req *CreateTransactionRequest) error {
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	if !symbolPattern.MatchString(req.Symbol) {
		return &InvalidInputError{Field: "symbol", Reason: "must be 1-5 letters"}
	}
	if req.Side != models.SideBuy && req.Side != models.SideSell {
		return &InvalidInputError{Field: "side", Reason: "must be BUY or SELL"}
	}
	if req.Quantity <= 0 {
		return &InvalidInputError{Field: "quantity", Reason: "must be positive"}
	}
	if req.PricePerShare.LessThanOrEqual(decimal.Zero) {
		return &InvalidInputError{Field: "price_per_share", Reason: "must be positive"}
	}
	if req.Fees.IsNegative() {
		return &InvalidInputError{Field: "fees", Reason: "cannot be negative"}
	}
	if req.OwnerID == "" {
		return &InvalidInputError{Field: "owner", Reason: "is required"}
	}
	if req.ExecutedAt.IsZero() {
		req.ExecutedAt = time.Now()
	}
	return nil
}

// totalAmount is the full cash outlay of the transaction: shares at price,
// rounded to cents, plus fees. Fees live here and never in the cost basis.
func totalAmount(quantity int64, price, fees decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(quantity)).Round(2).Add(fees)
}

// mergeByExecutedAt inserts the candidate into the already-sorted history,
// keeping the (executed_at asc, insertion order) replay ordering.
func mergeByExecutedAt(history []*models.Transaction, candidate *models.Transaction) []*models.Transaction {
	merged := make([]*models.Transaction, 0, len(history)+1)
	merged = append(merged, history...)
	merged = append(merged, candidate)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].ExecutedAt.Before(merged[j].ExecutedAt)
	})
	return merged
}
