// Package portfolio revalues positions against current market prices and
// produces portfolio-level summaries and indicator readings.
package portfolio

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintrack/portfolio-service/internal/marketdata"
	"github.com/fintrack/portfolio-service/internal/models"
)

const topPerformerCount = 3

var hundred = decimal.NewFromInt(100)

// Store defines the position persistence the valuer needs.
type Store interface {
	ListPositions(ownerID string) ([]*models.Position, error)
	UpdateValuation(id int, price, value, gainLoss, gainLossPercent decimal.Decimal) error
}

// Valuer refreshes market prices onto positions and aggregates them into a
// portfolio summary.
type Valuer struct {
	store        Store
	prices       marketdata.Provider
	fetchTimeout time.Duration
}

// NewValuer creates a valuer. fetchTimeout bounds each per-symbol price
// lookup during a refresh sweep.
func NewValuer(store Store, prices marketdata.Provider, fetchTimeout time.Duration) *Valuer {
	if fetchTimeout <= 0 {
		fetchTimeout = 10 * time.Second
	}
	return &Valuer{
		store:        store,
		prices:       prices,
		fetchTimeout: fetchTimeout,
	}
}

// RefreshPrices fetches the latest close for every open position and writes
// the derived valuation fields back. Lookups run concurrently, each with its
// own timeout. A failed lookup leaves that position's last valuation stale
// and the sweep moves on; the return value counts positions refreshed.
func (v *Valuer) RefreshPrices(ctx context.Context, ownerID string) (int, error) {
	positions, err := v.store.ListPositions(ownerID)
	if err != nil {
		return 0, err
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		refreshed int
	)
	for _, pos := range positions {
		if pos.Quantity <= 0 {
			continue
		}
		wg.Add(1)
		go func(pos *models.Position) {
			defer wg.Done()

			fetchCtx, cancel := context.WithTimeout(ctx, v.fetchTimeout)
			defer cancel()

			price, err := v.prices.LatestClose(fetchCtx, pos.Symbol)
			if err != nil {
				log.Printf("price refresh skipped for %s: %v", pos.Symbol, err)
				return
			}

			value, gainLoss, pct := valuation(pos, price)
			if err := v.store.UpdateValuation(pos.ID, price, value, gainLoss, pct); err != nil {
				log.Printf("valuation update failed for %s: %v", pos.Symbol, err)
				return
			}

			mu.Lock()
			refreshed++
			mu.Unlock()
		}(pos)
	}
	wg.Wait()

	return refreshed, nil
}

// valuation derives current value, absolute gain/loss, and gain/loss percent
// from a position and a market price. Money rounds to cents; the percent is a
// ratio at 4 decimal places times 100.
func valuation(pos *models.Position, price decimal.Decimal) (value, gainLoss, pct decimal.Decimal) {
	value = price.Mul(decimal.NewFromInt(pos.Quantity)).Round(2)
	gainLoss = value.Sub(pos.Invested)
	if pos.Invested.IsPositive() {
		pct = gainLoss.DivRound(pos.Invested, 4).Mul(hundred)
	}
	return value, gainLoss, pct
}

// Summarize aggregates an owner's open positions into portfolio totals plus
// top-3 gainer and loser rankings. Positions that have never been revalued
// contribute their invested capital to the totals but are excluded from both
// rankings.
func (v *Valuer) Summarize(ownerID string) (*models.PortfolioSummary, error) {
	positions, err := v.store.ListPositions(ownerID)
	if err != nil {
		return nil, err
	}

	summary := &models.PortfolioSummary{
		TotalInvested: decimal.Zero,
		CurrentValue:  decimal.Zero,
		Positions:     []*models.Position{},
		TopGainers:    []models.TopPerformer{},
		TopLosers:     []models.TopPerformer{},
	}

	var ranked []*models.Position
	for _, pos := range positions {
		if pos.Quantity <= 0 {
			continue
		}
		summary.Positions = append(summary.Positions, pos)
		summary.TotalInvested = summary.TotalInvested.Add(pos.Invested)
		if pos.CurrentValue.Valid {
			summary.CurrentValue = summary.CurrentValue.Add(pos.CurrentValue.Decimal)
		}
		if pos.GainLossPercent.Valid {
			ranked = append(ranked, pos)
		}
	}

	summary.NumberOfPositions = len(summary.Positions)
	summary.TotalGainLoss = summary.CurrentValue.Sub(summary.TotalInvested)
	if summary.TotalInvested.IsPositive() {
		summary.TotalGainLossPercent = summary.TotalGainLoss.
			DivRound(summary.TotalInvested, 4).Mul(hundred)
	}

	summary.TopGainers = topPerformers(ranked, true)
	summary.TopLosers = topPerformers(ranked, false)
	return summary, nil
}

// topPerformers picks up to three positions with strictly positive (gainers)
// or strictly negative (losers) gain percent. Gainers sort best first, losers
// worst first, so the two lists never overlap.
func topPerformers(positions []*models.Position, gainers bool) []models.TopPerformer {
	var filtered []*models.Position
	for _, pos := range positions {
		pct := pos.GainLossPercent.Decimal
		if gainers && pct.IsPositive() {
			filtered = append(filtered, pos)
		} else if !gainers && pct.IsNegative() {
			filtered = append(filtered, pos)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		a := filtered[i].GainLossPercent.Decimal
		b := filtered[j].GainLossPercent.Decimal
		if gainers {
			return a.GreaterThan(b)
		}
		return a.LessThan(b)
	})

	if len(filtered) > topPerformerCount {
		filtered = filtered[:topPerformerCount]
	}

	performers := make([]models.TopPerformer, 0, len(filtered))
	for _, pos := range filtered {
		performers = append(performers, models.TopPerformer{
			Symbol:          pos.Symbol,
			CompanyName:     pos.CompanyName,
			GainLossPercent: pos.GainLossPercent.Decimal,
			GainLoss:        pos.GainLoss.Decimal,
		})
	}
	return performers
}
