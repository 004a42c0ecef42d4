package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintrack/portfolio-service/internal/models"
)

func tx(side string, quantity int64, price float64, executedAt time.Time) *models.Transaction {
	return &models.Transaction{
		Symbol:        "AAPL",
		Side:          side,
		Quantity:      quantity,
		PricePerShare: decimal.NewFromFloat(price),
		Fees:          decimal.NewFromFloat(1.50),
		ExecutedAt:    executedAt,
	}
}

func TestReplayBuysAccumulateWeightedAverage(t *testing.T) {
	now := time.Now()
	snap, err := Replay([]*models.Transaction{
		tx(models.SideBuy, 10, 100.00, now),
		tx(models.SideBuy, 10, 200.00, now.Add(time.Hour)),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(20), snap.Quantity)
	assert.True(t, decimal.NewFromFloat(3000.00).Equal(snap.Invested), "invested = %s", snap.Invested)
	assert.True(t, decimal.NewFromFloat(150.00).Equal(snap.AverageCost), "average cost = %s", snap.AverageCost)
}

func TestReplayFeesStayOutOfBasis(t *testing.T) {
	buy := tx(models.SideBuy, 10, 100.00, time.Now())
	buy.Fees = decimal.NewFromFloat(9.99)

	snap, err := Replay([]*models.Transaction{buy})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromFloat(1000.00).Equal(snap.Invested),
		"fees must not inflate the invested basis, got %s", snap.Invested)
}

func TestReplayPartialSellRescalesBasis(t *testing.T) {
	now := time.Now()
	snap, err := Replay([]*models.Transaction{
		tx(models.SideBuy, 10, 100.00, now),
		tx(models.SideBuy, 10, 200.00, now.Add(time.Hour)),
		tx(models.SideSell, 5, 250.00, now.Add(2*time.Hour)),
	})
	require.NoError(t, err)

	// invested scales by 1 - 5/20 = 0.75; average cost is unchanged
	assert.Equal(t, int64(15), snap.Quantity)
	assert.True(t, decimal.NewFromFloat(2250.00).Equal(snap.Invested), "invested = %s", snap.Invested)
	assert.True(t, decimal.NewFromFloat(150.00).Equal(snap.AverageCost), "average cost = %s", snap.AverageCost)
}

func TestReplaySellRatioRoundsToFourPlaces(t *testing.T) {
	now := time.Now()
	snap, err := Replay([]*models.Transaction{
		tx(models.SideBuy, 3, 100.00, now),
		tx(models.SideSell, 1, 110.00, now.Add(time.Hour)),
	})
	require.NoError(t, err)

	// ratio 1/3 rounds to 0.3333, invested = 300 * 0.6667 = 200.01
	assert.Equal(t, int64(2), snap.Quantity)
	assert.True(t, decimal.NewFromFloat(200.01).Equal(snap.Invested), "invested = %s", snap.Invested)
}

func TestReplayFullSellZeroesPosition(t *testing.T) {
	now := time.Now()
	snap, err := Replay([]*models.Transaction{
		tx(models.SideBuy, 10, 100.00, now),
		tx(models.SideBuy, 10, 200.00, now.Add(time.Hour)),
		tx(models.SideSell, 20, 250.00, now.Add(2*time.Hour)),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(0), snap.Quantity)
	assert.True(t, snap.Invested.IsZero(), "invested must be exactly zero, got %s", snap.Invested)
	assert.True(t, snap.AverageCost.IsZero())
}

func TestReplayRejectsOversell(t *testing.T) {
	now := time.Now()
	_, err := Replay([]*models.Transaction{
		tx(models.SideBuy, 5, 100.00, now),
		tx(models.SideSell, 8, 110.00, now.Add(time.Hour)),
	})

	var insufficientErr *InsufficientPositionError
	require.ErrorAs(t, err, &insufficientErr)
	assert.Equal(t, int64(8), insufficientErr.Requested)
	assert.Equal(t, int64(5), insufficientErr.Held)
}

func TestReplayRejectsSellBeforeAnyBuy(t *testing.T) {
	_, err := Replay([]*models.Transaction{
		tx(models.SideSell, 1, 100.00, time.Now()),
	})

	var insufficientErr *InsufficientPositionError
	require.ErrorAs(t, err, &insufficientErr)
	assert.Equal(t, int64(0), insufficientErr.Held)
}

func TestReplayEmptyHistory(t *testing.T) {
	snap, err := Replay(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), snap.Quantity)
	assert.True(t, snap.Invested.IsZero())
}

func TestReplayCarriesLatestCompanyName(t *testing.T) {
	now := time.Now()
	first := tx(models.SideBuy, 1, 100.00, now)
	first.CompanyName = "Apple"
	second := tx(models.SideBuy, 1, 100.00, now.Add(time.Hour))
	second.CompanyName = "Apple Inc."

	snap, err := Replay([]*models.Transaction{first, second})
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", snap.CompanyName)
}
