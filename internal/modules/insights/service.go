// Package insights computes spending statistics and the net-worth trend
// shown on the UI overview screen.
package insights

import (
	"fmt"
	"sort"

	"github.com/markcheno/go-talib"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"github.com/lunaria-app/lunaria/internal/domain"
)

// trendWindow is the moving-average period for the net-worth trend line.
const trendWindow = 7

// TransactionTotals is the slice of the transactions repository insights
// needs.
type TransactionTotals interface {
	MonthlyTotals(txType domain.TransactionType) (map[string]decimal.Decimal, error)
}

// Service computes derived statistics
type Service struct {
	totals TransactionTotals
	repo   *Repository
	log    zerolog.Logger
}

// NewService creates a new insights service
func NewService(totals TransactionTotals, repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		totals: totals,
		repo:   repo,
		log:    log.With().Str("service", "insights").Logger(),
	}
}

// MonthlyAmount pairs a YYYY-MM month with its summed amount
type MonthlyAmount struct {
	Month  string          `json:"month"`
	Amount decimal.Decimal `json:"amount"`
}

// SpendingStats summarizes monthly spending behavior
type SpendingStats struct {
	Months      []MonthlyAmount `json:"months"`
	MeanExpense float64         `json:"mean_expense"`
	StdDev      float64         `json:"std_dev"`
	MeanIncome  float64         `json:"mean_income"`
}

// Spending aggregates expense and income totals per month and computes the
// spread of monthly spending.
func (s *Service) Spending() (*SpendingStats, error) {
	expenses, err := s.totals.MonthlyTotals(domain.TypeExpense)
	if err != nil {
		return nil, fmt.Errorf("failed to load expense totals: %w", err)
	}
	income, err := s.totals.MonthlyTotals(domain.TypeIncome)
	if err != nil {
		return nil, fmt.Errorf("failed to load income totals: %w", err)
	}

	months := make([]string, 0, len(expenses))
	for month := range expenses {
		months = append(months, month)
	}
	sort.Strings(months)

	stats := &SpendingStats{}
	expenseValues := make([]float64, 0, len(months))
	for _, month := range months {
		amount := expenses[month]
		stats.Months = append(stats.Months, MonthlyAmount{Month: month, Amount: amount})
		expenseValues = append(expenseValues, amount.InexactFloat64())
	}

	if len(expenseValues) > 0 {
		stats.MeanExpense = stat.Mean(expenseValues, nil)
	}
	if len(expenseValues) > 1 {
		stats.StdDev = stat.StdDev(expenseValues, nil)
	}

	incomeValues := make([]float64, 0, len(income))
	for _, amount := range income {
		incomeValues = append(incomeValues, amount.InexactFloat64())
	}
	if len(incomeValues) > 0 {
		stats.MeanIncome = stat.Mean(incomeValues, nil)
	}

	return stats, nil
}

// TrendPoint is one day of the net-worth trend
type TrendPoint struct {
	Date    string  `json:"date"`
	Total   float64 `json:"total"`
	Average float64 `json:"average,omitempty"` // moving average, 0 until enough history
}

// Trend returns the recorded net-worth series with a simple moving average
// overlay.
func (s *Service) Trend(days int) ([]TrendPoint, error) {
	if days <= 0 {
		days = 90
	}

	history, err := s.repo.History(days)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return []TrendPoint{}, nil
	}

	totals := make([]float64, len(history))
	for i, snap := range history {
		totals[i] = snap.Total.InexactFloat64()
	}

	var averages []float64
	if len(totals) >= trendWindow {
		averages = talib.Sma(totals, trendWindow)
	}

	points := make([]TrendPoint, len(history))
	for i, snap := range history {
		points[i] = TrendPoint{Date: snap.Date, Total: totals[i]}
		if averages != nil && i >= trendWindow-1 {
			points[i].Average = averages[i]
		}
	}

	return points, nil
}
