// Package calc computes per-position profit/loss and portfolio summaries.
// All functions are pure; validation failures are returned, never coerced.
package calc

import (
	"fmt"
	"time"

	"github.com/fengyix/stockmon/internal/core"
)

// Profit computes the profit/loss record for one position against a live
// quote. The quote's current price must be a finite, non-negative number;
// anything else (NaN, ±Inf, negative) rejects the computation.
//
// Change and change-percent are relative to the previous close when the
// quote carries one, falling back to the buy price otherwise. A zero buy
// price yields 0% rather than failing.
func Profit(pos core.Position, q core.Quote) (core.Result, error) {
	if !core.IsFinite(q.Price) || q.Price < 0 {
		return core.Result{}, core.WrapError(core.ErrInvalidValue,
			fmt.Errorf("current price %v for %s", q.Price, pos.Code))
	}

	qty := float64(pos.Quantity)
	r := core.Result{
		Code:         pos.Code,
		Name:         pos.Name,
		CurrentPrice: q.Price,
		BuyPrice:     pos.BuyPrice,
		Quantity:     pos.Quantity,
		ProfitAmount: (q.Price - pos.BuyPrice) * qty,
		MarketValue:  q.Price * qty,
		CostBasis:    pos.BuyPrice * qty,
		Enabled:      pos.Enabled,
		LastUpdate:   time.Now().UnixMilli(),
	}
	if r.Name == "" {
		r.Name = q.Name
	}
	if pos.BuyPrice != 0 {
		r.ProfitPercent = (q.Price/pos.BuyPrice - 1) * 100
	}

	ref := pos.BuyPrice
	if q.PrevClose > 0 {
		ref = q.PrevClose
	}
	r.Change = q.Price - ref
	if ref != 0 {
		r.ChangePercent = r.Change / ref * 100
	}

	if q.Price > 0 {
		if q.High > 0 {
			r.DistanceToHigh = (q.High - q.Price) / q.Price * 100
		}
		if q.Low > 0 {
			r.DistanceToLow = (q.Price - q.Low) / q.Price * 100
		}
	}
	if q.VolumeRatio > 0 {
		r.VolumeRatio = q.VolumeRatio
	}

	return r, nil
}

// Summarize aggregates results into a portfolio summary. Disabled entries
// are excluded; StockCount counts the entries that were aggregated. A
// non-finite profit amount in an aggregated entry fails the whole call so
// data corruption surfaces instead of vanishing into a sum.
func Summarize(results []core.Result) (core.Summary, error) {
	var s core.Summary
	for _, r := range results {
		if !r.Enabled {
			continue
		}
		if !core.IsFinite(r.ProfitAmount) {
			return core.Summary{}, core.WrapError(core.ErrInvalidValue,
				fmt.Errorf("profit amount %v for %s", r.ProfitAmount, r.Code))
		}
		s.TotalProfit += r.ProfitAmount
		s.TotalMarketValue += r.MarketValue
		s.TotalCostBasis += r.CostBasis
		s.StockCount++
		switch {
		case r.ProfitAmount > 0:
			s.ProfitableCount++
		case r.ProfitAmount < 0:
			s.LosingCount++
		}
	}
	if s.TotalCostBasis != 0 {
		s.TotalProfitPercent = s.TotalProfit / s.TotalCostBasis * 100
	}
	return s, nil
}

// AveragePrice returns the quantity-weighted average of a series of fills,
// or 0 when the series is empty or its total quantity is zero.
func AveragePrice(txns []core.Transaction) float64 {
	var totalCost float64
	var totalQty int64
	for _, t := range txns {
		totalCost += t.Price * float64(t.Quantity)
		totalQty += t.Quantity
	}
	if totalQty == 0 {
		return 0
	}
	return totalCost / float64(totalQty)
}
