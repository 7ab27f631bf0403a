package core

import (
	"math"
	"time"
)

// Exchange identifies the listing exchange of a security code.
type Exchange string

const (
	ExchangeShanghai Exchange = "sh"
	ExchangeShenzhen Exchange = "sz"
)

// Position is a configured holding: a 6-digit security code plus the
// purchase terms. Name is optional and backfilled from the fetched quote.
type Position struct {
	Code     string   `json:"code"`
	Name     string   `json:"name,omitempty"`
	BuyPrice float64  `json:"buyPrice"`
	Quantity int64    `json:"quantity"`
	Enabled  bool     `json:"enabled"`
	Exchange Exchange `json:"exchange,omitempty"`
}

// Quote is a single snapshot of market data for one code.
// Price is the only mandatory numeric field; the rest are zero when the
// source does not provide them.
type Quote struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Open      float64 `json:"open,omitempty"`
	PrevClose float64 `json:"prevClose,omitempty"`
	High      float64 `json:"high,omitempty"`
	Low       float64 `json:"low,omitempty"`
	Volume    int64   `json:"volume,omitempty"`
	Amount    float64 `json:"amount,omitempty"`
	// VolumeRatio is the current volume relative to the recent average,
	// when the backend reports it directly.
	VolumeRatio float64   `json:"volumeRatio,omitempty"`
	Date        string    `json:"date,omitempty"`
	Time        string    `json:"time,omitempty"`
	Source      string    `json:"source"`
	FetchedAt   time.Time `json:"fetchedAt"`
}

// IsValid reports whether the quote carries a usable price.
func (q Quote) IsValid() bool {
	return q.Code != "" && IsFinite(q.Price) && q.Price >= 0
}

// IsFinite reports whether v is neither NaN nor an infinity.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Result is the computed profit/loss record for one position at one
// point in time.
type Result struct {
	Code           string  `json:"code"`
	Name           string  `json:"name"`
	CurrentPrice   float64 `json:"currentPrice"`
	BuyPrice       float64 `json:"buyPrice"`
	Quantity       int64   `json:"quantity"`
	ProfitAmount   float64 `json:"profitAmount"`
	ProfitPercent  float64 `json:"profitPercent"`
	MarketValue    float64 `json:"marketValue"`
	CostBasis      float64 `json:"costBasis"`
	Change         float64 `json:"change"`
	ChangePercent  float64 `json:"changePercent"`
	DistanceToHigh float64 `json:"distanceToHigh,omitempty"`
	DistanceToLow  float64 `json:"distanceToLow,omitempty"`
	VolumeRatio    float64 `json:"volumeRatio,omitempty"`
	Enabled        bool    `json:"enabled"`
	LastUpdate     int64   `json:"lastUpdate"`
}

// Summary aggregates Results across enabled positions.
type Summary struct {
	TotalProfit        float64 `json:"totalProfit"`
	TotalProfitPercent float64 `json:"totalProfitPercent"`
	TotalMarketValue   float64 `json:"totalMarketValue"`
	TotalCostBasis     float64 `json:"totalCostBasis"`
	StockCount         int     `json:"stockCount"`
	ProfitableCount    int     `json:"profitableCount"`
	LosingCount        int     `json:"losingCount"`
}

// Transaction is a single fill used by the weighted average price helper.
type Transaction struct {
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity"`
}
