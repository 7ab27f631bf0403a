package config

import (
	"github.com/fengyix/stockmon/internal/core"
	"github.com/fengyix/stockmon/internal/quote"
)

// Update is the wire shape of a configuration replacement. Stocks are
// replaced wholesale when present; Settings are shallow-merged field by
// field. Pointer fields distinguish "absent" from zero values.
type Update struct {
	Version  *string         `json:"version,omitempty"`
	Stocks   *[]StockUpdate  `json:"stocks,omitempty"`
	Settings *SettingsUpdate `json:"settings,omitempty"`
}

// StockUpdate is one position entry as the host sends it. Missing fields
// take the historical defaults: buyPrice 0, quantity 100, enabled true.
type StockUpdate struct {
	Code     string   `json:"code"`
	Name     string   `json:"name,omitempty"`
	BuyPrice *float64 `json:"buyPrice,omitempty"`
	Quantity *int64   `json:"quantity,omitempty"`
	Enabled  *bool    `json:"enabled,omitempty"`
	Exchange string   `json:"exchange,omitempty"`
}

// SettingsUpdate carries only the settings fields present in the payload.
type SettingsUpdate struct {
	UpdateInterval      *int     `json:"updateInterval,omitempty"`
	AutoStart           *bool    `json:"autoStart,omitempty"`
	ShowNotifications   *bool    `json:"showNotifications,omitempty"`
	PriceAlertThreshold *float64 `json:"priceAlertThreshold,omitempty"`
	DataSourcePriority  *string  `json:"dataSourcePriority,omitempty"`
}

// Apply builds a new Config from c and the update. The receiver is not
// mutated; the caller publishes the returned config atomically. Malformed
// stock entries are dropped, not fatal.
func (c *Config) Apply(u Update) *Config {
	next := *c
	next.Stocks = append([]core.Position(nil), c.Stocks...)

	if u.Version != nil {
		next.Version = *u.Version
	}

	if u.Stocks != nil {
		stocks := make([]core.Position, 0, len(*u.Stocks))
		for _, s := range *u.Stocks {
			if quote.ValidateCode(s.Code) != nil {
				continue
			}
			p := core.Position{
				Code:     s.Code,
				Name:     s.Name,
				Quantity: 100,
				Enabled:  true,
				Exchange: core.Exchange(s.Exchange),
			}
			if s.BuyPrice != nil {
				p.BuyPrice = *s.BuyPrice
			}
			if s.Quantity != nil {
				p.Quantity = *s.Quantity
			}
			if s.Enabled != nil {
				p.Enabled = *s.Enabled
			}
			if p.BuyPrice < 0 || p.Quantity < 0 {
				continue
			}
			if p.Exchange == "" {
				p.Exchange = quote.SuffixFor(p.Code)
			}
			stocks = append(stocks, p)
		}
		next.Stocks = stocks
	}

	if u.Settings != nil {
		if u.Settings.UpdateInterval != nil && *u.Settings.UpdateInterval >= 1 {
			next.Settings.UpdateInterval = *u.Settings.UpdateInterval
		}
		if u.Settings.AutoStart != nil {
			next.Settings.AutoStart = *u.Settings.AutoStart
		}
		if u.Settings.ShowNotifications != nil {
			next.Settings.ShowNotifications = *u.Settings.ShowNotifications
		}
		if u.Settings.PriceAlertThreshold != nil {
			next.Settings.PriceAlertThreshold = *u.Settings.PriceAlertThreshold
		}
		if u.Settings.DataSourcePriority != nil {
			switch quote.Priority(*u.Settings.DataSourcePriority) {
			case quote.PrioritySina, quote.PriorityEastmoney:
				next.Settings.DataSourcePriority = *u.Settings.DataSourcePriority
			}
		}
	}

	return &next
}
