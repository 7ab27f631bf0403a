package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fengyix/stockmon/internal/calc"
	"github.com/fengyix/stockmon/internal/core"
	"github.com/fengyix/stockmon/internal/logger"
	"github.com/fengyix/stockmon/internal/quote"
	"github.com/fengyix/stockmon/internal/quote/eastmoney"
	"github.com/fengyix/stockmon/internal/quote/sina"
	"github.com/spf13/cobra"
)

var fetchSource string

var fetchCmd = &cobra.Command{
	Use:   "fetch [codes...]",
	Short: "Fetch quotes once and print them",
	Long: `Fetches live quotes for the given 6-digit stock codes and prints
them. With no codes, fetches the enabled positions from the config
file and prints per-position profit plus the portfolio summary.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchSource, "source", "", "preferred source: sina or eastmoney")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	priority := cfg.Priority()
	switch fetchSource {
	case "":
	case string(quote.PrioritySina), string(quote.PriorityEastmoney):
		priority = quote.Priority(fetchSource)
	default:
		return fmt.Errorf("unknown source %q", fetchSource)
	}

	fetcher := quote.NewFetcher(sina.New(), eastmoney.New(), log)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if len(args) > 0 {
		return fetchCodes(ctx, fetcher, args, priority)
	}
	return fetchPortfolio(ctx, fetcher, cfg.EnabledStocks(), priority)
}

func fetchCodes(ctx context.Context, fetcher *quote.Fetcher, codes []string, priority quote.Priority) error {
	for _, e := range fetcher.FetchAll(ctx, codes, priority) {
		if e.Err != nil {
			fmt.Printf("%s  ERROR  %v\n", e.Code, e.Err)
			continue
		}
		q := e.Quote
		changePct := 0.0
		if q.PrevClose > 0 {
			changePct = (q.Price - q.PrevClose) / q.PrevClose * 100
		}
		fmt.Printf("%s  %-8s  %s  %s  (high %s, low %s)  [%s]\n",
			q.Code, q.Name,
			calc.Currency(q.Price), calc.Percent(changePct),
			calc.Currency(q.High), calc.Currency(q.Low),
			q.Source)
	}
	return nil
}

func fetchPortfolio(ctx context.Context, fetcher *quote.Fetcher, stocks []core.Position, priority quote.Priority) error {
	if len(stocks) == 0 {
		return fmt.Errorf("no enabled positions in config")
	}

	codes := make([]string, len(stocks))
	for i, s := range stocks {
		codes[i] = s.Code
	}

	entries := fetcher.FetchAll(ctx, codes, priority)
	results := make([]core.Result, 0, len(entries))

	fmt.Println("=== Portfolio ===")
	for i, e := range entries {
		if e.Err != nil {
			fmt.Printf("%s  ERROR  %v\n", e.Code, e.Err)
			continue
		}
		r, err := calc.Profit(stocks[i], *e.Quote)
		if err != nil {
			fmt.Printf("%s  ERROR  %v\n", e.Code, err)
			continue
		}
		results = append(results, r)
		fmt.Printf("%s  %-8s  %s  profit %s (%s)  day %s\n",
			r.Code, r.Name,
			calc.Currency(r.CurrentPrice),
			calc.Currency(r.ProfitAmount), calc.Percent(r.ProfitPercent),
			calc.Percent(r.ChangePercent))
	}

	summary, err := calc.Summarize(results)
	if err != nil {
		return fmt.Errorf("summarizing portfolio: %w", err)
	}

	fmt.Println()
	fmt.Println("=== Summary ===")
	fmt.Printf("Positions:    %d (%d up, %d down)\n",
		summary.StockCount, summary.ProfitableCount, summary.LosingCount)
	fmt.Printf("Market value: %s\n", calc.Currency(summary.TotalMarketValue))
	fmt.Printf("Cost basis:   %s\n", calc.Currency(summary.TotalCostBasis))
	fmt.Printf("Profit:       %s (%s)\n",
		calc.Currency(summary.TotalProfit), calc.Percent(summary.TotalProfitPercent))
	return nil
}
