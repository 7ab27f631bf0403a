package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fengyix/stockmon/internal/calc"
	"github.com/fengyix/stockmon/internal/config"
	"github.com/fengyix/stockmon/internal/core"
	"github.com/fengyix/stockmon/internal/metrics"
	"github.com/fengyix/stockmon/internal/quote"
	"go.uber.org/zap"
)

// Backoff after a failed poll cycle before the next attempt.
const errorBackoff = 5 * time.Second

// QuoteFetcher resolves a batch of codes into per-code quote-or-error
// entries in input order.
type QuoteFetcher interface {
	FetchAll(ctx context.Context, codes []string, priority quote.Priority) []quote.Entry
}

// ResultEntry is one item of a data frame: a computed result, or an
// error tagged with the code it belongs to.
type ResultEntry struct {
	Code   string
	Result *core.Result
	Err    string
}

// MarshalJSON emits either the full result or the {code, error} pair.
func (e ResultEntry) MarshalJSON() ([]byte, error) {
	if e.Err != "" {
		return json.Marshal(struct {
			Code  string `json:"code"`
			Error string `json:"error"`
		}{e.Code, e.Err})
	}
	return json.Marshal(e.Result)
}

// CycleData is the payload of a data frame: one entry per enabled
// position in configuration order, plus the aggregate summary.
type CycleData struct {
	Stocks  []ResultEntry `json:"stocks"`
	Summary core.Summary  `json:"summary"`
}

// Daemon owns the protocol session state: the current configuration
// (swapped atomically on set_config), the poll loop, and the outbound
// frame writer. One Daemon serves one host connection.
type Daemon struct {
	logger  *zap.Logger
	metrics *metrics.Registry
	fetcher QuoteFetcher
	out     *Writer

	mu         sync.RWMutex
	cfg        *config.Config
	running    bool
	paused     bool
	loopCancel context.CancelFunc
	loopDone   chan struct{}

	// At most one cycle runs at a time, whether triggered by the loop
	// or by an explicit update command.
	cycleMu sync.Mutex
}

// New creates a daemon over the given fetcher, writing frames to out.
func New(cfg *config.Config, fetcher QuoteFetcher, out io.Writer, logger *zap.Logger, reg *metrics.Registry) *Daemon {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = config.Defaults()
	}
	d := &Daemon{
		logger:  logger,
		metrics: reg,
		fetcher: fetcher,
		out:     NewWriter(out),
		cfg:     cfg,
	}
	d.trackPositions()
	return d
}

// Config returns the current configuration snapshot.
func (d *Daemon) Config() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// Running reports whether the poll loop is active (paused counts as
// running).
func (d *Daemon) Running() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}

// Run reads commands from in until EOF or context cancellation. It emits
// a daemon_started status frame on entry and daemon_stopped on exit.
func (d *Daemon) Run(ctx context.Context, in io.Reader) error {
	d.out.Status(IDSystem, "daemon_started", map[string]any{
		"version": d.Config().Version,
		"sources": []string{string(quote.PrioritySina), string(quote.PriorityEastmoney)},
	})

	if d.Config().Settings.AutoStart {
		d.startLoop(ctx)
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lines := make(chan []byte)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			line := make([]byte, len(scanner.Bytes()))
			copy(line, scanner.Bytes())
			lines <- line
		}
	}()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case line, ok := <-lines:
			if !ok {
				break loop
			}
			if len(line) == 0 {
				continue
			}
			d.handle(ctx, line)
		}
	}

	d.stopLoop()
	d.out.Status(IDSystem, "daemon_stopped", nil)
	return scanner.Err()
}

func (d *Daemon) handle(ctx context.Context, line []byte) {
	cmd, err := ParseCommand(line)
	if err != nil {
		d.recordCommand(string(cmd.Command), "error")
		d.out.Error(cmd.ID, err)
		return
	}

	switch cmd.Command {
	case CmdStart:
		d.handleStart(ctx, cmd)
	case CmdStop:
		d.handleStop(cmd)
	case CmdPause:
		d.handlePause(cmd)
	case CmdResume:
		d.handleResume(cmd)
	case CmdUpdate:
		d.handleUpdate(ctx, cmd)
	case CmdGetConfig:
		d.handleGetConfig(cmd)
	case CmdSetConfig:
		d.handleSetConfig(cmd)
	}
	d.recordCommand(string(cmd.Command), "ok")
}

func (d *Daemon) handleStart(ctx context.Context, cmd Command) {
	if d.Running() {
		d.out.Status(cmd.ID, "already_running", nil)
		return
	}
	d.startLoop(ctx)
	d.out.Response(cmd.ID, map[string]string{"status": "started"})
}

func (d *Daemon) handleStop(cmd Command) {
	if !d.Running() {
		d.out.Status(cmd.ID, "already_stopped", nil)
		return
	}
	d.stopLoop()
	d.out.Response(cmd.ID, map[string]string{"status": "stopped"})
}

func (d *Daemon) handlePause(cmd Command) {
	d.mu.Lock()
	d.paused = true
	d.mu.Unlock()
	d.out.Response(cmd.ID, map[string]string{"status": "paused"})
}

func (d *Daemon) handleResume(cmd Command) {
	d.mu.Lock()
	d.paused = false
	d.mu.Unlock()
	d.out.Response(cmd.ID, map[string]string{"status": "resumed"})
}

func (d *Daemon) handleUpdate(ctx context.Context, cmd Command) {
	data, err := d.runCycle(ctx)
	if err != nil {
		d.out.Error(cmd.ID, fmt.Errorf("update failed: %w", err))
		return
	}
	d.out.Data(cmd.ID, data)
}

func (d *Daemon) handleGetConfig(cmd Command) {
	d.out.Response(cmd.ID, d.Config())
}

func (d *Daemon) handleSetConfig(cmd Command) {
	if len(cmd.Payload) == 0 {
		d.out.Error(cmd.ID, fmt.Errorf("no configuration provided"))
		return
	}
	var u config.Update
	if err := json.Unmarshal(cmd.Payload, &u); err != nil {
		d.out.Error(cmd.ID, core.WrapError(core.ErrConfigInvalid, err))
		return
	}

	// Build the new config outside the lock, publish under it. A running
	// cycle holds its own snapshot, so it sees old or new in full.
	next := d.Config().Apply(u)
	d.mu.Lock()
	d.cfg = next
	d.mu.Unlock()
	d.trackPositions()

	d.out.Response(cmd.ID, map[string]string{"status": "config_updated"})
}

func (d *Daemon) startLoop(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	d.running = true
	d.paused = false
	d.loopCancel = cancel
	d.loopDone = make(chan struct{})
	go d.loop(loopCtx, d.loopDone)
}

func (d *Daemon) stopLoop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	cancel := d.loopCancel
	done := d.loopDone
	d.mu.Unlock()

	cancel()
	<-done
}

// loop runs poll cycles until cancelled. The delay before the next cycle
// is re-read from the current config every iteration so a set_config takes
// effect without restarting, and a failed cycle backs off instead of
// spinning.
func (d *Daemon) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	for {
		delay := d.interval()
		if !d.isPaused() {
			if data, err := d.runCycle(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				d.logger.Error("poll cycle failed", zap.Error(err))
				if d.metrics != nil {
					d.metrics.RecordPollCycleError()
				}
				delay = errorBackoff
			} else {
				d.out.Data(IDAutoUpdate, data)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

func (d *Daemon) interval() time.Duration {
	iv := d.Config().Settings.UpdateInterval
	if iv < 1 {
		iv = 20
	}
	return time.Duration(iv) * time.Second
}

func (d *Daemon) isPaused() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.paused
}

// runCycle fetches all enabled positions and computes results plus the
// aggregate summary. Per-code fetch and validation failures become error
// entries; only an aggregation failure fails the cycle.
func (d *Daemon) runCycle(ctx context.Context) (*CycleData, error) {
	d.cycleMu.Lock()
	defer d.cycleMu.Unlock()

	start := time.Now()
	cfg := d.Config()
	stocks := cfg.EnabledStocks()

	codes := make([]string, len(stocks))
	for i, s := range stocks {
		codes[i] = s.Code
	}

	entries := d.fetcher.FetchAll(ctx, codes, cfg.Priority())
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	data := &CycleData{Stocks: make([]ResultEntry, 0, len(entries))}
	results := make([]core.Result, 0, len(entries))
	for i, e := range entries {
		d.recordFetch(e)
		if e.Err != nil {
			data.Stocks = append(data.Stocks, ResultEntry{Code: e.Code, Err: e.Err.Error()})
			continue
		}
		r, err := calc.Profit(stocks[i], *e.Quote)
		if err != nil {
			data.Stocks = append(data.Stocks, ResultEntry{Code: e.Code, Err: err.Error()})
			continue
		}
		data.Stocks = append(data.Stocks, ResultEntry{Code: e.Code, Result: &r})
		results = append(results, r)
	}

	summary, err := calc.Summarize(results)
	if err != nil {
		return nil, err
	}
	data.Summary = summary

	if d.metrics != nil {
		d.metrics.RecordPollCycle(time.Since(start).Seconds())
	}
	return data, nil
}

func (d *Daemon) recordFetch(e quote.Entry) {
	if d.metrics == nil {
		return
	}
	if e.Err != nil {
		d.metrics.RecordFetch("none", "error")
		return
	}
	d.metrics.RecordFetch(e.Quote.Source, "ok")
}

func (d *Daemon) recordCommand(command, status string) {
	if d.metrics != nil {
		d.metrics.RecordCommand(command, status)
	}
}

func (d *Daemon) trackPositions() {
	if d.metrics != nil {
		d.metrics.SetPositionsTracked(len(d.Config().EnabledStocks()))
	}
}
