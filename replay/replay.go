// Package replay drives a desk from a recorded CSV of last prices with
// optional scripted order events.
package replay

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rustyeddy/papertrade/market"
	"github.com/rustyeddy/papertrade/sim"
	"github.com/rustyeddy/papertrade/trading"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
	"go.uber.org/zap"
)

// Options controls how replay behaves.
type Options struct {
	// If true the row's price is applied before its event, so a MARKET order
	// placed on a row waits for the next row to fill. Otherwise the event
	// runs first and the row's own price can fill it.
	TickThenEvent bool

	// Clock, if set, is advanced to each row's time before the row is
	// applied. Build the engine with Clock.Now so fills carry replay time.
	Clock *Clock

	Log *zap.Logger
}

// Result summarizes one replay run.
type Result struct {
	Rows    int
	Ticks   int
	Orders  []trading.Order
	Cancels int
	Fills   []trading.Trade
}

// Clock is a settable time source for replayed engines.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// File replays the CSV at path. See Run for the format. Files ending in
// .xz or .lzma are decompressed on the fly.
func File(ctx context.Context, path string, engine *sim.Engine, opts Options) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()

	var r io.Reader = f
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xz":
		if r, err = xz.NewReader(f); err != nil {
			return Result{}, fmt.Errorf("xz: %w", err)
		}
	case ".lzma":
		if r, err = lzma.NewReader(f); err != nil {
			return Result{}, fmt.Errorf("lzma: %w", err)
		}
	}
	return Run(ctx, r, engine, opts)
}

// Run replays rows from r against engine.
//
// CSV formats supported:
//
//  1. Basic ticks:
//     time,symbol,last
//
//  2. Ticks + events:
//     time,symbol,last,event,arg1,arg2,arg3
//
// Events (case-insensitive):
//
//	BUY|SELL:  arg1=MARKET|LIMIT  arg2=qty  arg3=limit price (LIMIT only)
//	CANCEL:    arg1=order id, or #n for the n-th order this replay placed
//
// A row for a symbol other than the watched one switches the desk to it
// first. A header row starting with "time" is skipped.
func Run(ctx context.Context, r io.Reader, engine *sim.Engine, opts Options) (Result, error) {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	rp := &replayer{engine: engine, opts: opts, log: opts.Log.Named("replay")}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comment = '#'

	first := true
	for {
		if err := ctx.Err(); err != nil {
			return rp.res, err
		}
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rp.res, err
		}
		if len(row) == 0 {
			continue
		}
		if first {
			first = false
			if strings.EqualFold(strings.TrimSpace(row[0]), "time") {
				continue
			}
		}
		line, _ := cr.FieldPos(0)
		if err := rp.row(ctx, row); err != nil {
			return rp.res, fmt.Errorf("line %d: %w", line, err)
		}
	}

	rp.log.Info("replay done",
		zap.Int("rows", rp.res.Rows),
		zap.Int("orders", len(rp.res.Orders)),
		zap.Int("fills", len(rp.res.Fills)),
	)
	return rp.res, nil
}

type replayer struct {
	engine *sim.Engine
	opts   Options
	log    *zap.Logger
	res    Result
}

func (rp *replayer) row(ctx context.Context, row []string) error {
	// Minimum tick columns: time,symbol,last
	if len(row) < 3 {
		return fmt.Errorf("bad row (need at least 3 cols time,symbol,last): %v", row)
	}
	for i := range row {
		row[i] = strings.TrimSpace(row[i])
	}

	t, err := time.Parse(time.RFC3339, row[0])
	if err != nil {
		return fmt.Errorf("bad time %q: %w", row[0], err)
	}
	symbol := market.NormalizeSymbol(row[1])
	if symbol == "" {
		return fmt.Errorf("empty symbol")
	}
	last, err := strconv.ParseFloat(row[2], 64)
	if err != nil {
		return fmt.Errorf("bad last %q: %w", row[2], err)
	}

	rp.res.Rows++
	if rp.opts.Clock != nil {
		rp.opts.Clock.Set(t)
	}
	watched, session := rp.engine.Watch()
	if watched != symbol {
		if _, err := rp.engine.SetSymbol(ctx, symbol); err != nil && !errors.Is(err, sim.ErrPersist) {
			return err
		}
	}

	tick := market.Tick{Symbol: symbol, Session: session, Last: last, Time: t}
	event, args := "", []string(nil)
	if len(row) >= 4 {
		event, args = row[3], row[4:]
	}

	if rp.opts.TickThenEvent {
		if err := rp.tick(ctx, tick); err != nil {
			return err
		}
		if event != "" {
			return rp.event(ctx, symbol, event, args)
		}
		return nil
	}

	if event != "" {
		if err := rp.event(ctx, symbol, event, args); err != nil {
			return err
		}
	}
	return rp.tick(ctx, tick)
}

func (rp *replayer) tick(ctx context.Context, tick market.Tick) error {
	fills, err := rp.engine.ApplyTick(ctx, tick)
	if err != nil && !errors.Is(err, sim.ErrPersist) {
		return err
	}
	rp.res.Ticks++
	rp.res.Fills = append(rp.res.Fills, fills...)
	return nil
}

func (rp *replayer) event(ctx context.Context, symbol, event string, args []string) error {
	switch ev := strings.ToUpper(event); ev {
	case "BUY", "SELL":
		// BUY,LIMIT,100,2500
		req, err := parseOrderArgs(symbol, trading.Side(ev), args)
		if err != nil {
			return fmt.Errorf("%s: %w", ev, err)
		}
		o, err := rp.engine.PlaceOrder(ctx, req)
		if err != nil && !errors.Is(err, sim.ErrPersist) {
			return fmt.Errorf("%s: %w", ev, err)
		}
		rp.res.Orders = append(rp.res.Orders, o)
		rp.log.Debug("order placed", zap.String("id", o.ID), zap.String("side", ev))
		return nil

	case "CANCEL":
		// CANCEL,#1 or CANCEL,<order id>
		if len(args) < 1 || args[0] == "" {
			return fmt.Errorf("CANCEL: missing order id")
		}
		id, err := rp.resolveID(args[0])
		if err != nil {
			return fmt.Errorf("CANCEL: %w", err)
		}
		if _, err := rp.engine.Cancel(ctx, id); err != nil && !errors.Is(err, sim.ErrPersist) {
			return fmt.Errorf("CANCEL: %w", err)
		}
		rp.res.Cancels++
		return nil

	default:
		return fmt.Errorf("unknown event %q", event)
	}
}

func (rp *replayer) resolveID(ref string) (string, error) {
	if !strings.HasPrefix(ref, "#") {
		return ref, nil
	}
	n, err := strconv.Atoi(ref[1:])
	if err != nil || n < 1 || n > len(rp.res.Orders) {
		return "", fmt.Errorf("no order %s (placed %d so far)", ref, len(rp.res.Orders))
	}
	return rp.res.Orders[n-1].ID, nil
}

func parseOrderArgs(symbol string, side trading.Side, args []string) (trading.OrderRequest, error) {
	if len(args) < 2 {
		return trading.OrderRequest{}, fmt.Errorf("need arg1=MARKET|LIMIT arg2=qty")
	}
	kind, err := trading.ParseKind(args[0])
	if err != nil {
		return trading.OrderRequest{}, err
	}
	qty, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return trading.OrderRequest{}, fmt.Errorf("bad qty %q: %w", args[1], err)
	}
	req := trading.OrderRequest{Symbol: symbol, Side: side, Kind: kind, Qty: qty}
	if kind == trading.KindLimit {
		if len(args) < 3 || args[2] == "" {
			return trading.OrderRequest{}, fmt.Errorf("LIMIT needs arg3=limit price")
		}
		req.LimitPrice, err = strconv.ParseFloat(args[2], 64)
		if err != nil {
			return trading.OrderRequest{}, fmt.Errorf("bad limit %q: %w", args[2], err)
		}
	}
	return req, nil
}
