package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"stkdecider/metrics"
	"stkdecider/models"
	"stkdecider/progress"
	"stkdecider/service"
	"stkdecider/visual"
)

const (
	DefaultRevealDelay = 500 * time.Millisecond

	subscriberBuffer = 16
)

// Analyzer fetches a finished combined analysis. service.Client satisfies it.
type Analyzer interface {
	GetCombinedAnalysis(ctx context.Context, symbol string, days int) (*models.CombinedAnalysis, error)
}

type Options struct {
	Steps       progress.Steps
	Interval    time.Duration
	RevealDelay time.Duration
	Clock       progress.Clock
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
}

// Controller owns the analysis page state. Each submission gets a new
// request id; results carrying an older id are dropped.
type Controller struct {
	analyzer    Analyzer
	steps       progress.Steps
	interval    time.Duration
	revealDelay time.Duration
	clock       progress.Clock
	logger      *zap.Logger
	metrics     *metrics.Metrics

	ctx  context.Context
	stop context.CancelFunc

	mu      sync.Mutex
	state   State
	seq     uint64
	driver  *progress.Driver
	cancel  context.CancelFunc
	reveal  progress.Timer
	subs    map[int]chan State
	nextSub int
	closed  bool
}

func NewController(analyzer Analyzer, opts Options) (*Controller, error) {
	if analyzer == nil {
		return nil, fmt.Errorf("dashboard: nil analyzer")
	}
	if opts.Steps == nil {
		opts.Steps = progress.DefaultSteps()
	}
	if err := opts.Steps.Validate(); err != nil {
		return nil, err
	}
	if opts.Interval <= 0 {
		opts.Interval = progress.DefaultInterval
	}
	if opts.RevealDelay < 0 {
		opts.RevealDelay = 0
	} else if opts.RevealDelay == 0 {
		opts.RevealDelay = DefaultRevealDelay
	}
	if opts.Clock == nil {
		opts.Clock = progress.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	ctx, stop := context.WithCancel(context.Background())
	return &Controller{
		analyzer:    analyzer,
		steps:       opts.Steps,
		interval:    opts.Interval,
		revealDelay: opts.RevealDelay,
		clock:       opts.Clock,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
		ctx:         ctx,
		stop:        stop,
		state:       NewState(opts.Steps),
		subs:        make(map[int]chan State),
	}, nil
}

// Submit starts an analysis and supersedes any pending one. The previous
// timer and request are cancelled before the new request starts.
func (c *Controller) Submit(symbol string, days int) uint64 {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0
	}
	c.seq++
	id := c.seq
	prevDriver, prevCancel, prevReveal := c.driver, c.cancel, c.reveal
	c.driver, c.cancel, c.reveal = nil, nil, nil
	c.mu.Unlock()

	retire(prevDriver, prevCancel, prevReveal)

	if symbol == "" {
		c.apply(Rejected{ID: id, Err: service.EmptySymbol()})
		return id
	}
	if days == 0 {
		days = service.DefaultDays
	}
	if days < service.MinDays || days > service.MaxDays {
		c.apply(Rejected{ID: id, Err: &service.UserError{
			Kind:    service.KindInvalidInput,
			Message: fmt.Sprintf("days must be between %d and %d", service.MinDays, service.MaxDays),
		}})
		return id
	}

	sim, err := progress.NewSimulator(c.steps)
	if err != nil {
		// steps were validated in NewController
		panic(err)
	}
	ctx, cancel := context.WithCancel(c.ctx)
	d := progress.NewDriver(id, sim, c.clock, c.interval)

	c.mu.Lock()
	if id != c.seq || c.closed {
		c.mu.Unlock()
		cancel()
		return id
	}
	c.driver, c.cancel = d, cancel
	c.dispatchLocked(Submit{ID: id, Symbol: symbol, Days: days})
	c.mu.Unlock()

	c.metrics.Requested()
	c.logger.Info("analysis submitted", zap.Uint64("request_id", id), zap.String("symbol", symbol), zap.Int("days", days))

	d.Start(func(idx int, _ progress.LoadingStep) {
		c.apply(Tick{ID: id, Step: idx})
	})
	go c.run(ctx, id, symbol, days, d)
	return id
}

func (c *Controller) run(ctx context.Context, id uint64, symbol string, days int, d *progress.Driver) {
	res, err := c.analyzer.GetCombinedAnalysis(ctx, symbol, days)
	var view *visual.AnalysisView
	if err == nil {
		view, err = visual.Compose(res)
	}

	if !c.current(id) {
		c.discard(id, symbol)
		return
	}

	if err != nil {
		d.Fail()
		ue := service.Classify(err, symbol)
		fields := []zap.Field{
			zap.Uint64("request_id", id),
			zap.String("symbol", symbol),
			zap.Stringer("kind", ue.Kind),
			zap.Error(err),
		}
		if ue.Kind == service.KindTransient || ue.Kind == service.KindInvalidInput {
			c.logger.Warn("analysis failed", fields...)
		} else {
			c.logger.Info("analysis failed", fields...)
		}
		if c.apply(Failed{ID: id, Err: ue}) {
			c.metrics.Failed(ue.Kind.String())
		}
		return
	}

	if !view.Chart.TrendConsistent {
		c.logger.Warn("trend disagrees with change percent",
			zap.String("symbol", symbol),
			zap.String("trend", string(res.Analysis.Prediction.Trend)),
			zap.Float64("change_percent", res.Analysis.Prediction.ChangePercent))
	}

	// the response wins over the timer: no tick is delivered after Complete
	d.Complete()

	c.mu.Lock()
	defer c.mu.Unlock()
	if id != c.seq {
		c.discardLocked(id, symbol)
		return
	}
	c.dispatchLocked(Succeeded{ID: id, Result: view, Raw: res})
	c.metrics.Succeeded()
	c.reveal = c.clock.AfterFunc(c.revealDelay, func() {
		c.apply(Revealed{ID: id})
	})
}

func (c *Controller) current(id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return id == c.seq
}

func (c *Controller) discard(id uint64, symbol string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.discardLocked(id, symbol)
}

func (c *Controller) discardLocked(id uint64, symbol string) {
	c.metrics.Stale()
	c.logger.Debug("discarding stale response",
		zap.Uint64("request_id", id),
		zap.Uint64("current_id", c.seq),
		zap.String("symbol", symbol))
}

// apply reduces ev into the state and reports whether it was accepted.
func (c *Controller) apply(ev Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dispatchLocked(ev)
}

func (c *Controller) dispatchLocked(ev Event) bool {
	if c.closed {
		return false
	}
	switch ev.(type) {
	case Submit, Rejected:
	default:
		if ev.requestID() != c.state.RequestID {
			return false
		}
	}
	c.state = Reduce(c.state, ev)
	c.publishLocked(c.state)
	return true
}

func (c *Controller) publishLocked(s State) {
	for _, ch := range c.subs {
		select {
		case ch <- s:
		default:
			// keep the newest state when a subscriber falls behind
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}

// State returns a snapshot of the current page state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe delivers the current state and every later one. The returned
// func unsubscribes and closes the channel.
func (c *Controller) Subscribe() (<-chan State, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan State, subscriberBuffer)
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.state

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

// Close cancels the pending request and timers and closes all subscriptions.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.seq++
	prevDriver, prevCancel, prevReveal := c.driver, c.cancel, c.reveal
	c.driver, c.cancel, c.reveal = nil, nil, nil
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
	c.mu.Unlock()

	retire(prevDriver, prevCancel, prevReveal)
	c.stop()
}

func retire(d *progress.Driver, cancel context.CancelFunc, reveal progress.Timer) {
	if d != nil {
		d.Stop()
	}
	if cancel != nil {
		cancel()
	}
	if reveal != nil {
		reveal.Stop()
	}
}
