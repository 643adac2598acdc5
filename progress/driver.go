package progress

import (
	"sync"
	"time"
)

const DefaultInterval = 2000 * time.Millisecond

// StepFunc receives every step the driver moves to.
type StepFunc func(index int, step LoadingStep)

// Driver feeds clock ticks into a Simulator for one request.
type Driver struct {
	RequestID uint64

	sim      *Simulator
	clock    Clock
	interval time.Duration

	mu      sync.Mutex
	timer   Timer
	onStep  StepFunc
	stopped bool
}

func NewDriver(requestID uint64, sim *Simulator, clock Clock, interval time.Duration) *Driver {
	if clock == nil {
		clock = RealClock{}
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Driver{
		RequestID: requestID,
		sim:       sim,
		clock:     clock,
		interval:  interval,
	}
}

// Start schedules the first tick. Calling Start twice or after Stop is a no-op.
func (d *Driver) Start(onStep StepFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped || d.timer != nil {
		return
	}
	d.onStep = onStep
	d.timer = d.clock.AfterFunc(d.interval, d.fire)
}

func (d *Driver) fire() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	prev := d.sim.Index()
	idx := d.sim.Tick()
	d.timer = d.clock.AfterFunc(d.interval, d.fire)
	// onStep runs under mu so Stop can wait for it
	if idx != prev && d.onStep != nil {
		d.onStep(idx, d.sim.Current())
	}
}

// Stop cancels the timer. Once it returns no further step is delivered.
// onStep must not call Stop.
func (d *Driver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}

// Complete stops the driver and forces the simulator to its last step.
func (d *Driver) Complete() (int, LoadingStep) {
	d.Stop()
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sim.Complete(), d.sim.Current()
}

// Fail stops the driver and freezes the simulator in place.
func (d *Driver) Fail() {
	d.Stop()
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sim.Fail()
}

// Index reports the simulator's current step.
func (d *Driver) Index() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sim.Index()
}
