// Package job runs the extraction loop: pairs through planner, filter, and
// writer, under a pause/resume/cancel state machine with progress events.
package job

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/menta2k/patch-extractor/pkg/config"
	"github.com/menta2k/patch-extractor/pkg/coverage"
	"github.com/menta2k/patch-extractor/pkg/grid"
	"github.com/menta2k/patch-extractor/pkg/raster"
	"github.com/menta2k/patch-extractor/pkg/stats"
	"github.com/menta2k/patch-extractor/pkg/types"
	"github.com/menta2k/patch-extractor/pkg/writer"
)

// ErrAlreadyStarted is returned when Start is called twice on one controller.
var ErrAlreadyStarted = errors.New("job already started")

// ErrNotRunning is returned when pause or cancel has no active job to act on.
var ErrNotRunning = errors.New("job not running")

// ErrNotPaused is returned when resume is requested without a pause.
var ErrNotPaused = errors.New("job not paused")

// State is the run state owned exclusively by the controller.
type State int

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateCancelling
	StateCancelled
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateCancelling:
		return "cancelling"
	case StateCancelled:
		return "cancelled"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no transition can leave the state.
func (s State) Terminal() bool {
	return s == StateCancelled || s == StateCompleted || s == StateFailed
}

// PairDecodeError reports a pair that failed to decode or whose image and
// mask dimensions differ. The pair is skipped; the job continues.
type PairDecodeError struct {
	Pair string
	Err  error
}

func (e *PairDecodeError) Error() string {
	return fmt.Sprintf("decode pair %s: %v", e.Pair, e.Err)
}

func (e *PairDecodeError) Unwrap() error { return e.Err }

// Controller owns one extraction job. A controller runs at most one job;
// a new job requires a fresh instance.
type Controller struct {
	id  string
	cfg *config.ExtractionConfig
	log *slog.Logger
	bus *EventBus

	mu    sync.Mutex
	cond  *sync.Cond
	state State
	err   error

	agg  *stats.Aggregator
	done chan struct{}

	// pairHook runs at each pair boundary before the checkpoint; tests use
	// it to issue control requests at deterministic points.
	pairHook func(index int)
}

// New validates the configuration and creates an idle controller.
// Invalid configuration is rejected here with ConfigError and never
// reaches Running.
func New(cfg *config.ExtractionConfig, logger *slog.Logger) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Controller{
		id:    uuid.NewString(),
		cfg:   cfg,
		bus:   NewEventBus(0),
		state: StateIdle,
		done:  make(chan struct{}),
	}
	c.log = logger.With("job", c.id)
	c.cond = sync.NewCond(&c.mu)
	return c, nil
}

// ID returns the job identifier stamped on every event.
func (c *Controller) ID() string { return c.id }

// Events returns the bus progress events are published to.
func (c *Controller) Events() *EventBus { return c.bus }

// State returns the current run state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the job-fatal error after a Failed terminal state.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Snapshot returns the current statistics totals.
func (c *Controller) Snapshot() types.JobStatistics {
	c.mu.Lock()
	agg := c.agg
	c.mu.Unlock()
	if agg == nil {
		return types.JobStatistics{}
	}
	return agg.Snapshot()
}

// Start launches the worker over the scanned pair list. Idle -> Running.
func (c *Controller) Start(pairs []types.DatasetPair) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.state = StateRunning
	c.agg = stats.NewAggregator(len(pairs))
	c.mu.Unlock()

	c.publishState(StateRunning, "")
	c.log.Info("job started", "pairs", len(pairs), "dry_run", c.cfg.DryRun)
	go c.run(pairs)
	return nil
}

// Pause suspends the worker at its next checkpoint. Running -> Paused.
func (c *Controller) Pause() error {
	c.mu.Lock()
	if c.state != StateRunning {
		c.mu.Unlock()
		return ErrNotRunning
	}
	c.state = StatePaused
	c.mu.Unlock()

	c.publishState(StatePaused, "")
	c.log.Info("job paused")
	return nil
}

// Resume releases a paused worker. Paused -> Running.
func (c *Controller) Resume() error {
	c.mu.Lock()
	if c.state != StatePaused {
		c.mu.Unlock()
		return ErrNotPaused
	}
	c.state = StateRunning
	c.cond.Broadcast()
	c.mu.Unlock()

	c.publishState(StateRunning, "")
	c.log.Info("job resumed")
	return nil
}

// Cancel requests cooperative cancellation. The worker observes it at the
// next patch or pair checkpoint, never mid-write.
// Running|Paused -> Cancelling.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	if c.state != StateRunning && c.state != StatePaused {
		c.mu.Unlock()
		return ErrNotRunning
	}
	c.state = StateCancelling
	c.cond.Broadcast()
	c.mu.Unlock()

	c.publishState(StateCancelling, "")
	c.log.Info("job cancel requested")
	return nil
}

// Wait blocks until the job reaches a terminal state and returns it along
// with the final statistics report.
func (c *Controller) Wait() (State, types.JobStatistics) {
	<-c.done
	return c.State(), c.Snapshot()
}

// checkpoint blocks while paused and reports whether work should continue.
// It returns false once cancellation has been requested.
func (c *Controller) checkpoint() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.state == StatePaused {
		c.cond.Wait()
	}
	return c.state == StateRunning
}

// run is the single worker loop: scanner order over pairs, planner order
// over patches within each pair.
func (c *Controller) run(pairs []types.DatasetPair) {
	if len(pairs) == 0 {
		c.fail(errors.New("no dataset pairs to process"))
		return
	}

	var w *writer.Writer
	if !c.cfg.DryRun {
		w = writer.New(c.cfg.DestinationRoot, c.cfg.ImagesSubdir, c.cfg.MasksSubdir,
			c.cfg.SaveFormat, c.cfg.Quality, c.cfg.Lossless)
		if err := w.Prepare(); err != nil {
			c.fail(err)
			return
		}
	}

	total := len(pairs)
	for i, pair := range pairs {
		if c.pairHook != nil {
			c.pairHook(i)
		}
		if !c.checkpoint() {
			c.finish(StateCancelled)
			return
		}
		if !c.processPair(i, total, pair, w) {
			c.finish(StateCancelled)
			return
		}
	}
	c.finish(StateCompleted)
}

// processPair runs one pair end to end. It returns false only when
// cancellation was observed mid-pair; per-pair errors are absorbed into
// statistics and the return stays true.
func (c *Controller) processPair(index, total int, pair types.DatasetPair, w *writer.Writer) bool {
	key := pair.Key()
	c.agg.StartPair(key)

	img, err := raster.Load(pair.ImagePath)
	if err != nil {
		c.failPair(index, total, key, &PairDecodeError{Pair: key, Err: err})
		return true
	}
	msk, err := raster.Load(pair.MaskPath)
	if err != nil {
		c.failPair(index, total, key, &PairDecodeError{Pair: key, Err: err})
		return true
	}
	ib, mb := img.Bounds(), msk.Bounds()
	if ib.Dx() != mb.Dx() || ib.Dy() != mb.Dy() {
		c.failPair(index, total, key, &PairDecodeError{
			Pair: key,
			Err: fmt.Errorf("image %dx%d and mask %dx%d dimensions differ",
				ib.Dx(), ib.Dy(), mb.Dx(), mb.Dy()),
		})
		return true
	}

	g := grid.Grid{
		Width:         ib.Dx(),
		Height:        ib.Dy(),
		PatchWidth:    c.cfg.PatchWidth,
		PatchHeight:   c.cfg.PatchHeight,
		StrideX:       c.cfg.StrideX,
		StrideY:       c.cfg.StrideY,
		IncludeBorder: c.cfg.IncludeBorderPatches,
	}
	filter := coverage.New(c.cfg.MinimumCoverage, c.cfg.MaxPatchesPerImage)

	patches := 0
	for pt := range g.Origins() {
		if !c.checkpoint() {
			return false
		}
		cand := types.PatchCandidate{
			X:      pt.X,
			Y:      pt.Y,
			Width:  c.cfg.PatchWidth,
			Height: c.cfg.PatchHeight,
			Stem:   pair.Stem,
		}
		d := filter.Evaluate(msk, cand)
		c.agg.Record(key, d)
		patches++

		if d.Outcome == types.Accepted && w != nil {
			if _, _, err := w.WritePatch(img, msk, pair, d); err != nil {
				c.failPair(index, total, key, err)
				return true
			}
			c.agg.RecordWritten(key)
		}
	}

	c.agg.FinishPair(key)
	snap := c.agg.Snapshot()
	c.bus.Publish(Event{
		JobID:     c.id,
		Type:      EventTypeProgress,
		PairIndex: index + 1,
		PairTotal: total,
		PairStem:  key,
		Patches:   patches,
		Stats:     &snap,
	})
	c.log.Info("pair processed",
		"pair", key,
		"candidates", patches,
		"accepted", filter.Accepted(),
	)
	return true
}

// failPair records a recoverable pair-level failure and keeps the job going.
func (c *Controller) failPair(index, total int, key string, err error) {
	c.agg.FailPair(key, err)
	snap := c.agg.Snapshot()
	c.bus.Publish(Event{
		JobID:     c.id,
		Type:      EventTypeWarning,
		Message:   err.Error(),
		PairIndex: index + 1,
		PairTotal: total,
		PairStem:  key,
		Stats:     &snap,
	})
	c.log.Warn("pair failed", "pair", key, "error", err)
}

// finish moves the job to its terminal state and emits the final report.
// A finish that races a cancel request resolves to Cancelled.
func (c *Controller) finish(terminal State) {
	c.mu.Lock()
	if c.state == StateCancelling {
		terminal = StateCancelled
	}
	c.state = terminal
	c.mu.Unlock()

	snap := c.Snapshot()
	c.bus.Publish(Event{
		JobID: c.id,
		Type:  EventTypeDone,
		State: terminal,
		Stats: &snap,
	})
	c.log.Info("job finished",
		"state", terminal.String(),
		"pairs_processed", snap.PairsProcessed,
		"patches_written", snap.PatchesWritten,
	)
	close(c.done)
}

// fail moves the job to Failed on an unrecoverable condition.
func (c *Controller) fail(err error) {
	c.mu.Lock()
	c.state = StateFailed
	c.err = err
	c.mu.Unlock()

	snap := c.Snapshot()
	c.bus.Publish(Event{
		JobID:   c.id,
		Type:    EventTypeDone,
		State:   StateFailed,
		Message: err.Error(),
		Stats:   &snap,
	})
	c.log.Error("job failed", "error", err)
	close(c.done)
}

// publishState emits a state transition event.
func (c *Controller) publishState(s State, message string) {
	c.bus.Publish(Event{
		JobID:   c.id,
		Type:    EventTypeState,
		State:   s,
		Message: message,
	})
}
