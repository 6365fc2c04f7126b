// Package stats accumulates per-pair and global extraction tallies.
package stats

import (
	"fmt"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/menta2k/patch-extractor/pkg/types"
)

// Aggregator is the single owner of JobStatistics. All Record* methods are
// called by the job worker only; Snapshot is safe to call concurrently.
type Aggregator struct {
	mu      sync.RWMutex
	started time.Time

	pairs     int
	processed int
	failed    int

	candidates       int
	accepted         int
	rejectedCoverage int
	rejectedCap      int
	written          int

	perPair map[string]types.PairStats

	// current pair scratch, discarded on FinishPair
	current   string
	coverages []float64

	// finished-pair coverage means, weighted by candidate count
	pairMeans   []float64
	pairWeights []float64
}

// NewAggregator creates an aggregator for a job over totalPairs pairs and
// starts the elapsed-time clock.
func NewAggregator(totalPairs int) *Aggregator {
	return &Aggregator{
		started: time.Now(),
		pairs:   totalPairs,
		perPair: make(map[string]types.PairStats, totalPairs),
	}
}

// StartPair begins accumulation for one pair.
func (a *Aggregator) StartPair(pairID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current = pairID
	a.coverages = a.coverages[:0]
	a.perPair[pairID] = types.PairStats{}
}

// Record tallies one patch decision for the given pair. A decision with an
// unknown outcome is a programming error and panics.
func (a *Aggregator) Record(pairID string, d types.PatchDecision) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ps := a.perPair[pairID]
	ps.Candidates++
	a.candidates++
	a.coverages = append(a.coverages, d.Coverage)

	switch d.Outcome {
	case types.Accepted:
		ps.Accepted++
		a.accepted++
	case types.RejectedCoverage:
		ps.RejectedCoverage++
		a.rejectedCoverage++
	case types.RejectedCap:
		ps.RejectedCap++
		a.rejectedCap++
	default:
		panic(fmt.Sprintf("stats: malformed decision outcome %d", d.Outcome))
	}
	a.perPair[pairID] = ps
}

// RecordWritten tallies one patch pair persisted to disk.
func (a *Aggregator) RecordWritten(pairID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	ps := a.perPair[pairID]
	ps.Written++
	a.perPair[pairID] = ps
	a.written++
}

// FailPair marks one pair as failed (decode or write failure) and counts it
// as processed. The job continues with the next pair.
func (a *Aggregator) FailPair(pairID string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	ps := a.perPair[pairID]
	ps.Failure = err.Error()
	a.perPair[pairID] = ps
	a.failed++
	a.processed++
	a.finishLocked(pairID)
}

// FinishPair folds the pair's coverage measurements into the pair report
// and the global coverage mean.
func (a *Aggregator) FinishPair(pairID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.processed++
	a.finishLocked(pairID)
}

func (a *Aggregator) finishLocked(pairID string) {
	ps := a.perPair[pairID]
	if len(a.coverages) > 0 {
		mean, std := stat.MeanStdDev(a.coverages, nil)
		ps.CoverageMean = mean
		if len(a.coverages) > 1 {
			ps.CoverageStdDev = std
		}
		a.pairMeans = append(a.pairMeans, mean)
		a.pairWeights = append(a.pairWeights, float64(len(a.coverages)))
	}
	a.perPair[pairID] = ps
	a.current = ""
	a.coverages = a.coverages[:0]
}

// Snapshot returns an immutable copy of the current totals.
func (a *Aggregator) Snapshot() types.JobStatistics {
	a.mu.RLock()
	defer a.mu.RUnlock()

	perPair := make(map[string]types.PairStats, len(a.perPair))
	for k, v := range a.perPair {
		perPair[k] = v
	}

	var mean float64
	if len(a.pairMeans) > 0 {
		mean = stat.Mean(a.pairMeans, a.pairWeights)
	}

	return types.JobStatistics{
		Pairs:            a.pairs,
		PairsProcessed:   a.processed,
		PairsFailed:      a.failed,
		Candidates:       a.candidates,
		Accepted:         a.accepted,
		RejectedCoverage: a.rejectedCoverage,
		RejectedCap:      a.rejectedCap,
		PatchesWritten:   a.written,
		CoverageMean:     mean,
		Elapsed:          time.Since(a.started),
		PerPair:          perPair,
	}
}
