package types

import "time"

// DatasetPair is a stem-matched image/mask file pair discovered by the scanner.
type DatasetPair struct {
	Stem      string `json:"stem"`
	ImagePath string `json:"image_path"`
	MaskPath  string `json:"mask_path"`
	// RelDir is the pair's directory relative to the images subtree,
	// mirrored under the destination root on write.
	RelDir string `json:"rel_dir"`
}

// Key returns the pair's identity used for statistics and pairing:
// the relative directory joined with the stem.
func (p DatasetPair) Key() string {
	if p.RelDir == "" || p.RelDir == "." {
		return p.Stem
	}
	return p.RelDir + "/" + p.Stem
}

// PatchCandidate is a single grid origin proposed by the planner.
// Candidates are transient and never persisted.
type PatchCandidate struct {
	X      int
	Y      int
	Width  int
	Height int
	Stem   string
}

// Outcome classifies a candidate after filtering.
type Outcome int

const (
	Accepted Outcome = iota
	RejectedCoverage
	RejectedCap
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case RejectedCoverage:
		return "rejected_coverage"
	case RejectedCap:
		return "rejected_cap"
	default:
		return "unknown"
	}
}

// PatchDecision is a candidate plus its filter outcome and the measured
// coverage fraction. Immutable once computed.
type PatchDecision struct {
	Candidate PatchCandidate
	Outcome   Outcome
	Coverage  float64
}

// PairStats holds the per-pair tallies reported in a JobStatistics snapshot.
type PairStats struct {
	Candidates       int     `json:"candidates"`
	Accepted         int     `json:"accepted"`
	RejectedCoverage int     `json:"rejected_coverage"`
	RejectedCap      int     `json:"rejected_cap"`
	Written          int     `json:"written"`
	CoverageMean     float64 `json:"coverage_mean"`
	CoverageStdDev   float64 `json:"coverage_std_dev"`
	Failure          string  `json:"failure,omitempty"`
}

// JobStatistics is an immutable snapshot of aggregate extraction tallies.
type JobStatistics struct {
	Pairs            int                  `json:"pairs"`
	PairsProcessed   int                  `json:"pairs_processed"`
	PairsFailed      int                  `json:"pairs_failed"`
	Candidates       int                  `json:"candidates"`
	Accepted         int                  `json:"accepted"`
	RejectedCoverage int                  `json:"rejected_coverage"`
	RejectedCap      int                  `json:"rejected_cap"`
	PatchesWritten   int                  `json:"patches_written"`
	CoverageMean     float64              `json:"coverage_mean"`
	Elapsed          time.Duration        `json:"elapsed"`
	PerPair          map[string]PairStats `json:"per_pair,omitempty"`
}
