package scanner

import (
	"fmt"
	"strings"
	"time"
)

// Timing is an optional diagnostic record of a single scan. Supply one
// through Params.WithTiming to collect per-stage durations and counters;
// it is not part of the scan contract.
type Timing struct {
	Total            time.Duration
	Sharpen          time.Duration
	Threshold        time.Duration
	EllipseDiscovery time.Duration
	RingExtraction   time.Duration
	Homography       time.Duration
	Sampling         time.Duration

	EllipseCandidates int
	EllipsesSearched  int
	GeometryFailures  int
}

// String renders the record as a one-scan summary.
func (t *Timing) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "total %v (sharpen %v, threshold %v, ellipses %v, ring %v, homography %v, sampling %v)",
		t.Total, t.Sharpen, t.Threshold, t.EllipseDiscovery, t.RingExtraction, t.Homography, t.Sampling)
	fmt.Fprintf(&b, "; candidates %d, searched %d, geometry failures %d",
		t.EllipseCandidates, t.EllipsesSearched, t.GeometryFailures)
	return b.String()
}
