package quota

import (
	"context"
	"time"
)

// Thresholds are the usage percentages that emit a quota_threshold event,
// checked in ascending order. Each fires at most once per tenant per period.
var Thresholds = []int{80, 90, 100}

// CurrentPeriod returns the calendar billing period key for a point in time.
func CurrentPeriod(now time.Time) string {
	return now.UTC().Format("2006-01")
}

// AdmitResult is the outcome of one admission attempt against a counter.
type AdmitResult struct {
	Admitted bool
	Count    int64
	Limit    int64
	// Crossed lists thresholds whose flag transitioned on this admission,
	// ascending. A burst that jumps past several thresholds reports them all.
	Crossed []int
}

// Usage is the caller-visible counter snapshot.
type Usage struct {
	Current    int64 `json:"current"`
	Limit      int64 `json:"limit"`
	Remaining  int64 `json:"remaining"`
	Percentage int   `json:"percentage"`
	Unlimited  bool  `json:"unlimited"`
}

// Store performs the counter transition for one tenant. Admit must apply
// period rollover, the conditional increment and the threshold flag
// check-and-set as a single atomic step; a read-then-write split permits
// over-admission under concurrent bursts.
type Store interface {
	Admit(ctx context.Context, restaurantID, period string, limit int64) (AdmitResult, error)
	Count(ctx context.Context, restaurantID, period string) (int64, error)
	Reset(ctx context.Context, restaurantID, period string) error
}

func percentage(count, limit int64) int {
	if limit <= 0 {
		return 0
	}
	return int(count * 100 / limit)
}
