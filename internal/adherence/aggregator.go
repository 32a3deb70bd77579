// Package adherence turns raw per-day dose logs into a consecutive-day
// adherence streak and dashboard pill totals. It performs no I/O of its own:
// day buckets come from an injected DayReader and "today" always comes from
// the caller, so results are deterministic and testable.
package adherence

import (
	"context"
	"fmt"
	"time"

	"medmind/internal/models"
)

// DefaultLookbackDays caps how far back the streak walk looks. The cap bounds
// worst-case work to one day-read per day regardless of how much history a
// user has.
const DefaultLookbackDays = 365

// DayReader serves one user's dose logs for a single day bucket. dayStart and
// dayEnd are inclusive, already localized to the caller's day boundary; the
// reader must not apply any timezone conversion of its own. A user with no
// logs yields an empty slice, not an error.
type DayReader interface {
	DayLogs(ctx context.Context, userID string, dayStart, dayEnd time.Time) ([]*models.DoseLog, error)
}

// Clock supplies "now" to callers that need to derive today. Injected rather
// than read from the system clock so aggregation stays deterministic under
// test.
type Clock func() time.Time

// DashboardTotals holds per-user summary statistics for the dashboard
type DashboardTotals struct {
	TotalPillsTaken int `json:"total_pills_taken"`
}

// Aggregator computes streaks and totals. It holds no state across calls and
// is safe for concurrent use.
type Aggregator struct {
	reader       DayReader
	lookbackDays int
}

// NewAggregator builds an aggregator over the given ledger reader.
// lookbackDays values <= 0 fall back to DefaultLookbackDays.
func NewAggregator(reader DayReader, lookbackDays int) *Aggregator {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	return &Aggregator{
		reader:       reader,
		lookbackDays: lookbackDays,
	}
}

// ComputeStreak counts consecutive adherent days ending at today (inclusive),
// walking backward one day at a time for at most the configured lookback.
//
// A day qualifies when it has at least one dose log and none of them is
// missed. Two rules here are deliberate product policy: a day with zero logs
// terminates the walk (no data is a break, not a skip), and a day whose logs
// are all still pending or current counts (the absence of an explicit miss
// is enough; the overdue sweep converts stale pending doses to missed).
//
// Reader faults propagate unchanged. Masking one could fabricate a streak.
func (a *Aggregator) ComputeStreak(ctx context.Context, userID string, today time.Time) (int, error) {
	streak := 0

	for i := 0; i < a.lookbackDays; i++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		day := today.AddDate(0, 0, -i)
		logs, err := a.reader.DayLogs(ctx, userID, DayStart(day), DayEnd(day))
		if err != nil {
			return 0, fmt.Errorf("failed to read day logs for %s: %w", day.Format("2006-01-02"), err)
		}

		if len(logs) == 0 {
			break
		}
		if anyMissed(logs) {
			break
		}

		streak++
	}

	return streak, nil
}

// ComputeDashboardTotals sums pills consumed across active medications.
// Inactive (soft-deleted) and nil entries are skipped, so a medication
// removed mid-read drops out of the total instead of failing the request.
// Per-medication counts are not clamped; a negative contribution surfaces an
// upstream remaining > total data bug rather than hiding it.
func ComputeDashboardTotals(medications []*models.Medication) DashboardTotals {
	total := 0
	for _, med := range medications {
		if med == nil || !med.IsActive {
			continue
		}
		total += med.PillsTaken()
	}
	return DashboardTotals{TotalPillsTaken: total}
}

// DayStart returns local midnight of t's calendar day
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayEnd returns the last representable instant of t's calendar day used for
// inclusive queries (23:59:59.999)
func DayEnd(t time.Time) time.Time {
	return DayStart(t).AddDate(0, 0, 1).Add(-time.Millisecond)
}

func anyMissed(logs []*models.DoseLog) bool {
	for _, log := range logs {
		if log.Status == models.DoseStatusMissed {
			return true
		}
	}
	return false
}
