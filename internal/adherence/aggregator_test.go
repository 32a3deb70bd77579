package adherence

import (
	"context"
	"errors"
	"testing"
	"time"

	"medmind/internal/models"
)

// fakeLedger is an in-memory DayReader keyed by user. It filters by the
// boundaries it is handed, like the real ledger query does.
type fakeLedger struct {
	logs  map[string][]*models.DoseLog
	err   error
	reads int
}

func (f *fakeLedger) DayLogs(ctx context.Context, userID string, dayStart, dayEnd time.Time) ([]*models.DoseLog, error) {
	f.reads++
	if f.err != nil {
		return nil, f.err
	}

	var out []*models.DoseLog
	for _, log := range f.logs[userID] {
		if !log.ScheduledTime.Before(dayStart) && !log.ScheduledTime.After(dayEnd) {
			out = append(out, log)
		}
	}
	return out, nil
}

func (f *fakeLedger) add(userID string, scheduled time.Time, status models.DoseStatus) {
	if f.logs == nil {
		f.logs = make(map[string][]*models.DoseLog)
	}
	f.logs[userID] = append(f.logs[userID], &models.DoseLog{
		ID:            "log",
		UserID:        userID,
		MedicationID:  "med",
		ScheduledTime: scheduled,
		Status:        status,
	})
}

var testToday = time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)

// daysAgo returns a scheduled time n days before testToday
func daysAgo(n int) time.Time {
	return testToday.AddDate(0, 0, -n)
}

func TestComputeStreak(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fakeLedger)
		want  int
	}{
		{
			name:  "no logs at all",
			setup: func(f *fakeLedger) {},
			want:  0,
		},
		{
			name: "empty today breaks immediately despite history",
			setup: func(f *fakeLedger) {
				f.add("u1", daysAgo(1), models.DoseStatusTaken)
				f.add("u1", daysAgo(2), models.DoseStatusTaken)
			},
			want: 0,
		},
		{
			name: "missed dose today",
			setup: func(f *fakeLedger) {
				f.add("u1", daysAgo(0), models.DoseStatusTaken)
				f.add("u1", daysAgo(0), models.DoseStatusMissed)
			},
			want: 0,
		},
		{
			name: "single adherent day",
			setup: func(f *fakeLedger) {
				f.add("u1", daysAgo(0), models.DoseStatusTaken)
			},
			want: 1,
		},
		{
			name: "streak stops at yesterday's miss",
			setup: func(f *fakeLedger) {
				f.add("u1", daysAgo(0), models.DoseStatusTaken)
				f.add("u1", daysAgo(0), models.DoseStatusTaken)
				f.add("u1", daysAgo(1), models.DoseStatusMissed)
				f.add("u1", daysAgo(2), models.DoseStatusTaken)
				f.add("u1", daysAgo(2), models.DoseStatusTaken)
				f.add("u1", daysAgo(2), models.DoseStatusTaken)
			},
			want: 1,
		},
		{
			name: "gap day ends the streak",
			setup: func(f *fakeLedger) {
				f.add("u1", daysAgo(0), models.DoseStatusTaken)
				f.add("u1", daysAgo(1), models.DoseStatusTaken)
				// day 2 has no logs
				f.add("u1", daysAgo(3), models.DoseStatusTaken)
			},
			want: 2,
		},
		{
			name: "pending and current doses still count",
			setup: func(f *fakeLedger) {
				f.add("u1", daysAgo(0), models.DoseStatusPending)
				f.add("u1", daysAgo(0), models.DoseStatusCurrent)
				f.add("u1", daysAgo(1), models.DoseStatusTaken)
			},
			want: 2,
		},
		{
			name: "k adherent days before a missed day",
			setup: func(f *fakeLedger) {
				for i := 0; i < 5; i++ {
					f.add("u1", daysAgo(i), models.DoseStatusTaken)
				}
				f.add("u1", daysAgo(5), models.DoseStatusMissed)
			},
			want: 5,
		},
		{
			name: "other users' logs are invisible",
			setup: func(f *fakeLedger) {
				f.add("u2", daysAgo(0), models.DoseStatusTaken)
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &fakeLedger{}
			tt.setup(ledger)

			agg := NewAggregator(ledger, DefaultLookbackDays)
			got, err := agg.ComputeStreak(context.Background(), "u1", testToday)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			if got != tt.want {
				t.Errorf("Expected streak %d, got %d", tt.want, got)
			}

			if got < 0 || got > DefaultLookbackDays {
				t.Errorf("Streak %d out of [0, %d]", got, DefaultLookbackDays)
			}
		})
	}
}

func TestComputeStreak_LookbackCap(t *testing.T) {
	ledger := &fakeLedger{}
	// 20 consecutive adherent days, far more than the cap below
	for i := 0; i < 20; i++ {
		ledger.add("u1", daysAgo(i), models.DoseStatusTaken)
	}

	agg := NewAggregator(ledger, 7)
	got, err := agg.ComputeStreak(context.Background(), "u1", testToday)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if got != 7 {
		t.Errorf("Expected streak capped at 7, got %d", got)
	}
	if ledger.reads != 7 {
		t.Errorf("Expected 7 day reads, got %d", ledger.reads)
	}
}

func TestComputeStreak_Idempotent(t *testing.T) {
	ledger := &fakeLedger{}
	for i := 0; i < 3; i++ {
		ledger.add("u1", daysAgo(i), models.DoseStatusTaken)
	}

	agg := NewAggregator(ledger, DefaultLookbackDays)

	first, err := agg.ComputeStreak(context.Background(), "u1", testToday)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	second, err := agg.ComputeStreak(context.Background(), "u1", testToday)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if first != second {
		t.Errorf("Expected identical results, got %d then %d", first, second)
	}
}

func TestComputeStreak_ReaderFaultPropagates(t *testing.T) {
	readErr := errors.New("ledger unavailable")
	ledger := &fakeLedger{err: readErr}

	agg := NewAggregator(ledger, DefaultLookbackDays)
	_, err := agg.ComputeStreak(context.Background(), "u1", testToday)
	if err == nil {
		t.Fatal("Expected error from failing reader")
	}
	if !errors.Is(err, readErr) {
		t.Errorf("Expected wrapped reader error, got %v", err)
	}
}

func TestComputeStreak_ContextCancellation(t *testing.T) {
	ledger := &fakeLedger{}
	ledger.add("u1", daysAgo(0), models.DoseStatusTaken)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agg := NewAggregator(ledger, DefaultLookbackDays)
	_, err := agg.ComputeStreak(ctx, "u1", testToday)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if ledger.reads != 0 {
		t.Errorf("Expected no reads after cancellation, got %d", ledger.reads)
	}
}

func TestComputeStreak_StopsReadingAtBreak(t *testing.T) {
	ledger := &fakeLedger{}
	ledger.add("u1", daysAgo(0), models.DoseStatusTaken)
	// day 1 empty, days 2-9 adherent but unreachable
	for i := 2; i < 10; i++ {
		ledger.add("u1", daysAgo(i), models.DoseStatusTaken)
	}

	agg := NewAggregator(ledger, DefaultLookbackDays)
	got, err := agg.ComputeStreak(context.Background(), "u1", testToday)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if got != 1 {
		t.Errorf("Expected streak 1, got %d", got)
	}
	if ledger.reads != 2 {
		t.Errorf("Expected the walk to stop after 2 reads, got %d", ledger.reads)
	}
}

func TestComputeDashboardTotals(t *testing.T) {
	tests := []struct {
		name        string
		medications []*models.Medication
		want        int
	}{
		{
			name:        "no medications",
			medications: []*models.Medication{},
			want:        0,
		},
		{
			name:        "nil slice",
			medications: nil,
			want:        0,
		},
		{
			name: "mixed consumption",
			medications: []*models.Medication{
				{TotalPills: 30, RemainingPills: 25, IsActive: true},
				{TotalPills: 20, RemainingPills: 20, IsActive: true},
			},
			want: 5,
		},
		{
			name: "untouched medication contributes zero",
			medications: []*models.Medication{
				{TotalPills: 60, RemainingPills: 60, IsActive: true},
			},
			want: 0,
		},
		{
			name: "inactive medications excluded",
			medications: []*models.Medication{
				{TotalPills: 30, RemainingPills: 10, IsActive: true},
				{TotalPills: 30, RemainingPills: 0, IsActive: false},
			},
			want: 20,
		},
		{
			name: "nil entry tolerated",
			medications: []*models.Medication{
				nil,
				{TotalPills: 10, RemainingPills: 4, IsActive: true},
			},
			want: 6,
		},
		{
			name: "no clamping on inconsistent data",
			medications: []*models.Medication{
				{TotalPills: 10, RemainingPills: 15, IsActive: true},
			},
			want: -5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeDashboardTotals(tt.medications)
			if got.TotalPillsTaken != tt.want {
				t.Errorf("Expected total %d, got %d", tt.want, got.TotalPillsTaken)
			}
		})
	}
}

func TestDayBoundaries(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("Failed to load location: %v", err)
	}

	at := time.Date(2026, 3, 15, 14, 30, 45, 123456789, loc)

	start := DayStart(at)
	if !start.Equal(time.Date(2026, 3, 15, 0, 0, 0, 0, loc)) {
		t.Errorf("Unexpected day start: %v", start)
	}
	if start.Location() != loc {
		t.Error("Day start lost the caller's location")
	}

	end := DayEnd(at)
	if !end.Equal(time.Date(2026, 3, 15, 23, 59, 59, 999000000, loc)) {
		t.Errorf("Unexpected day end: %v", end)
	}

	if !end.After(start) {
		t.Error("Day end not after day start")
	}
}
