// README: Scoring and ranking unit tests.
package allocation

import (
	"testing"
	"time"

	"github.com/rachana28/DHAPP-BACKEND/internal/modules/driver"
)

func TestScoreRecencyBonus(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ago := func(d time.Duration) *time.Time {
		ts := now.Add(-d)
		return &ts
	}

	tests := []struct {
		name       string
		lastTripAt *time.Time
		want       float64
	}{
		{"never assigned", nil, 100},
		{"over a week", ago(169 * time.Hour), 90},
		{"over three days", ago(73 * time.Hour), 80},
		{"over a day", ago(25 * time.Hour), 70},
		{"over four hours", ago(5 * time.Hour), 60},
		{"recent", ago(time.Hour), 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Candidate{Driver: driver.Driver{Rating: 5}, LastTripAt: tt.lastTripAt}
			if got := Score(c, now); got != tt.want {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScoreMonotonicInRating(t *testing.T) {
	now := time.Now()
	last := Score(Candidate{Driver: driver.Driver{Rating: 0}}, now)
	for r := 0.5; r <= 5; r += 0.5 {
		s := Score(Candidate{Driver: driver.Driver{Rating: r}}, now)
		if s <= last {
			t.Fatalf("score not increasing at rating %v: %v <= %v", r, s, last)
		}
		last = s
	}
}

func TestScoreLoadPenalty(t *testing.T) {
	now := time.Now()
	c := Candidate{Driver: driver.Driver{Rating: 4}, PendingOffers: 2}
	// 4*10 + 50 (no history) - 2*25
	if got := Score(c, now); got != 40 {
		t.Errorf("Score() = %v, want 40", got)
	}
	c.PendingOffers = 4
	if got := Score(c, now); got != -10 {
		t.Errorf("Score() with heavy load = %v, want -10", got)
	}
}

func TestRankStableTies(t *testing.T) {
	now := time.Now()
	cands := []Candidate{
		{Driver: driver.Driver{ID: "d1", Rating: 3}},
		{Driver: driver.Driver{ID: "d2", Rating: 5}},
		{Driver: driver.Driver{ID: "d3", Rating: 3}},
		{Driver: driver.Driver{ID: "d4", Rating: 3}},
	}

	ranked := Rank(cands, now)

	want := []string{"d2", "d1", "d3", "d4"}
	for i, w := range want {
		if string(ranked[i].Driver.ID) != w {
			t.Fatalf("rank[%d] = %s, want %s", i, ranked[i].Driver.ID, w)
		}
	}
	// input untouched
	if cands[0].Driver.ID != "d1" {
		t.Error("Rank mutated its input")
	}
}
