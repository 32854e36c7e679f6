// Package period models draw windows: their deterministic identifiers, UTC
// aligned boundaries and lifecycle states.
package period

import (
	"errors"
	"fmt"
	"time"

	"github.com/fastprodman/drawengine/internal/game"
)

var (
	ErrInvalidTransition = errors.New("invalid period state transition")
	ErrInvalidDuration   = errors.New("invalid period duration")
)

// State is the lifecycle position of a period.
type State string

const (
	StatePending   State = "pending"
	StateOpen      State = "open"
	StateClosing   State = "closing"
	StateSettling  State = "settling"
	StateCompleted State = "completed"
)

var transitions = map[State][]State{
	StatePending:  {StateOpen},
	StateOpen:     {StateClosing},
	StateClosing:  {StateSettling},
	StateSettling: {StateCompleted},
}

// CanTransition reports whether from -> to is an edge of the lifecycle.
// Settling never goes back to open; a failed settlement stays settling.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}

	return false
}

// Key identifies an independent period lifecycle.
type Key struct {
	Game     game.Type
	Duration time.Duration
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%ds", k.Game, int(k.Duration.Seconds()))
}

func (k Key) Validate() error {
	secs := int64(k.Duration / time.Second)
	if secs <= 0 || k.Duration%time.Second != 0 || 86400%secs != 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDuration, k.Duration)
	}

	if !k.Game.Valid() {
		return fmt.Errorf("%w: %q", game.ErrUnknownGame, k.Game)
	}

	return nil
}

// Period is one draw window.
type Period struct {
	ID        string
	Game      game.Type
	Duration  time.Duration
	Sequence  int
	StartAt   time.Time
	EndAt     time.Time
	State     State
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p Period) Key() Key {
	return Key{Game: p.Game, Duration: p.Duration}
}

// Accepting reports whether a wager placed at now may join the period.
func (p Period) Accepting(now time.Time) bool {
	return p.State == StateOpen && !now.Before(p.StartAt) && now.Before(p.EndAt)
}

// Closed reports whether the window has ended at now.
func (p Period) Closed(now time.Time) bool {
	return !now.Before(p.EndAt)
}

// At returns the period of k whose window contains t. Windows are aligned to
// UTC midnight, so the same (key, instant) always yields the same period.
func At(k Key, t time.Time) Period {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	idx := int(t.Sub(day) / k.Duration)
	start := day.Add(time.Duration(idx) * k.Duration)

	return Period{
		ID:       NewID(k, day, idx+1),
		Game:     k.Game,
		Duration: k.Duration,
		Sequence: idx + 1,
		StartAt:  start,
		EndAt:    start.Add(k.Duration),
		State:    StatePending,
	}
}

// Next returns the period immediately following p.
func Next(p Period) Period {
	return At(p.Key(), p.EndAt)
}

// NewID renders YYYYMMDD, a two digit game code, the duration in seconds
// (four digits) and the sequence within the day (four digits).
func NewID(k Key, day time.Time, seq int) string {
	return fmt.Sprintf("%s%02d%04d%04d",
		day.UTC().Format("20060102"), k.Game.Code(), int(k.Duration.Seconds()), seq)
}
