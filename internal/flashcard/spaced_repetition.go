package flashcard

import (
	"errors"
	"fmt"
	"time"

	"github.com/vytor/flashdeck/internal/models"
)

// Rating is the learner's recall grade for one review.
type Rating int

const (
	Again Rating = iota + 1
	Hard
	Good
	Easy
)

// Ease bounds, in hundredths.
const (
	MinEase = 130
	MaxEase = 400
)

// MaxInterval caps scheduling at roughly a century so repeated Easy
// ratings cannot overflow the interval arithmetic.
const MaxInterval = 36500

var ErrInvalidRating = errors.New("rating must be 1 (again), 2 (hard), 3 (good) or 4 (easy)")

func (r Rating) Valid() bool {
	return r >= Again && r <= Easy
}

func (r Rating) String() string {
	switch r {
	case Again:
		return "again"
	case Hard:
		return "hard"
	case Good:
		return "good"
	case Easy:
		return "easy"
	default:
		return fmt.Sprintf("rating(%d)", int(r))
	}
}

// ParseRating converts a transport-level integer into a Rating.
func ParseRating(v int) (Rating, error) {
	r := Rating(v)
	if !r.Valid() {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidRating, v)
	}
	return r, nil
}

// State is the scheduling input carried by a card.
type State struct {
	Ease        int
	Interval    int
	Repetitions int
}

// Schedule is the state produced by a review.
type Schedule struct {
	State
	LastReviewed time.Time
	NextReview   time.Time
}

// NextState computes the post-review schedule using a simplified SM-2.
// Interval growth always rounds up, and is computed in integer hundredths
// so that e.g. 10*1.2 yields exactly 12. NextReview is now plus the interval
// in calendar days in now's location, so across a DST change the wall-clock
// time of day is kept rather than a multiple of 24h.
func NextState(cur State, rating Rating, now time.Time) (Schedule, error) {
	if !rating.Valid() {
		return Schedule{}, fmt.Errorf("%w: got %d", ErrInvalidRating, int(rating))
	}

	ease := clamp(cur.Ease, MinEase, MaxEase)
	interval := cur.Interval
	if interval < 1 {
		interval = 1
	}

	var next State
	switch rating {
	case Again:
		next.Interval = 1
		next.Ease = max(MinEase, ease-20)
	case Hard:
		next.Interval = ceilDiv(interval*12, 10)
		next.Ease = max(MinEase, ease-15)
	case Good:
		next.Interval = ceilDiv(interval*ease, 100)
		next.Ease = ease
	case Easy:
		next.Interval = ceilDiv(interval*ease*13, 1000)
		next.Ease = min(MaxEase, ease+10)
	}
	next.Interval = clamp(next.Interval, 1, MaxInterval)
	// Repetitions always counts completed reviews, including lapses.
	next.Repetitions = cur.Repetitions + 1

	return Schedule{
		State:        next,
		LastReviewed: now,
		NextReview:   now.AddDate(0, 0, next.Interval),
	}, nil
}

// ApplyReview returns a copy of card with the schedule for rating applied.
func ApplyReview(card models.Card, rating Rating, now time.Time) (models.Card, error) {
	s, err := NextState(StateOf(card), rating, now)
	if err != nil {
		return card, err
	}
	last, next := s.LastReviewed, s.NextReview
	card.Ease = s.Ease
	card.Interval = s.Interval
	card.Repetitions = s.Repetitions
	card.LastReviewed = &last
	card.NextReview = &next
	return card, nil
}

func StateOf(card models.Card) State {
	return State{Ease: card.Ease, Interval: card.Interval, Repetitions: card.Repetitions}
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
