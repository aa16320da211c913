package main

import (
	"math/rand/v2"

	"github.com/wricardo/courtqueue/game/engine"
)

// Strategy decides how a game on the court ends
type Strategy interface {
	Name() string
	// Decide returns the index (0 or 1) of the winning team in play
	Decide(s *engine.Session) int
	// Score returns a plausible final score for the winner and the loser
	Score() (winner, loser int)
}

// RandomStrategy flips a coin for every game
type RandomStrategy struct {
	rng *rand.Rand
}

func NewRandomStrategy(seed uint64) *RandomStrategy {
	return &RandomStrategy{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (r *RandomStrategy) Name() string { return "random" }

func (r *RandomStrategy) Decide(s *engine.Session) int {
	return r.rng.IntN(2)
}

func (r *RandomStrategy) Score() (int, int) {
	loser := r.rng.IntN(20)
	return 21, loser
}

// StrengthStrategy gives every team a fixed rating and lets the stronger
// team win with a probability proportional to the ratings. It produces the
// long winning streaks seen on real courts.
type StrengthStrategy struct {
	rng     *rand.Rand
	ratings map[string]float64
}

func NewStrengthStrategy(seed uint64) *StrengthStrategy {
	return &StrengthStrategy{
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		ratings: make(map[string]float64),
	}
}

func (st *StrengthStrategy) Name() string { return "strength" }

func (st *StrengthStrategy) rating(team engine.Team) float64 {
	r, ok := st.ratings[team.ID]
	if !ok {
		r = 1 + st.rng.Float64()*9
		st.ratings[team.ID] = r
	}
	return r
}

func (st *StrengthStrategy) Decide(s *engine.Session) int {
	a, b := st.rating(s.InPlay[0]), st.rating(s.InPlay[1])
	if st.rng.Float64() < a/(a+b) {
		return 0
	}
	return 1
}

func (st *StrengthStrategy) Score() (int, int) {
	return 21, 10 + st.rng.IntN(10)
}

// NewStrategy returns the named strategy, defaulting to random
func NewStrategy(name string, seed uint64) Strategy {
	if name == "strength" {
		return NewStrengthStrategy(seed)
	}
	return NewRandomStrategy(seed)
}
