package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"
)

// DieSides is the number of faces on each die.
const DieSides = 6

// Roll is the result of throwing two dice.
type Roll struct {
	Die1 int
	Die2 int
}

// Total returns the sum of both dice.
func (r Roll) Total() int {
	return r.Die1 + r.Die2
}

// Shows reports whether v appears on either die or as the total.
func (r Roll) Shows(v int) bool {
	return r.Die1 == v || r.Die2 == v || r.Total() == v
}

// Is reports whether the dice show exactly a and b, in that order.
func (r Roll) Is(a, b int) bool {
	return r.Die1 == a && r.Die2 == b
}

// Dice produces two-die rolls.
type Dice interface {
	Roll() Roll
}

// RandomDice rolls two independent uniform dice. Safe for concurrent use.
type RandomDice struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomDice creates dice from seed. A zero seed draws one from
// crypto/rand.
func NewRandomDice(seed int64) *RandomDice {
	if seed == 0 {
		seed = NewSeed()
	}
	return &RandomDice{rng: rand.New(rand.NewSource(seed))}
}

// Roll throws both dice.
func (d *RandomDice) Roll() Roll {
	d.mu.Lock()
	defer d.mu.Unlock()

	return Roll{
		Die1: rollDie(d.rng, DieSides),
		Die2: rollDie(d.rng, DieSides),
	}
}

func rollDie(rng *rand.Rand, sides int) int {
	return rng.Intn(sides) + 1
}

// NewSeed returns a random non-zero seed, falling back to 1 if the system
// source fails.
func NewSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 1
	}
	seed := int64(binary.LittleEndian.Uint64(b[:]) &^ (1 << 63))
	if seed == 0 {
		return 1
	}
	return seed
}

// lockedRand guards a math/rand source shared by an engine.
type lockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newLockedRand(seed int64) *lockedRand {
	if seed == 0 {
		seed = NewSeed()
	}
	return &lockedRand{rng: rand.New(rand.NewSource(seed))}
}

func (r *lockedRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(n)
}
