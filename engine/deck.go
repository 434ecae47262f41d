// Package engine implements the Tri-Stack card game rules.
//
// The package is deliberately dependency-free. All state lives in plain
// values, randomness comes from an embedded xorshift64 generator seeded at
// match start, and every operation either fully commits a valid new state
// or makes no change at all.
package engine

// Suit of a standard playing card.
type Suit string

const (
	Hearts   Suit = "♥"
	Diamonds Suit = "♦"
	Clubs    Suit = "♣"
	Spades   Suit = "♠"
)

// Rank of a standard playing card.
type Rank string

const (
	RankAce   Rank = "A"
	RankTwo   Rank = "2"
	RankThree Rank = "3"
	RankFour  Rank = "4"
	RankFive  Rank = "5"
	RankSix   Rank = "6"
	RankSeven Rank = "7"
	RankEight Rank = "8"
	RankNine  Rank = "9"
	RankTen   Rank = "10"
	RankJack  Rank = "J"
	RankQueen Rank = "Q"
	RankKing  Rank = "K"
)

// Suits and Ranks define deck build order. Card IDs are assigned by walking
// these in order, so a given (suit, rank) pair always gets the same ID.
var (
	Suits = [4]Suit{Hearts, Diamonds, Clubs, Spades}
	Ranks = [13]Rank{
		RankAce, RankTwo, RankThree, RankFour, RankFive, RankSix, RankSeven,
		RankEight, RankNine, RankTen, RankJack, RankQueen, RankKing,
	}
)

// rankValues holds the base point value of each rank: Ace 1, pip cards their
// number, face cards 10.
var rankValues = map[Rank]int{
	RankAce: 1, RankTwo: 2, RankThree: 3, RankFour: 4, RankFive: 5,
	RankSix: 6, RankSeven: 7, RankEight: 8, RankNine: 9, RankTen: 10,
	RankJack: 10, RankQueen: 10, RankKing: 10,
}

// DeckSize is the number of cards in a full deck.
const DeckSize = 52

// Card is an immutable deck card. The ID is unique within a deck, assigned
// once at build time and never reused for a different (suit, rank) pair.
type Card struct {
	ID    int  `json:"id"`
	Suit  Suit `json:"suit"`
	Rank  Rank `json:"rank"`
	Value int  `json:"value"`
}

func (c Card) String() string { return string(c.Rank) + string(c.Suit) }

// ---------------------------------------------------------------------------
// xorshift64 RNG — inline, no interface
// ---------------------------------------------------------------------------

// Rand is a small xorshift64 generator. Deterministic for a given seed,
// which keeps deals reproducible in tests and replays.
type Rand struct {
	state uint64
}

// NewRand returns a generator seeded with seed. A zero seed is coerced to 1
// because xorshift cannot leave the zero state.
func NewRand(seed uint64) *Rand {
	if seed == 0 {
		seed = 1
	}
	return &Rand{state: seed}
}

func (r *Rand) next() uint64 {
	x := r.state
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	r.state = x
	return x
}

// Intn returns a random int in [0, n). n must be positive.
func (r *Rand) Intn(n int) int {
	return int(r.next() % uint64(n))
}

// ---------------------------------------------------------------------------
// Deck construction
// ---------------------------------------------------------------------------

// NewDeck builds all 52 (suit, rank) combinations exactly once, each tagged
// with its base value, and returns them shuffled. It never fails and always
// yields exactly DeckSize distinct cards.
func NewDeck(r *Rand) []Card {
	deck := make([]Card, 0, DeckSize)
	id := 0
	for _, s := range Suits {
		for _, rk := range Ranks {
			deck = append(deck, Card{ID: id, Suit: s, Rank: rk, Value: rankValues[rk]})
			id++
		}
	}
	return Shuffle(deck, r)
}

// Shuffle returns a uniformly random permutation of cards using an in-place
// Fisher–Yates over a copy. The input slice is never mutated, so it serves
// both full-deck shuffling and re-shuffling a recycled open pile.
func Shuffle(cards []Card, r *Rand) []Card {
	out := make([]Card, len(cards))
	copy(out, cards)
	for i := len(out) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
