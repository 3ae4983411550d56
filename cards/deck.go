package cards

import (
	crypto_rand "crypto/rand"
	"encoding/binary"
	"math/rand"

	"github.com/pkg/errors"
)

const CardsPerDeck = 52

// ErrDeckExhausted is returned by Draw when no undrawn cards are left. The
// round driver reshuffles before this can happen, so callers treat it as fatal.
var ErrDeckExhausted = errors.New("deck exhausted")

// Deck is a shoe of numDecks standard decks with a draw cursor.
type Deck struct {
	numDecks int
	cards    []Card
	cursor   int
	randGen  *rand.Rand
}

func newSeed() rand.Source {
	var b [8]byte
	_, err := crypto_rand.Read(b[:])
	if err != nil {
		panic("cannot seed math/rand package with cryptographically secure random number generator")
	}
	return rand.NewSource(int64(binary.LittleEndian.Uint64(b[:])))
}

// NewDeck returns a shuffled shoe. A nil source is seeded from crypto/rand.
func NewDeck(numDecks int, source rand.Source) *Deck {
	if numDecks <= 0 {
		numDecks = 1
	}
	if source == nil {
		source = newSeed()
	}
	deck := &Deck{
		numDecks: numDecks,
		randGen:  rand.New(source),
	}
	deck.Reload()
	return deck
}

// NewDeckFromScript reloads a shoe and moves the given cards to the top in order.
// Used by tests and scripted tables.
func NewDeckFromScript(numDecks int, top []string, source rand.Source) (*Deck, error) {
	deck := NewDeck(numDecks, source)
	for i, cardStr := range top {
		card, err := NewCard(cardStr)
		if err != nil {
			return nil, errors.Wrapf(err, "Invalid scripted card at position %d", i)
		}
		loc := deck.getCardLoc(*card, i)
		if loc < 0 {
			return nil, errors.Errorf("Not enough copies of %s in a %d deck shoe", cardStr, numDecks)
		}
		deck.cards[i], deck.cards[loc] = deck.cards[loc], deck.cards[i]
	}
	return deck, nil
}

// Reload restores the full composition, shuffles it and resets the cursor.
func (deck *Deck) Reload() {
	deck.cards = initializeFullCards(deck.numDecks)
	deck.randGen.Shuffle(len(deck.cards), func(i, j int) {
		deck.cards[i], deck.cards[j] = deck.cards[j], deck.cards[i]
	})
	deck.cursor = 0
}

// Draw returns a fresh card instance and advances the cursor.
func (deck *Deck) Draw() (*Card, error) {
	if deck.cursor >= len(deck.cards) {
		return nil, ErrDeckExhausted
	}
	c := deck.cards[deck.cursor]
	deck.cursor++
	return &Card{rank: c.rank, suit: c.suit}, nil
}

func (deck *Deck) Remaining() int {
	return len(deck.cards) - deck.cursor
}

func (deck *Deck) Size() int {
	return deck.numDecks * CardsPerDeck
}

func (deck *Deck) NumDecks() int {
	return deck.numDecks
}

func (deck *Deck) PrettyPrint() string {
	remaining := make([]*Card, 0, deck.Remaining())
	for i := deck.cursor; i < len(deck.cards); i++ {
		remaining = append(remaining, &deck.cards[i])
	}
	return CardsToString(remaining)
}

func (deck *Deck) getCardLoc(cardToLocate Card, from int) int {
	for i := from; i < len(deck.cards); i++ {
		if deck.cards[i].rank == cardToLocate.rank && deck.cards[i].suit == cardToLocate.suit {
			return i
		}
	}
	return -1
}

func initializeFullCards(numDecks int) []Card {
	cards := make([]Card, 0, numDecks*CardsPerDeck)
	for d := 0; d < numDecks; d++ {
		for i := range strRanks {
			for j := range strSuits {
				cards = append(cards, Card{rank: strRanks[i], suit: strSuits[j]})
			}
		}
	}
	return cards
}
