package cards

import (
	"fmt"
	"strings"
)

const (
	strRanks = "A23456789TJQK"
	strSuits = "SCHD"
)

var (
	prettySuits = map[byte]string{
		'S': "♠", // spades
		'C': "♣", // clubs
		'H': "❤", // hearts
		'D': "♦", // diamonds
	}
)

// Card is a rank/suit pair. An Ace can be counted low once; everything else is fixed.
type Card struct {
	rank       byte
	suit       byte
	countedLow bool
}

func NewCard(s string) (*Card, error) {
	if len(s) != 2 {
		return nil, fmt.Errorf("Invalid card [%s]", s)
	}
	rank := strings.ToUpper(s[:1])[0]
	suit := strings.ToUpper(s[1:])[0]
	if strings.IndexByte(strRanks, rank) < 0 {
		return nil, fmt.Errorf("Invalid rank in card [%s]", s)
	}
	if strings.IndexByte(strSuits, suit) < 0 {
		return nil, fmt.Errorf("Invalid suit in card [%s]", s)
	}
	return &Card{rank: rank, suit: suit}, nil
}

func MustNewCard(s string) *Card {
	c, err := NewCard(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Card) Rank() byte {
	return c.rank
}

func (c *Card) Suit() byte {
	return c.suit
}

func (c *Card) IsAce() bool {
	return c.rank == 'A'
}

// BaseValue is the value of the card before any derank: 11 for an Ace, 10 for faces.
func (c *Card) BaseValue() int {
	switch c.rank {
	case 'A':
		return 11
	case 'T', 'J', 'Q', 'K':
		return 10
	default:
		return int(c.rank - '0')
	}
}

// Value is the value the card currently contributes to a hand.
func (c *Card) Value() int {
	if c.countedLow {
		return 1
	}
	return c.BaseValue()
}

func (c *Card) CountedLow() bool {
	return c.countedLow
}

// Derank counts an Ace as 1. It returns false when the card is not an Ace
// or has already been counted low.
func (c *Card) Derank() bool {
	if !c.IsAce() || c.countedLow {
		return false
	}
	c.countedLow = true
	return true
}

func (c *Card) String() string {
	return string([]byte{c.rank, c.suit})
}

func (c *Card) Pretty() string {
	return string(c.rank) + prettySuits[c.suit]
}

func CardsToString(cards []*Card) string {
	var b strings.Builder
	b.Grow(32)
	fmt.Fprintf(&b, "[")
	for _, c := range cards {
		fmt.Fprintf(&b, " %s ", c.Pretty())
	}
	fmt.Fprintf(&b, "]")
	return b.String()
}
