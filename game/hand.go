package game

import (
	"strings"

	"github.com/Williamxu98/Blackjack-Server/cards"
)

// Hand is the cards received this round and their best total.
type Hand struct {
	cards []*cards.Card
	total int
}

// AddCard appends the card and recomputes the total from scratch. While the
// total is over 21 it counts one more Ace low; when none is left the hand
// stays a bust at that value.
func (h *Hand) AddCard(card *cards.Card) int {
	h.cards = append(h.cards, card)
	h.total = h.sum()
	for h.total > BlackjackTotal {
		if !h.derankOne() {
			break
		}
		h.total = h.sum()
	}
	return h.total
}

func (h *Hand) sum() int {
	total := 0
	for _, c := range h.cards {
		total += c.Value()
	}
	return total
}

func (h *Hand) derankOne() bool {
	for _, c := range h.cards {
		if c.Derank() {
			return true
		}
	}
	return false
}

func (h *Hand) Total() int {
	return h.total
}

func (h *Hand) Len() int {
	return len(h.cards)
}

func (h *Hand) Cards() []*cards.Card {
	ret := make([]*cards.Card, len(h.cards))
	copy(ret, h.cards)
	return ret
}

func (h *Hand) CardStrings() []string {
	ret := make([]string, len(h.cards))
	for i, c := range h.cards {
		ret[i] = c.String()
	}
	return ret
}

func (h *Hand) IsBust() bool {
	return h.total > BlackjackTotal
}

func (h *Hand) IsBlackjack() bool {
	return h.total == BlackjackTotal
}

func (h *Hand) Clear() {
	h.cards = nil
	h.total = 0
}

func (h *Hand) String() string {
	return strings.Join(h.CardStrings(), " ")
}
