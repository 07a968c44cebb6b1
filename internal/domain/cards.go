package domain

import (
	"math"
	"strconv"
	"strings"
)

// Card is a vote value from the fixed deck.
type Card string

const (
	NoVote      Card = ""
	CardDiscuss Card = "?"
	CardCoffee  Card = "coffee"
)

var numericCards = []Card{"1", "2", "3", "5", "8", "13", "20", "40", "80", "100"}

var cardAliases = map[string]Card{
	"cafe":  CardCoffee,
	"café":  CardCoffee,
	"pass":  CardCoffee,
	"break": CardCoffee,
}

// Deck returns every playable card in display order.
func Deck() []Card {
	out := make([]Card, 0, len(numericCards)+2)
	out = append(out, numericCards...)
	return append(out, CardDiscuss, CardCoffee)
}

// NumericCards returns the ordered numeric subset of the deck.
func NumericCards() []Card {
	out := make([]Card, len(numericCards))
	copy(out, numericCards)
	return out
}

// ParseCard normalizes raw input into a deck card.
func ParseCard(raw string) (Card, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return NoVote, InvalidInput("card must not be empty")
	}
	if c, ok := cardAliases[s]; ok {
		return c, nil
	}
	for _, c := range Deck() {
		if string(c) == s {
			return c, nil
		}
	}
	return NoVote, InvalidInput("unknown card " + strconv.Quote(raw))
}

func (c Card) IsNumeric() bool {
	_, ok := c.Value()
	return ok
}

// Value returns the integer points of a numeric card.
func (c Card) Value() (int, bool) {
	for _, n := range numericCards {
		if n == c {
			v, err := strconv.Atoi(string(c))
			return v, err == nil
		}
	}
	return 0, false
}

// NearestCard picks the numeric card closest to mean; ties go to the smaller card.
func NearestCard(mean float64) Card {
	best := numericCards[0]
	bestDiff := math.Inf(1)
	for _, c := range numericCards {
		v, _ := c.Value()
		if d := math.Abs(float64(v) - mean); d < bestDiff {
			best, bestDiff = c, d
		}
	}
	return best
}
