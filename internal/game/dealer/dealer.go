package dealer

import (
	"math/rand"

	"BigTwo/internal/game/card"
)

// Dealer 只负责洗牌（无规则判断），发牌顺序由 engine 决定
type Dealer struct {
	rnd *rand.Rand
}

func NewDealer(seed int64) *Dealer {
	return &Dealer{rnd: rand.New(rand.NewSource(seed))}
}

// Shuffle 返回一副新洗好的 52 张牌
func (d *Dealer) Shuffle() []card.Card {
	deck := card.NewDeck()
	d.rnd.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return deck
}
