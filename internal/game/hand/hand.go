package hand

import (
	"encoding/json"
	"strings"

	"BigTwo/internal/game/card"
)

// Category 牌型（封闭枚举，所有 switch 必须覆盖全部分支）
type Category int

const (
	Single Category = iota + 1
	Pair
	Triple
	Straight
	Flush
	FullHouse
	Quad
	StraightFlush
)

// 5 张牌型的判定顺序：先高后低，第一个成立即返回
var fiveCardOrder = []Category{StraightFlush, Quad, FullHouse, Flush, Straight}

func (c Category) String() string {
	switch c {
	case Single:
		return "Single"
	case Pair:
		return "Pair"
	case Triple:
		return "Triple"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "FullHouse"
	case Quad:
		return "Quad"
	case StraightFlush:
		return "StraightFlush"
	}
	return "Invalid"
}

// Strength 仅 5 张牌型有强度；单/对/三条为 0
func (c Category) Strength() int {
	switch c {
	case Straight:
		return 1
	case Flush:
		return 2
	case FullHouse:
		return 3
	case Quad:
		return 4
	case StraightFlush:
		return 5
	}
	return 0
}

func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// Hand 一次出牌：不可变，cards 已按牌局顺序升序
type Hand struct {
	owner    int
	category Category
	cards    []card.Card
}

func (h Hand) Owner() int { return h.owner }
func (h Hand) Category() Category { return h.category }
func (h Hand) Size() int { return len(h.cards) }
func (h Hand) Card(i int) card.Card { return h.cards[i] }
func (h Hand) Cards() []card.Card { return append([]card.Card(nil), h.cards...) }

func (h Hand) Contains(c card.Card) bool {
	for _, x := range h.cards {
		if x == c {
			return true
		}
	}
	return false
}

// TopCard 决胜牌。葫芦取三条里花色最大的一张，四条取四张里花色最大的一张，其余取最大的一张。
func (h Hand) TopCard() card.Card {
	cs := h.cards
	switch h.category {
	case FullHouse:
		if sameRank(cs[0:3]) {
			return cs[2]
		}
		return cs[4]
	case Quad:
		if sameRank(cs[0:4]) {
			return cs[3]
		}
		return cs[4]
	case Single, Pair, Triple, Straight, Flush, StraightFlush:
		return cs[len(cs)-1]
	}
	return cs[len(cs)-1]
}

// Beats 判断 h 能否压过桌面上的 top；top 为 nil 表示桌面为空
func (h Hand) Beats(top *Hand) bool {
	if top == nil {
		return true
	}
	// 其余三家都过了，上一手是自己的：可以任意出
	if h.owner == top.owner {
		return true
	}
	if h.Size() != top.Size() {
		return false
	}

	if s, ts := h.category.Strength(), top.category.Strength(); s != 0 {
		if s != ts {
			return s > ts
		}
		// 同花比花色，不比点数
		if h.category == Flush {
			if hs, tsuit := h.cards[0].Suit, top.cards[0].Suit; hs != tsuit {
				return hs > tsuit
			}
		}
	}
	return card.Compare(h.TopCard(), top.TopCard()) > 0
}

func (h Hand) String() string {
	parts := make([]string, len(h.cards))
	for i, c := range h.cards {
		parts[i] = c.String()
	}
	return "{" + h.category.String() + "} [" + strings.Join(parts, " ") + "]"
}

func (h Hand) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Owner    int         `json:"owner"`
		Category Category    `json:"category"`
		Cards    []card.Card `json:"cards"`
	}{h.owner, h.category, h.cards})
}
