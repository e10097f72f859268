package card

import (
	"fmt"
	"sort"
	"strings"
)

// Suit 花色，序数即大小：方块 < 梅花 < 红桃 < 黑桃
type Suit int

const (
	Diamond Suit = iota
	Club
	Heart
	Spade
)

// Rank 自然序存储（A=0 ... K=12），比较时走 GameRank
type Rank int

const (
	Ace Rank = iota
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

const (
	NumSuits = 4
	NumRanks = 13
	DeckSize = NumSuits * NumRanks
)

var ThreeOfDiamonds = Card{Suit: Diamond, Rank: Three}

// Card 一张牌，(Suit, Rank) 即身份
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

var (
	suitSymbols = []string{"♦", "♣", "♥", "♠"}
	suitLetters = []string{"D", "C", "H", "S"}
	rankNames   = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}
)

// GameRank 把 3 映射为 0、2 映射为 12
func (c Card) GameRank() int {
	return (int(c.Rank) + 11) % NumRanks
}

func (c Card) Valid() bool {
	return c.Suit >= Diamond && c.Suit <= Spade && c.Rank >= Ace && c.Rank <= King
}

// Index 在 52 张牌 arena 中的位置
func (c Card) Index() int {
	return int(c.Suit)*NumRanks + int(c.Rank)
}

func FromIndex(i int) Card {
	return Card{Suit: Suit(i / NumRanks), Rank: Rank(i % NumRanks)}
}

// Compare 先比 GameRank 再比花色，返回 -1 / 0 / 1
func Compare(a, b Card) int {
	ga, gb := a.GameRank(), b.GameRank()
	switch {
	case ga < gb:
		return -1
	case ga > gb:
		return 1
	case a.Suit < b.Suit:
		return -1
	case a.Suit > b.Suit:
		return 1
	}
	return 0
}

func (c Card) Less(o Card) bool {
	return Compare(c, o) < 0
}

// Sort 按牌局顺序升序（原地）
func Sort(cards []Card) {
	sort.Slice(cards, func(i, j int) bool { return cards[i].Less(cards[j]) })
}

// NewDeck 按花色主序生成 52 张牌（未洗）
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for i := 0; i < DeckSize; i++ {
		deck = append(deck, FromIndex(i))
	}
	return deck
}

func (s Suit) String() string {
	if s < Diamond || s > Spade {
		return "?"
	}
	return suitSymbols[s]
}

func (r Rank) String() string {
	if r < Ace || r > King {
		return "?"
	}
	return rankNames[r]
}

func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// Parse 解析 "3D"、"10S"、"AH" 这类文本
func Parse(s string) (Card, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 2 {
		return Card{}, fmt.Errorf("card %q: too short", s)
	}
	rankStr, suitStr := s[:len(s)-1], s[len(s)-1:]

	suit := -1
	for i, l := range suitLetters {
		if l == suitStr {
			suit = i
			break
		}
	}
	if suit < 0 {
		return Card{}, fmt.Errorf("card %q: unknown suit %q", s, suitStr)
	}

	rank := -1
	for i, n := range rankNames {
		if n == rankStr {
			rank = i
			break
		}
	}
	if rank < 0 {
		return Card{}, fmt.Errorf("card %q: unknown rank %q", s, rankStr)
	}
	return Card{Suit: Suit(suit), Rank: Rank(rank)}, nil
}

func MustParse(s string) Card {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// MustParseAll 测试辅助："3D 4D 5D" -> []Card
func MustParseAll(s string) []Card {
	fields := strings.Fields(s)
	out := make([]Card, 0, len(fields))
	for _, f := range fields {
		out = append(out, MustParse(f))
	}
	return out
}
