package hand

import (
	"encoding/json"
	"testing"

	"BigTwo/internal/game/card"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHand(t *testing.T, owner int, cards string) Hand {
	t.Helper()
	h, ok := Classify(owner, card.MustParseAll(cards))
	require.True(t, ok, "expected %q to classify", cards)
	return h
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		cards string
		want  Category
		ok    bool
	}{
		{"single", "7H", Single, true},
		{"pair", "9D 9S", Pair, true},
		{"pair different rank", "9D 10S", 0, false},
		{"triple", "KC KD KS", Triple, true},
		{"triple broken", "KC KD AS", 0, false},
		{"four cards", "3D 3C 3H 3S", 0, false},
		{"six cards", "3D 4D 5D 6D 7D 8D", 0, false},
		{"empty", "", 0, false},
		{"duplicate card", "5H 5H", 0, false},
		{"straight", "3D 4C 5H 6S 7D", Straight, true},
		{"straight unordered input", "7D 5H 3D 6S 4C", Straight, true},
		{"straight to two", "JD QC KH AS 2D", Straight, true},
		{"straight ten to ace", "10D JC QH KS AD", Straight, true},
		{"no wraparound", "AD 2C 3H 4S 5D", 0, false},
		{"no wraparound K-3", "KD AC 2H 3S 4D", 0, false},
		{"flush", "3H 7H 9H JH 2H", Flush, true},
		{"full house low triple", "3D 3C 3H 7S 7D", FullHouse, true},
		{"full house high triple", "3D 3C 7H 7S 7D", FullHouse, true},
		{"quad low", "5D 5C 5H 5S 9D", Quad, true},
		{"quad high", "4D 9C 9H 9S 9D", Quad, true},
		{"straight flush", "3D 4D 5D 6D 7D", StraightFlush, true},
		{"two pair is nothing", "3D 3C 5H 5S 9D", 0, false},
		{"junk", "3D 5C 8H JS 2D", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, ok := Classify(2, card.MustParseAll(tt.cards))
			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			assert.Equal(t, tt.want, h.Category())
			assert.Equal(t, 2, h.Owner())
			for i := 1; i < h.Size(); i++ {
				assert.True(t, h.Card(i-1).Less(h.Card(i)), "hand should be sorted: %s", h)
			}
		})
	}
}

func TestClassifyDeterministic(t *testing.T) {
	cards := card.MustParseAll("9C 9H 9S 4D 4S")
	first, ok := Classify(0, cards)
	require.True(t, ok)
	for i := 0; i < 10; i++ {
		again, ok := Classify(0, cards)
		require.True(t, ok)
		assert.Equal(t, first, again)
	}
	// input must not be reordered
	assert.Equal(t, card.MustParseAll("9C 9H 9S 4D 4S"), cards)
}

func TestTopCard(t *testing.T) {
	tests := []struct {
		cards string
		top   string
	}{
		{"8C", "8C"},
		{"8S 8D", "8S"},
		{"2D 2C 2H", "2H"},
		{"3D 4C 5H 6S 7D", "7D"},
		{"3H 7H 9H JH 2H", "2H"},
		{"3D 3C 3H 7S 7D", "3H"},
		{"3D 3C 7H 7S 7D", "7S"},
		{"5D 5C 5H 5S 9D", "5S"},
		{"4D 9C 9H 9S 9D", "9S"},
		{"AS AD 3C 3D 3H", "3H"},
	}
	for _, tt := range tests {
		t.Run(tt.cards, func(t *testing.T) {
			assert.Equal(t, card.MustParse(tt.top), mustHand(t, 0, tt.cards).TopCard())
		})
	}
}

func TestBeats(t *testing.T) {
	tests := []struct {
		name string
		cand string
		top  string
		want bool
	}{
		{"higher single", "4D", "3S", true},
		{"same rank higher suit", "3S", "3H", true},
		{"lower single", "3H", "3S", false},
		{"two is highest", "2D", "AS", true},
		{"pair by top suit", "5H 5S", "5D 5C", true},
		{"pair lower", "5D 5C", "5H 5S", false},
		{"size mismatch", "9D 9S", "3D", false},
		{"triple", "4D 4C 4H", "3D 3C 3S", true},
		{"flush beats straight", "3H 7H 9H JH KH", "8D 9C 10H JS QD", true},
		{"straight loses to flush", "8D 9C 10H JS QD", "3H 7H 9H JH KH", false},
		{"higher suit flush wins on suit", "3C 5C 7C 9C JC", "4D 6D 8D 10D 2D", true},
		{"lower suit flush loses on suit", "4D 6D 8D 10D 2D", "3C 5C 7C 9C JC", false},
		{"same suit flush by top", "3H 5H 7H 9H KH", "4H 6H 8H 10H QH", true},
		{"full house by triple", "4D 4C 4H 3S 3D", "3C 3H 2D 2C 2S", false},
		{"full house triple rank", "AD AC AH 3S 3D", "KC KH KD 2C 2S", true},
		{"quad beats full house", "5D 5C 5H 5S 3D", "AD AC AH 2S 2D", true},
		{"straight flush beats quad", "3D 4D 5D 6D 7D", "2D 2C 2H 2S AD", true},
		{"quad loses to straight flush", "2D 2C 2H 2S AD", "3C 4C 5C 6C 7C", false},
		{"straight by top card", "3D 4C 5H 6S 7S", "3C 4D 5S 6H 7H", true},
		{"straight lower top", "3D 4C 5H 6S 7D", "3C 4D 5S 6H 7H", false},
		{"straight flush by top", "4C 5C 6C 7C 8C", "3S 4S 5S 6S 7S", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cand := mustHand(t, 1, tt.cand)
			top := mustHand(t, 0, tt.top)
			assert.Equal(t, tt.want, cand.Beats(&top))
		})
	}
}

func TestBeatsEmptyTableAndFreshLead(t *testing.T) {
	single := mustHand(t, 2, "3D")
	assert.True(t, single.Beats(nil))

	// 其余三家都过，上一手仍是自己的
	own := mustHand(t, 2, "2D 2C 2H 2S AD")
	assert.True(t, single.Beats(&own))

	other := mustHand(t, 3, "2D 2C 2H 2S AD")
	assert.False(t, single.Beats(&other))
}

// 不同大小的牌不会被反向判胜；同张数同类两手牌有且只有一方胜出
func TestBeatsIsStrict(t *testing.T) {
	a := mustHand(t, 0, "9H 9S")
	b := mustHand(t, 1, "9D 9C")
	assert.NotEqual(t, a.Beats(&b), b.Beats(&a))
}

func TestStrength(t *testing.T) {
	assert.Equal(t, 0, Single.Strength())
	assert.Equal(t, 0, Pair.Strength())
	assert.Equal(t, 0, Triple.Strength())
	assert.Less(t, Straight.Strength(), Flush.Strength())
	assert.Less(t, Flush.Strength(), FullHouse.Strength())
	assert.Less(t, FullHouse.Strength(), Quad.Strength())
	assert.Less(t, Quad.Strength(), StraightFlush.Strength())
}

func TestHandJSONAndCopy(t *testing.T) {
	h := mustHand(t, 3, "3D 3C")
	data, err := json.Marshal(h)
	require.NoError(t, err)
	assert.JSONEq(t, `{"owner":3,"category":"Pair","cards":[{"suit":0,"rank":2},{"suit":1,"rank":2}]}`, string(data))

	cs := h.Cards()
	cs[0] = card.MustParse("2S")
	assert.Equal(t, card.ThreeOfDiamonds, h.Card(0), "Cards() must not expose internal slice")
	assert.True(t, h.Contains(card.ThreeOfDiamonds))
	assert.Equal(t, "{Pair} [3♦ 3♣]", h.String())
}
