package hand

import "BigTwo/internal/game/card"

// Classify 把玩家选中的牌组成最强的合法牌型。
// 张数不是 1/2/3/5、有重复牌或不成型时返回 false（正常的否定结果，不是错误）。
func Classify(owner int, cards []card.Card) (Hand, bool) {
	switch len(cards) {
	case 1, 2, 3, 5:
	default:
		return Hand{}, false
	}

	sorted := append([]card.Card(nil), cards...)
	card.Sort(sorted)
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return Hand{}, false
		}
	}

	var cat Category
	switch len(sorted) {
	case 1:
		cat = Single
	case 2:
		cat = Pair
	case 3:
		cat = Triple
	case 5:
		for _, c := range fiveCardOrder {
			if c.valid(sorted) {
				cat = c
				break
			}
		}
		if cat == 0 {
			return Hand{}, false
		}
	}

	if !cat.valid(sorted) {
		return Hand{}, false
	}
	return Hand{owner: owner, category: cat, cards: sorted}, true
}

// valid 假定 cards 已按牌局顺序排好
func (c Category) valid(cards []card.Card) bool {
	switch c {
	case Single:
		return len(cards) == 1
	case Pair:
		return len(cards) == 2 && sameRank(cards)
	case Triple:
		return len(cards) == 3 && sameRank(cards)
	case Straight:
		return len(cards) == 5 && isStraight(cards)
	case Flush:
		return len(cards) == 5 && sameSuit(cards)
	case FullHouse:
		return len(cards) == 5 &&
			((sameRank(cards[0:2]) && sameRank(cards[2:5])) ||
				(sameRank(cards[0:3]) && sameRank(cards[3:5])))
	case Quad:
		return len(cards) == 5 && (sameRank(cards[0:4]) || sameRank(cards[1:5]))
	case StraightFlush:
		return len(cards) == 5 && isStraight(cards) && sameSuit(cards)
	}
	return false
}

// 同点数看原始 rank，与花色无关
func sameRank(cards []card.Card) bool {
	for _, c := range cards[1:] {
		if c.Rank != cards[0].Rank {
			return false
		}
	}
	return true
}

func sameSuit(cards []card.Card) bool {
	for _, c := range cards[1:] {
		if c.Suit != cards[0].Suit {
			return false
		}
	}
	return true
}

// 不循环：K-A-2-3-4 不是顺子
func isStraight(cards []card.Card) bool {
	for i := 0; i+1 < len(cards); i++ {
		if cards[i].GameRank()+1 != cards[i+1].GameRank() {
			return false
		}
	}
	return true
}
