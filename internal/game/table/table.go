package table

import (
	"fmt"
	"time"

	"BigTwo/internal/game/card"
	"BigTwo/internal/game/hand"
)

const (
	Seats    = 4
	HandSize = card.DeckSize / Seats
)

// 牌的归属标记：0..3 为座位号
const (
	OnTable int8 = -1
	Undealt int8 = -2
)

type Phase string

const (
	PhaseDealing      Phase = "dealing"
	PhaseAwaitingMove Phase = "awaiting_move"
	PhaseRoundOver    Phase = "round_over"
	PhaseAborted      Phase = "aborted"
)

// NoWinner 未结束或中止的一局
const NoWinner = -1

// Table 一桌的权威状态（RoundState），只由该桌的 Engine 协程修改
type Table struct {
	ID        string
	Pool      string
	Players   []string // 座位序的地址
	Names     []string
	CreatedAt time.Time

	// 运行时状态
	Round   int
	Phase   Phase
	Turn    int
	Winner  int
	History []hand.Hand

	// 52 张牌各自的归属
	owner [card.DeckSize]int8
}

func New(id, pool string, players, names []string, createdAt time.Time) *Table {
	t := &Table{
		ID:        id,
		Pool:      pool,
		Players:   players,
		Names:     names,
		CreatedAt: createdAt,
		Phase:     PhaseDealing,
		Winner:    NoWinner,
	}
	t.Reset()
	return t
}

// Reset 收回所有牌，清空桌面
func (t *Table) Reset() {
	for i := range t.owner {
		t.owner[i] = Undealt
	}
	t.History = nil
	t.Winner = NoWinner
}

func (t *Table) SeatOf(addr string) (int, bool) {
	for i, p := range t.Players {
		if p == addr {
			return i, true
		}
	}
	return 0, false
}

func (t *Table) Give(c card.Card, seat int) {
	t.owner[c.Index()] = int8(seat)
}

// Owner 返回座位号、OnTable 或 Undealt
func (t *Table) Owner(c card.Card) int8 {
	return t.owner[c.Index()]
}

// Holding 从 arena 推导出手牌，总是按牌局顺序升序
func (t *Table) Holding(seat int) []card.Card {
	out := make([]card.Card, 0, HandSize)
	for i, o := range t.owner {
		if int(o) == seat {
			out = append(out, card.FromIndex(i))
		}
	}
	card.Sort(out)
	return out
}

func (t *Table) Count(seat int) int {
	n := 0
	for _, o := range t.owner {
		if int(o) == seat {
			n++
		}
	}
	return n
}

func (t *Table) Counts() []int {
	counts := make([]int, Seats)
	for _, o := range t.owner {
		if o >= 0 {
			counts[o]++
		}
	}
	return counts
}

// Top 桌面上需要被压的那一手；空桌返回 nil
func (t *Table) Top() *hand.Hand {
	if len(t.History) == 0 {
		return nil
	}
	h := t.History[len(t.History)-1]
	return &h
}

// Play 把 h 的牌从出牌人手里移到桌面。调用方保证牌都属于 h.Owner()。
func (t *Table) Play(h hand.Hand) {
	for _, c := range h.Cards() {
		if int(t.owner[c.Index()]) != h.Owner() {
			panic(fmt.Sprintf("table %s: %s is not held by seat %d", t.ID, c, h.Owner()))
		}
	}
	for _, c := range h.Cards() {
		t.owner[c.Index()] = OnTable
	}
	t.History = append(t.History, h)
}

// Conserved 检查 52 张牌守恒：每张牌恰好一个归属，桌面上的牌与历史记录完全一致
func (t *Table) Conserved() error {
	inHistory := make(map[card.Card]bool)
	for _, h := range t.History {
		for _, c := range h.Cards() {
			if inHistory[c] {
				return fmt.Errorf("%s played twice", c)
			}
			inHistory[c] = true
		}
	}

	held := 0
	for i, o := range t.owner {
		c := card.FromIndex(i)
		switch {
		case o == OnTable:
			if !inHistory[c] {
				return fmt.Errorf("%s on table but not in history", c)
			}
		case o >= 0 && int(o) < Seats:
			if inHistory[c] {
				return fmt.Errorf("%s held by seat %d and in history", c, o)
			}
			held++
		case o == Undealt:
			if t.Phase != PhaseDealing {
				return fmt.Errorf("%s undealt during %s", c, t.Phase)
			}
		default:
			return fmt.Errorf("%s has bad owner %d", c, o)
		}
	}
	if t.Phase != PhaseDealing && held+len(inHistory) != card.DeckSize {
		return fmt.Errorf("held %d + table %d != %d", held, len(inHistory), card.DeckSize)
	}
	return nil
}

func (t *Table) NextSeat(seat int) int {
	return (seat + 1) % Seats
}

func (t *Table) Name(seat int) string {
	if seat >= 0 && seat < len(t.Names) && t.Names[seat] != "" {
		return t.Names[seat]
	}
	if seat >= 0 && seat < len(t.Players) {
		return t.Players[seat]
	}
	return fmt.Sprintf("seat-%d", seat)
}
