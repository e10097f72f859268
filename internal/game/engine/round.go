package engine

import (
	"errors"
	"fmt"

	"BigTwo/internal/game/card"
	"BigTwo/internal/game/hand"
	"BigTwo/internal/game/table"
)

// 调用方的 bug，而不是玩家的非法操作
var (
	ErrMalformedDeck    = errors.New("deck must hold 52 distinct cards")
	ErrInvalidSelection = errors.New("card indices do not match holding")
	ErrUnknownSeat      = errors.New("unknown seat")
)

type Kind string

const (
	KindRoundStarted Kind = "round_started"
	KindMoveAccepted Kind = "move_accepted"
	KindPassAccepted Kind = "pass_accepted"
	KindMoveRejected Kind = "move_rejected"
	KindRoundEnded   Kind = "round_ended"
	KindRoundAborted Kind = "round_aborted"
)

// Reason 拒绝原因；状态不变，同一玩家保留出牌权
type Reason string

const (
	ReasonRoundNotActive Reason = "round_not_active"
	ReasonNotYourTurn    Reason = "not_your_turn"
	ReasonIllegalPass    Reason = "illegal_pass"
	ReasonInvalidHand    Reason = "invalid_hand"
	ReasonMissingOpener  Reason = "missing_three_of_diamonds"
	ReasonDoesNotBeat    Reason = "does_not_beat"
)

// Outcome 每次调用的确定结果
type Outcome struct {
	Kind      Kind
	Seat      int
	Hand      *hand.Hand
	Reason    Reason
	Next      int
	Winner    int
	Remaining []int
}

func rejected(seat int, r Reason) Outcome {
	return Outcome{Kind: KindMoveRejected, Seat: seat, Reason: r, Winner: table.NoWinner}
}

// Deal 清空上一局，按座位轮流发 13 张，持有 3♦ 的玩家先出
func Deal(t *table.Table, deck []card.Card) (Outcome, error) {
	if err := checkDeck(deck); err != nil {
		return Outcome{}, err
	}

	t.Phase = table.PhaseDealing
	t.Reset()
	for i, c := range deck {
		t.Give(c, i%table.Seats)
	}

	opener := int(t.Owner(card.ThreeOfDiamonds))
	if opener < 0 || opener >= table.Seats {
		return Outcome{}, fmt.Errorf("%w: nobody holds %s", ErrMalformedDeck, card.ThreeOfDiamonds)
	}
	t.Turn = opener
	t.Round++
	t.Phase = table.PhaseAwaitingMove

	return Outcome{Kind: KindRoundStarted, Seat: opener, Next: opener, Winner: table.NoWinner}, nil
}

func checkDeck(deck []card.Card) error {
	if len(deck) != card.DeckSize {
		return fmt.Errorf("%w: got %d cards", ErrMalformedDeck, len(deck))
	}
	var seen [card.DeckSize]bool
	for _, c := range deck {
		if !c.Valid() {
			return fmt.Errorf("%w: invalid card %+v", ErrMalformedDeck, c)
		}
		if seen[c.Index()] {
			return fmt.Errorf("%w: duplicate %s", ErrMalformedDeck, c)
		}
		seen[c.Index()] = true
	}
	return nil
}

// Submit 处理一次出牌或过牌。indices 为空表示过牌。
// 玩家层面的非法操作返回 KindMoveRejected；下标越界/重复等调用方错误返回 error，状态均不变。
func Submit(t *table.Table, seat int, indices []int) (Outcome, error) {
	if seat < 0 || seat >= table.Seats {
		return Outcome{}, fmt.Errorf("%w: %d", ErrUnknownSeat, seat)
	}
	if t.Phase != table.PhaseAwaitingMove {
		return rejected(seat, ReasonRoundNotActive), nil
	}
	if seat != t.Turn {
		return rejected(seat, ReasonNotYourTurn), nil
	}

	top := t.Top()
	if len(indices) == 0 {
		// 空桌或上一手是自己的：必须出牌
		if top == nil || top.Owner() == seat {
			return rejected(seat, ReasonIllegalPass), nil
		}
		t.Turn = t.NextSeat(seat)
		return Outcome{Kind: KindPassAccepted, Seat: seat, Next: t.Turn, Winner: table.NoWinner}, nil
	}

	cards, err := pick(t.Holding(seat), indices)
	if err != nil {
		return Outcome{}, err
	}

	h, ok := hand.Classify(seat, cards)
	if !ok {
		return rejected(seat, ReasonInvalidHand), nil
	}
	if top == nil && !h.Contains(card.ThreeOfDiamonds) {
		return rejected(seat, ReasonMissingOpener), nil
	}
	if !h.Beats(top) {
		return rejected(seat, ReasonDoesNotBeat), nil
	}

	t.Play(h)
	t.Turn = t.NextSeat(seat)
	out := Outcome{Kind: KindMoveAccepted, Seat: seat, Hand: &h, Next: t.Turn, Winner: table.NoWinner}

	if t.Count(seat) == 0 {
		t.Phase = table.PhaseRoundOver
		t.Winner = seat
		out.Kind = KindRoundEnded
		out.Winner = seat
		out.Remaining = t.Counts()
	}
	return out, nil
}

// Abort 有玩家离开：进行中的一局立即中止
func Abort(t *table.Table, seat int) Outcome {
	if t.Phase == table.PhaseAwaitingMove || t.Phase == table.PhaseDealing {
		t.Phase = table.PhaseAborted
	}
	return Outcome{Kind: KindRoundAborted, Seat: seat, Winner: table.NoWinner, Remaining: t.Counts()}
}

func pick(holding []card.Card, indices []int) ([]card.Card, error) {
	seen := make(map[int]bool, len(indices))
	out := make([]card.Card, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(holding) {
			return nil, fmt.Errorf("%w: index %d out of range [0,%d)", ErrInvalidSelection, i, len(holding))
		}
		if seen[i] {
			return nil, fmt.Errorf("%w: duplicate index %d", ErrInvalidSelection, i)
		}
		seen[i] = true
		out = append(out, holding[i])
	}
	return out, nil
}
