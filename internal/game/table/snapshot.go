package table

import (
	"BigTwo/internal/game/card"
	"BigTwo/internal/game/hand"
)

// Snapshot 发给某个座位的只读投影：公共信息 + 自己的手牌
type Snapshot struct {
	Table   string      `json:"table"`
	Round   int         `json:"round"`
	Phase   Phase       `json:"phase"`
	Turn    int         `json:"turn"`
	Winner  int         `json:"winner"`
	Names   []string    `json:"names"`
	Counts  []int       `json:"counts"`
	Top     *hand.Hand  `json:"top,omitempty"`
	Played  int         `json:"played"`
	You     int         `json:"you"`
	Holding []card.Card `json:"holding"`
}

func (t *Table) Snapshot(viewer int) Snapshot {
	names := make([]string, Seats)
	for i := range names {
		names[i] = t.Name(i)
	}
	return Snapshot{
		Table:   t.ID,
		Round:   t.Round,
		Phase:   t.Phase,
		Turn:    t.Turn,
		Winner:  t.Winner,
		Names:   names,
		Counts:  t.Counts(),
		Top:     t.Top(),
		Played:  len(t.History),
		You:     viewer,
		Holding: t.Holding(viewer),
	}
}
