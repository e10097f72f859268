package engine

import (
	"BigTwo/internal/game/table"
	"BigTwo/internal/websocket"
)

// publish 把一次 Outcome 翻译成推送：公共事件广播，拒绝只发给本人，状态变更后每人收到自己的投影
func (e *Engine) publish(out Outcome) {
	t := e.Table
	switch out.Kind {
	case KindRoundStarted:
		names := make([]string, table.Seats)
		for i := range names {
			names[i] = t.Name(i)
		}
		e.broadcast(string(out.Kind), map[string]any{
			"table":   t.ID,
			"round":   t.Round,
			"opening": out.Seat,
			"players": names,
		})
		for seat := range t.Players {
			e.sendTo(seat, websocket.OutgoingMessage{
				Event: "deal",
				Data: map[string]any{
					"table":   t.ID,
					"holding": t.Holding(seat),
					"state":   t.Snapshot(seat),
				},
			})
		}
		return

	case KindMoveRejected:
		e.sendTo(out.Seat, websocket.OutgoingMessage{
			Event: string(out.Kind),
			Data:  map[string]any{"table": t.ID, "seat": out.Seat, "reason": string(out.Reason)},
		})
		return

	case KindMoveAccepted:
		e.broadcast(string(out.Kind), map[string]any{
			"table": t.ID,
			"seat":  out.Seat,
			"hand":  out.Hand,
			"next":  out.Next,
		})

	case KindPassAccepted:
		e.broadcast(string(out.Kind), map[string]any{
			"table": t.ID,
			"seat":  out.Seat,
			"next":  out.Next,
		})

	case KindRoundEnded:
		e.broadcast(string(KindMoveAccepted), map[string]any{
			"table": t.ID,
			"seat":  out.Seat,
			"hand":  out.Hand,
			"next":  out.Next,
		})
		e.broadcast(string(out.Kind), map[string]any{
			"table":     t.ID,
			"winner":    out.Winner,
			"remaining": out.Remaining,
		})

	case KindRoundAborted:
		e.broadcast(string(out.Kind), map[string]any{
			"table": t.ID,
			"seat":  out.Seat,
		})
		return
	}

	for seat := range t.Players {
		e.sendState(seat)
	}
}

func (e *Engine) sendState(seat int) {
	e.sendTo(seat, websocket.OutgoingMessage{
		Event: "state",
		Data:  e.Table.Snapshot(seat),
	})
}

func (e *Engine) sendTo(seat int, msg websocket.OutgoingMessage) {
	if seat < 0 || seat >= len(e.Table.Players) {
		return
	}
	e.Hub.SendToPlayer(e.Table.Players[seat], msg)
}

func (e *Engine) broadcast(event string, data map[string]any) {
	e.Hub.BroadcastToPlayers(e.Table.Players, websocket.OutgoingMessage{
		Event: event,
		Data:  data,
	})
}
