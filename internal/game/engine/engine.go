package engine

import (
	"sync"
	"time"

	"BigTwo/internal/game/dealer"
	"BigTwo/internal/game/table"
	"BigTwo/internal/utils"
	"BigTwo/internal/websocket"

	"github.com/charmbracelet/log"
)

// ---------------------
//   ACTION DEFINITION
// ---------------------

type ActionKind string

const (
	ActionMove  ActionKind = "move"
	ActionPass  ActionKind = "pass"
	ActionReady ActionKind = "ready"
	ActionSync  ActionKind = "sync"
	ActionQuit  ActionKind = "quit"

	actionDeal    ActionKind = "deal"
	actionTimeout ActionKind = "timeout"
)

type Action struct {
	Player string
	Kind   ActionKind
	Cards  []int

	seq int // 仅 timeout 使用：超时对应的回合序号
}

// ---------------------
//       ENGINE
// ---------------------

// Engine 一桌的唯一权威：所有命令经 actionChan 串行执行，玩家只收到广播出来的投影
type Engine struct {
	Table       *table.Table
	Dealer      *dealer.Dealer
	Hub         websocket.HubInterface
	TurnTimeout time.Duration
	OnClosed    func(*table.Table)

	actionChan chan Action
	done       chan struct{}
	closeOnce  sync.Once
	ready      map[int]bool
	seq        int
	timer      *time.Timer
	log        *log.Logger
}

func NewEngine(t *table.Table, hub websocket.HubInterface) *Engine {
	return &Engine{
		Table:      t,
		Dealer:     dealer.NewDealer(time.Now().UnixNano()),
		Hub:        hub,
		actionChan: make(chan Action, 64),
		done:       make(chan struct{}),
		ready:      make(map[int]bool),
		log:        utils.Named("engine").With("table", t.ID),
	}
}

// Start: 启动 action loop 并发第一局
func (e *Engine) Start() {
	go e.actionLoop()
	e.enqueue(Action{Kind: actionDeal})
}

// 动作循环：唯一修改 Table 的协程
func (e *Engine) actionLoop() {
	for {
		select {
		case act := <-e.actionChan:
			e.handleAction(act)
		case <-e.done:
			return
		}
	}
}

// 玩家动作入口（GameManager 调用）
func (e *Engine) EnqueueAction(player string, kind ActionKind, cards []int) {
	e.enqueue(Action{Player: player, Kind: kind, Cards: cards})
}

func (e *Engine) enqueue(a Action) {
	select {
	case e.actionChan <- a:
	case <-e.done:
	}
}

// Close 停止 action loop；可重复调用
func (e *Engine) Close() {
	e.closeOnce.Do(func() { close(e.done) })
}

func (e *Engine) Done() <-chan struct{} {
	return e.done
}

func (e *Engine) handleAction(a Action) {
	switch a.Kind {
	case actionDeal:
		e.deal()
		return
	case actionTimeout:
		e.timeout(a.seq)
		return
	}

	seat, ok := e.Table.SeatOf(a.Player)
	if !ok {
		e.log.Warn("action from player not at table", "player", a.Player, "kind", a.Kind)
		return
	}

	switch a.Kind {
	case ActionMove, ActionPass:
		cards := a.Cards
		if a.Kind == ActionPass {
			cards = nil
		}
		e.submit(seat, cards)
	case ActionReady:
		e.markReady(seat)
	case ActionSync:
		e.sendState(seat)
	case ActionQuit:
		e.quit(seat)
	default:
		e.log.Warn("unknown action", "player", a.Player, "kind", a.Kind)
	}
}

func (e *Engine) deal() {
	out, err := Deal(e.Table, e.Dealer.Shuffle())
	if err != nil {
		e.log.Error("deal failed", "err", err)
		return
	}
	e.ready = make(map[int]bool)
	e.log.Info("round started", "round", e.Table.Round, "opening", out.Seat)
	e.publish(out)
	e.armTimer()
}

func (e *Engine) submit(seat int, cards []int) {
	out, err := Submit(e.Table, seat, cards)
	if err != nil {
		// 上游发来了与手牌不一致的下标：记录并拒绝，绝不猜测修正
		e.log.Error("invalid move request", "seat", seat, "cards", cards, "err", err)
		e.sendTo(seat, websocket.OutgoingMessage{
			Event: "move_rejected",
			Data:  map[string]any{"table": e.Table.ID, "seat": seat, "reason": "invalid_selection"},
		})
		return
	}
	if out.Kind != KindMoveRejected {
		if err := e.Table.Conserved(); err != nil {
			e.log.Error("card conservation violated", "err", err)
		}
	}
	e.publish(out)
	if out.Kind == KindMoveAccepted || out.Kind == KindPassAccepted {
		e.armTimer()
	}
	if out.Kind == KindRoundEnded {
		e.stopTimer()
	}
}

func (e *Engine) markReady(seat int) {
	if e.Table.Phase != table.PhaseRoundOver {
		return
	}
	e.ready[seat] = true
	e.broadcast("player_ready", map[string]any{"table": e.Table.ID, "seat": seat})
	if len(e.ready) == table.Seats {
		e.deal()
	}
}

func (e *Engine) quit(seat int) {
	out := Abort(e.Table, seat)
	e.log.Info("player left, closing table", "seat", seat, "phase", e.Table.Phase)
	e.publish(out)
	e.stopTimer()
	e.Close()
	if e.OnClosed != nil {
		e.OnClosed(e.Table)
	}
}

// --------------------------
//        回合计时
// --------------------------

// armTimer 每次轮到新玩家时重置；超时由 engine 代为过牌
func (e *Engine) armTimer() {
	e.seq++
	e.stopTimer()
	if e.TurnTimeout <= 0 {
		return
	}
	seq := e.seq
	e.timer = time.AfterFunc(e.TurnTimeout, func() {
		e.enqueue(Action{Kind: actionTimeout, seq: seq})
	})
}

func (e *Engine) stopTimer() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

func (e *Engine) timeout(seq int) {
	if seq != e.seq || e.Table.Phase != table.PhaseAwaitingMove {
		return
	}
	seat := e.Table.Turn
	out, err := Submit(e.Table, seat, nil)
	if err != nil {
		e.log.Error("timeout pass failed", "seat", seat, "err", err)
		return
	}
	if out.Kind == KindMoveRejected {
		// 必须出牌的一方不能被代为过牌，继续等待
		e.log.Debug("turn timed out but seat must lead", "seat", seat)
		return
	}
	e.log.Info("turn timed out, passing", "seat", seat)
	e.publish(out)
	e.armTimer()
}
