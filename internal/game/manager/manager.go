package manager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"BigTwo/internal/game/dealer"
	"BigTwo/internal/game/engine"
	"BigTwo/internal/game/table"
	"BigTwo/internal/matchmaker"
	"BigTwo/internal/registry"
	"BigTwo/internal/utils"
	"BigTwo/internal/websocket"

	"github.com/charmbracelet/log"
)

var (
	ErrRoomExists  = errors.New("room already has an engine")
	ErrRoomSize    = errors.New("room must seat exactly 4 players")
	ErrPlayerTaken = errors.New("player already seated")
)

// GameManager 管理所有对局
type GameManager struct {
	mu           sync.RWMutex
	engines      map[string]*engine.Engine // roomID → engine
	playerToRoom map[string]string         // player address → roomID
	hub          websocket.HubInterface
	names        registry.Registry
	log          *log.Logger

	TurnTimeout  time.Duration
	Seed         int64 // 非 0 时所有桌用固定种子洗牌（调试用）
	OnRoomClosed func(roomID string, players []string)
}

func NewGameManager(hub websocket.HubInterface, names registry.Registry) *GameManager {
	return &GameManager{
		engines:      make(map[string]*engine.Engine),
		playerToRoom: make(map[string]string),
		hub:          hub,
		names:        names,
		log:          utils.Named("manager"),
	}
}

// StartRoom 创建桌子并启动 engine
func (m *GameManager) StartRoom(r *matchmaker.Room) error {
	if len(r.Players) != table.Seats {
		return fmt.Errorf("%w: room %s has %d", ErrRoomSize, r.ID, len(r.Players))
	}

	names := m.resolveNames(r.Players)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.engines[r.ID]; ok {
		return fmt.Errorf("%w: %s", ErrRoomExists, r.ID)
	}
	for _, p := range r.Players {
		if other, ok := m.playerToRoom[p]; ok {
			return fmt.Errorf("%w: %s in %s", ErrPlayerTaken, p, other)
		}
	}

	t := table.New(r.ID, r.Pool, append([]string(nil), r.Players...), names, r.CreatedAt)
	eng := engine.NewEngine(t, m.hub)
	eng.TurnTimeout = m.TurnTimeout
	if m.Seed != 0 {
		eng.Dealer = dealer.NewDealer(m.Seed)
	}
	eng.OnClosed = m.closeRoom

	m.engines[r.ID] = eng
	// 建立玩家地址 → 房间 ID 映射
	for _, p := range r.Players {
		m.playerToRoom[p] = r.ID
	}

	eng.Start()
	m.log.Info("room started", "room", r.ID, "players", names)
	return nil
}

func (m *GameManager) resolveNames(players []string) []string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	names := make([]string, len(players))
	for i, p := range players {
		names[i] = registry.Display(ctx, m.names, p)
	}
	return names
}

type movePayload struct {
	Cards []int `json:"cards"`
}

// HandlePlayerMessage 统一入口（来自 Hub.OnIncoming）
func (m *GameManager) HandlePlayerMessage(msg websocket.IncomingMessage) {
	eng := m.engineOf(msg.From)
	if eng == nil {
		m.hub.SendToPlayer(msg.From, errorMessage(msg.Event, "not at a table"))
		return
	}

	switch msg.Event {
	case "move":
		var p movePayload
		if err := decode(msg.Data, &p); err != nil {
			m.hub.SendToPlayer(msg.From, errorMessage(msg.Event, "bad payload"))
			return
		}
		eng.EnqueueAction(msg.From, engine.ActionMove, p.Cards)
	case "pass":
		eng.EnqueueAction(msg.From, engine.ActionPass, nil)
	case "ready":
		eng.EnqueueAction(msg.From, engine.ActionReady, nil)
	case "sync":
		eng.EnqueueAction(msg.From, engine.ActionSync, nil)
	default:
		m.hub.SendToPlayer(msg.From, errorMessage(msg.Event, "unknown event"))
	}
}

// HandleDisconnect 断线即离桌
func (m *GameManager) HandleDisconnect(addr string) {
	if eng := m.engineOf(addr); eng != nil {
		eng.EnqueueAction(addr, engine.ActionQuit, nil)
	}
}

// RoomOf 玩家所在房间
func (m *GameManager) RoomOf(addr string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.playerToRoom[addr]
	return id, ok
}

func (m *GameManager) Rooms() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.engines)
}

func (m *GameManager) engineOf(addr string) *engine.Engine {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.engines[m.playerToRoom[addr]]
}

// closeRoom 在 engine 协程中被调用
func (m *GameManager) closeRoom(t *table.Table) {
	m.mu.Lock()
	delete(m.engines, t.ID)
	for _, p := range t.Players {
		if m.playerToRoom[p] == t.ID {
			delete(m.playerToRoom, p)
		}
	}
	m.mu.Unlock()

	m.log.Info("room closed", "room", t.ID, "rounds", t.Round)
	if m.OnRoomClosed != nil {
		m.OnRoomClosed(t.ID, t.Players)
	}
}

// Shutdown 关闭所有 engine
func (m *GameManager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, eng := range m.engines {
		eng.Close()
		delete(m.engines, id)
	}
	m.playerToRoom = make(map[string]string)
}

func decode(data any, v any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func errorMessage(event, reason string) websocket.OutgoingMessage {
	return websocket.OutgoingMessage{
		Event: "error",
		Data:  map[string]any{"event": event, "error": reason},
	}
}
