package manager

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"BigTwo/internal/game/table"
	"BigTwo/internal/matchmaker"
	"BigTwo/internal/registry"
	"BigTwo/internal/websocket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockHub 实现 HubInterface，记录消息
type mockHub struct {
	mu           sync.Mutex
	sentToPlayer map[string][]websocket.OutgoingMessage
	broadcasts   []websocket.OutgoingMessage
}

func newMockHub() *mockHub {
	return &mockHub{sentToPlayer: make(map[string][]websocket.OutgoingMessage)}
}

func (h *mockHub) BroadcastToPlayers(addrs []string, msg websocket.OutgoingMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcasts = append(h.broadcasts, msg)
}

func (h *mockHub) ClientByAddress(addr string) (*websocket.Client, bool) { return nil, false }

func (h *mockHub) SendToPlayer(addr string, msg websocket.OutgoingMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sentToPlayer[addr] = append(h.sentToPlayer[addr], msg)
}

func (h *mockHub) Close() {}

func (h *mockHub) broadcastCount(event string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, m := range h.broadcasts {
		if m.Event == event {
			n++
		}
	}
	return n
}

func (h *mockHub) lastTo(addr, event string) (websocket.OutgoingMessage, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	msgs := h.sentToPlayer[addr]
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Event == event {
			return msgs[i], true
		}
	}
	return websocket.OutgoingMessage{}, false
}

func newRoom(id string, players ...string) *matchmaker.Room {
	if len(players) == 0 {
		players = []string{"0xA", "0xB", "0xC", "0xD"}
	}
	return &matchmaker.Room{ID: id, Pool: "default", Players: players, CreatedAt: time.Now()}
}

func waitDealt(t *testing.T, hub *mockHub, rounds int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return hub.broadcastCount("round_started") == rounds
	}, time.Second, 5*time.Millisecond)
}

// TestGameManagerStartRoom: 主测试用例
func TestGameManagerStartRoom(t *testing.T) {
	hub := newMockHub()
	names := registry.NewMemoryRegistry()
	require.NoError(t, names.SetName(context.Background(), "0xA", "alice"))
	mgr := NewGameManager(hub, names)

	require.NoError(t, mgr.StartRoom(newRoom("room-1")))
	waitDealt(t, hub, 1)

	assert.Equal(t, 1, mgr.Rooms())
	id, ok := mgr.RoomOf("0xC")
	assert.True(t, ok)
	assert.Equal(t, "room-1", id)

	// 名字经 registry 解析，未登记的退回地址
	deal, ok := hub.lastTo("0xA", "deal")
	require.True(t, ok)
	snap := deal.Data.(map[string]any)["state"].(table.Snapshot)
	assert.Equal(t, []string{"alice", "0xB", "0xC", "0xD"}, snap.Names)
	assert.Len(t, snap.Holding, table.HandSize)
}

// TestGameManagerDuplicateRoom: 重复房间应报错
func TestGameManagerDuplicateRoom(t *testing.T) {
	mgr := NewGameManager(newMockHub(), nil)

	require.NoError(t, mgr.StartRoom(newRoom("r1")))
	assert.ErrorIs(t, mgr.StartRoom(newRoom("r1")), ErrRoomExists)
	assert.ErrorIs(t, mgr.StartRoom(newRoom("r2", "0xA", "0xE", "0xF", "0xG")), ErrPlayerTaken)
	assert.ErrorIs(t, mgr.StartRoom(newRoom("r3", "0xX", "0xY")), ErrRoomSize)
	assert.Equal(t, 1, mgr.Rooms())
	mgr.Shutdown()
}

func TestGameManagerRoutesMoves(t *testing.T) {
	hub := newMockHub()
	mgr := NewGameManager(hub, nil)
	mgr.Seed = 7
	require.NoError(t, mgr.StartRoom(newRoom("r1")))
	waitDealt(t, hub, 1)
	defer mgr.Shutdown()

	started := func() int {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		for _, m := range hub.broadcasts {
			if m.Event == "round_started" {
				return m.Data.(map[string]any)["opening"].(int)
			}
		}
		return -1
	}
	opener := []string{"0xA", "0xB", "0xC", "0xD"}[started()]

	// 客户端 JSON 解码后的形状：数字为 float64
	mgr.HandlePlayerMessage(websocket.IncomingMessage{
		From:  opener,
		Event: "move",
		Data:  map[string]any{"cards": []any{float64(0)}},
	})
	require.Eventually(t, func() bool {
		return hub.broadcastCount("move_accepted") == 1
	}, time.Second, 5*time.Millisecond)

	// 坏 payload
	mgr.HandlePlayerMessage(websocket.IncomingMessage{From: opener, Event: "move", Data: "3D"})
	msg, ok := hub.lastTo(opener, "error")
	require.True(t, ok)
	assert.Equal(t, "bad payload", msg.Data.(map[string]any)["error"])

	// 未知事件
	mgr.HandlePlayerMessage(websocket.IncomingMessage{From: opener, Event: "chat", Data: "hi"})
	msg, _ = hub.lastTo(opener, "error")
	assert.Equal(t, "unknown event", msg.Data.(map[string]any)["error"])

	// 不在桌
	mgr.HandlePlayerMessage(websocket.IncomingMessage{From: "0xZ", Event: "pass"})
	_, ok = hub.lastTo("0xZ", "error")
	assert.True(t, ok)

	// sync 得到私有投影
	mgr.HandlePlayerMessage(websocket.IncomingMessage{From: "0xB", Event: "sync"})
	require.Eventually(t, func() bool {
		m, ok := hub.lastTo("0xB", "state")
		return ok && m.Data.(table.Snapshot).Played == 1
	}, time.Second, 5*time.Millisecond)
}

func TestGameManagerDisconnectClosesRoom(t *testing.T) {
	hub := newMockHub()
	mgr := NewGameManager(hub, nil)

	closed := make(chan string, 1)
	var players []string
	mgr.OnRoomClosed = func(roomID string, ps []string) {
		players = ps
		closed <- roomID
	}

	require.NoError(t, mgr.StartRoom(newRoom("r1")))
	waitDealt(t, hub, 1)

	mgr.HandleDisconnect("0xNobody")
	mgr.HandleDisconnect("0xB")

	select {
	case id := <-closed:
		assert.Equal(t, "r1", id)
		assert.Equal(t, []string{"0xA", "0xB", "0xC", "0xD"}, players)
	case <-time.After(time.Second):
		t.Fatal("room not closed")
	}
	assert.Equal(t, 1, hub.broadcastCount("round_aborted"))
	assert.Equal(t, 0, mgr.Rooms())
	_, ok := mgr.RoomOf("0xA")
	assert.False(t, ok)

	// 座位释放后可以开新桌
	require.NoError(t, mgr.StartRoom(newRoom("r2")))
	waitDealt(t, hub, 2)
	mgr.Shutdown()
}

// TestGameManagerConcurrency: 并发安全
func TestGameManagerConcurrency(t *testing.T) {
	mgr := NewGameManager(newMockHub(), nil)
	defer mgr.Shutdown()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ps := make([]string, table.Seats)
			for s := range ps {
				ps[s] = fmt.Sprintf("0x%d%d", i, s)
			}
			assert.NoError(t, mgr.StartRoom(newRoom(fmt.Sprintf("r%d", i), ps...)))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, mgr.Rooms())
}
