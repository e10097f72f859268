package websocket

import (
	"sync"

	"BigTwo/internal/utils"
)

type HubInterface interface {
	BroadcastToPlayers(addrs []string, msg OutgoingMessage)
	ClientByAddress(addr string) (*Client, bool)
	SendToPlayer(addr string, msg OutgoingMessage)
	Close()
}

type Hub struct {
	clients    map[string]*Client // address -> client
	register   chan *Client
	unregister chan *Client
	quit       chan struct{}
	quitOnce   sync.Once
	mu         sync.RWMutex

	// 玩家消息直接从各自的 read pump 转发给游戏层
	OnIncoming func(IncomingMessage)
	// 连接断开（被同地址新连接顶掉的不算）
	OnDisconnect func(addr string)
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	log := utils.Named("hub")
	log.Info("hub started")

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if old, ok := h.clients[c.Address]; ok && old != c {
				// 同一地址重连：旧连接让位
				close(old.Send)
				log.Info("replaced connection", "addr", c.Address)
			}
			h.clients[c.Address] = c
			n := len(h.clients)
			h.mu.Unlock()
			log.Debug("register", "addr", c.Address, "clients", n)

		case c := <-h.unregister:
			h.mu.Lock()
			cur, ok := h.clients[c.Address]
			if ok && cur == c {
				delete(h.clients, c.Address)
				close(c.Send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			if ok && cur == c {
				log.Debug("unregister", "addr", c.Address, "clients", n)
				if h.OnDisconnect != nil {
					go h.OnDisconnect(c.Address)
				}
			}

		case <-h.quit:
			h.mu.Lock()
			for addr, c := range h.clients {
				close(c.Send)
				delete(h.clients, addr)
			}
			h.mu.Unlock()
			log.Info("hub stopped")
			return
		}
	}
}

func (h *Hub) add(c *Client) {
	select {
	case h.register <- c:
	case <-h.quit:
	}
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

// BroadcastToPlayers 发给多个玩家；慢客户端的消息直接丢弃，不阻塞调用方
func (h *Hub) BroadcastToPlayers(addrs []string, msg OutgoingMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, addr := range addrs {
		if c, ok := h.clients[addr]; ok {
			h.deliver(c, msg)
		}
	}
}

// SendToPlayer 单发
func (h *Hub) SendToPlayer(addr string, msg OutgoingMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, ok := h.clients[addr]; ok {
		h.deliver(c, msg)
	}
}

// 调用方持有读锁
func (h *Hub) deliver(c *Client, msg OutgoingMessage) {
	select {
	case c.Send <- msg:
	default:
		utils.Named("hub").Warn("send buffer full, dropping", "addr", c.Address, "event", msg.Event)
	}
}

func (h *Hub) ClientByAddress(addr string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[addr]
	return c, ok
}

func (h *Hub) Online() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Close() {
	h.quitOnce.Do(func() { close(h.quit) })
}
