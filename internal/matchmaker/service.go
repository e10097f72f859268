package matchmaker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"BigTwo/internal/utils"
	"BigTwo/internal/websocket"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

var (
	ErrAlreadyInRoom = errors.New("already in room")
	ErrNoAddress     = errors.New("missing player address")
)

const DefaultPool = "default"

type Service struct {
	repo        Repo
	playerTTL   int // seconds, 用于防止遗留队列
	hub         HubBroadcaster
	log         *log.Logger
	RoomTTL     int         // seconds, 0 表示房间映射不过期（由 Release 清理）
	DefaultPool string      // 请求未指定 pool 时使用
	OnRoomReady func(*Room) // 成桌时调用的回调函数
}

type HubBroadcaster interface {
	BroadcastToPlayers(addrs []string, msg websocket.OutgoingMessage)
}

func NewService(repo Repo, playerTTL int, hub HubBroadcaster) *Service {
	return &Service{
		repo:        repo,
		playerTTL:   playerTTL,
		hub:         hub,
		log:         utils.Named("matchmaker"),
		DefaultPool: DefaultPool,
	}
}

// Join 入队并尝试立即成桌（随机四人）。若可成桌，返回房间；否则返回排队中。
func (s *Service) Join(ctx context.Context, req JoinRequest) (*Room, bool, error) {
	if req.Address == "" {
		return nil, false, ErrNoAddress
	}
	pool := s.poolName(req.Pool)

	// 防止重复匹配：检测玩家是否已经在房间中
	roomID, err := s.repo.GetPlayerRoom(ctx, req.Address)
	if err != nil {
		return nil, false, err
	}
	if roomID != "" {
		return nil, false, fmt.Errorf("player %s %w %s", req.Address, ErrAlreadyInRoom, roomID)
	}

	if err := s.repo.Enqueue(ctx, pool, req.Address, s.playerTTL); err != nil {
		return nil, false, err
	}
	// 判断人数是否满足，满足则原子随机弹出 4 人（包含刚入队者）
	cnt, err := s.repo.Count(ctx, pool)
	if err != nil {
		return nil, false, err
	}
	if cnt < TableSize {
		return nil, true, nil // queued
	}
	addrs, err := s.repo.PopNRandom(ctx, pool, TableSize)
	if err != nil {
		return nil, false, err
	}
	if len(addrs) < TableSize {
		// 并发竞争导致人数不足：回退为排队状态
		return nil, true, nil
	}
	room := &Room{
		ID:        uuid.NewString(),
		Pool:      pool,
		Players:   addrs,
		CreatedAt: time.Now(),
	}

	if err := s.repo.SaveRoom(ctx, room, s.RoomTTL); err != nil {
		s.log.Warn("save room failed", "room", room.ID, "err", err)
	}
	s.log.Info("room ready", "room", room.ID, "pool", pool, "players", room.Players)

	// 通知所有桌内玩家（通过 WebSocket Hub）
	s.hub.BroadcastToPlayers(addrs, websocket.OutgoingMessage{
		Event: "matched",
		Data: map[string]any{
			"roomId":  room.ID,
			"pool":    room.Pool,
			"players": room.Players,
		},
	})

	// 启动游戏逻辑
	if s.OnRoomReady != nil {
		go s.OnRoomReady(room)
	}

	return room, false, nil
}

func (s *Service) Cancel(ctx context.Context, address string) error {
	return s.repo.Remove(ctx, address)
}

// Waiting 池内排队人数
func (s *Service) Waiting(ctx context.Context, pool string) (int64, error) {
	return s.repo.Count(ctx, s.poolName(pool))
}

func (s *Service) poolName(pool string) string {
	if pool = strings.TrimSpace(pool); pool == "" {
		return s.DefaultPool
	}
	return pool
}

// Release 房间结束后释放座位，玩家可重新匹配
func (s *Service) Release(ctx context.Context, roomID string, players []string) error {
	if err := s.repo.ReleaseRoom(ctx, roomID, players); err != nil {
		return fmt.Errorf("release room %s: %w", roomID, err)
	}
	s.log.Info("room released", "room", roomID)
	return nil
}
