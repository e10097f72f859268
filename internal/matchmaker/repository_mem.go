package matchmaker

import (
	"context"
	"math/rand"
	"sync"
)

type memRepo struct {
	mu          sync.Mutex
	pools       map[string]map[string]struct{} // pool -> set(address)
	players     map[string]string              // address -> pool
	rooms       map[string]*Room
	playerRooms map[string]string // address -> roomID
}

func NewMemoryRepo() Repo {
	return &memRepo{
		pools:       make(map[string]map[string]struct{}),
		players:     make(map[string]string),
		rooms:       make(map[string]*Room),
		playerRooms: make(map[string]string),
	}
}

func (m *memRepo) Enqueue(ctx context.Context, pool string, address string, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// 换池：先离开旧池
	if old, ok := m.players[address]; ok && old != pool {
		delete(m.pools[old], address)
	}
	if _, ok := m.pools[pool]; !ok {
		m.pools[pool] = make(map[string]struct{})
	}
	m.pools[pool][address] = struct{}{}
	m.players[address] = pool
	// 简单忽略 TTL，内存版仅供测试
	return nil
}

func (m *memRepo) PopNRandom(ctx context.Context, pool string, n int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.pools[pool]
	if !ok || len(s) < n {
		return []string{}, nil
	}

	// 随机取 n 个
	addrs := make([]string, 0, len(s))
	for a := range s {
		addrs = append(addrs, a)
	}
	rand.Shuffle(len(addrs), func(i, j int) { addrs[i], addrs[j] = addrs[j], addrs[i] })

	chosen := addrs[:n]
	for _, a := range chosen {
		delete(s, a)
		delete(m.players, a)
	}
	if len(s) == 0 {
		delete(m.pools, pool)
	}
	return chosen, nil
}

func (m *memRepo) Remove(ctx context.Context, address string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pool, ok := m.players[address]
	if !ok {
		return nil
	}
	if s, ok := m.pools[pool]; ok {
		delete(s, address)
		if len(s) == 0 {
			delete(m.pools, pool)
		}
	}
	delete(m.players, address)
	return nil
}

func (m *memRepo) Count(ctx context.Context, pool string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.pools[pool])), nil
}

func (m *memRepo) SaveRoom(ctx context.Context, room *Room, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.ID] = room
	for _, a := range room.Players {
		m.playerRooms[a] = room.ID
	}
	return nil
}

func (m *memRepo) GetPlayerRoom(ctx context.Context, address string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playerRooms[address], nil
}

func (m *memRepo) ReleaseRoom(ctx context.Context, roomID string, players []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, roomID)
	for _, a := range players {
		if m.playerRooms[a] == roomID {
			delete(m.playerRooms, a)
		}
	}
	return nil
}
