package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// NonceStore 一次性 nonce，防止重放
type NonceStore interface {
	Issue(ctx context.Context, nonce string, ttl time.Duration) error
	// Consume 存在则删除并返回 true；过期或已用返回 false
	Consume(ctx context.Context, nonce string) (bool, error)
}

func generateNonce() (string, error) {
	b := make([]byte, 16)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GET|POST /auth/nonce
func (h *Handler) Nonce(c *gin.Context) {
	nonce, err := generateNonce()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate nonce"})
		return
	}

	if err := h.nonces.Issue(c.Request.Context(), nonce, h.NonceTTL); err != nil {
		h.log.Error("store nonce", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store nonce"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"nonce":   nonce,
		"message": SignMessage(nonce),
	})
}

// ---------------------
//   redis
// ---------------------

type redisNonces struct {
	rdb *redis.Client
}

func NewRedisNonceStore(rdb *redis.Client) NonceStore {
	return &redisNonces{rdb: rdb}
}

func nonceKey(n string) string { return "auth:nonce:" + n }

func (r *redisNonces) Issue(ctx context.Context, nonce string, ttl time.Duration) error {
	return r.rdb.SetNX(ctx, nonceKey(nonce), 1, ttl).Err()
}

func (r *redisNonces) Consume(ctx context.Context, nonce string) (bool, error) {
	n, err := r.rdb.Del(ctx, nonceKey(nonce)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ---------------------
//   memory（测试 / 无 redis）
// ---------------------

type memNonces struct {
	mu     sync.Mutex
	nonces map[string]time.Time // nonce -> 过期时间
}

func NewMemoryNonceStore() NonceStore {
	return &memNonces{nonces: make(map[string]time.Time)}
}

func (m *memNonces) Issue(ctx context.Context, nonce string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for n, exp := range m.nonces {
		if now.After(exp) {
			delete(m.nonces, n)
		}
	}
	m.nonces[nonce] = now.Add(ttl)
	return nil
}

func (m *memNonces) Consume(ctx context.Context, nonce string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.nonces[nonce]
	if !ok {
		return false, nil
	}
	delete(m.nonces, nonce)
	return time.Now().Before(exp), nil
}
