package matchmaker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisRepo struct {
	rdb *redis.Client
}

func NewRedisRepo(rdb *redis.Client) Repo {
	return &redisRepo{rdb: rdb}
}

// key 约定：
//
//	set: mm:pool:{pool}              -> Set(address,...)
//	kv : mm:player:{address}         -> pool (便于取消时定位池)
//	kv : mm:room:{id}                -> Room JSON
//	kv : mm:playerRoom:{address}     -> roomID (防止重复匹配)
func poolKey(pool string) string {
	return fmt.Sprintf("mm:pool:%s", pool)
}
func playerKey(addr string) string {
	return fmt.Sprintf("mm:player:%s", addr)
}
func roomKey(id string) string {
	return fmt.Sprintf("mm:room:%s", id)
}
func playerRoomKey(addr string) string {
	return fmt.Sprintf("mm:playerRoom:%s", addr)
}

// KEYS[1] = playerKey, KEYS[2] = poolKey, ARGV[1] = address
// 删除 playerKey、从集合中移除成员；若集合空则删除集合
var removeScript = redis.NewScript(`
redis.call("DEL", KEYS[1])
redis.call("SREM", KEYS[2], ARGV[1])
if redis.call("SCARD", KEYS[2]) == 0 then
    redis.call("DEL", KEYS[2])
end
return 1
`)

// KEYS = playerRoom keys, ARGV[1] = roomID
// 只删除仍指向该房间的映射
var releaseScript = redis.NewScript(`
local n = 0
for i, k in ipairs(KEYS) do
    if redis.call("GET", k) == ARGV[1] then
        redis.call("DEL", k)
        n = n + 1
    end
end
return n
`)

func ttl(seconds int) time.Duration {
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func (r *redisRepo) Enqueue(ctx context.Context, pool string, address string, ttlSeconds int) error {
	// 换池：先离开旧池
	if old, err := r.rdb.Get(ctx, playerKey(address)).Result(); err == nil && old != pool {
		if err := r.Remove(ctx, address); err != nil {
			return err
		}
	}
	p := r.rdb.TxPipeline()
	p.SAdd(ctx, poolKey(pool), address)
	p.Set(ctx, playerKey(address), pool, ttl(ttlSeconds))
	_, err := p.Exec(ctx)
	return err
}

func (r *redisRepo) PopNRandom(ctx context.Context, pool string, n int) ([]string, error) {
	key := poolKey(pool)
	// SPOP COUNT 一次随机弹出 n 个元素并从集合删除（原子）
	res, err := r.rdb.SPopN(ctx, key, int64(n)).Result()
	if err != nil {
		return nil, err
	}
	if len(res) < n {
		// 并发竞争导致人数不足：放回去
		if len(res) > 0 {
			members := make([]any, len(res))
			for i, a := range res {
				members[i] = a
			}
			if err := r.rdb.SAdd(ctx, key, members...).Err(); err != nil {
				return nil, err
			}
		}
		return []string{}, nil
	}
	// 清理 playerKey
	p := r.rdb.Pipeline()
	for _, addr := range res {
		p.Del(ctx, playerKey(addr))
	}
	if _, err := p.Exec(ctx); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *redisRepo) Remove(ctx context.Context, address string) error {
	pool, err := r.rdb.Get(ctx, playerKey(address)).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	return removeScript.Run(ctx, r.rdb, []string{playerKey(address), poolKey(pool)}, address).Err()
}

func (r *redisRepo) Count(ctx context.Context, pool string) (int64, error) {
	return r.rdb.SCard(ctx, poolKey(pool)).Result()
}

func (r *redisRepo) SaveRoom(ctx context.Context, room *Room, ttlSeconds int) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}
	p := r.rdb.TxPipeline()
	p.Set(ctx, roomKey(room.ID), data, ttl(ttlSeconds))
	for _, addr := range room.Players {
		p.Set(ctx, playerRoomKey(addr), room.ID, ttl(ttlSeconds))
	}
	_, err = p.Exec(ctx)
	return err
}

func (r *redisRepo) GetPlayerRoom(ctx context.Context, address string) (string, error) {
	val, err := r.rdb.Get(ctx, playerRoomKey(address)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (r *redisRepo) ReleaseRoom(ctx context.Context, roomID string, players []string) error {
	if err := r.rdb.Del(ctx, roomKey(roomID)).Err(); err != nil {
		return err
	}
	if len(players) == 0 {
		return nil
	}
	keys := make([]string, len(players))
	for i, a := range players {
		keys[i] = playerRoomKey(a)
	}
	return releaseScript.Run(ctx, r.rdb, keys, roomID).Err()
}
