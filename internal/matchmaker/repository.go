package matchmaker

import "context"

// Repo 定义对匹配池与在桌映射的抽象操作
type Repo interface {
	// Enqueue 将地址加入指定池
	Enqueue(ctx context.Context, pool string, address string, ttlSeconds int) error
	// PopNRandom 当池内达到 N 人时，随机弹出 N 人（原子）
	PopNRandom(ctx context.Context, pool string, n int) ([]string, error)
	// Remove 将玩家从当前池移除（用于取消）
	Remove(ctx context.Context, address string) error
	// Count 返回池内人数
	Count(ctx context.Context, pool string) (int64, error)

	// SaveRoom 记录房间及玩家 -> 房间映射；ttlSeconds <= 0 表示不过期
	SaveRoom(ctx context.Context, room *Room, ttlSeconds int) error
	// GetPlayerRoom 玩家当前所在房间，不在桌返回 ""
	GetPlayerRoom(ctx context.Context, address string) (string, error)
	// ReleaseRoom 房间结束，清除映射
	ReleaseRoom(ctx context.Context, roomID string, players []string) error
}
