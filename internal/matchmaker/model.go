package matchmaker

import (
	"time"

	"BigTwo/internal/game/table"
)

// TableSize 一桌固定四人
const TableSize = table.Seats

// JoinRequest 前端提交的匹配请求；地址取自 JWT
type JoinRequest struct {
	Address string `json:"-"`
	Pool    string `json:"pool"` // 为空时使用默认池
}

// JoinResponse 返回是否已成桌；若已成桌则给出房间信息
type JoinResponse struct {
	Queued  bool     `json:"queued"`
	RoomID  string   `json:"roomId,omitempty"`
	Players []string `json:"players,omitempty"`
	Pool    string   `json:"pool"`
	Waiting int64    `json:"waiting,omitempty"`
}

// Room 组桌结果
type Room struct {
	ID        string    `json:"id"`
	Pool      string    `json:"pool"`
	Players   []string  `json:"players"`
	CreatedAt time.Time `json:"createdAt"`
}
