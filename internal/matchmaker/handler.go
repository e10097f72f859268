package matchmaker

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// POST /match/join  body: {pool}，地址由 JWT middleware 注入
func (h *Handler) Join(c *gin.Context) {
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.Address = c.GetString("address")
	if req.Address == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	room, queued, err := h.svc.Join(c.Request.Context(), req)
	if errors.Is(err, ErrAlreadyInRoom) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if queued {
		pool := h.svc.poolName(req.Pool)
		waiting, _ := h.svc.Waiting(c.Request.Context(), pool)
		c.JSON(http.StatusOK, JoinResponse{Queued: true, Pool: pool, Waiting: waiting})
		return
	}
	c.JSON(http.StatusOK, JoinResponse{
		Queued: false, Pool: room.Pool, RoomID: room.ID, Players: room.Players,
	})
}

// POST /match/cancel
func (h *Handler) Cancel(c *gin.Context) {
	addr := c.GetString("address")
	if addr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if err := h.svc.Cancel(c.Request.Context(), addr); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
