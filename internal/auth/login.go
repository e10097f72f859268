package auth

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"BigTwo/internal/registry"
	"BigTwo/internal/utils"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrBadSignature      = errors.New("malformed signature")
	ErrSignatureMismatch = errors.New("signature mismatch")
)

type LoginRequest struct {
	Address   string `json:"address" binding:"required"`
	Signature string `json:"signature" binding:"required"`
	Nonce     string `json:"nonce" binding:"required"`
	Name      string `json:"name"`
}

type Handler struct {
	secret []byte
	nonces NonceStore
	names  registry.Registry
	log    *log.Logger

	NonceTTL time.Duration
	TokenTTL time.Duration
}

// 工厂方法：创建 handler
func NewHandler(secret []byte, nonces NonceStore, names registry.Registry) *Handler {
	return &Handler{
		secret:   secret,
		nonces:   nonces,
		names:    names,
		log:      utils.Named("auth"),
		NonceTTL: 5 * time.Minute,
		TokenTTL: 24 * time.Hour,
	}
}

// SignMessage 钱包 personal_sign 的原文
func SignMessage(nonce string) string {
	return "Sign this message to authenticate with BigTwo. Nonce: " + nonce
}

// Recover 按 MetaMask personal_sign 规则恢复签名者地址
func Recover(msg, signature string) (common.Address, error) {
	prefix := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(msg), msg)
	hash := crypto.Keccak256Hash([]byte(prefix))

	sigBytes, err := hex.DecodeString(strings.TrimPrefix(signature, "0x"))
	if err != nil || len(sigBytes) != crypto.SignatureLength {
		return common.Address{}, ErrBadSignature
	}
	// 修正 V 值
	if sigBytes[crypto.RecoveryIDOffset] >= 27 {
		sigBytes[crypto.RecoveryIDOffset] -= 27
	}

	pubKey, err := crypto.SigToPub(hash.Bytes(), sigBytes)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	return crypto.PubkeyToAddress(*pubKey), nil
}

// IssueToken HS256，sub = 地址
func IssueToken(secret []byte, address string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": address,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// POST /auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	ctx := c.Request.Context()

	// 检查 nonce 是否有效，只允许一次
	ok, err := h.nonces.Consume(ctx, req.Nonce)
	if err != nil {
		h.log.Error("consume nonce", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "nonce store unavailable"})
		return
	}
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid nonce"})
		return
	}

	recovered, err := Recover(SignMessage(req.Nonce), req.Signature)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "signature verify failed"})
		return
	}
	if !strings.EqualFold(recovered.Hex(), req.Address) {
		h.log.Warn("login rejected", "claimed", req.Address, "recovered", recovered.Hex())
		c.JSON(http.StatusUnauthorized, gin.H{"error": ErrSignatureMismatch.Error()})
		return
	}
	address := recovered.Hex()

	// 签名验证成功 → 生成 JWT
	jwtStr, err := IssueToken(h.secret, address, h.TokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "jwt generation failed"})
		return
	}

	if req.Name != "" && h.names != nil {
		if err := h.names.SetName(ctx, address, req.Name); err != nil {
			h.log.Warn("save name", "addr", address, "err", err)
		}
	}
	h.log.Info("login", "addr", address)

	c.JSON(http.StatusOK, gin.H{
		"jwt":     jwtStr,
		"address": address,
		"name":    registry.Display(ctx, h.names, address),
	})
}
