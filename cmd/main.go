package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"BigTwo/config"
	"BigTwo/internal/auth"
	"BigTwo/internal/game/manager"
	"BigTwo/internal/matchmaker"
	"BigTwo/internal/middleware"
	"BigTwo/internal/registry"
	"BigTwo/internal/storage"
	"BigTwo/internal/utils"
	"BigTwo/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	if err := config.Load(); err != nil {
		utils.Log.Fatal("load config", "err", err)
	}
	utils.Init(config.C.Log.Level)
	log := utils.Named("main")

	//-------------------------------------------------------
	// 1. 初始化 Redis
	//-------------------------------------------------------
	if err := storage.InitRedis(
		config.C.Redis.Addr,
		config.C.Redis.Password,
		config.C.Redis.DB,
	); err != nil {
		log.Fatal("redis init failed", "err", err)
	}
	defer storage.Close()

	//-------------------------------------------------------
	// 2. 玩家名字：有 DSN 用 postgres，否则内存
	//-------------------------------------------------------
	names := registry.NewMemoryRegistry()
	if dsn := config.C.Database.DSN; dsn != "" {
		if err := storage.InitPostgres(dsn); err != nil {
			log.Fatal("postgres init failed", "err", err)
		}
		if err := registry.EnsureSchema(context.Background(), storage.DB); err != nil {
			log.Fatal("schema", "err", err)
		}
		names = registry.NewPostgresRegistry(storage.DB)
	} else {
		log.Warn("no database dsn, player names are kept in memory")
	}

	//-------------------------------------------------------
	// 3. 初始化 Gin + CORS
	//-------------------------------------------------------
	if config.C.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	//-------------------------------------------------------
	// 4. 初始化 Hub（必须最先启动）
	//-------------------------------------------------------
	hub := websocket.NewHub()
	go hub.Run()

	//-------------------------------------------------------
	// 5. 初始化 GameManager（用来启动 Engine）
	//-------------------------------------------------------
	gameMgr := manager.NewGameManager(hub, names)
	gameMgr.TurnTimeout = config.C.TurnTimeout()
	gameMgr.Seed = config.C.Game.Seed

	//-------------------------------------------------------
	// 6. 初始化匹配系统 Matchmaker
	//-------------------------------------------------------
	repo := matchmaker.NewRedisRepo(storage.Rdb)
	svc := matchmaker.NewService(repo, config.C.Matchmaker.PlayerTTL, hub)
	svc.RoomTTL = config.C.Matchmaker.RoomTTL
	svc.DefaultPool = config.C.Matchmaker.Pool

	// 成桌回调：让 GameManager 接手并启动 Engine
	svc.OnRoomReady = func(room *matchmaker.Room) {
		if err := gameMgr.StartRoom(room); err != nil {
			log.Error("start room", "room", room.ID, "err", err)
			_ = svc.Release(context.Background(), room.ID, room.Players)
		}
	}
	// 桌子关闭：释放座位
	gameMgr.OnRoomClosed = func(roomID string, players []string) {
		if err := svc.Release(context.Background(), roomID, players); err != nil {
			log.Error("release room", "room", roomID, "err", err)
		}
	}

	hub.OnIncoming = gameMgr.HandlePlayerMessage
	hub.OnDisconnect = func(addr string) {
		gameMgr.HandleDisconnect(addr)
		// 排队中的玩家断线也离开匹配池
		if err := svc.Cancel(context.Background(), addr); err != nil {
			log.Warn("cancel on disconnect", "addr", addr, "err", err)
		}
	}

	authGroup := r.Group("/auth")
	{
		ah := auth.NewHandler([]byte(config.C.JWT.Secret), auth.NewRedisNonceStore(storage.Rdb), names)
		authGroup.GET("/nonce", ah.Nonce)
		authGroup.POST("/nonce", ah.Nonce)
		authGroup.POST("/login", ah.Login)
	}

	//-------------------------------------------------------
	// 7. WebSocket 入口 + 匹配路由（需 JWT）
	//-------------------------------------------------------
	secret := []byte(config.C.JWT.Secret)
	authed := r.Group("/", middleware.JwtAuthMiddleware(secret))
	{
		authed.GET("/ws", websocket.ServeWS(hub))

		mh := matchmaker.NewHandler(svc)
		authed.POST("/match/join", mh.Join)
		authed.POST("/match/cancel", mh.Cancel)
	}

	//-------------------------------------------------------
	// 8. 启动服务器
	//-------------------------------------------------------
	srv := &http.Server{Addr: config.C.Server.Port, Handler: r}
	go func() {
		log.Info("server running", "addr", config.C.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	gameMgr.Shutdown()
	hub.Close()
}
