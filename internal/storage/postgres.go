package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

var DB *sql.DB

// InitPostgres 玩家名字存储（registry）使用
func InitPostgres(dsn string) error {
	var err error
	DB, err = sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	DB.SetMaxOpenConns(10)
	DB.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := DB.PingContext(ctx); err != nil {
		_ = DB.Close()
		DB = nil
		return fmt.Errorf("postgres: %w", err)
	}
	return nil
}

// Close 关闭已打开的连接
func Close() {
	if DB != nil {
		_ = DB.Close()
	}
	if Rdb != nil {
		_ = Rdb.Close()
	}
}
