package main

import (
	"context"
	"database/sql"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pranavsaigandikota/Satchel/internal/adapter/handler"
	"github.com/pranavsaigandikota/Satchel/internal/adapter/llm"
	"github.com/pranavsaigandikota/Satchel/internal/adapter/storage"
	"github.com/pranavsaigandikota/Satchel/internal/config"
	"github.com/pranavsaigandikota/Satchel/internal/core/service"
	"github.com/pranavsaigandikota/Satchel/internal/logging"
	"github.com/pranavsaigandikota/Satchel/internal/port"
)

func main() {
	configPath := flag.String("config", "satchel.yaml", "path to the config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal("failed to open mysql", zap.Error(err))
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Fatal("failed to ping mysql", zap.Error(err))
	}
	log.Info("connected to mysql")

	// Redis guards the proposal-execution race window. The service
	// degrades to marker-only dedup when it is unreachable.
	var cache port.CacheRepository
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, PoolSize: 100})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis unavailable, proposal dedup is best-effort only", zap.Error(err))
	} else {
		cache = storage.NewRedisAdapter(rdb)
		log.Info("connected to redis")
	}

	// Completion backend
	completer, err := llm.NewGeminiCompleter(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Fatal("failed to create completion client", zap.Error(err))
	}

	// Stores and services
	itemStore := storage.NewItemStore(db)
	groupStore := storage.NewGroupStore(db)
	chatStore := storage.NewChatStore(db)
	userStore := storage.NewUserStore(db)

	inventoryService := service.NewInventoryService(itemStore, groupStore, log)
	groupService := service.NewGroupService(groupStore, log)
	chatService := service.NewChatService(chatStore, groupStore, inventoryService, completer, cache, log)
	chatService.SetCompletionTimeout(cfg.CompletionTimeout)

	httpHandler := handler.NewHTTPHandler(chatService, groupService, inventoryService, userStore, log)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpHandler.Router(),
	}

	go func() {
		log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Error("http server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Info("http server stopped")

	rdb.Close()
	db.Close()
	log.Info("connections closed")
}
