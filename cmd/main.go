package main

import (
	"NewsComments/internal/config"
	"NewsComments/internal/repository"
	"NewsComments/internal/router"
	"NewsComments/internal/router/handlers"
	"NewsComments/internal/service"
	"NewsComments/internal/tree"
	"NewsComments/pkg/logger"
	"context"
	"errors"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load("./config/config.yaml")
	if err != nil {
		panic(err)
	}
	log, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	rdb, err := repository.NewRedisClient(repository.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, log)
	if err != nil {
		log.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	news, err := repository.NewNewsRepository(cfg.MasterDSN, cfg.SlaveDSNs, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	sortFn, err := tree.SortByName(cfg.CommentSort)
	if err != nil {
		log.Fatal("Invalid comment sort", zap.Error(err))
	}

	kv := repository.NewRedisKV(rdb)
	threads := repository.NewThreadStore(kv, cfg.Namespace, log)
	timeline := repository.NewTimeline(kv, threads, log)
	users := repository.NewCachedUsers(repository.NewUsers(kv, log), cfg.UserCacheSize, cfg.UserCacheTTL)

	serviceComment := service.NewService(threads, timeline, news, users, service.Options{
		EditWindow: cfg.EditWindow,
		Sort:       sortFn,
	}, log)
	handlersComment := handlers.NewCommentHandler(serviceComment)
	rout := router.NewRouter(cfg.GinMode, handlersComment, log)
	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: rout.GetEngine(),
	}

	go func() {
		log.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to listen and server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Failed to shutdown server", zap.Error(err))
	}
}
