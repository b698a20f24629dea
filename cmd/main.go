package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skillsync/skillsync/api"
	"github.com/skillsync/skillsync/configs"
	"github.com/skillsync/skillsync/database"
	"github.com/skillsync/skillsync/pkg/cache"
	"github.com/skillsync/skillsync/pkg/chat"
	"github.com/skillsync/skillsync/pkg/filter"
	"github.com/skillsync/skillsync/pkg/logger"
	"github.com/skillsync/skillsync/pkg/matching"
	"github.com/skillsync/skillsync/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "skillsync",
	Short:         "SkillSync study-partner matching server",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "directory containing config.yaml")
	rootCmd.AddCommand(serveCmd, matchCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*configs.Config, error) {
	if configPath != "" {
		return configs.Load(configPath)
	}
	return configs.Load()
}

// newCache 根据配置创建推荐缓存
func newCache(ctx context.Context, cfg *configs.Config, log *zap.Logger) (cache.Store, error) {
	switch cfg.Cache.Driver {
	case "", "memory":
		mc := cache.NewMemoryCache(cfg.Cache.MaxEntries, cfg.Cache.TTL)
		if cfg.Cache.MonitorInterval > 0 {
			monitor := cache.NewMonitor(mc, cache.MonitorConfig{
				Interval:       cfg.Cache.MonitorInterval,
				HitRateMin:     cache.DefaultMonitorConfig().HitRateMin,
				MemoryUsageMax: cache.DefaultMonitorConfig().MemoryUsageMax,
			}, log)
			monitor.Start()
			go func() {
				<-ctx.Done()
				monitor.Stop()
			}()
		}
		return mc, nil
	case "redis":
		rc, err := cache.NewRedisCache(cfg.Cache.RedisURL, cfg.Cache.TTL)
		if err != nil {
			return nil, err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rc.Ping(pingCtx); err != nil {
			rc.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return rc, nil
	}
	return nil, fmt.Errorf("unsupported cache driver: %s", cfg.Cache.Driver)
}

func serve(ctx context.Context) error {
	// 加载配置
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer log.Sync()

	strategy, err := matching.ParseStrategy(cfg.Matching.Strategy)
	if err != nil {
		return err
	}
	matcher := matching.NewMatcher(matching.WithStrategy(strategy), matching.WithLimit(cfg.Matching.Limit))

	moderator, err := filter.New(cfg.Chat.SensitiveWords, cfg.Chat.Patterns)
	if err != nil {
		return fmt.Errorf("content filter: %w", err)
	}

	// 初始化数据库连接
	db, err := database.Initialize(cfg.Database, log)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer database.Close(log)

	store, err := newCache(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	users := database.NewUserStore(db)
	messages := database.NewMessageStore(db)
	hub := chat.NewHub(log)

	gin.SetMode(cfg.Server.Mode)
	router := api.SetupRouter(api.Dependencies{
		Config:      cfg,
		Logger:      log,
		Tokens:      utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpiresIn),
		Users:       users,
		Connections: database.NewConnectionStore(db),
		Messages:    messages,
		Study:       database.NewStudyStore(db),
		Matcher:     matcher,
		Cache:       store,
		Filter:      moderator,
		Chat:        chat.NewService(messages, users, moderator, hub, log),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("strategy", string(matcher.Strategy())),
			zap.String("cache", cfg.Cache.Driver),
			zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		log.Info("shutting down")

		// websocket 连接已被劫持，需要单独关闭
		hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
