package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"github.com/wyfcoding/papertrading/internal/marketdata/application"
	"github.com/wyfcoding/papertrading/internal/marketdata/domain"
	"github.com/wyfcoding/papertrading/internal/marketdata/infrastructure/messaging"
	"github.com/wyfcoding/papertrading/internal/marketdata/infrastructure/persistence"
	"github.com/wyfcoding/papertrading/internal/marketdata/infrastructure/persistence/mysql"
	persistence_redis "github.com/wyfcoding/papertrading/internal/marketdata/infrastructure/persistence/redis"
	"github.com/wyfcoding/papertrading/internal/marketdata/infrastructure/provider"
	"github.com/wyfcoding/papertrading/internal/marketdata/infrastructure/provider/alphavantage"
	"github.com/wyfcoding/papertrading/internal/marketdata/infrastructure/provider/coingecko"
	"github.com/wyfcoding/papertrading/internal/marketdata/infrastructure/provider/finnhub"
	httphandler "github.com/wyfcoding/papertrading/internal/marketdata/interfaces/http"
	"github.com/wyfcoding/papertrading/pkg/ratelimit"
	"github.com/wyfcoding/pkg/logging"
	"golang.org/x/sync/errgroup"
	gorm_mysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/marketdata/config.toml", "path to config file")
	flag.Parse()

	// 1. Config
	viper.SetConfigFile(configPath)
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Sprintf("read config failed: %v", err))
	}
	setDefaults()

	// 2. Logger
	logger := logging.NewLogger("marketdata", "main", viper.GetString("log.level"))
	slog.SetDefault(logger.Logger)

	// 3. Database
	dsn := viper.GetString("database.source")
	db, err := gorm.Open(gorm_mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		panic(fmt.Sprintf("connect db failed: %v", err))
	}
	if err := db.AutoMigrate(&mysql.QuoteModel{}); err != nil {
		panic(fmt.Sprintf("migrate db failed: %v", err))
	}

	// 4. Redis
	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     viper.GetString("redis.addr"),
		Password: viper.GetString("redis.password"),
		DB:       viper.GetInt("redis.db"),
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		panic(fmt.Sprintf("connect redis failed: %v", err))
	}

	// 5. Providers
	// 未配置凭证的行情源整体跳过，不进入回退链
	var entries []*provider.Entry
	if key := viper.GetString("providers.finnhub.api_key"); key != "" {
		entries = append(entries, &provider.Entry{
			Provider: finnhub.NewClient(key),
			Queue: provider.NewRequestQueue("finnhub",
				time.Duration(viper.GetInt("providers.finnhub.delay_ms"))*time.Millisecond),
		})
	}
	if key := viper.GetString("providers.alphavantage.api_key"); key != "" {
		entries = append(entries, &provider.Entry{
			Provider: alphavantage.NewClient(key),
			Queue: provider.NewRequestQueue("alphavantage",
				time.Duration(viper.GetInt("providers.alphavantage.delay_ms"))*time.Millisecond),
			MaxBatch: viper.GetInt("providers.alphavantage.max_batch"),
		})
	}
	if viper.GetBool("providers.coingecko.enabled") {
		entries = append(entries, &provider.Entry{
			Provider: coingecko.NewClient(),
			Queue: provider.NewRequestQueue("coingecko",
				time.Duration(viper.GetInt("providers.coingecko.delay_ms"))*time.Millisecond),
		})
	}
	if len(entries) == 0 {
		slog.Warn("no quote providers configured, all quote fetches will fail")
	}
	chain := provider.NewChain(entries...)
	batchFetcher := provider.NewBatchFetcher(chain)

	// 6. Event publisher
	var publisher domain.EventPublisher
	if brokers := viper.GetStringSlice("kafka.brokers"); len(brokers) > 0 {
		kafkaPublisher := messaging.NewKafkaEventPublisher(brokers)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	} else {
		publisher = messaging.NopEventPublisher{}
	}

	// 7. Tiered store & application
	ttl := time.Duration(viper.GetInt("marketdata.cache_ttl_seconds")) * time.Second
	quoteCache := persistence_redis.NewQuoteCache(redisClient, ttl)
	quoteRepo := mysql.NewQuoteRepository(db)
	store := persistence.NewTieredQuoteStore(quoteCache, quoteRepo, chain, batchFetcher, publisher, ttl)
	quoteService := application.NewQuoteService(store)

	// 8. HTTP
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	if viper.GetBool("ratelimit.enabled") {
		limiter := ratelimit.NewLimiter(redisClient)
		r.Use(ratelimit.Middleware(limiter, viper.GetInt("ratelimit.qps"), viper.GetInt("ratelimit.burst")))
	}

	handler := httphandler.NewQuoteHandler(quoteService)
	handler.RegisterRoutes(r.Group("/api"))

	sys := r.Group("/sys")
	{
		sys.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "UP"}) })
		sys.GET("/ready", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "READY"}) })
	}
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	pp := r.Group("/debug/pprof")
	{
		pp.GET("/", gin.WrapF(pprof.Index))
		pp.GET("/cmdline", gin.WrapF(pprof.Cmdline))
		pp.GET("/profile", gin.WrapF(pprof.Profile))
		pp.GET("/symbol", gin.WrapF(pprof.Symbol))
		pp.GET("/trace", gin.WrapF(pprof.Trace))
	}

	// 9. Start
	g, ctx := errgroup.WithContext(context.Background())

	httpPort := viper.GetString("server.http_port")
	server := &http.Server{Addr: fmt.Sprintf(":%s", httpPort), Handler: r}
	g.Go(func() error {
		slog.Info("HTTP server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	// 过期行情定期清扫（保留窗口默认 24h）
	g.Go(func() error {
		retention := time.Duration(viper.GetInt("marketdata.retention_hours")) * time.Hour
		interval := time.Duration(viper.GetInt("marketdata.sweep_interval_minutes")) * time.Minute
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				deleted, err := quoteRepo.DeleteOlderThan(ctx, time.Now().Add(-retention))
				if err != nil {
					slog.Error("quote sweep failed", "error", err)
					continue
				}
				if deleted > 0 {
					slog.Info("expired quotes swept", "deleted", deleted)
				}
			}
		}
	})

	// 10. Graceful shutdown
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			slog.Info("shutting down servers...")
		case <-ctx.Done():
			slog.Info("context cancelled, shutting down...")
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server exited with error", "error", err)
	}
}

// setDefaults 配置默认值
func setDefaults() {
	viper.SetDefault("server.http_port", "8085")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("marketdata.cache_ttl_seconds", 300)
	viper.SetDefault("marketdata.retention_hours", 24)
	viper.SetDefault("marketdata.sweep_interval_minutes", 60)
	viper.SetDefault("providers.finnhub.delay_ms", 1100)
	viper.SetDefault("providers.alphavantage.delay_ms", 12000)
	viper.SetDefault("providers.alphavantage.max_batch", 5)
	viper.SetDefault("providers.coingecko.enabled", true)
	viper.SetDefault("providers.coingecko.delay_ms", 1500)
	viper.SetDefault("ratelimit.enabled", false)
	viper.SetDefault("ratelimit.qps", 50)
	viper.SetDefault("ratelimit.burst", 100)
}
