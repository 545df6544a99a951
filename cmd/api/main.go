package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/LJTian/ExamFeed/internal/api"
	"github.com/LJTian/ExamFeed/internal/collector"
	"github.com/LJTian/ExamFeed/internal/config"
	"github.com/LJTian/ExamFeed/internal/logger"
	"github.com/LJTian/ExamFeed/internal/scheduler"
	"github.com/LJTian/ExamFeed/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warn: load .env: %v", err)
	}
	cfg := config.Load()
	lg := logger.New(cfg.LogLevel)

	opts, err := cfg.ProcessorOptions()
	if err != nil {
		log.Fatalf("invalid run configuration: %v", err)
	}
	sources, err := collector.LoadSources(cfg.SourcesFile)
	if err != nil {
		log.Fatalf("load sources failed: %v", err)
	}

	var store *storage.Store
	if cfg.PostgresDSN != "" {
		store, err = storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr, lg)
		if err != nil {
			log.Fatalf("init store failed: %v", err)
		}
		for _, src := range sources {
			if _, err := store.EnsureSource(src); err != nil {
				log.Fatalf("ensure source %s failed: %v", src.Name, err)
			}
		}
	}

	apiServer := api.NewServer(store)
	writer := storage.NewSnapshotFile(cfg.OutputPath)
	// 先用上一次的快照提供服务，首轮采集完成后替换
	if snap, err := writer.Load(); err == nil {
		_ = apiServer.Save(context.Background(), snap)
	} else {
		lg.Info("no previous snapshot", "path", writer.Path, "err", err)
	}

	sinks := []scheduler.Sink{apiServer}
	if store != nil {
		sinks = append(sinks, store)
	}
	client := collector.NewHTTPClient(cfg.HTTPTimeout, cfg.HTTPRetries, lg)
	s, err := scheduler.New(cfg.CronSpec, collector.BuildFetchers(sources, client, lg), opts, writer, lg, sinks...)
	if err != nil {
		log.Fatalf("init scheduler failed: %v", err)
	}
	s.Start()
	defer s.Stop()

	// 延迟执行首轮采集，避免与启动时的请求争抢资源
	const startupDelay = 15 * time.Second
	time.AfterFunc(startupDelay, func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			lg.Error("initial collect failed", "err", err)
		}
	})

	r := gin.Default()
	apiServer.RegisterRoutes(r)

	// 托管静态阅读页
	if cfg.WebRoot != "" {
		indexFile := filepath.Join(cfg.WebRoot, "index.html")
		r.Static("/data", filepath.Join(cfg.WebRoot, "data"))
		r.NoRoute(func(c *gin.Context) {
			if c.Request.Method != http.MethodGet {
				c.Status(http.StatusNotFound)
				return
			}
			c.File(indexFile)
		})
	}

	addr := ":" + cfg.AppPort
	log.Printf("starting api server at %s ...", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server exit: %v", err)
	}
}
