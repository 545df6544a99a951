package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LJTian/ExamFeed/internal/collector"
	"github.com/LJTian/ExamFeed/internal/config"
	"github.com/LJTian/ExamFeed/internal/logger"
	"github.com/LJTian/ExamFeed/internal/processor"
	"github.com/LJTian/ExamFeed/internal/scheduler"
	"github.com/LJTian/ExamFeed/internal/storage"
	"github.com/joho/godotenv"
)

// 只执行一轮采集并写出快照文件，适合在 CI 中定时调用
func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warn: load .env: %v", err)
	}
	cfg := config.Load()
	lg := logger.New(cfg.LogLevel)
	writer := storage.NewSnapshotFile(cfg.OutputPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 配置错误也要留下一个可解析的快照
	fail := func(msg string, err error) {
		lg.Error(msg, "err", err)
		if werr := writer.Save(ctx, processor.Failed(err, time.Now())); werr != nil {
			lg.Error("write fallback snapshot failed", "err", werr)
		}
		os.Exit(1)
	}

	opts, err := cfg.ProcessorOptions()
	if err != nil {
		fail("invalid run configuration", err)
	}
	sources, err := collector.LoadSources(cfg.SourcesFile)
	if err != nil {
		fail("load sources failed", err)
	}

	client := collector.NewHTTPClient(cfg.HTTPTimeout, cfg.HTTPRetries, lg)
	fetchers := collector.BuildFetchers(sources, client, lg)

	var sinks []scheduler.Sink
	if cfg.PostgresDSN != "" {
		store, err := storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr, lg)
		if err != nil {
			lg.Warn("store disabled", "err", err)
		} else {
			for _, src := range sources {
				if _, err := store.EnsureSource(src); err != nil {
					lg.Warn("ensure source failed", "source", src.Name, "err", err)
				}
			}
			sinks = append(sinks, store)
		}
	}

	s, err := scheduler.New("", fetchers, opts, writer, lg, sinks...)
	if err != nil {
		fail("init scheduler failed", err)
	}

	snap, err := s.RunOnce(ctx)
	if err != nil {
		// 降级快照已写出，不以失败退出，方便工作流照常提交文件
		lg.Error("collect failed", "err", err, "path", writer.Path)
		return
	}
	lg.Info("wrote snapshot", "count", snap.Count, "path", writer.Path)
}
