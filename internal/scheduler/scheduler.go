package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/LJTian/ExamFeed/internal/collector"
	"github.com/LJTian/ExamFeed/internal/processor"
	"github.com/robfig/cron/v3"
)

// Sink 接收每次运行生成的快照
type Sink interface {
	Save(ctx context.Context, snap *processor.Snapshot) error
}

type Scheduler struct {
	cron     *cron.Cron
	fetchers []collector.Fetcher
	opts     processor.Options
	writer   Sink
	sinks    []Sink
	logger   *slog.Logger

	// aggregate 默认为 processor.Aggregate，测试中可替换
	aggregate func([]collector.Result, processor.Options) *processor.Snapshot
	// 防止定时任务与手动触发重叠
	running sync.Mutex
}

// New writer 是必须成功写出的快照文件，sinks 为附加输出（API、数据库），其失败只记日志
func New(spec string, fetchers []collector.Fetcher, opts processor.Options, writer Sink, logger *slog.Logger, sinks ...Sink) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		cron:      cron.New(),
		fetchers:  fetchers,
		opts:      opts,
		writer:    writer,
		sinks:     sinks,
		logger:    logger,
		aggregate: processor.Aggregate,
	}

	if spec != "" {
		if _, err := s.cron.AddFunc(spec, s.runScheduled); err != nil {
			return nil, fmt.Errorf("add cron %q: %w", spec, err)
		}
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop 停止定时任务并等待正在执行的任务结束
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runScheduled() {
	if _, err := s.RunOnce(context.Background()); err != nil {
		s.logger.Error("scheduled run failed", "err", err)
	}
}

// RunOnce 执行一轮完整采集。聚合或写出阶段的任何异常都会降级为 ok=false 的快照写出，
// 返回的快照总是非 nil
func (s *Scheduler) RunOnce(ctx context.Context) (snap *processor.Snapshot, err error) {
	s.running.Lock()
	defer s.running.Unlock()

	s.logger.Info("start collect job", "sources", len(s.fetchers))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
		}
		if err == nil {
			return
		}
		s.logger.Error("collect job failed, writing fallback snapshot", "err", err)
		snap = processor.Failed(err, time.Now())
		if werr := s.writer.Save(ctx, snap); werr != nil {
			s.logger.Error("write fallback snapshot failed", "err", werr)
		}
	}()

	results := Collect(ctx, s.fetchers, s.logger)
	snap = s.aggregate(results, s.opts)
	if snap == nil {
		return nil, fmt.Errorf("aggregate returned no snapshot")
	}
	if err := s.writer.Save(ctx, snap); err != nil {
		return nil, fmt.Errorf("write snapshot: %w", err)
	}

	for _, sink := range s.sinks {
		if err := sink.Save(ctx, snap); err != nil {
			s.logger.Warn("sink save failed", "sink", fmt.Sprintf("%T", sink), "err", err)
		}
	}

	s.logger.Info("collect job done", "items", snap.Count, "elapsed", time.Since(start).Round(time.Millisecond))
	return snap, nil
}

// Collect 并发运行所有数据源并等待全部结束；单个数据源 panic 也只记为该源的错误
func Collect(ctx context.Context, fetchers []collector.Fetcher, logger *slog.Logger) []collector.Result {
	if logger == nil {
		logger = slog.Default()
	}
	results := make([]collector.Result, len(fetchers))

	var wg sync.WaitGroup
	for i, f := range fetchers {
		wg.Add(1)
		go func(i int, f collector.Fetcher) {
			defer wg.Done()
			// Name 本身也可能 panic，此时用序号标识该数据源
			name := fmt.Sprintf("fetcher-%d", i)
			defer func() {
				if r := recover(); r != nil {
					logger.Error("fetcher panic", "source", name, "panic", r)
					results[i] = collector.Result{
						Source: name,
						Errors: []collector.PageError{{
							Source: name,
							Kind:   collector.KindInternal,
							Err:    fmt.Errorf("panic: %v", r),
						}},
					}
				}
			}()
			name = f.Name()
			results[i] = f.Fetch(ctx)
		}(i, f)
	}
	wg.Wait()
	return results
}
