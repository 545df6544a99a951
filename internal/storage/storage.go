package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/LJTian/ExamFeed/internal/collector"
	"github.com/LJTian/ExamFeed/internal/processor"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	listCacheTTL  = 5 * time.Minute
	cacheGenKey   = "examfeed:gen"
	insertBatches = 200
)

// Source 一个外部站点及其最近一次运行的统计
type Source struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	Code          string            `gorm:"size:64;uniqueIndex" json:"code"`
	Name          string            `gorm:"size:128;index" json:"name"`
	BaseURL       string            `gorm:"size:256" json:"baseUrl"`
	Status        string            `gorm:"size:32;index" json:"status"` // active / empty
	LastCount     int               `json:"lastCount"`
	ChannelCounts datatypes.JSONMap `gorm:"type:jsonb" json:"channelCounts"`
	LastRunAt     *time.Time        `json:"lastRunAt"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Announcement 当前快照的镜像，每次运行整体替换
type Announcement struct {
	ID          string     `gorm:"primaryKey;size:40" json:"id"`
	Title       string     `gorm:"size:512" json:"title"`
	URL         string     `gorm:"size:1024;uniqueIndex" json:"url"`
	Source      string     `gorm:"size:128;index" json:"source"`
	Channel     string     `gorm:"size:32;index" json:"channel"`
	PublishedAt *time.Time `gorm:"index" json:"publishedAt"`
	Position    int        `gorm:"index" json:"position"`

	CreatedAt time.Time `json:"createdAt"`
}

type Store struct {
	DB     *gorm.DB
	Redis  *redis.Client
	logger *slog.Logger
}

// NewStore redisAddr 为空时不启用缓存
func NewStore(dsn, redisAddr string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&Source{}, &Announcement{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	s := &Store{DB: db, logger: logger}
	if redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis ping failed", "addr", redisAddr, "err", err)
		}
		s.Redis = rdb
	}
	return s, nil
}

// EnsureSource 确保站点记录存在
func (s *Store) EnsureSource(cfg collector.SourceConfig) (*Source, error) {
	src := &Source{}
	if err := s.DB.Where("code = ?", cfg.Code()).First(src).Error; err == nil {
		return src, nil
	}
	src = &Source{
		Code:    cfg.Code(),
		Name:    cfg.Name,
		BaseURL: cfg.BaseURL,
		Status:  "empty",
	}
	if err := s.DB.Create(src).Error; err != nil {
		return nil, err
	}
	return src, nil
}

// Save 用新快照替换镜像表并刷新站点统计；失败的快照不覆盖已有数据
func (s *Store) Save(ctx context.Context, snap *processor.Snapshot) error {
	if snap == nil || !snap.OK {
		return nil
	}

	rows := make([]Announcement, 0, len(snap.Items))
	counts := make(map[string]map[string]any)
	totals := make(map[string]int)
	for i, it := range snap.Items {
		rows = append(rows, Announcement{
			ID:          processor.HashURL(it.URL),
			Title:       it.Title,
			URL:         it.URL,
			Source:      it.Source,
			Channel:     string(it.Channel),
			PublishedAt: it.Date,
			Position:    i,
		})
		if counts[it.Source] == nil {
			counts[it.Source] = map[string]any{}
		}
		n, _ := counts[it.Source][string(it.Channel)].(int)
		counts[it.Source][string(it.Channel)] = n + 1
		totals[it.Source]++
	}
	runAt := snap.UpdatedAt

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Announcement{}).Error; err != nil {
			return fmt.Errorf("clear announcements: %w", err)
		}
		if len(rows) > 0 {
			if err := tx.CreateInBatches(rows, insertBatches).Error; err != nil {
				return fmt.Errorf("insert announcements: %w", err)
			}
		}

		var sources []Source
		if err := tx.Find(&sources).Error; err != nil {
			return fmt.Errorf("list sources: %w", err)
		}
		for _, src := range sources {
			status := "empty"
			if totals[src.Name] > 0 {
				status = "active"
			}
			cc := counts[src.Name]
			if cc == nil {
				cc = map[string]any{}
			}
			if err := tx.Model(&Source{}).Where("id = ?", src.ID).Updates(map[string]any{
				"status":         status,
				"last_count":     totals[src.Name],
				"channel_counts": datatypes.JSONMap(cc),
				"last_run_at":    runAt,
			}).Error; err != nil {
				return fmt.Errorf("update source %s: %w", src.Code, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	// 递增代号让旧的列表缓存失效，不做通配删除
	if s.Redis != nil {
		if err := s.Redis.Incr(ctx, cacheGenKey).Err(); err != nil {
			s.logger.Warn("bump cache generation failed", "err", err)
		}
	}
	return nil
}

// ListAnnouncements 按快照顺序返回，带 Redis 缓存
func (s *Store) ListAnnouncements(ctx context.Context, f processor.ViewFilter) ([]collector.Announcement, error) {
	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 200
	}

	cacheKey := ""
	if s.Redis != nil {
		gen, _ := s.Redis.Get(ctx, cacheGenKey).Int64()
		cacheKey = listCacheKey(gen, f, limit)
		if bs, err := s.Redis.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached []collector.Announcement
			if err := json.Unmarshal(bs, &cached); err == nil {
				return cached, nil
			}
		}
	}

	db := s.DB.WithContext(ctx).Model(&Announcement{})
	if len(f.Channels) > 0 {
		chs := make([]string, 0, len(f.Channels))
		for _, c := range f.Channels {
			chs = append(chs, string(c))
		}
		db = db.Where("channel IN ?", chs)
	}
	if len(f.Sources) > 0 {
		db = db.Where("source IN ?", f.Sources)
	}
	if term := strings.ToLower(strings.TrimSpace(f.Query)); term != "" {
		like := "%" + term + "%"
		db = db.Where("(LOWER(title) LIKE ? OR LOWER(source) LIKE ?)", like, like)
	}

	var rows []Announcement
	if err := db.Order("position ASC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]collector.Announcement, 0, len(rows))
	for _, r := range rows {
		out = append(out, collector.Announcement{
			Source:  r.Source,
			Channel: collector.Channel(r.Channel),
			Title:   r.Title,
			URL:     r.URL,
			Date:    r.PublishedAt,
		})
	}

	if s.Redis != nil && len(out) > 0 {
		if bs, err := json.Marshal(out); err == nil {
			_ = s.Redis.Set(ctx, cacheKey, bs, listCacheTTL).Err()
		}
	}
	return out, nil
}

func listCacheKey(gen int64, f processor.ViewFilter, limit int) string {
	chs := make([]string, 0, len(f.Channels))
	for _, c := range f.Channels {
		chs = append(chs, string(c))
	}
	return fmt.Sprintf("examfeed:list:%d:%s:%s:%s:%d",
		gen, strings.Join(chs, ","), strings.Join(f.Sources, ","), strings.ToLower(strings.TrimSpace(f.Query)), limit)
}

// ListSources 所有站点及最近一次统计
func (s *Store) ListSources(ctx context.Context) ([]Source, error) {
	var list []Source
	err := s.DB.WithContext(ctx).Order("name ASC").Find(&list).Error
	return list, err
}
