package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/LJTian/ExamFeed/internal/collector"
	"github.com/LJTian/ExamFeed/internal/processor"
	"github.com/LJTian/ExamFeed/internal/storage"
	"github.com/gin-gonic/gin"
)

// Server 持有当前快照；快照只通过 Save 替换，读取方拿到的是不可变的值
type Server struct {
	store *storage.Store

	mu      sync.RWMutex
	current *processor.Snapshot
}

// NewServer store 可以为 nil（未配置数据库）
func NewServer(store *storage.Store) *Server {
	return &Server{store: store}
}

// Save 作为调度器的输出，替换当前快照
func (s *Server) Save(_ context.Context, snap *processor.Snapshot) error {
	s.mu.Lock()
	s.current = snap
	s.mu.Unlock()
	return nil
}

// Current 当前快照，尚未运行过时为 nil
func (s *Server) Current() *processor.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/snapshot", s.snapshot)
		v1.GET("/announcements", s.listAnnouncements)
		v1.GET("/sources", s.listSources)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) snapshot(c *gin.Context) {
	snap := s.Current()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"code":    "no_snapshot",
			"message": "no snapshot yet",
		})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) listAnnouncements(c *gin.Context) {
	var channels []collector.Channel
	for _, v := range splitQuery(c.Query("channel")) {
		ch, err := collector.ParseChannel(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "invalid_channel",
				"message": err.Error(),
			})
			return
		}
		channels = append(channels, ch)
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "200"))
	if err != nil || limit <= 0 {
		limit = 200
	}
	f := processor.ViewFilter{
		Channels: channels,
		Sources:  splitQuery(c.Query("source")),
		Query:    c.Query("q"),
		Limit:    limit,
	}

	var items []collector.Announcement
	if s.store != nil {
		items, err = s.store.ListAnnouncements(c.Request.Context(), f)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    "internal_error",
				"message": "internal server error",
			})
			return
		}
	} else {
		snap := s.Current()
		if snap == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"code":    "no_snapshot",
				"message": "no snapshot yet",
			})
			return
		}
		items = processor.View(snap, f)
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    items,
	})
}

func (s *Server) listSources(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "storage_disabled",
			"message": "source status requires POSTGRES_DSN",
		})
		return
	}
	list, err := s.store.ListSources(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "internal_error",
			"message": "internal server error",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    list,
	})
}

func splitQuery(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
