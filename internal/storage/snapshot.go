package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/LJTian/ExamFeed/internal/processor"
)

// DefaultSnapshotPath 静态页面读取的位置
const DefaultSnapshotPath = "docs/data/coaching.json"

// SnapshotFile 快照文件：每次运行整体覆盖，不保留历史
type SnapshotFile struct {
	Path string
}

func NewSnapshotFile(path string) *SnapshotFile {
	if path == "" {
		path = DefaultSnapshotPath
	}
	return &SnapshotFile{Path: path}
}

// Save 先写临时文件再 rename，读端不会看到写了一半的 JSON
func (f *SnapshotFile) Save(_ context.Context, snap *processor.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("save snapshot: nil snapshot")
	}
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, f.Path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// Load 读取上一次写出的快照
func (f *SnapshotFile) Load() (*processor.Snapshot, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	var snap processor.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", f.Path, err)
	}
	return &snap, nil
}
