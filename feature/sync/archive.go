package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"legacy-mirror/core/reconcile"
	"legacy-mirror/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// ErrArchiveDisabled is returned by report lookups when no object storage is configured.
var ErrArchiveDisabled = errors.New("report archive is not configured")

// Report describes one archived run report.
type Report struct {
	Key          string    `json:"key"`
	RunID        string    `json:"run_id"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// Archiver stores run reports in object storage under
// <prefix>/<yyyy>/<mm>/<dd>/<run_id>.json.
type Archiver struct {
	client storage.Client
	bucket string
	prefix string
	logger *zap.Logger
}

// NewArchiver creates an archiver writing to bucket under prefix.
func NewArchiver(client storage.Client, bucket, prefix string, logger *zap.Logger) *Archiver {
	return &Archiver{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: logger,
	}
}

// dir is the listing prefix; empty when reports live at the bucket root.
func (a *Archiver) dir() string {
	if a.prefix == "" {
		return ""
	}
	return a.prefix + "/"
}

// contains reports whether a cleaned key names a report under the prefix.
func (a *Archiver) contains(key string) bool {
	if key == "." || key == ".." || strings.HasPrefix(key, "../") {
		return false
	}
	return strings.HasPrefix(key, a.dir()) && strings.HasSuffix(key, ".json")
}

// Key returns the object key of a run report.
func (a *Archiver) Key(run *reconcile.RunResult) string {
	day := run.StartedAt.UTC().Format("2006/01/02")
	return path.Join(a.prefix, day, run.RunID+".json")
}

// Archive uploads the run report and returns its key.
func (a *Archiver) Archive(ctx context.Context, run *reconcile.RunResult) (string, error) {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode run report: %w", err)
	}

	key := a.Key(run)
	_, err = a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload run report %s: %w", key, err)
	}
	return key, nil
}

// List returns the most recent reports first, at most limit (0 for all).
func (a *Archiver) List(ctx context.Context, limit int) ([]Report, error) {
	opts := minio.ListObjectsOptions{Prefix: a.dir(), Recursive: true}

	var reports []Report
	for obj := range a.client.ListObjects(ctx, a.bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list run reports: %w", obj.Err)
		}
		if !strings.HasSuffix(obj.Key, ".json") {
			continue
		}
		reports = append(reports, Report{
			Key:          obj.Key,
			RunID:        strings.TrimSuffix(path.Base(obj.Key), ".json"),
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}

	sort.Slice(reports, func(i, j int) bool {
		if !reports[i].LastModified.Equal(reports[j].LastModified) {
			return reports[i].LastModified.After(reports[j].LastModified)
		}
		return reports[i].Key > reports[j].Key
	})
	if limit > 0 && len(reports) > limit {
		reports = reports[:limit]
	}
	return reports, nil
}

// Get downloads and decodes one report. key must live under the archive prefix.
func (a *Archiver) Get(ctx context.Context, key string) (*reconcile.RunResult, error) {
	key = path.Clean(strings.TrimPrefix(key, "/"))
	if !a.contains(key) {
		return nil, fmt.Errorf("report key %q is outside the archive", key)
	}

	obj, err := a.client.GetObject(ctx, a.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to download run report %s: %w", key, err)
	}
	defer obj.Close()

	var run reconcile.RunResult
	if err := json.NewDecoder(obj).Decode(&run); err != nil {
		return nil, fmt.Errorf("failed to decode run report %s: %w", key, err)
	}
	return &run, nil
}
