package checks

import (
	"context"

	"legacy-mirror/core/storage"
)

// StorageReport is the result of the report archive check.
type StorageReport struct {
	Configured bool   `json:"configured"`
	Bucket     string `json:"bucket,omitempty"`
	Exists     bool   `json:"exists"`
	Error      string `json:"error,omitempty"`
	Status     string `json:"status"` // "ok", "disabled", "error"
}

// CheckStorage verifies that the archive bucket is reachable. A nil client
// means archiving is disabled, which is not an error.
func CheckStorage(ctx context.Context, client storage.Client, bucket string) *StorageReport {
	if client == nil {
		return &StorageReport{Status: "disabled"}
	}

	report := &StorageReport{Configured: true, Bucket: bucket, Status: "ok"}
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		report.Error = err.Error()
		report.Status = "error"
		return report
	}
	report.Exists = exists
	if !exists {
		report.Status = "error"
		report.Error = "bucket does not exist"
	}
	return report
}
