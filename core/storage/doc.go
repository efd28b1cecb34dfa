// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client behind the Client interface so that the run report
// archive can be unit tested with core/storage/mocks. Both AWS S3 and self-hosted
// MinIO instances are supported.
//
// # Operations
//
//   - BucketExists / MakeBucket: bucket bootstrap (see EnsureBucket).
//   - PutObject: uploads a run report.
//   - GetObject: reads an archived report back.
//   - ListObjects: lists archived reports under a prefix.
//
// Object storage is optional; Config.Enabled reports whether an endpoint is set.
//
// # Usage
//
//	client, err := storage.NewClient(cfg)
//	err = storage.EnsureBucket(ctx, client, cfg.Bucket, cfg.Region)
package storage
