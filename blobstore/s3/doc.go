// Package s3 stores tree snapshots in Amazon S3.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", s3.WithPrefix("airports/"))
//	err = idx.Publish(ctx, store, "airports-2026-10-16.kdt")
//
// Snapshots are written with multipart uploads and read with range GETs.
// S3 has no compare-and-swap for CURRENT; wrap the store in a
// DDBCommitStore when several writers may publish concurrently.
package s3
