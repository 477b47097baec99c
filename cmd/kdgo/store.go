package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/kdgo/blobstore"
	"github.com/hupe1980/kdgo/blobstore/minio"
	"github.com/hupe1980/kdgo/blobstore/s3"
)

// storeFlags selects the blob store holding snapshots.
type storeFlags struct {
	dir string

	s3Bucket string
	s3Prefix string
	ddbTable string

	minioEndpoint string
	minioBucket   string
	minioSecure   bool
}

func (s *storeFlags) register(f *flag.FlagSet) {
	f.StringVar(&s.dir, "dir", "", "Local snapshot directory")
	f.StringVar(&s.s3Bucket, "s3-bucket", "", "S3 bucket for snapshots")
	f.StringVar(&s.s3Prefix, "s3-prefix", "", "Key prefix inside the S3 or MinIO bucket")
	f.StringVar(&s.ddbTable, "ddb-table", "", "DynamoDB table holding CURRENT (S3 only)")
	f.StringVar(&s.minioEndpoint, "minio-endpoint", "", "MinIO endpoint host:port (credentials from MINIO_ACCESS_KEY and MINIO_SECRET_KEY)")
	f.StringVar(&s.minioBucket, "minio-bucket", "kdgo", "MinIO bucket for snapshots")
	f.BoolVar(&s.minioSecure, "minio-secure", false, "Use TLS for MinIO")
}

func (s *storeFlags) open(ctx context.Context) (blobstore.BlobStore, error) {
	switch {
	case s.s3Bucket != "":
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, err
		}
		store := s3.NewStore(awss3.NewFromConfig(cfg), s.s3Bucket,
			s3.WithPrefix(s.s3Prefix),
			s3.WithConditionalWrites(),
		)
		if s.ddbTable == "" {
			return store, nil
		}
		return s3.NewDDBCommitStore(store, dynamodb.NewFromConfig(cfg), s.ddbTable), nil

	case s.minioEndpoint != "":
		client, err := miniogo.New(s.minioEndpoint, &miniogo.Options{
			Creds:  credentials.NewStaticV4(os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY"), ""),
			Secure: s.minioSecure,
		})
		if err != nil {
			return nil, err
		}
		store := minio.NewStore(client, s.minioBucket, s.s3Prefix)
		if err := store.EnsureBucket(ctx, ""); err != nil {
			return nil, err
		}
		return store, nil

	case s.dir != "":
		return blobstore.NewLocalStore(s.dir), nil
	}

	return nil, errors.New("one of -dir, -s3-bucket or -minio-endpoint is required")
}
