// Package minio stores tree snapshots on MinIO or any other S3-compatible
// server (Ceph, Garage, SeaweedFS) through the MinIO Go client.
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	store := minioblob.NewStore(client, "snapshots", "airports/")
//	idx, err := kdgo.OpenCurrent[float64, airport.Airport](ctx, store)
package minio
