package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ImportBucket holds raw import payloads as uploaded, before any parsing.
const ImportBucket = "ddq-imports"

// ArchiveService stores raw import uploads in object storage so a failed or
// disputed import can be replayed from the original bytes.
type ArchiveService interface {
	ArchiveImport(ctx context.Context, tenantID uuid.UUID, filename string, payload []byte) (string, error)
	GetPresignedURL(bucketName, objectName string, expiry time.Duration) (string, error)
	EnsureBucketExists(ctx context.Context, bucketName string) error
}

type minioArchive struct {
	client *minio.Client
}

func NewArchiveService(endpoint, accessKey, secretKey string, useSSL bool) (ArchiveService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &minioArchive{client: client}, nil
}

// ArchiveImport writes the payload under <tenant>/<timestamp>-<filename> and
// returns the object name.
func (m *minioArchive) ArchiveImport(ctx context.Context, tenantID uuid.UUID, filename string, payload []byte) (string, error) {
	objectName := fmt.Sprintf("%s/%d-%s", tenantID.String(), time.Now().UTC().Unix(), filename)
	_, err := m.client.PutObject(ctx, ImportBucket, objectName, bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return "", err
	}
	return objectName, nil
}

func (m *minioArchive) GetPresignedURL(bucketName, objectName string, expiry time.Duration) (string, error) {
	url, err := m.client.PresignedGetObject(context.Background(), bucketName, objectName, expiry, nil)
	if err != nil {
		return "", err
	}
	return url.String(), nil
}

func (m *minioArchive) EnsureBucketExists(ctx context.Context, bucketName string) error {
	found, err := m.client.BucketExists(ctx, bucketName)
	if err != nil {
		return err
	}
	if !found {
		return m.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{})
	}
	return nil
}
