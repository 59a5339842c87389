package attachment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/narendra12543/Matrimony-Web-App-sub000/pkg/constants"
	apperrors "github.com/narendra12543/Matrimony-Web-App-sub000/pkg/errors"
)

// Service issues presigned URLs for message attachments. Clients upload
// directly to object storage and the resulting object key travels on the
// message as its file_ref; this service never proxies file bytes.
type Service struct {
	minioClient *minio.Client
	bucketName  string
}

// Config holds object storage connection settings
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewService creates the attachment service and ensures the bucket exists
func NewService(cfg *Config) (*Service, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx := context.Background()
	exists, err := minioClient.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := minioClient.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &Service{
		minioClient: minioClient,
		bucketName:  cfg.Bucket,
	}, nil
}

// UploadURLOutput contains a presigned upload URL and the file_ref to put
// on the message once the upload completes
type UploadURLOutput struct {
	FileRef   string    `json:"file_ref"`
	UploadURL string    `json:"upload_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// GenerateUploadURL creates a presigned PUT URL scoped under the uploader
func (s *Service) GenerateUploadURL(ctx context.Context, userID uuid.UUID, fileName string) (*UploadURLOutput, error) {
	objectKey := fmt.Sprintf("attachments/%s/%s/%s", userID, uuid.New(), sanitizeFileName(fileName))

	presignedURL, err := s.minioClient.PresignedPutObject(ctx, s.bucketName, objectKey, constants.PresignedURLExpiry)
	if err != nil {
		return nil, apperrors.StorageError(err)
	}

	return &UploadURLOutput{
		FileRef:   objectKey,
		UploadURL: presignedURL.String(),
		ExpiresAt: time.Now().Add(constants.PresignedURLExpiry),
	}, nil
}

// GenerateDownloadURL creates a presigned GET URL for a stored attachment
func (s *Service) GenerateDownloadURL(ctx context.Context, fileRef string) (string, error) {
	if fileRef == "" || strings.Contains(fileRef, "..") {
		return "", apperrors.ValidationError("invalid file reference")
	}

	presignedURL, err := s.minioClient.PresignedGetObject(ctx, s.bucketName, fileRef, time.Hour, nil)
	if err != nil {
		return "", apperrors.StorageError(err)
	}

	return presignedURL.String(), nil
}

func sanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" {
		name = "file"
	}
	return name
}
