// Package storage archives call recordings into S3-compatible object storage
// so they outlive the voice platform's retention window.
package storage

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/emmanuel582/backendtablenow/platform/config"
	"github.com/emmanuel582/backendtablenow/platform/logger"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// PresignedURLTTL is the expiration for presigned recording download links.
const PresignedURLTTL = 15 * time.Minute

// RecordingArchive stores call recordings in MinIO, keyed per tenant.
type RecordingArchive struct {
	client *minio.Client
	bucket string
	http   *http.Client
	log    *logger.Logger
}

// NewRecordingArchive creates the archive and its MinIO client.
func NewRecordingArchive(cfg config.StorageConfig, log *logger.Logger) (*RecordingArchive, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("minio is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &RecordingArchive{
		client: client,
		bucket: cfg.GetMinioBucketCallRecordings(),
		http:   &http.Client{Timeout: 60 * time.Second},
		log:    log,
	}, nil
}

// EnsureBucket creates the recordings bucket if it doesn't exist.
func (a *RecordingArchive) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
		}
	}
	return nil
}

// ArchiveFromURL fetches the recording the voice platform hosts and stores it
// under <tenantID>/<callID>.<ext>, returning the object key. The source URL is
// short-lived on the provider side, so this runs right after the call ends.
func (a *RecordingArchive) ArchiveFromURL(ctx context.Context, tenantID uuid.UUID, callID, recordingURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, recordingURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch recording: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("fetch recording: provider returned %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/wav"
	}
	key := fmt.Sprintf("%s/%s%s", tenantID, callID, extensionFor(contentType, recordingURL))

	_, err = a.client.PutObject(ctx, a.bucket, key, resp.Body, resp.ContentLength, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload recording %s: %w", key, err)
	}
	return key, nil
}

// DownloadURL returns a presigned GET link for an archived recording.
func (a *RecordingArchive) DownloadURL(ctx context.Context, key string) (string, time.Time, error) {
	expiresAt := time.Now().Add(PresignedURLTTL)
	presigned, err := a.client.PresignedGetObject(ctx, a.bucket, key, PresignedURLTTL, url.Values{})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate presigned download URL: %w", err)
	}
	return presigned.String(), expiresAt, nil
}

func extensionFor(contentType, sourceURL string) string {
	switch contentType {
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "audio/ogg":
		return ".ogg"
	}
	if ext := path.Ext(sourceURL); ext != "" && len(ext) <= 5 {
		return ext
	}
	return ".bin"
}
