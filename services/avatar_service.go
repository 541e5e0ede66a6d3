package services

import (
	"context"
	"devQuestAPI/internal/apperr"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// AvatarService keeps exactly one avatar object per user in a GCS bucket.
// Uploads overwrite: the old object is removed before the new one is
// written, so no orphaned blobs accumulate.
type AvatarService struct {
	client    *storage.Client
	bucket    string
	cdnDomain string
}

// NewAvatarService builds the storage client. Credentials come from the
// GCP_SERVICE_ACCOUNT_JSON environment variable (base64 encoded), falling
// back to application default credentials.
func NewAvatarService(ctx context.Context) (*AvatarService, error) {
	bucket := os.Getenv("AVATAR_GCS_BUCKET_NAME")
	if bucket == "" {
		return nil, fmt.Errorf("AVATAR_GCS_BUCKET_NAME environment variable is not set")
	}

	var opts []option.ClientOption
	if encoded := os.Getenv("GCP_SERVICE_ACCOUNT_JSON"); encoded != "" {
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 GCP credentials: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(decoded))
	}
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &AvatarService{
		client:    client,
		bucket:    bucket,
		cdnDomain: os.Getenv("AVATAR_CDN_DOMAIN"),
	}, nil
}

func (s *AvatarService) objectKey(userID string) string {
	return "avatars/" + userID
}

// Upload replaces the user's avatar object and returns its public address.
func (s *AvatarService) Upload(ctx context.Context, userID string, file io.Reader, contentType string) (string, error) {
	key := s.objectKey(userID)
	obj := s.client.Bucket(s.bucket).Object(key)

	// Old object goes first so a half-failed upload can't leave two blobs.
	if err := obj.Delete(ctx); err != nil && err != storage.ErrObjectNotExist {
		return "", fmt.Errorf("%w: failed to remove old avatar: %v", apperr.ErrPersistence, err)
	}

	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("%w: failed to upload avatar: %v", apperr.ErrPersistence, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("%w: failed to upload avatar: %v", apperr.ErrPersistence, err)
	}

	return s.PublicURL(userID), nil
}

// Remove deletes the user's avatar object. A missing object is not an error.
func (s *AvatarService) Remove(ctx context.Context, userID string) error {
	obj := s.client.Bucket(s.bucket).Object(s.objectKey(userID))
	if err := obj.Delete(ctx); err != nil && err != storage.ErrObjectNotExist {
		return fmt.Errorf("%w: failed to delete avatar: %v", apperr.ErrPersistence, err)
	}
	log.Printf("AvatarService: removed avatar for user %s", userID)
	return nil
}

func (s *AvatarService) PublicURL(userID string) string {
	key := s.objectKey(userID)
	if s.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", s.cdnDomain, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, key)
}
