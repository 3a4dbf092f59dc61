package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	storage_go "github.com/supabase-community/storage-go"
	"github.com/supabase-community/supabase-go"
)

// SupabaseStorage keeps documents in a Supabase Storage bucket.
type SupabaseStorage struct {
	client *storage_go.Client
	bucket string
	// storage-go writes file options into headers shared by every request.
	mu sync.Mutex
}

// NewSupabaseStorage connects to a Supabase project and targets bucket.
func NewSupabaseStorage(url, key, bucket string) (*SupabaseStorage, error) {
	if url == "" || key == "" {
		return nil, fmt.Errorf("supabase url and key must be provided")
	}
	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return newSupabaseStorage(client.Storage, bucket), nil
}

func newSupabaseStorage(client *storage_go.Client, bucket string) *SupabaseStorage {
	if bucket == "" {
		bucket = "archive"
	}
	return &SupabaseStorage{client: client, bucket: bucket}
}

// Name identifies the provider on persisted file rows.
func (s *SupabaseStorage) Name() string { return ProviderSupabase }

// Put uploads r under key.
func (s *SupabaseStorage) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if contentType == "" {
		contentType = "application/pdf"
	}
	upsert := false
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.client.UploadFile(s.bucket, key, r, storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	}); err != nil {
		return fmt.Errorf("upload to supabase: %w", err)
	}
	return nil
}

// Open downloads key into memory; documents are capped by the upload size limit.
func (s *SupabaseStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	data, err := s.client.DownloadFile(s.bucket, key)
	s.mu.Unlock()
	if err != nil {
		if isStorageNotFound(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("download from supabase: %w", err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete removes key from the bucket.
func (s *SupabaseStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	_, err := s.client.RemoveFile(s.bucket, []string{key})
	s.mu.Unlock()
	if err != nil {
		if isStorageNotFound(err) {
			return nil
		}
		return fmt.Errorf("remove from supabase: %w", err)
	}
	return nil
}

// PublicURL returns the bucket's public object URL.
func (s *SupabaseStorage) PublicURL(key string, download bool) string {
	return s.client.GetPublicUrl(s.bucket, key, storage_go.UrlOptions{Download: download}).SignedURL
}

func isStorageNotFound(err error) bool {
	var storageErr *storage_go.StorageError
	if !errors.As(err, &storageErr) {
		return false
	}
	return storageErr.Status == http.StatusNotFound || strings.Contains(strings.ToLower(storageErr.Message), "not found")
}
