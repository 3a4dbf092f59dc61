package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/univ-archive/pkg/jobs"
)

// JobBlobDelete removes the blob of a soft-deleted file.
const JobBlobDelete = "blob.delete"

// BlobRef addresses a stored blob.
type BlobRef struct {
	Provider string `json:"provider"`
	Key      string `json:"key"`
}

// HandleBlobDelete is the queue handler for JobBlobDelete.
func (s *FileService) HandleBlobDelete(ctx context.Context, job jobs.Job) error {
	ref, ok := job.Payload.(BlobRef)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", job.Payload, job.Type)
	}
	err := s.removeBlob(ctx, ref)
	s.metrics.RecordBlobCleanup(err)
	if err != nil {
		s.logger.Warn("blob cleanup failed",
			zap.String("file_id", job.ID),
			zap.String("key", ref.Key),
			zap.Int("attempt", job.Attempt),
			zap.Error(err),
		)
		return err
	}
	s.logger.Debug("blob removed", zap.String("file_id", job.ID), zap.String("key", ref.Key))
	return nil
}

func (s *FileService) removeBlob(ctx context.Context, ref BlobRef) error {
	provider, err := s.storage.Get(ref.Provider)
	if err != nil {
		return err
	}
	return provider.Delete(ctx, ref.Key)
}

func (s *FileService) removeBlobNow(ctx context.Context, ref BlobRef) {
	err := s.removeBlob(ctx, ref)
	s.metrics.RecordBlobCleanup(err)
	if err != nil {
		s.logger.Warn("blob cleanup failed", zap.String("key", ref.Key), zap.Error(err))
	}
}
