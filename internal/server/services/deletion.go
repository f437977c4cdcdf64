package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gallerysync/internal/common"
	"github.com/dmitrijs2005/gallerysync/internal/dbx"
	"github.com/dmitrijs2005/gallerysync/internal/logging"
	"github.com/dmitrijs2005/gallerysync/internal/server/config"
	"github.com/dmitrijs2005/gallerysync/internal/server/executor"
	"github.com/dmitrijs2005/gallerysync/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gallerysync/internal/server/storagekey"
)

// DeletionService removes photos and galleries. Remote objects are always
// removed before the rows that reference them.
type DeletionService struct {
	db                dbx.DB
	repomanager       repomanager.RepositoryManager
	runner            ObjectRunner
	deleteConcurrency int
	logger            logging.Logger
}

func NewDeletionService(db dbx.DB, rm repomanager.RepositoryManager, runner ObjectRunner,
	cfg *config.Config, logger logging.Logger) *DeletionService {
	return &DeletionService{
		db:                db,
		repomanager:       rm,
		runner:            runner,
		deleteConcurrency: cfg.DeleteConcurrency,
		logger:            logger,
	}
}

// DeletePhoto deletes the thumbnail and original of a photo, then its row.
//
// If both remote deletes fail the row is kept and the error matches
// common.ErrBatchFailed. If only one fails the row is still deleted and the
// remaining object is logged as an orphan. A photo that never got a filename
// has no objects and only loses its row.
func (s *DeletionService) DeletePhoto(ctx context.Context, photoID, requesterID int64) error {
	repo := s.repomanager.Photos(s.db)

	photo, err := repo.GetByID(ctx, photoID)
	if err != nil {
		return fmt.Errorf("failed to load photo %d: %w", photoID, err)
	}
	if photo.UserID != requesterID {
		return common.ErrorUnauthorized
	}

	if photo.Filename != "" {
		keys := storagekey.ForPhoto(photo.GalleryID, photo.Filename)
		ops := []executor.Operation{
			executor.Delete(keys.Thumbnail),
			executor.Delete(keys.FullSize),
		}

		results, err := s.runner.Run(ctx, ops, s.deleteConcurrency)
		if err != nil {
			return fmt.Errorf("failed to delete objects of photo %d: %w", photoID, err)
		}
		for _, r := range results {
			if r.Err != nil {
				s.logger.Warn(ctx, "orphaned object left in store",
					"photo_id", photoID, "key", r.Operation.Key, "error", r.Err)
			}
		}
	}

	if err := repo.Delete(ctx, photoID); err != nil {
		return fmt.Errorf("failed to delete photo %d: %w", photoID, err)
	}

	s.logger.Info(ctx, "photo deleted", "photo_id", photoID, "gallery_id", photo.GalleryID)
	return nil
}

// DeleteGallery deletes every object under the gallery prefix, then the
// gallery row and its photo rows in one transaction. If the prefix delete
// fails nothing is removed from the database.
func (s *DeletionService) DeleteGallery(ctx context.Context, galleryID, requesterID int64) error {
	gallery, err := s.repomanager.Galleries(s.db).GetByID(ctx, galleryID)
	if err != nil {
		return fmt.Errorf("failed to load gallery %d: %w", galleryID, err)
	}
	if gallery.UserID != requesterID {
		return common.ErrorUnauthorized
	}

	ops := []executor.Operation{executor.DeletePrefix(storagekey.GalleryPrefix(galleryID))}
	if _, err := s.runner.Run(ctx, ops, 1); err != nil {
		return fmt.Errorf("failed to delete objects of gallery %d: %w", galleryID, err)
	}

	var removed int64
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		n, err := s.repomanager.Photos(tx).DeleteByGallery(ctx, galleryID)
		if err != nil {
			return err
		}
		removed = n
		return s.repomanager.Galleries(tx).Delete(ctx, galleryID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete gallery %d: %w", galleryID, err)
	}

	s.logger.Info(ctx, "gallery deleted", "gallery_id", galleryID, "photos", removed)
	return nil
}
