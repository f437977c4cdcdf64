// Package services contains the server-side orchestration of photo objects.
// This file implements UploadService, which gives every uploaded file a
// durable photo id, derives its storage keys and pushes the original and its
// thumbnail to the object store.
package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dmitrijs2005/gallerysync/internal/common"
	"github.com/dmitrijs2005/gallerysync/internal/dbx"
	"github.com/dmitrijs2005/gallerysync/internal/logging"
	"github.com/dmitrijs2005/gallerysync/internal/server/config"
	"github.com/dmitrijs2005/gallerysync/internal/server/executor"
	"github.com/dmitrijs2005/gallerysync/internal/server/models"
	"github.com/dmitrijs2005/gallerysync/internal/server/objectstore"
	"github.com/dmitrijs2005/gallerysync/internal/server/repositories/photos"
	"github.com/dmitrijs2005/gallerysync/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gallerysync/internal/server/storagekey"
)

// ObjectRunner executes a batch of store operations under a concurrency cap.
// *executor.Executor satisfies it.
type ObjectRunner interface {
	Run(ctx context.Context, ops []executor.Operation, maxConcurrency int) ([]executor.Result, error)
}

// ThumbnailRenderer produces the thumbnail bytes and content type of an image.
type ThumbnailRenderer interface {
	Render(data []byte) ([]byte, string, error)
}

// UploadFile is one file of an upload request.
type UploadFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// FileError reports a file of the batch that did not end up stored.
// PhotoID is zero when no row was ever created for the file.
type FileError struct {
	Index    int    `json:"index"`
	Filename string `json:"filename"`
	PhotoID  int64  `json:"photo_id,omitempty"`
	Message  string `json:"error"`
	Err      error  `json:"-"`
}

func newFileError(index int, filename string, photoID int64, err error) *FileError {
	return &FileError{Index: index, Filename: filename, PhotoID: photoID, Message: err.Error(), Err: err}
}

func (e *FileError) Error() string {
	return fmt.Sprintf("file %d (%s): %s", e.Index, e.Filename, e.Message)
}

func (e *FileError) Unwrap() error { return e.Err }

// UploadResult splits a batch into stored photos and per-file failures.
// Both lists follow the order of the request.
type UploadResult struct {
	Uploaded []*models.Photo `json:"uploaded"`
	Failures []*FileError    `json:"failures"`
}

// stagedPhoto is a file whose row and keys exist and whose two puts sit at
// ops[opIndex] (thumbnail) and ops[opIndex+1] (original).
type stagedPhoto struct {
	index   int
	file    UploadFile
	photo   *models.Photo
	keys    storagekey.Keys
	opIndex int
}

type UploadService struct {
	db                dbx.DB
	repomanager       repomanager.RepositoryManager
	runner            ObjectRunner
	renderer          ThumbnailRenderer
	locator           objectstore.Locator
	uploadConcurrency int
	deleteConcurrency int
	logger            logging.Logger
	now               func() time.Time
}

func NewUploadService(db dbx.DB, rm repomanager.RepositoryManager, runner ObjectRunner,
	renderer ThumbnailRenderer, cfg *config.Config, logger logging.Logger) *UploadService {
	return &UploadService{
		db:                db,
		repomanager:       rm,
		runner:            runner,
		renderer:          renderer,
		locator:           objectstore.NewLocator(cfg),
		uploadConcurrency: cfg.UploadConcurrency,
		deleteConcurrency: cfg.DeleteConcurrency,
		logger:            logger,
		now:               time.Now,
	}
}

// Upload stores files as new photos of a gallery owned by ownerID.
//
// Rows are created one file at a time, then every put of the batch is
// submitted to the store at once. A photo is reported as uploaded only when
// both its original and its thumbnail were stored; otherwise its objects and
// row are removed and a FileError is reported. When every put failed the
// result is returned together with an error matching common.ErrBatchFailed.
func (s *UploadService) Upload(ctx context.Context, galleryID, ownerID int64, files []UploadFile) (*UploadResult, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files to upload", common.ErrorValidation)
	}

	gallery, err := s.repomanager.Galleries(s.db).GetByID(ctx, galleryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load gallery %d: %w", galleryID, err)
	}
	if gallery.UserID != ownerID {
		return nil, common.ErrorUnauthorized
	}

	// one date for the whole batch
	date := s.now().UTC()
	repo := s.repomanager.Photos(s.db)

	result := &UploadResult{Uploaded: []*models.Photo{}, Failures: []*FileError{}}
	var (
		staged []stagedPhoto
		ops    []executor.Operation
	)

	for i, f := range files {
		photo, err := repo.CreateBare(ctx, gallery.ID, ownerID)
		if err != nil {
			s.discardRows(ctx, repo, staged)
			return nil, fmt.Errorf("failed to create photo row for file %d: %w", i, err)
		}

		sp, fileOps, err := s.prepare(ctx, repo, gallery.ID, date, photo, f)
		if err != nil {
			s.logger.Warn(ctx, "photo preparation failed", "gallery_id", gallery.ID, "photo_id", photo.ID, "error", err)
			s.removeRow(context.WithoutCancel(ctx), repo, photo.ID)
			result.Failures = append(result.Failures, newFileError(i, f.Filename, photo.ID, err))
			continue
		}

		sp.index = i
		sp.opIndex = len(ops)
		staged = append(staged, sp)
		ops = append(ops, fileOps...)
	}

	if len(ops) == 0 {
		return result, nil
	}

	results, runErr := s.runner.Run(ctx, ops, s.uploadConcurrency)

	var failed []stagedPhoto
	for _, sp := range staged {
		if err := firstError(results[sp.opIndex], results[sp.opIndex+1]); err != nil {
			failed = append(failed, sp)
			result.Failures = append(result.Failures, newFileError(sp.index, sp.file.Filename, sp.photo.ID, err))
			continue
		}
		result.Uploaded = append(result.Uploaded, sp.photo)
	}

	if len(failed) > 0 {
		s.cleanup(ctx, repo, failed)
	}

	slices.SortFunc(result.Failures, func(a, b *FileError) int { return cmp.Compare(a.Index, b.Index) })

	s.logger.Info(ctx, "photos uploaded",
		"gallery_id", gallery.ID, "uploaded", len(result.Uploaded), "failed", len(result.Failures))

	if runErr != nil {
		return result, fmt.Errorf("failed to upload photos to gallery %d: %w", gallery.ID, runErr)
	}
	return result, nil
}

// prepare is the second step for a file whose row already exists: it fills
// in the filename and URLs, renders the thumbnail and returns the two puts.
func (s *UploadService) prepare(ctx context.Context, repo photos.Repository, galleryID int64,
	date time.Time, photo *models.Photo, f UploadFile) (stagedPhoto, []executor.Operation, error) {
	keys := storagekey.Derive(galleryID, photo.ID, date, storagekey.Ext(f.Filename))

	photo.Filename = keys.Filename
	photo.FullSizeURL = s.locator.URL(keys.FullSize)
	photo.ThumbnailURL = s.locator.URL(keys.Thumbnail)

	if err := repo.UpdateLocation(ctx, photo); err != nil {
		return stagedPhoto{}, nil, fmt.Errorf("failed to save photo location: %w", err)
	}

	thumb, thumbType, err := s.renderer.Render(f.Data)
	if err != nil {
		return stagedPhoto{}, nil, fmt.Errorf("failed to render thumbnail: %w", err)
	}

	ops := []executor.Operation{
		executor.Put(keys.Thumbnail, thumb, thumbType, true),
		executor.Put(keys.FullSize, f.Data, contentType(f), true),
	}
	return stagedPhoto{file: f, photo: photo, keys: keys}, ops, nil
}

// cleanup removes the objects and rows of photos whose puts did not all
// succeed. It runs even if the request context is already cancelled.
func (s *UploadService) cleanup(ctx context.Context, repo photos.Repository, failed []stagedPhoto) {
	ctx = context.WithoutCancel(ctx)

	ops := make([]executor.Operation, 0, 2*len(failed))
	for _, sp := range failed {
		ops = append(ops, executor.Delete(sp.keys.Thumbnail), executor.Delete(sp.keys.FullSize))
	}

	results, _ := s.runner.Run(ctx, ops, s.deleteConcurrency)
	for _, r := range results {
		if r.Err != nil {
			s.logger.Warn(ctx, "orphaned object left in store", "key", r.Operation.Key, "error", r.Err)
		}
	}

	for _, sp := range failed {
		s.removeRow(ctx, repo, sp.photo.ID)
	}
}

// discardRows drops rows of files staged before the request was aborted.
// No store operation has run for them yet.
func (s *UploadService) discardRows(ctx context.Context, repo photos.Repository, staged []stagedPhoto) {
	ctx = context.WithoutCancel(ctx)
	for _, sp := range staged {
		s.removeRow(ctx, repo, sp.photo.ID)
	}
}

func (s *UploadService) removeRow(ctx context.Context, repo photos.Repository, id int64) {
	if err := repo.Delete(ctx, id); err != nil && !errors.Is(err, common.ErrorNotFound) {
		s.logger.Error(ctx, "failed to remove photo row", "photo_id", id, "error", err)
	}
}

func firstError(results ...executor.Result) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}

func contentType(f UploadFile) string {
	if f.ContentType != "" {
		return f.ContentType
	}
	if storagekey.Ext(f.Filename) == "png" {
		return "image/png"
	}
	return "image/jpeg"
}
