package photos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gallerysync/internal/common"
	"github.com/dmitrijs2005/gallerysync/internal/dbx"
	"github.com/dmitrijs2005/gallerysync/internal/server/models"
)

// PostgresRepository implements photo storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreateBare inserts a photo row with only its owner and gallery set and
// returns it with the database-assigned id.
func (r *PostgresRepository) CreateBare(ctx context.Context, galleryID, userID int64) (*models.Photo, error) {
	query := `
		INSERT INTO photos (gallery_id, user_id)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	photo := &models.Photo{GalleryID: galleryID, UserID: userID}
	if err := r.db.QueryRowContext(ctx, query, galleryID, userID).Scan(&photo.ID, &photo.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return photo, nil
}

// UpdateLocation stores the derived filename and public URLs of a photo.
// Exactly one row must be affected.
func (r *PostgresRepository) UpdateLocation(ctx context.Context, photo *models.Photo) error {
	query := `UPDATE photos SET filename=$1, full_size_url=$2, thumbnail_url=$3 WHERE id=$4`
	res, err := r.db.ExecContext(ctx, query, photo.Filename, photo.FullSizeURL, photo.ThumbnailURL, photo.ID)
	if err != nil {
		return fmt.Errorf("failed to update photo: %w", err)
	}
	return expectOneRow(res)
}

// GetByID returns a photo or common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Photo, error) {
	query := `
		SELECT id, gallery_id, user_id, filename, full_size_url, thumbnail_url, created_at FROM photos
		WHERE id=$1
	`
	var photo models.Photo
	var filename, fullURL, thumbURL sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&photo.ID, &photo.GalleryID, &photo.UserID, &filename, &fullURL, &thumbURL, &photo.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select photo: %w", err)
	}
	photo.Filename = filename.String
	photo.FullSizeURL = fullURL.String
	photo.ThumbnailURL = thumbURL.String
	return &photo, nil
}

// Delete removes a photo row. A missing row yields common.ErrorNotFound.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM photos WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	return expectOneRow(res)
}

// DeleteByGallery removes every photo row of a gallery and reports how many
// rows went away.
func (r *PostgresRepository) DeleteByGallery(ctx context.Context, galleryID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM photos WHERE gallery_id=$1`, galleryID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete gallery photos: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
