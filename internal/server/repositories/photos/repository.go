package photos

import (
	"context"

	"github.com/dmitrijs2005/gallerysync/internal/server/models"
)

type Repository interface {
	CreateBare(ctx context.Context, galleryID, userID int64) (*models.Photo, error)
	UpdateLocation(ctx context.Context, photo *models.Photo) error
	GetByID(ctx context.Context, id int64) (*models.Photo, error)
	Delete(ctx context.Context, id int64) error
	DeleteByGallery(ctx context.Context, galleryID int64) (int64, error)
}
