package galleries

import (
	"context"

	"github.com/dmitrijs2005/gallerysync/internal/server/models"
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (*models.Gallery, error)
	Delete(ctx context.Context, id int64) error
}
