package galleries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gallerysync/internal/common"
	"github.com/dmitrijs2005/gallerysync/internal/dbx"
	"github.com/dmitrijs2005/gallerysync/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Gallery, error) {
	query := `
		SELECT id, title, description, user_id, created_at FROM galleries
		WHERE id=$1
	`

	g := &models.Gallery{}
	var description sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(&g.ID, &g.Title, &description, &g.UserID, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select gallery: %w", err)
	}
	if description.Valid {
		g.Description = &description.String
	}

	return g, nil
}

// Delete removes the gallery row; photo rows follow through ON DELETE CASCADE.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM galleries WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete gallery: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return common.ErrorNotFound
	}

	return nil
}
