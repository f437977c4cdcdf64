package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gallerysync/internal/dbx"
	"github.com/dmitrijs2005/gallerysync/internal/server/repositories/galleries"
	"github.com/dmitrijs2005/gallerysync/internal/server/repositories/photos"
)

// RepositoryManager vends repositories bound to a connection or transaction,
// so one service call can use the same repositories inside and outside dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Galleries(db dbx.DBTX) galleries.Repository
	Photos(db dbx.DBTX) photos.Repository
}
