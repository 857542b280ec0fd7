package repository

import (
	"github.com/hapi-labs/hapi-indexer/db"
	"github.com/hapi-labs/hapi-indexer/entity"
	"github.com/hapi-labs/hapi-indexer/repository/postgres"
)

type Repo struct {
	Cursors entity.CursorsRepo
}

func NewRepo(db *db.DB) *Repo {
	return &Repo{
		Cursors: postgres.NewCursorsRepo("indexing_cursors", db),
	}
}
