package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/hapi-labs/hapi-indexer/db"
	"github.com/hapi-labs/hapi-indexer/entity"
)

type cursorsRepo basePostgresRepo

func NewCursorsRepo(table string, db *db.DB) entity.CursorsRepo {
	return (*cursorsRepo)(newBasePostgresRepo(table, db))
}

func (r *cursorsRepo) Ensure(ctx context.Context, network entity.Network, address string, cursor entity.Cursor) error {
	q, args, err := sq.Insert(r.table).
		Columns("network", "address", "kind", "block_number", "transaction_hash").
		Values(network, address, cursor.Kind, cursor.BlockNumber, cursor.Transaction).
		Suffix("ON CONFLICT (network, address) DO UPDATE SET updated_at = NOW(), kind = EXCLUDED.kind, block_number = EXCLUDED.block_number, transaction_hash = EXCLUDED.transaction_hash").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't insert indexing cursor: %w", err)
	}
	return nil
}

func (r *cursorsRepo) GetByNetworkAndAddress(ctx context.Context, network entity.Network, address string) (entity.Cursor, error) {
	q, args, err := sq.Select("kind", "block_number", "transaction_hash").
		From(r.table).
		Where(sq.Eq{"network": network, "address": address}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return entity.NoneCursor(), fmt.Errorf("can't build query: %w", err)
	}
	cursor := new(entity.Cursor)
	err = r.db.GetContext(ctx, cursor, q, args...)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return entity.NoneCursor(), db.ErrNotFound
		}
		return entity.NoneCursor(), fmt.Errorf("can't get indexing cursor by network and address: %w", err)
	}
	return *cursor, nil
}
