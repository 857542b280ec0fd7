package entity

import (
	"context"
	"fmt"
)

type CursorKind string

const (
	CursorNone        CursorKind = "none"
	CursorBlock       CursorKind = "block"
	CursorTransaction CursorKind = "transaction"
)

// Cursor is an opaque resume position of a single network/contract pair.
// Block cursors hold the first block that has not been queried yet,
// transaction cursors hold the most recent consumed signature. A committed
// cursor never moves backwards under its network's own ordering.
type Cursor struct {
	Kind        CursorKind `db:"kind"`
	BlockNumber uint64     `db:"block_number"`
	Transaction string     `db:"transaction_hash"`
}

func NoneCursor() Cursor {
	return Cursor{Kind: CursorNone}
}

func BlockCursor(number uint64) Cursor {
	return Cursor{Kind: CursorBlock, BlockNumber: number}
}

func TransactionCursor(reference string) Cursor {
	return Cursor{Kind: CursorTransaction, Transaction: reference}
}

func (c Cursor) IsNone() bool {
	return c.Kind == CursorNone || c.Kind == ""
}

func (c Cursor) String() string {
	switch c.Kind {
	case CursorBlock:
		return fmt.Sprintf("block(%d)", c.BlockNumber)
	case CursorTransaction:
		return fmt.Sprintf("transaction(%s)", c.Transaction)
	default:
		return "none"
	}
}

type CursorsRepo interface {
	Ensure(ctx context.Context, network Network, address string, cursor Cursor) error
	GetByNetworkAndAddress(ctx context.Context, network Network, address string) (Cursor, error)
}
