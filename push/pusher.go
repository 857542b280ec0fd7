package push

import (
	"context"

	"github.com/hapi-labs/hapi-indexer/entity"
)

// Pusher delivers normalized payloads downstream. Delivery is at-least-once:
// a failed iteration replays its whole page, so implementations must
// tolerate repeated payloads with identical provenance.
type Pusher interface {
	Push(ctx context.Context, payload entity.PushPayload) error
}
