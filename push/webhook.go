package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/hapi-labs/hapi-indexer/config"
	"github.com/hapi-labs/hapi-indexer/entity"
	"github.com/hapi-labs/hapi-indexer/logging"
)

type WebhookPusher struct {
	logger logging.Logger
	url    string
	token  string
	client *http.Client
}

func NewWebhookPusher(logger logging.Logger, cfg *config.PushConfig) *WebhookPusher {
	return &WebhookPusher{
		logger: logger,
		url:    cfg.WebhookURL,
		token:  cfg.BearerToken,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type webhookEvent struct {
	Network     entity.Network   `json:"network"`
	Event       entity.EventName `json:"event"`
	DataKind    string           `json:"data_kind"`
	Data        entity.PushData  `json:"data"`
	Transaction string           `json:"transaction"`
	BlockNumber uint64           `json:"block_number"`
	Timestamp   int64            `json:"timestamp"`
}

func (p *WebhookPusher) Push(ctx context.Context, payload entity.PushPayload) error {
	// transactions without a recorded block time carry a zero timestamp
	var timestamp int64
	if !payload.Timestamp.IsZero() {
		timestamp = payload.Timestamp.Unix()
	}
	body, err := json.Marshal(&webhookEvent{
		Network:     payload.Network,
		Event:       payload.Event,
		DataKind:    payload.Data.DataKind(),
		Data:        payload.Data,
		Transaction: payload.Transaction,
		BlockNumber: payload.BlockNumber,
		Timestamp:   timestamp,
	})
	if err != nil {
		return fmt.Errorf("can't encode push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("can't build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	res, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("can't send push request: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return fmt.Errorf("push request failed with status %d: %s", res.StatusCode, msg)
	}

	p.logger.WithFields(logrus.Fields{
		"event":       payload.Event,
		"network":     payload.Network,
		"transaction": payload.Transaction,
	}).Debug("pushed payload")
	return nil
}
