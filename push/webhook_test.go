package push_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hapi-labs/hapi-indexer/config"
	"github.com/hapi-labs/hapi-indexer/entity"
	"github.com/hapi-labs/hapi-indexer/logging"
	"github.com/hapi-labs/hapi-indexer/push"
)

func testPayload() entity.PushPayload {
	return entity.PushPayload{
		Network: entity.NetworkEthereum,
		Event:   entity.EventCreateAddress,
		Data: entity.Address{
			Address:       "0x0000000000000000000000000000000000000001",
			CaseID:        uuid.MustParse("00000000-0000-0000-0000-000000000007"),
			ReporterID:    uuid.MustParse("00000000-0000-0000-0000-000000000003"),
			Risk:          5,
			Category:      entity.CategoryMerchantService,
			Confirmations: 1,
		},
		Transaction: "0xabc",
		BlockNumber: 123,
		Timestamp:   time.Unix(1700000000, 0).UTC(),
	}
}

func TestWebhookPusher_Push(t *testing.T) {
	t.Parallel()

	var gotAuth, gotContentType string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	pusher := push.NewWebhookPusher(logging.New(), &config.PushConfig{
		WebhookURL:  server.URL,
		BearerToken: "secret",
		Timeout:     time.Second,
	})

	require.NoError(t, pusher.Push(context.Background(), testPayload()))
	require.Equal(t, "Bearer secret", gotAuth)
	require.Equal(t, "application/json", gotContentType)

	var event map[string]interface{}
	require.NoError(t, json.Unmarshal(gotBody, &event))
	require.Equal(t, "ethereum", event["network"])
	require.Equal(t, "CreateAddress", event["event"])
	require.Equal(t, "address", event["data_kind"])
	require.Equal(t, "0xabc", event["transaction"])
	require.EqualValues(t, 123, event["block_number"])
	require.EqualValues(t, 1700000000, event["timestamp"])

	data, ok := event["data"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "0x0000000000000000000000000000000000000001", data["address"])
	require.Equal(t, "00000000-0000-0000-0000-000000000007", data["case_id"])
	require.Equal(t, "merchant_service", data["category"])
	require.EqualValues(t, 5, data["risk"])
}

func TestWebhookPusher_PushWithoutBlockTime(t *testing.T) {
	t.Parallel()

	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	pusher := push.NewWebhookPusher(logging.New(), &config.PushConfig{
		WebhookURL: server.URL,
		Timeout:    time.Second,
	})

	payload := testPayload()
	payload.Timestamp = time.Time{}
	require.NoError(t, pusher.Push(context.Background(), payload))

	var event map[string]interface{}
	require.NoError(t, json.Unmarshal(gotBody, &event))
	require.EqualValues(t, 0, event["timestamp"])
}

func TestWebhookPusher_PushWithoutToken(t *testing.T) {
	t.Parallel()

	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	pusher := push.NewWebhookPusher(logging.New(), &config.PushConfig{
		WebhookURL: server.URL,
		Timeout:    time.Second,
	})
	require.NoError(t, pusher.Push(context.Background(), testPayload()))
	require.Empty(t, gotAuth)
}

func TestWebhookPusher_PushFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "broken pipe", http.StatusInternalServerError)
	}))
	defer server.Close()

	pusher := push.NewWebhookPusher(logging.New(), &config.PushConfig{
		WebhookURL: server.URL,
		Timeout:    time.Second,
	})
	err := pusher.Push(context.Background(), testPayload())
	require.Error(t, err)
	require.Contains(t, err.Error(), "500")
	require.Contains(t, err.Error(), "broken pipe")
}
