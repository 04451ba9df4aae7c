package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/oparl-sync/internal/config"
)

func TestNewPublisher(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     config.NotifyConfig
		wantLog bool
		wantErr string
	}{
		{name: "empty type defaults to log", cfg: config.NotifyConfig{}, wantLog: true},
		{name: "log", cfg: config.NotifyConfig{Type: config.NotifyTypeLog}, wantLog: true},
		{
			name:    "rabbitmq without section",
			cfg:     config.NotifyConfig{Type: config.NotifyTypeRabbitMQ},
			wantErr: "requires a rabbitmq section",
		},
		{
			name:    "unknown type",
			cfg:     config.NotifyConfig{Type: "kafka"},
			wantErr: "unsupported notify type: kafka",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pub, err := NewPublisher(tt.cfg)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			_, isLog := pub.(*LogPublisher)
			assert.Equal(t, tt.wantLog, isLog)
			assert.NoError(t, pub.Close())
		})
	}
}

func TestLogPublisher_Publish(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	pub := NewLogPublisher(slog.New(slog.NewJSONHandler(&buf, nil)))

	event := ChangeEvent{
		ID:         uuid.New(),
		RunID:      uuid.New(),
		SourceID:   "ratsinfo",
		Kind:       "MEETING",
		ExternalID: "https://example.org/oparl/meeting/7",
		Action:     ActionDeleted,
		OccurredAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, pub.Publish(context.Background(), []ChangeEvent{event}))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "Entity changed", record["msg"])
	assert.Equal(t, "ratsinfo", record["source"])
	assert.Equal(t, "MEETING", record["kind"])
	assert.Equal(t, ActionDeleted, record["action"])
	assert.Equal(t, event.ID.String(), record["event_id"])
}
