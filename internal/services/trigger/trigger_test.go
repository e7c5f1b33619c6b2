package trigger

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mkravtsov/subtrack/internal/lib/rabbitmq"
	"github.com/mkravtsov/subtrack/internal/models"
)

type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestTrigger_PublishesSubscriptionID(t *testing.T) {
	channel := new(MockChannel)
	var published amqp.Publishing
	channel.On("Publish", rabbitmq.Exchange, rabbitmq.TriggerRoutingKey, false, false, mock.Anything).
		Run(func(args mock.Arguments) {
			published = args.Get(4).(amqp.Publishing)
		}).
		Return(nil).Once()

	client := New(channel, newNoopLogger())

	runID, err := client.Trigger(context.Background(), "sub-123")
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	var msg models.TriggerMessage
	require.NoError(t, json.Unmarshal(published.Body, &msg))
	assert.Equal(t, "sub-123", msg.SubscriptionID)
	assert.Equal(t, uint8(amqp.Persistent), published.DeliveryMode)
	channel.AssertExpectations(t)
}

func TestTrigger_PublishError(t *testing.T) {
	channel := new(MockChannel)
	channel.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("broker unavailable")).Once()

	client := New(channel, newNoopLogger())

	runID, err := client.Trigger(context.Background(), "sub-123")
	assert.Error(t, err)
	assert.Empty(t, runID)
}
