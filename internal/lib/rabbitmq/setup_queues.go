// Package rabbitmq contains helpers for connecting to RabbitMQ, declaring
// the reminder queues and publishing and consuming messages.
package rabbitmq

// Exchange is the direct exchange carrying all reminder traffic.
const Exchange = "reminders"

// Queue and routing key names for the reminder pipeline.
const (
	TriggerQueue      = "reminder.trigger"
	TriggerRoutingKey = "trigger"
	SendQueue         = "reminder.send"
	SendRoutingKey    = "send"
)

// QueueConfig binds a durable queue to a routing key on the exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetReminderQueues returns the queues set up by every reminder binary:
// trigger messages from subscription creation and send commands from the
// engine to the sender.
func GetReminderQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: TriggerQueue, RoutingKey: TriggerRoutingKey},
		{QueueName: SendQueue, RoutingKey: SendRoutingKey},
	}
}
