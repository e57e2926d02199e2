//go:build integration

package publisher

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"
)

type RabbitMQIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *rabbitmq.RabbitMQContainer
	amqpURL   string
}

func (s *RabbitMQIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := rabbitmq.Run(s.ctx,
		"rabbitmq:3.13-management-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").
				WithStartupTimeout(60*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	amqpURL, err := container.AmqpURL(s.ctx)
	s.Require().NoError(err)
	s.amqpURL = amqpURL
}

func (s *RabbitMQIntegrationSuite) TearDownSuite() {
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func TestRabbitMQIntegrationSuite(t *testing.T) {
	suite.Run(t, new(RabbitMQIntegrationSuite))
}

func (s *RabbitMQIntegrationSuite) config(name string) Config {
	return Config{
		URL:        s.amqpURL,
		Exchange:   "reminders-" + name,
		RoutingKey: "reminder.create." + name,
		QueueName:  "reminders-queue-" + name,
	}
}

func (s *RabbitMQIntegrationSuite) TestPublisher_Connection() {
	pub, err := NewRabbitMQ(s.config("conn"), testLogger())
	s.NoError(err)
	s.NotNil(pub)

	s.NoError(pub.Close())
}

func (s *RabbitMQIntegrationSuite) TestPublisher_MessageFormat() {
	cfg := s.config("format")
	pub, err := NewRabbitMQ(cfg, testLogger())
	s.Require().NoError(err)
	defer pub.Close()

	req := testRequest()
	s.Require().NoError(pub.Publish(s.ctx, req))

	msg := s.consumeMessage(cfg)
	s.Require().NotNil(msg)

	s.Equal("application/json", msg.ContentType)
	s.Equal("abc123", msg.MessageId)
	s.Equal(uint8(amqp.Persistent), msg.DeliveryMode)

	var received ReminderMessage
	s.Require().NoError(json.Unmarshal(msg.Body, &received))
	s.Equal("create", received.Action)
	s.Equal("abc123", received.Reminder.ExternalID)
	s.Equal(req.Title, received.Reminder.Title)
	s.Equal("School", received.Reminder.List)
	s.True(req.DueAt.Equal(received.Reminder.DueAt))
	s.False(received.Timestamp.IsZero())
}

func (s *RabbitMQIntegrationSuite) consumeMessage(cfg Config) *amqp.Delivery {
	conn, err := amqp.Dial(s.amqpURL)
	s.Require().NoError(err)
	defer conn.Close()

	ch, err := conn.Channel()
	s.Require().NoError(err)
	defer ch.Close()

	msgs, err := ch.Consume(cfg.QueueName, "", true, false, false, false, nil)
	s.Require().NoError(err)

	select {
	case msg := <-msgs:
		return &msg
	case <-time.After(5 * time.Second):
		s.Fail("Timeout waiting for message")
		return nil
	}
}
