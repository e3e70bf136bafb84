// Package eventbus provides the message bus used for notifications and
// chat-bot commands: NATS in production, an in-process channel otherwise.
package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nkeys"
)

// EventBus publishes and subscribes watermill messages.
type EventBus interface {
	Publish(topic string, messages ...*message.Message) error
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
	Close() error
}

// NATSConfig describes the NATS connection.
type NATSConfig struct {
	URL string
	// NKeySeed authenticates the connection with an nkey user seed when set.
	NKeySeed   string
	QueueGroup string
}

type natsBus struct {
	publisher  *wmnats.Publisher
	subscriber *wmnats.Subscriber
	logger     *slog.Logger
}

// NewNATSEventBus connects a watermill publisher and subscriber to NATS core
// subjects. Subscribers share QueueGroup so each command is handled once per
// deployment.
func NewNATSEventBus(cfg NATSConfig, logger *slog.Logger) (EventBus, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("nats url is required")
	}

	options := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.Name("opsboard"),
	}
	if cfg.NKeySeed != "" {
		opt, err := nkeyOption(cfg.NKeySeed)
		if err != nil {
			return nil, err
		}
		options = append(options, opt)
	}

	wmLogger := watermill.NewSlogLogger(logger)
	marshaler := &wmnats.NATSMarshaler{}
	jsConfig := wmnats.JetStreamConfig{Disabled: true}

	publisher, err := wmnats.NewPublisher(wmnats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: options,
		Marshaler:   marshaler,
		JetStream:   jsConfig,
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create NATS publisher: %w", err)
	}

	queueGroup := cfg.QueueGroup
	if queueGroup == "" {
		queueGroup = "opsboard"
	}

	subscriber, err := wmnats.NewSubscriber(wmnats.SubscriberConfig{
		URL:              cfg.URL,
		QueueGroupPrefix: queueGroup,
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     30 * time.Second,
		NatsOptions:      options,
		Unmarshaler:      marshaler,
		JetStream:        jsConfig,
	}, wmLogger)
	if err != nil {
		_ = publisher.Close()
		return nil, fmt.Errorf("failed to create NATS subscriber: %w", err)
	}

	logger.Info("Connected event bus to NATS", slog.String("url", cfg.URL), slog.String("queue_group", queueGroup))

	return &natsBus{publisher: publisher, subscriber: subscriber, logger: logger}, nil
}

// nkeyOption signs the server nonce with the user seed.
func nkeyOption(seed string) (nats.Option, error) {
	kp, err := nkeys.FromSeed([]byte(seed))
	if err != nil {
		return nil, fmt.Errorf("invalid nkey seed: %w", err)
	}
	pub, err := kp.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("failed to derive nkey public key: %w", err)
	}
	return nats.Nkey(pub, func(nonce []byte) ([]byte, error) {
		return kp.Sign(nonce)
	}), nil
}

func (b *natsBus) Publish(topic string, messages ...*message.Message) error {
	return b.publisher.Publish(topic, messages...)
}

func (b *natsBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.subscriber.Subscribe(ctx, topic)
}

func (b *natsBus) Close() error {
	subErr := b.subscriber.Close()
	pubErr := b.publisher.Close()
	if subErr != nil {
		return fmt.Errorf("failed to close subscriber: %w", subErr)
	}
	if pubErr != nil {
		return fmt.Errorf("failed to close publisher: %w", pubErr)
	}
	return nil
}

// NewInMemoryEventBus returns a bus that delivers within the process. Used when
// no NATS url is configured and in tests.
func NewInMemoryEventBus(logger *slog.Logger) EventBus {
	return gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
	}, watermill.NewSlogLogger(logger))
}

// NewMessage builds a message with a fresh UUID and the correlation id, if any,
// copied into its metadata.
func NewMessage(ctx context.Context, payload []byte) *message.Message {
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if id := CorrelationID(ctx); id != "" {
		msg.Metadata.Set(CorrelationIDKey, id)
	}
	return msg
}
