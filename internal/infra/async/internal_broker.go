package async

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

//go:generate mockgen -source=internal_broker.go -destination=../../../test/unit/doubles/infra/async/internal_broker_mock.go -package=async -mock_names=InternalBroker=MockInternalBroker

type BrokerTopicName string

type BrokerMessage struct {
	Event string
	Value any
	Span  trace.Span
}

type InternalBroker interface {
	Subscribe(topic BrokerTopicName) (Subscription, error)
	Unsubscribe(topic BrokerTopicName, subscription Subscription) error
	Publish(ctx context.Context, topic BrokerTopicName, msg BrokerMessage) error
	Stop()
}

var _ InternalBroker = (*LocalBroker)(nil)

var ErrTopicNotFound = errors.New("topic not found")
var ErrSubscriptorNotFound = errors.New("subscriptor not found")
var ErrBrokerStopped = errors.New("broker stopped")

const _defaultReceiverBuffer = 64

func NewLocalBroker() *LocalBroker {
	return NewLocalBrokerWithBuffer(_defaultReceiverBuffer)
}

// NewLocalBrokerWithBuffer creates a broker whose subscribers buffer up to
// size messages. Messages for a full subscriber are dropped.
func NewLocalBrokerWithBuffer(size int) *LocalBroker {
	return &LocalBroker{
		topics:     make(map[BrokerTopicName][]*subscriptor),
		bufferSize: size,
	}
}

type LocalBroker struct {
	mu         sync.RWMutex
	topics     map[BrokerTopicName][]*subscriptor
	bufferSize int
	stopped    bool
}

type subscriptor struct {
	once         sync.Once
	subscription Subscription
	receiver     chan BrokerMessage
}

type Subscription struct {
	ID       string
	Receiver <-chan BrokerMessage
}

func (b *LocalBroker) Subscribe(topic BrokerTopicName) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return Subscription{}, ErrBrokerStopped
	}

	receiver := make(chan BrokerMessage, b.bufferSize)
	s := &subscriptor{
		subscription: Subscription{ID: uuid.NewString(), Receiver: receiver},
		receiver:     receiver,
	}
	b.topics[topic] = append(b.topics[topic], s)

	return s.subscription, nil
}

func (b *LocalBroker) Unsubscribe(topic BrokerTopicName, subscription Subscription) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	subscriptors, ok := b.topics[topic]
	if !ok {
		return ErrTopicNotFound
	}

	index := slices.IndexFunc(subscriptors, func(s *subscriptor) bool { return s.subscription.ID == subscription.ID })
	if index < 0 {
		return ErrSubscriptorNotFound
	}

	subscriptors[index].safeClose()
	b.topics[topic] = slices.Delete(subscriptors, index, index+1)

	return nil
}

// Publish delivers msg to every current subscriber of topic without blocking.
func (b *LocalBroker) Publish(ctx context.Context, topic BrokerTopicName, msg BrokerMessage) error {
	msg.Span = trace.SpanFromContext(ctx)

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.stopped {
		return ErrBrokerStopped
	}

	subscriptors, ok := b.topics[topic]
	if !ok {
		return ErrTopicNotFound
	}

	for _, s := range subscriptors {
		select {
		case s.receiver <- msg:
		default:
			slog.Warn("subscriber buffer full, dropping message",
				slog.String("topic", string(topic)),
				slog.String("event", msg.Event),
				slog.String("subscription_id", s.subscription.ID))
		}
	}

	return nil
}

func (b *LocalBroker) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopped = true
	for _, subscriptors := range b.topics {
		for _, s := range subscriptors {
			s.safeClose()
		}
	}
}

func (s *subscriptor) safeClose() {
	s.once.Do(func() {
		close(s.receiver)
	})
}
