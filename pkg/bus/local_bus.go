package bus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"counterbot/pkg/logger"
)

// sendTimeout bounds how long a producer waits for buffer space.
const sendTimeout = 5 * time.Second

// LocalBus is a local in-process message bus using Go channels. Inbound
// and outbound messages are each processed in arrival order by a single
// goroutine; handlers that need to wait must hand work off.
type LocalBus struct {
	log      *logger.Logger
	inboundH []Handler
	outbound map[string][]Handler // Platform -> handlers
	mu       sync.RWMutex

	// Channels for message flow
	inboundC  chan *Message
	outboundC chan *Message

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Metrics
	messagesIn  uint64
	messagesOut uint64
	dropped     uint64
	errors      uint64
	metricsLock sync.RWMutex
}

// NewLocalBus creates a new local message bus.
func NewLocalBus(log *logger.Logger, bufferSize int) *LocalBus {
	if bufferSize <= 0 {
		bufferSize = 100
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &LocalBus{
		log:       log,
		outbound:  make(map[string][]Handler),
		inboundC:  make(chan *Message, bufferSize),
		outboundC: make(chan *Message, bufferSize),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start starts the message bus processing loops.
func (b *LocalBus) Start() error {
	b.log.Info("Starting message bus")

	b.wg.Add(2)
	go b.process(b.inboundC, "inbound")
	go b.process(b.outboundC, "outbound")

	return nil
}

// Stop stops the message bus and waits for the processors to exit.
// Messages still buffered are discarded.
func (b *LocalBus) Stop() error {
	b.log.Info("Stopping message bus")

	b.cancel()
	b.wg.Wait()

	b.log.Info("Message bus stopped")
	return nil
}

// RegisterInboundHandler registers a handler for every inbound message.
func (b *LocalBus) RegisterInboundHandler(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.inboundH = append(b.inboundH, handler)
	b.log.Debug("Registered inbound handler")
}

// RegisterOutboundHandler registers an outbound handler for a platform.
// Multiple handlers can be registered for the same platform.
func (b *LocalBus) RegisterOutboundHandler(platform string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.outbound[platform] = append(b.outbound[platform], handler)
	b.log.Info("Registered outbound handler", zap.String("platform", platform))
}

// UnregisterOutboundHandlers removes all outbound handlers for a platform.
func (b *LocalBus) UnregisterOutboundHandlers(platform string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.outbound, platform)
	b.log.Info("Unregistered outbound handlers", zap.String("platform", platform))
}

// SendInbound sends an inbound message (from transport to router).
func (b *LocalBus) SendInbound(msg *Message) error {
	if err := b.enqueue(b.inboundC, msg, "inbound"); err != nil {
		return err
	}
	b.incrementMessagesIn()
	return nil
}

// SendOutbound sends an outbound message (from router to transport).
func (b *LocalBus) SendOutbound(msg *Message) error {
	if err := b.enqueue(b.outboundC, msg, "outbound"); err != nil {
		return err
	}
	b.incrementMessagesOut()
	return nil
}

func (b *LocalBus) enqueue(ch chan *Message, msg *Message, direction string) error {
	if b.ctx.Err() != nil {
		return fmt.Errorf("bus is shutting down")
	}

	timer := time.NewTimer(sendTimeout)
	defer timer.Stop()

	select {
	case ch <- msg:
		return nil
	case <-b.ctx.Done():
		return fmt.Errorf("bus is shutting down")
	case <-timer.C:
		b.incrementDropped()
		return fmt.Errorf("timeout sending %s message", direction)
	}
}

// process drains one direction until the bus stops.
func (b *LocalBus) process(ch chan *Message, direction string) {
	defer b.wg.Done()

	for {
		select {
		case msg := <-ch:
			b.handleMessage(msg, direction)
		case <-b.ctx.Done():
			return
		}
	}
}

// handleMessage dispatches a message to registered handlers.
func (b *LocalBus) handleMessage(msg *Message, direction string) {
	b.mu.RLock()
	var handlers []Handler
	if direction == "inbound" {
		handlers = b.inboundH
	} else {
		handlers = b.outbound[msg.Platform]
	}
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.log.Warn("No handlers registered",
			zap.String("platform", msg.Platform),
			zap.String("direction", direction),
			zap.String("message_id", msg.ID))
		return
	}

	b.log.Debug("Processing message",
		zap.String("platform", msg.Platform),
		zap.String("channel_id", msg.ChannelID),
		zap.String("direction", direction),
		zap.String("message_id", msg.ID))

	for _, handler := range handlers {
		if err := handler(b.ctx, msg); err != nil {
			b.incrementErrors()
			b.log.Error("Handler error",
				zap.String("platform", msg.Platform),
				zap.String("direction", direction),
				zap.String("message_id", msg.ID),
				zap.Error(err))
		}
	}
}

// GetMetrics returns current bus metrics.
func (b *LocalBus) GetMetrics() map[string]uint64 {
	b.metricsLock.RLock()
	defer b.metricsLock.RUnlock()

	return map[string]uint64{
		"messages_in":  b.messagesIn,
		"messages_out": b.messagesOut,
		"dropped":      b.dropped,
		"errors":       b.errors,
	}
}

func (b *LocalBus) incrementMessagesIn() {
	b.metricsLock.Lock()
	b.messagesIn++
	b.metricsLock.Unlock()
}

func (b *LocalBus) incrementMessagesOut() {
	b.metricsLock.Lock()
	b.messagesOut++
	b.metricsLock.Unlock()
}

func (b *LocalBus) incrementDropped() {
	b.metricsLock.Lock()
	b.dropped++
	b.metricsLock.Unlock()
}

func (b *LocalBus) incrementErrors() {
	b.metricsLock.Lock()
	b.errors++
	b.metricsLock.Unlock()
}
