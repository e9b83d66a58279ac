package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/nerrad567/lightmount-core/internal/fixture"
	"github.com/nerrad567/lightmount-core/internal/infrastructure/mqtt"
)

// DefaultQueueSize is the outbound queue length when Options.QueueSize is zero.
const DefaultQueueSize = 512

// MQTTClient is the subset of the MQTT client used by the bridge.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	IsConnected() bool
}

// FixtureService routes inbound commands to fixtures.
// *device.Registry satisfies it.
type FixtureService interface {
	PowerChanged(id string, level fixture.PowerLevel) error
	PowerChangedAll(level fixture.PowerLevel)
	ReportDamage(id string, report fixture.DamageReport) error
	Interact(id string, req fixture.InteractionRequest) (fixture.InteractionResult, error)
	SetLink(id, switchID string) error
	ClearLink(id string) error
	Switches() *fixture.Switchboard
}

// Logger is the logging surface used by the bridge.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options configures a Bridge.
type Options struct {
	Client    MQTTClient
	Topics    mqtt.Topics
	QoS       byte
	QueueSize int
}

type outbound struct {
	topic    string
	payload  any
	retained bool
}

// Bridge connects fixtures to the MQTT bus.
//
// Inbound, it subscribes to power, damage, interaction, link and switch
// topics and forwards them to a FixtureService. Outbound, it implements the
// fixture collaborator interfaces and fixture.Observer, publishing state
// records and side-effect events.
//
// Outbound calls arrive with a controller lock held, so they only enqueue.
// A single worker publishes in enqueue order. When the queue is full the
// message is dropped and a warning logged.
type Bridge struct {
	client MQTTClient
	topics mqtt.Topics
	qos    byte

	service FixtureService
	queue   chan outbound

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
	started  bool
	mu       sync.Mutex

	logger   Logger
	loggerMu sync.RWMutex
}

// New creates a bridge. The client is required.
func New(opts Options) (*Bridge, error) {
	if opts.Client == nil {
		return nil, errors.New("bridge: mqtt client is required")
	}
	if opts.Topics.Prefix == "" {
		opts.Topics = mqtt.NewTopics("")
	}
	if opts.QoS > 2 {
		return nil, fmt.Errorf("bridge: invalid qos %d", opts.QoS)
	}
	size := opts.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Bridge{
		client: opts.Client,
		topics: opts.Topics,
		qos:    opts.QoS,
		queue:  make(chan outbound, size),
		done:   make(chan struct{}),
		logger: noopLogger{},
	}, nil
}

// SetLogger sets the bridge logger.
func (b *Bridge) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	b.loggerMu.Lock()
	b.logger = logger
	b.loggerMu.Unlock()
}

func (b *Bridge) log() Logger {
	b.loggerMu.RLock()
	defer b.loggerMu.RUnlock()
	return b.logger
}

// Start launches the publish worker and, when service is non-nil,
// subscribes to the inbound topics.
func (b *Bridge) Start(ctx context.Context, service FixtureService) error {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return errors.New("bridge: already started")
	}
	b.started = true
	b.service = service
	b.mu.Unlock()

	b.wg.Add(1)
	go b.publishLoop(ctx)

	if service == nil {
		return nil
	}

	subs := []struct {
		topic   string
		handler mqtt.MessageHandler
	}{
		{b.topics.AllPower(), b.handlePower},
		{b.topics.AllDamage(), b.handleDamage},
		{b.topics.AllInteractions(), b.handleInteraction},
		{b.topics.AllLinks(), b.handleLink},
		{b.topics.AllSwitchSets(), b.handleSwitch},
	}
	for _, s := range subs {
		if err := b.client.Subscribe(s.topic, b.qos, s.handler); err != nil {
			return fmt.Errorf("subscribing to %s: %w", s.topic, err)
		}
		b.log().Debug("bridge subscribed", "topic", s.topic)
	}
	b.log().Info("bridge started", "prefix", b.topics.Prefix)
	return nil
}

// Stop drains queued messages and stops the worker. Safe to call twice.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		close(b.done)
		b.wg.Wait()
		b.log().Info("bridge stopped")
	})
}

func (b *Bridge) publishLoop(ctx context.Context) {
	defer b.wg.Done()
	for {
		select {
		case msg := <-b.queue:
			b.publish(msg)
		case <-ctx.Done():
			b.drain()
			return
		case <-b.done:
			b.drain()
			return
		}
	}
}

func (b *Bridge) drain() {
	for {
		select {
		case msg := <-b.queue:
			b.publish(msg)
		default:
			return
		}
	}
}

func (b *Bridge) publish(msg outbound) {
	payload, err := json.Marshal(msg.payload)
	if err != nil {
		b.log().Error("encoding outbound message", "topic", msg.topic, "error", err)
		return
	}
	if err := b.client.Publish(msg.topic, payload, b.qos, msg.retained); err != nil {
		b.log().Warn("publish failed", "topic", msg.topic, "error", err)
	}
}

func (b *Bridge) enqueue(topic string, payload any, retained bool) {
	select {
	case b.queue <- outbound{topic: topic, payload: payload, retained: retained}:
	default:
		b.log().Warn("bridge queue full, dropping message", "topic", topic)
	}
}

func (b *Bridge) event(kind, fixtureID string, payload any) {
	b.enqueue(b.topics.Event(kind), NewEventMessage(kind, fixtureID, payload), false)
}

// Observe publishes transition records as retained state. Hazard records
// are already covered by HazardTriggered.
func (b *Bridge) Observe(rec fixture.Record) {
	if rec.Kind != fixture.RecordTransition {
		return
	}
	b.enqueue(b.topics.State(rec.FixtureID), NewStateMessage(rec), true)
}

// SpawnItem publishes an item_spawn event.
func (b *Bridge) SpawnItem(req fixture.SpawnRequest) {
	b.event(EventItemSpawn, req.FixtureID, req)
}

// ConsumeItem publishes an item_consume event.
func (b *Bridge) ConsumeItem(req fixture.ConsumeRequest) {
	b.event(EventItemConsume, req.FixtureID, req)
}

// HazardTriggered publishes the ignition request as a hazard event.
func (b *Bridge) HazardTriggered(ev fixture.HazardEvent) {
	b.event(EventHazard, ev.FixtureID, ev)
}

// ApplyInjury publishes an injury event.
func (b *Bridge) ApplyInjury(inj fixture.Injury) {
	b.event(EventInjury, inj.FixtureID, inj)
}

// PlayCue publishes a cue event.
func (b *Bridge) PlayCue(ev fixture.CueEvent) {
	b.event(EventCue, ev.FixtureID, ev)
}

// Collaborators returns the bridge as every outbound collaborator.
func (b *Bridge) Collaborators() fixture.Collaborators {
	return fixture.Collaborators{Spawner: b, Hazards: b, Injuries: b, Cues: b}
}

func (b *Bridge) fixtureID(topic string) (string, error) {
	id, ok := b.topics.FixtureFromTopic(topic)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrInvalidTopic, topic)
	}
	return id, nil
}

func decode(payload []byte, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

func (b *Bridge) handlePower(topic string, payload []byte) error {
	id, err := b.fixtureID(topic)
	if err != nil {
		return err
	}
	var msg PowerMessage
	if err := decode(payload, &msg); err != nil {
		return err
	}
	if msg.Level == nil {
		return fmt.Errorf("%w: missing level", ErrInvalidPayload)
	}
	if id == AllFixtures {
		b.service.PowerChangedAll(*msg.Level)
		return nil
	}
	return b.service.PowerChanged(id, *msg.Level)
}

func (b *Bridge) handleDamage(topic string, payload []byte) error {
	id, err := b.fixtureID(topic)
	if err != nil {
		return err
	}
	var report fixture.DamageReport
	if err := decode(payload, &report); err != nil {
		return err
	}
	return b.service.ReportDamage(id, report)
}

func (b *Bridge) handleInteraction(topic string, payload []byte) error {
	id, err := b.fixtureID(topic)
	if err != nil {
		return err
	}
	var msg InteractionMessage
	if err := decode(payload, &msg); err != nil {
		return err
	}
	result, err := b.service.Interact(id, msg.InteractionRequest)
	if err != nil {
		return err
	}
	b.event(EventFeedback, id, FeedbackMessage{
		RequestID:         msg.RequestID,
		ActorID:           msg.Actor.ID,
		InteractionResult: result,
	})
	return nil
}

func (b *Bridge) handleLink(topic string, payload []byte) error {
	id, err := b.fixtureID(topic)
	if err != nil {
		return err
	}
	var msg LinkMessage
	if err := decode(payload, &msg); err != nil {
		return err
	}
	if msg.Switch == "" {
		return b.service.ClearLink(id)
	}
	return b.service.SetLink(id, msg.Switch)
}

func (b *Bridge) handleSwitch(topic string, payload []byte) error {
	id, ok := b.topics.SwitchFromTopic(topic)
	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidTopic, topic)
	}
	var msg SwitchMessage
	if err := decode(payload, &msg); err != nil {
		return err
	}
	board := b.service.Switches()
	if board == nil {
		return fmt.Errorf("%w: %s", ErrUnknownSwitch, id)
	}
	sw, ok := board.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSwitch, id)
	}
	sw.Toggle(msg.On)
	return nil
}
