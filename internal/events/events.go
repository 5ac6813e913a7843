package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultChannel = "ledger_events"

const (
	DepositApproved    = "deposit.approved"
	DepositRejected    = "deposit.rejected"
	WithdrawalApproved = "withdrawal.approved"
	WithdrawalRejected = "withdrawal.rejected"
	InvestmentPlaced   = "investment.placed"
	ReferralBonus      = "referral.bonus"
)

// Event describes a committed ledger transition.
type Event struct {
	Type         string    `json:"event_type"`
	UserID       string    `json:"user_id"`
	ReferenceID  string    `json:"reference_id"`
	Status       string    `json:"status,omitempty"`
	Amount       string    `json:"amount"`
	Currency     string    `json:"currency,omitempty"`
	BalanceAfter string    `json:"balance_after,omitempty"`
	ActorID      string    `json:"actor_id,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

type Publisher interface {
	Publish(ctx context.Context, event *Event) error
}

// RedisPublisher publishes events as JSON on a Redis pub/sub channel.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
	logger  *zap.Logger
}

func NewRedisPublisher(rdb *redis.Client, channel string, logger *zap.Logger) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{rdb: rdb, channel: channel, logger: logger}
}

func (p *RedisPublisher) Publish(ctx context.Context, event *Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("Published ledger event",
		zap.String("event_type", event.Type),
		zap.String("user_id", event.UserID),
		zap.String("reference_id", event.ReferenceID))
	return nil
}

// NopPublisher drops every event. Used when Redis is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *Event) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, event *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns the recorded events with the given type.
func (r *Recorder) OfType(eventType string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
