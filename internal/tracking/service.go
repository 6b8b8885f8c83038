package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/quickplate/ordercore/internal/orders"
	"github.com/quickplate/ordercore/pkg/config"
	"github.com/quickplate/ordercore/pkg/enums"
	pkgerrors "github.com/quickplate/ordercore/pkg/errors"
	"github.com/quickplate/ordercore/pkg/logger"
	"github.com/quickplate/ordercore/pkg/metrics"
	redisclient "github.com/quickplate/ordercore/pkg/redis"
)

// eventTypeStatusUpdate is the only push event type the channel handles.
const eventTypeStatusUpdate = "order_status_update"

// Broker produces per-topic push subscriptions.
type Broker interface {
	Subscribe(ctx context.Context, topics ...string) (Conn, error)
}

type snapshotFetcher interface {
	Fetch(ctx context.Context, orderID string) (*orders.Order, error)
}

type redisBroker struct {
	client *redisclient.Client
}

// NewRedisBroker adapts the shared redis client to the broker contract.
func NewRedisBroker(client *redisclient.Client) Broker {
	return redisBroker{client: client}
}

func (b redisBroker) Subscribe(ctx context.Context, topics ...string) (Conn, error) {
	return b.client.Subscribe(ctx, topics...)
}

// Service joins and leaves per-order push topics and keeps the local
// order store consistent with what the server publishes.
type Service interface {
	Track(ctx context.Context, orderID string) (*Subscription, error)
	Untrack(orderID string) error
	Close()
}

type service struct {
	broker  Broker
	fetcher snapshotFetcher
	store   *orders.Store
	cfg     config.TrackingConfig
	metrics *metrics.TrackingMetrics
	logger  *logger.Logger

	mu   sync.Mutex
	subs map[string]*Subscription
}

// NewService builds the tracking service.
func NewService(
	broker Broker,
	fetcher snapshotFetcher,
	store *orders.Store,
	cfg config.TrackingConfig,
	trackingMetrics *metrics.TrackingMetrics,
	logg *logger.Logger,
) (Service, error) {
	if broker == nil {
		return nil, fmt.Errorf("broker required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("snapshot fetcher required")
	}
	if store == nil {
		return nil, fmt.Errorf("order store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = "order_"
	}
	if cfg.ResubscribeDelay <= 0 {
		cfg.ResubscribeDelay = 2 * time.Second
	}
	return &service{
		broker:  broker,
		fetcher: fetcher,
		store:   store,
		cfg:     cfg,
		metrics: trackingMetrics,
		logger:  logg,
		subs:    make(map[string]*Subscription),
	}, nil
}

// Track joins the order's push topic. Tracking an already-tracked
// order returns the existing handle.
func (s *service) Track(ctx context.Context, orderID string) (*Subscription, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.subs[orderID]; ok {
		return existing, nil
	}

	// Seed the local view if this order is not yet known, e.g. when a
	// tracking view is opened from a deep link.
	if _, err := s.store.Get(orderID); err != nil {
		snapshot, fetchErr := s.fetcher.Fetch(ctx, orderID)
		if fetchErr != nil {
			return nil, fetchErr
		}
		s.store.ApplySnapshot(*snapshot)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	conn, err := s.broker.Subscribe(runCtx, s.topic(orderID))
	if err != nil {
		cancel()
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "join push topic")
	}

	sub := newSubscription(orderID, conn, cancel)
	s.subs[orderID] = sub
	go s.run(runCtx, sub)
	return sub, nil
}

// Untrack leaves the topic immediately and drops the local view.
// Untracking an unknown order is a no-op.
func (s *service) Untrack(orderID string) error {
	s.mu.Lock()
	sub, ok := s.subs[orderID]
	if ok {
		delete(s.subs, orderID)
	}
	s.mu.Unlock()

	if !ok {
		return nil
	}
	_ = sub.Close()
	s.store.Forget(orderID)
	return nil
}

// Close tears down every live subscription.
func (s *service) Close() {
	s.mu.Lock()
	subs := make([]*Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.subs = make(map[string]*Subscription)
	s.mu.Unlock()

	for _, sub := range subs {
		_ = sub.Close()
	}
}

func (s *service) topic(orderID string) string {
	return s.cfg.TopicPrefix + orderID
}

// run consumes the broker stream until the subscription closes. The
// underlying pub/sub connection resubscribes itself after a drop; the
// extra subscription notification is the reconnect signal that
// triggers the one-shot authoritative refetch.
func (s *service) run(ctx context.Context, sub *Subscription) {
	defer func() {
		s.mu.Lock()
		if current, ok := s.subs[sub.orderID]; ok && current == sub {
			delete(s.subs, sub.orderID)
		}
		s.mu.Unlock()
		sub.finish()
	}()

	ctx = s.logger.WithOrderID(ctx, sub.orderID)
	subscribed := false
	for {
		msg, err := sub.conn.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil || sub.State() == StateClosed {
				return
			}
			sub.setState(StateReconnecting)
			s.logger.Warn(s.logger.WithField(ctx, "error", err.Error()), "push channel disrupted")
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.cfg.ResubscribeDelay):
			}
			continue
		}

		switch m := msg.(type) {
		case *goredis.Subscription:
			if m.Kind != "subscribe" {
				continue
			}
			if !subscribed {
				subscribed = true
				sub.setState(StateLive)
				continue
			}
			s.reconcile(ctx, sub)
		case *goredis.Message:
			s.handleEvent(ctx, sub, []byte(m.Payload))
		}
	}
}

// reconcile performs the one-shot snapshot refetch after a reconnect.
// The authoritative snapshot wins even when it skips states.
func (s *service) reconcile(ctx context.Context, sub *Subscription) {
	s.metrics.IncReconnect()
	snapshot, err := s.fetcher.Fetch(ctx, sub.orderID)
	if err != nil {
		// Keep the last known view; the next event or reconnect will
		// try again.
		s.logger.Warn(s.logger.WithField(ctx, "error", err.Error()), "snapshot refetch failed")
		sub.setState(StateLive)
		return
	}
	order := s.store.ApplySnapshot(*snapshot)
	sub.setState(StateLive)
	sub.publish(order)
	s.logger.Info(ctx, "order state reconciled from snapshot")
}

type pushEvent struct {
	Type                  string     `json:"type"`
	Status                *string    `json:"status,omitempty"`
	EstimatedDeliveryTime *time.Time `json:"estimated_delivery_time,omitempty"`
}

// handleEvent validates and applies one push event. Malformed or
// illegal events are logged and discarded; they never surface to the
// user and never clobber the last known-good state.
func (s *service) handleEvent(ctx context.Context, sub *Subscription, payload []byte) {
	var event pushEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		s.metrics.IncDiscarded("malformed")
		s.logger.Warn(s.logger.WithField(ctx, "error", err.Error()), "discarding malformed push event")
		return
	}
	if event.Type != "" && event.Type != eventTypeStatusUpdate {
		s.metrics.IncDiscarded("unknown_type")
		s.logger.Warn(s.logger.WithField(ctx, "type", event.Type), "discarding unknown push event type")
		return
	}

	statusEvent := orders.StatusEvent{EstimatedDeliveryTime: event.EstimatedDeliveryTime}
	if event.Status != nil {
		status, err := enums.ParseOrderStatus(*event.Status)
		if err != nil {
			s.metrics.IncDiscarded("unknown_status")
			s.logger.Warn(s.logger.WithField(ctx, "status", *event.Status), "discarding event with unknown status")
			return
		}
		statusEvent.Status = &status
	}

	order, err := s.store.ApplyEvent(sub.orderID, statusEvent)
	if err != nil {
		s.metrics.IncDiscarded("illegal_transition")
		s.logger.Warn(s.logger.WithField(ctx, "error", err.Error()), "discarding illegal status event")
		return
	}
	if statusEvent.Status != nil {
		s.metrics.IncApplied(statusEvent.Status.String())
	}
	sub.publish(order)
}
