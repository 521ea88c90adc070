package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/dulcemimos/go-store-api/internal/errs"
	kafkax "github.com/dulcemimos/go-store-api/internal/kafka"
	"github.com/dulcemimos/go-store-api/internal/orders"
	"github.com/dulcemimos/go-store-api/internal/redisx"
)

// OrderGetter is the read slice of the orders repo the warmer needs.
type OrderGetter interface {
	Get(ctx context.Context, id string) (orders.Order, error)
}

// Service consumes order events and pre-warms the Redis order-detail cache so
// the first GET after checkout skips the join. Purely a read-side helper.
type Service struct {
	Repo        OrderGetter
	Redis       *redis.Client
	Log         *zap.Logger
	ServiceName string
}

func (s *Service) HandleOrderCreated(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderCreated {
		return nil
	}

	// dedup by event id; replays are harmless but noisy
	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
	if err != nil {
		return err
	}

	o, err := s.Repo.Get(ctx, p.OrderID)
	if errors.Is(err, errs.ErrNotFound) {
		s.Log.Warn("order event for unknown order", zap.String("order_id", p.OrderID))
		return nil
	}
	if err != nil {
		return err
	}

	b, err := json.Marshal(o)
	if err != nil {
		return err
	}
	key := fmt.Sprintf(redisx.KeyOrderDetail, o.ID)
	if err := s.Redis.Set(ctx, key, b, redisx.TTLOrderCache).Err(); err != nil {
		return err
	}
	// mark the event done only once the warm stuck, so a redelivery after a
	// transient failure still gets to retry
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	s.Log.Info("order detail cache warmed", zap.String("order_id", o.ID))
	return nil
}
