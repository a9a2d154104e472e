package service

import (
	"context"
	"encoding/json"

	"kabu-advisor/internal/entity"
	"kabu-advisor/internal/executor/strategy"
	"kabu-advisor/pkg/common"
	"kabu-advisor/pkg/logger"
	redisclient "kabu-advisor/pkg/redis"

	goredis "github.com/redis/go-redis/v9"
)

// ExecutorService consumes scheduler ticks from the Redis streams and
// dispatches them through the strategy registry.
type ExecutorService interface {
	ProcessStream(ctx context.Context, stream string, message goredis.XMessage)
}

// The tick strategies consume these services through their own interface
// declarations; keep the implementations compatible.
var (
	_ strategy.JudgmentRunner  = (JudgmentService)(nil)
	_ strategy.PositionManager = (PositionService)(nil)
)

type executorService struct {
	log      *logger.Logger
	redis    *redisclient.Client
	registry *strategy.Registry
}

func NewExecutorService(log *logger.Logger, redis *redisclient.Client, registry *strategy.Registry) ExecutorService {
	return &executorService{
		log:      log,
		redis:    redis,
		registry: registry,
	}
}

// ProcessStream handles one stream message end to end. Malformed payloads are
// acked and dropped; a tick that fails execution is also acked, because the
// scheduler emits a fresh tick on the next cadence and replaying a stale
// wall-clock tick would be wrong.
func (s *executorService) ProcessStream(ctx context.Context, stream string, message goredis.XMessage) {
	payload, ok := message.Values["data"].(string)
	if !ok {
		s.log.Error("stream message has no data field",
			logger.StringField("stream", stream),
			logger.StringField("message_id", message.ID))
		s.ackNDel(ctx, stream, message.ID)
		return
	}

	var tick entity.Tick
	if err := json.Unmarshal([]byte(payload), &tick); err != nil {
		s.log.Error("failed to unmarshal tick",
			logger.StringField("stream", stream),
			logger.StringField("message_id", message.ID),
			logger.ErrorField(err))
		s.ackNDel(ctx, stream, message.ID)
		return
	}

	result, err := s.registry.Execute(ctx, &tick)
	if err != nil {
		s.log.Error("tick execution failed",
			logger.StringField("tick_type", string(tick.Type)),
			logger.StringField("trade_date", tick.TradeDate),
			logger.ErrorField(err))
	} else {
		s.log.Info("tick executed",
			logger.StringField("tick_type", string(tick.Type)),
			logger.StringField("trade_date", tick.TradeDate),
			logger.StringField("result", result))
	}
	s.ackNDel(ctx, stream, message.ID)
}

func (s *executorService) ackNDel(ctx context.Context, stream, messageID string) {
	if err := s.redis.XAck(ctx, stream, common.RedisStreamGroup, messageID).Err(); err != nil {
		s.log.Warn("failed to ack stream message",
			logger.StringField("stream", stream),
			logger.StringField("message_id", messageID),
			logger.ErrorField(err))
	}
	if err := s.redis.XDel(ctx, stream, messageID).Err(); err != nil {
		s.log.Warn("failed to delete stream message",
			logger.StringField("stream", stream),
			logger.StringField("message_id", messageID),
			logger.ErrorField(err))
	}
}
