package consumer

import (
	"context"
	"strings"
	"time"

	"kabu-advisor/internal/executor/service"
	"kabu-advisor/pkg/common"
	"kabu-advisor/pkg/logger"
	redisclient "kabu-advisor/pkg/redis"
	"kabu-advisor/pkg/utils"

	goredis "github.com/redis/go-redis/v9"
)

// Consumer reads scheduler ticks off the Redis streams and forwards them to
// the executor service.
type Consumer struct {
	log      *logger.Logger
	redis    *redisclient.Client
	executor service.ExecutorService
	streams  []string
}

func New(log *logger.Logger, redis *redisclient.Client, executor service.ExecutorService) *Consumer {
	return &Consumer{
		log:      log,
		redis:    redis,
		executor: executor,
		streams:  []string{common.RedisStreamJudgmentBatch, common.RedisStreamQuickstartTick},
	}
}

// Start creates the consumer groups and blocks reading until ctx is done.
func (c *Consumer) Start(ctx context.Context) error {
	for _, stream := range c.streams {
		err := c.redis.XGroupCreateMkStream(ctx, stream, common.RedisStreamGroup, "0").Err()
		if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
			return err
		}
	}

	c.log.Info("stream consumer started",
		logger.Field("streams", c.streams),
		logger.StringField("group", common.RedisStreamGroup))

	streamArgs := make([]string, 0, len(c.streams)*2)
	streamArgs = append(streamArgs, c.streams...)
	for range c.streams {
		streamArgs = append(streamArgs, ">")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		results, err := c.redis.XReadGroup(ctx, &goredis.XReadGroupArgs{
			Group:    common.RedisStreamGroup,
			Consumer: common.RedisStreamConsumer,
			Streams:  streamArgs,
			Count:    10,
			Block:    5 * time.Second,
		}).Result()
		if err != nil {
			if err == goredis.Nil {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Warn("stream read failed", logger.ErrorField(err))
			time.Sleep(time.Second)
			continue
		}

		for _, result := range results {
			for _, message := range result.Messages {
				stream := result.Stream
				msg := message
				utils.GoSafe(func() {
					c.executor.ProcessStream(ctx, stream, msg)
				})
			}
		}
	}
}
