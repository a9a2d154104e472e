package common

const (
	RedisStreamJudgmentBatch  = "judgment.batch"
	RedisStreamQuickstartTick = "quickstart.tick"

	RedisStreamGroup    = "executor-group"
	RedisStreamConsumer = "executor-consumer"

	RedisKeyLastPrice = "qs:last_price"
)
