package enums

type OutboxEventType string

const (
	OutboxEventOrderBatchCreated OutboxEventType = "order.batch.created"
)

type OutboxAggregateType string

const (
	OutboxAggregateOrderBatch OutboxAggregateType = "order_batch"
)
