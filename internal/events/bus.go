package events

import (
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.uber.org/zap"
)

// NewGoChannelPubSub builds the in-process pub/sub both ends of the
// bus share.
func NewGoChannelPubSub(logger *zap.SugaredLogger) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
	}, newZapLoggerAdapter(logger))
}

// Bus publishes domain events. Publishing is best effort: a failed
// notification must never fail the transaction that produced it, so
// errors are logged and dropped.
type Bus struct {
	publisher message.Publisher
	logger    *zap.SugaredLogger
}

func NewBus(publisher message.Publisher, logger *zap.SugaredLogger) *Bus {
	return &Bus{publisher: publisher, logger: logger}
}

func (b *Bus) Publish(topic string, payload interface{}) {
	if b == nil || b.publisher == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		b.logger.Errorw("marshal event", "topic", topic, "error", err)
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	if err := b.publisher.Publish(topic, msg); err != nil {
		b.logger.Errorw("publish event", "topic", topic, "error", err)
	}
}

// zapLoggerAdapter lets watermill log through the application logger.
type zapLoggerAdapter struct {
	logger *zap.SugaredLogger
	fields watermill.LogFields
}

func newZapLoggerAdapter(logger *zap.SugaredLogger) watermill.LoggerAdapter {
	return &zapLoggerAdapter{logger: logger, fields: watermill.LogFields{}}
}

func (a *zapLoggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.logger.Errorw(msg, a.flatten(fields, err)...)
}

func (a *zapLoggerAdapter) Info(msg string, fields watermill.LogFields) {
	a.logger.Infow(msg, a.flatten(fields, nil)...)
}

func (a *zapLoggerAdapter) Debug(msg string, fields watermill.LogFields) {
	a.logger.Debugw(msg, a.flatten(fields, nil)...)
}

func (a *zapLoggerAdapter) Trace(msg string, fields watermill.LogFields) {
	a.logger.Debugw(msg, a.flatten(fields, nil)...)
}

func (a *zapLoggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	combined := make(watermill.LogFields, len(a.fields)+len(fields))
	for k, v := range a.fields {
		combined[k] = v
	}
	for k, v := range fields {
		combined[k] = v
	}
	return &zapLoggerAdapter{logger: a.logger, fields: combined}
}

func (a *zapLoggerAdapter) flatten(fields watermill.LogFields, err error) []interface{} {
	kv := make([]interface{}, 0, 2*(len(a.fields)+len(fields)+1))
	for k, v := range a.fields {
		kv = append(kv, k, v)
	}
	for k, v := range fields {
		kv = append(kv, k, v)
	}
	if err != nil {
		kv = append(kv, "error", err)
	}
	return kv
}
