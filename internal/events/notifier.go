package events

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"

	"github.com/gobag/gobag-backend/internal/models"
	"github.com/gobag/gobag-backend/internal/services"
)

// Notifier bridges domain events to the websocket hub so both parties
// of a booking see changes as they happen.
type Notifier struct {
	subscriber message.Subscriber
	hub        *services.Hub
	logger     *zap.SugaredLogger
}

func NewNotifier(subscriber message.Subscriber, hub *services.Hub, logger *zap.SugaredLogger) *Notifier {
	return &Notifier{subscriber: subscriber, hub: hub, logger: logger}
}

// Run consumes events until the context is cancelled.
func (n *Notifier) Run(ctx context.Context) error {
	topics := []string{
		TopicBookingCreated,
		TopicBookingStatusChanged,
		TopicTripStatusChanged,
		TopicPackageCreated,
		TopicPackageStatusChanged,
	}

	for _, topic := range topics {
		messages, err := n.subscriber.Subscribe(ctx, topic)
		if err != nil {
			return err
		}
		go n.consume(topic, messages)
	}

	<-ctx.Done()
	return nil
}

func (n *Notifier) consume(topic string, messages <-chan *message.Message) {
	for msg := range messages {
		n.dispatch(topic, msg.Payload)
		msg.Ack()
	}
}

func (n *Notifier) dispatch(topic string, payload []byte) {
	switch topic {
	case TopicBookingCreated:
		var ev BookingCreated
		if err := json.Unmarshal(payload, &ev); err != nil {
			n.logger.Errorw("decode event", "topic", topic, "error", err)
			return
		}
		n.hub.SendToUser(ev.TravellerID, "booking_created", ev)

	case TopicBookingStatusChanged:
		var ev BookingStatusChanged
		if err := json.Unmarshal(payload, &ev); err != nil {
			n.logger.Errorw("decode event", "topic", topic, "error", err)
			return
		}
		n.hub.SendToUser(ev.SenderID, "booking_status_changed", ev)
		n.hub.SendToUser(ev.TravellerID, "booking_status_changed", ev)

	case TopicTripStatusChanged:
		var ev TripStatusChanged
		if err := json.Unmarshal(payload, &ev); err != nil {
			n.logger.Errorw("decode event", "topic", topic, "error", err)
			return
		}
		for _, senderID := range ev.SenderIDs {
			n.hub.SendToUser(senderID, "trip_status_changed", ev)
		}

	case TopicPackageCreated:
		var ev PackageCreated
		if err := json.Unmarshal(payload, &ev); err != nil {
			n.logger.Errorw("decode event", "topic", topic, "error", err)
			return
		}
		// New requests go to every connected traveller, not a single
		// user: matching happens between the parties.
		n.hub.SendToRole(models.UserRoleTraveller, "package_created", ev)

	case TopicPackageStatusChanged:
		var ev PackageStatusChanged
		if err := json.Unmarshal(payload, &ev); err != nil {
			n.logger.Errorw("decode event", "topic", topic, "error", err)
			return
		}
		n.hub.SendToUser(ev.SenderID, "package_status_changed", ev)
	}
}
