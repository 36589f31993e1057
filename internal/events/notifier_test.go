package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/gobag/gobag-backend/internal/models"
	"github.com/gobag/gobag-backend/internal/services"
)

type notifierFixture struct {
	bus *Bus
	hub *services.Hub
}

func newNotifierFixture(t *testing.T) *notifierFixture {
	t.Helper()
	logger := zap.NewNop().Sugar()
	pubSub := NewGoChannelPubSub(logger)
	t.Cleanup(func() { pubSub.Close() })

	hub := services.NewHub()
	go hub.Run()

	notifier := NewNotifier(pubSub, hub, logger)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go notifier.Run(ctx)

	// Subscriptions are in place once Run has registered them; the
	// gochannel pubsub subscribes synchronously inside Run, give it a
	// moment before publishing.
	time.Sleep(50 * time.Millisecond)

	return &notifierFixture{bus: NewBus(pubSub, logger), hub: hub}
}

func (f *notifierFixture) connect(t *testing.T, id uint, role models.UserRole) *services.Client {
	t.Helper()
	client := &services.Client{ID: id, Role: role, Send: make(chan []byte, 8), Hub: f.hub}
	f.hub.Register(client)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if f.hub.GetConnectedClients() > 0 {
			return client
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("client never registered")
	return nil
}

func receive(t *testing.T, client *services.Client) services.WebSocketMessage {
	t.Helper()
	select {
	case raw := <-client.Send:
		var msg services.WebSocketMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("unmarshal envelope: %v", err)
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no websocket message arrived")
		return services.WebSocketMessage{}
	}
}

func TestNotifierDeliversBookingCreatedToTraveller(t *testing.T) {
	f := newNotifierFixture(t)
	traveller := f.connect(t, 7, models.UserRoleTraveller)

	f.bus.Publish(TopicBookingCreated, BookingCreated{
		BookingID:   1,
		TripID:      2,
		TravellerID: 7,
		SenderID:    3,
		LuggageSize: 4,
		TotalPrice:  40,
	})

	msg := receive(t, traveller)
	if msg.Type != "booking_created" {
		t.Errorf("Type = %q, want booking_created", msg.Type)
	}
}

func TestNotifierAnnouncesNewPackagesToTravellers(t *testing.T) {
	f := newNotifierFixture(t)
	traveller := f.connect(t, 7, models.UserRoleTraveller)

	f.bus.Publish(TopicPackageCreated, PackageCreated{
		PackageID:       11,
		SenderID:        3,
		DepartureCity:   "Accra",
		DestinationCity: "London",
		Size:            models.PackageSizeMedium,
		Weight:          3,
		Budget:          40,
		Currency:        "USD",
	})

	msg := receive(t, traveller)
	if msg.Type != "package_created" {
		t.Errorf("Type = %q, want package_created", msg.Type)
	}

	data, ok := msg.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Data is %T, want an object", msg.Data)
	}
	if data["destinationCity"] != "London" {
		t.Errorf("destinationCity = %v, want London", data["destinationCity"])
	}
}
