package api

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/thermosentry/thermosentry/internal/infrastructure/config"
	"github.com/thermosentry/thermosentry/internal/infrastructure/logging"
	"github.com/thermosentry/thermosentry/internal/supervise"
)

func testHub() *Hub {
	logger := logging.New(config.LoggingConfig{Level: "error", Output: "stderr"}, "test")
	return NewHub(config.WebSocketConfig{}, logger)
}

// attachClient registers a connectionless client subscribed to the given
// channels so broadcasts can be observed on its send channel.
func attachClient(h *Hub, channels ...string) *WSClient {
	client := &WSClient{
		hub:           h,
		send:          make(chan []byte, wsSendBufferSize),
		subscriptions: make(map[string]struct{}),
	}
	for _, ch := range channels {
		client.subscriptions[ch] = struct{}{}
	}
	h.Register(client)
	return client
}

func receiveMessage(t *testing.T, client *WSClient) WSMessage {
	t.Helper()
	select {
	case data := <-client.send:
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decoding broadcast: %v", err)
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("no broadcast received")
		return WSMessage{}
	}
}

func TestHub_BroadcastReachesSubscribersOnly(t *testing.T) {
	h := testHub()
	subscribed := attachClient(h, ChannelMeasurement)
	other := attachClient(h, ChannelCorrection)

	h.Broadcast(ChannelMeasurement, map[string]any{"zone_key": "emulator_zone0"})

	msg := receiveMessage(t, subscribed)
	if msg.Type != WSTypeEvent || msg.EventType != ChannelMeasurement {
		t.Errorf("message = %+v", msg)
	}

	select {
	case <-other.send:
		t.Error("unsubscribed client received broadcast")
	default:
	}
}

func TestHub_UnregisterClosesSendChannel(t *testing.T) {
	h := testHub()
	client := attachClient(h, ChannelMeasurement)

	h.Unregister(client)
	if _, open := <-client.send; open {
		t.Error("send channel still open after unregister")
	}
	if h.ClientCount() != 0 {
		t.Errorf("client count = %d, want 0", h.ClientCount())
	}

	// Broadcast after disconnect must not panic.
	h.Broadcast(ChannelMeasurement, nil)
}

func TestStreamObserver_RelaysSupervisionEvents(t *testing.T) {
	h := testHub()
	client := attachClient(h, ChannelMeasurement, ChannelCorrection, ChannelSession)
	obs := StreamObserver{Hub: h}

	obs.SessionStarted("emulator_zone0", supervise.SessionState{Count: 1, StartedAt: time.Unix(1700000000, 0)})
	msg := receiveMessage(t, client)
	if msg.EventType != ChannelSession {
		t.Errorf("event_type = %q, want %q", msg.EventType, ChannelSession)
	}

	obs.MeasurementTaken("emulator_zone0", supervise.Measurement{Index: 1, Temperature: 74}, true)
	msg = receiveMessage(t, client)
	if msg.EventType != ChannelMeasurement {
		t.Errorf("event_type = %q, want %q", msg.EventType, ChannelMeasurement)
	}
	payload, _ := msg.Payload.(map[string]any)
	if payload["deviated"] != true {
		t.Errorf("deviated = %v, want true", payload["deviated"])
	}

	obs.CorrectionIssued("emulator_zone0", 70, nil)
	msg = receiveMessage(t, client)
	if msg.EventType != ChannelCorrection {
		t.Errorf("event_type = %q, want %q", msg.EventType, ChannelCorrection)
	}
}
