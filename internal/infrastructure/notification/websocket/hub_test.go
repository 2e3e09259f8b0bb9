package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/dto"
	"github.com/AlirezaQolamian-dev/img-uploader/pkg/logger"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(logger.New("error"))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case msg, ok := <-c.send:
		if !ok {
			t.Fatalf("client channel closed")
		}
		return msg
	case <-time.After(time.Second):
		t.Fatalf("no message received")
	}
	return Message{}
}

func TestHub_BroadcastsToRegisteredClients(t *testing.T) {
	hub := startHub(t)
	a := &Client{hub: hub, send: make(chan Message, 4)}
	b := &Client{hub: hub, send: make(chan Message, 4)}
	hub.Register(a)
	hub.Register(b)
	waitForClients(t, hub, 2)

	hub.BroadcastNotification(&dto.NotificationDTO{Message: "Image rotated left.", Severity: "success"})
	for _, c := range []*Client{a, b} {
		msg := receive(t, c)
		if msg.Type != MessageNotification {
			t.Fatalf("unexpected message type %q", msg.Type)
		}
		if n := msg.Data.(*dto.NotificationDTO); n.Message != "Image rotated left." {
			t.Fatalf("unexpected payload %+v", n)
		}
	}

	hub.BroadcastGallery(&dto.GalleryDTO{Count: 2})
	if msg := receive(t, a); msg.Type != MessageGallery {
		t.Fatalf("unexpected message type %q", msg.Type)
	}
}

func TestHub_DisconnectsSlowClient(t *testing.T) {
	hub := startHub(t)
	// буфер уже заполнен: следующий broadcast не поместится
	slow := &Client{hub: hub, send: make(chan Message, 1)}
	slow.send <- Message{Type: MessageGallery}
	hub.Register(slow)
	waitForClients(t, hub, 1)

	hub.BroadcastNotification(nil)
	waitForClients(t, hub, 0)

	<-slow.send
	if _, ok := <-slow.send; ok {
		t.Fatalf("expected channel to be closed")
	}
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, got %d", want, hub.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewClient_QueuesGalleryFirst(t *testing.T) {
	c := NewClient(nil, nil, &dto.GalleryDTO{Count: 1}, logger.New("error"))
	msg := receive(t, c)
	if msg.Type != MessageGallery {
		t.Fatalf("unexpected message type %q", msg.Type)
	}
	if g := msg.Data.(*dto.GalleryDTO); g.Count != 1 {
		t.Fatalf("unexpected payload %+v", g)
	}

	if empty := NewClient(nil, nil, nil, logger.New("error")); len(empty.send) != 0 {
		t.Fatalf("nil gallery must not be queued")
	}
}

func TestHub_StoppedHubDoesNotBlock(t *testing.T) {
	hub := NewHub(logger.New("error"))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	registered := &Client{hub: hub, send: make(chan Message, 1)}
	hub.Register(registered)
	waitForClients(t, hub, 1)

	cancel()
	select {
	case <-hub.Done():
	case <-time.After(time.Second):
		t.Fatalf("hub did not stop")
	}

	finished := make(chan bool, 1)
	go func() {
		late := &Client{hub: hub, send: make(chan Message, 1)}
		ok := hub.Register(late)
		hub.Unregister(late)
		hub.Unregister(registered)
		_, open := <-late.send
		finished <- !ok && !open
	}()

	select {
	case released := <-finished:
		if !released {
			t.Fatalf("register on a stopped hub must report false and close the client")
		}
	case <-time.After(time.Second):
		t.Fatalf("Register/Unregister blocked after hub stopped")
	}

	if _, open := <-registered.send; open {
		t.Fatalf("registered client must be released on stop")
	}
}
