package hub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
)

// fakeConn records writes and blocks reads until closed.
type fakeConn struct {
	mu     sync.Mutex
	writes chan []byte
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{writes: make(chan []byte, 16), closed: make(chan struct{})}
}

func (f *fakeConn) SetReadLimit(int64)                {}
func (f *fakeConn) SetReadDeadline(time.Time) error   { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error  { return nil }
func (f *fakeConn) SetPongHandler(func(string) error) {}
func (f *fakeConn) ReadMessage() (int, []byte, error) {
	<-f.closed
	return 0, nil, errors.New("closed")
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	if messageType != websocket.TextMessage {
		return nil
	}
	select {
	case f.writes <- data:
	case <-f.closed:
		return errors.New("closed")
	}
	return nil
}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func recv(t *testing.T, c *fakeConn) string {
	t.Helper()
	select {
	case data := <-c.writes:
		return string(data)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return ""
	}
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("client count %d, want %d", h.ClientCount(), n)
		}
		time.Sleep(time.Millisecond)
	}
}

func runHub(t *testing.T, h *Hub) context.CancelFunc {
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-h.Done()
	})
	return cancel
}

func TestHub_Broadcast(t *testing.T) {
	h := New("test")
	runHub(t, h)

	a, b := newFakeConn(), newFakeConn()
	go Serve(h, a)
	go Serve(h, b)
	waitClients(t, h, 2)

	if err := h.BroadcastJSON(map[string]int{"frame": 1}); err != nil {
		t.Fatal(err)
	}

	for _, c := range []*fakeConn{a, b} {
		if got := recv(t, c); got != `{"frame":1}` {
			t.Errorf("got %s", got)
		}
	}

	a.Close()
	waitClients(t, h, 1)
}

func TestHub_Replay(t *testing.T) {
	h := NewReplay("state")
	runHub(t, h)

	first := newFakeConn()
	go Serve(h, first)
	waitClients(t, h, 1)

	h.BroadcastJSON("running")
	recv(t, first)

	late := newFakeConn()
	go Serve(h, late)
	if got := recv(t, late); got != `"running"` {
		t.Errorf("late client got %s", got)
	}
}

func TestHub_StopReleasesClients(t *testing.T) {
	h := New("test")
	cancel := runHub(t, h)

	c := newFakeConn()
	done := make(chan struct{})
	go func() {
		Serve(h, c)
		close(done)
	}()
	waitClients(t, h, 1)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("client not released after hub stopped")
	}

	if NewClient(h, newFakeConn()) != nil {
		t.Error("stopped hub should refuse clients")
	}
}
