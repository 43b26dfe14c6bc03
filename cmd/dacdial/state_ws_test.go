package main

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

// NOTE: These tests focus on hub behavior (fanout, snapshot replay,
// slow-client disconnection) without standing up a real websocket server.
//
// Clients are constructed with a nil websocket.Conn; the hub guards its
// conn.Close() calls against nil, so no test path requires actual writes.

func newHubClient(hub *Hub, addr string, buf int) *Client {
	return &Client{
		hub:        hub,
		conn:       nil,
		send:       make(chan []byte, buf),
		remoteAddr: addr,
		logger:     testLogger(),
	}
}

func registerAndWait(t *testing.T, hub *Hub, c *Client) {
	t.Helper()
	hub.register <- c
	waitUntil(t, 500*time.Millisecond, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		_, ok := hub.clients[c]
		return ok
	}, "client not registered in time")
}

func recvFrame(t *testing.T, c *Client) envelope {
	t.Helper()
	select {
	case msg := <-c.send:
		var env envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			t.Fatalf("unmarshal frame %q: %v", msg, err)
		}
		return env
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timeout waiting for frame")
		return envelope{}
	}
}

func TestHub_BroadcastStateDeliveredToAllClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(testLogger())
	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.Run(ctx)
	}()

	c1 := newHubClient(hub, "c1", 4)
	c2 := newHubClient(hub, "c2", 4)
	registerAndWait(t, hub, c1)
	registerAndWait(t, hub, c2)

	hub.BroadcastState(GainState{DV: -57.0, AV: -20.1, AmpGain: 3})

	for _, c := range []*Client{c1, c2} {
		env := recvFrame(t, c)
		if env.Type != "gain_state" {
			t.Errorf("%s got frame type %q, want %q", c.remoteAddr, env.Type, "gain_state")
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for hub to stop")
	}
}

func TestHub_NewClientGetsStateInit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(testLogger())
	go hub.Run(ctx)

	// First client sees the broadcast live; this also proves the hub has
	// processed the frame before the late client registers.
	early := newHubClient(hub, "early", 4)
	registerAndWait(t, hub, early)

	hub.BroadcastState(GainState{DV: -44.0, AV: -64.1, AmpGain: 0})
	if env := recvFrame(t, early); env.Type != "gain_state" {
		t.Fatalf("early client got %q, want gain_state", env.Type)
	}

	// Late client gets the last snapshot replayed as state_init.
	late := newHubClient(hub, "late", 4)
	registerAndWait(t, hub, late)

	env := recvFrame(t, late)
	if env.Type != "state_init" {
		t.Fatalf("late client got frame type %q, want state_init", env.Type)
	}
	data, err := json.Marshal(env.Data)
	if err != nil {
		t.Fatalf("remarshal data: %v", err)
	}
	var state GainState
	if err := json.Unmarshal(data, &state); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	if state.DV != -44.0 {
		t.Errorf("state_init dv = %v, want -44.0", state.DV)
	}
}

func TestHub_SlowClientDisconnectedOnFullSendBuffer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(testLogger())
	go hub.Run(ctx)

	// Slow client: buffer of one, pre-filled, never drained.
	slow := newHubClient(hub, "slow", 1)
	fast := newHubClient(hub, "fast", 8)
	registerAndWait(t, hub, slow)
	registerAndWait(t, hub, fast)

	slow.send <- []byte(`"already queued"`)

	hub.BroadcastState(GainState{DV: -58.0, AV: -64.1, AmpGain: 0})

	if env := recvFrame(t, fast); env.Type != "gain_state" {
		t.Fatalf("fast client got %q, want gain_state", env.Type)
	}

	// The slow client should be removed and its send channel closed.
	// Drain the pre-filled message first.
	select {
	case <-slow.send:
	default:
	}

	waitUntil(t, 750*time.Millisecond, func() bool {
		select {
		case _, ok := <-slow.send:
			return !ok
		default:
			return false
		}
	}, "expected slow send channel to be closed")
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timeout: %s", msg)
}
