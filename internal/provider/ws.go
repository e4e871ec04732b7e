package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WSNotifier implements ChangeNotifier over a websocket feed of pool state
// changes. Each subscription holds its own connection; a dropped connection
// is redialed until the subscription is closed.
type WSNotifier struct {
	URL    string
	Logger *zap.Logger
}

// NewWSNotifier creates a notifier for the given websocket endpoint.
func NewWSNotifier(url string, logger *zap.Logger) *WSNotifier {
	return &WSNotifier{URL: url, Logger: logger}
}

type wsSubscribeMsg struct {
	Method  string `json:"method"`
	Address string `json:"address"`
}

type wsChangeMsg struct {
	Address string `json:"address"`
	Slot    int64  `json:"slot"`
}

type wsSubscription struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (s *wsSubscription) Close() error {
	s.cancel()
	<-s.done
	return nil
}

// SubscribePoolChange opens a connection, subscribes to state changes for
// the pool and invokes handler on every notification until Close.
func (n *WSNotifier) SubscribePoolChange(ctx context.Context, address string, handler PoolChangeHandler) (Subscription, error) {
	subCtx, cancel := context.WithCancel(ctx)

	conn, err := n.dial(subCtx, address)
	if err != nil {
		cancel()
		return nil, &Error{Op: "subscribe", Address: address, Err: err}
	}

	sub := &wsSubscription{cancel: cancel, done: make(chan struct{})}
	go n.readLoop(subCtx, conn, address, handler, sub.done)
	return sub, nil
}

func (n *WSNotifier) dial(ctx context.Context, address string) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, n.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", n.URL, err)
	}
	if err := conn.WriteJSON(wsSubscribeMsg{Method: "poolSubscribe", Address: address}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribe %s: %w", address, err)
	}
	return conn, nil
}

func (n *WSNotifier) readLoop(ctx context.Context, conn *websocket.Conn, address string, handler PoolChangeHandler, done chan struct{}) {
	defer close(done)

	for {
		err := n.consume(ctx, conn, address, handler)
		if ctx.Err() != nil {
			return
		}
		n.Logger.Warn("pool subscription read failed, redialing",
			zap.String("pool", address), zap.Error(err))
		conn = n.redial(ctx, address)
		if conn == nil {
			return
		}
	}
}

// consume reads notifications until the connection breaks or ctx is done.
func (n *WSNotifier) consume(ctx context.Context, conn *websocket.Conn, address string, handler PoolChangeHandler) error {
	// Unblock ReadMessage when the subscription is closed.
	var once sync.Once
	closeConn := func() { once.Do(func() { conn.Close() }) }
	defer closeConn()
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			closeConn()
		case <-stop:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var msg wsChangeMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			n.Logger.Warn("bad pool change message", zap.String("pool", address), zap.Error(err))
			continue
		}
		if msg.Address == address {
			handler(address)
		}
	}
}

// redial reconnects with a fixed delay until it succeeds or the
// subscription is cancelled. Returns nil on cancellation.
func (n *WSNotifier) redial(ctx context.Context, address string) *websocket.Conn {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(5 * time.Second):
		}
		conn, err := n.dial(ctx, address)
		if err == nil {
			n.Logger.Info("pool subscription reconnected", zap.String("pool", address))
			return conn
		}
		n.Logger.Warn("pool subscription redial failed", zap.String("pool", address), zap.Error(err))
	}
}
