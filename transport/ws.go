package transport

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/emberbase/ember-go/errors"
	"github.com/emberbase/ember-go/types"
)

// WebSocket timeout constants following Gorilla best practices
// See: https://github.com/gorilla/websocket/blob/master/examples/chat/client.go
const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = 54 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 1024 * 1024

	// Default ceiling on reconnect dial attempts: one dial per period,
	// with a small burst for the initial connect
	defaultDialPeriod = 5 * time.Second
	defaultDialBurst  = 2
)

// WSConfig configures the websocket transport
type WSConfig struct {
	// URL of the server websocket endpoint (ws:// or wss://)
	URL string

	// AckTimeout bounds how long Transact waits for the server to confirm
	// a frame before giving up (default: 30s)
	AckTimeout time.Duration

	// DialPeriod rate-limits reconnect attempts (default: one per 5s)
	DialPeriod time.Duration
}

// WS is the production Transport: frames travel as JSON over a single
// websocket connection, reads are pumped on a background goroutine, and the
// connection redials with a rate-limited loop after failures.
//
// Optimistic application happens through the refresh/ack handlers the client
// wires in — the transport itself owns no cache state.
type WS struct {
	config WSConfig
	log    *zap.SugaredLogger

	onAck     AckFunc
	onRefresh func(*types.Entity)

	dialLimiter *rate.Limiter

	writeMu sync.Mutex // serializes writes to conn

	mu     sync.Mutex // guards conn, acks, closed
	conn   *websocket.Conn
	acks   map[string]chan error // client event id -> ack channel
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWS creates a websocket transport. onAck and onRefresh may be nil.
func NewWS(config WSConfig, onAck AckFunc, onRefresh func(*types.Entity), log *zap.SugaredLogger) *WS {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if config.AckTimeout <= 0 {
		config.AckTimeout = 30 * time.Second
	}
	dialPeriod := config.DialPeriod
	if dialPeriod <= 0 {
		dialPeriod = defaultDialPeriod
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &WS{
		config:      config,
		log:         log,
		onAck:       onAck,
		onRefresh:   onRefresh,
		dialLimiter: rate.NewLimiter(rate.Every(dialPeriod), defaultDialBurst),
		acks:        make(map[string]chan error),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Connect dials the server and starts the read pump. Reconnection after a
// dropped connection is automatic; Connect only needs to succeed once.
func (w *WS) Connect(ctx context.Context) error {
	if err := w.dial(ctx); err != nil {
		return err
	}

	w.wg.Add(1)
	go w.readPump()

	w.wg.Add(1)
	go w.pingLoop()

	return nil
}

// dial establishes the websocket connection, respecting the dial rate limit
func (w *WS) dial(ctx context.Context) error {
	if err := w.dialLimiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "dial rate limit wait interrupted")
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.config.URL, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to dial %s", w.config.URL)
	}

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	w.mu.Lock()
	w.conn = conn
	w.mu.Unlock()

	w.log.Infow("Connected", "url", w.config.URL)
	return nil
}

// Transact implements Transport. The frame is written with a fresh client
// event id; the call blocks until the server acks that id, the ack times
// out, or ctx is cancelled.
func (w *WS) Transact(ctx context.Context, appID string, chunks []types.TransactionChunk) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return errors.ErrTransportClosed
	}
	conn := w.conn
	if conn == nil {
		w.mu.Unlock()
		return errors.ErrNotConnected
	}

	eventID := uuid.NewString()
	ackCh := make(chan error, 1)
	w.acks[eventID] = ackCh
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		delete(w.acks, eventID)
		w.mu.Unlock()
	}()

	frame := &Frame{
		Op:            OpTransact,
		ClientEventID: eventID,
		AppID:         appID,
		Chunks:        chunks,
	}
	if err := w.writeFrame(conn, frame); err != nil {
		return errors.Wrap(err, "failed to send transact frame")
	}

	select {
	case err := <-ackCh:
		return err
	case <-time.After(w.config.AckTimeout):
		return errors.Wrapf(errors.ErrAckTimeout, "event %s", eventID)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// writeFrame serializes and writes one frame under the write lock
func (w *WS) writeFrame(conn *websocket.Conn, frame *Frame) error {
	data, err := EncodeFrame(frame)
	if err != nil {
		return err
	}

	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// readPump reads frames until the transport closes, redialling after
// connection failures
func (w *WS) readPump() {
	defer w.wg.Done()

	for {
		w.mu.Lock()
		conn := w.conn
		closed := w.closed
		w.mu.Unlock()

		if closed {
			return
		}
		if conn == nil {
			if !w.reconnect() {
				return
			}
			continue
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			if w.ctx.Err() != nil {
				return
			}
			w.log.Warnw("Connection lost", "error", err)
			w.mu.Lock()
			w.conn = nil
			w.mu.Unlock()
			conn.Close()
			continue
		}

		frame, err := DecodeFrame(data)
		if err != nil {
			w.log.Warnw("Dropping malformed frame", "error", err)
			continue
		}
		w.dispatch(frame)
	}
}

// reconnect redials until it succeeds or the transport closes. The dial
// limiter keeps the retry rate bounded; no further backoff is needed.
func (w *WS) reconnect() bool {
	for {
		if w.ctx.Err() != nil {
			return false
		}
		if err := w.dial(w.ctx); err != nil {
			if w.ctx.Err() != nil {
				return false
			}
			w.log.Warnw("Reconnect failed", "error", err)
			continue
		}
		return true
	}
}

// dispatch routes one inbound frame
func (w *WS) dispatch(frame *Frame) {
	switch frame.Op {
	case OpTransactOK:
		w.resolveAck(frame.ClientEventID, nil)
		if w.onAck != nil {
			for _, chunk := range frame.Chunks {
				w.onAck(chunk)
			}
		}
	case OpError:
		w.resolveAck(frame.ClientEventID, errors.Newf("server rejected transaction: %s", frame.Message))
	case OpRefresh:
		if w.onRefresh != nil {
			for _, e := range frame.Entities {
				w.onRefresh(e)
			}
		}
	default:
		w.log.Debugw("Ignoring unknown frame op", "op", frame.Op)
	}
}

// resolveAck completes the waiting Transact call for an event id, if any
func (w *WS) resolveAck(eventID string, err error) {
	w.mu.Lock()
	ch, ok := w.acks[eventID]
	if ok {
		delete(w.acks, eventID)
	}
	w.mu.Unlock()

	if ok {
		ch <- err
	}
}

// pingLoop keeps the connection alive per the Gorilla ping/pong protocol
func (w *WS) pingLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.mu.Lock()
			conn := w.conn
			w.mu.Unlock()
			if conn == nil {
				continue
			}

			w.writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			w.writeMu.Unlock()
			if err != nil {
				w.log.Debugw("Ping failed", "error", err)
			}
		}
	}
}

// Close implements Transport: cancels the pumps and closes the connection
func (w *WS) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	conn := w.conn
	w.conn = nil
	w.mu.Unlock()

	w.cancel()
	if conn != nil {
		conn.Close()
	}
	w.wg.Wait()
	return nil
}
