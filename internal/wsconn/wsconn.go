// Package wsconn wraps a gorilla/websocket duplex connection for the
// session actor (§4.7), adapted from the teacher's
// internal/network/websocket.go WebSocketConn/readMessages pair:
// connection setup, a background read-loop goroutine feeding a buffered
// channel, and text/binary frame writers, generalized to the typed
// Message the modeling transport exchanges instead of raw strings.
package wsconn

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"kcep/internal/errors"
)

// MessageType distinguishes text (JSON command/response) frames from
// binary (export) frames, mirroring WebSocketMessage.Type in the teacher.
type MessageType int

const (
	Text MessageType = iota
	Binary
)

// Message is one inbound or outbound frame.
type Message struct {
	Type MessageType
	Data []byte
}

// Conn is a single duplex websocket connection.
type Conn struct {
	conn *websocket.Conn

	mu      sync.Mutex
	closed  bool
	inbound chan Message
}

// Dial opens a connection to url, grounded on the teacher's
// WebSocketConnect (DefaultDialer with a 10s handshake timeout).
func Dial(url string) (*Conn, error) {
	dialer := websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	raw, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, errors.NewWebSocketSend(fmt.Errorf("dial %s: %w", url, err))
	}
	c := &Conn{conn: raw, inbound: make(chan Message, 100)}
	go c.readLoop()
	return c, nil
}

// readLoop continuously reads frames into the inbound channel until the
// connection closes, the same shape as the teacher's readMessages
// goroutine (drop-oldest-on-full backpressure policy included).
func (c *Conn) readLoop() {
	defer close(c.inbound)
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			c.closed = true
			c.mu.Unlock()
			return
		}

		var mt MessageType
		switch kind {
		case websocket.TextMessage:
			mt = Text
		case websocket.BinaryMessage:
			mt = Binary
		default:
			continue
		}

		msg := Message{Type: mt, Data: data}
		select {
		case c.inbound <- msg:
		default:
			<-c.inbound
			c.inbound <- msg
		}
	}
}

// Inbound returns the channel of frames read off the wire. It closes when
// the connection does.
func (c *Conn) Inbound() <-chan Message {
	return c.inbound
}

// SendText writes a text frame (JSON command envelopes).
func (c *Conn) SendText(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.NewWebSocketClosed()
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return errors.NewWebSocketSend(err)
	}
	return nil
}

// SendBinary writes a binary frame.
func (c *Conn) SendBinary(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.NewWebSocketClosed()
	}
	if err := c.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return errors.NewWebSocketSend(err)
	}
	return nil
}

// Close sends a close frame and tears down the connection.
func (c *Conn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}
