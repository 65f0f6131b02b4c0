// protocols/websocket/transport.go
package websocket

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/calcws/calcws-go/pkg/interfaces"
)

var _ interfaces.TransportProtocol = (*WSProtocol)(nil)

// Config holds the websocket-specific settings.
type Config struct {
	Endpoint     string        // ws:// or wss:// URL of the peer
	SetupTimeout time.Duration // bound on dial + handshake
}

type WSProtocol struct {
	conn        *websocket.Conn
	config      Config
	msgChan     chan interfaces.Message
	closeChan   chan struct{}
	done        chan struct{} // closed when the read pump exits
	connectedAt time.Time
	closeOnce   sync.Once
	mu          sync.Mutex
}

func NewWebSocketProtocol(config Config) (*WSProtocol, error) {
	return &WSProtocol{
		config:    config,
		msgChan:   make(chan interfaces.Message, 16),
		closeChan: make(chan struct{}),
		done:      make(chan struct{}),
	}, nil
}

func (p *WSProtocol) Connect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.config.SetupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.SetupTimeout)
		defer cancel()
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, p.config.Endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", interfaces.ErrConnectionFailed, err)
	}
	p.conn = conn
	p.connectedAt = time.Now()

	go p.readPump()
	return nil
}

func (p *WSProtocol) readPump() {
	defer close(p.done)
	defer close(p.msgChan)
	for {
		select {
		case <-p.closeChan:
			return
		default:
			msgType, data, err := p.conn.ReadMessage()
			if err != nil {
				return
			}
			p.msgChan <- interfaces.Message{
				Payload: data,
				Type:    convertMsgType(msgType),
			}
		}
	}
}

func convertMsgType(wsType int) interfaces.MessageType {
	switch wsType {
	case websocket.TextMessage:
		return interfaces.MsgText
	case websocket.BinaryMessage:
		return interfaces.MsgBinary
	default:
		return interfaces.MsgControl
	}
}

func (p *WSProtocol) Send(data []byte, msgType interfaces.MessageType) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		return interfaces.ErrConnectionFailed
	}

	wsType := websocket.TextMessage
	if msgType == interfaces.MsgBinary {
		wsType = websocket.BinaryMessage
	}
	return p.conn.WriteMessage(wsType, data)
}

// Alive flips to false as soon as the read pump exits, so a connection
// dropped by the peer is detected without writing to it first.
func (p *WSProtocol) Alive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// ConnectedAt reports when the current connection was established.
// Zero if Connect has not succeeded yet. Diagnostics only.
func (p *WSProtocol) ConnectedAt() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connectedAt
}

func (p *WSProtocol) Receive() <-chan interfaces.Message {
	return p.msgChan
}

func (p *WSProtocol) ProtocolType() string { return "websocket" }

func (p *WSProtocol) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.closeChan)
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.conn != nil {
			err = p.conn.Close()
		}
	})
	return err
}
