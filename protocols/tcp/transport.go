// protocols/tcp/transport.go
package tcp

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/calcws/calcws-go/pkg/interfaces"
)

var _ interfaces.TransportProtocol = (*TCPProtocol)(nil)

// Config holds the TCP-specific settings.
type Config struct {
	Endpoint     string // host:port
	SetupTimeout time.Duration
}

// TCPProtocol carries one UTF-8 text frame per newline-terminated line.
// TCP is a byte stream with no message boundaries, so the framing is
// explicit: a payload must not itself contain a newline.
type TCPProtocol struct {
	conn        net.Conn
	config      Config
	msgChan     chan interfaces.Message
	closeChan   chan struct{}
	done        chan struct{} // closed when the read pump exits
	connectedAt time.Time
	closeOnce   sync.Once
	writeMu     sync.Mutex
	mu          sync.Mutex
}

func NewTCPProtocol(config Config) (*TCPProtocol, error) {
	return &TCPProtocol{
		config:    config,
		msgChan:   make(chan interfaces.Message, 16),
		closeChan: make(chan struct{}),
		done:      make(chan struct{}),
	}, nil
}

func (p *TCPProtocol) Connect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	dialer := net.Dialer{Timeout: p.config.SetupTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", p.config.Endpoint)
	if err != nil {
		return fmt.Errorf("%w: %v", interfaces.ErrConnectionFailed, err)
	}
	p.conn = conn
	p.connectedAt = time.Now()

	go p.readPump()
	return nil
}

func (p *TCPProtocol) readPump() {
	defer close(p.done)
	defer close(p.msgChan)

	scanner := bufio.NewScanner(p.conn)
	for scanner.Scan() {
		select {
		case <-p.closeChan:
			return
		default:
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		p.msgChan <- interfaces.Message{
			Payload: []byte(line),
			Type:    interfaces.MsgText,
		}
	}
}

func (p *TCPProtocol) Send(data []byte, msgType interfaces.MessageType) error {
	if msgType != interfaces.MsgText {
		return fmt.Errorf("tcp transport carries text frames only")
	}

	p.mu.Lock()
	conn := p.conn
	p.mu.Unlock()
	if conn == nil {
		return interfaces.ErrConnectionFailed
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	frame := append(append([]byte{}, data...), '\n')
	if _, err := conn.Write(frame); err != nil {
		return fmt.Errorf("%w: %v", interfaces.ErrConnectionFailed, err)
	}
	return nil
}

func (p *TCPProtocol) Alive() bool {
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
func (p *TCPProtocol) ConnectedAt() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connectedAt
}

func (p *TCPProtocol) Receive() <-chan interfaces.Message {
	return p.msgChan
}

func (p *TCPProtocol) ProtocolType() string { return "tcp" }

func (p *TCPProtocol) Close() error {
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
