// pkg/interfaces/transport.go
package interfaces

import (
	"context"
	"errors"
)

var (
	ErrConnectionFailed    = errors.New("connection failed")
	ErrUnsupportedProtocol = errors.New("unsupported protocol")
)

// TransportProtocol is the duplex message channel the client talks
// through. One instance wraps exactly one connection; replacing the
// connection means replacing the instance.
type TransportProtocol interface {
	Connect(ctx context.Context) error
	Send(data []byte, msgType MessageType) error
	Receive() <-chan Message
	// Alive reports whether the connection is still usable. It flips to
	// false as soon as the read side fails or Close is called.
	Alive() bool
	Close() error
	ProtocolType() string
}

type Message struct {
	Payload []byte
	Type    MessageType
}

type MessageType int

const (
	MsgText    MessageType = iota // JSON text frame
	MsgBinary                     // raw binary frame
	MsgControl                    // control frame
)
