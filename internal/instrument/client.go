package instrument

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/openqlab/gatectl/internal/logging"
)

const (
	// DefaultDialTimeout is the timeout for the WebSocket handshake
	DefaultDialTimeout = 5 * time.Second

	// DefaultRequestTimeout is the per-request read/write deadline.
	// DAC settling is included in the instrument's acknowledgement, so
	// this must cover the slowest ramp the server performs.
	DefaultRequestTimeout = 30 * time.Second
)

// request is a single instrument command. Every request carries a
// sequence number which the server echoes back in its response.
type request struct {
	Seq      uint64   `json:"seq"`
	Op       string   `json:"op"` // "set" or "get"
	Channel  string   `json:"channel,omitempty"`
	Value    float64  `json:"value,omitempty"`
	Channels []string `json:"channels,omitempty"`
}

// response is the instrument's reply to a request
type response struct {
	Seq    uint64    `json:"seq"`
	OK     bool      `json:"ok"`
	Error  string    `json:"error,omitempty"`
	Values []float64 `json:"values,omitempty"`
}

// Client is a JSON-over-WebSocket connection to a DAC instrument server.
//
// Requests are strictly sequential: one command is in flight at a time and
// each call blocks until the server acknowledges it. This matches the
// instrument's execution model, where a set command returns only after the
// output has settled. Client implements Conn.
type Client struct {
	// Endpoint is the WebSocket URL of the instrument server
	// (e.g., "ws://dac-rack2.local:7768/channels")
	Endpoint string

	// RequestTimeout bounds each individual request round trip
	RequestTimeout time.Duration

	conn   *websocket.Conn
	seq    uint64
	mutex  sync.Mutex
	closed bool
}

// Dial connects to an instrument server at the given WebSocket URL
func Dial(endpoint string) (*Client, error) {
	dialer := websocket.Dialer{HandshakeTimeout: DefaultDialTimeout}

	conn, _, err := dialer.Dial(endpoint, nil)
	if err != nil {
		classified := classifyNetworkError(err, endpoint)
		classified.Message = "failed to connect to instrument"
		return nil, classified
	}

	logging.Info("Connected to instrument", zap.String("endpoint", endpoint))

	return &Client{
		Endpoint:       endpoint,
		RequestTimeout: DefaultRequestTimeout,
		conn:           conn,
	}, nil
}

// SetChannel writes a voltage to a single physical channel. It blocks
// until the instrument acknowledges that the output has settled.
func (c *Client) SetChannel(channel string, value float64) error {
	if channel == "" {
		return NewValidationError("channel id cannot be empty")
	}

	logging.LogChannelWrite(channel, value)

	resp, err := c.roundTrip(&request{
		Op:      "set",
		Channel: channel,
		Value:   value,
	})
	if err != nil {
		return err
	}

	if !resp.OK {
		return newRemoteError(channel, resp.Error)
	}
	return nil
}

// ReadChannels reads the realized voltage of each named channel in a
// single batched request. Values come back in request order.
func (c *Client) ReadChannels(channels []string) ([]float64, error) {
	if len(channels) == 0 {
		return nil, NewValidationError("no channels requested")
	}
	for _, ch := range channels {
		if ch == "" {
			return nil, NewValidationError("channel id cannot be empty")
		}
	}

	resp, err := c.roundTrip(&request{
		Op:       "get",
		Channels: channels,
	})
	if err != nil {
		return nil, err
	}

	if !resp.OK {
		return nil, newRemoteError("", resp.Error)
	}

	if len(resp.Values) != len(channels) {
		return nil, newProtocolError(
			fmt.Sprintf("requested %d channels, instrument returned %d values", len(channels), len(resp.Values)), nil)
	}

	logging.LogChannelRead(channels, resp.Values)
	return resp.Values, nil
}

// roundTrip sends one request and waits for its matching response
func (c *Client) roundTrip(req *request) (*response, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.closed {
		return nil, &Error{Type: ErrTypeClosed, Message: "connection is closed", Endpoint: c.Endpoint}
	}

	c.seq++
	req.Seq = c.seq

	deadline := time.Now().Add(c.RequestTimeout)
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return nil, classifyNetworkError(err, c.Endpoint)
	}
	if err := c.conn.WriteJSON(req); err != nil {
		return nil, classifyNetworkError(err, c.Endpoint)
	}

	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return nil, classifyNetworkError(err, c.Endpoint)
	}

	// Discard stale responses (e.g., left over from a timed-out request)
	// until the sequence numbers line up.
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, classifyNetworkError(err, c.Endpoint)
		}

		var resp response
		if err := json.Unmarshal(data, &resp); err != nil {
			return nil, newProtocolError("failed to parse instrument response", err)
		}

		if resp.Seq == req.Seq {
			return &resp, nil
		}
		if resp.Seq > req.Seq {
			return nil, newProtocolError(
				fmt.Sprintf("response sequence %d ahead of request %d", resp.Seq, req.Seq), nil)
		}
	}
}

// Close closes the WebSocket connection. Safe to call more than once.
func (c *Client) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	// Best effort close handshake; the deadline keeps a dead peer from
	// blocking shutdown.
	deadline := time.Now().Add(time.Second)
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)

	err := c.conn.Close()
	logging.Info("Disconnected from instrument", zap.String("endpoint", c.Endpoint))
	return err
}
