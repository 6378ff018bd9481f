package trackbar

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/jax-b/trackbar/pkg/trackbar/util"
)

const (
	feedPath = "/ws"

	feedClientBufferSize = 16
	feedWriteTimeout     = 2 * time.Second
)

// FeedCommand is a remote request to move the slider
type FeedCommand struct {
	SetPercentage bool
	Percentage    float64

	// negative steps down, positive steps up
	Step int
}

// Apply carries out the command on the given slider
func (fc FeedCommand) Apply(s *Slider) {
	if fc.SetPercentage {
		s.SetProgress(util.Clamp01(fc.Percentage))
		return
	}

	s.Step(fc.Step)
}

type feedClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Feed is a websocket endpoint broadcasting every slider change and accepting remote commands
type Feed struct {
	logger  *zap.SugaredLogger
	address string

	upgrader websocket.Upgrader
	server   *http.Server
	listener net.Listener

	clients map[*feedClient]bool
	lock    sync.Mutex

	commands chan FeedCommand
	stopped  chan struct{}
}

// NewFeed creates a Feed that will listen on the given address once started
func NewFeed(logger *zap.SugaredLogger, address string) *Feed {
	logger = logger.Named("feed")

	f := &Feed{
		logger:  logger,
		address: address,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:  make(map[*feedClient]bool),
		commands: make(chan FeedCommand),
		stopped:  make(chan struct{}),
	}

	logger.Debugw("Created feed instance", "address", address)

	return f
}

// Start begins serving websocket clients in the background
func (f *Feed) Start() error {
	listener, err := net.Listen("tcp", f.address)
	if err != nil {
		f.logger.Warnw("Failed to listen for feed clients", "address", f.address, "error", err)
		return fmt.Errorf("listen on %s: %w", f.address, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(feedPath, f.handleWebsocket)

	f.listener = listener
	f.server = &http.Server{Handler: mux}

	go func() {
		if err := f.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			f.logger.Warnw("Feed server stopped unexpectedly", "error", err)
		}
	}()

	f.logger.Infow("Serving slider feed", "address", listener.Addr().String(), "path", feedPath)

	return nil
}

// Stop closes the server and disconnects every client
func (f *Feed) Stop() {
	if f.server == nil {
		f.logger.Debug("Feed not started, nothing to stop")
		return
	}

	close(f.stopped)

	if err := f.server.Close(); err != nil {
		f.logger.Warnw("Failed to close feed server", "error", err)
	}

	f.lock.Lock()
	defer f.lock.Unlock()

	for client := range f.clients {
		client.conn.Close()
		delete(f.clients, client)
	}

	f.logger.Debug("Stopped feed")
}

// Addr returns the address the feed actually listens on
func (f *Feed) Addr() string {
	if f.listener == nil {
		return f.address
	}

	return f.listener.Addr().String()
}

// Commands returns the channel remote commands are delivered on
func (f *Feed) Commands() <-chan FeedCommand {
	return f.commands
}

// ClientCount returns the number of connected clients
func (f *Feed) ClientCount() int {
	f.lock.Lock()
	defer f.lock.Unlock()

	return len(f.clients)
}

// Broadcast is a Subscriber sending the slider's selection to every connected client.
// Slow clients miss updates rather than holding up the slider
func (f *Feed) Broadcast(value float64, position int, percentage float64) {
	msg, err := encodeFeedUpdate(value, position, percentage)
	if err != nil {
		f.logger.Warnw("Failed to encode feed update", "error", err)
		return
	}

	f.lock.Lock()
	defer f.lock.Unlock()

	for client := range f.clients {
		select {
		case client.send <- msg:
		default:
			f.logger.Debugw("Feed client too slow, dropping update", "client", client.conn.RemoteAddr())
		}
	}
}

func (f *Feed) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Warnw("Failed to upgrade feed connection", "remote", r.RemoteAddr, "error", err)
		return
	}

	client := &feedClient{
		conn: conn,
		send: make(chan []byte, feedClientBufferSize),
	}

	f.lock.Lock()
	f.clients[client] = true
	f.lock.Unlock()

	f.logger.Infow("Feed client connected", "remote", conn.RemoteAddr())

	go f.writeLoop(client)
	f.readLoop(client)
}

func (f *Feed) writeLoop(client *feedClient) {
	for msg := range client.send {
		client.conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))

		if err := client.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			f.logger.Debugw("Failed to write to feed client", "error", err)
			return
		}
	}
}

func (f *Feed) readLoop(client *feedClient) {
	defer f.removeClient(client)

	for {
		_, msg, err := client.conn.ReadMessage()
		if err != nil {
			f.logger.Debugw("Feed client disconnected", "remote", client.conn.RemoteAddr(), "error", err)
			return
		}

		command, ok := parseFeedCommand(msg)
		if !ok {
			f.logger.Debugw("Ignoring malformed feed command", "message", string(msg))
			continue
		}

		select {
		case f.commands <- command:
		case <-f.stopped:
			return
		}
	}
}

func (f *Feed) removeClient(client *feedClient) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if _, ok := f.clients[client]; ok {
		delete(f.clients, client)
		client.conn.Close()
	}

	close(client.send)
}

func encodeFeedUpdate(value float64, position int, percentage float64) ([]byte, error) {
	msg, err := sjson.SetBytes([]byte(`{}`), "value", value)
	if err != nil {
		return nil, fmt.Errorf("set value: %w", err)
	}

	if msg, err = sjson.SetBytes(msg, "position", position); err != nil {
		return nil, fmt.Errorf("set position: %w", err)
	}

	if msg, err = sjson.SetBytes(msg, "percentage", percentage); err != nil {
		return nil, fmt.Errorf("set percentage: %w", err)
	}

	return msg, nil
}

// parseFeedCommand accepts {"percentage": 0.3} or {"step": -1}
func parseFeedCommand(msg []byte) (FeedCommand, bool) {
	if !gjson.ValidBytes(msg) {
		return FeedCommand{}, false
	}

	if percentage := gjson.GetBytes(msg, "percentage"); percentage.Type == gjson.Number {
		return FeedCommand{SetPercentage: true, Percentage: percentage.Float()}, true
	}

	if step := gjson.GetBytes(msg, "step"); step.Type == gjson.Number && step.Int() != 0 {
		return FeedCommand{Step: int(step.Int())}, true
	}

	return FeedCommand{}, false
}
