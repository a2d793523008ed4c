package backend

import (
	"context"
	"encoding/json"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
)

const (
	dialTimeout          = 30 * time.Second
	baseReconnectDelay   = 5 * time.Second
	maxReconnectDelay    = 5 * time.Minute
	maxReconnectAttempts = 10
)

// changeHint is the push message the backend sends when server-side data
// changed and the local store should re-sync.
type changeHint struct {
	Kind string `json:"kind"` // "transactions", "accounts" or empty for all
}

// ChangeListener subscribes to the backend's change-hint websocket and
// invokes the callback for every hint. It reconnects with exponential
// backoff and gives up after maxReconnectAttempts consecutive failures.
type ChangeListener struct {
	url      string
	onChange func(kind string)
	log      zerolog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped bool
}

// NewChangeListener creates a change listener. onChange is called from the
// read loop goroutine; callbacks must be fast or dispatch their own work.
func NewChangeListener(url string, onChange func(kind string), log zerolog.Logger) *ChangeListener {
	return &ChangeListener{
		url:      url,
		onChange: onChange,
		log:      log.With().Str("client", "change_listener").Logger(),
	}
}

// Start begins listening in a background goroutine
func (l *ChangeListener) Start() {
	ctx, cancel := context.WithCancel(context.Background())

	l.mu.Lock()
	l.cancel = cancel
	l.stopped = false
	l.mu.Unlock()

	go l.run(ctx)
}

// Stop terminates the listener and any in-flight connection
func (l *ChangeListener) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopped = true
	if l.cancel != nil {
		l.cancel()
	}
}

func (l *ChangeListener) run(ctx context.Context) {
	attempts := 0

	for {
		if ctx.Err() != nil {
			return
		}

		err := l.listen(ctx)
		if ctx.Err() != nil {
			return
		}

		attempts++
		if attempts > maxReconnectAttempts {
			l.log.Error().
				Int("attempts", attempts-1).
				Msg("Giving up on change stream, falling back to scheduled sync only")
			return
		}

		delay := reconnectDelay(attempts)
		l.log.Warn().
			Err(err).
			Int("attempt", attempts).
			Dur("retry_in", delay).
			Msg("Change stream disconnected")

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// listen dials the stream and forwards hints until the connection drops
func (l *ChangeListener) listen(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	conn, _, err := websocket.Dial(dialCtx, l.url, nil)
	cancel()
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "shutting down")

	l.log.Info().Str("url", l.url).Msg("Connected to change stream")

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		var hint changeHint
		if err := json.Unmarshal(data, &hint); err != nil {
			l.log.Warn().Err(err).Msg("Ignoring malformed change hint")
			continue
		}

		l.log.Debug().Str("kind", hint.Kind).Msg("Change hint received")
		l.onChange(hint.Kind)
	}
}

// reconnectDelay computes exponential backoff capped at maxReconnectDelay
func reconnectDelay(attempt int) time.Duration {
	delay := time.Duration(float64(baseReconnectDelay) * math.Pow(2, float64(attempt-1)))
	if delay > maxReconnectDelay {
		return maxReconnectDelay
	}
	return delay
}
