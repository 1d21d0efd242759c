package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"go.uber.org/zap"

	"helios/internal/activity"
	"helios/internal/notify"
	"helios/internal/stream"
)

// ErrSessionBusy is returned when a query is asked while a previous turn is
// still streaming. The session holds a single in-flight slot; callers decide
// whether to queue or surface the rejection.
var ErrSessionBusy = errors.New("chat: a query is already streaming")

// StreamClient issues the streaming query request and hands back the raw
// chunked response body. Implementations fail fast when no bearer token is
// available and return a typed error for non-success HTTP statuses.
type StreamClient interface {
	StreamQuery(ctx context.Context, goalID, query string) (io.ReadCloser, error)
}

// StreamError is a backend failure reported inside the stream via an
// `error` event.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	return "stream error: " + e.Message
}

// Session drives one query lifecycle at a time against a Store:
// append the user message and an empty agent placeholder, issue the
// request, pump the read loop through decoder and parser, and reconcile
// each event into the placeholder in place.
type Session struct {
	client   StreamClient
	store    *Store
	notifier notify.Notifier
	logger   *zap.Logger

	// inFlight is the single-slot guard: one decode loop per user turn.
	inFlight atomic.Bool

	readBufSize int
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithNotifier injects the notification collaborator.
func WithNotifier(n notify.Notifier) SessionOption {
	return func(s *Session) { s.notifier = n }
}

// WithLogger injects a logger.
func WithLogger(logger *zap.Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

// NewSession returns a session writing into store.
func NewSession(client StreamClient, store *Store, opts ...SessionOption) *Session {
	s := &Session{
		client:      client,
		store:       store,
		notifier:    notify.Nop{},
		logger:      zap.NewNop(),
		readBufSize: 4096,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the conversation log the session writes into.
func (s *Session) Store() *Store {
	return s.store
}

// Ask runs one full query turn and returns the placeholder message id. The
// placeholder is mutated in place until the stream terminates and is left
// exactly as last mutated: if the transport ended without a `complete`
// event, its activity snapshot stays incomplete by design, since transport
// EOF is authoritative for loop termination but not for business-level
// completion.
//
// On any failure — missing token, transport error, non-success status, or a
// parsed `error` event — a new, separate failure message is appended and the
// partial placeholder is left untouched. Cancelling ctx ends a stalled
// stream; there is no intrinsic timeout.
func (s *Session) Ask(ctx context.Context, goalID, query string) (string, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return "", ErrSessionBusy
	}
	defer s.inFlight.Store(false)

	s.store.Append(Message{Role: RoleUser, Content: query})

	snap := activity.NewSnapshot()
	placeholder := s.store.Append(Message{Role: RoleAgent, Activity: &snap})

	s.logger.Debug("issuing agent query",
		zap.String("goal_id", goalID),
		zap.String("message_id", placeholder.ID))

	body, err := s.client.StreamQuery(ctx, goalID, query)
	if err != nil {
		s.fail(fmt.Errorf("starting query: %w", err))
		return placeholder.ID, err
	}

	// The body must be released on every exit path: normal completion,
	// stream errors, and cancellation mid-read.
	defer body.Close()

	if err := s.consume(ctx, body, placeholder.ID); err != nil {
		s.fail(err)
		return placeholder.ID, err
	}

	s.logger.Debug("agent query finished", zap.String("message_id", placeholder.ID))
	return placeholder.ID, nil
}

// consume pumps the read loop. The transport is pull-based: the next chunk
// is requested only after the previous one's frames are fully applied, so
// decoding, parsing, and classification run synchronously in strict arrival
// order and unread network data never buffers without bound.
func (s *Session) consume(ctx context.Context, body io.Reader, placeholderID string) error {
	decoder := stream.NewFrameDecoder()
	buf := make([]byte, s.readBufSize)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, readErr := body.Read(buf)
		if n > 0 {
			for _, payload := range decoder.Feed(buf[:n]) {
				done, err := s.apply(placeholderID, stream.ParseEvent(payload))
				if err != nil {
					return err
				}
				if done {
					return nil
				}
			}
			if decoder.Done() {
				// [DONE] sentinel observed.
				return nil
			}
		}
		if readErr == io.EOF {
			decoder.Finish()
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("reading stream: %w", readErr)
		}
	}
}

// apply reconciles one parsed event into the placeholder message. It
// returns done=true for a complete event and an error for an error event;
// the caller stops the loop in both cases.
func (s *Session) apply(placeholderID string, event stream.Event) (done bool, err error) {
	switch event.Kind {
	case stream.EventSources:
		s.store.Update(placeholderID, func(m *Message) {
			m.Sources = event.Sources
		})

	case stream.EventContent:
		s.store.Update(placeholderID, func(m *Message) {
			m.Content += event.Content
			if m.Activity != nil {
				// Rescan the full accumulated content, not just the
				// fragment: a marker may straddle fragment boundaries.
				activity.Update(m.Activity, m.Content)
			}
		})

	case stream.EventComplete:
		s.store.Update(placeholderID, func(m *Message) {
			// The backend's no-data path delivers the whole answer on
			// the complete event itself.
			if event.Content != "" {
				m.Content += event.Content
			}
			if event.Sources != nil {
				m.Sources = event.Sources
			}
			if m.Activity == nil {
				snap := activity.NewSnapshot()
				m.Activity = &snap
			}
			activity.Complete(m.Activity)
		})
		return true, nil

	case stream.EventError:
		return false, &StreamError{Message: event.Message}
	}
	return false, nil
}

// fail appends the terminal failure message for this turn and notifies the
// consuming view. The placeholder keeps whatever partial content it had; no
// rollback.
func (s *Session) fail(err error) {
	s.logger.Warn("agent query failed", zap.Error(err))
	s.store.Append(Message{
		Role:    RoleAgent,
		Content: fmt.Sprintf("The query could not be completed: %v", err),
		Failed:  true,
	})
	s.notifier.Notify(notify.LevelError, err.Error())
}
