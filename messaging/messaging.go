// Package messaging handles direct messages between users and the admin
// inbox.
package messaging

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"streamfusion/events"
	"streamfusion/storage"
)

// AdminInbox is the participant id every admin reads and writes as.
const AdminInbox = "admin"

// MaxBodyLength caps a single message.
const MaxBodyLength = 2000

var ErrEmptyMessage = errors.New("message body is empty")
var ErrMessageTooLong = errors.New("message body is too long")

// Store is the message persistence the service needs.
type Store interface {
	SaveMessage(ctx context.Context, m storage.Message) (storage.Message, error)
	ListMessagesFor(ctx context.Context, participant string) ([]storage.Message, error)
	MarkThreadRead(ctx context.Context, viewer, other string) (int64, error)
}

// Conversation summarizes a thread from one viewer's side.
type Conversation struct {
	With        string          `json:"with"`
	LastMessage storage.Message `json:"last_message"`
	Unread      int             `json:"unread"`
	Messages    int             `json:"messages"`
}

// Service sends and lists messages and publishes them on the bus.
type Service struct {
	store  Store
	bus    *events.Bus
	logger zerolog.Logger
}

// NewService creates the messaging service. bus may be nil.
func NewService(store Store, bus *events.Bus, logger zerolog.Logger) *Service {
	return &Service{store: store, bus: bus, logger: logger.With().Str("component", "messaging").Logger()}
}

// Send stores a message from one participant to another.
func (s *Service) Send(ctx context.Context, from, to, body string) (storage.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return storage.Message{}, ErrEmptyMessage
	}
	if len([]rune(body)) > MaxBodyLength {
		return storage.Message{}, ErrMessageTooLong
	}

	m, err := s.store.SaveMessage(ctx, storage.Message{From: from, To: to, Body: body})
	if err != nil {
		return storage.Message{}, err
	}
	s.logger.Debug().Str("from", from).Str("to", to).Msg("message sent")
	if s.bus != nil {
		s.bus.Publish(events.EventMessageCreated, events.Payload{
			"id":         m.ID,
			"from":       m.From,
			"to":         m.To,
			"body":       m.Body,
			"created_at": m.CreatedAt.Format(time.RFC3339Nano),
		})
	}
	return m, nil
}

// Counterpart is the other side of a message as seen by viewer. Messages
// sent by the viewer or by the admin inbox are grouped under their
// recipient, everything else under its sender.
func Counterpart(m storage.Message, viewer string) string {
	if m.From == viewer || m.From == AdminInbox {
		return m.To
	}
	return m.From
}

// Conversations groups the viewer's messages by counterpart, most recent
// thread first.
func (s *Service) Conversations(ctx context.Context, viewer string) ([]Conversation, error) {
	msgs, err := s.store.ListMessagesFor(ctx, viewer)
	if err != nil {
		return nil, err
	}
	return groupConversations(msgs, viewer), nil
}

func groupConversations(msgs []storage.Message, viewer string) []Conversation {
	byOther := map[string]*Conversation{}
	var order []string
	for _, m := range msgs {
		other := Counterpart(m, viewer)
		c, ok := byOther[other]
		if !ok {
			c = &Conversation{With: other}
			byOther[other] = c
			order = append(order, other)
		}
		c.Messages++
		if !m.CreatedAt.Before(c.LastMessage.CreatedAt) {
			c.LastMessage = m
		}
		if m.To == viewer && !m.Read {
			c.Unread++
		}
	}

	out := make([]Conversation, 0, len(order))
	for _, k := range order {
		out = append(out, *byOther[k])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastMessage.CreatedAt.After(out[j].LastMessage.CreatedAt)
	})
	return out
}

// Thread returns the messages between viewer and other, oldest first, and
// marks the ones addressed to viewer as read.
func (s *Service) Thread(ctx context.Context, viewer, other string) ([]storage.Message, error) {
	msgs, err := s.store.ListMessagesFor(ctx, viewer)
	if err != nil {
		return nil, err
	}

	thread := []storage.Message{}
	for _, m := range msgs {
		if Counterpart(m, viewer) == other {
			thread = append(thread, m)
		}
	}

	n, err := s.store.MarkThreadRead(ctx, viewer, other)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		for i := range thread {
			if thread[i].To == viewer {
				thread[i].Read = true
			}
		}
		if s.bus != nil {
			s.bus.Publish(events.EventMessagesRead, events.Payload{"viewer": viewer, "with": other, "count": n})
		}
	}
	return thread, nil
}

// UnreadCount is the number of unread messages addressed to viewer.
func (s *Service) UnreadCount(ctx context.Context, viewer string) (int, error) {
	msgs, err := s.store.ListMessagesFor(ctx, viewer)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, m := range msgs {
		if m.To == viewer && !m.Read {
			n++
		}
	}
	return n, nil
}

// Subscribe returns a channel of newly created messages. Call the returned
// func to stop receiving.
func (s *Service) Subscribe() (events.Subscriber, func()) {
	if s.bus == nil {
		ch := make(events.Subscriber)
		close(ch)
		return ch, func() {}
	}
	sub := s.bus.Subscribe(events.EventMessageCreated)
	return sub, func() { s.bus.Unsubscribe(events.EventMessageCreated, sub) }
}
