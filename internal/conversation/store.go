// Package conversation holds the append-only chat logs, one per
// (conversation type, target id) partition.
package conversation

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/headless-pm/team-collab/internal/capability"
	"github.com/headless-pm/team-collab/internal/models"
)

// Journal receives every message after it is appended. Record is called with
// the partition lock held, so implementations must not block.
type Journal interface {
	Record(msg models.ChatMessage)
}

type Options struct {
	// Now defaults to time.Now.
	Now func() time.Time
	// NewID defaults to random UUIDs.
	NewID   func() string
	Journal Journal
	Logger  *slog.Logger
}

type key struct {
	kind   models.ConversationType
	target string
}

type partition struct {
	mu  sync.Mutex
	log []models.ChatMessage
}

// Store is safe for concurrent use. Sends to one partition are linearized by
// that partition's lock; the store lock only guards the partition map.
type Store struct {
	mu         sync.RWMutex
	partitions map[key]*partition

	now     func() time.Time
	newID   func() string
	journal Journal
	logger  *slog.Logger
}

func New(opts Options) *Store {
	s := &Store{
		partitions: make(map[key]*partition),
		now:        opts.Now,
		newID:      opts.NewID,
		journal:    opts.Journal,
		logger:     opts.Logger,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Send appends a message from sender to the (kind, targetID) conversation.
// The capability check happens here, not in callers: a sender whose role
// cannot post gets ErrPermissionDenied and the log is left unchanged.
func (s *Store) Send(kind models.ConversationType, targetID string, sender models.User, content string) (models.ChatMessage, error) {
	if !capability.CanSendMessages(sender) {
		s.logger.Warn("message rejected",
			"sender", sender.ID, "role", sender.Role,
			"conversation", kind, "target", targetID)
		return models.ChatMessage{}, fmt.Errorf("%w: role %q cannot send messages", ErrPermissionDenied, sender.Role)
	}
	if !kind.Valid() {
		return models.ChatMessage{}, fmt.Errorf("%w: %q", ErrUnknownConversation, kind)
	}
	if strings.TrimSpace(content) == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}

	p := s.partition(key{kind: kind, target: targetID}, true)

	p.mu.Lock()
	defer p.mu.Unlock()

	ts := s.now()
	var seq int64 = 1
	if n := len(p.log); n > 0 {
		last := p.log[n-1]
		if ts.Before(last.Timestamp) {
			ts = last.Timestamp
		}
		seq = last.Seq + 1
	}

	msg := models.ChatMessage{
		ID:               s.newID(),
		ConversationType: kind,
		TargetID:         targetID,
		SenderID:         sender.ID,
		SenderName:       sender.Name,
		Content:          content,
		Timestamp:        ts,
		Seq:              seq,
	}
	p.log = append(p.log, msg)

	if s.journal != nil {
		s.journal.Record(msg)
	}
	return msg, nil
}

// History returns the whole conversation, oldest first. It does not look at
// who is asking: late joiners see every message posted before they joined.
// Unknown conversations yield an empty slice.
func (s *Store) History(kind models.ConversationType, targetID string) []models.ChatMessage {
	p := s.partition(key{kind: kind, target: targetID}, false)
	if p == nil {
		return []models.ChatMessage{}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]models.ChatMessage, len(p.log))
	copy(out, p.log)
	return out
}

// Restore loads previously persisted messages. Messages are placed by Seq
// and anything at or below a partition's current tail is skipped, so
// restoring the same rows twice is harmless. The journal is not called.
func (s *Store) Restore(msgs []models.ChatMessage) int {
	sorted := make([]models.ChatMessage, len(msgs))
	copy(sorted, msgs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Seq < sorted[j].Seq
	})

	restored := 0
	for _, msg := range sorted {
		if !msg.ConversationType.Valid() {
			continue
		}
		p := s.partition(key{kind: msg.ConversationType, target: msg.TargetID}, true)
		p.mu.Lock()
		if n := len(p.log); n == 0 || msg.Seq > p.log[n-1].Seq {
			if n > 0 && msg.Timestamp.Before(p.log[n-1].Timestamp) {
				msg.Timestamp = p.log[n-1].Timestamp
			}
			p.log = append(p.log, msg)
			restored++
		}
		p.mu.Unlock()
	}
	return restored
}

// Partitions returns the number of conversations holding at least one
// message.
func (s *Store) Partitions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.partitions)
}

func (s *Store) partition(k key, create bool) *partition {
	s.mu.RLock()
	p, ok := s.partitions[k]
	s.mu.RUnlock()
	if ok || !create {
		return p
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok = s.partitions[k]; ok {
		return p
	}
	p = &partition{}
	s.partitions[k] = p
	return p
}
