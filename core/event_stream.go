package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"auctionchain/core/types"
	"auctionchain/observability"
)

const eventHistoryLimit = 4096

// EventRecord is a committed event with its position in the node's stream.
type EventRecord struct {
	Sequence  uint64       `json:"sequence"`
	Cursor    string       `json:"cursor"`
	TxHash    string       `json:"txHash"`
	Timestamp int64        `json:"timestamp"`
	Event     *types.Event `json:"event"`
}

func cloneEventRecord(rec EventRecord) EventRecord {
	cloned := rec
	cloned.Event = rec.Event.Clone()
	return cloned
}

type eventStream struct {
	mu      sync.Mutex
	seq     uint64
	nextID  uint64
	history []EventRecord
	subs    map[uint64]chan EventRecord
}

func parseCursor(cursor string) uint64 {
	trimmed := strings.TrimSpace(cursor)
	if trimmed == "" {
		return 0
	}
	parsed, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}

// publish appends committed events in order and fans them out. Slow
// subscribers drop events rather than block the transaction path; they can
// resume from their last cursor.
func (n *Node) publish(txHash string, timestamp int64, evts []*types.Event) {
	if len(evts) == 0 {
		return
	}
	s := &n.stream
	s.mu.Lock()
	if s.subs == nil {
		s.subs = make(map[uint64]chan EventRecord)
	}
	records := make([]EventRecord, 0, len(evts))
	for _, evt := range evts {
		s.seq++
		rec := EventRecord{
			Sequence:  s.seq,
			Cursor:    strconv.FormatUint(s.seq, 10),
			TxHash:    txHash,
			Timestamp: timestamp,
			Event:     evt.Clone(),
		}
		s.history = append(s.history, rec)
		records = append(records, rec)
	}
	if len(s.history) > eventHistoryLimit {
		excess := len(s.history) - eventHistoryLimit
		trimmed := make([]EventRecord, eventHistoryLimit)
		copy(trimmed, s.history[excess:])
		s.history = trimmed
	}
	observability.Events().SetRetained(len(s.history))
	subscribers := make([]chan EventRecord, 0, len(s.subs))
	for _, ch := range s.subs {
		subscribers = append(subscribers, ch)
	}
	for _, rec := range records {
		observability.Events().RecordEvent(rec.Event.Type)
		for _, ch := range subscribers {
			select {
			case ch <- cloneEventRecord(rec):
			default:
				observability.Events().RecordDrop()
			}
		}
	}
	s.mu.Unlock()
}

// Events returns up to limit retained events after cursor.
func (n *Node) Events(cursor string, limit int) []EventRecord {
	since := parseCursor(cursor)
	s := &n.stream
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EventRecord, 0)
	for _, rec := range s.history {
		if rec.Sequence <= since {
			continue
		}
		out = append(out, cloneEventRecord(rec))
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// SubscribeEvents registers a subscriber for events committed after cursor.
// The backlog holds retained events already past the cursor. The returned
// cancel func is idempotent and also runs when ctx ends.
func (n *Node) SubscribeEvents(ctx context.Context, cursor string) (<-chan EventRecord, func(), []EventRecord, error) {
	if n == nil {
		return nil, nil, nil, fmt.Errorf("node not initialised")
	}
	updates := make(chan EventRecord, 64)
	since := parseCursor(cursor)

	s := &n.stream
	s.mu.Lock()
	if s.subs == nil {
		s.subs = make(map[uint64]chan EventRecord)
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = updates
	backlog := make([]EventRecord, 0, len(s.history))
	for _, rec := range s.history {
		if rec.Sequence > since {
			backlog = append(backlog, cloneEventRecord(rec))
		}
	}
	s.mu.Unlock()
	n.metrics.StreamSubscribed()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			if sub, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(sub)
			}
			s.mu.Unlock()
			n.metrics.StreamUnsubscribed()
		})
	}

	if ctx != nil {
		go func() {
			<-ctx.Done()
			cancel()
		}()
	}

	return updates, cancel, backlog, nil
}
