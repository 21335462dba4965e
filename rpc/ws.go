package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"nhooyr.io/websocket"

	"auctionchain/core"
	"auctionchain/native/token"
)

const wsWriteTimeout = 10 * time.Second

// eventFilter narrows a websocket subscription. Empty fields match everything.
type eventFilter struct {
	types map[string]struct{}
	asset string
}

// parseEventFilter reads ?type=a,b and ?asset= from the upgrade request.
func parseEventFilter(r *http.Request) (eventFilter, error) {
	var f eventFilter
	query := r.URL.Query()
	for _, raw := range strings.Split(query.Get("type"), ",") {
		if t := strings.TrimSpace(raw); t != "" {
			if f.types == nil {
				f.types = make(map[string]struct{})
			}
			f.types[t] = struct{}{}
		}
	}
	if raw := strings.TrimSpace(query.Get("asset")); raw != "" {
		id, err := token.ParseAssetID(raw)
		if err != nil {
			return f, err
		}
		f.asset = token.FormatAssetID(id)
	}
	return f, nil
}

func (f eventFilter) match(rec core.EventRecord) bool {
	if rec.Event == nil {
		return false
	}
	if f.types != nil {
		if _, ok := f.types[rec.Event.Type]; !ok {
			return false
		}
	}
	if f.asset != "" && rec.Event.Attributes["asset"] != f.asset {
		return false
	}
	return true
}

// handleEventsWS streams committed events. Clients resume from the last
// cursor they saw with ?cursor= and may filter by event type or asset.
func (s *Server) handleEventsWS(w http.ResponseWriter, r *http.Request) {
	filter, err := parseEventFilter(r)
	if err != nil {
		http.Error(w, "invalid asset filter: "+err.Error(), http.StatusBadRequest)
		return
	}
	cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "request_id", requestID(r.Context()), "error", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "stream closed")
	ctx := conn.CloseRead(r.Context())
	if err := s.streamEvents(ctx, conn, cursor, filter); err != nil {
		if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
			s.logger.Warn("event stream aborted", "request_id", requestID(r.Context()), "error", err)
			_ = conn.Close(websocket.StatusInternalError, "stream error")
		}
	}
}

func (s *Server) streamEvents(ctx context.Context, conn *websocket.Conn, cursor string, filter eventFilter) error {
	updates, cancel, backlog, err := s.node.SubscribeEvents(ctx, cursor)
	if err != nil {
		return err
	}
	defer cancel()

	for _, rec := range backlog {
		if !filter.match(rec) {
			continue
		}
		if err := writeEventRecord(ctx, conn, rec); err != nil {
			return err
		}
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case rec, ok := <-updates:
			if !ok {
				return nil
			}
			if !filter.match(rec) {
				continue
			}
			if err := writeEventRecord(ctx, conn, rec); err != nil {
				return err
			}
		}
	}
}

func writeEventRecord(ctx context.Context, conn *websocket.Conn, rec core.EventRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
