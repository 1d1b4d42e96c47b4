package relay

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dgnsrekt/chartmark/internal/annotate"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

func parseTypeFilter(r *http.Request) map[annotate.EventType]bool {
	q := r.URL.Query().Get("types")
	if q == "" {
		return nil
	}
	filter := make(map[annotate.EventType]bool)
	for _, t := range strings.Split(q, ",") {
		if t = strings.TrimSpace(t); t != "" {
			filter[annotate.EventType(t)] = true
		}
	}
	return filter
}

// SSEHandler streams annotation events as server-sent events. Clients may
// filter event types via ?types=shape_added,shape_removed.
func SSEHandler(broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming not supported", http.StatusInternalServerError)
			return
		}
		filter := parseTypeFilter(r)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		flusher.Flush()

		id, ch := broker.Subscribe()
		defer broker.Unsubscribe(id)

		for {
			select {
			case <-r.Context().Done():
				return
			case evt, ok := <-ch:
				if !ok {
					return
				}
				if filter != nil && !filter[evt.Type] {
					continue
				}
				payload, err := json.Marshal(evt)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, payload)
				flusher.Flush()
			}
		}
	}
}

// WSHandler streams annotation events as WebSocket text frames, one JSON
// event per frame. The same ?types filter applies.
func WSHandler(broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := parseTypeFilter(r)

		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			slog.Debug("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
			return
		}
		defer conn.Close()

		id, ch := broker.Subscribe()
		defer broker.Unsubscribe(id)

		// Drain client frames so closes are noticed promptly.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, err := wsutil.ReadClientText(conn); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-done:
				return
			case <-r.Context().Done():
				return
			case evt, ok := <-ch:
				if !ok {
					return
				}
				if filter != nil && !filter[evt.Type] {
					continue
				}
				payload, err := json.Marshal(evt)
				if err != nil {
					continue
				}
				if err := wsutil.WriteServerText(conn, payload); err != nil {
					return
				}
			}
		}
	}
}
