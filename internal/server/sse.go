package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// streamEvents sends a "state" event every streamInterval while the session
// runs, then one "end" event with the final state.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	snap, err := s.mgr.Snapshot(id)
	if err != nil {
		s.respondManagerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ticker := time.NewTicker(s.streamInterval)
	defer ticker.Stop()

	for {
		event := "state"
		if !snap.Active {
			event = "end"
		}
		if err := writeEvent(w, event, snap); err != nil {
			return
		}
		flusher.Flush()
		if event == "end" {
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		snap, err = s.mgr.Snapshot(id)
		if err != nil {
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
