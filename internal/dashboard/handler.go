package dashboard

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gnomeskillet/signin-kiosk/internal/kiosksync"
	"github.com/gnomeskillet/signin-kiosk/internal/store"
)

// Handler formats kiosk events as dashboard messages. It implements
// kiosksync.Events so a Runner can feed it directly, and exposes
// OnSignIn for the foreground sign-in loop.
type Handler struct {
	server *Server
	logger *log.Logger

	// Daily statistics tracking
	statsMu sync.Mutex
	stats   StatsData
}

// NewHandler creates a new event handler connected to a dashboard server
func NewHandler(server *Server, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}

	return &Handler{
		server: server,
		logger: logger,
	}
}

// OnSignIn handles a completed sign-in at the kiosk
func (h *Handler) OnSignIn(rec *store.Record) {
	h.logger.Printf("Sign-in: %s (%s)", rec.Name, rec.ID)

	date := rec.Time.Format(store.DateLayout)

	h.statsMu.Lock()
	if h.stats.Date != date {
		h.stats = StatsData{Date: date}
	}
	h.stats.SignIns++
	if rec.Photo != "" {
		h.stats.Photos++
	}
	h.statsMu.Unlock()

	data := SignInData{
		StudentID: rec.ID,
		Name:      rec.Name,
		Time:      rec.Time.Format(store.TimeLayout),
		HasPhoto:  rec.Photo != "",
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("Failed to marshal sign-in data: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeSignIn,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})

	h.broadcastStats()
}

// SyncStarted handles upload run start events
func (h *Handler) SyncStarted(date string) {
	h.logger.Printf("Upload run started for %s", date)

	dataJSON, err := json.Marshal(SyncStartedData{Date: date})
	if err != nil {
		h.logger.Printf("Failed to marshal sync start data: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeSyncStarted,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})
}

// SyncProgress handles per-item upload progress events
func (h *Handler) SyncProgress(date, name string, done, total int, err error) {
	data := SyncProgressData{
		Date:  date,
		Item:  name,
		Done:  done,
		Total: total,
	}
	if err != nil {
		data.Error = err.Error()
	}

	dataJSON, merr := json.Marshal(data)
	if merr != nil {
		h.logger.Printf("Failed to marshal progress data: %v", merr)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeSyncProgress,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})
}

// SyncFinished handles upload run completion events
func (h *Handler) SyncFinished(date string, st kiosksync.Status) {
	h.logger.Printf("Upload run for %s finished: %s", date, st.State)

	data := SyncCompleteData{
		Date:  date,
		State: st.State.String(),
	}
	if st.Result != nil {
		data.Uploaded = len(st.Result.Uploaded)
		data.Failed = len(st.Result.Failed)
		data.CSV = st.Result.CSV.String()
	}
	if st.Err != nil {
		data.Error = st.Err.Error()
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("Failed to marshal sync complete data: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeSyncComplete,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})
}

// UpdateStats replaces the day's statistics from a loaded day folder.
// Useful at startup so the dashboard doesn't show zeros after a restart.
func (h *Handler) UpdateStats(day *store.DayFolder) {
	h.statsMu.Lock()
	h.stats = StatsData{Date: day.Date, SignIns: len(day.Records)}
	for _, rec := range day.Records {
		if rec.Photo != "" {
			h.stats.Photos++
		}
	}
	h.statsMu.Unlock()

	h.broadcastStats()
}

// GetStats returns the current statistics
func (h *Handler) GetStats() StatsData {
	h.statsMu.Lock()
	defer h.statsMu.Unlock()
	return h.stats
}

// broadcastStats sends current statistics to all clients
func (h *Handler) broadcastStats() {
	h.statsMu.Lock()
	stats := h.stats
	h.statsMu.Unlock()

	dataJSON, err := json.Marshal(stats)
	if err != nil {
		h.logger.Printf("Failed to marshal stats: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeStats,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})
}
