// Package server is the HTTP shell: the inbound-message webhook plus the
// read-only inspection surface and the manual reminder trigger.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"habit-bot/internal/habit"
	"habit-bot/internal/models"
	"habit-bot/internal/reminder"
	"habit-bot/pkg/logger"
)

type Server struct {
	server    *http.Server
	service   *habit.Service
	scheduler *reminder.Scheduler
	sender    reminder.Sender
	logger    *logger.Logger
	now       func() time.Time
}

func NewServer(port string, service *habit.Service, scheduler *reminder.Scheduler, sender reminder.Sender, logger *logger.Logger) *Server {
	s := &Server{
		service:   service,
		scheduler: scheduler,
		sender:    sender,
		logger:    logger,
		now:       time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook", s.handleWebhook)
	mux.HandleFunc("GET /users", s.handleListUsers)
	mux.HandleFunc("GET /users/{id}", s.handleGetUser)
	mux.HandleFunc("POST /reminders", s.handleReminders)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.server = &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

type inboundMessage struct {
	SenderID string `json:"senderId"`
	BodyText string `json:"bodyText"`
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var msg inboundMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if msg.SenderID == "" {
		http.Error(w, "senderId is required", http.StatusBadRequest)
		return
	}

	text, err := s.service.HandleMessage(r.Context(), msg.SenderID, msg.BodyText)
	if err != nil {
		http.Error(w, "failed to process message", http.StatusInternalServerError)
		return
	}

	// Delivery is best effort; the record is already committed.
	if s.sender != nil {
		if err := s.sender.Send(r.Context(), msg.SenderID, text); err != nil {
			s.logger.Error("failed to deliver reply", "user_id", msg.SenderID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"reply": text})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	rec, err := s.service.Record(r.Context(), userID)
	if err != nil {
		http.Error(w, "failed to load user", http.StatusInternalServerError)
		return
	}
	if rec == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.service.Records(r.Context())
	if err != nil {
		http.Error(w, "failed to list users", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// handleReminders is the manual trigger: it messages every user, skipping the
// already-responded-today filter the daily scan applies.
func (s *Server) handleReminders(w http.ResponseWriter, r *http.Request) {
	sent, err := s.scheduler.Scan(r.Context(), models.DayOf(s.now()), true)
	if err != nil {
		http.Error(w, "failed to send reminders", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Reminders sent",
		"count":   sent,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.server.Shutdown(ctx)
}
