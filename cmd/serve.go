package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DonatoReis/lynx/internal/engine"
	"github.com/DonatoReis/lynx/internal/model"
	"github.com/DonatoReis/lynx/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP chat API",
	Long:  "Exposes the conversation over HTTP for external frontends. Question turns return JSON; the final turn streams chunk/result/error events over SSE.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		q, err := loadQuestionnaire()
		if err != nil {
			return err
		}

		mgr := newSessionManager(st, q)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mgr.routes(),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
		}()

		zap.L().Info("starting chat api", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// chatSession pairs an engine with the event stream its sink feeds.
type chatSession struct {
	eng    *engine.Engine
	events chan model.Event
}

// sessionManager owns the live sessions behind the HTTP API.
type sessionManager struct {
	mu       sync.Mutex
	sessions map[string]*chatSession
	st       store.Store
	q        *model.Questionnaire
}

func newSessionManager(st store.Store, q *model.Questionnaire) *sessionManager {
	return &sessionManager{
		sessions: make(map[string]*chatSession),
		st:       st,
		q:        q,
	}
}

func (m *sessionManager) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/sessions", m.createSession)
	r.Post("/sessions/{id}/messages", m.submitMessage)
	r.Delete("/sessions/{id}", m.deleteSession)

	return r
}

func (m *sessionManager) createSession(w http.ResponseWriter, r *http.Request) {
	runner := initRunner(m.st, m.q)
	events := make(chan model.Event, 256)
	sess := &chatSession{events: events}
	sess.eng = engine.New(*m.q, &channelSink{ch: events}, runner.Run)

	sess.eng.Start(r.Context())
	id := sess.eng.Session().ID

	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id": id,
		"events":     drainEvents(events),
	})
}

func (m *sessionManager) submitMessage(w http.ResponseWriter, r *http.Request) {
	sess := m.lookup(chi.URLParam(r, "id"))
	if sess == nil {
		http.Error(w, `{"error":"session not found"}`, http.StatusNotFound)
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	if sess.eng.Submit(r.Context(), req.Text) {
		m.streamRun(w, r, sess)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": string(sess.eng.Session().Status),
		"events": drainEvents(sess.events),
	})
}

// streamRun relays pipeline events over SSE until the terminal result or
// error arrives.
func (m *sessionManager) streamRun(w http.ResponseWriter, r *http.Request, sess *chatSession) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, `{"error":"streaming unsupported"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-sess.events:
			payload, err := json.Marshal(ev)
			if err != nil {
				zap.L().Warn("failed to marshal event", zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
			if ev.Type == model.EventResult || ev.Type == model.EventError {
				return
			}
		}
	}
}

func (m *sessionManager) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	m.mu.Lock()
	sess, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		http.Error(w, `{"error":"session not found"}`, http.StatusNotFound)
		return
	}
	sess.eng.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (m *sessionManager) lookup(id string) *chatSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

func drainEvents(ch chan model.Event) []model.Event {
	events := []model.Event{}
	for {
		select {
		case ev := <-ch:
			events = append(events, ev)
		default:
			return events
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// channelSink buffers presentation events for HTTP delivery. A full
// buffer drops the event rather than blocking the engine.
type channelSink struct {
	ch chan model.Event
}

func (c *channelSink) push(ev model.Event) {
	select {
	case c.ch <- ev:
	default:
		zap.L().Warn("event buffer full, dropping event", zap.String("type", string(ev.Type)))
	}
}

func (c *channelSink) ShowMessage(text string, isUser bool, options []string) {
	c.push(model.Event{Type: model.EventMessage, Text: text, IsUser: isUser, Options: options})
}

func (c *channelSink) StreamChunk(text string) {
	c.push(model.Event{Type: model.EventChunk, Text: text})
}

func (c *channelSink) ShowResult(text string) {
	c.push(model.Event{Type: model.EventResult, Text: text})
}

func (c *channelSink) ShowError(text string) {
	c.push(model.Event{Type: model.EventError, Text: text})
}
