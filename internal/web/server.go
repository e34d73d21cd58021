package web

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/conorfennell/medrecall/internal/capture"
	"github.com/conorfennell/medrecall/internal/cardstore"
	"github.com/conorfennell/medrecall/internal/domain"
	"github.com/conorfennell/medrecall/internal/review"
	"github.com/conorfennell/medrecall/internal/scheduler"
)

//go:embed all:static
var staticFiles embed.FS

//go:embed all:templates
var templateFiles embed.FS

const maxCaptureBody = 4 << 20

// Server holds the dependencies for the HTTP server.
type Server struct {
	store     *cardstore.Store
	capturer  *capture.Capturer
	router    *http.ServeMux
	templates *template.Template
	logger    *slog.Logger
	now       func() time.Time

	// One review session is shared by every tab; a page load replaces it.
	mu          sync.Mutex
	session     *review.Session
	sessionOpts []review.Option
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithClock replaces time.Now for the server and the sessions it starts.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
		s.sessionOpts = append(s.sessionOpts, review.WithClock(now))
	}
}

// WithSessionOptions passes extra options to every review session.
func WithSessionOptions(opts ...review.Option) Option {
	return func(s *Server) { s.sessionOpts = append(s.sessionOpts, opts...) }
}

// NewServer creates and configures a new server.
func NewServer(store *cardstore.Store, capturer *capture.Capturer, opts ...Option) *Server {
	s := &Server{
		store:    store,
		capturer: capturer,
		router:   http.NewServeMux(),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sessionOpts = append([]review.Option{review.WithLogger(s.logger)}, s.sessionOpts...)
	s.templates = template.Must(template.New("").Funcs(template.FuncMap{
		"due": func(c domain.Card) string { return scheduler.DueLabel(c, s.now()) },
	}).ParseFS(templateFiles, "templates/*.html"))
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	s.router.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	s.router.Handle("GET /metrics", promhttp.Handler())

	s.router.HandleFunc("GET /{$}", s.handleIndex())
	s.router.HandleFunc("POST /review/reveal", s.handleReveal())
	s.router.HandleFunc("POST /review/rate/{rating}", s.handleRate())
	s.router.HandleFunc("POST /review/reset", s.handleReset())
	s.router.HandleFunc("GET /deck", s.handleDeck())

	s.router.HandleFunc("POST /capture", s.handleCapture())
	s.router.HandleFunc("OPTIONS /capture", s.handleCapturePreflight())
}

type ratingButton struct {
	Name  string
	Label string
}

type reviewView struct {
	State     string
	Card      domain.Card
	Revealed  bool
	Remaining int
	Ratings   []ratingButton
	Error     string
}

var ratingButtons = func() []ratingButton {
	var buttons []ratingButton
	for _, r := range scheduler.Ratings() {
		buttons = append(buttons, ratingButton{Name: r.String(), Label: scheduler.Label(r)})
	}
	return buttons
}()

func (s *Server) view(sess *review.Session) reviewView {
	v := reviewView{
		State:     sess.State().String(),
		Revealed:  sess.Revealed(),
		Remaining: sess.Remaining(),
		Ratings:   ratingButtons,
	}
	if c, ok := sess.Current(); ok {
		v.Card = c
	}
	return v
}

// current returns the shared session, starting one if no page was loaded yet.
func (s *Server) current(r *http.Request) (*review.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		return s.session, nil
	}
	sess := review.NewSession(s.store, s.sessionOpts...)
	if err := sess.Load(r.Context()); err != nil {
		return nil, err
	}
	s.session = sess
	return sess, nil
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("Failed to render template", "template", name, "error", err)
	}
}

// handleIndex starts a fresh session and renders the review page.
func (s *Server) handleIndex() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := review.NewSession(s.store, s.sessionOpts...)
		if err := sess.Load(r.Context()); err != nil {
			s.logger.Error("Error loading deck", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		s.mu.Lock()
		s.session = sess
		s.mu.Unlock()

		s.render(w, "index", map[string]any{
			"Theme":  s.store.Theme(r.Context()),
			"Review": s.view(sess),
		})
	}
}

func (s *Server) handleReveal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.current(r)
		if err != nil {
			s.logger.Error("Error loading deck", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if err := sess.Reveal(); err != nil && !errors.Is(err, review.ErrNoCard) {
			s.logger.Error("Error revealing card", "error", err)
		}
		s.render(w, "review", s.view(sess))
	}
}

// handleRate grades the front card and renders the next one.
func (s *Server) handleRate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rating, err := scheduler.ParseRating(r.PathValue("rating"))
		if err != nil {
			http.Error(w, "Invalid rating", http.StatusBadRequest)
			return
		}
		sess, err := s.current(r)
		if err != nil {
			s.logger.Error("Error loading deck", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		card, err := sess.Rate(r.Context(), rating)
		v := s.view(sess)
		switch {
		case err == nil:
			s.logger.Debug("Card rated", "id", card.ID, "rating", rating, "next_review", card.NextReview)
		case errors.Is(err, review.ErrNoCard), errors.Is(err, review.ErrNotRevealed):
		default:
			s.logger.Error("Error rating card", "rating", rating, "error", err)
			v.Error = "Could not save your rating. Try again."
		}
		s.render(w, "review", v)
	}
}

// handleReset makes every card due again. Only honoured once the queue is empty.
func (s *Server) handleReset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.current(r)
		if err != nil {
			s.logger.Error("Error loading deck", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		n, err := sess.Reset(r.Context())
		if errors.Is(err, review.ErrNotEmpty) {
			w.WriteHeader(http.StatusConflict)
			s.render(w, "review", s.view(sess))
			return
		}
		if err != nil {
			s.logger.Error("Error resetting deck", "reset", n, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		s.render(w, "review", s.view(sess))
	}
}

// handleDeck renders every card with the number currently due.
func (s *Server) handleDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cards, err := s.store.All(r.Context())
		if err != nil {
			s.logger.Error("Error listing cards", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		sort.Slice(cards, func(i, j int) bool {
			if cards[i].NextReview != cards[j].NextReview {
				return cards[i].NextReview < cards[j].NextReview
			}
			return cards[i].ID < cards[j].ID
		})
		now := s.now()
		due := 0
		for _, c := range cards {
			if c.IsDue(now) {
				due++
			}
		}
		s.render(w, "deck", map[string]any{
			"Theme":    s.store.Theme(r.Context()),
			"Cards":    cards,
			"DueCount": due,
		})
	}
}

type captureRequest struct {
	QuestionIndex int               `json:"questionIndex"`
	Questions     []domain.Question `json:"questions"`
	Source        string            `json:"source"`
}

func allowCrossOrigin(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// handleCapture records a missed question posted by a quiz page.
func (s *Server) handleCapture() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		allowCrossOrigin(w)

		var req captureRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCaptureBody)).Decode(&req); err != nil {
			s.logger.Error("SRS capture failed", "error", err)
			writeJSON(w, http.StatusBadRequest, capture.Result{Outcome: capture.Failed})
			return
		}
		res := s.capturer.Capture(r.Context(), req.QuestionIndex, req.Questions, req.Source)
		writeJSON(w, http.StatusAccepted, res)
	}
}

func (s *Server) handleCapturePreflight() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		allowCrossOrigin(w)
		w.WriteHeader(http.StatusNoContent)
	}
}
