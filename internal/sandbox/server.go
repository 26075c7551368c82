package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pixil98/go-quest/internal/game"
	"github.com/pixil98/go-quest/internal/remote"
	"github.com/pixil98/go-quest/internal/storage"
)

const maxBodyBytes = 64 << 10

// Announcer broadcasts level ups to every connected player.
type Announcer interface {
	Announce(msg string) error
}

// Server is a self-contained game service speaking the same JSON contract
// as the production one. The bearer token names the character record.
type Server struct {
	atlas   *game.Atlas
	records storage.Storer[*Record]
	quizDir string

	addr      string
	announcer Announcer
	rand      *rand.Rand
	now       func() time.Time

	// mu serialises every request; records are mutated in place.
	mu   sync.Mutex
	bank *Bank

	handler http.Handler
}

func NewServer(atlas *game.Atlas, records storage.Storer[*Record], quizDir string, opts ...ServerOpt) (*Server, error) {
	s := &Server{
		atlas:   atlas,
		records: records,
		quizDir: quizDir,
		addr:    "127.0.0.1:8080",
		rand:    rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	bank, err := LoadBank(quizDir)
	if err != nil {
		return nil, fmt.Errorf("loading quiz bank: %w", err)
	}
	s.bank = bank

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+remote.PathState, s.authed(s.handleState))
	mux.HandleFunc("POST "+remote.PathMove, s.authed(s.handleMove))
	mux.HandleFunc("GET "+remote.PathQuestion, s.authed(s.handleQuestion))
	mux.HandleFunc("POST "+remote.PathAnswer, s.authed(s.handleAnswer))
	mux.HandleFunc("POST "+remote.PathRest, s.authed(s.handleRest))
	mux.HandleFunc("POST "+remote.PathReturn, s.authed(s.handleReturn))
	mux.HandleFunc("POST "+remote.PathSync, s.authed(s.handleSync))
	s.handler = mux

	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves HTTP until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}

	svr := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := svr.Shutdown(shutdownCtx); err != nil {
				slog.Warn("shutting down sandbox server", "error", err)
			}
		case <-done:
		}
	}()

	slog.InfoContext(ctx, "sandbox game service listening", "addr", lis.Addr().String())

	err = svr.Serve(lis)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving sandbox: %w", err)
	}
	return nil
}

type handlerFunc func(w http.ResponseWriter, r *http.Request, token storage.Identifier)

// authed resolves the bearer token, tags the request with an id and holds
// the server lock for the duration of the handler.
func (s *Server) authed(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqId := uuid.NewString()
		w.Header().Set("X-Request-Id", reqId)

		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		id := storage.Identifier(strings.TrimSpace(token))
		if !ok || !id.Valid() {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		slog.DebugContext(r.Context(), "sandbox request", "request", reqId, "method", r.Method, "path", r.URL.Path, "character", id)
		h(w, r, id)
	}
}

// character returns the record for token, answering 404 when it is missing.
func (s *Server) character(w http.ResponseWriter, token storage.Identifier) *Record {
	rec := s.records.Get(token)
	if rec == nil {
		writeError(w, http.StatusNotFound, "No character found")
	}
	return rec
}

func (s *Server) save(w http.ResponseWriter, r *http.Request, token storage.Identifier, rec *Record) bool {
	if err := s.records.Save(token, rec); err != nil {
		slog.ErrorContext(r.Context(), "saving sandbox character", "character", token, "error", err)
		writeError(w, http.StatusInternalServerError, "Could not save character")
		return false
	}
	return true
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request, token storage.Identifier) {
	rec := s.records.Get(token)
	if rec == nil {
		rec = &Record{
			Name: fmt.Sprintf("adventurer-%s", uuid.NewString()[:8]),
			HP:   MaxHPForLevel(1),
			Area: s.atlas.Hub(),
		}
		if !s.save(w, r, token, rec) {
			return
		}
		slog.InfoContext(r.Context(), "created sandbox character", "character", token, "name", rec.Name)
	}

	writeJSON(w, http.StatusOK, remote.StateResponse{
		Character:          s.characterBody(rec),
		AvailableQuestions: s.bank.Len(),
	})
}

func (s *Server) characterBody(rec *Record) remote.CharacterBody {
	level := rec.Level()
	return remote.CharacterBody{
		HP:       rec.HP,
		MaxHP:    rec.MaxHP(),
		XP:       rec.XP,
		XPToNext: ExpToNextLevel(level, rec.XP),
		Level:    level,
		Area:     rec.Area,
		Position: remote.PositionBody{X: rec.X, Y: rec.Y},
	}
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request, token storage.Identifier) {
	var req remote.MoveRequest
	if !readJSON(w, r, &req) {
		return
	}

	area := s.atlas.Area(req.Area)
	if area == nil {
		writeError(w, http.StatusBadRequest, "Invalid area")
		return
	}

	rec := s.character(w, token)
	if rec == nil {
		return
	}

	rec.Area, rec.X, rec.Y = req.Area, req.X, req.Y
	if !s.save(w, r, token, rec) {
		return
	}

	var resp remote.MoveResponse
	if !area.Safe && s.rand.Float64() < area.EncounterRate {
		resp.Encounter = true
		resp.Monster = Monster(s.rand, area.Difficulty)
		resp.AreaDifficulty = area.Difficulty
		slog.InfoContext(r.Context(), "sandbox encounter", "character", token, "area", req.Area, "monster", resp.Monster)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request, token storage.Identifier) {
	rec := s.character(w, token)
	if rec == nil {
		return
	}

	difficulty := 1
	if area := s.atlas.Area(rec.Area); area != nil && area.Difficulty > 0 {
		difficulty = area.Difficulty
	}

	q, source := s.selectQuestion(rec, difficulty)
	if q == nil {
		writeError(w, http.StatusNotFound, "No questions available")
		return
	}

	writeJSON(w, http.StatusOK, remote.QuestionResponse{
		QuestionID: q.ID,
		Text:       q.Text,
		Answers:    q.Answers,
		Multiple:   q.Multiple(),
		Source:     source,
		Difficulty: q.Difficulty,
	})
}

// selectQuestion rolls once: 30% an open task question, 50% a question due
// for review, otherwise any question in the area's band. Each tier falls
// through to the next when it has nothing to offer.
func (s *Server) selectQuestion(rec *Record, difficulty int) (*PoolQuestion, string) {
	lo, hi := difficultyRange(difficulty)
	roll := s.rand.Float64()
	now := s.now()

	if roll < 0.30 {
		q := pick(s.rand, s.bank.inRange(lo, hi, func(q *PoolQuestion) bool {
			t := s.bank.Task(q.TaskID)
			return t != nil && t.Open
		}))
		if q != nil {
			return q, SourceCurrentTask
		}
	}

	if roll < 0.80 {
		q := pick(s.rand, s.bank.inRange(lo, hi, func(q *PoolQuestion) bool {
			due, err := rec.dueForReview(q.ID, now)
			return err == nil && due
		}))
		if q != nil {
			return q, SourceRepetition
		}
	}

	if q := pick(s.rand, s.bank.inRange(lo, hi, nil)); q != nil {
		return q, SourceRandom
	}
	if q := pick(s.rand, s.bank.inRange(1, 5, nil)); q != nil {
		return q, SourceRandom
	}
	return nil, ""
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request, token storage.Identifier) {
	var req remote.AnswerRequest
	if !readJSON(w, r, &req) {
		return
	}

	rec := s.character(w, token)
	if rec == nil {
		return
	}

	q := s.bank.Question(req.QuestionID)
	if q == nil {
		writeError(w, http.StatusNotFound, "Question not found")
		return
	}

	correct := q.IsCorrect(req.AnswerIndices)
	if err := rec.recordAnswer(q.ID, correct, s.now()); err != nil {
		slog.WarnContext(r.Context(), "recording answer history", "character", token, "error", err)
	}

	resp := remote.AnswerResponse{
		Correct:        correct,
		CorrectIndices: q.Correct,
	}

	if correct {
		source := req.Source
		if source == "" {
			source = SourceRandom
		}
		resp.XPGained = XPReward(source, q.Difficulty)
		resp.LevelUp = rec.AddXP(resp.XPGained)
		resp.NewLevel = rec.Level()
		resp.TaskProgress = s.taskProgress(r.Context(), token, rec, q)
	} else {
		dmg := Damage(q.Difficulty)
		resp.HPChange = -dmg
		resp.Defeated = rec.TakeDamage(dmg)
		resp.NewHP = &rec.HP
	}

	if !s.save(w, r, token, rec) {
		return
	}

	if resp.LevelUp && s.announcer != nil {
		if err := s.announcer.Announce(fmt.Sprintf("%s reached level %d!", rec.Name, resp.NewLevel)); err != nil {
			slog.WarnContext(r.Context(), "announcing level up", "character", token, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// taskProgress credits a correct answer to the question's task when that
// task is still open.
func (s *Server) taskProgress(ctx context.Context, token storage.Identifier, rec *Record, q *PoolQuestion) *remote.TaskProgressBody {
	t := s.bank.Task(q.TaskID)
	if t == nil || !t.Open {
		return nil
	}

	done, err := rec.recordProgress(t.ID, q.Index)
	if err != nil {
		slog.WarnContext(ctx, "recording task progress", "character", token, "task", t.ID, "error", err)
		return nil
	}

	return &remote.TaskProgressBody{
		StudentTaskID:     t.ID,
		QuestionsAnswered: done,
		QuestionsTotal:    len(t.Questions),
		CanComplete:       done >= len(t.Questions),
	}
}

func (s *Server) handleRest(w http.ResponseWriter, r *http.Request, token storage.Identifier) {
	rec := s.character(w, token)
	if rec == nil {
		return
	}

	if !s.atlas.IsHub(rec.Area) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Must be in %s to rest", s.atlas.Hub()))
		return
	}

	rec.Restore(s.atlas.Hub())
	if !s.save(w, r, token, rec) {
		return
	}

	writeJSON(w, http.StatusOK, remote.RestResponse{
		HP:      rec.HP,
		MaxHP:   rec.MaxHP(),
		Message: "Vollstaendig erholt!",
	})
}

func (s *Server) handleReturn(w http.ResponseWriter, r *http.Request, token storage.Identifier) {
	rec := s.character(w, token)
	if rec == nil {
		return
	}

	rec.Restore(s.atlas.Hub())
	if !s.save(w, r, token, rec) {
		return
	}

	writeJSON(w, http.StatusOK, remote.ReturnResponse{
		Message: "Zurueck im Dorf",
		Area:    s.atlas.Hub(),
	})
}

// handleSync reloads the quiz bank from disk. A bank that fails to load
// leaves the current one in place.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request, token storage.Identifier) {
	if s.character(w, token) == nil {
		return
	}

	bank, err := LoadBank(s.quizDir)
	if err != nil {
		slog.ErrorContext(r.Context(), "reloading quiz bank", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not sync questions")
		return
	}
	s.bank = bank

	writeJSON(w, http.StatusOK, remote.SyncResponse{
		Message:       "Fragen synchronisiert",
		QuestionCount: bank.Len(),
	})
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("writing sandbox response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, remote.ErrorResponse{Error: msg})
}
