package handlers

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"memgame/internal/game"
	"memgame/internal/viewmodel"
	"memgame/views/components"
	"memgame/views/pages"
)

const (
	pageTitle = "Pokémon Memory"
	backImage = "/static/back.svg"
)

var outcomeMessages = map[game.Outcome]string{
	game.OutcomeWon:  "Congratulations! You matched every pair.",
	game.OutcomeLost: "Game over! Time expired.",
}

type GameHandler struct {
	store   *game.Store
	starter *Starter
}

func NewGameHandler(store *game.Store, starter *Starter) *GameHandler {
	return &GameHandler{store: store, starter: starter}
}

func (h *GameHandler) RegisterRoutes(r chi.Router) {
	r.Route("/game/{id}", func(r chi.Router) {
		r.Get("/", h.gamePage)
		r.Get("/board", h.boardFragment)
		r.Get("/status", h.statusFragment)
		r.Get("/state", h.state)
		r.Get("/stream", h.stream)
		r.Post("/start", h.start)
		r.Post("/reset", h.reset)
		r.Post("/difficulty", h.changeDifficulty)
		r.Post("/powerup", h.powerup)
		r.Post("/cards/{pos}/flip", h.flip)
	})
}

func (h *GameHandler) session(w http.ResponseWriter, r *http.Request) (*game.Session, bool) {
	sess, ok := h.store.GetSession(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return nil, false
	}
	h.store.Touch(sess.ID)
	return sess, true
}

func (h *GameHandler) gamePage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	snapshot := sess.Snapshot()
	render(w, r, pages.GamePage(viewmodel.GamePage{
		Title:        pageTitle,
		Theme:        themeFromRequest(r),
		SessionID:    sess.ID,
		Difficulties: difficultyOptions(h.store.Settings(), snapshot.Difficulty),
		Status:       toStatusFragment(snapshot),
		Board:        toBoardFragment(snapshot),
		Outcome:      toOutcomeFragment(snapshot),
	}))
}

func (h *GameHandler) boardFragment(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	render(w, r, components.BoardFragment(toBoardFragment(sess.Snapshot())))
}

func (h *GameHandler) statusFragment(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	render(w, r, components.StatusFragment(toStatusFragment(sess.Snapshot())))
}

type cardState struct {
	Position int    `json:"position"`
	FaceUp   bool   `json:"face_up"`
	Matched  bool   `json:"matched"`
	Name     string `json:"name,omitempty"`
	Image    string `json:"image,omitempty"`
}

type sessionState struct {
	ID         string      `json:"id"`
	Difficulty string      `json:"difficulty"`
	Clicks     int         `json:"clicks"`
	Matched    int         `json:"matched_pairs"`
	Remaining  int         `json:"remaining_pairs"`
	TotalPairs int         `json:"total_pairs"`
	TimeLimit  int         `json:"time_limit"`
	TimeLeft   int         `json:"time_left"`
	Powerups   int         `json:"powerups"`
	Processing bool        `json:"processing"`
	Active     bool        `json:"active"`
	Loading    bool        `json:"loading"`
	LoadFailed bool        `json:"load_failed"`
	Outcome    string      `json:"outcome,omitempty"`
	Cards      []cardState `json:"cards"`
}

func (h *GameHandler) state(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	s := sess.Snapshot()
	cards := make([]cardState, len(s.Cards))
	for i, c := range s.Cards {
		cards[i] = cardState{Position: c.Position, FaceUp: c.FaceUp, Matched: c.Matched, Name: c.Name, Image: c.Image}
	}
	writeJSON(w, sessionState{
		ID:         s.ID,
		Difficulty: string(s.Difficulty),
		Clicks:     s.Clicks,
		Matched:    s.Matched,
		Remaining:  s.Remaining,
		TotalPairs: s.TotalPairs,
		TimeLimit:  s.TimeLimit,
		TimeLeft:   s.TimeLeft,
		Powerups:   s.Powerups,
		Processing: s.Processing,
		Active:     s.Active,
		Loading:    s.Loading,
		LoadFailed: s.LoadFailed,
		Outcome:    string(s.Outcome),
		Cards:      cards,
	})
}

// start deals a board at the posted difficulty, or the current one if none is given.
func (h *GameHandler) start(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	difficulty, valid := game.ParseDifficulty(r.FormValue("difficulty"))
	if !valid {
		difficulty = sess.Difficulty()
	}
	h.starter.Start(sess, difficulty)
	finish(w, r, "/game/"+sess.ID)
}

func (h *GameHandler) reset(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.starter.Reset(sess)
	finish(w, r, "/game/"+sess.ID)
}

func (h *GameHandler) changeDifficulty(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	difficulty, valid := game.ParseDifficulty(r.FormValue("difficulty"))
	if valid {
		h.starter.ChangeDifficulty(sess, difficulty)
	}
	finish(w, r, "/game/"+sess.ID)
}

func (h *GameHandler) powerup(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.ActivatePowerup()
	finish(w, r, "/game/"+sess.ID)
}

func (h *GameHandler) flip(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if position, err := strconv.Atoi(chi.URLParam(r, "pos")); err == nil {
		sess.Select(position)
	}
	finish(w, r, "/game/"+sess.ID)
}

func (h *GameHandler) stream(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	hub, ok := h.store.Broadcaster(sess.ID)
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sub, cancel := hub.Subscribe()
	defer cancel()

	send := func(events ...string) {
		snapshot := sess.Snapshot()
		for _, event := range events {
			switch event {
			case game.EventStatus:
				writeSSE(w, event, renderToString(r, components.StatusFragment(toStatusFragment(snapshot))))
			case game.EventBoard:
				writeSSE(w, event, renderToString(r, components.BoardFragment(toBoardFragment(snapshot))))
			case game.EventOutcome:
				writeSSE(w, event, renderToString(r, components.OutcomeFragment(toOutcomeFragment(snapshot))))
			}
		}
		flusher.Flush()
	}

	send(game.EventStatus, game.EventBoard, game.EventOutcome)

	keepAlive := time.NewTicker(25 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-sub:
			if !open {
				return
			}
			send(event)
		case <-keepAlive.C:
			_, _ = w.Write([]byte(": keepalive\n\n"))
			flusher.Flush()
		}
	}
}

func toStatusFragment(s game.Snapshot) viewmodel.StatusFragment {
	return viewmodel.StatusFragment{
		SessionID:  s.ID,
		Difficulty: difficultyLabels[s.Difficulty],
		Clicks:     s.Clicks,
		Matched:    s.Matched,
		Remaining:  s.Remaining,
		TimeLeft:   s.TimeLeft,
		Powerups:   s.Powerups,
		Active:     s.Active,
		Loading:    s.Loading,
	}
}

func toBoardFragment(s game.Snapshot) viewmodel.BoardFragment {
	cards := make([]viewmodel.CardView, len(s.Cards))
	for i, c := range s.Cards {
		cards[i] = viewmodel.CardView{
			Position: c.Position,
			FaceUp:   c.FaceUp,
			Matched:  c.Matched,
			Name:     c.Name,
			Image:    c.Image,
		}
	}
	return viewmodel.BoardFragment{
		SessionID:  s.ID,
		Cards:      cards,
		Columns:    boardColumns(len(cards)),
		Active:     s.Active,
		Loading:    s.Loading,
		LoadFailed: s.LoadFailed,
		BackImage:  backImage,
	}
}

func toOutcomeFragment(s game.Snapshot) viewmodel.OutcomeFragment {
	return viewmodel.OutcomeFragment{
		SessionID: s.ID,
		Outcome:   string(s.Outcome),
		Message:   outcomeMessages[s.Outcome],
	}
}

// boardColumns keeps the grid close to square.
func boardColumns(cards int) int {
	if cards <= 0 {
		return 1
	}
	return int(math.Ceil(math.Sqrt(float64(cards))))
}
