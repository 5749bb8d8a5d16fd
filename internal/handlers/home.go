package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"memgame/internal/game"
	"memgame/internal/viewmodel"
	"memgame/views/pages"
)

const (
	themeCookie = "memgame_theme"
	themeLight  = "light"
	themeDark   = "dark"
)

type HomeHandler struct {
	store   *game.Store
	starter *Starter
}

func NewHomeHandler(store *game.Store, starter *Starter) *HomeHandler {
	return &HomeHandler{store: store, starter: starter}
}

func (h *HomeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.home)
	r.Post("/games", h.createGame)
	r.Post("/theme", h.toggleTheme)
}

func (h *HomeHandler) home(w http.ResponseWriter, r *http.Request) {
	render(w, r, pages.HomePage(viewmodel.HomePage{
		Title:        pageTitle,
		Theme:        themeFromRequest(r),
		Difficulties: difficultyOptions(h.store.Settings(), game.DifficultyEasy),
	}))
}

func (h *HomeHandler) createGame(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	difficulty, ok := game.ParseDifficulty(r.FormValue("difficulty"))
	if !ok {
		difficulty = game.DifficultyEasy
	}
	sess := h.store.CreateSession()
	h.starter.Start(sess, difficulty)
	http.Redirect(w, r, "/game/"+sess.ID, http.StatusSeeOther)
}

// toggleTheme flips the theme cookie. It has no effect on any session.
func (h *HomeHandler) toggleTheme(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	next := themeDark
	if themeFromRequest(r) == themeDark {
		next = themeLight
	}
	http.SetCookie(w, &http.Cookie{
		Name:     themeCookie,
		Value:    next,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(365 * 24 * time.Hour),
	})
	finish(w, r, safeRedirect(r.FormValue("redirect")))
}

func themeFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(themeCookie)
	if err != nil || cookie.Value != themeDark {
		return themeLight
	}
	return themeDark
}

// safeRedirect only allows same-site absolute paths.
func safeRedirect(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, "\\") {
		return "/"
	}
	return target
}

var difficultyLabels = map[game.Difficulty]string{
	game.DifficultyEasy:   "Easy",
	game.DifficultyMedium: "Medium",
	game.DifficultyHard:   "Hard",
}

func difficultyOptions(settings game.Settings, selected game.Difficulty) []viewmodel.DifficultyOption {
	out := make([]viewmodel.DifficultyOption, 0, 3)
	for _, d := range game.Difficulties() {
		level, ok := settings.Level(d)
		if !ok {
			continue
		}
		out = append(out, viewmodel.DifficultyOption{
			Value:    string(d),
			Label:    difficultyLabels[d],
			Pairs:    level.Pairs,
			Seconds:  level.Seconds,
			Selected: d == selected,
		})
	}
	return out
}
