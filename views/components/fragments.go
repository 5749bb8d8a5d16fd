package components

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"memgame/internal/viewmodel"
)

// StatusFragment renders the counters panel.
func StatusFragment(data viewmodel.StatusFragment) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return render(w, func(h *htmlWriter) {
			h.raw(`<dl class="status" id="status"`)
			h.attr("data-difficulty", data.Difficulty)
			h.raw(">")
			stat(h, "Time", data.TimeLeft, "timer")
			stat(h, "Clicks", data.Clicks, "clicks")
			stat(h, "Matched", data.Matched, "matched")
			stat(h, "Remaining", data.Remaining, "remaining")
			h.raw(`</dl>`)
			h.raw(`<form method="post" class="powerup"`)
			h.attr("action", "/game/"+data.SessionID+"/powerup")
			h.raw(`><button type="submit" id="powerup-btn"`)
			if !data.Active || data.Powerups == 0 {
				h.raw(" disabled")
			}
			h.raw(`>Reveal cards (`)
			h.num(data.Powerups)
			h.raw(`)</button></form>`)
			if data.Loading {
				h.raw(`<p class="loading">Dealing cards&hellip;</p>`)
			}
		})
	})
}

func stat(h *htmlWriter, label string, value int, id string) {
	h.raw(`<div><dt>`)
	h.text(label)
	h.raw(`</dt><dd`)
	h.attr("id", id)
	h.raw(">")
	h.num(value)
	h.raw(`</dd></div>`)
}

// BoardFragment renders the card grid. Each card is a form so the board works
// without JavaScript.
func BoardFragment(data viewmodel.BoardFragment) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return render(w, func(h *htmlWriter) {
			switch {
			case data.Loading:
				h.raw(`<p class="board-message">Summoning creatures&hellip;</p>`)
				return
			case data.LoadFailed:
				h.raw(`<p class="board-message error">Could not load any creatures. Try starting again.</p>`)
				return
			case len(data.Cards) == 0:
				h.raw(`<p class="board-message">Pick a difficulty and press Start.</p>`)
				return
			}
			columns := data.Columns
			if columns <= 0 {
				columns = 4
			}
			h.raw(`<div class="grid" id="game-grid"`)
			h.attr("style", "--columns: "+strconv.Itoa(columns))
			h.raw(">")
			for _, card := range data.Cards {
				renderCard(h, data, card)
			}
			h.raw(`</div>`)
		})
	})
}

func renderCard(h *htmlWriter, board viewmodel.BoardFragment, card viewmodel.CardView) {
	class := "card"
	if card.FaceUp {
		class += " flip"
	}
	if card.Matched {
		class += " matched"
	}
	h.raw(`<form method="post"`)
	h.attr("class", class)
	h.attr("action", "/game/"+board.SessionID+"/cards/"+strconv.Itoa(card.Position)+"/flip")
	h.attr("data-position", strconv.Itoa(card.Position))
	h.raw(`><button type="submit"`)
	if !board.Active || card.Matched {
		h.raw(" disabled")
	}
	h.raw(">")
	if card.FaceUp {
		h.raw(`<img class="front_face"`)
		h.url("src", card.Image)
		h.attr("alt", card.Name)
		h.raw(">")
	} else {
		h.raw(`<img class="back_face"`)
		h.url("src", board.BackImage)
		h.raw(` alt="Face-down card">`)
	}
	h.raw(`</button></form>`)
}

// OutcomeFragment announces a win or loss.
func OutcomeFragment(data viewmodel.OutcomeFragment) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return render(w, func(h *htmlWriter) {
			if data.Outcome == "" {
				return
			}
			h.raw(`<div role="alert"`)
			h.attr("class", "outcome "+data.Outcome)
			h.raw("><p>")
			h.text(data.Message)
			h.raw(`</p><form method="post"`)
			h.attr("action", "/game/"+data.SessionID+"/reset")
			h.raw(`><button type="submit">Play again</button></form></div>`)
		})
	})
}

// Controls renders start, reset, difficulty and theme buttons.
func Controls(sessionID string, options []viewmodel.DifficultyOption) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return render(w, func(h *htmlWriter) {
			base := "/game/" + sessionID
			h.raw(`<nav class="controls">`)
			h.raw(`<form method="post"`)
			h.attr("action", base+"/start")
			h.raw(`><button type="submit" id="start-btn">Start</button></form>`)
			h.raw(`<form method="post"`)
			h.attr("action", base+"/reset")
			h.raw(`><button type="submit" id="reset-btn">Reset</button></form>`)
			h.raw(`<form method="post" class="difficulty"`)
			h.attr("action", base+"/difficulty")
			h.raw(`>`)
			difficultySelect(h, options)
			h.raw(`<button type="submit">Apply</button></form>`)
			h.component(ctx, ThemeToggle(base))
			h.raw(`</nav>`)
		})
	})
}

// DifficultySelect renders the difficulty dropdown on its own.
func DifficultySelect(options []viewmodel.DifficultyOption) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return render(w, func(h *htmlWriter) { difficultySelect(h, options) })
	})
}

func difficultySelect(h *htmlWriter, options []viewmodel.DifficultyOption) {
	h.raw(`<select name="difficulty" id="difficulty">`)
	for _, opt := range options {
		h.raw(`<option`)
		h.attr("value", opt.Value)
		if opt.Selected {
			h.raw(" selected")
		}
		h.raw(">")
		h.text(opt.Label + " (" + strconv.Itoa(opt.Pairs) + " pairs, " + strconv.Itoa(opt.Seconds) + "s)")
		h.raw(`</option>`)
	}
	h.raw(`</select>`)
}

// ThemeToggle renders the light/dark switch; redirect is where to return after.
func ThemeToggle(redirect string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return render(w, func(h *htmlWriter) {
			h.raw(`<form method="post" action="/theme">`)
			h.raw(`<input type="hidden" name="redirect"`)
			h.attr("value", redirect)
			h.raw(`><button type="submit" id="theme-btn">Toggle theme</button></form>`)
		})
	})
}
