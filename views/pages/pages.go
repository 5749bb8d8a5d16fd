// Package pages composes full documents from components.
package pages

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"memgame/internal/viewmodel"
	"memgame/views/components"
)

// HomePage renders the create-game form.
func HomePage(data viewmodel.HomePage) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<p class="subtitle">Flip two cards per turn and match every pair before the clock runs out.</p><form method="post" action="/games" class="new-game">`); err != nil {
			return err
		}
		if err := components.DifficultySelect(data.Difficulties).Render(ctx, w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `<button type="submit">New game</button></form>`); err != nil {
			return err
		}
		return components.ThemeToggle("/").Render(ctx, w)
	})
	return components.Layout(data.Title, data.Theme, body)
}

// GamePage renders the board, counters and controls for a session. The
// fragment containers are the SSE swap targets.
func GamePage(data viewmodel.GamePage) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		parts := []templ.Component{
			templ.Raw(`<section class="game" data-stream="/game/` + templ.EscapeString(data.SessionID) + `/stream">`),
			components.Controls(data.SessionID, data.Difficulties),
			templ.Raw(`<div id="status-panel" data-event="status">`),
			components.StatusFragment(data.Status),
			templ.Raw(`</div><div id="outcome-panel" data-event="outcome">`),
			components.OutcomeFragment(data.Outcome),
			templ.Raw(`</div><div id="board-panel" data-event="board">`),
			components.BoardFragment(data.Board),
			templ.Raw(`</div></section>`),
		}
		for _, c := range parts {
			if err := c.Render(ctx, w); err != nil {
				return err
			}
		}
		return nil
	})
	return components.Layout(data.Title, data.Theme, body)
}
