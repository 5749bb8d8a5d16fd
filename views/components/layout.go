package components

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Layout wraps body in the document shell. theme is "light" or "dark".
func Layout(title, theme string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return render(w, func(h *htmlWriter) {
			h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
			h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
			h.raw(`<title>`)
			h.text(title)
			h.raw(`</title><link rel="stylesheet" href="/static/app.css">`)
			h.raw(`<script src="/static/app.js" defer></script></head><body`)
			if theme == "dark" {
				h.raw(` class="dark-theme"`)
			}
			h.raw(`><main class="container"><h1>`)
			h.text(title)
			h.raw(`</h1>`)
			h.component(ctx, body)
			h.raw(`</main></body></html>`)
		})
	})
}
