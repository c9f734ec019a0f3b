// Package render turns todo items into HTML fragments and full pages.
package render

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"todo/api/internal/store"
)

// PageTitle is the <title> of every full page.
const PageTitle = "Todo"

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("todo").ParseFS(templateFS, "templates/*.html"))

type pageData struct {
	Title string
	Body  template.HTML
}

// Item renders a single item. The fragment carries the item id so delete and
// update requests can target it directly.
func Item(item store.Todo) templ.Component {
	return fragment("item", item)
}

// List renders the page body: the create form followed by every item.
func List(items []store.Todo) templ.Component {
	if items == nil {
		items = []store.Todo{}
	}
	return fragment("list", items)
}

// Results renders search hits as a sequence of item fragments.
func Results(items []store.Todo) templ.Component {
	return fragment("results", items)
}

// Page wraps body in the shared page shell.
func Page(body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		if body != nil {
			if err := body.Render(ctx, &buf); err != nil {
				return err
			}
		}
		return templates.ExecuteTemplate(w, "page", pageData{
			Title: PageTitle,
			// Body was produced by our own escaped templates.
			Body: template.HTML(buf.String()),
		})
	})
}

func fragment(name string, data any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return templates.ExecuteTemplate(w, name, data)
	})
}
