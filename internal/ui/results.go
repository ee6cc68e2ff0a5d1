package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/papertrail-app/papertrail/internal/search"
)

// summaryWidth truncates summaries in list output.
const summaryWidth = 160

// Renderer writes search results to a writer.
type Renderer struct {
	out    io.Writer
	styles Styles
}

// NewRenderer creates a renderer with terminal detection on w.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{out: w, styles: StylesFor(w)}
}

// RenderResults prints a search response, one block per hit.
func (r *Renderer) RenderResults(query string, results *search.Results) {
	if results.Degraded {
		fmt.Fprintln(r.out, r.styles.Warning.Render("warning: embedder unavailable, lexical-only results"))
	}

	if len(results.Items) == 0 {
		fmt.Fprintf(r.out, "no results for %q\n", query)
		return
	}

	for i, item := range results.Items {
		p := item.Paper

		fmt.Fprintf(r.out, "%s %s %s\n",
			r.styles.Meta.Render(fmt.Sprintf("%2d.", i+1)),
			r.styles.Title.Render(p.Title),
			r.styles.Score.Render(fmt.Sprintf("(%.4f)", item.Score)))

		meta := []string{}
		if p.Authors != "" {
			meta = append(meta, p.Authors)
		}
		if p.ArxivID != "" {
			meta = append(meta, "arXiv:"+p.ArxivID)
		}
		if p.OwnerUsername != "" {
			meta = append(meta, "@"+p.OwnerUsername)
		}
		if len(meta) > 0 {
			fmt.Fprintf(r.out, "    %s\n", r.styles.Meta.Render(strings.Join(meta, " · ")))
		}

		if p.Summary != "" {
			fmt.Fprintf(r.out, "    %s\n", r.styles.Summary.Render(truncate(p.Summary, summaryWidth)))
		}
		if len(p.Tags) > 0 {
			tags := make([]string, len(p.Tags))
			for j, tag := range p.Tags {
				tags[j] = "#" + tag
			}
			fmt.Fprintf(r.out, "    %s\n", r.styles.Tag.Render(strings.Join(tags, " ")))
		}
		fmt.Fprintln(r.out)
	}

	fmt.Fprintf(r.out, "%d results in %dms\n", len(results.Items), results.Took.Milliseconds())
}

// RenderError prints an error line.
func (r *Renderer) RenderError(err error) {
	fmt.Fprintln(r.out, r.styles.Error.Render("error: "+err.Error()))
}

func truncate(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= width {
		return s
	}
	cut := s[:width]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}
