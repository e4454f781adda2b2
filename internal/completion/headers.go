package completion

import (
	"context"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

type titleKey struct{}

func withTitle(ctx context.Context, title string) context.Context {
	return context.WithValue(ctx, titleKey{}, title)
}

// attributionDoer adds the attribution headers OpenRouter expects to every
// request the openai client sends. The title varies per call and travels in
// the request context.
type attributionDoer struct {
	next    openai.HTTPDoer
	referer string
}

func (d attributionDoer) Do(req *http.Request) (*http.Response, error) {
	if d.referer != "" {
		req.Header.Set("HTTP-Referer", d.referer)
	}
	if title, ok := req.Context().Value(titleKey{}).(string); ok && title != "" {
		req.Header.Set("X-Title", title)
	}
	return d.next.Do(req)
}
