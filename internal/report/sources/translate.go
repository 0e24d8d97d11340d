package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const googleTranslateAPI = "https://translate.googleapis.com/translate_a/single"

// GoogleTranslate uses the keyless web endpoint. It is best effort only.
type GoogleTranslate struct {
	client  *http.Client
	baseURL string
	target  string
	limiter *rate.Limiter
}

func NewGoogleTranslate(target string) *GoogleTranslate {
	if target == "" {
		target = "zh-CN"
	}
	return &GoogleTranslate{
		client:  &http.Client{Timeout: 5 * time.Second},
		baseURL: googleTranslateAPI,
		target:  target,
		limiter: rate.NewLimiter(rate.Limit(5), 5),
	}
}

// Translate returns text rendered in the target language.
func (g *GoogleTranslate) Translate(ctx context.Context, text string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}
	q := url.Values{
		"client": {"gtx"},
		"sl":     {"auto"},
		"tl":     {g.target},
		"dt":     {"t"},
		"q":      {text},
	}
	// The response is a nested array: [[["translated","original",...],...],...]
	var raw []any
	if err := getJSON(ctx, g.client, g.baseURL+"?"+q.Encode(), nil, &raw); err != nil {
		return "", fmt.Errorf("translate API: %w", err)
	}
	if len(raw) == 0 {
		return "", errors.New("translate API: empty response")
	}
	segments, ok := raw[0].([]any)
	if !ok {
		return "", errors.New("translate API: unexpected response shape")
	}
	var b strings.Builder
	for _, seg := range segments {
		parts, ok := seg.([]any)
		if !ok || len(parts) == 0 {
			continue
		}
		if s, ok := parts[0].(string); ok {
			b.WriteString(s)
		}
	}
	if b.Len() == 0 {
		return "", errors.New("translate API: no translation")
	}
	return b.String(), nil
}
