package notify

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Webhook posts plain-text HTTP notifications for selected events. The
// primary use case is ntfy.sh, but any HTTP endpoint works.
type Webhook struct {
	url    string
	title  string
	kinds  map[Kind]bool
	client *http.Client
	log    *zap.Logger
	wg     sync.WaitGroup
}

// WebhookOptions selects which events are posted.
type WebhookOptions struct {
	Title           string
	OnOpening       bool
	OnEnabled       bool
	OnChromeMissing bool
}

// NewWebhook creates a Webhook. An empty Title falls back to "TypeWinner".
func NewWebhook(url string, opts WebhookOptions, log *zap.Logger) *Webhook {
	title := "TypeWinner"
	if opts.Title != "" {
		title = opts.Title
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Webhook{
		url:   url,
		title: title,
		kinds: map[Kind]bool{
			Opening:       opts.OnOpening,
			Enabled:       opts.OnEnabled,
			ChromeMissing: opts.OnChromeMissing,
		},
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

// Emit fires an asynchronous POST when e's kind is enabled.
func (w *Webhook) Emit(e Event) {
	if !w.kinds[e.Kind] {
		return
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.post(e)
	}()
}

// Flush waits for in-flight posts. Used on shutdown and in tests.
func (w *Webhook) Flush() { w.wg.Wait() }

func message(e Event) string {
	if e.Payload != "" {
		return e.Kind.String() + ": " + e.Payload
	}
	return e.Kind.String()
}

// post sends one request. Failures are logged and otherwise dropped.
func (w *Webhook) post(e Event) {
	req, err := http.NewRequest(http.MethodPost, w.url, strings.NewReader(message(e)))
	if err != nil {
		w.log.Warn("webhook request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("X-Title", w.title)
	if e.RunID != "" {
		req.Header.Set("X-Run-Id", e.RunID)
	}
	resp, err := w.client.Do(req)
	if err != nil {
		w.log.Warn("webhook post", zap.Stringer("event", e.Kind), zap.Error(err))
		return
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		w.log.Warn("webhook status", zap.Stringer("event", e.Kind), zap.Int("status", resp.StatusCode))
	}
}
