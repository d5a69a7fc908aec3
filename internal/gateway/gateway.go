// Package gateway adapts the hosted payment widget.
//
// The widget itself runs in the shopper's browser. This side checks that the
// widget script can be fetched, builds the options the browser passes to the
// widget constructor, and routes the three widget callbacks (success, failure,
// dismiss) back to whoever opened the payment, at most once per order.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

var (
	ErrScriptUnavailable = errors.New("payment script unavailable")
	ErrAlreadyOpen       = errors.New("payment already open for order")
)

type Prefill struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Contact string `json:"contact,omitempty"`
}

type Theme struct {
	Color string `json:"color,omitempty"`
}

// Options is the constructor argument handed to the widget in the browser.
type Options struct {
	Key         string  `json:"key"`
	Amount      int64   `json:"amount"`
	Currency    string  `json:"currency"`
	Name        string  `json:"name,omitempty"`
	Description string  `json:"description,omitempty"`
	Image       string  `json:"image,omitempty"`
	OrderID     string  `json:"order_id"`
	Prefill     Prefill `json:"prefill"`
	Theme       Theme   `json:"theme"`
	ScriptURL   string  `json:"script_url"`
}

// Failure is the error object of the widget's payment.failed event.
type Failure struct {
	Code        string `json:"code,omitempty"`
	Description string `json:"description,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

type Widget struct {
	scriptURL string
	http      *http.Client

	loadMu sync.Mutex
	loaded bool

	mu      sync.Mutex
	pending map[string]string
}

func NewWidget(scriptURL string, timeout time.Duration) *Widget {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Widget{
		scriptURL: scriptURL,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 90 * time.Second,
			},
		},
		pending: make(map[string]string),
	}
}

func (w *Widget) ScriptURL() string { return w.scriptURL }

// Load fetches the widget script once. A successful load is remembered, a
// failed one is retried on the next call.
func (w *Widget) Load(ctx context.Context) error {
	w.loadMu.Lock()
	defer w.loadMu.Unlock()
	if w.loaded {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.scriptURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrScriptUnavailable, err)
	}
	resp, err := w.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrScriptUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrScriptUnavailable, resp.StatusCode)
	}
	w.loaded = true
	return nil
}

// Open records that the widget was opened for opts.OrderID on behalf of
// ref. The order stays pending until Take or Forget.
func (w *Widget) Open(opts Options, ref string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.pending[opts.OrderID]; ok {
		return fmt.Errorf("%s: %w", opts.OrderID, ErrAlreadyOpen)
	}
	w.pending[opts.OrderID] = ref
	return nil
}

// Forget drops an order so its callbacks are no longer delivered.
func (w *Widget) Forget(orderID string) {
	w.mu.Lock()
	delete(w.pending, orderID)
	w.mu.Unlock()
}

// Take claims the pending order for a widget callback. Only the first
// callback for an order gets ok == true.
func (w *Widget) Take(orderID string) (ref string, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	ref, ok = w.pending[orderID]
	if ok {
		delete(w.pending, orderID)
	}
	return ref, ok
}
