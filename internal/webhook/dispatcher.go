// Package webhook implements the inbound webhook dispatcher: a
// POST /webhooks/{slug} endpoint that templates its body into a prompt and
// runs it on a synthesized session, same invocation shape as the Scheduler
// and Reminder Queue.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/radbot/gateway/internal/invoker"
	"github.com/radbot/gateway/internal/store"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// Dispatcher handles inbound webhook requests once a chi route has
// extracted the {slug} path parameter.
type Dispatcher struct {
	Store   store.WebhookDefinitionStore
	Invoker *invoker.Invoker
	Log     *slog.Logger
}

func New(st store.WebhookDefinitionStore, inv *invoker.Invoker, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{Store: st, Invoker: inv, Log: log}
}

// Handle services one request for the given slug. w/r come straight from
// the HTTP layer; the caller (internal/httpapi) is responsible for routing
// /webhooks/{slug} here with slug already extracted.
func (d *Dispatcher) Handle(w http.ResponseWriter, r *http.Request, slug string) {
	def, found, err := d.Store.GetWebhookDefinitionBySlug(slug)
	if err != nil {
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, "unknown webhook", http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if def.Secret != "" {
		if !verifySignature(def.Secret, body, r.Header.Get("X-Signature")) {
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}
	}

	prompt, err := renderTemplate(def.PromptTemplate, body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sessionID := fmt.Sprintf("webhook:%s", def.ID)

	if def.FireAndForget {
		w.WriteHeader(http.StatusAccepted)
		go func() {
			if _, err := d.Invoker.Run(r.Context(), sessionID, def.TargetAgent, prompt); err != nil {
				d.Log.Warn("webhook: fire-and-forget invocation failed", "slug", slug, "error", err)
			}
		}()
		return
	}

	text, err := d.Invoker.Run(r.Context(), sessionID, def.TargetAgent, prompt)
	if err != nil {
		http.Error(w, "invocation failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"response": text})
}

// verifySignature checks X-Signature against an HMAC-SHA256 of body keyed
// by secret, accepting either a bare hex digest or a "sha256=" prefixed
// one (the common webhook convention).
func verifySignature(secret string, body []byte, header string) bool {
	if header == "" {
		return false
	}
	const prefix = "sha256="
	digest := header
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		digest = header[len(prefix):]
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	want := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(digest), []byte(want))
}
