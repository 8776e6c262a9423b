package web

import (
	"encoding/json"
	"io"
	"net/http"

	stripe "github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/webhook"

	"subscription-storefront/internal/infra/metrics"
)

// Stripe webhook payloads are small; anything bigger is not ours.
const maxWebhookBody = 65536

// handleStripeWebhook verifies the signature, then hands confirmed checkout
// completions to the payment use case. Unhandled event types are
// acknowledged so Stripe stops retrying them.
func (s *Server) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "payload too large"})
		return
	}

	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), s.webhookSecret)
	if err != nil {
		s.log.Warn().Err(err).Msg("webhook signature verification failed")
		metrics.IncWebhookEvent("unknown", "error")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid signature"})
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			s.log.Error().Err(err).Str("event_id", event.ID).Msg("webhook payload unmarshal failed")
			metrics.IncWebhookEvent(event.Type, "error")
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed event"})
			return
		}
		if err := s.paymentUC.HandleCheckoutCompleted(r.Context(), event.ID, sess.ID); err != nil {
			// non-2xx makes Stripe redeliver later
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "processing failed"})
			return
		}
	default:
		metrics.IncWebhookEvent(event.Type, "ignored")
	}

	w.WriteHeader(http.StatusOK)
}
