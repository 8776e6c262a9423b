package web

import (
	"encoding/json"
	"html/template"
	"net/http"
)

type checkoutRequest struct {
	PlanID string `json:"plan_id"`
}

// handleCheckoutCreate starts a hosted checkout session and returns the
// redirect URL. The client sends the browser there; Stripe sends it back to
// /payment/success or /payment/cancel.
func (s *Server) handleCheckoutCreate(w http.ResponseWriter, r *http.Request) {
	claims := sessionFromContext(r.Context())

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlanID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "plan_id is required"})
		return
	}

	sess, err := s.paymentUC.StartCheckout(r.Context(), claims.Subject, req.PlanID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"session_id":   sess.ID,
		"checkout_url": sess.URL,
	})
}

var resultPageTmpl = template.Must(template.New("result").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <style>
        body { font-family: Arial, sans-serif; text-align: center; padding: 50px; }
        .ok { color: #4CAF50; }
        .error { color: #F44336; }
    </style>
</head>
<body>
    <h1 class="{{.Class}}">{{.Title}}</h1>
    <p>{{.Message}}</p>
    <p><a href="/">Back to the store</a></p>
</body>
</html>
`))

type resultPage struct {
	Title   string
	Class   string
	Message string
}

func renderResult(w http.ResponseWriter, status int, page resultPage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = resultPageTmpl.Execute(w, page)
}

// handlePaymentSuccess is the browser redirect target after payment. The
// session id is re-verified against the gateway before the subscription is
// granted; the webhook performs the same upsert if it arrives first.
func (s *Server) handlePaymentSuccess(w http.ResponseWriter, r *http.Request) {
	claims := sessionFromContext(r.Context())
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		renderResult(w, http.StatusBadRequest, resultPage{
			Title:   "Payment Incomplete",
			Class:   "error",
			Message: "Missing checkout session reference. If you were charged, your plan will be activated shortly.",
		})
		return
	}

	plan, err := s.paymentUC.FinalizeSuccess(r.Context(), claims.Subject, sessionID)
	if err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID).Msg("success redirect finalize failed")
		renderResult(w, http.StatusBadGateway, resultPage{
			Title:   "Payment Verification Failed",
			Class:   "error",
			Message: "We could not verify your payment yet. If you were charged, your plan will be activated shortly.",
		})
		return
	}

	renderResult(w, http.StatusOK, resultPage{
		Title:   "Payment Successful",
		Class:   "ok",
		Message: "Your " + plan.Name + " subscription is now active. Happy downloading!",
	})
}

func (s *Server) handlePaymentCancel(w http.ResponseWriter, r *http.Request) {
	renderResult(w, http.StatusOK, resultPage{
		Title:   "Payment Cancelled",
		Class:   "error",
		Message: "Your payment was cancelled. No charge was made.",
	})
}
