package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"subscription-storefront/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain sentinels onto HTTP statuses. Unknown errors become
// an opaque 500 so internals never leak to clients.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request"})
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
	case errors.Is(err, domain.ErrAccountInactive):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "account not activated"})
	case errors.Is(err, domain.ErrTokenNotFound):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid or expired token"})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, domain.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "already exists"})
	case errors.Is(err, domain.ErrAlreadySubscribed):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "plan is already active"})
	case errors.Is(err, domain.ErrNoSubscription):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "no subscription"})
	case errors.Is(err, domain.ErrExpiredSubscription):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "subscription expired"})
	case errors.Is(err, domain.ErrTierNotIncluded):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "plan tier does not include this product"})
	case errors.Is(err, domain.ErrDailyLimitReached):
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "daily download limit reached"})
	case errors.Is(err, domain.ErrFileNotAttached):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no file attached to this product"})
	case errors.Is(err, domain.ErrPlanNotPurchasable):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "plan cannot be purchased"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
