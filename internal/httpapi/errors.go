package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	accountRepo "github.com/attendly/backend/internal/account/repository"
	"github.com/attendly/backend/internal/auth"
	messageRepo "github.com/attendly/backend/internal/message/repository"
	"github.com/attendly/backend/internal/quota"
	"github.com/attendly/backend/internal/sms"
	studentRepo "github.com/attendly/backend/internal/student/repository"
)

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			slog.Default().Error("Failed to write JSON response", "error", err)
		}
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithServiceError maps domain errors onto HTTP statuses. Quota
// rejections get a dedicated payload so clients can show the cap and usage.
func respondWithServiceError(w http.ResponseWriter, err error) {
	var quotaErr *quota.QuotaExceededError
	if errors.As(err, &quotaErr) {
		respondWithJSON(w, http.StatusPaymentRequired, map[string]interface{}{
			"error": quotaErr.Error(),
			"cap":   quotaErr.Cap,
			"used":  quotaErr.Used,
		})
		return
	}

	var providerErr *sms.ProviderError
	if errors.As(err, &providerErr) {
		respondWithError(w, http.StatusBadGateway, "Message delivery failed: "+providerErr.Message)
		return
	}

	switch {
	case errors.Is(err, sms.ErrRateLimited):
		respondWithError(w, http.StatusTooManyRequests, "Too many send requests, slow down")
	case errors.Is(err, messageRepo.ErrMessageNotFound),
		errors.Is(err, studentRepo.ErrStudentNotFound),
		errors.Is(err, accountRepo.ErrAccountNotFound):
		respondWithError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, sms.ErrNotQueued), errors.Is(err, sms.ErrNotFailed),
		errors.Is(err, messageRepo.ErrAlreadyHandled):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrInvalidToken):
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
	default:
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
