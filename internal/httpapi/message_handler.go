package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/attendly/backend/internal/ai"
	"github.com/attendly/backend/internal/auth"
	messageDomain "github.com/attendly/backend/internal/message/domain"
	"github.com/attendly/backend/internal/sms"
)

// MessageHandler serves the message send and generation endpoints.
type MessageHandler struct {
	sender    *sms.SendService
	generator *ai.GenerateService
	logger    *slog.Logger
	validate  *validator.Validate
}

func NewMessageHandler(sender *sms.SendService, generator *ai.GenerateService, logger *slog.Logger, validate *validator.Validate) *MessageHandler {
	return &MessageHandler{
		sender:    sender,
		generator: generator,
		logger:    logger,
		validate:  validate,
	}
}

// RegisterRoutes wires the message endpoints. The router must have already
// applied the auth middleware.
func (h *MessageHandler) RegisterRoutes(r chi.Router) {
	r.Post("/messages/send", h.SendMessage)
	r.Post("/messages/send-bulk", h.SendBulk)
	r.Post("/messages/{messageID}/retry", h.RetryMessage)
	r.Post("/messages/generate", h.GenerateMessage)
	r.Post("/notices/generate", h.GenerateNotice)
}

func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	acct, ok := auth.AccountFromContext(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var reqDTO SendMessageRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	providerID, err := h.sender.SendOne(ctx, acct.ID, reqDTO.MessageID)
	if err != nil {
		h.logger.WarnContext(ctx, "Send failed", "error", err, "message_id", reqDTO.MessageID, "owner_id", acct.ID)
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, SendMessageResponseDTO{
		ID:                reqDTO.MessageID,
		Status:            string(messageDomain.MessageStatusSent),
		ProviderMessageID: providerID,
	})
}

func (h *MessageHandler) SendBulk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	acct, ok := auth.AccountFromContext(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var reqDTO BulkSendRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	results, err := h.sender.SendBulk(ctx, acct.ID, reqDTO.MessageIDs)
	if err != nil {
		h.logger.WarnContext(ctx, "Bulk send rejected", "error", err, "count", len(reqDTO.MessageIDs), "owner_id", acct.ID)
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, BulkSendResponseDTO{Results: results})
}

func (h *MessageHandler) RetryMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	acct, ok := auth.AccountFromContext(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	messageID := chi.URLParam(r, "messageID")
	if err := h.validate.Var(messageID, "required,uuid"); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid message id")
		return
	}

	if err := h.sender.Retry(ctx, acct.ID, messageID); err != nil {
		h.logger.WarnContext(ctx, "Retry rejected", "error", err, "message_id", messageID, "owner_id", acct.ID)
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, RetryMessageResponseDTO{
		ID:     messageID,
		Status: string(messageDomain.MessageStatusQueued),
	})
}

func (h *MessageHandler) GenerateMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	acct, ok := auth.AccountFromContext(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var reqDTO GenerateMessageRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	msg, err := h.generator.GenerateMessage(ctx, acct.ID, ai.GenerateRequest{
		StudentID:        reqDTO.StudentID,
		Type:             messageDomain.MessageType(reqDTO.Type),
		Tone:             messageDomain.MessageTone(reqDTO.Tone),
		Date:             reqDTO.Date,
		AttendanceStatus: reqDTO.AttendanceStatus,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "Message generation failed", "error", err, "student_id", reqDTO.StudentID)
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, GenerateMessageResponseDTO{
		ID:      msg.ID,
		Content: msg.Content,
		Status:  string(msg.Status),
	})
}

func (h *MessageHandler) GenerateNotice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	acct, ok := auth.AccountFromContext(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var reqDTO GenerateNoticeRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	content, err := h.generator.GenerateNotice(ctx, acct.ID, ai.NoticeRequest{
		NoticeType:     reqDTO.NoticeType,
		AdditionalInfo: reqDTO.AdditionalInfo,
		Tone:           messageDomain.MessageTone(reqDTO.Tone),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "Notice generation failed", "error", err, "owner_id", acct.ID)
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, GenerateNoticeResponseDTO{Content: content})
}
