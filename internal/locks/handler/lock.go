package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"staylock/internal/locks/service"
	apperrors "staylock/pkg/errors"
	httputil "staylock/pkg/http"
	"staylock/pkg/logger"
	"staylock/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type LockHandler struct {
	service service.LockService
	log     *logger.Logger
}

func NewLockHandler(service service.LockService, log *logger.Logger) *LockHandler {
	return &LockHandler{
		service: service,
		log:     log,
	}
}

// Acquire handles lock requests. A conflict with another session is reported
// as 409 with the same response shape so clients can read the message without
// a separate error path.
func (h *LockHandler) Acquire(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.LockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Acquire", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	resp, err := h.service.Acquire(r.Context(), &req)
	if err != nil {
		appErr := apperrors.AsAppError(err)
		if appErr.Code == apperrors.CodeConflict {
			if writeErr := httputil.WriteJSON(w, http.StatusConflict, model.LockResponse{
				Success: false,
				Message: appErr.Message,
			}); writeErr != nil {
				h.log.Error("failed to write JSON response", "handler", "Acquire", "operation", "WriteJSON", "error", writeErr)
			}
			return
		}
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Acquire", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, resp); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Acquire", "operation", "WriteJSON", "error", err)
	}
}

func (h *LockHandler) Status(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()

	roomID := 0
	if roomIDStr := query.Get("roomId"); roomIDStr != "" {
		var err error
		roomID, err = strconv.Atoi(roomIDStr)
		if err != nil {
			if writeErr := httputil.WriteError(w, apperrors.InvalidInput(fmt.Sprintf("invalid roomId parameter: %s", roomIDStr))); writeErr != nil {
				h.log.Error("failed to write error response", "handler", "Status", "operation", "WriteError", "error", writeErr)
			}
			return
		}
	}

	key := model.LockKey{
		ContentID: query.Get("contentId"),
		RoomID:    roomID,
		CheckIn:   query.Get("checkIn"),
		CheckOut:  query.Get("checkOut"),
	}

	resp, err := h.service.Status(r.Context(), key)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Status", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, resp); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Status", "operation", "WriteJSON", "error", err)
	}
}

// Release handles unlock requests, including beacon payloads sent during page
// unload. Beacon transports post text/plain and never read the response, so
// the body is decoded regardless of content type and failures still answer
// with a well-formed JSON body for regular callers.
func (h *LockHandler) Release(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.LockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Release", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.Release(r.Context(), &req); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Release", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, model.UnlockResponse{Success: true}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Release", "operation", "WriteJSON", "error", err)
	}
}

func (h *LockHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/reservations/lock", h.Acquire)
	router.GET("/api/v1/reservations/lock/status", h.Status)
	router.POST("/api/v1/reservations/unlock", h.Release)
}
