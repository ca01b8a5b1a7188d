package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/deps"
	suberrors "github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/errors"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/infrastructure/http/server"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler serves the read projection of a user's subscriptions together
// with the confirmation and master switch endpoints
type Handler struct {
	usecase deps.SubscriptionUseCase
	logger  zerolog.Logger
}

func NewHandler(usecase deps.SubscriptionUseCase, logger zerolog.Logger) *Handler {
	return &Handler{
		usecase: usecase,
		logger:  logger,
	}
}

// Routes mounts the subscription endpoints on r
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api/v1/users/{userID}", func(r chi.Router) {
		r.Get("/subscriptions", h.GetSubscriptions)
		r.Put("/enabled", h.SetEnabled)
		r.Post("/bulk/{token}/confirm", h.ConfirmBulk)
	})
}

type confirmRequest struct {
	Confirm bool `json:"confirm"`
}

type enabledRequest struct {
	Enabled *bool `json:"enabled"`
}

// GetSubscriptions returns the subscriptions of {userID}. The caller is
// identified by viewer_id and defaults to the target itself.
func (h *Handler) GetSubscriptions(w http.ResponseWriter, r *http.Request) {
	targetID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	viewerID := targetID
	if raw := r.URL.Query().Get("viewer_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			server.WriteErrorResponse(w, "invalid viewer_id", string(suberrors.KindInvalidUserID), http.StatusBadRequest)
			return
		}
		viewerID = id
	}

	view, err := h.usecase.GetSubscriptions(r.Context(), viewerID, targetID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	server.WriteResponse(w, view)
}

func (h *Handler) SetEnabled(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	var req enabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		server.WriteErrorResponse(w, "request body must be {\"enabled\": bool}", string(suberrors.KindInvalidRange), http.StatusBadRequest)
		return
	}

	res, err := h.usecase.SetEnabled(r.Context(), userID, *req.Enabled)
	if err != nil {
		h.writeError(w, err)
		return
	}

	server.WriteResponse(w, res)
}

func (h *Handler) ConfirmBulk(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteErrorResponse(w, "invalid request body", string(suberrors.KindInvalidRange), http.StatusBadRequest)
		return
	}

	res, err := h.usecase.ConfirmBulk(r.Context(), userID, chi.URLParam(r, "token"), req.Confirm)
	if err != nil {
		h.writeError(w, err)
		return
	}

	server.WriteResponse(w, res)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	kind := suberrors.KindOf(err)
	status := statusFor(kind)

	if status >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("kind", string(kind)).Msg("request failed")
	}

	server.WriteErrorResponse(w, err.Error(), string(kind), status)
}

func statusFor(kind suberrors.Kind) int {
	switch kind {
	case suberrors.KindInvalidUserID, suberrors.KindInvalidRange,
		suberrors.KindUnknownSpecies, suberrors.KindUnknownLocation:
		return http.StatusBadRequest
	case suberrors.KindPermissionDenied, suberrors.KindSupporterRequired:
		return http.StatusForbidden
	case suberrors.KindNotSubscribed:
		return http.StatusNotFound
	case suberrors.KindConfirmationDeclined:
		return http.StatusGone
	case suberrors.KindQuotaExceeded, suberrors.KindCommonSpeciesIVTooLow:
		return http.StatusUnprocessableEntity
	case suberrors.KindStorageFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func userIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || id <= 0 {
		server.WriteErrorResponse(w, suberrors.ErrInvalidUserID.Error(), string(suberrors.KindInvalidUserID), http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
