package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/mcdev12/roomsync/go/internal/apperror"
	"github.com/mcdev12/roomsync/go/internal/auth"
	"github.com/mcdev12/roomsync/go/internal/gateway"
	"github.com/mcdev12/roomsync/go/internal/room"
	"github.com/rs/zerolog/log"
)

// Handler serves the JSON API and the websocket attach point.
type Handler struct {
	service  *room.Service
	resolver *auth.Resolver
	hub      *gateway.ConnectionManager
}

func NewHandler(service *room.Service, resolver *auth.Resolver, hub *gateway.ConnectionManager) *Handler {
	return &Handler{service: service, resolver: resolver, hub: hub}
}

type createRoomRequest struct {
	Name string `json:"name"`
}

type joinRoomRequest struct {
	Username string `json:"username"`
}

type issueRoundRequest struct {
	Difficulty string `json:"difficulty"`
}

type saveProfileRequest struct {
	Username string `json:"username"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authenticate(r); err != nil {
		writeError(w, err)
		return
	}
	roomList, err := h.service.ListRooms(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, roomList)
}

func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authenticate(r); err != nil {
		writeError(w, err)
		return
	}
	var req createRoomRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	created, err := h.service.CreateRoom(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	userID, err := h.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}
	roomID, err := roomIDFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req joinRoomRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.service.JoinRoom(r.Context(), roomID, userID, req.Username); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "joined"})
}

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	userID, err := h.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}
	roomID, err := roomIDFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	memberRows, err := h.service.ListMembers(r.Context(), roomID, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, memberRows)
}

// IssueRound starts a new round. The response is scoped to the requester:
// their role, and the topic only when their role may see it.
func (h *Handler) IssueRound(w http.ResponseWriter, r *http.Request) {
	userID, err := h.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}
	roomID, err := roomIDFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req issueRoundRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	result, err := h.service.IssueRound(r.Context(), roomID, userID, req.Difficulty)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := h.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req saveProfileRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.service.SaveProfile(r.Context(), userID, req.Username); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// AttachWebSocket upgrades the connection after checking identity and
// membership; the hub takes over from there.
func (h *Handler) AttachWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, err := h.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}
	roomID, err := roomIDFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := h.service.ListMembers(r.Context(), roomID, userID); err != nil {
		writeError(w, err)
		return
	}
	if err := h.hub.UpgradeConnection(w, r, userID, roomID); err != nil {
		log.Error().Err(err).
			Str("room_id", roomID.String()).
			Str("user_id", userID.String()).
			Msg("websocket upgrade failed")
	}
}

func (h *Handler) authenticate(r *http.Request) (uuid.UUID, error) {
	token, err := auth.TokenFromRequest(r)
	if err != nil {
		return uuid.Nil, err
	}
	return h.resolver.ResolveUser(token)
}

func roomIDFromPath(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("roomID"))
	if err != nil {
		return uuid.Nil, apperror.Validation("invalid room id")
	}
	return id, nil
}

func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return apperror.Validation("request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.Validation("malformed request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(apperror.KindOf(err))
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, map[string]string{"message": apperror.MessageOf(err)})
}

func statusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperror.KindForbidden:
		return http.StatusForbidden
	case apperror.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
