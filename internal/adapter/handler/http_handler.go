package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pranavsaigandikota/Satchel/internal/core/domain"
	"github.com/pranavsaigandikota/Satchel/internal/core/service"
	"github.com/pranavsaigandikota/Satchel/internal/port"
)

type contextKey string

const userIDKey contextKey = "userID"

// HTTPHandler exposes the chat, group and item services over JSON/HTTP.
// The acting user arrives in the X-User-ID header; authentication
// itself happens upstream.
type HTTPHandler struct {
	chat      *service.ChatService
	groups    *service.GroupService
	inventory *service.InventoryService
	users     port.UserRepository
	log       *zap.Logger
}

func NewHTTPHandler(
	chat *service.ChatService,
	groups *service.GroupService,
	inventory *service.InventoryService,
	users port.UserRepository,
	log *zap.Logger,
) *HTTPHandler {
	return &HTTPHandler{chat: chat, groups: groups, inventory: inventory, users: users, log: log}
}

// Router builds the /api/v1 route tree.
func (h *HTTPHandler) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", h.healthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/users/sync", h.syncUser)

		r.Group(func(r chi.Router) {
			r.Use(h.requireUser)

			r.Route("/chat", func(r chi.Router) {
				r.Post("/sessions", h.startSession)
				r.Get("/sessions", h.listSessions)
				r.Get("/sessions/{id}", h.getSession)
				r.Delete("/sessions/{id}", h.deleteSession)
				r.Put("/sessions/{id}/title", h.renameSession)
				r.Post("/sessions/{id}/messages", h.sendMessage)
				r.Post("/execute-proposal", h.executeProposal)
			})

			r.Route("/groups", func(r chi.Router) {
				r.Post("/", h.createGroup)
				r.Get("/", h.listGroups)
				r.Post("/join", h.joinGroup)
				r.Delete("/{id}", h.deleteGroup)
				r.Get("/{id}/items", h.listGroupItems)
				r.Post("/{id}/items", h.addItem)
			})

			r.Route("/items", func(r chi.Router) {
				r.Get("/search", h.searchItems)
				r.Put("/{id}", h.updateItem)
				r.Delete("/{id}", h.deleteItem)
			})
		})
	})

	return r
}

// requireUser resolves the acting user from the X-User-ID header and
// threads the id through the request context.
func (h *HTTPHandler) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
		if err != nil || userID <= 0 {
			writeError(w, http.StatusUnauthorized, "missing or invalid X-User-ID header")
			return
		}
		if _, err := h.users.GetUser(r.Context(), userID); err != nil {
			writeError(w, http.StatusUnauthorized, "unknown user")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func actingUser(r *http.Request) int64 {
	id, _ := r.Context().Value(userIDKey).(int64)
	return id
}

// --- users ---

type syncUserRequest struct {
	Subject string `json:"subject"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

func (h *HTTPHandler) syncUser(w http.ResponseWriter, r *http.Request) {
	var req syncUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Subject == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user := &domain.User{Subject: req.Subject, Email: req.Email, Name: req.Name}
	if err := h.users.UpsertUser(r.Context(), user); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse(user))
}

// --- chat ---

type startSessionRequest struct {
	Title string `json:"title"`
}

func (h *HTTPHandler) startSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	session, err := h.chat.StartSession(r.Context(), actingUser(r), req.Title)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse(session))
}

func (h *HTTPHandler) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.chat.ListSessions(r.Context(), actingUser(r))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	out := make([]map[string]any, 0, len(sessions))
	for i := range sessions {
		out = append(out, sessionResponse(&sessions[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) getSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathID(w, r)
	if !ok {
		return
	}

	session, err := h.chat.GetSession(r.Context(), actingUser(r), sessionID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	messages, err := h.chat.GetSessionMessages(r.Context(), actingUser(r), sessionID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	resp := sessionResponse(session)
	msgs := make([]map[string]any, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, map[string]any{
			"id":        m.ID,
			"role":      m.Role,
			"content":   m.Content,
			"createdAt": m.CreatedAt,
		})
	}
	resp["messages"] = msgs
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) deleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.chat.DeleteSession(r.Context(), actingUser(r), sessionID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type renameSessionRequest struct {
	Title string `json:"title"`
}

func (h *HTTPHandler) renameSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req renameSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.chat.RenameSession(r.Context(), actingUser(r), sessionID, req.Title)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(session))
}

type sendMessageRequest struct {
	Text               string `json:"text"`
	Attachment         string `json:"attachment"` // base64
	AttachmentMimeType string `json:"attachmentMimeType"`
}

func (h *HTTPHandler) sendMessage(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var attachment *port.Attachment
	if req.Attachment != "" {
		data, err := base64.StdEncoding.DecodeString(req.Attachment)
		if err != nil {
			writeError(w, http.StatusBadRequest, "attachment is not valid base64")
			return
		}
		mime := req.AttachmentMimeType
		if mime == "" {
			mime = "image/jpeg"
		}
		attachment = &port.Attachment{Data: data, MIMEType: mime}
	}

	reply, err := h.chat.SendMessage(r.Context(), actingUser(r), sessionID, req.Text, attachment)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

type executeProposalRequest struct {
	ProposalText string `json:"proposalText"`
	MessageID    *int64 `json:"messageId"`
}

func (h *HTTPHandler) executeProposal(w http.ResponseWriter, r *http.Request) {
	var req executeProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProposalText == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.chat.ExecuteProposal(r.Context(), actingUser(r), req.ProposalText, req.MessageID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "executed"})
}

// --- groups ---

type createGroupRequest struct {
	Name string `json:"name"`
}

func (h *HTTPHandler) createGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	group, err := h.groups.CreateGroup(r.Context(), actingUser(r), req.Name)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, groupResponse(group))
}

func (h *HTTPHandler) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groups.ListGroups(r.Context(), actingUser(r))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	out := make([]map[string]any, 0, len(groups))
	for i := range groups {
		out = append(out, groupResponse(&groups[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

type joinGroupRequest struct {
	JoinCode string `json:"joinCode"`
}

func (h *HTTPHandler) joinGroup(w http.ResponseWriter, r *http.Request) {
	var req joinGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.JoinCode == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	group, err := h.groups.JoinGroup(r.Context(), actingUser(r), req.JoinCode)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groupResponse(group))
}

func (h *HTTPHandler) deleteGroup(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.groups.DeleteGroup(r.Context(), actingUser(r), groupID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- items ---

type itemRequest struct {
	Name       string `json:"name"`
	Quantity   *int   `json:"quantity"`
	Type       string `json:"type"`
	Category   string `json:"category"`
	ExpiryDate string `json:"expiryDate"`
}

func (h *HTTPHandler) listGroupItems(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(w, r)
	if !ok {
		return
	}
	items, err := h.inventory.ListItemsByGroup(r.Context(), groupID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, itemsResponse(items))
}

func (h *HTTPHandler) addItem(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(w, r)
	if !ok {
		return
	}

	req, draft, ok := decodeItem(w, r)
	if !ok {
		return
	}
	draft.CreatedBy = actingUser(r)

	item, err := h.inventory.AddItem(r.Context(), groupID, draft, categoryOrDefault(req.Category))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, itemResponse(*item))
}

func (h *HTTPHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(w, r)
	if !ok {
		return
	}

	req, draft, ok := decodeItem(w, r)
	if !ok {
		return
	}

	item, err := h.inventory.UpdateItem(r.Context(), itemID, draft, categoryOrDefault(req.Category))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, itemResponse(*item))
}

func (h *HTTPHandler) deleteItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.inventory.DeleteItem(r.Context(), itemID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) searchItems(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}
	items, err := h.inventory.Search(r.Context(), query)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, itemsResponse(items))
}

func (h *HTTPHandler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- helpers ---

func decodeItem(w http.ResponseWriter, r *http.Request) (itemRequest, domain.InventoryItem, bool) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, domain.InventoryItem{}, false
	}

	parsedExpiry, err := parseExpiry(req.ExpiryDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "expiryDate must be YYYY-MM-DD")
		return req, domain.InventoryItem{}, false
	}

	return req, domain.NewItem(req.Type, req.Name, req.Quantity, parsedExpiry), true
}

func parseExpiry(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func categoryOrDefault(name string) string {
	if name == "" {
		return "General"
	}
	return name
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func (h *HTTPHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrInvalidProposal):
		writeError(w, http.StatusBadRequest, "invalid proposal format")
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrAlreadyExecuted):
		writeError(w, http.StatusConflict, "proposal already executed")
	case errors.Is(err, domain.ErrUpstream):
		writeError(w, http.StatusBadGateway, "assistant is unavailable, try again later")
	default:
		h.log.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func sessionResponse(s *domain.ChatSession) map[string]any {
	return map[string]any{
		"id":        s.ID,
		"title":     s.Title,
		"createdAt": s.CreatedAt,
	}
}

func userResponse(u *domain.User) map[string]any {
	return map[string]any{
		"id":      u.ID,
		"subject": u.Subject,
		"email":   u.Email,
		"name":    u.Name,
	}
}

func groupResponse(g *domain.InventoryGroup) map[string]any {
	return map[string]any{
		"id":        g.ID,
		"name":      g.Name,
		"joinCode":  g.JoinCode,
		"createdBy": g.CreatedBy,
		"members":   g.Members,
	}
}

func itemResponse(item domain.InventoryItem) map[string]any {
	resp := map[string]any{
		"id":       item.ID,
		"groupId":  item.GroupID,
		"name":     item.Name,
		"type":     item.Kind,
		"category": item.CategoryName,
	}
	if item.Quantity != nil {
		resp["quantity"] = *item.Quantity
	}
	if item.ExpiryDate != nil {
		resp["expiryDate"] = item.ExpiryDate.Format("2006-01-02")
	}
	if item.Condition != "" {
		resp["condition"] = item.Condition
	}
	return resp
}

func itemsResponse(items []domain.InventoryItem) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		out = append(out, itemResponse(item))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
