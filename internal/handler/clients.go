package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/soundwave-agency/agency-server/internal/audit"
	"github.com/soundwave-agency/agency-server/internal/middleware"
	"github.com/soundwave-agency/agency-server/internal/model"
)

// ClientManager is the manager-facing client directory.
type ClientManager interface {
	ListClients(ctx context.Context) ([]model.ClientSummary, error)
	GetClientDetail(ctx context.Context, id int64) (*model.ClientDetail, error)
	CreateClient(ctx context.Context, input model.CreateClientInput) (*model.CreateClientResult, error)
	UpdateClient(ctx context.Context, id int64, input model.UpdateClientInput) error
	DeleteClient(ctx context.Context, id int64) error
}

type ClientsHandler struct {
	clients ClientManager
}

func NewClientsHandler(clients ClientManager) *ClientsHandler {
	return &ClientsHandler{clients: clients}
}

// Routes expects to be mounted behind RequireRole(manager).
func (h *ClientsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}/details", h.Details)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	return r
}

func (h *ClientsHandler) List(w http.ResponseWriter, r *http.Request) {
	clients, err := h.clients.ListClients(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"clients": clients,
		"total":   len(clients),
	})
}

func (h *ClientsHandler) Details(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	detail, err := h.clients.GetClientDetail(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *ClientsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input model.CreateClientInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.clients.CreateClient(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.audit(r, audit.EventClientCreate, result.ClientID)
	writeJSON(w, http.StatusCreated, result)
}

func (h *ClientsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var input model.UpdateClientInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.clients.UpdateClient(r.Context(), id, input); err != nil {
		writeError(w, r, err)
		return
	}

	h.audit(r, audit.EventClientUpdate, id)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Client updated successfully",
	})
}

func (h *ClientsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.clients.DeleteClient(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	h.audit(r, audit.EventClientDelete, id)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Client deleted successfully",
	})
}

func (h *ClientsHandler) audit(r *http.Request, eventType audit.EventType, clientID int64) {
	event := audit.Event{Type: eventType, ClientID: clientID}
	if session := middleware.GetSession(r.Context()); session != nil {
		event.AccountID = session.AccountID
		event.Role = string(session.Role)
	}
	audit.LogFromRequest(r, event)
}
