package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cloo-solutions/corpora/internal/api"
	"github.com/cloo-solutions/corpora/internal/api/middleware"
	"github.com/cloo-solutions/corpora/internal/domain"
	"github.com/cloo-solutions/corpora/internal/service"
)

type QueryRouter interface {
	Route(ctx context.Context, input service.RouteInput) (*domain.RouterResult, error)
}

type AskHandler struct {
	router QueryRouter
}

func NewAskHandler(router QueryRouter) *AskHandler {
	return &AskHandler{router: router}
}

type AskRequest struct {
	Query      string `json:"query"`
	DocumentID string `json:"document_id,omitempty"`
	Profile    string `json:"profile,omitempty"`
}

type SourceResponse struct {
	Title string `json:"title"`
	Type  string `json:"type"`
}

type AskResponse struct {
	Message     string           `json:"message"`
	SearchType  string           `json:"search_type"`
	Sources     []SourceResponse `json:"sources"`
	SourceCount int              `json:"source_count"`
}

func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	result, err := h.router.Route(r.Context(), service.RouteInput{
		Query:      req.Query,
		OwnerID:    ownerID,
		DocumentID: req.DocumentID,
		Profile:    req.Profile,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	sources := make([]SourceResponse, 0, len(result.Sources))
	for _, src := range result.Sources {
		sources = append(sources, SourceResponse{Title: src.Title, Type: src.Type})
	}

	api.Success(w, http.StatusOK, AskResponse{
		Message:     result.Message,
		SearchType:  string(result.SearchType),
		Sources:     sources,
		SourceCount: result.SourceCount,
	})
}
