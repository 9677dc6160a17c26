package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cloo-solutions/corpora/internal/api"
	"github.com/cloo-solutions/corpora/internal/api/middleware"
	"github.com/cloo-solutions/corpora/internal/domain"
	"github.com/cloo-solutions/corpora/internal/service"
	"github.com/go-chi/chi/v5"
)

type DocumentService interface {
	InitUpload(ctx context.Context, input service.InitDocumentUploadInput) (*service.InitDocumentUploadResult, error)
	CompleteUpload(ctx context.Context, input service.CompleteDocumentUploadInput) (*domain.Document, error)
	GetByID(ctx context.Context, ownerID, documentID string) (*domain.Document, error)
	GetDownloadURL(ctx context.Context, ownerID, documentID string) (string, error)
	List(ctx context.Context, input service.ListDocumentsInput) (*service.ListDocumentsOutput, error)
	Delete(ctx context.Context, ownerID, documentID string) error
}

type DocumentHandler struct {
	svc DocumentService
}

func NewDocumentHandler(svc DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

type InitUploadRequest struct {
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
}

type InitUploadResponse struct {
	DocumentID string `json:"document_id"`
	StorageKey string `json:"storage_key"`
	UploadURL  string `json:"upload_url"`
}

type CompleteUploadRequest struct {
	DocumentID string `json:"document_id"`
	StorageKey string `json:"storage_key"`
	Filename   string `json:"filename"`
	MimeType   string `json:"mime_type"`
	SHA256     string `json:"sha256,omitempty"`
}

type DocumentResponse struct {
	ID         string `json:"id"`
	OwnerID    string `json:"owner_id"`
	Filename   string `json:"filename"`
	MimeType   string `json:"mime_type"`
	SHA256     string `json:"sha256,omitempty"`
	Status     string `json:"status"`
	ChunkCount int    `json:"chunk_count"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type DocumentListResponse struct {
	Items   []*DocumentResponse `json:"items"`
	Cursor  string              `json:"cursor,omitempty"`
	HasMore bool                `json:"has_more"`
}

type DownloadURLResponse struct {
	DownloadURL string `json:"download_url"`
}

func documentToResponse(d *domain.Document) *DocumentResponse {
	return &DocumentResponse{
		ID:         d.ID,
		OwnerID:    d.OwnerID,
		Filename:   d.Filename,
		MimeType:   d.MimeType,
		SHA256:     d.SHA256,
		Status:     string(d.Status),
		ChunkCount: d.ChunkCount,
		CreatedAt:  d.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:  d.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func (h *DocumentHandler) InitUpload(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req InitUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Filename == "" {
		api.Error(w, http.StatusBadRequest, "filename is required")
		return
	}
	if req.MimeType == "" {
		api.Error(w, http.StatusBadRequest, "mime_type is required")
		return
	}

	result, err := h.svc.InitUpload(r.Context(), service.InitDocumentUploadInput{
		OwnerID:     ownerID,
		Filename:    req.Filename,
		ContentType: req.MimeType,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, InitUploadResponse{
		DocumentID: result.DocumentID,
		StorageKey: result.StorageKey,
		UploadURL:  result.UploadURL,
	})
}

func (h *DocumentHandler) CompleteUpload(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CompleteUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.DocumentID == "" {
		api.Error(w, http.StatusBadRequest, "document_id is required")
		return
	}
	if req.StorageKey == "" {
		api.Error(w, http.StatusBadRequest, "storage_key is required")
		return
	}
	if req.Filename == "" {
		api.Error(w, http.StatusBadRequest, "filename is required")
		return
	}

	doc, err := h.svc.CompleteUpload(r.Context(), service.CompleteDocumentUploadInput{
		DocumentID:  req.DocumentID,
		OwnerID:     ownerID,
		Filename:    req.Filename,
		ContentType: req.MimeType,
		StorageKey:  req.StorageKey,
		SHA256:      req.SHA256,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, documentToResponse(doc))
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	documentID := chi.URLParam(r, "id")
	doc, err := h.svc.GetByID(r.Context(), ownerID, documentID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, documentToResponse(doc))
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit := 0
	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil || parsed < 0 {
			api.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	out, err := h.svc.List(r.Context(), service.ListDocumentsInput{
		OwnerID: ownerID,
		Cursor:  r.URL.Query().Get("cursor"),
		Limit:   limit,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*DocumentResponse, 0, len(out.Items))
	for _, doc := range out.Items {
		items = append(items, documentToResponse(doc))
	}

	api.Success(w, http.StatusOK, DocumentListResponse{
		Items:   items,
		Cursor:  out.Cursor,
		HasMore: out.HasMore,
	})
}

func (h *DocumentHandler) GetDownloadURL(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	documentID := chi.URLParam(r, "id")
	url, err := h.svc.GetDownloadURL(r.Context(), ownerID, documentID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, DownloadURLResponse{DownloadURL: url})
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	documentID := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), ownerID, documentID); err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusNoContent, nil)
}
