package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gestibat/gestibat/internal/repository"
	"github.com/gestibat/gestibat/internal/service"
)

// maxUploadBytes caps multipart request bodies.
const maxUploadBytes = 32 << 20

// fileFields maps an upload form field to the document key its URLs land
// under. Singular keys hold one URL, plural keys a list.
var fileFields = map[string]string{
	"document":  "document_url",
	"documents": "document_urls",
	"images":    "image_urls",
}

// ResourceService defines the operations required by the CRUD handlers.
type ResourceService interface {
	List(ctx context.Context, kind string) ([]map[string]any, error)
	Create(ctx context.Context, kind string, doc map[string]any) (map[string]any, error)
	Update(ctx context.Context, kind string, id int64, patch map[string]any) (map[string]any, error)
	Delete(ctx context.Context, kind string, id int64) error
}

// ResourceHandler serves the generic CRUD endpoints, parameterized by
// resource kind at route-registration time.
type ResourceHandler struct {
	Service ResourceService
}

// List handles GET on a collection.
func (h *ResourceHandler) List(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docs, err := h.Service.List(r.Context(), kind)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, docs)
	}
}

// Create handles POST on a collection, accepting JSON or multipart form
// data.
func (h *ResourceHandler) Create(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := documentFromRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		created, err := h.Service.Create(r.Context(), kind, doc)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

// Update handles PATCH on a single entity.
func (h *ResourceHandler) Update(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := entityID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid id")
			return
		}
		patch, err := documentFromRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		updated, err := h.Service.Update(r.Context(), kind, id, patch)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

// Delete handles DELETE on a single entity.
func (h *ResourceHandler) Delete(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := entityID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid id")
			return
		}
		if err := h.Service.Delete(r.Context(), kind, id); err != nil {
			h.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *ResourceHandler) writeServiceError(w http.ResponseWriter, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, verr.Fields)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func entityID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// documentFromRequest decodes the payload. JSON bodies become the document
// directly; multipart forms are flattened with repeated fields collected
// into arrays and uploads recorded as media URLs.
func documentFromRequest(r *http.Request) (map[string]any, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return documentFromMultipart(r)
	}
	var doc map[string]any
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid json body")
	}
	return doc, nil
}

func documentFromMultipart(r *http.Request) (map[string]any, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, fmt.Errorf("invalid multipart body")
	}
	doc := map[string]any{}
	for key, vals := range r.MultipartForm.Value {
		if len(vals) == 1 {
			doc[key] = formValue(vals[0])
			continue
		}
		list := make([]any, 0, len(vals))
		for _, v := range vals {
			list = append(list, formValue(v))
		}
		doc[key] = list
	}
	for field, headers := range r.MultipartForm.File {
		target, ok := fileFields[field]
		if !ok {
			target = field + "_url"
		}
		urls := make([]any, 0, len(headers))
		for _, fh := range headers {
			urls = append(urls, "/media/"+fh.Filename)
		}
		if strings.HasSuffix(target, "_urls") {
			doc[target] = urls
		} else if len(urls) > 0 {
			doc[target] = urls[0]
		}
	}
	return doc, nil
}

// formValue keeps numeric form fields numeric so multipart documents
// round-trip into the same JSON shapes as their JSON counterparts.
func formValue(v string) any {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	return v
}
