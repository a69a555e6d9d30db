package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// ValidationError carries field-keyed messages for a rejected payload.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("validation failed: %s", strings.Join(keys, ", "))
}

// requiredFields lists the fields a document must carry per resource kind.
var requiredFields = map[string][]string{
	"clients":     {"company_name"},
	"employees":   {"first_name", "last_name"},
	"contracts":   {"employee", "kind", "start_date"},
	"chantiers":   {"name", "client"},
	"assignments": {"employee", "chantier", "start_date"},
	"attendances": {"employee", "chantier", "date"},
	"quotes":      {"client", "number"},
	"po":          {"supplier", "number"},
	"invoices":    {"client", "number"},
	"payments":    {"invoice", "amount"},
}

// ResourceRepository defines the persistence operations needed by the
// ResourceService.
type ResourceRepository interface {
	List(ctx context.Context, kind string) ([]map[string]any, error)
	Get(ctx context.Context, kind string, id int64) (map[string]any, error)
	Insert(ctx context.Context, kind string, doc map[string]any) (map[string]any, error)
	Update(ctx context.Context, kind string, id int64, patch map[string]any) (map[string]any, error)
	Delete(ctx context.Context, kind string, id int64) error
}

// ResourceService validates and persists the generic resource documents.
type ResourceService struct {
	repo ResourceRepository
}

// NewResourceService constructs a ResourceService over the repository.
func NewResourceService(repo ResourceRepository) *ResourceService {
	return &ResourceService{repo: repo}
}

// List returns every live document of the kind.
func (s *ResourceService) List(ctx context.Context, kind string) ([]map[string]any, error) {
	return s.repo.List(ctx, kind)
}

// Create validates required fields and stores the document.
func (s *ResourceService) Create(ctx context.Context, kind string, doc map[string]any) (map[string]any, error) {
	if err := validate(kind, doc, true); err != nil {
		return nil, err
	}
	return s.repo.Insert(ctx, kind, doc)
}

// Update validates the patch and merges it into the stored document.
func (s *ResourceService) Update(ctx context.Context, kind string, id int64, patch map[string]any) (map[string]any, error) {
	if err := validate(kind, patch, false); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, kind, id, patch)
}

// Delete soft-deletes the document.
func (s *ResourceService) Delete(ctx context.Context, kind string, id int64) error {
	return s.repo.Delete(ctx, kind, id)
}

// validate checks required fields. On create every required field must be
// present and non-empty; on update only fields present in the patch are
// checked, so partial payloads stay legal.
func validate(kind string, doc map[string]any, create bool) error {
	fields := map[string][]string{}
	for _, name := range requiredFields[kind] {
		val, present := doc[name]
		if !present {
			if create {
				fields[name] = append(fields[name], "this field is required")
			}
			continue
		}
		if isEmpty(val) {
			fields[name] = append(fields[name], "this field may not be blank")
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func isEmpty(val any) bool {
	switch v := val.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	default:
		return false
	}
}
