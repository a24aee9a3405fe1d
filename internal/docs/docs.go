// Package docs is the registry of offering documents: named pointers to
// off-ledger files with a content hash, so holders can verify what they
// were shown.
package docs

import (
	"context"
	"errors"
	"time"

	"ryegate/internal/rbac"
	"ryegate/pkg/domain"
	dErrors "ryegate/pkg/domain-errors"
	"ryegate/pkg/platform/sentinel"
	"ryegate/pkg/requestcontext"
)

// Document is a named, hashed pointer to an off-ledger file.
type Document struct {
	Name      string         `json:"name"`
	URI       string         `json:"uri"`
	Hash      string         `json:"hash"`
	UpdatedBy domain.Address `json:"updated_by"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Store persists documents keyed by name.
type Store interface {
	Save(ctx context.Context, doc Document) error
	Find(ctx context.Context, name string) (Document, error)
	List(ctx context.Context) ([]Document, error)
}

// Service guards the registry behind the admin role. Upserts replace; the
// registry keeps the latest version only.
type Service struct {
	store Store
	roles *rbac.Service
}

func NewService(store Store, roles *rbac.Service) *Service {
	return &Service{store: store, roles: roles}
}

// SetDocument upserts a document. Admin role only.
func (s *Service) SetDocument(ctx context.Context, caller domain.Address, name, uri, hash string) (Document, error) {
	if err := s.roles.Require(ctx, rbac.RoleAdmin, caller); err != nil {
		return Document{}, err
	}
	if name == "" || uri == "" {
		return Document{}, dErrors.New(dErrors.CodeBadRequest, "document name and uri are required")
	}
	doc := Document{
		Name:      name,
		URI:       uri,
		Hash:      hash,
		UpdatedBy: caller,
		UpdatedAt: requestcontext.Now(ctx),
	}
	if err := s.store.Save(ctx, doc); err != nil {
		return Document{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save document")
	}
	return doc, nil
}

// GetDocument reads one document by name.
func (s *Service) GetDocument(ctx context.Context, name string) (Document, error) {
	doc, err := s.store.Find(ctx, name)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Document{}, dErrors.Newf(dErrors.CodeNotFound, "no document named %q", name)
		}
		return Document{}, dErrors.Wrap(err, dErrors.CodeInternal, "document lookup failed")
	}
	return doc, nil
}

// AllDocuments lists the registry, ordered by name.
func (s *Service) AllDocuments(ctx context.Context) ([]Document, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "document list failed")
	}
	return list, nil
}
