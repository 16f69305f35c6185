// Package link implements the redirect and management endpoints.
package link

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	h "smartlink/helpers"
	"smartlink/platform"
	"smartlink/store"
	"smartlink/workers"
)

// LinkStore is the persistent surface used by the management endpoints and,
// via the cache, by redirects.
type LinkStore interface {
	FindBySlug(ctx context.Context, slug string) (*store.Link, error)
	Create(ctx context.Context, p store.CreateParams) (*store.Link, error)
}

// Resolver serves cached link lookups.
type Resolver interface {
	Resolve(ctx context.Context, slug string) (*store.Link, error)
}

// Enqueuer accepts click events for background attribution.
type Enqueuer interface {
	Enqueue(ev workers.ClickEvent) bool
}

// Link handler contains dependencies for link endpoints.
type Link struct {
	Store     LinkStore
	Cache     Resolver
	Worker    Enqueuer
	Platforms *platform.Resolver
	Log       *zap.Logger
	BaseHost  string
}

func New(st LinkStore, cache Resolver, worker Enqueuer, platforms *platform.Resolver, log *zap.Logger, baseHost string) *Link {
	return &Link{
		Store:     st,
		Cache:     cache,
		Worker:    worker,
		Platforms: platforms,
		Log:       log,
		BaseHost:  baseHost,
	}
}

// POST /api/links
func (l *Link) Create(c echo.Context) error {
	var req struct {
		Path        string `json:"path" validate:"required"`
		Slug        string `json:"slug"`
		Title       string `json:"title"`
		Description string `json:"description"`
		ImageURL    string `json:"image_url"`
	}
	if err := h.BindAndValidate(c, &req); err != nil {
		return err
	}

	if req.Slug != "" && !h.ValidSlug(req.Slug) {
		return h.JSONError(c, http.StatusBadRequest,
			"invalid slug format: must be 3-100 characters and contain only letters, numbers, hyphens, and underscores")
	}

	ctx := c.Request().Context()
	created, err := h.CreateWithRetry(ctx, l.Store, store.CreateParams{
		Slug:        req.Slug,
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Path:        req.Path,
	}, 5, l.Log)
	if err != nil {
		if h.IsUniqueConstraint(err) {
			return h.JSONError(c, http.StatusConflict, "slug already exists")
		}
		l.Log.Error("failed to create link", zap.Error(err))
		return h.JSONError(c, http.StatusInternalServerError, "something went wrong")
	}

	return h.JSONSuccess(c, http.StatusCreated, map[string]any{
		"success":   true,
		"slug":      created.Slug,
		"short_url": h.BuildShortURL(c, l.BaseHost, created.Slug),
	})
}

// GET /api/links/:slug/stats
func (l *Link) Stats(c echo.Context) error {
	slug := c.Param("slug")
	if !h.ValidSlug(slug) {
		return h.JSONError(c, http.StatusBadRequest,
			"invalid slug format: must be 3-100 characters and contain only letters, numbers, hyphens, and underscores")
	}

	// stats bypass the cache so counters are as fresh as the store
	link, err := l.Store.FindBySlug(c.Request().Context(), slug)
	if err == store.ErrNotFound {
		return h.JSONError(c, http.StatusNotFound, "not found")
	}
	if err != nil {
		l.Log.Error("failed to fetch link stats", zap.String("slug", slug), zap.Error(err))
		return h.JSONError(c, http.StatusInternalServerError, "something went wrong")
	}

	return h.JSONSuccess(c, http.StatusOK, map[string]any{
		"slug":        link.Slug,
		"click_count": link.ClickCount,
		"platform": map[string]int64{
			"ios":     link.ClickCountIOS,
			"android": link.ClickCountAndroid,
			"other":   link.ClickCountOther,
		},
	})
}
