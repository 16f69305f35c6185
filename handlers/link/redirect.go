package link

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"smartlink/dedup"
	h "smartlink/helpers"
	"smartlink/platform"
	"smartlink/store"
	"smartlink/workers"
)

// GET / — no slug, just send the visitor to the right storefront.
func (l *Link) Home(c echo.Context) error {
	target := l.Platforms.Classify(c.Request().UserAgent(), "")
	return c.Redirect(http.StatusFound, target.FallbackURL)
}

// GET /:slug  and HEAD
//
// The interstitial is rendered from data resolved up front; click tracking is
// handed to the background worker and never delays or fails the response.
func (l *Link) Redirect(c echo.Context) error {
	slug := c.Param("slug")
	if !h.ValidSlug(slug) {
		return l.renderNotFound(c, http.StatusBadRequest)
	}

	ctx := c.Request().Context()
	link, err := l.Cache.Resolve(ctx, slug)
	if errors.Is(err, store.ErrNotFound) {
		return l.renderNotFound(c, http.StatusNotFound)
	}
	if err != nil {
		l.Log.Error("link lookup failed", zap.String("slug", slug), zap.Error(err))
		return l.renderNotFound(c, http.StatusInternalServerError)
	}

	ua := c.Request().UserAgent()
	target := l.Platforms.Classify(ua, link.Path)

	l.trackClick(c, slug, ua, target.Platform)

	return c.Render(http.StatusOK, "link", map[string]any{
		"title":        link.Title,
		"description":  link.Description,
		"image_url":    link.ImageURL,
		"redirect_url": target.RedirectURL,
		"fallback_url": target.FallbackURL,
		"slug":         link.Slug,
	})
}

// trackClick submits the event to the bounded worker queue. Enqueue never
// blocks; a full queue drops the event, analytics are best-effort.
func (l *Link) trackClick(c echo.Context, slug, ua string, p platform.Platform) {
	ev := workers.ClickEvent{
		Key:      dedup.Key(h.ClientIP(c), ua, slug),
		Slug:     slug,
		Platform: p,
		Time:     time.Now(),
	}
	if !l.Worker.Enqueue(ev) {
		l.Log.Warn("click queue full, dropping event", zap.String("slug", slug))
	}
}

func (l *Link) renderNotFound(c echo.Context, code int) error {
	return c.Render(code, "not-found", map[string]any{
		"redirect_url": l.Platforms.DefaultWeb,
	})
}
