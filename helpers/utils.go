package helpers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/labstack/echo/v4"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"smartlink/store"
)

// LinkCreator is the store surface needed to create links.
type LinkCreator interface {
	Create(ctx context.Context, p store.CreateParams) (*store.Link, error)
}

// CreateWithRetry inserts a link, regenerating the slug on unique-constraint
// collisions when the caller did not pin one. A pinned slug that collides is
// surfaced to the caller unchanged.
func CreateWithRetry(ctx context.Context, creator LinkCreator, p store.CreateParams, maxRetries int, log *zap.Logger) (*store.Link, error) {
	pinned := p.Slug != ""
	var created *store.Link

	operation := func() error {
		if !pinned {
			slug, err := NewSlug()
			if err != nil {
				return retry.Unrecoverable(err)
			}
			p.Slug = slug
		}

		link, err := creator.Create(ctx, p)
		if err == nil {
			created = link
			return nil
		}

		if IsUniqueConstraint(err) && !pinned {
			return err
		}
		return retry.Unrecoverable(err)
	}

	err := retry.Do(
		operation,
		retry.Attempts(uint(maxRetries)),
		retry.Delay(50*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn("retrying slug insert", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)

	return created, err
}

// IsUniqueConstraint reports whether err is a duplicate-key violation.
func IsUniqueConstraint(err error) bool {
	if err == nil {
		return false
	}

	var se sqlite3.Error
	if errors.As(err, &se) {
		if se.ExtendedCode == sqlite3.ErrConstraintUnique || se.Code == sqlite3.ErrConstraint {
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "constraint failed")
}

// BuildShortURL produces the public URL for a slug, preferring the
// configured base host over whatever the request came in on.
func BuildShortURL(c echo.Context, baseHost, slug string) string {
	if baseHost != "" {
		return fmt.Sprintf("%s/%s", strings.TrimRight(baseHost, "/"), slug)
	}

	req := c.Request()
	scheme := "http"
	if req.TLS != nil {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s/%s", scheme, req.Host, slug)
}

// ClientIP extracts the visitor address, stripping any port.
func ClientIP(c echo.Context) string {
	if ip := c.RealIP(); ip != "" {
		if host, _, err := net.SplitHostPort(ip); err == nil {
			return host
		}
		return ip
	}
	if host, _, err := net.SplitHostPort(c.Request().RemoteAddr); err == nil {
		return host
	}
	return c.Request().RemoteAddr
}
