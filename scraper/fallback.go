package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nvollmar/cardwatch/models"
)

// Renderer is the full-render scrape path.
type Renderer interface {
	RenderSnapshot(ctx context.Context, targetURL string) (*models.PriceSnapshot, error)
}

// Fetcher is the reduced direct-request path.
type Fetcher interface {
	FetchSnapshot(ctx context.Context, targetURL string) (*models.PriceSnapshot, error)
}

// Coordinator composes the two paths: full rendering first, and only on a
// forbidden-class failure the direct-fetch fallback. Every attempt resolves
// to a snapshot; errors never escape the per-item boundary.
type Coordinator struct {
	renderer Renderer
	fetcher  Fetcher
}

// NewCoordinator wires the render path to its fallback.
func NewCoordinator(renderer Renderer, fetcher Fetcher) *Coordinator {
	return &Coordinator{renderer: renderer, fetcher: fetcher}
}

// Scrape runs one attempt with fallback and always returns a snapshot.
func (c *Coordinator) Scrape(ctx context.Context, targetURL string) *models.PriceSnapshot {
	snap, err := c.renderer.RenderSnapshot(ctx, targetURL)
	if err == nil {
		return snap
	}

	if !isForbidden(err) {
		slog.Warn("render attempt failed", "url", targetURL, "error", err)
		snap := models.NewFailureSnapshot(errDetail(err), models.MethodFullRender)
		snap.ErrorCode = errCode(err)
		return snap
	}

	slog.Info("render forbidden, trying direct fetch", "url", targetURL)
	fallbackSnap, fallbackErr := c.fetcher.FetchSnapshot(ctx, targetURL)
	if fallbackErr == nil {
		return fallbackSnap
	}

	// Preserve both failure details; losing either makes the combined
	// outcome undiagnosable.
	combined := fmt.Sprintf("%s (fallback: %s)", errDetail(err), errDetail(fallbackErr))
	slog.Warn("fallback also failed", "url", targetURL, "error", combined)
	snap = models.NewFailureSnapshot(combined, models.MethodDirectFetch)
	snap.ErrorCode = errCode(fallbackErr)
	return snap
}

// isForbidden reports whether a render failure is the 403 class that makes
// the attempt eligible for direct-fetch fallback.
func isForbidden(err error) bool {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return se.Code == models.ErrCodeForbidden || se.StatusCode == 403
	}
	return false
}

// errCode extracts the machine-readable failure class for metrics.
func errCode(err error) string {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// errDetail extracts the human-facing detail of a failure, preferring the
// compact message of typed errors ("HTTP 403") over the full chain.
func errDetail(err error) string {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		if se.Err != nil {
			return fmt.Sprintf("%s: %v", se.Message, se.Err)
		}
		return se.Message
	}
	return err.Error()
}
