// Package webui asks the public frontend to rebuild cached pages.
package webui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultTimeout = 5 * time.Second

// Revalidator posts page paths to the frontend's on-demand revalidation endpoint.
type Revalidator struct {
	frontendURL string
	secret      string
	client      *http.Client
}

// NewRevalidator builds a client for {frontendURL}/api/revalidate.
func NewRevalidator(frontendURL, secret string) *Revalidator {
	return &Revalidator{
		frontendURL: strings.TrimRight(frontendURL, "/"),
		secret:      secret,
		client:      &http.Client{Timeout: defaultTimeout},
	}
}

// Enabled reports whether revalidation requests will be sent.
func (r *Revalidator) Enabled() bool {
	return r != nil && r.secret != "" && r.frontendURL != ""
}

type revalidateRequest struct {
	Secret string   `json:"secret"`
	Paths  []string `json:"paths"`
}

// ProjectPaths lists the pages that render a project.
func ProjectPaths(projectID uuid.UUID) []string {
	return []string{"/", "/projects", "/projects/" + projectID.String(), "/competitions"}
}

// Revalidate sends paths to the frontend. It is a no-op when no secret is configured.
func (r *Revalidator) Revalidate(ctx context.Context, paths []string) error {
	if !r.Enabled() {
		slog.DebugContext(ctx, "revalidation skipped: not configured")
		return nil
	}

	body, err := json.Marshal(revalidateRequest{Secret: r.secret, Paths: paths})
	if err != nil {
		return fmt.Errorf("marshal revalidate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.frontendURL+"/api/revalidate", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build revalidate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("revalidate request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("revalidate returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	slog.InfoContext(ctx, "revalidated frontend paths", slog.Any("paths", paths))
	return nil
}
