package playlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/go-resty/resty/v2"

	"showsync/internal/config"
	"showsync/internal/logging"
	"showsync/internal/services"
)

// Editor defines the playlist service operations the engine depends on.
type Editor interface {
	ListCategories(ctx context.Context) ([]Category, error)
	ListShows(ctx context.Context, categoryID int64) ([]Show, error)
	Episodes(ctx context.Context, showID int64) ([]Episode, error)
	PushUpdate(ctx context.Context, req UpdateRequest) (UpdateReceipt, error)
}

// Client talks to the playlist editor API.
type Client struct {
	rc       *resty.Client
	token    string
	playlist string
	attempts uint
	wait     time.Duration
	logger   *slog.Logger
}

var _ Editor = (*Client)(nil)

// New creates a playlist editor client from configuration.
func New(cfg config.Playlist, logger *slog.Logger) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("playlist base url required")
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("playlist token required")
	}

	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(time.Duration(cfg.RequestTimeout) * time.Second).
		SetHeader("Accept", "application/json")

	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = 1
	}
	wait := time.Duration(cfg.RetryWaitMs) * time.Millisecond
	if wait <= 0 {
		wait = 500 * time.Millisecond
	}

	return &Client{
		rc:       rc,
		token:    cfg.Token,
		playlist: cfg.Playlist,
		attempts: uint(attempts),
		wait:     wait,
		logger:   logging.NewComponentLogger(logger, "playlist"),
	}, nil
}

// ListCategories fetches all series categories.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	body := map[string]any{"playlist": c.playlist, "token": c.token}
	var envelope itemsEnvelope[Category]
	if err := c.postJSON(ctx, "/category/series/get-data", "list categories", body, &envelope); err != nil {
		return nil, err
	}
	return envelope.Items, nil
}

// ListShows fetches shows, optionally restricted to one category. The editor
// API only serves the full listing, so a non-zero categoryID filters locally.
func (c *Client) ListShows(ctx context.Context, categoryID int64) ([]Show, error) {
	body := map[string]any{"playlist": c.playlist, "token": c.token}
	var envelope itemsEnvelope[Show]
	if err := c.postJSON(ctx, "/stream/series/get-data", "list shows", body, &envelope); err != nil {
		return nil, err
	}
	if categoryID == 0 {
		return envelope.Items, nil
	}
	shows := make([]Show, 0, len(envelope.Items))
	for _, show := range envelope.Items {
		if show.Category == categoryID {
			shows = append(shows, show)
		}
	}
	return shows, nil
}

// Episodes fetches the episode list for one show.
func (c *Client) Episodes(ctx context.Context, showID int64) ([]Episode, error) {
	body := map[string]any{
		"seriesId": strconv.FormatInt(showID, 10),
		"url":      nil,
		"token":    c.token,
	}
	var envelope episodesEnvelope
	if err := c.postJSON(ctx, "/episode/get-data", "get episodes", body, &envelope); err != nil {
		return nil, err
	}
	return envelope.Items, nil
}

// PushUpdate assigns provider metadata to a show.
func (c *Client) PushUpdate(ctx context.Context, req UpdateRequest) (UpdateReceipt, error) {
	body := map[string]any{
		"items": []map[string]any{{
			"id":              req.ShowID,
			"tmdb":            req.TMDBID,
			"youtube_trailer": "",
			"category":        req.CategoryID,
		}},
		"checkSaved": false,
		"token":      c.token,
	}
	var receipt UpdateReceipt
	if err := c.postJSON(ctx, "/stream/series/save", "push update", body, &receipt); err != nil {
		return UpdateReceipt{}, err
	}
	if receipt.Status == "" {
		receipt.Status = "ok"
	}
	return receipt, nil
}

// postJSON executes a POST with retry on transient faults. The retry loop
// lives here rather than in resty so malformed responses fail fast.
func (c *Client) postJSON(ctx context.Context, path, operation string, body any, out any) error {
	var raw []byte
	err := retry.Do(
		func() error {
			resp, err := c.rc.R().
				SetContext(ctx).
				SetBody(body).
				Post(path)
			if err != nil {
				return services.Wrap(services.ErrTransient, "playlist", operation, "execute request", err)
			}
			if code := resp.StatusCode(); code >= http.StatusInternalServerError || code == http.StatusTooManyRequests {
				return services.Wrap(services.ErrTransient, "playlist", operation,
					fmt.Sprintf("returned %d", code), nil)
			} else if resp.IsError() {
				return services.Wrap(services.ErrMalformed, "playlist", operation,
					fmt.Sprintf("returned %d", code), nil)
			}
			raw = resp.Body()
			return nil
		},
		retry.Attempts(c.attempts),
		retry.Delay(c.wait),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, services.ErrTransient)
		}),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("retrying playlist request",
				logging.String("operation", operation),
				logging.Int("attempt", int(n)+1),
				logging.Error(err))
		}),
	)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return services.Wrap(services.ErrMalformed, "playlist", operation, "decode response", err)
	}
	return nil
}
