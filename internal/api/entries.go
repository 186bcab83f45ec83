package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cenkalti/backoff/v4"
	"github.com/existflow/timegrid/internal/logger"
	"github.com/existflow/timegrid/internal/model"
)

const monthFetchRetries = 2

// MonthlyEntries lists all of a user's entries for one YYYY-MM month. The
// fetch is idempotent, so transient transport failures are retried with a
// short exponential backoff. Server rejections are not retried.
func (c *Client) MonthlyEntries(ctx context.Context, userID int, month string) ([]model.TimeEntry, error) {
	path := fmt.Sprintf("/api/saisie-temps/%d/monthly/%s/", userID, month)

	var entries []model.TimeEntry
	operation := func() error {
		entries = nil
		err := c.do(ctx, http.MethodGet, path, nil, &entries)
		if err == nil {
			return nil
		}
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
			return backoff.Permanent(err)
		}
		if errors.Is(err, ErrNotLoggedIn) {
			return backoff.Permanent(err)
		}
		logger.Debug("retrying month fetch", logger.F("month", month), logger.F("error", err))
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), monthFetchRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return entries, nil
}

// CreateEntry persists a new entry and returns it with its server-assigned
// id. Never retried: a duplicate create would double-book the day.
func (c *Client) CreateEntry(ctx context.Context, e model.TimeEntry) (model.TimeEntry, error) {
	var created model.TimeEntry
	payload := map[string]interface{}{
		"date":        e.Date,
		"projet":      e.ProjectID,
		"temps":       e.Amount,
		"description": e.Description,
	}
	if e.UserID != 0 {
		payload["user"] = e.UserID
	}
	err := c.do(ctx, http.MethodPost, "/api/saisie-temps/", payload, &created)
	return created, err
}

// UpdateEntry patches an existing entry's amount.
func (c *Client) UpdateEntry(ctx context.Context, id int, amount float64) (model.TimeEntry, error) {
	var updated model.TimeEntry
	path := fmt.Sprintf("/api/saisie-temps/%d/", id)
	err := c.do(ctx, http.MethodPatch, path, map[string]interface{}{"temps": amount}, &updated)
	return updated, err
}

// DeleteEntry removes an entry by its server id.
func (c *Client) DeleteEntry(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/saisie-temps/%d/", id), nil, nil)
}
