// Package nbn provides a client for an NBN-Atlas-style occurrence web
// service. It pages through occurrence search results for a species query,
// converts them to internal records, and handles transient failures with
// retry and backoff.
package nbn

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/occutrend/occutrend/internal/logger"
	"github.com/occutrend/occutrend/internal/models"
)

// Client provides access to the occurrence web service.
type Client struct {
	apiBaseURL     string
	httpClient     *http.Client
	pageSize       int
	maxRetries     int
	retryDelayBase time.Duration
}

// occurrenceRecord is one record as the web service returns it.
type occurrenceRecord struct {
	UUID             string  `json:"uuid"`
	ScientificName   string  `json:"scientificName"`
	GridReference    string  `json:"gridReference"`
	EventDate        string  `json:"eventDate"` // ISO date, "2006-01-02"
	DecimalLatitude  float64 `json:"decimalLatitude"`
	DecimalLongitude float64 `json:"decimalLongitude"`
	BasisOfRecord    string  `json:"basisOfRecord"`
	DataProviderName string  `json:"dataProviderName"`
}

// searchResponse is one page of occurrence search results.
type searchResponse struct {
	TotalRecords int                `json:"totalRecords"`
	StartIndex   int                `json:"startIndex"`
	Occurrences  []occurrenceRecord `json:"occurrences"`
}

// NewClient creates an occurrence web service client.
func NewClient(apiBaseURL string, timeout time.Duration, pageSize, maxRetries int, retryDelayBase time.Duration) *Client {
	if pageSize <= 0 {
		pageSize = 300
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		apiBaseURL: apiBaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		pageSize:       pageSize,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}
}

// FetchOccurrences retrieves every occurrence record matching the species
// query within the year window, paging until the service reports no more
// records. Records with unparseable dates are kept with a zero date so the
// cleaning pass can count and drop them.
func (c *Client) FetchOccurrences(ctx context.Context, query string, firstYear, lastYear int) ([]models.Occurrence, error) {
	if query == "" {
		return nil, fmt.Errorf("species query must not be empty")
	}
	if firstYear > lastYear {
		return nil, fmt.Errorf("invalid year window %d..%d", firstYear, lastYear)
	}

	var occurrences []models.Occurrence
	badDates := 0

	for startIndex := 0; ; {
		pageURL := fmt.Sprintf("%s/occurrences/search?q=%s&fq=%s&pageSize=%d&startIndex=%d",
			c.apiBaseURL,
			url.QueryEscape(query),
			url.QueryEscape(fmt.Sprintf("year:[%d TO %d]", firstYear, lastYear)),
			c.pageSize,
			startIndex,
		)

		resp, err := c.doRequest(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch occurrences at index %d: %w", startIndex, err)
		}

		var page searchResponse
		if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("failed to decode occurrence page at index %d: %w", startIndex, err)
		}
		resp.Body.Close()

		for _, rec := range page.Occurrences {
			occ := models.Occurrence{
				ID:        rec.UUID,
				Species:   rec.ScientificName,
				GridRef:   rec.GridReference,
				Latitude:  rec.DecimalLatitude,
				Longitude: rec.DecimalLongitude,
				Basis:     rec.BasisOfRecord,
				Source:    rec.DataProviderName,
			}
			if rec.EventDate != "" {
				date, err := time.Parse("2006-01-02", rec.EventDate)
				if err != nil {
					badDates++
				} else {
					occ.Date = date
				}
			}
			occurrences = append(occurrences, occ)
		}

		logger.Debug("Fetched occurrence page: start=%d, got=%d, total=%d",
			startIndex, len(page.Occurrences), page.TotalRecords)

		startIndex += len(page.Occurrences)
		if len(page.Occurrences) == 0 || startIndex >= page.TotalRecords {
			break
		}
	}

	if badDates > 0 {
		logger.Warn("FetchOccurrences: %d record(s) with unparseable dates (will be dropped by cleaning)", badDates)
	}
	logger.Info("Fetched %d occurrence record(s) for %q (%d..%d)", len(occurrences), query, firstYear, lastYear)

	return occurrences, nil
}

// doRequest performs an HTTP GET with retry on transient failures. Server
// errors (5xx) are retried with linear backoff; client errors are not.
func (c *Client) doRequest(ctx context.Context, requestURL string) (*http.Response, error) {
	var lastErr error

	for i := 0; i < c.maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if waitErr := sleepCtx(ctx, c.retryDelayBase*time.Duration(i+1)); waitErr != nil {
				return nil, waitErr
			}
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			if waitErr := sleepCtx(ctx, c.retryDelayBase*time.Duration(i+1)); waitErr != nil {
				return nil, waitErr
			}
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
		}

		return resp, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// sleepCtx waits for the backoff delay or until the context is canceled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
