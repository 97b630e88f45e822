package thingsboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lhtools/tb-pivot-export-go/internal/domain/entity"
	"github.com/lhtools/tb-pivot-export-go/internal/domain/repository"
)

// maxIntervalsPerRequest caps how many aggregation intervals a single
// timeseries call may span. ThingsBoard silently truncates longer aggregated
// queries, so requests are split into sequential chunks below this cap.
const maxIntervalsPerRequest = 700

// TokenProvider supplies JWT bearer tokens for the ThingsBoard REST API and
// lets the client discard a token the server rejected.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
	Invalidate() error
}

// APIError is a non-2xx answer from the ThingsBoard REST API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("thingsboard: HTTP %d: %s", e.StatusCode, e.Message)
}

// TelemetryRepositoryImpl implements TelemetryRepository against the
// ThingsBoard timeseries REST endpoint.
type TelemetryRepositoryImpl struct {
	baseURL string
	tokens  TokenProvider
	client  *http.Client
}

// NewTelemetryRepository creates a telemetry repository for one ThingsBoard
// instance.
func NewTelemetryRepository(baseURL string, tokens TokenProvider) repository.TelemetryRepository {
	return &TelemetryRepositoryImpl{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// FetchTimeseries retrieves the keyed series for one entity over a closed
// millisecond range. Aggregated queries wider than the per-request interval
// cap are fetched as sequential adjacent chunks and concatenated per key, so
// callers see one lossless series regardless of how the range was split.
func (r *TelemetryRepositoryImpl) FetchTimeseries(ctx context.Context, ref entity.EntityRef, keys []string, startTs, endTs int64, limit int, agg string, intervalMs int64) (entity.KeyedSeries, error) {
	chunked := agg != entity.AggNone && intervalMs > 0

	if !chunked {
		return r.fetchSingle(ctx, ref, keys, startTs, endTs, limit, agg, intervalMs)
	}

	out := entity.KeyedSeries{}
	maxSpan := maxIntervalsPerRequest * intervalMs
	for t := startTs; t < endTs; {
		chunkEnd := t + maxSpan
		if chunkEnd > endTs {
			chunkEnd = endTs
		}
		series, err := r.fetchSingle(ctx, ref, keys, t, chunkEnd, limit, agg, intervalMs)
		if err != nil {
			return nil, err
		}
		for key, points := range series {
			out[key] = append(out[key], points...)
		}
		t = chunkEnd
	}
	return out, nil
}

func (r *TelemetryRepositoryImpl) fetchSingle(ctx context.Context, ref entity.EntityRef, keys []string, startTs, endTs int64, limit int, agg string, intervalMs int64) (entity.KeyedSeries, error) {
	series, err := r.doFetch(ctx, ref, keys, startTs, endTs, limit, agg, intervalMs)

	// One retry with fresh credentials on an expired token. A second 401 is
	// fatal so a revoked account cannot loop.
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		if invErr := r.tokens.Invalidate(); invErr != nil {
			return nil, fmt.Errorf("invalidating rejected token: %w", invErr)
		}
		series, err = r.doFetch(ctx, ref, keys, startTs, endTs, limit, agg, intervalMs)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching timeseries for %s %s: %w", ref.Type, ref.ID, err)
	}
	return series, nil
}

func (r *TelemetryRepositoryImpl) doFetch(ctx context.Context, ref entity.EntityRef, keys []string, startTs, endTs int64, limit int, agg string, intervalMs int64) (entity.KeyedSeries, error) {
	token, err := r.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("obtaining API token: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/plugins/telemetry/%s/%s/values/timeseries",
		r.baseURL, url.PathEscape(ref.Type), url.PathEscape(ref.ID))

	params := url.Values{}
	params.Set("keys", strings.Join(keys, ","))
	params.Set("startTs", strconv.FormatInt(startTs, 10))
	params.Set("endTs", strconv.FormatInt(endTs, 10))
	params.Set("limit", strconv.Itoa(limit))
	params.Set("agg", agg)
	params.Set("useStrictDataTypes", "true")
	if agg != entity.AggNone && intervalMs > 0 {
		params.Set("interval", strconv.FormatInt(intervalMs, 10))
		params.Set("intervalType", "MILLISECONDS")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: apiMessage(body)}
	}

	series := entity.KeyedSeries{}
	if len(body) == 0 {
		return series, nil
	}
	if err := json.Unmarshal(body, &series); err != nil {
		return nil, fmt.Errorf("decoding timeseries response: %w", err)
	}
	return series, nil
}

// apiMessage pulls the human message out of a ThingsBoard error body, falling
// back to the raw body.
func apiMessage(body []byte) string {
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Message != "" {
		return envelope.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
