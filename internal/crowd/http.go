package crowd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iwvelando/park-planner/pkg/constants"
	"github.com/iwvelando/park-planner/pkg/datetime"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HTTPOptions configures an HTTPSource.
type HTTPOptions struct {
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	APIKey        string
}

// HTTPSource queries a remote crowd forecast API:
//
//	GET {baseURL}/v1/crowds?destination={id}&date={yyyy-mm-dd}
//
// 200 carries {"crowdLevel": n}; 404 means no forecast exists.
type HTTPSource struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

type crowdResponse struct {
	DestinationID string   `json:"destinationId"`
	Date          string   `json:"date"`
	CrowdLevel    *float64 `json:"crowdLevel"`
}

// NewHTTPSource creates an HTTPSource.
func NewHTTPSource(logger *zap.Logger, opts HTTPOptions) (*HTTPSource, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("crowd http source requires a base URL")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid crowd base URL %q: %w", opts.BaseURL, err)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultHTTPTimeout
	}
	rps := opts.RatePerSecond
	if rps <= 0 {
		rps = constants.DefaultRatePerSecond
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = constants.DefaultRateBurst
	}
	return &HTTPSource{
		baseURL:    base,
		apiKey:     opts.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		logger:     logger,
	}, nil
}

// CrowdLevel implements Source.
func (s *HTTPSource) CrowdLevel(ctx context.Context, destinationID string, date time.Time) (float64, bool, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return 0, false, &LookupError{DestinationID: destinationID, Date: date, Reason: "rate limiter", Err: err}
	}

	q := url.Values{}
	q.Set("destination", destinationID)
	q.Set("date", datetime.FormatDate(date))
	endpoint := s.baseURL + "/v1/crowds?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, false, &LookupError{DestinationID: destinationID, Date: date, Reason: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, false, &LookupError{DestinationID: destinationID, Date: date, Reason: "request failed", Err: err}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			s.logger.Debug("failed to close crowd response body",
				zap.String("op", "crowd.HTTPSource.CrowdLevel"),
				zap.Error(closeErr),
			)
		}
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return 0, false, nil
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, false, &LookupError{
			DestinationID: destinationID,
			Date:          date,
			Reason:        fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var payload crowdResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, false, &LookupError{DestinationID: destinationID, Date: date, Reason: "decode response", Err: err}
	}
	if payload.CrowdLevel == nil {
		return 0, false, nil
	}
	return *payload.CrowdLevel, true, nil
}
