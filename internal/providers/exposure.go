package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"interactions-backend/internal/apperr"
	"interactions-backend/internal/httpclient"
)

// ExposureTimeout is the per-provider deadline from spec §6.
const ExposureTimeout = 4 * time.Second

// ExposureData is the beneficiary-count/denominator bundle used to
// contextualize adverse-event counts. It is always approximate and is
// never fabricated when unavailable (spec §9's denominator semantics).
type ExposureData struct {
	Beneficiaries int
	Year          int
	SourceMeta    map[string]any
}

// Exposure wraps the exposure adapter, an external claims/enrollment
// dataset keyed by normalized item name.
type Exposure struct {
	baseURL  string
	httpDoer *http.Client
	cli      *httpclient.Client
}

// NewExposure builds the adapter against baseURL.
func NewExposure(baseURL string, httpDoer *http.Client) *Exposure {
	return &Exposure{
		baseURL:  baseURL,
		httpDoer: httpDoer,
		cli:      httpclient.New("exposure", ExposureTimeout, httpclient.RetryPolicy{}, httpclient.DefaultBreakerConfig("exposure")),
	}
}

// Fetch retrieves the beneficiary-count denominator for canonicalName.
// data=null is the normalized not-found case: no denominator is known.
func (e *Exposure) Fetch(ctx context.Context, canonicalName string) (*ExposureData, error) {
	res, err := e.cli.Do(ctx, func(ctx context.Context) (any, error) {
		url := fmt.Sprintf("%s/exposure?name=%s", e.baseURL, canonicalName)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, apperr.Internal("REQUEST_BUILD", err.Error()).WithCause(err).Build()
		}
		resp, err := e.httpDoer.Do(req)
		if err != nil {
			return nil, apperr.Timeout("EXPOSURE_REQUEST_FAILED", err.Error()).WithCause(err).Build()
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return (*ExposureData)(nil), nil
		}
		if resp.StatusCode != http.StatusOK {
			return nil, apperr.Transport("EXPOSURE_STATUS", fmt.Sprintf("unexpected status %d", resp.StatusCode)).
				WithRetryable(resp.StatusCode >= 500).Build()
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, apperr.Parse("EXPOSURE_BODY", err.Error()).WithCause(err).Build()
		}

		var parsed struct {
			Beneficiaries int            `json:"beneficiaries"`
			Year          int            `json:"year"`
			SourceMeta    map[string]any `json:"sourceMeta"`
		}
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, apperr.Parse("EXPOSURE_PARSE", err.Error()).WithCause(err).Build()
		}
		if parsed.Beneficiaries <= 0 {
			return (*ExposureData)(nil), nil
		}
		return &ExposureData{Beneficiaries: parsed.Beneficiaries, Year: parsed.Year, SourceMeta: parsed.SourceMeta}, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*ExposureData), nil
}
