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

// LiteratureTimeout is the per-provider deadline from spec §6. It is the
// longest of the six providers, reflecting that it fronts a language-model
// summarization step rather than a simple lookup.
const LiteratureTimeout = 30 * time.Second

// LiteratureEvidence is the single standardized record literature_ai
// returns, already shaped close to an EvidenceRecord because the upstream
// bundle is itself a single synthesized judgment, not raw counts.
type LiteratureEvidence struct {
	Severity   string
	Summary    string
	Citations  []string
}

// Literature wraps the literature_ai adapter, gated on an API key.
type Literature struct {
	baseURL  string
	apiKey   string
	httpDoer *http.Client
	cli      *httpclient.Client
}

// NewLiterature builds the adapter. An empty apiKey deterministically
// disables it (spec §6).
func NewLiterature(baseURL, apiKey string, httpDoer *http.Client) *Literature {
	return &Literature{
		baseURL:  baseURL,
		apiKey:   apiKey,
		httpDoer: httpDoer,
		cli:      httpclient.New("literature_ai", LiteratureTimeout, httpclient.RetryPolicy{}, httpclient.DefaultBreakerConfig("literature_ai")),
	}
}

// Enabled reports whether the literature_ai credential is configured.
func (l *Literature) Enabled() bool { return l.apiKey != "" }

// Evaluate requests a literature-derived judgment for a named pair.
// When Enabled() is false it returns a missing_credential error without
// calling upstream; the orchestrator checks Enabled() first and does not
// call Evaluate for a disabled provider.
// data=null with a nil error is the normalized "no summary" case.
func (l *Literature) Evaluate(ctx context.Context, nameA, nameB string) (*LiteratureEvidence, error) {
	if !l.Enabled() {
		return nil, apperr.MissingCredential("LITERATURE_API_KEY_MISSING", "literature API key not configured").Build()
	}
	res, err := l.cli.Do(ctx, func(ctx context.Context) (any, error) {
		url := fmt.Sprintf("%s/evaluate?a=%s&b=%s", l.baseURL, nameA, nameB)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, apperr.Internal("REQUEST_BUILD", err.Error()).WithCause(err).Build()
		}
		req.Header.Set("Authorization", "Bearer "+l.apiKey)
		resp, err := l.httpDoer.Do(req)
		if err != nil {
			return nil, apperr.Timeout("LITERATURE_REQUEST_FAILED", err.Error()).WithCause(err).Build()
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, apperr.Transport("LITERATURE_STATUS", fmt.Sprintf("unexpected status %d", resp.StatusCode)).
				WithRetryable(resp.StatusCode >= 500).Build()
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, apperr.Parse("LITERATURE_BODY", err.Error()).WithCause(err).Build()
		}

		var parsed struct {
			Severity  string   `json:"severity"`
			Summary   string   `json:"summary"`
			Citations []string `json:"citations"`
		}
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, apperr.Parse("LITERATURE_PARSE", err.Error()).WithCause(err).Build()
		}
		if parsed.Summary == "" {
			return (*LiteratureEvidence)(nil), nil
		}
		return &LiteratureEvidence{Severity: parsed.Severity, Summary: parsed.Summary, Citations: parsed.Citations}, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*LiteratureEvidence), nil
}
