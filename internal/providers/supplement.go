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

// SupplementTimeout is the per-provider deadline from spec §6.
const SupplementTimeout = 10 * time.Second

// SupplementInteraction is one entry of a supplement_interactions result.
type SupplementInteraction struct {
	Severity    string
	Description string
}

// Supplement wraps the supplement_lookup and supplement_interactions
// adapters, both gated on an API key (spec §4.4: missing_credential when
// absent).
type Supplement struct {
	baseURL  string
	apiKey   string
	httpDoer *http.Client
	lookupCli *httpclient.Client
	interCli  *httpclient.Client
}

// NewSupplement builds the adapter. An empty apiKey deterministically
// disables both calls (spec §6: "unset optional credentials
// deterministically disable their provider").
func NewSupplement(baseURL, apiKey string, httpDoer *http.Client) *Supplement {
	return &Supplement{
		baseURL:   baseURL,
		apiKey:    apiKey,
		httpDoer:  httpDoer,
		lookupCli: httpclient.New("supplement_lookup", SupplementTimeout, httpclient.RetryPolicy{}, httpclient.DefaultBreakerConfig("supplement_lookup")),
		interCli:  httpclient.New("supplement_interactions", SupplementTimeout, httpclient.RetryPolicy{}, httpclient.DefaultBreakerConfig("supplement_interactions")),
	}
}

// Enabled reports whether the credential required for both supplement
// calls is configured.
func (s *Supplement) Enabled() bool { return s.apiKey != "" }

// Lookup resolves a canonical supplement name to an opaque identifier.
func (s *Supplement) Lookup(ctx context.Context, canonicalName string) (string, error) {
	if !s.Enabled() {
		return "", apperr.MissingCredential("SUPPLEMENT_API_KEY_MISSING", "supplement API key not configured").Build()
	}
	res, err := s.lookupCli.Do(ctx, func(ctx context.Context) (any, error) {
		url := fmt.Sprintf("%s/lookup?name=%s", s.baseURL, canonicalName)
		return s.getJSON(ctx, url, func(body []byte) (any, error) {
			var parsed struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(body, &parsed); err != nil {
				return nil, apperr.Parse("SUPPLEMENT_LOOKUP_PARSE", err.Error()).WithCause(err).Build()
			}
			if parsed.ID == "" {
				return "", nil
			}
			return parsed.ID, nil
		})
	})
	if err != nil {
		return "", err
	}
	if res == nil {
		return "", nil
	}
	return res.(string), nil
}

// Interactions fetches known interactions for one or two supplement
// names/identifiers; data=null (nil slice, nil error) is the normalized
// not-found case.
func (s *Supplement) Interactions(ctx context.Context, canonicalNames []string, ids []string) ([]SupplementInteraction, error) {
	if !s.Enabled() {
		return nil, apperr.MissingCredential("SUPPLEMENT_API_KEY_MISSING", "supplement API key not configured").Build()
	}
	res, err := s.interCli.Do(ctx, func(ctx context.Context) (any, error) {
		url := fmt.Sprintf("%s/interactions?names=%s", s.baseURL, joinQuery(canonicalNames))
		return s.getJSON(ctx, url, func(body []byte) (any, error) {
			var parsed struct {
				Interactions []SupplementInteraction `json:"interactions"`
			}
			if err := json.Unmarshal(body, &parsed); err != nil {
				return nil, apperr.Parse("SUPPLEMENT_INTERACTIONS_PARSE", err.Error()).WithCause(err).Build()
			}
			if len(parsed.Interactions) == 0 {
				return []SupplementInteraction(nil), nil
			}
			return parsed.Interactions, nil
		})
	})
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}
	return res.([]SupplementInteraction), nil
}

func (s *Supplement) getJSON(ctx context.Context, url string, decode func([]byte) (any, error)) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperr.Internal("REQUEST_BUILD", err.Error()).WithCause(err).Build()
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	resp, err := s.httpDoer.Do(req)
	if err != nil {
		return nil, apperr.Timeout("SUPPLEMENT_REQUEST_FAILED", err.Error()).WithCause(err).Build()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Transport("SUPPLEMENT_STATUS", fmt.Sprintf("unexpected status %d", resp.StatusCode)).
			WithRetryable(resp.StatusCode >= 500).Build()
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Parse("SUPPLEMENT_BODY", err.Error()).WithCause(err).Build()
	}
	return decode(body)
}

func joinQuery(values []string) string {
	out := ""
	for i, v := range values {
		if i > 0 {
			out += ","
		}
		out += v
	}
	return out
}
