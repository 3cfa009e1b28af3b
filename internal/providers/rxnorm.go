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

// InteractionResult is the success shape of rxnorm_interactions, and is
// reused (after standardization) by the other interaction-flavored
// providers for their analogous fields.
type InteractionResult struct {
	Severity    string
	Description string
	Source      string
}

// RxNormLookupTimeout/RxNormInteractionsTimeout are the per-provider deadlines
// from spec §6.
const (
	RxNormLookupTimeout       = 6 * time.Second
	RxNormInteractionsTimeout = 10 * time.Second
)

// RxNorm wraps the two RxNorm-authority adapters: identifier lookup and
// pairwise interaction lookup (the single-RxCUI probe strategy the spec's
// open question prefers, see SPEC_FULL.md §9).
type RxNorm struct {
	baseURL    string
	httpDoer   *http.Client
	lookupCli  *httpclient.Client
	interCli   *httpclient.Client
}

// NewRxNorm builds the RxNorm adapter against baseURL (the RxNorm REST
// API root, e.g. "https://rxnav.nlm.nih.gov/REST").
func NewRxNorm(baseURL string, httpDoer *http.Client) *RxNorm {
	return &RxNorm{
		baseURL:   baseURL,
		httpDoer:  httpDoer,
		lookupCli: httpclient.New("rxnorm_lookup", RxNormLookupTimeout, httpclient.RetryPolicy{}, httpclient.DefaultBreakerConfig("rxnorm_lookup")),
		interCli:  httpclient.New("rxnorm_interactions", RxNormInteractionsTimeout, httpclient.RetryPolicy{}, httpclient.DefaultBreakerConfig("rxnorm_interactions")),
	}
}

// Lookup resolves a canonical drug name to an opaque RxCUI identifier.
// An empty identifier with a nil error is the normalized not-found case —
// a lookup provider's debug status is "ok=false" for this shape, distinct
// from a transport or parse error.
func (r *RxNorm) Lookup(ctx context.Context, canonicalName string) (string, error) {
	res, err := r.lookupCli.Do(ctx, func(ctx context.Context) (any, error) {
		url := fmt.Sprintf("%s/rxcui.json?name=%s", r.baseURL, canonicalName)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, apperr.Internal("REQUEST_BUILD", err.Error()).WithCause(err).Build()
		}
		resp, err := r.httpDoer.Do(req)
		if err != nil {
			return nil, apperr.Timeout("RXNORM_LOOKUP_FAILED", err.Error()).WithCause(err).Build()
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, apperr.Transport("RXNORM_LOOKUP_STATUS", fmt.Sprintf("unexpected status %d", resp.StatusCode)).
				WithRetryable(resp.StatusCode >= 500).Build()
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, apperr.Parse("RXNORM_LOOKUP_BODY", err.Error()).WithCause(err).Build()
		}

		var parsed struct {
			IdGroup struct {
				RxnormId []string `json:"rxnormId"`
			} `json:"idGroup"`
		}
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, apperr.Parse("RXNORM_LOOKUP_PARSE", err.Error()).WithCause(err).Build()
		}
		if len(parsed.IdGroup.RxnormId) == 0 {
			return "", nil
		}
		return parsed.IdGroup.RxnormId[0], nil
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

// Interactions probes whether idB appears in idA's interaction graph,
// using the single-RxCUI probe strategy. A 404 from the deprecated
// interaction endpoint is normalized to "not found" rather than surfaced
// as a transport error, per spec §4.4.
func (r *RxNorm) Interactions(ctx context.Context, idA, idB string) (*InteractionResult, error) {
	res, err := r.interCli.Do(ctx, func(ctx context.Context) (any, error) {
		url := fmt.Sprintf("%s/interaction/interaction.json?rxcui=%s", r.baseURL, idA)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, apperr.Internal("REQUEST_BUILD", err.Error()).WithCause(err).Build()
		}
		resp, err := r.httpDoer.Do(req)
		if err != nil {
			return nil, apperr.Timeout("RXNORM_INTERACTIONS_FAILED", err.Error()).WithCause(err).Build()
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			// Deprecated-upstream 404 is a normalized not-found, not an error.
			return (*InteractionResult)(nil), nil
		}
		if resp.StatusCode != http.StatusOK {
			return nil, apperr.Transport("RXNORM_INTERACTIONS_STATUS", fmt.Sprintf("unexpected status %d", resp.StatusCode)).
				WithRetryable(resp.StatusCode >= 500).Build()
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, apperr.Parse("RXNORM_INTERACTIONS_BODY", err.Error()).WithCause(err).Build()
		}

		var parsed rxnormInteractionResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, apperr.Parse("RXNORM_INTERACTIONS_PARSE", err.Error()).WithCause(err).Build()
		}

		for _, group := range parsed.InteractionTypeGroup {
			for _, itype := range group.InteractionType {
				for _, pair := range itype.InteractionPair {
					if pairContainsRxcui(pair, idB) {
						return &InteractionResult{
							Severity:    pair.Severity,
							Description: pair.Description,
							Source:      group.SourceDisclaimer,
						}, nil
					}
				}
			}
		}
		return (*InteractionResult)(nil), nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*InteractionResult), nil
}

type rxnormInteractionResponse struct {
	InteractionTypeGroup []struct {
		SourceDisclaimer string `json:"sourceDisclaimer"`
		InteractionType  []struct {
			InteractionPair []rxnormInteractionPair `json:"interactionPair"`
		} `json:"interactionType"`
	} `json:"interactionTypeGroup"`
}

type rxnormInteractionPair struct {
	Severity       string `json:"severity"`
	Description    string `json:"description"`
	InteractionConcept []struct {
		MinConceptItem struct {
			Rxcui string `json:"rxcui"`
		} `json:"minConceptItem"`
	} `json:"interactionConcept"`
}

func pairContainsRxcui(pair rxnormInteractionPair, rxcui string) bool {
	for _, c := range pair.InteractionConcept {
		if c.MinConceptItem.Rxcui == rxcui {
			return true
		}
	}
	return false
}
