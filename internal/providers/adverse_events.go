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

// AdverseEventsTimeout is the per-provider deadline from spec §6 for both
// pair_adverse_events and single_drug_adverse_events.
const AdverseEventsTimeout = 10 * time.Second

// AdverseEventCounts is the raw shape returned by both adverse-event
// adapters.
type AdverseEventCounts struct {
	TotalEvents   int            `json:"totalEvents"`
	SeriousEvents int            `json:"seriousEvents"`
	Outcomes      map[string]int `json:"outcomes,omitempty"`
}

// AdverseEvents wraps the pair_adverse_events and single_drug_adverse_events
// adapters, which share an upstream and payload shape but differ in query
// construction (one or two subject names).
type AdverseEvents struct {
	baseURL  string
	httpDoer *http.Client
	pairCli   *httpclient.Client
	singleCli *httpclient.Client
}

// NewAdverseEvents builds the adapter against baseURL (an FDA FAERS-style
// adverse event search API root).
func NewAdverseEvents(baseURL string, httpDoer *http.Client) *AdverseEvents {
	return &AdverseEvents{
		baseURL:   baseURL,
		httpDoer:  httpDoer,
		pairCli:   httpclient.New("pair_adverse_events", AdverseEventsTimeout, httpclient.RetryPolicy{}, httpclient.DefaultBreakerConfig("pair_adverse_events")),
		singleCli: httpclient.New("single_drug_adverse_events", AdverseEventsTimeout, httpclient.RetryPolicy{}, httpclient.DefaultBreakerConfig("single_drug_adverse_events")),
	}
}

// Pair fetches co-reported adverse event counts for two drugs/supplements.
// data=null is the normalized not-found case.
func (a *AdverseEvents) Pair(ctx context.Context, nameA, nameB string) (*AdverseEventCounts, error) {
	res, err := a.pairCli.Do(ctx, func(ctx context.Context) (any, error) {
		url := fmt.Sprintf("%s/search?drugs=%s,%s", a.baseURL, nameA, nameB)
		return a.fetch(ctx, url)
	})
	return asCounts(res, err)
}

// Single fetches adverse event counts reported for a single drug/supplement.
func (a *AdverseEvents) Single(ctx context.Context, name string) (*AdverseEventCounts, error) {
	res, err := a.singleCli.Do(ctx, func(ctx context.Context) (any, error) {
		url := fmt.Sprintf("%s/search?drug=%s", a.baseURL, name)
		return a.fetch(ctx, url)
	})
	return asCounts(res, err)
}

func asCounts(res any, err error) (*AdverseEventCounts, error) {
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}
	return res.(*AdverseEventCounts), nil
}

func (a *AdverseEvents) fetch(ctx context.Context, url string) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperr.Internal("REQUEST_BUILD", err.Error()).WithCause(err).Build()
	}
	resp, err := a.httpDoer.Do(req)
	if err != nil {
		return nil, apperr.Timeout("ADVERSE_EVENTS_REQUEST_FAILED", err.Error()).WithCause(err).Build()
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return (*AdverseEventCounts)(nil), nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Transport("ADVERSE_EVENTS_STATUS", fmt.Sprintf("unexpected status %d", resp.StatusCode)).
			WithRetryable(resp.StatusCode >= 500).Build()
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Parse("ADVERSE_EVENTS_BODY", err.Error()).WithCause(err).Build()
	}

	var counts AdverseEventCounts
	if err := json.Unmarshal(body, &counts); err != nil {
		return nil, apperr.Parse("ADVERSE_EVENTS_PARSE", err.Error()).WithCause(err).Build()
	}
	if counts.TotalEvents == 0 && counts.SeriousEvents == 0 && len(counts.Outcomes) == 0 {
		return (*AdverseEventCounts)(nil), nil
	}
	return &counts, nil
}
