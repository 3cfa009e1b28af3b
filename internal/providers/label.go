package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"interactions-backend/internal/apperr"
	"interactions-backend/internal/httpclient"
	"interactions-backend/internal/providers/label"
)

// LabelTimeout, LabelMaxRetries and LabelBackoffBase are label_warnings'
// per-provider deadline and retry policy from spec §6 — the only
// retryable provider.
const (
	LabelTimeout       = 8 * time.Second
	LabelMaxRetries    = 2
	LabelBackoffBase   = 500 * time.Millisecond
)

// LabelRecord is the accepted, post-filtered result of a label_warnings
// call.
type LabelRecord struct {
	Warnings    []string
	ProductName string
	Identifier  string
}

// Label wraps the label_warnings adapter: a four-tier query strategy
// (identifier exact match, generic exact-phrase, brand exact-phrase, broad
// fallback with post-filter) plus the primary-ingredient matcher from
// internal/providers/label.
type Label struct {
	baseURL  string
	httpDoer *http.Client
	cli      *httpclient.Client
	matcher  *label.Matcher
}

// NewLabel builds the adapter. matcher may be nil to use the default
// NSAID block-list policy.
func NewLabel(baseURL string, httpDoer *http.Client, matcher *label.Matcher) *Label {
	if matcher == nil {
		matcher = label.NewMatcher(nil)
	}
	return &Label{
		baseURL:  baseURL,
		httpDoer: httpDoer,
		cli: httpclient.New("label_warnings", LabelTimeout,
			httpclient.RetryPolicy{MaxRetries: LabelMaxRetries, BackoffBase: LabelBackoffBase},
			httpclient.DefaultBreakerConfig("label_warnings")),
		matcher: matcher,
	}
}

// Fetch runs the tiered query strategy for canonicalName, optionally
// seeded with a known authority identifier. Returns data=nil, err=nil when
// every candidate is filtered out or none is found — the normalized
// "looked, found nothing" case.
func (l *Label) Fetch(ctx context.Context, canonicalName string, identifier string) (*LabelRecord, error) {
	res, err := l.cli.Do(ctx, func(ctx context.Context) (any, error) {
		candidates, err := l.queryTiered(ctx, canonicalName, identifier)
		if err != nil {
			return nil, err
		}
		for _, c := range candidates {
			if !l.matcher.Accept(c, canonicalName) {
				continue
			}
			filtered := l.matcher.FilterWarnings(c.Warnings, canonicalName)
			if len(filtered) == 0 {
				continue
			}
			return &LabelRecord{Warnings: filtered, ProductName: c.GenericName, Identifier: c.Identifier}, nil
		}
		return (*LabelRecord)(nil), nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*LabelRecord), nil
}

// queryTiered runs tiers 1-4 in order, returning as soon as a tier yields
// any candidates (the post-filter in Fetch decides acceptance).
func (l *Label) queryTiered(ctx context.Context, canonicalName, identifier string) ([]label.Candidate, error) {
	if identifier != "" {
		if cands, err := l.queryByIdentifier(ctx, identifier); err != nil {
			return nil, err
		} else if len(cands) > 0 {
			return cands, nil
		}
	}
	if cands, err := l.queryExactPhrase(ctx, "generic_name", canonicalName); err != nil {
		return nil, err
	} else if len(cands) > 0 {
		return cands, nil
	}
	if cands, err := l.queryExactPhrase(ctx, "brand_name", canonicalName); err != nil {
		return nil, err
	} else if len(cands) > 0 {
		return cands, nil
	}
	return l.queryBroad(ctx, canonicalName)
}

func (l *Label) queryByIdentifier(ctx context.Context, identifier string) ([]label.Candidate, error) {
	return l.search(ctx, fmt.Sprintf("%s/label?identifier=%s", l.baseURL, url.QueryEscape(identifier)))
}

func (l *Label) queryExactPhrase(ctx context.Context, field, value string) ([]label.Candidate, error) {
	return l.search(ctx, fmt.Sprintf("%s/label?%s.exact=%s", l.baseURL, field, url.QueryEscape(value)))
}

func (l *Label) queryBroad(ctx context.Context, value string) ([]label.Candidate, error) {
	return l.search(ctx, fmt.Sprintf("%s/label?q=%s", l.baseURL, url.QueryEscape(value)))
}

func (l *Label) search(ctx context.Context, queryURL string) ([]label.Candidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return nil, apperr.Internal("REQUEST_BUILD", err.Error()).WithCause(err).Build()
	}
	resp, err := l.httpDoer.Do(req)
	if err != nil {
		return nil, apperr.Timeout("LABEL_REQUEST_FAILED", err.Error()).WithRetryable(true).WithCause(err).Build()
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Transport("LABEL_STATUS", fmt.Sprintf("unexpected status %d", resp.StatusCode)).
			WithRetryable(resp.StatusCode >= 500).Build()
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Parse("LABEL_BODY", err.Error()).WithCause(err).Build()
	}

	var parsed struct {
		Results []struct {
			Identifier  string   `json:"identifier"`
			GenericName string   `json:"genericName"`
			BrandName   string   `json:"brandName"`
			Warnings    []string `json:"warnings"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, apperr.Parse("LABEL_PARSE", err.Error()).WithCause(err).Build()
	}

	candidates := make([]label.Candidate, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		candidates = append(candidates, label.Candidate{
			Identifier:  r.Identifier,
			GenericName: r.GenericName,
			BrandName:   r.BrandName,
			Warnings:    r.Warnings,
		})
	}
	return candidates, nil
}
