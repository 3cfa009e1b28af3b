package providers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interactions-backend/internal/apperr"
	"interactions-backend/internal/providers"
)

func TestRxNormLookupReturnsIdentifierOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"idGroup":{"rxnormId":["11289"]}}`))
	}))
	defer srv.Close()

	rx := providers.NewRxNorm(srv.URL, srv.Client())
	id, err := rx.Lookup(context.Background(), "warfarin")

	require.NoError(t, err)
	assert.Equal(t, "11289", id)
}

func TestRxNormLookupEmptyIdGroupIsNormalizedNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"idGroup":{"rxnormId":[]}}`))
	}))
	defer srv.Close()

	rx := providers.NewRxNorm(srv.URL, srv.Client())
	id, err := rx.Lookup(context.Background(), "not-a-drug")

	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestRxNormLookupSurfacesTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	rx := providers.NewRxNorm(srv.URL, srv.Client())
	_, err := rx.Lookup(context.Background(), "warfarin")

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindTransportError))
}

func TestRxNormInteractionsFindsOtherIdentifierInGraph(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"interactionTypeGroup": [{
				"sourceDisclaimer": "DrugBank",
				"interactionType": [{
					"interactionPair": [{
						"severity": "severe",
						"description": "warfarin potentiates bleeding risk with ibuprofen",
						"interactionConcept": [
							{"minConceptItem": {"rxcui": "11289"}},
							{"minConceptItem": {"rxcui": "5640"}}
						]
					}]
				}]
			}]
		}`))
	}))
	defer srv.Close()

	rx := providers.NewRxNorm(srv.URL, srv.Client())
	res, err := rx.Interactions(context.Background(), "11289", "5640")

	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "severe", res.Severity)
	assert.Equal(t, "DrugBank", res.Source)
}

func TestRxNormInteractionsOtherIdentifierAbsentIsNormalizedNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"interactionTypeGroup": [{
				"sourceDisclaimer": "DrugBank",
				"interactionType": [{
					"interactionPair": [{
						"severity": "severe",
						"description": "unrelated pair",
						"interactionConcept": [
							{"minConceptItem": {"rxcui": "11289"}},
							{"minConceptItem": {"rxcui": "9999"}}
						]
					}]
				}]
			}]
		}`))
	}))
	defer srv.Close()

	rx := providers.NewRxNorm(srv.URL, srv.Client())
	res, err := rx.Interactions(context.Background(), "11289", "5640")

	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestRxNormInteractionsDeprecated404IsNormalizedNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	rx := providers.NewRxNorm(srv.URL, srv.Client())
	res, err := rx.Interactions(context.Background(), "11289", "5640")

	require.NoError(t, err)
	assert.Nil(t, res)
}
