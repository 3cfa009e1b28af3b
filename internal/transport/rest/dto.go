package rest

// itemRequest is one entry of the request body's items array (spec §6).
type itemRequest struct {
	Value   string `json:"value" validate:"required"`
	Display string `json:"display,omitempty"`
	Type    string `json:"type,omitempty" validate:"omitempty,oneof=drug supplement unknown"`
}

// optionsRequest is the optional per-request behavior toggle set.
type optionsRequest struct {
	IncludeAI    bool `json:"includeAi,omitempty"`
	IncludeCMS   bool `json:"includeCms,omitempty"`
	Debug        bool `json:"debug,omitempty"`
	ForceRefresh bool `json:"forceRefresh,omitempty"`
}

// analyzeRequest is the full decoded body of the one exposed endpoint.
type analyzeRequest struct {
	Items   []itemRequest   `json:"items" validate:"required,min=1,max=10,dive"`
	Options *optionsRequest `json:"options,omitempty"`
}

func (r analyzeRequest) originals() []string {
	values := make([]string, len(r.Items))
	for i, item := range r.Items {
		values[i] = item.Value
	}
	return values
}

// errorResponse is the body returned alongside any non-200 status.
type errorResponse struct {
	Error         string `json:"error"`
	CorrelationID string `json:"correlationId,omitempty"`
}
