package service

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/storerate/rating-client/internal/core/domain"
	"github.com/storerate/rating-client/internal/core/ports"
	"github.com/storerate/rating-client/internal/metrics"
)

// errorEnvelope is the body of every non-2xx response.
type errorEnvelope struct {
	Error string `json:"error"`
}

// messageEnvelope is the body of write acknowledgements.
type messageEnvelope struct {
	Message string `json:"message"`
}

const invalidResponseMessage = "invalid response from server"

// failureFromResponse turns a non-2xx response into a Failure carrying the
// server's message verbatim.
func failureFromResponse(resp *ports.Response) *domain.Failure {
	msg := ""
	var env errorEnvelope
	if err := json.Unmarshal(resp.Body, &env); err == nil {
		msg = strings.TrimSpace(env.Error)
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	if msg == "" {
		msg = "request failed"
	}

	kind := domain.KindRemote
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		kind = domain.KindUnauthenticated
	case http.StatusForbidden:
		kind = domain.KindForbidden
	}
	return &domain.Failure{Kind: kind, Message: msg, StatusCode: resp.StatusCode}
}

// decodeBody decodes a 2xx payload into T.
func decodeBody[T any](resp *ports.Response) (T, *domain.Failure) {
	var v T
	body := bytes.TrimSpace(resp.Body)
	if len(body) == 0 {
		return v, &domain.Failure{Kind: domain.KindRemote, Message: invalidResponseMessage, StatusCode: resp.StatusCode}
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return v, &domain.Failure{Kind: domain.KindRemote, Message: invalidResponseMessage, StatusCode: resp.StatusCode}
	}
	return v, nil
}

// decodeMessage reads the optional "message" of a write acknowledgement.
func decodeMessage(resp *ports.Response) string {
	var env messageEnvelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return ""
	}
	return env.Message
}

// toQuery forwards filters verbatim. Empty filters produce no query.
func toQuery(filters domain.Filters) url.Values {
	if len(filters) == 0 {
		return nil
	}
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	q := make(url.Values, len(filters))
	for _, k := range keys {
		q.Set(k, filters[k])
	}
	return q
}

func outcomeLabel(f *domain.Failure) string {
	if f == nil {
		return metrics.OutcomeSuccess
	}
	switch f.Kind {
	case domain.KindTransport:
		return metrics.OutcomeNetworkFail
	case domain.KindUnauthenticated:
		return metrics.OutcomeUnauth
	case domain.KindForbidden:
		return metrics.OutcomeForbidden
	default:
		return metrics.OutcomeRejected
	}
}

func observe(operation string, f *domain.Failure) {
	metrics.RequestsTotal.WithLabelValues(operation, outcomeLabel(f)).Inc()
}
