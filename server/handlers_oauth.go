package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jrsteele09/go-authorize-server/internal/metrics"
	"github.com/jrsteele09/go-authorize-server/oauth2"
)

const contentTypeJSON = "application/json"

// Authorize runs the authorization endpoint. Successful requests and errors
// raised once the client is known redirect to the client. Other errors are
// answered directly with a JSON error body.
func (s *Server) Authorize() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		req, err := oauth2.NewRequest(r)
		if err != nil {
			oauthErr := oauth2.AsError(err)
			s.metrics.ObserveAuthorize(start, metrics.OutcomeRejected, string(oauthErr.Code))
			writeJSONError(w, oauthErr, nil)
			return
		}

		res := oauth2.NewResponse()
		_, err = s.auth.Authorize(r.Context(), req, res)
		switch {
		case err == nil:
			s.metrics.ObserveAuthorize(start, metrics.OutcomeIssued, "")
			writeResponse(w, res)
		case res.Location() != "":
			s.metrics.ObserveAuthorize(start, metrics.OutcomeRedirected, string(oauth2.AsError(err).Code))
			writeResponse(w, res)
		default:
			oauthErr := oauth2.AsError(err)
			s.metrics.ObserveAuthorize(start, metrics.OutcomeRejected, string(oauthErr.Code))
			writeJSONError(w, oauthErr, res.Header)
		}
	}
}

// Health reports that the process is serving.
func (s *Server) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentTypeJSON)
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func writeResponse(w http.ResponseWriter, res *oauth2.Response) {
	copyHeader(w.Header(), res.Header)
	w.WriteHeader(res.Status)
}

// writeJSONError writes an OAuth2 error response. header carries any headers
// already set for the response, such as WWW-Authenticate.
func writeJSONError(w http.ResponseWriter, oauthErr *oauth2.Error, header http.Header) {
	copyHeader(w.Header(), header)
	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")
	status := oauthErr.Status
	if status == 0 {
		status = oauthErr.Code.Status()
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             string(oauthErr.Code),
		"error_description": oauthErr.Message,
	})
}

func copyHeader(dst, src http.Header) {
	for name, values := range src {
		dst[name] = append([]string(nil), values...)
	}
}
