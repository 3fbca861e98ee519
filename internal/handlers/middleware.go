package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
)

const (
	maxQueryLength    = 10000
	maxDatastarLength = 8192
)

// allowedStreamParams lists the query parameters the scoreboard stream accepts.
var allowedStreamParams = map[string]bool{
	"datastar": true, // sent by datastar with the client signals
}

// allowedSignals lists the signal names the scoreboard page defines.
var allowedSignals = map[string]bool{
	"theme":    true,
	"showFeed": true,
	"qrOpen":   true,
}

// ValidateStreamRequest rejects stream requests carrying unexpected query
// parameters or signals.
func ValidateStreamRequest(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(r.URL.RawQuery) > maxQueryLength {
			http.Error(w, "Query string too large", http.StatusRequestURITooLong)
			return
		}

		params, err := url.ParseQuery(r.URL.RawQuery)
		if err != nil {
			http.Error(w, "Invalid query parameters", http.StatusBadRequest)
			return
		}

		for key, values := range params {
			if !allowedStreamParams[key] {
				http.Error(w, "Invalid parameter", http.StatusBadRequest)
				return
			}

			if key != "datastar" {
				continue
			}
			if len(values) != 1 {
				http.Error(w, "Invalid datastar parameter", http.StatusBadRequest)
				return
			}
			if len(values[0]) > maxDatastarLength {
				http.Error(w, "Datastar state too large", http.StatusBadRequest)
				return
			}
			if values[0] == "" {
				continue
			}

			var signals map[string]any
			if err := json.Unmarshal([]byte(values[0]), &signals); err != nil {
				http.Error(w, "Invalid datastar JSON", http.StatusBadRequest)
				return
			}
			for name := range signals {
				if !allowedSignals[name] {
					http.Error(w, "Invalid signal in datastar", http.StatusBadRequest)
					return
				}
			}
		}

		next(w, r)
	}
}
