package server

import (
	"encoding/json"
	"fmt"
	"html"
	"mime"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	apperrors "github.com/telecare/auth-server/internal/errors"
)

const genericErrorMessage = "internal server error"

type errorBody struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Details []apperrors.FieldError `json:"details,omitempty"`
}

// writeError renders every failure. Internal errors are logged and their
// cause is never sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	body := errorBody{Message: genericErrorMessage}
	kind := apperrors.KindInternal

	var appErr *apperrors.Error
	if apperrors.As(err, &appErr) {
		kind = appErr.Kind
		body.Message = appErr.Message
		body.Details = appErr.Details
	}
	status := kind.HTTPStatus()

	if kind == apperrors.KindInternal {
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
	}

	switch negotiate(r.Header.Get("Accept")) {
	case "text/html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_, _ = fmt.Fprint(w, renderHTMLError(status, body))
	case "text/plain":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		_, _ = fmt.Fprint(w, renderTextError(body))
	default:
		writeJSON(w, status, body)
	}
}

// negotiate picks the first supported media type in Accept order. JSON is
// the default, including for */* and an empty header.
func negotiate(accept string) string {
	for _, part := range strings.Split(accept, ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		switch mediaType {
		case "application/json", "*/*", "application/*":
			return "application/json"
		case "text/html":
			return "text/html"
		case "text/plain":
			return "text/plain"
		}
	}
	return "application/json"
}

func renderTextError(body errorBody) string {
	var b strings.Builder
	b.WriteString(body.Message)
	b.WriteString("\n")
	for _, d := range body.Details {
		fmt.Fprintf(&b, "%s: %s\n", d.Path, d.Message)
	}
	return b.String()
}

func renderHTMLError(status int, body errorBody) string {
	var b strings.Builder
	title := fmt.Sprintf("%d %s", status, http.StatusText(status))
	fmt.Fprintf(&b, "<!DOCTYPE html><html><head><meta charset=\"utf-8\"><title>%s</title></head><body>", title)
	fmt.Fprintf(&b, "<h1>%s</h1><p>%s</p>", title, html.EscapeString(body.Message))
	if len(body.Details) > 0 {
		b.WriteString("<ul>")
		for _, d := range body.Details {
			fmt.Fprintf(&b, "<li><code>%s</code> %s</li>", html.EscapeString(d.Path), html.EscapeString(d.Message))
		}
		b.WriteString("</ul>")
	}
	b.WriteString("</body></html>")
	return b.String()
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
