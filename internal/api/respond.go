// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/murmur/internal/logging"
	"github.com/tomtom215/murmur/internal/models"
	"github.com/tomtom215/murmur/internal/validation"
)

// maxBodyBytes bounds request bodies; the largest valid draft is well under.
const maxBodyBytes = 1 << 20

// Error codes for failures that happen before the core is reached.
const (
	codeAuthentication   = "AUTHENTICATION_ERROR"
	codeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	codeRouteNotFound    = "ROUTE_NOT_FOUND"
)

// sanitizeLogValue escapes control characters so client input cannot forge
// log lines.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// respondJSON writes the envelope.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func metadataFor(r *http.Request, start time.Time) models.Metadata {
	md := models.Metadata{Timestamp: time.Now().UTC()}
	if r != nil {
		md.RequestID = logging.RequestIDFromContext(r.Context())
	}
	if !start.IsZero() {
		md.QueryTimeMS = time.Since(start).Milliseconds()
	}
	return md
}

// respondSuccess writes a success envelope around data.
func respondSuccess(w http.ResponseWriter, r *http.Request, status int, data interface{}, start time.Time) {
	respondJSON(w, status, &models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: metadataFor(r, start),
	})
}

// respondError writes an error envelope. err is logged, never returned to
// the client.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	respondErrorDetails(w, r, status, code, message, nil, err)
}

func respondErrorDetails(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]interface{}, err error) {
	if err != nil {
		logger := logging.Logger()
		if r != nil {
			logger = *logging.Ctx(r.Context())
		}
		event := logger.Warn()
		if status >= http.StatusInternalServerError {
			event = logger.Error()
		}
		event.Str("code", code).Int("status", status).Str("error", sanitizeLogValue(err.Error())).Msg("API error")
	}

	respondJSON(w, status, &models.APIResponse{
		Status:   "error",
		Metadata: metadataFor(r, time.Time{}),
		Error: &models.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// statusForKind maps an error kind to its HTTP status.
func statusForKind(kind models.ErrorKind) int {
	switch kind {
	case models.KindValidation:
		return http.StatusBadRequest
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindConflict:
		return http.StatusConflict
	case models.KindForbidden:
		return http.StatusForbidden
	case models.KindTimeout:
		return http.StatusGatewayTimeout
	case models.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondModelError renders a core error by kind. Only tagged errors expose
// their reason; anything else is reported as a generic internal error.
func respondModelError(w http.ResponseWriter, r *http.Request, err error) {
	kind := models.KindOf(err)
	message := models.ErrInternal.Reason()

	var e *models.Error
	if errors.As(err, &e) {
		message = e.Reason()
	} else if kind != models.KindInternal {
		message = (&models.Error{Kind: kind}).Reason()
	}

	respondError(w, r, statusForKind(kind), kind.Code(), message, err)
}

// respondValidation renders per-field validation failures.
func respondValidation(w http.ResponseWriter, r *http.Request, verr *validation.RequestValidationError) {
	respondErrorDetails(w, r, http.StatusBadRequest, models.KindValidation.Code(), verr.Error(), verr.Details(), nil)
}

// decodeJSON reads one JSON object from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return models.Invalid("api.decode", "request body is too large or unreadable")
	}
	if len(body) == 0 {
		return models.Invalid("api.decode", "request body is required")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return models.Invalid("api.decode", "request body is not valid JSON")
	}
	return nil
}

// getIntParam reads a positive integer query parameter. An absent
// parameter yields def; anything else that is not a positive integer is a
// validation error.
func getIntParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, models.Invalid("api.query", name+" must be a positive integer")
	}
	return v, nil
}
