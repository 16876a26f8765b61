package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"marketplace/internal/domain/access"
	"marketplace/internal/domain/lifecycle"
	"marketplace/internal/domain/validation"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 1 << 20

type errorsResponse struct {
	Errors []validation.FieldError `json:"errors"`
}

type messageResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// writeError maps a service error onto its status code. Internal failures
// are logged and answered with a generic body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorsResponse{Errors: verr.Fields})
	case errors.Is(err, access.ErrRequiresAuthentication):
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeJSON(w, http.StatusUnauthorized, messageResponse{Error: "Authentication required"})
	case errors.Is(err, access.ErrForbidden):
		writeJSON(w, http.StatusForbidden, messageResponse{Error: "Forbidden"})
	case errors.Is(err, lifecycle.ErrNotFound):
		writeJSON(w, http.StatusNotFound, messageResponse{Error: capitalize(err.Error())})
	default:
		log.Printf("Error handling %s %s: %v", r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, messageResponse{Error: "Internal server error"})
	}
}

func writeNotFound(w http.ResponseWriter, what string) {
	writeJSON(w, http.StatusNotFound, messageResponse{Error: capitalize(what) + " not found"})
}

// decodeJSON reads the request body into v. A body that is not valid JSON
// for v is reported as a validation error on the body itself.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return malformedBody(err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return malformedBody(errors.New("unexpected data after JSON value"))
	}
	return nil
}

func malformedBody(err error) error {
	msg := "request body must be valid JSON"
	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF):
		msg = "request body is required"
	case errors.As(err, &typeErr) && typeErr.Field != "":
		msg = fmt.Sprintf("%s has the wrong type", typeErr.Field)
	case errors.As(err, &maxErr):
		msg = fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit)
	}
	return validation.Invalid("", "body", validation.ReasonInvalid, msg)
}

// pathID parses the {id} wildcard. Ids that cannot name a record are
// reported false so the caller answers 404.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

// bodyError orders a body that could not be decoded behind the session and
// role checks, so an anonymous caller learns 401 before 400.
func bodyError(caller *access.Caller, required access.Privilege, err error) error {
	if required == access.RequireOwner {
		required = access.RequireAuthenticated
	}
	if authErr := access.Authorize(caller, 0, required).Err(); authErr != nil {
		return authErr
	}
	return err
}
