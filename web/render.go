package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"syscall"

	"github.com/neighborhq/neighbor/errs"
	"github.com/neighborhq/neighbor/types"
	"github.com/neighborhq/neighbor/validator"
)

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, out any, statusCode int) {
	if out == nil {
		w.WriteHeader(statusCode)
		return
	}

	b, err := json.Marshal(out)
	if err != nil {
		h.respondErr(w, r, fmt.Errorf("marshal response: %w", err))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if _, err := w.Write(b); err != nil && !errors.Is(err, syscall.EPIPE) {
		h.Logger.Error("write response", "req_method", r.Method, "req_url", r.URL.String(), "err", err)
	}
}

func (h *Handler) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := errorToStatusCode(err)
	if statusCode == http.StatusInternalServerError {
		h.Logger.Error("got error", "req_method", r.Method, "req_url", r.URL.String(), "err", err)
	}

	body := map[string]any{"error": maskError(err).Error()}

	var errValidator *validator.Validator
	if errors.As(err, &errValidator) {
		body["fields"] = errValidator.Errors
	}

	h.respond(w, r, body, statusCode)
}

func maskError(err error) error {
	var errValidator *validator.Validator
	var errTypes *errs.Error

	if errors.As(err, &errValidator) || errors.As(err, &errTypes) {
		return err
	}

	return errors.New("an unexpected error occurred")
}

func errorToStatusCode(err error) int {
	var errValidator *validator.Validator
	if errors.As(err, &errValidator) {
		return http.StatusUnprocessableEntity
	}

	var errTypes *errs.Error
	if errors.As(err, &errTypes) {
		switch errTypes.Kind {
		case errs.KindNotFound:
			return http.StatusNotFound
		case errs.KindInvalidArgument:
			return http.StatusUnprocessableEntity
		case errs.KindUnauthenticated:
			return http.StatusUnauthorized
		case errs.KindPermissionDenied, errs.KindBlocked:
			return http.StatusForbidden
		case errs.KindAlreadyExists:
			return http.StatusConflict
		case errs.KindUnavailable:
			return http.StatusServiceUnavailable
		default:
			return http.StatusInternalServerError
		}
	}

	return http.StatusInternalServerError
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errs.NewInvalidArgumentError("Body", "Malformed JSON body")
	}
	return nil
}

// parsePageArgs reads the relay-style pagination query parameters.
func parsePageArgs(r *http.Request) (types.PageArgs, error) {
	var args types.PageArgs
	q := r.URL.Query()

	for _, key := range []string{"first", "last"} {
		if !q.Has(key) {
			continue
		}
		n, err := strconv.ParseUint(q.Get(key), 10, 32)
		if err != nil {
			return args, errs.NewInvalidArgumentError(key, "Must be a positive integer")
		}
		size := uint(n)
		if key == "first" {
			args.First = &size
		} else {
			args.Last = &size
		}
	}

	if q.Has("after") {
		after := q.Get("after")
		args.After = &after
	}
	if q.Has("before") {
		before := q.Get("before")
		args.Before = &before
	}

	return args, nil
}
