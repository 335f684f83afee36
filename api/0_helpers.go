package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/fulldump/box"
	json2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/fulldump/inceptionview/api/apiviewv1"
	"github.com/fulldump/inceptionview/collation"
	"github.com/fulldump/inceptionview/collection"
	"github.com/fulldump/inceptionview/cursor"
	"github.com/fulldump/inceptionview/database"
	"github.com/fulldump/inceptionview/lookup"
	"github.com/fulldump/inceptionview/summary"
)

var ErrUnavailable = errors.New("temporary unavailable")

type PrettyError struct {
	Message     string `json:"message"`
	Description string `json:"description"`
}

type prettyErrorBody struct {
	Error PrettyError `json:"error"`
}

func InterceptorUnavailable(db *database.Database) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {

			status := db.GetStatus()
			if status == database.StatusOpening || status == database.StatusClosing {
				box.SetError(ctx, fmt.Errorf("%w: %s", ErrUnavailable, status))
				return
			}
			next(ctx)
		}
	}
}

// describe maps an error to its HTTP status and a short description.
func describe(ctx context.Context, err error) (int, string) {

	var syntax *jsontext.SyntacticError
	var backend *cursor.BackendError

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "user is not authenticated"
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, "slow down"
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable, "the database is not operating, retry later"
	case errors.Is(err, box.ErrResourceNotFound):
		return http.StatusNotFound, fmt.Sprintf("resource '%s' not found", box.GetRequest(ctx).URL.String())
	case errors.Is(err, box.ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, fmt.Sprintf("method '%s' not allowed", box.GetRequest(ctx).Method)
	case errors.As(err, &syntax):
		return http.StatusBadRequest, "Malformed JSON"
	case errors.Is(err, database.ErrViewNotFound),
		errors.Is(err, apiviewv1.ErrDocumentNotFound),
		lookup.IsNotFound(err):
		return http.StatusNotFound, "not found"
	case errors.Is(err, database.ErrViewAlreadyExists):
		return http.StatusConflict, "already exists"
	case errors.Is(err, cursor.ErrInvalidArgument),
		errors.Is(err, collection.ErrInvalidDefinition),
		errors.Is(err, collection.ErrTooDeep),
		errors.Is(err, collation.ErrOutOfRange),
		errors.Is(err, summary.ErrInvalidKey),
		errors.Is(err, summary.ErrValueTooLong):
		return http.StatusBadRequest, "bad request"
	case errors.Is(err, cursor.ErrUnsupportedForArguments):
		return http.StatusUnprocessableEntity, "not supported for these arguments"
	case errors.Is(err, cursor.ErrTooManyConflicts):
		return http.StatusConflict, "the view kept changing while reading it, retry later"
	case errors.Is(err, cursor.ErrCapabilityUnavailable):
		return http.StatusNotImplemented, "not available for this view"
	case errors.Is(err, cursor.ErrHandleInvalid):
		return http.StatusGone, "the view handle was closed"
	case errors.Is(err, collection.ErrClosed):
		return http.StatusServiceUnavailable, "the view is closed"
	case errors.As(err, &backend):
		return http.StatusBadGateway, fmt.Sprintf("index status %d", backend.Code)
	}

	return http.StatusInternalServerError, "Unexpected error"
}

func PrettyErrorInterceptor(next box.H) box.H {
	return func(ctx context.Context) {

		next(ctx)

		err := box.GetError(ctx)
		if err == nil {
			return
		}
		w := box.GetResponse(ctx)

		status, description := describe(ctx, err)
		w.WriteHeader(status)
		json2.MarshalWrite(w, prettyErrorBody{
			Error: PrettyError{
				Message:     err.Error(),
				Description: description,
			},
		})
	}
}
