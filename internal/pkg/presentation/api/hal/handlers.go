package hal

import (
	"context"
	"io"
	"net/http"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hypermedia-labs/halstore/internal/pkg/presentation/api/hal/auth"
	"github.com/hypermedia-labs/halstore/pkg/hal/errors"
	"go.opentelemetry.io/otel/trace"
)

// Fixtures maps request paths to the HAL+JSON bodies served for them.
type Fixtures map[string][]byte

// RegisterHandlers wires a fixture backed HAL resource server onto the
// router. A nil policies reader disables authorization.
func RegisterHandlers(ctx context.Context, r *chi.Mux, policies io.Reader, fixtures Fixtures) error {

	var authenticator auth.Enticator
	if policies != nil {
		var err error
		authenticator, err = auth.NewAuthenticator(ctx, policies)
		if err != nil {
			return err
		}
	}

	r.Get("/*", NewRetrieveResourceHandler(fixtures, authenticator))
	r.Post("/*", NewCreateResourceHandler(authenticator))

	return nil
}

func NewRetrieveResourceHandler(fixtures Fixtures, authenticator auth.Enticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		traceID := extractTraceID(ctx)

		if authenticator != nil {
			if err := authenticator.CheckAccess(ctx, r); err != nil {
				errors.ReportUnauthorizedRequest(w, "access denied", traceID)
				return
			}
		}

		body, ok := fixtures[r.URL.Path]
		if !ok {
			log := logging.GetFromContext(ctx)
			log.Debug("no such resource", "path", r.URL.Path)

			errors.ReportNotFoundError(w, "no resource at "+r.URL.Path, traceID)
			return
		}

		w.Header().Add("Content-Type", "application/hal+json")
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	}
}

func NewCreateResourceHandler(authenticator auth.Enticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		traceID := extractTraceID(ctx)

		if authenticator != nil {
			if err := authenticator.CheckAccess(ctx, r); err != nil {
				errors.ReportUnauthorizedRequest(w, "access denied", traceID)
				return
			}
		}

		_, err := io.ReadAll(r.Body)
		if err != nil {
			errors.ReportNewBadRequest(w, "failed to read request body", traceID)
			return
		}

		location := r.URL.Path + "/" + uuid.NewString()

		w.Header().Add("Location", location)
		w.WriteHeader(http.StatusCreated)
	}
}

func extractTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		return span.SpanContext().TraceID().String()
	}

	return ""
}
