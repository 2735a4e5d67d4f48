package halstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"strings"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/hypermedia-labs/halstore/pkg/hal"
	"github.com/hypermedia-labs/halstore/pkg/hal/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	TraceAttributeModelType  string = "model-type"
	TraceAttributeIdentifier string = "identifier"
)

var tracer = otel.Tracer("halstore-datastore")

// Datastore is the entry point of the data access layer. It owns the
// identity store, builds resource URLs and drives fetches on behalf of
// the include resolver. One datastore instance means one cache lifetime.
type Datastore struct {
	baseURL string
	store   *Store
	routes  map[string]string
	headers map[string][]string
	debug   bool
}

func Debug(enabled string) func(*Datastore) {
	return func(d *Datastore) {
		d.debug = (enabled == "true")
	}
}

// WithRoute maps a model type to its collection route on the server.
// Types without a mapped route default to "/" + type name.
func WithRoute(typeName, route string) func(*Datastore) {
	return func(d *Datastore) {
		d.routes[typeName] = route
	}
}

// WithConfig applies a loaded endpoint configuration.
func WithConfig(cfg *Config) func(*Datastore) {
	return func(d *Datastore) {
		if cfg.BaseURL != "" {
			d.baseURL = strings.TrimSuffix(cfg.BaseURL, "/")
		}

		for _, t := range cfg.Types {
			d.routes[t.Name] = t.Route
		}

		for name, value := range cfg.Headers {
			d.headers[name] = []string{value}
		}
	}
}

// WithHeader adds a header to every outgoing request.
func WithHeader(name string, values ...string) func(*Datastore) {
	return func(d *Datastore) {
		d.headers[name] = values
	}
}

func New(baseURL string, options ...func(*Datastore)) *Datastore {
	d := &Datastore{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		store:   NewStore(),
		routes:  map[string]string{},
		headers: map[string][]string{},
		debug:   false,
	}

	for _, option := range options {
		option(d)
	}

	return d
}

func (d *Datastore) Store() *Store {
	return d.store
}

// FindRecord fetches a single resource, materializes it in the identity
// store and resolves the requested dotted include paths. The call does
// not complete until every include fetch and all of their recursive
// descendants have completed; any leaf failure fails the whole call.
func (d *Datastore) FindRecord(ctx context.Context, typeName, href string, includes ...string) (*Model, error) {
	var err error

	ctx, span := tracer.Start(ctx, "find-record",
		trace.WithAttributes(attribute.String(TraceAttributeModelType, typeName)),
		trace.WithAttributes(attribute.String(TraceAttributeIdentifier, href)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	m, err := d.fetchModel(ctx, typeName, href)
	if err != nil {
		return nil, err
	}

	err = d.ResolveIncludes(ctx, m, includes...)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// FindAll fetches a collection for the given type, materializes each
// member and returns a document keyed by the request URL. Request
// decorators append query parameters in the order given.
func (d *Datastore) FindAll(ctx context.Context, typeName string, parameters ...RequestDecoratorFunc) (*Document, error) {
	var err error

	ctx, span := tracer.Start(ctx, "find-all",
		trace.WithAttributes(attribute.String(TraceAttributeModelType, typeName)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	params := make([]string, 0, 5)
	for _, rdf := range parameters {
		params = rdf(params)
	}

	href := d.route(typeName)
	if len(params) > 0 {
		href += "?" + strings.Join(params, "&")
	}

	return d.fetchDocument(ctx, typeName, href)
}

// CreateRecord submits the model's payload to the type's collection
// route. On success the Location header becomes the model's self link
// and the model is saved again so it is reachable under its canonical
// identifier from then on.
func (d *Datastore) CreateRecord(ctx context.Context, m *Model) error {
	var err error

	ctx, span := tracer.Start(ctx, "create-record",
		trace.WithAttributes(attribute.String(TraceAttributeModelType, m.Type())),
		trace.WithAttributes(attribute.String(TraceAttributeIdentifier, m.Identifier())),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	payload, err := json.Marshal(m.Payload())
	if err != nil {
		return err
	}

	resp, respBody, err := d.callResourceServer(ctx, http.MethodPost, d.resolveURL(d.route(m.Type())), bytes.NewBuffer(payload))
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		err = errors.NewErrorFromProblemReport(resp.StatusCode, resp.Header.Get("Content-Type"), respBody)
		return err
	}

	if resp.StatusCode != http.StatusCreated {
		err = fmt.Errorf("unexpected response code %d (%w)", resp.StatusCode, errors.ErrInternal)
		return err
	}

	location := resp.Header.Get("Location")
	if location == "" {
		log := logging.GetFromContext(ctx)
		log.Warn("resource server failed to provide a location header with created response")
		return nil
	}

	m.SetSelfLink(location)
	d.store.Save(m)

	return nil
}

// UpdateRecord submits the model's payload to its self link. There is
// no conflict detection; the write either lands or fails.
func (d *Datastore) UpdateRecord(ctx context.Context, m *Model) error {
	var err error

	ctx, span := tracer.Start(ctx, "update-record",
		trace.WithAttributes(attribute.String(TraceAttributeModelType, m.Type())),
		trace.WithAttributes(attribute.String(TraceAttributeIdentifier, m.Identifier())),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	selfLink := m.SelfLink()
	if selfLink == "" {
		err = fmt.Errorf("model has no self link, create it first (%w)", errors.ErrRequest)
		return err
	}

	payload, err := json.Marshal(m.Payload())
	if err != nil {
		return err
	}

	resp, respBody, err := d.callResourceServer(ctx, http.MethodPatch, d.resolveURL(selfLink), bytes.NewBuffer(payload))
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		err = errors.NewErrorFromProblemReport(resp.StatusCode, resp.Header.Get("Content-Type"), respBody)
		return err
	}

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("unexpected response code %d (%w)", resp.StatusCode, errors.ErrInternal)
		return err
	}

	return nil
}

func (d *Datastore) fetchModel(ctx context.Context, typeName, href string) (*Model, error) {
	var err error

	ctx, span := tracer.Start(ctx, "fetch-resource",
		trace.WithAttributes(attribute.String(TraceAttributeModelType, typeName)),
		trace.WithAttributes(attribute.String(TraceAttributeIdentifier, href)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	respBody, err := d.get(ctx, href)
	if err != nil {
		return nil, err
	}

	resource, err := hal.NewResourceFromJSON(respBody)
	if err != nil {
		return nil, err
	}

	m := NewModelFromResource(ctx, typeName, resource, d.store)

	// a body without a self link is canonically identified by the
	// URL it was fetched from
	m.SetSelfLink(href)

	d.store.Save(m)

	return m, nil
}

func (d *Datastore) fetchDocument(ctx context.Context, typeName, href string) (*Document, error) {
	var err error

	ctx, span := tracer.Start(ctx, "fetch-collection",
		trace.WithAttributes(attribute.String(TraceAttributeModelType, typeName)),
		trace.WithAttributes(attribute.String(TraceAttributeIdentifier, href)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	respBody, err := d.get(ctx, href)
	if err != nil {
		return nil, err
	}

	collection, err := hal.NewCollectionFromJSON(respBody)
	if err != nil {
		return nil, err
	}

	doc := NewDocumentFromCollection(ctx, typeName, href, collection, d.store)
	d.store.Save(doc)

	return doc, nil
}

func (d *Datastore) get(ctx context.Context, href string) ([]byte, error) {
	resp, respBody, err := d.callResourceServer(ctx, http.MethodGet, d.resolveURL(href), nil)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		contentType := resp.Header.Get("Content-Type")
		if resp.StatusCode >= http.StatusBadRequest && resp.StatusCode <= http.StatusInternalServerError {
			return nil, errors.NewErrorFromProblemReport(resp.StatusCode, contentType, respBody)
		}

		return nil, fmt.Errorf("resource server returned status code %d (content-type: %s, body: %s)", resp.StatusCode, contentType, string(respBody))
	}

	return respBody, nil
}

func (d *Datastore) route(typeName string) string {
	if route, ok := d.routes[typeName]; ok {
		return route
	}

	return "/" + typeName
}

func (d *Datastore) resolveURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}

	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}

	return d.baseURL + href
}

func (d *Datastore) callResourceServer(ctx context.Context, method, endpoint string, body io.Reader) (*http.Response, []byte, error) {
	httpClient := http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %s (%w)", err.Error(), errors.ErrInternal)
	}

	req.Header.Add("Accept", "application/hal+json, application/json")

	for header, headerValue := range d.headers {
		for _, val := range headerValue {
			req.Header.Add(header, val)
		}
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to send request: %s (%w)", err.Error(), errors.ErrRequest)
	}

	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %s (%w)", err.Error(), errors.ErrBadResponse)
	}

	if d.debug && resp.StatusCode >= http.StatusBadRequest {
		reqbytes, _ := httputil.DumpRequest(req, false)
		respbytes, _ := httputil.DumpResponse(resp, false)

		log := logging.GetFromContext(ctx)
		log.Error("request failed", "request", string(reqbytes), "response", string(respbytes))
	}

	return resp, respBody, nil
}
