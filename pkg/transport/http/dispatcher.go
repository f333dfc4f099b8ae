// Package httptransport dispatches authenticated requests to the server.
//
// Every verb shares one path: validate and encode the body, build the URL,
// attach the bearer token, send, classify the status into a pkg/errors code,
// then shape the result by data type.
package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/porthorian/jamfpro/pkg/contract"
	jerrors "github.com/porthorian/jamfpro/pkg/errors"
)

type DataType string

const (
	DataTypeJSON DataType = "json"
	DataTypeXML  DataType = "xml"
	DataTypeNone DataType = "none"
)

func (d DataType) mediaType() string {
	switch d {
	case DataTypeJSON:
		return "application/json"
	case DataTypeXML:
		return "application/xml"
	}
	return ""
}

func (d DataType) validate() error {
	switch d {
	case DataTypeJSON, DataTypeXML, DataTypeNone:
		return nil
	}
	return jerrors.Newf(jerrors.CodeInvalidDataType, "invalid data type %q, expected json, xml, or none", string(d))
}

// Authorizer attaches credentials to an outgoing request.
type Authorizer interface {
	Attach(req *http.Request) error
}

type Config struct {
	BaseURL     string
	HTTPClient  *http.Client
	Authorizer  Authorizer
	Logger      logr.Logger
	Metrics     *Metrics
	DownloadDir string
}

type Dispatcher struct {
	baseURL     string
	httpClient  *http.Client
	authorizer  Authorizer
	logger      logr.Logger
	metrics     *Metrics
	downloadDir string
}

// Request describes one call. DataType defaults to json.
type Request struct {
	Path    string
	Query   url.Values
	Body    any
	Headers map[string]string
	File    *File
	// DataType selects Accept, and Content-Type when a body is sent.
	DataType DataType
	// SuccessMessage, when set, is returned on 2xx instead of the body.
	SuccessMessage string
}

func NewDispatcher(config Config) (*Dispatcher, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(config.BaseURL), "/")
	if baseURL == "" {
		return nil, jerrors.ErrMissingBaseURL
	}

	d := &Dispatcher{
		baseURL:     baseURL,
		httpClient:  config.HTTPClient,
		authorizer:  config.Authorizer,
		logger:      config.Logger,
		metrics:     config.Metrics,
		downloadDir: config.DownloadDir,
	}
	if d.httpClient == nil {
		d.httpClient = http.DefaultClient
	}
	if d.logger.GetSink() == nil {
		d.logger = logr.Discard()
	}
	return d, nil
}

func (d *Dispatcher) Get(ctx context.Context, r Request) (*Result, error) {
	return d.Do(ctx, http.MethodGet, r)
}

func (d *Dispatcher) Post(ctx context.Context, r Request) (*Result, error) {
	return d.Do(ctx, http.MethodPost, r)
}

func (d *Dispatcher) Put(ctx context.Context, r Request) (*Result, error) {
	return d.Do(ctx, http.MethodPut, r)
}

func (d *Dispatcher) Patch(ctx context.Context, r Request) (*Result, error) {
	return d.Do(ctx, http.MethodPatch, r)
}

func (d *Dispatcher) Delete(ctx context.Context, r Request) (*Result, error) {
	return d.Do(ctx, http.MethodDelete, r)
}

// Do sends r with method. Contract violations fail before any network call.
func (d *Dispatcher) Do(ctx context.Context, method string, r Request) (*Result, error) {
	dataType := r.DataType
	if dataType == "" {
		dataType = DataTypeJSON
	}
	if err := dataType.validate(); err != nil {
		return nil, err
	}

	body, contentType, err := encodeBody(dataType, r.Body, r.File)
	if err != nil {
		return nil, err
	}

	req, err := d.newRequest(ctx, method, r.Path, r.Query, body)
	if err != nil {
		return nil, err
	}
	if accept := dataType.mediaType(); accept != "" {
		req.Header.Set("Accept", accept)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for key, value := range r.Headers {
		req.Header.Set(key, value)
	}

	resp, err := d.send(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, jerrors.Wrap(jerrors.CodeHTTPFailure, "failed to read response", err)
	}

	if classified := jerrors.FromResponse(resp.StatusCode, string(raw)); classified != nil {
		return nil, classified
	}

	return shapeResult(dataType, resp, raw, r.SuccessMessage)
}

func (d *Dispatcher) newRequest(ctx context.Context, method, path string, query url.Values, body []byte) (*http.Request, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	target := d.baseURL + contract.EscapePath(path)
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, jerrors.Wrap(jerrors.CodeInvalidParameterOptions, "failed to build request", err)
	}
	return req, nil
}

// send attaches credentials last so they replace any caller supplied
// Authorization header.
func (d *Dispatcher) send(req *http.Request) (*http.Response, error) {
	if d.authorizer != nil {
		if err := d.authorizer.Attach(req); err != nil {
			return nil, err
		}
	}

	requestID := uuid.NewString()
	start := time.Now()
	resp, err := d.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		d.metrics.observe(req.Method, 0, elapsed)
		d.logger.V(1).Info("request failed", "request_id", requestID, "method", req.Method, "path", req.URL.Path, "error", err.Error())
		return nil, jerrors.Wrap(jerrors.CodeHTTPFailure, req.Method+" "+req.URL.Path+" failed", err)
	}

	d.metrics.observe(req.Method, resp.StatusCode, elapsed)
	d.logger.V(1).Info("dispatched request", "request_id", requestID, "method", req.Method, "path", req.URL.Path, "status", resp.StatusCode, "duration", elapsed)
	return resp, nil
}

func shapeResult(dataType DataType, resp *http.Response, raw []byte, successMessage string) (*Result, error) {
	result := &Result{
		DataType:   dataType,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Raw:        raw,
	}

	if successMessage != "" {
		result.Text = successMessage
		return result, nil
	}

	switch dataType {
	case DataTypeJSON:
		if len(bytes.TrimSpace(raw)) == 0 {
			return result, nil
		}
		decoder := json.NewDecoder(bytes.NewReader(raw))
		decoder.UseNumber()
		if err := decoder.Decode(&result.Value); err != nil {
			return nil, &jerrors.Error{
				Code:       jerrors.CodeHTTPFailure,
				Message:    "response is not valid json",
				StatusCode: resp.StatusCode,
				Body:       string(raw),
				Err:        err,
			}
		}
	case DataTypeXML, DataTypeNone:
		result.Text = string(raw)
	default:
		return nil, jerrors.Newf(jerrors.CodeInvalidDataType, "invalid data type %q", string(dataType))
	}
	return result, nil
}

// Result carries a decoded JSON value or the raw text, depending on DataType.
type Result struct {
	DataType   DataType
	StatusCode int
	Header     http.Header
	Raw        []byte
	Value      any
	Text       string
}

// Decode unmarshals the raw body into v using the result's data type.
func (r *Result) Decode(v any) error {
	switch r.DataType {
	case DataTypeJSON:
		return json.Unmarshal(r.Raw, v)
	case DataTypeXML:
		return xml.Unmarshal(r.Raw, v)
	}
	return jerrors.Newf(jerrors.CodeInvalidDataType, "cannot decode %q responses", string(r.DataType))
}

// String returns the text form: the success message or body for xml/none,
// the raw body for json.
func (r *Result) String() string {
	if r == nil {
		return ""
	}
	if r.Text != "" {
		return r.Text
	}
	return string(r.Raw)
}
