// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package openid

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/samber/oops"
)

// Request parameter keys read and written during the OpenID flow.
const (
	ParamRememberMe       = "remember_me"
	ParamCallbackComplete = "open_id_complete"
	ParamForSession       = "for_session"
	ParamClaimedID        = "openid.claimed_id"
	ParamIdentity         = "openid.identity"
	ParamMode             = "openid.mode"

	// SessionStatePrefix prefixes keys a Provider writes for its own use.
	// CleanupSession removes them.
	SessionStatePrefix = "openid.session."
)

// Request is the per-request context the OpenID flow reads and writes. It is
// borrowed for the lifetime of one request and never shared.
type Request interface {
	// Param returns a request parameter and whether it is present.
	Param(key string) (string, bool)
	// SetParam sets a request parameter.
	SetParam(key, value string)
	// DeleteParam removes a request parameter.
	DeleteParam(key string)
	// URL returns the absolute URL of the current request. Its query
	// reflects SetParam and DeleteParam calls made so far.
	URL() string
	// URLFor returns the absolute URL of the current endpoint carrying only params.
	URLFor(params map[string]string) string
	// Redirect responds with a redirect to location.
	Redirect(location string)
	// Responded reports whether a response has already been produced.
	Responded() bool
}

// flag reports whether key is present with a non-empty value.
func flag(req Request, key string) bool {
	v, ok := req.Param(key)
	return ok && v != ""
}

// MemoryRequest is a Request backed by a plain map. It is used by tests and
// by callers that are not serving HTTP directly.
type MemoryRequest struct {
	base      string
	params    map[string]string
	location  string
	responded bool
}

// NewMemoryRequest creates a MemoryRequest for the endpoint at base with the
// given parameters. params is copied.
func NewMemoryRequest(base string, params map[string]string) *MemoryRequest {
	cp := make(map[string]string, len(params))
	for k, v := range params {
		cp[k] = v
	}
	return &MemoryRequest{base: base, params: cp}
}

// Param implements Request.
func (r *MemoryRequest) Param(key string) (string, bool) {
	v, ok := r.params[key]
	return v, ok
}

// SetParam implements Request.
func (r *MemoryRequest) SetParam(key, value string) {
	r.params[key] = value
}

// DeleteParam implements Request.
func (r *MemoryRequest) DeleteParam(key string) {
	delete(r.params, key)
}

// URL implements Request.
func (r *MemoryRequest) URL() string {
	return withQuery(r.base, r.params)
}

// URLFor implements Request.
func (r *MemoryRequest) URLFor(params map[string]string) string {
	return withQuery(r.base, params)
}

// Redirect implements Request.
func (r *MemoryRequest) Redirect(location string) {
	r.location = location
	r.responded = true
}

// Responded implements Request.
func (r *MemoryRequest) Responded() bool {
	return r.responded
}

// MarkResponded records that some other handler produced a response.
func (r *MemoryRequest) MarkResponded() {
	r.responded = true
}

// Location returns the redirect target, if any.
func (r *MemoryRequest) Location() string {
	return r.location
}

// HTTPRequest adapts a net/http request and response writer to Request.
// Handlers must write through ResponseWriter so Responded stays accurate.
// Parameter changes never touch the wrapped *http.Request.
type HTTPRequest struct {
	r      *http.Request
	w      *trackingWriter
	params url.Values // query and body
	query  url.Values // query only, as seen by URL
}

// NewHTTPRequest parses the request form and wraps w.
func NewHTTPRequest(w http.ResponseWriter, r *http.Request) (*HTTPRequest, error) {
	if err := r.ParseForm(); err != nil {
		return nil, oops.Code("OPENID_REQUEST_INVALID").
			With("operation", "parse form").
			Wrap(err)
	}
	return &HTTPRequest{
		r:      r,
		w:      &trackingWriter{ResponseWriter: w},
		params: cloneValues(r.Form),
		query:  r.URL.Query(),
	}, nil
}

// ResponseWriter returns the writer that tracks whether a response was sent.
func (h *HTTPRequest) ResponseWriter() http.ResponseWriter {
	return h.w
}

// Param implements Request.
func (h *HTTPRequest) Param(key string) (string, bool) {
	if _, ok := h.params[key]; !ok {
		return "", false
	}
	return h.params.Get(key), true
}

// SetParam implements Request.
func (h *HTTPRequest) SetParam(key, value string) {
	h.params.Set(key, value)
	h.query.Set(key, value)
}

// DeleteParam implements Request.
func (h *HTTPRequest) DeleteParam(key string) {
	h.params.Del(key)
	h.query.Del(key)
}

// URL implements Request. Body parameters appear in the query only once
// they are set with SetParam.
func (h *HTTPRequest) URL() string {
	u := h.endpoint()
	u.RawQuery = h.query.Encode()
	return u.String()
}

// URLFor implements Request.
func (h *HTTPRequest) URLFor(params map[string]string) string {
	return withQuery(h.endpoint().String(), params)
}

// Redirect implements Request.
func (h *HTTPRequest) Redirect(location string) {
	http.Redirect(h.w, h.r, location, http.StatusFound)
}

// Responded implements Request.
func (h *HTTPRequest) Responded() bool {
	return h.w.wrote
}

func (h *HTTPRequest) endpoint() *url.URL {
	scheme := "http"
	if h.r.TLS != nil {
		scheme = "https"
	}
	return &url.URL{Scheme: scheme, Host: h.r.Host, Path: h.r.URL.Path}
}

type trackingWriter struct {
	http.ResponseWriter
	wrote bool
}

func (w *trackingWriter) WriteHeader(status int) {
	w.wrote = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *trackingWriter) Write(b []byte) (int, error) {
	w.wrote = true
	//nolint:wrapcheck // ResponseWriter passthrough
	return w.ResponseWriter.Write(b)
}

func cloneValues(v url.Values) url.Values {
	cp := make(url.Values, len(v))
	for k, vs := range v {
		cp[k] = append([]string(nil), vs...)
	}
	return cp
}

func withQuery(base string, params map[string]string) string {
	if len(params) == 0 {
		return base
	}
	q := make(url.Values, len(params))
	for k, v := range params {
		q.Set(k, v)
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + q.Encode()
}
