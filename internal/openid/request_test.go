// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package openid_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/holoid/internal/openid"
	"github.com/holomush/holoid/pkg/errutil"
)

func TestMemoryRequest(t *testing.T) {
	params := map[string]string{openid.ParamForSession: "1"}
	req := openid.NewMemoryRequest(testEndpoint, params)
	params["mutated"] = "yes"

	_, ok := req.Param("mutated")
	assert.False(t, ok, "params must be copied")

	req.SetParam(openid.ParamCallbackComplete, "1")
	v, ok := req.Param(openid.ParamCallbackComplete)
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	u, err := url.Parse(req.URL())
	require.NoError(t, err)
	assert.Equal(t, "1", u.Query().Get(openid.ParamForSession))
	assert.Equal(t, "1", u.Query().Get(openid.ParamCallbackComplete))

	req.DeleteParam(openid.ParamCallbackComplete)
	_, ok = req.Param(openid.ParamCallbackComplete)
	assert.False(t, ok)

	assert.Equal(t, testEndpoint+"?remember_me=false", req.URLFor(map[string]string{openid.ParamRememberMe: "false"}))
	assert.Equal(t, testEndpoint, req.URLFor(nil))

	assert.False(t, req.Responded())
	req.Redirect("https://op.example/auth")
	assert.True(t, req.Responded())
	assert.Equal(t, "https://op.example/auth", req.Location())
}

func TestHTTPRequest(t *testing.T) {
	t.Run("reads query and form parameters", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "https://holoid.example/login?for_session=1",
			strings.NewReader("openid_identifier=alice.example"))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()

		req, err := openid.NewHTTPRequest(w, r)
		require.NoError(t, err)

		v, ok := req.Param("openid_identifier")
		assert.True(t, ok)
		assert.Equal(t, "alice.example", v)
		v, ok = req.Param(openid.ParamForSession)
		assert.True(t, ok)
		assert.Equal(t, "1", v)
		_, ok = req.Param(openid.ParamCallbackComplete)
		assert.False(t, ok)
	})

	t.Run("parameter changes do not touch the request", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "https://holoid.example/login?open_id_complete=1", nil)
		req, err := openid.NewHTTPRequest(httptest.NewRecorder(), r)
		require.NoError(t, err)

		req.DeleteParam(openid.ParamCallbackComplete)
		req.SetParam(openid.ParamRememberMe, "true")

		_, ok := req.Param(openid.ParamCallbackComplete)
		assert.False(t, ok)
		assert.Equal(t, "1", r.Form.Get(openid.ParamCallbackComplete))
		assert.Equal(t, "open_id_complete=1", r.URL.RawQuery)
	})

	t.Run("URL follows parameter changes like MemoryRequest", func(t *testing.T) {
		const target = "https://holoid.example/login?for_session=1&open_id_complete=1"
		r := httptest.NewRequest(http.MethodPost, target, strings.NewReader("openid_identifier=alice.example"))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		httpReq, err := openid.NewHTTPRequest(httptest.NewRecorder(), r)
		require.NoError(t, err)
		memReq := openid.NewMemoryRequest("https://holoid.example/login", map[string]string{
			openid.ParamForSession:       "1",
			openid.ParamCallbackComplete: "1",
		})

		assert.Equal(t, target, httpReq.URL(), "body parameters stay out of the query")
		for _, req := range []openid.Request{httpReq, memReq} {
			req.DeleteParam(openid.ParamCallbackComplete)
			req.SetParam(openid.ParamRememberMe, "true")
		}

		want := "https://holoid.example/login?for_session=1&remember_me=true"
		assert.Equal(t, want, httpReq.URL())
		assert.Equal(t, want, memReq.URL())
	})

	t.Run("builds return targets on the current endpoint", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "http://holoid.example/login?x=1", nil)
		req, err := openid.NewHTTPRequest(httptest.NewRecorder(), r)
		require.NoError(t, err)

		assert.Equal(t, "http://holoid.example/login?for_session=1",
			req.URLFor(map[string]string{openid.ParamForSession: "1"}))
	})

	t.Run("tracks responses", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "https://holoid.example/login", nil)
		w := httptest.NewRecorder()
		req, err := openid.NewHTTPRequest(w, r)
		require.NoError(t, err)
		require.False(t, req.Responded())

		req.Redirect("https://op.example/auth")

		assert.True(t, req.Responded())
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "https://op.example/auth", w.Header().Get("Location"))
	})

	t.Run("writes through the tracking writer count as responses", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "https://holoid.example/login", nil)
		req, err := openid.NewHTTPRequest(httptest.NewRecorder(), r)
		require.NoError(t, err)

		_, err = req.ResponseWriter().Write([]byte("hello"))
		require.NoError(t, err)

		assert.True(t, req.Responded())
	})

	t.Run("malformed form", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "https://holoid.example/login", strings.NewReader("%zz"))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		_, err := openid.NewHTTPRequest(httptest.NewRecorder(), r)

		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "OPENID_REQUEST_INVALID")
	})
}
