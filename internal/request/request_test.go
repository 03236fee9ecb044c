// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package request_test

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"go.astrophena.name/kazuto/internal/request"
	"go.astrophena.name/kazuto/internal/testutil"
)

func TestMake(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST example.com/json", func(w http.ResponseWriter, r *http.Request) {
		testutil.AssertEqual(t, r.Header.Get("Content-Type"), "application/json")
		testutil.AssertEqual(t, r.Header.Get("X-Test"), "test")
		b, _ := io.ReadAll(r.Body)
		testutil.AssertEqual(t, string(b), `{"key":"value"}`)
		w.Write([]byte(`{"message": "success"}`))
	})
	mux.HandleFunc("POST example.com/form", func(w http.ResponseWriter, r *http.Request) {
		testutil.AssertEqual(t, r.Header.Get("Content-Type"), "application/x-www-form-urlencoded")
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		testutil.AssertEqual(t, r.PostForm.Get("grant_type"), "test")
		w.Write([]byte(`{"message": "form"}`))
	})
	mux.HandleFunc("GET example.com/fail", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "secret-token is bad", http.StatusForbidden)
	})
	mux.HandleFunc("GET example.com/ignore", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})
	httpc := testutil.MockHTTPClient(mux)

	type response struct {
		Message string `json:"message"`
	}

	t.Run("json", func(t *testing.T) {
		got, err := request.Make[response](t.Context(), request.Params{
			Method:     http.MethodPost,
			URL:        "https://example.com/json",
			Headers:    map[string]string{"X-Test": "test"},
			Body:       map[string]string{"key": "value"},
			HTTPClient: httpc,
		})
		if err != nil {
			t.Fatal(err)
		}
		testutil.AssertEqual(t, got.Message, "success")
	})

	t.Run("form", func(t *testing.T) {
		got, err := request.Make[response](t.Context(), request.Params{
			Method:     http.MethodPost,
			URL:        "https://example.com/form",
			Body:       url.Values{"grant_type": {"test"}},
			HTTPClient: httpc,
		})
		if err != nil {
			t.Fatal(err)
		}
		testutil.AssertEqual(t, got.Message, "form")
	})

	t.Run("ignore response", func(t *testing.T) {
		_, err := request.Make[request.IgnoreResponse](t.Context(), request.Params{
			Method:     http.MethodGet,
			URL:        "https://example.com/ignore",
			HTTPClient: httpc,
		})
		if err != nil {
			t.Fatal(err)
		}
	})

	t.Run("status error is scrubbed", func(t *testing.T) {
		_, err := request.Make[response](t.Context(), request.Params{
			Method:     http.MethodGet,
			URL:        "https://example.com/fail",
			HTTPClient: httpc,
			Scrubber:   strings.NewReplacer("secret-token", "[EXPUNGED]"),
		})
		if err == nil {
			t.Fatal("want error, got nil")
		}
		var se *request.StatusError
		if !errors.As(err, &se) {
			t.Fatalf("want *request.StatusError, got %T", err)
		}
		testutil.AssertEqual(t, se.StatusCode, http.StatusForbidden)
		if strings.Contains(err.Error(), "secret-token") {
			t.Fatalf("error is not scrubbed: %v", err)
		}
	})
}
