package partner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Kamar-Folarin/listing-sync/internal/errors"
)

func setupTestClient(t *testing.T, handler http.Handler, opts ...ClientOption) (*Client, func()) {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	server := httptest.NewServer(handler)
	client := NewClient("test-token", Endpoints{BaseURL: server.URL, Lang: "ro"}, logger, opts...)

	return client, server.Close
}

func TestClient_Fetch(t *testing.T) {
	ctx := context.Background()

	t.Run("successful request", func(t *testing.T) {
		client, cleanup := setupTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/adverts/1", r.URL.Path)
			assert.Equal(t, "ro", r.URL.Query().Get("lang"))

			user, pass, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "test-token", user)
			assert.Equal(t, "", pass)

			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"id": 1, "title": {"ro": "Apartament"}}`))
		}))
		defer cleanup()

		endpoint, err := client.Endpoints().Detail("adverts", float64(1))
		require.NoError(t, err)

		doc, err := client.Fetch(ctx, endpoint)
		require.NoError(t, err)
		assert.Equal(t, json.Number("1"), doc["id"])
		assert.Equal(t, map[string]any{"ro": "Apartament"}, doc["title"])
	})

	t.Run("non-success status", func(t *testing.T) {
		client, cleanup := setupTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error": "invalid token"}`))
		}))
		defer cleanup()

		endpoint := client.Endpoints().Listing("adverts")
		_, err := client.Fetch(ctx, endpoint)
		require.Error(t, err)

		var upErr *apperrors.UpstreamError
		require.ErrorAs(t, err, &upErr)
		assert.Equal(t, http.StatusForbidden, upErr.StatusCode)
		assert.Equal(t, endpoint, upErr.Endpoint)
	})

	t.Run("malformed body", func(t *testing.T) {
		client, cleanup := setupTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>maintenance</html>`))
		}))
		defer cleanup()

		_, err := client.Fetch(ctx, client.Endpoints().Listing("adverts"))
		require.Error(t, err)
		assert.True(t, apperrors.IsMalformedResponse(err))
	})

	t.Run("trailing data after document", func(t *testing.T) {
		client, cleanup := setupTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"id": 1} {"id": 2}`))
		}))
		defer cleanup()

		_, err := client.Fetch(ctx, client.Endpoints().Listing("adverts"))
		assert.True(t, apperrors.IsMalformedResponse(err))
	})

	t.Run("connection failure is an upstream error", func(t *testing.T) {
		client, cleanup := setupTestClient(t, http.NotFoundHandler())
		endpoint := client.Endpoints().Listing("adverts")
		cleanup()

		_, err := client.Fetch(ctx, endpoint)
		require.Error(t, err)

		var upErr *apperrors.UpstreamError
		require.ErrorAs(t, err, &upErr)
		assert.Zero(t, upErr.StatusCode)
		assert.Equal(t, endpoint, upErr.Endpoint)
		assert.Equal(t, apperrors.ErrUpstream, apperrors.TypeOf(err))
	})

	t.Run("cancelled request stays a context error", func(t *testing.T) {
		client, cleanup := setupTestClient(t, http.NotFoundHandler())
		defer cleanup()

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := client.Fetch(cctx, client.Endpoints().Listing("adverts"))
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, apperrors.ErrUnavailable, apperrors.TypeOf(err))
	})

	t.Run("null body", func(t *testing.T) {
		client, cleanup := setupTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`null`))
		}))
		defer cleanup()

		_, err := client.Fetch(ctx, client.Endpoints().Listing("adverts"))
		assert.True(t, apperrors.IsMalformedResponse(err))
	})

	t.Run("no retry on server error", func(t *testing.T) {
		calls := 0
		client, cleanup := setupTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer cleanup()

		_, err := client.Fetch(ctx, client.Endpoints().Listing("adverts"))
		assert.True(t, apperrors.IsUpstream(err))
		assert.Equal(t, 1, calls)
	})
}

func TestEndpoints(t *testing.T) {
	e := Endpoints{BaseURL: "https://partners-api.999.md", Lang: "ro"}

	assert.Equal(t, "https://partners-api.999.md/categories?lang=ro", e.Listing("categories"))

	detail, err := e.Detail("adverts", float64(81234567))
	require.NoError(t, err)
	assert.Equal(t, "https://partners-api.999.md/adverts/81234567?lang=ro", detail)

	detail, err = e.Detail("adverts", "abc")
	require.NoError(t, err)
	assert.Equal(t, "https://partners-api.999.md/adverts/abc?lang=ro", detail)

	detail, err = e.Detail("adverts", json.Number("9007199254740993"))
	require.NoError(t, err)
	assert.Equal(t, "https://partners-api.999.md/adverts/9007199254740993?lang=ro", detail)

	_, err = e.Detail("adverts", "")
	assert.Error(t, err)

	_, err = e.Detail("adverts", []string{"x"})
	assert.Error(t, err)

	assert.Equal(t, "http://x/adverts", Endpoints{BaseURL: "http://x"}.Listing("adverts"))
}
