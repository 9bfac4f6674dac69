package dataforseo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/internetyev/paafetch/pkg/config"
	apierrors "github.com/internetyev/paafetch/pkg/errors"
)

func paaResponse(questions ...string) string {
	elements := ""
	for i, q := range questions {
		if i > 0 {
			elements += ","
		}
		elements += fmt.Sprintf(`{"type":"people_also_ask_element","title":%q}`, q)
	}
	return fmt.Sprintf(`{
		"status_code": 20000,
		"status_message": "Ok.",
		"tasks": [{
			"id": "task-1",
			"status_code": 20000,
			"status_message": "Ok.",
			"result": [{
				"keyword": "test",
				"type": "organic",
				"items": [
					{"type": "organic", "title": "A regular result"},
					{"type": "people_also_ask", "items": [%s]}
				]
			}]
		}]
	}`, elements)
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(&config.APIConfig{
		BaseURL:        baseURL,
		Login:          "login",
		Password:       "password",
		LanguageCode:   "en",
		CountryCode:    "US",
		RequestTimeout: 5 * time.Second,
	}, nil)
	require.NoError(t, err)
	return client
}

func TestNewClient_UnknownCountry(t *testing.T) {
	_, err := NewClient(&config.APIConfig{CountryCode: "ZZ"}, nil)
	require.Error(t, err)

	var apiErr *apierrors.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierrors.ErrorTypeConfig, apiErr.Type)
}

func TestQuestions_ParsesPAA(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, serpLivePath, r.URL.Path)

		login, password, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "login", login)
		assert.Equal(t, "password", password)

		var payload []taskRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Len(t, payload, 1)
		assert.Equal(t, "best coffee", payload[0].Keyword)
		assert.Equal(t, "en", payload[0].LanguageCode)
		assert.Equal(t, 2840, payload[0].LocationCode)
		assert.Equal(t, "desktop", payload[0].Device)

		fmt.Fprint(w, paaResponse("What is coffee?", "Is coffee healthy?"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	questions, err := client.Questions(context.Background(), "best coffee")
	require.NoError(t, err)
	assert.Equal(t, []string{"What is coffee?", "Is coffee healthy?"}, questions)
}

func TestQuestions_NoPAABlock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"status_code": 20000,
			"status_message": "Ok.",
			"tasks": [{
				"id": "task-1",
				"status_code": 20000,
				"status_message": "Ok.",
				"result": [{"keyword": "test", "type": "organic", "items": [{"type": "organic"}]}]
			}]
		}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	questions, err := client.Questions(context.Background(), "obscure query")
	require.NoError(t, err)
	assert.Empty(t, questions)
}

func TestQuestions_HTTPStatusMapping(t *testing.T) {
	tests := []struct {
		status   int
		wantType apierrors.ErrorType
	}{
		{http.StatusUnauthorized, apierrors.ErrorTypeAuth},
		{http.StatusForbidden, apierrors.ErrorTypeAuth},
		{http.StatusTooManyRequests, apierrors.ErrorTypeRateLimit},
		{http.StatusInternalServerError, apierrors.ErrorTypeServerError},
		{http.StatusBadGateway, apierrors.ErrorTypeServerError},
		{http.StatusTeapot, apierrors.ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)

			_, err := client.Questions(context.Background(), "kw")
			require.Error(t, err)

			var apiErr *apierrors.Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantType, apiErr.Type)
			assert.Equal(t, tt.status, apiErr.Code)
		})
	}
}

func TestQuestions_EnvelopeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status_code": 40101, "status_message": "Authentication failed.", "tasks": []}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.Questions(context.Background(), "kw")
	require.Error(t, err)

	var apiErr *apierrors.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierrors.ErrorTypeAPI, apiErr.Type)
	assert.Equal(t, 40101, apiErr.Code)
}

func TestQuestions_TaskError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"status_code": 20000,
			"status_message": "Ok.",
			"tasks": [{"id": "t", "status_code": 40501, "status_message": "Invalid Field.", "result": null}]
		}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.Questions(context.Background(), "kw")
	require.Error(t, err)

	var apiErr *apierrors.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierrors.ErrorTypeAPI, apiErr.Type)
}

func TestQuestions_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>definitely not json</html>`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.Questions(context.Background(), "kw")
	require.Error(t, err)

	var apiErr *apierrors.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierrors.ErrorTypeParsing, apiErr.Type)
}

func TestQuestions_RetriesTransientFailures(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, paaResponse("Recovered?"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	client.SetRetry(&config.RetryConfig{
		Enabled:     true,
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
	})

	questions, err := client.Questions(context.Background(), "kw")
	require.NoError(t, err)
	assert.Equal(t, []string{"Recovered?"}, questions)
	assert.Equal(t, 3, attempts)
}

func TestQuestions_DoesNotRetryAuthFailures(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	client.SetRetry(&config.RetryConfig{
		Enabled:     true,
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
	})

	_, err := client.Questions(context.Background(), "kw")
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestLocationCode(t *testing.T) {
	code, err := LocationCode("US")
	require.NoError(t, err)
	assert.Equal(t, 2840, code)

	code, err = LocationCode("gb")
	require.NoError(t, err)
	assert.Equal(t, 2826, code)

	_, err = LocationCode("XX")
	assert.Error(t, err)
}

func TestSupportedCountries_Sorted(t *testing.T) {
	countries := SupportedCountries()
	require.NotEmpty(t, countries)
	for i := 1; i < len(countries); i++ {
		assert.Less(t, countries[i-1], countries[i])
	}
	assert.Contains(t, countries, "US")
}
