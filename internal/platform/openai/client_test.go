package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/docintel-backend/internal/platform/logger"
)

func outputText(text string) string {
	b, _ := json.Marshal(map[string]any{
		"output": []any{map[string]any{
			"type": "message",
			"role": "assistant",
			"content": []any{map[string]any{
				"type": "output_text",
				"text": text,
			}},
		}},
	})
	return string(b)
}

func newTestClient(t *testing.T, h http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	temp := 0.2
	c, err := NewClient(logger.Nop(), Config{
		APIKey:      "sk-test",
		BaseURL:     srv.URL,
		Model:       "test-model",
		Timeout:     5 * time.Second,
		MaxRetries:  2,
		Temperature: &temp,
	})
	require.NoError(t, err)
	return c
}

func TestGenerateJSONSendsStrictSchema(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/responses", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		format := body["text"].(map[string]any)["format"].(map[string]any)
		assert.Equal(t, "json_schema", format["type"])
		assert.Equal(t, "highlights", format["name"])
		assert.Equal(t, true, format["strict"])
		_, _ = io.WriteString(w, outputText(`{"highlights":[]}`))
	})

	obj, err := c.GenerateJSON(context.Background(), "sys", "user", "highlights", map[string]any{"type": "object"})
	require.NoError(t, err)
	assert.Contains(t, obj, "highlights")
}

func TestGenerateTextRetriesTransientFailures(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, outputText("  joined summary  "))
	})

	text, err := c.GenerateText(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "joined summary", text)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestGenerateTextDoesNotRetryBadRequest(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"bad input"}`)
	})

	_, err := c.GenerateText(context.Background(), "sys", "user")
	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestTemperatureFallback(t *testing.T) {
	var withTemp, withoutTemp int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		if strings.Contains(string(raw), `"temperature"`) {
			atomic.AddInt32(&withTemp, 1)
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":{"message":"Unsupported parameter: 'temperature'"}}`)
			return
		}
		atomic.AddInt32(&withoutTemp, 1)
		_, _ = io.WriteString(w, outputText("ok"))
	})

	for i := 0; i < 2; i++ {
		_, err := c.GenerateText(context.Background(), "sys", "user")
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&withTemp))
	assert.EqualValues(t, 2, atomic.LoadInt32(&withoutTemp))
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	var out struct {
		Summary string `json:"summary"`
	}
	require.NoError(t, Decode(map[string]any{"summary": "s"}, &out))
	assert.Equal(t, "s", out.Summary)
	assert.Error(t, Decode(map[string]any{"summary": "s", "extra": 1}, &out))
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(logger.Nop(), Config{})
	assert.Error(t, err)
}
