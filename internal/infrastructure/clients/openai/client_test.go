package openai

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medisearch-pro/backend/internal/domain/entities"
	"github.com/medisearch-pro/backend/internal/domain/providers"
	"github.com/medisearch-pro/backend/internal/infrastructure/clients/llm"
	"github.com/medisearch-pro/backend/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewClient(&config.AIConfig{
		OpenAIAPIKey:      "test-key",
		OpenAIModel:       "gpt-test",
		RequestsPerMinute: -1,
		MaxRetries:        3,
		Timeout:           5 * time.Second,
	}, WithBaseURL(server.URL))
	require.NoError(t, err)
	c.retryCfg.InitialDelay = time.Millisecond
	c.retryCfg.MaxDelay = time.Millisecond
	return c
}

func writeOutput(w http.ResponseWriter, text string) {
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"output": []map[string]interface{}{
			{"content": []map[string]string{{"type": "output_text", "text": text}}},
		},
		"usage": map[string]int{"input_tokens": 10, "output_tokens": 20},
	})
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(&config.AIConfig{})
	assert.Error(t, err)
}

func TestSuggestConditions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/responses", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-test", body["model"])

		writeOutput(w, "```json\n{\"conditions\":[{\"name\":\"Common cold\",\"description\":\"A viral infection.\"}]}\n```")
	})

	out, err := c.SuggestConditions(t.Context(), "runny nose, sneezing")
	require.NoError(t, err)
	require.Len(t, out.Conditions, 1)
	assert.Equal(t, "Common cold", out.Conditions[0].Name)
}

func TestAnalyzeBloodReport_SendsImagePart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Input []inputMessage `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Input, 2)
		user := body.Input[1]
		require.Len(t, user.Content, 2)
		assert.Equal(t, "input_image", user.Content[1].Type)
		assert.Contains(t, user.Content[1].ImageURL, "data:image/png;base64,")

		writeOutput(w, `{"summary":"All good.","severity":"Normal","keyFindings":[],"suggestedPrecautions":[],"disclaimer":""}`)
	})

	out, err := c.AnalyzeBloodReport(t.Context(), providers.ReportFile{MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}})
	require.NoError(t, err)
	assert.Equal(t, entities.SeverityNormal, out.Severity)
}

func TestSearch_RetriesServerErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeOutput(w, `{"summary":"Drink water.","suggestedLinks":[],"disclaimer":""}`)
	})

	out, err := c.Search(t.Context(), "hydration")
	require.NoError(t, err)
	assert.Equal(t, "Drink water.", out.Summary)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSearch_DoesNotRetryUnauthorized(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Search(t.Context(), "hydration")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSearch_MissingOutputText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"output":[]}`))
	})

	_, err := c.Search(t.Context(), "hydration")
	assert.ErrorIs(t, err, llm.ErrEmptyOutput)
}

func TestReportContent(t *testing.T) {
	assert.Equal(t, "input_file", reportContent(providers.ReportFile{MIMEType: "application/pdf", Data: []byte("%PDF")}).Type)
	txt := reportContent(providers.ReportFile{MIMEType: "text/plain", Data: []byte("Hb 13")})
	assert.Equal(t, "input_text", txt.Type)
	assert.Equal(t, "Hb 13", txt.Text)
}
