package agent

import (
	"agentic_report/pkg/models"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/agent/query", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req models.QueryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ROE 是多少", req.Question)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "success",
			"answer": "ROE 为 15.2%",
			"tool_calls": [{"tool_name": "generate_dupont_analysis", "tool_output": {"level1": {"roe": {"value": "15.2%"}}}}]
		}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL + "/"}, nil)
	resp, err := c.Query(context.Background(), "ROE 是多少")
	require.NoError(t, err)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "ROE 为 15.2%", resp.Text())
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "generate_dupont_analysis", resp.ToolCalls[0].ToolName)
}

func TestClientGenerateSection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/agent/generate-section", r.URL.Path)
		var req models.SectionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "business_guidance", req.SectionName)
		_, _ = w.Write([]byte(`{"status": "success", "content": "业绩指引正文"}`))
	}))
	defer srv.Close()

	resp, err := NewClient(Config{BaseURL: srv.URL}, nil).GenerateSection(context.Background(), models.SectionRequest{
		SectionName: "business_guidance", CompanyName: "招商银行", Year: "2024",
	})
	require.NoError(t, err)
	assert.Equal(t, "业绩指引正文", resp.Text())
}

func TestClientVisualizeText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/agent/visualize-text", r.URL.Path)
		_, _ = w.Write([]byte(`{"has_visualization": true, "visualizations": [{"has_visualization": true, "chart_config": {"traces": []}}]}`))
	}))
	defer srv.Close()

	resp, err := NewClient(Config{BaseURL: srv.URL}, nil).VisualizeText(context.Background(), models.VisualizeRequest{Query: "q", Answer: "a"})
	require.NoError(t, err)
	assert.True(t, resp.HasVisualization)
	assert.Len(t, resp.Visualizations, 1)
}

func TestClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status": "error", "error": "Agent查询超时"}`))
	}))
	defer srv.Close()

	_, err := NewClient(Config{BaseURL: srv.URL}, nil).Query(context.Background(), "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStatus)
	assert.Contains(t, err.Error(), "Agent查询超时")
}

func TestClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, nil)
	_, err := c.Query(context.Background(), "slow")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(Config{BaseURL: url}, nil).Query(context.Background(), "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestClientMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := NewClient(Config{BaseURL: srv.URL}, nil).Query(context.Background(), "q")
	assert.ErrorIs(t, err, ErrTransport)
}

func TestErrorDetail(t *testing.T) {
	assert.Equal(t, "bad section", errorDetail([]byte(`{"detail": "bad section"}`)))
	assert.Equal(t, "plain failure", errorDetail([]byte(" plain failure \n")))
}
