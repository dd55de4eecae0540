package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/flowbot"
	"github.com/aretw0/flowbot/pkg/adapters/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flowJSON = `{
  "name": "Echo",
  "nodes": [
    {"id": "start", "type": "start", "data": {"messageText": "Hi", "buttons": [{"id": "b", "text": "Next", "targetNodeId": "next"}]}},
    {"id": "next", "type": "message", "data": {"messageText": "Bye"}}
  ]
}`

func newTestHandler(t *testing.T, opts ...Option) http.Handler {
	t.Helper()
	h, err := NewHandler(flowbot.New(), opts...)
	require.NoError(t, err)
	return h
}

func post(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestCompile(t *testing.T) {
	cache := memory.NewCache()
	h := newTestHandler(t, WithCache(cache))
	body := `{"project": ` + flowJSON + `, "options": {"package": "main"}}`

	rr := post(h, "/compile", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "miss", rr.Header().Get("X-Cache"))

	var resp compileResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Contains(t, resp.Source, "// NODE_START:start")
	assert.Contains(t, resp.Source, `rt.Callback("next", handleNext)`)
	assert.Len(t, resp.Spans, 2)
	assert.Equal(t, "next", resp.Tokens["next"])

	again := post(h, "/compile", body)
	require.Equal(t, http.StatusOK, again.Code)
	assert.Equal(t, "hit", again.Header().Get("X-Cache"))
	assert.JSONEq(t, rr.Body.String(), again.Body.String())
}

func TestCompile_RejectedByOpenAPI(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing project", `{"options": {}}`},
		{"unknown policy", `{"project": {}, "options": {"collisionPolicy": "random"}}`},
		{"bad package", `{"project": {}, "options": {"package": "Not-A-Package"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := post(h, "/compile", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
			assert.Equal(t, rr.Header().Get(RequestIDHeader), resp["requestId"])
		})
	}
}

func TestCompile_DanglingPolicyConflict(t *testing.T) {
	h := newTestHandler(t)
	project := `{"name": "D", "nodes": [{"id": "start", "type": "start", "data": {"buttons": [{"id": "b", "text": "Go", "targetNodeId": "ghost"}]}}]}`

	rr := post(h, "/compile", `{"project": `+project+`, "options": {"danglingPolicy": "error"}}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = post(h, "/compile", `{"project": `+project+`}`)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestDecompile(t *testing.T) {
	h := newTestHandler(t)
	rr := post(h, "/compile", `{"project": `+flowJSON+`}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var compiled compileResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &compiled))

	payload, err := json.Marshal(map[string]string{"source": compiled.Source})
	require.NoError(t, err)
	rr = post(h, "/decompile", string(payload))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		Project struct {
			Name string `json:"name"`
			Sheets []struct {
				Nodes []struct {
					ID string `json:"id"`
				} `json:"nodes"`
			} `json:"sheets"`
		} `json:"project"`
		Structural bool `json:"structural"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Structural)
	assert.Equal(t, "Echo", resp.Project.Name)
	require.Len(t, resp.Project.Sheets, 1)
	assert.Len(t, resp.Project.Sheets[0].Nodes, 2)

	rr = post(h, "/decompile", `{"source": ""}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestValidateAndGraph(t *testing.T) {
	h := newTestHandler(t)
	project := `{"name": "V", "nodes": [
		{"id": "start", "type": "start", "data": {}},
		{"id": "island", "type": "message", "data": {"messageText": "alone"}}
	]}`

	rr := post(h, "/validate", `{"project": `+project+`}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var issues struct {
		Issues []struct {
			Code   string `json:"code"`
			NodeID string `json:"node_id"`
		} `json:"issues"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &issues))
	require.Len(t, issues.Issues, 1)
	assert.Equal(t, "island", issues.Issues[0].NodeID)

	rr = post(h, "/graph", `{"project": `+project+`, "flagIssues": true}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var graph map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &graph))
	assert.Contains(t, graph["mermaid"], "class island flagged;")
}

func TestGetHealth(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "8f2a4c1e-5b8d-4f6a-9c3e-2d7b1a0e9f45")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "8f2a4c1e-5b8d-4f6a-9c3e-2d7b1a0e9f45", rr.Header().Get(RequestIDHeader))
	assert.JSONEq(t, `{"status": "ok"}`, rr.Body.String())
}

func TestGetInfoAndSpec(t *testing.T) {
	h := newTestHandler(t, WithMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("flowbot_compiles_total 1\n"))
	})))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/info", nil))
	var info map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &info))
	assert.Equal(t, "flowbot-http", info["app"])
	assert.Equal(t, "1.0.0", info["api_version"])
	assert.NotEmpty(t, rr.Header().Get(RequestIDHeader))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("openapi: 3.0.3")))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rr.Body.String(), "flowbot_compiles_total")
}
