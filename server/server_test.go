package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"connectrpc.com/connect"
	"github.com/firebase/genkit/go/genkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/va6996/querytools/embedding"
	"github.com/va6996/querytools/engine"
	"github.com/va6996/querytools/plugins/similarity"
	"github.com/va6996/querytools/plugins/sqlengine"
	"github.com/va6996/querytools/testutils"
	"github.com/va6996/querytools/tools"
	"github.com/va6996/querytools/vectorsearch"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

func setupServer(t *testing.T) *httptest.Server {
	ctx := context.Background()
	eng := testutils.SetupTestEngine(t)
	gk := genkit.Init(ctx)
	registry := tools.NewRegistry()

	require.NoError(t, sqlengine.RegisterTools(gk, registry, eng, engine.FormatTuples))
	searcher := vectorsearch.NewSearcher(embedding.NewLocal(0))
	require.NoError(t, similarity.RegisterTools(gk, registry, eng, searcher, similarity.Options{}))

	srv := httptest.NewServer(NewHandler(registry))
	t.Cleanup(srv.Close)
	return srv
}

func invokeClient(srv *httptest.Server, opts ...connect.ClientOption) *connect.Client[structpb.Struct, structpb.Struct] {
	return connect.NewClient[structpb.Struct, structpb.Struct](srv.Client(), srv.URL+InvokeProcedure, opts...)
}

func TestInvoke(t *testing.T) {
	ctx := context.Background()
	client := invokeClient(setupServer(t))

	tests := []struct {
		name     string
		req      InvokeRequest
		expected string
	}{
		{"Query", InvokeRequest{Tool: "query_sql_db", Input: "SELECT name FROM engineers ORDER BY name"}, "[('Alice',), ('Bob',)]"},
		{"Engine error", InvokeRequest{Tool: "query_sql_db", Input: "SELECT * FROM nowhere"}, "Error: no such table: nowhere"},
		{"Validation", InvokeRequest{Tool: "query_validation", Input: "```sql\nSELECT 1\n```"}, "OK"},
		{"Similar value", InvokeRequest{Tool: "similar_value", Input: "carl|name|employees"}, "Carol"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := client.CallUnary(ctx, connect.NewRequest(tt.req.Proto()))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, OutputOf(resp.Msg))
		})
	}
}

func TestInvoke_ErrorCodes(t *testing.T) {
	ctx := context.Background()
	client := invokeClient(setupServer(t))

	tests := []struct {
		name string
		req  InvokeRequest
		code connect.Code
	}{
		{"Missing tool name", InvokeRequest{Input: "x"}, connect.CodeInvalidArgument},
		{"Unknown tool", InvokeRequest{Tool: "drop_everything", Input: "x"}, connect.CodeNotFound},
		{"Malformed input", InvokeRequest{Tool: "similar_value", Input: "x|y"}, connect.CodeInvalidArgument},
		{"Async", InvokeRequest{Tool: "query_sql_db", Input: "SELECT 1", Async: true}, connect.CodeUnimplemented},
		{"Async unknown tool", InvokeRequest{Tool: "nope", Async: true}, connect.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.CallUnary(ctx, connect.NewRequest(tt.req.Proto()))
			require.Error(t, err)
			assert.Equal(t, tt.code, connect.CodeOf(err))
		})
	}
}

func TestInvoke_MalformedMessage(t *testing.T) {
	ctx := context.Background()
	client := invokeClient(setupServer(t), connect.WithProtoJSON())

	for name, fields := range map[string]map[string]any{
		"Input not a string": {"tool": "query_sql_db", "input": 42},
		"Async not a bool":   {"tool": "query_sql_db", "input": "SELECT 1", "async": "yes"},
		"Unknown field":      {"tool": "query_sql_db", "query": "SELECT 1"},
	} {
		t.Run(name, func(t *testing.T) {
			msg, err := structpb.NewStruct(fields)
			require.NoError(t, err)
			_, err = client.CallUnary(ctx, connect.NewRequest(msg))
			require.Error(t, err)
			assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
		})
	}
}

func TestListTools(t *testing.T) {
	srv := setupServer(t)
	client := connect.NewClient[emptypb.Empty, structpb.Struct](srv.Client(), srv.URL+ListToolsProcedure)

	resp, err := client.CallUnary(context.Background(), connect.NewRequest(&emptypb.Empty{}))
	require.NoError(t, err)

	infos := ToolsOf(resp.Msg)
	require.Len(t, infos, 3)
	assert.Equal(t, "query_sql_db", infos[0].Name)
	assert.Equal(t, "query_validation", infos[1].Name)
	assert.Equal(t, "similar_value", infos[2].Name)
	assert.Contains(t, infos[2].Description, "keyword|column_name|temp_view_name")
}

func TestPlainJSONPost(t *testing.T) {
	srv := setupServer(t)

	body := strings.NewReader(`{"tool":"query_sql_db","input":"SELECT COUNT(*) FROM employees"}`)
	resp, err := http.Post(srv.URL+InvokeProcedure, "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "[(6,)]", out["output"])

	t.Run("ListTools", func(t *testing.T) {
		resp, err := http.Post(srv.URL+ListToolsProcedure, "application/json", strings.NewReader("{}"))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var out struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		require.Len(t, out.Tools, 3)
		assert.Equal(t, "query_sql_db", out.Tools[0].Name)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	srv := setupServer(t)

	client := invokeClient(srv)
	req := &InvokeRequest{Tool: "query_sql_db", Input: "SELECT 1"}
	_, err := client.CallUnary(context.Background(), connect.NewRequest(req.Proto()))
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	srv := setupServer(t)

	req, _ := http.NewRequest("OPTIONS", srv.URL+InvokeProcedure, nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestParseInvokeRequest(t *testing.T) {
	in := &InvokeRequest{Tool: "similar_value", Input: "bob|name|employees", Async: true}
	out, err := ParseInvokeRequest(in.Proto())
	require.NoError(t, err)
	assert.Equal(t, in, out)

	empty, err := ParseInvokeRequest(&structpb.Struct{})
	require.NoError(t, err)
	assert.Equal(t, &InvokeRequest{}, empty)

	_, err = ParseInvokeRequest(&structpb.Struct{Fields: map[string]*structpb.Value{"tool": structpb.NewNullValue()}})
	assert.ErrorIs(t, err, tools.ErrInvalidInput)
}
