package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newTestServer() *Server {
	return New(nil, zerolog.Nop())
}

func TestNew(t *testing.T) {
	s := newTestServer()
	if s == nil {
		t.Fatal("New() returned nil")
	}
	if s.cache == nil {
		t.Fatal("New() did not initialize cache")
	}
	if s.cfg == nil {
		t.Fatal("New(nil) did not fall back to the default configuration")
	}
}

func TestMCPRequest_Unmarshal(t *testing.T) {
	tests := []struct {
		name       string
		json       string
		wantID     interface{}
		wantMethod string
	}{
		{
			"string id",
			`{"jsonrpc":"2.0","id":"test-1","method":"tools/list"}`,
			"test-1",
			"tools/list",
		},
		{
			"number id",
			`{"jsonrpc":"2.0","id":42,"method":"ping"}`,
			float64(42), // JSON numbers decode as float64
			"ping",
		},
		{
			"null id",
			`{"jsonrpc":"2.0","id":null,"method":"initialize"}`,
			nil,
			"initialize",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req MCPRequest
			if err := json.Unmarshal([]byte(tt.json), &req); err != nil {
				t.Fatalf("Failed to unmarshal: %v", err)
			}

			if req.ID != tt.wantID {
				t.Errorf("ID: got %v (%T), want %v (%T)", req.ID, req.ID, tt.wantID, tt.wantID)
			}
			if req.Method != tt.wantMethod {
				t.Errorf("Method: got %s, want %s", req.Method, tt.wantMethod)
			}
		})
	}
}

func TestHandleRequest_Initialize(t *testing.T) {
	s := newTestServer()
	s.Version = "1.2.3"
	req := &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "initialize"}

	resp := s.handleRequest(context.Background(), req)

	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	if result["protocolVersion"] != "2024-11-05" {
		t.Errorf("protocolVersion: got %v", result["protocolVersion"])
	}
	serverInfo, ok := result["serverInfo"].(map[string]interface{})
	if !ok {
		t.Fatal("serverInfo should be a map")
	}
	if serverInfo["name"] != Name || serverInfo["version"] != "1.2.3" {
		t.Errorf("serverInfo: got %v", serverInfo)
	}
}

func TestHandleRequest_Ping(t *testing.T) {
	s := newTestServer()
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: "ping-1", Method: "ping"})

	if resp == nil || resp.Error != nil {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.ID != "ping-1" {
		t.Errorf("ID: got %v, want ping-1", resp.ID)
	}
}

func TestHandleRequest_ToolsList(t *testing.T) {
	s := newTestServer()
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/list"})

	if resp == nil || resp.Error != nil {
		t.Fatalf("unexpected response: %+v", resp)
	}
	result := resp.Result.(map[string]interface{})
	toolsList, ok := result["tools"].([]Tool)
	if !ok {
		t.Fatal("tools should be a slice of Tool")
	}
	if len(toolsList) != 5 {
		t.Errorf("Expected 5 tools, got %d", len(toolsList))
	}
}

func TestHandleRequest_NotificationsInitialized(t *testing.T) {
	s := newTestServer()
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", Method: "notifications/initialized"})

	// Notifications don't get responses
	if resp != nil {
		t.Error("notifications/initialized should return nil response")
	}
}

func TestHandleRequest_MethodNotFound(t *testing.T) {
	s := newTestServer()
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "nonexistent/method"})

	if resp == nil || resp.Error == nil {
		t.Fatal("Expected error for unknown method")
	}
	if resp.Error.Code != -32601 {
		t.Errorf("Error code: got %d, want -32601", resp.Error.Code)
	}
}

func TestRun(t *testing.T) {
	in := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		``,
		`not json`,
		`{"jsonrpc":"2.0","id":2,"method":"ping"}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"leaf_calibrate","arguments":{"points":[{"x":0,"y":0},{"x":0,"y":100}]}}}`,
	}, "\n")
	var out bytes.Buffer

	if err := newTestServer().Run(context.Background(), strings.NewReader(in), &out); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var ids []float64
	sc := bufio.NewScanner(&out)
	for sc.Scan() {
		var resp MCPResponse
		if err := json.Unmarshal(sc.Bytes(), &resp); err != nil {
			t.Fatalf("bad response line %q: %v", sc.Text(), err)
		}
		if resp.Error != nil {
			t.Errorf("response %v: unexpected error %+v", resp.ID, resp.Error)
		}
		ids = append(ids, resp.ID.(float64))
	}
	if len(ids) != 3 || ids[0] != 1 || ids[1] != 2 || ids[2] != 3 {
		t.Errorf("response ids = %v, want [1 2 3]", ids)
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	err := newTestServer().Run(ctx, strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`+"\n"), &out)
	if err != context.Canceled {
		t.Errorf("Run error = %v, want context.Canceled", err)
	}
	if out.Len() != 0 {
		t.Errorf("unexpected output %q", out.String())
	}
}
