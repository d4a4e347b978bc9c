package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// JSON-RPC structures
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MCP structures
type InitializeParams struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Capabilities    map[string]interface{} `json:"capabilities"`
	ClientInfo      struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"clientInfo"`
}

type InitializeResult struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Capabilities    map[string]interface{} `json:"capabilities"`
	ServerInfo      struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"serverInfo"`
}

type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`
}

type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Enum        []string `json:"enum,omitempty"`
}

type ToolsListResult struct {
	Tools []Tool `json:"tools"`
}

type ToolCallParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

type ToolCallResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// MCP Server
type MCPServer struct {
	apiURL      string
	apiUsername string
	apiPassword string
	client      *http.Client
}

func NewMCPServer() *MCPServer {
	apiURL := os.Getenv("VOICEALARM_API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}
	return &MCPServer{
		apiURL:      strings.TrimRight(apiURL, "/"),
		apiUsername: os.Getenv("VOICEALARM_API_USERNAME"),
		apiPassword: os.Getenv("VOICEALARM_API_PASSWORD"),
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *MCPServer) Run(in io.Reader, out io.Writer) {
	reader := bufio.NewReader(in)

	for {
		line, err := reader.ReadString('\n')
		if err != nil && (err != io.EOF || strings.TrimSpace(line) == "") {
			if err != io.EOF {
				fmt.Fprintf(os.Stderr, "Error reading: %v\n", err)
			}
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var req JSONRPCRequest
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing JSON: %v\n", err)
			continue
		}

		// Notifications carry no id and get no reply
		if req.ID == nil && strings.HasPrefix(req.Method, "notifications/") {
			continue
		}

		response := s.handleRequest(req)
		responseBytes, _ := json.Marshal(response)
		fmt.Fprintln(out, string(responseBytes))
	}
}

func (s *MCPServer) handleRequest(req JSONRPCRequest) JSONRPCResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "initialized":
		return JSONRPCResponse{JSONRPC: "2.0", ID: req.ID, Result: nil}
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	default:
		return JSONRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &RPCError{Code: -32601, Message: "Method not found"},
		}
	}
}

func (s *MCPServer) handleInitialize(req JSONRPCRequest) JSONRPCResponse {
	result := InitializeResult{
		ProtocolVersion: "2024-11-05",
		Capabilities: map[string]interface{}{
			"tools": map[string]interface{}{},
		},
	}
	result.ServerInfo.Name = "voicealarm-mcp"
	result.ServerInfo.Version = "1.0.0"

	return JSONRPCResponse{JSONRPC: "2.0", ID: req.ID, Result: result}
}

var noArgs = InputSchema{Type: "object", Properties: map[string]Property{}}

func (s *MCPServer) handleToolsList(req JSONRPCRequest) JSONRPCResponse {
	tools := []Tool{
		{
			Name:        "alarm_list",
			Description: "List alarms with their time, days, recording and next ring time. Pass uri to see only the alarms of one recording.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"uri": {Type: "string", Description: "Recording URI (optional)"},
				},
			},
		},
		{
			Name:        "alarm_create",
			Description: "Create an alarm that plays a recording. Empty days means every day; a blank name becomes \"Alarm #N\".",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"uri":  {Type: "string", Description: "Recording URI from recording_list"},
					"time": {Type: "string", Description: "Time as \"07:30 AM\" or 24-hour \"19:30\""},
					"days": {Type: "string", Description: "Comma-separated days, e.g. \"mon,wed,fri\" (optional)"},
					"name": {Type: "string", Description: "Alarm label (optional)"},
				},
				Required: []string{"uri", "time"},
			},
		},
		{
			Name:        "alarm_update",
			Description: "Rename an alarm or change its days.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"alarm_id": {Type: "string", Description: "Alarm ID"},
					"name":     {Type: "string", Description: "New label (optional)"},
					"days":     {Type: "string", Description: "Comma-separated days, empty for every day (optional)"},
				},
				Required: []string{"alarm_id"},
			},
		},
		{
			Name:        "alarm_delete_by_recording",
			Description: "Delete every alarm that plays the given recording. The recording itself is kept.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"uri": {Type: "string", Description: "Recording URI"},
				},
				Required: []string{"uri"},
			},
		},
		{
			Name:        "recording_list",
			Description: "List built-in and user recordings.",
			InputSchema: noArgs,
		},
		{
			Name:        "recording_rename",
			Description: "Rename a user recording. Built-in recordings cannot be renamed.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"recording_id": {Type: "string", Description: "Recording ID"},
					"name":         {Type: "string", Description: "New name"},
				},
				Required: []string{"recording_id", "name"},
			},
		},
		{
			Name:        "recording_delete",
			Description: "Delete a user recording and every alarm that plays it.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"recording_id": {Type: "string", Description: "Recording ID"},
				},
				Required: []string{"recording_id"},
			},
		},
		{
			Name:        "calendar_sync",
			Description: "Publish all alarms to the configured CalDAV calendar now.",
			InputSchema: noArgs,
		},
	}

	return JSONRPCResponse{JSONRPC: "2.0", ID: req.ID, Result: ToolsListResult{Tools: tools}}
}

func (s *MCPServer) handleToolsCall(req JSONRPCRequest) JSONRPCResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return JSONRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &RPCError{Code: -32602, Message: "Invalid params"},
		}
	}

	var result string
	var isError bool

	switch params.Name {
	case "alarm_list":
		path := "/api/alarms"
		if uri := stringArg(params.Arguments, "uri"); uri != "" {
			path += "?uri=" + url.QueryEscape(uri)
		}
		result, isError = s.apiGet(path)
	case "alarm_create":
		body := map[string]interface{}{
			"uri":  stringArg(params.Arguments, "uri"),
			"time": stringArg(params.Arguments, "time"),
			"name": stringArg(params.Arguments, "name"),
			"days": splitDays(stringArg(params.Arguments, "days")),
		}
		result, isError = s.apiRequest(http.MethodPost, "/api/alarms", body)
	case "alarm_update":
		body := map[string]interface{}{}
		if name, ok := params.Arguments["name"]; ok {
			body["name"] = fmt.Sprintf("%v", name)
		}
		if _, ok := params.Arguments["days"]; ok {
			body["days"] = splitDays(stringArg(params.Arguments, "days"))
		}
		id := url.PathEscape(stringArg(params.Arguments, "alarm_id"))
		result, isError = s.apiRequest(http.MethodPut, "/api/alarm/"+id, body)
	case "alarm_delete_by_recording":
		uri := url.QueryEscape(stringArg(params.Arguments, "uri"))
		result, isError = s.apiDelete("/api/alarms?uri=" + uri)
	case "recording_list":
		result, isError = s.apiGet("/api/recordings")
	case "recording_rename":
		id := url.PathEscape(stringArg(params.Arguments, "recording_id"))
		body := map[string]string{"name": stringArg(params.Arguments, "name")}
		result, isError = s.apiRequest(http.MethodPut, "/api/recording/"+id, body)
	case "recording_delete":
		id := url.PathEscape(stringArg(params.Arguments, "recording_id"))
		result, isError = s.apiDelete("/api/recording/" + id)
	case "calendar_sync":
		result, isError = s.apiRequest(http.MethodPost, "/api/calendar/sync", nil)
	default:
		result = "Unknown tool: " + params.Name
		isError = true
	}

	return JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: ToolCallResult{
			Content: []ContentBlock{{Type: "text", Text: result}},
			IsError: isError,
		},
	}
}

func stringArg(args map[string]interface{}, key string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", v))
}

func splitDays(s string) []string {
	days := []string{}
	for _, d := range strings.Split(s, ",") {
		if d = strings.TrimSpace(d); d != "" {
			days = append(days, d)
		}
	}
	return days
}

func (s *MCPServer) apiGet(path string) (string, bool) {
	return s.apiRequest(http.MethodGet, path, nil)
}

func (s *MCPServer) apiDelete(path string) (string, bool) {
	return s.apiRequest(http.MethodDelete, path, nil)
}

func (s *MCPServer) apiRequest(method, path string, body interface{}) (string, bool) {
	endpoint := s.apiURL + path

	var reqBody io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, endpoint, reqBody)
	if err != nil {
		return fmt.Sprintf("Error creating request: %v", err), true
	}

	req.SetBasicAuth(s.apiUsername, s.apiPassword)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Sprintf("Error making request: %v", err), true
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("Error reading response: %v", err), true
	}

	// Parse and format the response
	var apiResp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}

	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return string(respBody), resp.StatusCode >= 400
	}

	if !apiResp.Success {
		return fmt.Sprintf("API Error: %s", apiResp.Error), true
	}

	// Pretty print the data
	var prettyData bytes.Buffer
	if err := json.Indent(&prettyData, apiResp.Data, "", "  "); err != nil {
		return string(apiResp.Data), false
	}

	return prettyData.String(), false
}

func main() {
	server := NewMCPServer()
	server.Run(os.Stdin, os.Stdout)
}
