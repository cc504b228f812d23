package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coderag/internal/domain"
)

// fakeService is a canned SearchService implementation.
type fakeService struct {
	clonePath  string
	cloneErr   error
	results    []domain.SearchResult
	searchErr  error
	entry      domain.Metadata
	entryErr   error
	indexRepo  string
	indexCount int
	indexErr   error
}

func (f *fakeService) Clone(_ context.Context, _, _ string) (string, error) {
	return f.clonePath, f.cloneErr
}

func (f *fakeService) UpdateIndex(_ context.Context, _ string) (string, int, error) {
	return f.indexRepo, f.indexCount, f.indexErr
}

func (f *fakeService) Search(_ context.Context, _ string, _ int, _ string) ([]domain.SearchResult, error) {
	return f.results, f.searchErr
}

func (f *fakeService) GetEntry(_, _ string) (domain.Metadata, error) {
	return f.entry, f.entryErr
}

// sendMessage pushes a raw JSON-RPC request through the server and returns
// the response.
func sendMessage(t *testing.T, srv *Server, method string, id int, params map[string]any) mcp.JSONRPCResponse {
	t.Helper()

	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
	}
	if params != nil {
		msg["params"] = params
	}
	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	result := srv.MCPServer().HandleMessage(context.Background(), raw)
	resp, ok := result.(mcp.JSONRPCResponse)
	require.Truef(t, ok, "expected JSONRPCResponse, got %T: %+v", result, result)
	return resp
}

func initializeParams() map[string]any {
	return map[string]any{
		"protocolVersion": "2025-06-18",
		"capabilities":    map[string]any{},
		"clientInfo": map[string]any{
			"name":    "test-client",
			"version": "0.0.1",
		},
	}
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) mcp.CallToolResult {
	t.Helper()
	sendMessage(t, srv, "initialize", 1, initializeParams())
	resp := sendMessage(t, srv, "tools/call", 2, map[string]any{
		"name":      name,
		"arguments": args,
	})

	var result mcp.CallToolResult
	b, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &result))
	return result
}

func toolText(t *testing.T, result mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	return text.Text
}

func TestListTools(t *testing.T) {
	srv := NewServer(&fakeService{}, nil)
	sendMessage(t, srv, "initialize", 1, initializeParams())
	resp := sendMessage(t, srv, "tools/list", 2, nil)

	var result mcp.ListToolsResult
	b, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &result))

	names := make([]string, len(result.Tools))
	for i, tool := range result.Tools {
		names[i] = tool.Name
	}
	assert.ElementsMatch(t, []string{"clone_repo", "search_code", "get_file", "update_index"}, names)
}

func TestSearchCodeTool(t *testing.T) {
	srv := NewServer(&fakeService{
		results: []domain.SearchResult{{
			Meta: domain.Metadata{
				File:     "main.go",
				Repo:     "owner/repo",
				Code:     "package main",
				Language: "go",
			},
			Score: 0.87,
		}},
	}, nil)

	result := callTool(t, srv, "search_code", map[string]any{"query": "entry point"})
	require.False(t, result.IsError)
	text := toolText(t, result)
	assert.Contains(t, text, "File: main.go")
	assert.Contains(t, text, "Repository: owner/repo")
	assert.Contains(t, text, "Score: 0.87")
	assert.Contains(t, text, "```go\npackage main\n```")
}

func TestSearchCodeToolNoIndexes(t *testing.T) {
	srv := NewServer(&fakeService{searchErr: domain.ErrNoIndexes}, nil)

	result := callTool(t, srv, "search_code", map[string]any{"query": "x"})
	require.False(t, result.IsError)
	assert.Contains(t, toolText(t, result), "No indexes found")
}

func TestGetFileTool(t *testing.T) {
	srv := NewServer(&fakeService{
		entry: domain.Metadata{File: "a.py", Repo: "owner/repo", Code: "pass", Language: "python"},
	}, nil)

	result := callTool(t, srv, "get_file", map[string]any{
		"file_path":  "a.py",
		"repository": "owner/repo",
	})
	require.False(t, result.IsError)
	assert.Contains(t, toolText(t, result), "```python\npass\n```")
}

func TestGetFileToolNotFound(t *testing.T) {
	srv := NewServer(&fakeService{
		entryErr: fmt.Errorf("%w: a.py", domain.ErrEntryNotFound),
	}, nil)

	result := callTool(t, srv, "get_file", map[string]any{
		"file_path":  "a.py",
		"repository": "owner/repo",
	})
	require.False(t, result.IsError)
	assert.Contains(t, toolText(t, result), "not found")
}

func TestUpdateIndexTool(t *testing.T) {
	srv := NewServer(&fakeService{indexRepo: "owner/repo", indexCount: 12}, nil)

	result := callTool(t, srv, "update_index", map[string]any{"repo_path": "/tmp/repo"})
	require.False(t, result.IsError)
	assert.Equal(t, "Successfully indexed 12 files from owner/repo", toolText(t, result))
}

func TestUpdateIndexToolEmptyRepo(t *testing.T) {
	srv := NewServer(&fakeService{
		indexRepo: "owner/repo",
		indexErr:  fmt.Errorf("%w: nothing there", domain.ErrEmptyInput),
	}, nil)

	result := callTool(t, srv, "update_index", map[string]any{"repo_path": "/tmp/repo"})
	require.False(t, result.IsError)
	assert.Equal(t, "No files to index in owner/repo", toolText(t, result))
}

func TestCloneTool(t *testing.T) {
	srv := NewServer(&fakeService{clonePath: "/data/github_repos/owner/repo"}, nil)

	result := callTool(t, srv, "clone_repo", map[string]any{
		"repository_url": "https://github.com/owner/repo",
	})
	require.False(t, result.IsError)
	assert.Contains(t, toolText(t, result), "Successfully cloned repository to /data/github_repos/owner/repo")
}

func TestCloneToolInvalidURL(t *testing.T) {
	srv := NewServer(&fakeService{
		cloneErr: fmt.Errorf("%w: nope", domain.ErrInvalidRepoURL),
	}, nil)

	result := callTool(t, srv, "clone_repo", map[string]any{
		"repository_url": "nope",
	})
	assert.True(t, result.IsError)
}
