// Package mcptools exposes the code search operations as Model Context
// Protocol tools over stdio.
package mcptools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"coderag/internal/domain"
)

// SearchService is the subset of the application service the tools need.
type SearchService interface {
	Clone(ctx context.Context, url, branch string) (string, error)
	UpdateIndex(ctx context.Context, repoPath string) (string, int, error)
	Search(ctx context.Context, query string, topK int, repoFilter string) ([]domain.SearchResult, error)
	GetEntry(repo, filePath string) (domain.Metadata, error)
}

// Server wraps the MCP server with the code search tools.
type Server struct {
	mcpServer *server.MCPServer
	service   SearchService
	logger    *zap.Logger
}

// NewServer creates an MCP server exposing clone_repo, search_code,
// get_file, and update_index.
func NewServer(service SearchService, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{service: service, logger: logger}

	mcpServer := server.NewMCPServer(
		"coderag",
		"0.1.0",
		server.WithToolCapabilities(true),
	)
	s.registerTools(mcpServer)
	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	cloneTool := mcp.NewTool("clone_repo",
		mcp.WithDescription("Clone a GitHub repository"),
		mcp.WithString("repository_url",
			mcp.Required(),
			mcp.Description("GitHub repository URL (e.g., https://github.com/owner/repo)"),
		),
		mcp.WithString("branch",
			mcp.Description("Optional: specific branch to clone"),
		),
	)
	mcpServer.AddTool(cloneTool, s.handleClone)

	searchTool := mcp.NewTool("search_code",
		mcp.WithDescription("Search for code using natural language or code snippets"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query (can be natural language or code)"),
		),
		mcp.WithString("repository",
			mcp.Description("Optional: specific repository to search in"),
		),
		mcp.WithNumber("num_results",
			mcp.Description("Number of results to return (default: 5)"),
		),
	)
	mcpServer.AddTool(searchTool, s.handleSearch)

	getFileTool := mcp.NewTool("get_file",
		mcp.WithDescription("Get the content of a specific file"),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("File path relative to repository"),
		),
		mcp.WithString("repository",
			mcp.Required(),
			mcp.Description("Repository name"),
		),
	)
	mcpServer.AddTool(getFileTool, s.handleGetFile)

	updateIndexTool := mcp.NewTool("update_index",
		mcp.WithDescription("Update the code index for a repository"),
		mcp.WithString("repo_path",
			mcp.Required(),
			mcp.Description("Path to repository directory"),
		),
	)
	mcpServer.AddTool(updateIndexTool, s.handleUpdateIndex)
}

func (s *Server) handleClone(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("repository_url")
	if err != nil {
		return mcp.NewToolResultError("repository_url is required"), nil
	}
	branch := request.GetString("branch", "")

	path, err := s.service.Clone(ctx, url, branch)
	if err != nil {
		s.logger.Error("clone failed", zap.String("url", url), zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("clone failed: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Successfully cloned repository to %s\n"+
			"To index this repository, use the update_index tool with:\n"+
			"repo_path: %s", path, path)), nil
}

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query is required"), nil
	}
	topK := request.GetInt("num_results", 5)
	repository := request.GetString("repository", "")

	results, err := s.service.Search(ctx, query, topK, repository)
	if err != nil {
		if errors.Is(err, domain.ErrNoIndexes) {
			return mcp.NewToolResultText("No indexes found. Please update the index first."), nil
		}
		if errors.Is(err, domain.ErrRepoNotIndexed) {
			return mcp.NewToolResultText(fmt.Sprintf(
				"Repository %s is not indexed. Please update the index first.", repository)), nil
		}
		s.logger.Error("search failed", zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No matches found."), nil
	}

	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "File: %s\nRepository: %s\nScore: %.2f\nCode:\n```%s\n%s\n```\n\n",
			r.Meta.File, r.Meta.Repo, r.Score, r.Meta.Language, r.Meta.Code)
	}
	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}

func (s *Server) handleGetFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filePath, err := request.RequireString("file_path")
	if err != nil {
		return mcp.NewToolResultError("file_path is required"), nil
	}
	repository, err := request.RequireString("repository")
	if err != nil {
		return mcp.NewToolResultError("repository is required"), nil
	}

	meta, err := s.service.GetEntry(repository, filePath)
	if err != nil {
		if errors.Is(err, domain.ErrRepoNotIndexed) {
			return mcp.NewToolResultText(fmt.Sprintf(
				"Repository %s is not indexed. Please update the index first.", repository)), nil
		}
		if errors.Is(err, domain.ErrEntryNotFound) {
			return mcp.NewToolResultText(fmt.Sprintf(
				"File %s not found in repository %s.", filePath, repository)), nil
		}
		s.logger.Error("get file failed", zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("get file failed: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"File: %s\nRepository: %s\nCode:\n```%s\n%s\n```",
		meta.File, meta.Repo, meta.Language, meta.Code)), nil
}

func (s *Server) handleUpdateIndex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repoPath, err := request.RequireString("repo_path")
	if err != nil {
		return mcp.NewToolResultError("repo_path is required"), nil
	}

	repo, count, err := s.service.UpdateIndex(ctx, repoPath)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyInput) {
			return mcp.NewToolResultText(fmt.Sprintf("No files to index in %s", repo)), nil
		}
		s.logger.Error("update index failed", zap.String("path", repoPath), zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("update index failed: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Successfully indexed %d files from %s", count, repo)), nil
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio runs the MCP server on stdio until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
