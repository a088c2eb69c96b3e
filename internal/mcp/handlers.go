package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/satchel/internal/errors"
	"github.com/hpungsan/satchel/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers. The tool surface runs
// over stdio for one local user, so every call acts as userID.
type Handlers struct {
	env    *ops.Env
	userID string
}

// NewHandlers creates a new Handlers instance acting as the given user.
func NewHandlers(env *ops.Env, userID string) *Handlers {
	return &Handlers{env: env, userID: userID}
}

// Request types for each tool

// ListRequest represents the arguments for artifact_list.
type ListRequest struct {
	SessionID      string `json:"session_id"`
	Limit          int    `json:"limit,omitempty"`
	Offset         int    `json:"offset,omitempty"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
}

// GetRequest represents the arguments for artifact_get.
type GetRequest struct {
	ID             string `json:"id"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
}

// ListFilesRequest represents the arguments for artifact_list_files.
type ListFilesRequest struct {
	ID     string `json:"id"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// ReadFileRequest represents the arguments for artifact_read_file.
type ReadFileRequest struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// Tool definitions

var listToolDef = mcp.NewTool("artifact_list",
	mcp.WithDescription("List the artifacts attached to a chat session, newest first."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ULID")),
	mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Page offset")),
	mcp.WithBoolean("include_deleted", mcp.Description("Include soft-deleted artifacts")),
)

var getToolDef = mcp.NewTool("artifact_get",
	mcp.WithDescription("Fetch a single artifact record by id."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Artifact ULID")),
	mcp.WithBoolean("include_deleted", mcp.Description("Allow fetching a soft-deleted artifact")),
)

var listFilesToolDef = mcp.NewTool("artifact_list_files",
	mcp.WithDescription("List the files of a repository or zip artifact, in insertion order."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Artifact ULID")),
	mcp.WithNumber("limit", mcp.Description("Page size (default 100, max 500)")),
	mcp.WithNumber("offset", mcp.Description("Page offset")),
)

var readFileToolDef = mcp.NewTool("artifact_read_file",
	mcp.WithDescription("Read one file's content from a repository or zip artifact."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Artifact ULID")),
	mcp.WithString("path", mcp.Required(), mcp.Description("Relative file path as reported by artifact_list_files")),
)

// Handler implementations

// HandleList handles the artifact_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ListArtifacts(h.env, ops.ListArtifactsInput{
		SessionID:      input.SessionID,
		UserID:         h.userID,
		Limit:          input.Limit,
		Offset:         input.Offset,
		IncludeDeleted: input.IncludeDeleted,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleGet handles the artifact_get tool call.
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.GetArtifact(h.env, ops.GetArtifactInput{
		ID:             input.ID,
		UserID:         h.userID,
		IncludeDeleted: input.IncludeDeleted,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleListFiles handles the artifact_list_files tool call.
func (h *Handlers) HandleListFiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListFilesRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ListFiles(h.env, ops.ListFilesInput{
		ID:     input.ID,
		UserID: h.userID,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleReadFile handles the artifact_read_file tool call.
func (h *Handlers) HandleReadFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReadFileRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ReadFile(h.env, ops.ReadFileInput{
		ID:     input.ID,
		UserID: h.userID,
		Path:   input.Path,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// errorResult creates an MCP error result from any error.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if satchelErr, ok := err.(*errors.SatchelError); ok {
		errorObj := map[string]any{
			"code":    satchelErr.Code,
			"message": satchelErr.Message,
			"status":  satchelErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if satchelErr.Code != errors.ErrInternal && satchelErr.Details != nil {
			errorObj["details"] = satchelErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
