package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/tabshelf/internal/collection"
	"github.com/hpungsan/tabshelf/internal/config"
	"github.com/hpungsan/tabshelf/internal/errors"
	"github.com/hpungsan/tabshelf/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	store *ops.Store
	cfg   *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(store *ops.Store, cfg *config.Config) *Handlers {
	return &Handlers{store: store, cfg: cfg}
}

// Request types for each tool

// AddressRequest names one collection by id or by name.
type AddressRequest struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// ListRequest represents the arguments for collection_list.
type ListRequest struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// SearchRequest represents the arguments for collection_search.
type SearchRequest struct {
	Query  string `json:"query"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// TabArg is one tab in collection_create.
type TabArg struct {
	URL        string `json:"url"`
	Title      string `json:"title,omitempty"`
	FavIconURL string `json:"favIconUrl,omitempty"`
}

// CreateRequest represents the arguments for collection_create.
type CreateRequest struct {
	Name string   `json:"name"`
	Tabs []TabArg `json:"tabs,omitempty"`
}

// RenameRequest represents the arguments for collection_rename.
type RenameRequest struct {
	AddressRequest
	NewName string `json:"new_name"`
}

// MoveRequest represents the arguments for collection_move.
type MoveRequest struct {
	AddressRequest
	BeforeID   string `json:"before_id,omitempty"`
	BeforeName string `json:"before_name,omitempty"`
}

// ExportRequest represents the arguments for collection_export.
type ExportRequest struct {
	Path   string `json:"path,omitempty"`
	Format string `json:"format,omitempty"`
}

// ImportRequest represents the arguments for collection_import.
type ImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// TabRequest represents the arguments for tab_add, tab_remove and tab_rename.
type TabRequest struct {
	AddressRequest
	URL        string `json:"url"`
	Title      string `json:"title,omitempty"`
	FavIconURL string `json:"fav_icon_url,omitempty"`
}

// resolve looks up the collection an address names.
func (h *Handlers) resolve(id, name string) (collection.Collection, error) {
	addr, err := ops.ValidateAddress(id, name)
	if err != nil {
		return collection.Collection{}, err
	}
	return h.store.Resolve(addr)
}

// Handler implementations

// HandleList handles the collection_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.store.Search(ops.SearchInput{Limit: input.Limit, Offset: input.Offset})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSearch handles the collection_search tool call.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if strings.TrimSpace(input.Query) == "" {
		return errorResult(errors.NewInvalidRequest("query is required")), nil
	}

	result, err := h.store.Search(ops.SearchInput{Query: input.Query, Limit: input.Limit, Offset: input.Offset})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleGet handles the collection_get tool call.
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AddressRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	c, err := h.resolve(input.ID, input.Name)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(c)
}

// HandleCreate handles the collection_create tool call.
func (h *Handlers) HandleCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	var result *ops.CreateOutput
	if len(input.Tabs) == 0 {
		result, err = h.store.CreateEmpty(ctx, input.Name)
	} else {
		tabs := make([]collection.TabEntry, 0, len(input.Tabs))
		for _, t := range input.Tabs {
			tabs = append(tabs, collection.TabEntry{
				URL:        t.URL,
				Title:      collection.DisplayTitle(t.Title, t.URL),
				FavIconURL: collection.StringPtr(t.FavIconURL),
			})
		}
		result, err = h.store.CreateFromOpenTabs(ctx, ops.CreateInput{Name: input.Name, Tabs: tabs})
	}
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleRename handles the collection_rename tool call.
func (h *Handlers) HandleRename(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RenameRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	c, err := h.resolve(input.ID, input.Name)
	if err != nil {
		return errorResult(err), nil
	}
	result, err := h.store.Rename(ctx, ops.RenameInput{ID: c.ID, Name: input.NewName})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleDelete handles the collection_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AddressRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	c, err := h.resolve(input.ID, input.Name)
	if err != nil {
		return errorResult(err), nil
	}
	result, err := h.store.Delete(ctx, c.ID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleMove handles the collection_move tool call.
func (h *Handlers) HandleMove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[MoveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	dragged, err := h.resolve(input.ID, input.Name)
	if err != nil {
		return errorResult(err), nil
	}
	target, err := h.resolve(input.BeforeID, input.BeforeName)
	if err != nil {
		return errorResult(err), nil
	}
	result, err := h.store.Reorder(ctx, ops.ReorderInput{DraggedID: dragged.ID, BeforeID: target.ID})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleExport handles the collection_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Export(ctx, h.store, h.cfg, ops.ExportInput{
		Path:   input.Path,
		Format: ops.ExportFormat(input.Format),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleImport handles the collection_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Import(ctx, h.store, h.cfg, ops.ImportInput{
		Path: input.Path,
		Mode: ops.ImportMode(input.Mode),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleTabAdd handles the tab_add tool call.
func (h *Handlers) HandleTabAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TabRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	c, err := h.resolve(input.ID, input.Name)
	if err != nil {
		return errorResult(err), nil
	}
	result, err := h.store.AddTab(ctx, ops.AddTabInput{
		CollectionID: c.ID,
		Tab: collection.TabEntry{
			URL:        input.URL,
			Title:      collection.DisplayTitle(input.Title, input.URL),
			FavIconURL: collection.StringPtr(input.FavIconURL),
		},
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleTabRemove handles the tab_remove tool call.
func (h *Handlers) HandleTabRemove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TabRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.URL == "" {
		return errorResult(errors.NewInvalidRequest("url is required")), nil
	}

	c, err := h.resolve(input.ID, input.Name)
	if err != nil {
		return errorResult(err), nil
	}
	result, err := h.store.DeleteTab(ctx, ops.DeleteTabInput{CollectionID: c.ID, URL: input.URL})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleTabRename handles the tab_rename tool call.
func (h *Handlers) HandleTabRename(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TabRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	c, err := h.resolve(input.ID, input.Name)
	if err != nil {
		return errorResult(err), nil
	}
	result, err := h.store.RenameTab(ctx, ops.RenameTabInput{CollectionID: c.ID, URL: input.URL, Title: input.Title})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if sErr, ok := errors.As(err); ok {
		message := sErr.Message
		// keep wrapper context such as "tabs[2]: "
		if full := err.Error(); full != sErr.Error() && strings.HasSuffix(full, sErr.Error()) {
			message = strings.TrimSuffix(full, sErr.Error()) + sErr.Message
		}
		if sErr.Code == errors.ErrInternal {
			message = "an internal error occurred"
		}
		errorObj := map[string]any{
			"code":    sErr.Code,
			"message": message,
			"status":  sErr.Status,
		}
		if sErr.Code != errors.ErrInternal && sErr.Details != nil {
			errorObj["details"] = sErr.Details
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
