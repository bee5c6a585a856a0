package mcp

import "github.com/mark3labs/mcp-go/mcp"

// Addressing options shared by every tool that targets one collection.
func addressed(opts ...mcp.ToolOption) []mcp.ToolOption {
	return append([]mcp.ToolOption{
		mcp.WithString("id", mcp.Description("Collection id. Give either id or name.")),
		mcp.WithString("name", mcp.Description("Collection name, matched case-insensitively. Must be unique.")),
	}, opts...)
}

var listToolDef = mcp.NewTool("collection_list",
	mcp.WithDescription("List collections in display order, newest first unless reordered."),
	mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 100).")),
	mcp.WithNumber("offset", mcp.Description("Number of collections to skip.")),
)

var searchToolDef = mcp.NewTool("collection_search",
	mcp.WithDescription("Find collections whose name, or any tab title or url, contains the query (case-insensitive)."),
	mcp.WithString("query", mcp.Required(), mcp.Description("Substring to look for.")),
	mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 100).")),
	mcp.WithNumber("offset", mcp.Description("Number of matches to skip.")),
)

var getToolDef = mcp.NewTool("collection_get",
	addressed(mcp.WithDescription("Fetch one collection with all of its tabs."))...,
)

var createToolDef = mcp.NewTool("collection_create",
	mcp.WithDescription("Create a collection at the top of the list. Tabs with an empty url are dropped; duplicate urls keep the first."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Display name.")),
	mcp.WithArray("tabs",
		mcp.Description("Initial tabs. Omit for an empty collection."),
		mcp.Items(map[string]any{
			"type": "object",
			"properties": map[string]any{
				"url":        map[string]any{"type": "string"},
				"title":      map[string]any{"type": "string"},
				"favIconUrl": map[string]any{"type": "string"},
			},
			"required": []string{"url"},
		}),
	),
)

var renameToolDef = mcp.NewTool("collection_rename",
	addressed(
		mcp.WithDescription("Rename a collection. A blank or unchanged name is a no-op."),
		mcp.WithString("new_name", mcp.Required(), mcp.Description("New display name.")),
	)...,
)

var deleteToolDef = mcp.NewTool("collection_delete",
	addressed(mcp.WithDescription("Delete a collection and all of its tabs. Cannot be undone."))...,
)

var moveToolDef = mcp.NewTool("collection_move",
	addressed(
		mcp.WithDescription("Move a collection so it sits immediately before another one."),
		mcp.WithString("before_id", mcp.Description("Id of the collection to move in front of.")),
		mcp.WithString("before_name", mcp.Description("Name of the collection to move in front of.")),
	)...,
)

var exportToolDef = mcp.NewTool("collection_export",
	mcp.WithDescription("Write every collection to a file. JSON exports can be imported again."),
	mcp.WithString("path", mcp.Description("Destination file. Defaults to ~/.tabshelf/exports/collections-<timestamp>.<ext>.")),
	mcp.WithString("format", mcp.Description("Output format."), mcp.Enum("json", "markdown")),
)

var importToolDef = mcp.NewTool("collection_import",
	mcp.WithDescription("Load collections from a JSON export."),
	mcp.WithString("path", mcp.Required(), mcp.Description("A .json file written by collection_export.")),
	mcp.WithString("mode", mcp.Description("merge prepends collections with new ids; replace overwrites everything."), mcp.Enum("merge", "replace")),
)

var tabAddToolDef = mcp.NewTool("tab_add",
	addressed(
		mcp.WithDescription("Append a tab to a collection. Fails with DUPLICATE if the url is already there."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Tab url.")),
		mcp.WithString("title", mcp.Description("Tab title. Defaults to the url's host.")),
		mcp.WithString("fav_icon_url", mcp.Description("Favicon url.")),
	)...,
)

var tabRemoveToolDef = mcp.NewTool("tab_remove",
	addressed(
		mcp.WithDescription("Remove the tab with the given url from a collection."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Url of the tab to remove.")),
	)...,
)

var tabRenameToolDef = mcp.NewTool("tab_rename",
	addressed(
		mcp.WithDescription("Change a tab's title. A blank or unchanged title is a no-op."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Url of the tab to rename.")),
		mcp.WithString("title", mcp.Required(), mcp.Description("New title.")),
	)...,
)
