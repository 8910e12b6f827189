// Package mcp exposes the lead store to MCP clients, so desk assistants can
// search the pipeline and schedule follow-ups through the same data layer the
// CLI uses.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/digiheadway/sales-crm/internal/crm"
)

// NewServer creates an MCP server with the lead and todo tools registered.
func NewServer(store *crm.Store) *server.MCPServer {
	s := server.NewMCPServer(
		"salescrm",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions("salescrm — lead and follow-up data for the sales pipeline."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("search_leads",
			mcp.WithDescription("Search leads by free text and/or pipeline stage. Returns one page of matches."),
			mcp.WithString("query", mcp.Description("Free-text search over name, phone, and requirement")),
			mcp.WithString("stage", mcp.Description("Pipeline stage filter (e.g. Fresh Lead, Contacted)")),
			mcp.WithNumber("page", mcp.Description("Page number (default 1)")),
			mcp.WithNumber("limit", mcp.Description("Results per page (default 20)")),
		),
		toolSearchLeads(store),
	)

	s.AddTool(
		mcp.NewTool("get_lead",
			mcp.WithDescription("Fetch a single lead by id."),
			mcp.WithNumber("id", mcp.Description("Lead id"), mcp.Required()),
		),
		toolGetLead(store),
	)

	s.AddTool(
		mcp.NewTool("list_todos",
			mcp.WithDescription("List follow-up todos, optionally scoped to one lead."),
			mcp.WithNumber("lead_id", mcp.Description("Restrict to todos of this lead")),
		),
		toolListTodos(store),
	)

	s.AddTool(
		mcp.NewTool("add_todo",
			mcp.WithDescription("Schedule a follow-up activity for a lead."),
			mcp.WithNumber("lead_id", mcp.Description("Lead id"), mcp.Required()),
			mcp.WithString("description", mcp.Description("What to do"), mcp.Required()),
			mcp.WithString("scheduled_at", mcp.Description("When, as ISO 8601"), mcp.Required()),
		),
		toolAddTodo(store),
	)

	return s
}

func toolSearchLeads(store *crm.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		q := crm.DefaultLeadQuery()
		q.Search = req.GetString("query", "")
		if page := req.GetInt("page", 0); page >= 1 {
			q.Page = page
		}
		if limit := req.GetInt("limit", 0); limit >= 1 {
			q.PerPage = limit
		}
		if stage := req.GetString("stage", ""); stage != "" {
			q.Filters = append(q.Filters, crm.FilterOption{Field: "stage", Op: crm.OpEq, Value: stage})
		}

		page, err := store.FetchLeads(ctx, q)
		if err != nil {
			return toolError("searching leads: %v", err), nil
		}
		return jsonResult(map[string]any{"leads": page.Items, "total": page.Total})
	}
}

func toolGetLead(store *crm.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireInt("id")
		if err != nil {
			return toolError("id is required"), nil
		}
		lead, ok, err := store.FetchLead(ctx, int64(id))
		if err != nil {
			return toolError("fetching lead: %v", err), nil
		}
		if !ok {
			return toolError("no lead with id %d", id), nil
		}
		return jsonResult(lead)
	}
}

func toolListTodos(store *crm.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := store.FetchTodos(ctx); err != nil {
			return toolError("fetching todos: %v", err), nil
		}
		var todos []crm.Todo
		if leadID := req.GetInt("lead_id", 0); leadID > 0 {
			todos = store.TodosByLead(int64(leadID))
		} else {
			todos = store.Todos()
		}
		return jsonResult(map[string]any{"todos": todos})
	}
}

func toolAddTodo(store *crm.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		leadID, err := req.RequireInt("lead_id")
		if err != nil {
			return toolError("lead_id is required"), nil
		}
		description, err := req.RequireString("description")
		if err != nil {
			return toolError("description is required"), nil
		}
		scheduledAt, err := req.RequireString("scheduled_at")
		if err != nil {
			return toolError("scheduled_at is required"), nil
		}

		draft := crm.TodoDraft{
			LeadID:      int64(leadID),
			Description: description,
			ScheduledAt: scheduledAt,
		}
		if err := store.AddTodo(ctx, draft); err != nil {
			return toolError("adding todo: %v", err), nil
		}
		return mcp.NewToolResultText("todo scheduled"), nil
	}
}

func toolError(format string, args ...any) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf(format, args...))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return toolError("encoding result: %v", err), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
