// Package mcpserver exposes the bridge as MCP tools over stdio so an
// assistant can read and edit the wireframe.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/fraction12/wireflow/internal/bridge"
	"github.com/fraction12/wireflow/internal/document"
)

// Server wraps the MCP server with WireFlow tools.
type Server struct {
	mcp    *server.MCPServer
	bridge *bridge.Bridge
}

// New creates a new MCP server with all tools registered.
func New(b *bridge.Bridge, version string) *Server {
	s := &Server{bridge: b}

	s.mcp = server.NewMCPServer(
		"WireFlow",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_document",
		mcp.WithDescription("Return the whole wireframe document as JSON."),
	), s.getDocument)

	s.mcp.AddTool(mcp.NewTool("list_frames",
		mcp.WithDescription("List frames with their ids, names, types and element counts."),
	), s.listFrames)

	s.mcp.AddTool(mcp.NewTool("apply_operation",
		mcp.WithDescription("Apply one document operation. Read the wireflow://operations resource "+
			"or call get_operation_contract for the envelope format."),
		mcp.WithString("operation", mcp.Required(), mcp.Description("Operation envelope as a JSON object")),
	), s.applyOperation)

	s.mcp.AddTool(mcp.NewTool("create_element",
		mcp.WithDescription("Add an element to a frame and return its id."),
		mcp.WithString("type", mcp.Required(), mcp.Description("rectangle, ellipse, diamond, text, arrow, line or freedraw"),
			mcp.Enum("rectangle", "ellipse", "diamond", "text", "arrow", "line", "freedraw")),
		mcp.WithNumber("x", mcp.Required()),
		mcp.WithNumber("y", mcp.Required()),
		mcp.WithNumber("width", mcp.Description("Width; ignored for auto-width text")),
		mcp.WithNumber("height"),
		mcp.WithString("content", mcp.Description("Text content for text elements")),
		mcp.WithString("frame_id", mcp.Description("Target frame; defaults to the active frame")),
	), s.createElement)

	s.mcp.AddTool(mcp.NewTool("move_elements",
		mcp.WithDescription("Move elements by an offset. Grouped elements move their whole group."),
		mcp.WithString("ids", mcp.Required(), mcp.Description("Comma-separated element or instance ids")),
		mcp.WithNumber("dx", mcp.Required()),
		mcp.WithNumber("dy", mcp.Required()),
	), s.moveElements)

	s.mcp.AddTool(mcp.NewTool("instantiate_template",
		mcp.WithDescription("Stamp a component template (button, input, card, ...) onto the active frame."),
		mcp.WithString("name", mcp.Required()),
		mcp.WithNumber("x", mcp.Required()),
		mcp.WithNumber("y", mcp.Required()),
	), s.instantiateTemplate)

	s.mcp.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Undo the last change."),
	), s.undo)

	s.mcp.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Redo the last undone change."),
	), s.redo)

	s.mcp.AddTool(mcp.NewTool("get_operation_contract",
		mcp.WithDescription("Return the operation envelope contract."),
	), s.getOperationContract)

	s.mcp.AddResource(
		mcp.NewResource("wireflow://operations", "Operation Contract",
			mcp.WithResourceDescription("Envelope format accepted by apply_operation."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readOperationsResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) apply(op bridge.Operation) *mcp.CallToolResult {
	res, err := s.bridge.Apply(op)
	if err != nil {
		if errors.Is(err, bridge.ErrRejected) {
			return mcp.NewToolResultError(fmt.Sprintf("%s was rejected: the target is missing or locked, or nothing would change", op.Type))
		}
		return mcp.NewToolResultError(err.Error())
	}
	return jsonResult(res)
}

func (s *Server) getDocument(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.bridge.Document()), nil
}

func (s *Server) listFrames(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.bridge.Frames()), nil
}

func (s *Server) applyOperation(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("operation")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var op bridge.Operation
	if err := json.Unmarshal([]byte(raw), &op); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid operation JSON: %v", err)), nil
	}
	return s.apply(op), nil
}

func (s *Server) createElement(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := req.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	x, err := req.RequireFloat("x")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	y, err := req.RequireFloat("y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	el := document.Element{
		Kind:   document.ElementKind(kind),
		X:      x,
		Y:      y,
		Width:  req.GetFloat("width", 100),
		Height: req.GetFloat("height", 60),
	}
	switch el.Kind {
	case document.KindText:
		_, fixed := req.GetArguments()["width"]
		el.Text = &document.TextData{
			Content:   req.GetString("content", ""),
			FontSize:  document.DefaultFontSize,
			AutoWidth: !fixed,
		}
	case document.KindArrow, document.KindLine:
		el.Connector = &document.ConnectorData{StartX: x, StartY: y, EndX: x + el.Width, EndY: y + el.Height}
	case document.KindFreedraw:
		el.Freedraw = &document.FreedrawData{Points: []document.Point{{X: x, Y: y}, {X: x + el.Width, Y: y + el.Height}}}
	}

	return s.apply(bridge.Operation{
		Type:    bridge.TypeElementCreate,
		FrameID: req.GetString("frame_id", ""),
		Element: &el,
	}), nil
}

func (s *Server) moveElements(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dx, err := req.RequireFloat("dx")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dy, err := req.RequireFloat("dy")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return s.apply(bridge.Operation{Type: bridge.TypeElementMove, IDs: ids, DX: dx, DY: dy}), nil
}

func (s *Server) instantiateTemplate(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	x, err := req.RequireFloat("x")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	y, err := req.RequireFloat("y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.apply(bridge.Operation{Type: bridge.TypeTemplateInstantiate, Template: name, X: x, Y: y}), nil
}

func (s *Server) undo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.apply(bridge.Operation{Type: bridge.TypeHistoryUndo}), nil
}

func (s *Server) redo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.apply(bridge.Operation{Type: bridge.TypeHistoryRedo}), nil
}

func (s *Server) getOperationContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(OperationContract), nil
}

func (s *Server) readOperationsResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "wireflow://operations",
			MIMEType: "text/markdown",
			Text:     OperationContract,
		},
	}, nil
}
