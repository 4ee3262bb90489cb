package server

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/mikeboe/agent-helper/pkg/report"
)

//go:embed index.html
var indexHTML []byte

// MCPRequest represents an MCP JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an MCP JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents an MCP error
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type Handler struct {
	Service  *Service
	MCP      *MCPSessions
	markdown goldmark.Markdown
}

func NewHandler(s *Service) *Handler {
	return &Handler{
		Service:  s,
		MCP:      NewMCPSessions(DefaultMCPIdleTTL),
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.index)
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/start_report", h.startReport)
	r.GET("/status/:id", h.streamStatus)
	r.POST("/mcp", h.MCPHandler)

	api := r.Group("/api")
	{
		api.POST("/reports", h.createReport)
		api.GET("/reports", h.listJobs)
		api.GET("/reports/:id", h.getJob)
		api.GET("/reports/:id/logs", h.getJobLogs)

		api.POST("/trips", h.planTrip)
	}
}

func (h *Handler) index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

func (h *Handler) startReport(c *gin.Context) {
	count, _ := strconv.Atoi(c.Query("count"))
	h.start(c, CreateReportRequest{
		Query:  c.Query("query"),
		Count:  count,
		Window: c.Query("window"),
	}, http.StatusOK)
}

func (h *Handler) createReport(c *gin.Context) {
	var req CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.start(c, req, http.StatusCreated)
}

func (h *Handler) start(c *gin.Context, req CreateReportRequest, status int) {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No query provided"})
		return
	}

	session, err := h.Service.StartReport(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(status, gin.H{"session_id": session.ID})
}

func (h *Handler) streamStatus(c *gin.Context) {
	session, err := h.Service.Sessions.Attach(c.Param("id"))
	switch {
	case errors.Is(err, ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	case errors.Is(err, ErrSessionBusy):
		c.JSON(http.StatusConflict, gin.H{"error": "Session is already being streamed"})
		return
	}
	defer h.Service.Sessions.Detach(session)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-session.Events():
			if !ok {
				writeEvent(c, h.completeEvent(session.Result()))
				return
			}
			writeEvent(c, ev)
		}
	}
}

func (h *Handler) completeEvent(res report.Result) Event {
	return Event{
		Status:      statusComplete,
		Report:      h.renderMarkdown(res.Report),
		HeaderImage: res.HeaderImage,
		ImagePrompt: res.ImagePrompt,
		Sources:     res.Sources,
	}
}

func (h *Handler) renderMarkdown(md string) string {
	var buf bytes.Buffer
	if err := h.markdown.Convert([]byte(md), &buf); err != nil {
		h.Service.logger().Warn("Markdown rendering failed", "error", err)
		return "<pre>" + html.EscapeString(md) + "</pre>"
	}
	return buf.String()
}

func writeEvent(c *gin.Context, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = c.Writer.Write([]byte("data: "))
	_, _ = c.Writer.Write(data)
	_, _ = c.Writer.Write([]byte("\n\n"))
	c.Writer.Flush()
}

func (h *Handler) planTrip(c *gin.Context) {
	var req TripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No question provided"})
		return
	}

	resp, err := h.Service.PlanTrip(c.Request.Context(), req)
	switch {
	case errors.Is(err, ErrTripAborted):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": resp.Summary, "summary": resp.Summary, "state": resp.State})
	case err != nil:
		h.Service.logger().Error("Trip planning failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": fmt.Sprintf("Trip planning failed: %v", err)})
	default:
		c.JSON(http.StatusOK, resp)
	}
}

// MCPHandler handles MCP protocol requests
func (h *Handler) MCPHandler(c *gin.Context) {
	sessionID := c.GetHeader("Mcp-Session-Id")

	var req MCPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, MCPResponse{
			JSONRPC: "2.0",
			ID:      nil,
			Error: &MCPError{
				Code:    -32700,
				Message: "Parse error",
			},
		})
		return
	}

	if req.Method == "initialize" {
		if sessionID == "" {
			sessionID = h.MCP.Open()
			c.Header("Mcp-Session-Id", sessionID)
		}

		c.JSON(http.StatusOK, MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result: map[string]interface{}{
				"protocolVersion": "2024-11-05",
				"serverInfo": map[string]interface{}{
					"name":    "agent-helper-mcp",
					"version": "1.0.0",
				},
				"capabilities": map[string]interface{}{
					"tools": map[string]interface{}{},
				},
			},
		})
		return
	}

	if sessionID == "" {
		c.JSON(http.StatusBadRequest, MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32000,
				Message: "Bad Request: No valid session ID provided",
			},
		})
		return
	}

	if !h.MCP.Touch(sessionID) {
		c.JSON(http.StatusBadRequest, MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32000,
				Message: "Invalid session ID",
			},
		})
		return
	}

	switch req.Method {
	case "tools/list":
		h.handleToolsList(c, req)
	case "tools/call":
		h.handleToolsCall(c, req)
	case "ping":
		c.JSON(http.StatusOK, MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		})
	default:
		c.JSON(http.StatusOK, MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: "Method not found",
			},
		})
	}
}

func (h *Handler) handleToolsList(c *gin.Context, req MCPRequest) {
	c.JSON(http.StatusOK, MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": []map[string]interface{}{
				{
					"name":        "news_report",
					"description": "Search recent Norwegian news about a company and write a Markdown report with sentiment per source.",
					"inputSchema": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"query": map[string]interface{}{
								"type":        "string",
								"description": "Company or topic to report on.",
							},
							"count": map[string]interface{}{
								"type":        "number",
								"description": "Number of relevant articles to include.",
								"default":     5,
							},
							"window": map[string]interface{}{
								"type":        "string",
								"description": "Recency window: day, week, month or year.",
								"default":     "week",
							},
						},
						"required": []string{"query"},
					},
				},
				{
					"name":        "plan_trip",
					"description": "Plan a public transport trip in Norway from a natural-language question.",
					"inputSchema": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"question": map[string]interface{}{
								"type":        "string",
								"description": "The travel question, e.g. 'From Oslo S to Majorstuen'.",
							},
							"wheelchair": map[string]interface{}{
								"type":        "boolean",
								"description": "Traveller uses a wheelchair.",
							},
							"visually_impaired": map[string]interface{}{
								"type":        "boolean",
								"description": "Traveller is visually impaired.",
							},
						},
						"required": []string{"question"},
					},
				},
			},
		},
	})
}

func (h *Handler) handleToolsCall(c *gin.Context, req MCPRequest) {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}

	if err := json.Unmarshal(req.Params, &params); err != nil {
		h.sendError(c, req.ID, -32602, "Invalid params")
		return
	}

	switch params.Name {
	case "news_report":
		var args CreateReportRequest
		if err := json.Unmarshal(params.Arguments, &args); err != nil || strings.TrimSpace(args.Query) == "" {
			h.sendError(c, req.ID, -32602, "Invalid arguments")
			return
		}
		res := h.Service.RunReport(c.Request.Context(), args)
		h.sendResult(c, req.ID, res.Report)

	case "plan_trip":
		var args TripRequest
		if err := json.Unmarshal(params.Arguments, &args); err != nil || strings.TrimSpace(args.Question) == "" {
			h.sendError(c, req.ID, -32602, "Invalid arguments")
			return
		}
		resp, err := h.Service.PlanTrip(c.Request.Context(), args)
		if err != nil && !errors.Is(err, ErrTripAborted) {
			h.sendError(c, req.ID, -32603, fmt.Sprintf("Trip planning failed: %v", err))
			return
		}
		h.sendResult(c, req.ID, resp.Summary)

	default:
		h.sendError(c, req.ID, -32601, fmt.Sprintf("Tool not found: %s", params.Name))
	}
}

func (h *Handler) sendError(c *gin.Context, id interface{}, code int, msg string) {
	c.JSON(http.StatusOK, MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: msg,
		},
	})
}

func (h *Handler) sendResult(c *gin.Context, id interface{}, text string) {
	c.JSON(http.StatusOK, MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": text,
				},
			},
		},
	})
}

func (h *Handler) jobError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrPersistenceDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, pgx.ErrNoRows):
		c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *Handler) listJobs(c *gin.Context) {
	jobs, err := h.Service.ListJobs(c.Request.Context())
	if err != nil {
		h.jobError(c, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (h *Handler) getJob(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uuid"})
		return
	}

	job, err := h.Service.GetJob(c.Request.Context(), id)
	if err != nil {
		h.jobError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *Handler) getJobLogs(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uuid"})
		return
	}

	logs, err := h.Service.GetJobLogs(c.Request.Context(), id)
	if err != nil {
		h.jobError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}
