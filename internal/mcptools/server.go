// Package mcptools exposes the rating engine as Model Context Protocol tools.
package mcptools

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/fieldrank/internal/matchmaking"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// AuthHeader carries the API key. A bearer token is accepted too.
const AuthHeader = "X-API-Key"

// ToolInfo describes a registered tool.
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Server holds the MCP server and its tools.
type Server struct {
	svc      matchmaking.MatchmakingService
	server   *mcp.Server
	registry []ToolInfo
}

// New registers every tool on a fresh MCP server.
func New(svc matchmaking.MatchmakingService, version string) *Server {
	s := &Server{
		svc: svc,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "fieldrank-mcp",
			Version: version,
		}, nil),
	}

	addTool(s, &mcp.Tool{
		Name:        "estimate_outcome",
		Description: "Win/draw/lose probabilities for a pairing, from skills or player ids",
	}, s.estimateOutcome)
	addTool(s, &mcp.Tool{
		Name:        "suggest_opponents",
		Description: "Rank the players of a venue as opponents for a player or skill",
	}, s.suggestOpponents)
	addTool(s, &mcp.Tool{
		Name:        "field_leaderboard",
		Description: "The ranked leaderboard of a venue",
	}, s.fieldLeaderboard)
	addTool(s, &mcp.Tool{
		Name:        "alternative_slots",
		Description: "Up to three free court slots closest to a requested time",
	}, s.alternativeSlots)
	addTool(s, &mcp.Tool{
		Name:        "player_profile",
		Description: "Skill, record and recent form of a player",
	}, s.playerProfile)

	return s
}

func addTool[T any](s *Server, tool *mcp.Tool, handler func(context.Context, *mcp.CallToolRequest, T) (*mcp.CallToolResult, any, error)) {
	s.registry = append(s.registry, ToolInfo{Name: tool.Name, Description: tool.Description})
	mcp.AddTool(s.server, tool, handler)
}

// Tools lists the registered tools.
func (s *Server) Tools() []ToolInfo {
	return append([]ToolInfo(nil), s.registry...)
}

// Handler serves the streamable HTTP transport. When apiKey is set, requests
// must present it in AuthHeader or as a bearer token.
func (s *Server) Handler(apiKey string) http.Handler {
	handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return s.server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})
	return withAuth(strings.TrimSpace(apiKey), handler)
}

func withAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if apiKey == "" {
			next.ServeHTTP(w, r)
			return
		}
		key := strings.TrimSpace(r.Header.Get(AuthHeader))
		if key == "" {
			if authz := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				key = strings.TrimSpace(authz[7:])
			}
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			log.Warn("Rejected MCP request", "remote", r.RemoteAddr)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"unauthorized"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) estimateOutcome(ctx context.Context, _ *mcp.CallToolRequest, args EstimateArgs) (*mcp.CallToolResult, any, error) {
	p, err := s.svc.Estimate(ctx, matchmaking.EstimateRequest{
		MySkill:       args.MySkill,
		OpponentSkill: args.OpponentSkill,
		PlayerID:      args.PlayerID,
		OpponentID:    args.OpponentID,
		FieldID:       args.FieldID,
	})
	return toolJSON(p, err)
}

func (s *Server) suggestOpponents(ctx context.Context, _ *mcp.CallToolRequest, args OpponentsArgs) (*mcp.CallToolResult, any, error) {
	if args.PlayerID == "" && args.Skill == nil {
		return toolError(errors.New("player_id or skill is required")), nil, nil
	}
	out, err := s.svc.SuggestOpponents(ctx, matchmaking.OpponentsRequest{
		FieldID:  args.FieldID,
		PlayerID: args.PlayerID,
		Skill:    args.Skill,
		Limit:    args.Limit,
	})
	return toolJSON(OpponentsResult{FieldID: args.FieldID, Suggestions: out}, err)
}

func (s *Server) fieldLeaderboard(ctx context.Context, _ *mcp.CallToolRequest, args LeaderboardArgs) (*mcp.CallToolResult, any, error) {
	lb, err := s.svc.Leaderboard(ctx, args.FieldID)
	if err != nil {
		return toolError(err), nil, nil
	}
	if args.Limit > 0 && len(lb.Entries) > args.Limit {
		lb.Entries = lb.Entries[:args.Limit]
	}
	return toolJSON(lb, nil)
}

func (s *Server) alternativeSlots(ctx context.Context, _ *mcp.CallToolRequest, args AlternativesArgs) (*mcp.CallToolResult, any, error) {
	if args.FacilityID == "" || args.Date == "" || args.TimeRange == "" {
		return toolError(errors.New("facility_id, date and time_range are required")), nil, nil
	}
	out := s.svc.Alternatives(ctx, args.FacilityID, args.Date, args.TimeRange)
	return toolJSON(AlternativesResult{Requested: args.TimeRange, Alternatives: out}, nil)
}

func (s *Server) playerProfile(ctx context.Context, _ *mcp.CallToolRequest, args ProfileArgs) (*mcp.CallToolResult, any, error) {
	p, err := s.svc.Profile(ctx, args.PlayerID, args.FieldID)
	return toolJSON(p, err)
}

func toolJSON(v any, err error) (*mcp.CallToolResult, any, error) {
	if err != nil {
		return toolError(err), nil, nil
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}, nil, nil
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)},
		},
	}
}
