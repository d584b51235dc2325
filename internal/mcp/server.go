package mcp

import (
	"log/slog"

	"github.com/claude/repcall/internal/exercise"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server exposing the loaded workout program and recent
// run history.
func New(exercises []*exercise.Exercise, runs RunSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("RepCall", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("RepCall voiced workout server. Inspect the exercise catalog, preview per-exercise action timelines with expected durations, and review recent execution attempts."),
	)

	byName := make(map[string]*exercise.Exercise, len(exercises))
	for _, ex := range exercises {
		byName[ex.Name()] = ex
	}
	h := &handlers{exercises: exercises, byName: byName, runs: runs, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
		server.ServerTool{Tool: toolGetExerciseTimeline, Handler: h.getExerciseTimeline},
		server.ServerTool{Tool: toolGetRecentRuns, Handler: h.getRecentRuns},
	)

	s.AddResources(
		server.ServerResource{Resource: resExerciseCatalog, Handler: h.exerciseCatalog},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	exercises []*exercise.Exercise
	byName    map[string]*exercise.Exercise
	runs      RunSource
	log       *slog.Logger
}

// --- Resource definitions ---

var resExerciseCatalog = mcp.NewResource(
	"repcall://exercise_catalog",
	"Exercise Catalog",
	mcp.WithResourceDescription("All exercises in the loaded workout program with set/repetition counts and expected total durations"),
	mcp.WithMIMEType("application/json"),
)
