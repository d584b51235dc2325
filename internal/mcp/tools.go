package mcp

import (
	"context"
	"encoding/json"

	"github.com/claude/repcall/internal/exercise"
	"github.com/claude/repcall/internal/storage"
	"github.com/mark3labs/mcp-go/mcp"
)

// RunSource supplies recent run history. *storage.DB satisfies it.
type RunSource interface {
	RecentRuns(ctx context.Context, limit int) ([]storage.RunRow, error)
}

// Compile-time check: *storage.DB satisfies RunSource.
var _ RunSource = (*storage.DB)(nil)

// --- Tool definitions ---

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List every exercise in the loaded workout program with its set count, repetition count, and expected total duration in milliseconds."),
)

var toolGetExerciseTimeline = mcp.NewTool("get_exercise_timeline",
	mcp.WithDescription("Preview one exercise's full action timeline: every announcement and pause in execution order with durations and cumulative offsets. Computed by a dry traversal; nothing is spoken."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise name, e.g. 'Push Ups'")),
)

var toolGetRecentRuns = mcp.NewTool("get_recent_runs",
	mcp.WithDescription("Recent execution attempts, newest first, including progress and whether each run completed or was cancelled. The progress of an interrupted run is the skip-ahead value to resume it with."),
	mcp.WithNumber("limit", mcp.Description("Maximum number of runs to return. Defaults to 20.")),
)

// --- Tool handlers ---

type exerciseInfo struct {
	Name        string `json:"name"`
	Sets        int    `json:"sets"`
	Repetitions int    `json:"repetitions"`
	DurationMs  int64  `json:"duration_ms"`
}

func describe(ex *exercise.Exercise) exerciseInfo {
	return exerciseInfo{
		Name:        ex.Name(),
		Sets:        ex.Sets(),
		Repetitions: ex.Repetitions(),
		DurationMs:  ex.Duration().Milliseconds(),
	}
}

func (h *handlers) listExercises(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out := make([]exerciseInfo, 0, len(h.exercises))
	for _, ex := range h.exercises {
		out = append(out, describe(ex))
	}

	result, err := mcp.NewToolResultJSON(out)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

type timelineStep struct {
	Event      string `json:"event"`
	Set        int    `json:"set,omitempty"`
	Repetition int    `json:"repetition,omitempty"`
	Action     string `json:"action"`
	DurationMs int64  `json:"duration_ms"`
	OffsetMs   int64  `json:"offset_ms"`
}

func (h *handlers) getExerciseTimeline(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}

	ex, ok := h.byName[name]
	if !ok {
		return mcp.NewToolResultError("unknown exercise: " + name), nil
	}

	steps := make([]timelineStep, 0)
	for _, en := range ex.Timeline() {
		steps = append(steps, timelineStep{
			Event:      en.Event.Kind.String(),
			Set:        en.Event.Set,
			Repetition: en.Event.Repetition,
			Action:     exercise.DescribeAction(en.Action),
			DurationMs: en.Duration.Milliseconds(),
			OffsetMs:   en.Offset.Milliseconds(),
		})
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"exercise": describe(ex),
		"timeline": steps,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getRecentRuns(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)
	if limit < 1 || limit > 200 {
		limit = 20
	}

	rows, err := h.runs.RecentRuns(ctx, limit)
	if err != nil {
		h.log.Error("mcp get_recent_runs", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(rows)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// --- Resource handlers ---

func (h *handlers) exerciseCatalog(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	out := make([]exerciseInfo, 0, len(h.exercises))
	for _, ex := range h.exercises {
		out = append(out, describe(ex))
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
