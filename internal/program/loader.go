// Package program loads declarative workout definitions from YAML and builds
// executable exercises out of them.
package program

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/claude/repcall/internal/action"
	"github.com/claude/repcall/internal/exercise"
	"github.com/claude/repcall/internal/match"
	"gopkg.in/yaml.v3"
)

// File is the top-level shape of a workout definition.
type File struct {
	Exercises []ExerciseDef `yaml:"exercises"`
}

// ExerciseDef declares one exercise and its event-bound actions.
type ExerciseDef struct {
	Name        string       `yaml:"name"`
	Sets        int          `yaml:"sets"`
	Repetitions int          `yaml:"repetitions"`
	Actions     []BindingDef `yaml:"actions"`
}

// BindingDef declares one (matcher, action) binding. `on` names the event
// kind; `set` and `rep` optionally narrow it to one position; exactly one of
// `say`, `pause`, or `actions` supplies the action.
type BindingDef struct {
	On        string `yaml:"on"`
	Set       int    `yaml:"set"`
	Rep       int    `yaml:"rep"`
	ActionDef `yaml:",inline"`
}

// ActionDef declares an action payload: an utterance, a timed pause, or an
// ordered composite of further actions.
type ActionDef struct {
	Say     string      `yaml:"say"`
	Pause   string      `yaml:"pause"`
	Actions []ActionDef `yaml:"actions"`
}

// Load reads a workout definition file and builds its exercises. Every
// exercise is priced eagerly, so a loaded program is ready to report
// durations.
func Load(path string, log *slog.Logger, speaker exercise.Speaker) ([]*exercise.Exercise, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading program file: %w", err)
	}
	return Parse(data, log, speaker)
}

// Parse builds exercises from YAML program data.
func Parse(data []byte, log *slog.Logger, speaker exercise.Speaker) ([]*exercise.Exercise, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing program: %w", err)
	}
	if len(f.Exercises) == 0 {
		return nil, fmt.Errorf("program defines no exercises")
	}

	seen := make(map[string]bool, len(f.Exercises))
	exercises := make([]*exercise.Exercise, 0, len(f.Exercises))
	for _, def := range f.Exercises {
		if seen[def.Name] {
			return nil, fmt.Errorf("duplicate exercise name %q", def.Name)
		}
		seen[def.Name] = true

		bindings, err := buildBindings(def.Actions, speaker)
		if err != nil {
			return nil, fmt.Errorf("exercise %q: %w", def.Name, err)
		}

		ex, err := exercise.New(log, speaker, def.Name, def.Sets, def.Repetitions, bindings)
		if err != nil {
			return nil, err
		}
		exercises = append(exercises, ex)
	}
	return exercises, nil
}

func buildBindings(defs []BindingDef, speaker exercise.Speaker) ([]exercise.Binding, error) {
	var bindings []exercise.Binding
	for i, def := range defs {
		kind, err := exercise.ParseEventKind(def.On)
		if err != nil {
			return nil, fmt.Errorf("binding %d: %w", i, err)
		}
		act, err := buildAction(def.ActionDef, speaker)
		if err != nil {
			return nil, fmt.Errorf("binding %d: %w", i, err)
		}
		bindings = append(bindings, exercise.Binding{
			Matcher: match.On{Kind: kind, Set: def.Set, Rep: def.Rep},
			Action:  act,
		})
	}
	return bindings, nil
}

func buildAction(def ActionDef, speaker exercise.Speaker) (exercise.Action, error) {
	declared := 0
	if def.Say != "" {
		declared++
	}
	if def.Pause != "" {
		declared++
	}
	if len(def.Actions) > 0 {
		declared++
	}
	if declared != 1 {
		return nil, fmt.Errorf("exactly one of say, pause, or actions must be set")
	}

	switch {
	case def.Say != "":
		return speaker.Say(def.Say), nil
	case def.Pause != "":
		d, err := time.ParseDuration(def.Pause)
		if err != nil {
			return nil, fmt.Errorf("invalid pause %q: %w", def.Pause, err)
		}
		if d < 0 {
			return nil, fmt.Errorf("negative pause %q", def.Pause)
		}
		return action.NewPause(d), nil
	default:
		parts := make([]exercise.Action, 0, len(def.Actions))
		for i, sub := range def.Actions {
			part, err := buildAction(sub, speaker)
			if err != nil {
				return nil, fmt.Errorf("composite part %d: %w", i, err)
			}
			parts = append(parts, part)
		}
		return action.NewComposite(parts...), nil
	}
}
