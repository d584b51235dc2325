package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claude/repcall/internal/exercise"
	"github.com/claude/repcall/internal/program"
	"github.com/claude/repcall/internal/speech"
)

// repcall-coach runs a workout program at the terminal, speaking each
// cue to stdout. Ctrl-C stops the session between actions; the printed
// progress can be passed back with -resume to pick up where it left off.
func main() {
	programPath := flag.String("program", "workout.yaml", "path to workout program")
	exerciseName := flag.String("exercise", "", "run a single exercise by name (default: all)")
	resume := flag.Duration("resume", 0, "skip ahead past this much completed work")
	wpm := flag.Int("wpm", 0, "speech rate in words per minute (0 = default)")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	speaker := speech.NewConsole(os.Stdout, *wpm)
	exercises, err := program.Load(*programPath, log, speaker)
	if err != nil {
		fmt.Fprintf(os.Stderr, "repcall-coach: %v\n", err)
		os.Exit(1)
	}

	if *exerciseName != "" {
		exercises = filterByName(exercises, *exerciseName)
		if len(exercises) == 0 {
			fmt.Fprintf(os.Stderr, "repcall-coach: no exercise named %q\n", *exerciseName)
			os.Exit(1)
		}
	}

	var total time.Duration
	for _, ex := range exercises {
		total += ex.Duration()
	}
	fmt.Printf("%d exercise(s), %s total\n", len(exercises), total.Round(time.Second))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ec := exercise.NewContext(*resume)
	for _, ex := range exercises {
		if ctx.Err() != nil {
			break
		}
		if err := ex.Execute(ctx, ec); err != nil {
			fmt.Fprintf(os.Stderr, "repcall-coach: %s: %v\n", ex.Name(), err)
			os.Exit(1)
		}
	}

	if ctx.Err() != nil {
		fmt.Printf("\nstopped at %s; resume with -resume %s\n",
			ec.Progress().Round(time.Second), ec.Progress())
		return
	}
	fmt.Printf("\ndone: %s\n", ec.Progress().Round(time.Second))
}

func filterByName(exercises []*exercise.Exercise, name string) []*exercise.Exercise {
	for _, ex := range exercises {
		if ex.Name() == name {
			return []*exercise.Exercise{ex}
		}
	}
	return nil
}
