package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"loa/internal/trace"
)

// setupTracing attaches a tracer built from the --trace* flags to the
// command context. --trace without a level means phase level. The cleanup
// stops the heartbeat and closes the output; in ring mode that is when the
// kept events get written.
func setupTracing(cmd *cobra.Command) (func(), error) {
	flags := cmd.Root().PersistentFlags()
	output, _ := flags.GetString("trace")
	levelStr, _ := flags.GetString("trace-level")
	modeStr, _ := flags.GetString("trace-mode")
	ringSize, _ := flags.GetInt("trace-ring-size")
	beat, _ := flags.GetDuration("trace-heartbeat")

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, err
	}
	if level == trace.LevelOff && output != "" {
		level = trace.LevelPhase
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func() {}, nil
	}
	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, err
	}

	tracer, err := trace.New(trace.Config{Level: level, Mode: mode, OutputPath: output, RingSize: ringSize})
	if err != nil {
		return nil, fmt.Errorf("trace: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))
	heartbeat := trace.StartHeartbeat(tracer, beat)

	return func() {
		heartbeat.Stop()
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: %v\n", err)
		}
	}, nil
}
