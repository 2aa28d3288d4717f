// Command simflow runs a simulation project: it loads the project's three
// configuration documents, builds the workflow, and writes the event log to
// <out>/<run-name>.csv.
//
// Every flag can also be supplied through the environment with a SIMFLOW_
// prefix (SIMFLOW_RUN_NAME, SIMFLOW_PROJECT, ...), and a .env file in the
// working directory is loaded automatically.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/simflow/simflow/builder"

	_ "github.com/joho/godotenv/autoload"
)

func main() {
	runName := flag.String("run-name", "", "name of the run; the event log becomes <run-name>.csv")
	project := flag.String("project", "", "project directory containing dataState.json, genState.json and edge.json")
	out := flag.String("out", "", "directory the event log is written to (default .)")
	runTime := flag.Float64("run-time", -1, "virtual time bound; negative runs until the event queue drains")
	logLevel := flag.String("log-level", "", "diagnostic log level: debug, info, warn, error (default info)")
	logBuffer := flag.String("log-buffer", "", "event log buffer budget, e.g. 512KB or 1MB (default 1MB)")
	flag.Parse()

	settings := viper.New()
	settings.SetEnvPrefix("SIMFLOW")
	settings.AutomaticEnv()
	settings.SetDefault("out", ".")
	settings.SetDefault("run_time", -1.0)
	settings.SetDefault("log_level", "info")
	settings.SetDefault("log_buffer", "1MB")

	// Flags take precedence over environment values.
	if *runName != "" {
		settings.Set("run_name", *runName)
	}
	if *project != "" {
		settings.Set("project", *project)
	}
	if *out != "" {
		settings.Set("out", *out)
	}
	if *runTime >= 0 {
		settings.Set("run_time", *runTime)
	}
	if *logLevel != "" {
		settings.Set("log_level", *logLevel)
	}
	if *logBuffer != "" {
		settings.Set("log_buffer", *logBuffer)
	}

	diag := logrus.New()
	if level, err := logrus.ParseLevel(settings.GetString("log_level")); err == nil {
		diag.SetLevel(level)
	} else {
		diag.SetLevel(logrus.InfoLevel)
	}

	bufferBytes, err := humanize.ParseBytes(settings.GetString("log_buffer"))
	if err != nil {
		fail(fmt.Errorf("invalid log buffer size %q: %w", settings.GetString("log_buffer"), err))
	}

	opts := builder.Options{
		RunName:       settings.GetString("run_name"),
		ProjectPath:   settings.GetString("project"),
		RunPath:       settings.GetString("out"),
		Diag:          diag,
		LogBufferSize: int(bufferBytes),
	}
	if bound := settings.GetFloat64("run_time"); bound >= 0 {
		opts.RunTime = &bound
	}

	b, err := builder.New(opts)
	if err != nil {
		fail(err)
	}
	defer b.Close() //nolint:errcheck

	if err := b.Start(); err != nil {
		fail(err)
	}
	if err := b.Close(); err != nil {
		fail(err)
	}
}

// fail prints a single-line reason and exits non-zero.
func fail(err error) {
	fmt.Fprintf(os.Stderr, "simflow: %v\n", err)
	os.Exit(1)
}
