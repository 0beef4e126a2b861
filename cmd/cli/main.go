package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/limaJavier/examscheduling/pkg/config"
	"github.com/limaJavier/examscheduling/pkg/export"
	"github.com/limaJavier/examscheduling/pkg/logger"
	"github.com/limaJavier/examscheduling/pkg/model"
)

const (
	exitFailure            = 1
	exitUsage              = 2
	exitScheduled          = 10
	exitVerificationFailed = 15
	exitUnschedulable      = 20
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// Runs the command and returns its exit code, so deferred calls complete before the process exits
func run(args []string, stdout io.Writer) int {
	// Define arguments
	flags := flag.NewFlagSet("examschedule", flag.ContinueOnError)
	filePathPtr := flags.String("file", "", "Path to the input file")
	outFilePathPtr := flags.String("out", "", "Path to the file where the schedule will be written; if empty, it'll be written into the Standard Output")
	granularityPtr := flags.Duration("granularity", model.DefaultGranularity, "Distance between consecutive candidate start times")
	maxNodesPtr := flags.Uint64("max-nodes", 0, "Maximum amount of candidates the search may check, where 0 (the default) means unlimited")
	csvPathPtr := flags.String("csv", "", "Path to write the schedule as CSV")
	pdfPathPtr := flags.String("pdf", "", "Path to write the schedule as PDF")
	verifyPathPtr := flags.String("verify", "", "Path to an existing schedule; when set, the schedule is verified against the input instead of being built")
	logLevelPtr := flags.String("log-level", "info", "Log level: \"debug\", \"info\", \"warn\" or \"error\"")
	if err := flags.Parse(args); err != nil {
		return exitUsage
	}

	// Validate arguments
	if *filePathPtr == "" {
		fmt.Fprintln(flags.Output(), "an input file must be specified")
		return exitUsage
	} else if *granularityPtr <= 0 {
		fmt.Fprintf(flags.Output(), "granularity must be positive: %v\n", *granularityPtr)
		return exitUsage
	}

	logr, err := logger.New(&config.Config{Env: config.EnvDevelopment, Log: config.LogConfig{Level: *logLevelPtr, Format: "console"}})
	if err != nil {
		fmt.Fprintf(flags.Output(), "failed to init logger: %v\n", err)
		return exitFailure
	}
	defer logr.Sync() //nolint:errcheck

	// Extract input
	input, err := model.InputFromJson(*filePathPtr)
	if err != nil {
		logr.Error("cannot parse input file", zap.Error(err))
		return exitFailure
	}

	if *verifyPathPtr != "" {
		return verify(logr, stdout, input, *verifyPathPtr)
	}

	// Build timetable. An invalid result never leaves Build, which verifies its own output
	timetabler := model.NewBacktrackingTimetabler(model.Options{
		Granularity: *granularityPtr,
		MaxNodes:    *maxNodesPtr,
		Logger:      logr.Named("scheduler"),
	})
	started := time.Now()
	timetable, nodes, backtracks, err := timetabler.Build(context.Background(), input)
	elapsed := time.Since(started)

	var unschedulable model.UnschedulableError
	if errors.As(err, &unschedulable) {
		logr.Warn("no feasible schedule",
			zap.String("class", unschedulable.Class),
			zap.Int("remaining", unschedulable.Remaining),
			zap.String("reason", unschedulable.Reason),
		)
		printStats(stdout, nodes, backtracks, elapsed)
		return exitUnschedulable
	} else if err != nil {
		logr.Error("an error occurred during schedule construction", zap.Error(err))
		return exitFailure
	}

	// Marshal output into json
	scheduleJson, err := export.MarshalSchedule(timetable)
	if err != nil {
		logr.Error("an error occurred while building output json", zap.Error(err))
		return exitFailure
	}

	// Verify outfile is empty, if so then write the results to the Standard Output
	if *outFilePathPtr == "" {
		fmt.Fprintln(stdout, string(scheduleJson))
	} else if err := os.WriteFile(*outFilePathPtr, scheduleJson, 0666); err != nil {
		logr.Error("an error occurred while writing to the output file", zap.Error(err))
		return exitFailure
	}

	if err := writeReports(timetable, *csvPathPtr, *pdfPathPtr, title(*filePathPtr)); err != nil {
		logr.Error("an error occurred while writing reports", zap.Error(err))
		return exitFailure
	}

	logr.Info("schedule built", zap.Int("sessions", len(timetable)), zap.Duration("elapsed", elapsed))
	printStats(stdout, nodes, backtracks, elapsed)
	return exitScheduled
}

func verify(logr *zap.Logger, stdout io.Writer, input model.ModelInput, schedulePath string) int {
	timetable, err := export.ScheduleFromJson(schedulePath)
	if err != nil {
		logr.Error("cannot parse schedule file", zap.Error(err))
		return exitFailure
	}

	report := model.Verify(timetable, input)
	for _, check := range report.Checks {
		status := "PASS"
		if !check.Passed() {
			status = "FAIL"
		}
		fmt.Fprintf(stdout, "%v: %v\n", check.Name, status)
	}

	if !report.Passed() {
		for _, check := range report.Failed() {
			for _, violation := range check.Violations {
				logr.Error("verification failed",
					zap.String("check", check.Name),
					zap.String("violation", violation.Message),
					zap.Strings("entities", violation.Entities),
				)
			}
		}
		return exitVerificationFailed
	}
	return exitScheduled
}

func writeReports(timetable []model.ExamSession, csvPath, pdfPath, title string) error {
	data := export.NewDataset(timetable)
	if csvPath != "" {
		bytes, err := export.NewCSVExporter().Render(data)
		if err != nil {
			return err
		}
		if err := os.WriteFile(csvPath, bytes, 0666); err != nil {
			return err
		}
	}
	if pdfPath != "" {
		bytes, err := export.NewPDFExporter().Render(data, title)
		if err != nil {
			return err
		}
		if err := os.WriteFile(pdfPath, bytes, 0666); err != nil {
			return err
		}
	}
	return nil
}

func title(filePath string) string {
	return "Final exams: " + strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
}

func printStats(stdout io.Writer, nodes, backtracks uint64, elapsed time.Duration) {
	fmt.Fprintf(stdout, "Nodes: %v\n", nodes)
	fmt.Fprintf(stdout, "Backtracks: %v\n", backtracks)
	fmt.Fprintf(stdout, "Elapsed: %v\n", elapsed)
}
