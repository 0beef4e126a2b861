package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/samber/lo"

	"github.com/limaJavier/examscheduling/pkg/model"
)

const (
	MB float32 = 1024 * 1024
)

type ResultType int

const (
	solved ResultType = iota
	unschedulable
	timeout
)

var resultTypes = map[ResultType]string{
	solved:        "solved",
	unschedulable: "unschedulable",
	timeout:       "timeout",
}

type TestMetadata struct {
	Name        string
	Seed        int64
	Classes     int
	Students    int
	Rooms       int
	Enrollments int
}

type BenchmarkResult struct {
	Test       TestMetadata
	Duration   int64
	Memory     float32
	Nodes      uint64
	Backtracks uint64
	Result     ResultType
}

type instanceSize struct {
	classes, students, rooms int
}

var sizes = []instanceSize{
	{classes: 5, students: 40, rooms: 2},
	{classes: 10, students: 120, rooms: 3},
	{classes: 20, students: 300, rooms: 5},
	{classes: 40, students: 800, rooms: 8},
	{classes: 80, students: 2000, rooms: 12},
}

func main() {
	seedPtr := flag.Int64("seed", 1, "Seed of the first synthetic instance")
	repetitionsPtr := flag.Int("repetitions", 3, "Instances generated per size")
	maxNodesPtr := flag.Uint64("max-nodes", 1_000_000, "Node budget per run, where 0 means unlimited")
	timeoutPtr := flag.Duration("timeout", time.Minute, "Wall-clock budget per run")
	outPtr := flag.String("out", "benchmark_results.csv", "Path to the results file")
	flag.Parse()

	tests := getTests(*seedPtr, *repetitionsPtr)
	results := make([]BenchmarkResult, 0, len(tests))

	for _, test := range tests {
		fmt.Printf("Benchmarking test \"%v\" (%v classes, %v students, %v rooms)\n", test.Name, test.Classes, test.Students, test.Rooms)
		results = append(results, measure(test, *maxNodesPtr, *timeoutPtr))
	}

	file, err := os.Create(*outPtr)
	if err != nil {
		log.Panicf("cannot create CSV file: %v", err)
	}
	defer file.Close()

	if err := toCsv(file, results); err != nil {
		log.Panicf("cannot write CSV file: %v", err)
	}
}

func getTests(seed int64, repetitions int) []TestMetadata {
	tests := make([]TestMetadata, 0, len(sizes)*repetitions)
	for _, size := range sizes {
		for repetition := range repetitions {
			testSeed := seed + int64(len(tests))
			raw := generateInstance(rand.New(rand.NewSource(testSeed)), size)
			tests = append(tests, TestMetadata{
				Name:        fmt.Sprintf("c%d-s%d-r%d-%d", size.classes, size.students, size.rooms, repetition),
				Seed:        testSeed,
				Classes:     len(raw.Classes),
				Students:    len(raw.Students),
				Rooms:       len(raw.Rooms),
				Enrollments: lo.SumBy(raw.Students, func(student model.RawStudent) int { return len(student.EnrolledIn) }),
			})
		}
	}
	return tests
}

// Rooms are open from 08:00 to 20:00 on the five days of a week; every student takes one to four exams
func generateInstance(random *rand.Rand, size instanceSize) model.RawModelInput {
	raw := model.RawModelInput{}
	for i := range size.classes {
		raw.Classes = append(raw.Classes, model.RawClass{
			Iri:          fmt.Sprintf("class_%03d", i),
			ExamDuration: float64(1+random.Intn(6)) / 2,
		})
	}
	for i := range size.students {
		picks := random.Perm(size.classes)[:min(size.classes, 1+random.Intn(4))]
		raw.Students = append(raw.Students, model.RawStudent{
			Iri:        fmt.Sprintf("student_%05d", i),
			EnrolledIn: lo.Map(picks, func(class int, _ int) string { return raw.Classes[class].Iri }),
		})
	}
	for i := range size.rooms {
		availability := make([]model.RawAvailability, 0, 5)
		for day := 2; day <= 6; day++ {
			availability = append(availability, model.RawAvailability{
				From:  fmt.Sprintf("2025-06-%02dT08:00:00", day),
				Until: fmt.Sprintf("2025-06-%02dT20:00:00", day),
			})
		}
		raw.Rooms = append(raw.Rooms, model.RawRoom{
			Iri:          fmt.Sprintf("room_%02d", i),
			Capacity:     uint64(10 + 5*random.Intn(10)),
			Availability: availability,
		})
	}
	return raw
}

func measure(test TestMetadata, maxNodes uint64, budget time.Duration) BenchmarkResult {
	size := instanceSize{classes: test.Classes, students: test.Students, rooms: test.Rooms}
	input, err := model.ProcessRawInput(generateInstance(rand.New(rand.NewSource(test.Seed)), size))
	if err != nil {
		log.Fatalf("cannot build instance \"%v\": %v", test.Name, err)
	}

	timetabler := model.NewBacktrackingTimetabler(model.Options{MaxNodes: maxNodes})
	ctx, cancel := context.WithTimeout(context.Background(), budget)
	defer cancel()

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	started := time.Now()
	_, nodes, backtracks, err := timetabler.Build(ctx, input)
	duration := time.Since(started).Milliseconds()
	runtime.ReadMemStats(&after)

	result, ok := classify(err)
	if !ok {
		log.Fatalf("an error occurred while scheduling test \"%v\": %v", test.Name, err)
	}
	return BenchmarkResult{
		Test:       test,
		Duration:   duration,
		Memory:     float32(after.TotalAlloc-before.TotalAlloc) / MB,
		Nodes:      nodes,
		Backtracks: backtracks,
		Result:     result,
	}
}

// Build verifies its own output, so any schedule it returns counts as solved
func classify(err error) (ResultType, bool) {
	var unschedulableErr model.UnschedulableError
	switch {
	case err == nil:
		return solved, true
	case !errors.As(err, &unschedulableErr):
		return 0, false
	case unschedulableErr.Reason == model.ReasonExhausted:
		return unschedulable, true
	default:
		return timeout, true
	}
}

func toCsv(w io.Writer, results []BenchmarkResult) error {
	writer := csv.NewWriter(w)

	header := []string{"Test", "Seed", "Classes", "Students", "Rooms", "Enrollments", "Duration(ms)", "Memory(MB)", "Nodes", "Backtracks", "Result"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("cannot write CSV header: %w", err)
	}

	for _, result := range results {
		record := []string{
			result.Test.Name,
			fmt.Sprintf("%d", result.Test.Seed),
			fmt.Sprintf("%d", result.Test.Classes),
			fmt.Sprintf("%d", result.Test.Students),
			fmt.Sprintf("%d", result.Test.Rooms),
			fmt.Sprintf("%d", result.Test.Enrollments),
			fmt.Sprintf("%d", result.Duration),
			fmt.Sprintf("%.1f", result.Memory),
			fmt.Sprintf("%d", result.Nodes),
			fmt.Sprintf("%d", result.Backtracks),
			resultTypes[result.Result],
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("cannot write CSV record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
