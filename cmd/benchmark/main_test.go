package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limaJavier/examscheduling/pkg/model"
)

func TestGetTestsIsSeeded(t *testing.T) {
	first := getTests(7, 2)
	second := getTests(7, 2)

	require.Len(t, first, len(sizes)*2)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(7), first[0].Seed)
	assert.Equal(t, int64(8), first[1].Seed)
	assert.Equal(t, "c5-s40-r2-0", first[0].Name)
}

func TestGenerateInstanceIsValid(t *testing.T) {
	for _, size := range sizes[:3] {
		raw := generateInstance(rand.New(rand.NewSource(3)), size)

		input, err := model.ProcessRawInput(raw)

		require.NoError(t, err)
		assert.Len(t, input.Classes, size.classes)
		assert.Len(t, input.Students, size.students)
		assert.Len(t, input.Rooms, size.rooms)
	}
}

func TestMeasureSmallInstance(t *testing.T) {
	test := getTests(1, 1)[0]

	result := measure(test, 0, time.Minute)

	assert.Equal(t, solved, result.Result)
	assert.Positive(t, result.Nodes)
}

func TestMeasureBudget(t *testing.T) {
	test := getTests(1, 1)[0]

	result := measure(test, 1, time.Minute)

	assert.Equal(t, timeout, result.Result)
	assert.Equal(t, uint64(1), result.Nodes)
}

func TestClassify(t *testing.T) {
	scenarios := []struct {
		err    error
		result ResultType
		ok     bool
	}{
		{nil, solved, true},
		{model.UnschedulableError{Class: "C1", Reason: model.ReasonExhausted}, unschedulable, true},
		{model.UnschedulableError{Class: "C1", Reason: model.ReasonBudget + " (1 nodes)"}, timeout, true},
		{model.UnschedulableError{Reason: model.ReasonCancelled, Err: context.DeadlineExceeded}, timeout, true},
		{errors.New("boom"), 0, false},
	}

	for _, scenario := range scenarios {
		result, ok := classify(scenario.err)
		assert.Equal(t, scenario.ok, ok, "%v", scenario.err)
		if ok {
			assert.Equal(t, scenario.result, result, "%v", scenario.err)
		}
	}
	assert.Len(t, resultTypes, 3)
}

func TestToCsv(t *testing.T) {
	//** Arrange
	results := []BenchmarkResult{{
		Test:       TestMetadata{Name: "c5-s40-r2-0", Seed: 1, Classes: 5, Students: 40, Rooms: 2, Enrollments: 97},
		Duration:   12,
		Memory:     1.5,
		Nodes:      30,
		Backtracks: 2,
		Result:     solved,
	}}
	var buffer bytes.Buffer

	//** Act
	err := toCsv(&buffer, results)

	//** Assert
	require.NoError(t, err)
	records, err := csv.NewReader(&buffer).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Duration(ms)", records[0][6])
	assert.Equal(t, []string{"c5-s40-r2-0", "1", "5", "40", "2", "97", "12", "1.5", "30", "2", "solved"}, records[1])
}
