package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
)

type RawAvailability struct {
	From  string `validate:"required"`
	Until string `validate:"required"`
}

type RawRoom struct {
	Iri          string            `validate:"required"`
	Capacity     uint64            `validate:"gt=0"`
	Availability []RawAvailability `validate:"dive"`
}

type RawClass struct {
	Iri          string  `validate:"required"`
	ExamDuration float64 `mapstructure:"examDuration" validate:"gt=0"` // Hours
}

type RawStudent struct {
	Iri        string   `validate:"required"`
	EnrolledIn []string `mapstructure:"enrolledIn" validate:"dive,required"`
}

type RawModelInput struct {
	Students []RawStudent `validate:"dive"`
	Classes  []RawClass   `validate:"dive"`
	Rooms    []RawRoom    `validate:"dive"`
}

type Student struct {
	Id      string
	Classes []string
}

type ClassExam struct {
	Id       string
	Duration time.Duration
	Students []string // Enrollment order (i.e. order of appearance of the students in the input)
}

type Room struct {
	Id           string
	Capacity     uint64
	Availability []Interval // Sorted by start and pairwise disjoint
}

type ExamSession struct {
	Id       string
	Class    string
	Room     string
	Slot     Interval
	Students []string
}

type ModelInput struct {
	Students []Student
	Classes  []ClassExam
	Rooms    []Room
}

func InputFromJson(file string) (ModelInput, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return ModelInput{}, LoadError{Reason: "cannot read input file", Err: err}
	}
	return InputFromBytes(bytes)
}

func InputFromBytes(bytes []byte) (ModelInput, error) {
	var inputJson map[string]any
	if err := json.Unmarshal(bytes, &inputJson); err != nil {
		return ModelInput{}, LoadError{Reason: "malformed input json", Err: err}
	}
	return InputFromMap(inputJson)
}

// Decodes an already unmarshalled input document
func InputFromMap(inputJson map[string]any) (ModelInput, error) {
	var rawInput RawModelInput
	if err := mapstructure.Decode(inputJson, &rawInput); err != nil {
		return ModelInput{}, LoadError{Reason: "unexpected input structure", Err: err}
	}
	return ProcessRawInput(rawInput)
}

func ProcessRawInput(rawInput RawModelInput) (ModelInput, error) {
	if err := validator.New().Struct(rawInput); err != nil {
		return ModelInput{}, LoadError{Reason: "invalid input", Err: err}
	}

	//** Verify identifiers are unique
	for _, tuple := range lo.Zip2(
		[]string{"student", "class", "room"},
		[][]string{
			lo.Map(rawInput.Students, func(student RawStudent, _ int) string { return student.Iri }),
			lo.Map(rawInput.Classes, func(class RawClass, _ int) string { return class.Iri }),
			lo.Map(rawInput.Rooms, func(room RawRoom, _ int) string { return room.Iri }),
		},
	) {
		kind, ids := tuple.A, tuple.B
		if duplicates := lo.FindDuplicates(ids); len(duplicates) > 0 {
			return ModelInput{}, LoadError{Reason: fmt.Sprintf("duplicate %v identifiers: %v", kind, duplicates)}
		}
	}

	//** Manage rooms
	rooms := make([]Room, 0, len(rawInput.Rooms))
	for _, rawRoom := range rawInput.Rooms {
		room, err := processRoom(rawRoom)
		if err != nil {
			return ModelInput{}, err
		}
		rooms = append(rooms, room)
	}

	//** Manage classes
	classes := make([]ClassExam, 0, len(rawInput.Classes))
	classIndex := make(map[string]int, len(rawInput.Classes))
	for i, rawClass := range rawInput.Classes {
		classIndex[rawClass.Iri] = i
		classes = append(classes, ClassExam{
			Id:       rawClass.Iri,
			Duration: time.Duration(math.Round(rawClass.ExamDuration*60)) * time.Minute,
			Students: make([]string, 0),
		})
	}

	//** Manage enrollments
	students := make([]Student, 0, len(rawInput.Students))
	for _, rawStudent := range rawInput.Students {
		if duplicates := lo.FindDuplicates(rawStudent.EnrolledIn); len(duplicates) > 0 {
			return ModelInput{}, LoadError{Reason: fmt.Sprintf("student \"%v\" is enrolled more than once in: %v", rawStudent.Iri, duplicates)}
		}

		for _, class := range rawStudent.EnrolledIn {
			i, ok := classIndex[class]
			if !ok {
				return ModelInput{}, LoadError{Reason: fmt.Sprintf("student \"%v\" is enrolled in unknown class \"%v\"", rawStudent.Iri, class)}
			}
			classes[i].Students = append(classes[i].Students, rawStudent.Iri)
		}

		students = append(students, Student{
			Id:      rawStudent.Iri,
			Classes: slices.Clone(rawStudent.EnrolledIn),
		})
	}

	return ModelInput{
		Students: students,
		Classes:  classes,
		Rooms:    rooms,
	}, nil
}

func processRoom(rawRoom RawRoom) (Room, error) {
	availability := make([]Interval, 0, len(rawRoom.Availability))
	for _, rawWindow := range rawRoom.Availability {
		from, err := ParseTime(rawWindow.From)
		if err != nil {
			return Room{}, LoadError{Reason: fmt.Sprintf("room \"%v\" has an invalid availability start", rawRoom.Iri), Err: err}
		}
		until, err := ParseTime(rawWindow.Until)
		if err != nil {
			return Room{}, LoadError{Reason: fmt.Sprintf("room \"%v\" has an invalid availability end", rawRoom.Iri), Err: err}
		}
		if !until.After(from) {
			return Room{}, LoadError{Reason: fmt.Sprintf("room \"%v\" has an empty or inverted availability window %v - %v", rawRoom.Iri, rawWindow.From, rawWindow.Until)}
		}
		availability = append(availability, Interval{Start: from, End: until})
	}

	slices.SortFunc(availability, func(a, b Interval) int { return a.Start.Compare(b.Start) })

	// Sorted windows are disjoint if and only if every pair of neighbours is
	for i := 1; i < len(availability); i++ {
		if availability[i-1].Overlaps(availability[i]) {
			return Room{}, LoadError{Reason: fmt.Sprintf("room \"%v\" has overlapping availability windows %v and %v", rawRoom.Iri, availability[i-1], availability[i])}
		}
	}

	return Room{
		Id:           rawRoom.Iri,
		Capacity:     rawRoom.Capacity,
		Availability: availability,
	}, nil
}
