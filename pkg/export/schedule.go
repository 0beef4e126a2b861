package export

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"

	"github.com/limaJavier/examscheduling/pkg/model"
)

// RoomDocument locates a published session in space and time.
type RoomDocument struct {
	RoomIri  string `json:"room_iri" mapstructure:"room_iri" validate:"required"`
	Start    string `json:"start" mapstructure:"start" validate:"required"`
	End      string `json:"end" mapstructure:"end" validate:"required"`
	TimeSlot string `json:"time_slot,omitempty" mapstructure:"time_slot"`
}

// SessionDocument is the published form of one exam session.
type SessionDocument struct {
	Students []string     `json:"students" mapstructure:"students" validate:"dive,required"`
	Room     RoomDocument `json:"room" mapstructure:"room"`
	ClassIri string       `json:"class_iri" mapstructure:"class_iri" validate:"required"`
}

// Document maps every session identifier to its published form.
type Document map[string]SessionDocument

func Publish(timetable []model.ExamSession) Document {
	return lo.SliceToMap(timetable, func(session model.ExamSession) (string, SessionDocument) {
		return session.Id, SessionDocument{
			Students: slices.Clone(session.Students),
			Room: RoomDocument{
				RoomIri:  session.Room,
				Start:    model.FormatTime(session.Slot.Start),
				End:      model.FormatTime(session.Slot.End),
				TimeSlot: session.Slot.String(),
			},
			ClassIri: session.Class,
		}
	})
}

// Marshals the published schedule. Session keys come out sorted, so equal schedules produce equal bytes
func MarshalSchedule(timetable []model.ExamSession) ([]byte, error) {
	bytes, err := json.MarshalIndent(Publish(timetable), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schedule: %w", err)
	}
	return bytes, nil
}

func ScheduleFromJson(file string) ([]model.ExamSession, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return nil, model.LoadError{Reason: "cannot read schedule file", Err: err}
	}
	return DecodeSchedule(bytes)
}

// Decodes a published schedule. Shape errors are reported as model.LoadError; semantic ones are left to the verifier
func DecodeSchedule(bytes []byte) ([]model.ExamSession, error) {
	var scheduleJson map[string]any
	if err := json.Unmarshal(bytes, &scheduleJson); err != nil {
		return nil, model.LoadError{Reason: "malformed schedule json", Err: err}
	}
	return DecodeDocument(scheduleJson)
}

func DecodeDocument(scheduleJson map[string]any) ([]model.ExamSession, error) {
	var document Document
	if err := mapstructure.Decode(scheduleJson, &document); err != nil {
		return nil, model.LoadError{Reason: "unexpected schedule structure", Err: err}
	}
	return document.Sessions()
}

// Validates the document and converts it back into sessions ordered by identifier
func (document Document) Sessions() ([]model.ExamSession, error) {
	validate := validator.New()
	ids := lo.Keys(document)
	slices.Sort(ids)

	timetable := make([]model.ExamSession, 0, len(ids))
	for _, id := range ids {
		sessionDocument := document[id]
		if err := validate.Struct(sessionDocument); err != nil {
			return nil, model.LoadError{Reason: fmt.Sprintf("invalid session \"%v\"", id), Err: err}
		}

		start, err := model.ParseTime(sessionDocument.Room.Start)
		if err != nil {
			return nil, model.LoadError{Reason: fmt.Sprintf("session \"%v\" has an invalid start", id), Err: err}
		}
		end, err := model.ParseTime(sessionDocument.Room.End)
		if err != nil {
			return nil, model.LoadError{Reason: fmt.Sprintf("session \"%v\" has an invalid end", id), Err: err}
		}

		timetable = append(timetable, model.ExamSession{
			Id:       id,
			Class:    sessionDocument.ClassIri,
			Room:     sessionDocument.Room.RoomIri,
			Slot:     model.Interval{Start: start, End: end},
			Students: lo.Ternary(sessionDocument.Students == nil, []string{}, sessionDocument.Students),
		})
	}
	return timetable, nil
}

// Orders sessions by room, start and identifier
func byRoomAndStart(timetable []model.ExamSession) []model.ExamSession {
	ordered := slices.Clone(timetable)
	slices.SortFunc(ordered, func(a, b model.ExamSession) int {
		if a.Room != b.Room {
			return strings.Compare(a.Room, b.Room)
		}
		if c := a.Slot.Start.Compare(b.Slot.Start); c != 0 {
			return c
		}
		return strings.Compare(a.Id, b.Id)
	})
	return ordered
}
