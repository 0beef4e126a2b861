package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/limaJavier/examscheduling/pkg/model"
)

// Dataset defines tabular export content.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

var sessionHeaders = []string{"room", "start", "end", "class", "group", "size", "students"}

// NewDataset flattens the schedule into one row per session, ordered by room and start.
func NewDataset(timetable []model.ExamSession) Dataset {
	return Dataset{
		Headers: sessionHeaders,
		Rows: lo.Map(byRoomAndStart(timetable), func(session model.ExamSession, _ int) map[string]string {
			return map[string]string{
				"room":     session.Room,
				"start":    model.FormatTime(session.Slot.Start),
				"end":      model.FormatTime(session.Slot.End),
				"class":    session.Class,
				"group":    session.Id,
				"size":     strconv.Itoa(len(session.Students)),
				"students": strings.Join(session.Students, " "),
			}
		}),
	}
}

// CSVExporter renders Dataset records into CSV bytes.
type CSVExporter struct{}

func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range data.Rows {
		record := lo.Map(data.Headers, func(header string, _ int) string { return row[header] })
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
