package protocol

import (
	"bytes"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/samber/lo"

	"github.com/peptora/backoffice/calendar"
)

// entryCSV is one exported row.
type entryCSV struct {
	Date      calendar.Date `csv:"Date"`
	DayOfWeek string        `csv:"Day of Week"`
	TimeOfDay string        `csv:"Time of Day"`
	Week      int           `csv:"Week"`
}

// WriteCSV writes one row per entry, with a header row even when entries is empty.
func WriteCSV(w io.Writer, entries []Entry) error {
	records := lo.Map(entries, func(e Entry, _ int) *entryCSV {
		return &entryCSV{
			Date:      e.Date,
			DayOfWeek: e.DayOfWeek,
			TimeOfDay: string(e.TimeOfDay),
			Week:      e.Week,
		}
	})
	if err := gocsv.Marshal(records, w); err != nil {
		return fmt.Errorf("marshal schedule csv: %w", err)
	}
	return nil
}

// MarshalCSV renders entries as CSV bytes.
func MarshalCSV(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, entries); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CSVFilename is the suggested download name for a schedule.
func CSVFilename(s Schedule) string {
	return fmt.Sprintf("protocol-schedule-%s.csv", s.StartDate)
}
