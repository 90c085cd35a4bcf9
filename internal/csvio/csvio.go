// Package csvio reads and writes the session interchange format:
//
//	date,time,label,note,duration_minutes
//
// The label column carries the display name, not the id; import resolves
// names against the current label list and creates missing labels on the
// fly.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"

	"focustimer/internal/model"
)

var header = []string{"date", "time", "label", "note", "duration_minutes"}

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// Export writes sessions as CSV, resolving label ids back to display names.
// A dangling label id exports as an empty column.
func Export(w io.Writer, sessions []model.Session, labels []model.Label) error {
	names := make(map[string]string, len(labels))
	for _, l := range labels {
		names[l.ID] = l.Name
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, s := range sessions {
		ts := s.Date.UTC()
		record := []string{
			ts.Format(dateLayout),
			ts.Format(timeLayout),
			names[s.Label],
			s.Note,
			strconv.FormatFloat(float64(s.Duration)/60, 'f', -1, 64),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// ImportResult carries the parsed sessions plus the label list after
// resolution. Created lists only the labels invented during this import.
type ImportResult struct {
	Sessions []model.Session
	Labels   []model.Label
	Created  []model.Label
}

// Import parses CSV rows into sessions. Unknown label names become new
// labels with a generated id and the next unused palette color.
func Import(r io.Reader, labels []model.Label, palette []string) (ImportResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(header)

	first, err := cr.Read()
	if err == io.EOF {
		return ImportResult{Labels: labels}, nil
	}
	if err != nil {
		return ImportResult{}, fmt.Errorf("read csv header: %w", err)
	}
	if first[0] != header[0] {
		return ImportResult{}, fmt.Errorf("unexpected csv header %q", first[0])
	}

	result := ImportResult{Labels: append([]model.Label(nil), labels...)}
	byName := make(map[string]string, len(labels))
	for _, l := range labels {
		byName[l.Name] = l.ID
	}

	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return ImportResult{}, fmt.Errorf("read csv line %d: %w", line, err)
		}

		date, err := time.Parse(dateLayout+" "+timeLayout, record[0]+" "+record[1])
		if err != nil {
			return ImportResult{}, fmt.Errorf("parse timestamp on line %d: %w", line, err)
		}
		minutes, err := strconv.ParseFloat(record[4], 64)
		if err != nil {
			return ImportResult{}, fmt.Errorf("parse duration on line %d: %w", line, err)
		}

		labelID := ""
		if name := record[2]; name != "" {
			id, ok := byName[name]
			if !ok {
				created := model.Label{
					ID:    uuid.NewString(),
					Name:  name,
					Color: nextColor(result.Labels, palette),
				}
				result.Labels = append(result.Labels, created)
				result.Created = append(result.Created, created)
				byName[name] = created.ID
				id = created.ID
			}
			labelID = id
		}

		result.Sessions = append(result.Sessions, model.Session{
			Date:     date.UTC(),
			Duration: int(minutes * 60),
			Label:    labelID,
			Note:     record[3],
		})
	}
	return result, nil
}

// nextColor picks the first palette color no existing label uses, cycling
// once the palette is exhausted.
func nextColor(labels []model.Label, palette []string) string {
	if len(palette) == 0 {
		palette = model.DefaultPalette
	}
	used := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		used[l.Color] = struct{}{}
	}
	for _, color := range palette {
		if _, ok := used[color]; !ok {
			return color
		}
	}
	return palette[len(labels)%len(palette)]
}
