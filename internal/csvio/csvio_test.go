package csvio

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"focustimer/internal/model"
)

func TestImportCreatesMissingLabel(t *testing.T) {
	existing := []model.Label{{ID: "l1", Name: "Writing", Color: model.DefaultPalette[0]}}
	input := strings.Join([]string{
		"date,time,label,note,duration_minutes",
		"2024-01-01,10:00:00,Writing,draft,25",
		"2024-01-02,09:30:00,Research,,50",
	}, "\n")

	result, err := Import(strings.NewReader(input), existing, model.DefaultPalette)
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	if len(result.Sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(result.Sessions))
	}
	if result.Sessions[0].Label != "l1" {
		t.Fatalf("expected existing label resolved to l1, got %q", result.Sessions[0].Label)
	}
	if result.Sessions[0].Duration != 1500 {
		t.Fatalf("expected 1500s, got %d", result.Sessions[0].Duration)
	}

	if len(result.Created) != 1 {
		t.Fatalf("expected one created label, got %d", len(result.Created))
	}
	created := result.Created[0]
	if created.Name != "Research" || created.ID == "" {
		t.Fatalf("unexpected created label: %+v", created)
	}
	if created.Color != model.DefaultPalette[1] {
		t.Fatalf("expected next unused palette color %s, got %s", model.DefaultPalette[1], created.Color)
	}
	if result.Sessions[1].Label != created.ID {
		t.Fatalf("imported session must reference the new label id")
	}

	want := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	if !result.Sessions[0].Date.Equal(want) {
		t.Fatalf("expected %v, got %v", want, result.Sessions[0].Date)
	}
}

func TestImportReusesLabelWithinFile(t *testing.T) {
	input := strings.Join([]string{
		"date,time,label,note,duration_minutes",
		"2024-01-01,10:00:00,Deep,,25",
		"2024-01-02,10:00:00,Deep,,25",
	}, "\n")

	result, err := Import(strings.NewReader(input), nil, model.DefaultPalette)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(result.Created) != 1 {
		t.Fatalf("expected a single shared label, got %d", len(result.Created))
	}
	if result.Sessions[0].Label != result.Sessions[1].Label {
		t.Fatal("both rows must reference the same created label")
	}
}

func TestExportRoundTrip(t *testing.T) {
	labels := []model.Label{{ID: "l1", Name: "Writing", Color: "#e74c3c"}}
	sessions := []model.Session{
		{Date: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), Duration: 1500, Label: "l1", Note: "draft"},
		{Date: time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), Duration: 930, Label: "gone"},
	}

	var buf bytes.Buffer
	if err := Export(&buf, sessions, labels); err != nil {
		t.Fatalf("export: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "date,time,label,note,duration_minutes" {
		t.Fatalf("unexpected header: %s", lines[0])
	}
	if lines[1] != "2024-01-01,10:00:00,Writing,draft,25" {
		t.Fatalf("unexpected row: %s", lines[1])
	}
	// Dangling label id exports with an empty label column.
	if !strings.Contains(lines[2], ",,") {
		t.Fatalf("expected empty label column for dangling id: %s", lines[2])
	}

	result, err := Import(strings.NewReader(buf.String()), labels, model.DefaultPalette)
	if err != nil {
		t.Fatalf("reimport: %v", err)
	}
	if len(result.Sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(result.Sessions))
	}
	if result.Sessions[0].Label != "l1" {
		t.Fatalf("round trip lost the label mapping: %q", result.Sessions[0].Label)
	}
	if result.Sessions[1].Duration != 930 {
		t.Fatalf("fractional minutes must survive the round trip, got %d", result.Sessions[1].Duration)
	}
}

func TestImportEmptyAndMalformed(t *testing.T) {
	result, err := Import(strings.NewReader(""), nil, nil)
	if err != nil {
		t.Fatalf("empty input must not error: %v", err)
	}
	if len(result.Sessions) != 0 {
		t.Fatalf("expected no sessions, got %d", len(result.Sessions))
	}

	if _, err := Import(strings.NewReader("not,a,real,header,x\n"), nil, nil); err == nil {
		t.Fatal("expected header validation error")
	}
	bad := "date,time,label,note,duration_minutes\n2024-01-01,10:00:00,,note,abc\n"
	if _, err := Import(strings.NewReader(bad), nil, nil); err == nil {
		t.Fatal("expected duration parse error")
	}
}
