package repository

import "time"

// timestampLayouts covers both the precision this code writes and the
// second-granularity rows older databases may hold.
var timestampLayouts = []string{time.RFC3339Nano, time.RFC3339}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	var err error
	for _, layout := range timestampLayouts {
		var t time.Time
		if t, err = time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, err
}
