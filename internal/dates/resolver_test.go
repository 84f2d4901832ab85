package dates

import (
	"path/filepath"
	"testing"
	"time"
)

func fixedNow() time.Time {
	return time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func TestResolver_Resolve(t *testing.T) {
	r := NewResolver(fixedNow)

	exif := time.Date(2019, 5, 1, 8, 0, 0, 0, time.UTC)
	created := time.Date(2020, 6, 2, 9, 0, 0, 0, time.UTC)
	modified := time.Date(2021, 7, 3, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		candidate  Candidate
		wantDate   time.Time
		wantSource Source
	}{
		{
			name:       "all present picks metadata",
			candidate:  Candidate{Embedded: ptr(exif), Created: ptr(created), Modified: ptr(modified)},
			wantDate:   exif,
			wantSource: SourceMetadata,
		},
		{
			name:       "no metadata picks created",
			candidate:  Candidate{Created: ptr(created), Modified: ptr(modified)},
			wantDate:   created,
			wantSource: SourceCreated,
		},
		{
			name:       "only modified",
			candidate:  Candidate{Modified: ptr(modified)},
			wantDate:   modified,
			wantSource: SourceModified,
		},
		{
			name:       "nothing falls back to now",
			candidate:  Candidate{},
			wantDate:   fixedNow(),
			wantSource: SourceDiscovered,
		},
		{
			name:       "pre-epoch metadata is skipped",
			candidate:  Candidate{Embedded: ptr(time.Date(1960, 1, 1, 0, 0, 0, 0, time.UTC)), Modified: ptr(modified)},
			wantDate:   modified,
			wantSource: SourceModified,
		},
		{
			name:       "far future created is skipped",
			candidate:  Candidate{Created: ptr(fixedNow().Add(48 * time.Hour)), Modified: ptr(modified)},
			wantDate:   modified,
			wantSource: SourceModified,
		},
		{
			name:       "slight future skew is tolerated",
			candidate:  Candidate{Embedded: ptr(fixedNow().Add(3 * time.Hour))},
			wantDate:   fixedNow().Add(3 * time.Hour),
			wantSource: SourceMetadata,
		},
		{
			name:       "zero time is invalid",
			candidate:  Candidate{Embedded: ptr(time.Time{}), Created: ptr(created)},
			wantDate:   created,
			wantSource: SourceCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Resolve(tt.candidate)
			if got.Source != tt.wantSource {
				t.Errorf("Source = %q, want %q", got.Source, tt.wantSource)
			}
			if !got.Date.Equal(tt.wantDate) {
				t.Errorf("Date = %v, want %v", got.Date, tt.wantDate)
			}
			if got.Date.Location() != time.UTC {
				t.Errorf("Date location = %v, want UTC", got.Date.Location())
			}
		})
	}
}

func TestResolver_Resolve_DiscoveredUsesWallClock(t *testing.T) {
	r := NewResolver(nil)
	before := time.Now().Add(-time.Second)
	got := r.Resolve(Candidate{})
	after := time.Now().Add(time.Second)

	if got.Source != SourceDiscovered {
		t.Fatalf("Source = %q, want %q", got.Source, SourceDiscovered)
	}
	if got.Date.Before(before) || got.Date.After(after) {
		t.Errorf("Date = %v, want between %v and %v", got.Date, before, after)
	}
}

func TestResolver_Resolve_NormalizesToUTC(t *testing.T) {
	r := NewResolver(fixedNow)
	loc := time.FixedZone("UTC+2", 2*60*60)
	local := time.Date(2023, 7, 15, 1, 0, 0, 123456789, loc)

	got := r.Resolve(Candidate{Modified: &local})
	want := time.Date(2023, 7, 14, 23, 0, 0, 123000000, time.UTC)
	if !got.Date.Equal(want) || got.Date.Location() != time.UTC {
		t.Errorf("Date = %v, want %v", got.Date, want)
	}
}

func TestResolver_Components(t *testing.T) {
	r := NewResolver(fixedNow)

	t.Run("zero pads month and day", func(t *testing.T) {
		c := r.Components(time.Date(2023, 7, 5, 0, 0, 0, 0, time.UTC))
		if c.Year != "2023" || c.Month != "07" || c.Day != "05" {
			t.Errorf("Components = %+v, want 2023/07/05", c)
		}
	})

	t.Run("invalid date falls back to now", func(t *testing.T) {
		c := r.Components(time.Time{})
		if c.Year != "2024" || c.Month != "01" || c.Day != "15" {
			t.Errorf("Components = %+v, want 2024/01/15", c)
		}
	})
}

func TestResolver_DestinationPath(t *testing.T) {
	r := NewResolver(fixedNow)
	got := r.DestinationPath("/dest", time.Date(2023, 7, 15, 12, 0, 0, 0, time.UTC), "photo.jpg")
	want := filepath.Join("/dest", "2023", "07", "15", "photo.jpg")
	if got != want {
		t.Errorf("DestinationPath() = %q, want %q", got, want)
	}
}

func TestDestinationBase(t *testing.T) {
	r := NewResolver(fixedNow)
	dest := r.DestinationPath("/data/organized", time.Date(2023, 7, 15, 12, 0, 0, 0, time.UTC), "photo (2).jpg")
	if got := DestinationBase(dest); got != filepath.Clean("/data/organized") {
		t.Errorf("DestinationBase(%q) = %q, want /data/organized", dest, got)
	}
}
