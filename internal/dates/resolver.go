// Package dates picks the single authoritative timestamp for a catalogued file
// and maps it onto the date-partitioned destination layout.
package dates

import (
	"fmt"
	"path/filepath"
	"time"
)

// Source tags where a resolved date came from.
type Source string

const (
	SourceMetadata   Source = "metadata"
	SourceCreated    Source = "created"
	SourceModified   Source = "modified"
	SourceDiscovered Source = "discovered"
)

// maxSkew is how far into the future a candidate may lie and still be trusted.
// Covers clock and timezone drift between the camera, the filesystem and us.
const maxSkew = 24 * time.Hour

// Candidate carries the optional dates a file offers, in no particular order.
type Candidate struct {
	Embedded *time.Time
	Created  *time.Time
	Modified *time.Time
}

// Resolution is the outcome of Resolve.
type Resolution struct {
	Date   time.Time
	Source Source
}

// Components are the zero-padded path segments for a date.
type Components struct {
	Year  string
	Month string
	Day   string
}

// Resolver applies the date priority chain. It never fails: anything unusable
// degrades to the current time.
type Resolver struct {
	now func() time.Time
}

// NewResolver creates a Resolver. now supplies the wall clock; nil means time.Now.
func NewResolver(now func() time.Time) *Resolver {
	if now == nil {
		now = time.Now
	}
	return &Resolver{now: now}
}

// Resolve returns the first valid date in the order embedded, created, modified,
// falling back to the current time tagged SourceDiscovered.
func (r *Resolver) Resolve(c Candidate) Resolution {
	chain := []struct {
		t      *time.Time
		source Source
	}{
		{c.Embedded, SourceMetadata},
		{c.Created, SourceCreated},
		{c.Modified, SourceModified},
	}
	for _, step := range chain {
		if step.t != nil && r.IsValid(*step.t) {
			return Resolution{Date: normalize(*step.t), Source: step.source}
		}
	}
	return Resolution{Date: normalize(r.now()), Source: SourceDiscovered}
}

// IsValid reports whether t is a real instant between the Unix epoch and
// one day from now.
func (r *Resolver) IsValid(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	if t.Before(time.Unix(0, 0)) {
		return false
	}
	return !t.After(r.now().Add(maxSkew))
}

// Components splits date into year/month/day path segments. An invalid date
// yields the components of the current date.
func (r *Resolver) Components(date time.Time) Components {
	if !r.IsValid(date) {
		date = r.now()
	}
	d := normalize(date)
	return Components{
		Year:  fmt.Sprintf("%04d", d.Year()),
		Month: fmt.Sprintf("%02d", int(d.Month())),
		Day:   fmt.Sprintf("%02d", d.Day()),
	}
}

// DestinationPath returns base/YYYY/MM/DD/filename.
func (r *Resolver) DestinationPath(base string, date time.Time, filename string) string {
	c := r.Components(date)
	return filepath.Join(base, c.Year, c.Month, c.Day, filename)
}

// DestinationBase undoes DestinationPath: it returns the base directory of a
// base/YYYY/MM/DD/filename path.
func DestinationBase(dest string) string {
	return filepath.Dir(filepath.Dir(filepath.Dir(filepath.Dir(filepath.Clean(dest)))))
}

// normalize converts to UTC with millisecond precision.
func normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
