package domain

import (
	"slices"
	"time"
)

// FileMeta describes one uploaded RFP file.
type FileMeta struct {
	FileName   string    `json:"fileName" validate:"required"`
	Size       int64     `json:"size" validate:"gte=0"`
	UploadDate time.Time `json:"uploadDate"`
	Path       string    `json:"path,omitempty"`
}

// Draft is a persisted snapshot of one proposal in progress.
//
// Output fields are filled step by step: Analysis by the analysis step,
// Trends by research, SelectedStrategy by strategy and Matches by matching.
// A field is only ever populated for a step at or before Step.
type Draft struct {
	ID               string
	LastUpdated      time.Time
	Step             Step
	Files            []FileMeta
	Analysis         *Analysis
	Trends           []TrendInsight
	SelectedStrategy *Strategy
	Matches          []CourseMatch
}

// Clone returns a deep copy of d.
func (d *Draft) Clone() *Draft {
	if d == nil {
		return nil
	}
	c := *d
	c.Files = slices.Clone(d.Files)
	c.Analysis = d.Analysis.Clone()
	c.Trends = slices.Clone(d.Trends)
	c.SelectedStrategy = d.SelectedStrategy.Clone()
	c.Matches = slices.Clone(d.Matches)
	return &c
}

// DisplayTitle returns the best title for listings: the program name when
// known, then the first file name, then UntitledProject.
func (d *Draft) DisplayTitle() string {
	if d.Analysis != nil && d.Analysis.ProgramName != "" {
		return d.Analysis.ProgramName
	}
	if len(d.Files) > 0 && d.Files[0].FileName != "" {
		return d.Files[0].FileName
	}
	return UntitledProject
}

// Field is an optional patch value. Set distinguishes "leave untouched" from
// an explicit zero value such as a nil analysis or an empty trend list.
type Field[T any] struct {
	Value T
	Set   bool
}

// SetTo returns a Field carrying v.
func SetTo[T any](v T) Field[T] {
	return Field[T]{Value: v, Set: true}
}

// DraftPatch lists the fields of a draft to overwrite. Files are immutable
// after creation and cannot be patched.
type DraftPatch struct {
	Step             Field[Step]
	Analysis         Field[*Analysis]
	Trends           Field[[]TrendInsight]
	SelectedStrategy Field[*Strategy]
	Matches          Field[[]CourseMatch]
}

// PatchFromDraft returns a patch that overwrites every mutable field with
// the values of d, including explicit clears.
func PatchFromDraft(d *Draft) DraftPatch {
	return DraftPatch{
		Step:             SetTo(d.Step),
		Analysis:         SetTo(d.Analysis),
		Trends:           SetTo(d.Trends),
		SelectedStrategy: SetTo(d.SelectedStrategy),
		Matches:          SetTo(d.Matches),
	}
}

// Apply merges the set fields of p into d and stamps LastUpdated.
// Values are copied so the caller may keep mutating its own.
func (d *Draft) Apply(p DraftPatch, now time.Time) {
	if p.Step.Set {
		d.Step = p.Step.Value
	}
	if p.Analysis.Set {
		d.Analysis = p.Analysis.Value.Clone()
	}
	if p.Trends.Set {
		d.Trends = slices.Clone(p.Trends.Value)
	}
	if p.SelectedStrategy.Set {
		d.SelectedStrategy = p.SelectedStrategy.Value.Clone()
	}
	if p.Matches.Set {
		d.Matches = slices.Clone(p.Matches.Value)
	}
	d.LastUpdated = NextTimestamp(d.LastUpdated, now)
}

// NextTimestamp returns now in UTC, or one nanosecond past prev when the
// clock has not moved forward, so mutation stamps strictly increase.
func NextTimestamp(prev, now time.Time) time.Time {
	now = now.UTC()
	if !now.After(prev) {
		return prev.UTC().Add(time.Nanosecond)
	}
	return now
}
