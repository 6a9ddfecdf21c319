// Package slides assembles the proposal deck from confirmed step outputs.
package slides

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/rfpilot/internal/domain"
)

// ErrMissingAnalysis indicates a deck request without requirements.
var ErrMissingAnalysis = errors.New("slides need an analysis")

// Assembler turns step outputs into slides. Company and Contact appear on
// the closing slide.
type Assembler struct {
	Company string
	Contact string
}

// Assemble builds the deck: cover, agenda, overview, trends, one curriculum
// slide per match, instructors, schedule and closing. Slides are numbered
// from 1 in deck order. It is deterministic.
func (a Assembler) Assemble(analysis *domain.Analysis, trends []domain.TrendInsight, matches []domain.CourseMatch) ([]domain.Slide, error) {
	if analysis == nil {
		return nil, ErrMissingAnalysis
	}

	var deck deckBuilder
	deck.add(domain.SlideCover, domain.CoalesceStr(analysis.ProgramName, domain.UntitledProject),
		"Training proposal\n\n"+coverLine(analysis))
	agenda := deck.add(domain.SlideAgenda, "Agenda", "")
	deck.add(domain.SlideOverview, "Background and objectives", overview(analysis))
	deck.add(domain.SlideTrend, "Trend insights", trendLines(trends))
	for i, m := range matches {
		deck.add(domain.SlideCurriculum, fmt.Sprintf("Module %d: %s", i+1, m.CourseTitle),
			fmt.Sprintf("Instructor: %s\n\nWhy it fits:\n%s\n\nCovers the requested module %q.",
				m.Instructor, m.MatchReason, m.ModuleName))
	}
	deck.add(domain.SlideInstructor, "Instructors", instructorLines(matches))
	deck.add(domain.SlideSchedule, "Schedule",
		domain.CoalesceStr(analysis.Schedule, "To be agreed")+"\n\nPre-assessment -> Main course -> Follow-up")
	deck.add(domain.SlideClosing, "Thank you", closing(a.Company, a.Contact))

	deck.slides[agenda].Content = deck.agenda(agenda)
	return deck.slides, nil
}

type deckBuilder struct {
	slides []domain.Slide
}

// add appends a slide numbered after the last one and returns its index.
func (d *deckBuilder) add(typ domain.SlideType, title, content string) int {
	d.slides = append(d.slides, domain.Slide{
		ID:      len(d.slides) + 1,
		Title:   title,
		Content: content,
		Type:    typ,
	})
	return len(d.slides) - 1
}

// agenda lists the titles of the slides after index from.
func (d *deckBuilder) agenda(from int) string {
	lines := make([]string, 0, len(d.slides)-from-1)
	for _, s := range d.slides[from+1:] {
		if s.Type == domain.SlideClosing {
			continue
		}
		lines = append(lines, fmt.Sprintf("%d. %s", len(lines)+1, s.Title))
	}
	return strings.Join(lines, "\n")
}

func coverLine(a *domain.Analysis) string {
	if a.ClientName != "" {
		return "Prepared for " + a.ClientName
	}
	return "A proposal for developing your leaders"
}

func overview(a *domain.Analysis) string {
	var b strings.Builder
	if a.TargetAudience != "" {
		fmt.Fprintf(&b, "This program is designed for %s.\n", a.TargetAudience)
	}
	b.WriteString("Key objectives:\n")
	for _, o := range a.Objectives {
		b.WriteString("- " + o + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func trendLines(trends []domain.TrendInsight) string {
	if len(trends) == 0 {
		return "No trend research was included."
	}
	lines := make([]string, len(trends))
	for i, t := range trends {
		lines[i] = fmt.Sprintf("[%s] %s (source: %s)", t.Topic, t.Insight, t.Source)
	}
	return strings.Join(lines, "\n\n")
}

// instructorLines lists each instructor once, in match order, with the
// modules they teach.
func instructorLines(matches []domain.CourseMatch) string {
	var order []string
	modules := make(map[string][]string)
	for _, m := range matches {
		name := domain.CoalesceStr(m.Instructor, "To be assigned")
		if m.IsExternal {
			name += " (external)"
		}
		if _, seen := modules[name]; !seen {
			order = append(order, name)
		}
		modules[name] = append(modules[name], m.ModuleName)
	}
	if len(order) == 0 {
		return "Instructors are assigned once the curriculum is confirmed."
	}
	lines := make([]string, len(order))
	for i, name := range order {
		lines[i] = fmt.Sprintf("%s: %s", name, strings.Join(modules[name], ", "))
	}
	return strings.Join(lines, "\n")
}

func closing(company, contact string) string {
	var parts []string
	if company != "" {
		parts = append(parts, company)
	}
	if contact != "" {
		parts = append(parts, "Contact: "+contact)
	}
	return strings.Join(parts, "\n")
}
