package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/rfpilot/internal/domain"
	"github.com/alexanderramin/rfpilot/internal/service"
	"github.com/alexanderramin/rfpilot/internal/workflow"
)

// FormatDraftList renders the draft dashboard table.
func FormatDraftList(drafts []service.DraftSummary, now time.Time) string {
	if len(drafts) == 0 {
		return Dim("No drafts in progress. Start one with `rfpilot draft new`.") + "\n"
	}
	rows := make([][]string, 0, len(drafts))
	for _, d := range drafts {
		rows = append(rows, []string{
			TruncID(d.ID),
			Bold(d.Title),
			d.StepLabel,
			RenderProgress(d.Progress, 10),
			fmt.Sprintf("%d", d.FileCount),
			Dim(HumanTimestampFrom(d.LastUpdated, now)),
		})
	}
	return Header("Drafts") + "\n" +
		RenderTable([]string{"ID", "TITLE", "STEP", "PROGRESS", "FILES", "UPDATED"}, rows)
}

// FormatDraft renders every stored output of a draft.
func FormatDraft(d *domain.Draft, pipeline workflow.Pipeline) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", Dim("ID      "), d.ID)
	fmt.Fprintf(&b, "%s  %s\n", Dim("STEP    "), d.Step.Label())
	fmt.Fprintf(&b, "%s  %s\n", Dim("PROGRESS"), RenderProgress(pipeline.Progress(d.Step), 20))
	fmt.Fprintf(&b, "%s  %s\n", Dim("UPDATED "), d.LastUpdated.Local().Format("Jan 2, 2006 15:04"))

	b.WriteString("\n" + Header("Files") + "\n")
	b.WriteString(renderFiles(d.Files))
	if d.Analysis != nil {
		b.WriteString("\n" + Header("Analysis") + "\n")
		b.WriteString(renderAnalysis(d.Analysis))
	}
	if d.Trends != nil {
		b.WriteString("\n" + Header("Trends") + "\n")
		b.WriteString(renderTrends(d.Trends))
	}
	if d.SelectedStrategy != nil {
		b.WriteString("\n" + Header("Strategy") + "\n")
		b.WriteString(renderStrategies([]domain.Strategy{*d.SelectedStrategy}, d.SelectedStrategy.ID))
	}
	if d.Matches != nil {
		b.WriteString("\n" + Header("Curriculum") + "\n")
		b.WriteString(renderMatches(d.Matches))
	}
	return RenderBox(d.DisplayTitle(), strings.TrimRight(b.String(), "\n"))
}

// FormatCandidate renders the output waiting for review at the current step.
func FormatCandidate(c workflow.Candidate) string {
	var b strings.Builder
	switch c.Status {
	case workflow.CandidateIdle:
		return Dim("Nothing generated yet.") + "\n"
	case workflow.CandidatePending:
		return Dim("Generating…") + "\n"
	case workflow.CandidateFailed:
		return StyleRed.Render("Generation failed: ") + fmt.Sprint(c.Err) + "\n" +
			Dim("Regenerate to try again.") + "\n"
	case workflow.CandidateDegraded:
		b.WriteString(StyleYellow.Render("⚠ Sample content: "+c.Reason) + "\n\n")
	}

	p := c.Payload
	switch c.Step {
	case domain.StepUpload:
		b.WriteString(renderFiles(p.Files))
	case domain.StepAnalysis:
		b.WriteString(renderAnalysis(p.Analysis))
	case domain.StepResearch:
		b.WriteString(renderTrends(p.Trends))
	case domain.StepStrategy:
		selected := ""
		if p.Strategy != nil {
			selected = p.Strategy.ID
		}
		b.WriteString(renderStrategies(p.Strategies, selected))
	case domain.StepMatching:
		b.WriteString(renderMatches(p.Matches))
	case domain.StepPreview:
		if p.Preview != nil {
			b.WriteString(renderSlides(p.Preview.Slides))
			if p.Preview.Quality != nil {
				b.WriteString("\n" + FormatQuality(*p.Preview.Quality))
			}
		}
	}
	return RenderBox(c.Step.Label(), strings.TrimRight(b.String(), "\n"))
}

func renderFiles(files []domain.FileMeta) string {
	if len(files) == 0 {
		return "  " + Dim("(no files)") + "\n"
	}
	var b strings.Builder
	for _, f := range files {
		fmt.Fprintf(&b, "  %s %s\n", f.FileName, Dim(humanSize(f.Size)))
	}
	return b.String()
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func renderAnalysis(a *domain.Analysis) string {
	if a == nil {
		return "  " + Dim("(empty)") + "\n"
	}
	var b strings.Builder
	field := func(label, v string) {
		fmt.Fprintf(&b, "  %-12s %s\n", Dim(label), orDash(v))
	}
	field("Client", a.ClientName)
	field("Industry", a.Industry)
	field("Department", a.Department)
	field("Program", a.ProgramName)
	field("Audience", a.TargetAudience)
	field("Schedule", a.Schedule)
	field("Location", a.Location)
	field("Requests", a.SpecialRequests)
	b.WriteString("\n  " + Bold("Objectives") + "\n")
	b.WriteString(bullets(a.Objectives))
	b.WriteString("\n  " + Bold("Modules") + "\n")
	b.WriteString(bullets(a.Modules))
	return b.String()
}

func renderTrends(trends []domain.TrendInsight) string {
	if len(trends) == 0 {
		return "  " + Dim("(no trends)") + "\n"
	}
	var b strings.Builder
	for _, t := range trends {
		fmt.Fprintf(&b, "  %s %s\n", Bold(t.Topic), ScoreStyle(t.RelevanceScore).Render(fmt.Sprintf("(%d)", t.RelevanceScore)))
		if t.Insight != "" {
			fmt.Fprintf(&b, "    %s\n", t.Insight)
		}
		if t.Source != "" {
			fmt.Fprintf(&b, "    %s\n", Dim("source: "+t.Source))
		}
	}
	return b.String()
}

func renderStrategies(strategies []domain.Strategy, selected string) string {
	if len(strategies) == 0 {
		return "  " + Dim("(no strategies)") + "\n"
	}
	var b strings.Builder
	for _, s := range strategies {
		marker := Dim("○")
		if s.ID == selected {
			marker = StyleGreen.Render("●")
		}
		fmt.Fprintf(&b, "  %s %s  %s\n", marker, Bold(s.Title), Score(s.QualityScore))
		if s.Description != "" {
			fmt.Fprintf(&b, "    %s\n", s.Description)
		}
		if len(s.Keywords) > 0 {
			fmt.Fprintf(&b, "    %s\n", StylePurple.Render(strings.Join(s.Keywords, " · ")))
		}
		if s.QualityAdvice != "" {
			fmt.Fprintf(&b, "    %s\n", Dim("advice: "+s.QualityAdvice))
		}
	}
	return b.String()
}

func renderMatches(matches []domain.CourseMatch) string {
	if len(matches) == 0 {
		return "  " + Dim("(no matches)") + "\n"
	}
	rows := make([][]string, 0, len(matches))
	for _, m := range matches {
		source := "internal"
		if m.IsExternal {
			source = StyleYellow.Render("external")
		}
		rows = append(rows, []string{m.ModuleName, m.CourseTitle, m.Instructor, Score(m.MatchScore), source})
	}
	return RenderTable([]string{"MODULE", "COURSE", "INSTRUCTOR", "MATCH", "SOURCE"}, rows)
}

func renderSlides(slides []domain.Slide) string {
	var b strings.Builder
	for _, s := range slides {
		fmt.Fprintf(&b, "  %s %s %s\n", StylePurple.Render(fmt.Sprintf("%2d", s.ID)), Bold(s.Title), Dim("["+string(s.Type)+"]"))
		for _, line := range strings.Split(strings.TrimSpace(s.Content), "\n") {
			if line != "" {
				fmt.Fprintf(&b, "     %s\n", line)
			}
		}
	}
	return b.String()
}
