package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/rfpilot/internal/domain"
)

// FormatHistoryList renders archived proposals, newest first.
func FormatHistoryList(proposals []*domain.HistoricalProposal) string {
	if len(proposals) == 0 {
		return Dim("No archived proposals yet.") + "\n"
	}
	rows := make([][]string, 0, len(proposals))
	for _, p := range proposals {
		score := Dim("--")
		if p.Quality != nil {
			score = Score(p.Quality.TotalScore)
		}
		rows = append(rows, []string{
			TruncID(p.ID),
			Bold(p.Title),
			orDash(p.ClientName),
			p.Date.UTC().Format("2006-01-02"),
			StatusPill(p.Status),
			score,
		})
	}
	return Header("Proposal history") + "\n" +
		RenderTable([]string{"ID", "TITLE", "CLIENT", "DATE", "STATUS", "QUALITY"}, rows)
}

// FormatProposal renders one archived proposal with its assessment.
func FormatProposal(p *domain.HistoricalProposal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", Dim("ID      "), p.ID)
	fmt.Fprintf(&b, "%s  %s\n", Dim("CLIENT  "), orDash(p.ClientName))
	fmt.Fprintf(&b, "%s  %s\n", Dim("INDUSTRY"), orDash(p.Industry))
	fmt.Fprintf(&b, "%s  %s\n", Dim("DATE    "), p.Date.UTC().Format("Jan 2, 2006"))
	fmt.Fprintf(&b, "%s  %s\n", Dim("STATUS  "), StatusPill(p.Status))
	fmt.Fprintf(&b, "%s  %s\n", Dim("FILE    "), orDash(p.FileName))
	if len(p.Tags) > 0 {
		fmt.Fprintf(&b, "%s  %s\n", Dim("TAGS    "), StylePurple.Render(strings.Join(p.Tags, " · ")))
	}
	b.WriteString("\n")
	if p.Quality == nil {
		b.WriteString(Dim("Not evaluated. Run `rfpilot history evaluate "+p.ID+"`."))
	} else {
		b.WriteString(FormatQuality(*p.Quality))
	}
	return RenderBox(p.Title, strings.TrimRight(b.String(), "\n"))
}

// FormatQuality renders the three criteria and the total score.
func FormatQuality(q domain.QualityAssessment) string {
	var b strings.Builder
	b.WriteString(Header("Quality") + "\n")
	criterion := func(label string, score int, reason string) {
		fmt.Fprintf(&b, "  %-22s %s\n", label, Score(score))
		if reason != "" {
			fmt.Fprintf(&b, "    %s\n", Dim(reason))
		}
	}
	criterion("RFP compliance", q.ComplianceScore, q.ComplianceReason)
	criterion("Instructor expertise", q.InstructorExpertiseScore, q.InstructorExpertiseReason)
	criterion("Industry match", q.IndustryMatchScore, q.IndustryMatchReason)
	fmt.Fprintf(&b, "  %-22s %s\n", Bold("Total"), Score(q.TotalScore))
	if q.OverallComment != "" {
		fmt.Fprintf(&b, "\n  %s\n", q.OverallComment)
	}
	return b.String()
}
