package datapush

import (
	"fmt"
	"strings"
	"time"

	"TurnaroundAnalysis/src/processor"
	"TurnaroundAnalysis/src/report"
)

// maxGroups 消息中最多列出的分组数
const maxGroups = 10

// ReportMarkdown 报表摘要的 markdown 文本
func ReportMarkdown(rep *processor.Report, title, dimensionLabel string, at time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n\n", title)
	fmt.Fprintf(&b, "%s\n\n", at.Format("2006-01-02 15:04"))

	if !rep.OK() {
		b.WriteString(rep.Message + "\n")
		return b.String()
	}

	s := rep.Summary
	fmt.Fprintf(&b, "- Punctuality rate: **%s**\n", report.FormatPercent(s.PunctualityRate))
	fmt.Fprintf(&b, "- Average task duration: %s\n", report.FormatMinutes(s.AvgDurationMinutes))
	fmt.Fprintf(&b, "- Task count: %d\n", s.TaskCount)
	fmt.Fprintf(&b, "- Distinct turnarounds: %d\n", s.DistinctTurnarounds)
	fmt.Fprintf(&b, "- Punctuality variability: %s\n", report.FormatPercent(s.PunctualityStd))

	if len(rep.Grouped) > 0 {
		fmt.Fprintf(&b, "\n#### Punctuality by %s\n\n", strings.ToLower(dimensionLabel))
		for i, g := range rep.Grouped {
			if i == maxGroups {
				fmt.Fprintf(&b, "- ... (%d more)\n", len(rep.Grouped)-maxGroups)
				break
			}
			fmt.Fprintf(&b, "- %s: %.1f %% (%d)\n", g.Key, g.Rate, g.Count)
		}
	}
	return b.String()
}
