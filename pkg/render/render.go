// Package render turns engine state into chat messages.
package render

import (
	"fmt"
	"strings"
	"time"

	"escabot/pkg/chat"
	"escabot/pkg/escalator"
	"escabot/pkg/tracker"
)

// GistTitle heads every gist.
const GistTitle = "Here's the gist..."

// Embed colours.
var (
	ColorOutOfOrder = chat.RGB(240, 60, 60)
	ColorUnknown    = chat.RGB(240, 200, 40)
	ColorAllOpen    = chat.RGB(55, 220, 70)
)

func code(s string) string { return "`" + s + "`" }

func isAre(n int) string {
	if n == 1 {
		return "is"
	}
	return "are"
}

// Nounify names a set of escalators for use in a sentence, e.g.
// "The `4-2`, `7-9`, and `9-7` escalators".
func Nounify(floors []escalator.Floors) string {
	switch len(floors) {
	case 0:
		return "`NO` escalators"
	case 1:
		return "The " + code(floors[0].String()) + " escalator"
	}
	names := make([]string, len(floors))
	for i, f := range floors {
		names[i] = code(f.String())
	}
	last := len(names) - 1
	return fmt.Sprintf("The %s, and %s escalators", strings.Join(names[:last], ", "), names[last])
}

// summarize writes one line of a gist. ALL wins over MANY, and MANY covers
// at least half of total.
func summarize(g tracker.StatusGroup, total int) string {
	n := len(g.Escalators)
	var noun string
	switch {
	case n == total:
		noun = "`ALL` escalators"
	case n >= total/2:
		noun = "`MANY` escalators"
	default:
		noun = Nounify(g.Escalators)
	}
	return fmt.Sprintf("%s %s %s %s.", code(g.Status.Emoji()), noun, isAre(n), code(g.Status.ID()))
}

// Gist renders a summary.
func Gist(g tracker.Gist) chat.Message {
	msg := chat.Message{Title: GistTitle}
	switch g.Kind {
	case tracker.GistOutOfOrder, tracker.GistUnknown:
		lines := make([]string, 0, len(g.Groups))
		for _, group := range g.Groups {
			lines = append(lines, summarize(group, g.Total))
		}
		msg.Description = strings.Join(lines, "\n")
		msg.Color = ColorOutOfOrder
		if g.Kind == tracker.GistUnknown {
			msg.Color = ColorUnknown
		}
	default:
		msg.Description = code(escalator.Open.Emoji()) + " `ALL` escalators are `OPEN`! 🥳 🎉"
		msg.Color = ColorAllOpen
	}
	return msg
}

// Alert is the direct message sent to watchers of a report's escalators.
func Alert(r tracker.UserReport) string {
	return fmt.Sprintf("%s %s %s %s",
		code(r.Status.Emoji()), Nounify(r.Affected), isAre(len(r.Affected)), code(r.Status.ID()))
}

// Menu lists every row, two per line so each escalator sits next to its
// inverse.
func Menu(rows []tracker.MenuRow) string {
	var b strings.Builder
	b.WriteString("**Escalator Statuses:**```\n")
	for i, row := range rows {
		if i > 0 {
			if i%2 == 0 {
				b.WriteByte('\n')
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteString(row.Status.Emoji())
		b.WriteByte(' ')
		b.WriteString(row.Floors.String())
	}
	b.WriteString("```")
	return b.String()
}

// Announcement renders a batch: the current gist, the reports received
// (oldest first) shown newest first and capped at maxReports, and the
// escalators that expired in the same window without being reported.
func Announcement(g tracker.Gist, reports []tracker.UserReport, outdated []escalator.Floors, maxReports int, now time.Time) chat.Message {
	msg := Gist(g)
	msg.Timestamp = now

	if len(reports) > 0 {
		shown := len(reports)
		if maxReports > 0 && shown > maxReports {
			shown = maxReports
		}
		lines := make([]string, 0, shown+1)
		for i := len(reports) - 1; i >= len(reports)-shown; i-- {
			lines = append(lines, Alert(reports[i]))
		}
		if rest := len(reports) - shown; rest > 0 {
			lines = append(lines, fmt.Sprintf("...and %d more", rest))
		}
		msg.Fields = append(msg.Fields, chat.Field{
			Name:  "Recent reports (newest first)",
			Value: strings.Join(lines, "\n"),
		})
	}

	reported := make(map[escalator.Floors]bool)
	for _, r := range reports {
		for _, f := range r.Affected {
			reported[f] = true
		}
	}
	var expired []escalator.Floors
	for _, f := range outdated {
		if !reported[f] {
			expired = append(expired, f)
		}
	}
	if len(expired) > 0 {
		msg.Fields = append(msg.Fields, chat.Field{
			Name: "Outdated statuses",
			Value: fmt.Sprintf("%s %s %s now %s",
				code(escalator.Unknown.Emoji()), Nounify(expired), isAre(len(expired)), code(escalator.Unknown.ID())),
		})
	}
	return msg
}
