// Package ui renders reminders for humans. Machine output stays JSON.
package ui

import (
	"fmt"
	"strings"

	"github.com/hpungsan/remind/internal/ops"
	"github.com/hpungsan/remind/internal/reminder"
	"github.com/hpungsan/remind/internal/session"
)

// Item renders one reminder as "[index] display  transcript".
func Item(it *reminder.Item) string {
	text := it.Transcript
	if text == "" {
		text = DimStyle.Render("(no transcript)")
	}
	return fmt.Sprintf("%s %s  %s",
		IndexStyle.Render(fmt.Sprintf("[%d]", it.Index)),
		AlarmStyle.Render(it.Display),
		text)
}

// List renders a listing, one reminder per line, followed by skipped rows.
func List(out *ops.ListOutput) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("Reminders (%d)", out.Count)))
	b.WriteByte('\n')
	if len(out.Items) == 0 {
		b.WriteString(DimStyle.Render("no reminders"))
		b.WriteByte('\n')
	}
	for i := range out.Items {
		b.WriteString(Item(&out.Items[i]))
		b.WriteByte('\n')
	}
	for _, s := range out.Skipped {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("skipped %s: %s", s.ID, s.Reason)))
		b.WriteByte('\n')
	}
	return b.String()
}

// Parsed renders a dry-run resolution.
func Parsed(out *ops.ParseOutput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", AlarmStyle.Render(out.Display), DimStyle.Render(out.AlarmTime))
	if len(out.Tokens) > 0 {
		fmt.Fprintf(&b, "%s %s\n", DimStyle.Render("tokens:"), strings.Join(out.Tokens, " "))
	}
	for _, e := range out.Expressions {
		fmt.Fprintf(&b, "%s %s\n", DimStyle.Render("matched:"), e)
	}
	return b.String()
}

// Error renders an error line.
func Error(err error) string {
	return ErrorStyle.Render("error: " + err.Error())
}

// Indicator renders frame (0..6) of the status light for state.
func Indicator(state session.State, frame int) string {
	if frame <= 0 || !state.Active() {
		return IdleDotStyle.Render("○ " + state.String())
	}
	if frame > 6 {
		frame = 6
	}
	bars := strings.Repeat("▮", frame) + strings.Repeat("▯", 6-frame)
	style := RecordingDotStyle
	if state == session.Playing {
		style = PlayingDotStyle
	}
	return style.Render("● "+bars) + " " + state.String()
}
