package mcp

import "github.com/mark3labs/mcp-go/mcp"

var parseToolDef = mcp.NewTool("reminder_parse",
	mcp.WithDescription("Resolve a spoken or typed reminder to an alarm time without storing it. "+
		"Understands Korean and English, e.g. \"내일 오후 3시에 회의\" or \"next friday at 3pm\"."),
	mcp.WithString("text", mcp.Required(), mcp.Description("Transcript to resolve")),
	mcp.WithBoolean("explain", mcp.Description("Include normalized tokens and matched expressions")),
)

var addToolDef = mcp.NewTool("reminder_add",
	mcp.WithDescription("Resolve a transcript and append it to the reminder log."),
	mcp.WithString("transcript", mcp.Required(), mcp.Description("Reminder text; its time words set the alarm")),
	mcp.WithString("audio_file", mcp.Description("Optional recording file name inside the audio directory")),
)

var listToolDef = mcp.NewTool("reminder_list",
	mcp.WithDescription("List resolved reminders in insertion order. index is the position used by reminder_fetch."),
	mcp.WithBoolean("reverse", mcp.Description("Newest first")),
)

var latestToolDef = mcp.NewTool("reminder_latest",
	mcp.WithDescription("Return the most recently resolved reminder, or null when the log is empty."),
)

var fetchToolDef = mcp.NewTool("reminder_fetch",
	mcp.WithDescription("Return the reminder at a list position."),
	mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based position in insertion order")),
)

var exportToolDef = mcp.NewTool("reminder_export",
	mcp.WithDescription("Export resolved reminders as JSONL (re-importable) or an HTML agenda."),
	mcp.WithString("path", mcp.Description("Destination path; default is ~/.remind/exports/reminders-<timestamp>.<format>")),
	mcp.WithString("format", mcp.Enum("jsonl", "html"), mcp.Description("Inferred from path when omitted")),
)

var importToolDef = mcp.NewTool("reminder_import",
	mcp.WithDescription("Append the reminders of a JSONL export. Malformed lines are skipped and reported."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Path to a .jsonl export")),
)
