package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/hpungsan/remind/internal/audio"
	"github.com/hpungsan/remind/internal/clock"
	"github.com/hpungsan/remind/internal/errors"
	"github.com/hpungsan/remind/internal/indicator"
	"github.com/hpungsan/remind/internal/ops"
	"github.com/hpungsan/remind/internal/session"
	"github.com/hpungsan/remind/internal/speech"
	"github.com/hpungsan/remind/internal/timeexpr"
	"github.com/hpungsan/remind/internal/ui"
)

// env carries what the commands share. It is nil for --help and --version.
type env struct {
	ledger   *ops.Ledger
	log      *logrus.Logger
	clock    clock.Clock
	audioDir string

	// newTranscriber overrides the speech recognizer; tests set it.
	newTranscriber func(ctx context.Context) (session.Transcriber, func(), error)
}

func prettyFlag() cli.Flag {
	return &cli.BoolFlag{Name: "pretty", Aliases: []string{"p"}, Usage: "Human-readable output"}
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(e *env) *cli.App {
	app := &cli.App{
		Name:    "remind",
		Usage:   "Voice reminders with natural-language times",
		Version: Version,
		Commands: []*cli.Command{
			parseCmd(e),
			addCmd(e),
			recordCmd(e),
			listCmd(e),
			latestCmd(e),
			fetchCmd(e),
			playCmd(e),
			exportCmd(e),
			importCmd(e),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// parseCmd creates the parse command.
func parseCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "parse",
		Usage:     "Resolve a reminder text to an alarm time without storing it",
		ArgsUsage: "<text...> (or pipe via stdin)",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "explain", Aliases: []string{"v"}, Usage: "Show tokens and matched expressions"},
			prettyFlag(),
		},
		Action: func(c *cli.Context) error {
			text, err := textArg(c)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Parse(c.Context, e.ledger.Config(), ops.ParseInput{
				Text:    text,
				Now:     e.clock.Now(),
				Explain: c.Bool("explain"),
			})
			if err != nil {
				return outputError(err)
			}

			if c.Bool("pretty") {
				return outputText(c, ui.Parsed(output))
			}
			return outputJSON(c, output)
		},
	}
}

// addCmd creates the add command.
func addCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Store a typed reminder",
		ArgsUsage: "<text...> (or pipe via stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "audio-file", Aliases: []string{"a"}, Usage: "Recording file name inside ~/.remind/audio"},
			prettyFlag(),
		},
		Action: func(c *cli.Context) error {
			text, err := textArg(c)
			if err != nil {
				return outputError(err)
			}

			output, err := e.ledger.Add(c.Context, c.String("audio-file"), text)
			if err != nil {
				return outputError(err)
			}

			if c.Bool("pretty") {
				return outputText(c, fmt.Sprintf("%s  %s\n", ui.AlarmStyle.Render(output.Display), output.Transcript))
			}
			return outputJSON(c, output)
		},
	}
}

// recordOutput is printed once a recording has been transcribed and stored.
type recordOutput struct {
	ID         string `json:"id"`
	AudioFile  string `json:"audio_file"`
	Transcript string `json:"transcript"`
	AlarmTime  string `json:"alarm_time"`
	Display    string `json:"display"`
}

// recordCmd creates the record command.
func recordCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "record",
		Usage: "Record a spoken reminder from raw PCM on stdin (e.g. arecord -f S16_LE -r 16000 -c 1 -t raw)",
		Flags: []cli.Flag{
			&cli.DurationFlag{Name: "max-duration", Aliases: []string{"d"}, Usage: "Stop recording after this long (default: until EOF or Ctrl-C)"},
			&cli.StringFlag{Name: "transcript", Usage: "Use this text instead of calling the speech recognizer"},
			prettyFlag(),
		},
		Action: func(c *cli.Context) error {
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
			defer stop()

			tr, closeTr, err := e.transcriber(ctx, c)
			if err != nil {
				return outputError(err)
			}
			defer closeTr()

			cfg := e.ledger.Config()
			src := newEOFSource(audio.NewReaderSource(c.App.Reader))
			outcomes := make(chan session.Outcome, 1)
			ctrl := session.New(session.Options{
				AudioDir:    e.audioDir,
				SampleRate:  cfg.SampleRate,
				BufferSize:  cfg.BufferSize,
				Recorder:    audio.NewRecorder(src, cfg.BufferSize, e.log),
				Transcriber: tr,
				Store:       e.ledger,
				Clock:       e.clock,
				Logger:      e.log,
				OnOutcome:   func(o session.Outcome) { outcomes <- o },
			})
			defer ctrl.Close()

			if c.Bool("pretty") {
				defer animate(ctx, c, ctrl)()
			}

			if _, err := ctrl.StartRecording(ctx); err != nil {
				return outputError(err)
			}

			var limit <-chan time.Time
			if d := c.Duration("max-duration"); d > 0 {
				limit = time.After(d)
			}
			select {
			case <-src.eof:
			case <-limit:
			case <-ctx.Done():
			}

			if _, err := ctrl.StopRecording(context.WithoutCancel(ctx)); err != nil {
				return outputError(err)
			}
			o := <-outcomes
			if o.Err != nil {
				return outputError(o.Err)
			}

			ts, err := timeexpr.Parse(o.AlarmTime)
			if err != nil {
				return outputError(err)
			}
			out := recordOutput{
				ID:         o.RecordID,
				AudioFile:  o.AudioFile,
				Transcript: o.Transcript,
				AlarmTime:  o.AlarmTime,
				Display:    timeexpr.Display(ts, cfg.DisplayLocale()),
			}
			if c.Bool("pretty") {
				return outputText(c, fmt.Sprintf("%s  %s\n", ui.AlarmStyle.Render(out.Display), out.Transcript))
			}
			return outputJSON(c, out)
		},
	}
}

// listCmd creates the list command.
func listCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List stored reminders in insertion order",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "reverse", Aliases: []string{"r"}, Usage: "Newest first"},
			prettyFlag(),
		},
		Action: func(c *cli.Context) error {
			output, err := ops.List(c.Context, e.ledger.DB(), e.ledger.Config(), ops.ListInput{Reverse: c.Bool("reverse")})
			if err != nil {
				return outputError(err)
			}

			if c.Bool("pretty") {
				return outputText(c, ui.List(output))
			}
			return outputJSON(c, output)
		},
	}
}

// latestCmd creates the latest command.
func latestCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "latest",
		Usage: "Show the most recently stored reminder",
		Flags: []cli.Flag{prettyFlag()},
		Action: func(c *cli.Context) error {
			output, err := ops.Latest(c.Context, e.ledger.DB(), e.ledger.Config())
			if err != nil {
				return outputError(err)
			}

			if c.Bool("pretty") {
				if output.Item == nil {
					return outputText(c, ui.DimStyle.Render("no reminders")+"\n")
				}
				return outputText(c, ui.Item(output.Item)+"\n")
			}
			return outputJSON(c, output)
		},
	}
}

// fetchCmd creates the fetch command.
func fetchCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Show the reminder at a list position",
		ArgsUsage: "<index>",
		Flags:     []cli.Flag{prettyFlag()},
		Action: func(c *cli.Context) error {
			index, err := indexArg(c)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Fetch(c.Context, e.ledger.DB(), e.ledger.Config(), ops.FetchInput{Index: index})
			if err != nil {
				return outputError(err)
			}

			if c.Bool("pretty") {
				return outputText(c, ui.Item(output)+"\n")
			}
			return outputJSON(c, output)
		},
	}
}

// playCmd creates the play command.
func playCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "play",
		Usage:     "Write the recording at a list position to stdout as raw PCM (pipe into aplay)",
		ArgsUsage: "<index>",
		Flags:     []cli.Flag{prettyFlag()},
		Action: func(c *cli.Context) error {
			index, err := indexArg(c)
			if err != nil {
				return outputError(err)
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
			defer stop()

			cfg := e.ledger.Config()
			ctrl := session.New(session.Options{
				AudioDir:   e.audioDir,
				SampleRate: cfg.SampleRate,
				BufferSize: cfg.BufferSize,
				Player:     audio.NewPlayer(audio.NewWriterSink(c.App.Writer), e.log),
				Store:      e.ledger,
				Clock:      e.clock,
				Logger:     e.log,
			})
			defer ctrl.Close()

			events, unsubscribe := ctrl.Subscribe()
			defer unsubscribe()
			if c.Bool("pretty") {
				defer animate(ctx, c, ctrl)()
			}

			if _, err := ctrl.Play(ctx, index); err != nil {
				return outputError(err)
			}
			for {
				select {
				case t, ok := <-events:
					if !ok || t.To == session.Idle {
						return nil
					}
				case <-ctx.Done():
					ctrl.StopPlayback()
					return nil
				}
			}
		},
	}
}

// exportCmd creates the export command.
func exportCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export reminders to JSONL or an HTML agenda",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Usage: "Output file path (default: ~/.remind/exports/reminders-<timestamp>.<format>)"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "jsonl|html (default: from path, else jsonl)"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(c.Context, e.ledger.DB(), e.ledger.Config(), ops.ExportInput{
				Path:   c.String("path"),
				Format: ops.ExportFormat(c.String("format")),
				Now:    e.clock.Now(),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c, output)
		},
	}
}

// importCmd creates the import command.
func importCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Append reminders from a JSONL export",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Usage: "Input file path"},
		},
		Action: func(c *cli.Context) error {
			path := c.String("path")
			if path == "" && c.NArg() > 0 {
				path = c.Args().First()
			}

			output, err := e.ledger.Import(c.Context, path)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c, output)
		},
	}
}

// Helper functions

// transcriber returns the recognizer for a recording and its cleanup.
func (e *env) transcriber(ctx context.Context, c *cli.Context) (session.Transcriber, func(), error) {
	if c.IsSet("transcript") {
		return fixedTranscriber(c.String("transcript")), func() {}, nil
	}
	if e.newTranscriber != nil {
		return e.newTranscriber(ctx)
	}
	cfg := e.ledger.Config()
	g, err := speech.NewGoogleSpeech(ctx, speech.Options{
		Language:        cfg.SpeechLanguage,
		SampleRateHz:    cfg.SampleRate,
		CredentialsFile: cfg.SpeechCredentials,
		Logger:          e.log,
	})
	if err != nil {
		return nil, nil, err
	}
	return g, func() { _ = g.Close() }, nil
}

// fixedTranscriber returns the same final text for every recording.
type fixedTranscriber string

func (f fixedTranscriber) Transcribe(context.Context, string) (string, bool, error) {
	return string(f), true, nil
}

// eofSource closes eof once the wrapped source is exhausted.
type eofSource struct {
	audio.Source
	eof  chan struct{}
	once sync.Once
}

func newEOFSource(src audio.Source) *eofSource {
	return &eofSource{Source: src, eof: make(chan struct{})}
}

func (s *eofSource) Read(p []int16) (int, error) {
	n, err := s.Source.Read(p)
	if err != nil {
		s.once.Do(func() { close(s.eof) })
	}
	return n, err
}

// animate draws the status indicator on stderr until the returned func is called.
func animate(ctx context.Context, c *cli.Context, ctrl *session.Controller) func() {
	events, unsubscribe := ctrl.Subscribe()
	actx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	a := indicator.New(clock.Real{}, func(frame int) {
		fmt.Fprintf(c.App.ErrWriter, "\r%s ", ui.Indicator(ctrl.State(), frame))
	})
	go func() {
		defer close(done)
		a.Run(actx, events)
	}()
	return func() {
		cancel()
		unsubscribe()
		<-done
		fmt.Fprintln(c.App.ErrWriter)
	}
}

// textArg joins positional args, falling back to piped stdin.
func textArg(c *cli.Context) (string, error) {
	if c.NArg() > 0 {
		return strings.Join(c.Args().Slice(), " "), nil
	}
	if !readerHasData(c.App.Reader) {
		return "", errors.NewInvalidRequest("text is required (as arguments or via stdin)")
	}
	data, err := io.ReadAll(c.App.Reader)
	if err != nil {
		return "", errors.NewInternal(err)
	}
	return strings.TrimSpace(string(data)), nil
}

// indexArg parses the single positional list index.
func indexArg(c *cli.Context) (int, error) {
	if c.NArg() != 1 {
		return 0, errors.NewInvalidRequest("exactly one <index> argument is required")
	}
	n, err := strconv.Atoi(c.Args().First())
	if err != nil {
		return 0, errors.NewInvalidRequest(fmt.Sprintf("invalid index %q", c.Args().First()))
	}
	return n, nil
}

// outputJSON marshals result to the app writer as JSON.
func outputJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func outputText(c *cli.Context, s string) error {
	_, err := io.WriteString(c.App.Writer, s)
	return err
}

// outputError formats error for CLI.
func outputError(err error) error {
	var remErr *errors.ReminderError
	if stderrors.As(err, &remErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", remErr.Code, remErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// readerHasData reports whether r is piped input rather than a terminal.
func readerHasData(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return r != nil
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
