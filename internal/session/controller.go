package session

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/hpungsan/remind/internal/clock"
	"github.com/hpungsan/remind/internal/errors"
	"github.com/hpungsan/remind/internal/logger"
	"github.com/hpungsan/remind/internal/ops"
)

// subscriberBuffer is the per-subscriber transition backlog; a subscriber
// that falls further behind misses transitions.
const subscriberBuffer = 32

// Options configures a Controller.
type Options struct {
	AudioDir   string
	SampleRate int
	BufferSize int

	Recorder    Recorder
	Player      Player
	Transcriber Transcriber
	Store       Store
	Clock       clock.Clock
	Logger      *logrus.Logger

	// OnOutcome, when set, is called once per finished recording, outside the controller lock.
	OnOutcome func(Outcome)
}

// Controller serializes record and playback requests into the session state machine.
type Controller struct {
	opts Options
	log  *logrus.Logger

	mu      sync.Mutex
	state   State
	pending pendingRecording
	gen     uint64 // playback generation; completions from older generations are ignored
	subs    map[int]chan Transition
	nextSub int

	ctx    context.Context
	cancel context.CancelFunc

	// bgMu guards closed and wg.Add. It is separate from mu because playback
	// completions may arrive while mu is held.
	bgMu   sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

type pendingRecording struct {
	id   string
	file string
	path string
}

// New returns an idle controller.
func New(opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		opts:   opts,
		log:    opts.Logger,
		subs:   make(map[int]chan Transition),
		ctx:    ctx,
		cancel: cancel,
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe returns a channel of transitions and a function that ends the subscription.
func (c *Controller) Subscribe() (<-chan Transition, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan Transition, subscriberBuffer)
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

// setState must be called with c.mu held.
func (c *Controller) setState(to State) {
	from := c.state
	if from == to {
		return
	}
	c.state = to
	t := Transition{From: from, To: to, At: c.opts.Clock.Now()}
	c.log.WithFields(logrus.Fields{"from": from.String(), "state": to.String()}).Debug("session transition")
	for _, ch := range c.subs {
		select {
		case ch <- t:
		default:
			c.log.WithField("state", to.String()).Warn("subscriber behind, transition dropped")
		}
	}
}

// StartRecording begins a new recording. It is a no-op returning false while
// recording, waiting on a transcript, or playing.
func (c *Controller) StartRecording(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Idle {
		return false, nil
	}

	file := AudioFileName(c.opts.Clock.Now())
	path, err := ops.AudioPath(c.opts.AudioDir, file)
	if err != nil {
		return false, err
	}
	if err := c.opts.Recorder.Start(ctx, path); err != nil {
		c.log.WithFields(logrus.Fields{"audio_file": file}).WithError(err).Error("recorder failed to start")
		return false, errors.NewResourceUnavailable("recorder", err)
	}

	id, err := c.opts.Store.Begin(ctx, file)
	if err != nil {
		if serr := c.opts.Recorder.Stop(); serr != nil {
			c.log.WithError(serr).Warn("recorder stop after failed insert")
		}
		return false, err
	}

	c.pending = pendingRecording{id: id, file: file, path: path}
	c.setState(Recording)
	c.log.WithFields(logrus.Fields{"record_id": id, "audio_file": file}).Info("recording started")
	return true, nil
}

// StopRecording ends the current recording and hands the file to the
// transcriber in the background. It is a no-op returning false unless recording.
func (c *Controller) StopRecording(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Recording {
		return false, nil
	}

	if err := c.opts.Recorder.Stop(); err != nil {
		c.log.WithFields(logrus.Fields{"record_id": c.pending.id}).WithError(err).Warn("recorder stop failed")
	}
	c.setState(TranscriptPending)

	path := c.pending.path
	started := c.background(func() {
		text, final, err := c.opts.Transcriber.Transcribe(c.ctx, path)
		if err != nil {
			c.failTranscript(err)
			return
		}
		if _, err := c.DeliverTranscript(c.ctx, text, final); err != nil {
			c.log.WithError(err).Debug("transcript delivered with error")
		}
	})
	if !started {
		c.log.WithField("record_id", c.pending.id).Debug("controller closed, transcription skipped")
	}
	return true, nil
}

// background runs f tracked by Close. It reports false, without running f,
// once Close has begun.
func (c *Controller) background(f func()) bool {
	c.bgMu.Lock()
	defer c.bgMu.Unlock()
	if c.closed {
		return false
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		f()
	}()
	return true
}

// DeliverTranscript hands a recognizer result to the pending recording.
// Interim results and deliveries outside TranscriptPending are ignored and
// return false. A final result finalizes the stored row and returns to Idle.
func (c *Controller) DeliverTranscript(ctx context.Context, text string, isFinal bool) (bool, error) {
	c.mu.Lock()
	if c.state != TranscriptPending {
		c.mu.Unlock()
		return false, nil
	}
	if !isFinal {
		c.mu.Unlock()
		c.log.Debug("interim transcript ignored")
		return false, nil
	}

	p := c.pending
	alarm, err := c.opts.Store.Finalize(ctx, p.id, text)
	c.pending = pendingRecording{}
	c.setState(Idle)
	c.mu.Unlock()

	fields := logrus.Fields{"record_id": p.id, "audio_file": p.file}
	if err != nil {
		c.log.WithFields(fields).WithError(err).Info("recording not stored as reminder")
	} else {
		c.log.WithFields(fields).WithField("alarm_time", alarm).Info("reminder stored")
	}
	c.emit(Outcome{RecordID: p.id, AudioFile: p.file, Transcript: text, AlarmTime: alarm, Err: err})
	return true, err
}

// failTranscript discards the pending row after the transcriber failed.
func (c *Controller) failTranscript(cause error) {
	c.mu.Lock()
	if c.state != TranscriptPending {
		c.mu.Unlock()
		return
	}
	p := c.pending
	// An empty transcript marks the row discarded.
	if _, err := c.opts.Store.Finalize(c.ctx, p.id, ""); err != nil && !errors.Is(err, errors.ErrNoSpeech) {
		c.log.WithFields(logrus.Fields{"record_id": p.id}).WithError(err).Warn("discard after failed transcription")
	}
	c.pending = pendingRecording{}
	c.setState(Idle)
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{"record_id": p.id, "audio_file": p.file}).WithError(cause).Error("transcription failed")
	c.emit(Outcome{RecordID: p.id, AudioFile: p.file, Err: cause})
}

func (c *Controller) emit(o Outcome) {
	if c.opts.OnOutcome != nil {
		c.opts.OnOutcome(o)
	}
}

// Play starts playback of the reminder at index. It is a no-op returning
// false while recording or waiting on a transcript. Playing a new index
// while playing stops the current playback first.
func (c *Controller) Play(ctx context.Context, index int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Recording || c.state == TranscriptPending {
		return false, nil
	}

	n, err := c.opts.Store.Count(ctx)
	if err != nil {
		return false, err
	}
	if index < 0 || index >= n {
		return false, errors.NewIndexOutOfRange(index, n)
	}
	file, err := c.opts.Store.AudioFileAt(ctx, index)
	if err != nil {
		return false, err
	}
	path, err := ops.AudioPath(c.opts.AudioDir, file)
	if err != nil {
		return false, err
	}

	if c.state == Playing {
		if err := c.opts.Player.Stop(); err != nil {
			c.log.WithError(err).Warn("player stop before replay failed")
		}
	}

	c.gen++
	gen := c.gen
	req := PlayRequest{
		SampleRate: c.opts.SampleRate,
		BufferSize: c.opts.BufferSize,
		Index:      index,
		AudioFile:  file,
		Path:       path,
		Done:       c.doneFunc(gen),
	}
	if err := c.opts.Player.Play(ctx, req); err != nil {
		c.gen++
		c.setState(Idle)
		c.log.WithFields(logrus.Fields{"audio_file": file}).WithError(err).Error("player failed to start")
		return false, errors.NewResourceUnavailable("player", err)
	}

	c.setState(Playing)
	c.log.WithFields(logrus.Fields{"audio_file": file, "index": index}).Info("playback started")
	return true, nil
}

// doneFunc returns the completion callback for playback generation gen.
// The callback never blocks the player, even when called from inside Stop.
// Completions arriving after Close are dropped.
func (c *Controller) doneFunc(gen uint64) func(error) {
	var once sync.Once
	return func(err error) {
		once.Do(func() {
			c.background(func() { c.playbackDone(gen, err) })
		})
	}
}

func (c *Controller) playbackDone(gen uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || c.state != Playing {
		return
	}
	if err != nil {
		c.log.WithError(err).Warn("playback ended with error")
	}
	c.setState(Idle)
}

// StopPlayback stops the current playback. It is a no-op returning false unless playing.
func (c *Controller) StopPlayback() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Playing {
		return false
	}
	if err := c.opts.Player.Stop(); err != nil {
		c.log.WithError(err).Warn("player stop failed")
	}
	c.gen++
	c.setState(Idle)
	return true
}

// Close cancels in-flight transcription and waits for background work.
// Subscriptions are closed. Calling Close more than once is safe.
func (c *Controller) Close() {
	c.bgMu.Lock()
	c.closed = true
	c.bgMu.Unlock()

	c.cancel()
	c.wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}
