package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hpungsan/remind/internal/errors"
)

type fakeRecorder struct {
	mu        sync.Mutex
	recording bool
	paths     []string
	startErr  error
	stops     int
}

func (r *fakeRecorder) Start(_ context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.startErr != nil {
		return r.startErr
	}
	r.recording = true
	r.paths = append(r.paths, path)
	return nil
}

func (r *fakeRecorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recording = false
	r.stops++
	return nil
}

func (r *fakeRecorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

type fakePlayer struct {
	mu       sync.Mutex
	playing  bool
	requests []PlayRequest
	startErr error
	stops    int
}

func (p *fakePlayer) Play(_ context.Context, req PlayRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.startErr != nil {
		return p.startErr
	}
	p.playing = true
	p.requests = append(p.requests, req)
	return nil
}

// Stop reports the current playback as finished, like a real player would.
func (p *fakePlayer) Stop() error {
	p.mu.Lock()
	var done func(error)
	if p.playing && len(p.requests) > 0 {
		done = p.requests[len(p.requests)-1].Done
	}
	p.playing = false
	p.stops++
	p.mu.Unlock()
	if done != nil {
		done(nil)
	}
	return nil
}

func (p *fakePlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// finish completes request i as if the file ran to its end.
func (p *fakePlayer) finish(i int) {
	p.mu.Lock()
	req := p.requests[i]
	if i == len(p.requests)-1 {
		p.playing = false
	}
	p.mu.Unlock()
	req.Done(nil)
}

// fakeTranscriber blocks until a result is sent on results.
type fakeTranscriber struct {
	results chan transcript
}

type transcript struct {
	text  string
	final bool
	err   error
}

func newFakeTranscriber() *fakeTranscriber {
	return &fakeTranscriber{results: make(chan transcript, 1)}
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, _ string) (string, bool, error) {
	select {
	case r := <-f.results:
		return r.text, r.final, r.err
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
}

type fakeStore struct {
	mu       sync.Mutex
	pending  map[string]string
	files    []string
	alarms   []string
	nextID   int
	begun    int
	beginErr error
}

func newFakeStore(files ...string) *fakeStore {
	s := &fakeStore{pending: make(map[string]string)}
	for _, f := range files {
		s.files = append(s.files, f)
		s.alarms = append(s.alarms, "2024:1:11:15:0")
	}
	return s
}

func (s *fakeStore) Begin(_ context.Context, audioFile string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.beginErr != nil {
		return "", s.beginErr
	}
	s.nextID++
	s.begun++
	id := fmt.Sprintf("R%d", s.nextID)
	s.pending[id] = audioFile
	return id, nil
}

func (s *fakeStore) Finalize(_ context.Context, id, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	file, ok := s.pending[id]
	if !ok {
		return "", errors.NewInvalidState(id, "resolved")
	}
	delete(s.pending, id)
	if text == "" {
		return "", errors.NewNoSpeech()
	}
	s.files = append(s.files, file)
	s.alarms = append(s.alarms, "2024:1:11:15:0")
	return "2024:1:11:15:0", nil
}

func (s *fakeStore) Count(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files), nil
}

func (s *fakeStore) AudioFileAt(_ context.Context, index int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.files) {
		return "", errors.NewIndexOutOfRange(index, len(s.files))
	}
	return s.files[index], nil
}

// waitState blocks until the subscription reports a transition into want.
func waitState(t *testing.T, ch <-chan Transition, want State) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case tr, ok := <-ch:
			if !ok {
				t.Fatalf("subscription closed waiting for %s", want)
			}
			if tr.To == want {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}
