package audio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/hpungsan/remind/internal/errors"
	"github.com/hpungsan/remind/internal/session"
)

// FilePlayer streams PCM files to a Sink. It implements session.Player.
type FilePlayer struct {
	sink Sink
	log  *logrus.Logger

	mu       sync.Mutex
	stop     chan struct{}
	finished chan struct{}
}

func NewPlayer(sink Sink, log *logrus.Logger) *FilePlayer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &FilePlayer{sink: sink, log: log}
}

// Play opens req.Path and streams it in the background. req.Done is called
// once streaming ends; a stopped playback reports a nil error.
func (p *FilePlayer) Play(ctx context.Context, req session.PlayRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		return fmt.Errorf("player busy")
	}

	f, err := os.Open(req.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewFileNotFound(req.AudioFile)
		}
		return fmt.Errorf("open recording: %w", err)
	}

	bufferSize := req.BufferSize
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	p.stop = make(chan struct{})
	p.finished = make(chan struct{})
	go p.stream(ctx, f, bufferSize, req, p.stop, p.finished)

	p.log.WithFields(logrus.Fields{
		"audio_file":  req.AudioFile,
		"index":       req.Index,
		"sample_rate": req.SampleRate,
	}).Debug("playback started")
	return nil
}

func (p *FilePlayer) stream(ctx context.Context, f *os.File, bufferSize int, req session.PlayRequest, stop <-chan struct{}, finished chan<- struct{}) {
	r := bufio.NewReader(f)
	src := NewReaderSource(r)
	samples := make([]int16, bufferSize)

	var err error
	stopped := false
loop:
	for {
		select {
		case <-stop:
			stopped = true
			break loop
		case <-ctx.Done():
			stopped = true
			break loop
		default:
		}
		n, rerr := src.Read(samples)
		if n > 0 {
			if _, werr := p.sink.Write(samples[:n]); werr != nil {
				err = fmt.Errorf("write sink: %w", werr)
				break
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			err = fmt.Errorf("read recording: %w", rerr)
			break
		}
	}
	f.Close()

	p.mu.Lock()
	if p.finished == finished {
		p.stop, p.finished = nil, nil
	}
	p.mu.Unlock()
	close(finished)

	entry := p.log.WithFields(logrus.Fields{"audio_file": req.AudioFile, "stopped": stopped})
	if err != nil {
		entry.WithError(err).Error("playback failed")
	} else {
		entry.Debug("playback ended")
	}
	if req.Done != nil {
		req.Done(err)
	}
}

// Stop interrupts the current playback and waits for the stream to wind
// down. Stopping an idle player is a no-op.
func (p *FilePlayer) Stop() error {
	p.mu.Lock()
	stop, finished := p.stop, p.finished
	if stop != nil {
		close(stop)
		p.stop = nil
	}
	p.mu.Unlock()

	if finished != nil {
		<-finished
	}
	return nil
}

func (p *FilePlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.finished != nil
}
