package audio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// FileRecorder captures a Source into a PCM file. It implements
// session.Recorder.
type FileRecorder struct {
	src        Source
	bufferSize int
	log        *logrus.Logger

	mu   sync.Mutex
	stop chan struct{}
	done chan error
	path string
}

// NewRecorder reads bufferSize samples at a time from src.
func NewRecorder(src Source, bufferSize int, log *logrus.Logger) *FileRecorder {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &FileRecorder{src: src, bufferSize: bufferSize, log: log}
}

// Start creates path and begins capturing into it. The file must not exist.
func (r *FileRecorder) Start(ctx context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stop != nil {
		return fmt.Errorf("recorder busy with %s", r.path)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("create recording: %w", err)
	}

	r.stop = make(chan struct{})
	r.done = make(chan error, 1)
	r.path = path
	go r.capture(ctx, f, r.stop, r.done)

	r.log.WithFields(logrus.Fields{"path": path, "buffer_size": r.bufferSize}).Debug("recording started")
	return nil
}

func (r *FileRecorder) capture(ctx context.Context, f *os.File, stop <-chan struct{}, done chan<- error) {
	w := bufio.NewWriter(f)
	samples := make([]int16, r.bufferSize)
	bytes := make([]byte, r.bufferSize*2)

	var err error
loop:
	for {
		select {
		case <-stop:
			break loop
		case <-ctx.Done():
			break loop
		default:
		}
		n, rerr := r.src.Read(samples)
		if n > 0 {
			encode(bytes[:n*2], samples[:n])
			if _, werr := w.Write(bytes[:n*2]); werr != nil {
				err = fmt.Errorf("write recording: %w", werr)
				break
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			err = fmt.Errorf("read source: %w", rerr)
			break
		}
	}

	if ferr := w.Flush(); ferr != nil && err == nil {
		err = fmt.Errorf("flush recording: %w", ferr)
	}
	if cerr := f.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("close recording: %w", cerr)
	}
	done <- err
}

// Stop ends the capture and waits for the file to be flushed. Samples the
// source has not delivered yet are not recorded, so a caller that wants a
// finite source in full waits for it to end before stopping. Stopping an idle
// recorder is a no-op.
func (r *FileRecorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stop == nil {
		return nil
	}
	close(r.stop)
	err := <-r.done
	path := r.path
	r.stop, r.done, r.path = nil, nil, ""

	entry := r.log.WithFields(logrus.Fields{"path": path})
	if err != nil {
		entry.WithError(err).Error("recording ended with error")
		return err
	}
	entry.Debug("recording stopped")
	return nil
}

func (r *FileRecorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stop != nil
}
