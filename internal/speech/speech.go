// Package speech turns recorded PCM files into transcripts.
package speech

import (
	"context"
	"fmt"
	"os"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/hpungsan/remind/internal/errors"
)

// MaxInlineBytes is the largest recording sent in a single synchronous request.
const MaxInlineBytes = 10 << 20

// Options configures a GoogleSpeech transcriber.
type Options struct {
	Language        string // BCP-47, e.g. "ko-KR"
	SampleRateHz    int
	CredentialsFile string // empty means application default credentials
	Logger          *logrus.Logger
}

// recognizer is the subset of the speech client the transcriber needs.
type recognizer interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)
	Close() error
}

type clientRecognizer struct{ c *speech.Client }

func (r clientRecognizer) Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
	return r.c.Recognize(ctx, req)
}

func (r clientRecognizer) Close() error { return r.c.Close() }

// GoogleSpeech transcribes 16-bit mono PCM files with Cloud Speech-to-Text.
type GoogleSpeech struct {
	rec recognizer
	opt Options
	log *logrus.Logger
}

// NewGoogleSpeech dials the speech service.
func NewGoogleSpeech(ctx context.Context, opt Options) (*GoogleSpeech, error) {
	var copts []option.ClientOption
	if opt.CredentialsFile != "" {
		copts = append(copts, option.WithCredentialsFile(opt.CredentialsFile))
	}
	c, err := speech.NewClient(ctx, copts...)
	if err != nil {
		return nil, errors.NewResourceUnavailable("speech recognizer", err)
	}
	return newWithRecognizer(clientRecognizer{c}, opt), nil
}

func newWithRecognizer(rec recognizer, opt Options) *GoogleSpeech {
	if opt.Language == "" {
		opt.Language = "ko-KR"
	}
	if opt.SampleRateHz <= 0 {
		opt.SampleRateHz = 16000
	}
	log := opt.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &GoogleSpeech{rec: rec, opt: opt, log: log}
}

func (g *GoogleSpeech) Close() error { return g.rec.Close() }

// Transcribe implements session.Transcriber. Synchronous recognition only
// yields final results, so final is true whenever err is nil.
func (g *GoogleSpeech) Transcribe(ctx context.Context, path string) (string, bool, error) {
	audio, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, errors.NewFileNotFound(path)
		}
		return "", false, fmt.Errorf("read recording: %w", err)
	}
	if len(audio) == 0 {
		return "", true, nil
	}
	if len(audio) > MaxInlineBytes {
		return "", false, errors.NewInvalidRequest(fmt.Sprintf("recording is %d bytes, limit is %d", len(audio), MaxInlineBytes))
	}

	resp, err := g.rec.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:            int32(g.opt.SampleRateHz),
			AudioChannelCount:          1,
			LanguageCode:               g.opt.Language,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", false, errors.NewCancelled("transcribe")
		}
		return "", false, errors.NewResourceUnavailable("speech recognizer", err)
	}

	text, conf := best(resp)
	g.log.WithFields(logrus.Fields{
		"path":       path,
		"bytes":      len(audio),
		"confidence": conf,
	}).Debug("transcribed")
	return text, true, nil
}

// best joins the top alternative of each result segment.
func best(resp *speechpb.RecognizeResponse) (string, float64) {
	var (
		parts []string
		conf  float64
		n     int
	)
	for _, r := range resp.GetResults() {
		var top *speechpb.SpeechRecognitionAlternative
		for _, alt := range r.GetAlternatives() {
			if alt.GetTranscript() == "" {
				continue
			}
			if top == nil || alt.GetConfidence() > top.GetConfidence() {
				top = alt
			}
		}
		if top == nil {
			continue
		}
		parts = append(parts, strings.TrimSpace(top.GetTranscript()))
		conf += float64(top.GetConfidence())
		n++
	}
	if n == 0 {
		return "", 0
	}
	return strings.Join(parts, " "), conf / float64(n)
}
