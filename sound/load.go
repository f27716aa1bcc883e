package sound

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// maxSampleBytes caps a single sample; drum hits are small
var maxSampleBytes int64 = 16 << 20

var (
	ErrUnsupportedFormat = errors.New("unsupported sample format")
	ErrSampleTooLarge    = errors.New("sample too large")
)

var httpClient = &http.Client{Timeout: 20 * time.Second}

// Sample is a fully decoded sound held in memory
type Sample struct {
	Source string
	Buffer *beep.Buffer
}

// Duration of the sample at its buffer's rate
func (s *Sample) Duration() time.Duration {
	return s.Buffer.Format().SampleRate.D(s.Buffer.Len())
}

// Load fetches source (http(s) URL or file path), decodes it, resamples it
// to rate and buffers it.
func Load(ctx context.Context, source string, rate beep.SampleRate) (*Sample, error) {
	data, err := fetch(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", source, err)
	}

	stream, format, err := Decode(bytes.NewReader(data), Ext(source))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", source, err)
	}
	defer stream.Close()

	var s beep.Streamer = stream
	if format.SampleRate != rate {
		s = beep.Resample(4, format.SampleRate, rate, stream)
	}

	buf := beep.NewBuffer(beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2})
	buf.Append(s)
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("decode %s: %w", source, err)
	}

	return &Sample{Source: source, Buffer: buf}, nil
}

// Decode picks a decoder by file extension (".mp3", ".wav", ...)
func Decode(r io.ReadSeeker, ext string) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(ext) {
	case ".mp3":
		return mp3.Decode(io.NopCloser(r))
	case ".wav":
		return wav.Decode(r)
	case ".flac":
		return flac.Decode(r)
	case ".ogg":
		return vorbis.Decode(io.NopCloser(r))
	}
	return nil, beep.Format{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

// Ext returns the extension of a URL path or file name
func Ext(source string) string {
	if u, err := url.Parse(source); err == nil && isRemote(u) {
		return path.Ext(u.Path)
	}
	return path.Ext(source)
}

func isRemote(u *url.URL) bool {
	return u.Scheme == "http" || u.Scheme == "https"
}

func fetch(ctx context.Context, source string) ([]byte, error) {
	u, err := url.Parse(source)
	if err != nil || !isRemote(u) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fi, err := os.Stat(source)
		if err != nil {
			return nil, err
		}
		if fi.Size() > maxSampleBytes {
			return nil, fmt.Errorf("%w: %d bytes", ErrSampleTooLarge, fi.Size())
		}
		return os.ReadFile(source)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSampleBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxSampleBytes {
		return nil, fmt.Errorf("%w: over %d bytes", ErrSampleTooLarge, maxSampleBytes)
	}
	return data, nil
}
