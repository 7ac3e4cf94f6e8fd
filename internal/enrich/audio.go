package enrich

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/hajimehoshi/go-mp3"
	"go.uber.org/zap"

	"github.com/mpopa/adscout/internal/ads"
	"github.com/mpopa/adscout/internal/dsp"
)

// maxAnalysisSeconds bounds how much decoded audio is kept in memory. The
// opening of an ad carries the jingle and voice-over; the rest adds little.
const maxAnalysisSeconds = 60

// AudioExtractor downloads a video's audio track with yt-dlp and derives
// signal features from the decoded PCM.
type AudioExtractor struct {
	ytdlpPath string
	tempDir   string
	timeout   time.Duration
	logger    *zap.Logger
}

// NewAudioExtractor builds an extractor. ytdlpPath defaults to "yt-dlp" and
// tempDir to the system temp directory.
func NewAudioExtractor(ytdlpPath, tempDir string, timeout time.Duration, logger *zap.Logger) *AudioExtractor {
	if ytdlpPath == "" {
		ytdlpPath = "yt-dlp"
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &AudioExtractor{
		ytdlpPath: ytdlpPath,
		tempDir:   tempDir,
		timeout:   timeout,
		logger:    logger,
	}
}

// Features downloads, decodes and analyzes the audio for one item. The
// temporary download is removed on every path, including timeouts.
func (a *AudioExtractor) Features(ctx context.Context, item ads.ContentItem) (*ads.AudioFeatures, error) {
	path := filepath.Join(a.tempDir, fmt.Sprintf("adscout-%s.mp3", item.VideoID))
	defer os.Remove(path)

	if err := a.download(ctx, item, path); err != nil {
		return nil, err
	}

	samples, sampleRate, err := decodeMP3(path)
	if err != nil {
		return nil, fmt.Errorf("decode audio %s: %w", item.VideoID, err)
	}

	f, err := dsp.Analyze(samples, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("analyze audio %s: %w", item.VideoID, err)
	}

	return &ads.AudioFeatures{
		Tempo:             f.Tempo,
		Energy:            f.Energy,
		SpectralCentroid:  f.SpectralCentroid,
		SpectralRolloff:   f.SpectralRolloff,
		SpectralBandwidth: f.SpectralBandwidth,
		ZeroCrossingRate:  f.ZeroCrossingRate,
		SpeechRatio:       f.SpeechRatio,
		DurationSeconds:   f.Duration,
	}, nil
}

// download runs yt-dlp under a hard deadline. exec.CommandContext kills the
// process when the deadline fires, so a stuck download cannot wedge a worker.
func (a *AudioExtractor) download(ctx context.Context, item ads.ContentItem, path string) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	args := []string{
		"-x",
		"--audio-format", "mp3",
		"--audio-quality", "5",
		"--no-warnings",
		"--no-playlist",
		"-o", path,
		item.URL(),
	}
	cmd := exec.CommandContext(ctx, a.ytdlpPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("download audio %s: timed out after %s", item.VideoID, a.timeout)
		}
		if msg := bytes.TrimSpace(stderr.Bytes()); len(msg) > 0 {
			return fmt.Errorf("download audio %s: %w: %s", item.VideoID, err, msg)
		}
		return fmt.Errorf("download audio %s: %w", item.VideoID, err)
	}

	a.logger.Debug("audio downloaded",
		zap.String("video_id", item.VideoID),
		zap.Duration("took", time.Since(start)))
	return nil
}

// decodeMP3 reads the file into mono float64 samples, capped at
// maxAnalysisSeconds.
func decodeMP3(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, 0, err
	}
	rate := dec.SampleRate()

	// The decoder emits 16-bit little-endian stereo frames.
	maxBytes := maxAnalysisSeconds * rate * 4
	buf := make([]byte, 8192)
	samples := make([]float64, 0, maxBytes/4)
	read := 0
	for read < maxBytes {
		n, err := dec.Read(buf)
		for i := 0; i+3 < n; i += 4 {
			left := int16(binary.LittleEndian.Uint16(buf[i:]))
			right := int16(binary.LittleEndian.Uint16(buf[i+2:]))
			samples = append(samples, (float64(left)+float64(right))/(2*32768))
		}
		read += n
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
	}
	return samples, rate, nil
}
