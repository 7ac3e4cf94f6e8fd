// Package dsp derives audio features from raw PCM samples. All functions are
// pure: they read the sample buffer and return numbers, no I/O.
package dsp

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// ErrEmptyAudio is returned when there are no samples to analyze.
var ErrEmptyAudio = errors.New("empty audio buffer")

// Analysis framing. 2048 samples per frame with a 512-sample hop keeps the
// spectral estimates stable at common sample rates.
const (
	frameSize = 2048
	hopSize   = 512

	rolloffFraction = 0.85
	minTempoBPM     = 40
	maxTempoBPM     = 200
)

// Features is the set of derived audio descriptors.
type Features struct {
	Tempo             float64
	Energy            float64
	SpectralCentroid  float64
	SpectralRolloff   float64
	SpectralBandwidth float64
	ZeroCrossingRate  float64
	SpeechRatio       float64
	Duration          float64
}

// Analyze computes all features over a mono PCM buffer.
func Analyze(samples []float64, sampleRate int) (Features, error) {
	if len(samples) == 0 {
		return Features{}, ErrEmptyAudio
	}
	if sampleRate <= 0 {
		return Features{}, errors.New("sample rate must be positive")
	}

	size := frameSize
	if len(samples) < size {
		size = len(samples)
	}

	fft := fourier.NewFFT(size)
	window := hann(size)
	windowed := make([]float64, size)

	var centroids, rolloffs, bandwidths, frameRMS []float64
	for start := 0; start+size <= len(samples); start += hopSize {
		frame := samples[start : start+size]
		for i, s := range frame {
			windowed[i] = s * window[i]
		}
		coeffs := fft.Coefficients(nil, windowed)

		centroid, rolloff, bandwidth, ok := spectralMoments(coeffs, sampleRate, size)
		if ok {
			centroids = append(centroids, centroid)
			rolloffs = append(rolloffs, rolloff)
			bandwidths = append(bandwidths, bandwidth)
		}
		frameRMS = append(frameRMS, rms(frame))
	}

	f := Features{
		Energy:           rms(samples),
		ZeroCrossingRate: zeroCrossingRate(samples),
		Duration:         float64(len(samples)) / float64(sampleRate),
	}
	f.SpectralCentroid = stat.Mean(centroids, nil)
	f.SpectralRolloff = stat.Mean(rolloffs, nil)
	f.SpectralBandwidth = stat.Mean(bandwidths, nil)
	if len(centroids) == 0 {
		f.SpectralCentroid, f.SpectralRolloff, f.SpectralBandwidth = 0, 0, 0
	}
	f.SpeechRatio = speechRatio(centroids)
	f.Tempo = estimateTempo(frameRMS, sampleRate)
	return f, nil
}

// spectralMoments computes centroid, rolloff and bandwidth for one frame's
// spectrum. ok is false for silent frames.
func spectralMoments(coeffs []complex128, sampleRate, size int) (centroid, rolloff, bandwidth float64, ok bool) {
	binWidth := float64(sampleRate) / float64(size)

	var total float64
	mags := make([]float64, len(coeffs))
	for i, c := range coeffs {
		m := cmplxAbs(c)
		mags[i] = m
		total += m
	}
	if total == 0 {
		return 0, 0, 0, false
	}

	for i, m := range mags {
		centroid += float64(i) * binWidth * m
	}
	centroid /= total

	var cum float64
	for i, m := range mags {
		cum += m
		if cum >= rolloffFraction*total {
			rolloff = float64(i) * binWidth
			break
		}
	}

	var spread float64
	for i, m := range mags {
		d := float64(i)*binWidth - centroid
		spread += m * d * d
	}
	bandwidth = math.Sqrt(spread / total)
	return centroid, rolloff, bandwidth, true
}

// speechRatio is the variance-based speech/music proxy: speech moves the
// spectral centroid around far more than sustained music does.
func speechRatio(centroids []float64) float64 {
	if len(centroids) < 2 {
		return 0.5
	}
	v := stat.Variance(centroids, nil)
	ratio := v / 1e6
	if ratio > 1 {
		return 1
	}
	if ratio < 0 {
		return 0
	}
	return ratio
}

// estimateTempo autocorrelates the positive onset strength of the frame RMS
// envelope and reports the strongest periodicity in the 40-200 BPM range.
func estimateTempo(frameRMS []float64, sampleRate int) float64 {
	if len(frameRMS) < 4 {
		return 0
	}
	onsets := make([]float64, len(frameRMS))
	for i := 1; i < len(frameRMS); i++ {
		if d := frameRMS[i] - frameRMS[i-1]; d > 0 {
			onsets[i] = d
		}
	}

	frameDur := float64(hopSize) / float64(sampleRate)
	minLag := int(60 / (maxTempoBPM * frameDur))
	maxLag := int(60 / (minTempoBPM * frameDur))
	if minLag < 1 {
		minLag = 1
	}
	if maxLag >= len(onsets) {
		maxLag = len(onsets) - 1
	}
	if maxLag <= minLag {
		return 0
	}

	bestLag, bestCorr := 0, 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		var corr float64
		for i := lag; i < len(onsets); i++ {
			corr += onsets[i] * onsets[i-lag]
		}
		if corr > bestCorr {
			bestCorr = corr
			bestLag = lag
		}
	}
	if bestLag == 0 || bestCorr == 0 {
		return 0
	}
	return 60 / (float64(bestLag) * frameDur)
}

func zeroCrossingRate(samples []float64) float64 {
	if len(samples) < 2 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(samples); i++ {
		if (samples[i-1] >= 0) != (samples[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(samples)-1)
}

func rms(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func hann(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}
