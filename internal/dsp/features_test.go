package dsp

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

const testRate = 22050

func sine(freq, amp float64, seconds float64) []float64 {
	n := int(seconds * testRate)
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/testRate)
	}
	return out
}

func TestAnalyzeEmpty(t *testing.T) {
	_, err := Analyze(nil, testRate)
	require.ErrorIs(t, err, ErrEmptyAudio)

	_, err = Analyze([]float64{0.1}, 0)
	require.Error(t, err)
}

func TestAnalyzePureTone(t *testing.T) {
	samples := sine(440, 0.5, 2)

	f, err := Analyze(samples, testRate)
	require.NoError(t, err)

	require.InDelta(t, 0.5/math.Sqrt2, f.Energy, 0.01)
	require.InDelta(t, 2*440.0/testRate, f.ZeroCrossingRate, 0.002)
	require.InDelta(t, 440, f.SpectralCentroid, 50)
	require.InDelta(t, 440, f.SpectralRolloff, 60)
	require.Less(t, f.SpectralBandwidth, 250.0)
	require.InDelta(t, 2.0, f.Duration, 0.001)
	// A steady tone has an almost stationary centroid.
	require.Less(t, f.SpeechRatio, 0.1)
}

func TestAnalyzeNoiseIsBroaderThanTone(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	noise := make([]float64, 2*testRate)
	for i := range noise {
		noise[i] = rng.Float64()*2 - 1
	}

	nf, err := Analyze(noise, testRate)
	require.NoError(t, err)
	tf, err := Analyze(sine(440, 0.5, 2), testRate)
	require.NoError(t, err)

	require.Greater(t, nf.SpectralBandwidth, tf.SpectralBandwidth)
	require.Greater(t, nf.ZeroCrossingRate, tf.ZeroCrossingRate)
}

func TestEstimateTempoFromBursts(t *testing.T) {
	// 0.1s tone bursts every 0.5s, i.e. 120 BPM.
	const seconds = 6.0
	samples := make([]float64, int(seconds*testRate))
	burst := int(0.1 * testRate)
	period := int(0.5 * testRate)
	for start := 0; start+burst <= len(samples); start += period {
		for i := 0; i < burst; i++ {
			samples[start+i] = 0.8 * math.Sin(2*math.Pi*440*float64(i)/testRate)
		}
	}

	f, err := Analyze(samples, testRate)
	require.NoError(t, err)
	require.Greater(t, f.Tempo, 100.0)
	require.Less(t, f.Tempo, 140.0)
}

func TestAnalyzeShortBuffer(t *testing.T) {
	// Shorter than one analysis frame still yields global features.
	f, err := Analyze(sine(440, 0.5, 0.01), testRate)
	require.NoError(t, err)
	require.Greater(t, f.Energy, 0.0)
	require.InDelta(t, 0.01, f.Duration, 0.001)
}
