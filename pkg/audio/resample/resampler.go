// ABOUTME: Linear resampler for converting decoded songs to the output rate
// ABOUTME: Interpolates interleaved int32 samples frame by frame
package resample

import "github.com/Resonate-Protocol/singalong-go/pkg/audio"

// Resampler performs linear interpolation to convert between sample rates
type Resampler struct {
	channels int
	ratio    float64 // input frames per output frame
	position float64
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		channels: channels,
		ratio:    float64(inputRate) / float64(outputRate),
	}
}

// Resample converts interleaved input samples into output and returns the
// number of samples written
func (r *Resampler) Resample(input []int32, output []int32) int {
	inputFrames := len(input) / r.channels
	outputFrames := len(output) / r.channels

	outIdx := 0
	for outIdx < outputFrames {
		inputIdx := int(r.position)
		if inputIdx >= inputFrames-1 {
			break
		}
		frac := r.position - float64(inputIdx)

		for ch := 0; ch < r.channels; ch++ {
			s1 := float64(input[inputIdx*r.channels+ch])
			s2 := float64(input[(inputIdx+1)*r.channels+ch])
			output[outIdx*r.channels+ch] = int32(s1*(1.0-frac) + s2*frac)
		}

		outIdx++
		r.position += r.ratio
	}

	// Keep the fractional position for the next chunk
	r.position -= float64(int(r.position))

	return outIdx * r.channels
}

// OutputSamplesNeeded returns how many output samples input will produce
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	return int(float64(inputFrames)/r.ratio) * r.channels
}

// Buffer converts a whole buffer to rate. Buffers already at rate are
// returned unchanged.
func Buffer(buf audio.Buffer, rate int) audio.Buffer {
	if buf.Format.SampleRate == rate || buf.Format.Channels <= 0 || len(buf.Samples) == 0 {
		return buf
	}

	r := New(buf.Format.SampleRate, rate, buf.Format.Channels)
	out := make([]int32, r.OutputSamplesNeeded(len(buf.Samples)))
	n := r.Resample(buf.Samples, out)

	format := buf.Format
	format.SampleRate = rate
	return audio.Buffer{Samples: out[:n], Format: format}
}
