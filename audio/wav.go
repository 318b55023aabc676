package audio

import (
	"io"

	wav "github.com/youpy/go-wav"
)

// Bounce pulls frames from src in bufferSize chunks and writes them to w as
// a 16-bit stereo WAV. The source sees the same buffer shape it would get
// from a live sink.
func Bounce(w io.Writer, src Source, sampleRate, frames, bufferSize int) error {
	writer := wav.NewWriter(w, uint32(frames), 2, uint32(sampleRate), 16)
	buf := [][]float32{
		make([]float32, bufferSize),
		make([]float32, bufferSize),
	}
	samples := make([]wav.Sample, bufferSize)

	for done := 0; done < frames; {
		n := bufferSize
		if frames-done < n {
			n = frames - done
		}
		chunk := [][]float32{buf[0][:n], buf[1][:n]}
		for c := range chunk {
			for i := range chunk[c] {
				chunk[c][i] = 0.
			}
		}
		src.Process(chunk)
		for i := 0; i < n; i++ {
			samples[i].Values[0] = clipSample(chunk[0][i])
			samples[i].Values[1] = clipSample(chunk[1][i])
		}
		if err := writer.WriteSamples(samples[:n]); err != nil {
			return err
		}
		done += n
	}
	return nil
}

func clipSample(s float32) int {
	const scale = 1 << 15
	v := int(float64(s) * scale)
	if v > scale-1 {
		v = scale - 1
	}
	if v < -scale {
		v = -scale
	}
	return v
}
