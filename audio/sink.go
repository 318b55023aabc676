package audio

import (
	"github.com/gordonklaus/portaudio"
)

// Source produces audio into a non-interleaved buffer, one slice per
// channel. Sources add into the buffer; the sink zeroes it first.
type Source interface {
	Process([][]float32)
}

// Ticker is called once per audio callback, before the sources run, to
// schedule work for the upcoming buffer.
type Ticker interface {
	Tick(numSamples int)
}

type Sink struct {
	sources []Source
	tickers []Ticker
	stream  *portaudio.Stream
}

func NewSink(sampleRate, bufferSize int) (*Sink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	var s Sink
	stream, err := portaudio.OpenDefaultStream(0, 2, float64(sampleRate), bufferSize, s.Process)
	if err != nil {
		return nil, err
	}
	s.stream = stream
	return &s, nil
}

// NewOfflineSink returns a sink without an audio device behind it, driven
// manually through Process. Used for bouncing to disk.
func NewOfflineSink() *Sink {
	return &Sink{}
}

func (s *Sink) Start() error {
	if s.stream == nil {
		return nil
	}
	return s.stream.Start()
}

func (s *Sink) Stop() error {
	if s.stream == nil {
		return nil
	}
	s.stream.Close()
	portaudio.Terminate()
	return nil
}

func (s *Sink) AddSources(sources ...Source) {
	s.sources = append(s.sources, sources...)
}

func (s *Sink) AddTicker(ticker Ticker) {
	s.tickers = append(s.tickers, ticker)
}

func (s *Sink) Process(samples [][]float32) {
	for i := range samples {
		for j := range samples[i] {
			samples[i][j] = 0.
		}
	}
	for _, ticker := range s.tickers {
		ticker.Tick(len(samples[0]))
	}
	for _, source := range s.sources {
		source.Process(samples)
	}
}
