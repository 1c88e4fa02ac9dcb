package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

const probeSampleRate = 16000

// Level summarizes a short microphone sample in dBFS.
type Level struct {
	Samples  int
	PeakDBFS float64
	RMSDBFS  float64
}

// Silent reports whether the sample never rose above floor.
func (l Level) Silent(floor float64) bool {
	return l.Samples == 0 || l.PeakDBFS <= floor
}

// Probe records mono 16kHz audio from selected for roughly d and reports its level.
func Probe(ctx context.Context, selected Device, d time.Duration) (Level, error) {
	if d <= 0 {
		d = 500 * time.Millisecond
	}
	client, err := connect()
	if err != nil {
		return Level{}, err
	}
	defer client.Close()

	source, err := client.SourceByID(selected.ID)
	if err != nil {
		return Level{}, fmt.Errorf("resolve source %q: %w", selected.ID, err)
	}

	buf := &pcmBuffer{limit: int(d.Seconds()*probeSampleRate) * 2, full: make(chan struct{})}
	stream, err := client.NewRecord(
		pulse.NewWriter(buf, pulseproto.FormatInt16LE),
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(probeSampleRate),
		pulse.RecordMediaName("dictaform microphone probe"),
	)
	if err != nil {
		return Level{}, fmt.Errorf("create pulse record stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	deadline := time.NewTimer(d + time.Second)
	defer deadline.Stop()
	select {
	case <-buf.full:
	case <-deadline.C:
	case <-ctx.Done():
		stream.Stop()
		return Level{}, ctx.Err()
	}
	stream.Stop()
	if err := stream.Error(); err != nil {
		return Level{}, fmt.Errorf("record probe stream: %w", err)
	}
	return measure(buf.bytes()), nil
}

// pcmBuffer collects recorded bytes and closes full once limit is reached.
type pcmBuffer struct {
	mu    sync.Mutex
	pcm   []byte
	limit int
	full  chan struct{}
	once  sync.Once
}

func (b *pcmBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pcm = append(b.pcm, p...)
	if len(b.pcm) >= b.limit {
		b.once.Do(func() { close(b.full) })
	}
	return len(p), nil
}

func (b *pcmBuffer) bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pcm
}

// measure computes peak and RMS levels of little-endian s16 PCM.
func measure(pcm []byte) Level {
	n := len(pcm) / 2
	if n == 0 {
		return Level{PeakDBFS: math.Inf(-1), RMSDBFS: math.Inf(-1)}
	}
	var peak, sumSquares float64
	for i := range n {
		v := math.Abs(float64(int16(binary.LittleEndian.Uint16(pcm[2*i:]))))
		peak = max(peak, v)
		sumSquares += v * v
	}
	return Level{
		Samples:  n,
		PeakDBFS: dbfs(peak),
		RMSDBFS:  dbfs(math.Sqrt(sumSquares / float64(n))),
	}
}

func dbfs(amplitude float64) float64 {
	if amplitude <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(amplitude/32768)
}
