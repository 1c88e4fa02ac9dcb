package indicator

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/jfreymuth/pulse"
)

type cueKind int

const (
	cueStart cueKind = iota + 1
	cueStop
	cueError
	cueCaseMode
)

const (
	cueRate    = 16000
	cueGain    = 0.18
	cueRamp    = 5 * time.Millisecond
	cueSpacing = 22 * time.Millisecond
)

// note is one tone of a cue; hz 0 is a rest.
type note struct {
	hz  float64
	dur time.Duration
}

// cuePatterns rise when listening starts and fall when it stops or fails.
var cuePatterns = map[cueKind][]note{
	cueStart:    {{hz: 880, dur: 70 * time.Millisecond}, {hz: 1175, dur: 70 * time.Millisecond}},
	cueStop:     {{hz: 1175, dur: 60 * time.Millisecond}, {hz: 620, dur: 90 * time.Millisecond}},
	cueError:    {{hz: 480, dur: 75 * time.Millisecond}, {hz: 360, dur: 90 * time.Millisecond}},
	cueCaseMode: {{hz: 1320, dur: 35 * time.Millisecond}},
}

var (
	cueCacheOnce sync.Once
	cueCache     map[cueKind][]int16
)

func emitCue(kind cueKind) error {
	pcm := cuePCM(kind)
	if len(pcm) == 0 {
		return nil
	}
	return playPCM(pcm)
}

// cuePCM renders every pattern once and returns the cached samples for kind.
func cuePCM(kind cueKind) []int16 {
	cueCacheOnce.Do(func() {
		cueCache = make(map[cueKind][]int16, len(cuePatterns))
		for k, notes := range cuePatterns {
			cueCache[k] = render(notes)
		}
	})
	return cueCache[kind]
}

func playPCM(pcm []int16) error {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("dictaform"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	pos := 0
	stream, err := client.NewPlayback(
		pulse.Int16Reader(func(buf []int16) (int, error) {
			n := copy(buf, pcm[pos:])
			pos += n
			if pos >= len(pcm) {
				return n, pulse.EndOfData
			}
			return n, nil
		}),
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(cueRate),
		pulse.PlaybackLatency(0.02),
		pulse.PlaybackMediaName("dictaform cue"),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play cue: %w", err)
	}
	return nil
}

// render concatenates notes with a short rest between them.
func render(notes []note) []int16 {
	var pcm []int16
	for i, n := range notes {
		if i > 0 {
			pcm = append(pcm, make([]int16, sampleCount(cueSpacing))...)
		}
		pcm = append(pcm, tone(n)...)
	}
	return pcm
}

// tone renders a sine with a linear ramp at both ends to avoid clicks.
func tone(n note) []int16 {
	count := sampleCount(n.dur)
	if count == 0 {
		return nil
	}
	pcm := make([]int16, count)
	if n.hz <= 0 {
		return pcm
	}

	ramp := max(min(count/10, sampleCount(cueRamp)), 1)
	step := 2 * math.Pi * n.hz / cueRate
	for i := range pcm {
		edge := min(i, count-1-i)
		env := 1.0
		if edge < ramp {
			env = float64(edge) / float64(ramp)
		}
		pcm[i] = int16(math.Round(math.Sin(step*float64(i)) * cueGain * env * math.MaxInt16))
	}
	return pcm
}

func sampleCount(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * cueRate))
}
