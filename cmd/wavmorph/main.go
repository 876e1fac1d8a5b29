// wavmorph runs a WAV file through the same transformation pipeline the
// bot applies live: frame buffering, the activity gate and the selected
// pitch-shift engine.
//
// Usage:
//
//	wavmorph -in voice.wav -out morphed.wav -mode up
//	wavmorph -in voice.wav -out morphed.wav -semitones 12 -gain 2.0
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/voicemorph/voicemorph/audio"
	"github.com/voicemorph/voicemorph/changer"
	"github.com/voicemorph/voicemorph/engine"
	"github.com/voicemorph/voicemorph/stream"
)

func main() {
	var (
		inPath    = flag.String("in", "", "input WAV file (16-bit PCM)")
		outPath   = flag.String("out", "", "output WAV file")
		mode      = flag.String("mode", "normal", "transform mode: normal, up, down, mtf, ftm")
		semitones = flag.Float64("semitones", 0, "explicit semitone shift, overrides -mode")
		blockSize = flag.Int("block", 1024, "processing block size in samples")
		gate      = flag.Float64("gate", 0, "activity gate RMS threshold (0 disables gating)")
		gain      = flag.Float64("gain", 1.0, "output gain with soft limiting")
	)
	flag.Parse()

	if *inPath == "" || *outPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*inPath, *outPath, *mode, *semitones, *blockSize, *gate, *gain); err != nil {
		log.Fatalf("wavmorph: %v", err)
	}
}

func run(inPath, outPath, modeName string, semitones float64, blockSize int, gate, gain float64) error {
	in, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer in.Close()

	pcm, sampleRate, channels, err := audio.ReadWAV(in)
	if err != nil {
		return fmt.Errorf("reading %s: %w", inPath, err)
	}

	var mono []float64
	switch channels {
	case 1:
		mono = make([]float64, len(pcm))
		for i, v := range pcm {
			mono[i] = float64(v) / 32768.0
		}
	case 2:
		mono = audio.DownmixMono(pcm)
	default:
		return fmt.Errorf("unsupported channel count: %d", channels)
	}

	eng := engine.Select(sampleRate)

	var out []float64
	if semitones != 0 {
		// An explicit shift bypasses the mode table: run the blocks
		// through the engine directly.
		fb, err := audio.NewFrameBuffer(blockSize, sampleRate, 0)
		if err != nil {
			return err
		}
		g := audio.NewGate(gate)
		for _, block := range fb.Push(mono) {
			appendShifted(&out, eng, g, block, semitones, gain)
		}
		if block, ok := fb.Flush(); ok {
			appendShifted(&out, eng, g, block, semitones, gain)
		}
	} else {
		vc := changer.New()
		vc.SetMode(parseMode(modeName))

		sink := stream.SinkFunc(func(b audio.Block) {
			samples := b.Samples
			if gain != 1.0 {
				samples = audio.SoftLimit(samples, gain)
			}
			out = append(out, samples...)
		})
		cfg := stream.Config{
			BlockSize:     blockSize,
			SampleRate:    sampleRate,
			GateThreshold: gate,
			Silence:       stream.SilenceEmit, // keep file duration intact
		}
		sess, err := stream.NewSession(cfg, eng, vc, sink)
		if err != nil {
			return err
		}
		sess.Process(mono)
		sess.Flush()
	}

	outFile, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer outFile.Close()

	if err := audio.WriteWAV(outFile, audio.UpmixStereo(out), sampleRate, 2); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}

	log.Printf("wrote %s: %d samples at %dHz", outPath, len(out), sampleRate)
	return nil
}

func appendShifted(out *[]float64, eng engine.Engine, g audio.Gate, block audio.Block, semitones, gain float64) {
	if !g.Active(block) {
		*out = append(*out, make([]float64, block.Len())...)
		return
	}
	shifted, err := eng.Shift(block, semitones)
	if err != nil {
		log.Printf("dropping block after shift error: %v", err)
		*out = append(*out, make([]float64, block.Len())...)
		return
	}
	samples := shifted.Samples
	if gain != 1.0 {
		samples = audio.SoftLimit(samples, gain)
	}
	*out = append(*out, samples...)
}

func parseMode(name string) changer.Mode {
	switch name {
	case "up":
		return changer.ModePitchUp
	case "down":
		return changer.ModePitchDown
	case "mtf", "gender":
		return changer.ModeMaleToFemale
	case "ftm":
		return changer.ModeFemaleToMale
	default:
		return changer.ModeNormal
	}
}
