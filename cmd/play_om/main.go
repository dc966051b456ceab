package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ejhong/om"
)

const defaultPreset = `A1: v/sng_opr/nrm/vbr/ol4/c1/sh1[1.0] + v/sng_cls/nrm/nrm/ol4/e2/sh3
O1: v/tlk_opr/falsetto/nrm/ol5/g1/sl2[-0.5:0.5]`

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate")
		presetPath = flag.String("file", "", "path to a preset file")
		inline     = flag.String("preset", "", "inline preset text")
		duration   = flag.Float64("duration", 8, "total playback duration in seconds")
		tuning     = flag.Int("tuning", 0, "tuning offset in semitones (-12..+12)")
		mode       = flag.String("mode", "live", "playback mode: live|offline")
		wavPath    = flag.String("wav", "", "render to a WAV file instead of playing")
		volume     = flag.Float64("volume", 1.0, "master volume scalar")
		overlap    = flag.Float64("overlap", 1.0, "note overlap ratio for offline rendering")
	)
	flag.Parse()

	text, err := resolvePresetInput(*presetPath, *inline)
	if err != nil {
		log.Fatal(err)
	}

	opts := []om.Option{
		om.WithTuningOffset(*tuning),
		om.WithOverlapRatio(*overlap),
	}

	if *wavPath != "" {
		samples, err := om.RenderSamples(text, *sampleRate, *duration, opts...)
		if err != nil {
			log.Fatal(err)
		}
		f, err := os.Create(*wavPath)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		if err := om.WriteWAV(f, samples, *sampleRate); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("wrote %s\n", *wavPath)
		return
	}

	switch strings.ToLower(strings.TrimSpace(*mode)) {
	case "live":
		runLive(text, *sampleRate, *duration, *volume, opts)
	case "offline":
		runOffline(text, *sampleRate, *duration, opts)
	default:
		log.Fatalf("invalid -mode %q (expected live|offline)", *mode)
	}
}

func runLive(text string, sampleRate int, duration, volume float64, opts []om.Option) {
	pl, err := om.NewPlayer(sampleRate, opts...)
	if err != nil {
		log.Fatal(err)
	}
	ch := pl.Watch()
	if err := pl.PlayText(text, duration); err != nil {
		log.Fatal(err)
	}
	pl.SetMasterVolume(volume)
	for event := range ch {
		switch event.Kind {
		case om.EventNoteStarted:
			fmt.Printf("note %d: %s\n", event.NoteIndex, event.NoteName)
		case om.EventPlaybackEnded:
			fmt.Println("playback completed")
			pl.Wait()
			return
		}
	}
}

func runOffline(text string, sampleRate int, duration float64, opts []om.Option) {
	pl, err := om.NewOfflinePlayer(sampleRate, opts...)
	if err != nil {
		log.Fatal(err)
	}
	ch := pl.Watch()
	if err := pl.RenderText(text, duration); err != nil {
		log.Fatal(err)
	}
	if err := pl.Play(); err != nil {
		log.Fatal(err)
	}
	for event := range ch {
		switch event.Kind {
		case om.EventProgress:
			fmt.Printf("\r%.1fs (note %d)", event.Time, event.NoteIndex)
		case om.EventPlaybackEnded:
			fmt.Println("\nplayback completed")
			pl.Dispose()
			return
		}
	}
}

func resolvePresetInput(path string, inline string) (string, error) {
	if strings.TrimSpace(inline) != "" {
		return inline, nil
	}
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return defaultPreset, nil
}
