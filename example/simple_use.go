package main

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/leandrodaf/midiperformer/internal/filesource"
	"github.com/leandrodaf/midiperformer/internal/logger"
	"github.com/leandrodaf/midiperformer/sdk/contracts"
	"github.com/leandrodaf/midiperformer/sdk/performer"
)

func main() {
	log := logger.NewZapLogger()

	p, err := performer.NewPerformer(
		contracts.WithLogger(log),
		contracts.WithLogLevel(contracts.InfoLevel),
		contracts.WithSpeed(2),
	)
	if err != nil {
		log.Error("Failed to initialize performer", log.Field().Error("error", err))
		return
	}
	defer p.Close()

	// Live input goes straight to the sink.
	_ = p.Press(60, 0)
	time.Sleep(200 * time.Millisecond)
	_ = p.Release(60, 0)

	// A short C major arpeggio, written in memory and played back.
	w := filesource.NewSimpleWriter(96, 120)
	for i, key := range []int{60, 64, 67, 72} {
		w.Play(0, uint32(i*48), 48, 0, 90, key)
	}
	var buf bytes.Buffer
	if err := w.Write(&buf); err != nil {
		log.Error("Failed to write MIDI file", log.Field().Error("error", err))
		return
	}

	ctx := context.Background()
	if err := p.LoadAndPlay(ctx, &buf); err != nil {
		log.Error("Failed to play MIDI file", log.Field().Error("error", err))
		return
	}
	if err := p.Wait(ctx); err != nil {
		log.Error("Playback failed", log.Field().Error("error", err))
		return
	}
	fmt.Println("Done:", p.State())
}
