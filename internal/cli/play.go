package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/leandrodaf/midiperformer/sdk/contracts"
	"github.com/leandrodaf/midiperformer/sdk/performer"
	"github.com/spf13/cobra"
)

var playFlags struct {
	speed    float64
	channels []int
}

func init() {
	playCmd.Flags().Float64Var(&playFlags.speed, "speed", 1, "playback speed multiplier")
	playCmd.Flags().IntSliceVar(&playFlags.channels, "channels", nil, "only perform these 0-based channels")
	rootCmd.AddCommand(playCmd)
}

var playCmd = &cobra.Command{
	Use:   "play FILE",
	Short: "Plays a Standard MIDI File",
	Long:  `Plays the note events of a Standard MIDI File in real time. Interrupting with Ctrl+C releases every sounding note.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return play(cmd.Context(), args[0])
	},
}

func play(ctx context.Context, path string) error {
	opts, _, err := baseOptions()
	if err != nil {
		return err
	}
	opts = append(opts,
		contracts.WithSpeed(playFlags.speed),
		contracts.WithChannelFilter(playFlags.channels...),
	)

	p, err := performer.NewPerformer(opts...)
	if err != nil {
		return err
	}
	defer p.Close()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	if err := p.LoadAndPlay(ctx, f); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return p.Wait(context.Background())
}
