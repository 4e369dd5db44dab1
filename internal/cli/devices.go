package cli

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/leandrodaf/midiperformer/sdk/contracts"
	"github.com/leandrodaf/midiperformer/sdk/performer"
	"github.com/spf13/cobra"
)

var listenFlags struct {
	device   int
	velocity int
}

func init() {
	listenCmd.Flags().IntVar(&listenFlags.device, "device", 0, "index of the input device, as listed by devices")
	listenCmd.Flags().IntVar(&listenFlags.velocity, "velocity", contracts.DefaultVelocity, "default velocity for live input")
	rootCmd.AddCommand(devicesCmd, listenCmd)
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Lists MIDI input devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, _, err := baseOptions()
		if err != nil {
			return err
		}
		client, err := performer.NewInputClient(opts...)
		if err != nil {
			return err
		}
		devices, err := client.ListDevices()
		if err != nil {
			return err
		}
		for i, d := range devices {
			fmt.Fprintf(cmd.OutOrStdout(), "%d: %s (%s, %s)\n", i, d.Name, d.EntityName, d.Manufacturer)
		}
		return nil
	},
}

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Performs live input from a MIDI device",
	Long:  `Captures note messages from a MIDI input device and performs them until Ctrl+C.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, log, err := baseOptions()
		if err != nil {
			return err
		}
		opts = append(opts,
			contracts.WithDefaultVelocity(listenFlags.velocity),
			contracts.WithMIDIEventFilter(contracts.MIDIEventFilter{
				Commands: []contracts.MIDICommand{contracts.NoteOn, contracts.NoteOff},
			}),
		)

		client, err := performer.NewInputClient(opts...)
		if err != nil {
			return err
		}
		if err := client.SelectDevice(listenFlags.device); err != nil {
			return err
		}

		p, err := performer.NewPerformer(opts...)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return performer.Listen(ctx, client, p, log)
	},
}
