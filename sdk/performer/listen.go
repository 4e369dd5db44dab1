package performer

import (
	"context"
	"errors"

	"github.com/leandrodaf/midiperformer/internal/message"
	"github.com/leandrodaf/midiperformer/sdk/contracts"
	"go.uber.org/multierr"
)

// Listen starts capturing from client and feeds every captured note message
// to p as live input, until ctx is done or the capture channel is closed.
// Non-note messages are logged at debug level and skipped.
//
// On return the capture is stopped and any file playback on p is stopped; the
// errors of both are combined.
func Listen(ctx context.Context, client contracts.InputClient, p contracts.Performer, log contracts.Logger) error {
	events := make(chan contracts.MIDI, 100)
	client.StartCapture(events)

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case ev, ok := <-events:
			if !ok {
				break loop
			}
			if inputErr := p.Input(ev.Bytes()); inputErr != nil {
				if errors.Is(inputErr, message.ErrInvalidMessageKind) {
					log.Debug("Skipping non-note input", log.Field().Uint8("status", ev.Status))
					continue
				}
				log.Warn("Rejected live input",
					log.Field().Uint64("timestamp", ev.Timestamp),
					log.Field().Error("error", inputErr))
			}
		}
	}

	return multierr.Combine(client.Stop(), p.Stop())
}
