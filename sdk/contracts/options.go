package contracts

// MIDICommand is the high nibble of a channel-voice status byte.
type MIDICommand byte

const (
	// NoteOn is the MIDI command for a Note On event (0x90).
	NoteOn MIDICommand = 0x90
	// NoteOff is the MIDI command for a Note Off event (0x80).
	NoteOff MIDICommand = 0x80
)

// DefaultVelocity is the velocity used for live input when none is supplied.
const DefaultVelocity = 64

// MIDIEventFilter restricts which captured commands reach the performer.
type MIDIEventFilter struct {
	Commands []MIDICommand // List of MIDI commands to let through.
}

// Allows reports whether status passes the filter. A nil filter allows everything.
func (f *MIDIEventFilter) Allows(status byte) bool {
	if f == nil {
		return true
	}
	for _, c := range f.Commands {
		if status&0xF0 == byte(c) {
			return true
		}
	}
	return false
}

// ChannelFilter restricts which channels of a MIDI file are performed.
// An empty filter performs every channel.
type ChannelFilter []int

// Allows reports whether channel passes the filter.
func (f ChannelFilter) Allows(channel int) bool {
	if len(f) == 0 {
		return true
	}
	for _, c := range f {
		if c == channel {
			return true
		}
	}
	return false
}

// CoreMIDIConfig holds configuration for CoreMIDI.
type CoreMIDIConfig struct {
	ClientName string // Name of the MIDI client.
}

// PerformerOptions defines the configuration options for a Performer.
type PerformerOptions struct {
	Logger          Logger           // Logger for logging events and errors.
	LogLevel        LogLevel         // Level of logging to use.
	LogFilePath     string           // File path for logging if file logging is enabled.
	Sink            Sink             // Engine receiving the commands.
	DefaultVelocity int              // Velocity for live input without an explicit one; 0 means DefaultVelocity.
	Speed           float64          // Playback speed multiplier for files; 0 means 1.
	ChannelFilter   ChannelFilter    // Channels of a file that are performed.
	MIDIEventFilter *MIDIEventFilter // Optional filter for captured live-input events.
	CoreMIDIConfig  *CoreMIDIConfig  // Configuration specific to CoreMIDI.
}

// Option is a function that modifies PerformerOptions.
type Option func(*PerformerOptions)

// WithLogger sets the logger for the performer.
func WithLogger(l Logger) Option {
	return func(opts *PerformerOptions) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level for the performer.
func WithLogLevel(level LogLevel) Option {
	return func(opts *PerformerOptions) {
		opts.LogLevel = level
	}
}

// WithLogFile directs the performer's logs to the file at path.
func WithLogFile(path string) Option {
	return func(opts *PerformerOptions) {
		opts.LogFilePath = path
	}
}

// WithSink sets the engine that receives the performer's commands.
func WithSink(s Sink) Option {
	return func(opts *PerformerOptions) {
		opts.Sink = s
	}
}

// WithDefaultVelocity sets the velocity used for live input without an explicit one.
// Zero selects DefaultVelocity; a live note-on with velocity 0 is a release, so
// it is never a useful default.
func WithDefaultVelocity(velocity int) Option {
	return func(opts *PerformerOptions) {
		opts.DefaultVelocity = velocity
	}
}

// WithSpeed sets the file playback speed multiplier. 2 plays twice as fast.
// Zero selects normal speed. Negative, NaN and infinite speeds are rejected.
func WithSpeed(speed float64) Option {
	return func(opts *PerformerOptions) {
		opts.Speed = speed
	}
}

// WithChannelFilter restricts file playback to the given channels.
func WithChannelFilter(channels ...int) Option {
	return func(opts *PerformerOptions) {
		opts.ChannelFilter = ChannelFilter(channels)
	}
}

// WithMIDIEventFilter sets the filter for captured live-input events.
func WithMIDIEventFilter(filter MIDIEventFilter) Option {
	return func(opts *PerformerOptions) {
		opts.MIDIEventFilter = &filter
	}
}

// WithCoreMIDIConfig sets the CoreMIDI configuration for live input on macOS.
func WithCoreMIDIConfig(config CoreMIDIConfig) Option {
	return func(opts *PerformerOptions) {
		opts.CoreMIDIConfig = &config
	}
}
