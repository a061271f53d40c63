package model

// FormatDescriptor is one available encoding option for an item. Descriptors
// are produced during resolution and never mutated afterwards; selection
// returns a copy with the Note field filled in when applicable.
type FormatDescriptor struct {
	ID            string
	Container     string
	Height        int     // 0 for audio-only streams
	AudioBitrate  float64 // kbps, 0 when unknown
	EstimatedSize int64   // bytes, 0 when the resolver reports none
	RequiresMerge bool    // video stream without audio, needs a paired audio stream
	AudioExtract  bool    // combined stream chosen for an audio-only request
	Note          string  // e.g. quality downgrade explanation
}

// ItemDetails is the result of resolving one item: its metadata plus the
// ordered catalog of available formats.
type ItemDetails struct {
	VideoID  string
	Title    string
	Duration float64 // seconds, 0 when unknown
	Formats  []FormatDescriptor
}

// IsAudioOnly reports whether the descriptor carries no video stream.
func (f FormatDescriptor) IsAudioOnly() bool {
	return f.Height == 0
}

// NeedsConversion reports whether producing the final artifact from this
// descriptor requires the external media processor.
func (f FormatDescriptor) NeedsConversion(kind MediaKind) bool {
	if kind == MediaAudioOnly {
		return true
	}
	return f.RequiresMerge
}
