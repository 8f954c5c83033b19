package realtime

// Models supported by the Realtime API.
const (
	ModelGPT4oRealtimePreview             = "gpt-4o-realtime-preview"
	ModelGPT4oRealtimePreview20241217     = "gpt-4o-realtime-preview-2024-12-17"
	ModelGPT4oMiniRealtimePreview         = "gpt-4o-mini-realtime-preview"
	ModelGPT4oMiniRealtimePreview20241217 = "gpt-4o-mini-realtime-preview-2024-12-17"
)

// Voice options for audio output.
const (
	VoiceAlloy   = "alloy"
	VoiceAsh     = "ash"
	VoiceBallad  = "ballad"
	VoiceCoral   = "coral"
	VoiceEcho    = "echo"
	VoiceSage    = "sage"
	VoiceShimmer = "shimmer"
	VoiceVerse   = "verse"
)

const (
	// AudioFormatPCM16 is 16-bit PCM audio at 24kHz, mono, little-endian.
	AudioFormatPCM16 = "pcm16"

	// VADServerVAD enables server-side voice activity detection.
	VADServerVAD = "server_vad"

	// TranscriptionModelWhisper1 transcribes user audio.
	TranscriptionModelWhisper1 = "whisper-1"

	ModalityText  = "text"
	ModalityAudio = "audio"
)

// DefaultICEServer is used when ConnectConfig.ICEServers is empty.
const DefaultICEServer = "stun:stun.l.google.com:19302"

// SessionConfig is the payload of a session.update client event.
type SessionConfig struct {
	// Modalities specifies the output modalities.
	Modalities []string `json:"modalities,omitzero"`

	// Instructions is the system prompt.
	Instructions string `json:"instructions,omitzero"`

	Voice string `json:"voice,omitzero"`

	InputAudioFormat  string `json:"input_audio_format,omitzero"`
	OutputAudioFormat string `json:"output_audio_format,omitzero"`

	// InputAudioTranscription enables transcripts of the user's speech.
	// Without it no user transcript events are produced.
	InputAudioTranscription *TranscriptionConfig `json:"input_audio_transcription,omitzero"`

	TurnDetection *TurnDetection `json:"turn_detection,omitzero"`
}

// TranscriptionConfig configures input audio transcription.
type TranscriptionConfig struct {
	Model string `json:"model"`
}

// TurnDetection configures voice activity detection.
type TurnDetection struct {
	// Type is "server_vad" or "semantic_vad".
	Type string `json:"type"`

	// Threshold is the activation threshold (0.0-1.0).
	Threshold float64 `json:"threshold,omitzero"`

	// PrefixPaddingMs is audio included before detected speech.
	PrefixPaddingMs int `json:"prefix_padding_ms,omitzero"`

	// SilenceDurationMs is the silence that ends a user turn.
	SilenceDurationMs int `json:"silence_duration_ms,omitzero"`
}

// DefaultSessionConfig returns the session settings sent when the data
// channel opens: text and audio output, PCM16 in both directions, Whisper
// transcription of the user and server VAD.
func DefaultSessionConfig(instructions, voice string) *SessionConfig {
	return &SessionConfig{
		Modalities:        []string{ModalityText, ModalityAudio},
		Instructions:      instructions,
		Voice:             voice,
		InputAudioFormat:  AudioFormatPCM16,
		OutputAudioFormat: AudioFormatPCM16,
		InputAudioTranscription: &TranscriptionConfig{
			Model: TranscriptionModelWhisper1,
		},
		TurnDetection: &TurnDetection{
			Type:              VADServerVAD,
			Threshold:         0.5,
			PrefixPaddingMs:   300,
			SilenceDurationMs: 500,
		},
	}
}
