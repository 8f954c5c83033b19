package realtime

import (
	"encoding/json"
	"strings"
)

// Server event types consumed by Decode.
const (
	EventTypeError = "error"

	EventTypeInputAudioTranscriptionCompleted = "conversation.item.input_audio_transcription.completed"
	EventTypeInputAudioBufferSpeechStarted    = "input_audio_buffer.speech_started"

	EventTypeResponseAudioTranscriptDelta = "response.audio_transcript.delta"
	EventTypeResponseAudioTranscriptDone  = "response.audio_transcript.done"
	EventTypeResponseTextDelta            = "response.text.delta"
	EventTypeResponseTextDone             = "response.text.done"

	EventTypeOutputAudioBufferStarted = "output_audio_buffer.started"
	EventTypeOutputAudioBufferStopped = "output_audio_buffer.stopped"
	EventTypeResponseAudioStarted     = "response.audio.started"
	EventTypeResponseAudioDone        = "response.audio.done"
)

// Client event types.
const (
	EventTypeSessionUpdate = "session.update"
)

// Event is a decoded data channel message. The set of implementations is
// closed: every message decodes to exactly one of the types below.
type Event interface {
	event()
}

// UserTranscriptFinal is the completed transcription of a user turn.
type UserTranscriptFinal struct {
	ItemID string
	Text   string
}

// UserSpeechStarted reports that server VAD detected user speech.
type UserSpeechStarted struct{}

// AssistantTranscriptDelta is a streamed piece of an assistant response.
type AssistantTranscriptDelta struct {
	ResponseID string
	Delta      string
}

// AssistantTranscriptFinal is the full text of one assistant response part.
type AssistantTranscriptFinal struct {
	ResponseID string
	Text       string
}

// AudioPlaybackStarted reports that synthesized audio started playing.
type AudioPlaybackStarted struct{}

// AudioPlaybackEnded reports that synthesized audio finished.
type AudioPlaybackEnded struct{}

// RemoteError is an error event sent by the server.
type RemoteError struct {
	Err *Error
}

// Unrecognized is any message that has no meaning for the session,
// including malformed JSON. Type is empty when the message did not parse.
type Unrecognized struct {
	Type string
}

func (UserTranscriptFinal) event()      {}
func (UserSpeechStarted) event()        {}
func (AssistantTranscriptDelta) event() {}
func (AssistantTranscriptFinal) event() {}
func (AudioPlaybackStarted) event()     {}
func (AudioPlaybackEnded) event()       {}
func (RemoteError) event()              {}
func (Unrecognized) event()             {}

// wireEvent holds the fields of every server event Decode looks at.
type wireEvent struct {
	Type       string      `json:"type"`
	EventID    string      `json:"event_id"`
	ItemID     string      `json:"item_id"`
	ResponseID string      `json:"response_id"`
	Delta      string      `json:"delta"`
	Transcript string      `json:"transcript"`
	Text       string      `json:"text"`
	Error      *EventError `json:"error"`
}

// EventError contains error information from error events.
type EventError struct {
	Type    string `json:"type,omitzero"`
	Code    string `json:"code,omitzero"`
	Message string `json:"message,omitzero"`
	Param   string `json:"param,omitzero"`
	EventID string `json:"event_id,omitzero"`
}

// ToError converts EventError to Error.
func (e *EventError) ToError() *Error {
	return &Error{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Param:   e.Param,
		EventID: e.EventID,
	}
}

// Decode classifies one data channel message. It never fails: anything that
// is not understood becomes Unrecognized.
func Decode(raw []byte) Event {
	var ev wireEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Unrecognized{}
	}

	switch ev.Type {
	case EventTypeInputAudioTranscriptionCompleted:
		return UserTranscriptFinal{ItemID: ev.ItemID, Text: strings.TrimSpace(ev.Transcript)}
	case EventTypeInputAudioBufferSpeechStarted:
		return UserSpeechStarted{}
	case EventTypeResponseAudioTranscriptDelta, EventTypeResponseTextDelta:
		return AssistantTranscriptDelta{ResponseID: ev.ResponseID, Delta: ev.Delta}
	case EventTypeResponseAudioTranscriptDone:
		return AssistantTranscriptFinal{ResponseID: ev.ResponseID, Text: ev.Transcript}
	case EventTypeResponseTextDone:
		return AssistantTranscriptFinal{ResponseID: ev.ResponseID, Text: ev.Text}
	case EventTypeOutputAudioBufferStarted, EventTypeResponseAudioStarted:
		return AudioPlaybackStarted{}
	case EventTypeOutputAudioBufferStopped, EventTypeResponseAudioDone:
		return AudioPlaybackEnded{}
	case EventTypeError:
		if ev.Error == nil {
			return RemoteError{Err: &Error{Message: "unknown error"}}
		}
		return RemoteError{Err: ev.Error.ToError()}
	default:
		return Unrecognized{Type: ev.Type}
	}
}
