// Package realtime connects to the OpenAI Realtime API over WebRTC.
//
// A Conn performs one SDP offer/answer handshake, streams a local capture
// track to the model, hands the inbound audio track to a playback sink and
// carries JSON events over the "oai-events" data channel.
//
//	conn := realtime.NewConn(realtime.ConnectConfig{
//	    Token:        session.ClientSecret,
//	    Model:        realtime.ModelGPT4oRealtimePreview20241217,
//	    Voice:        realtime.VoiceAlloy,
//	    Instructions: instructions,
//	}, realtime.FileDevices{CapturePath: "mic.ogg"})
//	err := conn.Connect(ctx, realtime.Handlers{
//	    OnMessage: func(raw []byte) {
//	        switch ev := realtime.Decode(raw).(type) {
//	        case realtime.UserTranscriptFinal:
//	            fmt.Println("user:", ev.Text)
//	        }
//	    },
//	})
//	defer conn.Disconnect()
//
// # Ephemeral tokens
//
// Browsers and other untrusted clients must not hold the account API key.
// A server mints a short-lived client secret with Client.CreateSession and
// passes only that value to the client.
//
//	client := realtime.NewClient(apiKey)
//	session, err := client.CreateSession(ctx, &realtime.SessionRequest{
//	    Model: realtime.ModelGPT4oRealtimePreview20241217,
//	    Voice: realtime.VoiceAlloy,
//	})
package realtime
