package httpapi

import "net/http"

// ttsSynthesize implements POST /api/tts/synthesize: body is
// raw text, response is audio/mpeg. TTS is an external collaborator;
// the gateway exposes the route shape only.
func (h *handlers) ttsSynthesize(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "text-to-speech is an external collaborator, not implemented by this gateway", http.StatusNotImplemented)
}

// sttTranscribe implements POST /api/stt/transcribe:
// multipart audio in, {text} out. STT is an external collaborator, same
// as ttsSynthesize.
func (h *handlers) sttTranscribe(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "speech-to-text is an external collaborator, not implemented by this gateway", http.StatusNotImplemented)
}
