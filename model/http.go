package model

type GenerateRequestBody struct {
	Key   string `json:"key"`
	Style string `json:"style"`
	Bars  int    `json:"bars"`
}

type GenerateResponse struct {
	Key    string   `json:"key"`
	Style  string   `json:"style"`
	Bars   int      `json:"bars"`
	Chords []string `json:"chords"`
	Shapes []string `json:"shapes"`
	Report string   `json:"report"`
}

type PlayRequestBody struct {
	Tempo float64      `json:"tempo"`
	Mode  PlaybackMode `json:"mode"`
	Loop  bool         `json:"loop"`
}

// Warning is set when playback started without a MIDI output.
type PlayResponse struct {
	SessionId string `json:"session_id"`
	Warning   string `json:"warning,omitempty"`
}

type PreviewRequestBody struct {
	Chord string `json:"chord"`
}

type PreviewResponse struct {
	Chord   string `json:"chord"`
	Warning string `json:"warning,omitempty"`
}

type SaveRequestBody struct {
	Path string `json:"path"`
}

type DeviceResult struct {
	Id       int    `json:"id"`
	Name     string `json:"name"`
	IsOutput bool   `json:"is_output"`
}

type StatusResponse struct {
	State  string   `json:"state"`
	Device string   `json:"device"`
	Chords []string `json:"chords"`
}

type ErrorResponse struct {
	Error string `json:"detail"`
}
