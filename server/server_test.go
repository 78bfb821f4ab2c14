package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jsphweid/chordgen/app"
	"github.com/jsphweid/chordgen/config"
	"github.com/jsphweid/chordgen/midi"
	"github.com/jsphweid/chordgen/model"
	"github.com/jsphweid/chordgen/playback"
	"github.com/jsphweid/chordgen/progression"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type firstPicker struct{}

func (firstPicker) Intn(n int) int { return 0 }

type countingSink struct {
	mu        sync.Mutex
	notes     []uint8
	ensureErr error
}

func (c *countingSink) NoteOn(note, velocity uint8) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notes = append(c.notes, note)
	return nil
}

func (c *countingSink) NoteOff(note, velocity uint8) error { return nil }

func (c *countingSink) started() []uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uint8(nil), c.notes...)
}

func (c *countingSink) Devices() []midi.Device {
	return []midi.Device{{ID: 0, Name: "Synth", IsOutput: true}}
}

func (c *countingSink) Open(id int) error {
	if id != 0 {
		return midi.ErrNoDevice
	}
	return nil
}

func (c *countingSink) Ensure() error { return c.ensureErr }

func (c *countingSink) Current() string {
	if c.ensureErr != nil {
		return ""
	}
	return "Synth"
}

func (c *countingSink) Close() error { return nil }

// holdClock keeps every hold open until playback is stopped.
type holdClock struct{}

func (holdClock) Sleep(ctx context.Context, d time.Duration) error {
	<-ctx.Done()
	return ctx.Err()
}

func newServer(t *testing.T, sink *countingSink) (*Server, *app.Controller) {
	gen := progression.NewGenerator(progression.WithPicker(firstPicker{}))
	ctrl := app.New(config.FromEnv(), gen, sink, playback.WithClock(holdClock{}))
	t.Cleanup(func() { ctrl.Close() })
	return New(ctrl, WithPreviewDelay(10*time.Millisecond)), ctrl
}

func do(s *Server, method string, path string, body interface{}) *http.Response {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			panic(err.Error())
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w.Result()
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func TestGenerate(t *testing.T) {
	s, _ := newServer(t, &countingSink{})
	resp := do(s, http.MethodPost, "/generate", model.GenerateRequestBody{Key: "A", Style: "Pop", Bars: 6})

	assert := assert.New(t)
	assert.Equal(http.StatusOK, resp.StatusCode)

	var res model.GenerateResponse
	decode(t, resp, &res)
	assert.Equal([]string{"A", "E", "F#m", "D", "A", "E"}, res.Chords)
	assert.Equal([]string{"x02220", "022100", "244222", "xx0232", "x02220", "022100"}, res.Shapes)
	assert.Contains(res.Report, "Progression: | A | E | F#m | D | A | E |")
}

func TestGenerateDefaultsAndValidation(t *testing.T) {
	s, _ := newServer(t, &countingSink{})

	resp := do(s, http.MethodPost, "/generate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res model.GenerateResponse
	decode(t, resp, &res)
	assert.Equal(t, "C", res.Key)
	assert.Equal(t, "Pop", res.Style)
	assert.Len(t, res.Chords, config.DefaultBars)

	resp = do(s, http.MethodPost, "/generate", model.GenerateRequestBody{Key: "C", Style: "Pop", Bars: 99})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var errRes model.ErrorResponse
	decode(t, resp, &errRes)
	assert.Contains(t, errRes.Error, "bars out of range")
}

func TestPlayStatusStop(t *testing.T) {
	s, ctrl := newServer(t, &countingSink{})

	resp := do(s, http.MethodPost, "/play", model.PlayRequestBody{Tempo: 100})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	do(s, http.MethodPost, "/generate", model.GenerateRequestBody{Key: "C", Style: "Rock", Bars: 4})

	resp = do(s, http.MethodPost, "/play", model.PlayRequestBody{Tempo: 100, Mode: model.Arpeggio, Loop: true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var play model.PlayResponse
	decode(t, resp, &play)
	assert.NotEmpty(t, play.SessionId)
	assert.Empty(t, play.Warning)

	resp = do(s, http.MethodPost, "/play", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var status model.StatusResponse
	decode(t, do(s, http.MethodGet, "/status", nil), &status)
	assert.Equal(t, "running", status.State)
	assert.Equal(t, "Synth", status.Device)
	assert.Equal(t, []string{"C", "F", "G", "F"}, status.Chords)

	resp = do(s, http.MethodPost, "/stop", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	ctrl.Scheduler().Wait()

	decode(t, do(s, http.MethodGet, "/status", nil), &status)
	assert.Equal(t, "idle", status.State)
}

func TestMissingDeviceIsReported(t *testing.T) {
	s, _ := newServer(t, &countingSink{ensureErr: midi.ErrNoDevice})
	do(s, http.MethodPost, "/generate", model.GenerateRequestBody{Key: "C", Style: "Pop", Bars: 4})

	resp := do(s, http.MethodPost, "/play", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var play model.PlayResponse
	decode(t, resp, &play)
	assert.NotEmpty(t, play.SessionId)
	assert.Equal(t, midi.ErrNoDevice.Error(), play.Warning)

	resp = do(s, http.MethodPost, "/preview", model.PreviewRequestBody{Chord: "G"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var preview model.PreviewResponse
	decode(t, resp, &preview)
	assert.Equal(t, "G", preview.Chord)
	assert.Equal(t, midi.ErrNoDevice.Error(), preview.Warning)

	var status model.StatusResponse
	decode(t, do(s, http.MethodGet, "/status", nil), &status)
	assert.Equal(t, "running", status.State)
	assert.Empty(t, status.Device)
}

func TestPlayRejectsUnknownMode(t *testing.T) {
	s, _ := newServer(t, &countingSink{})
	req := httptest.NewRequest(http.MethodPost, "/play", bytes.NewBufferString(`{"mode":"strum"}`))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
}

func TestPreviewIsDebounced(t *testing.T) {
	sink := &countingSink{}
	s, _ := newServer(t, sink)

	for _, chord := range []string{"C", "Am", "G7"} {
		resp := do(s, http.MethodPost, "/preview", model.PreviewRequestBody{Chord: chord})
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	}

	require.Eventually(t, func() bool { return len(sink.started()) > 0 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []uint8{67, 71, 74, 77}, sink.started())

	resp := do(s, http.MethodPost, "/preview", model.PreviewRequestBody{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSave(t *testing.T) {
	s, _ := newServer(t, &countingSink{})
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.txt")

	resp := do(s, http.MethodPost, "/save", model.SaveRequestBody{Path: path})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	do(s, http.MethodPost, "/generate", model.GenerateRequestBody{Key: "E", Style: "Blues", Bars: 4})

	resp = do(s, http.MethodPost, "/save", model.SaveRequestBody{Path: path})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Key: E    Style: Blues    Bars: 4")

	resp = do(s, http.MethodPost, "/save", model.SaveRequestBody{Path: filepath.Join(dir, "nope", "prog.txt")})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var errRes model.ErrorResponse
	decode(t, resp, &errRes)
	assert.Contains(t, errRes.Error, "nope")
}

func TestDevices(t *testing.T) {
	s, _ := newServer(t, &countingSink{})
	var res []model.DeviceResult
	decode(t, do(s, http.MethodGet, "/devices", nil), &res)
	assert.Equal(t, []model.DeviceResult{{Id: 0, Name: "Synth", IsOutput: true}}, res)

	assert.Equal(t, http.StatusNoContent, do(s, http.MethodPost, "/devices/0", nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, do(s, http.MethodPost, "/devices/7", nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, do(s, http.MethodPost, "/devices/abc", nil).StatusCode)
}

func TestCorsPreflight(t *testing.T) {
	s, _ := newServer(t, &countingSink{})
	req := httptest.NewRequest(http.MethodOptions, "/generate", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
