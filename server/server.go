package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bep/debounce"
	"github.com/gorilla/mux"
	"github.com/jsphweid/chordgen/app"
	"github.com/jsphweid/chordgen/config"
	"github.com/jsphweid/chordgen/logger"
	"github.com/jsphweid/chordgen/midi"
	"github.com/jsphweid/chordgen/model"
	"github.com/jsphweid/chordgen/playback"
	"github.com/jsphweid/chordgen/progression"
	"github.com/jsphweid/chordgen/theory"
	"github.com/rs/cors"
)

const DefaultPreviewDelay = 150 * time.Millisecond

type Server struct {
	ctrl    *app.Controller
	router  *mux.Router
	preview func(f func())
}

type Option func(*options)

type options struct {
	previewDelay time.Duration
}

// WithPreviewDelay sets how long preview requests are collected before the
// last one is played.
func WithPreviewDelay(d time.Duration) Option {
	return func(o *options) {
		o.previewDelay = d
	}
}

func New(ctrl *app.Controller, opts ...Option) *Server {
	o := options{previewDelay: DefaultPreviewDelay}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Server{
		ctrl:    ctrl,
		router:  mux.NewRouter().StrictSlash(true),
		preview: debounce.New(o.previewDelay),
	}
	s.router.HandleFunc("/generate", s.HandleGenerate).Methods("POST")
	s.router.HandleFunc("/play", s.HandlePlay).Methods("POST")
	s.router.HandleFunc("/stop", s.HandleStop).Methods("POST")
	s.router.HandleFunc("/preview", s.HandlePreview).Methods("POST")
	s.router.HandleFunc("/save", s.HandleSave).Methods("POST")
	s.router.HandleFunc("/devices", s.HandleDevices).Methods("GET")
	s.router.HandleFunc("/devices/{id:[0-9]+}", s.HandleSelectDevice).Methods("POST")
	s.router.HandleFunc("/status", s.HandleStatus).Methods("GET")
	return s
}

func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.router)
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Listening", logger.Fields{"addr": addr})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// readBody decodes a JSON body into v. An empty body leaves v untouched.
func readBody(r *http.Request, v interface{}) error {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, model.ErrorResponse{Error: err.Error()})
}

func (s *Server) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	input := model.GenerateRequestBody{
		Key:   theory.DefaultKey,
		Style: progression.DefaultStyle,
		Bars:  config.DefaultBars,
	}
	if err := readBody(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	report, err := s.ctrl.Generate(input.Key, input.Style, input.Bars)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, http.StatusOK, model.GenerateResponse{
		Key:    report.Key,
		Style:  report.Style,
		Bars:   report.Bars,
		Chords: report.Chords,
		Shapes: report.Shapes(),
		Report: report.String(),
	})
}

func (s *Server) HandlePlay(w http.ResponseWriter, r *http.Request) {
	var input model.PlayRequestBody
	if err := readBody(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	session, err := s.ctrl.StartPlayback(input.Tempo, input.Mode, input.Loop)
	switch {
	case errors.Is(err, playback.ErrAlreadyRunning):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, playback.ErrNoProgression):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, app.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		res := model.PlayResponse{SessionId: session.ID}
		if session.Warning != nil {
			res.Warning = session.Warning.Error()
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) HandleStop(w http.ResponseWriter, r *http.Request) {
	s.ctrl.StopPlayback()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) HandlePreview(w http.ResponseWriter, r *http.Request) {
	var input model.PreviewRequestBody
	if err := readBody(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if input.Chord == "" {
		http.Error(w, "chord is required", http.StatusBadRequest)
		return
	}

	// the debounced preview runs later, so the device is checked now
	res := model.PreviewResponse{Chord: input.Chord}
	if err := s.ctrl.CheckDevice(); err != nil {
		res.Warning = err.Error()
	}
	chord := input.Chord
	s.preview(func() {
		s.ctrl.PreviewChord(chord)
	})
	writeJSON(w, http.StatusAccepted, res)
}

func (s *Server) HandleSave(w http.ResponseWriter, r *http.Request) {
	var input model.SaveRequestBody
	if err := readBody(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if input.Path == "" {
		http.Error(w, "path is required", http.StatusBadRequest)
		return
	}

	err := s.ctrl.Save(input.Path)
	switch {
	case errors.Is(err, app.ErrNothingToSave):
		writeError(w, http.StatusBadRequest, err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) HandleDevices(w http.ResponseWriter, r *http.Request) {
	res := make([]model.DeviceResult, 0)
	for _, d := range s.ctrl.Devices() {
		res = append(res, model.DeviceResult{Id: d.ID, Name: d.Name, IsOutput: d.IsOutput})
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) HandleSelectDevice(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	err = s.ctrl.SelectDevice(id)
	switch {
	case errors.Is(err, midi.ErrNoDevice):
		writeError(w, http.StatusNotFound, err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.ctrl.Status()
	res := model.StatusResponse{State: status.State.String(), Device: status.Device, Chords: make([]string, 0)}
	if status.Report != nil {
		res.Chords = status.Report.Chords
	}
	writeJSON(w, http.StatusOK, res)
}
