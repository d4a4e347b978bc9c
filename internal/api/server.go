package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tazhate/voicealarm/config"
	"github.com/tazhate/voicealarm/internal/domain"
	"github.com/tazhate/voicealarm/internal/service"
)

const maxUploadSize = 50 << 20

// APIResponse is the envelope of every JSON reply
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type RecordingResponse struct {
	ID        string          `json:"id"`
	URI       string          `json:"uri"`
	Name      string          `json:"name"`
	Days      []domain.DayTag `json:"days"`
	Builtin   bool            `json:"builtin"`
	CanDelete bool            `json:"can_delete"`
	CanRename bool            `json:"can_rename"`
}

type Server struct {
	cfg        *config.Config
	alarms     *service.AlarmService
	recordings *service.RecordingService
	calendar   *service.CalendarService
	webhook    http.Handler
	server     *http.Server
}

func New(cfg *config.Config, alarms *service.AlarmService, recordings *service.RecordingService, calendar *service.CalendarService) *Server {
	return &Server{
		cfg:        cfg,
		alarms:     alarms,
		recordings: recordings,
		calendar:   calendar,
	}
}

// SetWebhook mounts the Telegram update handler at /bot.
func (s *Server) SetWebhook(h http.Handler) {
	s.webhook = h
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	if s.webhook != nil {
		mux.Handle("/bot", s.webhook)
	}

	if s.cfg.APIUsername == "" || s.cfg.APIPassword == "" {
		return mux // API disabled if no credentials
	}

	// Alarms
	mux.HandleFunc("/api/alarms", s.basicAuth(s.apiAlarms))
	mux.HandleFunc("/api/alarms.ics", s.basicAuth(s.apiAlarmsICS))
	mux.HandleFunc("/api/alarm/", s.basicAuth(s.apiAlarm))

	// Recordings
	mux.HandleFunc("/api/recordings", s.basicAuth(s.apiRecordings))
	mux.HandleFunc("/api/recording/", s.basicAuth(s.apiRecording))

	// Calendar
	mux.HandleFunc("/api/calendar/sync", s.basicAuth(s.apiCalendarSync))

	return mux
}

func (s *Server) Start() {
	s.server = &http.Server{
		Addr:              ":" + s.cfg.ServerPort,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting HTTP server on :%s", s.cfg.ServerPort)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok || username != s.cfg.APIUsername || password != s.cfg.APIPassword {
			w.Header().Set("WWW-Authenticate", `Basic realm="VoiceAlarm API"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(APIResponse{Success: true, Data: data})
}

func jsonError(w http.ResponseWriter, err string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIResponse{Success: false, Error: err})
}

// serviceError maps domain errors to HTTP statuses
func serviceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrBuiltinRecording):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidTime),
		errors.Is(err, domain.ErrInvalidDay),
		errors.Is(err, domain.ErrMissingRecording):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		log.Printf("API error: %v", err)
	}
	jsonError(w, err.Error(), status)
}

func methodNotAllowed(w http.ResponseWriter) {
	jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
}

// GET /api/alarms - list alarms
// GET /api/alarms?uri=... - alarms of one recording
// POST /api/alarms - create alarm
// DELETE /api/alarms?uri=... - delete alarms of a recording
// DELETE /api/alarms?all=1 - delete every alarm
func (s *Server) apiAlarms(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		var views []service.AlarmView
		var err error
		if uri := r.URL.Query().Get("uri"); uri != "" {
			views, err = s.alarms.ListByRecording(uri)
		} else {
			views, err = s.alarms.List()
		}
		if err != nil {
			serviceError(w, err)
			return
		}
		jsonResponse(w, views)

	case http.MethodPost:
		var req struct {
			URI  string           `json:"uri"`
			Name string           `json:"name"`
			Time domain.ClockTime `json:"time"`
			Days []string         `json:"days"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		days, err := domain.ParseDays(req.Days)
		if err != nil {
			serviceError(w, err)
			return
		}
		alarm, err := s.alarms.Create(req.URI, req.Name, req.Time, days)
		if err != nil {
			serviceError(w, err)
			return
		}
		jsonResponse(w, alarm)

	case http.MethodDelete:
		q := r.URL.Query()
		if q.Get("all") == "1" {
			if err := s.alarms.Clear(); err != nil {
				serviceError(w, err)
				return
			}
			jsonResponse(w, map[string]bool{"cleared": true})
			return
		}
		uri := q.Get("uri")
		if uri == "" {
			jsonError(w, "uri or all=1 required", http.StatusBadRequest)
			return
		}
		n, err := s.alarms.DeleteByRecording(uri)
		if err != nil {
			serviceError(w, err)
			return
		}
		jsonResponse(w, map[string]int{"deleted": n})

	default:
		methodNotAllowed(w)
	}
}

// GET /api/alarm/{id}
// PUT /api/alarm/{id} - rename and/or change days
func (s *Server) apiAlarm(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/alarm/"), "/")
	if id == "" {
		jsonError(w, "Alarm ID required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req struct {
			Name *string   `json:"name"`
			Days *[]string `json:"days"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
			jsonError(w, "name cannot be empty", http.StatusBadRequest)
			return
		}
		if req.Days != nil {
			days, err := domain.ParseDays(*req.Days)
			if err != nil {
				serviceError(w, err)
				return
			}
			if err := s.alarms.UpdateDays(id, days); err != nil {
				serviceError(w, err)
				return
			}
		}
		if req.Name != nil {
			if err := s.alarms.Rename(id, *req.Name); err != nil {
				serviceError(w, err)
				return
			}
		}
	default:
		methodNotAllowed(w)
		return
	}

	alarm, err := s.alarms.Get(id)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, alarm)
}

// GET /api/alarms.ics - iCalendar feed of all alarms
func (s *Server) apiAlarmsICS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	var buf bytes.Buffer
	if err := s.calendar.WriteICS(&buf); err != nil {
		serviceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="alarms.ics"`)
	w.Write(buf.Bytes())
}

// GET /api/recordings - list recordings
// POST /api/recordings - upload (multipart "file", optional "name")
func (s *Server) apiRecordings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		recs, err := s.recordings.List()
		if err != nil {
			serviceError(w, err)
			return
		}
		jsonResponse(w, recordingsToResponse(recs))

	case http.MethodPost:
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		file, _, err := r.FormFile("file")
		if err != nil {
			jsonError(w, "file required: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()

		rec, err := s.recordings.Import(r.FormValue("name"), file)
		if err != nil {
			serviceError(w, err)
			return
		}
		jsonResponse(w, recordingToResponse(*rec))

	default:
		methodNotAllowed(w)
	}
}

// GET /api/recording/{id}
// PUT /api/recording/{id} - rename
// DELETE /api/recording/{id} - delete with its alarms
func (s *Server) apiRecording(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/recording/"), "/")
	if id == "" {
		jsonError(w, "Recording ID required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			jsonError(w, "name required", http.StatusBadRequest)
			return
		}
		if err := s.recordings.Rename(id, req.Name); err != nil {
			serviceError(w, err)
			return
		}
	case http.MethodDelete:
		res, err := s.recordings.Delete(id)
		if err != nil {
			serviceError(w, err)
			return
		}
		jsonResponse(w, map[string]int{"recordings": res.Recordings, "alarms": res.Alarms})
		return
	default:
		methodNotAllowed(w)
		return
	}

	rec, err := s.recordings.Get(id)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, recordingToResponse(*rec))
}

// POST /api/calendar/sync - publish alarms to CalDAV now
func (s *Server) apiCalendarSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.calendar.IsConfigured() {
		jsonError(w, "CalDAV not configured", http.StatusServiceUnavailable)
		return
	}

	result, err := s.calendar.Sync(r.Context())
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}
	jsonResponse(w, result)
}

func recordingToResponse(r domain.Recording) RecordingResponse {
	days := r.Days
	if days == nil {
		days = []domain.DayTag{}
	}
	return RecordingResponse{
		ID:        r.ID,
		URI:       r.URI,
		Name:      r.Name,
		Days:      days,
		Builtin:   r.IsBuiltin(),
		CanDelete: r.CanDelete(),
		CanRename: r.CanRename(),
	}
}

func recordingsToResponse(recs []domain.Recording) []RecordingResponse {
	out := make([]RecordingResponse, 0, len(recs))
	for _, r := range recs {
		out = append(out, recordingToResponse(r))
	}
	return out
}
