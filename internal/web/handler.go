// Package web serves a dashboard as an HTML page.
package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"example.com/timestats/internal/dashboard"
	"example.com/timestats/internal/input"
	"example.com/timestats/internal/stats"
	"example.com/timestats/internal/view"
)

//go:embed templates/*.html
var templateFS embed.FS

var accents = map[string]string{
	"work":            "#ff8b64",
	"play":            "#55c2e6",
	"study":           "#ff5e7d",
	"exercise":        "#4bcf82",
	"social":          "#7335d2",
	"self-care":       "#f1c75b",
	view.FallbackIcon: "#bbc0ff",
}

var funcMap = template.FuncMap{
	"title": func(tf stats.Timeframe) string {
		s := string(tf)
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
	"hours": func(h float64) string {
		return strconv.FormatFloat(h, 'f', -1, 64)
	},
	"delay": func(i int) int64 {
		return view.RevealDelay(i).Milliseconds()
	},
	"accent": func(icon string) template.CSS {
		if c, ok := accents[icon]; ok {
			return template.CSS(c)
		}
		return template.CSS(accents[view.FallbackIcon])
	},
}

var pageTemplate = template.Must(template.New("web").Funcs(funcMap).ParseFS(templateFS, "templates/*.html"))

type pageData struct {
	View        view.RenderedView
	Indicators  []input.Indicator
	Source      string
	RefreshedAt time.Time
}

// Option configures optional behaviour for the Handler.
type Option func(*Handler)

// WithLogger overrides the handler logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// Handler serves one dashboard instance over HTTP.
type Handler struct {
	dash   *dashboard.Dashboard
	logger zerolog.Logger
}

// NewHandler builds a Handler.
func NewHandler(dash *dashboard.Dashboard, opts ...Option) *Handler {
	h := &Handler{dash: dash, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", h.page)
	mux.HandleFunc("/timeframe", h.timeframe)
	mux.HandleFunc("/view", h.currentView)
	mux.HandleFunc("/refresh", h.refresh)
	mux.HandleFunc("/healthz", healthz)
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	source, at := h.dash.LastRefresh()
	data := pageData{
		View:        h.dash.View(),
		Indicators:  h.dash.Indicators(),
		Source:      source,
		RefreshedAt: at,
	}

	var buf bytes.Buffer
	if err := pageTemplate.ExecuteTemplate(&buf, "page", data); err != nil {
		h.logger.Error().Err(err).Msg("render page")
		writeError(w, http.StatusInternalServerError, "server_error", "unable to render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) timeframe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse form")
		return
	}

	tf, err := stats.ParseTimeframe(r.PostFormValue("timeframe"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "timeframe must be daily, weekly or monthly")
		return
	}

	// Buttons are form submits, so pointer clicks and Enter/Space land here the same way.
	if _, err := h.dash.Select(input.Activation{Target: tf, Kind: input.Pointer}); err != nil {
		if errors.Is(err, stats.ErrUnknownTimeframe) {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	h.respond(w, r)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	h.dash.Refresh(r.Context())
	h.respond(w, r)
}

func (h *Handler) currentView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	writeJSON(w, http.StatusOK, h.viewResponse())
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request) {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		writeJSON(w, http.StatusOK, h.viewResponse())
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ViewResponse is the JSON projection of the current render.
type ViewResponse struct {
	view.RenderedView
	Indicators []input.Indicator `json:"indicators"`
	Source     string            `json:"source,omitempty"`
}

func (h *Handler) viewResponse() ViewResponse {
	source, _ := h.dash.LastRefresh()
	return ViewResponse{
		RenderedView: h.dash.View(),
		Indicators:   h.dash.Indicators(),
		Source:       source,
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
