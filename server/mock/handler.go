// Package mock emulates the conversion service in memory: jobs, presigned
// uploads, header protected downloads and the content operations.
package mock

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Options struct {
	// Token, if set, is required as bearer token on service requests
	Token string

	// PendingPolls is the number of pending responses every job returns
	// before its result is available
	PendingPolls int

	// ChunkedDownloads omits the content length on downloads
	ChunkedDownloads bool
}

type Failure struct {
	StatusCode int

	Code    int
	Name    string
	Message string
}

type Handler struct {
	options Options
	router  chi.Router

	mu sync.Mutex

	jobs   map[string]*job
	assets map[string]*Asset

	uploads   map[string]*upload
	downloads map[string]*download

	failures map[string]Failure

	requests map[string]int
}

type job struct {
	pending int

	result  any
	failure *Failure
}

func New(options Options) *Handler {
	h := &Handler{
		options: options,

		jobs:   make(map[string]*job),
		assets: make(map[string]*Asset),

		uploads:   make(map[string]*upload),
		downloads: make(map[string]*download),

		failures: make(map[string]Failure),

		requests: make(map[string]int),
	}

	h.router = chi.NewRouter()
	h.Attach(h.router)

	return h
}

// Fail makes every job submitted to endpoint (e.g. "/pdf/ocr") fail with f.
func (h *Handler) Fail(endpoint string, f Failure) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.failures[endpoint] = f
}

// Requests returns how many requests were made to path, with job ids
// stripped from poll paths.
func (h *Handler) Requests(path string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.requests[path]
}

// Asset returns the state behind a handle.
func (h *Handler) Asset(handle string) (*Asset, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	a, ok := h.assets[handle]
	return a, ok
}

func (h *Handler) Attach(r chi.Router) {
	r.Post("/storage/{id}", h.handleStore)
	r.Get("/storage/{id}", h.handleFetch)

	r.Group(func(r chi.Router) {
		r.Use(h.authorize)

		r.Post("/data/upload", h.handleUpload)

		r.Post("/{kind}/download", h.handleDownload)

		r.Post("/{kind}/{operation}", h.handleSubmit)
		r.Get("/{kind}/{operation}/{job}", h.handlePoll)
	})
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.options.Token != "" && r.Header.Get("Authorization") != "Bearer "+h.options.Token {
			writeFailure(w, Failure{StatusCode: http.StatusUnauthorized, Code: 401, Name: "unauthorized", Message: "invalid token"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (h *Handler) count(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.requests[path]++
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	endpoint := "/" + chi.URLParam(r, "kind") + "/" + chi.URLParam(r, "operation")
	h.count(endpoint)

	operation, ok := operations[endpoint]

	if !ok {
		writeFailure(w, Failure{StatusCode: http.StatusNotFound, Code: 404, Name: "not_found", Message: "unknown operation " + endpoint})
		return
	}

	var input json.RawMessage

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeFailure(w, Failure{StatusCode: http.StatusBadRequest, Code: 400, Name: "bad_request", Message: err.Error()})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	j := &job{
		pending: h.options.PendingPolls,
	}

	if f, ok := h.failures[endpoint]; ok {
		j.failure = &f
	} else {
		result, err := operation(h, input)

		if err != nil {
			j.failure = &Failure{StatusCode: http.StatusUnprocessableEntity, Code: 422, Name: "invalid_request", Message: err.Error()}
		} else {
			j.result = result
		}
	}

	id := uuid.NewString()
	h.jobs[id] = j

	writeJson(w, http.StatusCreated, map[string]any{
		"job_id": id,
	})
}

func (h *Handler) handlePoll(w http.ResponseWriter, r *http.Request) {
	endpoint := "/" + chi.URLParam(r, "kind") + "/" + chi.URLParam(r, "operation")
	h.count(endpoint + "/{job}")

	h.mu.Lock()
	j, ok := h.jobs[chi.URLParam(r, "job")]

	if ok && j.pending > 0 {
		j.pending--
		h.mu.Unlock()

		w.WriteHeader(http.StatusAccepted)
		return
	}

	h.mu.Unlock()

	if !ok {
		writeFailure(w, Failure{StatusCode: http.StatusNotFound, Code: 404, Name: "not_found", Message: "unknown job"})
		return
	}

	if j.failure != nil {
		writeFailure(w, *j.failure)
		return
	}

	writeJson(w, http.StatusOK, j.result)
}

// store registers an asset under a new handle. The caller holds h.mu.
func (h *Handler) store(a *Asset) string {
	handle := string(a.Kind) + "_" + uuid.NewString()
	h.assets[handle] = a

	return handle
}

func baseURL(r *http.Request) string {
	scheme := "http"

	if r.TLS != nil {
		scheme = "https"
	}

	return scheme + "://" + r.Host
}

func writeJson(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	enc.Encode(v)
}

func writeFailure(w http.ResponseWriter, f Failure) {
	writeJson(w, f.StatusCode, map[string]any{
		"status_code": f.StatusCode,

		"api_error": map[string]any{
			"code":    f.Code,
			"name":    f.Name,
			"message": f.Message,
		},
	})
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(code)

	w.Write([]byte(strings.TrimSpace(message)))
}
