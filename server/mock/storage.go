package mock

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const encryptionKeyHeader = "x-amz-server-side-encryption-customer-key"

type upload struct {
	handle string
	size   int

	fields map[string]string

	content  []byte
	uploaded bool
}

type download struct {
	key     string
	content []byte
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	h.count("/data/upload")

	var input struct {
		Size int `json:"size"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeFailure(w, Failure{StatusCode: http.StatusBadRequest, Code: 400, Name: "bad_request", Message: err.Error()})
		return
	}

	if input.Size < 0 {
		writeFailure(w, Failure{StatusCode: http.StatusBadRequest, Code: 400, Name: "bad_request", Message: "invalid size"})
		return
	}

	id := uuid.NewString()

	policy, _ := json.Marshal(map[string]any{
		"key":                  "uploads/" + id,
		"content-length-range": []int{input.Size, input.Size},
	})

	up := &upload{
		handle: "unvalidated_" + uuid.NewString(),
		size:   input.Size,

		fields: map[string]string{
			"key":             "uploads/" + id,
			"policy":          base64.StdEncoding.EncodeToString(policy),
			"x-amz-signature": uuid.NewString(),
		},
	}

	h.mu.Lock()
	h.uploads[id] = up
	h.mu.Unlock()

	writeJson(w, http.StatusOK, map[string]any{
		"post_url":    baseURL(r) + "/storage/" + id,
		"post_header": up.fields,

		"unvalidated_file_handle": up.handle,
	})
}

func (h *Handler) handleStore(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	up, ok := h.uploads[chi.URLParam(r, "id")]
	h.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "no such upload")
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	for k, v := range up.fields {
		if r.FormValue(k) != v {
			writeError(w, http.StatusForbidden, "invalid policy field "+k)
			return
		}
	}

	f, _, err := r.FormFile("file")

	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file")
		return
	}

	defer f.Close()

	data, err := io.ReadAll(f)

	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if len(data) != up.size {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("expected %d bytes, got %d", up.size, len(data)))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if up.uploaded {
		writeError(w, http.StatusForbidden, "upload target already used")
		return
	}

	up.content = data
	up.uploaded = true

	w.WriteHeader(http.StatusNoContent)
}

// content returns the uploaded bytes behind an unvalidated handle. The
// caller holds h.mu.
func (h *Handler) content(handle string) ([]byte, error) {
	for _, up := range h.uploads {
		if up.handle != handle {
			continue
		}

		if !up.uploaded {
			return nil, fmt.Errorf("upload %s not completed", handle)
		}

		return up.content, nil
	}

	return nil, fmt.Errorf("unknown handle %s", handle)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	kind := Kind(chi.URLParam(r, "kind"))
	h.count("/" + string(kind) + "/download")

	var input map[string]string

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeFailure(w, Failure{StatusCode: http.StatusBadRequest, Code: 400, Name: "bad_request", Message: err.Error()})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	asset, err := h.lookup(input[string(kind)+"_handle"], kind)

	if err != nil {
		writeFailure(w, Failure{StatusCode: http.StatusNotFound, Code: 404, Name: "not_found", Message: err.Error()})
		return
	}

	content, _ := json.Marshal(asset)

	id := uuid.NewString()
	key := base64.StdEncoding.EncodeToString([]byte(uuid.NewString()))

	h.downloads[id] = &download{
		key:     key,
		content: content,
	}

	writeJson(w, http.StatusOK, map[string]any{
		"url": baseURL(r) + "/storage/" + id,

		"headers": map[string]string{
			encryptionKeyHeader: key,

			"x-amz-server-side-encryption-customer-algorithm": "AES256",
		},
	})
}

func (h *Handler) handleFetch(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	d, ok := h.downloads[chi.URLParam(r, "id")]
	h.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "no such object")
		return
	}

	if r.Header.Get(encryptionKeyHeader) != d.key {
		writeError(w, http.StatusForbidden, "invalid encryption key")
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")

	if !h.options.ChunkedDownloads {
		w.Header().Set("Content-Length", strconv.Itoa(len(d.content)))
		w.Write(d.content)

		return
	}

	half := len(d.content) / 2

	w.Write(d.content[:half])

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	w.Write(d.content[half:])
}
