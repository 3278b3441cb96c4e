package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// TransportError is returned for a failed status whose body is not the
// service's error envelope.
type TransportError struct {
	StatusCode int
	Status     string

	Body string
}

func (e *TransportError) Error() string {
	if e.Body == "" {
		return "transport error: " + e.Status
	}

	return "transport error: " + e.Status + ": " + e.Body
}

// APIError is a failure reported by the service in its error envelope.
type APIError struct {
	StatusCode int

	Code    int
	Name    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.Code, e.Name, e.Message)
}

type PollTimeoutError struct {
	Endpoint string
	JobID    string

	Attempts int
}

func (e *PollTimeoutError) Error() string {
	return fmt.Sprintf("job %s at %s still pending after %d attempts", e.JobID, e.Endpoint, e.Attempts)
}

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Message
}

type ThreatDetectedError struct {
	Message string
}

func (e *ThreatDetectedError) Error() string {
	return "threat detected: " + e.Message
}

type UploadError struct {
	StatusCode int
	Status     string

	Body string
}

func (e *UploadError) Error() string {
	if e.Body == "" {
		return "upload failed: " + e.Status
	}

	return "upload failed: " + e.Status + ": " + e.Body
}

type DownloadError struct {
	StatusCode int
	Status     string
}

func (e *DownloadError) Error() string {
	return "download failed: " + e.Status
}

type errorEnvelope struct {
	StatusCode int `json:"status_code"`

	APIError *struct {
		Code    int    `json:"code"`
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"api_error"`
}

func convertError(resp *http.Response) error {
	data, _ := io.ReadAll(resp.Body)

	var envelope errorEnvelope

	if err := json.Unmarshal(data, &envelope); err == nil && envelope.APIError != nil {
		return &APIError{
			StatusCode: resp.StatusCode,

			Code:    envelope.APIError.Code,
			Name:    envelope.APIError.Name,
			Message: envelope.APIError.Message,
		}
	}

	return &TransportError{
		StatusCode: resp.StatusCode,
		Status:     statusText(resp),

		Body: strings.TrimSpace(string(data)),
	}
}

func statusText(resp *http.Response) string {
	if resp.Status != "" {
		return resp.Status
	}

	return strconv.Itoa(resp.StatusCode) + " " + http.StatusText(resp.StatusCode)
}
