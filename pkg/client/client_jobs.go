package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/google/jsonschema-go/jsonschema"
)

type JobService struct {
	Options []RequestOption
}

func NewJobService(opts ...RequestOption) *JobService {
	return &JobService{
		Options: opts,
	}
}

type createdJob struct {
	JobID string `json:"job_id"`
}

// Submit posts input to endpoint and returns the id of the created job.
func (r *JobService) Submit(ctx context.Context, endpoint string, input any) (string, error) {
	c := newRequestConfig(r.Options...)

	var job createdJob

	if err := call(ctx, c, endpoint, input, &job); err != nil {
		return "", err
	}

	if job.JobID == "" {
		return "", errors.New("missing job id")
	}

	c.Logger.DebugContext(ctx, "job submitted", "endpoint", endpoint, "job_id", job.JobID)

	return job.JobID, nil
}

// Poll requests the job status until the job is ready, fails, or stays
// pending for more than the configured number of attempts. The service
// waits before answering a pending poll, so the next request is sent
// right away.
//
// The ready payload is checked against schema (if not nil) and decoded
// into result.
func (r *JobService) Poll(ctx context.Context, endpoint, jobID string, schema *jsonschema.Resolved, result any) error {
	c := newRequestConfig(r.Options...)

	attempts := 0

	for {
		ready, err := r.poll(ctx, c, endpoint, jobID, schema, result)

		if err != nil {
			return err
		}

		if ready {
			return nil
		}

		attempts++

		if attempts > c.MaxAttempts {
			return &PollTimeoutError{
				Endpoint: endpoint,
				JobID:    jobID,

				Attempts: attempts,
			}
		}

		c.Logger.DebugContext(ctx, "job pending", "endpoint", endpoint, "job_id", jobID, "attempt", attempts)
	}
}

func (r *JobService) poll(ctx context.Context, c *RequestConfig, endpoint, jobID string, schema *jsonschema.Resolved, result any) (bool, error) {
	req, err := newRequest(ctx, c, http.MethodGet, endpoint+"/"+url.PathEscape(jobID), nil)

	if err != nil {
		return false, err
	}

	resp, err := c.Client.Do(req)

	if err != nil {
		return false, err
	}

	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		data, err := io.ReadAll(resp.Body)

		if err != nil {
			return false, err
		}

		return true, decodeResult(data, schema, result)

	case http.StatusAccepted:
		io.Copy(io.Discard, resp.Body)
		return false, nil

	default:
		return false, convertError(resp)
	}
}

func decodeResult(data []byte, schema *jsonschema.Resolved, result any) error {
	if schema != nil {
		var instance any

		if err := json.Unmarshal(data, &instance); err != nil {
			return fmt.Errorf("invalid job result: %w", err)
		}

		if err := schema.Validate(instance); err != nil {
			return fmt.Errorf("invalid job result: %w", err)
		}
	}

	if result == nil {
		return nil
	}

	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("invalid job result: %w", err)
	}

	return nil
}

// Run submits input to endpoint and polls the job until its result, checked
// against the schema of T, is available.
func Run[T any](ctx context.Context, jobs *JobService, endpoint string, input any) (*T, error) {
	schema, err := SchemaFor[T]()

	if err != nil {
		return nil, err
	}

	return run[T](ctx, jobs, endpoint, input, schema)
}

func run[T any](ctx context.Context, jobs *JobService, endpoint string, input any, schema *jsonschema.Resolved) (*T, error) {
	id, err := jobs.Submit(ctx, endpoint, input)

	if err != nil {
		return nil, err
	}

	var result T

	if err := jobs.Poll(ctx, endpoint, id, schema, &result); err != nil {
		return nil, err
	}

	return &result, nil
}
