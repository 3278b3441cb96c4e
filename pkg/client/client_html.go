package client

import (
	"context"
)

type HTMLService struct {
	jobs      *JobService
	transfers *TransferService
}

func NewHTMLService(jobs *JobService, transfers *TransferService) *HTMLService {
	return &HTMLService{
		jobs:      jobs,
		transfers: transfers,
	}
}

type htmlValidation struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`

	Handle HTMLHandle `json:"html_handle,omitempty"`
}

func (r *HTMLService) Validate(ctx context.Context, handle UnvalidatedHandle) (ValidationResult[HTMLHandle], error) {
	input := struct {
		Handle UnvalidatedHandle `json:"unvalidated_file_handle"`
	}{handle}

	result, err := Run[htmlValidation](ctx, r.jobs, "/html/validate", input)

	if err != nil {
		return nil, err
	}

	return newValidationResult(result.Type, result.Message, result.Handle), nil
}

func (r *HTMLService) Upload(ctx context.Context, content []byte, onProgress ProgressFunc) (HTMLHandle, error) {
	upload, err := r.transfers.Upload(ctx, content, onProgress)

	if err != nil {
		return "", err
	}

	result, err := r.Validate(ctx, upload.Handle)

	if err != nil {
		return "", err
	}

	return Unwrap(result)
}

// ConvertToPDF renders the HTML document into a PDF.
func (r *HTMLService) ConvertToPDF(ctx context.Context, handle HTMLHandle, options *ConvertOptions) (PDFHandle, error) {
	if options == nil {
		options = new(ConvertOptions)
	}

	input := struct {
		Handle HTMLHandle `json:"html_handle"`

		ConvertOptions
	}{handle, *options}

	result, err := Run[pdfResult](ctx, r.jobs, "/html/convert_to_pdf", input)

	if err != nil {
		return "", err
	}

	return result.Handle, nil
}
