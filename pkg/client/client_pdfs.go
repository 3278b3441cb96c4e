package client

import (
	"context"
	"errors"
)

type PDFService struct {
	jobs      *JobService
	transfers *TransferService
}

func NewPDFService(jobs *JobService, transfers *TransferService) *PDFService {
	return &PDFService{
		jobs:      jobs,
		transfers: transfers,
	}
}

type OCROptions struct {
	Languages []string `json:"languages,omitempty"`
}

// ComposePart selects pages of a PDF for composition. Nil pages means all
// pages; page numbers are zero based.
type ComposePart struct {
	Handle PDFHandle `json:"pdf_handle"`
	Pages  []int     `json:"pages,omitempty"`
}

type PageRotation struct {
	Page int `json:"page"`

	// Rotation in degrees applied to upright the page
	Rotation int `json:"rotation"`
}

func (p PageRotation) Rotated() bool {
	return p.Rotation%360 != 0
}

type OrientResult struct {
	Handle PDFHandle      `json:"pdf_handle"`
	Pages  []PageRotation `json:"pages"`
}

type pdfValidation struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`

	Handle PDFHandle `json:"pdf_handle,omitempty"`
}

type pdfRequest struct {
	Handle PDFHandle `json:"pdf_handle"`
}

// Validate validates an uploaded PDF. The password is forwarded to decrypt
// protected documents.
func (r *PDFService) Validate(ctx context.Context, handle UnvalidatedHandle, password string) (ValidationResult[PDFHandle], error) {
	input := struct {
		Handle   UnvalidatedHandle `json:"unvalidated_file_handle"`
		Password string            `json:"password,omitempty"`
	}{handle, password}

	result, err := Run[pdfValidation](ctx, r.jobs, "/pdf/validate", input)

	if err != nil {
		return nil, err
	}

	return newValidationResult(result.Type, result.Message, result.Handle), nil
}

func (r *PDFService) Upload(ctx context.Context, content []byte, password string, onProgress ProgressFunc) (PDFHandle, error) {
	upload, err := r.transfers.Upload(ctx, content, onProgress)

	if err != nil {
		return "", err
	}

	result, err := r.Validate(ctx, upload.Handle, password)

	if err != nil {
		return "", err
	}

	return Unwrap(result)
}

// Compose concatenates the selected pages of all parts in order.
func (r *PDFService) Compose(ctx context.Context, parts []ComposePart) (PDFHandle, error) {
	if len(parts) == 0 {
		return "", errors.New("no parts to compose")
	}

	input := struct {
		Parts []ComposePart `json:"parts"`
	}{parts}

	result, err := Run[pdfResult](ctx, r.jobs, "/pdf/compose", input)

	if err != nil {
		return "", err
	}

	return result.Handle, nil
}

// Orient detects the orientation of every page and rotates pages upright.
func (r *PDFService) Orient(ctx context.Context, handle PDFHandle) (*OrientResult, error) {
	return Run[OrientResult](ctx, r.jobs, "/pdf/orient", pdfRequest{handle})
}

// OCR inserts a text layer.
func (r *PDFService) OCR(ctx context.Context, handle PDFHandle, options *OCROptions) (PDFHandle, error) {
	if options == nil {
		options = new(OCROptions)
	}

	input := struct {
		Handle PDFHandle `json:"pdf_handle"`

		OCROptions
	}{handle, *options}

	result, err := Run[pdfResult](ctx, r.jobs, "/pdf/ocr", input)

	if err != nil {
		return "", err
	}

	return result.Handle, nil
}

func (r *PDFService) Optimize(ctx context.Context, handle PDFHandle) (PDFHandle, error) {
	result, err := Run[pdfResult](ctx, r.jobs, "/pdf/optimize", pdfRequest{handle})

	if err != nil {
		return "", err
	}

	return result.Handle, nil
}

func (r *PDFService) ConvertToODT(ctx context.Context, handle PDFHandle) (ODTHandle, error) {
	type odtResult struct {
		Handle ODTHandle `json:"odt_handle"`
	}

	result, err := Run[odtResult](ctx, r.jobs, "/pdf/convert_to_odt", pdfRequest{handle})

	if err != nil {
		return "", err
	}

	return result.Handle, nil
}

func (r *PDFService) Download(ctx context.Context, handle PDFHandle, onProgress ProgressFunc) ([]byte, error) {
	return download(ctx, r.jobs, r.transfers, "/pdf/download", pdfRequest{handle}, onProgress)
}
