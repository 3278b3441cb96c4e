package pipeline

import (
	"context"
	"fmt"

	"github.com/adrianliechti/paperflow/pkg/client"
)

type PDFOptions struct {
	// Password decrypts protected documents during validation
	Password string

	OCR client.OCROptions

	OnProgress client.ProgressFunc
}

// PDFToSearchablePDF uploads and validates a PDF and runs
// PDFHandleToSearchablePDF on it.
func (p *Pipeline) PDFToSearchablePDF(ctx context.Context, content []byte, options PDFOptions) (*Result, error) {
	upload, err := p.transfers.Upload(ctx, content, options.OnProgress)

	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	p.enter(ctx, StageUploaded, "handle", upload.Handle)

	validation, err := p.pdfs.Validate(ctx, upload.Handle, options.Password)

	if err != nil {
		return nil, fmt.Errorf("validate pdf: %w", err)
	}

	handle, err := client.Unwrap(validation)

	if err != nil {
		return nil, fmt.Errorf("validate pdf: %w", err)
	}

	p.enter(ctx, StageValidated, "handle", handle)

	return p.PDFHandleToSearchablePDF(ctx, handle, options)
}

// PDFHandleToSearchablePDF orients, OCRs and optimizes a validated PDF.
func (p *Pipeline) PDFHandleToSearchablePDF(ctx context.Context, handle client.PDFHandle, options PDFOptions) (*Result, error) {
	return p.finish(ctx, handle, options.OCR, &Result{})
}
