package pipeline

import (
	"context"
	"fmt"

	"github.com/adrianliechti/paperflow/pkg/client"
)

type ImageOptions struct {
	// DetectDocuments toggles document detection and extraction, enabled
	// when nil
	DetectDocuments *bool

	Convert client.ConvertOptions
	OCR     client.OCROptions

	OnProgress client.ProgressFunc
}

// ImageToSearchablePDF uploads and validates an image and runs
// ImageHandleToSearchablePDF on it.
func (p *Pipeline) ImageToSearchablePDF(ctx context.Context, content []byte, options ImageOptions) (*Result, error) {
	upload, err := p.transfers.Upload(ctx, content, options.OnProgress)

	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	p.enter(ctx, StageUploaded, "handle", upload.Handle)

	validation, err := p.images.Validate(ctx, upload.Handle)

	if err != nil {
		return nil, fmt.Errorf("validate image: %w", err)
	}

	handle, err := client.Unwrap(validation)

	if err != nil {
		return nil, fmt.Errorf("validate image: %w", err)
	}

	p.enter(ctx, StageValidated, "handle", handle)

	return p.ImageHandleToSearchablePDF(ctx, handle, options)
}

// ImageHandleToSearchablePDF turns a validated image into one optimized,
// searchable PDF. Every detected document becomes its own page range in
// detection order. When detection is disabled, finds nothing or fails, the
// whole image is converted.
func (p *Pipeline) ImageHandleToSearchablePDF(ctx context.Context, handle client.ImageHandle, options ImageOptions) (*Result, error) {
	result := &Result{}

	images := []client.ImageHandle{handle}

	if options.DetectDocuments == nil || *options.DetectDocuments {
		documents, err := p.images.DetectDocuments(ctx, handle)

		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("detect documents: %w", err)
			}

			// the whole image is converted instead
			p.logger.WarnContext(ctx, "document detection failed", "handle", handle, "error", err)
			documents = nil
		}

		result.Documents = documents

		if len(documents) > 0 {
			p.enter(ctx, StageDocumentsDetected, "documents", len(documents))

			extracted := make([]client.ImageHandle, len(documents))

			err := p.each(ctx, len(documents), func(ctx context.Context, i int) error {
				h, err := p.images.ExtractDocument(ctx, handle, documents[i].Quadrilateral)

				if err != nil {
					return fmt.Errorf("extract document %d: %w", i, err)
				}

				extracted[i] = h
				return nil
			})

			if err != nil {
				return nil, err
			}

			images = extracted

			p.enter(ctx, StageExtracted, "images", len(images))
		} else {
			p.enter(ctx, StageNoDetection)
		}
	} else {
		p.enter(ctx, StageNoDetection)
	}

	pdfs := make([]client.PDFHandle, len(images))

	err := p.each(ctx, len(images), func(ctx context.Context, i int) error {
		convert := options.Convert

		h, err := p.images.ConvertToPDF(ctx, images[i], &convert)

		if err != nil {
			return fmt.Errorf("convert image %d: %w", i, err)
		}

		pdfs[i] = h
		return nil
	})

	if err != nil {
		return nil, err
	}

	p.enter(ctx, StageConvertedToPDF, "pdfs", len(pdfs))

	parts := make([]client.ComposePart, 0, len(pdfs))

	for _, h := range pdfs {
		parts = append(parts, client.ComposePart{Handle: h})
	}

	composed, err := p.pdfs.Compose(ctx, parts)

	if err != nil {
		return nil, fmt.Errorf("compose: %w", err)
	}

	p.enter(ctx, StageComposed, "handle", composed)

	return p.finish(ctx, composed, options.OCR, result)
}

// finish orients, OCRs and optimizes a PDF.
func (p *Pipeline) finish(ctx context.Context, handle client.PDFHandle, ocr client.OCROptions, result *Result) (*Result, error) {
	oriented, err := p.pdfs.Orient(ctx, handle)

	if err != nil {
		return nil, fmt.Errorf("orient: %w", err)
	}

	result.Pages = oriented.Pages

	p.enter(ctx, StageOriented, "handle", oriented.Handle, "pages", len(oriented.Pages))

	recognized, err := p.pdfs.OCR(ctx, oriented.Handle, &ocr)

	if err != nil {
		return nil, fmt.Errorf("ocr: %w", err)
	}

	p.enter(ctx, StageOCRApplied, "handle", recognized)

	optimized, err := p.pdfs.Optimize(ctx, recognized)

	if err != nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}

	p.enter(ctx, StageOptimized, "handle", optimized)

	result.Handle = optimized

	p.logger.InfoContext(ctx, "pipeline finished", "handle", optimized, "pages", len(result.Pages))

	return result, nil
}
