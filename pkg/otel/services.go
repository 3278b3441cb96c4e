package otel

import (
	"context"

	"github.com/adrianliechti/paperflow/pkg/client"
	"github.com/adrianliechti/paperflow/pkg/pipeline"

	"go.opentelemetry.io/otel/attribute"
)

type Transfers interface {
	Observable
	pipeline.Transfers
}

type observableTransfers struct {
	*instrument
	transfers pipeline.Transfers
}

func NewTransfers(p pipeline.Transfers) Transfers {
	return &observableTransfers{
		instrument: newInstrument("transfers"),
		transfers:  p,
	}
}

func (p *observableTransfers) otelSetup() {
}

func (p *observableTransfers) Upload(ctx context.Context, content []byte, onProgress client.ProgressFunc) (*client.UploadDescriptor, error) {
	var result *client.UploadDescriptor

	err := p.observe(ctx, "upload", func(ctx context.Context) error {
		var err error
		result, err = p.transfers.Upload(ctx, content, onProgress)
		return err
	}, attribute.Int("size", len(content)))

	return result, err
}

type Images interface {
	Observable
	pipeline.Images
}

type observableImages struct {
	*instrument
	images pipeline.Images
}

func NewImages(p pipeline.Images) Images {
	return &observableImages{
		instrument: newInstrument("image"),
		images:     p,
	}
}

func (p *observableImages) otelSetup() {
}

func (p *observableImages) Validate(ctx context.Context, handle client.UnvalidatedHandle) (client.ValidationResult[client.ImageHandle], error) {
	var result client.ValidationResult[client.ImageHandle]

	err := p.observe(ctx, "validate", func(ctx context.Context) error {
		var err error
		result, err = p.images.Validate(ctx, handle)
		return err
	})

	return result, err
}

func (p *observableImages) DetectDocuments(ctx context.Context, handle client.ImageHandle) ([]client.DetectedDocument, error) {
	var result []client.DetectedDocument

	err := p.observe(ctx, "detect_documents", func(ctx context.Context) error {
		var err error
		result, err = p.images.DetectDocuments(ctx, handle)
		return err
	})

	return result, err
}

func (p *observableImages) ExtractDocument(ctx context.Context, handle client.ImageHandle, quad client.Quadrilateral) (client.ImageHandle, error) {
	var result client.ImageHandle

	err := p.observe(ctx, "extract_document", func(ctx context.Context) error {
		var err error
		result, err = p.images.ExtractDocument(ctx, handle, quad)
		return err
	})

	return result, err
}

func (p *observableImages) ConvertToPDF(ctx context.Context, handle client.ImageHandle, options *client.ConvertOptions) (client.PDFHandle, error) {
	var result client.PDFHandle

	err := p.observe(ctx, "convert_to_pdf", func(ctx context.Context) error {
		var err error
		result, err = p.images.ConvertToPDF(ctx, handle, options)
		return err
	})

	return result, err
}

type PDFs interface {
	Observable
	pipeline.PDFs
}

type observablePDFs struct {
	*instrument
	pdfs pipeline.PDFs
}

func NewPDFs(p pipeline.PDFs) PDFs {
	return &observablePDFs{
		instrument: newInstrument("pdf"),
		pdfs:       p,
	}
}

func (p *observablePDFs) otelSetup() {
}

func (p *observablePDFs) Validate(ctx context.Context, handle client.UnvalidatedHandle, password string) (client.ValidationResult[client.PDFHandle], error) {
	var result client.ValidationResult[client.PDFHandle]

	err := p.observe(ctx, "validate", func(ctx context.Context) error {
		var err error
		result, err = p.pdfs.Validate(ctx, handle, password)
		return err
	})

	return result, err
}

func (p *observablePDFs) Compose(ctx context.Context, parts []client.ComposePart) (client.PDFHandle, error) {
	var result client.PDFHandle

	err := p.observe(ctx, "compose", func(ctx context.Context) error {
		var err error
		result, err = p.pdfs.Compose(ctx, parts)
		return err
	}, attribute.Int("parts", len(parts)))

	return result, err
}

func (p *observablePDFs) Orient(ctx context.Context, handle client.PDFHandle) (*client.OrientResult, error) {
	var result *client.OrientResult

	err := p.observe(ctx, "orient", func(ctx context.Context) error {
		var err error
		result, err = p.pdfs.Orient(ctx, handle)
		return err
	})

	return result, err
}

func (p *observablePDFs) OCR(ctx context.Context, handle client.PDFHandle, options *client.OCROptions) (client.PDFHandle, error) {
	var result client.PDFHandle

	var languages []string

	if options != nil {
		languages = options.Languages
	}

	err := p.observe(ctx, "ocr", func(ctx context.Context) error {
		var err error
		result, err = p.pdfs.OCR(ctx, handle, options)
		return err
	}, attribute.StringSlice("languages", languages))

	return result, err
}

func (p *observablePDFs) Optimize(ctx context.Context, handle client.PDFHandle) (client.PDFHandle, error) {
	var result client.PDFHandle

	err := p.observe(ctx, "optimize", func(ctx context.Context) error {
		var err error
		result, err = p.pdfs.Optimize(ctx, handle)
		return err
	})

	return result, err
}
