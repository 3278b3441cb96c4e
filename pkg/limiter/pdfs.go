package limiter

import (
	"context"

	"github.com/adrianliechti/paperflow/pkg/client"
	"github.com/adrianliechti/paperflow/pkg/pipeline"

	"golang.org/x/time/rate"
)

type PDFs interface {
	Limiter
	pipeline.PDFs
}

type limitedPDFs struct {
	limiter *rate.Limiter
	pdfs    pipeline.PDFs
}

func NewPDFs(l *rate.Limiter, p pipeline.PDFs) PDFs {
	return &limitedPDFs{
		limiter: l,
		pdfs:    p,
	}
}

func (p *limitedPDFs) limiterSetup() {
}

func (p *limitedPDFs) Validate(ctx context.Context, handle client.UnvalidatedHandle, password string) (client.ValidationResult[client.PDFHandle], error) {
	if err := wait(ctx, p.limiter); err != nil {
		return nil, err
	}

	return p.pdfs.Validate(ctx, handle, password)
}

func (p *limitedPDFs) Compose(ctx context.Context, parts []client.ComposePart) (client.PDFHandle, error) {
	if err := wait(ctx, p.limiter); err != nil {
		return "", err
	}

	return p.pdfs.Compose(ctx, parts)
}

func (p *limitedPDFs) Orient(ctx context.Context, handle client.PDFHandle) (*client.OrientResult, error) {
	if err := wait(ctx, p.limiter); err != nil {
		return nil, err
	}

	return p.pdfs.Orient(ctx, handle)
}

func (p *limitedPDFs) OCR(ctx context.Context, handle client.PDFHandle, options *client.OCROptions) (client.PDFHandle, error) {
	if err := wait(ctx, p.limiter); err != nil {
		return "", err
	}

	return p.pdfs.OCR(ctx, handle, options)
}

func (p *limitedPDFs) Optimize(ctx context.Context, handle client.PDFHandle) (client.PDFHandle, error) {
	if err := wait(ctx, p.limiter); err != nil {
		return "", err
	}

	return p.pdfs.Optimize(ctx, handle)
}
