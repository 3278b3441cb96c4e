package limiter

import (
	"context"

	"github.com/adrianliechti/paperflow/pkg/client"
	"github.com/adrianliechti/paperflow/pkg/pipeline"

	"golang.org/x/time/rate"
)

type Images interface {
	Limiter
	pipeline.Images
}

type limitedImages struct {
	limiter *rate.Limiter
	images  pipeline.Images
}

func NewImages(l *rate.Limiter, p pipeline.Images) Images {
	return &limitedImages{
		limiter: l,
		images:  p,
	}
}

func (p *limitedImages) limiterSetup() {
}

func (p *limitedImages) Validate(ctx context.Context, handle client.UnvalidatedHandle) (client.ValidationResult[client.ImageHandle], error) {
	if err := wait(ctx, p.limiter); err != nil {
		return nil, err
	}

	return p.images.Validate(ctx, handle)
}

func (p *limitedImages) DetectDocuments(ctx context.Context, handle client.ImageHandle) ([]client.DetectedDocument, error) {
	if err := wait(ctx, p.limiter); err != nil {
		return nil, err
	}

	return p.images.DetectDocuments(ctx, handle)
}

func (p *limitedImages) ExtractDocument(ctx context.Context, handle client.ImageHandle, quad client.Quadrilateral) (client.ImageHandle, error) {
	if err := wait(ctx, p.limiter); err != nil {
		return "", err
	}

	return p.images.ExtractDocument(ctx, handle, quad)
}

func (p *limitedImages) ConvertToPDF(ctx context.Context, handle client.ImageHandle, options *client.ConvertOptions) (client.PDFHandle, error) {
	if err := wait(ctx, p.limiter); err != nil {
		return "", err
	}

	return p.images.ConvertToPDF(ctx, handle, options)
}
