package pipeline

import (
	"context"
	"log/slog"

	"github.com/adrianliechti/paperflow/pkg/client"

	"golang.org/x/sync/errgroup"
)

type Transfers interface {
	Upload(ctx context.Context, content []byte, onProgress client.ProgressFunc) (*client.UploadDescriptor, error)
}

type Images interface {
	Validate(ctx context.Context, handle client.UnvalidatedHandle) (client.ValidationResult[client.ImageHandle], error)

	DetectDocuments(ctx context.Context, handle client.ImageHandle) ([]client.DetectedDocument, error)
	ExtractDocument(ctx context.Context, handle client.ImageHandle, quad client.Quadrilateral) (client.ImageHandle, error)

	ConvertToPDF(ctx context.Context, handle client.ImageHandle, options *client.ConvertOptions) (client.PDFHandle, error)
}

type PDFs interface {
	Validate(ctx context.Context, handle client.UnvalidatedHandle, password string) (client.ValidationResult[client.PDFHandle], error)

	Compose(ctx context.Context, parts []client.ComposePart) (client.PDFHandle, error)
	Orient(ctx context.Context, handle client.PDFHandle) (*client.OrientResult, error)
	OCR(ctx context.Context, handle client.PDFHandle, options *client.OCROptions) (client.PDFHandle, error)
	Optimize(ctx context.Context, handle client.PDFHandle) (client.PDFHandle, error)
}

type Stage string

const (
	StageUploaded  Stage = "uploaded"
	StageValidated Stage = "validated"

	StageDocumentsDetected Stage = "documents_detected"
	StageNoDetection       Stage = "no_detection"
	StageExtracted         Stage = "extracted"
	StageConvertedToPDF    Stage = "converted_to_pdf"
	StageComposed          Stage = "composed"

	StageOriented   Stage = "oriented"
	StageOCRApplied Stage = "ocr_applied"
	StageOptimized  Stage = "optimized"
)

type Pipeline struct {
	transfers Transfers

	images Images
	pdfs   PDFs

	logger   *slog.Logger
	observer func(Stage)

	concurrency int
}

type Option func(*Pipeline)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithObserver registers fn to be called on every stage transition.
func WithObserver(fn func(Stage)) Option {
	return func(p *Pipeline) {
		p.observer = fn
	}
}

// WithConcurrency allows up to n documents to be extracted and converted at
// the same time. The default processes one document after the other.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		p.concurrency = n
	}
}

func New(transfers Transfers, images Images, pdfs PDFs, options ...Option) *Pipeline {
	p := &Pipeline{
		transfers: transfers,

		images: images,
		pdfs:   pdfs,

		logger: slog.Default(),

		concurrency: 1,
	}

	for _, option := range options {
		option(p)
	}

	return p
}

func FromClient(c *client.Client, options ...Option) *Pipeline {
	return New(c.Transfers, c.Images, c.PDFs, options...)
}

// Result is the outcome of a pipeline run.
type Result struct {
	Handle client.PDFHandle

	// Documents found by detection, empty when detection was skipped or
	// found nothing
	Documents []client.DetectedDocument

	// Pages as reported by orientation correction
	Pages []client.PageRotation
}

func (p *Pipeline) enter(ctx context.Context, stage Stage, args ...any) {
	p.logger.DebugContext(ctx, "pipeline stage", append([]any{"stage", stage}, args...)...)

	if p.observer != nil {
		p.observer(stage)
	}
}

// each runs fn for every index in [0,n), stopping at the first error.
func (p *Pipeline) each(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	if p.concurrency <= 1 {
		for i := range n {
			if err := fn(ctx, i); err != nil {
				return err
			}
		}

		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i := range n {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			return fn(ctx, i)
		})
	}

	return g.Wait()
}
