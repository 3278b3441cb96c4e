package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/adrianliechti/paperflow/pkg/client"
	"github.com/adrianliechti/paperflow/pkg/pipeline"

	"github.com/stretchr/testify/require"
)

// fakeService implements the pipeline contracts in memory. Handles encode
// the operations applied to them so tests can check the data flow.
type fakeService struct {
	mu    sync.Mutex
	calls []string

	documents []client.DetectedDocument
	failures  map[string]error

	validation string
	delay      func(handle string) time.Duration
}

func (f *fakeService) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, call)

	name, _, _ := strings.Cut(call, " ")
	return f.failures[name]
}

func (f *fakeService) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0

	for _, c := range f.calls {
		if strings.HasPrefix(c, name+" ") || c == name {
			n++
		}
	}

	return n
}

func (f *fakeService) Upload(ctx context.Context, content []byte, onProgress client.ProgressFunc) (*client.UploadDescriptor, error) {
	if err := f.record("upload"); err != nil {
		return nil, err
	}

	if onProgress != nil {
		onProgress(0)
		onProgress(100)
	}

	return &client.UploadDescriptor{Handle: "unvalidated"}, nil
}

func (f *fakeService) validate() string {
	if f.validation == "" {
		return "ok"
	}

	return f.validation
}

type fakeImages struct {
	*fakeService
}

func (f fakeImages) Validate(ctx context.Context, handle client.UnvalidatedHandle) (client.ValidationResult[client.ImageHandle], error) {
	if err := f.record("validate_image"); err != nil {
		return nil, err
	}

	switch f.validate() {
	case "error":
		return client.Invalid[client.ImageHandle]{Message: "corrupt"}, nil

	case "virus_detected":
		return client.VirusDetected[client.ImageHandle]{Message: "eicar"}, nil
	}

	return client.Valid[client.ImageHandle]{Value: "img"}, nil
}

func (f fakeImages) DetectDocuments(ctx context.Context, handle client.ImageHandle) ([]client.DetectedDocument, error) {
	if err := f.record("detect " + string(handle)); err != nil {
		return nil, err
	}

	return f.documents, nil
}

func (f fakeImages) ExtractDocument(ctx context.Context, handle client.ImageHandle, quad client.Quadrilateral) (client.ImageHandle, error) {
	for i, d := range f.documents {
		if d.Quadrilateral != quad {
			continue
		}

		result := client.ImageHandle(fmt.Sprintf("%s/doc%d", handle, i))

		if f.delay != nil {
			time.Sleep(f.delay(string(result)))
		}

		if err := f.record("extract " + string(result)); err != nil {
			return "", err
		}

		return result, nil
	}

	return "", errors.New("unknown quadrilateral")
}

func (f fakeImages) ConvertToPDF(ctx context.Context, handle client.ImageHandle, options *client.ConvertOptions) (client.PDFHandle, error) {
	if f.delay != nil {
		time.Sleep(f.delay(string(handle)))
	}

	if err := f.record("convert " + string(handle)); err != nil {
		return "", err
	}

	return client.PDFHandle("pdf(" + string(handle) + ")"), nil
}

type fakePDFs struct {
	*fakeService
}

func (f fakePDFs) Validate(ctx context.Context, handle client.UnvalidatedHandle, password string) (client.ValidationResult[client.PDFHandle], error) {
	if err := f.record("validate_pdf " + password); err != nil {
		return nil, err
	}

	if f.validate() == "error" {
		return client.Invalid[client.PDFHandle]{Message: "encrypted"}, nil
	}

	return client.Valid[client.PDFHandle]{Value: "pdf"}, nil
}

func (f fakePDFs) Compose(ctx context.Context, parts []client.ComposePart) (client.PDFHandle, error) {
	var handles []string

	for _, p := range parts {
		handles = append(handles, string(p.Handle))
	}

	joined := strings.Join(handles, "+")

	if err := f.record("compose " + joined); err != nil {
		return "", err
	}

	return client.PDFHandle("compose(" + joined + ")"), nil
}

func (f fakePDFs) Orient(ctx context.Context, handle client.PDFHandle) (*client.OrientResult, error) {
	if err := f.record("orient " + string(handle)); err != nil {
		return nil, err
	}

	return &client.OrientResult{
		Handle: "orient(" + handle + ")",
		Pages:  []client.PageRotation{{Page: 0, Rotation: 90}},
	}, nil
}

func (f fakePDFs) OCR(ctx context.Context, handle client.PDFHandle, options *client.OCROptions) (client.PDFHandle, error) {
	if err := f.record("ocr " + string(handle)); err != nil {
		return "", err
	}

	return "ocr(" + handle + ")", nil
}

func (f fakePDFs) Optimize(ctx context.Context, handle client.PDFHandle) (client.PDFHandle, error) {
	if err := f.record("optimize " + string(handle)); err != nil {
		return "", err
	}

	return "optimize(" + handle + ")", nil
}

func document(x float64) client.DetectedDocument {
	return client.DetectedDocument{
		Quadrilateral: client.NewQuadrilateral([4]client.Point{
			{X: x, Y: 0.1}, {X: x + 0.1, Y: 0.1}, {X: x + 0.1, Y: 0.9}, {X: x, Y: 0.9},
		}),

		Confidence: 0.9,
	}
}

func newPipeline(f *fakeService, options ...pipeline.Option) (*pipeline.Pipeline, *[]pipeline.Stage) {
	var stages []pipeline.Stage

	options = append(options, pipeline.WithObserver(func(s pipeline.Stage) {
		stages = append(stages, s)
	}))

	return pipeline.New(f, fakeImages{f}, fakePDFs{f}, options...), &stages
}

func TestImageToSearchablePDF(t *testing.T) {
	ctx := context.Background()

	t.Run("no documents detected", func(t *testing.T) {
		f := &fakeService{}
		p, stages := newPipeline(f)

		result, err := p.ImageToSearchablePDF(ctx, []byte("image"), pipeline.ImageOptions{})
		require.NoError(t, err)

		require.Equal(t, client.PDFHandle("optimize(ocr(orient(compose(pdf(img)))))"), result.Handle)
		require.Empty(t, result.Documents)
		require.Len(t, result.Pages, 1)

		require.Equal(t, []pipeline.Stage{
			pipeline.StageUploaded,
			pipeline.StageValidated,
			pipeline.StageNoDetection,
			pipeline.StageConvertedToPDF,
			pipeline.StageComposed,
			pipeline.StageOriented,
			pipeline.StageOCRApplied,
			pipeline.StageOptimized,
		}, *stages)
	})

	t.Run("documents in detection order", func(t *testing.T) {
		f := &fakeService{
			documents: []client.DetectedDocument{document(0.5), document(0.1), document(0.3)},
		}

		p, stages := newPipeline(f)

		result, err := p.ImageToSearchablePDF(ctx, []byte("image"), pipeline.ImageOptions{})
		require.NoError(t, err)

		require.Equal(t, client.PDFHandle("optimize(ocr(orient(compose(pdf(img/doc0)+pdf(img/doc1)+pdf(img/doc2)))))"), result.Handle)
		require.Len(t, result.Documents, 3)

		require.Equal(t, []pipeline.Stage{
			pipeline.StageUploaded,
			pipeline.StageValidated,
			pipeline.StageDocumentsDetected,
			pipeline.StageExtracted,
			pipeline.StageConvertedToPDF,
			pipeline.StageComposed,
			pipeline.StageOriented,
			pipeline.StageOCRApplied,
			pipeline.StageOptimized,
		}, *stages)
	})

	t.Run("detection disabled", func(t *testing.T) {
		f := &fakeService{
			documents: []client.DetectedDocument{document(0.1)},
		}

		p, _ := newPipeline(f)

		result, err := p.ImageToSearchablePDF(ctx, []byte("image"), pipeline.ImageOptions{
			DetectDocuments: client.Ptr(false),
		})

		require.NoError(t, err)

		require.Equal(t, client.PDFHandle("optimize(ocr(orient(compose(pdf(img)))))"), result.Handle)
		require.Zero(t, f.count("detect"))
	})

	t.Run("concurrency keeps order", func(t *testing.T) {
		f := &fakeService{
			documents: []client.DetectedDocument{document(0.1), document(0.3), document(0.5), document(0.7)},

			delay: func(handle string) time.Duration {
				// earlier documents finish later
				switch {
				case strings.HasSuffix(handle, "doc0"):
					return 30 * time.Millisecond
				case strings.HasSuffix(handle, "doc1"):
					return 20 * time.Millisecond
				case strings.HasSuffix(handle, "doc2"):
					return 10 * time.Millisecond
				}

				return 0
			},
		}

		p, _ := newPipeline(f, pipeline.WithConcurrency(4))

		result, err := p.ImageToSearchablePDF(ctx, []byte("image"), pipeline.ImageOptions{})
		require.NoError(t, err)

		require.Equal(t, client.PDFHandle("optimize(ocr(orient(compose(pdf(img/doc0)+pdf(img/doc1)+pdf(img/doc2)+pdf(img/doc3)))))"), result.Handle)
	})

	t.Run("progress is forwarded to the upload", func(t *testing.T) {
		f := &fakeService{}
		p, _ := newPipeline(f)

		var progress []int

		_, err := p.ImageToSearchablePDF(ctx, []byte("image"), pipeline.ImageOptions{
			OnProgress: func(percent int) {
				progress = append(progress, percent)
			},
		})

		require.NoError(t, err)
		require.Equal(t, []int{0, 100}, progress)
	})
}

func TestImageToSearchablePDFErrors(t *testing.T) {
	ctx := context.Background()

	stepErr := errors.New("boom")

	tests := []struct {
		name string
		fail string

		stopsBefore string
	}{
		{name: "upload", fail: "upload", stopsBefore: "validate_image"},
		{name: "extract", fail: "extract", stopsBefore: "convert"},
		{name: "convert", fail: "convert", stopsBefore: "compose"},
		{name: "compose", fail: "compose", stopsBefore: "orient"},
		{name: "orient", fail: "orient", stopsBefore: "ocr"},
		{name: "ocr", fail: "ocr", stopsBefore: "optimize"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeService{
				documents: []client.DetectedDocument{document(0.1), document(0.5)},
				failures:  map[string]error{tt.fail: stepErr},
			}

			p, _ := newPipeline(f)

			result, err := p.ImageToSearchablePDF(ctx, []byte("image"), pipeline.ImageOptions{})

			require.ErrorIs(t, err, stepErr)
			require.Nil(t, result)

			require.Zero(t, f.count(tt.stopsBefore))
		})
	}

	t.Run("detection failure falls back to the image", func(t *testing.T) {
		f := &fakeService{
			documents: []client.DetectedDocument{document(0.1)},
			failures:  map[string]error{"detect": stepErr},
		}

		p, stages := newPipeline(f)

		result, err := p.ImageToSearchablePDF(ctx, []byte("image"), pipeline.ImageOptions{})
		require.NoError(t, err)

		require.Equal(t, client.PDFHandle("optimize(ocr(orient(compose(pdf(img)))))"), result.Handle)
		require.Empty(t, result.Documents)
		require.Zero(t, f.count("extract"))
		require.Contains(t, *stages, pipeline.StageNoDetection)
	})

	t.Run("invalid image", func(t *testing.T) {
		f := &fakeService{validation: "error"}
		p, _ := newPipeline(f)

		_, err := p.ImageToSearchablePDF(ctx, []byte("image"), pipeline.ImageOptions{})

		var invalid *client.ValidationError
		require.ErrorAs(t, err, &invalid)
		require.Zero(t, f.count("detect"))
	})

	t.Run("virus detected", func(t *testing.T) {
		f := &fakeService{validation: "virus_detected"}
		p, _ := newPipeline(f)

		_, err := p.ImageToSearchablePDF(ctx, []byte("image"), pipeline.ImageOptions{})

		var threat *client.ThreatDetectedError
		require.ErrorAs(t, err, &threat)
	})

	t.Run("extraction failure with concurrency", func(t *testing.T) {
		f := &fakeService{
			documents: []client.DetectedDocument{document(0.1), document(0.3), document(0.5)},
			failures:  map[string]error{"extract": stepErr},
		}

		p, _ := newPipeline(f, pipeline.WithConcurrency(2))

		_, err := p.ImageToSearchablePDF(ctx, []byte("image"), pipeline.ImageOptions{})

		require.ErrorIs(t, err, stepErr)
		require.Zero(t, f.count("compose"))
	})
}

func TestPDFToSearchablePDF(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := &fakeService{}
		p, stages := newPipeline(f)

		result, err := p.PDFToSearchablePDF(ctx, []byte("pdf"), pipeline.PDFOptions{Password: "pw"})
		require.NoError(t, err)

		require.Equal(t, client.PDFHandle("optimize(ocr(orient(pdf)))"), result.Handle)
		require.Equal(t, 1, f.count("validate_pdf pw"))

		require.Equal(t, []pipeline.Stage{
			pipeline.StageUploaded,
			pipeline.StageValidated,
			pipeline.StageOriented,
			pipeline.StageOCRApplied,
			pipeline.StageOptimized,
		}, *stages)
	})

	t.Run("invalid pdf", func(t *testing.T) {
		f := &fakeService{validation: "error"}
		p, _ := newPipeline(f)

		_, err := p.PDFToSearchablePDF(ctx, []byte("pdf"), pipeline.PDFOptions{})

		var invalid *client.ValidationError
		require.ErrorAs(t, err, &invalid)
		require.Zero(t, f.count("orient"))
	})

	t.Run("optimize failure", func(t *testing.T) {
		stepErr := errors.New("boom")

		f := &fakeService{failures: map[string]error{"optimize": stepErr}}
		p, _ := newPipeline(f)

		_, err := p.PDFToSearchablePDF(ctx, []byte("pdf"), pipeline.PDFOptions{})
		require.ErrorIs(t, err, stepErr)
	})
}

func TestHandleEntryPoints(t *testing.T) {
	ctx := context.Background()

	t.Run("image handle", func(t *testing.T) {
		f := &fakeService{}
		p, stages := newPipeline(f)

		result, err := p.ImageHandleToSearchablePDF(ctx, "scan", pipeline.ImageOptions{})
		require.NoError(t, err)

		require.Equal(t, client.PDFHandle("optimize(ocr(orient(compose(pdf(scan)))))"), result.Handle)

		require.Zero(t, f.count("upload"))
		require.Zero(t, f.count("validate_image"))

		require.Equal(t, "detect scan", f.calls[0])
		require.NotContains(t, *stages, pipeline.StageUploaded)
		require.NotContains(t, *stages, pipeline.StageValidated)
	})

	t.Run("pdf handle", func(t *testing.T) {
		f := &fakeService{}
		p, stages := newPipeline(f)

		result, err := p.PDFHandleToSearchablePDF(ctx, "doc", pipeline.PDFOptions{Password: "pw"})
		require.NoError(t, err)

		require.Equal(t, client.PDFHandle("optimize(ocr(orient(doc)))"), result.Handle)

		require.Zero(t, f.count("upload"))
		require.Zero(t, f.count("validate_pdf"))

		require.Equal(t, []pipeline.Stage{
			pipeline.StageOriented,
			pipeline.StageOCRApplied,
			pipeline.StageOptimized,
		}, *stages)
	})
}
