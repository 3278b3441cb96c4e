package client

import (
	"context"
)

type ImageService struct {
	jobs      *JobService
	transfers *TransferService
}

func NewImageService(jobs *JobService, transfers *TransferService) *ImageService {
	return &ImageService{
		jobs:      jobs,
		transfers: transfers,
	}
}

type PageSize string

const (
	PageSizeFit    PageSize = "fit"
	PageSizeA4     PageSize = "a4"
	PageSizeLetter PageSize = "letter"
)

type PageOrientation string

const (
	PageOrientationAuto      PageOrientation = "auto"
	PageOrientationPortrait  PageOrientation = "portrait"
	PageOrientationLandscape PageOrientation = "landscape"
)

type ConvertOptions struct {
	PageSize    PageSize        `json:"page_size,omitempty"`
	Orientation PageOrientation `json:"orientation,omitempty"`

	// Margin in millimeters
	Margin *float64 `json:"margin,omitempty"`

	Language string `json:"language,omitempty"`
}

type imageValidation struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`

	Handle ImageHandle `json:"image_handle,omitempty"`
}

func (r *ImageService) Validate(ctx context.Context, handle UnvalidatedHandle) (ValidationResult[ImageHandle], error) {
	input := struct {
		Handle UnvalidatedHandle `json:"unvalidated_file_handle"`
	}{handle}

	result, err := Run[imageValidation](ctx, r.jobs, "/image/validate", input)

	if err != nil {
		return nil, err
	}

	return newValidationResult(result.Type, result.Message, result.Handle), nil
}

// Upload uploads and validates an image.
func (r *ImageService) Upload(ctx context.Context, content []byte, onProgress ProgressFunc) (ImageHandle, error) {
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

type imageRequest struct {
	Handle ImageHandle `json:"image_handle"`
}

type imageResult struct {
	Handle ImageHandle `json:"image_handle"`
}

type pdfResult struct {
	Handle PDFHandle `json:"pdf_handle"`
}

// DetectDocuments returns the document boundaries found in the image, in the
// order reported by the service.
func (r *ImageService) DetectDocuments(ctx context.Context, handle ImageHandle) ([]DetectedDocument, error) {
	type detection struct {
		Documents []DetectedDocument `json:"documents"`
	}

	result, err := Run[detection](ctx, r.jobs, "/image/detect_documents", imageRequest{handle})

	if err != nil {
		return nil, err
	}

	return result.Documents, nil
}

// ExtractDocument crops the quadrilateral out of the image and corrects its
// perspective.
func (r *ImageService) ExtractDocument(ctx context.Context, handle ImageHandle, quad Quadrilateral) (ImageHandle, error) {
	input := struct {
		Handle        ImageHandle   `json:"image_handle"`
		Quadrilateral Quadrilateral `json:"quadrilateral"`
	}{handle, quad}

	result, err := Run[imageResult](ctx, r.jobs, "/image/extract_document", input)

	if err != nil {
		return "", err
	}

	return result.Handle, nil
}

// ConvertToPDF converts the image into a single page PDF with a text layer.
func (r *ImageService) ConvertToPDF(ctx context.Context, handle ImageHandle, options *ConvertOptions) (PDFHandle, error) {
	if options == nil {
		options = new(ConvertOptions)
	}

	input := struct {
		Handle ImageHandle `json:"image_handle"`

		ConvertOptions
	}{handle, *options}

	result, err := Run[pdfResult](ctx, r.jobs, "/image/convert_to_pdf", input)

	if err != nil {
		return "", err
	}

	return result.Handle, nil
}

func (r *ImageService) ConvertToJPEG(ctx context.Context, handle ImageHandle, quality int) (JPEGHandle, error) {
	input := struct {
		Handle  ImageHandle `json:"image_handle"`
		Quality int         `json:"quality,omitempty"`
	}{handle, quality}

	type jpegResult struct {
		Handle JPEGHandle `json:"jpeg_handle"`
	}

	result, err := Run[jpegResult](ctx, r.jobs, "/image/convert_to_jpeg", input)

	if err != nil {
		return "", err
	}

	return result.Handle, nil
}

func (r *ImageService) ConvertToPNG(ctx context.Context, handle ImageHandle) (PNGHandle, error) {
	type pngResult struct {
		Handle PNGHandle `json:"png_handle"`
	}

	result, err := Run[pngResult](ctx, r.jobs, "/image/convert_to_png", imageRequest{handle})

	if err != nil {
		return "", err
	}

	return result.Handle, nil
}

func (r *ImageService) Download(ctx context.Context, handle ImageHandle, onProgress ProgressFunc) ([]byte, error) {
	return download(ctx, r.jobs, r.transfers, "/image/download", imageRequest{handle}, onProgress)
}

// download asks the service where a resource can be fetched and fetches it.
func download(ctx context.Context, jobs *JobService, transfers *TransferService, path string, input any, onProgress ProgressFunc) ([]byte, error) {
	c := newRequestConfig(jobs.Options...)

	var target DownloadDescriptor

	if err := call(ctx, c, path, input, &target); err != nil {
		return nil, err
	}

	return transfers.Download(ctx, target.URL, target.Headers, onProgress)
}
