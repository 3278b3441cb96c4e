package client

import (
	"context"
)

// FileService downloads converted outputs that have no service of their own.
type FileService struct {
	jobs      *JobService
	transfers *TransferService
}

func NewFileService(jobs *JobService, transfers *TransferService) *FileService {
	return &FileService{
		jobs:      jobs,
		transfers: transfers,
	}
}

func (r *FileService) DownloadJPEG(ctx context.Context, handle JPEGHandle, onProgress ProgressFunc) ([]byte, error) {
	input := struct {
		Handle JPEGHandle `json:"jpeg_handle"`
	}{handle}

	return download(ctx, r.jobs, r.transfers, "/jpeg/download", input, onProgress)
}

func (r *FileService) DownloadPNG(ctx context.Context, handle PNGHandle, onProgress ProgressFunc) ([]byte, error) {
	input := struct {
		Handle PNGHandle `json:"png_handle"`
	}{handle}

	return download(ctx, r.jobs, r.transfers, "/png/download", input, onProgress)
}

func (r *FileService) DownloadODT(ctx context.Context, handle ODTHandle, onProgress ProgressFunc) ([]byte, error) {
	input := struct {
		Handle ODTHandle `json:"odt_handle"`
	}{handle}

	return download(ctx, r.jobs, r.transfers, "/odt/download", input, onProgress)
}
