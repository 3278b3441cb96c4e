package client

import (
	"context"
	"encoding/json"
)

type EmailService struct {
	jobs      *JobService
	transfers *TransferService
}

func NewEmailService(jobs *JobService, transfers *TransferService) *EmailService {
	return &EmailService{
		jobs:      jobs,
		transfers: transfers,
	}
}

// ValidatedEmail is a validated message together with its validated
// attachments. Attached messages are validated recursively.
type ValidatedEmail struct {
	Handle  EmailHandle
	Subject string

	Attachments []Attachment
}

// Attachment is one of ImageAttachment, PDFAttachment, HTMLAttachment,
// EmailAttachment or UnsupportedAttachment.
type Attachment interface {
	attachment()
}

type ImageAttachment struct {
	Name   string
	Handle ImageHandle
}

type PDFAttachment struct {
	Name   string
	Handle PDFHandle
}

type HTMLAttachment struct {
	Name   string
	Handle HTMLHandle
}

type EmailAttachment struct {
	Name  string
	Email *ValidatedEmail
}

type UnsupportedAttachment struct {
	Name string
	Type string
}

func (ImageAttachment) attachment()       {}
func (PDFAttachment) attachment()         {}
func (HTMLAttachment) attachment()        {}
func (EmailAttachment) attachment()       {}
func (UnsupportedAttachment) attachment() {}

type emailWire struct {
	Handle  EmailHandle `json:"email_handle"`
	Subject string      `json:"subject,omitempty"`

	Attachments []attachmentWire `json:"attachments"`
}

type attachmentWire struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`

	ImageHandle ImageHandle `json:"image_handle,omitempty"`
	PDFHandle   PDFHandle   `json:"pdf_handle,omitempty"`
	HTMLHandle  HTMLHandle  `json:"html_handle,omitempty"`

	Email *ValidatedEmail `json:"email,omitempty"`
}

func (e *ValidatedEmail) UnmarshalJSON(data []byte) error {
	var wire emailWire

	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	e.Handle = wire.Handle
	e.Subject = wire.Subject
	e.Attachments = nil

	for _, a := range wire.Attachments {
		e.Attachments = append(e.Attachments, a.attachment())
	}

	return nil
}

func (a attachmentWire) attachment() Attachment {
	switch a.Type {
	case "image":
		return ImageAttachment{Name: a.Name, Handle: a.ImageHandle}

	case "pdf":
		return PDFAttachment{Name: a.Name, Handle: a.PDFHandle}

	case "html":
		return HTMLAttachment{Name: a.Name, Handle: a.HTMLHandle}

	case "email":
		if a.Email != nil {
			return EmailAttachment{Name: a.Name, Email: a.Email}
		}
	}

	return UnsupportedAttachment{Name: a.Name, Type: a.Type}
}

type emailValidation struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`

	Email *ValidatedEmail `json:"email,omitempty"`
}

// Validate validates an uploaded message and all of its attachments.
func (r *EmailService) Validate(ctx context.Context, handle UnvalidatedHandle) (ValidationResult[*ValidatedEmail], error) {
	input := struct {
		Handle UnvalidatedHandle `json:"unvalidated_file_handle"`
	}{handle}

	// the recursive result type has no finite schema
	result, err := run[emailValidation](ctx, r.jobs, "/email/validate", input, nil)

	if err != nil {
		return nil, err
	}

	return newValidationResult(result.Type, result.Message, result.Email), nil
}

func (r *EmailService) Upload(ctx context.Context, content []byte, onProgress ProgressFunc) (*ValidatedEmail, error) {
	upload, err := r.transfers.Upload(ctx, content, onProgress)

	if err != nil {
		return nil, err
	}

	result, err := r.Validate(ctx, upload.Handle)

	if err != nil {
		return nil, err
	}

	return Unwrap(result)
}
