package mock

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/adrianliechti/paperflow/pkg/client"
)

// operation computes the result of a job. It runs with h.mu held.
type operation func(h *Handler, input json.RawMessage) (any, error)

var operations = map[string]operation{
	"/image/validate":         validateImage,
	"/image/detect_documents": detectDocuments,
	"/image/extract_document": extractDocument,
	"/image/convert_to_pdf":   convertImageToPDF,
	"/image/convert_to_jpeg":  convertImage(KindJPEG),
	"/image/convert_to_png":   convertImage(KindPNG),

	"/pdf/validate":       validatePDF,
	"/pdf/compose":        composePDF,
	"/pdf/orient":         orientPDF,
	"/pdf/ocr":            ocrPDF,
	"/pdf/optimize":       optimizePDF,
	"/pdf/convert_to_odt": convertPDFToODT,

	"/html/validate":       validateHTML,
	"/html/convert_to_pdf": convertHTMLToPDF,

	"/email/validate": validateEmail,
}

// lookup returns the asset behind handle if it has the expected kind. The
// caller holds h.mu.
func (h *Handler) lookup(handle string, kind Kind) (*Asset, error) {
	a, ok := h.assets[handle]

	if !ok || a.Kind != kind {
		return nil, fmt.Errorf("unknown %s handle %q", kind, handle)
	}

	return a, nil
}

func decode[T any](input json.RawMessage) (T, error) {
	var v T

	if err := json.Unmarshal(input, &v); err != nil {
		return v, fmt.Errorf("invalid input: %w", err)
	}

	return v, nil
}

type validateInput struct {
	Handle   string `json:"unvalidated_file_handle"`
	Password string `json:"password,omitempty"`
}

// validation maps a parse outcome to the validation wire format.
func validation(h *Handler, key string, asset *Asset, err error) map[string]any {
	if errors.Is(err, errInfected) {
		return map[string]any{"type": "virus_detected", "message": "malware signature found"}
	}

	if err != nil {
		return map[string]any{"type": "error", "message": err.Error()}
	}

	return map[string]any{"type": "ok", key: h.store(asset)}
}

func validateImage(h *Handler, input json.RawMessage) (any, error) {
	in, err := decode[validateInput](input)

	if err != nil {
		return nil, err
	}

	data, err := h.content(in.Handle)

	if err != nil {
		return nil, err
	}

	asset, err := parseImage(data)
	return validation(h, "image_handle", asset, err), nil
}

func validatePDF(h *Handler, input json.RawMessage) (any, error) {
	in, err := decode[validateInput](input)

	if err != nil {
		return nil, err
	}

	data, err := h.content(in.Handle)

	if err != nil {
		return nil, err
	}

	asset, err := parsePDF(data, in.Password)
	return validation(h, "pdf_handle", asset, err), nil
}

func validateHTML(h *Handler, input json.RawMessage) (any, error) {
	in, err := decode[validateInput](input)

	if err != nil {
		return nil, err
	}

	data, err := h.content(in.Handle)

	if err != nil {
		return nil, err
	}

	asset, err := parseHTML(data)
	return validation(h, "html_handle", asset, err), nil
}

func validateEmail(h *Handler, input json.RawMessage) (any, error) {
	in, err := decode[validateInput](input)

	if err != nil {
		return nil, err
	}

	data, err := h.content(in.Handle)

	if err != nil {
		return nil, err
	}

	email, err := h.validateMessage(data)

	if errors.Is(err, errInfected) {
		return map[string]any{"type": "virus_detected", "message": "malware signature found"}, nil
	}

	if err != nil {
		return map[string]any{"type": "error", "message": err.Error()}, nil
	}

	return map[string]any{"type": "ok", "email": email}, nil
}

// validateMessage validates a message and its attachments recursively. An
// infected attachment rejects the whole message.
func (h *Handler) validateMessage(data []byte) (map[string]any, error) {
	m, err := parseEmail(data)

	if err != nil {
		return nil, err
	}

	attachments := []map[string]any{}

	for _, a := range m.Attachments {
		if bytes.Contains(a.Content, []byte(EICAR)) {
			return nil, errInfected
		}

		attachment := map[string]any{"name": a.Name}

		switch {
		case bytes.HasPrefix(a.Content, imageMagic):
			attachment["type"] = "image"
			asset, err := parseImage(a.Content)

			if err != nil {
				attachment["type"] = "unsupported"
				break
			}

			attachment["image_handle"] = h.store(asset)

		case bytes.HasPrefix(a.Content, pdfMagic):
			attachment["type"] = "pdf"
			asset, err := parsePDF(a.Content, "")

			if err != nil {
				attachment["type"] = "unsupported"
				break
			}

			attachment["pdf_handle"] = h.store(asset)

		case bytes.HasPrefix(a.Content, emailMagic):
			attachment["type"] = "email"
			nested, err := h.validateMessage(a.Content)

			if errors.Is(err, errInfected) {
				return nil, err
			}

			if err != nil {
				attachment["type"] = "unsupported"
				break
			}

			attachment["email"] = nested

		default:
			asset, err := parseHTML(a.Content)

			if err != nil {
				attachment["type"] = "unsupported"
				break
			}

			attachment["type"] = "html"
			attachment["html_handle"] = h.store(asset)
		}

		attachments = append(attachments, attachment)
	}

	handle := h.store(&Asset{Kind: KindEmail, Name: m.Subject})

	return map[string]any{
		"email_handle": handle,
		"subject":      m.Subject,

		"attachments": attachments,
	}, nil
}

type imageInput struct {
	Handle string `json:"image_handle"`
}

func detectDocuments(h *Handler, input json.RawMessage) (any, error) {
	in, err := decode[imageInput](input)

	if err != nil {
		return nil, err
	}

	image, err := h.lookup(in.Handle, KindImage)

	if err != nil {
		return nil, err
	}

	documents := []client.DetectedDocument{}

	for _, d := range image.Documents {
		documents = append(documents, client.DetectedDocument{
			Quadrilateral: d.Quadrilateral,
			Confidence:    d.Confidence,
		})
	}

	return map[string]any{"documents": documents}, nil
}

func extractDocument(h *Handler, input json.RawMessage) (any, error) {
	in, err := decode[struct {
		Handle        string               `json:"image_handle"`
		Quadrilateral client.Quadrilateral `json:"quadrilateral"`
	}](input)

	if err != nil {
		return nil, err
	}

	image, err := h.lookup(in.Handle, KindImage)

	if err != nil {
		return nil, err
	}

	if !in.Quadrilateral.Valid() {
		return nil, errors.New("invalid quadrilateral")
	}

	extracted := &Asset{
		Kind: KindImage,
		Name: image.Name + " (cropped)",

		Rotation: image.Rotation,
	}

	for _, d := range image.Documents {
		if d.Quadrilateral == in.Quadrilateral {
			extracted.Name = d.Name
			extracted.Rotation = d.Rotation

			break
		}
	}

	return map[string]any{"image_handle": h.store(extracted)}, nil
}

func convertImageToPDF(h *Handler, input json.RawMessage) (any, error) {
	in, err := decode[imageInput](input)

	if err != nil {
		return nil, err
	}

	image, err := h.lookup(in.Handle, KindImage)

	if err != nil {
		return nil, err
	}

	pdf := &Asset{
		Kind: KindPDF,

		Pages: []Page{
			{Source: image.Name, Rotation: image.Rotation},
		},
	}

	return map[string]any{"pdf_handle": h.store(pdf)}, nil
}

func convertImage(kind Kind) operation {
	return func(h *Handler, input json.RawMessage) (any, error) {
		in, err := decode[imageInput](input)

		if err != nil {
			return nil, err
		}

		image, err := h.lookup(in.Handle, KindImage)

		if err != nil {
			return nil, err
		}

		converted := &Asset{
			Kind: kind,
			Name: image.Name,
		}

		return map[string]any{string(kind) + "_handle": h.store(converted)}, nil
	}
}

type pdfInput struct {
	Handle string `json:"pdf_handle"`
}

func composePDF(h *Handler, input json.RawMessage) (any, error) {
	in, err := decode[struct {
		Parts []client.ComposePart `json:"parts"`
	}](input)

	if err != nil {
		return nil, err
	}

	if len(in.Parts) == 0 {
		return nil, errors.New("no parts")
	}

	composed := &Asset{
		Kind: KindPDF,
	}

	for _, part := range in.Parts {
		pdf, err := h.lookup(string(part.Handle), KindPDF)

		if err != nil {
			return nil, err
		}

		if part.Pages == nil {
			composed.Pages = append(composed.Pages, pdf.Pages...)
			continue
		}

		for _, i := range part.Pages {
			if i < 0 || i >= len(pdf.Pages) {
				return nil, fmt.Errorf("page %d out of range", i)
			}

			composed.Pages = append(composed.Pages, pdf.Pages[i])
		}
	}

	return map[string]any{"pdf_handle": h.store(composed)}, nil
}

// transformPDF stores a copy of the PDF behind the input handle after
// applying fn to it.
func transformPDF(h *Handler, input json.RawMessage, fn func(pdf *Asset)) (string, error) {
	in, err := decode[pdfInput](input)

	if err != nil {
		return "", err
	}

	pdf, err := h.lookup(in.Handle, KindPDF)

	if err != nil {
		return "", err
	}

	result := *pdf
	result.Pages = slices.Clone(pdf.Pages)

	fn(&result)

	return h.store(&result), nil
}

func orientPDF(h *Handler, input json.RawMessage) (any, error) {
	pages := []client.PageRotation{}

	handle, err := transformPDF(h, input, func(pdf *Asset) {
		for i := range pdf.Pages {
			skew := ((pdf.Pages[i].Rotation % 360) + 360) % 360

			pages = append(pages, client.PageRotation{
				Page:     i,
				Rotation: (360 - skew) % 360,
			})

			pdf.Pages[i].Rotation = 0
		}
	})

	if err != nil {
		return nil, err
	}

	return map[string]any{"pdf_handle": handle, "pages": pages}, nil
}

func ocrPDF(h *Handler, input json.RawMessage) (any, error) {
	handle, err := transformPDF(h, input, func(pdf *Asset) {
		for i := range pdf.Pages {
			pdf.Pages[i].Text = true
		}
	})

	if err != nil {
		return nil, err
	}

	return map[string]any{"pdf_handle": handle}, nil
}

func optimizePDF(h *Handler, input json.RawMessage) (any, error) {
	handle, err := transformPDF(h, input, func(pdf *Asset) {
		pdf.Optimized = true
	})

	if err != nil {
		return nil, err
	}

	return map[string]any{"pdf_handle": handle}, nil
}

func convertPDFToODT(h *Handler, input json.RawMessage) (any, error) {
	in, err := decode[pdfInput](input)

	if err != nil {
		return nil, err
	}

	pdf, err := h.lookup(in.Handle, KindPDF)

	if err != nil {
		return nil, err
	}

	odt := &Asset{
		Kind:  KindODT,
		Pages: slices.Clone(pdf.Pages),
	}

	return map[string]any{"odt_handle": h.store(odt)}, nil
}

func convertHTMLToPDF(h *Handler, input json.RawMessage) (any, error) {
	in, err := decode[struct {
		Handle string `json:"html_handle"`
	}](input)

	if err != nil {
		return nil, err
	}

	html, err := h.lookup(in.Handle, KindHTML)

	if err != nil {
		return nil, err
	}

	pdf := &Asset{
		Kind: KindPDF,

		Pages: []Page{
			{Source: html.Name, Text: true},
		},
	}

	return map[string]any{"pdf_handle": h.store(pdf)}, nil
}
