package mock

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/adrianliechti/paperflow/pkg/client"
)

// EICAR is the standard anti-virus test signature. Uploads containing it are
// reported as infected.
const EICAR = `X5O!P%@AP[4\PZX54(P^)7CC)7}$EICAR-STANDARD-ANTIVIRUS-TEST-FILE!$H+H*`

var (
	pdfMagic   = []byte("%PDF-1.7\n")
	imageMagic = []byte("\x89IMG\r\n")
	emailMagic = []byte("MIME-Version: 1.0\n\n")
)

type Kind string

const (
	KindImage Kind = "image"
	KindPDF   Kind = "pdf"
	KindJPEG  Kind = "jpeg"
	KindPNG   Kind = "png"
	KindODT   Kind = "odt"
	KindHTML  Kind = "html"
	KindEmail Kind = "email"
)

// Asset is the server side state behind a handle. Downloads return it as
// JSON so tests can inspect what the pipeline produced.
type Asset struct {
	Kind Kind   `json:"kind"`
	Name string `json:"name,omitempty"`

	// image
	Rotation  int        `json:"rotation,omitempty"`
	Documents []Document `json:"documents,omitempty"`

	// pdf
	Pages     []Page `json:"pages,omitempty"`
	Optimized bool   `json:"optimized,omitempty"`
}

type Page struct {
	Source string `json:"source,omitempty"`

	// Rotation is the skew of the page content in degrees
	Rotation int  `json:"rotation,omitempty"`
	Text     bool `json:"text,omitempty"`
}

type Document struct {
	Name string `json:"name"`

	Quadrilateral client.Quadrilateral `json:"quadrilateral"`
	Confidence    float64              `json:"confidence"`

	Rotation int `json:"rotation,omitempty"`
}

// Message is a fake email. Attachment contents are encoded with the helpers
// of this package.
type Message struct {
	Subject     string       `json:"subject"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

type Attachment struct {
	Name    string `json:"name"`
	Content []byte `json:"content"`
}

type pdfContent struct {
	Password string `json:"password,omitempty"`
	Pages    []Page `json:"pages"`
}

type imageContent struct {
	Name      string     `json:"name"`
	Rotation  int        `json:"rotation,omitempty"`
	Documents []Document `json:"documents,omitempty"`
}

func encode(magic []byte, v any) []byte {
	data, _ := json.Marshal(v)
	return append(bytes.Clone(magic), data...)
}

// PDF encodes a fake PDF with the given pages.
func PDF(pages ...Page) []byte {
	return encode(pdfMagic, pdfContent{Pages: pages})
}

// ProtectedPDF encodes a fake PDF that only validates with password.
func ProtectedPDF(password string, pages ...Page) []byte {
	return encode(pdfMagic, pdfContent{Password: password, Pages: pages})
}

// Image encodes a fake photo containing the given documents.
func Image(name string, rotation int, documents ...Document) []byte {
	return encode(imageMagic, imageContent{Name: name, Rotation: rotation, Documents: documents})
}

func HTML(title string) []byte {
	return []byte("<html><head><title>" + title + "</title></head><body></body></html>")
}

func Email(m Message) []byte {
	return encode(emailMagic, m)
}

// Decode parses downloaded content.
func Decode(data []byte) (*Asset, error) {
	var asset Asset

	if err := json.Unmarshal(data, &asset); err != nil {
		return nil, err
	}

	return &asset, nil
}

var (
	errInfected    = errors.New("infected")
	errUnsupported = errors.New("unsupported content")
)

func checkContent(data []byte) error {
	if bytes.Contains(data, []byte(EICAR)) {
		return errInfected
	}

	if len(data) == 0 {
		return errors.New("empty file")
	}

	return nil
}

func parseImage(data []byte) (*Asset, error) {
	if err := checkContent(data); err != nil {
		return nil, err
	}

	body, ok := bytes.CutPrefix(data, imageMagic)

	if !ok {
		return nil, errUnsupported
	}

	var content imageContent

	if err := json.Unmarshal(body, &content); err != nil {
		return nil, errors.New("corrupt image")
	}

	return &Asset{
		Kind: KindImage,
		Name: content.Name,

		Rotation:  content.Rotation,
		Documents: content.Documents,
	}, nil
}

func parsePDF(data []byte, password string) (*Asset, error) {
	if err := checkContent(data); err != nil {
		return nil, err
	}

	body, ok := bytes.CutPrefix(data, pdfMagic)

	if !ok {
		return nil, errUnsupported
	}

	var content pdfContent

	if err := json.Unmarshal(body, &content); err != nil {
		return nil, errors.New("corrupt pdf")
	}

	if content.Password != "" && content.Password != password {
		return nil, errors.New("invalid password")
	}

	if len(content.Pages) == 0 {
		return nil, errors.New("pdf has no pages")
	}

	return &Asset{
		Kind:  KindPDF,
		Pages: content.Pages,
	}, nil
}

func parseHTML(data []byte) (*Asset, error) {
	if err := checkContent(data); err != nil {
		return nil, err
	}

	text := string(data)

	if !strings.Contains(strings.ToLower(text), "<html") {
		return nil, errUnsupported
	}

	title := ""

	if _, after, ok := strings.Cut(text, "<title>"); ok {
		title, _, _ = strings.Cut(after, "</title>")
	}

	return &Asset{
		Kind: KindHTML,
		Name: title,
	}, nil
}

func parseEmail(data []byte) (*Message, error) {
	if err := checkContent(data); err != nil {
		return nil, err
	}

	body, ok := bytes.CutPrefix(data, emailMagic)

	if !ok {
		return nil, errUnsupported
	}

	var m Message

	if err := json.Unmarshal(body, &m); err != nil {
		return nil, errors.New("corrupt email")
	}

	return &m, nil
}
