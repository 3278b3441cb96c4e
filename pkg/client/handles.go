package client

// Handles are opaque references issued by the service for content at a
// given processing stage. They are passed back verbatim.
type (
	UnvalidatedHandle string

	ImageHandle string
	PDFHandle   string

	JPEGHandle string
	PNGHandle  string
	ODTHandle  string

	HTMLHandle  string
	EmailHandle string
)

type ProgressFunc func(percent int)

type UploadDescriptor struct {
	PostURL    string            `json:"post_url"`
	PostHeader map[string]string `json:"post_header"`

	Handle UnvalidatedHandle `json:"unvalidated_file_handle"`
}

type DownloadDescriptor struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
}
