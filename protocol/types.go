package protocol

// Status is the outcome reported in a reply.
type Status string

const (
	// StatusOK reports a request that completed normally.
	StatusOK Status = "ok"

	// StatusError reports a request that failed.
	StatusError Status = "error"
)

// MIMEBundle maps a MIME type to its representation of one value.
type MIMEBundle map[string]any

// Common MIME types.
const (
	MIMEPlain = "text/plain"
	MIMEHTML  = "text/html"
)

// Reply is the answer to an execute request. It is constructed fresh for
// every submission and never reused.
type Reply struct {
	// Status is ok or error.
	Status Status `json:"status"`

	// ExecutionCount echoes the counter of the submission, when known.
	ExecutionCount int `json:"execution_count,omitempty"`

	// EName is the error name. Set only when Status is error.
	EName string `json:"ename,omitempty"`

	// EValue is the error message. Set only when Status is error.
	EValue string `json:"evalue,omitempty"`

	// Traceback holds the error trace lines. Set only when Status is error.
	Traceback []string `json:"traceback,omitempty"`

	// Payload carries page/help payloads produced by preambles.
	Payload []map[string]any `json:"payload,omitempty"`
}

// OK returns a successful reply.
func OK() Reply {
	return Reply{Status: StatusOK}
}

// Error returns an error reply. A nil traceback is normalized to an empty one
// so that serialized replies always carry the field shape callers expect.
func Error(ename, evalue string, traceback []string) Reply {
	if traceback == nil {
		traceback = []string{}
	}
	return Reply{
		Status:    StatusError,
		EName:     ename,
		EValue:    evalue,
		Traceback: traceback,
	}
}

// OK reports whether the reply carries status ok.
func (r Reply) OK() bool {
	return r.Status == StatusOK
}

// CompleteReply answers a completion request.
type CompleteReply struct {
	Status      Status         `json:"status"`
	Matches     []string       `json:"matches"`
	CursorStart int            `json:"cursor_start"`
	CursorEnd   int            `json:"cursor_end"`
	Metadata    map[string]any `json:"metadata"`
}

// InspectReply answers an inspection request.
type InspectReply struct {
	Status   Status         `json:"status"`
	Found    bool           `json:"found"`
	Data     MIMEBundle     `json:"data"`
	Metadata map[string]any `json:"metadata"`
}

// Completeness values reported by IsCompleteReply.
const (
	Complete   = "complete"
	Incomplete = "incomplete"
	Invalid    = "invalid"
)

// IsCompleteReply answers an input completeness check.
type IsCompleteReply struct {
	// Status is one of Complete, Incomplete or Invalid.
	Status string `json:"status"`

	// Indent is the suggested indentation for the next line of incomplete input.
	Indent string `json:"indent,omitempty"`
}

// LanguageInfo describes the language served by the kernel.
type LanguageInfo struct {
	Name           string `json:"name"`
	Version        string `json:"version"`
	MIMEType       string `json:"mimetype"`
	CodeMirrorMode string `json:"codemirror_mode"`
	FileExtension  string `json:"file_extension"`
}

// KernelInfo answers a kernel_info request.
type KernelInfo struct {
	ProtocolVersion       string       `json:"protocol_version"`
	Implementation        string       `json:"implementation"`
	ImplementationVersion string       `json:"implementation_version"`
	LanguageInfo          LanguageInfo `json:"language_info"`
	Banner                string       `json:"banner,omitempty"`
}
