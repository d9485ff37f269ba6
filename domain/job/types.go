// Package job defines the request and result types for render jobs.
package job

// Compiler identifies a LaTeX compiler backend.
type Compiler string

// Supported compiler backends.
const (
	CompilerPDFLaTeX Compiler = "pdflatex"
	CompilerXeLaTeX  Compiler = "xelatex"
	CompilerLuaLaTeX Compiler = "lualatex"
)

// Encoding identifies how a resource's content is encoded on the wire.
type Encoding string

// Supported resource encodings.
const (
	EncodingBase64 Encoding = "base64"
	EncodingBytes  Encoding = "bytes"
	EncodingText   Encoding = "text"
)

// ImageFormat identifies a thumbnail raster format.
type ImageFormat string

// Supported thumbnail formats.
const (
	FormatPNG  ImageFormat = "png"
	FormatJPEG ImageFormat = "jpeg"
)

// Resource is a single file to be written into the compile workspace.
// Path is interpreted relative to the workspace root and must stay
// inside it.
type Resource struct {
	Path     string   `json:"path"`
	Content  string   `json:"content"`
	Encoding Encoding `json:"encoding"`
}

// CompileRequest asks for a single document to be compiled to PDF.
//
// Recorder enables dependency-recording mode: the compiler emits a
// file-access log instead of running bibliography/index/glossary
// post-processing. The two modes are mutually exclusive.
type CompileRequest struct {
	Target    string     `json:"target"`
	Compiler  Compiler   `json:"compiler"`
	Resources []Resource `json:"resources"`
	Recorder  bool       `json:"recorder,omitempty"`
}

// CompileResult is the outcome of a successful compilation.
type CompileResult struct {
	// PDF is the produced document.
	PDF []byte

	// Log is the captured compiler output, truncated at the output cap.
	Log string

	// Dependencies lists workspace-relative files the compiler read,
	// populated only in recorder mode.
	Dependencies []string
}

// ThumbnailRequest asks for the first page of a PDF rendered to a
// raster image. PDF bytes are base64 in transit (encoding/json).
type ThumbnailRequest struct {
	PDF    []byte      `json:"pdf"`
	Format ImageFormat `json:"format,omitempty"`
	Width  int         `json:"width,omitempty"`
}

// ArchiveRequest asks for a shallow clone of a repository and either a
// listing of its files or the content of one file.
type ArchiveRequest struct {
	GitURL string `json:"gitUrl"`
	Path   string `json:"path,omitempty"`
	Branch string `json:"branch,omitempty"`
}

// ArchiveEntry describes one file in a cloned repository.
type ArchiveEntry struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// ArchiveResult is the outcome of an archive request.
type ArchiveResult struct {
	// Commit is the HEAD commit hash of the shallow clone.
	Commit string `json:"commit"`

	// Entries lists the repository files. Empty when Path was given.
	Entries []ArchiveEntry `json:"entries,omitempty"`

	// Content holds the requested file's bytes when Path was given.
	Content []byte `json:"content,omitempty"`
}
