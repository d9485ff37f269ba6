package sandbox

import (
	"strings"

	"github.com/texgallery/renderd/domain/job"
)

// TargetExtension is the only accepted source extension for compile
// targets.
const TargetExtension = ".tex"

// Thumbnail width bounds.
const (
	MinThumbnailWidth     = 16
	MaxThumbnailWidth     = 2048
	DefaultThumbnailWidth = 256
)

// ValidateTarget checks that target is a sandboxed relative path with
// the expected source extension and returns the cleaned path.
func ValidateTarget(target string) (string, error) {
	cleaned, err := CleanRelPath(target)
	if err != nil {
		return "", err
	}
	if !strings.HasSuffix(cleaned, TargetExtension) {
		return "", job.Invalid("target %q must end in %s", target, TargetExtension)
	}
	return cleaned, nil
}

// ValidateCompiler checks c against the fixed compiler allow-list.
func ValidateCompiler(c job.Compiler) error {
	switch c {
	case job.CompilerPDFLaTeX, job.CompilerXeLaTeX, job.CompilerLuaLaTeX:
		return nil
	}
	return job.Invalid("compiler %q is not allowed", c)
}

// ValidateThumbnail checks format and width against their allow-list
// and bounds, applying defaults for zero values.
func ValidateThumbnail(format job.ImageFormat, width int) (job.ImageFormat, int, error) {
	if format == "" {
		format = job.FormatPNG
	}
	switch format {
	case job.FormatPNG, job.FormatJPEG:
	default:
		return "", 0, job.Invalid("format %q is not allowed", format)
	}
	if width == 0 {
		width = DefaultThumbnailWidth
	}
	if width < MinThumbnailWidth || width > MaxThumbnailWidth {
		return "", 0, job.Invalid("width %d outside [%d, %d]", width, MinThumbnailWidth, MaxThumbnailWidth)
	}
	return format, width, nil
}
