package sandbox_test

import (
	"testing"

	"github.com/texgallery/renderd/domain/job"
	"github.com/texgallery/renderd/domain/sandbox"
)

func TestValidateTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		target  string
		wantErr bool
	}{
		{"plain target", "main.tex", false},
		{"nested target", "paper/main.tex", false},
		{"wrong extension", "main.pdf", true},
		{"no extension", "main", true},
		{"traversal", "../main.tex", true},
		{"absolute", "/tmp/main.tex", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := sandbox.ValidateTarget(tt.target)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTarget(%q) error = %v, wantErr %v", tt.target, err, tt.wantErr)
			}
		})
	}
}

func TestValidateCompiler(t *testing.T) {
	t.Parallel()

	for _, c := range []job.Compiler{job.CompilerPDFLaTeX, job.CompilerXeLaTeX, job.CompilerLuaLaTeX} {
		if err := sandbox.ValidateCompiler(c); err != nil {
			t.Errorf("ValidateCompiler(%q) = %v", c, err)
		}
	}

	for _, c := range []job.Compiler{"", "latex", "pdflatex; rm -rf /", "tex"} {
		if err := sandbox.ValidateCompiler(c); err == nil {
			t.Errorf("ValidateCompiler(%q) accepted", c)
		}
	}
}

func TestValidateThumbnail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		format     job.ImageFormat
		width      int
		wantFormat job.ImageFormat
		wantWidth  int
		wantErr    bool
	}{
		{"defaults", "", 0, job.FormatPNG, sandbox.DefaultThumbnailWidth, false},
		{"explicit jpeg", job.FormatJPEG, 512, job.FormatJPEG, 512, false},
		{"min width", job.FormatPNG, sandbox.MinThumbnailWidth, job.FormatPNG, sandbox.MinThumbnailWidth, false},
		{"too small", job.FormatPNG, 8, "", 0, true},
		{"too large", job.FormatPNG, 4096, "", 0, true},
		{"negative", job.FormatPNG, -1, "", 0, true},
		{"bad format", "gif", 256, "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			format, width, err := sandbox.ValidateThumbnail(tt.format, tt.width)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if format != tt.wantFormat || width != tt.wantWidth {
				t.Errorf("got (%q, %d), want (%q, %d)", format, width, tt.wantFormat, tt.wantWidth)
			}
		})
	}
}
