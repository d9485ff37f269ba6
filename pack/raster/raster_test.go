package raster_test

import (
	"slices"
	"testing"

	"github.com/texgallery/renderd/domain/job"
	"github.com/texgallery/renderd/pack/raster"
)

func TestArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts raster.Options
		want []string
	}{
		{
			"png",
			raster.Options{Format: job.FormatPNG, Width: 256},
			[]string{"-f", "1", "-l", "1", "-singlefile", "-png", "-scale-to-x", "256", "-scale-to-y", "-1", "doc.pdf", "thumbnail"},
		},
		{
			"jpeg",
			raster.Options{Format: job.FormatJPEG, Width: 512},
			[]string{"-f", "1", "-l", "1", "-singlefile", "-jpeg", "-scale-to-x", "512", "-scale-to-y", "-1", "doc.pdf", "thumbnail"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := raster.Args("doc.pdf", tt.opts)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Args() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOutputFile(t *testing.T) {
	t.Parallel()

	if got := raster.OutputFile(raster.Options{Format: job.FormatPNG}); got != "thumbnail.png" {
		t.Errorf("png output = %q", got)
	}
	if got := raster.OutputFile(raster.Options{Format: job.FormatJPEG}); got != "thumbnail.jpg" {
		t.Errorf("jpeg output = %q", got)
	}
}
