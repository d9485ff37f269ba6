package latex_test

import (
	"slices"
	"strings"
	"testing"

	"github.com/texgallery/renderd/domain/job"
	"github.com/texgallery/renderd/pack/latex"
)

func TestArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts latex.Options
		want []string
	}{
		{
			"pdflatex full build",
			latex.Options{Target: "main.tex", Compiler: job.CompilerPDFLaTeX},
			[]string{"-interaction=nonstopmode", "-halt-on-error", "-pdf", "-cd", "./main.tex"},
		},
		{
			"xelatex",
			latex.Options{Target: "main.tex", Compiler: job.CompilerXeLaTeX},
			[]string{"-interaction=nonstopmode", "-halt-on-error", "-pdfxe", "-cd", "./main.tex"},
		},
		{
			"lualatex recorder",
			latex.Options{Target: "paper/main.tex", Compiler: job.CompilerLuaLaTeX, Recorder: true},
			[]string{"-interaction=nonstopmode", "-halt-on-error", "-pdflua", "-cd", "-recorder", "./paper/main.tex"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := latex.Args(tt.opts)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Args() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestArtifactPaths(t *testing.T) {
	t.Parallel()

	if got := latex.OutputPDF("paper/main.tex"); got != "paper/main.pdf" {
		t.Errorf("OutputPDF = %q", got)
	}
	if got := latex.RecorderFile("main.tex"); got != "main.fls" {
		t.Errorf("RecorderFile = %q", got)
	}
}

func TestParseRecorder(t *testing.T) {
	t.Parallel()

	fls := `PWD /work/ws-1
INPUT /usr/share/texmf/tex/latex/base/article.cls
INPUT main.tex
INPUT ./chapters/intro.tex
OUTPUT main.pdf
INPUT main.tex
INPUT refs.bib
INPUT ../outside/evil.tex
INPUT /etc/passwd
`
	deps, err := latex.ParseRecorder(strings.NewReader(fls))
	if err != nil {
		t.Fatalf("ParseRecorder: %v", err)
	}

	want := []string{"main.tex", "chapters/intro.tex", "refs.bib"}
	if !slices.Equal(deps, want) {
		t.Errorf("deps = %v, want %v", deps, want)
	}
}

func TestParseRecorderEmpty(t *testing.T) {
	t.Parallel()

	deps, err := latex.ParseRecorder(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ParseRecorder: %v", err)
	}
	if len(deps) != 0 {
		t.Errorf("deps = %v, want none", deps)
	}
}
