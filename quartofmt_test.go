package quartofmt

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestParseIsLossless(t *testing.T) {
	src := strings.Join([]string{
		"---",
		"title: kitchen sink",
		"---",
		"",
		"# One",
		"",
		"Text with `code`, $x^2$, [links](https://example.com) and @keys.",
		"",
		"> - quoted list",
		">   continuation",
		"",
		"```{r}",
		"plot(1)",
		"```",
		"",
		"::: {.aside}",
		"$$",
		"a = b",
		"$$",
		":::",
		"",
		"| pipe-ish line",
		"trailing junk ][ ** `",
	}, "\n")
	doc, err := Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := doc.Text(); got != src {
		t.Fatalf("lossless property violated\nwant: %q\n got: %q", src, got)
	}
}

func TestFormatAddsFinalNewline(t *testing.T) {
	out, err := Format("word", Config{})
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if out != "word\n" {
		t.Fatalf("got %q", out)
	}
}

func TestFormatEmptyInput(t *testing.T) {
	out, err := Format("", Config{})
	if err != nil || out != "" {
		t.Fatalf("got %q, %v", out, err)
	}
}

func TestFormatRejectsNonText(t *testing.T) {
	if _, err := Format("a\x00b", Config{}); !errors.Is(err, ErrBinaryInput) {
		t.Fatalf("expected ErrBinaryInput, got %v", err)
	}
	if _, err := Format(string([]byte{0xff, 0xfe}), Config{}); !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("expected ErrInvalidUTF8, got %v", err)
	}
}

func TestFormatNeverFailsOnMalformedMarkdown(t *testing.T) {
	inputs := []string{
		"][\n",
		"```\nnever closed\n",
		"::: {.x}\nno close\n",
		"$$\nno close\n",
		"\\begin{x}\nno end\n",
		"<!--\nno close\n",
		strings.Repeat("> ", 200) + "deep\n",
		strings.Repeat("*", 100) + "\n",
	}
	for _, src := range inputs {
		if _, err := Format(src, Config{}); err != nil {
			t.Fatalf("format %q: %v", src, err)
		}
	}
}

func TestFormatDocument(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("#  Title\n\nsome   text\n")
	if err := FormatDocument(in, &out, Config{}); err != nil {
		t.Fatalf("format document: %v", err)
	}
	want := "# Title\n\nsome text\n"
	if out.String() != want {
		t.Fatalf("want %q got %q", want, out.String())
	}
}

func TestDetectLineEnding(t *testing.T) {
	cases := []struct {
		src  string
		cfg  LineEnding
		want string
	}{
		{"a\nb\n", LineEndingAuto, "\n"},
		{"a\r\nb\r\n", LineEndingAuto, "\r\n"},
		{"no breaks", LineEndingAuto, "\n"},
		{"a\r\n", LineEndingLF, "\n"},
		{"a\n", LineEndingCRLF, "\r\n"},
	}
	for _, c := range cases {
		if got := detectLineEnding(c.src, c.cfg); got != c.want {
			t.Fatalf("detect(%q, %v): got %q want %q", c.src, c.cfg, got, c.want)
		}
	}
}
