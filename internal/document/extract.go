// Package document pulls plain text out of uploaded study material.
package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	// ErrUnsupported is returned for file types with no extractor.
	ErrUnsupported = errors.New("unsupported document type")
	// ErrEmpty is returned when a document holds no readable text.
	ErrEmpty = errors.New("document contains no text")
	// ErrTooLarge is returned when a document expands past MaxDecompressedBytes.
	ErrTooLarge = errors.New("document too large once decompressed")
)

// MaxDecompressedBytes bounds the bytes read out of one document, summed
// over every archive entry it touches.
const MaxDecompressedBytes = 16 << 20

var decompressLimit int64 = MaxDecompressedBytes

// SupportedExtensions lists the accepted upload types.
var SupportedExtensions = []string{".txt", ".md", ".docx", ".pptx"}

var slidePattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// Extract returns the text of the named document. The extension decides the format.
func Extract(filename string, data []byte) (string, error) {
	ext := strings.ToLower(path.Ext(filename))

	var (
		text   string
		err    error
		budget = decompressLimit
	)
	switch ext {
	case ".txt", ".md":
		if int64(len(data)) > budget {
			return "", fmt.Errorf("%s: %w", filename, ErrTooLarge)
		}
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%s: file is not valid UTF-8", filename)
		}
		text = string(data)
	case ".docx":
		text, err = extractDocx(data, &budget)
	case ".pptx":
		text, err = extractPptx(data, &budget)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", filename, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%s: %w", filename, ErrEmpty)
	}
	return text, nil
}

func extractDocx(data []byte, budget *int64) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx archive: %w", err)
	}
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			return readRuns(f, budget, "t", "p")
		}
	}
	return "", errors.New("docx archive has no word/document.xml")
}

func extractPptx(data []byte, budget *int64) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pptx archive: %w", err)
	}

	type slide struct {
		n int
		f *zip.File
	}
	var slides []slide
	for _, f := range zr.File {
		m := slidePattern.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		slides = append(slides, slide{n, f})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].n < slides[j].n })

	var parts []string
	for _, s := range slides {
		text, err := readRuns(s.f, budget, "t", "p")
		if err != nil {
			return "", fmt.Errorf("slide %d: %w", s.n, err)
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

// readRuns collects character data of every <textTag> element and breaks
// lines at the end of each <paraTag>. Namespaces are ignored. Decompressed
// bytes are charged against budget.
func readRuns(f *zip.File, budget *int64, textTag, paraTag string) (string, error) {
	if f.UncompressedSize64 > uint64(*budget) {
		return "", ErrTooLarge
	}
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	dec := xml.NewDecoder(&budgetReader{r: rc, left: budget})
	var (
		b      strings.Builder
		line   strings.Builder
		inText int
	)
	flush := func() {
		if s := strings.TrimSpace(line.String()); s != "" {
			b.WriteString(s)
			b.WriteByte('\n')
		}
		line.Reset()
	}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == textTag {
				inText++
			}
		case xml.EndElement:
			switch t.Name.Local {
			case textTag:
				inText--
			case paraTag:
				flush()
			}
		case xml.CharData:
			if inText > 0 {
				line.Write(t)
			}
		}
	}
	flush()
	return strings.TrimSpace(b.String()), nil
}

// budgetReader fails with ErrTooLarge once more than *left bytes have been
// read. The budget is shared by every entry of one document.
type budgetReader struct {
	r    io.Reader
	left *int64
}

func (b *budgetReader) Read(p []byte) (int, error) {
	if *b.left <= 0 {
		var probe [1]byte
		n, err := b.r.Read(probe[:])
		if n > 0 {
			return 0, ErrTooLarge
		}
		return 0, err
	}
	if int64(len(p)) > *b.left {
		p = p[:*b.left]
	}
	n, err := b.r.Read(p)
	*b.left -= int64(n)
	return n, err
}
