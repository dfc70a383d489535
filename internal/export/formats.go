/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0
 */

package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"magicscribe/internal/render"
)

// Format names an output format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatEPUB Format = "epub"
	FormatHTML Format = "html"
	FormatJSON Format = "json"
)

// Formats lists every supported format.
func Formats() []Format { return []Format{FormatPDF, FormatEPUB, FormatHTML, FormatJSON} }

// ParseFormat accepts a format name or a file extension, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")))
	for _, k := range Formats() {
		if f == k {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ExportFile writes the chapter to outPath in the format named by its extension.
func ExportFile(ch Chapter, outPath string) error {
	f, err := ParseFormat(filepath.Ext(outPath))
	if err != nil {
		return err
	}
	return export(ch, f, outPath)
}

// ExportAll writes one file per format into outDir, named after the chapter,
// and returns the written paths. Empty formats means PDF and EPUB.
func ExportAll(ch Chapter, outDir string, formats []string) ([]string, error) {
	fs := make([]Format, 0, len(formats))
	for _, s := range formats {
		f, err := ParseFormat(s)
		if err != nil {
			return nil, err
		}
		fs = append(fs, f)
	}
	if len(fs) == 0 {
		fs = []Format{FormatPDF, FormatEPUB}
	}
	stem := FileStem(ch)
	var out []string
	for _, f := range fs {
		p := filepath.Join(outDir, stem+"."+string(f))
		if err := export(ch, f, p); err != nil {
			return out, fmt.Errorf("export %s: %w", f, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// FileStem is a filesystem-safe base name such as "chapter-003-the-gate".
func FileStem(ch Chapter) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(ch.Title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	stem := "chapter"
	if ch.Number > 0 {
		stem = fmt.Sprintf("chapter-%03d", ch.Number)
	}
	if slug != "" {
		stem += "-" + slug
	}
	return stem
}

func export(ch Chapter, f Format, outPath string) error {
	switch f {
	case FormatPDF:
		return ExportPDF(ch, outPath, PDFOptions{})
	case FormatEPUB:
		return ExportEPUB(ch, outPath, EPUBOptions{})
	}
	out, err := createOut(outPath)
	if err != nil {
		return err
	}
	blocks := ch.blocks()
	if f == FormatJSON {
		err = render.JSON(out, blocks)
	} else {
		err = render.HTML(out, blocks)
	}
	if err != nil {
		_ = out.Close()
		_ = os.Remove(outPath)
		return err
	}
	return out.Close()
}
