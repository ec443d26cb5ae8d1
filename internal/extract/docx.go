package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf16"
)

const docXMLMax = 64 << 20

func extractDOCX(data []byte) (Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, failed("docx", fmt.Errorf("failed to open docx: %w", err))
	}

	var docFile, coreFile *zip.File
	for _, f := range zr.File {
		switch f.Name {
		case "word/document.xml":
			docFile = f
		case "docProps/core.xml":
			coreFile = f
		}
	}
	if docFile == nil {
		return Result{}, failed("docx", errors.New("word/document.xml not found"))
	}
	if docFile.UncompressedSize64 > docXMLMax {
		return Result{}, failed("docx", fmt.Errorf("document.xml too large: %d bytes", docFile.UncompressedSize64))
	}

	text, err := readDocumentXML(docFile)
	if err != nil {
		return Result{}, failed("docx", err)
	}

	res := Result{Text: text}
	if coreFile != nil {
		// Core properties are optional; a broken core.xml does not fail the document.
		if props, err := readCoreProps(coreFile); err == nil {
			res.Metadata.Title = props.Title
			res.Metadata.Author = props.Creator
			res.Metadata.Subject = props.Subject
		}
	}
	return res, nil
}

func readDocumentXML(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open document.xml: %w", err)
	}
	defer rc.Close()

	dec := xml.NewDecoder(io.LimitReader(rc, docXMLMax))
	var sb strings.Builder
	inText := false
	delDepth := 0

	newline := func() {
		if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
			sb.WriteByte('\n')
		}
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "del":
				delDepth++
			case "t":
				inText = true
			case "tab":
				if delDepth == 0 {
					sb.WriteByte('\t')
				}
			case "br", "cr":
				if delDepth == 0 {
					newline()
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "del":
				if delDepth > 0 {
					delDepth--
				}
			case "t":
				inText = false
			case "p", "tr":
				newline()
			case "tc":
				sb.WriteByte(' ')
			}
		case xml.CharData:
			if inText && delDepth == 0 {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}

type coreProps struct {
	Title   string `xml:"title"`
	Subject string `xml:"subject"`
	Creator string `xml:"creator"`
}

func readCoreProps(f *zip.File) (coreProps, error) {
	var props coreProps
	rc, err := f.Open()
	if err != nil {
		return props, err
	}
	defer rc.Close()
	err = xml.NewDecoder(io.LimitReader(rc, 1<<20)).Decode(&props)
	props.Title = strings.TrimSpace(props.Title)
	props.Subject = strings.TrimSpace(props.Subject)
	props.Creator = strings.TrimSpace(props.Creator)
	return props, err
}

// extractDOC handles legacy Word files. Files that are really OOXML archives
// are parsed as DOCX; binary Word 97 files fall back to recovering UTF-16LE
// text runs from the WordDocument stream.
func extractDOC(data []byte) (Result, error) {
	if bytes.HasPrefix(data, []byte("PK\x03\x04")) {
		return extractDOCX(data)
	}
	if !bytes.HasPrefix(data, []byte{0xD0, 0xCF, 0x11, 0xE0}) {
		return Result{}, failed("doc", errors.New("not an OLE compound document"))
	}

	text := recoverUTF16Runs(data, 8)
	if strings.TrimSpace(text) == "" {
		return Result{}, failed("doc", errors.New("no recoverable text"))
	}
	return Result{Text: text}, nil
}

// recoverUTF16Runs scans data as UTF-16LE and keeps runs of at least minRun
// printable characters.
func recoverUTF16Runs(data []byte, minRun int) string {
	var sb strings.Builder
	run := make([]uint16, 0, 256)

	flush := func() {
		if len(run) >= minRun {
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(string(utf16.Decode(run)))
		}
		run = run[:0]
	}

	for i := 0; i+1 < len(data); i += 2 {
		u := uint16(data[i]) | uint16(data[i+1])<<8
		r := rune(u)
		if r == '\r' || r == '\t' || (u < 0xD800 && unicode.IsPrint(r)) {
			run = append(run, u)
			continue
		}
		flush()
	}
	flush()
	return sb.String()
}
