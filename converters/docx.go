package converters

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

type blockKind int

const (
	blockParagraph blockKind = iota
	blockTable
)

// docBlock is one body-level element of a Word document.
type docBlock struct {
	Kind    blockKind
	Heading bool
	Text    string
	Rows    [][]string
}

// wordDocument is the reading-order content of a .docx file.
type wordDocument struct {
	Blocks []docBlock
}

func (d *wordDocument) counts() (paragraphs, tables int) {
	for _, b := range d.Blocks {
		if b.Kind == blockTable {
			tables++
		} else {
			paragraphs++
		}
	}
	return paragraphs, tables
}

// readDocx parses the body of a .docx archive in document order.
func readDocx(path string) (*wordDocument, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening docx: %w", err)
	}
	defer zr.Close()

	var body, styles *zip.File
	for _, f := range zr.File {
		switch f.Name {
		case "word/document.xml":
			body = f
		case "word/styles.xml":
			styles = f
		}
	}
	if body == nil {
		return nil, errors.New("opening docx: word/document.xml missing")
	}

	headings := map[string]bool{}
	if styles != nil {
		if headings, err = readHeadingStyles(styles); err != nil {
			return nil, err
		}
	}

	rc, err := body.Open()
	if err != nil {
		return nil, fmt.Errorf("reading document.xml: %w", err)
	}
	defer rc.Close()
	return parseDocumentXML(rc, headings)
}

// readHeadingStyles returns the ids of paragraph styles named like headings.
func readHeadingStyles(f *zip.File) (map[string]bool, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("reading styles.xml: %w", err)
	}
	defer rc.Close()

	var doc struct {
		Styles []struct {
			ID   string `xml:"styleId,attr"`
			Name struct {
				Val string `xml:"val,attr"`
			} `xml:"name"`
		} `xml:"style"`
	}
	if err := xml.NewDecoder(rc).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing styles.xml: %w", err)
	}

	out := make(map[string]bool)
	for _, s := range doc.Styles {
		if isHeadingStyle(s.Name.Val) || isHeadingStyle(s.ID) {
			out[s.ID] = true
		}
	}
	return out, nil
}

func isHeadingStyle(name string) bool {
	return strings.HasPrefix(strings.ToLower(name), "heading")
}

func parseDocumentXML(r io.Reader, headings map[string]bool) (*wordDocument, error) {
	dec := xml.NewDecoder(r)
	doc := &wordDocument{}
	inBody := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing document.xml: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "body":
			inBody = true
		case "p":
			if !inBody {
				continue
			}
			text, style, err := readParagraph(dec)
			if err != nil {
				return nil, err
			}
			doc.Blocks = append(doc.Blocks, docBlock{
				Kind:    blockParagraph,
				Heading: headings[style] || isHeadingStyle(style),
				Text:    text,
			})
		case "tbl":
			if !inBody {
				continue
			}
			rows, err := readTable(dec)
			if err != nil {
				return nil, err
			}
			doc.Blocks = append(doc.Blocks, docBlock{Kind: blockTable, Rows: rows})
		}
	}
	return doc, nil
}

// readParagraph consumes tokens up to the end of the current w:p.
func readParagraph(dec *xml.Decoder) (text, style string, err error) {
	var sb strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", "", fmt.Errorf("parsing paragraph: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pStyle":
				style = attr(t, "val")
			case "t":
				var s string
				if err := dec.DecodeElement(&s, &t); err != nil {
					return "", "", fmt.Errorf("parsing text run: %w", err)
				}
				sb.WriteString(s)
			case "tab":
				sb.WriteString("\t")
			case "br", "cr":
				sb.WriteString("\n")
			case "p", "tbl", "delText", "instrText":
				// nested content (text boxes) and non-visible text
				if err := dec.Skip(); err != nil {
					return "", "", err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "p" {
				return sb.String(), style, nil
			}
		}
	}
}

// readTable consumes tokens up to the end of the current w:tbl. Each cell's
// paragraphs are joined with newlines; nested tables are skipped.
func readTable(dec *xml.Decoder) ([][]string, error) {
	var (
		rows  [][]string
		cell  []string
		inRow bool
	)
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parsing table: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tr":
				rows = append(rows, nil)
				inRow = true
			case "tc":
				cell = cell[:0]
			case "p":
				text, _, err := readParagraph(dec)
				if err != nil {
					return nil, err
				}
				cell = append(cell, text)
			case "tbl":
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "tc":
				if inRow {
					rows[len(rows)-1] = append(rows[len(rows)-1], strings.Join(cell, "\n"))
				}
			case "tr":
				inRow = false
			case "tbl":
				return rows, nil
			}
		}
	}
}

func attr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
