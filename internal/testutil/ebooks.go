// Package testutil builds minimal but structurally valid ebook fixtures for
// tests: a PDF with an information dictionary, an EPUB with an OPF package and
// a PalmDB/MOBI file with an EXTH block.
package testutil

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Touch creates an empty file named name in dir and returns its path.
func Touch(t testing.TB, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, nil, 0644); err != nil {
		t.Fatalf("touch %s: %v", p, err)
	}
	return p
}

// PDFInfo lists raw /Info entries. Values are written verbatim, so callers
// choose between a string "(My Book)" and any other PDF object "42".
type PDFInfo map[string]string

// PDFString renders s as a literal PDF string.
func PDFString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return "(" + r.Replace(s) + ")"
}

// WritePDF writes a one-object-per-line PDF with an exact xref table. A nil
// info omits /Info from the trailer.
func WritePDF(t testing.TB, dir, name string, info PDFInfo) string {
	t.Helper()

	var buf bytes.Buffer
	var offsets []int
	buf.WriteString("%PDF-1.4\n")

	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj("<< /Type /Pages /Kids [] /Count 0 >>")
	if info != nil {
		var d strings.Builder
		d.WriteString("<<")
		for _, k := range []string{"Title", "Author", "Subject", "Producer"} {
			if v, ok := info[k]; ok {
				fmt.Fprintf(&d, " /%s %s", k, v)
			}
		}
		d.WriteString(" >>")
		obj(d.String())
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R", len(offsets)+1)
	if info != nil {
		buf.WriteString(" /Info 3 0 R")
	}
	fmt.Fprintf(&buf, " >>\nstartxref\n%d\n%%%%EOF\n", xref)

	return writeFile(t, dir, name, buf.Bytes())
}

// EPUBMeta lists Dublin Core entries in document order.
type EPUBMeta struct {
	Titles   []string
	Creators []string
}

// WriteEPUB writes an EPUB container whose OPF carries meta.
func WriteEPUB(t testing.TB, dir, name string, meta EPUBMeta) string {
	t.Helper()

	var opf strings.Builder
	opf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="id">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:identifier id="id">urn:uuid:00000000-0000-4000-8000-000000000000</dc:identifier>
`)
	for _, title := range meta.Titles {
		fmt.Fprintf(&opf, "    <dc:title>%s</dc:title>\n", xmlEscape(title))
	}
	for _, creator := range meta.Creators {
		fmt.Fprintf(&opf, "    <dc:creator>%s</dc:creator>\n", xmlEscape(creator))
	}
	opf.WriteString(`  </metadata>
  <manifest/>
  <spine/>
</package>
`)

	return WriteZip(t, dir, name, map[string]string{
		"mimetype": "application/epub+zip",
		"META-INF/container.xml": `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>
`,
		"OEBPS/content.opf": opf.String(),
	})
}

// WriteZip writes a zip archive with the given entries (mimetype first).
func WriteZip(t testing.TB, dir, name string, entries map[string]string) string {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	write := func(n, body string) {
		w, err := zw.Create(n)
		if err != nil {
			t.Fatalf("zip create %s: %v", n, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip write %s: %v", n, err)
		}
	}
	if body, ok := entries["mimetype"]; ok {
		write("mimetype", body)
	}
	for n, body := range entries {
		if n != "mimetype" {
			write(n, body)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return writeFile(t, dir, name, buf.Bytes())
}

// MOBIMeta describes a MOBI fixture. An empty Author omits the EXTH block.
type MOBIMeta struct {
	Title    string
	Author   string
	Encoding uint32 // 65001 (UTF-8) when zero
}

// MOBIBytes builds a two-record PalmDB with a MOBI header in record 0.
func MOBIBytes(meta MOBIMeta) []byte {
	const mobiHeaderLen = 0xE8
	enc := meta.Encoding
	if enc == 0 {
		enc = 65001
	}

	var exth []byte
	if meta.Author != "" {
		rec := make([]byte, 8+len(meta.Author))
		binary.BigEndian.PutUint32(rec[0:4], 100)
		binary.BigEndian.PutUint32(rec[4:8], uint32(len(rec)))
		copy(rec[8:], meta.Author)

		exth = make([]byte, 12, 12+len(rec)+3)
		copy(exth[0:4], "EXTH")
		exth = append(exth, rec...)
		for len(exth)%4 != 0 {
			exth = append(exth, 0)
		}
		binary.BigEndian.PutUint32(exth[4:8], uint32(len(exth)))
		binary.BigEndian.PutUint32(exth[8:12], 1)
	}

	mobi := make([]byte, mobiHeaderLen)
	copy(mobi[0:4], "MOBI")
	binary.BigEndian.PutUint32(mobi[4:8], mobiHeaderLen)
	binary.BigEndian.PutUint32(mobi[8:12], 2)
	binary.BigEndian.PutUint32(mobi[12:16], enc)
	nameOffset := 16 + mobiHeaderLen + len(exth)
	binary.BigEndian.PutUint32(mobi[0x44:0x48], uint32(nameOffset))
	binary.BigEndian.PutUint32(mobi[0x48:0x4C], uint32(len(meta.Title)))
	if len(exth) > 0 {
		binary.BigEndian.PutUint32(mobi[0x70:0x74], 0x40)
	}

	palmDoc := make([]byte, 16)
	binary.BigEndian.PutUint16(palmDoc[0:2], 1)

	var rec0 []byte
	rec0 = append(rec0, palmDoc...)
	rec0 = append(rec0, mobi...)
	rec0 = append(rec0, exth...)
	rec0 = append(rec0, meta.Title...)
	rec0 = append(rec0, 0, 0)

	return palmDB("fixture", "BOOK", "MOBI", rec0, []byte("text record"))
}

// PalmDocBytes builds a plain PalmDOC database (no MOBI header).
func PalmDocBytes(name string) []byte {
	return palmDB(name, "TEXt", "REAd", make([]byte, 16), []byte("text record"))
}

// WriteMOBI writes MOBIBytes(meta) to dir/name.
func WriteMOBI(t testing.TB, dir, name string, meta MOBIMeta) string {
	t.Helper()
	return writeFile(t, dir, name, MOBIBytes(meta))
}

func palmDB(name, typ, creator string, records ...[]byte) []byte {
	hdr := make([]byte, 78)
	copy(hdr[0:31], name)
	copy(hdr[60:64], typ)
	copy(hdr[64:68], creator)
	binary.BigEndian.PutUint16(hdr[76:78], uint16(len(records)))

	list := make([]byte, 8*len(records)+2)
	offset := len(hdr) + len(list)
	for i, rec := range records {
		binary.BigEndian.PutUint32(list[8*i:8*i+4], uint32(offset))
		offset += len(rec)
	}

	out := append(hdr, list...)
	for _, rec := range records {
		out = append(out, rec...)
	}
	return out
}

func writeFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func xmlEscape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}
