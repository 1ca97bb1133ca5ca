package metadata

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// PalmDB and MOBI layout constants.
const (
	palmHeaderLen    = 78
	palmRecordEntry  = 8
	palmDocHeaderLen = 16

	mobiFullNameOffset = 0x44 // relative to the MOBI header
	mobiFullNameLength = 0x48
	mobiEXTHFlags      = 0x70
	mobiMinHeaderLen   = 0x74
	exthPresentFlag    = 0x40

	// EXTHAuthor is the EXTH record type carrying the author.
	EXTHAuthor = 100

	encodingCP1252 = 1252
	encodingUTF8   = 65001

	maxRecord0 = 1 << 20
)

// MOBIExtractor reads the MOBI "full name" for the title and EXTH record 100
// for the author. It covers .mobi, .prc and the KF8 .azw/.azw3 variants.
// Plain PalmDOC files (no MOBI header) fall back to the PalmDB name.
type MOBIExtractor struct{}

// Extract implements Extractor.
func (MOBIExtractor) Extract(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, &ExtractError{Format: "mobi", Path: path, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Metadata{}, &ExtractError{Format: "mobi", Path: path, Err: err}
	}

	palmName, rec0, err := readRecord0(f, info.Size())
	if err != nil {
		return Metadata{}, &ExtractError{Format: "mobi", Path: path, Err: err}
	}

	return parseRecord0(palmName, rec0), nil
}

// readRecord0 returns the PalmDB database name and the bytes of record 0.
func readRecord0(r io.ReaderAt, size int64) (string, []byte, error) {
	hdr := make([]byte, palmHeaderLen+2*palmRecordEntry)
	n, err := r.ReadAt(hdr, 0)
	if n < palmHeaderLen+palmRecordEntry {
		if err == nil || err == io.EOF {
			err = errors.New("file too short for a PalmDB header")
		}
		return "", nil, err
	}
	hdr = hdr[:n]

	name := string(bytes.TrimRight(hdr[:32], "\x00"))
	numRecords := binary.BigEndian.Uint16(hdr[76:78])
	if numRecords == 0 {
		return "", nil, errors.New("PalmDB has no records")
	}

	start := int64(binary.BigEndian.Uint32(hdr[palmHeaderLen : palmHeaderLen+4]))
	end := size
	if numRecords > 1 && len(hdr) >= palmHeaderLen+2*palmRecordEntry {
		next := int64(binary.BigEndian.Uint32(hdr[palmHeaderLen+palmRecordEntry : palmHeaderLen+palmRecordEntry+4]))
		if next > start && next <= size {
			end = next
		}
	}
	if start < palmHeaderLen || start >= size {
		return "", nil, fmt.Errorf("record 0 offset %d out of range", start)
	}
	if end-start > maxRecord0 {
		end = start + maxRecord0
	}

	rec0 := make([]byte, end-start)
	if _, err := r.ReadAt(rec0, start); err != nil && err != io.EOF {
		return "", nil, err
	}
	return name, rec0, nil
}

// parseRecord0 extracts title and author from the PalmDOC + MOBI header.
func parseRecord0(palmName string, rec0 []byte) Metadata {
	var md Metadata

	if len(rec0) < palmDocHeaderLen+mobiMinHeaderLen || string(rec0[palmDocHeaderLen:palmDocHeaderLen+4]) != "MOBI" {
		// PalmDOC without a MOBI header: the database name is all there is.
		md.Title = strings.ReplaceAll(palmName, "_", " ")
		return md
	}

	mobi := rec0[palmDocHeaderLen:]
	headerLen := int(binary.BigEndian.Uint32(mobi[4:8]))
	textEncoding := binary.BigEndian.Uint32(mobi[12:16])

	nameOff := int(binary.BigEndian.Uint32(mobi[mobiFullNameOffset : mobiFullNameOffset+4]))
	nameLen := int(binary.BigEndian.Uint32(mobi[mobiFullNameLength : mobiFullNameLength+4]))
	if nameOff < 0 || nameLen < 0 || nameOff+nameLen > len(rec0) {
		md.Issues = append(md.Issues, Issue{
			Field: "title",
			Raw:   fmt.Sprintf("offset=%d length=%d", nameOff, nameLen),
			Err:   errors.New("full name outside record 0"),
		})
	} else {
		md.Title = strings.TrimSpace(decodeMOBIText(rec0[nameOff:nameOff+nameLen], textEncoding))
	}

	flags := binary.BigEndian.Uint32(mobi[mobiEXTHFlags : mobiEXTHFlags+4])
	if flags&exthPresentFlag == 0 {
		return md
	}
	exthStart := palmDocHeaderLen + headerLen
	author, err := exthRecord(rec0, exthStart, EXTHAuthor)
	if err != nil {
		md.Issues = append(md.Issues, Issue{Field: "author", Err: err})
		return md
	}
	md.Author = strings.TrimSpace(decodeMOBIText(author, textEncoding))
	return md
}

// exthRecord returns the payload of the first EXTH record of type want.
// A well-formed EXTH block without that record yields nil, nil.
func exthRecord(rec0 []byte, start, want int) ([]byte, error) {
	if start < 0 || start+12 > len(rec0) || string(rec0[start:start+4]) != "EXTH" {
		return nil, errors.New("EXTH flag set but no EXTH block")
	}
	count := int(binary.BigEndian.Uint32(rec0[start+8 : start+12]))
	pos := start + 12
	for i := 0; i < count; i++ {
		if pos+8 > len(rec0) {
			return nil, fmt.Errorf("EXTH record %d truncated", i)
		}
		typ := int(binary.BigEndian.Uint32(rec0[pos : pos+4]))
		length := int(binary.BigEndian.Uint32(rec0[pos+4 : pos+8]))
		if length < 8 || pos+length > len(rec0) {
			return nil, fmt.Errorf("EXTH record %d has bad length %d", i, length)
		}
		if typ == want {
			return rec0[pos+8 : pos+length], nil
		}
		pos += length
	}
	return nil, nil
}

func decodeMOBIText(b []byte, encoding uint32) string {
	if encoding == encodingCP1252 || (encoding != encodingUTF8 && !utf8.Valid(b)) {
		if s, err := charmap.Windows1252.NewDecoder().Bytes(b); err == nil {
			return string(s)
		}
	}
	return string(b)
}
