package metadata

import (
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"

	"hbrename/internal/normalizer"
)

// PDFExtractor reads /Title and /Author from the document information
// dictionary. Both values are title-cased.
type PDFExtractor struct{}

// Extract implements Extractor.
func (PDFExtractor) Extract(path string) (md Metadata, err error) {
	// The parser panics on some malformed cross-reference data.
	defer func() {
		if r := recover(); r != nil {
			md = Metadata{}
			err = &ExtractError{Format: "pdf", Path: path, Err: fmt.Errorf("malformed document: %v", r)}
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return Metadata{}, &ExtractError{Format: "pdf", Path: path, Err: err}
	}
	defer f.Close()

	info := r.Trailer().Key("Info")
	if info.IsNull() {
		return Metadata{}, nil
	}

	title, issue := pdfInfoString(info, "Title")
	if issue != nil {
		issue.Field = "title"
		md.Issues = append(md.Issues, *issue)
	}
	author, issue := pdfInfoString(info, "Author")
	if issue != nil {
		issue.Field = "author"
		md.Issues = append(md.Issues, *issue)
	}

	md.Title = normalizer.TitleCase(title)
	md.Author = normalizer.TitleCase(author)
	return md, nil
}

// pdfInfoString reads one text entry of the info dictionary. A missing key is
// not an issue; a key of the wrong kind is.
func pdfInfoString(info pdf.Value, key string) (value string, issue *Issue) {
	defer func() {
		if r := recover(); r != nil {
			value = ""
			issue = &Issue{Err: fmt.Errorf("unreadable /%s: %v", key, r)}
		}
	}()

	v := info.Key(key)
	if v.IsNull() {
		return "", nil
	}
	if v.Kind() != pdf.String {
		return "", &Issue{Raw: v.String(), Err: errors.New("not a text string")}
	}
	return v.Text(), nil
}
