package metadata

import (
	"errors"

	"github.com/simp-lee/epub"
)

// EPUBExtractor reads the primary Dublin Core title and the first creator.
type EPUBExtractor struct{}

// Extract implements Extractor.
func (EPUBExtractor) Extract(filePath string) (Metadata, error) {
	book, err := epub.Open(filePath)
	if err != nil {
		return Metadata{}, &ExtractError{Format: "epub", Path: filePath, Err: err}
	}
	defer book.Close()

	dc := book.Metadata()

	var md Metadata
	if len(dc.Titles) == 0 {
		md.Issues = append(md.Issues, Issue{Field: "title", Err: errors.New("no Dublin Core title")})
	} else {
		md.Title = dc.Titles[0]
	}
	if len(dc.Authors) == 0 {
		md.Issues = append(md.Issues, Issue{Field: "author", Err: errors.New("no Dublin Core creator")})
	} else {
		md.Author = dc.Authors[0].Name
	}
	return md, nil
}
