package domain

import "time"

// Document is a document as held by the source repository.
// The core only reads documents; it never writes them back.
type Document struct {
	// ID is the stable identifier assigned by the source.
	ID int

	// Title is the human-readable title.
	Title string

	// Content is the extracted plain text. Changes are detected by hashing
	// this field, never by trusting a modified timestamp.
	Content string

	// Created is the creation date recorded by the source.
	Created time.Time

	// Filename is the original uploaded file name.
	Filename string

	// TagIDs references Tag.ID values.
	TagIDs []int

	// CorrespondentID is optional source metadata.
	CorrespondentID *int

	// DocumentTypeID is optional source metadata.
	DocumentTypeID *int
}

// Tag is a named label defined in the source.
type Tag struct {
	ID   int
	Name string
}

// Chunk is a retrievable unit of a document's text.
// Chunks are produced fresh on every (re)index and are never stored
// apart from their point in the vector store.
type Chunk struct {
	// DocumentID links to the owning Document.
	DocumentID int

	// Index is the zero-based position within the document.
	Index int

	// Text is the chunk content.
	Text string
}

// DocumentPage is one page of a document listing.
type DocumentPage struct {
	// Count is the total number of matching documents.
	Count int

	// Documents holds the documents on this page.
	Documents []Document

	// HasNext is true when another page follows.
	HasNext bool
}

// ListOptions controls document listing.
type ListOptions struct {
	// TagIDs restricts the listing to documents carrying all these tags.
	TagIDs []int

	// Ordering is a source-specific sort key, e.g. "-created".
	Ordering string

	// Page is 1-based.
	Page int

	// PageSize is the number of documents per page.
	PageSize int
}

// TagNames resolves a document's tag ids against a tag list.
// Unknown ids are skipped.
func TagNames(tagIDs []int, tags []Tag) []string {
	byID := make(map[int]string, len(tags))
	for _, t := range tags {
		byID[t.ID] = t.Name
	}
	names := make([]string, 0, len(tagIDs))
	for _, id := range tagIDs {
		if name, ok := byID[id]; ok {
			names = append(names, name)
		}
	}
	return names
}
