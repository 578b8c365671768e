// Package catalog mirrors the remote product collection into a local, wholesale-replaced cache.
package catalog

import "github.com/google/uuid"

// idNamespace scopes the ids derived from document keys.
var idNamespace = uuid.MustParse("6f9c1a4e-2b7d-4e0a-9f3c-8d5e1b2a7c40")

// Product is one catalog item. Values are never mutated after decoding.
type Product struct {
	ID          uuid.UUID
	Name        string
	Description string
	Price       float64
}

// Document is a raw record delivered by the remote store: its key within the collection and its JSON body.
type Document struct {
	Key  string
	Data []byte
}

// Snapshot is a full view of the remote collection. Err is set when the source could not produce
// the documents; such a snapshot must not replace the catalog.
type Snapshot struct {
	Documents []Document
	Err       error
}

// ProductID returns the stable id of the product decoded from the document with the given key.
func ProductID(key string) uuid.UUID {
	return uuid.NewSHA1(idNamespace, []byte(key))
}
