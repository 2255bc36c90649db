package models

import (
	"strings"

	"github.com/Kamar-Folarin/listing-sync/internal/errors"
)

// Collection names a logical store collection and its upstream resource.
type Collection string

const (
	CollectionCategories Collection = "categories"
	CollectionAdverts    Collection = "adverts"
)

// Collections lists every collection the service ingests.
var Collections = []Collection{CollectionCategories, CollectionAdverts}

// ParseCollection validates a collection name
func ParseCollection(name string) (Collection, error) {
	c := Collection(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Collections {
		if c == known {
			return c, nil
		}
	}
	return "", errors.NewUnknownCollectionError(name)
}

// String returns the collection name.
func (c Collection) String() string {
	return string(c)
}
