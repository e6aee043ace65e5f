package exploits

import "errors"

var (
	// ErrCatalogNotFound is returned by loaders when the catalog source does not exist.
	ErrCatalogNotFound = errors.New("catalog source not found")
	// ErrNotFound indicates no record has the requested id.
	ErrNotFound = errors.New("exploit not found")
)
