package exploits

import "context"

// Loader port (sumber data katalog)
type Loader interface {
	Load(ctx context.Context) ([]Record, error)
}

// Highlighter turns source code into renderable HTML.
type Highlighter interface {
	Highlight(code, language string) (string, error)
}
