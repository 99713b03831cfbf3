package catalog

import (
	"bytes"
	_ "embed"
	"sync"
)

//go:embed catalog.yaml
var defaultCatalog []byte

var defaultResolver = sync.OnceValue(func() Resolver {
	r, err := Load(bytes.NewReader(defaultCatalog))
	if err != nil {
		panic(err)
	}
	return r
})

// Default returns the resolver backed by the embedded catalog.
func Default() Resolver {
	return defaultResolver()
}
