// internal/browser/locator/scope.go
package locator

import (
	"context"
	"fmt"

	"github.com/xkilldash9x/steadyhand/api/schemas"
)

// Descendants returns the nodes matching selector inside el, in document
// order. el must be a match of desc; the descriptor narrows the query and
// the containment check drops descendants of its other matches.
func Descendants(ctx context.Context, driver schemas.Driver, desc schemas.Descriptor, el schemas.Element, selector string) ([]schemas.Element, error) {
	candidates, err := driver.Query(ctx, schemas.Descriptor{Selector: selector, Parent: &desc})
	if err != nil {
		return nil, fmt.Errorf("querying %q inside %s: %w", selector, desc, err)
	}
	var inside []schemas.Element
	for _, c := range candidates {
		ok, err := el.Contains(ctx, c)
		if err != nil {
			return nil, err
		}
		if ok {
			inside = append(inside, c)
		}
	}
	return inside, nil
}
