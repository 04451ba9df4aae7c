package sources

import (
	"context"
	"fmt"

	"github.com/stacklok/oparl-sync/internal/syncerr"
)

// MaxPages bounds the pages of one list walk. Lists longer than this are
// treated as broken pagination.
const MaxPages = 100000

// Walk follows the pages of a list starting at collectionURL and calls fn for
// each page, in order. The walk stops at the first error returned by the
// client or by fn. A next link pointing at an already visited page is a
// *syncerr.PermanentRequestError with CodeBrokenPagination.
//
// opts apply to the first page only; follow-up pages are always fetched
// unconditionally.
func Walk(ctx context.Context, c Client, collectionURL string, fn func(*Page) error, opts ...PageOption) error {
	visited := make(map[string]struct{})
	cursor := ""

	for n := 0; ; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if n >= MaxPages {
			return &syncerr.PermanentRequestError{
				URL:     collectionURL,
				Code:    syncerr.CodeBrokenPagination,
				Message: fmt.Sprintf("list exceeds %d pages", MaxPages),
			}
		}

		var pageOpts []PageOption
		if n == 0 {
			pageOpts = opts
		}
		page, err := c.FetchPage(ctx, collectionURL, cursor, pageOpts...)
		if err != nil {
			return err
		}
		visited[page.URL] = struct{}{}

		if err := fn(page); err != nil {
			return err
		}

		if page.Next == "" {
			return nil
		}
		if _, seen := visited[page.Next]; seen {
			return &syncerr.PermanentRequestError{
				URL:     page.URL,
				Code:    syncerr.CodeBrokenPagination,
				Message: fmt.Sprintf("next link %s points at an already visited page", page.Next),
			}
		}
		cursor = page.Next
	}
}
