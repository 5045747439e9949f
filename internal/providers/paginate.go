package providers

import "context"

// Paging bounds a page-numbered fetch. Upstream feeds cap the history they
// serve regardless of page size, so MaxPages also caps the total.
type Paging struct {
	PageSize int
	MaxPages int
}

// Paginate requests pages 1..MaxPages in order, stopping early once a page
// comes back shorter than PageSize. On failure it returns the items gathered
// so far together with the error.
func Paginate[T any](ctx context.Context, p Paging, fetch func(ctx context.Context, page int) ([]T, error)) ([]T, error) {
	var all []T

	for page := 1; page <= p.MaxPages; page++ {
		if err := ctx.Err(); err != nil {
			return all, err
		}

		items, err := fetch(ctx, page)
		if err != nil {
			return all, err
		}

		all = append(all, items...)

		if len(items) < p.PageSize {
			break
		}
	}

	return all, nil
}
