package fundgrube

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/donaldgifford/fundgrube-watcher/internal/metrics"
	domain "github.com/donaldgifford/fundgrube-watcher/pkg/types"
)

const (
	defaultPageSize = 32
	defaultMaxPages = 10
)

// Stop reasons reported by the paginator.
const (
	StoppedNoMoreResults = "no_more_results"
	StoppedMaxPages      = "max_pages"
	StoppedConsumer      = "consumer"
	StoppedError         = "error"
)

// Paginator walks the result pages of one store lazily.
type Paginator struct {
	store    Store
	client   PostingsClient
	logger   *slog.Logger
	pageSize int
	maxPages int
}

// PaginatorOption configures the Paginator.
type PaginatorOption func(*Paginator)

// WithPageSize overrides the default page size.
func WithPageSize(size int) PaginatorOption {
	return func(p *Paginator) {
		if size > 0 {
			p.pageSize = size
		}
	}
}

// WithMaxPages overrides the default max pages.
func WithMaxPages(n int) PaginatorOption {
	return func(p *Paginator) {
		if n > 0 {
			p.maxPages = n
		}
	}
}

// WithPaginatorLogger sets the logger.
func WithPaginatorLogger(l *slog.Logger) PaginatorOption {
	return func(p *Paginator) {
		p.logger = l
	}
}

// NewPaginator creates a Paginator for the given store.
func NewPaginator(store Store, client PostingsClient, opts ...PaginatorOption) *Paginator {
	p := &Paginator{
		store:    store,
		client:   client,
		pageSize: defaultPageSize,
		maxPages: defaultMaxPages,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Store returns the store the paginator walks.
func (p *Paginator) Store() Store {
	return p.store
}

// Items returns a lazy sequence of the store's items for req. Pages are
// requested only as the consumer pulls; the sequence ends when:
// - the endpoint reports no more postings, or returns an empty page
// - max pages is reached
// - the consumer stops iterating
// A failed request yields the error once and ends the sequence.
func (p *Paginator) Items(ctx context.Context, req SearchRequest) iter.Seq2[domain.Item, error] {
	return func(yield func(domain.Item, error) bool) {
		req.Limit = p.pageSize

		for page := range p.maxPages {
			if err := ctx.Err(); err != nil {
				p.stopped(req, page, StoppedError)
				yield(domain.Item{}, err)
				return
			}

			req.Offset = page * p.pageSize

			resp, err := p.client.Postings(ctx, req)
			if err != nil {
				p.stopped(req, page, StoppedError)
				yield(domain.Item{}, fmt.Errorf("fetching page %d of %s: %w", page, p.store.Name, err))
				return
			}

			if len(resp.Postings) == 0 {
				p.stopped(req, page+1, StoppedNoMoreResults)
				return
			}

			items := ToItems(p.store, resp.Postings)
			metrics.FetchItemsTotal.WithLabelValues(p.store.Name).Add(float64(len(items)))

			for i := range items {
				if !yield(items[i], nil) {
					p.stopped(req, page+1, StoppedConsumer)
					return
				}
			}

			if !resp.HasMore {
				p.stopped(req, page+1, StoppedNoMoreResults)
				return
			}
		}

		p.stopped(req, p.maxPages, StoppedMaxPages)
	}
}

func (p *Paginator) stopped(req SearchRequest, pages int, reason string) {
	if p.logger == nil {
		return
	}
	p.logger.Debug("pagination finished",
		"store", p.store.Name,
		"text", req.Text,
		"pages", pages,
		"stopped_at", reason,
	)
}
