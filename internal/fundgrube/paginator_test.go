package fundgrube_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/fundgrube-watcher/internal/fundgrube"
	domain "github.com/donaldgifford/fundgrube-watcher/pkg/types"
)

type mockPostingsClient struct {
	mock.Mock
}

func (m *mockPostingsClient) Postings(ctx context.Context, req fundgrube.SearchRequest) (*fundgrube.PostingsPage, error) {
	args := m.Called(ctx, req)
	page, _ := args.Get(0).(*fundgrube.PostingsPage)
	return page, args.Error(1)
}

func atOffset(offset int) any {
	return mock.MatchedBy(func(req fundgrube.SearchRequest) bool {
		return req.Offset == offset
	})
}

func page(more bool, ids ...string) *fundgrube.PostingsPage {
	p := &fundgrube.PostingsPage{HasMore: more}
	for _, id := range ids {
		p.Postings = append(p.Postings, fundgrube.Posting{PostingID: fundgrube.FlexString(id), Name: "item " + id})
	}
	return p
}

func collect(t *testing.T, p *fundgrube.Paginator, req fundgrube.SearchRequest) ([]string, error) {
	t.Helper()
	var ids []string
	for it, err := range p.Items(context.Background(), req) {
		if err != nil {
			return ids, err
		}
		ids = append(ids, it.ID)
	}
	return ids, nil
}

var testStore = fundgrube.Store{Name: "mediamarkt", BaseURL: "https://mm.example/fundgrube"}

func TestPaginator_Items(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		maxPages   int
		setupMocks func(*mockPostingsClient)
		wantIDs    []string
		wantErr    string
	}{
		{
			name: "walks pages until no more postings",
			setupMocks: func(c *mockPostingsClient) {
				c.On("Postings", mock.Anything, atOffset(0)).Return(page(true, "1", "2"), nil).Once()
				c.On("Postings", mock.Anything, atOffset(2)).Return(page(false, "3"), nil).Once()
			},
			wantIDs: []string{"1", "2", "3"},
		},
		{
			name:     "stops at max pages",
			maxPages: 2,
			setupMocks: func(c *mockPostingsClient) {
				c.On("Postings", mock.Anything, atOffset(0)).Return(page(true, "1", "2"), nil).Once()
				c.On("Postings", mock.Anything, atOffset(2)).Return(page(true, "3", "4"), nil).Once()
			},
			wantIDs: []string{"1", "2", "3", "4"},
		},
		{
			name: "stops on empty page",
			setupMocks: func(c *mockPostingsClient) {
				c.On("Postings", mock.Anything, atOffset(0)).Return(page(true, "1", "2"), nil).Once()
				c.On("Postings", mock.Anything, atOffset(2)).Return(page(true), nil).Once()
			},
			wantIDs: []string{"1", "2"},
		},
		{
			name: "error on second page keeps earlier items",
			setupMocks: func(c *mockPostingsClient) {
				c.On("Postings", mock.Anything, atOffset(0)).Return(page(true, "1", "2"), nil).Once()
				c.On("Postings", mock.Anything, atOffset(2)).
					Return(nil, &fundgrube.StatusError{StatusCode: 503}).Once()
			},
			wantIDs: []string{"1", "2"},
			wantErr: "fetching page 1 of mediamarkt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := &mockPostingsClient{}
			tt.setupMocks(client)

			opts := []fundgrube.PaginatorOption{fundgrube.WithPageSize(2)}
			if tt.maxPages > 0 {
				opts = append(opts, fundgrube.WithMaxPages(tt.maxPages))
			}
			p := fundgrube.NewPaginator(testStore, client, opts...)

			ids, err := collect(t, p, fundgrube.SearchRequest{Text: "x"})
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				var se *fundgrube.StatusError
				assert.True(t, errors.As(err, &se))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantIDs, ids)
			client.AssertExpectations(t)
		})
	}
}

func TestPaginator_IsLazy(t *testing.T) {
	t.Parallel()

	client := &mockPostingsClient{}
	client.On("Postings", mock.Anything, atOffset(0)).Return(page(true, "1", "2"), nil).Once()

	p := fundgrube.NewPaginator(testStore, client, fundgrube.WithPageSize(2))

	var first domain.Item
	for it, err := range p.Items(context.Background(), fundgrube.SearchRequest{Text: "x"}) {
		require.NoError(t, err)
		first = it
		break
	}

	assert.Equal(t, "1", first.ID)
	assert.Equal(t, "mediamarkt", first.Store)
	assert.Equal(t, testStore.BaseURL, first.StoreURL)
	client.AssertNumberOfCalls(t, "Postings", 1)
}

func TestPaginator_CanceledContext(t *testing.T) {
	t.Parallel()

	client := &mockPostingsClient{}
	p := fundgrube.NewPaginator(testStore, client)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var gotErr error
	for _, err := range p.Items(ctx, fundgrube.SearchRequest{}) {
		gotErr = err
	}
	assert.ErrorIs(t, gotErr, context.Canceled)
	client.AssertNotCalled(t, "Postings", mock.Anything, mock.Anything)
}
