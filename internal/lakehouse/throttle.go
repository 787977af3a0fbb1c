package lakehouse

import (
	"context"

	"golang.org/x/time/rate"

	"lakewap/internal/domain"
)

// ThrottledStore wraps a LakehouseStore with a token-bucket limiter so
// concurrent ingestion runs cannot saturate the engine with audit queries.
type ThrottledStore struct {
	domain.LakehouseStore
	limiter *rate.Limiter
}

// NewThrottledStore caps store operations at rps with the given burst.
// Non-positive rps disables throttling.
func NewThrottledStore(store domain.LakehouseStore, rps float64, burst int) *ThrottledStore {
	var lim *rate.Limiter
	if rps > 0 {
		if burst < 1 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return &ThrottledStore{LakehouseStore: store, limiter: lim}
}

func (t *ThrottledStore) wait(ctx context.Context) error {
	if t.limiter == nil {
		return nil
	}
	return t.limiter.Wait(ctx)
}

func (t *ThrottledStore) Query(ctx context.Context, sqlText, ref string) (*domain.QueryResult, error) {
	if err := t.wait(ctx); err != nil {
		return nil, err
	}
	return t.LakehouseStore.Query(ctx, sqlText, ref)
}

func (t *ThrottledStore) CreateTable(ctx context.Context, table, namespace, branch, sourceURI string) error {
	if err := t.wait(ctx); err != nil {
		return err
	}
	return t.LakehouseStore.CreateTable(ctx, table, namespace, branch, sourceURI)
}

func (t *ThrottledStore) ImportData(ctx context.Context, table, namespace, branch, sourceURI string) error {
	if err := t.wait(ctx); err != nil {
		return err
	}
	return t.LakehouseStore.ImportData(ctx, table, namespace, branch, sourceURI)
}

func (t *ThrottledStore) MergeBranch(ctx context.Context, sourceRef, intoBranch string) error {
	if err := t.wait(ctx); err != nil {
		return err
	}
	return t.LakehouseStore.MergeBranch(ctx, sourceRef, intoBranch)
}
