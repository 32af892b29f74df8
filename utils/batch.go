package utils

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency 默认并发数
const DefaultConcurrency = 5

// ParallelExecute 并行执行多个操作
//
// 对一组输入并发执行 executeFn，并发数不超过 concurrency。
// 结果与输入一一对应；任一操作失败时取消其余操作并返回第一个错误
//
// 示例：
//
//	receipts, err := ParallelExecute(ctx, hashes, func(ctx context.Context, h common.Hash) (*types.UserOperationReceipt, error) {
//	    return bundler.GetUserOperationReceipt(ctx, h)
//	}, 5)
func ParallelExecute[T any, R any](
	ctx context.Context,
	items []T,
	executeFn func(ctx context.Context, item T) (R, error),
	concurrency int,
) ([]R, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]R, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, item := range items {
		g.Go(func() error {
			r, err := executeFn(gctx, item)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
