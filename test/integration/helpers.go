package integration

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/cometh-hq/safe4337-go/services/bundler"
	"github.com/cometh-hq/safe4337-go/types"
)

// WaitForUserOperation 等待 UserOperation 打包并断言执行成功
//
// **功能**：
// - 按 ReceiptInterval 轮询回执
// - 超过 ReceiptTimeout 未打包时测试失败
func WaitForUserOperation(t *testing.T, env *Environment, hash common.Hash) *types.UserOperationReceipt {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()

	poller := bundler.NewReceiptPoller(env.Bundler, bundler.PollerConfig{
		Interval: ReceiptInterval,
		Timeout:  ReceiptTimeout,
	})
	receipt, err := poller.WaitForReceipt(ctx, hash)
	require.NoError(t, err, "查询回执失败")
	require.NotNil(t, receipt, "UserOperation 未在 %v 内打包: %s", ReceiptTimeout, hash.Hex())
	require.True(t, receipt.Success, "UserOperation 执行失败: %s", receipt.Reason)
	return receipt
}
