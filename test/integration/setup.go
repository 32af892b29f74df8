package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/stretchr/testify/require"

	"github.com/cometh-hq/safe4337-go/client"
	"github.com/cometh-hq/safe4337-go/safe"
	"github.com/cometh-hq/safe4337-go/services"
	"github.com/cometh-hq/safe4337-go/services/account"
	"github.com/cometh-hq/safe4337-go/services/bundler"
	"github.com/cometh-hq/safe4337-go/services/gasprice"
	"github.com/cometh-hq/safe4337-go/services/paymaster"
	"github.com/cometh-hq/safe4337-go/wallet"
)

const (
	// DefaultTimeout 单个测试的默认超时时间
	DefaultTimeout = 2 * time.Minute
	// ReceiptTimeout UserOperation 打包超时时间
	ReceiptTimeout = 60 * time.Second
	// ReceiptInterval 回执轮询间隔
	ReceiptInterval = 2 * time.Second
)

// Environment 集成测试环境
type Environment struct {
	Config    *services.Config
	Eth       *ethclient.Client
	Bundler   bundler.Service
	Paymaster paymaster.Service
	Signer    *wallet.EOASigner
}

// SetupEnvironment 设置集成测试环境（导出函数）
//
// **功能**：
// - 从 .env 与 SAFE4337_* 变量加载配置
// - 未配置 SAFE4337_RPC_URL 时跳过测试
// - 连接节点、bundler 与可选的 paymaster
// - 验证 bundler 支持 v0.7 EntryPoint
func SetupEnvironment(t *testing.T) *Environment {
	return setupEnvironment(t)
}

func setupEnvironment(t *testing.T) *Environment {
	t.Helper()
	if os.Getenv(services.EnvPrefix+"_RPC_URL") == "" {
		t.Skip("SAFE4337_RPC_URL not set, skipping integration test")
	}

	cfg, err := services.LoadConfig()
	require.NoError(t, err, "加载配置失败")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	eth, err := ethclient.DialContext(ctx, cfg.RPCURL)
	require.NoError(t, err, "连接节点失败: %s", cfg.RPCURL)
	t.Cleanup(eth.Close)

	chainID, err := eth.ChainID(ctx)
	require.NoError(t, err, "节点未运行: %s", cfg.RPCURL)
	require.Equal(t, cfg.ChainID, chainID.Int64(), "链 ID 与配置不一致")

	env := &Environment{
		Config:  cfg,
		Eth:     eth,
		Bundler: bundler.NewService(newClient(t, cfg, cfg.BundlerURL), safe.EntryPointV07),
	}
	if cfg.PaymasterURL != "" {
		env.Paymaster = paymaster.NewService(newClient(t, cfg, cfg.PaymasterURL), safe.EntryPointV07)
	}

	entryPoints, err := env.Bundler.SupportedEntryPoints(ctx)
	require.NoError(t, err, "bundler 不可用: %s", cfg.BundlerURL)
	require.Contains(t, entryPoints, safe.EntryPointV07, "bundler 不支持 v0.7 EntryPoint")

	env.Signer, err = cfg.Signer()
	require.NoError(t, err, "加载签名器失败")
	return env
}

func newClient(t *testing.T, cfg *services.Config, endpoint string) client.Client {
	t.Helper()
	c, err := client.NewClient(cfg.ClientConfig(endpoint))
	require.NoError(t, err, "创建客户端失败: %s", endpoint)
	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Logf("关闭客户端时出现警告: %v", err)
		}
	})
	return c
}

// AccountConfig 以环境中的协作方组装账户配置
func (e *Environment) AccountConfig(signer wallet.Signer) account.Config {
	if signer == nil {
		signer = e.Signer
	}
	return account.Config{
		ChainID:   e.Config.ChainIDBig(),
		Reader:    e.Eth,
		Bundler:   e.Bundler,
		Paymaster: e.Paymaster,
		GasPrice:  gasprice.NewRPCGasEstimator(e.Eth, gasprice.DefaultConfig()),
		Signer:    signer,
	}
}

// NewAccount 创建账户服务：配置了 SAFE4337_SAFE_ADDRESS 时使用该地址，否则预测新地址
func (e *Environment) NewAccount(t *testing.T) account.Service {
	t.Helper()
	config := e.AccountConfig(nil)
	if address, ok := e.Config.Safe(); ok {
		svc, err := account.NewService(address, config)
		require.NoError(t, err, "创建账户失败")
		return svc
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	svc, err := account.CreateNewAccount(ctx, config)
	require.NoError(t, err, "预测账户地址失败")
	return svc
}
