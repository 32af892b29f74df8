package account

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cometh-hq/safe4337-go/client"
	"github.com/cometh-hq/safe4337-go/safe"
	"github.com/cometh-hq/safe4337-go/services/bundler"
	"github.com/cometh-hq/safe4337-go/services/gasprice"
	"github.com/cometh-hq/safe4337-go/services/paymaster"
	"github.com/cometh-hq/safe4337-go/types"
	"github.com/cometh-hq/safe4337-go/wallet"
)

// Service Safe 智能账户服务接口
type Service interface {
	// Address Safe 地址
	Address() common.Address

	// IsDeployed Safe 是否已部署
	IsDeployed(ctx context.Context) (bool, error)

	// GetNonce EntryPoint 上的当前 nonce（每次重新读取）
	GetNonce(ctx context.Context) (*big.Int, error)

	// FactoryAddress 首次部署使用的 factory
	FactoryAddress() common.Address

	// FactoryData 首次部署使用的 factoryData
	FactoryData() ([]byte, error)

	// CallData 单笔调用的 executeUserOp 编码
	CallData(to common.Address, value *big.Int, data []byte, delegateCall bool) ([]byte, error)

	// PrepareUserOperation 构建并估算 UserOperation（实现在 prepare.go）
	PrepareUserOperation(ctx context.Context, txs []types.TransactionParams) (*types.UserOperationBuilder, error)

	// SignUserOperation 签名（实现在 prepare.go）
	SignUserOperation(ctx context.Context, builder *types.UserOperationBuilder) (*types.UserOperation, error)

	// SendUserOperation 构建、签名并提交，返回 userOpHash（实现在 send.go）
	SendUserOperation(ctx context.Context, txs []types.TransactionParams) (common.Hash, error)

	// GetOwners 当前 owner 列表（实现在 owners.go）
	GetOwners(ctx context.Context) ([]common.Address, error)

	// AddOwner 增加 owner，门限保持 1
	AddOwner(ctx context.Context, owner common.Address) (common.Hash, error)

	// DeployAndEnablePasskeySigner 部署 passkey 独立签名器并加为 owner
	DeployAndEnablePasskeySigner(ctx context.Context, passkey wallet.Passkey) (common.Hash, error)

	// SignMessage 对 SafeMessage 签名（实现在 message.go）
	SignMessage(ctx context.Context, message []byte) ([]byte, error)

	// IsValidSignature 通过 Safe 校验消息签名，message 不超过 32 字节
	IsValidSignature(ctx context.Context, message, signature []byte) (bool, error)

	// PredictDelayModuleAddress 预测恢复模块地址（实现在 recovery.go）
	PredictDelayModuleAddress(config safe.RecoveryModuleConfig) (common.Address, error)

	// EnableRecovery 部署并启用 Delay 模块，guardian 为其唯一模块
	EnableRecovery(ctx context.Context, guardian common.Address, config safe.RecoveryModuleConfig) (common.Hash, error)

	// GetCurrentGuardian Delay 模块的首个模块，无则 nil
	GetCurrentGuardian(ctx context.Context, delay common.Address) (*common.Address, error)

	// IsRecoveryStarted 是否存在排队中的恢复交易
	IsRecoveryStarted(ctx context.Context, delay common.Address) (bool, error)

	// RecoveryState 读取恢复模块状态
	RecoveryState(ctx context.Context, delay common.Address) (*safe.RecoveryModuleState, error)

	// CancelRecovery 跳过所有排队中的恢复交易
	CancelRecovery(ctx context.Context, delay common.Address) (common.Hash, error)
}

// Config 账户服务配置
type Config struct {
	// ChainID 链 ID（EIP-712 domain）
	ChainID *big.Int

	// Reader 链上读取（*ethclient.Client 满足该接口）
	Reader safe.ChainReader

	// Bundler Bundler 服务
	Bundler bundler.Service

	// Paymaster Paymaster 服务（可选，nil 表示自付 gas）
	Paymaster paymaster.Service

	// GasPrice 费用来源
	GasPrice gasprice.Provider

	// Signer Safe owner 签名器
	Signer wallet.Signer

	// WalletConfig 链上地址（nil 使用 safe.DefaultWalletConfig）
	WalletConfig *safe.WalletConfig

	// Logger 日志器（可选）
	Logger client.Logger
}

func (c *Config) validate() (safe.WalletConfig, error) {
	if c.ChainID == nil || c.ChainID.Sign() <= 0 {
		return safe.WalletConfig{}, types.NewStructuralError("chain id must be positive")
	}
	if c.Reader == nil {
		return safe.WalletConfig{}, types.NewStructuralError("chain reader must be set")
	}
	if c.Bundler == nil {
		return safe.WalletConfig{}, types.NewStructuralError("bundler must be set")
	}
	if c.GasPrice == nil {
		return safe.WalletConfig{}, types.NewStructuralError("gas price provider must be set")
	}
	if c.Signer == nil {
		return safe.WalletConfig{}, types.NewStructuralError("signer must be set")
	}
	walletConfig := safe.DefaultWalletConfig()
	if c.WalletConfig != nil {
		walletConfig = *c.WalletConfig
	}
	if err := walletConfig.Validate(); err != nil {
		return safe.WalletConfig{}, err
	}
	return walletConfig, nil
}

// safeAccount 账户服务实现
type safeAccount struct {
	address   common.Address
	chainID   *big.Int
	reader    safe.ChainReader
	bundler   bundler.Service
	paymaster paymaster.Service
	gasPrice  gasprice.Provider
	signer    wallet.Signer
	config    safe.WalletConfig
	logger    client.Logger
}

// NewService 为已知地址的 Safe 创建账户服务
func NewService(address common.Address, config Config) (Service, error) {
	walletConfig, err := config.validate()
	if err != nil {
		return nil, err
	}
	if address == (common.Address{}) {
		return nil, types.NewStructuralError("safe address must be set")
	}
	logger := config.Logger
	if logger == nil {
		logger = client.DefaultLogger()
	}
	return &safeAccount{
		address:   address,
		chainID:   new(big.Int).Set(config.ChainID),
		reader:    config.Reader,
		bundler:   config.Bundler,
		paymaster: config.Paymaster,
		gasPrice:  config.GasPrice,
		signer:    config.Signer,
		config:    walletConfig,
		logger:    logger,
	}, nil
}

// CreateNewAccount 以签名器为 owner 预测 Safe 地址并创建账户服务（首次操作时部署）
func CreateNewAccount(ctx context.Context, config Config) (Service, error) {
	walletConfig, err := config.validate()
	if err != nil {
		return nil, err
	}
	address, err := PredictAddress(ctx, config.Reader, config.Signer, walletConfig)
	if err != nil {
		return nil, err
	}
	return NewService(address, config)
}

// PredictAddress 预测以 signer 为 owner、saltNonce=0 部署的 Safe 地址
func PredictAddress(ctx context.Context, reader safe.ChainReader, signer wallet.Signer, config safe.WalletConfig) (common.Address, error) {
	initializer, err := signer.Initializer(config)
	if err != nil {
		return common.Address{}, err
	}
	return safe.PredictSafeAddress(ctx, reader, initializer, config)
}

func (s *safeAccount) Address() common.Address {
	return s.address
}

func (s *safeAccount) IsDeployed(ctx context.Context) (bool, error) {
	return safe.IsDeployed(ctx, s.reader, s.address)
}

func (s *safeAccount) GetNonce(ctx context.Context) (*big.Int, error) {
	return safe.GetNonce(ctx, s.reader, s.config.EntryPoint, s.address)
}

func (s *safeAccount) FactoryAddress() common.Address {
	return s.config.SafeProxyFactory
}

func (s *safeAccount) FactoryData() ([]byte, error) {
	initializer, err := s.signer.Initializer(s.config)
	if err != nil {
		return nil, err
	}
	return safe.FactoryData(initializer, s.config)
}

func (s *safeAccount) CallData(to common.Address, value *big.Int, data []byte, delegateCall bool) ([]byte, error) {
	op := safe.OperationCall
	if delegateCall {
		op = safe.OperationDelegateCall
	}
	return safe.ExecuteUserOpData(to, value, data, op)
}
