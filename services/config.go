package services

import (
	"errors"
	"fmt"
	"io/fs"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/cometh-hq/safe4337-go/client"
	"github.com/cometh-hq/safe4337-go/wallet"
)

// EnvPrefix 环境变量前缀
const EnvPrefix = "SAFE4337"

// Config 由环境变量装配的运行配置
//
// 变量名为 SAFE4337_<KEY>，例如 SAFE4337_RPC_URL。
// 签名私钥二选一：PRIVATE_KEY 或 KEYSTORE_PATH + KEYSTORE_PASSWORD
type Config struct {
	RPCURL       string `envconfig:"RPC_URL" required:"true"`
	BundlerURL   string `envconfig:"BUNDLER_URL" required:"true"`
	PaymasterURL string `envconfig:"PAYMASTER_URL"`
	ChainID      int64  `envconfig:"CHAIN_ID" required:"true"`

	PrivateKey       string `envconfig:"PRIVATE_KEY"`
	KeystorePath     string `envconfig:"KEYSTORE_PATH"`
	KeystorePassword string `envconfig:"KEYSTORE_PASSWORD"`

	// SafeAddress 已有 Safe 地址，留空时按签名器预测
	SafeAddress string `envconfig:"SAFE_ADDRESS"`

	Timeout int  `envconfig:"TIMEOUT" default:"30"`
	Debug   bool `envconfig:"DEBUG" default:"false"`
}

// LoadConfig 加载 .env（不存在时跳过，不覆盖已有环境变量）后读取 SAFE4337_* 变量
func LoadConfig(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	cfg := &Config{}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("process config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ChainID <= 0 {
		return fmt.Errorf("chain id must be positive, got %d", c.ChainID)
	}
	if c.PrivateKey == "" && c.KeystorePath == "" {
		return errors.New("either private key or keystore path must be set")
	}
	if c.SafeAddress != "" && !common.IsHexAddress(c.SafeAddress) {
		return fmt.Errorf("invalid safe address %q", c.SafeAddress)
	}
	return nil
}

// ChainIDBig 链 ID
func (c *Config) ChainIDBig() *big.Int {
	return big.NewInt(c.ChainID)
}

// ClientConfig 指定端点的 JSON-RPC 客户端配置
func (c *Config) ClientConfig(endpoint string) *client.Config {
	cfg := client.DefaultConfig()
	cfg.Endpoint = endpoint
	cfg.Timeout = c.Timeout
	cfg.Debug = c.Debug
	return cfg
}

// Signer 构造 EOA 签名器，私钥优先于 keystore
func (c *Config) Signer() (*wallet.EOASigner, error) {
	if c.PrivateKey != "" {
		return wallet.NewEOASignerFromHex(c.PrivateKey)
	}
	return wallet.LoadEOASigner(c.KeystorePath, c.KeystorePassword)
}

// Safe 已配置的 Safe 地址
func (c *Config) Safe() (common.Address, bool) {
	if c.SafeAddress == "" {
		return common.Address{}, false
	}
	return common.HexToAddress(c.SafeAddress), true
}
