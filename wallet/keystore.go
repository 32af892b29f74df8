package wallet

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// KeystoreManager 以 Web3 Secret Storage（v3）格式保存 EOA 私钥
type KeystoreManager struct {
	keystoreDir string
	scryptN     int
	scryptP     int
}

// NewKeystoreManager 创建 Keystore 管理器，使用标准 scrypt 参数
func NewKeystoreManager(keystoreDir string) (*KeystoreManager, error) {
	return newKeystoreManager(keystoreDir, keystore.StandardScryptN, keystore.StandardScryptP)
}

// NewLightKeystoreManager 使用轻量 scrypt 参数（测试与开发环境）
func NewLightKeystoreManager(keystoreDir string) (*KeystoreManager, error) {
	return newKeystoreManager(keystoreDir, keystore.LightScryptN, keystore.LightScryptP)
}

func newKeystoreManager(keystoreDir string, scryptN, scryptP int) (*KeystoreManager, error) {
	if err := os.MkdirAll(keystoreDir, 0700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}
	return &KeystoreManager{
		keystoreDir: keystoreDir,
		scryptN:     scryptN,
		scryptP:     scryptP,
	}, nil
}

// Save 加密保存签名器私钥，返回文件路径
func (km *KeystoreManager) Save(signer *EOASigner, password string) (string, error) {
	key := &keystore.Key{
		Id:         uuid.New(),
		Address:    signer.Address(),
		PrivateKey: signer.PrivateKey(),
	}
	keyJSON, err := keystore.EncryptKey(key, password, km.scryptN, km.scryptP)
	if err != nil {
		return "", fmt.Errorf("encrypt key: %w", err)
	}

	keystorePath := km.path(signer.Address())
	if err := os.WriteFile(keystorePath, keyJSON, 0600); err != nil {
		return "", fmt.Errorf("write keystore file: %w", err)
	}
	return keystorePath, nil
}

// Load 按地址加载签名器
func (km *KeystoreManager) Load(address common.Address, password string) (*EOASigner, error) {
	return LoadEOASigner(km.path(address), password)
}

func (km *KeystoreManager) path(address common.Address) string {
	return filepath.Join(km.keystoreDir, fmt.Sprintf("%s.json", address.Hex()))
}

// LoadEOASigner 从 keystore 文件解密私钥
func LoadEOASigner(keystorePath, password string) (*EOASigner, error) {
	keyJSON, err := os.ReadFile(keystorePath)
	if err != nil {
		return nil, fmt.Errorf("read keystore file: %w", err)
	}
	key, err := keystore.DecryptKey(keyJSON, password)
	if err != nil {
		return nil, fmt.Errorf("decrypt keystore: %w", err)
	}
	return NewEOASigner(key.PrivateKey), nil
}
