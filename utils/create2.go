package utils

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// GetCreate2Address 计算 CREATE2 部署地址
//
// address = last20(keccak256(0xff ++ deployer ++ salt ++ initCodeHash))
func GetCreate2Address(deployer common.Address, salt [32]byte, initCodeHash []byte) common.Address {
	return crypto.CreateAddress2(deployer, salt, initCodeHash)
}

// GetCreate2AddressFromInitCode 由完整 init code 计算 CREATE2 地址
func GetCreate2AddressFromInitCode(deployer common.Address, salt [32]byte, initCode []byte) common.Address {
	return GetCreate2Address(deployer, salt, crypto.Keccak256(initCode))
}
