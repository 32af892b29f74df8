package paymaster

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cometh-hq/safe4337-go/client"
	"github.com/cometh-hq/safe4337-go/types"
)

// Service Paymaster JSON-RPC 服务接口
type Service interface {
	// SponsorUserOperation 请求赞助（op 需携带占位签名）
	SponsorUserOperation(ctx context.Context, op *types.UserOperation) (*types.Sponsorship, error)

	// SupportedEntryPoints 支持的 EntryPoint 列表
	SupportedEntryPoints(ctx context.Context) ([]common.Address, error)
}

// paymasterService Paymaster 服务实现
type paymasterService struct {
	client     client.Client
	entryPoint common.Address
}

// NewService 创建 Paymaster 服务
func NewService(cli client.Client, entryPoint common.Address) Service {
	return &paymasterService{
		client:     cli,
		entryPoint: entryPoint,
	}
}

// sponsorResult pm_sponsorUserOperation 结果
type sponsorResult struct {
	Paymaster                     *common.Address `json:"paymaster"`
	PaymasterData                 *string         `json:"paymasterData"`
	PaymasterVerificationGasLimit *types.Quantity `json:"paymasterVerificationGasLimit"`
	PaymasterPostOpGasLimit       *types.Quantity `json:"paymasterPostOpGasLimit"`
	PreVerificationGas            *types.Quantity `json:"preVerificationGas"`
	VerificationGasLimit          *types.Quantity `json:"verificationGasLimit"`
	CallGasLimit                  *types.Quantity `json:"callGasLimit"`
}

func (s *paymasterService) SponsorUserOperation(ctx context.Context, op *types.UserOperation) (*types.Sponsorship, error) {
	var result *sponsorResult
	if err := s.client.Call(ctx, &result, "pm_sponsorUserOperation", op, s.entryPoint); err != nil {
		if rpcErr, ok := client.AsRPCError(err); ok {
			return nil, types.NewSponsorshipError(rpcErr.Code, err, "paymaster cannot sponsor user operation: "+rpcErr.Message)
		}
		return nil, err
	}
	if result == nil || result.Paymaster == nil || result.PaymasterData == nil ||
		result.PaymasterVerificationGasLimit == nil || result.PaymasterPostOpGasLimit == nil ||
		result.PreVerificationGas == nil || result.VerificationGasLimit == nil || result.CallGasLimit == nil {
		return nil, types.NewSponsorshipError(0, errors.New("missing field"), "incomplete sponsorship")
	}

	data, err := types.ParseHexBytes(*result.PaymasterData)
	if err != nil {
		return nil, types.NewSponsorshipError(0, err, "invalid paymasterData")
	}

	return &types.Sponsorship{
		Paymaster:                     *result.Paymaster,
		PaymasterData:                 data,
		PaymasterVerificationGasLimit: result.PaymasterVerificationGasLimit.ToInt(),
		PaymasterPostOpGasLimit:       result.PaymasterPostOpGasLimit.ToInt(),
		PreVerificationGas:            result.PreVerificationGas.ToInt(),
		VerificationGasLimit:          result.VerificationGasLimit.ToInt(),
		CallGasLimit:                  result.CallGasLimit.ToInt(),
	}, nil
}

func (s *paymasterService) SupportedEntryPoints(ctx context.Context) ([]common.Address, error) {
	var entryPoints []common.Address
	if err := s.client.Call(ctx, &entryPoints, "pm_supportedEntryPoints"); err != nil {
		return nil, err
	}
	return entryPoints, nil
}
