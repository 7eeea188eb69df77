package txbuilder

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vaultmesh/vaultcore/internal/chains"
)

func buildCosmosSend(ctx context.Context, adapter CosmosAdapter, req SendRequest, payload *KeysignPayload) error {
	spec, err := fetchCosmosSpecific(ctx, adapter, req.SkipChainSpecificFetch, defaultCosmosGas)
	if err != nil {
		return err
	}
	payload.BlockchainSpecific = spec
	return nil
}

const defaultCosmosGas = 200000

func fetchCosmosSpecific(ctx context.Context, adapter CosmosAdapter, skip bool, gas uint64) (CosmosSpecific, error) {
	if skip {
		return CosmosSpecific{Gas: gas}, nil
	}
	if adapter == nil {
		return CosmosSpecific{}, fmt.Errorf("%w: no Cosmos adapter configured", ErrRPCUnavailable)
	}
	accNum, seq, err := adapter.AccountInfo(ctx, "")
	if err != nil {
		return CosmosSpecific{}, fmt.Errorf("%w: fetching account info: %v", ErrRPCUnavailable, err)
	}
	return CosmosSpecific{AccountNumber: accNum, Sequence: seq, Gas: gas}, nil
}

// SignAminoRequest is SPEC_FULL.md §4.5 (2): a custom-message Amino build.
type SignAminoRequest struct {
	Chain                  Coin
	Msgs                   []AminoMsg
	Fee                    AminoFee
	Memo                   string
	SkipChainSpecificFetch bool
}

// BuildSignAmino assembles a KeysignPayload whose SignData is a StdSignDoc
// built from caller-supplied messages. Only Cosmos-format chains accept
// this; anything else is InvalidConfig before any adapter call.
func BuildSignAmino(ctx context.Context, adapter CosmosAdapter, req SignAminoRequest) (*KeysignPayload, error) {
	entry, err := chains.Lookup(req.Chain.Chain)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedChain, err)
	}
	if entry.TxFormat != chains.TxFormatCosmos {
		return nil, fmt.Errorf("%w: %s is not a Cosmos-format chain", ErrInvalidConfig, req.Chain.Chain)
	}
	spec, err := fetchCosmosSpecific(ctx, adapter, req.SkipChainSpecificFetch, 0)
	if err != nil {
		return nil, err
	}
	spec.ChainID = string(req.Chain.Chain)

	return &KeysignPayload{
		Coin:                req.Chain,
		VaultPublicKeyECDSA: req.Chain.HexPublicKey,
		BlockchainSpecific:  spec,
		SignData: SignAmino{
			Msgs: req.Msgs,
			Fee:  req.Fee,
			Memo: req.Memo,
		},
	}, nil
}

// SignDirectRequest is SPEC_FULL.md §4.5 (3): a pre-encoded protobuf build.
type SignDirectRequest struct {
	Chain                  Coin
	BodyBytes              []byte
	AuthInfoBytes          []byte
	ChainID                string
	AccountNumber          uint64
	Memo                   string
	SkipChainSpecificFetch bool
}

// BuildSignDirect assembles a KeysignPayload whose SignData carries a
// caller-supplied SignDoc body and auth info; only the sequence is fetched
// (the account number is given), unless skipped.
func BuildSignDirect(ctx context.Context, adapter CosmosAdapter, req SignDirectRequest) (*KeysignPayload, error) {
	entry, err := chains.Lookup(req.Chain.Chain)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedChain, err)
	}
	if entry.TxFormat != chains.TxFormatCosmos {
		return nil, fmt.Errorf("%w: %s is not a Cosmos-format chain", ErrInvalidConfig, req.Chain.Chain)
	}

	var sequence uint64
	if !req.SkipChainSpecificFetch {
		if adapter == nil {
			return nil, fmt.Errorf("%w: no Cosmos adapter configured", ErrRPCUnavailable)
		}
		_, seq, err := adapter.AccountInfo(ctx, req.Chain.Address)
		if err != nil {
			return nil, fmt.Errorf("%w: fetching sequence: %v", ErrRPCUnavailable, err)
		}
		sequence = seq
	}

	return &KeysignPayload{
		Coin:                req.Chain,
		Memo:                req.Memo,
		VaultPublicKeyECDSA: req.Chain.HexPublicKey,
		BlockchainSpecific: CosmosSpecific{
			AccountNumber: req.AccountNumber,
			Sequence:      sequence,
			ChainID:       req.ChainID,
		},
		SignData: SignDirect{
			BodyBytes:     req.BodyBytes,
			AuthInfoBytes: req.AuthInfoBytes,
			ChainID:       req.ChainID,
			AccountNumber: req.AccountNumber,
		},
	}, nil
}

// cosmWasmExecuteMsg is the JSON value of a "wasm/MsgExecuteContract" Amino
// message, per SPEC_FULL.md §4.5 (4).
type cosmWasmExecuteMsg struct {
	Sender   string      `json:"sender"`
	Contract string      `json:"contract"`
	Msg      interface{} `json:"msg"`
	Funds    []AminoCoin `json:"funds"`
}

// BuildCosmWasmExecute is a SignAmino specialization whose single message is
// a "wasm/MsgExecuteContract" value.
func BuildCosmWasmExecute(ctx context.Context, adapter CosmosAdapter, coin Coin, contract string, msg interface{}, funds []AminoCoin, fee AminoFee, memo string) (*KeysignPayload, error) {
	value, err := json.Marshal(cosmWasmExecuteMsg{
		Sender:   coin.Address,
		Contract: contract,
		Msg:      msg,
		Funds:    funds,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding execute message: %v", ErrBuildFailed, err)
	}
	return BuildSignAmino(ctx, adapter, SignAminoRequest{
		Chain: coin,
		Msgs: []AminoMsg{{
			Type:  "wasm/MsgExecuteContract",
			Value: value,
		}},
		Fee:  fee,
		Memo: memo,
	})
}
