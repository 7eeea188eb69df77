package txbuilder

import (
	"context"
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
)

func buildSolanaSend(ctx context.Context, adapter SolanaAdapter, req SendRequest, payload *KeysignPayload) error {
	amount, ok := new(big.Int).SetString(payload.ToAmount, 10)
	if !ok || !amount.IsUint64() {
		return fmt.Errorf("%w: amount %q is not a valid lamport count", ErrInvalidConfig, payload.ToAmount)
	}

	var blockhash string
	if req.SkipChainSpecificFetch {
		if req.FeeSettings == nil {
			return fmt.Errorf("%w: Solana send needs a blockhash when skipping chain-specific fetch", ErrInvalidConfig)
		}
	} else {
		if adapter == nil {
			return fmt.Errorf("%w: no Solana adapter configured", ErrRPCUnavailable)
		}
		bh, err := adapter.RecentBlockhash(ctx)
		if err != nil {
			return fmt.Errorf("%w: fetching recent blockhash: %v", ErrRPCUnavailable, err)
		}
		blockhash = bh
	}

	from, err := solana.PublicKeyFromBase58(req.Coin.Address)
	if err != nil {
		return fmt.Errorf("%w: sender address: %v", ErrInvalidConfig, err)
	}
	to, err := solana.PublicKeyFromBase58(req.Receiver)
	if err != nil {
		return fmt.Errorf("%w: receiver address: %v", ErrInvalidAddress, err)
	}
	recentBlockhash, err := solana.HashFromBase58(blockhash)
	if err != nil {
		return fmt.Errorf("%w: blockhash: %v", ErrBuildFailed, err)
	}

	transferInstruction := system.NewTransferInstruction(amount.Uint64(), from, to).Build()

	tx, err := solana.NewTransaction([]solana.Instruction{transferInstruction}, recentBlockhash, solana.TransactionPayer(from))
	if err != nil {
		return fmt.Errorf("%w: compiling message: %v", ErrBuildFailed, err)
	}

	messageBytes, err := tx.Message.MarshalBinary()
	if err != nil {
		return fmt.Errorf("%w: serializing message: %v", ErrBuildFailed, err)
	}

	var priorityFee uint64
	var computeLimit uint32
	if req.FeeSettings != nil {
		priorityFee = req.FeeSettings.PriorityFeeMicroLamports
		computeLimit = req.FeeSettings.ComputeUnitLimit
	}

	payload.BlockchainSpecific = SolanaSpecific{
		RecentBlockhash:          blockhash,
		MessageBytes:             messageBytes,
		PriorityFeeMicroLamports: priorityFee,
		ComputeUnitLimit:         computeLimit,
	}
	return nil
}
