package txbuilder

import (
	"context"
	"fmt"
	"math/big"
	"sort"
)

// dustFloor is the minimum change output this builder will create; below
// it, change is folded into the fee rather than producing an
// uneconomical-to-spend output, per SPEC_FULL.md §4.5's UTXO edge-case
// policy.
const dustFloor = 546

// estimateVBytes is a fixed-weight approximation for a P2WPKH transaction:
// ~10 vB overhead, ~68 vB per witness input, ~31 vB per P2WPKH output. It is
// intentionally conservative (slightly high) so the selected fee rarely
// underpays.
func estimateVBytes(numInputs, numOutputs int) int64 {
	return 10 + 68*int64(numInputs) + 31*int64(numOutputs)
}

func buildUTXOSend(ctx context.Context, adapter UTXOAdapter, req SendRequest, amount *big.Int, payload *KeysignPayload) error {
	if !amount.IsInt64() {
		return fmt.Errorf("%w: amount exceeds int64 satoshis", ErrInvalidConfig)
	}
	target := amount.Int64()

	var unspent []UTXOInput
	if req.SkipChainSpecificFetch {
		// SendRequest carries no pre-fetched inputs, so a UTXO send always
		// lists its unspent outputs through the adapter and cannot skip it.
		return fmt.Errorf("%w: UTXO send requires either an adapter or pre-fetched inputs", ErrInvalidConfig)
	}
	if adapter == nil {
		return fmt.Errorf("%w: no UTXO adapter configured", ErrRPCUnavailable)
	}
	var err error
	unspent, err = adapter.ListUnspent(ctx, req.Coin.Address)
	if err != nil {
		return fmt.Errorf("%w: listing unspent outputs: %v", ErrRPCUnavailable, err)
	}

	// Greatest-first selection, per SPEC_FULL.md §4.5's UTXO edge-case
	// policy, until sum >= amount + estimated fee.
	sort.Slice(unspent, func(i, j int) bool { return unspent[i].Amount > unspent[j].Amount })

	satsPerVByte := int64(10)
	if req.FeeSettings != nil && req.FeeSettings.SatsPerVByte > 0 {
		satsPerVByte = req.FeeSettings.SatsPerVByte
	}

	var selected []UTXOInput
	var sum int64
	var fee int64
	for _, u := range unspent {
		selected = append(selected, u)
		sum += u.Amount
		fee = satsPerVByte * estimateVBytes(len(selected), 2)
		if sum >= target+fee {
			break
		}
	}
	fee = satsPerVByte * estimateVBytes(len(selected), 2)
	if sum < target+fee {
		return fmt.Errorf("%w: have %d sats across %d inputs, need %d plus fee %d",
			ErrInsufficientFunds, sum, len(selected), target, fee)
	}

	change := sum - target - fee
	changeAddress := req.Coin.Address
	if change < dustFloor {
		// Fold dust change into the fee instead of creating an
		// uneconomical output.
		fee += change
		change = 0
	}

	payload.BlockchainSpecific = UTXOSpecific{
		Inputs:        selected,
		FeeRate:       satsPerVByte,
		ChangeAddress: changeAddress,
		ChangeAmount:  change,
	}
	return nil
}
