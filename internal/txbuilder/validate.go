package txbuilder

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/common"

	"github.com/vaultmesh/vaultcore/internal/chains"
)

// validateReceiver applies the chain's address predicate, per SPEC_FULL.md
// §4.5: a malformed receiver must fail before any RPC call or fee estimate
// is attempted.
func validateReceiver(format chains.TxFormat, address string) error {
	if address == "" {
		return fmt.Errorf("%w: empty address", ErrInvalidAddress)
	}
	switch format {
	case chains.TxFormatUTXO:
		if _, err := btcutil.DecodeAddress(address, &chaincfg.MainNetParams); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidAddress, address, err)
		}
	case chains.TxFormatEVM:
		if !common.IsHexAddress(address) {
			return fmt.Errorf("%w: %s", ErrInvalidAddress, address)
		}
	case chains.TxFormatCosmos:
		if _, _, err := bech32.Decode(address); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidAddress, address, err)
		}
	case chains.TxFormatSolana:
		decoded := base58.Decode(address)
		if len(decoded) != 32 {
			return fmt.Errorf("%w: %s", ErrInvalidAddress, address)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedChain, format)
	}
	return nil
}
