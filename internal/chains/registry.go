// Package chains is the single data-driven table describing every chain
// this module knows how to derive addresses for, build transactions for,
// and pre-sign hashes for. It replaces the scattered per-function switch
// statements that used to live in internal/vault and internal/recovery,
// and the two inconsistent SupportedChain enumerations that predated it.
package chains

import (
	"fmt"
	"strings"

	"github.com/vaultmesh/vaultcore/internal/types"
)

// Curve identifies the signature scheme a chain's keys live under.
type Curve string

const (
	CurveECDSA Curve = "ecdsa"
	CurveEdDSA Curve = "eddsa"
)

// TxFormat names the transaction encoding family a chain uses, which in
// turn decides which txbuilder/presign implementation handles it.
type TxFormat string

const (
	TxFormatUTXO      TxFormat = "utxo"
	TxFormatEVM       TxFormat = "evm"
	TxFormatCosmos    TxFormat = "cosmos"
	TxFormatSolana    TxFormat = "solana"
	TxFormatRipple    TxFormat = "ripple"
	TxFormatSubstrate TxFormat = "substrate"
)

// FeeModel names the fee calculation strategy a chain uses.
type FeeModel string

const (
	FeeModelSatsPerByte   FeeModel = "sats_per_byte"
	FeeModelEIP1559       FeeModel = "eip1559"
	FeeModelGasLegacy     FeeModel = "gas_legacy"
	FeeModelFlatNative    FeeModel = "flat_native"
	FeeModelFixedDrops    FeeModel = "fixed_drops"
	FeeModelWeightBased   FeeModel = "weight_based"
)

// Entry is one row of the chain registry.
type Entry struct {
	ID                 types.SupportedChain
	DisplayName        string
	Ticker             string
	Curve              Curve
	CoinType           uint32
	TxFormat           TxFormat
	FeeModel           FeeModel
	ExplorerTxTemplate string // "%s" is replaced with the tx hash
	BroadcastAdapter   string // name of the C8 adapter interface this chain uses
}

// Registry is the canonical, ordered chain table. Order matters only for
// deterministic iteration (e.g. `vultool chains` output); lookups use the
// indexes built in init().
var Registry = []Entry{
	{types.ChainBitcoin, "Bitcoin", "BTC", CurveECDSA, 0, TxFormatUTXO, FeeModelSatsPerByte, "https://mempool.space/tx/%s", "UTXOBroadcaster"},
	{types.ChainBitcoinCash, "Bitcoin Cash", "BCH", CurveECDSA, 145, TxFormatUTXO, FeeModelSatsPerByte, "https://blockchair.com/bitcoin-cash/transaction/%s", "UTXOBroadcaster"},
	{types.ChainLitecoin, "Litecoin", "LTC", CurveECDSA, 2, TxFormatUTXO, FeeModelSatsPerByte, "https://blockchair.com/litecoin/transaction/%s", "UTXOBroadcaster"},
	{types.ChainDogecoin, "Dogecoin", "DOGE", CurveECDSA, 3, TxFormatUTXO, FeeModelSatsPerByte, "https://blockchair.com/dogecoin/transaction/%s", "UTXOBroadcaster"},
	{types.ChainDash, "Dash", "DASH", CurveECDSA, 5, TxFormatUTXO, FeeModelSatsPerByte, "https://blockchair.com/dash/transaction/%s", "UTXOBroadcaster"},
	{types.ChainZcash, "Zcash", "ZEC", CurveECDSA, 133, TxFormatUTXO, FeeModelSatsPerByte, "https://blockchair.com/zcash/transaction/%s", "UTXOBroadcaster"},
	{types.ChainEthereum, "Ethereum", "ETH", CurveECDSA, 60, TxFormatEVM, FeeModelEIP1559, "https://etherscan.io/tx/%s", "EVMBroadcaster"},
	{types.ChainBSC, "BNB Smart Chain", "BNB", CurveECDSA, 60, TxFormatEVM, FeeModelGasLegacy, "https://bscscan.com/tx/%s", "EVMBroadcaster"},
	{types.ChainAvalanche, "Avalanche C-Chain", "AVAX", CurveECDSA, 60, TxFormatEVM, FeeModelEIP1559, "https://snowtrace.io/tx/%s", "EVMBroadcaster"},
	{types.ChainPolygon, "Polygon", "MATIC", CurveECDSA, 60, TxFormatEVM, FeeModelEIP1559, "https://polygonscan.com/tx/%s", "EVMBroadcaster"},
	{types.ChainCronosChain, "Cronos", "CRO", CurveECDSA, 60, TxFormatEVM, FeeModelEIP1559, "https://cronoscan.com/tx/%s", "EVMBroadcaster"},
	{types.ChainArbitrum, "Arbitrum One", "ETH", CurveECDSA, 60, TxFormatEVM, FeeModelEIP1559, "https://arbiscan.io/tx/%s", "EVMBroadcaster"},
	{types.ChainOptimism, "Optimism", "ETH", CurveECDSA, 60, TxFormatEVM, FeeModelEIP1559, "https://optimistic.etherscan.io/tx/%s", "EVMBroadcaster"},
	{types.ChainBase, "Base", "ETH", CurveECDSA, 60, TxFormatEVM, FeeModelEIP1559, "https://basescan.org/tx/%s", "EVMBroadcaster"},
	{types.ChainBlast, "Blast", "ETH", CurveECDSA, 60, TxFormatEVM, FeeModelEIP1559, "https://blastscan.io/tx/%s", "EVMBroadcaster"},
	{types.ChainZksync, "zkSync Era", "ETH", CurveECDSA, 60, TxFormatEVM, FeeModelEIP1559, "https://explorer.zksync.io/tx/%s", "EVMBroadcaster"},
	{types.ChainThorChain, "THORChain", "RUNE", CurveECDSA, 931, TxFormatCosmos, FeeModelFlatNative, "https://runescan.io/tx/%s", "CosmosBroadcaster"},
	{types.ChainSolana, "Solana", "SOL", CurveEdDSA, 501, TxFormatSolana, FeeModelFlatNative, "https://solscan.io/tx/%s", "SolanaBroadcaster"},
	{types.ChainSUI, "Sui", "SUI", CurveEdDSA, 784, TxFormatSolana, FeeModelFlatNative, "https://suiscan.xyz/tx/%s", "SolanaBroadcaster"},
	{types.ChainRipple, "XRP Ledger", "XRP", CurveECDSA, 144, TxFormatRipple, FeeModelFixedDrops, "https://xrpscan.com/tx/%s", "RippleBroadcaster"},
	{types.ChainPolkadot, "Polkadot", "DOT", CurveEdDSA, 354, TxFormatSubstrate, FeeModelWeightBased, "https://polkadot.subscan.io/extrinsic/%s", "SubstrateBroadcaster"},
	{types.ChainTron, "Tron", "TRX", CurveECDSA, 195, TxFormatEVM, FeeModelFlatNative, "https://tronscan.org/#/transaction/%s", "EVMBroadcaster"},
}

var byID map[types.SupportedChain]Entry

func init() {
	byID = make(map[types.SupportedChain]Entry, len(Registry))
	for _, e := range Registry {
		byID[e.ID] = e
	}
}

// ErrUnknownChain is returned by Lookup for an id not in the registry.
var ErrUnknownChain = fmt.Errorf("chains: unknown chain")

// Lookup returns the registry entry for id.
func Lookup(id types.SupportedChain) (Entry, error) {
	e, ok := byID[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownChain, id)
	}
	return e, nil
}

// ExplorerURL renders the explorer link for a transaction hash on chain id.
func ExplorerURL(id types.SupportedChain, txHash string) (string, error) {
	e, err := Lookup(id)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(e.ExplorerTxTemplate, txHash), nil
}

// LibType is the curve family a keyshare's TSS library implements, as
// spelled in the vault container. Both "GG20" and "DKLS" are ECDSA-family
// implementations from the caller's point of view; EdDSA vaults only ever
// carry one library generation.
type LibType string

const (
	LibTypeGG20 LibType = "GG20"
	LibTypeDKLS LibType = "DKLS"
	LibTypeEdDSA LibType = "EdDSA"
)

// NormalizeLibType accepts any case-insensitive spelling of "GG20" or
// "DKLS" and maps it to the canonical constant, without mutating how the
// container codec persists the original spelling on disk (see
// vault.EncodeVaultFile, which writes back whatever the vault carried).
func NormalizeLibType(s string) (LibType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GG20":
		return LibTypeGG20, nil
	case "DKLS":
		return LibTypeDKLS, nil
	case "EDDSA":
		return LibTypeEdDSA, nil
	default:
		return "", fmt.Errorf("chains: unrecognized lib type %q", s)
	}
}

// IsECDSAFamily reports whether a normalized lib type belongs to the
// ECDSA signing family (both GG20 and DKLS do).
func IsECDSAFamily(lt LibType) bool {
	return lt == LibTypeGG20 || lt == LibTypeDKLS
}
