// Package txbuilder assembles a KeysignPayload — a canonical, chain-agnostic
// description of a transaction to be signed — from high-level user intent
// (send, Cosmos SignAmino, Cosmos SignDirect, CosmWasm execute). It consults
// internal/chains for curve, tx format, and fee policy and never embeds
// chain knowledge of its own.
package txbuilder

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vaultmesh/vaultcore/internal/chains"
	"github.com/vaultmesh/vaultcore/internal/types"
)

// Sentinel errors mirror the taxonomy SPEC_FULL.md assigns to C5; wrap these
// with fmt.Errorf("%w: ...") for operation-specific context.
var (
	ErrInvalidAddress   = errors.New("txbuilder: invalid receiver address")
	ErrInvalidConfig    = errors.New("txbuilder: invalid configuration for this chain")
	ErrInsufficientFunds = errors.New("txbuilder: insufficient funds for amount plus fee")
	ErrRPCUnavailable   = errors.New("txbuilder: chain data source unavailable")
	ErrUnsupportedChain = errors.New("txbuilder: chain is not supported by this builder")
	ErrBuildFailed      = errors.New("txbuilder: failed to assemble payload")
)

// Coin identifies the asset a payload moves: a chain's native unit, or one
// of its tokens when ContractAddress is set.
type Coin struct {
	Chain           types.SupportedChain
	Address         string // sender's derived address
	HexPublicKey    string // sender's public key, hex-encoded
	Ticker          string
	Decimals        int
	ContractAddress string // empty for the chain's native coin
	IsNative        bool
}

// BlockchainSpecific is the tagged variant carrying per-format transaction
// fields. Exactly one concrete type is set on a given KeysignPayload,
// matching the chain's registry TxFormat.
type BlockchainSpecific interface {
	blockchainSpecificMarker()
}

// UTXOInput is one unspent output selected to fund a transaction.
type UTXOInput struct {
	TxID         string
	Vout         uint32
	Amount       int64 // satoshis
	ScriptPubKey []byte
}

// UTXOSpecific carries everything C6/C8 need to build and hash a UTXO
// transaction: the selected inputs and the fee/change decision C5 already
// made, so downstream components never re-run input selection.
type UTXOSpecific struct {
	Inputs        []UTXOInput
	FeeRate       int64 // satoshis per vByte
	ChangeAddress string
	ChangeAmount  int64 // 0 when change was folded into the fee
}

func (UTXOSpecific) blockchainSpecificMarker() {}

// EVMSpecific carries an EIP-1559 fee envelope; GasPrice is set instead of
// the Max*Fee fields on chains whose registry FeeModel is FeeModelGasLegacy.
type EVMSpecific struct {
	Nonce                uint64
	ChainID              string // decimal string, parsed with (*big.Int).SetString
	GasLimit             uint64
	MaxFeePerGas         string // wei, decimal string; EIP-1559 chains
	MaxPriorityFeePerGas string // wei, decimal string; EIP-1559 chains
	GasPrice             string // wei, decimal string; legacy chains
	Data                 []byte // contract call data; empty for a plain transfer
}

func (EVMSpecific) blockchainSpecificMarker() {}

// CosmosSpecific carries the account state a Cosmos-SDK transaction's
// SignDoc is built against.
type CosmosSpecific struct {
	AccountNumber uint64
	Sequence      uint64
	Gas           uint64
	ChainID       string
}

func (CosmosSpecific) blockchainSpecificMarker() {}

// SolanaSpecific carries the compiled message bytes a Solana transaction
// signs over, plus the blockhash used to compile them.
type SolanaSpecific struct {
	RecentBlockhash   string
	MessageBytes      []byte
	PriorityFeeMicroLamports uint64 // 0 disables the compute-budget instruction
	ComputeUnitLimit  uint32        // 0 lets the runtime pick a default
}

func (SolanaSpecific) blockchainSpecificMarker() {}

// SignData is the optional tagged variant for Cosmos messages that are not
// plain sends: a custom Amino message set, a pre-encoded Direct SignDoc, or
// a CosmWasm execute (itself an Amino specialization).
type SignData interface {
	signDataMarker()
}

// AminoCoin is one denom/amount pair inside an Amino fee or MsgSend value.
type AminoCoin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// AminoFee is the `fee` object of a StdSignDoc.
type AminoFee struct {
	Amount  []AminoCoin `json:"amount"`
	Gas     string      `json:"gas"`
	Payer   string      `json:"payer,omitempty"`
	Granter string      `json:"granter,omitempty"`
}

// AminoMsg is one entry of a StdSignDoc's `msgs` array. Value is kept as
// raw JSON so callers can supply any message type, including
// "wasm/MsgExecuteContract", without this package knowing its shape.
type AminoMsg struct {
	Type  string `json:"type"`
	Value []byte `json:"value"` // raw JSON object, not base64
}

// SignAmino is legacy-Amino SignData: a StdSignDoc's mutable parts. The
// account number, chain id, and sequence live on the payload's
// CosmosSpecific, matching the StdSignDoc's immutable parts.
type SignAmino struct {
	Msgs []AminoMsg
	Fee  AminoFee
	Memo string
}

func (SignAmino) signDataMarker() {}

// SignDirect is protobuf SignData: the caller supplies pre-encoded body and
// auth-info bytes (e.g. produced by a Cosmos SDK client elsewhere); this
// package never constructs Cosmos protobuf messages itself.
type SignDirect struct {
	BodyBytes     []byte
	AuthInfoBytes []byte
	ChainID       string
	AccountNumber uint64
}

func (SignDirect) signDataMarker() {}

// KeysignPayload is the canonical, chain-agnostic description of a
// transaction to be signed. C6 turns it into message digests; C7 signs
// those digests; C8 turns payload+signatures into wire bytes.
type KeysignPayload struct {
	Coin                Coin
	ToAddress           string
	ToAmount            string // base-unit decimal string; never a float
	Memo                string
	VaultLocalPartyID   string
	VaultPublicKeyECDSA string
	LibType             chains.LibType
	BlockchainSpecific  BlockchainSpecific
	SignData            SignData // nil for a plain send
}

// keysignPayloadWire is KeysignPayload's on-the-wire shape: BlockchainSpecific
// and SignData are interfaces, so they round-trip through JSON as a kind tag
// plus the concrete struct, the same way AminoMsg tags its Value.
type keysignPayloadWire struct {
	Coin                Coin
	ToAddress           string
	ToAmount            string
	Memo                string
	VaultLocalPartyID   string
	VaultPublicKeyECDSA string
	LibType             chains.LibType
	BlockchainSpecific  *blockchainSpecificWire `json:",omitempty"`
	SignData            *signDataWire           `json:",omitempty"`
}

type blockchainSpecificWire struct {
	Kind  string
	Value json.RawMessage
}

type signDataWire struct {
	Kind  string
	Value json.RawMessage
}

// MarshalJSON tags BlockchainSpecific and SignData with their concrete kind
// so UnmarshalJSON can rebuild the right struct on the way back in.
func (p KeysignPayload) MarshalJSON() ([]byte, error) {
	wire := keysignPayloadWire{
		Coin:                p.Coin,
		ToAddress:           p.ToAddress,
		ToAmount:            p.ToAmount,
		Memo:                p.Memo,
		VaultLocalPartyID:   p.VaultLocalPartyID,
		VaultPublicKeyECDSA: p.VaultPublicKeyECDSA,
		LibType:             p.LibType,
	}

	if p.BlockchainSpecific != nil {
		kind, raw, err := marshalBlockchainSpecific(p.BlockchainSpecific)
		if err != nil {
			return nil, err
		}
		wire.BlockchainSpecific = &blockchainSpecificWire{Kind: kind, Value: raw}
	}

	if p.SignData != nil {
		kind, raw, err := marshalSignData(p.SignData)
		if err != nil {
			return nil, err
		}
		wire.SignData = &signDataWire{Kind: kind, Value: raw}
	}

	return json.Marshal(wire)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (p *KeysignPayload) UnmarshalJSON(data []byte) error {
	var wire keysignPayloadWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	p.Coin = wire.Coin
	p.ToAddress = wire.ToAddress
	p.ToAmount = wire.ToAmount
	p.Memo = wire.Memo
	p.VaultLocalPartyID = wire.VaultLocalPartyID
	p.VaultPublicKeyECDSA = wire.VaultPublicKeyECDSA
	p.LibType = wire.LibType

	if wire.BlockchainSpecific != nil {
		spec, err := unmarshalBlockchainSpecific(wire.BlockchainSpecific.Kind, wire.BlockchainSpecific.Value)
		if err != nil {
			return err
		}
		p.BlockchainSpecific = spec
	}

	if wire.SignData != nil {
		sd, err := unmarshalSignData(wire.SignData.Kind, wire.SignData.Value)
		if err != nil {
			return err
		}
		p.SignData = sd
	}

	return nil
}

func marshalBlockchainSpecific(spec BlockchainSpecific) (kind string, raw json.RawMessage, err error) {
	switch v := spec.(type) {
	case UTXOSpecific:
		kind = "utxo"
		raw, err = json.Marshal(v)
	case EVMSpecific:
		kind = "evm"
		raw, err = json.Marshal(v)
	case CosmosSpecific:
		kind = "cosmos"
		raw, err = json.Marshal(v)
	case SolanaSpecific:
		kind = "solana"
		raw, err = json.Marshal(v)
	default:
		return "", nil, fmt.Errorf("txbuilder: unknown BlockchainSpecific type %T", spec)
	}
	return kind, raw, err
}

func unmarshalBlockchainSpecific(kind string, raw json.RawMessage) (BlockchainSpecific, error) {
	switch kind {
	case "utxo":
		var v UTXOSpecific
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	case "evm":
		var v EVMSpecific
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	case "cosmos":
		var v CosmosSpecific
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	case "solana":
		var v SolanaSpecific
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, fmt.Errorf("txbuilder: unknown blockchain_specific kind %q", kind)
	}
}

func marshalSignData(sd SignData) (kind string, raw json.RawMessage, err error) {
	switch v := sd.(type) {
	case SignAmino:
		kind = "amino"
		raw, err = json.Marshal(v)
	case SignDirect:
		kind = "direct"
		raw, err = json.Marshal(v)
	default:
		return "", nil, fmt.Errorf("txbuilder: unknown SignData type %T", sd)
	}
	return kind, raw, err
}

func unmarshalSignData(kind string, raw json.RawMessage) (SignData, error) {
	switch kind {
	case "amino":
		var v SignAmino
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	case "direct":
		var v SignDirect
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, fmt.Errorf("txbuilder: unknown sign_data kind %q", kind)
	}
}
