package broadcast

import (
	"bytes"
	"context"
	"encoding/asn1"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/vaultmesh/vaultcore/internal/signing"
	"github.com/vaultmesh/vaultcore/internal/txbuilder"
)

func chainHashFromHex(txid string) (*chainhash.Hash, error) {
	return chainhash.NewHashFromStr(txid)
}

// addUTXOOutputs rebuilds the same output set presign's utxoDigests built,
// so the sighash this bridge's signatures correspond to matches what was
// actually signed.
func addUTXOOutputs(tx *wire.MsgTx, payload *txbuilder.KeysignPayload, spec txbuilder.UTXOSpecific) error {
	toAddr, err := btcutil.DecodeAddress(payload.ToAddress, &chaincfg.MainNetParams)
	if err != nil {
		return fmt.Errorf("%w: decoding receiver address: %v", ErrValidationFailed, err)
	}
	toScript, err := txscript.PayToAddrScript(toAddr)
	if err != nil {
		return fmt.Errorf("%w: building receiver script: %v", ErrValidationFailed, err)
	}
	amount, ok := new(big.Int).SetString(payload.ToAmount, 10)
	if !ok {
		return fmt.Errorf("%w: amount %q is not an integer", ErrValidationFailed, payload.ToAmount)
	}
	tx.AddTxOut(wire.NewTxOut(amount.Int64(), toScript))

	if spec.ChangeAmount > 0 {
		changeAddr, err := btcutil.DecodeAddress(spec.ChangeAddress, &chaincfg.MainNetParams)
		if err != nil {
			return fmt.Errorf("%w: decoding change address: %v", ErrValidationFailed, err)
		}
		changeScript, err := txscript.PayToAddrScript(changeAddr)
		if err != nil {
			return fmt.Errorf("%w: building change script: %v", ErrValidationFailed, err)
		}
		tx.AddTxOut(wire.NewTxOut(spec.ChangeAmount, changeScript))
	}
	return nil
}

// derEncodeECDSA DER-encodes an R/S signature pair for a P2WPKH witness
// stack entry.
func derEncodeECDSA(sig signing.Signature) ([]byte, error) {
	type ecdsaSig struct{ R, S *big.Int }
	r := new(big.Int).SetBytes(sig.R)
	s := new(big.Int).SetBytes(sig.S)
	if r.Sign() == 0 || s.Sign() == 0 {
		return nil, fmt.Errorf("signature has a zero R or S component")
	}
	return asn1.Marshal(ecdsaSig{R: r, S: s})
}

// submitUTXO reconstructs the same wire.MsgTx presign built sighashes for,
// attaches a P2WPKH witness (signature + local pubkey) per input, and
// submits the fully-serialized raw transaction.
func (b *Bridge) submitUTXO(ctx context.Context, payload *txbuilder.KeysignPayload, sigs []signing.Signature) (string, error) {
	spec, ok := payload.BlockchainSpecific.(txbuilder.UTXOSpecific)
	if !ok {
		return "", fmt.Errorf("%w: expected UTXOSpecific, got %T", ErrValidationFailed, payload.BlockchainSpecific)
	}
	if len(sigs) != len(spec.Inputs) {
		return "", fmt.Errorf("%w: %d signatures for %d inputs", ErrValidationFailed, len(sigs), len(spec.Inputs))
	}
	if b.adapters.UTXO == nil {
		return "", fmt.Errorf("%w: UTXOBroadcaster", ErrUnsupportedChain)
	}

	pubKey, err := hex.DecodeString(payload.Coin.HexPublicKey)
	if err != nil {
		return "", fmt.Errorf("%w: decoding public key: %v", ErrValidationFailed, err)
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	for _, in := range spec.Inputs {
		hash, err := chainHashFromHex(in.TxID)
		if err != nil {
			return "", fmt.Errorf("%w: input txid %s: %v", ErrValidationFailed, in.TxID, err)
		}
		tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(hash, in.Vout), nil, nil))
	}
	if err := addUTXOOutputs(tx, payload, spec); err != nil {
		return "", err
	}

	for i, in := range spec.Inputs {
		if len(in.ScriptPubKey) != 22 || in.ScriptPubKey[0] != txscript.OP_0 || in.ScriptPubKey[1] != 0x14 {
			return "", fmt.Errorf("%w: input %d is not a recognized P2WPKH scriptPubKey", ErrValidationFailed, i)
		}
		sigDER, err := derEncodeECDSA(sigs[i])
		if err != nil {
			return "", fmt.Errorf("%w: input %d: %v", ErrValidationFailed, i, err)
		}
		witness := wire.TxWitness{
			append(sigDER, byte(txscript.SigHashAll)),
			pubKey,
		}
		tx.TxIn[i].Witness = witness
	}

	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return "", fmt.Errorf("%w: serializing transaction: %v", ErrValidationFailed, err)
	}

	txHash, err := b.adapters.UTXO.BroadcastRawTx(ctx, hex.EncodeToString(buf.Bytes()))
	if err != nil {
		return "", &ErrBroadcastFailed{Detail: err.Error(), Transient: true}
	}
	return txHash, nil
}
