package presign

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/vaultmesh/vaultcore/internal/txbuilder"
)

// utxoDigests builds the unsigned transaction from payload's selected
// inputs and change decision, then returns one BIP-143 witness sighash per
// input, in input order, matching SPEC_FULL.md §4.6's UTXO procedure.
func utxoDigests(payload *txbuilder.KeysignPayload) ([]string, error) {
	spec, ok := payload.BlockchainSpecific.(txbuilder.UTXOSpecific)
	if !ok {
		return nil, fmt.Errorf("%w: expected UTXOSpecific, got %T", ErrHashExtractionFailed, payload.BlockchainSpecific)
	}
	if len(spec.Inputs) == 0 {
		return nil, fmt.Errorf("%w: no inputs on payload", ErrHashExtractionFailed)
	}

	toAddr, err := btcutil.DecodeAddress(payload.ToAddress, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding receiver address: %v", ErrHashExtractionFailed, err)
	}
	toScript, err := txscript.PayToAddrScript(toAddr)
	if err != nil {
		return nil, fmt.Errorf("%w: building receiver script: %v", ErrHashExtractionFailed, err)
	}

	amount, ok := new(big.Int).SetString(payload.ToAmount, 10)
	if !ok {
		return nil, fmt.Errorf("%w: amount %q is not an integer", ErrHashExtractionFailed, payload.ToAmount)
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	for _, in := range spec.Inputs {
		hash, err := chainhash.NewHashFromStr(in.TxID)
		if err != nil {
			return nil, fmt.Errorf("%w: parsing input txid %s: %v", ErrHashExtractionFailed, in.TxID, err)
		}
		tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(hash, in.Vout), nil, nil))
	}
	tx.AddTxOut(wire.NewTxOut(amount.Int64(), toScript))
	if spec.ChangeAmount > 0 {
		changeAddr, err := btcutil.DecodeAddress(spec.ChangeAddress, &chaincfg.MainNetParams)
		if err != nil {
			return nil, fmt.Errorf("%w: decoding change address: %v", ErrHashExtractionFailed, err)
		}
		changeScript, err := txscript.PayToAddrScript(changeAddr)
		if err != nil {
			return nil, fmt.Errorf("%w: building change script: %v", ErrHashExtractionFailed, err)
		}
		tx.AddTxOut(wire.NewTxOut(spec.ChangeAmount, changeScript))
	}

	sigHashes := txscript.NewTxSigHashes(tx, nil)
	digests := make([]string, len(spec.Inputs))
	for i, in := range spec.Inputs {
		if len(in.ScriptPubKey) != 22 || in.ScriptPubKey[0] != 0x00 || in.ScriptPubKey[1] != 0x14 {
			return nil, fmt.Errorf("%w: input %d is not a P2WPKH scriptPubKey", ErrHashExtractionFailed, i)
		}
		pubKeyHash := in.ScriptPubKey[2:]
		scriptCode, err := txscript.NewScriptBuilder().
			AddOp(txscript.OP_DUP).
			AddOp(txscript.OP_HASH160).
			AddData(pubKeyHash).
			AddOp(txscript.OP_EQUALVERIFY).
			AddOp(txscript.OP_CHECKSIG).
			Script()
		if err != nil {
			return nil, fmt.Errorf("%w: building script code for input %d: %v", ErrHashExtractionFailed, i, err)
		}

		hash, err := txscript.CalcWitnessSigHash(scriptCode, sigHashes, txscript.SigHashAll, tx, i, in.Amount)
		if err != nil {
			return nil, fmt.Errorf("%w: computing witness sighash for input %d: %v", ErrHashExtractionFailed, i, err)
		}
		digests[i] = hex.EncodeToString(hash)
	}
	return digests, nil
}
