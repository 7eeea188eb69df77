package presign

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/vaultmesh/vaultcore/internal/txbuilder"
)

// aminoSignDoc mirrors a Cosmos SDK StdSignDoc. Its Go field declaration
// order is alphabetical by JSON tag (account_number, chain_id, fee, memo,
// msgs, sequence), which is exactly the sorted-key order amino's JSON
// marshaler produces — so encoding/json's struct-order behavior reproduces
// the real sign bytes without a general canonical-JSON sorter.
type aminoSignDoc struct {
	AccountNumber string         `json:"account_number"`
	ChainID       string         `json:"chain_id"`
	Fee           aminoFeeJSON   `json:"fee"`
	Memo          string         `json:"memo"`
	Msgs          []aminoMsgJSON `json:"msgs"`
	Sequence      string         `json:"sequence"`
}

// aminoFeeJSON orders fields alphabetically: amount, gas, granter, payer.
type aminoFeeJSON struct {
	Amount  []txbuilder.AminoCoin `json:"amount"`
	Gas     string                `json:"gas"`
	Granter string                `json:"granter,omitempty"`
	Payer   string                `json:"payer,omitempty"`
}

type aminoMsgJSON struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

func cosmosDigests(payload *txbuilder.KeysignPayload) ([]string, error) {
	spec, ok := payload.BlockchainSpecific.(txbuilder.CosmosSpecific)
	if !ok {
		return nil, fmt.Errorf("%w: expected CosmosSpecific, got %T", ErrHashExtractionFailed, payload.BlockchainSpecific)
	}

	switch signData := payload.SignData.(type) {
	case txbuilder.SignDirect:
		return cosmosDirectDigest(signData)
	case txbuilder.SignAmino:
		return cosmosAminoDigest(spec, signData)
	default:
		return nil, fmt.Errorf("%w: Cosmos payload has no SignAmino or SignDirect data", ErrHashExtractionFailed)
	}
}

func cosmosAminoDigest(spec txbuilder.CosmosSpecific, signData txbuilder.SignAmino) ([]string, error) {
	msgs := make([]aminoMsgJSON, len(signData.Msgs))
	for i, m := range signData.Msgs {
		msgs[i] = aminoMsgJSON{Type: m.Type, Value: json.RawMessage(m.Value)}
	}
	doc := aminoSignDoc{
		AccountNumber: strconv.FormatUint(spec.AccountNumber, 10),
		ChainID:       spec.ChainID,
		Fee: aminoFeeJSON{
			Amount:  signData.Fee.Amount,
			Gas:     signData.Fee.Gas,
			Granter: signData.Fee.Granter,
			Payer:   signData.Fee.Payer,
		},
		Memo:     signData.Memo,
		Msgs:     msgs,
		Sequence: strconv.FormatUint(spec.Sequence, 10),
	}

	canonical, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: marshalling StdSignDoc: %v", ErrHashExtractionFailed, err)
	}

	digest := sha256.Sum256(canonical)
	return []string{hex.EncodeToString(digest[:])}, nil
}

// cosmosDirectDigest hashes a minimal protobuf encoding of Cosmos's SignDoc
// message (body_bytes=1, auth_info_bytes=2, chain_id=3, account_number=4)
// around the caller's pre-encoded TxBody/AuthInfo bytes. This package never
// constructs Cosmos protobuf transaction messages itself; BodyBytes and
// AuthInfoBytes are supplied by the caller, per SPEC_FULL.md §4.5 (3).
func cosmosDirectDigest(signData txbuilder.SignDirect) ([]string, error) {
	signDoc := encodeSignDocProto(signData.BodyBytes, signData.AuthInfoBytes, signData.ChainID, signData.AccountNumber)
	digest := sha256.Sum256(signDoc)
	return []string{hex.EncodeToString(digest[:])}, nil
}

// encodeSignDocProto hand-encodes Cosmos's SignDoc protobuf message using
// protowire directly, since this module does not depend on the Cosmos SDK's
// generated types: field 1 body_bytes, field 2 auth_info_bytes, field 3
// chain_id, field 4 account_number.
func encodeSignDocProto(bodyBytes, authInfoBytes []byte, chainID string, accountNumber uint64) []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendBytes(b, bodyBytes)
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendBytes(b, authInfoBytes)
	b = protowire.AppendTag(b, 3, protowire.BytesType)
	b = protowire.AppendString(b, chainID)
	b = protowire.AppendTag(b, 4, protowire.VarintType)
	b = protowire.AppendVarint(b, accountNumber)
	return b
}
