package broadcast

import (
	"context"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/vaultmesh/vaultcore/internal/signing"
	"github.com/vaultmesh/vaultcore/internal/txbuilder"
)

// submitCosmos wraps the same body/auth_info bytes presign's
// cosmosDirectDigest hashed into a minimal TxRaw protobuf message (field 1
// body_bytes, field 2 auth_info_bytes, field 3 signatures, repeated) and
// submits it. Amino-signed transactions must carry their own pre-encoded
// body/auth_info via SignDirect for broadcast; a plain SignAmino payload
// has no protobuf TxBody to wrap and cannot be broadcast through this path.
func (b *Bridge) submitCosmos(ctx context.Context, payload *txbuilder.KeysignPayload, sigs []signing.Signature) (string, error) {
	if len(sigs) != 1 {
		return "", fmt.Errorf("%w: Cosmos transactions take exactly one signature, got %d", ErrValidationFailed, len(sigs))
	}
	if b.adapters.Cosmos == nil {
		return "", fmt.Errorf("%w: CosmosBroadcaster", ErrUnsupportedChain)
	}

	direct, ok := payload.SignData.(txbuilder.SignDirect)
	if !ok {
		return "", fmt.Errorf("%w: broadcasting requires SignDirect body/auth_info bytes, got %T", ErrValidationFailed, payload.SignData)
	}

	sigBytes, err := cosmosSignatureBytes(sigs[0])
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	txRaw := encodeTxRawProto(direct.BodyBytes, direct.AuthInfoBytes, sigBytes)

	txHash, err := b.adapters.Cosmos.BroadcastTx(ctx, txRaw)
	if err != nil {
		return "", &ErrBroadcastFailed{Detail: err.Error(), Transient: true}
	}
	return txHash, nil
}

// cosmosSignatureBytes packs R||S into the 64-byte compact form Cosmos-SDK
// transactions carry (ECDSA secp256k1 signatures have no recovery byte in
// a TxRaw; V is not transmitted).
func cosmosSignatureBytes(sig signing.Signature) ([]byte, error) {
	if len(sig.R) == 0 || len(sig.S) == 0 {
		return nil, fmt.Errorf("signature is missing R or S")
	}
	out := make([]byte, 64)
	copy(out[32-len(sig.R):32], sig.R)
	copy(out[64-len(sig.S):64], sig.S)
	return out, nil
}

// encodeTxRawProto hand-encodes Cosmos's TxRaw message: field 1 body_bytes,
// field 2 auth_info_bytes, field 3 signatures (repeated bytes, one entry
// here since this bridge only ever assembles single-signer transactions).
func encodeTxRawProto(bodyBytes, authInfoBytes, signature []byte) []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendBytes(b, bodyBytes)
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendBytes(b, authInfoBytes)
	b = protowire.AppendTag(b, 3, protowire.BytesType)
	b = protowire.AppendBytes(b, signature)
	return b
}
