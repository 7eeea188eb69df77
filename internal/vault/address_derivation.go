package vault

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/ripemd160"
	"golang.org/x/crypto/sha3"
)

// DeriveAddressesFromVault derives all chain addresses from vault public keys
// This is the PROPER implementation that works for ANY vault
func DeriveAddressesFromVault(vaultInfo *VaultInfo) []VaultAddress {
	var addresses []VaultAddress

	// Process ECDSA public key for Bitcoin and EVM chains
	if vaultInfo.PublicKeyECDSA != "" {
		addresses = append(addresses, deriveECDSAAddresses(vaultInfo.PublicKeyECDSA, vaultInfo.HexChainCode)...)
	}

	// Process EdDSA public key for Solana and other Ed25519 chains
	if vaultInfo.PublicKeyEDDSA != "" {
		addresses = append(addresses, deriveEdDSAAddresses(vaultInfo.PublicKeyEDDSA)...)
	}

	// Sort addresses alphabetically by chain name for consistent output
	sort.Slice(addresses, func(i, j int) bool {
		return addresses[i].Chain < addresses[j].Chain
	})

	return addresses
}

// deriveECDSAAddresses derives addresses for all ECDSA-based chains
func deriveECDSAAddresses(pubKeyHex string, chainCodeHex string) []VaultAddress {
	var addresses []VaultAddress

	// Decode the hex public key
	pubKeyBytes, err := hex.DecodeString(pubKeyHex)
	if err != nil {
		fmt.Printf("Error decoding ECDSA public key: %v\n", err)
		return addresses
	}

	// Parse the public key
	masterPubKey, err := secp256k1.ParsePubKey(pubKeyBytes)
	if err != nil {
		fmt.Printf("Error parsing ECDSA public key: %v\n", err)
		return addresses
	}

	// Decode chain code
	chainCodeBytes, err := hex.DecodeString(chainCodeHex)
	if err != nil {
		fmt.Printf("Error decoding chain code: %v\n", err)
		// Use zero chain code if not provided
		chainCodeBytes = make([]byte, 32)
	}

	// Create extended public key for HD derivation
	net := &chaincfg.MainNetParams
	extendedPubKey := hdkeychain.NewExtendedKey(
		net.HDPublicKeyID[:],
		masterPubKey.SerializeCompressed(),
		chainCodeBytes,
		[]byte{0x00, 0x00, 0x00, 0x00},
		0,
		0,
		false, // isPrivate = false for public key
	)

	// Bitcoin - Native SegWit (P2WPKH)
	btcPath := "m/84'/0'/0'/0/0"
	btcPubKey := deriveChildPublicKey(extendedPubKey, btcPath)
	if btcPubKey != nil {
		btcAddr := deriveBitcoinSegwitAddress(btcPubKey)
		addresses = append(addresses, VaultAddress{
			Chain:      "Bitcoin",
			Ticker:     "BTC",
			Address:    btcAddr,
			DerivePath: btcPath,
		})
	}

	// Bitcoin Cash - Legacy P2PKH
	bchPath := "m/44'/145'/0'/0/0"
	bchPubKey := deriveChildPublicKey(extendedPubKey, bchPath)
	if bchPubKey != nil {
		bchAddr := deriveBitcoinCashAddress(bchPubKey)
		addresses = append(addresses, VaultAddress{
			Chain:      "Bitcoin-Cash",
			Ticker:     "BCH",
			Address:    bchAddr,
			DerivePath: bchPath,
		})
	}

	// Litecoin - Native SegWit
	ltcPath := "m/84'/2'/0'/0/0"
	ltcPubKey := deriveChildPublicKey(extendedPubKey, ltcPath)
	if ltcPubKey != nil {
		ltcAddr := deriveLitecoinSegwitAddress(ltcPubKey)
		addresses = append(addresses, VaultAddress{
			Chain:      "Litecoin",
			Ticker:     "LTC",
			Address:    ltcAddr,
			DerivePath: ltcPath,
		})
	}

	// Dogecoin - Legacy P2PKH
	dogePath := "m/44'/3'/0'/0/0"
	dogePubKey := deriveChildPublicKey(extendedPubKey, dogePath)
	if dogePubKey != nil {
		dogeAddr := deriveDogecoinAddress(dogePubKey)
		addresses = append(addresses, VaultAddress{
			Chain:      "Dogecoin",
			Ticker:     "DOGE",
			Address:    dogeAddr,
			DerivePath: dogePath,
		})
	}

	// Dash - Legacy P2PKH
	dashPath := "m/44'/5'/0'/0/0"
	dashPubKey := deriveChildPublicKey(extendedPubKey, dashPath)
	if dashPubKey != nil {
		dashAddr := deriveDashAddress(dashPubKey)
		addresses = append(addresses, VaultAddress{
			Chain:      "Dash",
			Ticker:     "DASH",
			Address:    dashAddr,
			DerivePath: dashPath,
		})
	}

	// Zcash - Transparent address
	zecPath := "m/44'/133'/0'/0/0"
	zecPubKey := deriveChildPublicKey(extendedPubKey, zecPath)
	if zecPubKey != nil {
		zecAddr := deriveZcashAddress(zecPubKey)
		addresses = append(addresses, VaultAddress{
			Chain:      "Zcash",
			Ticker:     "ZEC",
			Address:    zecAddr,
			DerivePath: zecPath,
		})
	}

	// Ethereum and all EVM chains
	evmPath := "m/44'/60'/0'/0/0"
	ethPubKey := deriveChildPublicKey(extendedPubKey, evmPath)
	var ethAddr string
	if ethPubKey != nil {
		ethAddr = deriveEthereumAddress(ethPubKey)
	} else {
		// Fallback to master key if derivation fails
		ethAddr = deriveEthereumAddress(masterPubKey)
	}

	// All EVM chains use the same address
	evmChains := []struct {
		Chain  string
		Ticker string
	}{
		{"Ethereum", "ETH"},
		{"BSC", "BSC"},
		{"Avalanche", "AVAX"},
		{"Polygon", "MATIC"},
		{"CronosChain", "CRO"},
		{"Arbitrum", "ETH"},
		{"Optimism", "ETH"},
		{"Base", "ETH"},
		{"Blast", "ETH"},
		{"Zksync", "ETH"},
	}

	for _, chain := range evmChains {
		addresses = append(addresses, VaultAddress{
			Chain:      chain.Chain,
			Ticker:     chain.Ticker,
			Address:    ethAddr,
			DerivePath: evmPath,
		})
	}

	// THORChain - Bech32 with "thor" prefix
	thorPath := "m/44'/931'/0'/0/0"
	thorPubKey := deriveChildPublicKey(extendedPubKey, thorPath)
	if thorPubKey != nil {
		thorAddr := deriveThorchainAddress(thorPubKey)
		addresses = append(addresses, VaultAddress{
			Chain:      "THORChain",
			Ticker:     "RUNE",
			Address:    thorAddr,
			DerivePath: thorPath,
		})
	}

	return addresses
}

// deriveEdDSAAddresses derives addresses for EdDSA-based chains
func deriveEdDSAAddresses(pubKeyHex string) []VaultAddress {
	var addresses []VaultAddress

	// Decode the hex public key
	pubKeyBytes, err := hex.DecodeString(pubKeyHex)
	if err != nil {
		fmt.Printf("Error decoding EdDSA public key: %v\n", err)
		return addresses
	}

	// Solana - Base58 encoding of the public key
	solAddr := base58.Encode(pubKeyBytes)
	addresses = append(addresses, VaultAddress{
		Chain:      "Solana",
		Ticker:     "SOL",
		Address:    solAddr,
		DerivePath: "m/44'/501'/0'/0'",
	})

	// SUI - blake2b-256(flag || pubkey), flag 0x00 selects the Ed25519 scheme
	suiAddr := deriveSUIAddressFromPubKey(pubKeyBytes)
	addresses = append(addresses, VaultAddress{
		Chain:      "SUI",
		Ticker:     "SUI",
		Address:    suiAddr,
		DerivePath: "m/44'/784'/0'/0'/0'",
	})

	return addresses
}

// Bitcoin address derivation functions

func deriveBitcoinSegwitAddress(pubKey *secp256k1.PublicKey) string {
	// Get compressed public key
	pubKeyCompressed := pubKey.SerializeCompressed()

	// Hash160 = RIPEMD160(SHA256(pubkey))
	hash160 := hash160(pubKeyCompressed)

	// Create witness program (version 0 + hash160)
	addr, err := btcutil.NewAddressWitnessPubKeyHash(hash160, &chaincfg.MainNetParams)
	if err != nil {
		return "error: " + err.Error()
	}

	return addr.EncodeAddress()
}

// deriveBitcoinCashAddress encodes a P2KH CashAddr for a 20-byte hash160
// public key hash: version byte (type 0 = P2KH, size bits 0 = 160 bits)
// followed by the hash, regrouped into 5-bit words and bech32-style
// checksummed per the CashAddr spec. The "bitcoincash:" prefix is stripped
// to match how this module displays BCH addresses elsewhere.
func deriveBitcoinCashAddress(pubKey *secp256k1.PublicKey) string {
	pubKeyCompressed := pubKey.SerializeCompressed()
	h160 := hash160(pubKeyCompressed)

	payload := append([]byte{0x00}, h160...)
	converted, err := convertBits(payload, 8, 5, true)
	if err != nil {
		return "error: " + err.Error()
	}

	addr, err := encodeCashAddr("bitcoincash", converted)
	if err != nil {
		return "error: " + err.Error()
	}
	return strings.TrimPrefix(addr, "bitcoincash:")
}

// deriveSUIAddressFromPubKey implements Sui's address scheme: the address
// is the lowercase-hex, 0x-prefixed blake2b-256 digest of a one-byte scheme
// flag (0x00 for Ed25519) followed by the raw 32-byte public key.
func deriveSUIAddressFromPubKey(pubKey []byte) string {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "error: " + err.Error()
	}
	h.Write([]byte{0x00})
	h.Write(pubKey)
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

func deriveLitecoinSegwitAddress(pubKey *secp256k1.PublicKey) string {
	// Litecoin SegWit uses "ltc" prefix
	pubKeyCompressed := pubKey.SerializeCompressed()
	hash160 := hash160(pubKeyCompressed)

	// Create Litecoin parameters (copy of Bitcoin with different bech32 HRP)
	ltcParams := chaincfg.MainNetParams
	ltcParams.Bech32HRPSegwit = "ltc"

	addr, err := btcutil.NewAddressWitnessPubKeyHash(hash160, &ltcParams)
	if err != nil {
		return "error: " + err.Error()
	}

	// EncodeAddress uses ltcParams' "ltc" HRP; the rewrite below only applies
	// if the result still starts with "bc1"
	addrStr := addr.EncodeAddress()
	if len(addrStr) > 3 && addrStr[:3] == "bc1" {
		return "ltc1" + addrStr[3:]
	}
	return addrStr
}

func deriveDogecoinAddress(pubKey *secp256k1.PublicKey) string {
	// Dogecoin uses version byte 0x1E (30) for P2PKH
	pubKeyCompressed := pubKey.SerializeCompressed()
	hash160 := hash160(pubKeyCompressed)
	return base58.CheckEncode(hash160, 0x1E)
}

func deriveDashAddress(pubKey *secp256k1.PublicKey) string {
	// Dash uses version byte 0x4C (76) for P2PKH
	pubKeyCompressed := pubKey.SerializeCompressed()
	hash160 := hash160(pubKeyCompressed)
	return base58.CheckEncode(hash160, 0x4C)
}

func deriveZcashAddress(pubKey *secp256k1.PublicKey) string {
	// Zcash transparent addresses use two-byte version 0x1CB8
	pubKeyCompressed := pubKey.SerializeCompressed()
	hash160 := hash160(pubKeyCompressed)

	// Prepend the two-byte version
	versionedPayload := append([]byte{0x1C, 0xB8}, hash160...)

	// Calculate checksum
	checksum := sha256.Sum256(versionedPayload)
	checksum = sha256.Sum256(checksum[:])

	// Append first 4 bytes of checksum
	fullPayload := append(versionedPayload, checksum[:4]...)

	return base58.Encode(fullPayload)
}

func deriveEthereumAddress(pubKey *secp256k1.PublicKey) string {
	// Get uncompressed public key (Ethereum uses uncompressed)
	pubKeyUncompressed := pubKey.SerializeUncompressed()

	// Remove the 0x04 prefix
	if len(pubKeyUncompressed) == 65 && pubKeyUncompressed[0] == 0x04 {
		pubKeyUncompressed = pubKeyUncompressed[1:]
	}

	// Keccak256 hash
	hash := sha3.NewLegacyKeccak256()
	hash.Write(pubKeyUncompressed)
	hashBytes := hash.Sum(nil)

	// Take last 20 bytes
	return "0x" + hex.EncodeToString(hashBytes[12:])
}

func deriveThorchainAddress(pubKey *secp256k1.PublicKey) string {
	// THORChain uses Cosmos-style bech32 addresses with "thor" prefix
	pubKeyCompressed := pubKey.SerializeCompressed()
	hash160 := hash160(pubKeyCompressed)

	// Convert to bech32 5-bit encoding
	conv, err := bech32.ConvertBits(hash160, 8, 5, true)
	if err != nil {
		return "error: " + err.Error()
	}

	// Encode with "thor" human-readable part using proper bech32
	addr, err := bech32.Encode("thor", conv)
	if err != nil {
		return "error: " + err.Error()
	}

	return addr
}

// deriveChildPublicKey derives a child public key using HD derivation path
// IMPORTANT: Vultisig treats ALL paths as non-hardened, even if they have ' notation
func deriveChildPublicKey(extendedPubKey *hdkeychain.ExtendedKey, derivePath string) *secp256k1.PublicKey {
	// Parse derivation path
	pathComponents := strings.Split(derivePath, "/")
	if len(pathComponents) == 0 || pathComponents[0] != "m" {
		fmt.Printf("Invalid derivation path: %s\n", derivePath)
		return nil
	}

	key := extendedPubKey
	for i := 1; i < len(pathComponents); i++ {
		component := pathComponents[i]
		// CRITICAL: Strip the hardened marker - Vultisig treats all paths as non-hardened!
		// This is how they can derive from public keys only
		component = strings.TrimSuffix(component, "'")

		var index uint32
		if _, err := fmt.Sscanf(component, "%d", &index); err != nil {
			fmt.Printf("Invalid path component: %s\n", component)
			return nil
		}

		// Always use non-hardened derivation (index < 2^31)
		// This allows derivation from public keys only
		var err error
		key, err = key.Derive(index)
		if err != nil {
			fmt.Printf("Failed to derive key at index %d: %v\n", index, err)
			return nil
		}
	}

	// Get the public key
	pubKey, err := key.ECPubKey()
	if err != nil {
		fmt.Printf("Failed to get public key: %v\n", err)
		return nil
	}

	return pubKey
}

// Helper function for RIPEMD160(SHA256(data))
func hash160(data []byte) []byte {
	sha := sha256.Sum256(data)
	ripemd := ripemd160.New()
	ripemd.Write(sha[:])
	return ripemd.Sum(nil)
}

// CashAddr encoding for Bitcoin Cash (based on bech32)
func encodeCashAddr(hrp string, data []byte) (string, error) {
	// CashAddr uses a modified bech32 encoding
	// It uses different constants but follows the same algorithm

	// Convert data to 5-bit groups (already done in caller)
	// Add the HRP to the checksum calculation
	values := append(bech32HrpExpand(hrp), data...)
	polymod := bech32Polymod(append(values, []byte{0, 0, 0, 0, 0, 0, 0, 0}...))
	for i := 0; i < 8; i++ {
		values = append(values, byte(polymod>>uint(5*(7-i)))&31)
	}

	// Convert to base32 characters
	ret := hrp + ":"
	for _, value := range data {
		if value >= 32 {
			return "", fmt.Errorf("invalid data for CashAddr encoding")
		}
		ret += string("qpzry9x8gf2tvdw0s3jn54khce6mua7l"[value])
	}

	// Add checksum
	checksum := bech32Polymod(values) ^ 1
	for i := 0; i < 8; i++ {
		ret += string("qpzry9x8gf2tvdw0s3jn54khce6mua7l"[(checksum>>uint(5*(7-i)))&31])
	}

	return ret, nil
}

// Helper functions for CashAddr encoding
func bech32HrpExpand(hrp string) []byte {
	ret := make([]byte, len(hrp)+1+len(hrp))
	for i, c := range hrp {
		ret[i] = byte(c) >> 5
	}
	ret[len(hrp)] = 0
	for i, c := range hrp {
		ret[len(hrp)+1+i] = byte(c) & 31
	}
	return ret
}

func bech32Polymod(values []byte) uint32 {
	gen := []uint32{0x3b6a57b2, 0x26508e6d, 0x1ea119fa, 0x3d4233dd, 0x2a1462b3}
	chk := uint32(1)
	for _, value := range values {
		top := chk >> 25
		chk = (chk&0x1ffffff)<<5 ^ uint32(value)
		for i := 0; i < 5; i++ {
			if (top>>uint(i))&1 == 1 {
				chk ^= gen[i]
			}
		}
	}
	return chk
}

// convertBits converts between bit groups
func convertBits(data []byte, fromBits, toBits uint8, pad bool) ([]byte, error) {
	var result []byte
	acc := uint32(0)
	bits := uint8(0)

	for _, b := range data {
		acc = (acc << fromBits) | uint32(b)
		bits += fromBits

		for bits >= toBits {
			bits -= toBits
			result = append(result, byte(acc>>bits)&((1<<toBits)-1))
		}
	}

	if pad && bits > 0 {
		result = append(result, byte(acc<<(toBits-bits))&((1<<toBits)-1))
	}

	return result, nil
}
