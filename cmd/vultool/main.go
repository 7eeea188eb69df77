package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vaultmesh/vaultcore/internal/chains"
	"github.com/vaultmesh/vaultcore/internal/presign"
	"github.com/vaultmesh/vaultcore/internal/store"
	"github.com/vaultmesh/vaultcore/internal/txbuilder"
	"github.com/vaultmesh/vaultcore/internal/types"
	"github.com/vaultmesh/vaultcore/internal/util"
	"github.com/vaultmesh/vaultcore/internal/vault"
)

// Version is set at build time from VERSION file
// Build with: go build -ldflags "-X main.version=$(cat VERSION)"
var version = "dev"

// openVaultStore opens the filesystem-backed vault store rooted at dir, or
// at the OS config dir's "vultool/vaults" when dir is empty.
func openVaultStore(dir string) (*store.FileStore, error) {
	if dir == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolving default store directory: %w", err)
		}
		dir = filepath.Join(configDir, "vultool", "vaults")
	}
	return store.NewFileStore(dir)
}

// showFirstRunMessage displays a welcome message for first-time users
func showFirstRunMessage() {
	// Get user config directory
	configDir, err := os.UserConfigDir()
	if err != nil {
		// If we can't get config dir, skip the message rather than error
		return
	}

	// Create vultool config directory if it doesn't exist
	vultoolDir := filepath.Join(configDir, "vultool")
	// #nosec G301 - Standard config directory permissions
	if err := os.MkdirAll(vultoolDir, 0o750); err != nil {
		return
	}

	// Check if first-run marker exists
	firstRunFile := filepath.Join(vultoolDir, ".installed")
	if _, err := os.Stat(firstRunFile); err == nil {
		// File exists, not first run
		return
	}

	// Show welcome message
	fmt.Println("\n🎉 vultool installed successfully!")
	fmt.Printf("Version: %s\n", version)
	fmt.Println("\nNext steps:")
	fmt.Println("  vultool --help           # Show all available commands")
	fmt.Println("  vultool info -f file.vult    # Quick vault information")
	fmt.Println("  vultool inspect -f file.vult # Detailed vault inspection")
	fmt.Println("\nFor more examples, visit: https://github.com/vaultmesh/vaultcore")
	fmt.Println()

	// Create the marker file to prevent showing this message again
	// #nosec G304 - firstRunFile is safely constructed from UserConfigDir
	if file, err := os.Create(firstRunFile); err == nil {
		if closeErr := file.Close(); closeErr != nil {
			// Log but don't error on close failure for marker file
			fmt.Printf("Warning: failed to close marker file: %v\n", closeErr)
		}
	}
}

func main() {
	// Show welcome message for first-time users
	showFirstRunMessage()

	rootCmd := &cobra.Command{
		Use:     "vultool",
		Version: version,
		Short:   "Vultool - Standalone CLI for .vult file operations",
		Long:    `A standalone CLI tool for managing vault operations, compatible with Vultisig security models.`,
		Run: func(cmd *cobra.Command, args []string) {
			// Show help when no command is provided
			if err := cmd.Help(); err != nil {
				fmt.Printf("Error showing help: %v\n", err)
			}
		},
	}

	var (
		vaultFile     string
		exportFile    string
		validate      bool
		summary       bool
		showKeyshares bool
		password      string
	)

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect and validate a vault file",
		Long:  `Inspect a .vult vault file, showing key shares, metadata, and more details, with validation options.`,
		Run: func(cmd *cobra.Command, args []string) {
			if vaultFile == "" {
				fmt.Println("Vault file is required.")
				return
			}
			absPath, err := filepath.Abs(vaultFile)
			if err != nil {
				fmt.Printf("Error getting absolute path: %v\n", err)
				return
			}

			vaultInfo, err := vault.ParseVaultFileWithPassword(absPath, password)
			if err != nil {
				fmt.Printf("Error parsing vault file: %v\n", err)
				return
			}

			if summary {
				fmt.Println(vault.GetSummary(vaultInfo))
				return
			}

			if showKeyshares {
				fmt.Println(vault.GetKeySharesInfo(vaultInfo))
				return
			}

			if validate {
				issues := vault.ValidateVault(vaultInfo)
				if len(issues) > 0 {
					fmt.Printf("Validation issues found:\n")
					for _, issue := range issues {
						fmt.Printf("  - %s\n", issue)
					}
					return
				} else {
					fmt.Println("✓ Vault validation passed - no issues found")
					return
				}
			}

			if exportFile != "" {
				// Validate output path for security
				if err := vault.ValidateSafeOutputPath(exportFile); err != nil {
					fmt.Printf("Unsafe export path: %v\n", err)
					return
				}

				// #nosec G304 - exportFile is validated by ValidateSafeOutputPath above
				file, err := os.Create(exportFile)
				if err != nil {
					fmt.Printf("Error creating export file: %v\n", err)
					return
				}
				defer func() {
					if closeErr := file.Close(); closeErr != nil {
						fmt.Printf("Warning: failed to close export file: %v\n", closeErr)
					}
				}()

				if err := util.OutputResult(vaultInfo, "json", file); err != nil {
					fmt.Printf("Error exporting to JSON: %v\n", err)
					return
				}
				fmt.Printf("Vault exported to: %s\n", exportFile)
				return
			}

			// Default: show summary if no specific flag is provided
			fmt.Println(vault.GetSummary(vaultInfo))
		},
	}
	inspectCmd.Flags().StringVarP(&vaultFile, "vault", "f", "", "Path to the .vult vault file (required)")
	inspectCmd.Flags().StringVar(&exportFile, "export", "", "Export vault metadata to JSON file")
	inspectCmd.Flags().BoolVar(&validate, "validate", false, "Run strict validation checks")
	inspectCmd.Flags().BoolVar(&summary, "summary", false, "Print high-level vault metadata")
	inspectCmd.Flags().BoolVar(&showKeyshares, "show-keyshares", false, "Output key share information")
	inspectCmd.Flags().StringVar(&password, "password", "", "Password for encrypted vault files (alternative to interactive prompt)")

	// Mark vault file as required
	if err := inspectCmd.MarkFlagRequired("vault"); err != nil {
		fmt.Printf("Error setting up CLI flags: %v\n", err)
		os.Exit(1)
	}

	// Add command aliases as specified in spec.md
	// info: alias to inspect --summary
	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "Show concise vault information (alias for inspect --summary)",
		Long:  `Show a concise summary of vault information including protocol, key presence, threshold, and signer count.`,
		Run: func(cmd *cobra.Command, args []string) {
			if vaultFile == "" {
				fmt.Println("Vault file is required.")
				return
			}
			absPath, err := filepath.Abs(vaultFile)
			if err != nil {
				fmt.Printf("Error getting absolute path: %v\n", err)
				return
			}

			vaultInfo, err := vault.ParseVaultFileWithPassword(absPath, password)
			if err != nil {
				fmt.Printf("Error parsing vault file: %v\n", err)
				return
			}

			// Always show summary for info command
			fmt.Println(vault.GetSummary(vaultInfo))
		},
	}
	infoCmd.Flags().StringVarP(&vaultFile, "vault", "f", "", "Path to the .vult vault file (required)")
	infoCmd.Flags().StringVar(&password, "password", "", "Password for encrypted vault files (alternative to interactive prompt)")
	if err := infoCmd.MarkFlagRequired("vault"); err != nil {
		fmt.Printf("Error setting up info CLI flags: %v\n", err)
		os.Exit(1)
	}

	// decode: alias to inspect --json with YAML support
	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode vault to JSON or YAML format",
		Long:  `Decode and output the full vault protobuf data as JSON (default) or YAML for programmatic use.`,
		Run: func(cmd *cobra.Command, args []string) {
			if vaultFile == "" {
				fmt.Println("Vault file is required.")
				return
			}
			absPath, err := filepath.Abs(vaultFile)
			if err != nil {
				fmt.Printf("Error getting absolute path: %v\n", err)
				return
			}

			vaultInfo, err := vault.ParseVaultFileWithPassword(absPath, password)
			if err != nil {
				fmt.Printf("Error parsing vault file: %v\n", err)
				return
			}

			// Check output format flags
			useYAML, err := cmd.Flags().GetBool("yaml")
			if err != nil {
				fmt.Printf("Error reading yaml flag: %v\n", err)
				return
			}

			useTOML, err := cmd.Flags().GetBool("toml")
			if err != nil {
				fmt.Printf("Error reading toml flag: %v\n", err)
				return
			}

			// Determine output format - default to JSON
			format := "json"
			if useYAML {
				format = "yaml"
			} else if useTOML {
				format = "toml"
			}

			if err := util.OutputResult(vaultInfo, format, os.Stdout); err != nil {
				fmt.Printf("Error outputting %s: %v\n", format, err)
				return
			}
		},
	}
	decodeCmd.Flags().StringVarP(&vaultFile, "vault", "f", "", "Path to the .vult vault file (required)")
	decodeCmd.Flags().StringVar(&password, "password", "", "Password for encrypted vault files (alternative to interactive prompt)")
	decodeCmd.Flags().Bool("yaml", false, "Output in YAML format instead of JSON")
	decodeCmd.Flags().Bool("toml", false, "Output in TOML format (not yet implemented)")
	if err := decodeCmd.MarkFlagRequired("vault"); err != nil {
		fmt.Printf("Error setting up decode CLI flags: %v\n", err)
		os.Exit(1)
	}

	// verify: alias to inspect --validate
	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify vault integrity (alias for inspect --validate)",
		Long:  `Perform structural and cryptographic sanity checks on the vault file. Exits with code 0 if valid, 1 if invalid.`,
		Run: func(cmd *cobra.Command, args []string) {
			if vaultFile == "" {
				fmt.Println("Vault file is required.")
				return
			}
			absPath, err := filepath.Abs(vaultFile)
			if err != nil {
				fmt.Printf("Error getting absolute path: %v\n", err)
				os.Exit(1)
				return
			}

			vaultInfo, err := vault.ParseVaultFileWithPassword(absPath, password)
			if err != nil {
				fmt.Printf("Error parsing vault file: %v\n", err)
				os.Exit(1)
				return
			}

			// Run validation and exit with appropriate code
			issues := vault.ValidateVault(vaultInfo)
			if len(issues) > 0 {
				fmt.Printf("Validation issues found:\n")
				for _, issue := range issues {
					fmt.Printf("  - %s\n", issue)
				}
				os.Exit(1)
			} else {
				fmt.Println("✓ Vault validation passed - no issues found")
				os.Exit(0)
			}
		},
	}
	verifyCmd.Flags().StringVarP(&vaultFile, "vault", "f", "", "Path to the .vult vault file (required)")
	verifyCmd.Flags().StringVar(&password, "password", "", "Password for encrypted vault files (alternative to interactive prompt)")
	if err := verifyCmd.MarkFlagRequired("vault"); err != nil {
		fmt.Printf("Error setting up verify CLI flags: %v\n", err)
		os.Exit(1)
	}

	// diff: compare two vault files
	diffCmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare two vault files",
		Long:  `Compare two .vult vault files and show differences in metadata and key shares.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 2 {
				fmt.Println("Two vault files are required.")
				return
			}

			vaultFile1, vaultFile2 := args[0], args[1]

			absPath1, err := filepath.Abs(vaultFile1)
			if err != nil {
				fmt.Printf("Error getting absolute path: %v\n", err)
				return
			}

			absPath2, err := filepath.Abs(vaultFile2)
			if err != nil {
				fmt.Printf("Error getting absolute path: %v\n", err)
				return
			}

			vaultInfo1, err := vault.ParseVaultFileWithPassword(absPath1, password)
			if err != nil {
				fmt.Printf("Error parsing first vault file: %v\n", err)
				return
			}

			vaultInfo2, err := vault.ParseVaultFileWithPassword(absPath2, password)
			if err != nil {
				fmt.Printf("Error parsing second vault file: %v\n", err)
				return
			}

			diff := vault.DiffVaults(vaultInfo1, vaultInfo2)

			// Check if structured output was requested
			useJSON, _ := cmd.Flags().GetBool("json")
			useYAML, _ := cmd.Flags().GetBool("yaml")

			if useJSON {
				if err := util.OutputResult(diff, "json", os.Stdout); err != nil {
					fmt.Printf("Error outputting JSON: %v\n", err)
					return
				}
			} else if useYAML {
				if err := util.OutputResult(diff, "yaml", os.Stdout); err != nil {
					fmt.Printf("Error outputting YAML: %v\n", err)
					return
				}
			} else {
				// Default human-readable output
				fmt.Println(vault.FormatDiff(diff, true))
			}
		},
	}
	diffCmd.Flags().StringVar(&password, "password", "", "Password for encrypted vault files (alternative to interactive prompt)")
	diffCmd.Flags().Bool("json", false, "Output diff in JSON format")
	diffCmd.Flags().Bool("yaml", false, "Output diff in YAML format")

	// list-addresses: Derive and show all chain addresses from vault public keys
	listAddressesCmd := &cobra.Command{
		Use:   "list-addresses",
		Short: "List all blockchain addresses derived from vault public keys",
		Long: `Derive and display addresses for all supported blockchains from the vault's public keys.
This command uses proper cryptographic derivation to generate addresses for Bitcoin, Ethereum,
and all other supported chains directly from the vault's ECDSA and EdDSA public keys.`,
		Run: func(cmd *cobra.Command, args []string) {
			if vaultFile == "" {
				fmt.Println("Vault file is required.")
				return
			}
			absPath, err := filepath.Abs(vaultFile)
			if err != nil {
				fmt.Printf("Error getting absolute path: %v\n", err)
				return
			}

			vaultInfo, err := vault.ParseVaultFileWithPassword(absPath, password)
			if err != nil {
				fmt.Printf("Error parsing vault file: %v\n", err)
				return
			}

			// Derive addresses from vault public keys
			// This now works for ANY vault, not just hardcoded ones!
			addresses := vault.DeriveAddressesFromVault(vaultInfo)
			if len(addresses) == 0 {
				fmt.Println("No addresses could be derived from vault public keys")
				return
			}

			// Filter by chains if specified
			chainFilter, _ := cmd.Flags().GetStringSlice("chains")
			if len(chainFilter) > 0 {
				chainMap := make(map[string]bool)
				for _, chain := range chainFilter {
					chainMap[chain] = true
				}

				var filtered []vault.VaultAddress
				for _, addr := range addresses {
					if chainMap[addr.Chain] {
						filtered = append(filtered, addr)
					}
				}
				addresses = filtered
			}

			useJSON, _ := cmd.Flags().GetBool("json")
			useCSV, _ := cmd.Flags().GetBool("csv")

			if useJSON {
				if err := util.OutputResult(addresses, "json", os.Stdout); err != nil {
					fmt.Printf("Error outputting JSON: %v\n", err)
				}
			} else if useCSV {
				// Output CSV header
				fmt.Println("Chain,Ticker,Address,DerivePath")
				// Output each address as a CSV row
				for _, addr := range addresses {
					fmt.Printf("%s,%s,%s,%s\n",
						addr.Chain,
						addr.Ticker,
						addr.Address,
						addr.DerivePath)
				}
			} else {
				fmt.Printf("Vault: %s\n", vaultInfo.Name)
				fmt.Printf("Key Shares: %d\n", len(vaultInfo.KeyShares))
				if vaultInfo.IsEncrypted {
					fmt.Printf("Encrypted: Yes\n")
				}
				fmt.Println()

				fmt.Println("Addresses:")
				fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

				for _, addr := range addresses {
					fmt.Printf("%-15s %-6s %s\n", addr.Chain, addr.Ticker, addr.Address)
					if addr.DerivePath != "" {
						fmt.Printf("                      Path: %s\n", addr.DerivePath)
					}
					fmt.Println("────────────────────────────────────────────────────────────")
				}
			}
		},
	}
	listAddressesCmd.Flags().StringVarP(&vaultFile, "vault", "f", "", "Path to the .vult vault file (required)")
	listAddressesCmd.Flags().StringVar(&password, "password", "", "Password for encrypted vault files")
	listAddressesCmd.Flags().Bool("json", false, "Output in JSON format")
	listAddressesCmd.Flags().Bool("csv", false, "Output in CSV format")
	listAddressesCmd.Flags().StringSlice("chains", []string{}, "Filter by chain names (e.g., Bitcoin,Ethereum)")
	if err := listAddressesCmd.MarkFlagRequired("vault"); err != nil {
		fmt.Printf("Error setting up list-addresses CLI flags: %v\n", err)
		os.Exit(1)
	}

	// list-addresses-paths: enumerate addresses along common derivation paths
	listAddressesPathsCmd := &cobra.Command{
		Use:   "list-paths",
		Short: "Enumerate addresses along common derivation paths for major chains",
		Long: `List common HD derivation paths and addresses for supported blockchains.
Useful for discovering which addresses are associated with a vault.

Shows predefined common paths covering different address types (Legacy, SegWit, etc.) for Bitcoin
and sequential addresses for Ethereum and other chains. With --sequential, --count sets how many
sequential paths are generated per chain (default 20); it is ignored otherwise.`,
		Example: `  # List all common derivation paths for all chains
  vultool list-paths -f vault.vult
  
  # List only Bitcoin common paths (different address types)
  vultool list-paths -f vault.vult --chain bitcoin
  
  # Generate 20 sequential Ethereum addresses for gap limit scanning
  vultool list-paths -f vault.vult --chain ethereum --sequential --count 20
  
  # Generate sequential paths for Bitcoin, Ethereum, Solana and THORChain (gap limit recovery)
  vultool list-paths -f vault.vult --sequential --count 10
  
  # Output in JSON format
  vultool list-paths -f vault.vult --json`,
		Run: func(cmd *cobra.Command, args []string) {
			if vaultFile == "" {
				fmt.Println("Vault file is required.")
				return
			}

			chainFilter, _ := cmd.Flags().GetString("chain")
			count, _ := cmd.Flags().GetInt("count")
			useJSON, _ := cmd.Flags().GetBool("json")
			showPaths, _ := cmd.Flags().GetBool("show-paths")
			sequential, _ := cmd.Flags().GetBool("sequential")

			// Get paths - either common paths or sequential paths
			var allPaths map[types.SupportedChain][]types.DerivationPath

			if sequential {
				// Generate sequential paths for gap limit scanning
				allPaths = make(map[types.SupportedChain][]types.DerivationPath)

				if count == 0 {
					count = 20 // Default gap limit
				}

				if chainFilter != "" {
					// Generate for specific chain
					var targetChain types.SupportedChain
					switch strings.ToLower(chainFilter) {
					case "bitcoin", "btc":
						targetChain = types.ChainBitcoin
					case "bitcoincash", "bch":
						targetChain = types.ChainBitcoinCash
					case "litecoin", "ltc":
						targetChain = types.ChainLitecoin
					case "dogecoin", "doge":
						targetChain = types.ChainDogecoin
					case "dash":
						targetChain = types.ChainDash
					case "zcash", "zec":
						targetChain = types.ChainZcash
					case "ethereum", "eth":
						targetChain = types.ChainEthereum
					case "bsc", "binance":
						targetChain = types.ChainBSC
					case "avalanche", "avax":
						targetChain = types.ChainAvalanche
					case "polygon", "matic":
						targetChain = types.ChainPolygon
					case "cronoschain", "cronos", "cro":
						targetChain = types.ChainCronosChain
					case "arbitrum", "arb":
						targetChain = types.ChainArbitrum
					case "optimism", "op":
						targetChain = types.ChainOptimism
					case "base":
						targetChain = types.ChainBase
					case "blast":
						targetChain = types.ChainBlast
					case "zksync":
						targetChain = types.ChainZksync
					case "thorchain", "thor", "rune":
						targetChain = types.ChainThorChain
					case "solana", "sol":
						targetChain = types.ChainSolana
					case "sui":
						targetChain = types.ChainSUI
					default:
						fmt.Printf("Unsupported chain: %s\n", chainFilter)
						return
					}

					paths := types.GenerateSequentialPaths(targetChain, count)
					if len(paths) > 0 {
						allPaths[targetChain] = paths
					}
				} else {
					// Generate for Bitcoin, Ethereum, Solana and THORChain
					supportedChains := []types.SupportedChain{
						types.ChainBitcoin, types.ChainEthereum, types.ChainSolana, types.ChainThorChain,
					}
					for _, chain := range supportedChains {
						paths := types.GenerateSequentialPaths(chain, count)
						if len(paths) > 0 {
							allPaths[chain] = paths
						}
					}
				}
			} else {
				// Use common derivation paths (original behavior)
				allPaths = types.GetCommonDerivationPaths()
			}

			// Filter by chain if specified
			if chainFilter != "" {
				var targetChain types.SupportedChain
				switch strings.ToLower(chainFilter) {
				case "bitcoin", "btc":
					targetChain = types.ChainBitcoin
				case "bitcoincash", "bch":
					targetChain = types.ChainBitcoinCash
				case "litecoin", "ltc":
					targetChain = types.ChainLitecoin
				case "dogecoin", "doge":
					targetChain = types.ChainDogecoin
				case "dash":
					targetChain = types.ChainDash
				case "zcash", "zec":
					targetChain = types.ChainZcash
				case "ethereum", "eth":
					targetChain = types.ChainEthereum
				case "bsc", "binance":
					targetChain = types.ChainBSC
				case "avalanche", "avax":
					targetChain = types.ChainAvalanche
				case "polygon", "matic":
					targetChain = types.ChainPolygon
				case "cronoschain", "cronos", "cro":
					targetChain = types.ChainCronosChain
				case "arbitrum", "arb":
					targetChain = types.ChainArbitrum
				case "optimism", "op":
					targetChain = types.ChainOptimism
				case "base":
					targetChain = types.ChainBase
				case "blast":
					targetChain = types.ChainBlast
				case "zksync":
					targetChain = types.ChainZksync
				case "thorchain", "thor", "rune":
					targetChain = types.ChainThorChain
				case "solana", "sol":
					targetChain = types.ChainSolana
				case "sui":
					targetChain = types.ChainSUI
				default:
					fmt.Printf("Unsupported chain: %s\n", chainFilter)
					fmt.Printf("Supported chains: bitcoin, bitcoincash, litecoin, dogecoin, dash, zcash, ethereum, bsc, avalanche, polygon, cronoschain, arbitrum, optimism, base, blast, zksync, thorchain, solana, sui\n")
					return
				}

				filtered := make(map[types.SupportedChain][]types.DerivationPath)
				if paths, exists := allPaths[targetChain]; exists {
					filtered[targetChain] = paths
				}
				allPaths = filtered
			}

			if showPaths {
				// Just show the paths without deriving addresses
				if useJSON {
					if err := util.OutputResult(allPaths, "json", os.Stdout); err != nil {
						fmt.Printf("Error outputting JSON: %v\n", err)
					}
				} else {
					fmt.Println("📋 Common HD Derivation Paths:")
					fmt.Println()
					for chain, paths := range allPaths {
						fmt.Printf("🔗 %s:\n", strings.Title(string(chain)))
						for _, path := range paths {
							fmt.Printf("   %-20s %s (%s)\n", path.Path, path.Description, path.Purpose)
						}
						fmt.Println()
					}
				}
				return
			}

			// Parse the vault file to get keys for derivation
			absPath, err := filepath.Abs(vaultFile)
			if err != nil {
				fmt.Printf("Error getting absolute path: %v\n", err)
				return
			}

			vaultInfo, err := vault.ParseVaultFileWithPassword(absPath, password)
			if err != nil {
				fmt.Printf("Error parsing vault file: %v\n", err)
				return
			}

			// Derive addresses for all the specified paths
			pathAddresses := vault.DerivePathAddresses(vaultInfo, allPaths, 0)

			if len(pathAddresses) == 0 {
				fmt.Println("No addresses could be derived from vault for the specified paths")
				return
			}

			if useJSON {
				if err := util.OutputResult(pathAddresses, "json", os.Stdout); err != nil {
					fmt.Printf("Error outputting JSON: %v\n", err)
				}
			} else {
				fmt.Printf("📋 HD derivation paths and addresses for vault: %s\n\n", filepath.Base(vaultFile))

				currentChain := ""
				for _, addr := range pathAddresses {
					if addr.Chain != currentChain {
						if currentChain != "" {
							fmt.Println() // Add space between chains
						}
						fmt.Printf("🔗 %s (%s):\n", addr.Chain, addr.Ticker)
						currentChain = addr.Chain
					}

					fmt.Printf("   %-20s %s\n", addr.DerivePath, addr.Address)
				}
			}
		},
	}
	listAddressesPathsCmd.Flags().StringVarP(&vaultFile, "vault", "f", "", "Path to the .vult vault file (required)")
	listAddressesPathsCmd.Flags().StringVar(&password, "password", "", "Password for encrypted vault files")
	listAddressesPathsCmd.Flags().String("chain", "", "Filter for specific blockchain (bitcoin, ethereum, solana, thorchain)")
	listAddressesPathsCmd.Flags().Int("count", 0, "Number of sequential addresses to generate (default: 20 for --sequential, ignored otherwise)")
	listAddressesPathsCmd.Flags().Bool("sequential", false, "Generate sequential addresses for gap limit scanning instead of common paths")
	listAddressesPathsCmd.Flags().Bool("json", false, "Output in JSON format")
	listAddressesPathsCmd.Flags().Bool("show-paths", false, "Show derivation paths only (don't derive addresses)")
	if err := listAddressesPathsCmd.MarkFlagRequired("vault"); err != nil {
		fmt.Printf("Error setting up list-paths CLI flags: %v\n", err)
		os.Exit(1)
	}

	// chains: list the chain registry this build supports
	chainsCmd := &cobra.Command{
		Use:   "chains",
		Short: "List supported chains and their registry metadata",
		Long:  `Print every chain in the registry: curve, coin type, transaction format, fee model, and broadcast adapter.`,
		Example: `  vultool chains
  vultool chains --json
  vultool chains --curve ecdsa`,
		Run: func(cmd *cobra.Command, args []string) {
			useJSON, _ := cmd.Flags().GetBool("json")
			curveFilter, _ := cmd.Flags().GetString("curve")

			entries := chains.Registry
			if curveFilter != "" {
				filtered := make([]chains.Entry, 0, len(entries))
				for _, e := range entries {
					if strings.EqualFold(string(e.Curve), curveFilter) {
						filtered = append(filtered, e)
					}
				}
				entries = filtered
			}

			if useJSON {
				if err := util.OutputResult(entries, "json", os.Stdout); err != nil {
					fmt.Printf("Error outputting JSON: %v\n", err)
				}
				return
			}

			fmt.Printf("%-14s %-6s %-6s %-8s %-9s %-14s %s\n", "CHAIN", "TICKER", "CURVE", "COINTYPE", "TXFORMAT", "FEEMODEL", "BROADCAST")
			fmt.Println(strings.Repeat("─", 90))
			for _, e := range entries {
				fmt.Printf("%-14s %-6s %-6s %-8d %-9s %-14s %s\n", e.ID, e.Ticker, e.Curve, e.CoinType, e.TxFormat, e.FeeModel, e.BroadcastAdapter)
			}
		},
	}
	chainsCmd.Flags().Bool("json", false, "Output in JSON format")
	chainsCmd.Flags().String("curve", "", "Filter by signature curve (ecdsa, eddsa)")

	// digests: compute the pre-sign digest(s) for an already-built keysign payload
	digestsCmd := &cobra.Command{
		Use:   "digests",
		Short: "Compute the pre-sign digest(s) for a keysign payload",
		Long: `Read a keysign payload produced by the transaction builder and print the message
digest(s) a signing session must cooperatively sign, one per required signature.`,
		Example: `  vultool digests --payload payload.json
  vultool digests --payload payload.json --json`,
		Run: func(cmd *cobra.Command, args []string) {
			payloadFile, _ := cmd.Flags().GetString("payload")
			useJSON, _ := cmd.Flags().GetBool("json")
			if payloadFile == "" {
				fmt.Println("A --payload file is required.")
				return
			}

			raw, err := os.ReadFile(payloadFile) // #nosec G304 - operator-supplied path
			if err != nil {
				fmt.Printf("Error reading payload file: %v\n", err)
				return
			}

			var payload txbuilder.KeysignPayload
			if err := json.Unmarshal(raw, &payload); err != nil {
				fmt.Printf("Error parsing payload: %v\n", err)
				return
			}

			digests, err := presign.Digests(&payload)
			if err != nil {
				fmt.Printf("Error computing digests: %v\n", err)
				return
			}

			if useJSON {
				if err := util.OutputResult(digests, "json", os.Stdout); err != nil {
					fmt.Printf("Error outputting JSON: %v\n", err)
				}
				return
			}

			fmt.Printf("Chain: %s\n", payload.Coin.Chain)
			for i, d := range digests {
				fmt.Printf("  [%d] %s\n", i, d)
			}
		},
	}
	digestsCmd.Flags().String("payload", "", "Path to a JSON-encoded keysign payload (required)")
	digestsCmd.Flags().Bool("json", false, "Output in JSON format")
	if err := digestsCmd.MarkFlagRequired("payload"); err != nil {
		fmt.Printf("Error setting up digests CLI flags: %v\n", err)
		os.Exit(1)
	}

	var storeDir string

	// import: decode a .vult file and add it to the vault store, spec.md
	// §6's `import` operation realized over internal/store's addVault.
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Decode a .vult file and add it to the vault store",
		Long: `Read a .vult file off disk, decode it via the container codec, and persist
it under the vault store so later commands can address it by id instead of by path.`,
		Example: `  vultool import -f vault.vult
  vultool import -f vault.vult --password mypass --activate`,
		Run: func(cmd *cobra.Command, args []string) {
			if vaultFile == "" {
				fmt.Println("Vault file is required.")
				return
			}
			activate, _ := cmd.Flags().GetBool("activate")
			currency, _ := cmd.Flags().GetString("currency")

			raw, err := os.ReadFile(vaultFile) // #nosec G304 - operator-supplied path
			if err != nil {
				fmt.Printf("Error reading vault file: %v\n", err)
				return
			}

			s, err := openVaultStore(storeDir)
			if err != nil {
				fmt.Printf("Error opening vault store: %v\n", err)
				os.Exit(6)
			}

			info, err := store.AddVault(s, raw, password, store.Metadata{Currency: currency})
			if err != nil {
				fmt.Printf("Error importing vault: %v\n", err)
				os.Exit(6)
			}
			fmt.Printf("✅ Imported vault %q as id %s\n", info.Name, info.LocalPartyKey)

			if activate {
				if err := s.SetActive(info.LocalPartyKey); err != nil {
					fmt.Printf("Error setting active vault: %v\n", err)
					os.Exit(6)
				}
				fmt.Printf("   Set as active vault.\n")
			}
		},
	}
	importCmd.Flags().StringVarP(&vaultFile, "vault", "f", "", "Path to the .vult vault file (required)")
	importCmd.Flags().StringVar(&password, "password", "", "Password for encrypted vault files")
	importCmd.Flags().Bool("activate", false, "Also set the imported vault as active")
	importCmd.Flags().String("currency", "USD", "Display currency recorded in the vault's metadata")
	if err := importCmd.MarkFlagRequired("vault"); err != nil {
		fmt.Printf("Error setting up import CLI flags: %v\n", err)
		os.Exit(1)
	}

	// vaults: list every vault in the store (spec.md §4.2 listVaults)
	vaultsCmd := &cobra.Command{
		Use:   "vaults",
		Short: "List every vault held in the vault store",
		Long:  `Print a summary of every vault addVault has persisted, without ever decoding keyshare material.`,
		Run: func(cmd *cobra.Command, args []string) {
			useJSON, _ := cmd.Flags().GetBool("json")

			s, err := openVaultStore(storeDir)
			if err != nil {
				fmt.Printf("Error opening vault store: %v\n", err)
				os.Exit(6)
			}
			summaries, err := store.ListVaults(s)
			if err != nil {
				fmt.Printf("Error listing vaults: %v\n", err)
				os.Exit(6)
			}

			if useJSON {
				if err := util.OutputResult(summaries, "json", os.Stdout); err != nil {
					fmt.Printf("Error outputting JSON: %v\n", err)
				}
				return
			}
			if len(summaries) == 0 {
				fmt.Println("No vaults in the store. Use `vultool import` to add one.")
				return
			}
			for _, sum := range summaries {
				active := " "
				if sum.IsActive {
					active = "*"
				}
				label := sum.Name
				if sum.IsEncrypted && label == "" {
					label = "(encrypted)"
				}
				fmt.Printf("%s %-20s %s\n", active, sum.ID, label)
			}
		},
	}
	vaultsCmd.Flags().Bool("json", false, "Output in JSON format")

	// use: set which vault is active (spec.md §4.2 setActive)
	useCmd := &cobra.Command{
		Use:   "use <vault-id>",
		Short: "Set which stored vault is active",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			s, err := openVaultStore(storeDir)
			if err != nil {
				fmt.Printf("Error opening vault store: %v\n", err)
				os.Exit(6)
			}
			if err := s.SetActive(args[0]); err != nil {
				fmt.Printf("Error setting active vault: %v\n", err)
				os.Exit(6)
			}
			fmt.Printf("✅ Active vault set to %s\n", args[0])
		},
	}

	// status: show the active vault (spec.md §4.2 getActive, §6 `status`)
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the active vault, if one is set",
		Run: func(cmd *cobra.Command, args []string) {
			useJSON, _ := cmd.Flags().GetBool("json")

			s, err := openVaultStore(storeDir)
			if err != nil {
				fmt.Printf("Error opening vault store: %v\n", err)
				os.Exit(6)
			}
			info, err := store.GetActiveVault(s, password)
			if err != nil {
				fmt.Printf("Error reading active vault: %v\n", err)
				os.Exit(6)
			}
			if info == nil {
				fmt.Println("No active vault. Use `vultool use <id>` to set one.")
				return
			}
			if useJSON {
				if err := util.OutputResult(info, "json", os.Stdout); err != nil {
					fmt.Printf("Error outputting JSON: %v\n", err)
				}
				return
			}
			fmt.Printf("Active vault: %s\n", info.LocalPartyKey)
			fmt.Printf("  Name: %s\n", info.Name)
			fmt.Printf("  ECDSA public key: %s\n", info.PublicKeyECDSA)
			fmt.Printf("  EdDSA public key: %s\n", info.PublicKeyEDDSA)
		},
	}
	statusCmd.Flags().StringVar(&password, "password", "", "Password, if the active vault is encrypted")
	statusCmd.Flags().Bool("json", false, "Output in JSON format")

	rootCmd.PersistentFlags().StringVar(&storeDir, "store", "", "Vault store directory (default: OS config dir/vultool/vaults)")

	// Add all commands to root
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(diffCmd)

	// Add Medic milestone commands
	rootCmd.AddCommand(listAddressesCmd)
	rootCmd.AddCommand(listAddressesPathsCmd)
	rootCmd.AddCommand(chainsCmd)
	rootCmd.AddCommand(digestsCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(vaultsCmd)
	rootCmd.AddCommand(useCmd)
	rootCmd.AddCommand(statusCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
