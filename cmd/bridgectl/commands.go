// cmd/bridgectl/commands.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/spf13/cobra"

	usecase "solana-bridge/internal/application/usecase"
	bridgedom "solana-bridge/internal/domain/bridge"
	solanainfra "solana-bridge/internal/infra/solana"
	"solana-bridge/internal/program"
)

type globalOpts struct {
	rpcURL    string
	programID string
	seed      uint64
	keypair   string
	secret    string
}

var errNoAuthority = errors.New("bridgectl: --keypair or --secret is required")

func newRootCmd() *cobra.Command {
	g := &globalOpts{}

	root := &cobra.Command{
		Use:           "bridgectl",
		Short:         "Operate the Solana bridge program",
		Long:          `Initialize the registry, custody / release / issue assets and inspect holdings over RPC`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.rpcURL, "rpc", "", "RPC endpoint (default: $SOLANA_RPC_URL or devnet)")
	pf.StringVar(&g.programID, "program", program.DefaultProgramID.ToBase58(), "bridge program id")
	pf.Uint64Var(&g.seed, "seed", 1, "bridge registry seed")
	pf.StringVar(&g.keypair, "keypair", "", "backend authority keypair JSON file")
	pf.StringVar(&g.secret, "secret", "", "Secret Manager resource name of the authority keypair")

	root.AddCommand(
		newInitCmd(g),
		newShowCmd(g),
		newRequestCmd(g),
		newBurnCmd(g),
		newNFTCmd(g),
		newBalanceCmd(g),
		newFundCmd(g),
	)
	return root
}

// stack は executor と usecase を組み立てます（CLI では journal なし）。
func (g *globalOpts) stack(ctx context.Context) (*solanainfra.Executor, *usecase.BridgeUsecase, error) {
	programID, err := bridgedom.ParsePublicKey(g.programID)
	if err != nil {
		return nil, nil, fmt.Errorf("--program: %w", err)
	}

	var acc types.Account
	switch {
	case strings.TrimSpace(g.secret) != "":
		acc, err = solanainfra.LoadAuthorityFromSecret(ctx, g.secret)
	case strings.TrimSpace(g.keypair) != "":
		acc, err = solanainfra.LoadAuthorityFromFile(g.keypair)
	default:
		err = errNoAuthority
	}
	if err != nil {
		return nil, nil, err
	}

	ex := solanainfra.NewExecutor(g.rpcURL, programID, acc)
	uc, err := usecase.NewBridgeUsecase(ex, nil, nil, programID, acc.PublicKey, g.seed)
	if err != nil {
		return nil, nil, err
	}
	uc.WithHoldingReader(ex).WithDevFunder(ex)
	return ex, uc, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ------------------------------------------------------------
// commands
// ------------------------------------------------------------

func newInitCmd(g *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the bridge registry with this key as authority",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, uc, err := g.stack(cmd.Context())
			if err != nil {
				return err
			}
			out, err := uc.Initialize(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

func newShowCmd(g *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the bridge registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, uc, err := g.stack(cmd.Context())
			if err != nil {
				return err
			}
			out, err := uc.Bridge(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

func newRequestCmd(g *globalOpts) *cobra.Command {
	var in usecase.SubmitRequestInput
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Take one unit of a fungible token into custody (new_request)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, uc, err := g.stack(cmd.Context())
			if err != nil {
				return err
			}
			out, err := uc.SubmitRequest(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Mint, "mint", "", "token mint")
	f.StringVar(&in.UserHolding, "user-holding", "", "user token account (bridge must be its delegate)")
	f.StringVar(&in.RequestID, "request-id", "", "cross-chain correlation id")
	_ = cmd.MarkFlagRequired("mint")
	_ = cmd.MarkFlagRequired("user-holding")
	return cmd
}

func newBurnCmd(g *globalOpts) *cobra.Command {
	var in usecase.BurnTokenInput
	cmd := &cobra.Command{
		Use:   "burn",
		Short: "Burn one custodied unit (burn_token)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, uc, err := g.stack(cmd.Context())
			if err != nil {
				return err
			}
			out, err := uc.BurnToken(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Mint, "mint", "", "token mint")
	f.StringVar(&in.BridgeHolding, "holding", "", "custody holding (default: bridge ATA)")
	_ = cmd.MarkFlagRequired("mint")
	return cmd
}

func newNFTCmd(g *globalOpts) *cobra.Command {
	var in usecase.CreateNFTInput
	cmd := &cobra.Command{
		Use:   "nft",
		Short: "Issue a unique asset to a recipient (create_nft)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, uc, err := g.stack(cmd.Context())
			if err != nil {
				return err
			}
			out, err := uc.CreateNFT(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Recipient, "recipient", "", "recipient wallet")
	f.Uint64Var(&in.ID, "id", 0, "asset id")
	f.StringVar(&in.SeedP1, "p1", "", "first derivation seed")
	f.StringVar(&in.SeedP2, "p2", "", "second derivation seed")
	f.StringVar(&in.Name, "name", "", "metadata name")
	f.StringVar(&in.Symbol, "symbol", "", "metadata symbol")
	f.StringVar(&in.URI, "uri", "", "metadata uri")
	f.StringVar(&in.RequestID, "request-id", "", "cross-chain correlation id")
	for _, name := range []string{"recipient", "p1", "p2", "name", "uri"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newBalanceCmd(g *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <holding>",
		Short: "Show the amount held by a token account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, uc, err := g.stack(cmd.Context())
			if err != nil {
				return err
			}
			out, err := uc.Balance(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

// fund は devnet 用: authority 自身の holding に mint し bridge を delegate にする。
func newFundCmd(g *globalOpts) *cobra.Command {
	var in usecase.FundHoldingInput
	cmd := &cobra.Command{
		Use:   "fund",
		Short: "Devnet helper: mint test units to the authority and approve the bridge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ex, uc, err := g.stack(cmd.Context())
			if err != nil {
				return err
			}
			in.Owner = ex.Authority.PublicKey.ToBase58()
			out, err := uc.FundDevHolding(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Mint, "mint", "", "existing mint (default: create a new one)")
	f.Uint64Var(&in.Amount, "amount", 1, "units to mint")
	f.Uint64Var(&in.Allowance, "allowance", 1, "units the bridge may move")
	return cmd
}
