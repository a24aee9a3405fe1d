package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ryegate/pkg/domain"
	"ryegate/pkg/usdc"
)

func Execute() error {
	root := &cobra.Command{
		Use:           "ryegatectl",
		Short:         "Ryegate ledger operations CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var serverURL, token string
	root.PersistentFlags().StringVar(&serverURL, "server", envOr("RYEGATE_SERVER", "http://localhost:8080"), "server base URL")
	root.PersistentFlags().StringVar(&token, "token", os.Getenv("RYEGATE_TOKEN"), "bearer token")

	api := func() *client { return newClient(serverURL, token) }

	root.AddCommand(statusCmd(api))
	root.AddCommand(grantRoleCmd(api))
	root.AddCommand(revokeRoleCmd(api))
	root.AddCommand(whitelistCmd(api))
	root.AddCommand(issueCmd(api))
	root.AddCommand(pushRevenueCmd(api))
	root.AddCommand(relayPushCmd(api))
	root.AddCommand(fundPoolCmd(api))
	root.AddCommand(distributeCmd(api))
	root.AddCommand(balanceCmd(api))

	return root.Execute()
}

func statusCmd(api func() *client) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show ledger status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var status map[string]any
			if err := api().get("/status", &status); err != nil {
				return err
			}
			return printJSON(cmd, status)
		},
	}
}

func grantRoleCmd(api func() *client) *cobra.Command {
	return &cobra.Command{
		Use:   "grant-role <role> <address>",
		Short: "Grant a role (admin, issuer, operator, oracle, funder, compliance)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp map[string]any
			if err := api().post("/roles/grant", map[string]any{"role": args[0], "address": args[1]}, &resp); err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
}

func revokeRoleCmd(api func() *client) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke-role <role> <address>",
		Short: "Revoke a role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp map[string]any
			if err := api().post("/roles/revoke", map[string]any{"role": args[0], "address": args[1]}, &resp); err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
}

func whitelistCmd(api func() *client) *cobra.Command {
	var accredited bool
	var expiresAt, kycHash string
	cmd := &cobra.Command{
		Use:   "whitelist <address>",
		Short: "Whitelist an investor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]any{
				"address":    args[0],
				"accredited": accredited,
				"expires_at": expiresAt,
				"kyc_hash":   kycHash,
			}
			var record map[string]any
			if err := api().post("/kyc/whitelist", payload, &record); err != nil {
				return err
			}
			return printJSON(cmd, record)
		},
	}
	cmd.Flags().BoolVar(&accredited, "accredited", false, "accredited investor")
	cmd.Flags().StringVar(&expiresAt, "expires-at", "", "whitelist expiry (RFC3339, empty = never)")
	cmd.Flags().StringVar(&kycHash, "kyc-hash", "", "verification evidence hash")
	return cmd
}

func issueCmd(api func() *client) *cobra.Command {
	var partition string
	cmd := &cobra.Command{
		Use:   "issue <address> <dollars>",
		Short: "Issue notes into a partition",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := usdc.ParseDollars(args[1])
			if err != nil {
				return err
			}
			payload := map[string]any{
				"partition": partition,
				"to":        args[0],
				"amount":    uint64(amount),
			}
			if err := api().post("/notes/issue", payload, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "issued %s of %s to %s\n", amount.Format(), partition, args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&partition, "partition", "REG_A_PLUS", "partition label (REG_D or REG_A_PLUS)")
	return cmd
}

func pushRevenueCmd(api func() *client) *cobra.Command {
	var (
		gross, costs, ebitda, distribute string
		periodStart, periodEnd, evidence string
		period                           uint32
	)
	cmd := &cobra.Command{
		Use:   "push-revenue",
		Short: "Push a quarterly revenue report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			payload := map[string]any{"period": period, "evidence_uri": evidence}
			for field, raw := range map[string]string{
				"gross_revenue":     gross,
				"operating_costs":   costs,
				"adjusted_ebitda":   ebitda,
				"distribute_amount": distribute,
			} {
				amount, err := usdc.ParseDollars(raw)
				if err != nil {
					return fmt.Errorf("%s: %w", field, err)
				}
				payload[field] = uint64(amount)
			}
			for field, raw := range map[string]string{
				"period_start": periodStart,
				"period_end":   periodEnd,
			} {
				ts, err := usdc.ParseISODate(raw)
				if err != nil {
					return fmt.Errorf("%s: %w", field, err)
				}
				payload[field] = ts
			}
			var report map[string]any
			if err := api().post("/oracle/reports", payload, &report); err != nil {
				return err
			}
			return printJSON(cmd, report)
		},
	}
	cmd.Flags().Uint32Var(&period, "period", 0, "reporting period (YYYYQ, e.g. 20261)")
	cmd.Flags().StringVar(&gross, "gross", "", "gross revenue in dollars")
	cmd.Flags().StringVar(&costs, "costs", "", "operating costs in dollars")
	cmd.Flags().StringVar(&ebitda, "ebitda", "", "adjusted EBITDA in dollars")
	cmd.Flags().StringVar(&distribute, "distribute", "", "distribution amount in dollars")
	cmd.Flags().StringVar(&periodStart, "start", "", "period start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&periodEnd, "end", "", "period end (YYYY-MM-DD)")
	cmd.Flags().StringVar(&evidence, "evidence", "", "evidence URI (IPFS CID)")
	for _, required := range []string{"period", "gross", "costs", "ebitda", "distribute", "start", "end", "evidence"} {
		_ = cmd.MarkFlagRequired(required)
	}
	return cmd
}

func relayPushCmd(api func() *client) *cobra.Command {
	return &cobra.Command{
		Use:   "relay-push",
		Short: "Pull the latest revenue figures from the configured API and push them to the oracle",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var report map[string]any
			if err := api().post("/oracle/relay", map[string]any{}, &report); err != nil {
				return err
			}
			return printJSON(cmd, report)
		},
	}
}

func fundPoolCmd(api func() *client) *cobra.Command {
	return &cobra.Command{
		Use:   "fund-pool <dollars>",
		Short: "Fund the yield pool from the caller's reserve balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := usdc.ParseDollars(args[0])
			if err != nil {
				return err
			}
			var resp map[string]any
			if err := api().post("/yield/fund", map[string]any{"amount": uint64(amount)}, &resp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "funded %s\n", amount.Format())
			return nil
		},
	}
}

func distributeCmd(api func() *client) *cobra.Command {
	return &cobra.Command{
		Use:   "distribute <period>",
		Short: "Distribute yield for an attested period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			period, err := domain.ParsePeriod(args[0])
			if err != nil {
				return err
			}
			var resp map[string]any
			if err := api().post("/yield/distribute", map[string]any{"period": period}, &resp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "distributed for %s\n", period.FormatQuarter())
			return nil
		},
	}
}

func balanceCmd(api func() *client) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <address>",
		Short: "Show a holder's balances and pending yield",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp map[string]any
			if err := api().get("/notes/balance/"+args[0], &resp); err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
}

func printJSON(cmd *cobra.Command, payload any) error {
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(raw))
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
