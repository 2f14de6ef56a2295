package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"coin-wallet/internal/client/api"
	"coin-wallet/internal/client/balance"
	"coin-wallet/internal/client/ledger"
	"coin-wallet/internal/client/profile"
	"coin-wallet/internal/client/purchase"
	"coin-wallet/internal/client/wallet"
	"coin-wallet/internal/client/walleterr"
	"coin-wallet/internal/domain/coin"
	"coin-wallet/internal/domain/transaction"
	otelinfra "coin-wallet/internal/infrastructure/observability/otel"
)

var rootCmd = &cobra.Command{
	Use:   "walletctl",
	Short: "Command line client for the coin wallet",
	Long: `walletctl talks to the coin wallet REST API: show the balance, browse
coin packages and the transaction history, export the history as CSV, claim
reward tasks, and buy coins through the payment gateway.

Connection settings are read from a TOML profile and can be overridden with flags.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("profile", profile.DefaultPath(), "Path to the TOML profile")
	rootCmd.PersistentFlags().String("server", "", "Wallet API base URL (overrides the profile)")
	rootCmd.PersistentFlags().String("user", "", "User ID (overrides the profile)")

	historyCmd.Flags().Int("page", 1, "Page number")
	historyCmd.Flags().Int("limit", 0, "Page size")
	historyCmd.Flags().String("type", "", "Transaction type filter")
	historyCmd.Flags().String("from", "", "Start of the date range (RFC3339 or YYYY-MM-DD)")
	historyCmd.Flags().String("to", "", "End of the date range (RFC3339 or YYYY-MM-DD)")

	exportCmd.Flags().String("type", "", "Transaction type filter")
	exportCmd.Flags().String("from", "", "Start of the date range (RFC3339 or YYYY-MM-DD)")
	exportCmd.Flags().String("to", "", "End of the date range (RFC3339 or YYYY-MM-DD)")
	exportCmd.Flags().StringP("output", "o", "", "Output file (defaults to the dated export file name, '-' for stdout)")

	rootCmd.AddCommand(balanceCmd, packagesCmd, historyCmd, exportCmd, tasksCmd, claimCmd, buyCmd, topUpCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the coin balance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := connect(cmd)
		if err != nil {
			return err
		}
		snap, err := w.Balance.Refresh(cmd.Context())
		if err != nil {
			return userError(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", balance.FormatBalance(snap), coin.FormatRupees(coin.CoinsToRupees(snap.Display())))
		return nil
	},
}

var packagesCmd = &cobra.Command{
	Use:   "packages",
	Short: "List the coin packages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := connect(cmd)
		if err != nil {
			return err
		}
		pkgs, err := w.Catalog.Load(cmd.Context())
		if err != nil {
			return userError(err)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tCOINS\tBONUS\tTOTAL\tPRICE\t")
		for _, p := range pkgs {
			name := p.Name()
			if p.IsPopular() {
				name += " *"
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\t\n", p.ID(), name, p.CoinAmount(), p.BonusCoins(), p.TotalCoins(), coin.FormatRupees(p.RupeePrice()))
		}
		return tw.Flush()
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the transaction history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := connect(cmd)
		if err != nil {
			return err
		}
		filter, err := filterFromFlags(cmd)
		if err != nil {
			return err
		}
		pageNumber, _ := cmd.Flags().GetInt("page")

		ctx := cmd.Context()
		if _, err := w.Ledger.SetFilter(ctx, filter); err != nil {
			return userError(err)
		}
		page, err := w.Ledger.SetPage(ctx, pageNumber)
		if err != nil {
			return userError(err)
		}

		out := cmd.OutOrStdout()
		if len(page.Transactions) == 0 {
			fmt.Fprintln(out, "No transactions")
			return nil
		}
		if err := printTransactions(out, page.Transactions); err != nil {
			return err
		}
		c := page.Cursor
		fmt.Fprintf(out, "\npage %d/%d, %d transactions\n", c.Page, c.TotalPages, c.Total)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the transaction history as CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := connect(cmd)
		if err != nil {
			return err
		}
		filter, err := filterFromFlags(cmd)
		if err != nil {
			return err
		}

		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = ledger.ExportFileName(time.Now())
		}

		var dst io.Writer = cmd.OutOrStdout()
		if output != "-" {
			f, err := os.Create(filepath.Clean(output))
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			defer f.Close()
			dst = f
		}

		n, err := w.Ledger.Export(cmd.Context(), filter, dst)
		if err != nil {
			return userError(err)
		}
		if output != "-" {
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d transactions to %s\n", n, output)
		}
		return nil
	},
}

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List the reward tasks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := connect(cmd)
		if err != nil {
			return err
		}
		tasks, err := w.Rewards.Load(cmd.Context())
		if err != nil {
			return userError(err)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTITLE\tREWARD\tPROGRESS\tSTATUS\t")
		for _, t := range tasks {
			progress := "-"
			if t.Progress != nil {
				progress = fmt.Sprintf("%d/%d", t.Progress.Current, t.Progress.Target)
			}
			status := "open"
			switch {
			case t.Completed:
				status = "claimed"
			case t.CanClaim() == nil:
				status = "claimable"
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t\n", t.ID, t.Title, t.Reward, progress, status)
		}
		return tw.Flush()
	},
}

var claimCmd = &cobra.Command{
	Use:   "claim TASK_ID",
	Short: "Claim the reward of a completed task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := connect(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if _, err := w.Balance.Refresh(ctx); err != nil {
			return userError(err)
		}
		if _, err := w.Rewards.Load(ctx); err != nil {
			return userError(err)
		}
		task, err := w.Rewards.Claim(ctx, args[0])
		if err != nil {
			return userError(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "claimed %d coins for %q, balance %s\n", task.Reward, task.Title, balance.FormatBalance(w.Balance.Snapshot()))
		return nil
	},
}

var buyCmd = &cobra.Command{
	Use:   "buy PACKAGE_ID",
	Short: "Buy a coin package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := connect(cmd)
		if err != nil {
			return err
		}
		flow := w.NewPurchaseFlow()
		return runFlow(cmd, w, flow, func() error { return flow.Select(args[0]) })
	},
}

var topUpCmd = &cobra.Command{
	Use:   "topup AMOUNT",
	Short: "Top up the wallet with a rupee amount",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := decimal.NewFromString(args[0])
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[0], err)
		}
		w, err := connect(cmd)
		if err != nil {
			return err
		}
		flow := w.NewTopUpFlow()
		return runFlow(cmd, w, flow, func() error { return flow.SetCustomAmount(amount) })
	},
}

// runFlow 購入フローを開き、選択、確定して結果が出るまで待つ
func runFlow(cmd *cobra.Command, w *wallet.Wallet, flow *purchase.Orchestrator, choose func() error) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if err := w.Gateway.LoadSDK(ctx); err != nil {
		return userError(err)
	}

	done := make(chan purchase.Snapshot, 1)
	unsubscribe := flow.Subscribe(func(s purchase.Snapshot) {
		if s.State == purchase.StateSuccess || s.State == purchase.StateError {
			select {
			case done <- s:
			default:
			}
		}
	})
	defer unsubscribe()
	defer flow.Close()

	if err := flow.Open(ctx); err != nil {
		return err
	}
	if err := waitSelecting(ctx, flow); err != nil {
		return userError(err)
	}
	if err := choose(); err != nil {
		return userError(err)
	}

	sel := flow.Snapshot().Selection
	if sel != nil {
		fmt.Fprintf(out, "paying %s for %d coins\n", coin.FormatRupees(sel.Amount), sel.TotalCoins)
	}
	if err := flow.Confirm(ctx); err != nil {
		return userError(err)
	}

	select {
	case s := <-done:
		if s.State == purchase.StateError {
			return errors.New(s.ErrorMessage)
		}
		fmt.Fprintf(out, "credited %d coins\n", s.CreditedCoins)
	case <-ctx.Done():
		return fmt.Errorf("purchase interrupted, check the history before retrying: %w", ctx.Err())
	}

	snap, err := w.Balance.Refresh(context.WithoutCancel(ctx))
	if err != nil {
		return userError(err)
	}
	fmt.Fprintf(out, "balance %s\n", balance.FormatBalance(snap))
	return nil
}

// waitSelecting カタログの読み込み完了を待つ
func waitSelecting(ctx context.Context, flow *purchase.Orchestrator) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		s := flow.Snapshot()
		switch s.State {
		case purchase.StateSelecting:
			return nil
		case purchase.StateError:
			if s.Err != nil {
				return s.Err
			}
			return errors.New(s.ErrorMessage)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// connect プロファイルとフラグから接続済みのWalletを作成
func connect(cmd *cobra.Command) (*wallet.Wallet, error) {
	p, err := loadProfile(cmd)
	if err != nil {
		return nil, err
	}
	bounds, err := p.TopUpBounds()
	if err != nil {
		return nil, err
	}
	tiers, err := p.TopUpTiers()
	if err != nil {
		return nil, err
	}

	logger := otelinfra.NewLoggerWithWriter(otelinfra.Tracer("walletctl"), cmd.ErrOrStderr())
	level := p.LogLevel
	if level == "" {
		level = "warn"
	}
	logger.SetLevel(otelinfra.ParseLogLevel(level))

	scriptURL := p.ScriptURL
	if scriptURL == "" {
		scriptURL = profile.DefaultScriptURL
	}

	errOut := cmd.ErrOrStderr()
	w := wallet.New(wallet.Config{
		API: api.Options{
			BaseURL:   strings.TrimRight(p.Server, "/"),
			ScriptURL: scriptURL,
			Timeout:   p.Timeout.Duration,
			OnRedirect: func(orderID, redirectURL string) {
				fmt.Fprintf(errOut, "complete the payment for order %s at:\n  %s\n", orderID, redirectURL)
			},
		},
		Customer:    p.GatewayCustomer(),
		TopUpBounds: bounds,
		TopUpTiers:  tiers,
		PageSize:    p.PageSize,
		Logger:      logger,
	})

	token, err := w.Client.IssueToken(cmd.Context(), p.UserID)
	if err != nil {
		return nil, userError(err)
	}
	w.Client.SetToken(token)
	return w, nil
}

func loadProfile(cmd *cobra.Command) (*profile.Profile, error) {
	path, _ := cmd.Flags().GetString("profile")
	p, err := profile.Load(path)
	if err != nil {
		return nil, err
	}
	if server, _ := cmd.Flags().GetString("server"); server != "" {
		p.Server = server
	}
	if user, _ := cmd.Flags().GetString("user"); user != "" {
		p.UserID = user
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w (set it in %s or pass the flag)", err, path)
	}
	return p, nil
}

func filterFromFlags(cmd *cobra.Command) (transaction.Filter, error) {
	var filter transaction.Filter
	if s, _ := cmd.Flags().GetString("type"); s != "" {
		tt, err := transaction.NewTransactionType(s)
		if err != nil {
			return filter, fmt.Errorf("invalid type %q: %w", s, err)
		}
		filter.Type = &tt
	}
	for _, f := range []struct {
		flag string
		dst  **time.Time
		end  bool
	}{
		{flag: "from", dst: &filter.From},
		{flag: "to", dst: &filter.To, end: true},
	} {
		s, _ := cmd.Flags().GetString(f.flag)
		if s == "" {
			continue
		}
		t, err := parseTime(s, f.end)
		if err != nil {
			return filter, fmt.Errorf("invalid --%s: %w", f.flag, err)
		}
		*f.dst = &t
	}
	if err := filter.Validate(); err != nil {
		return filter, err
	}
	return filter, nil
}

// parseTime RFC3339 か日付のみを受け付ける。日付のみの終了日はその日の終わりとする
func parseTime(s string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

func printTransactions(out io.Writer, txs []*transaction.Transaction) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tTYPE\tCOINS\tAMOUNT\tSTATUS\tDESCRIPTION\t")
	for _, tx := range txs {
		amount := "-"
		if r := tx.RupeeAmount(); r != nil {
			amount = coin.FormatRupees(*r)
		}
		fmt.Fprintf(tw, "%s\t%s\t%+d\t%s\t%s\t%s\t\n",
			tx.CreatedAt().Local().Format("2006-01-02 15:04"),
			tx.TransactionType(),
			tx.SignedAmount(),
			amount,
			tx.Status(),
			tx.Description(),
		)
	}
	return tw.Flush()
}

// userError 利用者向けのメッセージに変換する
func userError(err error) error {
	var we *walleterr.Error
	if !errors.As(err, &we) {
		return err
	}
	return fmt.Errorf("%s: %w", walleterr.Message(err), err)
}
