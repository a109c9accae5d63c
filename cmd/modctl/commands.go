package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/davidleathers/laborboard/internal/domain/moderation"
	moderationsvc "github.com/davidleathers/laborboard/internal/service/moderation"
)

const customCategory = "custom"

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "modctl",
		Short: "Operate the order moderation tables and settings",
		Long: `modctl manages moderation sensitivity, weighted patterns and the whitelist,
and inspects moderation activity.

Examples:
  modctl seed
  modctl sensitivity set high --by 42
  modctl patterns add "предоплата" 3 --category fraud
  modctl check "Курьер, анонимно, оплата наличные сразу" --price 5000 --age-days 1
  modctl suspicious --min-score 6`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.Context())
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", a.configPath, "config file")
	root.PersistentFlags().StringVar(&a.databaseURL, "database-url", "", "overrides database.url")
	root.PersistentFlags().StringVar(&a.redisURL, "redis-url", "", "overrides redis.url")
	root.PersistentFlags().BoolVar(&a.noCache, "no-cache", false, "do not connect to redis")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose logging")

	root.AddCommand(
		newSensitivityCmd(a),
		newPatternsCmd(a),
		newWhitelistCmd(a),
		newSeedCmd(a),
		newStatsCmd(a),
		newSuspiciousCmd(a),
		newEvaluateCmd(a),
		newCheckCmd(a),
		newDecideCmd(a),
		newAdminCmd(a),
	)
	return root
}

func newSensitivityCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sensitivity",
		Short: "Show or change the moderation sensitivity",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Print the current level and threshold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := a.services.Settings.Get(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatLevel(level))
			return nil
		},
	})

	var changedBy int64
	set := &cobra.Command{
		Use:   "set <off|low|medium|high>",
		Short: "Change the level for all subsequent evaluations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := a.services.Settings.SetFromString(cmd.Context(), args[0], changedBy)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sensitivity set to %s\n", formatLevel(level))
			return nil
		},
	}
	set.Flags().Int64Var(&changedBy, "by", 0, "user id recorded as the author of the change")
	cmd.AddCommand(set)

	return cmd
}

func newPatternsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Manage weighted risk patterns",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all patterns, active or not",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			patterns, err := a.services.Repositories.Patterns.List(cmd.Context())
			if err != nil {
				return err
			}
			return writePatterns(cmd.OutOrStdout(), patterns)
		},
	})

	var category string
	add := &cobra.Command{
		Use:   "add <keyword> <weight>",
		Short: "Add a pattern or update an existing one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			weight, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("weight must be an integer: %w", err)
			}
			p, err := moderation.NewPattern(args[0], category, weight)
			if err != nil {
				return err
			}
			if err := a.services.Repositories.Patterns.Upsert(cmd.Context(), p); err != nil {
				return err
			}
			a.invalidate(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "pattern %q saved with weight %d\n", p.Keyword, p.RiskWeight)
			return nil
		},
	}
	add.Flags().StringVar(&category, "category", customCategory, "pattern category")
	cmd.AddCommand(add)

	cmd.AddCommand(toggleCmd(a, "pattern", false, func(c *cobra.Command, key string) error {
		return a.services.Repositories.Patterns.SetActive(c.Context(), key, false)
	}))
	cmd.AddCommand(toggleCmd(a, "pattern", true, func(c *cobra.Command, key string) error {
		return a.services.Repositories.Patterns.SetActive(c.Context(), key, true)
	}))

	return cmd
}

func newWhitelistCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whitelist",
		Short: "Manage phrases that mark an order as legitimate",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all whitelist phrases, active or not",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			phrases, err := a.services.Repositories.Whitelist.List(cmd.Context())
			if err != nil {
				return err
			}
			return writeWhitelist(cmd.OutOrStdout(), phrases)
		},
	})

	var category string
	add := &cobra.Command{
		Use:   "add <phrase>",
		Short: "Add a phrase or reactivate an existing one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := moderation.NewWhitelistPhrase(args[0], category)
			if err != nil {
				return err
			}
			if err := a.services.Repositories.Whitelist.Upsert(cmd.Context(), w); err != nil {
				return err
			}
			a.invalidate(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "whitelist phrase %q saved\n", w.Phrase)
			return nil
		},
	}
	add.Flags().StringVar(&category, "category", customCategory, "phrase category")
	cmd.AddCommand(add)

	cmd.AddCommand(toggleCmd(a, "whitelist phrase", false, func(c *cobra.Command, key string) error {
		return a.services.Repositories.Whitelist.SetActive(c.Context(), key, false)
	}))
	cmd.AddCommand(toggleCmd(a, "whitelist phrase", true, func(c *cobra.Command, key string) error {
		return a.services.Repositories.Whitelist.SetActive(c.Context(), key, true)
	}))

	return cmd
}

func toggleCmd(a *app, noun string, active bool, apply func(*cobra.Command, string) error) *cobra.Command {
	use, verb := "disable", "disabled"
	if active {
		use, verb = "enable", "enabled"
	}
	return &cobra.Command{
		Use:   use + " <key>",
		Short: strings.ToUpper(use[:1]) + use[1:] + " a " + noun,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := apply(cmd, args[0]); err != nil {
				return err
			}
			a.invalidate(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "%s %q %s\n", noun, args[0], verb)
			return nil
		},
	}
}

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the built-in patterns and whitelist, keeping existing rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			patterns, err := a.services.Repositories.Patterns.SeedDefaults(cmd.Context())
			if err != nil {
				return err
			}
			phrases, err := a.services.Repositories.Whitelist.SeedDefaults(cmd.Context())
			if err != nil {
				return err
			}
			a.invalidate(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d patterns and %d whitelist phrases\n", patterns, phrases)
			return nil
		},
	}
}

func newStatsCmd(a *app) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize checks and admin decisions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			window := a.cfg.Moderation.StatsWindow
			if days > 0 {
				window = time.Duration(days) * 24 * time.Hour
			}
			stats, err := a.services.Moderation.Stats(cmd.Context(), window)
			if err != nil {
				return err
			}
			return writeStats(cmd.OutOrStdout(), stats)
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "window in days (default from moderation.stats_window)")
	return cmd
}

func newSuspiciousCmd(a *app) *cobra.Command {
	var minScore, limit int
	cmd := &cobra.Command{
		Use:   "suspicious",
		Short: "List live orders with a high logged risk score",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			orders, err := a.services.Moderation.SuspiciousOrders(cmd.Context(), minScore, limit)
			if err != nil {
				return err
			}
			return writeSuspicious(cmd.OutOrStdout(), orders)
		},
	}
	cmd.Flags().IntVar(&minScore, "min-score", 0, "minimum logged score (default 4)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum rows (default 50)")
	return cmd
}

func newEvaluateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate <order-id>",
		Short: "Score a stored order and log the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("order id must be an integer: %w", err)
			}
			outcome, err := a.services.Moderation.EvaluateOrder(cmd.Context(), id)
			if outcome != nil {
				writeAssessment(cmd.OutOrStdout(), outcome.Assessment)
				if len(outcome.Degraded) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "degraded: %s\n", strings.Join(outcome.Degraded, ", "))
				}
			}
			return err
		},
	}
}

func newCheckCmd(a *app) *cobra.Command {
	var (
		price   string
		address string
		ageDays int
	)
	cmd := &cobra.Command{
		Use:   "check <text>",
		Short: "Score arbitrary text without logging or alerting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := decimal.NewFromString(price)
			if err != nil {
				return fmt.Errorf("invalid price: %w", err)
			}
			assessment, err := a.services.Moderation.DryRun(cmd.Context(), moderation.AssessmentInput{
				Text:       args[0],
				Address:    address,
				Price:      p,
				AccountAge: moderation.AccountAgeFromDays(ageDays),
			})
			if err != nil {
				return err
			}
			writeAssessment(cmd.OutOrStdout(), assessment)
			return nil
		},
	}
	cmd.Flags().StringVar(&price, "price", "0", "order price")
	cmd.Flags().StringVar(&address, "address", "Москва, ул. Ленина, 1", "order address")
	cmd.Flags().IntVar(&ageDays, "age-days", 365, "account age in days")
	return cmd
}

func newDecideCmd(a *app) *cobra.Command {
	var adminID int64
	cmd := &cobra.Command{
		Use:   "decide <ban|delete|dismiss> <order-id>",
		Short: "Apply an administrator decision to an order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			decision, err := moderation.ParseDecision(args[0])
			if err != nil {
				return err
			}
			orderID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("order id must be an integer: %w", err)
			}
			res, err := a.services.Moderation.ApplyDecision(cmd.Context(), moderationsvc.DecisionRequest{
				OrderID:  orderID,
				AdminID:  adminID,
				Decision: decision,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "order %d: %s (customer %d, orders deleted %d)\n",
				res.OrderID, res.Decision, res.CustomerID, res.OrdersDeleted)
			return nil
		},
	}
	cmd.Flags().Int64Var(&adminID, "admin", 0, "administrator user id")
	_ = cmd.MarkFlagRequired("admin")
	return cmd
}

func newAdminCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator alert preferences",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "quiet <user-id>",
		Short: "Toggle quiet mode, which mutes all alerts for the administrator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			quiet, err := a.services.Repositories.Users.ToggleQuietMode(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %d: quiet mode %s\n", id, onOff(quiet))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "notify <user-id> <on|off>",
		Short: "Enable or disable suspicious order alerts for the administrator",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			var enabled bool
			switch strings.ToLower(args[1]) {
			case "on":
				enabled = true
			case "off":
			default:
				return fmt.Errorf("expected on or off, got %q", args[1])
			}
			if err := a.services.Repositories.Users.SetSuspiciousNotifications(cmd.Context(), id, enabled); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %d: suspicious alerts %s\n", id, onOff(enabled))
			return nil
		},
	})

	return cmd
}

func parseUserID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("user id must be an integer: %w", err)
	}
	return id, nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func formatLevel(level moderation.SensitivityLevel) string {
	if level == moderation.SensitivityOff {
		return "off (alerts disabled)"
	}
	return fmt.Sprintf("%s (threshold %d)", level, level.Threshold())
}

func writeAssessment(w io.Writer, a moderation.RiskAssessment) {
	status := "ok"
	if a.ShouldAlert() {
		status = "FLAGGED"
	}
	threshold := "off"
	if a.Threshold != moderation.ThresholdUnreachable {
		threshold = strconv.Itoa(a.Threshold)
	}
	fmt.Fprintf(w, "score %d / threshold %s: %s\n", a.Score, threshold, status)
	for _, p := range a.MatchedPatterns {
		fmt.Fprintf(w, "  %s\n", p)
	}
}

func writePatterns(w io.Writer, patterns []moderation.ModerationPattern) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEYWORD\tCATEGORY\tWEIGHT\tACTIVE")
	for _, p := range patterns {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%t\n", p.Keyword, p.Category, p.RiskWeight, p.IsActive)
	}
	return tw.Flush()
}

func writeWhitelist(w io.Writer, phrases []moderation.WhitelistPhrase) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PHRASE\tCATEGORY\tACTIVE")
	for _, p := range phrases {
		fmt.Fprintf(tw, "%s\t%s\t%t\n", p.Phrase, p.Category, p.IsActive)
	}
	return tw.Flush()
}

func writeStats(w io.Writer, s *moderation.Stats) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "window\t%s\n", s.Window)
	fmt.Fprintf(tw, "checks\t%d\n", s.TotalChecks)
	fmt.Fprintf(tw, "flagged\t%d (%s%%)\n", s.FlaggedCount, s.FlaggedRate())
	fmt.Fprintf(tw, "avg score\t%s\n", s.AvgRiskScore.StringFixed(2))
	fmt.Fprintf(tw, "banned\t%d\n", s.BannedByAdmins)
	fmt.Fprintf(tw, "deleted\t%d\n", s.DeletedByAdmins)
	fmt.Fprintf(tw, "dismissed\t%d\n", s.DismissedByAdmins)
	return tw.Flush()
}

func writeSuspicious(w io.Writer, orders []moderation.SuspiciousOrder) error {
	if len(orders) == 0 {
		fmt.Fprintln(w, "no suspicious orders")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tCUSTOMER\tSCORE\tPRICE\tCHECKED\tPATTERNS")
	for _, o := range orders {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%s\t%s\n",
			o.OrderID, o.CustomerID, o.RiskScore, o.Price.StringFixed(2),
			o.CheckedAt.UTC().Format(time.RFC3339), strings.Join(o.MatchedPatterns, ", "))
	}
	return tw.Flush()
}
