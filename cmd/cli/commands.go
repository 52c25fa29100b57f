package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(estimateCmd)
	rootCmd.AddCommand(opponentsCmd)
	rootCmd.AddCommand(alternativesCmd)
	rootCmd.AddCommand(recomputeCmd)
	rootCmd.AddCommand(fetchCmd)

	leaderboardCmd.Flags().String("field", "", "Venue ID; empty for all venues")
	leaderboardCmd.Flags().Bool("notify", false, "Also post the leaderboard to Slack")

	profileCmd.Flags().String("field", "", "Venue ID; empty for the cross-venue profile")

	estimateCmd.Flags().String("my", "", "My skill in [0,1]")
	estimateCmd.Flags().String("opponent", "", "Opponent skill in [0,1]")
	estimateCmd.Flags().String("player", "", "My player ID, used when --my is empty")
	estimateCmd.Flags().String("opponent-id", "", "Opponent player ID, used when --opponent is empty")
	estimateCmd.Flags().String("field", "", "Venue of the profiles to read")

	opponentsCmd.Flags().String("field", "", "Venue ID")
	opponentsCmd.Flags().String("player", "", "Player looking for opponents")
	opponentsCmd.Flags().String("skill", "", "Skill to match instead of the player's")
	opponentsCmd.Flags().Int("limit", 0, "Maximum number of suggestions")

	alternativesCmd.Flags().Bool("notify", false, "Also post the alternatives to Slack")

	recomputeCmd.Flags().String("field", "", "Venue ID")
	recomputeCmd.Flags().Bool("all", false, "Rebuild every leaderboard and profile")

	fetchCmd.Flags().Int("days", 0, "Import matches that started up to this many days ago")
	fetchCmd.Flags().String("slots", "", "Import court availability for this date (YYYY-MM-DD) instead")
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/health", nil)
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/metrics", nil)
	},
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the leaderboard of a venue",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		setFlag(cmd, q, "field", "field_id")
		if notify, _ := cmd.Flags().GetBool("notify"); notify {
			q.Set("notify", "true")
		}
		return performRequest(http.MethodGet, "/leaderboard", q)
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile <player_id>",
	Short: "Show the skill profile of a player",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{"player_id": {args[0]}}
		setFlag(cmd, q, "field", "field_id")
		return performRequest(http.MethodGet, "/profile", q)
	},
}

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate win/draw/lose probabilities for a pairing",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		setFlag(cmd, q, "my", "my")
		setFlag(cmd, q, "opponent", "opponent")
		setFlag(cmd, q, "player", "player_id")
		setFlag(cmd, q, "opponent-id", "opponent_id")
		setFlag(cmd, q, "field", "field_id")
		return performRequest(http.MethodGet, "/estimate", q)
	},
}

var opponentsCmd = &cobra.Command{
	Use:   "opponents",
	Short: "Suggest opponents at a venue",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		setFlag(cmd, q, "field", "field_id")
		setFlag(cmd, q, "player", "player_id")
		setFlag(cmd, q, "skill", "skill")
		if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 {
			q.Set("limit", strconv.Itoa(limit))
		}
		return performRequest(http.MethodGet, "/opponents", q)
	},
}

var alternativesCmd = &cobra.Command{
	Use:   "alternatives <facility_id> <date> <range>",
	Short: "Find free slots close to a requested one",
	Long:  "Find up to three free court slots close to a requested one, e.g. alternatives club-1 2025-07-09 10:00-11:00",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{
			"facility_id": {args[0]},
			"date":        {args[1]},
			"range":       {args[2]},
		}
		if notify, _ := cmd.Flags().GetBool("notify"); notify {
			q.Set("notify", "true")
		}
		return performRequest(http.MethodGet, "/alternatives", q)
	},
}

var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Recompute a venue leaderboard, or everything with --all",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		setFlag(cmd, q, "field", "field_id")
		if all, _ := cmd.Flags().GetBool("all"); all {
			q.Set("all", "true")
		}
		return performRequest(http.MethodPost, "/leaderboard/recompute", q)
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Import played matches, or court availability with --slots",
	RunE: func(cmd *cobra.Command, args []string) error {
		if date, _ := cmd.Flags().GetString("slots"); date != "" {
			return performRequest(http.MethodGet, "/fetch-slots", url.Values{"date": {date}})
		}
		q := url.Values{}
		if days, _ := cmd.Flags().GetInt("days"); days > 0 {
			q.Set("days", strconv.Itoa(days))
		}
		return performRequest(http.MethodGet, "/fetch", q)
	},
}

// setFlag copies a non-empty string flag into the query under param.
func setFlag(cmd *cobra.Command, q url.Values, flag, param string) {
	if v, _ := cmd.Flags().GetString(flag); v != "" {
		q.Set(param, v)
	}
}

func buildURL(endpoint string, q url.Values) string {
	if q == nil {
		q = url.Values{}
	}
	if verbose {
		q.Set("verbose", "true")
	}
	if dryRun {
		q.Set("dry_run", "true")
	}
	u := host + endpoint
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func performRequest(method, endpoint string, q url.Values) error {
	target := buildURL(endpoint, q)
	fmt.Printf("Making request to %s\n", target)

	req, err := http.NewRequest(method, target, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(body))

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}
