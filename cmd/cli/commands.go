package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
)

var (
	winnerTeam   string
	winnerPlayer string
	breakAndRun  bool
	goldenBreak  bool
)

func init() {
	proposeCmd.Flags().StringVar(&winnerTeam, "winner-team", "", "The winning team ID")
	proposeCmd.Flags().StringVar(&winnerPlayer, "winner-player", "", "The winning player ID")
	proposeCmd.Flags().BoolVar(&breakAndRun, "break-and-run", false, "Mark the game as a break-and-run")
	proposeCmd.Flags().BoolVar(&goldenBreak, "golden-break", false, "Mark the game as a golden break")

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(matchesCmd)
	rootCmd.AddCommand(gamesCmd)
	rootCmd.AddCommand(promptsCmd)
	rootCmd.AddCommand(proposeCmd)
	rootCmd.AddCommand(confirmCmd)
	rootCmd.AddCommand(denyCmd)
	rootCmd.AddCommand(vacateCmd)
	rootCmd.AddCommand(acceptVacateCmd)
	rootCmd.AddCommand(denyVacateCmd)
	rootCmd.AddCommand(outcomeCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(metricsCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/health")
	},
}

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "List the matches in the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/matches")
	},
}

var gamesCmd = &cobra.Command{
	Use:   "games <matchID>",
	Short: "List the games of a match",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/matches/" + args[0] + "/games")
	},
}

var promptsCmd = &cobra.Command{
	Use:   "prompts <matchID>",
	Short: "List your pending confirmation prompts for a match",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/matches/"+args[0]+"/prompts", nil)
	},
}

var proposeCmd = &cobra.Command{
	Use:   "propose <matchID> <gameNumber>",
	Short: "Propose a game result as the acting side",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]any{
			"winner_team_id":   winnerTeam,
			"winner_player_id": winnerPlayer,
			"break_and_run":    breakAndRun,
			"golden_break":     goldenBreak,
		}
		return performRequest(http.MethodPost, "/matches/"+args[0]+"/games/"+args[1]+"/propose", body)
	},
}

var confirmCmd = &cobra.Command{
	Use:   "confirm <matchID> <gameNumber>",
	Short: "Confirm the opposing side's proposed result",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/matches/"+args[0]+"/games/"+args[1]+"/confirm", nil)
	},
}

var denyCmd = &cobra.Command{
	Use:   "deny <matchID> <gameNumber>",
	Short: "Deny the opposing side's proposed result",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/matches/"+args[0]+"/games/"+args[1]+"/deny", nil)
	},
}

var vacateCmd = &cobra.Command{
	Use:   "vacate <matchID> <gameNumber>",
	Short: "Request to void a finalized game result",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/matches/"+args[0]+"/games/"+args[1]+"/vacate", nil)
	},
}

var acceptVacateCmd = &cobra.Command{
	Use:   "accept-vacate <matchID> <gameNumber>",
	Short: "Accept the opposing side's vacate request",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/matches/"+args[0]+"/games/"+args[1]+"/vacate/accept", nil)
	},
}

var denyVacateCmd = &cobra.Command{
	Use:   "deny-vacate <matchID> <gameNumber>",
	Short: "Deny the opposing side's vacate request",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/matches/"+args[0]+"/games/"+args[1]+"/vacate/deny", nil)
	},
}

var outcomeCmd = &cobra.Command{
	Use:   "outcome <matchID>",
	Short: "Show the derived aggregate outcome of a match",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/matches/" + args[0] + "/outcome")
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify <matchID>",
	Short: "Submit your side's match verification",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/matches/"+args[0]+"/verify", nil)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Get the durable application counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/stats")
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/metrics")
	},
}

func performGetRequest(endpoint string) error {
	return performRequest(http.MethodGet, endpoint, nil)
}

func performRequest(method, endpoint string, body any) error {
	url := host + endpoint
	fmt.Printf("Making request to %s\n", url)

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if member != "" {
		req.Header.Set("X-Member-ID", member)
	}
	if team != "" {
		req.Header.Set("X-Team-ID", team)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(respBody))

	return nil
}
