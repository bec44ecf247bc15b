package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/poolhouse/scoretable/internal/league"
	"github.com/poolhouse/scoretable/internal/metrics"
	"github.com/poolhouse/scoretable/internal/notifier"
	"github.com/slack-go/slack"
)

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier handles sending notifications to Slack.
type Notifier struct {
	api       slackClient
	channelID string
	metrics   metrics.Metrics
}

// NewNotifier creates a new Notifier.
func NewNotifier(token, channelID string, metricsSvc metrics.Metrics) *Notifier {
	api := slack.New(token)
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metricsSvc,
	}
}

// NewNotifierWithAPI creates a new Notifier with a specific slack client.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, metricsSvc metrics.Metrics) *Notifier {
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metricsSvc,
	}
}

func (s *Notifier) sendMessage(message slack.Message, dryRun bool) error {
	if dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionAsUser(true),
	)
	if err != nil {
		s.metrics.IncNotifFailed()
		log.Error("Failed to send Slack message", "error", err, "channel", channelID)
		return fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncNotifSent()
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return nil
}

// SendResultNotification announces a verified match result.
func (s *Notifier) SendResultNotification(match *league.Match, homeWins, awayWins int, dryRun bool) error {
	msg := s.formatResultNotification(match, homeWins, awayWins)
	return s.sendMessage(msg, dryRun)
}

// SendTiebreakerNotification announces that a match entered its tiebreaker phase.
func (s *Notifier) SendTiebreakerNotification(match *league.Match, dryRun bool) error {
	msg := s.formatTiebreakerNotification(match)
	return s.sendMessage(msg, dryRun)
}

func (s *Notifier) formatResultNotification(match *league.Match, homeWins, awayWins int) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "🎱 Match verified! 🎱", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	var outcome string
	switch match.MatchResult {
	case league.ResultHomeWin:
		outcome = fmt.Sprintf("%s def. %s", match.HomeTeamID, match.AwayTeamID)
	case league.ResultAwayWin:
		outcome = fmt.Sprintf("%s def. %s", match.AwayTeamID, match.HomeTeamID)
	case league.ResultTie:
		outcome = fmt.Sprintf("%s and %s tie", match.HomeTeamID, match.AwayTeamID)
	default:
		outcome = "Result pending"
	}
	detailsText := fmt.Sprintf("%s\nFinal score: %d - %d", outcome, homeWins, awayWins)
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", detailsText, true, false), nil, nil))

	if match.TiebreakerStarted {
		contextText := slack.NewTextBlockObject("plain_text", "Decided in a tiebreaker.", true, false)
		blocks = append(blocks, slack.NewContextBlock("", contextText))
	}

	return slack.NewBlockMessage(blocks...)
}

func (s *Notifier) formatTiebreakerNotification(match *league.Match) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "🎱 Deadlock! Tiebreaker time 🎱", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	detailsText := fmt.Sprintf("%s vs %s finished regulation level. Up to %d tiebreaker games, first to %d wins.",
		match.HomeTeamID, match.AwayTeamID, league.TiebreakerGames, league.TiebreakerWinsNeeded)
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", detailsText, true, false), nil, nil))

	return slack.NewBlockMessage(blocks...)
}
