package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/fieldrank/internal/metrics"
	"github.com/mauv0809/fieldrank/internal/notifier"
	"github.com/mauv0809/fieldrank/internal/rating"
	"github.com/mauv0809/fieldrank/internal/slots"
	"github.com/slack-go/slack"
)

// leaderboardSize is the number of rows shown in a posted leaderboard.
const leaderboardSize = 10

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
func NewNotifier(token, channelID string, metrics metrics.Metrics) *Notifier {
	api := slack.New(token)
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, metrics metrics.Metrics) *Notifier {
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

func (s *Notifier) sendMessage(message slack.Message, dryRun bool) (string, string, error) {
	if dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return "dry-run-ts", "dry-run-thread-ts", nil
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
		s.metrics.IncSlackNotifFailed()
		log.Error("Failed to send Slack message", "error", err, "channel", s.channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncSlackNotifSent()
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return channelID, timestamp, nil
}

// SendLeaderboard posts the top of a field leaderboard to the channel.
func (s *Notifier) SendLeaderboard(lb rating.FieldLeaderboard, dryRun bool) error {
	msg := s.formatLeaderboard(lb)
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

// SendAlternativeSlots posts the alternatives for a slot that could not be booked.
func (s *Notifier) SendAlternativeSlots(facilityID, date, requestedRange string, suggestions []slots.SlotSuggestion, dryRun bool) error {
	msg := s.formatAlternatives(facilityID, date, requestedRange, suggestions)
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

// FormatLeaderboardResponse formats a leaderboard message for a slash command response.
func (s *Notifier) FormatLeaderboardResponse(lb rating.FieldLeaderboard) (any, error) {
	return s.formatLeaderboard(lb), nil
}

// FormatProfileResponse formats a skill profile for a slash command response.
func (s *Notifier) FormatProfileResponse(profile rating.PlayerSkillProfile) (any, error) {
	return s.formatProfile(profile), nil
}

// FormatOpponentsResponse formats opponent suggestions for a slash command response.
func (s *Notifier) FormatOpponentsResponse(playerID string, suggestions []rating.OpponentSuggestion) (any, error) {
	return s.formatOpponents(playerID, suggestions), nil
}

// FormatAlternativesResponse formats alternative slots for a slash command response.
func (s *Notifier) FormatAlternativesResponse(facilityID, date, requestedRange string, suggestions []slots.SlotSuggestion) (any, error) {
	return s.formatAlternatives(facilityID, date, requestedRange, suggestions), nil
}

func medal(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	}
	return ""
}

func fieldLabel(fieldID string) string {
	if fieldID == "" {
		return "all venues"
	}
	return fieldID
}

// formatLeaderboard creates a Slack message for a field leaderboard using Block Kit.
func (s *Notifier) formatLeaderboard(lb rating.FieldLeaderboard) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", fmt.Sprintf("🏆 Leaderboard: %s 🏆", fieldLabel(lb.FieldID)), true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	if len(lb.Entries) == 0 {
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", "No results recorded yet. Go play some matches!", true, false), nil, nil))
		return slack.NewBlockMessage(blocks...)
	}

	entries := lb.Entries
	if len(entries) > leaderboardSize {
		entries = entries[:leaderboardSize]
	}
	for _, e := range entries {
		text := fmt.Sprintf("%d. %s *%s*\n> Rating: %.3f | Win %%: %.1f%% | W-D-L: %d-%d-%d",
			e.Rank,
			medal(e.Rank),
			e.PlayerID,
			e.WeightedWinRate,
			e.WinPercent,
			e.Wins,
			e.Draws,
			e.Losses,
		)
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", text, false, false), nil, nil))
	}

	if !lb.UpdatedAt.IsZero() {
		footer := fmt.Sprintf("Updated %s", lb.UpdatedAt.Format("Mon Jan 2 15:04"))
		blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("mrkdwn", footer, false, false)))
	}

	return slack.NewBlockMessage(blocks...)
}

// formatProfile creates a Slack message for a single player's skill profile.
func (s *Notifier) formatProfile(p rating.PlayerSkillProfile) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := fmt.Sprintf("📊 %s at %s", p.PlayerID, fieldLabel(p.FieldID))
	blocks = append(blocks, slack.NewHeaderBlock(slack.NewTextBlockObject("plain_text", headerText, true, false)))

	form := "-"
	if len(p.RecentForm) > 0 {
		form = strings.Join(resultStrings(p.RecentForm), " ")
	}
	text := fmt.Sprintf("> *Skill*: %.3f\n> *Matches*: %d (%d W, %d D, %d L)\n> *Recent form*: %s",
		p.Skill,
		p.TotalMatches,
		p.Wins,
		p.Draws,
		p.Losses,
		form,
	)
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", text, false, false), nil, nil))

	return slack.NewBlockMessage(blocks...)
}

func resultStrings(form []rating.Result) []string {
	out := make([]string, len(form))
	for i, r := range form {
		out[i] = string(r)
	}
	return out
}

// formatOpponents creates a Slack message listing suggested opponents.
func (s *Notifier) formatOpponents(playerID string, suggestions []rating.OpponentSuggestion) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := fmt.Sprintf("🎾 Suggested opponents for %s", playerID)
	blocks = append(blocks, slack.NewHeaderBlock(slack.NewTextBlockObject("plain_text", headerText, true, false)))

	if len(suggestions) == 0 {
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", "No opponents found for this venue yet.", true, false), nil, nil))
		return slack.NewBlockMessage(blocks...)
	}

	for i, sg := range suggestions {
		text := fmt.Sprintf("%d. *%s*\n> Match score: %.2f | Chance to win: %.0f%%", i+1, sg.PlayerID, sg.Score, sg.PWin*100)
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", text, false, false), nil, nil))
	}

	return slack.NewBlockMessage(blocks...)
}

// formatAlternatives creates a Slack message listing alternative slots.
func (s *Notifier) formatAlternatives(facilityID, date, requestedRange string, suggestions []slots.SlotSuggestion) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := fmt.Sprintf("📅 Alternatives to %s on %s", requestedRange, date)
	blocks = append(blocks, slack.NewHeaderBlock(slack.NewTextBlockObject("plain_text", headerText, true, false)))

	if len(suggestions) == 0 {
		text := fmt.Sprintf("Sorry, no free courts at *%s* that day.", facilityID)
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", text, false, false), nil, nil))
		return slack.NewBlockMessage(blocks...)
	}

	for _, sg := range suggestions {
		text := fmt.Sprintf("• *%s* on court %s (%d min from requested)", sg.TimeRange, sg.CourtID, sg.DiffMinutes)
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", text, false, false), nil, nil))
	}

	return slack.NewBlockMessage(blocks...)
}
