package slack_test

import (
	"context"
	"errors"
	"testing"

	"github.com/poolhouse/scoretable/internal/league"
	"github.com/poolhouse/scoretable/internal/metrics"
	slacknotifier "github.com/poolhouse/scoretable/internal/notifier/slack"
	slackapi "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSlackClient struct {
	calls int
	err   error
}

func (f *fakeSlackClient) PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
	f.calls++
	if f.err != nil {
		return "", "", f.err
	}
	return channelID, "ts-1", nil
}

func verifiedMatch() *league.Match {
	home := "captain-home"
	away := "captain-away"
	return &league.Match{
		ID:             "m1",
		HomeTeamID:     "Rack City",
		AwayTeamID:     "Chalk Eaters",
		MatchResult:    league.ResultHomeWin,
		HomeVerifiedBy: &home,
		AwayVerifiedBy: &away,
	}
}

func TestSendResultNotification(t *testing.T) {
	api := &fakeSlackClient{}
	m := metrics.NewMock()
	n := slacknotifier.NewNotifierWithAPI(api, "C123", m)

	err := n.SendResultNotification(verifiedMatch(), 10, 8, false)
	require.NoError(t, err)
	assert.Equal(t, 1, api.calls)
	assert.Equal(t, 1, m.NotifSentCount)
}

func TestSendResultNotificationFailure(t *testing.T) {
	api := &fakeSlackClient{err: errors.New("channel_not_found")}
	m := metrics.NewMock()
	n := slacknotifier.NewNotifierWithAPI(api, "C123", m)

	err := n.SendResultNotification(verifiedMatch(), 10, 8, false)
	require.Error(t, err)
	assert.Equal(t, 1, m.NotifFailedCount)
}

func TestDryRunSkipsAPICall(t *testing.T) {
	api := &fakeSlackClient{}
	n := slacknotifier.NewNotifierWithAPI(api, "C123", metrics.NewMock())

	require.NoError(t, n.SendTiebreakerNotification(verifiedMatch(), true))
	assert.Equal(t, 0, api.calls)
}
