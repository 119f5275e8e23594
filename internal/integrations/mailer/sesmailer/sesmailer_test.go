package sesmailer

import (
	"context"
	"errors"
	"testing"

	"github.com/BearBump/CargoTrack/internal/integrations/mailer"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type sesMock struct {
	mock.Mock
}

func (m *sesMock) SendEmail(ctx context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*sesv2.SendEmailOutput)
	return out, args.Error(1)
}

func TestSender_Send_OK(t *testing.T) {
	m := &sesMock{}
	m.On("SendEmail", mock.Anything, mock.MatchedBy(func(in *sesv2.SendEmailInput) bool {
		simple := in.Content.Simple
		return aws.ToString(in.FromEmailAddress) == "CargoTrack <noreply@cargo.io>" &&
			len(in.Destination.ToAddresses) == 1 && in.Destination.ToAddresses[0] == "ann@example.com" &&
			aws.ToString(simple.Subject.Data) == "Status changed" &&
			aws.ToString(simple.Body.Html.Data) == "<b>In Transit</b>" &&
			simple.Body.Text == nil &&
			len(in.EmailTags) == 1 && aws.ToString(in.EmailTags[0].Value) == "tracking_status"
	})).Return(&sesv2.SendEmailOutput{MessageId: aws.String("ses-1")}, nil).Once()

	s := newWithAPI(m, formatFrom("noreply@cargo.io", "CargoTrack"))
	id, err := s.Send(context.Background(), mailer.Message{
		To: "ann@example.com", Subject: "Status changed", HTML: "<b>In Transit</b>", Tags: []string{"tracking_status"},
	})
	require.NoError(t, err)
	require.Equal(t, "ses-1", id)
	m.AssertExpectations(t)
}

func TestSender_Send_Rejected(t *testing.T) {
	m := &sesMock{}
	m.On("SendEmail", mock.Anything, mock.Anything).
		Return(nil, &types.MessageRejected{Message: aws.String("Email address is not verified")}).Once()

	_, err := newWithAPI(m, "noreply@cargo.io").Send(context.Background(), mailer.Message{To: "x@y.io"})
	require.Error(t, err)
	require.True(t, mailer.IsRejected(err))
}

func TestSender_Send_TransientError(t *testing.T) {
	m := &sesMock{}
	m.On("SendEmail", mock.Anything, mock.Anything).Return(nil, errors.New("timeout")).Once()

	_, err := newWithAPI(m, "noreply@cargo.io").Send(context.Background(), mailer.Message{To: "x@y.io"})
	require.ErrorContains(t, err, "ses send email")
	require.False(t, mailer.IsRejected(err))
}

func TestFormatFrom(t *testing.T) {
	require.Equal(t, "a@b.co", formatFrom("a@b.co", ""))
	require.Equal(t, "Desk <a@b.co>", formatFrom("a@b.co", "Desk"))
}
