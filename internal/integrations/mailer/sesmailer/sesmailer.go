package sesmailer

import (
	"context"
	"fmt"

	"github.com/BearBump/CargoTrack/internal/integrations/mailer"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/pkg/errors"
)

type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Sender sends through AWS SES (API v2).
type Sender struct {
	api  sesAPI
	from string
}

// New builds an SES client. Static keys are used when both are set,
// otherwise the default AWS credential chain applies.
func New(ctx context.Context, region, accessKey, secretKey, fromEmail, fromName string) (*Sender, error) {
	if region == "" {
		region = "us-east-1"
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}
	return newWithAPI(sesv2.NewFromConfig(cfg), formatFrom(fromEmail, fromName)), nil
}

func newWithAPI(api sesAPI, from string) *Sender {
	return &Sender{api: api, from: from}
}

func formatFrom(email, name string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}

func (s *Sender) Send(ctx context.Context, msg mailer.Message) (string, error) {
	body := &types.Body{}
	if msg.HTML != "" {
		body.Html = &types.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")}
	}
	if msg.Text != "" {
		body.Text = &types.Content{Data: aws.String(msg.Text), Charset: aws.String("UTF-8")}
	}

	in := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body:    body,
			},
		},
	}
	for _, tag := range msg.Tags {
		in.EmailTags = append(in.EmailTags, types.MessageTag{Name: aws.String("template"), Value: aws.String(tag)})
	}

	out, err := s.api.SendEmail(ctx, in)
	if err != nil {
		var rejected *types.MessageRejected
		var badContent *types.BadRequestException
		if errors.As(err, &rejected) || errors.As(err, &badContent) {
			return "", errors.Wrap(mailer.ErrRejected, err.Error())
		}
		return "", errors.Wrap(err, "ses send email")
	}
	return aws.ToString(out.MessageId), nil
}
