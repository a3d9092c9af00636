// Package ses delivers report emails through Amazon SES.
package ses

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/jordan-wright/email"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SESAPI defines the interface for SES operations (enables mocking)
type SESAPI interface {
	SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error)
}

// Client sends raw MIME email
type Client struct {
	client SESAPI
}

// NewClient creates a new SES client
func NewClient(cfg aws.Config) *Client {
	return &Client{client: ses.NewFromConfig(cfg)}
}

// SetSESAPI sets a custom SES API client (for testing)
func (c *Client) SetSESAPI(api SESAPI) {
	c.client = api
}

// Message is one report email: an HTML body with an optional spreadsheet
// attachment.
type Message struct {
	SenderName     string
	SenderAddress  string
	Recipient      string
	Subject        string
	HTMLBody       string
	AttachmentName string
	Attachment     []byte
}

// Send builds the MIME message and delivers it, returning the SES message ID.
func (c *Client) Send(ctx context.Context, msg Message) (string, error) {
	e := email.NewEmail()
	e.From = fmt.Sprintf("%s <%s>", msg.SenderName, msg.SenderAddress)
	e.To = []string{msg.Recipient}
	e.Subject = msg.Subject
	e.HTML = []byte(msg.HTMLBody)

	if len(msg.Attachment) > 0 {
		if _, err := e.Attach(bytes.NewReader(msg.Attachment), msg.AttachmentName, xlsxContentType); err != nil {
			return "", fmt.Errorf("failed to attach report: %w", err)
		}
	}

	raw, err := e.Bytes()
	if err != nil {
		return "", fmt.Errorf("failed to encode email: %w", err)
	}

	out, err := c.client.SendRawEmail(ctx, &ses.SendRawEmailInput{
		Source:       aws.String(msg.SenderAddress),
		Destinations: []string{msg.Recipient},
		RawMessage:   &types.RawMessage{Data: raw},
	})
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	return aws.ToString(out.MessageId), nil
}
