package ses

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSESClient implements SESAPI for testing
type MockSESClient struct {
	mock.Mock
}

func (m *MockSESClient) SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ses.SendRawEmailOutput), args.Error(1)
}

func TestClient_Send(t *testing.T) {
	var captured *ses.SendRawEmailInput
	mockClient := new(MockSESClient)
	mockClient.On("SendRawEmail", mock.Anything, mock.MatchedBy(func(input *ses.SendRawEmailInput) bool {
		captured = input
		return true
	})).Return(&ses.SendRawEmailOutput{MessageId: aws.String("msg-123")}, nil)

	client := &Client{client: mockClient}
	id, err := client.Send(context.Background(), Message{
		SenderName:     "AWS Infrastructure Report",
		SenderAddress:  "no-reply@example.com",
		Recipient:      "ops@example.com",
		Subject:        "AWS Usage Report - 2026-08-23",
		HTMLBody:       "<html><body>report</body></html>",
		AttachmentName: "aws_usage_report_2026-08-23.xlsx",
		Attachment:     []byte("spreadsheet-bytes"),
	})

	require.NoError(t, err)
	assert.Equal(t, "msg-123", id)
	require.NotNil(t, captured)
	assert.Equal(t, "no-reply@example.com", aws.ToString(captured.Source))
	assert.Equal(t, []string{"ops@example.com"}, captured.Destinations)

	raw := string(captured.RawMessage.Data)
	assert.Contains(t, raw, "Subject: AWS Usage Report - 2026-08-23")
	assert.Contains(t, raw, "aws_usage_report_2026-08-23.xlsx")
	assert.Contains(t, raw, "text/html")
}

func TestClient_SendWithoutAttachment(t *testing.T) {
	mockClient := new(MockSESClient)
	mockClient.On("SendRawEmail", mock.Anything, mock.MatchedBy(func(input *ses.SendRawEmailInput) bool {
		return input.RawMessage != nil && len(input.RawMessage.Data) > 0
	})).Return(&ses.SendRawEmailOutput{MessageId: aws.String("msg-456")}, nil)

	client := &Client{client: mockClient}
	id, err := client.Send(context.Background(), Message{
		SenderName:    "AWS Optimization Report",
		SenderAddress: "no-reply@example.com",
		Recipient:     "ops@example.com",
		Subject:       "status",
		HTMLBody:      "<p>all good</p>",
	})

	require.NoError(t, err)
	assert.Equal(t, "msg-456", id)
}

func TestClient_SendError(t *testing.T) {
	mockClient := new(MockSESClient)
	mockClient.On("SendRawEmail", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("address not verified"))

	client := &Client{client: mockClient}
	_, err := client.Send(context.Background(), Message{
		SenderAddress: "no-reply@example.com",
		Recipient:     "ops@example.com",
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send email")
}
