// Package ssm runs shell command batches on instances through AWS Systems
// Manager and polls for their output.
package ssm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/rs/zerolog"
)

const shellDocument = "AWS-RunShellScript"

// SSMAPI defines the interface for SSM operations (enables mocking)
type SSMAPI interface {
	SendCommand(ctx context.Context, params *ssm.SendCommandInput, optFns ...func(*ssm.Options)) (*ssm.SendCommandOutput, error)
	GetCommandInvocation(ctx context.Context, params *ssm.GetCommandInvocationInput, optFns ...func(*ssm.Options)) (*ssm.GetCommandInvocationOutput, error)
}

// Client runs in-guest command batches
type Client struct {
	client       SSMAPI
	log          zerolog.Logger
	pollInterval time.Duration
	pollAttempts int
}

// NewClient creates a new SSM client. pollInterval and pollAttempts bound
// how long RunBatch waits for a command to finish.
func NewClient(cfg aws.Config, log zerolog.Logger, pollInterval time.Duration, pollAttempts int) *Client {
	return &Client{
		client:       ssm.NewFromConfig(cfg),
		log:          log,
		pollInterval: pollInterval,
		pollAttempts: pollAttempts,
	}
}

// SetSSMAPI sets a custom SSM API client (for testing)
func (c *Client) SetSSMAPI(api SSMAPI) {
	c.client = api
}

// RunBatch executes the commands on one instance and returns the trimmed,
// non-empty stdout lines. All polling and waiting happens here; callers get
// either the finished output or an error.
func (c *Client) RunBatch(ctx context.Context, instanceID string, commands []string, timeout time.Duration) ([]string, error) {
	sent, err := c.client.SendCommand(ctx, &ssm.SendCommandInput{
		InstanceIds:    []string{instanceID},
		DocumentName:   aws.String(shellDocument),
		Parameters:     map[string][]string{"commands": commands},
		TimeoutSeconds: aws.Int32(int32(timeout.Seconds())),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send command to %s: %w", instanceID, err)
	}
	if sent.Command == nil {
		return nil, fmt.Errorf("empty send command response for %s", instanceID)
	}
	commandID := aws.ToString(sent.Command.CommandId)

	for attempt := 0; attempt < c.pollAttempts; attempt++ {
		select {
		case <-time.After(c.pollInterval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		invocation, err := c.client.GetCommandInvocation(ctx, &ssm.GetCommandInvocationInput{
			CommandId:  aws.String(commandID),
			InstanceId: aws.String(instanceID),
		})
		if err != nil {
			// Invocation records lag SendCommand briefly; keep polling.
			c.log.Debug().Err(err).Str("instance", instanceID).Msg("command invocation not ready")
			continue
		}

		switch invocation.Status {
		case types.CommandInvocationStatusSuccess:
			return splitOutputLines(aws.ToString(invocation.StandardOutputContent)), nil
		case types.CommandInvocationStatusPending, types.CommandInvocationStatusInProgress, types.CommandInvocationStatusDelayed:
			continue
		case types.CommandInvocationStatusFailed:
			stderr := aws.ToString(invocation.StandardErrorContent)
			if stderr == "" {
				stderr = "no error details"
			}
			return nil, fmt.Errorf("command failed on %s: %s", instanceID, stderr)
		default:
			return nil, fmt.Errorf("unexpected command status %q on %s", invocation.Status, instanceID)
		}
	}

	return nil, fmt.Errorf("command timed out on %s after %d attempts", instanceID, c.pollAttempts)
}

func splitOutputLines(stdout string) []string {
	var lines []string
	for _, line := range strings.Split(stdout, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
