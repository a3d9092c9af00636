package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/opscost/aws-usage-reporter/internal/config"
	"github.com/opscost/aws-usage-reporter/providers/aws/services/ses"
)

// sendReport delivers one report email with the spreadsheet attached.
func sendReport(ctx context.Context, cfg *config.Config, senderName, subject, htmlBody, attachmentPath string) error {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithSharedConfigProfile(cfg.SESProfile),
		awsconfig.WithRegion(cfg.SESRegion),
	)
	if err != nil {
		return fmt.Errorf("failed to load AWS config for SES: %w", err)
	}

	attachment, err := os.ReadFile(attachmentPath)
	if err != nil {
		return fmt.Errorf("failed to read report file: %w", err)
	}

	_, err = ses.NewClient(awsCfg).Send(ctx, ses.Message{
		SenderName:     senderName,
		SenderAddress:  cfg.SenderEmail,
		Recipient:      cfg.RecipientEmail,
		Subject:        subject,
		HTMLBody:       htmlBody,
		AttachmentName: filepath.Base(attachmentPath),
		Attachment:     attachment,
	})
	return err
}
