package collector

import (
	"context"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/rs/zerolog"

	"github.com/opscost/aws-usage-reporter/providers/aws/services/cloudwatch"
	"github.com/opscost/aws-usage-reporter/providers/aws/services/ec2"
	"github.com/opscost/aws-usage-reporter/providers/aws/services/rds"
	"github.com/opscost/aws-usage-reporter/providers/aws/services/ssm"
)

// AWSClientFactory returns a ClientFactory backed by the AWS SDK, loading
// shared credentials for the requested profile.
func AWSClientFactory(log zerolog.Logger, pollInterval time.Duration, pollAttempts int) ClientFactory {
	return func(ctx context.Context, profile, region string) (*Clients, error) {
		cfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithSharedConfigProfile(profile),
			awsconfig.WithRegion(region),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config for %s/%s: %w", profile, region, err)
		}

		return &Clients{
			EC2:        ec2.NewClient(cfg),
			RDS:        rds.NewClient(cfg),
			CloudWatch: cloudwatch.NewClient(cfg, log),
			SSM:        ssm.NewClient(cfg, log, pollInterval, pollAttempts),
		}, nil
	}
}
