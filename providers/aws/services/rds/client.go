// Package rds provides the RDS inventory client used by the collector.
package rds

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
)

// RDSAPI defines the interface for RDS operations (enables mocking)
type RDSAPI interface {
	DescribeDBInstances(ctx context.Context, params *rds.DescribeDBInstancesInput, optFns ...func(*rds.Options)) (*rds.DescribeDBInstancesOutput, error)
}

// Client handles RDS database inventory
type Client struct {
	client RDSAPI
	region string
}

// NewClient creates a new RDS client
func NewClient(cfg aws.Config) *Client {
	return &Client{
		client: rds.NewFromConfig(cfg),
		region: cfg.Region,
	}
}

// SetRDSAPI sets a custom RDS API client (for testing)
func (c *Client) SetRDSAPI(api RDSAPI) {
	c.client = api
}

// GetRegion returns the region
func (c *Client) GetRegion() string {
	return c.region
}

// DBInstance is the inventory view of one RDS database.
type DBInstance struct {
	ID               string
	Class            string
	Engine           string
	Status           string
	AllocatedStorage int32
}

// Databases lists all DB instances in the region, following pagination.
func (c *Client) Databases(ctx context.Context) ([]DBInstance, error) {
	var databases []DBInstance

	paginator := rds.NewDescribeDBInstancesPaginator(c.client, &rds.DescribeDBInstancesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe DB instances: %w", err)
		}
		for _, db := range page.DBInstances {
			databases = append(databases, DBInstance{
				ID:               aws.ToString(db.DBInstanceIdentifier),
				Class:            aws.ToString(db.DBInstanceClass),
				Engine:           aws.ToString(db.Engine),
				Status:           aws.ToString(db.DBInstanceStatus),
				AllocatedStorage: aws.ToInt32(db.AllocatedStorage),
			})
		}
	}

	return databases, nil
}

// Static capacity estimates for common DB instance classes. The RDS API has
// no equivalent of DescribeInstanceTypes, so unknown classes get a
// conservative default.
var (
	classVCPU = map[string]int32{
		"db.t2.micro": 1, "db.t2.small": 1, "db.t2.medium": 2, "db.t2.large": 2,
		"db.t3.micro": 2, "db.t3.small": 2, "db.t3.medium": 2, "db.t3.large": 2,
		"db.t3.xlarge": 4, "db.t3.2xlarge": 8,
		"db.t4g.micro": 2, "db.t4g.small": 2, "db.t4g.medium": 2, "db.t4g.large": 2,
		"db.t4g.xlarge": 4, "db.t4g.2xlarge": 8,
		"db.m5.large": 2, "db.m5.xlarge": 4, "db.m5.2xlarge": 8, "db.m5.4xlarge": 16,
		"db.m6i.large": 2, "db.m6i.xlarge": 4, "db.m6i.2xlarge": 8,
		"db.r5.large": 2, "db.r5.xlarge": 4, "db.r5.2xlarge": 8, "db.r5.4xlarge": 16,
		"db.r6i.large": 2, "db.r6i.xlarge": 4, "db.r6i.2xlarge": 8,
	}

	classMemoryGiB = map[string]float64{
		"db.t2.micro": 1, "db.t2.small": 2, "db.t2.medium": 4, "db.t2.large": 8,
		"db.t3.micro": 1, "db.t3.small": 2, "db.t3.medium": 4, "db.t3.large": 8,
		"db.t3.xlarge": 16, "db.t3.2xlarge": 32,
		"db.t4g.micro": 1, "db.t4g.small": 2, "db.t4g.medium": 4, "db.t4g.large": 8,
		"db.t4g.xlarge": 16, "db.t4g.2xlarge": 32,
		"db.m5.large": 8, "db.m5.xlarge": 16, "db.m5.2xlarge": 32, "db.m5.4xlarge": 64,
		"db.m6i.large": 8, "db.m6i.xlarge": 16, "db.m6i.2xlarge": 32,
		"db.r5.large": 16, "db.r5.xlarge": 32, "db.r5.2xlarge": 64, "db.r5.4xlarge": 128,
		"db.r6i.large": 16, "db.r6i.xlarge": 32, "db.r6i.2xlarge": 64,
	}
)

// EstimateVCPU returns the vCPU count for a DB instance class.
func EstimateVCPU(class string) int32 {
	if v, ok := classVCPU[class]; ok {
		return v
	}
	return 2
}

// EstimateMemoryGiB returns the installed memory for a DB instance class.
func EstimateMemoryGiB(class string) float64 {
	if v, ok := classMemoryGiB[class]; ok {
		return v
	}
	return 8
}
