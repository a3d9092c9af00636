// Package ec2 provides the EC2 inventory client used by the collector.
package ec2

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// EC2API defines the interface for EC2 operations (enables mocking)
type EC2API interface {
	DescribeRegions(ctx context.Context, params *ec2.DescribeRegionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error)
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
	DescribeInstanceTypes(ctx context.Context, params *ec2.DescribeInstanceTypesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstanceTypesOutput, error)
	DescribeVolumes(ctx context.Context, params *ec2.DescribeVolumesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeVolumesOutput, error)
}

// Client handles EC2 instance and volume inventory
type Client struct {
	client EC2API
	region string
}

// NewClient creates a new EC2 client
func NewClient(cfg aws.Config) *Client {
	return &Client{
		client: ec2.NewFromConfig(cfg),
		region: cfg.Region,
	}
}

// SetEC2API sets a custom EC2 API client (for testing)
func (c *Client) SetEC2API(api EC2API) {
	c.client = api
}

// GetRegion returns the region
func (c *Client) GetRegion() string {
	return c.region
}

// FallbackRegions is used when region discovery fails.
var FallbackRegions = []string{
	"us-east-1", "us-east-2", "us-west-1", "us-west-2", "ap-south-1", "ap-northeast-1",
}

// DiscoverRegions returns all enabled AWS regions, sorted for consistent
// ordering across runs.
func (c *Client) DiscoverRegions(ctx context.Context) ([]string, error) {
	out, err := c.client.DescribeRegions(ctx, &ec2.DescribeRegionsInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to describe regions: %w", err)
	}

	regions := make([]string, 0, len(out.Regions))
	for _, r := range out.Regions {
		regions = append(regions, aws.ToString(r.RegionName))
	}
	sort.Strings(regions)
	return regions, nil
}

// Instance is the inventory view of one EC2 instance.
type Instance struct {
	ID         string
	Name       string
	Type       string
	State      string
	LaunchTime time.Time
	VolumeIDs  []string
}

// InstancesByState lists all instances in the given states, following
// pagination.
func (c *Client) InstancesByState(ctx context.Context, states ...string) ([]Instance, error) {
	input := &ec2.DescribeInstancesInput{
		Filters: []types.Filter{
			{Name: aws.String("instance-state-name"), Values: states},
		},
	}

	var instances []Instance
	paginator := ec2.NewDescribeInstancesPaginator(c.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe instances: %w", err)
		}
		for _, reservation := range page.Reservations {
			for _, inst := range reservation.Instances {
				instances = append(instances, fromSDKInstance(inst))
			}
		}
	}

	return instances, nil
}

// RunningInstances lists all running instances.
func (c *Client) RunningInstances(ctx context.Context) ([]Instance, error) {
	return c.InstancesByState(ctx, "running")
}

func fromSDKInstance(inst types.Instance) Instance {
	out := Instance{
		ID:   aws.ToString(inst.InstanceId),
		Name: "N/A",
		Type: string(inst.InstanceType),
	}
	if inst.State != nil {
		out.State = string(inst.State.Name)
	}
	out.LaunchTime = aws.ToTime(inst.LaunchTime)
	for _, tag := range inst.Tags {
		if aws.ToString(tag.Key) == "Name" {
			out.Name = aws.ToString(tag.Value)
			break
		}
	}
	for _, mapping := range inst.BlockDeviceMappings {
		if mapping.Ebs != nil {
			out.VolumeIDs = append(out.VolumeIDs, aws.ToString(mapping.Ebs.VolumeId))
		}
	}
	return out
}

// TypeSpecs holds the installed capacity of an instance type.
type TypeSpecs struct {
	VCPU      int32
	MemoryGiB float64
}

// Conservative capacity estimates for common types, used when the
// DescribeInstanceTypes call fails.
var fallbackMemoryGiB = map[string]float64{
	"t3a.nano": 0.5, "t3a.micro": 1, "t3a.small": 2, "t3a.medium": 4, "t3a.large": 8, "t3a.xlarge": 16,
	"t3.nano": 0.5, "t3.micro": 1, "t3.small": 2, "t3.medium": 4, "t3.large": 8, "t3.xlarge": 16,
	"t2.nano": 0.5, "t2.micro": 1, "t2.small": 2, "t2.medium": 4, "t2.large": 8,
	"m5.large": 8, "m5.xlarge": 16, "m5.2xlarge": 32, "m5.4xlarge": 64,
	"c5.large": 4, "c5.xlarge": 8, "c5.2xlarge": 16,
	"r5.large": 16, "r5.xlarge": 32, "r5.2xlarge": 64,
}

// TypeSpecs returns vCPU count and installed memory for an instance type.
// Lookup failures degrade to static estimates rather than an error.
func (c *Client) TypeSpecs(ctx context.Context, instanceType string) TypeSpecs {
	out, err := c.client.DescribeInstanceTypes(ctx, &ec2.DescribeInstanceTypesInput{
		InstanceTypes: []types.InstanceType{types.InstanceType(instanceType)},
	})
	if err == nil && len(out.InstanceTypes) > 0 {
		info := out.InstanceTypes[0]
		specs := TypeSpecs{VCPU: 2, MemoryGiB: 8}
		if info.VCpuInfo != nil {
			specs.VCPU = aws.ToInt32(info.VCpuInfo.DefaultVCpus)
		}
		if info.MemoryInfo != nil {
			specs.MemoryGiB = float64(aws.ToInt64(info.MemoryInfo.SizeInMiB)) / 1024
		}
		return specs
	}

	memory, ok := fallbackMemoryGiB[instanceType]
	if !ok {
		memory = 8
	}
	vcpu := int32(memory / 4)
	if vcpu < 1 {
		vcpu = 1
	}
	return TypeSpecs{VCPU: vcpu, MemoryGiB: memory}
}

// VolumeSummary aggregates the EBS volumes attached to an instance.
type VolumeSummary struct {
	Count   int
	TotalGB int32
	SizesGB []int32
	IDs     []string
}

// Volumes describes the given EBS volumes. Best effort: an error yields an
// empty summary and the caller substitutes minimum defaults.
func (c *Client) Volumes(ctx context.Context, volumeIDs []string) VolumeSummary {
	var summary VolumeSummary
	if len(volumeIDs) == 0 {
		return summary
	}

	out, err := c.client.DescribeVolumes(ctx, &ec2.DescribeVolumesInput{VolumeIds: volumeIDs})
	if err != nil {
		return summary
	}

	for _, volume := range out.Volumes {
		size := aws.ToInt32(volume.Size)
		summary.Count++
		summary.TotalGB += size
		summary.SizesGB = append(summary.SizesGB, size)
		summary.IDs = append(summary.IDs, aws.ToString(volume.VolumeId))
	}
	return summary
}
