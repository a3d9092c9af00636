// Package collector gathers one day of utilization samples across every
// configured profile and region, fanning out over a bounded worker pool.
package collector

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/opscost/aws-usage-reporter/internal/guestmetrics"
	"github.com/opscost/aws-usage-reporter/internal/usage"
	"github.com/opscost/aws-usage-reporter/providers/aws/services/cloudwatch"
	"github.com/opscost/aws-usage-reporter/providers/aws/services/ec2"
	"github.com/opscost/aws-usage-reporter/providers/aws/services/rds"
)

// ec2Inventory is the slice of the EC2 client the collector needs.
type ec2Inventory interface {
	InstancesByState(ctx context.Context, states ...string) ([]ec2.Instance, error)
	RunningInstances(ctx context.Context) ([]ec2.Instance, error)
	TypeSpecs(ctx context.Context, instanceType string) ec2.TypeSpecs
	Volumes(ctx context.Context, volumeIDs []string) ec2.VolumeSummary
}

// rdsInventory is the slice of the RDS client the collector needs.
type rdsInventory interface {
	Databases(ctx context.Context) ([]rds.DBInstance, error)
}

// metricSource is the slice of the CloudWatch client the collector needs.
type metricSource interface {
	LatestAverage(ctx context.Context, namespace, metricName, dimensionName, dimensionValue string) float64
}

// commandRunner is the slice of the SSM client the collector needs.
type commandRunner interface {
	RunBatch(ctx context.Context, instanceID string, commands []string, timeout time.Duration) ([]string, error)
}

// Clients bundles the per-profile, per-region service clients.
type Clients struct {
	EC2        ec2Inventory
	RDS        rdsInventory
	CloudWatch metricSource
	SSM        commandRunner
}

// ClientFactory builds the service clients for one profile and region.
type ClientFactory func(ctx context.Context, profile, region string) (*Clients, error)

// Collector fans collection out over profiles and regions.
type Collector struct {
	profiles   []string
	regions    []string
	workers    int
	ssmTimeout time.Duration
	factory    ClientFactory
	log        zerolog.Logger
	now        func() time.Time
}

// New creates a collector. The factory is called once per profile and region
// pair for each service sweep.
func New(profiles, regions []string, workers int, ssmTimeout time.Duration, factory ClientFactory, log zerolog.Logger) *Collector {
	return &Collector{
		profiles:   profiles,
		regions:    regions,
		workers:    workers,
		ssmTimeout: ssmTimeout,
		factory:    factory,
		log:        log,
		now:        time.Now,
	}
}

// SetNow overrides the clock (for testing)
func (c *Collector) SetNow(now func() time.Time) {
	c.now = now
}

// Collect sweeps EC2 and RDS across every profile and region and returns the
// deduplicated samples for today. Per-scope failures are logged and skipped:
// one unreachable account never empties the whole report.
func (c *Collector) Collect(ctx context.Context) []usage.Sample {
	today := c.now().Format(usage.DateLayout)

	var mu sync.Mutex
	var all []usage.Sample

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for _, profile := range c.profiles {
		for _, region := range c.regions {
			profile, region := profile, region
			g.Go(func() error {
				samples := c.collectEC2(ctx, profile, region, today)
				mu.Lock()
				all = append(all, samples...)
				mu.Unlock()
				return nil
			})
			g.Go(func() error {
				samples := c.collectRDS(ctx, profile, region, today)
				mu.Lock()
				all = append(all, samples...)
				mu.Unlock()
				return nil
			})
		}
	}

	// Workers never return errors; Wait only serves as the barrier.
	_ = g.Wait()

	deduped := dedupe(all)
	if removed := len(all) - len(deduped); removed > 0 {
		c.log.Info().Int("removed", removed).Msg("removed duplicate samples from current run")
	}
	return deduped
}

func (c *Collector) collectEC2(ctx context.Context, profile, region, today string) []usage.Sample {
	clients, err := c.factory(ctx, profile, region)
	if err != nil {
		c.log.Error().Err(err).Str("profile", profile).Str("region", region).Msg("failed to build clients")
		return nil
	}

	instances, err := clients.EC2.RunningInstances(ctx)
	if err != nil {
		c.log.Error().Err(err).Str("profile", profile).Str("region", region).Msg("failed to list EC2 instances")
		return nil
	}

	var samples []usage.Sample
	for _, inst := range instances {
		specs := clients.EC2.TypeSpecs(ctx, inst.Type)

		cpu := clients.CloudWatch.LatestAverage(ctx, cloudwatch.NamespaceEC2, "CPUUtilization", cloudwatch.DimensionInstanceID, inst.ID)
		netIn := round2(clients.CloudWatch.LatestAverage(ctx, cloudwatch.NamespaceEC2, "NetworkIn", cloudwatch.DimensionInstanceID, inst.ID) / (1024 * 1024))
		netOut := round2(clients.CloudWatch.LatestAverage(ctx, cloudwatch.NamespaceEC2, "NetworkOut", cloudwatch.DimensionInstanceID, inst.ID) / (1024 * 1024))
		readOps := clients.CloudWatch.LatestAverage(ctx, cloudwatch.NamespaceEC2, "DiskReadOps", cloudwatch.DimensionInstanceID, inst.ID)
		writeOps := clients.CloudWatch.LatestAverage(ctx, cloudwatch.NamespaceEC2, "DiskWriteOps", cloudwatch.DimensionInstanceID, inst.ID)

		volumes := clients.EC2.Volumes(ctx, inst.VolumeIDs)

		var metrics guestmetrics.Metrics
		lines, err := clients.SSM.RunBatch(ctx, inst.ID, guestmetrics.CommandBatch(), c.ssmTimeout)
		if err != nil {
			c.log.Debug().Err(err).Str("instance", inst.ID).Msg("guest probe failed")
		} else {
			metrics = guestmetrics.Extract(lines)
		}

		sample := usage.Sample{
			Date:         today,
			Service:      usage.ServiceEC2,
			ID:           inst.ID,
			Name:         inst.Name,
			Type:         inst.Type,
			VCPU:         specs.VCPU,
			MemoryGiB:    round1(specs.MemoryGiB),
			CPUPercent:   cpu,
			DiskCount:    maxInt(1, volumes.Count),
			DiskTotalGB:  maxInt32(8, volumes.TotalGB),
			DiskSizesGB:  volumes.SizesGB,
			NetworkInMB:  netIn,
			NetworkOutMB: netOut,
			DiskReadOps:  round2(readOps),
			DiskWriteOps: round2(writeOps),
			Profile:      profile,
			Region:       region,
			State:        inst.State,
			LaunchTime:   inst.LaunchTime.Format("2006-01-02 15:04:05"),
		}
		if len(sample.DiskSizesGB) == 0 {
			sample.DiskSizesGB = []int32{8}
		}

		if metrics.Success {
			sample.RAMPercent = round2(metrics.MemoryPercent)
			sample.DiskPercent = usage.FloatPtr(round2(metrics.DiskAverage))
			sample.EFSAttached = usage.BoolPtr(metrics.EFSAttached)
			sample.Collection = usage.CollectionSSM
		} else {
			sample.RAMPercent = round2(estimateRAM(cpu))
			sample.Collection = usage.CollectionEstimated
		}
		sample.DiskDetails = diskDetails(metrics)

		samples = append(samples, sample)
		c.log.Info().
			Str("instance", inst.ID).
			Str("name", truncate(inst.Name, 30)).
			Float64("ram", sample.RAMPercent).
			Str("collection", sample.Collection).
			Msg("collected EC2 instance")
	}
	return samples
}

func (c *Collector) collectRDS(ctx context.Context, profile, region, today string) []usage.Sample {
	clients, err := c.factory(ctx, profile, region)
	if err != nil {
		c.log.Error().Err(err).Str("profile", profile).Str("region", region).Msg("failed to build clients")
		return nil
	}

	databases, err := clients.RDS.Databases(ctx)
	if err != nil {
		c.log.Error().Err(err).Str("profile", profile).Str("region", region).Msg("failed to list RDS databases")
		return nil
	}

	var samples []usage.Sample
	for _, db := range databases {
		cpu := clients.CloudWatch.LatestAverage(ctx, cloudwatch.NamespaceRDS, "CPUUtilization", cloudwatch.DimensionDBInstanceID, db.ID)
		connections := clients.CloudWatch.LatestAverage(ctx, cloudwatch.NamespaceRDS, "DatabaseConnections", cloudwatch.DimensionDBInstanceID, db.ID)
		readOps := clients.CloudWatch.LatestAverage(ctx, cloudwatch.NamespaceRDS, "ReadIOPS", cloudwatch.DimensionDBInstanceID, db.ID)
		writeOps := clients.CloudWatch.LatestAverage(ctx, cloudwatch.NamespaceRDS, "WriteIOPS", cloudwatch.DimensionDBInstanceID, db.ID)
		freeableMB := clients.CloudWatch.LatestAverage(ctx, cloudwatch.NamespaceRDS, "FreeableMemory", cloudwatch.DimensionDBInstanceID, db.ID) / (1024 * 1024)

		memoryGiB := rds.EstimateMemoryGiB(db.Class)
		var ramUtil float64
		if memoryGiB > 0 && freeableMB > 0 {
			ramUtil = ((memoryGiB*1024 - freeableMB) / (memoryGiB * 1024)) * 100
		}

		samples = append(samples, usage.Sample{
			Date:         today,
			Service:      usage.ServiceRDS,
			ID:           db.ID,
			Name:         db.ID,
			Type:         db.Class,
			VCPU:         rds.EstimateVCPU(db.Class),
			MemoryGiB:    memoryGiB,
			CPUPercent:   cpu,
			RAMPercent:   round2(ramUtil),
			DiskCount:    1,
			DiskTotalGB:  db.AllocatedStorage,
			DiskSizesGB:  []int32{db.AllocatedStorage},
			DiskDetails:  "RDS Managed",
			DiskReadOps:  readOps,
			DiskWriteOps: writeOps,
			Profile:      profile,
			Region:       region,
			Engine:       db.Engine,
			Status:       db.Status,
			Connections:  connections,
			Collection:   usage.CollectionCloudWatch,
		})
		c.log.Info().Str("database", db.ID).Str("profile", profile).Str("region", region).Msg("collected RDS database")
	}
	return samples
}

// estimateRAM guesses memory pressure from CPU load when the guest probe is
// unavailable. Deliberately conservative.
func estimateRAM(cpu float64) float64 {
	switch {
	case cpu > 70:
		return math.Min(80, cpu*1.1)
	case cpu > 30:
		return math.Min(60, cpu*1.3)
	default:
		return 25
	}
}

// diskDetails renders the per-filesystem breakdown for the report. Falls
// back to a status marker so the column is never empty.
func diskDetails(m guestmetrics.Metrics) string {
	var parts []string
	for _, mount := range m.Mounts {
		parts = append(parts, fmt.Sprintf("%s:%.1f%%", mount.Filesystem, mount.UsagePercent))
	}
	if m.EFSAttached && m.EFS != nil {
		parts = append(parts, "EFS:"+m.EFS.Percent)
	}
	if len(parts) > 0 {
		return strings.Join(parts, "; ")
	}
	if !m.Success {
		return "SSM Failed"
	}
	return "No Data"
}

// dedupe keeps the last sample per (ID, Service, Date), preserving first
// appearance order.
func dedupe(samples []usage.Sample) []usage.Sample {
	index := make(map[string]int, len(samples))
	var out []usage.Sample
	for _, s := range samples {
		key := s.ID + "\x00" + string(s.Service) + "\x00" + s.Date
		if i, ok := index[key]; ok {
			out[i] = s
			continue
		}
		index[key] = len(out)
		out = append(out, s)
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func maxInt32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}
