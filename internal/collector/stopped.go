package collector

import (
	"context"
	"strings"
)

// nonRunningStates are the instance states surfaced in the cleanup section
// of the daily report.
var nonRunningStates = []string{"stopped", "terminated", "stopping", "terminating"}

// StoppedInstance is one non-running EC2 instance, a candidate for cleanup.
type StoppedInstance struct {
	ID      string
	Name    string
	Type    string
	State   string
	Profile string
	Region  string
}

// StoppedInstances sweeps every profile and region for non-running EC2
// instances. Best effort: a failing scope is logged and skipped.
func (c *Collector) StoppedInstances(ctx context.Context) []StoppedInstance {
	var stopped []StoppedInstance

	for _, profile := range c.profiles {
		for _, region := range c.regions {
			clients, err := c.factory(ctx, profile, region)
			if err != nil {
				c.log.Error().Err(err).Str("profile", profile).Str("region", region).Msg("failed to build clients")
				continue
			}

			instances, err := clients.EC2.InstancesByState(ctx, nonRunningStates...)
			if err != nil {
				c.log.Error().Err(err).Str("profile", profile).Str("region", region).Msg("failed to list stopped instances")
				continue
			}

			for _, inst := range instances {
				stopped = append(stopped, StoppedInstance{
					ID:      inst.ID,
					Name:    truncate(inst.Name, 50),
					Type:    inst.Type,
					State:   titleState(inst.State),
					Profile: profile,
					Region:  region,
				})
			}
		}
	}

	return stopped
}

func titleState(state string) string {
	if state == "" {
		return state
	}
	return strings.ToUpper(state[:1]) + state[1:]
}
