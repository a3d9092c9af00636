package rightsize

import "github.com/opscost/aws-usage-reporter/internal/usage"

// Static sizing and pricing tables. These are deliberately finite, immutable
// mappings: the tool only ever recommends moves between types it has vetted,
// and pricing is an on-demand us-east-1 approximation (730 hours/month), not
// a live quote.

// Fallback monthly prices for types missing from the price tables.
const (
	fallbackEC2MonthlyUSD = 50.0
	fallbackRDSMonthlyUSD = 75.0
)

var ec2Downsize = map[string]string{
	// T3a family
	"t3a.large": "t3a.medium", "t3a.medium": "t3a.small", "t3a.small": "t3a.micro",
	"t3a.xlarge": "t3a.large", "t3a.2xlarge": "t3a.xlarge",
	// T3 family
	"t3.large": "t3.medium", "t3.medium": "t3.small", "t3.small": "t3.micro",
	"t3.xlarge": "t3.large", "t3.2xlarge": "t3.xlarge",
	// M5 family
	"m5.large": "t3a.large", "m5.xlarge": "m5.large", "m5.2xlarge": "m5.xlarge", "m5.4xlarge": "m5.2xlarge",
	// C5 family
	"c5.large": "t3a.medium", "c5.xlarge": "c5.large", "c5.2xlarge": "c5.xlarge",
	// R5 family
	"r5.large": "m5.large", "r5.xlarge": "r5.large", "r5.2xlarge": "r5.xlarge",
}

var rdsDownsize = map[string]string{
	// T4g family
	"db.t4g.medium": "db.t4g.small", "db.t4g.large": "db.t4g.medium",
	"db.t4g.xlarge": "db.t4g.large", "db.t4g.2xlarge": "db.t4g.xlarge",
	// T3 family
	"db.t3.medium": "db.t3.small", "db.t3.large": "db.t3.medium",
	"db.t3.xlarge": "db.t3.large", "db.t3.2xlarge": "db.t3.xlarge",
	// M5 family
	"db.m5.large": "db.t4g.large", "db.m5.xlarge": "db.m5.large", "db.m5.2xlarge": "db.m5.xlarge",
	// R5 family
	"db.r5.large": "db.m5.large", "db.r5.xlarge": "db.r5.large", "db.r5.2xlarge": "db.r5.xlarge",
}

var ec2Upsize = map[string]string{
	// T3a family
	"t3a.micro": "t3a.small", "t3a.small": "t3a.medium", "t3a.medium": "t3a.large",
	"t3a.large": "t3a.xlarge", "t3a.xlarge": "t3a.2xlarge",
	// T3 family
	"t3.micro": "t3.small", "t3.small": "t3.medium", "t3.medium": "t3.large",
	"t3.large": "t3.xlarge", "t3.xlarge": "t3.2xlarge",
	// Move off burstable types once they outgrow the family
	"t3a.2xlarge": "m5.xlarge", "t3.2xlarge": "m5.xlarge",
	// M5 family
	"m5.large": "m5.xlarge", "m5.xlarge": "m5.2xlarge", "m5.2xlarge": "m5.4xlarge",
	// C5 family
	"c5.large": "c5.xlarge", "c5.xlarge": "c5.2xlarge",
}

var rdsUpsize = map[string]string{
	// T4g family
	"db.t4g.micro": "db.t4g.small", "db.t4g.small": "db.t4g.medium",
	"db.t4g.medium": "db.t4g.large", "db.t4g.large": "db.t4g.xlarge",
	"db.t4g.xlarge": "db.t4g.2xlarge",
	// T3 family
	"db.t3.micro": "db.t3.small", "db.t3.small": "db.t3.medium",
	"db.t3.medium": "db.t3.large", "db.t3.large": "db.t3.xlarge",
	// Move off burstable classes once they outgrow the family
	"db.t4g.2xlarge": "db.m5.large", "db.t3.2xlarge": "db.m5.large",
	// M5 family
	"db.m5.large": "db.m5.xlarge", "db.m5.xlarge": "db.m5.2xlarge",
}

var ec2MemoryOptimized = map[string]string{
	"t3.medium": "r5.large", "t3.large": "r5.large", "t3.xlarge": "r5.xlarge",
	"t3a.medium": "r5.large", "t3a.large": "r5.large", "t3a.xlarge": "r5.xlarge",
	"m5.large": "r5.large", "m5.xlarge": "r5.xlarge", "m5.2xlarge": "r5.2xlarge",
	"c5.large": "r5.large", "c5.xlarge": "r5.xlarge",
}

var rdsMemoryOptimized = map[string]string{
	"db.t4g.medium": "db.r5.large", "db.t4g.large": "db.r5.large",
	"db.t3.medium": "db.r5.large", "db.t3.large": "db.r5.large",
	"db.m5.large": "db.r5.large", "db.m5.xlarge": "db.r5.xlarge",
}

var ec2MonthlyUSD = map[string]float64{
	"t3.nano": 3.80, "t3.micro": 7.66, "t3.small": 15.33, "t3.medium": 30.66, "t3.large": 61.32,
	"t3.xlarge": 122.63, "t3.2xlarge": 245.26,
	"t3a.nano": 3.28, "t3a.micro": 6.57, "t3a.small": 13.14, "t3a.medium": 26.28, "t3a.large": 52.56,
	"t3a.xlarge": 105.12, "t3a.2xlarge": 210.24,
	"m5.large": 70.08, "m5.xlarge": 140.16, "m5.2xlarge": 280.32, "m5.4xlarge": 560.64,
	"c5.large": 62.05, "c5.xlarge": 124.10, "c5.2xlarge": 248.20,
	"r5.large": 91.25, "r5.xlarge": 182.50, "r5.2xlarge": 365.00, "r5.4xlarge": 730.00,
}

var rdsMonthlyUSD = map[string]float64{
	"db.t2.micro": 11.68, "db.t2.small": 23.36, "db.t2.medium": 46.72, "db.t2.large": 93.44,
	"db.t3.micro": 12.41, "db.t3.small": 24.82, "db.t3.medium": 49.64, "db.t3.large": 99.28,
	"db.t3.xlarge": 198.56, "db.t3.2xlarge": 397.12,
	"db.t4g.micro": 10.22, "db.t4g.small": 20.44, "db.t4g.medium": 40.88, "db.t4g.large": 81.76,
	"db.t4g.xlarge": 163.52, "db.t4g.2xlarge": 327.04,
	"db.m5.large": 105.12, "db.m5.xlarge": 210.24, "db.m5.2xlarge": 420.48,
	"db.r5.large": 136.87, "db.r5.xlarge": 273.75, "db.r5.2xlarge": 547.50,
}

// SmallerType returns the next size down for the given type, or the type
// itself on a table miss.
func SmallerType(current string, service usage.ServiceType) string {
	if service == usage.ServiceEC2 {
		return lookupOrSelf(ec2Downsize, current)
	}
	return lookupOrSelf(rdsDownsize, current)
}

// LargerType returns the next size up for the given type, or the type itself
// on a table miss.
func LargerType(current string, service usage.ServiceType) string {
	if service == usage.ServiceEC2 {
		return lookupOrSelf(ec2Upsize, current)
	}
	return lookupOrSelf(rdsUpsize, current)
}

// MemoryOptimizedType returns a memory-optimized alternative, or the type
// itself on a table miss.
func MemoryOptimizedType(current string, service usage.ServiceType) string {
	if service == usage.ServiceEC2 {
		return lookupOrSelf(ec2MemoryOptimized, current)
	}
	return lookupOrSelf(rdsMemoryOptimized, current)
}

// MonthlyCost returns the approximate on-demand monthly cost for a type,
// falling back to a flat per-service estimate for unknown types.
func MonthlyCost(instanceType string, service usage.ServiceType) float64 {
	if service == usage.ServiceEC2 {
		if cost, ok := ec2MonthlyUSD[instanceType]; ok {
			return cost
		}
		return fallbackEC2MonthlyUSD
	}
	if cost, ok := rdsMonthlyUSD[instanceType]; ok {
		return cost
	}
	return fallbackRDSMonthlyUSD
}

func lookupOrSelf(table map[string]string, key string) string {
	if v, ok := table[key]; ok {
		return v
	}
	return key
}
