// Package usage defines the utilization record shared by the collector,
// the history store and the report renderers.
package usage

// ServiceType identifies which AWS service a record belongs to
type ServiceType string

const (
	ServiceEC2 ServiceType = "EC2"
	ServiceRDS ServiceType = "RDS"
)

// Collection method markers recorded on each sample
const (
	CollectionSSM        = "SSM+CloudWatch"
	CollectionEstimated  = "CloudWatch+Estimated"
	CollectionCloudWatch = "CloudWatch"
)

// DateLayout is the day granularity used throughout the history table
const DateLayout = "2006-01-02"

// Sample is one resource on one day. It is the only durable record: the
// history store persists a rolling window of these and everything else
// (trends, stats, recommendations) is recomputed from them.
type Sample struct {
	Date    string      `json:"date"`
	Service ServiceType `json:"service"`
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Type    string      `json:"type"`

	VCPU      int32   `json:"vcpu"`
	MemoryGiB float64 `json:"memory_gib"`

	CPUPercent float64 `json:"cpu_percent"`
	RAMPercent float64 `json:"ram_percent"`
	// DiskPercent is nil when no validated disk figure exists for the
	// resource (RDS storage is managed, SSM may be unreachable).
	DiskPercent *float64 `json:"disk_percent,omitempty"`

	DiskCount   int     `json:"disk_count"`
	DiskTotalGB int32   `json:"disk_total_gb"`
	DiskSizesGB []int32 `json:"disk_sizes_gb,omitempty"`
	DiskDetails string  `json:"disk_details,omitempty"`

	// EFSAttached is nil for services where the question does not apply.
	EFSAttached *bool `json:"efs_attached,omitempty"`

	NetworkInMB  float64 `json:"network_in_mb"`
	NetworkOutMB float64 `json:"network_out_mb"`
	DiskReadOps  float64 `json:"disk_read_ops"`
	DiskWriteOps float64 `json:"disk_write_ops"`

	Profile string `json:"profile"`
	Region  string `json:"region"`
	State   string `json:"state,omitempty"`

	// EC2 only
	LaunchTime string `json:"launch_time,omitempty"`

	// RDS only
	Engine      string  `json:"engine,omitempty"`
	Status      string  `json:"status,omitempty"`
	Connections float64 `json:"connections,omitempty"`

	Collection string `json:"collection"`
}

// Disk returns the disk percentage and whether a validated value exists.
func (s Sample) Disk() (float64, bool) {
	if s.DiskPercent == nil {
		return 0, false
	}
	return *s.DiskPercent, true
}

// FloatPtr is a small helper for building optional sample fields.
func FloatPtr(v float64) *float64 { return &v }

// BoolPtr is a small helper for building optional sample fields.
func BoolPtr(v bool) *bool { return &v }
