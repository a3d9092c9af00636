package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "usage-reporter",
	Short: "Daily AWS utilization reporting with monthly rightsizing analysis",
	Long: `Collects CPU, memory and disk utilization for every EC2 instance and RDS
database across the configured profiles and regions, combining CloudWatch
metrics with in-guest probes run through SSM. Each run emails a spreadsheet
report with day-over-day trends; on the first of the month (or on demand) it
analyzes the rolling history and emails rightsizing recommendations with
estimated cost impact.`,
	RunE:          runReport,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Flags holds the command line overrides applied on top of the config file.
type Flags struct {
	ConfigFile string
	Profiles   []string
	Regions    []string
	Monthly    bool
	DryRun     bool
	OutputDir  string
	DataDir    string
	LogLevel   string
}

var flags = Flags{}

func init() {
	rootCmd.Flags().StringVarP(&flags.ConfigFile, "config", "c", "", "Path to YAML config file")
	rootCmd.Flags().StringSliceVarP(&flags.Profiles, "profiles", "p", []string{}, "AWS profiles to scan (default: discover from shared credentials file)")
	rootCmd.Flags().StringSliceVarP(&flags.Regions, "regions", "r", []string{}, "AWS regions to scan (default: discover via DescribeRegions)")
	rootCmd.Flags().BoolVar(&flags.Monthly, "monthly", false, "Force the monthly rightsizing analysis regardless of the date")
	rootCmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "Collect and write reports but do not send email")
	rootCmd.Flags().StringVarP(&flags.OutputDir, "output", "o", ".", "Directory for generated report files")
	rootCmd.Flags().StringVar(&flags.DataDir, "data-dir", "", "Directory for the utilization history (default: usage_data)")
	rootCmd.Flags().StringVar(&flags.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
}
