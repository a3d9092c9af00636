package collector

import (
	"fmt"
	"os"

	"gopkg.in/ini.v1"
)

// DiscoverProfiles lists the profile names in a shared AWS credentials file.
// A missing file is not an error: it yields an empty list and the caller
// decides how to proceed.
func DiscoverProfiles(credentialsFile string) ([]string, error) {
	if _, err := os.Stat(credentialsFile); os.IsNotExist(err) {
		return nil, nil
	}

	file, err := ini.Load(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials file %s: %w", credentialsFile, err)
	}

	var profiles []string
	for _, section := range file.SectionStrings() {
		if section == ini.DefaultSection {
			continue
		}
		profiles = append(profiles, section)
	}
	return profiles, nil
}
