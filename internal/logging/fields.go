package logging

import "github.com/sirupsen/logrus"

// SourceFields describes where archives are fetched from.
func SourceFields(kind, location, platform, appVersion string) logrus.Fields {
	return logrus.Fields{
		"source":      kind,
		"location":    location,
		"platform":    platform,
		"app_version": appVersion,
	}
}
