package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/rxtech-lab/argo-realtime/pkg/errors"
)

// CheckCompatibility checks whether a CLI can safely drive a service that
// published serviceVersion in its status file.
//
// Rules:
//   - "main" on either side (development build) skips the check
//   - an empty service version (status written by an older build) skips the check
//   - major and minor must match, patch may differ
func CheckCompatibility(serviceVersion, cliVersion string) error {
	serviceVersion = strings.TrimPrefix(strings.TrimSpace(serviceVersion), "v")
	cliVersion = strings.TrimPrefix(strings.TrimSpace(cliVersion), "v")

	if serviceVersion == "" || serviceVersion == "main" || cliVersion == "main" {
		return nil
	}

	service, err := semver.NewVersion(serviceVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid service version '%s'", serviceVersion)
	}

	cli, err := semver.NewVersion(cliVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid cli version '%s'", cliVersion)
	}

	if service.Major() != cli.Major() {
		return errors.Newf(errors.ErrCodeVersionMismatch, "major version mismatch: service is %d.x.x but cli is %d.x.x",
			service.Major(), cli.Major())
	}

	if service.Minor() != cli.Minor() {
		return errors.Newf(errors.ErrCodeVersionMismatch, "minor version mismatch: service is %d.%d.x but cli is %d.%d.x",
			service.Major(), service.Minor(), cli.Major(), cli.Minor())
	}

	return nil
}
