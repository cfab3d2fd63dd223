package aggregate

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/sirupsen/logrus"
)

// kernelTag matches release tags such as v2.6.11.1 and v3.0-rc10.
var kernelTag = regexp.MustCompile(`^v?(\d+(?:\.\d+)*)(?:-rc(\d+))?$`)

// revisionVersion is a parsed tag. Release parts beyond the third are kept in
// extra because semver only carries three.
type revisionVersion struct {
	version *semver.Version
	extra   []uint64
}

// parseRevision parses kernel tags with any number of release parts. The rc
// number becomes a numeric prerelease identifier so rc2 precedes rc10.
func parseRevision(tag string) (*revisionVersion, error) {
	m := kernelTag.FindStringSubmatch(tag)
	if m == nil {
		v, err := semver.NewVersion(tag)
		if err != nil {
			return nil, err
		}
		return &revisionVersion{version: v}, nil
	}

	parts := strings.Split(m[1], ".")
	release := make([]uint64, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, err
		}
		release[i] = n
	}
	for len(release) < 3 {
		release = append(release, 0)
	}

	s := fmt.Sprintf("%d.%d.%d", release[0], release[1], release[2])
	if m[2] != "" {
		s += "-rc." + m[2]
	}
	v, err := semver.StrictNewVersion(s)
	if err != nil {
		return nil, err
	}
	return &revisionVersion{version: v, extra: release[3:]}, nil
}

// compare orders by the release parts first and the prerelease last, so
// v2.6.11-rc1 < v2.6.11 < v2.6.11.1.
func (a *revisionVersion) compare(b *revisionVersion) int {
	if c := cmp.Compare(a.version.Major(), b.version.Major()); c != 0 {
		return c
	}
	if c := cmp.Compare(a.version.Minor(), b.version.Minor()); c != 0 {
		return c
	}
	if c := cmp.Compare(a.version.Patch(), b.version.Patch()); c != 0 {
		return c
	}
	for i := range max(len(a.extra), len(b.extra)) {
		var x, y uint64
		if i < len(a.extra) {
			x = a.extra[i]
		}
		if i < len(b.extra) {
			y = b.extra[i]
		}
		if c := cmp.Compare(x, y); c != 0 {
			return c
		}
	}
	return a.version.Compare(b.version)
}

// SortRevisions orders revision tags by release-version semantics: release parts
// compare numerically (v2.6.9 < v2.6.10, four-part tags like v2.6.11.1 included)
// and release candidates precede their release by rc number (v3.0-rc2 <
// v3.0-rc10 < v3.0). Tags that do not parse as versions are logged and placed
// after every parsed tag, in lexicographic order.
func SortRevisions(revisions []string, log logrus.FieldLogger) []string {
	type tagged struct {
		tag     string
		version *revisionVersion
	}
	items := make([]tagged, 0, len(revisions))
	for _, rev := range revisions {
		v, err := parseRevision(rev)
		if err != nil {
			log.WithField("revision", rev).WithError(err).Warn("Revision is not a version tag, ordering it last")
			v = nil
		}
		items = append(items, tagged{tag: rev, version: v})
	}

	slices.SortStableFunc(items, func(a, b tagged) int {
		switch {
		case a.version != nil && b.version != nil:
			if c := a.version.compare(b.version); c != 0 {
				return c
			}
			return strings.Compare(a.tag, b.tag)
		case a.version != nil:
			return -1
		case b.version != nil:
			return 1
		default:
			return strings.Compare(a.tag, b.tag)
		}
	})

	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.tag
	}
	return out
}
