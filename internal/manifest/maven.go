package manifest

import (
	"fmt"
	"path"
	"strings"
)

// Coordinate is a parsed Maven coordinate group:artifact:version[:classifier].
type Coordinate struct {
	Group      string
	Artifact   string
	Version    string
	Classifier string
}

// ParseCoordinate parses group:artifact:version[:classifier].
func ParseCoordinate(s string) (Coordinate, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 3 || len(parts) > 4 {
		return Coordinate{}, fmt.Errorf("invalid maven coordinate %q: want group:artifact:version[:classifier]", s)
	}
	for _, p := range parts {
		if p == "" {
			return Coordinate{}, fmt.Errorf("invalid maven coordinate %q: empty segment", s)
		}
	}

	c := Coordinate{Group: parts[0], Artifact: parts[1], Version: parts[2]}
	if len(parts) == 4 {
		c.Classifier = parts[3]
	}
	return c, nil
}

// Path returns the repository relative jar path,
// e.g. org/ow2/asm/asm-all/5.2/asm-all-5.2.jar.
func (c Coordinate) Path() string {
	file := c.Artifact + "-" + c.Version
	if c.Classifier != "" {
		file += "-" + c.Classifier
	}
	file += ".jar"

	return path.Join(strings.ReplaceAll(c.Group, ".", "/"), c.Artifact, c.Version, file)
}

// String returns the coordinate in group:artifact:version[:classifier] form.
func (c Coordinate) String() string {
	s := c.Group + ":" + c.Artifact + ":" + c.Version
	if c.Classifier != "" {
		s += ":" + c.Classifier
	}
	return s
}
