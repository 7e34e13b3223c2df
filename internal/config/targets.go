package config

import (
	"strings"

	"github.com/MuchTitan/go-log-transport/internal/transport"
)

// ParseTargetFiles reads a comma separated list of
// path[:targetName[:ignoreHistory]] entries. Empty entries are dropped.
func ParseTargetFiles(spec string) []transport.TargetFile {
	var targets []transport.TargetFile
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.SplitN(entry, ":", 3)
		path := parts[0]
		var name string
		var ignoreHistory bool
		if len(parts) > 1 {
			name = parts[1]
		}
		if len(parts) > 2 {
			ignoreHistory = strings.EqualFold(strings.TrimSpace(parts[2]), "true")
		}
		targets = append(targets, transport.NewTargetFile(path, name, ignoreHistory))
	}
	return targets
}
