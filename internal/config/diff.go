package config

import "reflect"

// ConfigDiff describes what changed between two configs. Search settings and
// the log level apply to a running server; everything listed in
// RestartRequired needs a restart.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	SearchChanged bool
	Search        SearchConfig

	BatchChanged bool
	Batch        BatchConfig

	// RestartRequired names the changed sections that are only read at
	// startup.
	RestartRequired []string
}

// Empty reports whether nothing changed.
func (d ConfigDiff) Empty() bool {
	return !d.LogLevelChanged && !d.SearchChanged && !d.BatchChanged && len(d.RestartRequired) == 0
}

// Diff compares old and new configs.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}
	if !sameSearch(old.Search, new.Search) {
		d.SearchChanged = true
		d.Search = new.Search
	}
	if old.Batch != new.Batch {
		d.BatchChanged = true
		d.Batch = new.Batch
	}

	if old.Server.ListenAddr != new.Server.ListenAddr {
		d.RestartRequired = append(d.RestartRequired, "server.listen_addr")
	}
	if old.Dictionary != new.Dictionary {
		d.RestartRequired = append(d.RestartRequired, "dictionary")
	}
	if old.Features != new.Features {
		d.RestartRequired = append(d.RestartRequired, "features")
	}
	if !reflect.DeepEqual(old.G2P, new.G2P) {
		d.RestartRequired = append(d.RestartRequired, "g2p")
	}
	return d
}

func sameSearch(a, b SearchConfig) bool {
	return a.Strategy == b.Strategy &&
		a.Creativity == b.Creativity &&
		a.Errors == b.Errors &&
		a.MaxEdits == b.MaxEdits &&
		a.Novelty() == b.Novelty()
}
