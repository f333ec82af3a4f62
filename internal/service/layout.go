package service

import "path/filepath"

// File names inside the data directory.
const (
	ConfigFile  = "config.json"
	ControlFile = "control.json"
	StatusFile  = "service_status.json"
	LatestFile  = "realtime_latest.csv"
	LogDir      = "logs"
)

// Layout resolves the files of one data directory. The loop owns the status,
// latest and log files; config and control may be written by anyone.
type Layout struct {
	Dir string
}

// NewLayout creates a layout rooted at dir.
func NewLayout(dir string) Layout {
	return Layout{Dir: dir}
}

func (l Layout) ConfigPath() string {
	return filepath.Join(l.Dir, ConfigFile)
}

func (l Layout) ControlPath() string {
	return filepath.Join(l.Dir, ControlFile)
}

func (l Layout) StatusPath() string {
	return filepath.Join(l.Dir, StatusFile)
}

func (l Layout) LatestPath() string {
	return filepath.Join(l.Dir, LatestFile)
}

func (l Layout) LogDir() string {
	return filepath.Join(l.Dir, LogDir)
}
