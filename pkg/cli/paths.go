package cli

import (
	"os"
	"path/filepath"
)

// Paths provides access to the parlor directory structure
type Paths struct {
	// AppName is the application name
	AppName string

	// HomeDir is the user's home directory
	HomeDir string
}

// NewPaths creates a new Paths instance for the given app
func NewPaths(appName string) (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Paths{
		AppName: appName,
		HomeDir: home,
	}, nil
}

// BaseDir returns the base parlor directory (~/.parlor)
func (p *Paths) BaseDir() string {
	return filepath.Join(p.HomeDir, DefaultBaseDir)
}

// AppDir returns the app-specific directory (~/.parlor/<app>)
func (p *Paths) AppDir() string {
	return filepath.Join(p.BaseDir(), p.AppName)
}

// ConfigFile returns the config file path (~/.parlor/<app>/config.yaml)
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.AppDir(), DefaultConfigFile)
}

// StateDir returns the persisted-state directory (~/.parlor/<app>/state),
// home of the identity store.
func (p *Paths) StateDir() string {
	return filepath.Join(p.AppDir(), "state")
}

// LogDir returns the log directory (~/.parlor/<app>/logs)
func (p *Paths) LogDir() string {
	return filepath.Join(p.AppDir(), "logs")
}

// EnsureDirs creates the app directories if they do not exist.
func (p *Paths) EnsureDirs() error {
	for _, dir := range []string{p.AppDir(), p.StateDir(), p.LogDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
