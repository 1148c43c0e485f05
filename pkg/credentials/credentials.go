// Package credentials stores the secrets of the remote services parley talks
// to in credentials.toml, next to config.toml, so they stay out of the
// shareable configuration.
package credentials

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/parley/pkg/config"
	"github.com/papercomputeco/parley/pkg/dotdir"
)

const (
	credentialsFile = "credentials.toml"

	currentVersion = 0

	// ServiceQnA is the QnA knowledge base service.
	ServiceQnA = "qna"
)

// Manager manages reading and writing credentials.toml in the .parley/ directory.
type Manager struct {
	ddm        *dotdir.Manager
	targetPath string
}

// NewManager creates a new credentials Manager. If override is non-empty it is
// used as the .parley/ directory; otherwise the standard dotdir resolution
// applies.
func NewManager(override string) (*Manager, error) {
	mgr := &Manager{}
	mgr.ddm = dotdir.NewManager()

	target, err := mgr.ddm.Target(override)
	if err != nil {
		return nil, err
	}

	mgr.targetPath = filepath.Join(target, credentialsFile)

	return mgr, nil
}

// Load reads credentials.toml from the target directory.
// Returns an empty Credentials if the file does not exist.
func (m *Manager) Load() (*Credentials, error) {
	data, err := os.ReadFile(m.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Credentials{
				Version:  currentVersion,
				Services: make(map[string]ServiceCredential),
			}, nil
		}
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	creds := &Credentials{}
	if err := toml.Unmarshal(data, creds); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}

	if creds.Services == nil {
		creds.Services = make(map[string]ServiceCredential)
	}

	return creds, nil
}

// Save writes credentials to credentials.toml with 0600 permissions.
func (m *Manager) Save(creds *Credentials) error {
	if creds == nil {
		return errors.New("cannot save nil credentials")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(creds); err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	if err := os.WriteFile(m.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}

	return nil
}

// Set stores the credential of a service.
func (m *Manager) Set(service string, cred ServiceCredential) error {
	creds, err := m.Load()
	if err != nil {
		return err
	}

	creds.Services[service] = cred

	return m.Save(creds)
}

// Get returns the stored credential of a service and whether one exists.
func (m *Manager) Get(service string) (ServiceCredential, bool, error) {
	creds, err := m.Load()
	if err != nil {
		return ServiceCredential{}, false, err
	}

	cred, ok := creds.Services[service]
	return cred, ok, nil
}

// Remove deletes the stored credential of a service.
func (m *Manager) Remove(service string) error {
	creds, err := m.Load()
	if err != nil {
		return err
	}

	delete(creds.Services, service)

	return m.Save(creds)
}

// ListServices returns the names of services that have stored credentials.
func (m *Manager) ListServices() ([]string, error) {
	creds, err := m.Load()
	if err != nil {
		return nil, err
	}

	services := make([]string, 0, len(creds.Services))
	for name := range creds.Services {
		services = append(services, name)
	}

	sort.Strings(services)

	return services, nil
}

// GetTarget returns the resolved path to the credentials file.
func (m *Manager) GetTarget() string {
	return m.targetPath
}

// Apply fills the service secrets cfg leaves empty with the stored ones.
// Values from config.toml, env vars or flags win.
func (m *Manager) Apply(cfg *config.Config) error {
	cred, ok, err := m.Get(ServiceQnA)
	if err != nil || !ok {
		return err
	}

	if cfg.NLU.QnA.AppID == "" {
		cfg.NLU.QnA.AppID = cred.AppID
	}
	if cfg.NLU.QnA.AppKey == "" {
		cfg.NLU.QnA.AppKey = cred.AppKey
	}
	return nil
}

// SupportedServices returns the list of services that take credentials.
func SupportedServices() []string {
	return []string{ServiceQnA}
}

// IsSupportedService returns true if the given service is supported.
func IsSupportedService(service string) bool {
	return slices.Contains(SupportedServices(), service)
}
