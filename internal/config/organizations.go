package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"ado-time-tracker/internal/domain"
	"ado-time-tracker/internal/errors"

	"gopkg.in/yaml.v3"
)

type organizationsFile struct {
	Organizations []organizationRecord `yaml:"organizations"`
}

type organizationRecord struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Project  string `yaml:"project"`
	Token    string `yaml:"token"`
	TokenEnv string `yaml:"token_env"`
}

// OrganizationRegistry resolves configured organizations by id.
type OrganizationRegistry struct {
	byID map[string]domain.Organization
}

// NewOrganizationRegistry builds a registry from already resolved organizations.
func NewOrganizationRegistry(orgs ...domain.Organization) *OrganizationRegistry {
	r := &OrganizationRegistry{byID: make(map[string]domain.Organization, len(orgs))}
	for _, org := range orgs {
		r.byID[org.ID] = org
	}
	return r
}

// Lookup returns the organization with the given id.
func (r *OrganizationRegistry) Lookup(id string) (domain.Organization, bool) {
	org, ok := r.byID[id]
	return org, ok
}

// List returns all organizations ordered by id.
func (r *OrganizationRegistry) List() []domain.Organization {
	orgs := make([]domain.Organization, 0, len(r.byID))
	for _, org := range r.byID {
		orgs = append(orgs, org)
	}
	sort.Slice(orgs, func(i, j int) bool { return orgs[i].ID < orgs[j].ID })
	return orgs
}

// LoadOrganizations reads the organizations file. A missing file yields an
// empty registry. Tokens named by token_env are read from the environment.
func LoadOrganizations(path string) (*OrganizationRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewOrganizationRegistry(), nil
		}
		return nil, errors.WrapError(err, errors.ErrorTypeConfiguration, "failed to read organizations file "+path)
	}
	return ParseOrganizations(data)
}

// ParseOrganizations decodes and validates an organizations document.
func ParseOrganizations(data []byte) (*OrganizationRegistry, error) {
	var file organizationsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeConfiguration, "invalid organizations file")
	}

	seen := make(map[string]bool)
	orgs := make([]domain.Organization, 0, len(file.Organizations))
	for i, rec := range file.Organizations {
		field := fmt.Sprintf("organizations[%d]", i)
		id := strings.TrimSpace(rec.ID)
		if id == "" {
			return nil, errors.NewConfigurationError(field+".id", "id is required")
		}
		if seen[id] {
			return nil, errors.NewConfigurationError(field+".id", "duplicate organization "+id)
		}
		seen[id] = true

		url := strings.TrimRight(strings.TrimSpace(rec.URL), "/")
		if url == "" {
			return nil, errors.NewConfigurationError(field+".url", "url is required")
		}

		token := rec.Token
		if token == "" && rec.TokenEnv != "" {
			token = os.Getenv(rec.TokenEnv)
		}

		orgs = append(orgs, domain.Organization{
			ID:      id,
			Name:    rec.Name,
			URL:     url,
			Project: rec.Project,
			Token:   token,
		})
	}

	return NewOrganizationRegistry(orgs...), nil
}
