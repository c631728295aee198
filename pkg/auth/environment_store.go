package auth

import (
	"os"
	"time"

	"tapestry-archive/pkg/config"
)

// EnvironmentStore reads credentials from the TAPESTRY_* variables. It is
// read-only.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(*Account) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment's account when it is for school, or
// for any school when school is empty
func (e *EnvironmentStore) Retrieve(school string) (*Account, error) {
	envSchool := os.Getenv(config.EnvSchool)
	cookie := os.Getenv(config.EnvCookieValue)

	if envSchool == "" || cookie == "" {
		return nil, ErrCredentialsNotFound
	}
	if school != "" && school != envSchool {
		return nil, ErrCredentialsNotFound
	}

	return &Account{
		School:      envSchool,
		CookieValue: cookie,
		Name:        os.Getenv(config.EnvName),
		// the environment always reflects the current shell
		LastModified: time.Now(),
	}, nil
}

// List returns a single account if the variables are set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist for school
func (e *EnvironmentStore) Exists(school string) bool {
	_, err := e.Retrieve(school)
	return err == nil
}
