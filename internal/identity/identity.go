package identity

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Display holds the user-facing fields the identity store exposes. The store
// is a read-only collaborator; account management lives elsewhere.
type Display struct {
	Name  string
	Email string
}

// Snapshot is the in-memory identity view loaded once at startup.
type Snapshot struct {
	users map[string]Display
	log   *zap.Logger
}

type snapshotDoc struct {
	Users []struct {
		ID    string `yaml:"id"`
		Name  string `yaml:"name"`
		Email string `yaml:"email"`
	} `yaml:"users"`
}

// Load reads the identity snapshot. An empty path yields an empty snapshot.
func Load(path string, log *zap.Logger) (*Snapshot, error) {
	if log == nil {
		log = zap.NewNop()
	}
	snap := &Snapshot{
		users: make(map[string]Display),
		log:   log.Named("identity"),
	}
	if strings.TrimSpace(path) == "" {
		return snap, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read identity %s: %w", path, err)
	}
	var doc snapshotDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse identity %s: %w", path, err)
	}
	for _, u := range doc.Users {
		snap.users[strings.TrimSpace(u.ID)] = Display{
			Name:  strings.TrimSpace(u.Name),
			Email: strings.TrimSpace(u.Email),
		}
	}
	snap.log.Info("identity snapshot loaded", zap.Int("users", len(snap.users)))
	return snap, nil
}

// Display implements the normalizer's display source.
func (s *Snapshot) Display(requesterID string) (string, string, bool) {
	d, ok := s.users[strings.TrimSpace(requesterID)]
	if !ok {
		return "", "", false
	}
	return d.Name, d.Email, true
}
