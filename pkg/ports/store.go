package ports

import "context"

// VariableStore persists the variables of each bot user.
// Values are strings; multi-select answers are stored comma-joined.
type VariableStore interface {
	// Load returns the variables of a user.
	// Returns domain.ErrUserNotFound if nothing was saved for the user.
	Load(ctx context.Context, userID int64) (map[string]string, error)

	// Save replaces the variables of a user.
	Save(ctx context.Context, userID int64, vars map[string]string) error

	// Delete removes every variable of a user.
	Delete(ctx context.Context, userID int64) error

	// List returns the users with saved variables.
	List(ctx context.Context) ([]int64, error)
}

// ArtifactCache stores compiled artifacts by key.
type ArtifactCache interface {
	// Get returns the artifact and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put stores an artifact, replacing any previous one.
	Put(ctx context.Context, key string, data []byte) error
}
