package ports

import "context"

// Prompter asks the operator a yes/no question during conflict resolution.
// Unattended runs substitute an implementation that always declines, so a
// conflict can never silently terminate a foreign process.
type Prompter interface {
	Confirm(ctx context.Context, question string) (bool, error)
}
