package archiver

import "discord-archiver/models"

// Column widths in the account table.
const maxNameLength = 32

// accountRegistry tracks which account ids have already been written this
// run, so each distinct account costs at most one database write no matter
// how many messages or mentions reference it.
type accountRegistry struct {
	seen  map[string]struct{}
	store Store
}

func newAccountRegistry(store Store) *accountRegistry {
	return &accountRegistry{seen: make(map[string]struct{}), store: store}
}

// Register persists the account unless its id was already registered this
// run. Names are truncated to fit their columns.
func (r *accountRegistry) Register(acc models.Account) error {
	if _, ok := r.seen[acc.ID]; ok {
		return nil
	}
	r.seen[acc.ID] = struct{}{}

	acc.Username = truncate(acc.Username, maxNameLength)
	acc.GlobalName = truncate(acc.GlobalName, maxNameLength)
	return r.store.SaveAccount(acc)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) > max {
		return string(runes[:max])
	}
	return s
}
