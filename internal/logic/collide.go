package logic

import (
	"errors"
	"fmt"
	"slices"
)

// ErrIdentifierCollision is returned for files that would be stored under the same identifier.
var ErrIdentifierCollision = errors.New("identifier collision")

// collisions returns an error for every file sharing its identifier with another file of the batch.
// Keys are stored per identifier, so encrypting such files together would keep only one of their keys.
func collisions(files []string, identify func(string) string) map[string]error {
	groups := make(map[string][]string)

	for _, file := range files {
		id := identify(file)
		groups[id] = append(groups[id], file)
	}

	errs := make(map[string]error)

	for id, group := range groups {
		if len(group) < 2 {
			continue
		}

		for _, file := range group {
			others := slices.DeleteFunc(slices.Clone(group), func(other string) bool { return other == file })

			errs[file] = fmt.Errorf("%w: %q shares identifier %q with %q; encrypt them in separate runs or rename them",
				ErrIdentifierCollision, file, id, others)
		}
	}

	return errs
}
