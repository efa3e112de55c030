// Package identity resolves authorization facts about the opaque principal ids callers act as.
package identity

import (
	"context"
	"strings"
)

// StaticResolver treats a fixed set of principals as administrators.
type StaticResolver struct {
	admins map[string]struct{}
}

func NewStaticResolver(adminIDs []string) *StaticResolver {
	r := &StaticResolver{admins: make(map[string]struct{}, len(adminIDs))}
	for _, id := range adminIDs {
		if id = strings.TrimSpace(id); id != "" {
			r.admins[id] = struct{}{}
		}
	}
	return r
}

func (r *StaticResolver) IsAdmin(_ context.Context, principalID string) (bool, error) {
	_, ok := r.admins[strings.TrimSpace(principalID)]
	return ok, nil
}
