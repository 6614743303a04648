// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package match

import (
	"grimm.is/ebtset/internal/logging"
	"grimm.is/ebtset/internal/sets"
)

// Deps are the collaborators the built-in matches need.
type Deps struct {
	IPSets     Resolver
	DomainSets Resolver
	// Family is the address family sets must hold. Defaults to IPv4.
	Family sets.Family
	Logger *logging.Logger
}

// RegisterBuiltins registers set-src, set-dst, dset and comment in that
// order. A set match is skipped when its resolver is nil.
func RegisterBuiltins(reg *Registry, deps Deps) {
	family := deps.Family
	if family == sets.FamilyUnspec {
		family = sets.FamilyIPv4
	}

	if deps.IPSets != nil {
		reg.Register(NewSetMatch(Source, deps.IPSets, family, deps.Logger))
		reg.Register(NewSetMatch(Destination, deps.IPSets, family, deps.Logger))
	}
	if deps.DomainSets != nil {
		reg.Register(NewDomainSetMatch(deps.DomainSets, family, deps.Logger))
	}
	reg.Register(Comment{})
}
