package quirks

import (
	"fmt"
	"strings"

	"github.com/roach88/gistub/internal/ir"
	"github.com/roach88/gistub/internal/reflector"
)

// fold groups visible entities by identity token and picks one canonical
// name per group. The others are recorded as aliases of it.
func (d *Detector) fold(r *Report, raw *reflector.Raw, opts Options) {
	groups := make(map[string][]int)
	var order []string
	for i, e := range raw.Entities {
		if e.Identity == "" || r.Entity(e.Name).Hidden() {
			continue
		}
		if _, ok := groups[e.Identity]; !ok {
			order = append(order, e.Identity)
		}
		groups[e.Identity] = append(groups[e.Identity], i)
	}

	for _, id := range order {
		members := groups[id]
		if len(members) < 2 {
			continue
		}
		best := members[0]
		for _, i := range members[1:] {
			if better(raw.Entities[i].Name, raw.Entities[best].Name, opts.CPrefix) {
				best = i
			}
		}
		canonical := raw.Entities[best].Name
		for _, i := range members {
			if i == best {
				continue
			}
			alias := raw.Entities[i].Name
			r.Canonical[alias] = canonical
			d.log.Debugw("folded duplicate identity", "alias", alias, "canonical", canonical, "identity", id)
			r.Diagnostics = append(r.Diagnostics, ir.Info(ir.DiagDuplicateIdentity, raw.Namespace, alias,
				fmt.Sprintf("same underlying type as %s, emitted as an alias", canonical)))
		}
	}
}

// better reports whether a should replace the current pick b. Candidates
// are visited in declaration order, so equal rank keeps the first seen.
//   - a name without the C prefix beats a prefixed one;
//   - then the shorter name wins.
func better(a, b, prefix string) bool {
	pa, pb := prefixed(a, prefix), prefixed(b, prefix)
	if pa != pb {
		return !pa
	}
	return len(a) < len(b)
}

func prefixed(name, prefix string) bool {
	return prefix != "" && len(name) > len(prefix) && strings.HasPrefix(name, prefix)
}
