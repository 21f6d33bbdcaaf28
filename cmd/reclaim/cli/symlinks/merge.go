package symlinks

import (
	"sort"
	"strings"

	"github.com/reclaimio/cli/cmd/reclaim/cli/recovery"
)

// Merge builds a new index with aliased paths folded onto their canonical
// entries. The longest matching alias wins, so the most specific mapping
// applies. Every operation that arrived through an alias gets its original
// path recorded as SourcePath. Merged timelines are re-sorted. The input
// index is not mutated (though operations are shared).
func Merge(index recovery.Index, groups []Group) recovery.Index {
	aliasToCanonical := map[string]string{}
	for _, g := range groups {
		for _, alias := range g.Aliases {
			aliasToCanonical[alias] = g.Canonical
		}
	}

	aliases := make([]string, 0, len(aliasToCanonical))
	for a := range aliasToCanonical {
		aliases = append(aliases, a)
	}
	sort.Slice(aliases, func(i, j int) bool { return len(aliases[i]) > len(aliases[j]) })

	resolve := func(path string) (canonical string, wasAlias bool) {
		for _, alias := range aliases {
			if path == alias || strings.HasPrefix(path, alias+"/") {
				return aliasToCanonical[alias] + path[len(alias):], true
			}
		}
		return path, false
	}

	merged := make(recovery.Index)
	for _, path := range index.Paths() {
		canonical, wasAlias := resolve(path)

		target, ok := merged[canonical]
		if !ok {
			target = &recovery.File{Path: canonical}
			merged[canonical] = target
		}
		for _, op := range index[path].Operations {
			if wasAlias {
				op.SourcePath = path
			}
			target.Operations = append(target.Operations, op)
		}
	}

	for _, f := range merged {
		sort.SliceStable(f.Operations, func(i, j int) bool {
			a, b := f.Operations[i], f.Operations[j]
			if a.Timestamp != b.Timestamp {
				return a.Timestamp < b.Timestamp
			}
			if a.SessionID != b.SessionID {
				return a.SessionID < b.SessionID
			}
			return a.LineNumber < b.LineNumber
		})
	}

	return merged
}
