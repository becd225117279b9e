package ui

import (
	"github.com/vanderheijden86/flattree/pkg/config"
	"github.com/vanderheijden86/flattree/pkg/model"
	"github.com/vanderheijden86/flattree/pkg/tree"
)

// SortKeysFor converts configured sort specs into tree sort keys. Unknown
// fields are skipped; config validation rejects them earlier.
func SortKeysFor(specs []config.SortSpec) []tree.SortKey[model.Item] {
	keys := make([]tree.SortKey[model.Item], 0, len(specs))
	for _, s := range specs {
		if key, ok := sortKey(s.Field, s.Ascending()); ok {
			keys = append(keys, key)
		}
	}
	return keys
}

func sortKey(field string, ascending bool) (tree.SortKey[model.Item], bool) {
	type node = tree.Node[model.Item]

	switch field {
	case config.SortName:
		return tree.ByName[model.Item](ascending), true
	case config.SortNatural:
		return tree.ByNaturalName[model.Item](ascending), true
	case config.SortID:
		return tree.ByID[model.Item](ascending), true
	case config.SortPriority:
		// Unprioritized items (0) sort after every explicit priority.
		return tree.By(field, func(n *node) int {
			if n.Payload.Priority == 0 {
				return model.MaxPriority + 1
			}
			return n.Payload.Priority
		}, ascending), true
	case config.SortKind:
		return tree.By(field, func(n *node) int { return model.KindOrder(n.Payload.Kind) }, ascending), true
	case config.SortCreated:
		return tree.SortKey[model.Item]{
			Name: field,
			Compare: func(a, b *node) int {
				return a.Payload.Created.Compare(b.Payload.Created)
			},
			Ascending: ascending,
		}, true
	}
	return tree.SortKey[model.Item]{}, false
}
