package cascade

import (
	"context"

	"github.com/arnavshah/capacity-planner-go/pkg/models"
)

// MemoryGraph is a DependencyGraph over an in-memory snapshot of items
type MemoryGraph struct {
	byParent map[string][]models.ScheduledItem
}

// NewMemoryGraph indexes items by the id they depend on.
// Dependents keep the order they appear in items.
func NewMemoryGraph(items []models.ScheduledItem) *MemoryGraph {
	g := &MemoryGraph{byParent: make(map[string][]models.ScheduledItem)}
	for _, item := range items {
		if item.DependsOnID == nil {
			continue
		}
		g.byParent[*item.DependsOnID] = append(g.byParent[*item.DependsOnID], item)
	}
	return g
}

// Dependents returns the items whose DependsOnID is id
func (g *MemoryGraph) Dependents(_ context.Context, id string) ([]models.ScheduledItem, error) {
	return g.byParent[id], nil
}
