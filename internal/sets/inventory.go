// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package sets

// SetInfo summarizes one set known to the kernel.
type SetInfo struct {
	Name       string
	Type       string
	Family     Family
	Entries    uint32
	References uint32
}

// Inventory lists sets without resolving them one by one.
type Inventory interface {
	List() ([]SetInfo, error)
}

// List implements Inventory over the simulated registry.
func (r *SimRegistry) List() ([]SetInfo, error) {
	sets := r.Sets()
	out := make([]SetInfo, 0, len(sets))
	for _, s := range sets {
		out = append(out, SetInfo{
			Name:   s.Name,
			Type:   "sim:" + r.proto.Name,
			Family: s.Family,
		})
	}
	return out, nil
}
