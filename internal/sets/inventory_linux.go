// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build linux

package sets

import (
	"github.com/vishvananda/netlink"

	"grimm.is/ebtset/internal/errors"
)

// NetlinkInventory lists ipsets through the netfilter netlink interface.
type NetlinkInventory struct{}

// List implements Inventory.
func (NetlinkInventory) List() ([]SetInfo, error) {
	results, err := netlink.IpsetListAll()
	if err != nil {
		wrapped := errors.Wrap(err, errors.KindUnavailable, "listing ipsets over netlink")
		return nil, errors.Mark(wrapped, ErrChannelUnavailable)
	}

	out := make([]SetInfo, 0, len(results))
	for _, r := range results {
		out = append(out, SetInfo{
			Name:       r.SetName,
			Type:       r.TypeName,
			Family:     Family(r.Family),
			Entries:    r.NumEntries,
			References: r.References,
		})
	}
	return out, nil
}
