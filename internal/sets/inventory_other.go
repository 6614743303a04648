// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build !linux

package sets

import "grimm.is/ebtset/internal/errors"

// NetlinkInventory is only functional on Linux.
type NetlinkInventory struct{}

// List implements Inventory.
func (NetlinkInventory) List() ([]SetInfo, error) {
	return nil, errors.Mark(errors.New(errors.KindUnavailable, "netlink is not available on this platform"), ErrChannelUnavailable)
}
