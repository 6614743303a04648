// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package testutil

import (
	"os"
	"testing"
)

// RequireVM skips the test if the EBTSET_VM_TEST environment variable is not set.
// Tests that open raw sockets need CAP_NET_RAW and a kernel with the set
// modules loaded, which only the VM environment guarantees.
func RequireVM(t *testing.T) {
	t.Helper()
	if os.Getenv("EBTSET_VM_TEST") == "" {
		t.Skip("Skipping test: requires EBTSET_VM_TEST environment")
	}
}
