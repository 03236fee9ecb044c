// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package restrict

import (
	"slices"
	"testing"
)

func TestNetwork(t *testing.T) {
	p := Network()
	if !slices.Contains(p.RODirs, "/etc/ssl") {
		t.Errorf("Network().RODirs = %v, want /etc/ssl included", p.RODirs)
	}
	if !slices.Contains(p.ROFiles, "/etc/resolv.conf") {
		t.Errorf("Network().ROFiles = %v, want /etc/resolv.conf included", p.ROFiles)
	}
	if len(p.RWDirs) != 0 {
		t.Errorf("Network().RWDirs = %v, want none", p.RWDirs)
	}
}
