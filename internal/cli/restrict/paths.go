// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package restrict

// Paths lists filesystem paths a sandboxed program keeps access to.
type Paths struct {
	RODirs  []string
	ROFiles []string
	RWDirs  []string
}

// Network returns paths a program that only talks to the network over
// TLS needs: CA certificates and resolver configuration.
func Network() Paths {
	return Paths{
		RODirs: []string{
			"/etc/ssl",
			"/etc/pki",
			"/etc/ca-certificates",
			"/usr/share/ca-certificates",
			"/usr/share/zoneinfo",
		},
		ROFiles: []string{
			"/etc/hosts",
			"/etc/nsswitch.conf",
			"/etc/resolv.conf",
			"/etc/localtime",
		},
	}
}
