// Package ipc provides the local socket the clipstash daemon listens on and
// CLI commands dial. On Unix it is a domain socket; on Windows a named pipe.
package ipc

import (
	"net"
	"os"
	"time"
)

const probeTimeout = 500 * time.Millisecond

// SocketPath returns the platform-appropriate path for the IPC socket.
//
//   - $CLIPSTASH_SOCKET when set
//   - Linux:   $XDG_RUNTIME_DIR/clipstash.sock
//   - macOS:   $TMPDIR/clipstash.sock
//   - Windows: \\.\pipe\clipstash
func SocketPath() string {
	if s := os.Getenv("CLIPSTASH_SOCKET"); s != "" {
		return s
	}
	return socketPath()
}

// Listen creates a listener on path, removing a stale socket left by a
// crashed daemon first.
func Listen(path string) (net.Listener, error) {
	removeStale(path)
	return listenIPC(path)
}

// Dial connects to the daemon socket at path.
func Dial(path string) (net.Conn, error) {
	return dialIPC(path, probeTimeout)
}

// IsRunning reports whether a daemon appears to be listening on path. It
// does a cheap dial-and-close; no data is exchanged.
func IsRunning(path string) bool {
	c, err := dialIPC(path, probeTimeout)
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}
