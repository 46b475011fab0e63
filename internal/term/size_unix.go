//go:build !windows

package term

import "golang.org/x/sys/unix"

func sizeIoctl(fd uintptr) (int, int) {
	ws, err := unix.IoctlGetWinsize(int(fd), unix.TIOCGWINSZ)
	if err != nil || ws.Col == 0 {
		return 0, 0
	}
	return int(ws.Col), int(ws.Row)
}
