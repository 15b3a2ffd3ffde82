//go:build windows

package format

import "syscall"

func setWinFileAttributes(path string, attrs uint32) error {
	if attrs == 0 {
		return nil
	}
	p, err := syscall.UTF16PtrFromString(path)
	if err != nil {
		return err
	}
	return syscall.SetFileAttributes(p, attrs)
}
