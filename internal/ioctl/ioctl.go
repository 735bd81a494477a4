// Package ioctl encodes Linux ioctl request numbers and issues them on file descriptors.
package ioctl

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Mode is the IOCTL mode.
type Mode uint8

// Modes
const (
	None Mode = iota
	Write
	Read
)

// Command to be sent over ioctl.
type Command uintptr

func (c Command) String() string {
	var (
		mode = Mode(c >> 30 & 0x03)
		size = c >> 16 & 0x3fff
		cmd  = c & 0xffff
		str  string
	)
	if mode&Write > 0 {
		str += " write"
	}
	if mode&Read > 0 {
		str += " read"
	}
	return fmt.Sprintf("ioctl%s (%d bytes) 0x%04x", str, size, uintptr(cmd))
}

// Encode an ioctl command.
func Encode(mode Mode, size uint16, cmd uintptr) Command {
	return Command(mode)<<30 | Command(size)<<16 | Command(cmd)
}

// Pointer encodes cmd with the size of the value T.
func Pointer[T any](mode Mode, cmd uintptr) Command {
	var v T
	return Encode(mode, uint16(unsafe.Sizeof(v)), cmd)
}

// Call does a plain ioctl system call.
func Call(fd, command, arg uintptr) error {
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, command, arg); errno != 0 {
		return fmt.Errorf("ioctl %s failed: %w", Command(command), errno)
	}
	return nil
}

// Get reads a value of type T with a sized read request.
func Get[T any](fd uintptr, cmd uintptr, v *T) error {
	return Call(fd, uintptr(Pointer[T](Read, cmd)), uintptr(unsafe.Pointer(v)))
}

// Set writes a value of type T with a sized write request.
func Set[T any](fd uintptr, cmd uintptr, v *T) error {
	return Call(fd, uintptr(Pointer[T](Write, cmd)), uintptr(unsafe.Pointer(v)))
}

// Fetch issues a fixed request number that fills *v, as used by the framebuffer ioctls.
func Fetch[T any](fd uintptr, request uintptr) (T, error) {
	var v T
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, request, uintptr(unsafe.Pointer(&v))); errno != 0 {
		return v, os.NewSyscallError("ioctl", errno)
	}
	return v, nil
}
