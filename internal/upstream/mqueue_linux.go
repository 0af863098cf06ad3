//go:build linux

package upstream

import (
	"fmt"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Kernel mq_attr, fields are C long
type mqAttr struct {
	Flags    int
	MaxMsg   int
	MsgSize  int
	CurMsgs  int
	reserved [4]int
}

// POSIX message queue descriptor
type messageQueue struct {
	name    string // With leading slash, as producers name it
	fd      int
	msgSize int
	owned   bool // Created by us, unlinked on close
}

// Kernel queue names carry no leading slash
func kernelQueueName(name string) (ptr *byte, err error) {
	trimmed := strings.TrimPrefix(name, "/")
	if trimmed == "" || strings.Contains(trimmed, "/") {
		err = fmt.Errorf("invalid message queue name %q", name)
		return
	}
	ptr, err = unix.BytePtrFromString(trimmed)
	return
}

func queueName(name string) string {
	if strings.HasPrefix(name, "/") {
		return name
	}
	return "/" + name
}

// Opens an existing queue
func openQueue(name string, flags int) (queue *messageQueue, err error) {
	queue, err = mqOpen(name, flags, 0, false)
	return
}

// Creates a private queue that must not already exist
func createQueue(name string) (queue *messageQueue, err error) {
	queue, err = mqOpen(name, unix.O_RDONLY|unix.O_CREAT|unix.O_EXCL|unix.O_NONBLOCK, 0o600, true)
	return
}

func mqOpen(name string, flags int, mode uint32, owned bool) (queue *messageQueue, err error) {
	namePtr, err := kernelQueueName(name)
	if err != nil {
		return
	}

	fd, _, errno := unix.Syscall6(unix.SYS_MQ_OPEN,
		uintptr(unsafe.Pointer(namePtr)), uintptr(flags|unix.O_CLOEXEC), uintptr(mode), 0, 0, 0)
	if errno != 0 {
		err = fmt.Errorf("mq_open %s: %w", queueName(name), errno)
		return
	}

	queue = &messageQueue{
		name:  queueName(name),
		fd:    int(fd),
		owned: owned,
	}

	var attr mqAttr
	_, _, errno = unix.Syscall(unix.SYS_MQ_GETSETATTR, fd, 0, uintptr(unsafe.Pointer(&attr)))
	if errno != 0 {
		queue.close()
		queue = nil
		err = fmt.Errorf("mq_getattr %s: %w", queueName(name), errno)
		return
	}
	queue.msgSize = attr.MsgSize
	return
}

// Non-blocking receive of one message. Empty is not an error.
func (queue *messageQueue) receive() (data []byte, ok bool, err error) {
	buf := make([]byte, queue.msgSize)
	if len(buf) == 0 {
		return
	}

	n, _, errno := unix.Syscall6(unix.SYS_MQ_TIMEDRECEIVE,
		uintptr(queue.fd), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)), 0, 0, 0)
	switch errno {
	case 0:
		data = buf[:n]
		ok = true
	case unix.EAGAIN, unix.EINTR, unix.ETIMEDOUT:
	default:
		err = fmt.Errorf("mq_receive %s: %w", queue.name, errno)
	}
	return
}

func (queue *messageQueue) send(data []byte) (err error) {
	var ptr unsafe.Pointer
	if len(data) > 0 {
		ptr = unsafe.Pointer(&data[0])
	}

	_, _, errno := unix.Syscall6(unix.SYS_MQ_TIMEDSEND,
		uintptr(queue.fd), uintptr(ptr), uintptr(len(data)), 0, 0, 0)
	if errno != 0 {
		err = fmt.Errorf("mq_send %s: %w", queue.name, errno)
	}
	return
}

func (queue *messageQueue) close() (err error) {
	err = unix.Close(queue.fd)
	if queue.owned {
		unlinkErr := unlinkQueue(queue.name)
		if err == nil {
			err = unlinkErr
		}
	}
	return
}

func unlinkQueue(name string) (err error) {
	namePtr, err := kernelQueueName(name)
	if err != nil {
		return
	}
	_, _, errno := unix.Syscall(unix.SYS_MQ_UNLINK, uintptr(unsafe.Pointer(namePtr)), 0, 0)
	if errno != 0 && errno != unix.ENOENT {
		err = fmt.Errorf("mq_unlink %s: %w", name, errno)
	}
	return
}

// Creates a private queue and hands its name to a producer's subscription queue
func subscribe(producer string, private string) (queue *messageQueue, err error) {
	// A stale queue from a crashed run with the same pid is replaced
	unlinkQueue(private)

	queue, err = createQueue(private)
	if err != nil {
		return
	}

	request, err := openQueue(producer, unix.O_WRONLY|unix.O_NONBLOCK)
	if err != nil {
		queue.close()
		queue = nil
		return
	}
	defer request.close()

	err = request.send([]byte(queue.name))
	if err != nil {
		queue.close()
		queue = nil
		return
	}
	return
}
