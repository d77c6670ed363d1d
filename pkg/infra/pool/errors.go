// Package pool bounds concurrent work with an ants goroutine pool.
package pool

import "errors"

var (
	// ErrPoolClosed 池已关闭
	ErrPoolClosed = errors.New("pool is closed")

	// ErrPoolOverload 池已满（非阻塞模式）
	ErrPoolOverload = errors.New("pool is overloaded")
)
