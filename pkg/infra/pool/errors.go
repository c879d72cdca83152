// Package pool provides a bounded goroutine pool built on ants.
package pool

import "errors"

// 池相关错误定义
var (
	// ErrPoolClosed 池已关闭
	ErrPoolClosed = errors.New("pool closed")

	// ErrPoolOverload 池已满（非阻塞模式）
	ErrPoolOverload = errors.New("pool overloaded")
)
