package errors

import "errors"

// ErrRunLockHeld 评估运行锁被占用：同公司已有批次在执行
var ErrRunLockHeld = errors.New("该公司已有合规评估批次在执行，请稍后重试")
