package errors

import "errors"

// 存储层通用哨兵错误：业务层通过 errors.Is 翻译为各自的模块错误。

// ErrUniqueViolation 唯一约束冲突：并发写入竞争同一资源（床位/窗口/成员）
var ErrUniqueViolation = errors.New("唯一约束冲突，资源已被占用")

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")
