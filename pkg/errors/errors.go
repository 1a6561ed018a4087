package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
// 仓储层条件更新影响 0 行时返回，由服务层基于最新快照重新判定具体原因
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrStoreTimeout 存储访问超出业务上限
var ErrStoreTimeout = errors.New("存储访问超时")
