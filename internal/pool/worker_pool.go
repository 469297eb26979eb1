package pool

import (
	"sync"

	"go.uber.org/zap"
)

// WorkerPool 协程池
//
// 用于限制并发协程数量。通知投递等尽力而为的旁路任务经由这里调度，
// 任务 panic 会被捕获并记录，不影响其他任务。
type WorkerPool struct {
	maxWorkers int
	taskQueue  chan func()
	wg         sync.WaitGroup
	log        *zap.Logger
}

// NewWorkerPool 创建协程池
//
// 参数:
//   - maxWorkers: 最大协程数
//   - queueSize: 任务队列大小
func NewWorkerPool(maxWorkers, queueSize int, log *zap.Logger) *WorkerPool {
	return &WorkerPool{
		maxWorkers: maxWorkers,
		taskQueue:  make(chan func(), queueSize),
		log:        log,
	}
}

// Start 启动协程池
func (p *WorkerPool) Start() {
	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Submit 提交任务
//
// 如果队列已满，会阻塞直到有空位
func (p *WorkerPool) Submit(task func()) {
	p.taskQueue <- task
}

// TrySubmit 尝试提交任务
//
// 如果队列已满，立即返回 false。请求路径上的调度必须使用本方法，
// 避免旁路任务堆积时阻塞响应。
func (p *WorkerPool) TrySubmit(task func()) bool {
	select {
	case p.taskQueue <- task:
		return true
	default:
		return false
	}
}

// Stop 停止协程池，排空队列中剩余的任务
func (p *WorkerPool) Stop() {
	close(p.taskQueue)
	p.wg.Wait()
}

// worker 工作协程
//
// 退出只由队列关闭触发：Stop 先关闭队列，worker 消费完剩余任务
// 才返回，保证已入队的任务不会在停机时丢失。
func (p *WorkerPool) worker() {
	defer p.wg.Done()

	for task := range p.taskQueue {
		func() {
			defer func() {
				if r := recover(); r != nil {
					p.log.Error("task panic recovered", zap.Any("error", r))
				}
			}()
			task()
		}()
	}
}
