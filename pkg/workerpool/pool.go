package workerpool

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrClosed возвращается при отправке задачи в закрытый пул
	ErrClosed = errors.New("workerpool: pool is closed")

	// ErrQueueFull возвращается, если очередь задач заполнена
	ErrQueueFull = errors.New("workerpool: queue is full")
)

// DefaultWorkers число воркеров по умолчанию
const DefaultWorkers = 4

// Logger интерфейс для логирования
type Logger interface {
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// DropObserver получает уведомление об отброшенной задаче (metrics.Metrics)
type DropObserver interface {
	CacheTaskDropped()
}

type task struct {
	ctx context.Context
	fn  func(ctx context.Context)
}

// Pool ограниченный пул воркеров с очередью фиксированного размера
type Pool struct {
	tasks   chan task
	logger  Logger
	dropped DropObserver

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// New создает пул и запускает воркеры
// workers <= 0 трактуется как DefaultWorkers, queueSize < 0 как 0
func New(workers, queueSize int, logger Logger, dropped DropObserver) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queueSize < 0 {
		queueSize = 0
	}

	p := &Pool{
		tasks:   make(chan task, queueSize),
		logger:  logger,
		dropped: dropped,
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}

	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for t := range p.tasks {
		p.run(t)
	}
}

func (p *Pool) run(t task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("workerpool: task panicked: %v", r)
		}
	}()
	t.fn(t.ctx)
}

// Submit ставит задачу в очередь и сразу возвращает управление
// Если очередь заполнена или пул закрыт, задача отбрасывается и возвращается false
func (p *Pool) Submit(fn func(ctx context.Context)) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.logger.Warn("workerpool: Submit - pool is closed, task dropped")
		p.observeDrop()
		return false
	}

	select {
	case p.tasks <- task{ctx: context.Background(), fn: fn}:
		return true
	default:
		p.logger.Warn("workerpool: Submit - queue is full, task dropped")
		p.observeDrop()
		return false
	}
}

// Do выполняет fn на одном из воркеров и ждет результата
// Ожидание прерывается по ctx: задача, уже взятая воркером, доработает в фоне
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	done := make(chan error, 1)
	t := task{
		ctx: ctx,
		fn: func(ctx context.Context) {
			done <- fn(ctx)
		},
	}

	if err := p.enqueue(ctx, t); err != nil {
		return err
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) enqueue(ctx context.Context, t task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}

	select {
	case p.tasks <- t:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close перестает принимать задачи и ждет завершения уже поставленных
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool) observeDrop() {
	if p.dropped != nil {
		p.dropped.CacheTaskDropped()
	}
}
