package main

import "sync"

// ==================== SSE Hub ====================

// SSEHub 管理按 job ID 订阅的 SSE 客户端
// 所有订阅/取消/发布操作经由内部通道在单个 goroutine 中串行化，
// channel 由订阅方（handler）创建并负责关闭，Hub 只向其发送消息
type SSEHub struct {
	// topics 保存 job ID -> 客户端 channel 集合
	topics map[string]map[chan []byte]bool

	subscribe   chan sseSubscription
	unsubscribe chan sseSubscription
	publish     chan sseMessage
	done        chan struct{}

	mu       sync.Mutex
	stopOnce sync.Once
}

type sseSubscription struct {
	ch    chan []byte
	topic string
}

type sseMessage struct {
	topic string
	msg   []byte
}

// NewSSEHub 创建 SSE Hub
// publish 通道带缓冲，短时突发发布不会阻塞任务 worker
func NewSSEHub() *SSEHub {
	return &SSEHub{
		topics:      make(map[string]map[chan []byte]bool),
		subscribe:   make(chan sseSubscription),
		unsubscribe: make(chan sseSubscription),
		publish:     make(chan sseMessage, 100),
		done:        make(chan struct{}),
	}
}

// Run 启动事件循环，应在独立 goroutine 中运行
func (h *SSEHub) Run() {
	for {
		select {
		case <-h.done:
			return
		case s := <-h.subscribe:
			h.mu.Lock()
			subs, ok := h.topics[s.topic]
			if !ok {
				subs = make(map[chan []byte]bool)
				h.topics[s.topic] = subs
			}
			subs[s.ch] = true
			h.mu.Unlock()
		case s := <-h.unsubscribe:
			h.mu.Lock()
			if subs, ok := h.topics[s.topic]; ok {
				delete(subs, s.ch)
				if len(subs) == 0 {
					delete(h.topics, s.topic)
				}
			}
			h.mu.Unlock()
		case tm := <-h.publish:
			h.mu.Lock()
			if subs, ok := h.topics[tm.topic]; ok {
				for ch := range subs {
					select {
					case ch <- tm.msg:
					default:
						// 客户端读取不及时则丢弃该条消息
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish 向订阅了该 job 的所有客户端广播消息
func (h *SSEHub) Publish(topic string, msg []byte) {
	select {
	case h.publish <- sseMessage{topic: topic, msg: msg}:
	case <-h.done:
	}
}

// Subscribe 注册订阅通道，调用方应提供带缓冲的 channel
func (h *SSEHub) Subscribe(ch chan []byte, topic string) {
	select {
	case h.subscribe <- sseSubscription{ch: ch, topic: topic}:
	case <-h.done:
	}
}

// Unsubscribe 取消订阅，Hub 不会关闭调用方的 channel
func (h *SSEHub) Unsubscribe(ch chan []byte, topic string) {
	select {
	case h.unsubscribe <- sseSubscription{ch: ch, topic: topic}:
	case <-h.done:
	}
}

// SubscriberCount 返回某个 job 当前的订阅者数量
func (h *SSEHub) SubscriberCount(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics[topic])
}

// Stop 停止事件循环
func (h *SSEHub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}
