package proclog

import (
	"sync"
	"time"
)

// Entry 单条分层处理日志
type Entry struct {
	Timestamp time.Time      `json:"timestamp"`
	Layer     string         `json:"layer"`
	Message   string         `json:"message"`
	DeviceID  string         `json:"device_id,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Log 有界的内存处理日志
//
// 诊断接口用的最近 N 条分层记录，与 zap 的结构化日志互不替代。
// 显式对象而非包级全局，便于按服务实例隔离与测试。
type Log struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int
}

const defaultCapacity = 500

// New 创建处理日志，capacity <= 0 时使用默认容量
func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Log{capacity: capacity}
}

// Append 追加一条记录，超出容量时淘汰最旧的
func (l *Log) Append(entry Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	l.entries = append(l.entries, entry)
	if len(l.entries) > l.capacity {
		l.entries = l.entries[len(l.entries)-l.capacity:]
	}
}

// Recent 返回最近 limit 条记录（时间升序），limit <= 0 或超长时返回全部
func (l *Log) Recent(limit int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.entries)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Entry, limit)
	copy(out, l.entries[n-limit:])
	return out
}

// Len 当前记录数
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
