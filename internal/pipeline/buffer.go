package pipeline

import (
	"time"

	"reconnect-biosignal/internal/models"
)

// floatRing 有界 FIFO 浮点序列
// 长度永不超过容量，写满后丢弃最旧元素
type floatRing struct {
	values []float64
	cap    int
}

func newFloatRing(capacity int) *floatRing {
	return &floatRing{
		values: make([]float64, 0, capacity),
		cap:    capacity,
	}
}

// Push 追加一个值，必要时淘汰最旧值
func (r *floatRing) Push(v float64) {
	if len(r.values) >= r.cap {
		copy(r.values, r.values[1:])
		r.values = r.values[:len(r.values)-1]
	}
	r.values = append(r.values, v)
}

func (r *floatRing) Len() int {
	return len(r.values)
}

// Last 返回最近 n 个值（不足 n 时返回全部），切片按时间升序
func (r *floatRing) Last(n int) []float64 {
	if n >= len(r.values) {
		return r.values
	}
	return r.values[len(r.values)-n:]
}

// All 返回全部缓冲值（时间升序）
func (r *floatRing) All() []float64 {
	return r.values
}

// timedSample 带时间戳的采样
type timedSample struct {
	Timestamp time.Time
	Data      models.Sample
}

// sampleRing 有界 FIFO 采样序列（保留原始采样，供各通道统计使用）
type sampleRing struct {
	samples []timedSample
	cap     int
}

func newSampleRing(capacity int) *sampleRing {
	return &sampleRing{
		samples: make([]timedSample, 0, capacity),
		cap:     capacity,
	}
}

func (r *sampleRing) Push(ts time.Time, s models.Sample) {
	if len(r.samples) >= r.cap {
		copy(r.samples, r.samples[1:])
		r.samples = r.samples[:len(r.samples)-1]
	}
	r.samples = append(r.samples, timedSample{Timestamp: ts, Data: s})
}

func (r *sampleRing) Len() int {
	return len(r.samples)
}

// Last 返回最近 n 条采样（时间升序）
func (r *sampleRing) Last(n int) []timedSample {
	if n >= len(r.samples) {
		return r.samples
	}
	return r.samples[len(r.samples)-n:]
}

func (r *sampleRing) All() []timedSample {
	return r.samples
}

// LastChannel 提取最近 n 条采样中某个通道的值序列
func (r *sampleRing) LastChannel(n int, pick func(models.Sample) float64) []float64 {
	tail := r.Last(n)
	out := make([]float64, len(tail))
	for i, ts := range tail {
		out[i] = pick(ts.Data)
	}
	return out
}
