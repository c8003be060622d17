package pipeline

import "math"

// 基础统计与频谱辅助函数
// 语料中没有任何仓库引入 FFT/统计第三方库，这里基于 math 手写实现

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev 总体标准差
func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// coefficientOfVariation 变异系数 std/mean，mean 为 0 时返回 -1 表示不可用
func coefficientOfVariation(values []float64) float64 {
	m := mean(values)
	if m == 0 {
		return -1
	}
	return stddev(values) / m
}

// linearSlope 一阶最小二乘拟合的斜率，x 取 0..n-1
func linearSlope(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	// x 均值 = (n-1)/2
	xMean := float64(n-1) / 2
	yMean := mean(values)
	num, den := 0.0, 0.0
	for i, v := range values {
		dx := float64(i) - xMean
		num += dx * (v - yMean)
		den += dx * dx
	}
	if den == 0 {
		return 0
	}
	return num / den
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// roundTo 四舍五入到指定小数位（输出字段与移动端约定保持固定精度）
func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// hannWindow Hann 窗系数
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := 0; i < n; i++ {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// dftMagnitude 实序列的离散傅里叶变换幅度谱（前半段，含直流分量）
// 序列长度最多 128，O(n²) 直接计算在采样周期预算内
func dftMagnitude(signal []float64) []float64 {
	n := len(signal)
	half := n / 2
	mags := make([]float64, half)
	for k := 0; k < half; k++ {
		var re, im float64
		for t, v := range signal {
			angle := -2 * math.Pi * float64(k) * float64(t) / float64(n)
			re += v * math.Cos(angle)
			im += v * math.Sin(angle)
		}
		mags[k] = math.Hypot(re, im)
	}
	return mags
}

// autocorrelation 归一化自相关 r(lag)，lag 处样本不足或方差为 0 时返回 0
func autocorrelation(values []float64, lag int) float64 {
	n := len(values)
	if lag <= 0 || lag >= n {
		return 0
	}
	m := mean(values)
	var num, den float64
	for _, v := range values {
		d := v - m
		den += d * d
	}
	if den == 0 {
		return 0
	}
	for i := 0; i < n-lag; i++ {
		num += (values[i] - m) * (values[i+lag] - m)
	}
	return num / den
}

// bandPowers 对 RR 间期序列做周期图，按 VLF/LF/HF 频带累计功率
// RR 序列按平均间期近似等间隔采样（fs = 1000/meanRR Hz）
// 返回三个频带的绝对功率；序列退化时三者均为 0
func bandPowers(rrIntervals []float64) (vlf, lf, hf float64) {
	n := len(rrIntervals)
	meanRR := mean(rrIntervals)
	if n < 4 || meanRR <= 0 {
		return 0, 0, 0
	}
	fs := 1000.0 / meanRR // RR 单位是 ms

	detrended := make([]float64, n)
	for i, v := range rrIntervals {
		detrended[i] = v - meanRR
	}

	mags := dftMagnitude(detrended)
	for k := 1; k < len(mags); k++ {
		freq := float64(k) * fs / float64(n)
		power := mags[k] * mags[k]
		switch {
		case freq >= 0.003 && freq < 0.04:
			vlf += power
		case freq >= 0.04 && freq < 0.15:
			lf += power
		case freq >= 0.15 && freq < 0.4:
			hf += power
		}
	}
	return vlf, lf, hf
}
