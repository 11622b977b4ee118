// Package recognition 将采集到的人脸样本与已录入模板比对。
// 比对结果是一个封闭的变体：Matched 或 NoMatch。
package recognition

import (
	"math"

	"github.com/coder/hnsw"

	"face-attendance/internal/model"
)

// NoMatchReason 未匹配原因
type NoMatchReason string

const (
	ReasonNoCandidates   NoMatchReason = "no_candidates"   // 候选池为空
	ReasonNotComparable  NoMatchReason = "not_comparable"  // 没有与样本维度一致的模板
	ReasonBelowThreshold NoMatchReason = "below_threshold" // 最佳置信度未达阈值
)

// Result 识别结果，只有 Matched 与 NoMatch 两种实现
type Result interface {
	isResult()
}

// Matched 命中员工
type Matched struct {
	Employee   *model.Employee
	Confidence float64 // 0-100
}

// NoMatch 未命中
type NoMatch struct {
	Reason NoMatchReason
	// BestConfidence 最接近的候选置信度，便于排查阈值设置；无可比候选时为 0
	BestConfidence float64
}

func (Matched) isResult() {}
func (NoMatch) isResult() {}

// Matcher 基于余弦距离的精确比对器，无状态、可并发使用
type Matcher struct {
	distance hnsw.DistanceFunc
}

// NewMatcher 创建使用余弦距离的比对器
func NewMatcher() *Matcher {
	return &Matcher{distance: hnsw.CosineDistance}
}

// Confidence 将余弦距离（0 相同，2 相反）换算为 0-100 的置信度
func Confidence(distance float32) float64 {
	c := (1 - float64(distance)) * 100
	switch {
	case math.IsNaN(c), c < 0:
		return 0
	case c > 100:
		return 100
	}
	return c
}

// Match 在候选池中选出置信度最高的员工；置信度相同时取工号字典序最小者。
// 最佳置信度低于 threshold 时返回 NoMatch。
func (m *Matcher) Match(sample []float32, candidates []model.Employee, threshold float64) Result {
	if len(candidates) == 0 {
		return NoMatch{Reason: ReasonNoCandidates}
	}

	var best *model.Employee
	bestConfidence := -1.0

	for i := range candidates {
		c := &candidates[i]
		template := c.Template()
		if len(template) == 0 || len(template) != len(sample) {
			continue
		}

		d := m.distance(sample, template)
		if math.IsNaN(float64(d)) {
			continue
		}
		conf := Confidence(d)

		if conf > bestConfidence || (conf == bestConfidence && c.EmployeeID < best.EmployeeID) {
			best = c
			bestConfidence = conf
		}
	}

	if best == nil {
		return NoMatch{Reason: ReasonNotComparable}
	}
	if bestConfidence < threshold {
		return NoMatch{Reason: ReasonBelowThreshold, BestConfidence: bestConfidence}
	}
	return Matched{Employee: best, Confidence: bestConfidence}
}

// ValidSample 样本非空且不是全零向量
func ValidSample(sample []float32) bool {
	for _, v := range sample {
		if v != 0 && !math.IsNaN(float64(v)) {
			return true
		}
	}
	return false
}
