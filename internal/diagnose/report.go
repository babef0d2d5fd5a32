// Package diagnose 检查抓包运行环境，输出 JSON 格式的诊断报告
package diagnose

import (
	"encoding/json"
	"io"
	"time"
)

// CheckStatus 检查状态
type CheckStatus string

const (
	StatusPass    CheckStatus = "pass"
	StatusFail    CheckStatus = "fail"
	StatusWarning CheckStatus = "warning"
	StatusSkipped CheckStatus = "skipped"
)

// CheckResult 单项检查结果
type CheckResult struct {
	Name    string      `json:"name"`
	Status  CheckStatus `json:"status"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details any         `json:"details,omitempty"`
}

// Report 诊断报告
type Report struct {
	Timestamp time.Time     `json:"timestamp"`
	Status    CheckStatus   `json:"status"`
	Summary   string        `json:"summary"`
	Checks    []CheckResult `json:"checks"`
	System    *SystemInfo   `json:"system,omitempty"`
}

// NewReport 创建诊断报告
func NewReport() *Report {
	return &Report{
		Timestamp: time.Now(),
		Status:    StatusPass,
		Checks:    make([]CheckResult, 0),
	}
}

// AddCheck 添加检查结果
func (r *Report) AddCheck(name string, status CheckStatus, message string) {
	r.add(CheckResult{Name: name, Status: status, Message: message})
}

// AddCheckWithError 添加带错误的检查结果
func (r *Report) AddCheckWithError(name string, status CheckStatus, message string, err error) {
	check := CheckResult{Name: name, Status: status, Message: message}
	if err != nil {
		check.Error = err.Error()
	}
	r.add(check)
}

// AddCheckWithDetails 添加带详细信息的检查结果
func (r *Report) AddCheckWithDetails(name string, status CheckStatus, message string, details any) {
	r.add(CheckResult{Name: name, Status: status, Message: message, Details: details})
}

// severity 状态的严重程度，报告状态取所有检查项中最严重的一个
var severity = map[CheckStatus]int{
	StatusSkipped: 0,
	StatusPass:    0,
	StatusWarning: 1,
	StatusFail:    2,
}

func (r *Report) add(check CheckResult) {
	r.Checks = append(r.Checks, check)
	if severity[check.Status] > severity[r.Status] {
		r.Status = check.Status
	}
}

// Count 统计某种状态的检查项数量
func (r *Report) Count(status CheckStatus) int {
	n := 0
	for _, c := range r.Checks {
		if c.Status == status {
			n++
		}
	}
	return n
}

// WriteJSON 输出缩进的 JSON
func (r *Report) WriteJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}
