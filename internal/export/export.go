package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/nickproject/pktsniff/internal/decode"
	"github.com/nickproject/pktsniff/internal/render"
	"github.com/nickproject/pktsniff/internal/stats"
)

// ExportFormat 导出格式
type ExportFormat string

const (
	FormatJSON ExportFormat = "json"
	FormatCSV  ExportFormat = "csv"
)

// Record 导出的一条摘要，地址均为文本形式
type Record struct {
	Timestamp  string  `json:"timestamp"`
	FrameLen   int     `json:"frame_length"`
	Protocol   string  `json:"protocol,omitempty"`
	SrcMAC     string  `json:"src_mac,omitempty"`
	DstMAC     string  `json:"dst_mac,omitempty"`
	SrcIP      string  `json:"src_ip,omitempty"`
	DstIP      string  `json:"dst_ip,omitempty"`
	SrcPort    *uint16 `json:"src_port,omitempty"`
	DstPort    *uint16 `json:"dst_port,omitempty"`
	ServerName string  `json:"server_name,omitempty"`
	HexDump    string  `json:"hex_dump"`
}

// NewRecord 从摘要生成导出记录
func NewRecord(s *decode.Summary) Record {
	r := Record{
		Timestamp:  s.TimestampString(),
		FrameLen:   s.FrameLen,
		Protocol:   s.Protocol,
		SrcPort:    s.SrcPort,
		DstPort:    s.DstPort,
		ServerName: s.ServerName,
		HexDump:    s.HexDump,
	}
	if s.SrcMAC != nil {
		r.SrcMAC = render.FormatMAC(s.SrcMAC)
	}
	if s.DstMAC != nil {
		r.DstMAC = render.FormatMAC(s.DstMAC)
	}
	if s.SrcIP != nil {
		r.SrcIP = s.SrcIP.String()
	}
	if s.DstIP != nil {
		r.DstIP = s.DstIP.String()
	}
	return r
}

// Report 导出报告
type Report struct {
	Timestamp  time.Time      `json:"timestamp"`
	Duration   time.Duration  `json:"duration"`
	Interface  string         `json:"interface,omitempty"`
	Expression string         `json:"expression"`
	Stats      stats.Snapshot `json:"stats"`
	Records    []Record       `json:"records"`
}

// Collector 收集会话中输出的摘要
type Collector struct {
	mu      sync.Mutex
	records []Record
}

// NewCollector 创建收集器
func NewCollector() *Collector {
	return &Collector{}
}

// Emit 记录一个摘要
func (c *Collector) Emit(s *decode.Summary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, NewRecord(s))
	return nil
}

// Records 返回已收集的记录
func (c *Collector) Records() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// Export 导出数据到文件
func Export(report *Report, filename string, format ExportFormat) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("创建文件失败: %w", err)
	}
	defer file.Close()

	if err := Write(file, report, format); err != nil {
		return err
	}
	return file.Close()
}

// Write 按格式写出报告
func Write(w io.Writer, report *Report, format ExportFormat) error {
	switch format {
	case FormatJSON:
		return exportJSON(report, w)
	case FormatCSV:
		return exportCSV(report, w)
	default:
		return fmt.Errorf("不支持的格式: %s", format)
	}
}

func exportJSON(report *Report, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func exportCSV(report *Report, w io.Writer) error {
	writer := csv.NewWriter(w)

	// 写入头部
	headers := []string{
		"timestamp",
		"frame_length",
		"protocol",
		"src_mac",
		"dst_mac",
		"src_ip",
		"dst_ip",
		"src_port",
		"dst_port",
		"server_name",
	}
	if err := writer.Write(headers); err != nil {
		return err
	}

	// 写入数据行
	for _, r := range report.Records {
		row := []string{
			r.Timestamp,
			strconv.Itoa(r.FrameLen),
			r.Protocol,
			r.SrcMAC,
			r.DstMAC,
			r.SrcIP,
			r.DstIP,
			optionalPort(r.SrcPort),
			optionalPort(r.DstPort),
			r.ServerName,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func optionalPort(p *uint16) string {
	if p == nil {
		return ""
	}
	return render.FormatPort(*p)
}

// ParseFormat 解析格式字符串
func ParseFormat(s string) (ExportFormat, error) {
	switch s {
	case "json", "JSON":
		return FormatJSON, nil
	case "csv", "CSV":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("不支持的格式: %s (支持: json, csv)", s)
	}
}
